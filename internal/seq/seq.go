// Package seq provides fixed-length, structurally shared sequences.
//
// A Seq is immutable: slicing is O(1) and shares the backing store, while
// Append and Prepend build new stores. An MSeq is a mutable view used as
// scratch space inside a single call; Seal turns it into a Seq without
// copying, and the next write through the MSeq copies the store first so
// the sealed Seq never changes.
//
// Index violations panic, as they do for Go slices.
package seq

import (
	"fmt"
	"iter"
	"slices"
	"strings"

	"genom/internal/bit"
)

type Seq[T any] struct {
	store  Store[T]
	off, n int
}

// Of returns a sequence holding a copy of values.
func Of[T any](values ...T) Seq[T] {
	return Seq[T]{store: sliceStore[T](slices.Clone(values)), n: len(values)}
}

func Empty[T any]() Seq[T] {
	return Seq[T]{}
}

// Generate returns the sequence f(0), ..., f(n-1).
func Generate[T any](n int, f func(i int) T) Seq[T] {
	values := make(sliceStore[T], n)
	for i := range values {
		values[i] = f(i)
	}
	return Seq[T]{store: values, n: n}
}

// BitsOf returns a bit-packed sequence over the first n bits of data. The
// bytes are copied.
func BitsOf[T ~bool](data []byte, n int) Seq[T] {
	if n > len(data)<<3 {
		panic(fmt.Sprintf("seq: %d bits do not fit into %d bytes", n, len(data)))
	}
	return Seq[T]{store: &bitStore[T]{data: bit.Copy(data, 0, n), n: n}, n: n}
}

// Bytes returns the bits of s packed into a fresh byte array, and false
// when s is not backed by a bit store.
func Bytes[T any](s Seq[T]) ([]byte, bool) {
	bb, ok := s.store.(bitBacked)
	if !ok {
		return nil, false
	}
	return bit.Copy(bb.packed(), s.off, s.off+s.n), true
}

// CountBits counts the set bits of a bit-backed sequence without unpacking.
func CountBits[T ~bool](s Seq[T]) int {
	if bb, ok := s.store.(bitBacked); ok {
		return bit.CountRange(bb.packed(), s.off, s.off+s.n)
	}
	count := 0
	for v := range s.Values() {
		if bool(v) {
			count++
		}
	}
	return count
}

func (s Seq[T]) Len() int {
	return s.n
}

func (s Seq[T]) IsEmpty() bool {
	return s.n == 0
}

func (s Seq[T]) Get(i int) T {
	checkIndex(i, s.n)
	return s.store.Get(s.off + i)
}

// SubSeq returns the view [start, end) sharing the backing store.
func (s Seq[T]) SubSeq(start, end int) Seq[T] {
	checkRange(start, end, s.n)
	return Seq[T]{store: s.store, off: s.off + start, n: end - start}
}

func (s Seq[T]) Append(values ...T) Seq[T] {
	return s.AppendSeq(Of(values...))
}

func (s Seq[T]) AppendSeq(other Seq[T]) Seq[T] {
	if other.n == 0 {
		return s
	}
	if s.n == 0 {
		return other
	}
	st := s.make(s.n + other.n)
	for i := 0; i < s.n; i++ {
		st.Set(i, s.store.Get(s.off+i))
	}
	for i := 0; i < other.n; i++ {
		st.Set(s.n+i, other.store.Get(other.off+i))
	}
	return Seq[T]{store: st, n: s.n + other.n}
}

func (s Seq[T]) Prepend(values ...T) Seq[T] {
	return Of(values...).AppendSeq(s)
}

// Copy returns a mutable copy of s with its own store.
func (s Seq[T]) Copy() MSeq[T] {
	if s.store == nil {
		return New[T](0)
	}
	return MSeq[T]{buf: &buffer[T]{store: s.store.Copy(s.off, s.off+s.n)}, n: s.n}
}

func (s Seq[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for i := 0; i < s.n; i++ {
			if !yield(i, s.store.Get(s.off+i)) {
				return
			}
		}
	}
}

func (s Seq[T]) Values() iter.Seq[T] {
	return func(yield func(T) bool) {
		for i := 0; i < s.n; i++ {
			if !yield(s.store.Get(s.off + i)) {
				return
			}
		}
	}
}

// Slice returns the elements as a fresh slice.
func (s Seq[T]) Slice() []T {
	out := make([]T, s.n)
	for i := range out {
		out[i] = s.store.Get(s.off + i)
	}
	return out
}

func (s Seq[T]) ForAll(pred func(T) bool) bool {
	for v := range s.Values() {
		if !pred(v) {
			return false
		}
	}
	return true
}

// IndexFunc returns the first index satisfying pred, or -1.
func (s Seq[T]) IndexFunc(pred func(T) bool) int {
	for i, v := range s.All() {
		if pred(v) {
			return i
		}
	}
	return -1
}

func (s Seq[T]) String() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, v := range s.All() {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprint(&b, v)
	}
	b.WriteByte(']')
	return b.String()
}

func (s Seq[T]) make(n int) Store[T] {
	if s.store == nil {
		return make(sliceStore[T], n)
	}
	return s.store.Make(n)
}

// Map returns a new sequence holding f applied to every element of s.
func Map[T, U any](s Seq[T], f func(T) U) Seq[U] {
	out := make(sliceStore[U], s.n)
	for i, v := range s.All() {
		out[i] = f(v)
	}
	return Seq[U]{store: out, n: s.n}
}

func Equal[T comparable](a, b Seq[T]) bool {
	return EqualFunc(a, b, func(x, y T) bool { return x == y })
}

func EqualFunc[T, U any](a Seq[T], b Seq[U], eq func(T, U) bool) bool {
	if a.n != b.n {
		return false
	}
	for i := 0; i < a.n; i++ {
		if !eq(a.store.Get(a.off+i), b.store.Get(b.off+i)) {
			return false
		}
	}
	return true
}

func checkIndex(i, n int) {
	if uint(i) >= uint(n) {
		panic(fmt.Sprintf("seq: index %d out of range [0:%d]", i, n))
	}
}

func checkRange(start, end, n int) {
	if start < 0 || end < start || end > n {
		panic(fmt.Sprintf("seq: slice bounds [%d:%d] out of range [0:%d]", start, end, n))
	}
}
