package seq

import (
	"math/rand"
	"slices"

	"genom/internal/bit"
)

// MSeq is a mutable sequence view. Views created with SubSeq share the
// parent's buffer and see each other's writes. An MSeq is not safe for
// concurrent use.
type MSeq[T any] struct {
	buf    *buffer[T]
	off, n int
}

// New returns a mutable sequence of n zero values.
func New[T any](n int) MSeq[T] {
	return FromStore[T](make(sliceStore[T], n))
}

// NewBits returns a bit-packed mutable sequence of n false values.
func NewBits[T ~bool](n int) MSeq[T] {
	return FromStore[T](&bitStore[T]{data: bit.New(n), n: n})
}

// FromStore wraps st. The caller hands over ownership of st.
func FromStore[T any](st Store[T]) MSeq[T] {
	return MSeq[T]{buf: &buffer[T]{store: st}, n: st.Len()}
}

// MOf returns a mutable sequence holding a copy of values.
func MOf[T any](values ...T) MSeq[T] {
	return FromStore[T](sliceStore[T](slices.Clone(values)))
}

func (m MSeq[T]) Len() int {
	return m.n
}

func (m MSeq[T]) Get(i int) T {
	checkIndex(i, m.n)
	return m.buf.store.Get(m.off + i)
}

func (m MSeq[T]) Set(i int, v T) {
	checkIndex(i, m.n)
	m.buf.writable().Set(m.off+i, v)
}

// Fill sets every element i to f(i).
func (m MSeq[T]) Fill(f func(i int) T) {
	if m.n == 0 {
		return
	}
	st := m.buf.writable()
	for i := 0; i < m.n; i++ {
		st.Set(m.off+i, f(i))
	}
}

func (m MSeq[T]) Swap(i, j int) {
	checkIndex(i, m.n)
	checkIndex(j, m.n)
	if i == j {
		return
	}
	st := m.buf.writable()
	a, b := st.Get(m.off+i), st.Get(m.off+j)
	st.Set(m.off+i, b)
	st.Set(m.off+j, a)
}

// SwapRange exchanges the elements [start, end) of m with the elements
// [otherStart, otherStart+end-start) of other. Two bit-packed sequences are
// swapped directly on their byte arrays.
func (m MSeq[T]) SwapRange(start, end int, other MSeq[T], otherStart int) {
	checkRange(start, end, m.n)
	checkRange(otherStart, otherStart+end-start, other.n)
	if start == end {
		return
	}

	st := m.buf.writable()
	ot := other.buf.writable()
	if a, ok := st.(bitBacked); ok {
		if b, ok := ot.(bitBacked); ok {
			bit.Swap(a.packed(), m.off+start, m.off+end, b.packed(), other.off+otherStart)
			return
		}
	}
	for i := start; i < end; i++ {
		j := otherStart + i - start
		a, b := st.Get(m.off+i), ot.Get(other.off+j)
		st.Set(m.off+i, b)
		ot.Set(other.off+j, a)
	}
}

// Reverse reverses the elements in place.
func (m MSeq[T]) Reverse() {
	for i, j := 0, m.n-1; i < j; i, j = i+1, j-1 {
		m.Swap(i, j)
	}
}

// Sort sorts the elements in place using cmp.
func (m MSeq[T]) Sort(cmp func(a, b T) int) {
	values := m.slice()
	slices.SortStableFunc(values, cmp)
	m.Fill(func(i int) T { return values[i] })
}

// Shuffle randomly permutes the elements in place.
func (m MSeq[T]) Shuffle(rng *rand.Rand) {
	rng.Shuffle(m.n, m.Swap)
}

// SubSeq returns the mutable view [start, end) sharing m's buffer.
func (m MSeq[T]) SubSeq(start, end int) MSeq[T] {
	checkRange(start, end, m.n)
	return MSeq[T]{buf: m.buf, off: m.off + start, n: end - start}
}

// Seal returns an immutable view of the current contents. The store is
// shared until the next write through m.
func (m MSeq[T]) Seal() Seq[T] {
	if m.buf == nil {
		return Seq[T]{}
	}
	m.buf.sealed = true
	return Seq[T]{store: m.buf.store, off: m.off, n: m.n}
}

func (m MSeq[T]) slice() []T {
	out := make([]T, m.n)
	for i := range out {
		out[i] = m.buf.store.Get(m.off + i)
	}
	return out
}
