package seq

import (
	"slices"

	"genom/internal/bit"
)

// Store is the backing array of a sequence. Implementations may keep their
// elements unboxed (packed bits, raw float64 values) and convert on access.
type Store[T any] interface {
	Len() int
	Get(i int) T
	Set(i int, v T)
	// Copy returns an independent store holding the elements [from, until).
	Copy(from, until int) Store[T]
	// Make returns a zeroed store of the same kind with n elements.
	Make(n int) Store[T]
}

type sliceStore[T any] []T

func (s sliceStore[T]) Len() int { return len(s) }
func (s sliceStore[T]) Get(i int) T { return s[i] }
func (s sliceStore[T]) Set(i int, v T) { s[i] = v }
func (s sliceStore[T]) Make(n int) Store[T] { return make(sliceStore[T], n) }

func (s sliceStore[T]) Copy(from, until int) Store[T] {
	return sliceStore[T](slices.Clone(s[from:until]))
}

// bitBacked is satisfied by bit stores of every ~bool element type, so
// generic code can reach the packed bytes without naming T.
type bitBacked interface {
	packed() []byte
}

type bitStore[T ~bool] struct {
	data []byte
	n    int
}

func (s *bitStore[T]) Len() int { return s.n }
func (s *bitStore[T]) Get(i int) T { return T(bit.Get(s.data, i)) }
func (s *bitStore[T]) Set(i int, v T) { bit.Set(s.data, i, bool(v)) }
func (s *bitStore[T]) packed() []byte { return s.data }

func (s *bitStore[T]) Make(n int) Store[T] {
	return &bitStore[T]{data: bit.New(n), n: n}
}

func (s *bitStore[T]) Copy(from, until int) Store[T] {
	return &bitStore[T]{data: bit.Copy(s.data, from, until), n: until - from}
}

// buffer couples a store with the sealed flag shared by every mutable view
// of it. Writes through a sealed buffer replace the store with a copy first.
type buffer[T any] struct {
	store  Store[T]
	sealed bool
}

func (b *buffer[T]) writable() Store[T] {
	if b.sealed {
		b.store = b.store.Copy(0, b.store.Len())
		b.sealed = false
	}
	return b.store
}
