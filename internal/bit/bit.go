// Package bit implements bit-level primitives on byte-addressed bit arrays.
//
// Bit i lives in byte i>>3 at position i&7 (least significant bit first).
// Callers keep the unused trailing bits of the last byte cleared; every
// function here that produces a new array preserves that invariant.
package bit

import (
	"errors"
	"fmt"
	"math/bits"
	"strings"
)

var ErrInvalidBitString = errors.New("invalid bit string")

// Size returns the number of bytes needed to hold n bits.
func Size(n int) int {
	return (n + 7) >> 3
}

// New returns a zeroed array able to hold n bits.
func New(n int) []byte {
	if n < 0 {
		panic(fmt.Sprintf("bit: negative length %d", n))
	}
	return make([]byte, Size(n))
}

func Get(data []byte, i int) bool {
	return data[i>>3]&(1<<(uint(i)&7)) != 0
}

func Set(data []byte, i int, v bool) {
	if v {
		data[i>>3] |= 1 << (uint(i) & 7)
	} else {
		data[i>>3] &^= 1 << (uint(i) & 7)
	}
}

func Flip(data []byte, i int) {
	data[i>>3] ^= 1 << (uint(i) & 7)
}

// Swap exchanges the bits [start, end) of data with the bits
// [otherStart, otherStart+end-start) of other. Byte-aligned ranges are
// swapped a whole byte at a time.
func Swap(data []byte, start, end int, other []byte, otherStart int) {
	if start < 0 || end < start || end > len(data)<<3 {
		panic(fmt.Sprintf("bit: swap range [%d, %d) out of range", start, end))
	}
	if otherStart < 0 || otherStart+end-start > len(other)<<3 {
		panic(fmt.Sprintf("bit: swap target offset %d out of range", otherStart))
	}

	i, j := start, otherStart
	if i&7 == 0 && j&7 == 0 {
		for ; i+8 <= end; i, j = i+8, j+8 {
			data[i>>3], other[j>>3] = other[j>>3], data[i>>3]
		}
	}
	for ; i < end; i, j = i+1, j+1 {
		a, b := Get(data, i), Get(other, j)
		if a != b {
			Set(data, i, b)
			Set(other, j, a)
		}
	}
}

// Copy returns a new array holding the bits [start, end) of data shifted to
// index zero.
func Copy(data []byte, start, end int) []byte {
	if start < 0 || end < start || end > len(data)<<3 {
		panic(fmt.Sprintf("bit: copy range [%d, %d) out of range", start, end))
	}
	n := end - start
	out := New(n)
	if start&7 == 0 {
		copy(out, data[start>>3:])
		clearTail(out, n)
		return out
	}
	for i := 0; i < n; i++ {
		if Get(data, start+i) {
			Set(out, i, true)
		}
	}
	return out
}

// Count returns the number of set bits in data.
func Count(data []byte) int {
	count := 0
	for _, b := range data {
		count += bits.OnesCount8(b)
	}
	return count
}

// CountRange returns the number of set bits in [start, end).
func CountRange(data []byte, start, end int) int {
	count := 0
	i := start
	for ; i < end && i&7 != 0; i++ {
		if Get(data, i) {
			count++
		}
	}
	for ; i+8 <= end; i += 8 {
		count += bits.OnesCount8(data[i>>3])
	}
	for ; i < end; i++ {
		if Get(data, i) {
			count++
		}
	}
	return count
}

// Invert flips the first n bits of data in place.
func Invert(data []byte, n int) {
	for i := range data[:Size(n)] {
		data[i] = ^data[i]
	}
	clearTail(data, n)
}

// String renders the first n bits, bit 0 first.
func String(data []byte, n int) string {
	var b strings.Builder
	b.Grow(n)
	for i := 0; i < n; i++ {
		if Get(data, i) {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}

// Parse is the inverse of String.
func Parse(s string) ([]byte, error) {
	data := New(len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '1':
			Set(data, i, true)
		case '0':
		default:
			return nil, fmt.Errorf("%w: character %q at %d", ErrInvalidBitString, s[i], i)
		}
	}
	return data, nil
}

func clearTail(data []byte, n int) {
	if rem := n & 7; rem != 0 {
		data[Size(n)-1] &= byte(1<<uint(rem)) - 1
	}
}
