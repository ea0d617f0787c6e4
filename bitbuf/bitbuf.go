// Package bitbuf provides an ordered buffer of classical bits and helpers for
// rendering bit sequences as bytes, hex and text.
//
// Bits are packed most-significant-bit first: the first bit of a buffer lands
// in the high-order bit of its first byte.
package bitbuf

import (
	"fmt"
	"math/bits"
	"strings"
)

const byteSize = 8

// A Buffer is an ordered sequence of bits. The zero value is an empty buffer.
type Buffer struct {
	bits []byte
	len  int
}

// FromBits returns a Buffer holding bits, treating any nonzero value as 1.
func FromBits(bits []uint8) Buffer {
	var b Buffer
	for _, v := range bits {
		b.AppendBit(v != 0)
	}
	return b
}

// FromString converts a string of '1's and '0's to a Buffer. Spaces are
// ignored.
func FromString(s string) (Buffer, error) {
	var b Buffer
	for _, c := range s {
		switch c {
		case '1':
			b.AppendBit(true)
		case '0':
			b.AppendBit(false)
		case ' ':
			continue
		default:
			return Buffer{}, fmt.Errorf("invalid bit string rep: %s", s)
		}
	}
	return b, nil
}

// Len returns the number of bits in b.
func (b Buffer) Len() int {
	return b.len
}

// Get returns the i-th bit of b. Bits past the end read as 0.
func (b Buffer) Get(i int) bool {
	if i < 0 || i >= b.len {
		return false
	}
	return b.bits[i/byteSize]&(0x80>>(i%byteSize)) != 0
}

// AppendBit adds a single bit to the end of b.
func (b *Buffer) AppendBit(bit bool) {
	i, pos := b.len/byteSize, b.len%byteSize
	if pos == 0 {
		b.bits = append(b.bits, 0)
	}
	if bit {
		b.bits[i] |= 0x80 >> pos
	}
	b.len++
}

// Append adds the contents of other to the end of b.
func (b *Buffer) Append(other Buffer) {
	for i := 0; i < other.len; i++ {
		b.AppendBit(other.Get(i))
	}
}

// Bits returns the contents of b as a slice of 0s and 1s.
func (b Buffer) Bits() []uint8 {
	r := make([]uint8, b.len)
	for i := range r {
		if b.Get(i) {
			r[i] = 1
		}
	}
	return r
}

// Bytes returns a copy of b packed into bytes. A trailing partial byte is
// padded with zeros in its low-order bits.
func (b Buffer) Bytes() []byte {
	r := make([]byte, BytesFor(b.len))
	copy(r, b.bits)
	return r
}

// Hex returns the packed contents of b as lowercase hex.
func (b Buffer) Hex() string {
	return fmt.Sprintf("%x", b.Bytes())
}

// String renders b as a string of '0's and '1's.
func (b Buffer) String() string {
	var sb strings.Builder
	sb.Grow(b.len)
	for i := 0; i < b.len; i++ {
		if b.Get(i) {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}

// Slice returns a copy of bits [start, end) of b.
func (b Buffer) Slice(start, end int) (Buffer, error) {
	if start < 0 {
		return Buffer{}, fmt.Errorf("slicing buffer with negative start: %d", start)
	}
	if end < start {
		return Buffer{}, fmt.Errorf("slicing buffer to negative length: %d", end-start)
	}
	if end > b.len {
		return Buffer{}, fmt.Errorf("slicing buffer of len %d up to %d", b.len, end)
	}
	r := Buffer{bits: make([]byte, 0, BytesFor(end-start))}
	if start%byteSize == 0 {
		j := start / byteSize
		r.bits = append(r.bits, b.bits[j:j+BytesFor(end-start)]...)
		r.len = end - start
		r.clearTail()
		return r, nil
	}
	for i := start; i < end; i++ {
		r.AppendBit(b.Get(i))
	}
	return r, nil
}

// And returns the bitwise AND of a and b. The result is as long as the
// shorter of the two.
func And(a, b Buffer) Buffer {
	short, long := a, b
	if b.len < a.len {
		short, long = b, a
	}
	r := Buffer{
		bits: make([]byte, len(short.bits)),
		len:  short.len,
	}
	for i := range short.bits {
		r.bits[i] = short.bits[i] & long.bits[i]
	}
	return r
}

// XOr returns the bitwise XOR of a and b. The shorter operand is implicitly
// padded with zeros.
func XOr(a, b Buffer) Buffer {
	short, long := a, b
	if b.len < a.len {
		short, long = b, a
	}
	r := Buffer{
		bits: make([]byte, len(long.bits)),
		len:  long.len,
	}
	copy(r.bits, long.bits)
	for i := range short.bits {
		r.bits[i] ^= short.bits[i]
	}
	return r
}

// Parity returns the overall parity of b, with true corresponding to 1.
func Parity(b Buffer) bool {
	var sum byte
	for _, v := range b.bits {
		sum ^= v
	}
	return bits.OnesCount8(sum)%2 == 1
}

// CountOnes returns the number of bits set in b.
func CountOnes(b Buffer) int {
	var sum int
	for _, v := range b.bits {
		sum += bits.OnesCount8(v)
	}
	return sum
}

// Equal reports whether a and b hold the same bits.
func Equal(a, b Buffer) bool {
	return a.len == b.len && CountOnes(XOr(a, b)) == 0
}

// BytesFor returns the number of bytes necessary to hold the provided number of
// bits.
func BytesFor(bits int) int {
	return (bits + byteSize - 1) / byteSize
}

// clearTail zeroes any bits past the end of b, keeping the padding invariant
// that Parity and CountOnes rely on.
func (b *Buffer) clearTail() {
	if off := b.len % byteSize; off != 0 {
		b.bits[len(b.bits)-1] &= 0xFF << (byteSize - off)
	}
}
