// Package bits provides the fixed-size bit container shared by every decoder stage.
package bits

import (
	"encoding/hex"
	"fmt"
	mathbits "math/bits"
	"strings"
)

// Buffer is a fixed-length sequence of bits addressed MSB first (bit 0 is the
// first bit received). It tracks the number of bits flipped by error
// correction so callers can rank decode quality.
type Buffer struct {
	words             []uint64
	size              int
	correctedBitCount int
}

// New creates a zeroed buffer of size bits.
func New(size int) *Buffer {
	if size < 0 {
		panic(fmt.Sprintf("bits: negative buffer size %d", size))
	}
	return &Buffer{
		words: make([]uint64, (size+63)/64),
		size:  size,
	}
}

// FromBytes creates a buffer holding every bit of data, MSB first.
func FromBytes(data []byte) *Buffer {
	b := New(len(data) * 8)
	for i, v := range data {
		b.SetByte(i*8, v)
	}
	return b
}

// FromHex parses a hex string into a buffer of size bits. Bits beyond the
// hex string are left clear; extra hex digits beyond size are ignored.
func FromHex(size int, s string) (*Buffer, error) {
	s = strings.TrimSpace(s)
	if len(s)%2 == 1 {
		s += "0"
	}
	data, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid hex bit string: %w", err)
	}
	b := New(size)
	for i := 0; i < len(data)*8 && i < size; i++ {
		if data[i/8]&(0x80>>(i%8)) != 0 {
			b.Set(i)
		}
	}
	return b, nil
}

// FromBits creates a buffer from a slice of 0/1 values.
func FromBits(values []int) *Buffer {
	b := New(len(values))
	for i, v := range values {
		if v != 0 {
			b.Set(i)
		}
	}
	return b
}

// Size returns the bit capacity.
func (b *Buffer) Size() int {
	return b.size
}

// CorrectedBitCount returns the number of bits flipped by FEC so far.
func (b *Buffer) CorrectedBitCount() int {
	return b.correctedBitCount
}

// IncrementCorrectedBitCount accumulates FEC corrections.
func (b *Buffer) IncrementCorrectedBitCount(n int) {
	b.correctedBitCount += n
}

// SetCorrectedBitCount overwrites the corrected bit count.
func (b *Buffer) SetCorrectedBitCount(n int) {
	b.correctedBitCount = n
}

func (b *Buffer) check(i int) {
	if i < 0 || i >= b.size {
		panic(fmt.Sprintf("bits: index %d out of range [0,%d)", i, b.size))
	}
}

// Get reports whether bit i is set.
func (b *Buffer) Get(i int) bool {
	b.check(i)
	return b.words[i>>6]&(1<<(63-uint(i&63))) != 0
}

// Set sets bit i.
func (b *Buffer) Set(i int) {
	b.check(i)
	b.words[i>>6] |= 1 << (63 - uint(i&63))
}

// Clear clears bit i.
func (b *Buffer) Clear(i int) {
	b.check(i)
	b.words[i>>6] &^= 1 << (63 - uint(i&63))
}

// SetBit sets or clears bit i.
func (b *Buffer) SetBit(i int, v bool) {
	if v {
		b.Set(i)
	} else {
		b.Clear(i)
	}
}

// Flip toggles bit i.
func (b *Buffer) Flip(i int) {
	b.check(i)
	b.words[i>>6] ^= 1 << (63 - uint(i&63))
}

// Xor applies other onto b bit by bit. Both buffers must be the same size.
func (b *Buffer) Xor(other *Buffer) {
	if other.size != b.size {
		panic(fmt.Sprintf("bits: xor size mismatch %d != %d", b.size, other.size))
	}
	for i := range b.words {
		b.words[i] ^= other.words[i]
	}
}

// XorPrefix applies the first other.Size() bits of other onto b.
func (b *Buffer) XorPrefix(other *Buffer) {
	if other.size > b.size {
		panic(fmt.Sprintf("bits: xor prefix size %d exceeds %d", other.size, b.size))
	}
	for i := 0; i < other.size; i++ {
		if other.Get(i) {
			b.Flip(i)
		}
	}
}

// Clone returns a deep copy that keeps the corrected bit count.
func (b *Buffer) Clone() *Buffer {
	c := &Buffer{
		words:             make([]uint64, len(b.words)),
		size:              b.size,
		correctedBitCount: b.correctedBitCount,
	}
	copy(c.words, b.words)
	return c
}

// Equal reports whether both buffers hold the same bits.
func (b *Buffer) Equal(other *Buffer) bool {
	if other == nil || other.size != b.size {
		return false
	}
	for i := range b.words {
		if b.words[i] != other.words[i] {
			return false
		}
	}
	return true
}

// Cardinality returns the number of set bits.
func (b *Buffer) Cardinality() int {
	n := 0
	for _, w := range b.words {
		n += mathbits.OnesCount64(w)
	}
	return n
}

// GetInt reads the bits at indices, in order, as an unsigned integer with
// the first index most significant.
func (b *Buffer) GetInt(indices []int) int {
	if len(indices) > 63 {
		panic(fmt.Sprintf("bits: field of %d bits does not fit an int", len(indices)))
	}
	return int(b.GetLong(indices))
}

// GetLong is GetInt for fields up to 64 bits wide.
func (b *Buffer) GetLong(indices []int) uint64 {
	if len(indices) > 64 {
		panic(fmt.Sprintf("bits: field of %d bits exceeds 64", len(indices)))
	}
	var v uint64
	for _, i := range indices {
		v <<= 1
		if b.Get(i) {
			v |= 1
		}
	}
	return v
}

// GetIntRange reads the contiguous bits start..end inclusive.
func (b *Buffer) GetIntRange(start, end int) int {
	if end-start+1 > 63 {
		panic(fmt.Sprintf("bits: range %d..%d does not fit an int", start, end))
	}
	v := 0
	for i := start; i <= end; i++ {
		v <<= 1
		if b.Get(i) {
			v |= 1
		}
	}
	return v
}

// SetInt writes value into indices, most significant bit at indices[0].
func (b *Buffer) SetInt(value int, indices []int) {
	n := len(indices)
	for k, i := range indices {
		b.SetBit(i, (value>>(n-1-k))&1 == 1)
	}
}

// Load writes the low n bits of value starting at start, MSB first.
func (b *Buffer) Load(start, n int, value uint64) {
	for k := 0; k < n; k++ {
		b.SetBit(start+k, (value>>(n-1-k))&1 == 1)
	}
}

// GetHex formats the field as zero padded upper case hex of nibbles digits.
func (b *Buffer) GetHex(indices []int, nibbles int) string {
	return fmt.Sprintf("%0*X", nibbles, b.GetLong(indices))
}

// GetByte reads 8 bits starting at start.
func (b *Buffer) GetByte(start int) byte {
	return byte(b.GetIntRange(start, start+7))
}

// SetByte writes v into the 8 bits starting at start.
func (b *Buffer) SetByte(start int, v byte) {
	b.Load(start, 8, uint64(v))
}

// GetSubMessage copies bits start (inclusive) to end (exclusive) into a new
// buffer. The corrected bit count is carried over.
func (b *Buffer) GetSubMessage(start, end int) *Buffer {
	if start < 0 || end > b.size || start > end {
		panic(fmt.Sprintf("bits: sub message %d..%d out of range [0,%d]", start, end, b.size))
	}
	sub := New(end - start)
	for i := start; i < end; i++ {
		if b.Get(i) {
			sub.Set(i - start)
		}
	}
	sub.correctedBitCount = b.correctedBitCount
	return sub
}

// Copy writes all of src into b starting at offset.
func (b *Buffer) Copy(offset int, src *Buffer) {
	for i := 0; i < src.size; i++ {
		b.SetBit(offset+i, src.Get(i))
	}
}

// ToBytes packs the buffer MSB first, padding the final byte with zeros.
func (b *Buffer) ToBytes() []byte {
	out := make([]byte, (b.size+7)/8)
	for i := 0; i < b.size; i++ {
		if b.Get(i) {
			out[i/8] |= 0x80 >> (i % 8)
		}
	}
	return out
}

// String renders the buffer as a string of 0 and 1 characters.
func (b *Buffer) String() string {
	var sb strings.Builder
	sb.Grow(b.size)
	for i := 0; i < b.size; i++ {
		if b.Get(i) {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}

// Hex renders the buffer as upper case hex.
func (b *Buffer) Hex() string {
	return strings.ToUpper(hex.EncodeToString(b.ToBytes()))
}
