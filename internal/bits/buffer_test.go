package bits

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestBufferGetSetFlip(t *testing.T) {
	b := New(130)
	assert.Equal(t, 130, b.Size())
	assert.Equal(t, 0, b.Cardinality())

	for _, i := range []int{0, 63, 64, 127, 129} {
		b.Set(i)
		assert.True(t, b.Get(i), "bit %d", i)
	}
	assert.Equal(t, 5, b.Cardinality())

	b.Flip(63)
	assert.False(t, b.Get(63))
	b.Clear(0)
	assert.False(t, b.Get(0))
	b.SetBit(5, true)
	assert.True(t, b.Get(5))
}

func TestBufferOutOfRangePanics(t *testing.T) {
	b := New(8)
	assert.Panics(t, func() { b.Get(8) })
	assert.Panics(t, func() { b.Set(-1) })
	assert.Panics(t, func() { b.GetInt([]int{0, 9}) })
	assert.Panics(t, func() { b.Xor(New(9)) })
}

func TestGetIntFragmented(t *testing.T) {
	b, err := FromHex(16, "A5C3")
	require.NoError(t, err)

	tests := []struct {
		name    string
		indices []int
		want    int
	}{
		{"first nibble", []int{0, 1, 2, 3}, 0xA},
		{"second byte", []int{8, 9, 10, 11, 12, 13, 14, 15}, 0xC3},
		{"reversed nibble", []int{3, 2, 1, 0}, 0x5},
		{"scattered", []int{0, 8, 15}, 0b111},
		{"single clear", []int{1}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, b.GetInt(tt.indices))
		})
	}
}

func TestGetHexPadding(t *testing.T) {
	b := New(24)
	b.Load(0, 24, 0x00ABC)
	assert.Equal(t, "000ABC", b.GetHex(Range("X", 0, 23).Indices, 6))
	assert.Equal(t, "AB", b.HexField(Range("Y", 12, 19)))
	assert.Equal(t, "00", b.HexField(Range("Z", 0, 7)))
	assert.Equal(t, "00A", b.HexField(Range("W", 4, 15)))
}

func TestSetIntAndLoad(t *testing.T) {
	b := New(32)
	f := Fragmented("F", 31, 0, 16, 8)
	b.SetInt(0b1011, f.Indices)
	assert.Equal(t, 0b1011, b.Int(f))
	assert.True(t, b.Get(31))
	assert.False(t, b.Get(0))

	b.Load(4, 12, 0xFFF)
	assert.Equal(t, 0xFFF, b.GetIntRange(4, 15))
}

func TestCloneKeepsCorrectedCount(t *testing.T) {
	b := FromBytes([]byte{0xDE, 0xAD})
	b.IncrementCorrectedBitCount(3)
	c := b.Clone()
	assert.True(t, b.Equal(c))
	assert.Equal(t, 3, c.CorrectedBitCount())

	c.Flip(0)
	assert.False(t, b.Equal(c))
	assert.True(t, b.Get(0), "clone must not alias the original")
}

func TestSubMessageAndBytes(t *testing.T) {
	b := FromBytes([]byte{0x12, 0x34, 0x56})
	sub := b.GetSubMessage(4, 20)
	assert.Equal(t, 16, sub.Size())
	assert.Equal(t, []byte{0x23, 0x45}, sub.ToBytes())
	assert.Equal(t, "123456", b.Hex())
	assert.Equal(t, byte(0x34), b.GetByte(8))
}

func TestFromHexInvalid(t *testing.T) {
	_, err := FromHex(8, "zz")
	assert.Error(t, err)
}

func TestTextParsers(t *testing.T) {
	b := FromBytes([]byte("HI\x00"))
	assert.Equal(t, "HI", b.ParseISO8(0, 3))
	assert.Equal(t, "HI", b.ParseUTF8(0, 3))

	bcd := FromBytes([]byte{0x12, 0x90})
	assert.Equal(t, "1290", bcd.ParseBCD(0, 4))

	iso7 := New(14)
	iso7.Load(0, 7, 'O')
	iso7.Load(7, 7, 'K')
	assert.Equal(t, "OK", iso7.ParseISO7(0, 2))

	gb := FromBytes([]byte{0xD6, 0xD0})
	assert.Equal(t, "中", gb.ParseGB2312(0, 2))

	utf16 := FromBytes([]byte{0x00, 'A', 0x4E, 0x2D})
	assert.Equal(t, "A中", utf16.ParseUTF16(0, 2))
}

// Reading a field never depends on bits outside of it.
func TestGetIntIgnoresUnrelatedBits(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		size := rapid.IntRange(8, 300).Draw(t, "size")
		b := New(size)
		for i := 0; i < size; i++ {
			if rapid.Bool().Draw(t, "bit") {
				b.Set(i)
			}
		}

		width := rapid.IntRange(1, min(32, size)).Draw(t, "width")
		perm := rapid.Permutation(indexSlice(size)).Draw(t, "perm")
		field := perm[:width]
		before := b.GetInt(field)

		for _, i := range perm[width:] {
			if rapid.Bool().Draw(t, "flip") {
				b.Flip(i)
			}
		}

		assert.Equal(t, before, b.GetInt(field))
	})
}

func TestXorIsInvolution(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		data := rapid.SliceOfN(rapid.Byte(), 1, 48).Draw(t, "data")
		mask := rapid.SliceOfN(rapid.Byte(), len(data), len(data)).Draw(t, "mask")
		b := FromBytes(data)
		m := FromBytes(mask)
		b.Xor(m)
		b.Xor(m)
		assert.Equal(t, data, b.ToBytes())
	})
}

func indexSlice(n int) []int {
	s := make([]int, n)
	for i := range s {
		s[i] = i
	}
	return s
}

func BenchmarkGetInt(b *testing.B) {
	buf := FromBytes(make([]byte, 36))
	field := Range("F", 40, 63).Indices
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = buf.GetInt(field)
	}
}
