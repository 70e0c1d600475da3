package p25

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/dbehnke/lmrdecode/internal/bits"
)

// transmittedIndex is the on-air position of a coded frame bit.
func transmittedIndex(coded int) int {
	for i, c := range voiceInterleave {
		if c == coded {
			return i
		}
	}
	panic("coded bit out of range")
}

func randomBytes(t *rapid.T, n int, label string) []byte {
	return rapid.SliceOfN(rapid.Byte(), n, n).Draw(t, label)
}

func TestVoiceInterleaveIsPermutation(t *testing.T) {
	seen := make(map[int]bool)
	for _, c := range voiceInterleave {
		require.True(t, c >= 0 && c < IMBEFrameBits, "%d", c)
		require.False(t, seen[c], "duplicate %d", c)
		seen[c] = true
	}
	assert.Len(t, imbeDataFields, IMBEFrameBytes*8)
}

func TestVoiceInterleaveRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		offset := rapid.IntRange(0, 16).Draw(t, "offset")
		buf := bits.New(offset + IMBEFrameBits)
		buf.Copy(offset, bits.FromBytes(randomBytes(t, IMBEFrameBits/8, "frame")))
		original := buf.Clone()

		InterleaveVoice(buf, offset, offset+IMBEFrameBits)
		DeinterleaveVoice(buf, offset, offset+IMBEFrameBits)
		if !buf.Equal(original) {
			t.Fatalf("round trip changed the frame")
		}
	})
}

func TestDeinterleaveVoiceRejectsShortRange(t *testing.T) {
	assert.Panics(t, func() { DeinterleaveVoice(bits.New(200), 0, 100) })
}

func TestDerandomizeIsSelfInverse(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		buf := bits.FromBytes(randomBytes(t, IMBEFrameBits/8, "frame"))
		original := buf.Clone()

		Derandomize(buf, 0)
		if buf.GetIntRange(0, imbeGolayBits-1) != original.GetIntRange(0, imbeGolayBits-1) {
			t.Fatalf("c0 was modified")
		}
		for i := imbeUnprotected; i < IMBEFrameBits; i++ {
			if buf.Get(i) != original.Get(i) {
				t.Fatalf("unprotected bit %d was modified", i)
			}
		}
		Derandomize(buf, 0)
		if !buf.Equal(original) {
			t.Fatalf("derandomize is not its own inverse")
		}
	})
}

func TestDerandomizeSeedZero(t *testing.T) {
	// c0 clear: the first generator output 0x3619 leaves bit 23 alone.
	buf := bits.New(IMBEFrameBits)
	Derandomize(buf, 0)
	assert.False(t, buf.Get(23))
	assert.True(t, buf.Get(24), "second output 0xC4FE")
}

func TestVoiceFrameRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		data := randomBytes(t, IMBEFrameBytes, "imbe")
		buf := EncodeVoiceFrame(data)

		corrected, ok := correctVoiceFrame(buf, 0)
		if !ok || corrected != 0 {
			t.Fatalf("clean frame reported %d corrections, ok %v", corrected, ok)
		}
		assert.Equal(t, data, voiceFrameData(buf, 0))
	})
}

func TestVoiceFrameCorrectsErrors(t *testing.T) {
	data := []byte{0x12, 0x34, 0x56, 0x78, 0x9A, 0xBC, 0xDE, 0xF0, 0x0F, 0x55, 0xAA}
	buf := EncodeVoiceFrame(data)
	// two errors in c0, three in c1, one in c4
	for _, coded := range []int{1, 7, 23, 30, 44, 95} {
		buf.Flip(transmittedIndex(coded))
	}

	corrected, ok := correctVoiceFrame(buf, 0)
	require.True(t, ok)
	assert.Equal(t, 6, corrected)
	assert.Equal(t, 6, buf.CorrectedBitCount())
	assert.Equal(t, data, voiceFrameData(buf, 0))
}
