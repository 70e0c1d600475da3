package p25

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testHeader() HeaderFields {
	return HeaderFields{
		NAC:       testNAC,
		MFID:      0x90,
		Talkgroup: 3120,
		EncryptionSync: EncryptionSync{
			MI:        []byte{0xA0, 0xB1, 0xC2, 0xD3, 0xE4, 0xF5, 0x06, 0x17, 0x28},
			Algorithm: AlgorithmADP,
			KeyID:     0x0042,
		},
	}
}

func hduWordStart(i int) int { return NIDBits + i*hduGolayBits }

func TestHDURoundTrip(t *testing.T) {
	h := testHeader()
	buf := EncodeHDU(h)
	require.Equal(t, HDUBits, buf.Size())

	msg := DecodeHDU(buf, testTime)
	require.True(t, msg.Valid())
	assert.Equal(t, 0, msg.CorrectedBitCount())
	assert.Equal(t, testNAC, msg.NAC())
	assert.Equal(t, "HDU", msg.Opcode())
	assert.Equal(t, "MOTOROLA", msg.Vendor())
	assert.Equal(t, 3120, msg.Talkgroup())
	assert.Equal(t, h.EncryptionSync, msg.EncryptionSync())
	assert.Contains(t, msg.String(), "NAC:293 HDU TO:3120 ADP KEY:0042")
}

func TestHDUCorrection(t *testing.T) {
	h := testHeader()

	t.Run("golay and reed-solomon", func(t *testing.T) {
		buf := EncodeHDU(h)
		// three errors per word are repaired by the Golay code
		for _, w := range []int{0, 10, 35} {
			for _, b := range []int{0, 7, 15} {
				buf.Flip(hduWordStart(w) + b)
			}
		}
		// four errors are only detected; the Reed-Solomon block repairs
		// up to eight such words
		for _, w := range []int{1, 4, 8, 12, 19, 22, 27, 30} {
			for b := 0; b < 4; b++ {
				buf.Flip(hduWordStart(w) + b)
			}
		}

		msg := DecodeHDU(buf, testTime)
		require.True(t, msg.Valid(), msg.String())
		assert.Positive(t, msg.CorrectedBitCount())
		assert.Equal(t, 3120, msg.Talkgroup())
		assert.Equal(t, h.EncryptionSync, msg.EncryptionSync())
	})

	t.Run("beyond repair", func(t *testing.T) {
		buf := EncodeHDU(h)
		for w := 0; w < 16; w++ {
			for b := 0; b < 4; b++ {
				buf.Flip(hduWordStart(w) + b)
			}
		}
		msg := DecodeHDU(buf, testTime)
		assert.False(t, msg.Valid())
		assert.Contains(t, msg.String(), "[RS-ERROR]")
	})

	t.Run("truncated", func(t *testing.T) {
		buf := EncodeHDU(h)
		msg := DecodeHDU(buf.GetSubMessage(0, 400), testTime)
		assert.False(t, msg.Valid())
		assert.Equal(t, testNAC, msg.NAC())
	})
}
