package p25

import (
	"fmt"

	"github.com/dbehnke/lmrdecode/internal/bits"
	"github.com/dbehnke/lmrdecode/internal/correction"
)

// IMBE voice frame geometry. A coded frame holds four Golay(23,12) words
// c0..c3, three Hamming(15,11) words c4..c6 and seven unprotected bits c7.
const (
	IMBEFrameBits      = 144
	IMBEFrameBytes     = 11
	imbeGolayWords     = 4
	imbeHammingWords   = 3
	imbeGolayBits      = 23
	imbeHammingBits    = 15
	imbeHammingStart   = imbeGolayWords * imbeGolayBits
	imbeUnprotected    = imbeHammingStart + imbeHammingWords*imbeHammingBits
	imbeRandomizedBits = imbeUnprotected - imbeGolayBits
)

// voiceInterleave[i] is the coded bit carried by the i-th transmitted bit
// of a voice frame.
var voiceInterleave = [IMBEFrameBits]int{
	0, 24, 48, 72, 96, 120, 25, 1, 73, 49, 121, 97, 2, 26, 50, 74, 98, 122, 27, 3, 75, 51, 123, 99,
	4, 28, 52, 76, 100, 124, 29, 5, 77, 53, 125, 101, 6, 30, 54, 78, 102, 126, 31, 7, 79, 55, 127, 103,
	8, 32, 56, 80, 104, 128, 33, 9, 81, 57, 129, 105, 10, 34, 58, 82, 106, 130, 35, 11, 83, 59, 131, 107,
	12, 36, 60, 84, 108, 132, 37, 13, 85, 61, 133, 109, 14, 38, 62, 86, 110, 134, 39, 15, 87, 63, 135, 111,
	16, 40, 64, 88, 112, 136, 41, 17, 89, 65, 137, 113, 18, 42, 66, 90, 114, 138, 43, 19, 91, 67, 139, 115,
	20, 44, 68, 92, 116, 140, 45, 21, 93, 69, 141, 117, 22, 46, 70, 94, 118, 142, 47, 23, 95, 71, 143, 119,
}

// imbeDataFields lists the information bits of a corrected frame in codec
// order: twelve from each Golay word, eleven from each Hamming word and the
// seven unprotected bits.
var imbeDataFields = func() []int {
	var indices []int
	for w := 0; w < imbeGolayWords; w++ {
		indices = append(indices, bits.Range("", w*imbeGolayBits, w*imbeGolayBits+11).Indices...)
	}
	for w := 0; w < imbeHammingWords; w++ {
		start := imbeHammingStart + w*imbeHammingBits
		indices = append(indices, bits.Range("", start, start+10).Indices...)
	}
	return append(indices, bits.Range("", imbeUnprotected, IMBEFrameBits-1).Indices...)
}()

func checkVoiceRange(start, end int) {
	if end-start != IMBEFrameBits {
		panic(fmt.Sprintf("p25: voice frame range %d..%d is not %d bits", start, end, IMBEFrameBits))
	}
}

// DeinterleaveVoice reorders the transmitted bits start..end (exclusive) of
// buf into coded order in place.
func DeinterleaveVoice(buf *bits.Buffer, start, end int) {
	checkVoiceRange(start, end)
	frame := buf.GetSubMessage(start, end)
	for i, coded := range voiceInterleave {
		buf.SetBit(start+coded, frame.Get(i))
	}
}

// InterleaveVoice is the inverse of DeinterleaveVoice.
func InterleaveVoice(buf *bits.Buffer, start, end int) {
	checkVoiceRange(start, end)
	frame := buf.GetSubMessage(start, end)
	for i, coded := range voiceInterleave {
		buf.SetBit(start+i, frame.Get(coded))
	}
}

// Derandomize removes the scrambling of words c1..c6 of the coded frame at
// frameStart. The generator is seeded from the twelve data bits of c0, so
// c0 must be corrected first. Applying it twice restores the input.
func Derandomize(buf *bits.Buffer, frameStart int) {
	seed := buf.GetIntRange(frameStart, frameStart+11) << 4
	offset := frameStart + imbeGolayBits
	for x := 0; x < imbeRandomizedBits; x++ {
		seed = (173*seed + 13849) & 0xFFFF
		if seed&0x8000 != 0 {
			buf.Flip(offset + x)
		}
	}
}

// correctVoiceFrame runs the full receive chain on the interleaved frame at
// start: deinterleave, correct c0, derandomize, then correct c1..c6. It
// returns the number of corrected bits and false when a Hamming word had
// more errors than it can repair.
func correctVoiceFrame(buf *bits.Buffer, start int) (int, bool) {
	DeinterleaveVoice(buf, start, start+IMBEFrameBits)

	corrected := correction.Golay23(buf, start)
	Derandomize(buf, start)
	for w := 1; w < imbeGolayWords; w++ {
		corrected += correction.Golay23(buf, start+w*imbeGolayBits)
	}

	ok := true
	for w := 0; w < imbeHammingWords; w++ {
		n := correction.Hamming15113P25.CheckAndCorrect(buf, start+imbeHammingStart+w*imbeHammingBits)
		if n < 0 {
			ok = false
			continue
		}
		corrected += n
	}
	return corrected, ok
}

// voiceFrameData packs the 88 information bits of a corrected frame into
// eleven bytes.
func voiceFrameData(buf *bits.Buffer, start int) []byte {
	frame := bits.New(IMBEFrameBytes * 8)
	for j, idx := range imbeDataFields {
		frame.SetBit(j, buf.Get(start+idx))
	}
	return frame.ToBytes()
}

// EncodeVoiceFrame builds the 144-bit transmitted form of an 11-byte IMBE
// frame: FEC encoded, randomized and interleaved.
func EncodeVoiceFrame(data []byte) *bits.Buffer {
	if len(data) != IMBEFrameBytes {
		panic(fmt.Sprintf("p25: voice frame of %d bytes", len(data)))
	}
	info := bits.FromBytes(data)
	frame := bits.New(IMBEFrameBits)
	for j, idx := range imbeDataFields {
		frame.SetBit(idx, info.Get(j))
	}
	for w := 0; w < imbeGolayWords; w++ {
		correction.Golay23EncodeAt(frame, w*imbeGolayBits)
	}
	for w := 0; w < imbeHammingWords; w++ {
		correction.Hamming15113P25.Encode(frame, imbeHammingStart+w*imbeHammingBits)
	}
	Derandomize(frame, 0)
	InterleaveVoice(frame, 0, IMBEFrameBits)
	return frame
}
