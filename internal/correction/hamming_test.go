package correction

import (
	"testing"

	"github.com/dbehnke/lmrdecode/internal/bits"
)

func TestHammingSingleBitCorrection(t *testing.T) {
	codes := []*Hamming{Hamming15113, Hamming15113P25, Hamming1393, Hamming1063, Hamming16114, Hamming17123, Hamming743}

	for _, code := range codes {
		t.Run(code.Name, func(t *testing.T) {
			patterns := []int{0, 1, (1 << code.K) - 1, 0x2AA & ((1 << code.K) - 1), 0x155 & ((1 << code.K) - 1)}
			for _, data := range patterns {
				clean := bits.New(code.N + 3)
				clean.Load(3, code.N, uint64(code.EncodeValue(data)))

				if n := code.CheckAndCorrect(clean.Clone(), 3); n != 0 {
					t.Errorf("clean word 0x%X reported %d corrections", data, n)
				}

				for pos := 0; pos < code.N; pos++ {
					word := clean.Clone()
					word.Flip(3 + pos)
					if n := code.CheckAndCorrect(word, 3); n != 1 {
						t.Errorf("data 0x%X error at %d: got %d corrections, want 1", data, pos, n)
						continue
					}
					if !word.Equal(clean) {
						t.Errorf("data 0x%X error at %d: word not restored", data, pos)
					}
					if word.CorrectedBitCount() != 1 {
						t.Errorf("corrected bit count = %d, want 1", word.CorrectedBitCount())
					}
				}
			}
		})
	}
}

func TestHamming16114DetectsDoubleErrors(t *testing.T) {
	word := bits.New(16)
	word.Load(0, 16, uint64(Hamming16114.EncodeValue(0x5A5)))

	for a := 0; a < 16; a++ {
		for b := a + 1; b < 16; b++ {
			w := word.Clone()
			w.Flip(a)
			w.Flip(b)
			if n := Hamming16114.CheckAndCorrect(w, 0); n != -1 {
				t.Fatalf("double error at %d,%d returned %d, want -1", a, b, n)
			}
		}
	}
}

func TestHammingEncodeMatchesCheck(t *testing.T) {
	buf := bits.New(15)
	buf.Load(0, 11, 0x4D3)
	Hamming15113.Encode(buf, 0)
	if !Hamming15113.Check(buf, 0) {
		t.Error("encoded word failed check")
	}
	if got := buf.GetIntRange(0, 10); got != 0x4D3 {
		t.Errorf("data bits changed: 0x%X", got)
	}
}

func BenchmarkHamming15113Correct(b *testing.B) {
	buf := bits.New(15)
	buf.Load(0, 15, uint64(Hamming15113.EncodeValue(0x3C3)))
	buf.Flip(4)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		w := buf.Clone()
		Hamming15113.CheckAndCorrect(w, 0)
	}
}
