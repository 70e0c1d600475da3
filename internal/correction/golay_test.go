package correction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/dbehnke/lmrdecode/internal/bits"
)

func TestGolay23KnownWord(t *testing.T) {
	assert.Equal(t, 0x55E11E, Golay23Encode(0xABC))
	assert.Equal(t, 0, Golay23Encode(0))
}

func TestGolay23Decode(t *testing.T) {
	tests := []struct {
		name   string
		data   int
		errors []int
		want   int
	}{
		{"clean", 0x123, nil, 0},
		{"one data error", 0x123, []int{0}, 1},
		{"one parity error", 0xFFF, []int{22}, 1},
		{"two errors", 0x800, []int{3, 17}, 2},
		{"three errors", 0x7A5, []int{1, 11, 20}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := bits.New(30)
			buf.Load(5, 23, uint64(Golay23Encode(tt.data)))
			for _, e := range tt.errors {
				buf.Flip(5 + e)
			}

			n := Golay23(buf, 5)
			if n != tt.want {
				t.Errorf("Golay23() corrected %d, want %d", n, tt.want)
			}
			if got := buf.GetIntRange(5, 16); got != tt.data {
				t.Errorf("data = 0x%03X, want 0x%03X", got, tt.data)
			}
			if buf.CorrectedBitCount() != tt.want {
				t.Errorf("corrected bit count = %d, want %d", buf.CorrectedBitCount(), tt.want)
			}
		})
	}
}

func TestGolay24DetectsFourErrors(t *testing.T) {
	word := Golay24Encode(0x9C4)
	corrupted := word ^ (1<<0 | 1<<5 | 1<<12 | 1<<20)

	_, n := Golay24Correct(corrupted)
	assert.Equal(t, -1, n)

	buf := bits.New(24)
	buf.Load(0, 24, uint64(corrupted))
	assert.Equal(t, -1, Golay24(buf, 0))
	assert.Equal(t, corrupted, buf.GetIntRange(0, 23), "uncorrectable word must be left untouched")
}

func TestGolay24ParityBitError(t *testing.T) {
	word := Golay24Encode(0x0F0)
	fixed, n := Golay24Correct(word ^ 1)
	assert.Equal(t, word, fixed)
	assert.Equal(t, 1, n)
}

func TestGolay18Shortened(t *testing.T) {
	for data := 0; data < 64; data++ {
		buf := bits.New(18)
		buf.Load(0, 18, uint64(Golay18Encode(data)))
		buf.Flip(data % 18)
		buf.Flip((data + 7) % 18)
		if n := Golay18(buf, 0); n != 2 {
			t.Fatalf("data %d: corrected %d, want 2", data, n)
		}
		if got := buf.GetIntRange(0, 5); got != data {
			t.Fatalf("data %d: got %d", data, got)
		}
	}
}

func TestGolay23CorrectsUpToThree(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		data := rapid.IntRange(0, 0xFFF).Draw(t, "data")
		positions := rapid.SliceOfNDistinct(rapid.IntRange(0, 22), 0, 3, rapid.ID[int]).Draw(t, "positions")

		word := Golay23Encode(data)
		for _, p := range positions {
			word ^= 1 << p
		}
		fixed, n := Golay23Correct(word)
		assert.Equal(t, Golay23Encode(data), fixed)
		assert.Equal(t, len(positions), n)
	})
}

func BenchmarkGolay23(b *testing.B) {
	buf := bits.New(23)
	buf.Load(0, 23, uint64(Golay23Encode(0x5A5)^0x10001))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Golay23(buf.Clone(), 0)
	}
}
