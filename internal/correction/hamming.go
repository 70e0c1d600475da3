package correction

import (
	"github.com/dbehnke/lmrdecode/internal/bits"
)

// Hamming is a systematic single error correcting block code. Data bits
// occupy positions 0..K-1 of the code word and parity bits K..N-1. Each
// parity bit is the XOR of the data positions listed in its equation.
type Hamming struct {
	Name      string
	N, K      int
	equations [][]int
	syndromes map[uint32]int
}

func newHamming(name string, n, k int, equations [][]int) *Hamming {
	h := &Hamming{Name: name, N: n, K: k, equations: equations, syndromes: make(map[uint32]int, n)}
	for pos := 0; pos < n; pos++ {
		var s uint32
		for j, eq := range equations {
			if pos == k+j {
				s |= 1 << j
			}
			for _, d := range eq {
				if d == pos {
					s |= 1 << j
				}
			}
		}
		h.syndromes[s] = pos
	}
	return h
}

// Hamming code variants. The equations follow the DMR and P25 air interface
// definitions.
var (
	// Hamming15113 is the DMR BPTC row code.
	Hamming15113 = newHamming("Hamming(15,11,3)", 15, 11, [][]int{
		{0, 1, 2, 3, 5, 7, 8},
		{1, 2, 3, 4, 6, 8, 9},
		{2, 3, 4, 5, 7, 9, 10},
		{0, 1, 2, 4, 6, 7, 10},
	})

	// Hamming15113P25 protects the IMBE c4..c6 cosets.
	Hamming15113P25 = newHamming("Hamming(15,11,3) P25", 15, 11, [][]int{
		{0, 1, 2, 3, 4, 5, 6},
		{0, 1, 2, 3, 7, 8, 9},
		{0, 1, 4, 5, 7, 8, 10},
		{0, 2, 4, 6, 7, 9, 10},
	})

	// Hamming1393 is the DMR BPTC column code.
	Hamming1393 = newHamming("Hamming(13,9,3)", 13, 9, [][]int{
		{0, 1, 3, 5, 6},
		{0, 1, 2, 4, 6, 7},
		{0, 1, 2, 3, 5, 7, 8},
		{0, 2, 4, 5, 8},
	})

	// Hamming1063 protects P25 link control and encryption sync hex words.
	Hamming1063 = newHamming("Hamming(10,6,3)", 10, 6, [][]int{
		{0, 1, 2, 5},
		{0, 1, 3, 5},
		{0, 2, 3, 4},
		{1, 2, 3, 4},
	})

	// Hamming16114 is the DMR embedded signalling row code. Double errors are
	// detected and reported as uncorrectable.
	Hamming16114 = newHamming("Hamming(16,11,4)", 16, 11, [][]int{
		{0, 1, 2, 3, 5, 7, 8},
		{1, 2, 3, 4, 6, 8, 9},
		{2, 3, 4, 5, 7, 9, 10},
		{0, 1, 2, 4, 6, 7, 10},
		{0, 2, 5, 6, 8, 9, 10},
	})

	// Hamming743 protects the DMR CACH TACT bits.
	Hamming743 = newHamming("Hamming(7,4,3)", 7, 4, [][]int{
		{0, 1, 2},
		{1, 2, 3},
		{0, 1, 3},
	})

	// Hamming17123 protects DMR rate 3/4 and CACH fragments.
	Hamming17123 = newHamming("Hamming(17,12,3)", 17, 12, [][]int{
		{0, 1, 2, 3, 6, 7, 9},
		{0, 1, 2, 3, 4, 7, 8, 10},
		{1, 2, 3, 4, 5, 8, 9, 11},
		{0, 1, 4, 5, 7, 10},
		{0, 2, 5, 6, 8, 11},
	})
)

func (h *Hamming) syndrome(buf *bits.Buffer, start int) uint32 {
	var s uint32
	for j, eq := range h.equations {
		p := buf.Get(start + h.K + j)
		for _, d := range eq {
			p = p != buf.Get(start+d)
		}
		if p {
			s |= 1 << j
		}
	}
	return s
}

// Check reports whether the code word at start has a zero syndrome.
func (h *Hamming) Check(buf *bits.Buffer, start int) bool {
	return h.syndrome(buf, start) == 0
}

// CheckAndCorrect verifies the code word at start and repairs a single bit
// error in place. It returns the number of bits corrected, or -1 when the
// syndrome does not match a single bit error.
func (h *Hamming) CheckAndCorrect(buf *bits.Buffer, start int) int {
	s := h.syndrome(buf, start)
	if s == 0 {
		return 0
	}
	pos, ok := h.syndromes[s]
	if !ok {
		return -1
	}
	buf.Flip(start + pos)
	buf.IncrementCorrectedBitCount(1)
	return 1
}

// Encode computes the parity bits for the data already present at start.
func (h *Hamming) Encode(buf *bits.Buffer, start int) {
	for j, eq := range h.equations {
		p := false
		for _, d := range eq {
			p = p != buf.Get(start+d)
		}
		buf.SetBit(start+h.K+j, p)
	}
}

// EncodeValue returns the N-bit code word for the K-bit data value.
func (h *Hamming) EncodeValue(data int) int {
	buf := bits.New(h.N)
	buf.Load(0, h.K, uint64(data))
	h.Encode(buf, 0)
	return buf.GetIntRange(0, h.N-1)
}
