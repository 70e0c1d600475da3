package correction

import (
	mathbits "math/bits"

	"github.com/dbehnke/lmrdecode/internal/bits"
)

// GF(2^8) with primitive polynomial x^8 + x^4 + x^3 + x^2 + 1 (0x11D).
var (
	gf256Exp [512]int
	gf256Log [256]int
)

// rs129Generator holds g(x) = (x+a)(x+a^2)(x+a^3) low order first, without
// the leading x^3 term.
var rs129Generator = [3]int{0x40, 0x38, 0x0E}

func init() {
	x := 1
	for i := 0; i < 255; i++ {
		gf256Exp[i] = x
		gf256Log[x] = i
		x <<= 1
		if x&0x100 != 0 {
			x ^= 0x11D
		}
	}
	for i := 255; i < 512; i++ {
		gf256Exp[i] = gf256Exp[i-255]
	}
}

func gf256Mul(a, b int) int {
	if a == 0 || b == 0 {
		return 0
	}
	return gf256Exp[gf256Log[a]+gf256Log[b]]
}

func gf256Div(a, b int) int {
	if a == 0 {
		return 0
	}
	return gf256Exp[(gf256Log[a]-gf256Log[b]+255)%255]
}

// RS129Parity computes the three parity bytes for nine DMR link control
// bytes, most significant parity byte first.
func RS129Parity(data [9]byte) [3]byte {
	var c0, c1, c2 int
	for _, d := range data {
		fb := int(d) ^ c0
		c0 = c1 ^ gf256Mul(rs129Generator[2], fb)
		c1 = c2 ^ gf256Mul(rs129Generator[1], fb)
		c2 = gf256Mul(rs129Generator[0], fb)
	}
	return [3]byte{byte(c0), byte(c1), byte(c2)}
}

// RS129Encode writes masked parity for the 72 link control bits at start
// into bits start+72..start+95.
func RS129Encode(buf *bits.Buffer, start int, mask byte) {
	var data [9]byte
	for i := range data {
		data[i] = buf.GetByte(start + i*8)
	}
	p := RS129Parity(data)
	for i, v := range p {
		buf.SetByte(start+72+i*8, v^mask)
	}
}

// RS129Correct checks the 96-bit DMR RS(12,9) code word at start after
// removing mask from the parity bytes. A single symbol error is corrected in
// place. It returns zero when the word is clean or was corrected, otherwise
// the residual between the calculated and received parity packed as
// c0<<16 | c1<<8 | c2.
func RS129Correct(buf *bits.Buffer, start int, mask byte) int {
	var cw [12]int
	for i := range cw {
		cw[i] = int(buf.GetByte(start + i*8))
	}
	for i := 9; i < 12; i++ {
		cw[i] ^= int(mask)
	}

	var s [3]int
	for j := 0; j < 3; j++ {
		root := gf256Exp[j+1]
		v := 0
		for _, c := range cw {
			v = gf256Mul(v, root) ^ c
		}
		s[j] = v
	}
	if s[0] == 0 && s[1] == 0 && s[2] == 0 {
		return 0
	}

	if s[0] != 0 && s[1] != 0 {
		x := gf256Div(s[1], s[0])
		if s[2] == gf256Mul(s[1], x) {
			if loc := gf256Log[x]; loc < 12 {
				y := gf256Div(s[0], x)
				index := 11 - loc
				buf.SetByte(start+index*8, buf.GetByte(start+index*8)^byte(y))
				buf.IncrementCorrectedBitCount(mathbits.OnesCount8(uint8(y)))
				return 0
			}
		}
	}

	var data [9]byte
	for i := range data {
		data[i] = byte(cw[i])
	}
	p := RS129Parity(data)
	return (int(p[0])^cw[9])<<16 | (int(p[1])^cw[10])<<8 | (int(p[2]) ^ cw[11])
}
