package correction

// Galois field GF(2^6) built from the primitive polynomial 1 + x + x^6, used
// by the P25 hex word Reed-Solomon codes.
const (
	gf64Size      = 63
	gf64Primitive = 0x43
)

// Filled by a variable initializer: the package level codes below read the
// tables while the package is being initialized.
var gf64Exp, gf64Log = buildGF64()

func buildGF64() (exp [2 * gf64Size]int, log [gf64Size + 1]int) {
	x := 1
	for i := 0; i < gf64Size; i++ {
		exp[i] = x
		log[x] = i
		x <<= 1
		if x&0x40 != 0 {
			x ^= gf64Primitive
		}
	}
	for i := gf64Size; i < 2*gf64Size; i++ {
		exp[i] = exp[i-gf64Size]
	}
	log[0] = -1
	return exp, log
}

func gf64Mul(a, b int) int {
	if a == 0 || b == 0 {
		return 0
	}
	return gf64Exp[gf64Log[a]+gf64Log[b]]
}

func gf64Inv(a int) int {
	return gf64Exp[(gf64Size-gf64Log[a])%gf64Size]
}

func gf64Pow(a, e int) int {
	if a == 0 {
		return 0
	}
	return gf64Exp[(gf64Log[a]*e)%gf64Size]
}

// ReedSolomon is a Berlekamp-Massey decoder for an (n,k) code over GF(2^6)
// with generator roots alpha^1 .. alpha^(n-k). Symbol arrays are in
// polynomial order: index i holds the coefficient of x^i, so the first symbol
// read off the air lands at the highest index. Shortened codes leave the
// unused high order symbols at zero.
type ReedSolomon struct {
	n, k, nk  int
	generator []int
}

// NewReedSolomon63 builds an (n,k) code over GF(2^6) with n <= 63.
func NewReedSolomon63(n, k int) *ReedSolomon {
	rs := &ReedSolomon{n: n, k: k, nk: n - k}
	g := []int{1}
	for i := 1; i <= rs.nk; i++ {
		next := make([]int, len(g)+1)
		for j, c := range g {
			next[j] ^= gf64Mul(c, gf64Exp[i])
			next[j+1] ^= c
		}
		g = next
	}
	rs.generator = g
	return rs
}

// P25 Reed-Solomon codes. The header and link control words use shortened
// forms of these: (36,20,17), (24,12,13) and (24,16,9).
var (
	RS634717 = NewReedSolomon63(63, 47)
	RS635113 = NewReedSolomon63(63, 51)
	RS63559  = NewReedSolomon63(63, 55)
)

// Capacity returns the number of correctable symbol errors.
func (rs *ReedSolomon) Capacity() int {
	return rs.nk / 2
}

// Encode returns the n symbol code word for k data symbols. data[i] is the
// coefficient of x^(n-k+i); parity occupies indices 0..n-k-1.
func (rs *ReedSolomon) Encode(data []int) []int {
	b := make([]int, rs.nk)
	for i := rs.k - 1; i >= 0; i-- {
		d := 0
		if i < len(data) {
			d = data[i]
		}
		fb := d ^ b[rs.nk-1]
		for j := rs.nk - 1; j > 0; j-- {
			b[j] = b[j-1] ^ gf64Mul(rs.generator[j], fb)
		}
		b[0] = gf64Mul(rs.generator[0], fb)
	}
	out := make([]int, rs.n)
	copy(out, b)
	for i := 0; i < rs.k && i < len(data); i++ {
		out[rs.nk+i] = data[i]
	}
	return out
}

// Decode corrects up to (n-k)/2 symbol errors in input and writes the result
// into output (both of length 63). It reports true when the errors exceed
// the correction capacity; output then holds the uncorrected input.
func (rs *ReedSolomon) Decode(input, output []int) (irrecoverable bool) {
	copy(output, input)

	syndromes := make([]int, rs.nk)
	nonZero := false
	for j := 0; j < rs.nk; j++ {
		root := gf64Exp[j+1]
		v := 0
		for i := gf64Size - 1; i >= 0; i-- {
			v = gf64Mul(v, root) ^ input[i]
		}
		syndromes[j] = v
		if v != 0 {
			nonZero = true
		}
	}
	if !nonZero {
		return false
	}

	locator, degree := rs.berlekampMassey(syndromes)
	if 2*degree > rs.nk {
		return true
	}

	var positions []int
	for i := 0; i < gf64Size; i++ {
		xInv := gf64Exp[(gf64Size-i)%gf64Size]
		v := 0
		for j := degree; j >= 0; j-- {
			v = gf64Mul(v, xInv) ^ locator[j]
		}
		if v == 0 {
			positions = append(positions, i)
		}
	}
	if len(positions) != degree {
		return true
	}

	omega := make([]int, rs.nk)
	for i := 0; i < rs.nk; i++ {
		for j := 0; j <= i && j <= degree; j++ {
			omega[i] ^= gf64Mul(locator[j], syndromes[i-j])
		}
	}

	corrections := make([]int, len(positions))
	for n, pos := range positions {
		xInv := gf64Exp[(gf64Size-pos)%gf64Size]
		num := 0
		for j := rs.nk - 1; j >= 0; j-- {
			num = gf64Mul(num, xInv) ^ omega[j]
		}
		den := 0
		for j := 1; j <= degree; j += 2 {
			den ^= gf64Mul(locator[j], gf64Pow(xInv, j-1))
		}
		if den == 0 {
			return true
		}
		corrections[n] = gf64Mul(num, gf64Inv(den))
	}
	for n, pos := range positions {
		if pos >= rs.n {
			copy(output, input)
			return true
		}
		output[pos] ^= corrections[n]
	}
	return false
}

func (rs *ReedSolomon) berlekampMassey(s []int) ([]int, int) {
	c := make([]int, rs.nk+1)
	b := make([]int, rs.nk+1)
	c[0], b[0] = 1, 1
	l, m, last := 0, 1, 1

	for n := 0; n < rs.nk; n++ {
		d := s[n]
		for i := 1; i <= l; i++ {
			d ^= gf64Mul(c[i], s[n-i])
		}
		if d == 0 {
			m++
			continue
		}
		coef := gf64Mul(d, gf64Inv(last))
		if 2*l <= n {
			t := make([]int, len(c))
			copy(t, c)
			for i := 0; i+m <= rs.nk; i++ {
				c[i+m] ^= gf64Mul(coef, b[i])
			}
			l = n + 1 - l
			b = t
			last = d
			m = 1
		} else {
			for i := 0; i+m <= rs.nk; i++ {
				c[i+m] ^= gf64Mul(coef, b[i])
			}
			m++
		}
	}
	return c, l
}
