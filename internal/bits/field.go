package bits

// Field names an ordered list of bit positions within a message. Fields are
// protocol constants; the indices need not be contiguous.
type Field struct {
	Name    string
	Indices []int
}

// Range builds a contiguous field covering start..end inclusive.
func Range(name string, start, end int) Field {
	indices := make([]int, 0, end-start+1)
	for i := start; i <= end; i++ {
		indices = append(indices, i)
	}
	return Field{Name: name, Indices: indices}
}

// Fragmented builds a field from explicit, possibly scattered, positions.
func Fragmented(name string, indices ...int) Field {
	return Field{Name: name, Indices: indices}
}

// Width returns the number of bits in the field.
func (f Field) Width() int {
	return len(f.Indices)
}

// Start returns the first bit position.
func (f Field) Start() int {
	return f.Indices[0]
}

// Offset returns a copy of the field shifted by n bit positions.
func (f Field) Offset(n int) Field {
	indices := make([]int, len(f.Indices))
	for i, v := range f.Indices {
		indices[i] = v + n
	}
	return Field{Name: f.Name, Indices: indices}
}

// Int extracts the field value.
func (b *Buffer) Int(f Field) int {
	return b.GetInt(f.Indices)
}

// HexField extracts the field value as zero padded hex, one digit per nibble.
func (b *Buffer) HexField(f Field) string {
	return b.GetHex(f.Indices, (f.Width()+3)/4)
}

// Bool reports whether a one-bit field is set.
func (b *Buffer) Bool(f Field) bool {
	return b.Get(f.Indices[0])
}
