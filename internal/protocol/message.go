package protocol

import (
	"time"

	"github.com/dbehnke/lmrdecode/internal/bits"
)

// Message is a decoded, typed air interface message. Messages are always
// produced, even when error correction failed; Valid reports whether the
// message passed its checks.
type Message interface {
	Protocol() Protocol
	Timestamp() time.Time
	Valid() bool
	// Residual is the CRC or parity remainder left after correction. Zero
	// means the message checked clean.
	Residual() int
	Opcode() string
	Vendor() string
	Identifiers() []Identifier
	Bits() *bits.Buffer
	String() string
}

// Base carries the state shared by every message type. Concrete messages
// embed it.
type Base struct {
	buf       *bits.Buffer
	protocol  Protocol
	timestamp time.Time
	valid     bool
	residual  int
	timeslot  int
}

func NewBase(p Protocol, buf *bits.Buffer, timestamp time.Time) Base {
	return Base{buf: buf, protocol: p, timestamp: timestamp, valid: true}
}

func (b *Base) Protocol() Protocol   { return b.protocol }
func (b *Base) Timestamp() time.Time { return b.timestamp }
func (b *Base) Bits() *bits.Buffer   { return b.buf }
func (b *Base) Valid() bool          { return b.valid }
func (b *Base) Residual() int        { return b.residual }
func (b *Base) Timeslot() int        { return b.timeslot }

func (b *Base) SetValid(valid bool)  { b.valid = valid }
func (b *Base) SetTimeslot(slot int) { b.timeslot = slot }

// SetResidual records the check remainder and marks the message valid only
// when it is zero.
func (b *Base) SetResidual(residual int) {
	b.residual = residual
	b.valid = residual == 0
}

// CorrectedBitCount is the number of bits repaired while decoding.
func (b *Base) CorrectedBitCount() int {
	if b.buf == nil {
		return 0
	}
	return b.buf.CorrectedBitCount()
}

// Int reads a field from the message bits.
func (b *Base) Int(f bits.Field) int {
	return b.buf.Int(f)
}
