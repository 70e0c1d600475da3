package p25

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/dbehnke/lmrdecode/internal/bits"
	"github.com/dbehnke/lmrdecode/internal/codec"
	"github.com/dbehnke/lmrdecode/internal/protocol"
)

// maxTSBKBlocks is the most signalling blocks a single TSBK data unit
// carries.
const maxTSBKBlocks = 3

// DataUnit is a data unit whose body is not decoded: terminators, packet
// data and anything with an unrecognised DUID.
type DataUnit struct {
	protocol.Base
	NID
}

func (m *DataUnit) Opcode() string { return m.DUID.String() }
func (m *DataUnit) Vendor() string { return VendorStandard.String() }

func (m *DataUnit) Identifiers() []protocol.Identifier {
	return []protocol.Identifier{protocol.NewNAC(m.NAC)}
}

func (m *DataUnit) String() string {
	return fmt.Sprintf("NAC:%03X %s", m.NAC, m.DUID)
}

// Framer decodes P25 phase 1 data units. It is stateless and safe for
// concurrent use.
type Framer struct {
	logger *log.Logger
	tsbk   *TSBKFactory
	ldu    *LDUDecoder
}

func NewFramer(logger *log.Logger) *Framer {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Framer{
		logger: logger,
		tsbk:   NewTSBKFactory(logger),
		ldu:    NewLDUDecoder(logger),
	}
}

// Process decodes one data unit, NID included. kind is the data unit label
// reported by the demodulator (HDU, LDU1, TSBK ...); when empty or not
// recognised the DUID in the NID decides. A TSBK data unit yields one
// message per block up to the block flagged last.
func (f *Framer) Process(buf *bits.Buffer, kind string, direction protocol.Direction, timestamp time.Time) []protocol.Message {
	nid := ParseNID(buf)
	duid := ParseDataUnitID(kind)
	if duid == DataUnitUnknown {
		duid = nid.DUID
	}

	switch duid {
	case DataUnitHDU:
		return []protocol.Message{DecodeHDU(buf, timestamp)}
	case DataUnitLDU1:
		return []protocol.Message{f.ldu.DecodeLDU1(buf, timestamp)}
	case DataUnitLDU2:
		return []protocol.Message{f.ldu.DecodeLDU2(buf, timestamp)}
	case DataUnitTSBK:
		return f.tsbks(buf, nid.NAC, direction, timestamp)
	}

	msg := &DataUnit{Base: protocol.NewBase(protocol.ProtocolP25, buf, timestamp), NID: NID{NAC: nid.NAC, DUID: duid}}
	if buf.Size() < NIDBits || duid == DataUnitUnknown {
		f.logger.Debug("undecodable data unit", "kind", kind, "bits", buf.Size())
		msg.SetValid(false)
	}
	return []protocol.Message{msg}
}

func (f *Framer) tsbks(buf *bits.Buffer, nac int, direction protocol.Direction, timestamp time.Time) []protocol.Message {
	body := buf.Size() - NIDBits
	if body <= 0 || body%codec.P25DataBlockBits != 0 {
		f.logger.Warn("TSBK data unit is not a whole number of blocks", "bits", buf.Size())
		return []protocol.Message{f.tsbk.Create(bits.New(0), nac, direction, timestamp)}
	}

	var out []protocol.Message
	for i := 0; i < body/codec.P25DataBlockBits && i < maxTSBKBlocks; i++ {
		start := NIDBits + i*codec.P25DataBlockBits
		msg := f.tsbk.Create(buf.GetSubMessage(start, start+codec.P25DataBlockBits), nac, direction, timestamp)
		out = append(out, msg)
		if msg.Valid() && msg.LastBlock() {
			break
		}
	}
	return out
}
