package dmr

import (
	"fmt"
	"sync"
	"time"

	"github.com/dbehnke/lmrdecode/internal/bits"
	"github.com/dbehnke/lmrdecode/internal/correction"
	"github.com/dbehnke/lmrdecode/internal/protocol"
)

var (
	slcOpcode = bits.Range("SLCO", 0, 3)

	slcActivityTS1     = bits.Range("TS1_ACTIVITY", 4, 7)
	slcActivityTS2     = bits.Range("TS2_ACTIVITY", 8, 11)
	slcActivityHashTS1 = bits.Range("TS1_HASH", 12, 19)
	slcActivityHashTS2 = bits.Range("TS2_HASH", 20, 27)

	slcSystemModel    = bits.Range("MODEL", 4, 5)
	slcSystemIdentity = bits.Range("SYSTEM_IDENTITY", 6, 19)
	slcSystemReg      = bits.Range("REGISTRATION_REQUIRED", 20, 20)
	slcSystemCommon   = bits.Range("COMMON_SLOT_COUNTER", 22, 27)

	slcConnectPlusNetwork = bits.Range("NETWORK", 4, 15)
	slcConnectPlusSite    = bits.Range("SITE", 16, 23)

	slcCapPlusRestLSN = bits.Range("REST_LSN", 12, 15)

	slcData = bits.Range("DATA", 4, 27)
)

const slcCRCStart = 28

// ShortLCMessage is a decoded CACH short link control.
type ShortLCMessage interface {
	protocol.Message
	ShortLCOpcode() ShortLCOpcode
}

// ShortLC carries the state shared by short link control messages.
type ShortLC struct {
	protocol.Base
	opcode ShortLCOpcode
}

func (s *ShortLC) ShortLCOpcode() ShortLCOpcode       { return s.opcode }
func (s *ShortLC) Opcode() string                     { return s.opcode.String() }
func (s *ShortLC) Vendor() string                     { return VendorStandard.String() }
func (s *ShortLC) Identifiers() []protocol.Identifier { return nil }
func (s *ShortLC) String() string                     { return s.prefix() + " DATA:" + s.Bits().HexField(slcData) }

func (s *ShortLC) prefix() string {
	if !s.Valid() {
		return "[CRC-ERROR] SLC " + s.opcode.String()
	}
	return "SLC " + s.opcode.String()
}

// ActivityUpdate reports which timeslots are busy on a trunked channel.
type ActivityUpdate struct {
	ShortLC
}

func (m *ActivityUpdate) TS1Activity() int { return m.Int(slcActivityTS1) }
func (m *ActivityUpdate) TS2Activity() int { return m.Int(slcActivityTS2) }

func (m *ActivityUpdate) String() string {
	return fmt.Sprintf("%s TS1:%X HASH:%02X TS2:%X HASH:%02X", m.prefix(),
		m.TS1Activity(), m.Int(slcActivityHashTS1), m.TS2Activity(), m.Int(slcActivityHashTS2))
}

// SystemParameters identifies a Tier III trunked system.
type SystemParameters struct {
	ShortLC
}

func (m *SystemParameters) Model() int                 { return m.Int(slcSystemModel) }
func (m *SystemParameters) SystemIdentity() int        { return m.Int(slcSystemIdentity) }
func (m *SystemParameters) RegistrationRequired() bool { return m.Bits().Bool(slcSystemReg) }
func (m *SystemParameters) CommonSlotCounter() int     { return m.Int(slcSystemCommon) }

func (m *SystemParameters) Identifiers() []protocol.Identifier {
	return []protocol.Identifier{protocol.NewSystemID(protocol.ProtocolDMR, m.SystemIdentity())}
}

func (m *SystemParameters) String() string {
	return fmt.Sprintf("%s MODEL:%d SYSTEM:%04X COMMON SLOT:%d", m.prefix(), m.Model(), m.SystemIdentity(), m.CommonSlotCounter())
}

// ConnectPlusChannel identifies a Connect Plus network and site.
type ConnectPlusChannel struct {
	ShortLC
}

func (m *ConnectPlusChannel) Network() int { return m.Int(slcConnectPlusNetwork) }
func (m *ConnectPlusChannel) Site() int    { return m.Int(slcConnectPlusSite) }

func (m *ConnectPlusChannel) Identifiers() []protocol.Identifier {
	return []protocol.Identifier{
		protocol.NewSystemID(protocol.ProtocolDMR, m.Network()),
		protocol.NewSiteID(protocol.ProtocolDMR, m.Site()),
	}
}

func (m *ConnectPlusChannel) String() string {
	return fmt.Sprintf("%s NETWORK:%d SITE:%d", m.prefix(), m.Network(), m.Site())
}

// CapacityPlusRestChannel names the current Capacity Plus rest channel.
type CapacityPlusRestChannel struct {
	ShortLC
}

// RestLSN is the logical slot number of the rest channel.
func (m *CapacityPlusRestChannel) RestLSN() int { return m.Int(slcCapPlusRestLSN) + 1 }

func (m *CapacityPlusRestChannel) Identifiers() []protocol.Identifier {
	return []protocol.Identifier{protocol.NewChannel(protocol.ProtocolDMR, 0, m.RestLSN())}
}

func (m *CapacityPlusRestChannel) String() string {
	return fmt.Sprintf("%s REST LSN:%d", m.prefix(), m.RestLSN())
}

// CreateShort checks the CRC-8 of a 36-bit short link control and returns
// the typed message.
func (f *LCFactory) CreateShort(buf *bits.Buffer, timestamp time.Time) ShortLCMessage {
	if buf.Size() != ShortLCBits {
		f.logger.Warn("unexpected short link control length", "bits", buf.Size())
		padded := bits.New(ShortLCBits)
		padded.Copy(0, buf.GetSubMessage(0, min(buf.Size(), ShortLCBits)))
		buf = padded
	}

	opcode := LookupShortLCOpcode(buf.Int(slcOpcode))
	base := ShortLC{Base: protocol.NewBase(protocol.ProtocolDMR, buf, timestamp), opcode: opcode}
	base.SetResidual(correction.CRC8.Residual(buf, 0, slcCRCStart, slcCRCStart))

	switch opcode {
	case SLCOActivityUpdate:
		return &ActivityUpdate{base}
	case SLCOSystemParameters:
		return &SystemParameters{base}
	case SLCOConnectPlusControlChannel, SLCOConnectPlusTrafficChannel:
		return &ConnectPlusChannel{base}
	case SLCOCapacityPlusRestChannel:
		return &CapacityPlusRestChannel{base}
	default:
		return &base
	}
}

// Short link control is carried over four CACH bursts as a 4x17 matrix of
// Hamming(17,12,3) rows plus a column parity row.
const (
	cachFragments   = 4
	cachPayloadBits = 17
	slcMatrixBits   = cachFragments * cachPayloadBits
)

// ShortLCAssembler gathers CACH payload fragments and decodes the short link
// control once the final fragment arrives.
type ShortLCAssembler struct {
	factory *LCFactory

	mu        sync.Mutex
	fragments []*bits.Buffer
}

func NewShortLCAssembler(factory *LCFactory) *ShortLCAssembler {
	return &ShortLCAssembler{factory: factory}
}

// Add offers the CACH of a burst. It returns the decoded message when the
// fragment completes a short link control, otherwise nil.
func (a *ShortLCAssembler) Add(burst *bits.Buffer, timestamp time.Time) ShortLCMessage {
	tact, payload := ParseCACH(burst)
	if !tact.Valid {
		a.reset()
		return nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	switch tact.LCSS {
	case LCSSFirst:
		a.fragments = append(a.fragments[:0], payload)
		return nil
	case LCSSContinuation:
		if len(a.fragments) > 0 && len(a.fragments) < cachFragments-1 {
			a.fragments = append(a.fragments, payload)
		} else {
			a.fragments = a.fragments[:0]
		}
		return nil
	case LCSSLast:
		if len(a.fragments) != cachFragments-1 {
			a.fragments = a.fragments[:0]
			return nil
		}
		a.fragments = append(a.fragments, payload)
		matrix := bits.New(slcMatrixBits)
		for i, frag := range a.fragments {
			matrix.Copy(i*cachPayloadBits, frag)
		}
		a.fragments = a.fragments[:0]
		return a.factory.CreateShort(decodeShortLCMatrix(matrix), timestamp)
	}
	return nil
}

func (a *ShortLCAssembler) reset() {
	a.mu.Lock()
	a.fragments = a.fragments[:0]
	a.mu.Unlock()
}

// decodeShortLCMatrix deinterleaves the 68 received bits, corrects the three
// Hamming rows and returns the 36 short link control bits. Rows that cannot
// be corrected are left as received so the CRC reports the failure.
func decodeShortLCMatrix(received *bits.Buffer) *bits.Buffer {
	matrix := bits.New(slcMatrixBits)
	for a := 0; a < slcMatrixBits-1; a++ {
		matrix.SetBit(a, received.Get((a*4)%(slcMatrixBits-1)))
	}
	matrix.SetBit(slcMatrixBits-1, received.Get(slcMatrixBits-1))

	for r := 0; r < 3; r++ {
		correction.Hamming17123.CheckAndCorrect(matrix, r*cachPayloadBits)
	}

	out := bits.New(ShortLCBits)
	for r := 0; r < 3; r++ {
		out.Copy(r*12, matrix.GetSubMessage(r*cachPayloadBits, r*cachPayloadBits+12))
	}
	out.SetCorrectedBitCount(matrix.CorrectedBitCount())
	return out
}

// encodeShortLCMatrix is the inverse of decodeShortLCMatrix.
func encodeShortLCMatrix(slc *bits.Buffer) *bits.Buffer {
	matrix := bits.New(slcMatrixBits)
	for r := 0; r < 3; r++ {
		matrix.Copy(r*cachPayloadBits, slc.GetSubMessage(r*12, r*12+12))
		correction.Hamming17123.Encode(matrix, r*cachPayloadBits)
	}
	for c := 0; c < cachPayloadBits; c++ {
		p := false
		for r := 0; r < 3; r++ {
			p = p != matrix.Get(r*cachPayloadBits+c)
		}
		matrix.SetBit(3*cachPayloadBits+c, p)
	}

	out := bits.New(slcMatrixBits)
	for a := 0; a < slcMatrixBits-1; a++ {
		out.SetBit((a*4)%(slcMatrixBits-1), matrix.Get(a))
	}
	out.SetBit(slcMatrixBits-1, matrix.Get(slcMatrixBits-1))
	return out
}
