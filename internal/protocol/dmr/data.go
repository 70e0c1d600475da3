package dmr

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/dbehnke/lmrdecode/internal/bits"
	"github.com/dbehnke/lmrdecode/internal/correction"
	"github.com/dbehnke/lmrdecode/internal/protocol"
)

// CRC-CCITT mask applied to data headers.
const dataHeaderCRCMask = 0xCCCC

var (
	dataHeaderGroup       = bits.Range("GROUP", 0, 0)
	dataHeaderResponse    = bits.Range("RESPONSE_REQUESTED", 1, 1)
	dataHeaderFormat      = bits.Range("DPF", 4, 7)
	dataHeaderSAP         = bits.Range("SAP", 8, 11)
	dataHeaderDestination = bits.Range("DESTINATION", 16, 39)
	dataHeaderSource      = bits.Range("SOURCE", 40, 63)
	dataHeaderBlocks      = bits.Range("BLOCKS_TO_FOLLOW", 65, 71)
)

// DataMessage is a data burst that is not link control or CSBK.
type DataMessage struct {
	protocol.Base
	SlotType SlotType
}

func (m *DataMessage) Opcode() string                     { return m.SlotType.DataType.String() }
func (m *DataMessage) Vendor() string                     { return VendorStandard.String() }
func (m *DataMessage) Identifiers() []protocol.Identifier { return []protocol.Identifier{protocol.NewColorCode(m.SlotType.ColorCode)} }

func (m *DataMessage) String() string {
	return fmt.Sprintf("%s %s", m.SlotType, m.Bits().Hex())
}

// IdleMessage fills an unused slot.
type IdleMessage struct {
	DataMessage
}

func (m *IdleMessage) String() string { return fmt.Sprintf("CC:%d IDLE", m.SlotType.ColorCode) }

// UnknownData is a data burst type without a decoder.
type UnknownData struct {
	DataMessage
}

// DataHeader starts a packet data transfer.
type DataHeader struct {
	DataMessage
}

func (m *DataHeader) Group() bool             { return m.Bits().Bool(dataHeaderGroup) }
func (m *DataHeader) ResponseRequested() bool { return m.Bits().Bool(dataHeaderResponse) }
func (m *DataHeader) Format() int             { return m.Int(dataHeaderFormat) }
func (m *DataHeader) SAP() int                { return m.Int(dataHeaderSAP) }
func (m *DataHeader) Destination() int        { return m.Int(dataHeaderDestination) }
func (m *DataHeader) Source() int             { return m.Int(dataHeaderSource) }
func (m *DataHeader) BlocksToFollow() int     { return m.Int(dataHeaderBlocks) }

func (m *DataHeader) Identifiers() []protocol.Identifier {
	to := protocol.Identifier(protocol.NewRadioID(protocol.ProtocolDMR, protocol.RoleTo, m.Destination()))
	if m.Group() {
		to = protocol.NewTalkgroupID(protocol.ProtocolDMR, protocol.RoleTo, m.Destination())
	}
	return []protocol.Identifier{to, protocol.NewRadioID(protocol.ProtocolDMR, protocol.RoleFrom, m.Source())}
}

func (m *DataHeader) String() string {
	prefix := "DATA HEADER"
	if !m.Valid() {
		prefix = "[CRC-ERROR] DATA HEADER"
	}
	return fmt.Sprintf("%s FORMAT:%d SAP:%d FM:%d TO:%d BLOCKS:%d", prefix, m.Format(), m.SAP(),
		m.Source(), m.Destination(), m.BlocksToFollow())
}

// DataFactory turns 288-bit data bursts into typed messages.
type DataFactory struct {
	logger *log.Logger
	lc     *LCFactory
}

// NewDataFactory creates a data burst factory that hands link control
// payloads to lc.
func NewDataFactory(logger *log.Logger, lc *LCFactory) *DataFactory {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &DataFactory{logger: logger, lc: lc}
}

type timeslotSetter interface {
	SetTimeslot(int)
}

// Create decodes the BPTC(196,96) payload of a data burst and dispatches on
// the slot data type. The result is never nil.
func (f *DataFactory) Create(burst *bits.Buffer, slot SlotType, timeslot int, timestamp time.Time) protocol.Message {
	if burst.Size() != BurstBits {
		f.logger.Warn("unexpected data burst length", "bits", burst.Size(), "type", slot.DataType)
		msg := &UnknownData{DataMessage{Base: protocol.NewBase(protocol.ProtocolDMR, burst, timestamp), SlotType: slot}}
		msg.SetValid(false)
		msg.SetTimeslot(timeslot)
		return msg
	}

	payload, ok := correction.BPTC19696Decode(ExtractBPTC(burst), 0)
	msg := f.dispatch(payload, slot, timestamp)
	if !ok {
		setValid(msg, false)
	}
	if m, ok := msg.(timeslotSetter); ok {
		m.SetTimeslot(timeslot)
	}
	return msg
}

func (f *DataFactory) dispatch(payload *bits.Buffer, slot SlotType, timestamp time.Time) protocol.Message {
	data := DataMessage{Base: protocol.NewBase(protocol.ProtocolDMR, payload, timestamp), SlotType: slot}

	switch slot.DataType {
	case DataTypeVoiceHeader:
		return f.lc.CreateFull(payload, timestamp, LCBurstVoiceHeader)
	case DataTypeTerminator:
		return f.lc.CreateFull(payload, timestamp, LCBurstTerminator)
	case DataTypeCSBK:
		return createCSBK(payload, timestamp)
	case DataTypeDataHeader:
		data.SetResidual(correction.CRCCCITT16.Residual(payload, 0, csbkDataBits, csbkDataBits) ^ dataHeaderCRCMask)
		return &DataHeader{data}
	case DataTypeIdle:
		return &IdleMessage{data}
	default:
		return &UnknownData{data}
	}
}

// EncodeDataHeader writes the masked CRC for the 80 data bits of a header.
func EncodeDataHeader(buf *bits.Buffer) {
	crc := correction.CRCCCITT16.Compute(buf, 0, csbkDataBits) ^ dataHeaderCRCMask
	buf.Load(csbkDataBits, 16, uint64(crc))
}
