package dmr

import (
	"io"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/dbehnke/lmrdecode/internal/bits"
	"github.com/dbehnke/lmrdecode/internal/correction"
	"github.com/dbehnke/lmrdecode/internal/protocol"
)

// Full link control code word lengths.
const (
	FullLCBits     = 96
	EmbeddedLCBits = 77
	ShortLCBits    = 36
)

// RS(12,9) parity masks applied by the transmitter per burst type.
const (
	MaskVoiceHeader byte = 0x96
	MaskTerminator  byte = 0x99
)

// LCBurst is the burst type a full link control was carried in. It selects
// the parity mask.
type LCBurst int

const (
	LCBurstVoiceHeader LCBurst = iota
	LCBurstTerminator
	LCBurstEmbedded
)

func (b LCBurst) String() string {
	switch b {
	case LCBurstVoiceHeader:
		return "VOICE_HEADER"
	case LCBurstTerminator:
		return "TERMINATOR"
	case LCBurstEmbedded:
		return "EMBEDDED"
	default:
		return "UNKNOWN"
	}
}

// DefaultHistoricalResiduals lists RS(12,9) residuals seen on the air for
// messages that were otherwise well formed. 0x0F0F0F is a header decoded
// with the terminator mask or the reverse; 0x969696 and 0x999999 are parity
// sent without a mask.
func DefaultHistoricalResiduals() map[LCOpcode][]int {
	return map[LCOpcode][]int{
		LCStandardGroupVoiceChannelUser:        {0x0F0F0F},
		LCStandardUnitToUnitVoiceChannelUser:   {0x0F0F0F},
		LCCapacityPlusGroupVoiceChannelUser:    {0x0F0F0F},
		LCCapacityPlusWideAreaVoiceChannelUser: {0x969696, 0x999999},
		LCHyteraGroupVoiceChannelUser:          {0x0F0F0F},
	}
}

// LCFactory builds typed link control messages from corrected code words.
// The factory is immutable after construction and safe for concurrent use.
type LCFactory struct {
	logger         *log.Logger
	headerMask     byte
	terminatorMask byte
	historical     map[LCOpcode][]int
}

// LCOption configures an LCFactory.
type LCOption func(*LCFactory)

// WithMasks overrides the voice header and terminator parity masks.
func WithMasks(header, terminator byte) LCOption {
	return func(f *LCFactory) {
		f.headerMask = header
		f.terminatorMask = terminator
	}
}

// WithHistoricalResiduals replaces the accepted residual table.
func WithHistoricalResiduals(residuals map[LCOpcode][]int) LCOption {
	return func(f *LCFactory) {
		f.historical = residuals
	}
}

// NewLCFactory creates a link control factory. A nil logger discards output.
func NewLCFactory(logger *log.Logger, opts ...LCOption) *LCFactory {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	f := &LCFactory{
		logger:         logger,
		headerMask:     MaskVoiceHeader,
		terminatorMask: MaskTerminator,
		historical:     DefaultHistoricalResiduals(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Create builds a full or short link control message depending on the code
// word length.
func (f *LCFactory) Create(buf *bits.Buffer, timestamp time.Time, burst LCBurst) protocol.Message {
	if buf.Size() == ShortLCBits {
		return f.CreateShort(buf, timestamp)
	}
	return f.CreateFull(buf, timestamp, burst)
}

func (f *LCFactory) mask(burst LCBurst) byte {
	if burst == LCBurstTerminator {
		return f.terminatorMask
	}
	return f.headerMask
}

// CreateFull checks and corrects a 96-bit RS(12,9) or 77-bit embedded link
// control and returns the typed message. A message is always returned; one
// that fails its checks reports Valid() == false.
func (f *LCFactory) CreateFull(buf *bits.Buffer, timestamp time.Time, burst LCBurst) LCMessage {
	residual := 0
	opcode := LookupLCOpcode(buf.Int(lcFID), buf.Int(lcFLCO))

	switch buf.Size() {
	case FullLCBits:
		residual = f.checkFull(buf, burst, opcode)
	case EmbeddedLCBits:
		if checksum := buf.GetIntRange(lcDataBits, EmbeddedLCBits-1); checksum != correction.DMRChecksum5(buf, 0) {
			residual = checksum ^ correction.DMRChecksum5(buf, 0)
		}
	default:
		f.logger.Warn("unexpected link control length, skipping error check", "bits", buf.Size(), "burst", burst)
	}

	// A single symbol correction may have changed the opcode fields.
	opcode = LookupLCOpcode(buf.Int(lcFID), buf.Int(lcFLCO))
	msg := newLCMessage(opcode, buf, timestamp)
	setResidual(msg, residual)
	if residual != 0 && slices.Contains(f.historical[opcode], residual) {
		f.logger.Debug("accepting historical link control residual", "opcode", opcode, "residual", residual)
		setValid(msg, true)
	}
	return msg
}

// checkFull runs RS(12,9) with the burst mask. The buffer is only modified
// when a check succeeds.
func (f *LCFactory) checkFull(buf *bits.Buffer, burst LCBurst, opcode LCOpcode) int {
	candidate := buf.Clone()
	residual := correction.RS129Correct(candidate, 0, f.mask(burst))
	if residual == 0 {
		adopt(buf, candidate)
		return 0
	}

	// Some Capacity Plus systems send this opcode with unmasked parity in
	// voice headers and terminators.
	if opcode == LCCapacityPlusWideAreaVoiceChannelUser {
		retry := buf.Clone()
		if correction.RS129Correct(retry, 0, 0) == 0 {
			adopt(buf, retry)
			return 0
		}
	}
	return residual
}

func adopt(dst, src *bits.Buffer) {
	dst.Copy(0, src)
	dst.SetCorrectedBitCount(src.CorrectedBitCount())
}

type residualSetter interface {
	SetResidual(int)
	SetValid(bool)
}

func setResidual(msg any, residual int) {
	if m, ok := msg.(residualSetter); ok {
		m.SetResidual(residual)
	}
}

func setValid(msg any, valid bool) {
	if m, ok := msg.(residualSetter); ok {
		m.SetValid(valid)
	}
}
