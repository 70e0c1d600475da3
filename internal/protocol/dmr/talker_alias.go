package dmr

import (
	"fmt"
	"strings"
	"sync"

	"github.com/dbehnke/lmrdecode/internal/bits"
	"github.com/dbehnke/lmrdecode/internal/protocol"
)

const (
	aliasBlockBits = 56
	aliasBlocks    = 3
	aliasMaxBits   = 49 + aliasBlocks*aliasBlockBits

	CharsetGB2312 = "gb2312"
)

// TalkerAlias is a fully assembled talker alias.
type TalkerAlias struct {
	protocol.Base
	Format AliasFormat
	Alias  string
	// Source is the radio that was talking when the alias arrived, or zero.
	Source int
}

func (m *TalkerAlias) Opcode() string { return "TALKER ALIAS" }
func (m *TalkerAlias) Vendor() string { return VendorStandard.String() }

func (m *TalkerAlias) Identifiers() []protocol.Identifier {
	ids := []protocol.Identifier{protocol.NewAlias(protocol.ProtocolDMR, protocol.RoleFrom, m.Alias)}
	if m.Source > 0 {
		ids = append(ids, protocol.NewRadioID(protocol.ProtocolDMR, protocol.RoleFrom, m.Source))
	}
	return ids
}

func (m *TalkerAlias) String() string {
	if m.Source > 0 {
		return fmt.Sprintf("TALKER ALIAS FM:%d [%s] %s", m.Source, m.Format, m.Alias)
	}
	return fmt.Sprintf("TALKER ALIAS [%s] %s", m.Format, m.Alias)
}

type aliasState struct {
	header *TalkerAliasHeader
	blocks [aliasBlocks]*bits.Buffer
	source int
}

// TalkerAliasAssembler joins talker alias header and block link control
// messages per timeslot into the alias text.
type TalkerAliasAssembler struct {
	charset string

	mu    sync.Mutex
	slots map[int]*aliasState
}

// NewTalkerAliasAssembler creates an assembler. charset selects the decoding
// of the 8-bit format; "gb2312" is used by some Chinese market radios, any
// other value means ISO 8859-1.
func NewTalkerAliasAssembler(charset string) *TalkerAliasAssembler {
	return &TalkerAliasAssembler{charset: strings.ToLower(charset), slots: make(map[int]*aliasState)}
}

func (a *TalkerAliasAssembler) state(timeslot int) *aliasState {
	s, ok := a.slots[timeslot]
	if !ok {
		s = &aliasState{}
		a.slots[timeslot] = s
	}
	return s
}

// Add offers a valid link control message. It returns the assembled alias
// once the header and every needed block have arrived.
func (a *TalkerAliasAssembler) Add(timeslot int, msg LCMessage) *TalkerAlias {
	if !msg.Valid() {
		return nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	s := a.state(timeslot)

	switch m := msg.(type) {
	case *GroupVoiceChannelUser:
		a.resetSource(s, m.Source())
	case *UnitToUnitVoiceChannelUser:
		a.resetSource(s, m.Source())
	case *TerminatorData:
		delete(a.slots, timeslot)
	case *TalkerAliasHeader:
		s.header = m
		s.blocks = [aliasBlocks]*bits.Buffer{}
	case *TalkerAliasBlock:
		if b := m.Block(); b >= 1 && b <= aliasBlocks {
			s.blocks[b-1] = m.Payload()
		}
	default:
		return nil
	}
	return a.complete(s, timeslot)
}

// resetSource drops a partial alias when a different radio starts talking.
func (a *TalkerAliasAssembler) resetSource(s *aliasState, source int) {
	if s.source != source {
		s.header = nil
		s.blocks = [aliasBlocks]*bits.Buffer{}
	}
	s.source = source
}

func (a *TalkerAliasAssembler) complete(s *aliasState, timeslot int) *TalkerAlias {
	if s.header == nil {
		return nil
	}
	format := s.header.Format()
	length := s.header.Length()
	needed := length * charBits(format)

	payload := bits.New(aliasMaxBits)
	have := s.header.Payload().Size()
	payload.Copy(0, s.header.Payload())
	for _, block := range s.blocks {
		if have >= needed {
			break
		}
		if block == nil {
			return nil
		}
		payload.Copy(have, block)
		have += block.Size()
	}
	if have < needed {
		return nil
	}

	alias := &TalkerAlias{
		Base:   protocol.NewBase(protocol.ProtocolDMR, payload.GetSubMessage(0, needed), s.header.Timestamp()),
		Format: format,
		Alias:  a.decode(payload, format, length),
		Source: s.source,
	}
	alias.SetTimeslot(timeslot)
	s.header = nil
	s.blocks = [aliasBlocks]*bits.Buffer{}
	return alias
}

func charBits(format AliasFormat) int {
	switch format {
	case AliasFormat7Bit:
		return 7
	case AliasFormatUTF16:
		return 16
	default:
		return 8
	}
}

func (a *TalkerAliasAssembler) decode(payload *bits.Buffer, format AliasFormat, length int) string {
	switch format {
	case AliasFormat7Bit:
		return payload.ParseISO7(0, length)
	case AliasFormatUTF8:
		return payload.ParseUTF8(0, length)
	case AliasFormatUTF16:
		return payload.ParseUTF16(0, length)
	}
	if a.charset == CharsetGB2312 {
		return payload.ParseGB2312(0, length)
	}
	return payload.ParseISO8(0, length)
}
