// Package lookup names the radio and talkgroup identifiers found in decoded
// messages.
package lookup

import (
	"github.com/dbehnke/lmrdecode/internal/protocol"
)

// AllCall is the DMR and NXDN address that reaches every unit.
const AllCall = 0xFFFFFF

// Source resolves raw IDs to names.
type Source interface {
	Callsign(radioID uint32) (string, bool)
	Talkgroup(p protocol.Protocol, talkgroup uint32) (string, bool)
}

// Aliases turns identifiers into display names using a Source.
type Aliases struct {
	source Source
}

func NewAliases(source Source) *Aliases {
	return &Aliases{source: source}
}

// Alias returns the name of a radio or talkgroup identifier, or "" when
// none is known.
func (a *Aliases) Alias(id protocol.Identifier) string {
	switch v := id.(type) {
	case protocol.RadioID:
		if v.ID == AllCall && v.Protocol() != protocol.ProtocolP25 {
			return "ALL"
		}
		if name, ok := a.source.Callsign(uint32(v.ID)); ok {
			return name
		}
	case protocol.TalkgroupID:
		if name, ok := a.source.Talkgroup(v.Protocol(), uint32(v.ID)); ok {
			return name
		}
	}
	return ""
}
