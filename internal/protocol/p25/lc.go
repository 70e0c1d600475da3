package p25

import (
	"fmt"

	"github.com/dbehnke/lmrdecode/internal/bits"
	"github.com/dbehnke/lmrdecode/internal/protocol"
)

// LinkControlBits is the length of a voice link control word.
const LinkControlBits = 72

var (
	lcProtected      = bits.Range("PROTECTED", 0, 0)
	lcImplicitMFID   = bits.Range("IMPLICIT_MFID", 1, 1)
	lcOpcode         = bits.Range("LCO", 2, 7)
	lcMFID           = bits.Range("MFID", 8, 15)
	lcServiceOptions = bits.Range("SERVICE_OPTIONS", 16, 23)
	lcExplicit       = bits.Range("EXPLICIT_SOURCE", 31, 31)
	lcGroup          = bits.Range("GROUP", 32, 47)
	lcTarget         = bits.Range("TARGET", 24, 47)
	lcSource         = bits.Range("SOURCE", 48, 71)
)

// Link control opcodes of the standard vendor.
const (
	LCGroupVoiceChannelUser      = 0x00
	LCGroupVoiceChannelUpdate    = 0x02
	LCUnitToUnitVoiceChannelUser = 0x03
	LCCallTermination            = 0x0F
	LCSystemServiceBroadcast     = 0x20
	LCAdjacentSiteStatus         = 0x22
	LCRFSSStatusBroadcast        = 0x23
	LCNetworkStatusBroadcast     = 0x24
)

var lcLabels = map[int]string{
	LCGroupVoiceChannelUser:      "GROUP VOICE CHANNEL USER",
	LCGroupVoiceChannelUpdate:    "GROUP VOICE CHANNEL UPDATE",
	LCUnitToUnitVoiceChannelUser: "UNIT TO UNIT VOICE CHANNEL USER",
	LCCallTermination:            "CALL TERMINATION",
	LCSystemServiceBroadcast:     "SYSTEM SERVICE BROADCAST",
	LCAdjacentSiteStatus:         "ADJACENT SITE STATUS",
	LCRFSSStatusBroadcast:        "RFSS STATUS BROADCAST",
	LCNetworkStatusBroadcast:     "NETWORK STATUS BROADCAST",
}

// LinkControl is the 72-bit link control word carried by LDU1 and TDULC.
type LinkControl struct {
	buf *bits.Buffer
}

func (lc LinkControl) Bits() *bits.Buffer { return lc.buf }
func (lc LinkControl) Protected() bool    { return lc.buf.Bool(lcProtected) }
func (lc LinkControl) Opcode() int        { return lc.buf.Int(lcOpcode) }

// MFID is the manufacturer of an explicit format word. Implicit words are
// always standard.
func (lc LinkControl) MFID() int {
	if lc.buf.Bool(lcImplicitMFID) {
		return int(VendorStandard)
	}
	return lc.buf.Int(lcMFID)
}

func (lc LinkControl) Vendor() Vendor {
	return VendorFromMFID(lc.MFID())
}

func (lc LinkControl) standard() bool { return lc.Vendor() == VendorStandard }

func (lc LinkControl) Label() string {
	if lc.standard() {
		if s, ok := lcLabels[lc.Opcode()]; ok {
			return s
		}
	}
	return fmt.Sprintf("%s LCO:%02X", lc.Vendor(), lc.Opcode())
}

func (lc LinkControl) ServiceOptions() ServiceOptions {
	return ServiceOptions(lc.buf.Int(lcServiceOptions))
}

// Group is the destination talkgroup of a group voice word.
func (lc LinkControl) Group() int { return lc.buf.Int(lcGroup) }

// Target is the destination radio of a unit to unit word.
func (lc LinkControl) Target() int { return lc.buf.Int(lcTarget) }

func (lc LinkControl) Source() int { return lc.buf.Int(lcSource) }

// ExplicitSource reports that the source ID is followed by a source
// extension word.
func (lc LinkControl) ExplicitSource() bool { return lc.buf.Bool(lcExplicit) }

func (lc LinkControl) Identifiers() []protocol.Identifier {
	if !lc.standard() {
		return nil
	}
	switch lc.Opcode() {
	case LCGroupVoiceChannelUser:
		return []protocol.Identifier{
			protocol.NewTalkgroupID(protocol.ProtocolP25, protocol.RoleTo, lc.Group()),
			protocol.NewRadioID(protocol.ProtocolP25, protocol.RoleFrom, lc.Source()),
		}
	case LCUnitToUnitVoiceChannelUser:
		return []protocol.Identifier{
			protocol.NewRadioID(protocol.ProtocolP25, protocol.RoleTo, lc.Target()),
			protocol.NewRadioID(protocol.ProtocolP25, protocol.RoleFrom, lc.Source()),
		}
	}
	return nil
}

func (lc LinkControl) String() string {
	if lc.standard() {
		switch lc.Opcode() {
		case LCGroupVoiceChannelUser:
			return fmt.Sprintf("%s FM:%d TO:%d%s", lc.Label(), lc.Source(), lc.Group(), lc.ServiceOptions())
		case LCUnitToUnitVoiceChannelUser:
			return fmt.Sprintf("%s FM:%d TO:%d%s", lc.Label(), lc.Source(), lc.Target(), lc.ServiceOptions())
		}
	}
	return fmt.Sprintf("%s %s", lc.Label(), lc.buf.GetSubMessage(16, LinkControlBits).Hex())
}

// Algorithm identifiers of the encryption sync word.
const (
	AlgorithmUnencrypted = 0x80
	AlgorithmDESOFB      = 0x81
	AlgorithmTripleDES   = 0x83
	AlgorithmAES256      = 0x84
	AlgorithmAES128      = 0x85
	AlgorithmDESXL       = 0x9F
	AlgorithmADP         = 0xAA
)

var algorithmLabels = map[int]string{
	AlgorithmUnencrypted: "UNENCRYPTED",
	AlgorithmDESOFB:      "DES-OFB",
	AlgorithmTripleDES:   "TRIPLE-DES",
	AlgorithmAES256:      "AES-256",
	AlgorithmAES128:      "AES-128",
	AlgorithmDESXL:       "DES-XL",
	AlgorithmADP:         "ADP",
}

// AlgorithmName labels an encryption algorithm ID.
func AlgorithmName(id int) string {
	if s, ok := algorithmLabels[id]; ok {
		return s
	}
	return fmt.Sprintf("ALGORITHM:%02X", id)
}

// EncryptionSync is the message indicator, algorithm and key ID carried by
// LDU2 and the header data unit.
type EncryptionSync struct {
	MI        []byte
	Algorithm int
	KeyID     int
}

func (e EncryptionSync) Encrypted() bool { return e.Algorithm != AlgorithmUnencrypted }

func (e EncryptionSync) String() string {
	if !e.Encrypted() {
		return AlgorithmName(e.Algorithm)
	}
	return fmt.Sprintf("%s KEY:%04X MI:%X", AlgorithmName(e.Algorithm), e.KeyID, e.MI)
}
