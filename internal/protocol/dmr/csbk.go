package dmr

import (
	"fmt"
	"time"

	"github.com/dbehnke/lmrdecode/internal/bits"
	"github.com/dbehnke/lmrdecode/internal/correction"
	"github.com/dbehnke/lmrdecode/internal/protocol"
)

const (
	csbkDataBits = 80
	// CRC-CCITT mask applied to control signalling blocks.
	csbkCRCMask = 0xA5A5
)

var (
	csbkLastBlock = bits.Range("LAST_BLOCK", 0, 0)
	csbkOpcode    = bits.Range("CSBKO", 2, 7)
	csbkFID       = bits.Range("FID", 8, 15)

	csbkServiceOptions = bits.Range("SERVICE_OPTIONS", 16, 23)
	csbkAnswerResponse = bits.Range("ANSWER_RESPONSE", 24, 31)
	csbkTarget         = bits.Range("TARGET", 32, 55)
	csbkSource         = bits.Range("SOURCE", 56, 79)

	csbkPreambleData   = bits.Range("DATA_FOLLOWS", 16, 16)
	csbkPreambleGroup  = bits.Range("GROUP", 17, 17)
	csbkPreambleBlocks = bits.Range("BLOCKS_TO_FOLLOW", 24, 31)

	csbkAlohaSystem = bits.Range("SYSTEM_IDENTITY", 40, 55)
	csbkAlohaMask   = bits.Range("MASK", 24, 28)

	csbkCapPlusRestLSN = bits.Range("REST_LSN", 20, 23)

	csbkConnectPlusSource   = bits.Range("SOURCE", 16, 39)
	csbkConnectPlusGroup    = bits.Range("GROUP", 40, 63)
	csbkConnectPlusLCN      = bits.Range("LCN", 64, 67)
	csbkConnectPlusTimeslot = bits.Range("TIMESLOT", 68, 68)
)

// CSBKMessage is a decoded control signalling block.
type CSBKMessage interface {
	protocol.Message
	CSBKOpcode() CSBKOpcode
}

// CSBK carries the state shared by control signalling blocks.
type CSBK struct {
	protocol.Base
	opcode CSBKOpcode
}

func (c *CSBK) CSBKOpcode() CSBKOpcode { return c.opcode }
func (c *CSBK) Opcode() string         { return c.opcode.String() }
func (c *CSBK) FID() int               { return c.Int(csbkFID) }
func (c *CSBK) LastBlock() bool        { return c.Bits().Bool(csbkLastBlock) }

func (c *CSBK) Vendor() string {
	if v := VendorFromFID(c.FID()); v != VendorUnknown {
		return v.String()
	}
	return fmt.Sprintf("FID:%02X", c.FID())
}

func (c *CSBK) Identifiers() []protocol.Identifier { return nil }

func (c *CSBK) prefix() string {
	if !c.Valid() {
		return "[CRC-ERROR] CSBK " + c.opcode.String()
	}
	return "CSBK " + c.opcode.String()
}

// UnknownCSBK is a control signalling block without a decoder.
type UnknownCSBK struct {
	CSBK
}

func (c *UnknownCSBK) String() string {
	return fmt.Sprintf("%s FID:%02X CSBKO:%02X DATA:%s", c.prefix(), c.FID(), c.Int(csbkOpcode),
		c.Bits().GetSubMessage(16, csbkDataBits).Hex())
}

func (c *CSBK) target() protocol.Identifier {
	return protocol.NewRadioID(protocol.ProtocolDMR, protocol.RoleTo, c.Int(csbkTarget))
}

func (c *CSBK) source() protocol.Identifier {
	return protocol.NewRadioID(protocol.ProtocolDMR, protocol.RoleFrom, c.Int(csbkSource))
}

// UnitToUnitVoiceServiceRequest asks the system to set up a private call.
type UnitToUnitVoiceServiceRequest struct {
	CSBK
}

func (c *UnitToUnitVoiceServiceRequest) ServiceOptions() ServiceOptions {
	return ServiceOptions(c.Int(csbkServiceOptions))
}

func (c *UnitToUnitVoiceServiceRequest) Identifiers() []protocol.Identifier {
	return []protocol.Identifier{c.target(), c.source()}
}

func (c *UnitToUnitVoiceServiceRequest) String() string {
	return withOptions(fmt.Sprintf("%s FM:%d TO:%d", c.prefix(), c.Int(csbkSource), c.Int(csbkTarget)), c.ServiceOptions())
}

// UnitToUnitVoiceServiceAnswerResponse is the called party's answer.
type UnitToUnitVoiceServiceAnswerResponse struct {
	CSBK
}

func (c *UnitToUnitVoiceServiceAnswerResponse) Proceed() bool {
	return c.Int(csbkAnswerResponse) == 0x20
}

func (c *UnitToUnitVoiceServiceAnswerResponse) Identifiers() []protocol.Identifier {
	return []protocol.Identifier{c.target(), c.source()}
}

func (c *UnitToUnitVoiceServiceAnswerResponse) String() string {
	answer := "DENY"
	if c.Proceed() {
		answer = "PROCEED"
	}
	return fmt.Sprintf("%s FM:%d TO:%d %s", c.prefix(), c.Int(csbkSource), c.Int(csbkTarget), answer)
}

// Aloha invites random access on a Tier III control channel.
type Aloha struct {
	CSBK
}

func (c *Aloha) SystemIdentity() int { return c.Int(csbkAlohaSystem) }
func (c *Aloha) Mask() int           { return c.Int(csbkAlohaMask) }

func (c *Aloha) Identifiers() []protocol.Identifier {
	return []protocol.Identifier{protocol.NewSystemID(protocol.ProtocolDMR, c.SystemIdentity()), c.source()}
}

func (c *Aloha) String() string {
	return fmt.Sprintf("%s SYSTEM:%04X MASK:%d MS:%d", c.prefix(), c.SystemIdentity(), c.Mask(), c.Int(csbkSource))
}

// Preamble announces the number of blocks that follow.
type Preamble struct {
	CSBK
}

func (c *Preamble) DataFollows() bool   { return c.Bits().Bool(csbkPreambleData) }
func (c *Preamble) Group() bool         { return c.Bits().Bool(csbkPreambleGroup) }
func (c *Preamble) BlocksToFollow() int { return c.Int(csbkPreambleBlocks) }

func (c *Preamble) Identifiers() []protocol.Identifier {
	to := c.target()
	if c.Group() {
		to = protocol.NewTalkgroupID(protocol.ProtocolDMR, protocol.RoleTo, c.Int(csbkTarget))
	}
	return []protocol.Identifier{to, c.source()}
}

func (c *Preamble) String() string {
	kind := "CSBK"
	if c.DataFollows() {
		kind = "DATA"
	}
	return fmt.Sprintf("%s %s BLOCKS:%d FM:%d TO:%d", c.prefix(), kind, c.BlocksToFollow(), c.Int(csbkSource), c.Int(csbkTarget))
}

// CapacityPlusChannelStatus reports the Capacity Plus rest channel.
type CapacityPlusChannelStatus struct {
	CSBK
}

func (c *CapacityPlusChannelStatus) RestLSN() int { return c.Int(csbkCapPlusRestLSN) + 1 }

func (c *CapacityPlusChannelStatus) Identifiers() []protocol.Identifier {
	return []protocol.Identifier{protocol.NewChannel(protocol.ProtocolDMR, 0, c.RestLSN())}
}

func (c *CapacityPlusChannelStatus) String() string {
	return fmt.Sprintf("%s REST LSN:%d", c.prefix(), c.RestLSN())
}

// ConnectPlusVoiceChannelUser assigns a group call to a Connect Plus channel.
type ConnectPlusVoiceChannelUser struct {
	CSBK
}

func (c *ConnectPlusVoiceChannelUser) Source() int          { return c.Int(csbkConnectPlusSource) }
func (c *ConnectPlusVoiceChannelUser) Group() int           { return c.Int(csbkConnectPlusGroup) }
func (c *ConnectPlusVoiceChannelUser) LCN() int             { return c.Int(csbkConnectPlusLCN) }
func (c *ConnectPlusVoiceChannelUser) ChannelTimeslot() int { return c.Int(csbkConnectPlusTimeslot) + 1 }

func (c *ConnectPlusVoiceChannelUser) Identifiers() []protocol.Identifier {
	return []protocol.Identifier{
		protocol.NewTalkgroupID(protocol.ProtocolDMR, protocol.RoleTo, c.Group()),
		protocol.NewRadioID(protocol.ProtocolDMR, protocol.RoleFrom, c.Source()),
		protocol.NewChannel(protocol.ProtocolDMR, 0, c.LCN()),
	}
}

func (c *ConnectPlusVoiceChannelUser) String() string {
	return fmt.Sprintf("%s FM:%d TO:%d LCN:%d TS:%d", c.prefix(), c.Source(), c.Group(), c.LCN(), c.ChannelTimeslot())
}

// createCSBK checks the masked CRC-CCITT of a 96-bit CSBK and returns the
// typed message.
func createCSBK(buf *bits.Buffer, timestamp time.Time) CSBKMessage {
	residual := correction.CRCCCITT16.Residual(buf, 0, csbkDataBits, csbkDataBits) ^ csbkCRCMask
	opcode := LookupCSBKOpcode(buf.Int(csbkFID), buf.Int(csbkOpcode))

	base := CSBK{Base: protocol.NewBase(protocol.ProtocolDMR, buf, timestamp), opcode: opcode}
	base.SetResidual(residual)

	switch opcode {
	case CSBKStandardUnitToUnitVoiceServiceRequest:
		return &UnitToUnitVoiceServiceRequest{base}
	case CSBKStandardUnitToUnitVoiceServiceAnswerResponse:
		return &UnitToUnitVoiceServiceAnswerResponse{base}
	case CSBKStandardAloha:
		return &Aloha{base}
	case CSBKStandardPreamble:
		return &Preamble{base}
	case CSBKCapacityPlusChannelStatus:
		return &CapacityPlusChannelStatus{base}
	case CSBKConnectPlusVoiceChannelUser:
		return &ConnectPlusVoiceChannelUser{base}
	default:
		return &UnknownCSBK{base}
	}
}

// EncodeCSBK writes the masked CRC for the 80 data bits of a CSBK.
func EncodeCSBK(buf *bits.Buffer) {
	crc := correction.CRCCCITT16.Compute(buf, 0, csbkDataBits) ^ csbkCRCMask
	buf.Load(csbkDataBits, 16, uint64(crc))
}
