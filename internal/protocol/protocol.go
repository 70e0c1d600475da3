package protocol

import (
	"fmt"
	"strings"
)

// Protocol identifies the air interface a message was decoded from.
type Protocol int

const (
	ProtocolUnknown Protocol = iota
	ProtocolDMR
	ProtocolP25
	ProtocolNXDN
)

func (p Protocol) String() string {
	switch p {
	case ProtocolDMR:
		return "DMR"
	case ProtocolP25:
		return "P25"
	case ProtocolNXDN:
		return "NXDN"
	default:
		return "UNKNOWN"
	}
}

// ParseProtocol accepts the protocol names used in capture files.
func ParseProtocol(s string) (Protocol, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DMR":
		return ProtocolDMR, nil
	case "P25", "APCO25":
		return ProtocolP25, nil
	case "NXDN":
		return ProtocolNXDN, nil
	}
	return ProtocolUnknown, fmt.Errorf("unknown protocol %q", s)
}

// Direction is the link direction of a burst where the protocol has one.
type Direction int

const (
	DirectionUnknown Direction = iota
	DirectionOutbound
	DirectionInbound
)

func (d Direction) String() string {
	switch d {
	case DirectionOutbound:
		return "OUTBOUND"
	case DirectionInbound:
		return "INBOUND"
	default:
		return "UNKNOWN"
	}
}

// ParseDirection maps OUT/OUTBOUND/OSP and IN/INBOUND/ISP to a direction.
func ParseDirection(s string) Direction {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "OUT", "OUTBOUND", "OSP":
		return DirectionOutbound
	case "IN", "INBOUND", "ISP":
		return DirectionInbound
	}
	return DirectionUnknown
}
