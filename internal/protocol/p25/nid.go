package p25

import (
	"fmt"
	"strings"

	"github.com/dbehnke/lmrdecode/internal/bits"
)

// NIDBits is the length of the network identifier that prefixes every data
// unit: a 12-bit NAC, a 4-bit data unit ID and BCH parity.
const NIDBits = 64

var (
	nidNAC  = bits.Range("NAC", 0, 11)
	nidDUID = bits.Range("DUID", 12, 15)
)

// DataUnitID identifies the kind of data unit that follows the NID.
type DataUnitID int

const (
	DataUnitHDU     DataUnitID = 0x0
	DataUnitTDU     DataUnitID = 0x3
	DataUnitLDU1    DataUnitID = 0x5
	DataUnitTSBK    DataUnitID = 0x7
	DataUnitLDU2    DataUnitID = 0xA
	DataUnitPDU     DataUnitID = 0xC
	DataUnitTDULC   DataUnitID = 0xF
	DataUnitUnknown DataUnitID = -1
)

var dataUnitLabels = map[DataUnitID]string{
	DataUnitHDU:   "HDU",
	DataUnitTDU:   "TDU",
	DataUnitLDU1:  "LDU1",
	DataUnitTSBK:  "TSBK",
	DataUnitLDU2:  "LDU2",
	DataUnitPDU:   "PDU",
	DataUnitTDULC: "TDULC",
}

func (d DataUnitID) String() string {
	if s, ok := dataUnitLabels[d]; ok {
		return s
	}
	if d == DataUnitUnknown {
		return "UNKNOWN"
	}
	return fmt.Sprintf("DUID:%X", int(d))
}

// ParseDataUnitID maps a demodulator label such as "LDU1" to its data unit
// ID. Unrecognised labels give DataUnitUnknown.
func ParseDataUnitID(label string) DataUnitID {
	label = strings.ToUpper(strings.TrimSpace(label))
	for d, s := range dataUnitLabels {
		if s == label {
			return d
		}
	}
	return DataUnitUnknown
}

// NID is the decoded network identifier. BCH parity is not checked.
type NID struct {
	NAC  int
	DUID DataUnitID
}

// ParseNID reads the NID at the start of buf.
func ParseNID(buf *bits.Buffer) NID {
	if buf.Size() < 16 {
		return NID{DUID: DataUnitUnknown}
	}
	duid := DataUnitID(buf.Int(nidDUID))
	if _, ok := dataUnitLabels[duid]; !ok {
		duid = DataUnitUnknown
	}
	return NID{NAC: buf.Int(nidNAC), DUID: duid}
}

// EncodeNID writes the NAC and data unit ID into the first 16 bits of buf.
func EncodeNID(buf *bits.Buffer, nid NID) {
	buf.Load(nidNAC.Start(), nidNAC.Width(), uint64(nid.NAC))
	buf.Load(nidDUID.Start(), nidDUID.Width(), uint64(nid.DUID))
}
