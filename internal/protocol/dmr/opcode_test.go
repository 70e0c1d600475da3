package dmr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

var knownVendors = []Vendor{VendorStandard, VendorFlydeMicro, VendorMotorolaConnectPlus, VendorMotorolaCapacityPlus, VendorHytera}

func TestLCOpcodeLookupCompleteness(t *testing.T) {
	for op, info := range lcOpcodeInfo {
		if info.code < 0 {
			continue
		}
		assert.Equal(t, op, LookupLCOpcode(int(info.vendor), info.code), "%s", op)
	}
}

func TestCSBKOpcodeLookupCompleteness(t *testing.T) {
	for op, info := range csbkOpcodeInfo {
		if info.code < 0 {
			continue
		}
		assert.Equal(t, op, LookupCSBKOpcode(int(info.vendor), info.code), "%s", op)
	}
}

func TestShortLCOpcodeLookupCompleteness(t *testing.T) {
	for op, info := range shortLCOpcodeInfo {
		if info.code < 0 {
			continue
		}
		assert.Equal(t, op, LookupShortLCOpcode(info.code), "%s", op)
	}
}

// Every (vendor, code) pair resolves to an opcode of that vendor, falling
// back to the vendor's UNKNOWN sentinel.
func TestOpcodeLookupStaysWithinVendor(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		fid := rapid.IntRange(0, 255).Draw(t, "fid")
		code := rapid.IntRange(0, 63).Draw(t, "code")
		vendor := VendorFromFID(fid)

		lc := LookupLCOpcode(fid, code)
		csbk := LookupCSBKOpcode(fid, code)
		if lc.String() == "" || csbk.String() == "" {
			t.Fatalf("unlabelled opcode for fid %02X code %02X", fid, code)
		}

		if vendor == VendorUnknown || vendor == VendorFlydeMicro {
			return
		}
		if lc != LCUnknown && lc.Vendor() != vendor {
			t.Fatalf("LC %s resolved for vendor %s", lc, vendor)
		}
		if csbk != CSBKUnknown && csbk.Vendor() != vendor {
			t.Fatalf("CSBK %s resolved for vendor %s", csbk, vendor)
		}
	})
}

func TestVendorFromFID(t *testing.T) {
	for _, v := range knownVendors {
		assert.Equal(t, v, VendorFromFID(int(v)))
		assert.NotEqual(t, "UNKNOWN", v.String())
	}
	assert.Equal(t, VendorUnknown, VendorFromFID(0x99))
}
