package dmr

// Vendor is the DMR feature set ID (FID).
type Vendor int

const (
	VendorStandard             Vendor = 0x00
	VendorFlydeMicro           Vendor = 0x04
	VendorMotorolaConnectPlus  Vendor = 0x06
	VendorMotorolaCapacityPlus Vendor = 0x10
	VendorHytera               Vendor = 0x68
	VendorUnknown              Vendor = -1
)

// VendorFromFID resolves a feature set ID to a known vendor.
func VendorFromFID(fid int) Vendor {
	switch Vendor(fid) {
	case VendorStandard, VendorFlydeMicro, VendorMotorolaConnectPlus, VendorMotorolaCapacityPlus, VendorHytera:
		return Vendor(fid)
	}
	return VendorUnknown
}

func (v Vendor) String() string {
	switch v {
	case VendorStandard:
		return "STANDARD"
	case VendorFlydeMicro:
		return "FLYDE MICRO"
	case VendorMotorolaConnectPlus:
		return "MOTOROLA CONNECT+"
	case VendorMotorolaCapacityPlus:
		return "MOTOROLA CAPACITY+"
	case VendorHytera:
		return "HYTERA"
	}
	return "UNKNOWN"
}

// LCOpcode identifies a full link control message by vendor and FLCO.
type LCOpcode int

const (
	LCUnknown LCOpcode = iota
	LCStandardGroupVoiceChannelUser
	LCStandardUnitToUnitVoiceChannelUser
	LCStandardTalkerAliasHeader
	LCStandardTalkerAliasBlock1
	LCStandardTalkerAliasBlock2
	LCStandardTalkerAliasBlock3
	LCStandardGPSInfo
	LCStandardTerminatorData
	LCStandardUnknown
	LCCapacityPlusGroupVoiceChannelUser
	LCCapacityPlusWideAreaVoiceChannelUser
	LCCapacityPlusUnknown
	LCHyteraGroupVoiceChannelUser
	LCHyteraUnitToUnitVoiceChannelUser
	LCHyteraUnknown
)

type opcodeInfo struct {
	vendor Vendor
	code   int
	label  string
}

var lcOpcodeInfo = map[LCOpcode]opcodeInfo{
	LCUnknown:                              {VendorUnknown, -1, "UNKNOWN"},
	LCStandardGroupVoiceChannelUser:        {VendorStandard, FLCOGroup, "GROUP VOICE CHANNEL USER"},
	LCStandardUnitToUnitVoiceChannelUser:   {VendorStandard, FLCOUnitToUnit, "UNIT-TO-UNIT VOICE CHANNEL USER"},
	LCStandardTalkerAliasHeader:            {VendorStandard, FLCOTalkerAliasHeader, "TALKER ALIAS HEADER"},
	LCStandardTalkerAliasBlock1:            {VendorStandard, FLCOTalkerAliasBlock1, "TALKER ALIAS BLOCK 1"},
	LCStandardTalkerAliasBlock2:            {VendorStandard, FLCOTalkerAliasBlock2, "TALKER ALIAS BLOCK 2"},
	LCStandardTalkerAliasBlock3:            {VendorStandard, FLCOTalkerAliasBlock3, "TALKER ALIAS BLOCK 3"},
	LCStandardGPSInfo:                      {VendorStandard, FLCOGPSInfo, "GPS INFORMATION"},
	LCStandardTerminatorData:               {VendorStandard, FLCOTerminatorData, "TERMINATOR DATA"},
	LCStandardUnknown:                      {VendorStandard, -1, "STANDARD UNKNOWN"},
	LCCapacityPlusGroupVoiceChannelUser:    {VendorMotorolaCapacityPlus, 0x00, "CAPACITY+ GROUP VOICE CHANNEL USER"},
	LCCapacityPlusWideAreaVoiceChannelUser: {VendorMotorolaCapacityPlus, 0x04, "CAPACITY+ WIDE AREA VOICE CHANNEL USER"},
	LCCapacityPlusUnknown:                  {VendorMotorolaCapacityPlus, -1, "CAPACITY+ UNKNOWN"},
	LCHyteraGroupVoiceChannelUser:          {VendorHytera, 0x00, "HYTERA GROUP VOICE CHANNEL USER"},
	LCHyteraUnitToUnitVoiceChannelUser:     {VendorHytera, 0x03, "HYTERA UNIT-TO-UNIT VOICE CHANNEL USER"},
	LCHyteraUnknown:                        {VendorHytera, -1, "HYTERA UNKNOWN"},
}

func (o LCOpcode) String() string { return lcOpcodeInfo[o].label }
func (o LCOpcode) Vendor() Vendor { return lcOpcodeInfo[o].vendor }
func (o LCOpcode) Code() int      { return lcOpcodeInfo[o].code }

// opcodeTable is a two level vendor -> code lookup with a per vendor
// UNKNOWN sentinel.
type opcodeTable[T comparable] struct {
	byVendor map[Vendor]map[int]T
	unknown  map[Vendor]T
	fallback T
}

func newOpcodeTable[T comparable](fallback T, unknown map[Vendor]T, info func(T) (Vendor, int), all []T) *opcodeTable[T] {
	t := &opcodeTable[T]{byVendor: make(map[Vendor]map[int]T), unknown: unknown, fallback: fallback}
	for _, op := range all {
		vendor, code := info(op)
		if code < 0 {
			continue
		}
		if t.byVendor[vendor] == nil {
			t.byVendor[vendor] = make(map[int]T)
		}
		t.byVendor[vendor][code] = op
	}
	return t
}

func (t *opcodeTable[T]) lookup(vendor Vendor, code int) T {
	if codes, ok := t.byVendor[vendor]; ok {
		if op, ok := codes[code]; ok {
			return op
		}
	}
	if op, ok := t.unknown[vendor]; ok {
		return op
	}
	return t.fallback
}

var lcOpcodes *opcodeTable[LCOpcode]

func init() {
	all := make([]LCOpcode, 0, len(lcOpcodeInfo))
	for op := range lcOpcodeInfo {
		all = append(all, op)
	}
	lcOpcodes = newOpcodeTable(LCUnknown,
		map[Vendor]LCOpcode{
			VendorStandard:             LCStandardUnknown,
			VendorMotorolaCapacityPlus: LCCapacityPlusUnknown,
			VendorHytera:               LCHyteraUnknown,
		},
		func(op LCOpcode) (Vendor, int) { return op.Vendor(), op.Code() },
		all)
}

// LookupLCOpcode resolves a feature set ID and FLCO to an opcode. Unknown
// combinations resolve to the vendor's UNKNOWN opcode.
func LookupLCOpcode(fid, flco int) LCOpcode {
	return lcOpcodes.lookup(VendorFromFID(fid), flco)
}

// ShortLCOpcode identifies a CACH short link control message.
type ShortLCOpcode int

const (
	SLCONull ShortLCOpcode = iota
	SLCOActivityUpdate
	SLCOSystemParameters
	SLCOConnectPlusTrafficChannel
	SLCOConnectPlusControlChannel
	SLCOCapacityPlusRestChannel
	SLCOUnknown
)

var shortLCOpcodeInfo = map[ShortLCOpcode]opcodeInfo{
	SLCONull:                      {VendorStandard, 0x0, "NULL"},
	SLCOActivityUpdate:            {VendorStandard, 0x1, "ACTIVITY UPDATE"},
	SLCOSystemParameters:          {VendorStandard, 0x2, "SYSTEM PARAMETERS"},
	SLCOConnectPlusTrafficChannel: {VendorStandard, 0x9, "CONNECT+ TRAFFIC CHANNEL"},
	SLCOConnectPlusControlChannel: {VendorStandard, 0xA, "CONNECT+ CONTROL CHANNEL"},
	SLCOCapacityPlusRestChannel:   {VendorStandard, 0xF, "CAPACITY+ REST CHANNEL"},
	SLCOUnknown:                   {VendorStandard, -1, "UNKNOWN"},
}

func (o ShortLCOpcode) String() string { return shortLCOpcodeInfo[o].label }

var shortLCOpcodes = func() map[int]ShortLCOpcode {
	m := make(map[int]ShortLCOpcode)
	for op, info := range shortLCOpcodeInfo {
		if info.code >= 0 {
			m[info.code] = op
		}
	}
	return m
}()

// LookupShortLCOpcode resolves a 4-bit SLCO value.
func LookupShortLCOpcode(slco int) ShortLCOpcode {
	if op, ok := shortLCOpcodes[slco]; ok {
		return op
	}
	return SLCOUnknown
}

// CSBKOpcode identifies a control signalling block by vendor and CSBKO.
type CSBKOpcode int

const (
	CSBKUnknown CSBKOpcode = iota
	CSBKStandardUnitToUnitVoiceServiceRequest
	CSBKStandardUnitToUnitVoiceServiceAnswerResponse
	CSBKStandardAloha
	CSBKStandardPreamble
	CSBKStandardUnknown
	CSBKCapacityPlusChannelStatus
	CSBKCapacityPlusUnknown
	CSBKConnectPlusVoiceChannelUser
	CSBKConnectPlusUnknown
	CSBKHyteraUnknown
)

var csbkOpcodeInfo = map[CSBKOpcode]opcodeInfo{
	CSBKUnknown:                                      {VendorUnknown, -1, "UNKNOWN"},
	CSBKStandardUnitToUnitVoiceServiceRequest:        {VendorStandard, 0x04, "UNIT-TO-UNIT VOICE SERVICE REQUEST"},
	CSBKStandardUnitToUnitVoiceServiceAnswerResponse: {VendorStandard, 0x05, "UNIT-TO-UNIT VOICE SERVICE ANSWER RESPONSE"},
	CSBKStandardAloha:                                {VendorStandard, 0x19, "ALOHA"},
	CSBKStandardPreamble:                             {VendorStandard, 0x3D, "PREAMBLE"},
	CSBKStandardUnknown:                              {VendorStandard, -1, "STANDARD UNKNOWN"},
	CSBKCapacityPlusChannelStatus:                    {VendorMotorolaCapacityPlus, 0x3E, "CAPACITY+ CHANNEL STATUS"},
	CSBKCapacityPlusUnknown:                          {VendorMotorolaCapacityPlus, -1, "CAPACITY+ UNKNOWN"},
	CSBKConnectPlusVoiceChannelUser:                  {VendorMotorolaConnectPlus, 0x03, "CONNECT+ VOICE CHANNEL USER"},
	CSBKConnectPlusUnknown:                           {VendorMotorolaConnectPlus, -1, "CONNECT+ UNKNOWN"},
	CSBKHyteraUnknown:                                {VendorHytera, -1, "HYTERA UNKNOWN"},
}

func (o CSBKOpcode) String() string { return csbkOpcodeInfo[o].label }
func (o CSBKOpcode) Vendor() Vendor { return csbkOpcodeInfo[o].vendor }
func (o CSBKOpcode) Code() int      { return csbkOpcodeInfo[o].code }

var csbkOpcodes *opcodeTable[CSBKOpcode]

func init() {
	all := make([]CSBKOpcode, 0, len(csbkOpcodeInfo))
	for op := range csbkOpcodeInfo {
		all = append(all, op)
	}
	csbkOpcodes = newOpcodeTable(CSBKUnknown,
		map[Vendor]CSBKOpcode{
			VendorStandard:             CSBKStandardUnknown,
			VendorMotorolaCapacityPlus: CSBKCapacityPlusUnknown,
			VendorMotorolaConnectPlus:  CSBKConnectPlusUnknown,
			VendorHytera:               CSBKHyteraUnknown,
		},
		func(op CSBKOpcode) (Vendor, int) { return op.Vendor(), op.Code() },
		all)
}

// LookupCSBKOpcode resolves a feature set ID and 6-bit CSBKO.
func LookupCSBKOpcode(fid, csbko int) CSBKOpcode {
	return csbkOpcodes.lookup(VendorFromFID(fid), csbko)
}
