package p25

import (
	"fmt"

	"github.com/dbehnke/lmrdecode/internal/protocol"
)

// Vendor is the P25 manufacturer ID (MFID).
type Vendor int

const (
	VendorStandard          Vendor = 0x00
	VendorStandardAlternate Vendor = 0x01
	VendorMotorola          Vendor = 0x90
	VendorHarris            Vendor = 0xA4
	VendorUnknown           Vendor = -1
)

// VendorFromMFID resolves a manufacturer ID. The alternate standard MFID
// carries standard opcodes.
func VendorFromMFID(mfid int) Vendor {
	switch Vendor(mfid) {
	case VendorStandard, VendorStandardAlternate:
		return VendorStandard
	case VendorMotorola, VendorHarris:
		return Vendor(mfid)
	}
	return VendorUnknown
}

func (v Vendor) String() string {
	switch v {
	case VendorStandard, VendorStandardAlternate:
		return "STANDARD"
	case VendorMotorola:
		return "MOTOROLA"
	case VendorHarris:
		return "HARRIS"
	}
	return "UNKNOWN"
}

// mfidLabel names a manufacturer ID, falling back to its hex value.
func mfidLabel(mfid int) string {
	if v := VendorFromMFID(mfid); v != VendorUnknown {
		return v.String()
	}
	return fmt.Sprintf("MFID:%02X", mfid)
}

// Opcode identifies a trunking signalling block by vendor, direction and
// 6-bit code. Inbound service packets (ISP) travel from the subscriber,
// outbound service packets (OSP) from the site.
type Opcode int

const (
	OpcodeUnknownVendorOSP Opcode = iota
	OpcodeUnknownVendorISP

	OSPGroupVoiceChannelGrant
	OSPGroupVoiceChannelGrantUpdate
	OSPGroupVoiceChannelGrantUpdateExplicit
	OSPUnitToUnitVoiceChannelGrant
	OSPUnitToUnitAnswerRequest
	OSPUnitToUnitVoiceChannelGrantUpdate
	OSPTelephoneInterconnectVoiceChannelGrant
	OSPTelephoneInterconnectVoiceChannelGrantUpdate
	OSPTelephoneInterconnectAnswerRequest
	OSPIndividualDataChannelGrant
	OSPGroupDataChannelGrant
	OSPGroupDataChannelAnnouncement
	OSPGroupDataChannelAnnouncementExplicit
	OSPSNDCPDataChannelGrant
	OSPSNDCPDataPageRequest
	OSPSNDCPDataChannelAnnouncementExplicit
	OSPStatusUpdate
	OSPStatusQuery
	OSPMessageUpdate
	OSPRadioUnitMonitorCommand
	OSPCallAlert
	OSPAcknowledgeResponse
	OSPQueuedResponse
	OSPExtendedFunctionCommand
	OSPDenyResponse
	OSPGroupAffiliationResponse
	OSPSecondaryControlChannelBroadcastExplicit
	OSPGroupAffiliationQuery
	OSPLocationRegistrationResponse
	OSPUnitRegistrationResponse
	OSPUnitRegistrationCommand
	OSPAuthenticationCommand
	OSPUnitDeregistrationAcknowledge
	OSPTDMASyncBroadcast
	OSPAuthenticationDemand
	OSPAuthenticationFNEResponse
	OSPIdentifierUpdateTDMA
	OSPIdentifierUpdateVHFUHF
	OSPTimeDateAnnouncement
	OSPRoamingAddressCommand
	OSPRoamingAddressUpdate
	OSPSystemServiceBroadcast
	OSPSecondaryControlChannelBroadcast
	OSPRFSSStatusBroadcast
	OSPNetworkStatusBroadcast
	OSPAdjacentStatusBroadcast
	OSPIdentifierUpdate
	OSPProtectionParameterBroadcast
	OSPProtectionParameterUpdate
	OSPUnknown

	ISPGroupVoiceServiceRequest
	ISPUnitToUnitVoiceServiceRequest
	ISPUnitToUnitAnswerResponse
	ISPTelephoneInterconnectExplicitDialRequest
	ISPTelephoneInterconnectPSTNRequest
	ISPTelephoneInterconnectAnswerResponse
	ISPIndividualDataServiceRequest
	ISPGroupDataServiceRequest
	ISPSNDCPDataChannelRequest
	ISPSNDCPDataPageResponse
	ISPSNDCPReconnectRequest
	ISPStatusUpdateRequest
	ISPStatusQueryResponse
	ISPStatusQueryRequest
	ISPMessageUpdateRequest
	ISPRadioUnitMonitorRequest
	ISPCallAlertRequest
	ISPUnitAcknowledgeResponse
	ISPCancelServiceRequest
	ISPExtendedFunctionResponse
	ISPEmergencyAlarmRequest
	ISPGroupAffiliationRequest
	ISPGroupAffiliationQueryResponse
	ISPUnitDeregistrationRequest
	ISPUnitRegistrationRequest
	ISPLocationRegistrationRequest
	ISPAuthenticationQuery
	ISPAuthenticationResponseObsolete
	ISPProtectionParameterRequest
	ISPIdentifierUpdateRequest
	ISPRoamingAddressRequest
	ISPRoamingAddressResponse
	ISPAuthenticationResponse
	ISPAuthenticationResponseMutual
	ISPAuthenticationFNEResult
	ISPAuthenticationSUDemand
	ISPUnknown

	MotorolaOSPPatchGroupAdd
	MotorolaOSPPatchGroupDelete
	MotorolaOSPPatchGroupChannelGrant
	MotorolaOSPPatchGroupChannelGrantUpdate
	MotorolaOSPTrafficChannelID
	MotorolaOSPDenyResponse
	MotorolaOSPSystemLoading
	MotorolaOSPBaseStationID
	MotorolaOSPControlChannelPlannedShutdown
	MotorolaOSPUnknown
	MotorolaISPUnknown

	HarrisOSPTDMASync
	HarrisOSPUnknown
	HarrisISPUnknown
)

type opcodeInfo struct {
	vendor    Vendor
	direction protocol.Direction
	code      int
	label     string
}

const (
	osp = protocol.DirectionOutbound
	isp = protocol.DirectionInbound
)

var opcodeInfos = map[Opcode]opcodeInfo{
	OpcodeUnknownVendorOSP: {VendorUnknown, osp, -1, "UNKNOWN VENDOR OSP"},
	OpcodeUnknownVendorISP: {VendorUnknown, isp, -1, "UNKNOWN VENDOR ISP"},

	OSPGroupVoiceChannelGrant:                       {VendorStandard, osp, 0x00, "GROUP VOICE CHANNEL GRANT"},
	OSPGroupVoiceChannelGrantUpdate:                 {VendorStandard, osp, 0x02, "GROUP VOICE CHANNEL GRANT UPDATE"},
	OSPGroupVoiceChannelGrantUpdateExplicit:         {VendorStandard, osp, 0x03, "GROUP VOICE CHANNEL GRANT UPDATE EXPLICIT"},
	OSPUnitToUnitVoiceChannelGrant:                  {VendorStandard, osp, 0x04, "UNIT-TO-UNIT VOICE CHANNEL GRANT"},
	OSPUnitToUnitAnswerRequest:                      {VendorStandard, osp, 0x05, "UNIT-TO-UNIT ANSWER REQUEST"},
	OSPUnitToUnitVoiceChannelGrantUpdate:            {VendorStandard, osp, 0x06, "UNIT-TO-UNIT VOICE CHANNEL GRANT UPDATE"},
	OSPTelephoneInterconnectVoiceChannelGrant:       {VendorStandard, osp, 0x08, "TELEPHONE INTERCONNECT VOICE CHANNEL GRANT"},
	OSPTelephoneInterconnectVoiceChannelGrantUpdate: {VendorStandard, osp, 0x09, "TELEPHONE INTERCONNECT VOICE CHANNEL GRANT UPDATE"},
	OSPTelephoneInterconnectAnswerRequest:           {VendorStandard, osp, 0x0A, "TELEPHONE INTERCONNECT ANSWER REQUEST"},
	OSPIndividualDataChannelGrant:                   {VendorStandard, osp, 0x10, "INDIVIDUAL DATA CHANNEL GRANT"},
	OSPGroupDataChannelGrant:                        {VendorStandard, osp, 0x11, "GROUP DATA CHANNEL GRANT"},
	OSPGroupDataChannelAnnouncement:                 {VendorStandard, osp, 0x12, "GROUP DATA CHANNEL ANNOUNCEMENT"},
	OSPGroupDataChannelAnnouncementExplicit:         {VendorStandard, osp, 0x13, "GROUP DATA CHANNEL ANNOUNCEMENT EXPLICIT"},
	OSPSNDCPDataChannelGrant:                        {VendorStandard, osp, 0x14, "SNDCP DATA CHANNEL GRANT"},
	OSPSNDCPDataPageRequest:                         {VendorStandard, osp, 0x15, "SNDCP DATA PAGE REQUEST"},
	OSPSNDCPDataChannelAnnouncementExplicit:         {VendorStandard, osp, 0x16, "SNDCP DATA CHANNEL ANNOUNCEMENT EXPLICIT"},
	OSPStatusUpdate:                                 {VendorStandard, osp, 0x18, "STATUS UPDATE"},
	OSPStatusQuery:                                  {VendorStandard, osp, 0x1A, "STATUS QUERY"},
	OSPMessageUpdate:                                {VendorStandard, osp, 0x1C, "MESSAGE UPDATE"},
	OSPRadioUnitMonitorCommand:                      {VendorStandard, osp, 0x1D, "RADIO UNIT MONITOR COMMAND"},
	OSPCallAlert:                                    {VendorStandard, osp, 0x1F, "CALL ALERT"},
	OSPAcknowledgeResponse:                          {VendorStandard, osp, 0x20, "ACKNOWLEDGE RESPONSE"},
	OSPQueuedResponse:                               {VendorStandard, osp, 0x21, "QUEUED RESPONSE"},
	OSPExtendedFunctionCommand:                      {VendorStandard, osp, 0x24, "EXTENDED FUNCTION COMMAND"},
	OSPDenyResponse:                                 {VendorStandard, osp, 0x27, "DENY RESPONSE"},
	OSPGroupAffiliationResponse:                     {VendorStandard, osp, 0x28, "GROUP AFFILIATION RESPONSE"},
	OSPSecondaryControlChannelBroadcastExplicit:     {VendorStandard, osp, 0x29, "SECONDARY CONTROL CHANNEL BROADCAST EXPLICIT"},
	OSPGroupAffiliationQuery:                        {VendorStandard, osp, 0x2A, "GROUP AFFILIATION QUERY"},
	OSPLocationRegistrationResponse:                 {VendorStandard, osp, 0x2B, "LOCATION REGISTRATION RESPONSE"},
	OSPUnitRegistrationResponse:                     {VendorStandard, osp, 0x2C, "UNIT REGISTRATION RESPONSE"},
	OSPUnitRegistrationCommand:                      {VendorStandard, osp, 0x2D, "UNIT REGISTRATION COMMAND"},
	OSPAuthenticationCommand:                        {VendorStandard, osp, 0x2E, "AUTHENTICATION COMMAND"},
	OSPUnitDeregistrationAcknowledge:                {VendorStandard, osp, 0x2F, "DE-REGISTRATION ACKNOWLEDGE"},
	OSPTDMASyncBroadcast:                            {VendorStandard, osp, 0x30, "TDMA SYNC BROADCAST"},
	OSPAuthenticationDemand:                         {VendorStandard, osp, 0x31, "AUTHENTICATION DEMAND"},
	OSPAuthenticationFNEResponse:                    {VendorStandard, osp, 0x32, "AUTHENTICATION FNE RESPONSE"},
	OSPIdentifierUpdateTDMA:                         {VendorStandard, osp, 0x33, "IDENTIFIER UPDATE TDMA"},
	OSPIdentifierUpdateVHFUHF:                       {VendorStandard, osp, 0x34, "IDENTIFIER UPDATE VHF/UHF"},
	OSPTimeDateAnnouncement:                         {VendorStandard, osp, 0x35, "TIME AND DATE ANNOUNCEMENT"},
	OSPRoamingAddressCommand:                        {VendorStandard, osp, 0x36, "ROAMING ADDRESS COMMAND"},
	OSPRoamingAddressUpdate:                         {VendorStandard, osp, 0x37, "ROAMING ADDRESS UPDATE"},
	OSPSystemServiceBroadcast:                       {VendorStandard, osp, 0x38, "SYSTEM SERVICE BROADCAST"},
	OSPSecondaryControlChannelBroadcast:             {VendorStandard, osp, 0x39, "SECONDARY CONTROL CHANNEL BROADCAST"},
	OSPRFSSStatusBroadcast:                          {VendorStandard, osp, 0x3A, "RFSS STATUS BROADCAST"},
	OSPNetworkStatusBroadcast:                       {VendorStandard, osp, 0x3B, "NETWORK STATUS BROADCAST"},
	OSPAdjacentStatusBroadcast:                      {VendorStandard, osp, 0x3C, "ADJACENT STATUS BROADCAST"},
	OSPIdentifierUpdate:                             {VendorStandard, osp, 0x3D, "IDENTIFIER UPDATE"},
	OSPProtectionParameterBroadcast:                 {VendorStandard, osp, 0x3E, "PROTECTION PARAMETER BROADCAST"},
	OSPProtectionParameterUpdate:                    {VendorStandard, osp, 0x3F, "PROTECTION PARAMETER UPDATE"},
	OSPUnknown:                                      {VendorStandard, osp, -1, "OSP UNKNOWN"},

	ISPGroupVoiceServiceRequest:                 {VendorStandard, isp, 0x00, "GROUP VOICE SERVICE REQUEST"},
	ISPUnitToUnitVoiceServiceRequest:            {VendorStandard, isp, 0x04, "UNIT-TO-UNIT VOICE SERVICE REQUEST"},
	ISPUnitToUnitAnswerResponse:                 {VendorStandard, isp, 0x05, "UNIT-TO-UNIT ANSWER RESPONSE"},
	ISPTelephoneInterconnectExplicitDialRequest: {VendorStandard, isp, 0x08, "TELEPHONE INTERCONNECT EXPLICIT DIAL REQUEST"},
	ISPTelephoneInterconnectPSTNRequest:         {VendorStandard, isp, 0x09, "TELEPHONE INTERCONNECT PSTN REQUEST"},
	ISPTelephoneInterconnectAnswerResponse:      {VendorStandard, isp, 0x0A, "TELEPHONE INTERCONNECT ANSWER RESPONSE"},
	ISPIndividualDataServiceRequest:             {VendorStandard, isp, 0x10, "INDIVIDUAL DATA SERVICE REQUEST"},
	ISPGroupDataServiceRequest:                  {VendorStandard, isp, 0x11, "GROUP DATA SERVICE REQUEST"},
	ISPSNDCPDataChannelRequest:                  {VendorStandard, isp, 0x12, "SNDCP DATA CHANNEL REQUEST"},
	ISPSNDCPDataPageResponse:                    {VendorStandard, isp, 0x13, "SNDCP DATA PAGE RESPONSE"},
	ISPSNDCPReconnectRequest:                    {VendorStandard, isp, 0x14, "SNDCP RECONNECT REQUEST"},
	ISPStatusUpdateRequest:                      {VendorStandard, isp, 0x18, "STATUS UPDATE REQUEST"},
	ISPStatusQueryResponse:                      {VendorStandard, isp, 0x19, "STATUS QUERY RESPONSE"},
	ISPStatusQueryRequest:                       {VendorStandard, isp, 0x1A, "STATUS QUERY REQUEST"},
	ISPMessageUpdateRequest:                     {VendorStandard, isp, 0x1C, "MESSAGE UPDATE REQUEST"},
	ISPRadioUnitMonitorRequest:                  {VendorStandard, isp, 0x1D, "RADIO UNIT MONITOR REQUEST"},
	ISPCallAlertRequest:                         {VendorStandard, isp, 0x1F, "CALL ALERT REQUEST"},
	ISPUnitAcknowledgeResponse:                  {VendorStandard, isp, 0x20, "UNIT ACKNOWLEDGE RESPONSE"},
	ISPCancelServiceRequest:                     {VendorStandard, isp, 0x23, "CANCEL SERVICE REQUEST"},
	ISPExtendedFunctionResponse:                 {VendorStandard, isp, 0x24, "EXTENDED FUNCTION RESPONSE"},
	ISPEmergencyAlarmRequest:                    {VendorStandard, isp, 0x27, "EMERGENCY ALARM REQUEST"},
	ISPGroupAffiliationRequest:                  {VendorStandard, isp, 0x28, "GROUP AFFILIATION REQUEST"},
	ISPGroupAffiliationQueryResponse:            {VendorStandard, isp, 0x29, "GROUP AFFILIATION QUERY RESPONSE"},
	ISPUnitDeregistrationRequest:                {VendorStandard, isp, 0x2B, "UNIT DE-REGISTRATION REQUEST"},
	ISPUnitRegistrationRequest:                  {VendorStandard, isp, 0x2C, "UNIT REGISTRATION REQUEST"},
	ISPLocationRegistrationRequest:              {VendorStandard, isp, 0x2D, "LOCATION REGISTRATION REQUEST"},
	ISPAuthenticationQuery:                      {VendorStandard, isp, 0x2E, "AUTHENTICATION QUERY"},
	ISPAuthenticationResponseObsolete:           {VendorStandard, isp, 0x2F, "AUTHENTICATION RESPONSE (OBSOLETE)"},
	ISPProtectionParameterRequest:               {VendorStandard, isp, 0x30, "PROTECTION PARAMETER REQUEST"},
	ISPIdentifierUpdateRequest:                  {VendorStandard, isp, 0x32, "IDENTIFIER UPDATE REQUEST"},
	ISPRoamingAddressRequest:                    {VendorStandard, isp, 0x36, "ROAMING ADDRESS REQUEST"},
	ISPRoamingAddressResponse:                   {VendorStandard, isp, 0x37, "ROAMING ADDRESS RESPONSE"},
	ISPAuthenticationResponse:                   {VendorStandard, isp, 0x38, "AUTHENTICATION RESPONSE"},
	ISPAuthenticationResponseMutual:             {VendorStandard, isp, 0x39, "AUTHENTICATION RESPONSE MUTUAL"},
	ISPAuthenticationFNEResult:                  {VendorStandard, isp, 0x3A, "AUTHENTICATION FNE RESULT"},
	ISPAuthenticationSUDemand:                   {VendorStandard, isp, 0x3B, "AUTHENTICATION SU DEMAND"},
	ISPUnknown:                                  {VendorStandard, isp, -1, "ISP UNKNOWN"},

	MotorolaOSPPatchGroupAdd:                 {VendorMotorola, osp, 0x00, "MOTOROLA PATCH GROUP ADD"},
	MotorolaOSPPatchGroupDelete:              {VendorMotorola, osp, 0x01, "MOTOROLA PATCH GROUP DELETE"},
	MotorolaOSPPatchGroupChannelGrant:        {VendorMotorola, osp, 0x02, "MOTOROLA PATCH GROUP CHANNEL GRANT"},
	MotorolaOSPPatchGroupChannelGrantUpdate:  {VendorMotorola, osp, 0x03, "MOTOROLA PATCH GROUP CHANNEL GRANT UPDATE"},
	MotorolaOSPTrafficChannelID:              {VendorMotorola, osp, 0x05, "MOTOROLA TRAFFIC CHANNEL"},
	MotorolaOSPDenyResponse:                  {VendorMotorola, osp, 0x07, "MOTOROLA DENY RESPONSE"},
	MotorolaOSPSystemLoading:                 {VendorMotorola, osp, 0x09, "MOTOROLA SYSTEM LOADING"},
	MotorolaOSPBaseStationID:                 {VendorMotorola, osp, 0x0B, "MOTOROLA CONTROL CHANNEL BASE STATION ID"},
	MotorolaOSPControlChannelPlannedShutdown: {VendorMotorola, osp, 0x0E, "MOTOROLA CONTROL CHANNEL PLANNED SHUTDOWN"},
	MotorolaOSPUnknown:                       {VendorMotorola, osp, -1, "MOTOROLA OSP UNKNOWN"},
	MotorolaISPUnknown:                       {VendorMotorola, isp, -1, "MOTOROLA ISP UNKNOWN"},

	HarrisOSPTDMASync: {VendorHarris, osp, 0x30, "HARRIS TDMA SYNC BROADCAST"},
	HarrisOSPUnknown:  {VendorHarris, osp, -1, "HARRIS OSP UNKNOWN"},
	HarrisISPUnknown:  {VendorHarris, isp, -1, "HARRIS ISP UNKNOWN"},
}

func (o Opcode) String() string                { return opcodeInfos[o].label }
func (o Opcode) Vendor() Vendor                { return opcodeInfos[o].vendor }
func (o Opcode) Direction() protocol.Direction { return opcodeInfos[o].direction }
func (o Opcode) Code() int                     { return opcodeInfos[o].code }

// Unknown reports whether o is one of the UNKNOWN sentinels.
func (o Opcode) Unknown() bool { return opcodeInfos[o].code < 0 }

type opcodeKey struct {
	vendor    Vendor
	direction protocol.Direction
}

var (
	opcodes        = make(map[opcodeKey]map[int]Opcode)
	unknownOpcodes = make(map[opcodeKey]Opcode)
)

func init() {
	for op, info := range opcodeInfos {
		key := opcodeKey{info.vendor, info.direction}
		if info.code < 0 {
			unknownOpcodes[key] = op
			continue
		}
		if opcodes[key] == nil {
			opcodes[key] = make(map[int]Opcode)
		}
		opcodes[key][info.code] = op
	}
}

// LookupOpcode resolves a manufacturer ID and opcode for a link direction.
// Unknown directions are treated as outbound. Undefined combinations
// resolve to the UNKNOWN opcode of the vendor and direction.
func LookupOpcode(mfid, code int, direction protocol.Direction) Opcode {
	if direction != protocol.DirectionInbound {
		direction = protocol.DirectionOutbound
	}
	key := opcodeKey{VendorFromMFID(mfid), direction}
	if op, ok := opcodes[key][code]; ok {
		return op
	}
	return unknownOpcodes[key]
}
