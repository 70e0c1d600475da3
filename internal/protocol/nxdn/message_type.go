package nxdn

import (
	"github.com/dbehnke/lmrdecode/internal/protocol"
)

// ChannelKind separates the control and traffic layer 3 code spaces.
type ChannelKind int

const (
	ChannelControl ChannelKind = iota
	ChannelTraffic
)

func (k ChannelKind) String() string {
	if k == ChannelTraffic {
		return "TRAFFIC"
	}
	return "CONTROL"
}

// MessageType identifies a layer 3 message by channel kind, direction and
// 6-bit code.
type MessageType int

const (
	ControlOutUnknown MessageType = iota
	ControlInUnknown
	TrafficOutUnknown
	TrafficInUnknown

	ControlOutVoiceCallResponse
	ControlOutVoiceCallReceptionRequest
	ControlOutVoiceCallConnectionResponse
	ControlOutVoiceCallAssignment
	ControlOutVoiceCallAssignmentDuplicate
	ControlOutDataCallResponse
	ControlOutDataCallReceptionRequest
	ControlOutDataCallAssignmentDuplicate
	ControlOutDataCallAssignment
	ControlOutIdle
	ControlOutDisconnect
	ControlOutDigitalStationID
	ControlOutSiteInformation
	ControlOutServiceInformation
	ControlOutControlChannelInformation
	ControlOutAdjacentSiteInformation
	ControlOutFailureStatus
	ControlOutRegistrationResponse
	ControlOutRegistrationClearResponse
	ControlOutRegistrationCommand
	ControlOutGroupRegistrationResponse
	ControlOutAuthenticationInquiryRequest
	ControlOutStatusInquiryRequest
	ControlOutStatusInquiryResponse
	ControlOutStatusRequest
	ControlOutStatusResponse
	ControlOutRemoteControlRequest
	ControlOutRemoteControlResponse
	ControlOutProprietary

	ControlInVoiceCallRequest
	ControlInVoiceCallReceptionResponse
	ControlInVoiceCallConnectionRequest
	ControlInDataCallRequest
	ControlInDataCallReceptionResponse
	ControlInDisconnectRequest
	ControlInRegistrationRequest
	ControlInRegistrationClearRequest
	ControlInGroupRegistrationRequest
	ControlInAuthenticationInquiryResponse
	ControlInStatusInquiryRequest
	ControlInStatusInquiryResponse
	ControlInStatusRequest
	ControlInStatusResponse
	ControlInRemoteControlRequest
	ControlInRemoteControlResponse
	ControlInProprietary

	TrafficOutVoiceCall
	TrafficOutVoiceCallReceptionRequest
	TrafficOutVoiceCallInitializationVector
	TrafficOutVoiceCallAssignment
	TrafficOutVoiceCallAssignmentDuplicate
	TrafficOutTransmissionReleaseExtension
	TrafficOutTransmissionRelease
	TrafficOutDataCallHeader
	TrafficOutDataCallReceptionRequest
	TrafficOutDataCallBlock
	TrafficOutDataCallAcknowledge
	TrafficOutHeaderDelay
	TrafficOutIdle
	TrafficOutDisconnect
	TrafficOutSiteInformation
	TrafficOutServiceInformation
	TrafficOutAdjacentSiteInformation
	TrafficOutStatusRequest
	TrafficOutStatusResponse
	TrafficOutShortDataCallHeader
	TrafficOutShortDataCallBlock
	TrafficOutProprietary

	TrafficInVoiceCall
	TrafficInVoiceCallReceptionResponse
	TrafficInVoiceCallInitializationVector
	TrafficInTransmissionRelease
	TrafficInDataCallHeader
	TrafficInDataCallBlock
	TrafficInDataCallAcknowledge
	TrafficInHeaderDelay
	TrafficInDisconnectRequest
	TrafficInStatusRequest
	TrafficInStatusResponse
	TrafficInShortDataCallHeader
	TrafficInShortDataCallBlock
	TrafficInProprietary
)

type messageTypeInfo struct {
	kind      ChannelKind
	direction protocol.Direction
	code      int
	label     string
}

const (
	control = ChannelControl
	traffic = ChannelTraffic
)

var messageTypeInfos = map[MessageType]messageTypeInfo{
	ControlOutUnknown: {control, out, -1, "CONTROL OUTBOUND UNKNOWN"},
	ControlInUnknown:  {control, in, -1, "CONTROL INBOUND UNKNOWN"},
	TrafficOutUnknown: {traffic, out, -1, "TRAFFIC OUTBOUND UNKNOWN"},
	TrafficInUnknown:  {traffic, in, -1, "TRAFFIC INBOUND UNKNOWN"},

	ControlOutVoiceCallResponse:            {control, out, 0x01, "VOICE CALL RESPONSE"},
	ControlOutVoiceCallReceptionRequest:    {control, out, 0x02, "VOICE CALL RECEPTION REQUEST"},
	ControlOutVoiceCallConnectionResponse:  {control, out, 0x03, "VOICE CALL CONNECTION RESPONSE"},
	ControlOutVoiceCallAssignment:          {control, out, 0x04, "VOICE CALL ASSIGNMENT"},
	ControlOutVoiceCallAssignmentDuplicate: {control, out, 0x05, "VOICE CALL ASSIGNMENT DUPLICATE"},
	ControlOutDataCallResponse:             {control, out, 0x09, "DATA CALL RESPONSE"},
	ControlOutDataCallReceptionRequest:     {control, out, 0x0A, "DATA CALL RECEPTION REQUEST"},
	ControlOutDataCallAssignmentDuplicate:  {control, out, 0x0D, "DATA CALL ASSIGNMENT DUPLICATE"},
	ControlOutDataCallAssignment:           {control, out, 0x0E, "DATA CALL ASSIGNMENT"},
	ControlOutIdle:                         {control, out, 0x10, "IDLE"},
	ControlOutDisconnect:                   {control, out, 0x11, "DISCONNECT"},
	ControlOutDigitalStationID:             {control, out, 0x17, "DIGITAL STATION ID"},
	ControlOutSiteInformation:              {control, out, 0x18, "SITE INFORMATION"},
	ControlOutServiceInformation:           {control, out, 0x19, "SERVICE INFORMATION"},
	ControlOutControlChannelInformation:    {control, out, 0x1A, "CONTROL CHANNEL INFORMATION"},
	ControlOutAdjacentSiteInformation:      {control, out, 0x1B, "ADJACENT SITE INFORMATION"},
	ControlOutFailureStatus:                {control, out, 0x1C, "FAILURE STATUS INFORMATION"},
	ControlOutRegistrationResponse:         {control, out, 0x20, "REGISTRATION RESPONSE"},
	ControlOutRegistrationClearResponse:    {control, out, 0x22, "REGISTRATION CLEAR RESPONSE"},
	ControlOutRegistrationCommand:          {control, out, 0x23, "REGISTRATION COMMAND"},
	ControlOutGroupRegistrationResponse:    {control, out, 0x24, "GROUP REGISTRATION RESPONSE"},
	ControlOutAuthenticationInquiryRequest: {control, out, 0x28, "AUTHENTICATION INQUIRY REQUEST"},
	ControlOutStatusInquiryRequest:         {control, out, 0x30, "STATUS INQUIRY REQUEST"},
	ControlOutStatusInquiryResponse:        {control, out, 0x31, "STATUS INQUIRY RESPONSE"},
	ControlOutStatusRequest:                {control, out, 0x32, "STATUS REQUEST"},
	ControlOutStatusResponse:               {control, out, 0x33, "STATUS RESPONSE"},
	ControlOutRemoteControlRequest:         {control, out, 0x34, "REMOTE CONTROL REQUEST"},
	ControlOutRemoteControlResponse:        {control, out, 0x35, "REMOTE CONTROL RESPONSE"},
	ControlOutProprietary:                  {control, out, 0x3F, "PROPRIETARY FORM"},

	ControlInVoiceCallRequest:              {control, in, 0x01, "VOICE CALL REQUEST"},
	ControlInVoiceCallReceptionResponse:    {control, in, 0x02, "VOICE CALL RECEPTION RESPONSE"},
	ControlInVoiceCallConnectionRequest:    {control, in, 0x03, "VOICE CALL CONNECTION REQUEST"},
	ControlInDataCallRequest:               {control, in, 0x09, "DATA CALL REQUEST"},
	ControlInDataCallReceptionResponse:     {control, in, 0x0A, "DATA CALL RECEPTION RESPONSE"},
	ControlInDisconnectRequest:             {control, in, 0x11, "DISCONNECT REQUEST"},
	ControlInRegistrationRequest:           {control, in, 0x20, "REGISTRATION REQUEST"},
	ControlInRegistrationClearRequest:      {control, in, 0x22, "REGISTRATION CLEAR REQUEST"},
	ControlInGroupRegistrationRequest:      {control, in, 0x24, "GROUP REGISTRATION REQUEST"},
	ControlInAuthenticationInquiryResponse: {control, in, 0x29, "AUTHENTICATION INQUIRY RESPONSE"},
	ControlInStatusInquiryRequest:          {control, in, 0x30, "STATUS INQUIRY REQUEST"},
	ControlInStatusInquiryResponse:         {control, in, 0x31, "STATUS INQUIRY RESPONSE"},
	ControlInStatusRequest:                 {control, in, 0x32, "STATUS REQUEST"},
	ControlInStatusResponse:                {control, in, 0x33, "STATUS RESPONSE"},
	ControlInRemoteControlRequest:          {control, in, 0x34, "REMOTE CONTROL REQUEST"},
	ControlInRemoteControlResponse:         {control, in, 0x35, "REMOTE CONTROL RESPONSE"},
	ControlInProprietary:                   {control, in, 0x3F, "PROPRIETARY FORM"},

	TrafficOutVoiceCall:                     {traffic, out, 0x01, "VOICE CALL"},
	TrafficOutVoiceCallReceptionRequest:     {traffic, out, 0x02, "VOICE CALL RECEPTION REQUEST"},
	TrafficOutVoiceCallInitializationVector: {traffic, out, 0x03, "VOICE CALL INITIALIZATION VECTOR"},
	TrafficOutVoiceCallAssignment:           {traffic, out, 0x04, "VOICE CALL ASSIGNMENT"},
	TrafficOutVoiceCallAssignmentDuplicate:  {traffic, out, 0x05, "VOICE CALL ASSIGNMENT DUPLICATE"},
	TrafficOutTransmissionReleaseExtension:  {traffic, out, 0x07, "TRANSMISSION RELEASE EXTENSION"},
	TrafficOutTransmissionRelease:           {traffic, out, 0x08, "TRANSMISSION RELEASE"},
	TrafficOutDataCallHeader:                {traffic, out, 0x09, "DATA CALL HEADER"},
	TrafficOutDataCallReceptionRequest:      {traffic, out, 0x0A, "DATA CALL RECEPTION REQUEST"},
	TrafficOutDataCallBlock:                 {traffic, out, 0x0B, "DATA CALL BLOCK"},
	TrafficOutDataCallAcknowledge:           {traffic, out, 0x0C, "DATA CALL ACKNOWLEDGE"},
	TrafficOutHeaderDelay:                   {traffic, out, 0x0F, "HEADER DELAY"},
	TrafficOutIdle:                          {traffic, out, 0x10, "IDLE"},
	TrafficOutDisconnect:                    {traffic, out, 0x11, "DISCONNECT"},
	TrafficOutSiteInformation:               {traffic, out, 0x18, "SITE INFORMATION"},
	TrafficOutServiceInformation:            {traffic, out, 0x19, "SERVICE INFORMATION"},
	TrafficOutAdjacentSiteInformation:       {traffic, out, 0x1B, "ADJACENT SITE INFORMATION"},
	TrafficOutStatusRequest:                 {traffic, out, 0x32, "STATUS REQUEST"},
	TrafficOutStatusResponse:                {traffic, out, 0x33, "STATUS RESPONSE"},
	TrafficOutShortDataCallHeader:           {traffic, out, 0x38, "SHORT DATA CALL REQUEST HEADER"},
	TrafficOutShortDataCallBlock:            {traffic, out, 0x39, "SHORT DATA CALL BLOCK"},
	TrafficOutProprietary:                   {traffic, out, 0x3F, "PROPRIETARY FORM"},

	TrafficInVoiceCall:                     {traffic, in, 0x01, "VOICE CALL"},
	TrafficInVoiceCallReceptionResponse:    {traffic, in, 0x02, "VOICE CALL RECEPTION RESPONSE"},
	TrafficInVoiceCallInitializationVector: {traffic, in, 0x03, "VOICE CALL INITIALIZATION VECTOR"},
	TrafficInTransmissionRelease:           {traffic, in, 0x08, "TRANSMISSION RELEASE"},
	TrafficInDataCallHeader:                {traffic, in, 0x09, "DATA CALL HEADER"},
	TrafficInDataCallBlock:                 {traffic, in, 0x0B, "DATA CALL BLOCK"},
	TrafficInDataCallAcknowledge:           {traffic, in, 0x0C, "DATA CALL ACKNOWLEDGE"},
	TrafficInHeaderDelay:                   {traffic, in, 0x0F, "HEADER DELAY"},
	TrafficInDisconnectRequest:             {traffic, in, 0x11, "DISCONNECT REQUEST"},
	TrafficInStatusRequest:                 {traffic, in, 0x32, "STATUS REQUEST"},
	TrafficInStatusResponse:                {traffic, in, 0x33, "STATUS RESPONSE"},
	TrafficInShortDataCallHeader:           {traffic, in, 0x38, "SHORT DATA CALL REQUEST HEADER"},
	TrafficInShortDataCallBlock:            {traffic, in, 0x39, "SHORT DATA CALL BLOCK"},
	TrafficInProprietary:                   {traffic, in, 0x3F, "PROPRIETARY FORM"},
}

func (m MessageType) String() string                { return messageTypeInfos[m].label }
func (m MessageType) Kind() ChannelKind             { return messageTypeInfos[m].kind }
func (m MessageType) Direction() protocol.Direction { return messageTypeInfos[m].direction }
func (m MessageType) Code() int                     { return messageTypeInfos[m].code }

// Unknown reports whether m is one of the UNKNOWN sentinels.
func (m MessageType) Unknown() bool { return messageTypeInfos[m].code < 0 }

type messageTypeKey struct {
	kind      ChannelKind
	direction protocol.Direction
}

var (
	messageTypes        = make(map[messageTypeKey]map[int]MessageType)
	unknownMessageTypes = make(map[messageTypeKey]MessageType)
)

func init() {
	for m, info := range messageTypeInfos {
		key := messageTypeKey{info.kind, info.direction}
		if info.code < 0 {
			unknownMessageTypes[key] = m
			continue
		}
		if messageTypes[key] == nil {
			messageTypes[key] = make(map[int]MessageType)
		}
		messageTypes[key][info.code] = m
	}
}

// LookupMessageType resolves a 6-bit layer 3 code. Unknown directions are
// treated as outbound and undefined codes resolve to the UNKNOWN sentinel
// of the channel kind and direction.
func LookupMessageType(kind ChannelKind, direction protocol.Direction, code int) MessageType {
	if direction != protocol.DirectionInbound {
		direction = protocol.DirectionOutbound
	}
	key := messageTypeKey{kind, direction}
	if m, ok := messageTypes[key][code&0x3F]; ok {
		return m
	}
	return unknownMessageTypes[key]
}
