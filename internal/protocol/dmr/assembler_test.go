package dmr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbehnke/lmrdecode/internal/bits"
	"github.com/dbehnke/lmrdecode/internal/correction"
	"github.com/dbehnke/lmrdecode/internal/protocol"
)

var superframeLCSS = [embeddedFragments]LCSS{LCSSFirst, LCSSContinuation, LCSSContinuation, LCSSLast}

func TestEmbeddedAssembler(t *testing.T) {
	fragments := EncodeEmbeddedLC(fullLC(groupVoiceLC, 0))

	t.Run("complete superframe", func(t *testing.T) {
		a := NewEmbeddedAssembler(NewLCFactory(nil))
		var got LCMessage
		for i, frag := range fragments {
			got = a.Add(2, EMB{ColorCode: 1, LCSS: superframeLCSS[i], Valid: true}, frag, testTime)
			if i < embeddedFragments-1 {
				require.Nil(t, got)
			}
		}
		gv, ok := got.(*GroupVoiceChannelUser)
		require.True(t, ok, "got %T", got)
		assert.True(t, gv.Valid())
		assert.Equal(t, 2, gv.Timeslot())
		assert.Equal(t, 3120, gv.Talkgroup())
		assert.Equal(t, 15025, gv.Source())
	})

	t.Run("single bit error corrected", func(t *testing.T) {
		a := NewEmbeddedAssembler(NewLCFactory(nil))
		var got LCMessage
		for i, frag := range fragments {
			f := frag.Clone()
			if i == 2 {
				f.Flip(17)
			}
			got = a.Add(1, EMB{LCSS: superframeLCSS[i], Valid: true}, f, testTime)
		}
		require.NotNil(t, got)
		assert.True(t, got.Valid())
		assert.Equal(t, 15025, got.(*GroupVoiceChannelUser).Source())
	})

	t.Run("missing first fragment", func(t *testing.T) {
		a := NewEmbeddedAssembler(NewLCFactory(nil))
		for i := 1; i < embeddedFragments; i++ {
			assert.Nil(t, a.Add(1, EMB{LCSS: superframeLCSS[i], Valid: true}, fragments[i], testTime))
		}
	})

	t.Run("invalid emb resets", func(t *testing.T) {
		a := NewEmbeddedAssembler(NewLCFactory(nil))
		a.Add(1, EMB{LCSS: LCSSFirst, Valid: true}, fragments[0], testTime)
		a.Add(1, EMB{LCSS: LCSSContinuation, Valid: true}, fragments[1], testTime)
		a.Add(1, EMB{Valid: false}, fragments[2], testTime)
		assert.Nil(t, a.Add(1, EMB{LCSS: LCSSLast, Valid: true}, fragments[3], testTime))
	})

	t.Run("timeslots are independent", func(t *testing.T) {
		a := NewEmbeddedAssembler(NewLCFactory(nil))
		var got [3]LCMessage
		for i, frag := range fragments {
			got[1] = a.Add(1, EMB{LCSS: superframeLCSS[i], Valid: true}, frag, testTime)
			got[2] = a.Add(2, EMB{LCSS: superframeLCSS[i], Valid: true}, frag, testTime)
		}
		assert.NotNil(t, got[1])
		assert.NotNil(t, got[2])
	})
}

// shortLCBursts spreads a 36-bit short link control over the CACH of four
// bursts.
func shortLCBursts(slc *bits.Buffer) [cachFragments]*bits.Buffer {
	matrix := encodeShortLCMatrix(slc)
	lcss := [cachFragments]LCSS{LCSSFirst, LCSSContinuation, LCSSContinuation, LCSSLast}

	var bursts [cachFragments]*bits.Buffer
	for i := range bursts {
		bursts[i] = bits.New(BurstBits)
		payload := matrix.GetSubMessage(i*cachPayloadBits, (i+1)*cachPayloadBits)
		EncodeCACH(bursts[i], TACT{Timeslot: i%2 + 1, LCSS: lcss[i]}, payload)
	}
	return bursts
}

func systemParametersSLC() *bits.Buffer {
	slc := bits.New(ShortLCBits)
	slc.SetInt(2, slcOpcode.Indices)
	slc.SetInt(1, slcSystemModel.Indices)
	slc.SetInt(0x1ABC, slcSystemIdentity.Indices)
	slc.SetInt(17, slcSystemCommon.Indices)
	correction.CRC8.Write(slc, 0, slcCRCStart, slcCRCStart)
	return slc
}

func TestShortLCMatrixRoundTrip(t *testing.T) {
	slc := systemParametersSLC()
	matrix := encodeShortLCMatrix(slc)
	require.Equal(t, slcMatrixBits, matrix.Size())
	assert.True(t, slc.Equal(decodeShortLCMatrix(matrix)))

	for i := 0; i < slcMatrixBits; i++ {
		received := matrix.Clone()
		received.Flip(i)
		assert.True(t, slc.Equal(decodeShortLCMatrix(received)), "bit %d", i)
	}
}

func TestShortLCAssembler(t *testing.T) {
	bursts := shortLCBursts(systemParametersSLC())

	t.Run("system parameters", func(t *testing.T) {
		a := NewShortLCAssembler(NewLCFactory(nil))
		for i := 0; i < cachFragments-1; i++ {
			require.Nil(t, a.Add(bursts[i], testTime))
		}
		msg := a.Add(bursts[cachFragments-1], testTime)
		sp, ok := msg.(*SystemParameters)
		require.True(t, ok, "got %T", msg)
		assert.True(t, sp.Valid())
		assert.Equal(t, 1, sp.Model())
		assert.Equal(t, 0x1ABC, sp.SystemIdentity())
		assert.Equal(t, 17, sp.CommonSlotCounter())
		assert.Equal(t, "1ABC", sp.Identifiers()[0].String())
	})

	t.Run("out of sequence", func(t *testing.T) {
		a := NewShortLCAssembler(NewLCFactory(nil))
		a.Add(bursts[0], testTime)
		a.Add(bursts[1], testTime)
		assert.Nil(t, a.Add(bursts[3], testTime))
	})

	t.Run("restarts on first fragment", func(t *testing.T) {
		a := NewShortLCAssembler(NewLCFactory(nil))
		a.Add(bursts[0], testTime)
		a.Add(bursts[1], testTime)
		for i := 0; i < cachFragments-1; i++ {
			a.Add(bursts[i], testTime)
		}
		assert.NotNil(t, a.Add(bursts[3], testTime))
	})
}

func TestShortLCOpcodes(t *testing.T) {
	tests := []struct {
		slco     int
		wantType any
	}{
		{0x1, &ActivityUpdate{}},
		{0x2, &SystemParameters{}},
		{0x9, &ConnectPlusChannel{}},
		{0xA, &ConnectPlusChannel{}},
		{0xF, &CapacityPlusRestChannel{}},
		{0x0, &ShortLC{}},
		{0x5, &ShortLC{}},
	}
	factory := NewLCFactory(nil)
	for _, tt := range tests {
		slc := bits.New(ShortLCBits)
		slc.SetInt(tt.slco, slcOpcode.Indices)
		slc.SetInt(0x5A5A5A, slcData.Indices)
		correction.CRC8.Write(slc, 0, slcCRCStart, slcCRCStart)

		msg := factory.CreateShort(slc, testTime)
		assert.IsType(t, tt.wantType, msg, "SLCO %X", tt.slco)
		assert.True(t, msg.Valid())
		assert.NotEmpty(t, msg.String())
	}

	assert.Equal(t, SLCOUnknown, LookupShortLCOpcode(0x5))

	bad := factory.CreateShort(bits.New(20), testTime)
	assert.Equal(t, ShortLCBits, bad.Bits().Size())
}

func aliasLC(t *testing.T, factory *LCFactory, flco byte, body []byte) LCMessage {
	t.Helper()
	data := [9]byte{flco}
	copy(data[2:], body)
	return factory.CreateFull(fullLC(data, MaskVoiceHeader), testTime, LCBurstVoiceHeader)
}

// pack7 packs ASCII text as consecutive 7-bit characters.
func pack7(text string, size int) []byte {
	buf := bits.New(size * 8)
	for i := 0; i < len(text) && (i+1)*7 <= size*8; i++ {
		buf.Load(i*7, 7, uint64(text[i]))
	}
	return buf.ToBytes()
}

func TestTalkerAliasAssembler(t *testing.T) {
	factory := NewLCFactory(nil)
	voice := factory.CreateFull(fullLC(groupVoiceLC, MaskVoiceHeader), testTime, LCBurstVoiceHeader)

	t.Run("8-bit alias", func(t *testing.T) {
		a := NewTalkerAliasAssembler("")
		// format 1, length 11: header octet 0b01_01011_0
		header := aliasLC(t, factory, FLCOTalkerAliasHeader, append([]byte{0x56}, "KC1ABC"...))
		block := aliasLC(t, factory, FLCOTalkerAliasBlock1, []byte(" JOHN\x00\x00"))

		assert.Nil(t, a.Add(1, voice))
		assert.Nil(t, a.Add(1, header))
		alias := a.Add(1, block)
		require.NotNil(t, alias)
		assert.Equal(t, "KC1ABC JOHN", alias.Alias)
		assert.Equal(t, AliasFormat8Bit, alias.Format)
		assert.Equal(t, 15025, alias.Source)
		assert.Equal(t, 1, alias.Timeslot())
		ids := alias.Identifiers()
		require.Len(t, ids, 2)
		assert.Equal(t, protocol.NewAlias(protocol.ProtocolDMR, protocol.RoleFrom, "KC1ABC JOHN"), ids[0])
	})

	t.Run("7-bit alias over two blocks", func(t *testing.T) {
		a := NewTalkerAliasAssembler("")
		text := "ABCDEFGHIJKLMNOPQRS"
		packed := pack7(text, 28)

		// The header carries format 0, length 19 and then 49 alias bits
		// starting at bit 23 of the link control.
		body := bits.New(56)
		body.Load(2, 5, uint64(len(text)))
		first := bits.FromBytes(packed).GetSubMessage(0, 49)
		body.Copy(7, first)
		header := aliasLC(t, factory, FLCOTalkerAliasHeader, body.ToBytes())

		rest := bits.FromBytes(packed)
		block1 := aliasLC(t, factory, FLCOTalkerAliasBlock1, rest.GetSubMessage(49, 105).ToBytes())
		block2 := aliasLC(t, factory, FLCOTalkerAliasBlock2, rest.GetSubMessage(105, 161).ToBytes())

		assert.Nil(t, a.Add(2, header))
		assert.Nil(t, a.Add(2, block1))
		alias := a.Add(2, block2)
		require.NotNil(t, alias)
		assert.Equal(t, text, alias.Alias)
		assert.Equal(t, 0, alias.Source)
	})

	t.Run("new talker drops partial alias", func(t *testing.T) {
		a := NewTalkerAliasAssembler("")
		other := groupVoiceLC
		other[8] = 0xB2
		header := aliasLC(t, factory, FLCOTalkerAliasHeader, append([]byte{0x56}, "KC1ABC"...))
		block := aliasLC(t, factory, FLCOTalkerAliasBlock1, []byte(" JOHN\x00\x00"))

		a.Add(1, voice)
		a.Add(1, header)
		a.Add(1, factory.CreateFull(fullLC(other, MaskVoiceHeader), testTime, LCBurstVoiceHeader))
		assert.Nil(t, a.Add(1, block))
	})

	t.Run("invalid messages ignored", func(t *testing.T) {
		a := NewTalkerAliasAssembler("")
		buf := fullLC([9]byte{FLCOTalkerAliasHeader, 0x00, 0x56, 'K'}, MaskVoiceHeader)
		flipByte(buf, 1, 0xFF)
		flipByte(buf, 4, 0xFF)
		bad := factory.CreateFull(buf, testTime, LCBurstVoiceHeader)
		require.False(t, bad.Valid())
		assert.Nil(t, a.Add(1, bad))
	})
}
