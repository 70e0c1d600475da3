package dmr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbehnke/lmrdecode/internal/bits"
)

func burstWithSync(pattern uint64) *bits.Buffer {
	burst := bits.New(BurstBits)
	burst.Load(syncStart, syncBits, pattern)
	return burst
}

func TestDetectSync(t *testing.T) {
	tests := []struct {
		name  string
		value uint64
		flips []int
		want  SyncPattern
	}{
		{"base station voice", 0x755FD7DF75F7, nil, SyncBaseStationVoice},
		{"base station data", 0xDFF57D75DF5D, nil, SyncBaseStationData},
		{"mobile voice", 0x7F7D5DD57DFD, nil, SyncMobileVoice},
		{"direct data ts2", 0xD7557F5FF7F5, nil, SyncDirectDataTS2},
		{"four bit errors", 0xDFF57D75DF5D, []int{0, 10, 20, 47}, SyncBaseStationData},
		{"too many errors", 0xDFF57D75DF5D, []int{0, 10, 20, 30, 40, 47}, SyncNone},
		{"no sync", 0, nil, SyncNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			burst := burstWithSync(tt.value)
			for _, f := range tt.flips {
				burst.Flip(syncStart + f)
			}
			assert.Equal(t, tt.want, DetectSync(burst))
		})
	}

	assert.Equal(t, SyncNone, DetectSync(bits.New(100)))
	assert.True(t, SyncMobileVoice.IsVoice())
	assert.True(t, SyncDirectDataTS1.IsData())
	assert.False(t, SyncMobileReverseChannel.IsVoice() || SyncMobileReverseChannel.IsData())
}

func TestEMBRoundTrip(t *testing.T) {
	emb := EMB{ColorCode: 7, PI: true, LCSS: LCSSContinuation}
	burst := bits.New(BurstBits)
	EncodeEMB(burst, emb)

	got := ParseEMB(burst)
	assert.True(t, got.Valid)
	assert.Equal(t, 7, got.ColorCode)
	assert.True(t, got.PI)
	assert.Equal(t, LCSSContinuation, got.LCSS)

	// QR(16,7,6) corrects two errors across both halves.
	burst.Flip(embFirstStart + 1)
	burst.Flip(embSecondStart + 6)
	got = ParseEMB(burst)
	assert.True(t, got.Valid)
	assert.Equal(t, 7, got.ColorCode)
}

func TestCACHRoundTrip(t *testing.T) {
	payload := bits.FromBits([]int{1, 0, 1, 1, 0, 0, 1, 0, 1, 1, 1, 0, 0, 0, 1, 0, 1})
	tests := []TACT{
		{Busy: true, Timeslot: 1, LCSS: LCSSFirst},
		{Busy: false, Timeslot: 2, LCSS: LCSSLast},
		{Busy: true, Timeslot: 2, LCSS: LCSSContinuation},
	}

	for _, tact := range tests {
		t.Run(tact.LCSS.String(), func(t *testing.T) {
			burst := bits.New(BurstBits)
			EncodeCACH(burst, tact, payload)
			// single error in the TACT
			burst.Flip(tactPositions[3])

			got, gotPayload := ParseCACH(burst)
			require.True(t, got.Valid)
			assert.Equal(t, tact.Busy, got.Busy)
			assert.Equal(t, tact.Timeslot, got.Timeslot)
			assert.Equal(t, tact.LCSS, got.LCSS)
			assert.True(t, payload.Equal(gotPayload))
		})
	}
}

func TestBPTCPlacement(t *testing.T) {
	bptc := bits.New(196)
	for i := 0; i < 196; i += 3 {
		bptc.Set(i)
	}
	burst := burstWithSync(0xDFF57D75DF5D)
	InsertBPTC(burst, bptc)

	assert.True(t, bptc.Equal(ExtractBPTC(burst)))
	assert.Equal(t, SyncBaseStationData, DetectSync(burst), "BPTC halves must not touch the sync field")
}

func TestSlotType(t *testing.T) {
	burst := bits.New(BurstBits)
	SetSlotType(burst, SlotType{ColorCode: 12, DataType: DataTypeCSBK})
	assert.Equal(t, SlotType{ColorCode: 12, DataType: DataTypeCSBK}, ParseSlotType(burst))
}

func TestParseDataType(t *testing.T) {
	tests := []struct {
		label string
		want  DataType
	}{
		{"CSBK", DataTypeCSBK},
		{"voice_header", DataTypeVoiceHeader},
		{" TERMINATOR ", DataTypeTerminator},
		{"IDLE", DataTypeIdle},
		{"bogus", DataTypeUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseDataType(tt.label))
		})
	}
}
