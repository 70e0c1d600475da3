package capture

import (
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbehnke/lmrdecode/internal/bits"
	"github.com/dbehnke/lmrdecode/internal/decoder"
	"github.com/dbehnke/lmrdecode/internal/protocol"
)

func TestParseLine(t *testing.T) {
	b, err := ParseLine("DMR VOICE_C 2 1710000000123 00FF", protocol.DirectionOutbound)
	require.NoError(t, err)
	assert.Equal(t, protocol.ProtocolDMR, b.Protocol)
	assert.Equal(t, "VOICE_C", b.Type)
	assert.Equal(t, 2, b.Timeslot)
	assert.Equal(t, protocol.DirectionOutbound, b.Direction)
	assert.Equal(t, int64(1710000000123), b.Timestamp.UnixMilli())
	assert.Equal(t, 16, b.Bits.Size())
	assert.Equal(t, 0xFF, b.Bits.GetIntRange(8, 15))

	b, err = ParseLine("nxdn - 0 0 ABCDEF:20 IN", protocol.DirectionOutbound)
	require.NoError(t, err)
	assert.Equal(t, "", b.Type)
	assert.Equal(t, 20, b.Bits.Size())
	assert.Equal(t, protocol.DirectionInbound, b.Direction)
}

func TestParseLineMalformed(t *testing.T) {
	tests := []string{
		"DMR VOICE_C 1 0",
		"TETRA - 1 0 00",
		"DMR - x 0 00",
		"DMR - -1 0 00",
		"DMR - 1 yesterday 00",
		"DMR - 1 0 ZZ",
		"DMR - 1 0 00:0",
		"DMR - 1 0 00:9",
		"DMR - 1 0 00 SIDEWAYS",
		"DMR - 1 0 00 IN extra",
	}
	for _, line := range tests {
		t.Run(line, func(t *testing.T) {
			_, err := ParseLine(line, protocol.DirectionUnknown)
			assert.ErrorIs(t, err, ErrMalformedLine)
		})
	}
}

func TestReaderSkipsCommentsAndReportsLines(t *testing.T) {
	input := `# site 1
P25 TSBK 0 1000 0123

DMR - 1 1001 broken
NXDN - 0 1002 00
`
	r := NewReader(strings.NewReader(input), protocol.DirectionInbound)
	defer r.Close()

	b, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, protocol.ProtocolP25, b.Protocol)
	assert.Equal(t, 2, r.Line())

	_, err = r.Next()
	assert.True(t, errors.Is(err, ErrMalformedLine))
	assert.Contains(t, err.Error(), "line 4")

	b, err = r.Next()
	require.NoError(t, err)
	assert.Equal(t, protocol.ProtocolNXDN, b.Protocol)
	assert.Equal(t, protocol.DirectionInbound, b.Direction)

	_, err = r.Next()
	assert.Equal(t, io.EOF, err)
}

func TestRoundTrip(t *testing.T) {
	odd := bits.New(364)
	odd.Set(0)
	odd.Set(363)
	bursts := []decoder.Burst{
		{Protocol: protocol.ProtocolNXDN, Direction: protocol.DirectionOutbound, Timestamp: time.UnixMilli(1700000000000).UTC(), Bits: odd},
		{Protocol: protocol.ProtocolDMR, Type: "CSBK", Timeslot: 1, Timestamp: time.UnixMilli(1700000000060).UTC(), Bits: bits.FromBytes([]byte{0xDE, 0xAD})},
	}

	for _, name := range []string{"plain.txt", "packed.txt.zst"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			w, err := Create(path)
			require.NoError(t, err)
			for _, b := range bursts {
				require.NoError(t, w.Write(b))
			}
			require.NoError(t, w.Close())

			r, err := Open(path, protocol.DirectionUnknown)
			require.NoError(t, err)
			defer r.Close()
			for _, want := range bursts {
				got, err := r.Next()
				require.NoError(t, err)
				assert.Equal(t, want.Protocol, got.Protocol)
				assert.Equal(t, want.Type, got.Type)
				assert.Equal(t, want.Timeslot, got.Timeslot)
				assert.Equal(t, want.Direction, got.Direction)
				assert.True(t, want.Timestamp.Equal(got.Timestamp))
				assert.True(t, want.Bits.Equal(got.Bits), "bits differ")
			}
			_, err = r.Next()
			assert.Equal(t, io.EOF, err)
		})
	}
}

func TestFormatLine(t *testing.T) {
	b := decoder.Burst{Protocol: protocol.ProtocolP25, Type: "HDU", Timestamp: time.UnixMilli(42), Bits: bits.FromBytes([]byte{0x0A})}
	assert.Equal(t, "P25 HDU 0 42 0A", FormatLine(b))
}

func TestOpenMissing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "none.zst"), protocol.DirectionUnknown)
	assert.Error(t, err)
}
