// Package capture reads and writes burst capture files.
//
// A capture is a text file with one burst per line:
//
//	PROTOCOL BURST_TYPE TIMESLOT UNIX_MILLIS HEX[:BITS] [DIRECTION]
//
// BURST_TYPE is "-" when the demodulator gave no label. BITS trims the hex
// payload to a bit count that is not a multiple of eight, as NXDN frames
// need. Blank lines and lines starting with # are skipped. Files ending in
// .zst are zstd compressed.
package capture

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/dbehnke/lmrdecode/internal/bits"
	"github.com/dbehnke/lmrdecode/internal/decoder"
	"github.com/dbehnke/lmrdecode/internal/protocol"
)

var ErrMalformedLine = errors.New("malformed capture line")

const maxLineBytes = 1 << 20

// Reader yields the bursts of a capture in file order.
type Reader struct {
	scanner   *bufio.Scanner
	direction protocol.Direction
	line      int
	close     func() error
}

// Open opens a capture file. direction applies to lines that do not name
// their own.
func Open(path string, direction protocol.Direction) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open capture %s: %w", path, err)
	}
	if !strings.HasSuffix(path, ".zst") {
		r := NewReader(f, direction)
		r.close = f.Close
		return r, nil
	}

	zr, err := zstd.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("open zstd capture %s: %w", path, err)
	}
	r := NewReader(zr, direction)
	r.close = func() error {
		zr.Close()
		return f.Close()
	}
	return r, nil
}

func NewReader(r io.Reader, direction protocol.Direction) *Reader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), maxLineBytes)
	return &Reader{scanner: scanner, direction: direction, close: func() error { return nil }}
}

// Next returns the next burst, or io.EOF at the end of the capture. A
// malformed line yields an error wrapping ErrMalformedLine; reading may
// continue past it.
func (r *Reader) Next() (decoder.Burst, error) {
	for r.scanner.Scan() {
		r.line++
		line := strings.TrimSpace(r.scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		b, err := ParseLine(line, r.direction)
		if err != nil {
			return decoder.Burst{}, fmt.Errorf("line %d: %w", r.line, err)
		}
		return b, nil
	}
	if err := r.scanner.Err(); err != nil {
		return decoder.Burst{}, fmt.Errorf("read capture: %w", err)
	}
	return decoder.Burst{}, io.EOF
}

// Line is the number of the line last read.
func (r *Reader) Line() int { return r.line }

func (r *Reader) Close() error { return r.close() }

// ParseLine parses one capture line.
func ParseLine(line string, direction protocol.Direction) (decoder.Burst, error) {
	fields := strings.Fields(line)
	if len(fields) < 5 || len(fields) > 6 {
		return decoder.Burst{}, fmt.Errorf("%w: want 5 or 6 fields, got %d", ErrMalformedLine, len(fields))
	}

	p, err := protocol.ParseProtocol(fields[0])
	if err != nil {
		return decoder.Burst{}, fmt.Errorf("%w: %v", ErrMalformedLine, err)
	}
	kind := fields[1]
	if kind == "-" {
		kind = ""
	}
	slot, err := strconv.Atoi(fields[2])
	if err != nil || slot < 0 {
		return decoder.Burst{}, fmt.Errorf("%w: timeslot %q", ErrMalformedLine, fields[2])
	}
	millis, err := strconv.ParseInt(fields[3], 10, 64)
	if err != nil {
		return decoder.Burst{}, fmt.Errorf("%w: timestamp %q", ErrMalformedLine, fields[3])
	}

	payload, size := fields[4], 0
	if hexPart, count, ok := strings.Cut(payload, ":"); ok {
		if size, err = strconv.Atoi(count); err != nil || size <= 0 {
			return decoder.Burst{}, fmt.Errorf("%w: bit count %q", ErrMalformedLine, count)
		}
		payload = hexPart
	}
	if size == 0 {
		size = len(payload) * 4
	}
	if size > len(payload)*4 {
		return decoder.Burst{}, fmt.Errorf("%w: %d bits from %d hex digits", ErrMalformedLine, size, len(payload))
	}
	buf, err := bits.FromHex(size, payload)
	if err != nil {
		return decoder.Burst{}, fmt.Errorf("%w: %v", ErrMalformedLine, err)
	}

	if len(fields) == 6 {
		if direction = protocol.ParseDirection(fields[5]); direction == protocol.DirectionUnknown {
			return decoder.Burst{}, fmt.Errorf("%w: direction %q", ErrMalformedLine, fields[5])
		}
	}

	return decoder.Burst{
		Protocol:  p,
		Type:      kind,
		Timeslot:  slot,
		Direction: direction,
		Timestamp: time.UnixMilli(millis).UTC(),
		Bits:      buf,
	}, nil
}

// FormatLine renders a burst in the capture line format. The bit count is
// written only when the payload does not fill its last byte.
func FormatLine(b decoder.Burst) string {
	kind := b.Type
	if kind == "" {
		kind = "-"
	}
	payload := b.Bits.Hex()
	if b.Bits.Size()%8 != 0 {
		payload += ":" + strconv.Itoa(b.Bits.Size())
	}
	line := fmt.Sprintf("%s %s %d %d %s", b.Protocol, kind, b.Timeslot, b.Timestamp.UnixMilli(), payload)
	if b.Direction != protocol.DirectionUnknown {
		line += " " + b.Direction.String()
	}
	return line
}

// Writer records bursts in the capture format.
type Writer struct {
	w     *bufio.Writer
	close func() error
}

// Create creates a capture file, compressing it when path ends in .zst.
func Create(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create capture %s: %w", path, err)
	}
	if !strings.HasSuffix(path, ".zst") {
		w := NewWriter(f)
		w.close = f.Close
		return w, nil
	}

	zw, err := zstd.NewWriter(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create zstd capture %s: %w", path, err)
	}
	w := NewWriter(zw)
	w.close = func() error {
		if err := zw.Close(); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	}
	return w, nil
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w), close: func() error { return nil }}
}

func (w *Writer) Write(b decoder.Burst) error {
	if _, err := w.w.WriteString(FormatLine(b) + "\n"); err != nil {
		return fmt.Errorf("write capture: %w", err)
	}
	return nil
}

// Close flushes buffered lines and closes the underlying file.
func (w *Writer) Close() error {
	if err := w.w.Flush(); err != nil {
		w.close()
		return fmt.Errorf("flush capture: %w", err)
	}
	return w.close()
}
