// Package decoder routes demodulated bursts to the framer for their air
// interface and counts what comes out.
package decoder

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/dbehnke/lmrdecode/internal/bits"
	"github.com/dbehnke/lmrdecode/internal/metrics"
	"github.com/dbehnke/lmrdecode/internal/protocol"
	"github.com/dbehnke/lmrdecode/internal/protocol/dmr"
	"github.com/dbehnke/lmrdecode/internal/protocol/nxdn"
	"github.com/dbehnke/lmrdecode/internal/protocol/p25"
)

var (
	ErrUnsupportedProtocol = errors.New("unsupported protocol")
	ErrEmptyBurst          = errors.New("burst has no bits")
)

// Burst is one demodulated unit of air interface bits: a DMR burst, a P25
// data unit or an NXDN frame.
type Burst struct {
	Protocol protocol.Protocol
	// Type is the demodulator's label for the burst (VOICE_C, CSBK, LDU1,
	// TSBK ...). Empty lets the framer decide from the sync or NID.
	Type      string
	Timeslot  int
	Direction protocol.Direction
	Timestamp time.Time
	Bits      *bits.Buffer
}

type options struct {
	logger       *log.Logger
	metrics      *metrics.Metrics
	lcOptions    []dmr.LCOption
	aliasCharset string
}

// Option configures a Decoder.
type Option func(*options)

func WithLogger(logger *log.Logger) Option {
	return func(o *options) { o.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithLCOptions passes link control parity masks and residual overrides to
// the DMR link control factory.
func WithLCOptions(opts ...dmr.LCOption) Option {
	return func(o *options) { o.lcOptions = append(o.lcOptions, opts...) }
}

// WithAliasCharset selects the 8-bit DMR talker alias character set.
func WithAliasCharset(charset string) Option {
	return func(o *options) { o.aliasCharset = charset }
}

// Decoder holds one framer per protocol. Framers keep per channel
// reassembly state, so a Decoder should be fed bursts from one channel.
// It is safe for concurrent use.
type Decoder struct {
	logger  *log.Logger
	metrics *metrics.Metrics

	dmr  *dmr.Framer
	p25  *p25.Framer
	nxdn *nxdn.Framer
}

func New(opts ...Option) *Decoder {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = log.New(io.Discard)
	}
	lc := dmr.NewLCFactory(o.logger.WithPrefix("dmr"), o.lcOptions...)
	return &Decoder{
		logger:  o.logger,
		metrics: o.metrics,
		dmr:     dmr.NewFramer(o.logger.WithPrefix("dmr"), lc, o.aliasCharset),
		p25:     p25.NewFramer(o.logger.WithPrefix("p25")),
		nxdn:    nxdn.NewFramer(o.logger.WithPrefix("nxdn")),
	}
}

// Decode runs one burst through its framer. Radio errors never fail a
// decode; they show up as messages with Valid() == false. An error is only
// returned for a burst that cannot be routed.
func (d *Decoder) Decode(b Burst) ([]protocol.Message, error) {
	if b.Bits == nil {
		d.metrics.ObserveRejected("empty")
		return nil, ErrEmptyBurst
	}
	if b.Timestamp.IsZero() {
		b.Timestamp = time.Now()
	}

	var out []protocol.Message
	switch b.Protocol {
	case protocol.ProtocolDMR:
		out = d.dmr.Process(b.Bits, b.Type, b.Timeslot, b.Direction, b.Timestamp)
	case protocol.ProtocolP25:
		out = d.p25.Process(b.Bits, b.Type, b.Direction, b.Timestamp)
	case protocol.ProtocolNXDN:
		out = d.nxdn.Process(b.Bits, b.Direction, b.Timestamp)
	default:
		d.metrics.ObserveRejected("unsupported")
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProtocol, b.Protocol)
	}

	d.metrics.ObserveBurst(b.Protocol)
	for _, msg := range out {
		d.metrics.ObserveMessage(msg)
		if d.logger.GetLevel() <= log.DebugLevel {
			d.logger.Debug(msg.String(), "protocol", msg.Protocol().String(), "opcode", msg.Opcode(), "valid", msg.Valid())
		}
	}
	return out, nil
}

// ResetNXDN drops the tracked NXDN channel type, for use after retuning.
func (d *Decoder) ResetNXDN() {
	d.nxdn.Reset()
}
