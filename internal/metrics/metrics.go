package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dbehnke/lmrdecode/internal/protocol"
)

const namespace = "lmrdecode"

// Metrics holds the decode counters. All methods are safe for concurrent
// use and a nil *Metrics records nothing.
type Metrics struct {
	gatherer prometheus.Gatherer

	burstsTotal    *prometheus.CounterVec // Bursts handed to the decoder (by protocol)
	messagesTotal  *prometheus.CounterVec // Messages produced (by protocol, opcode)
	validTotal     *prometheus.CounterVec // Messages that passed their checks (by protocol)
	invalidTotal   *prometheus.CounterVec // Messages that failed their checks (by protocol)
	correctedBits  *prometheus.HistogramVec
	rejectedTotal  *prometheus.CounterVec // Bursts refused before decoding (by reason)
	publishedTotal prometheus.Counter
	publishErrors  prometheus.Counter
}

// New registers the decode metrics with reg. A nil reg uses a fresh
// private registry so that tests and multiple instances do not collide.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)
	return &Metrics{
		gatherer: reg,
		burstsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bursts_total",
			Help:      "Bursts handed to the decoder",
		}, []string{"protocol"}),
		messagesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_total",
			Help:      "Messages decoded",
		}, []string{"protocol", "opcode"}),
		validTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_valid_total",
			Help:      "Messages that passed error detection",
		}, []string{"protocol"}),
		invalidTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_invalid_total",
			Help:      "Messages that failed error detection",
		}, []string{"protocol"}),
		correctedBits: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "corrected_bits",
			Help:      "Bits repaired by forward error correction per message",
			Buckets:   []float64{0, 1, 2, 3, 4, 6, 8, 12, 16},
		}, []string{"protocol"}),
		rejectedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bursts_rejected_total",
			Help:      "Bursts that could not be decoded at all",
		}, []string{"reason"}),
		publishedTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "published_total",
			Help:      "Messages published to the broker",
		}),
		publishErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_errors_total",
			Help:      "Messages the broker did not accept",
		}),
	}
}

// corrected is implemented by messages that report how many bits error
// correction repaired.
type corrected interface {
	CorrectedBitCount() int
}

// ObserveBurst counts one burst for p.
func (m *Metrics) ObserveBurst(p protocol.Protocol) {
	if m == nil {
		return
	}
	m.burstsTotal.WithLabelValues(p.String()).Inc()
}

// ObserveMessage counts msg and, when it carries one, its corrected bit count.
func (m *Metrics) ObserveMessage(msg protocol.Message) {
	if m == nil {
		return
	}
	p := msg.Protocol().String()
	m.messagesTotal.WithLabelValues(p, msg.Opcode()).Inc()
	if msg.Valid() {
		m.validTotal.WithLabelValues(p).Inc()
	} else {
		m.invalidTotal.WithLabelValues(p).Inc()
	}
	if c, ok := msg.(corrected); ok {
		m.correctedBits.WithLabelValues(p).Observe(float64(c.CorrectedBitCount()))
	}
}

// ObserveRejected counts a burst the decoder refused.
func (m *Metrics) ObserveRejected(reason string) {
	if m == nil {
		return
	}
	m.rejectedTotal.WithLabelValues(reason).Inc()
}

// ObservePublish counts one publish attempt.
func (m *Metrics) ObservePublish(err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.publishErrors.Inc()
		return
	}
	m.publishedTotal.Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
