// SPDX-License-Identifier: EPL-2.0

package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ik5/pcmstream/request"
)

const namespace = "pcmstream"

var kinds = [...]request.Kind{request.KindRead, request.KindSeek, request.KindClose}

// Metrics holds the Prometheus instruments of one engine. A nil *Metrics
// records nothing.
type Metrics struct {
	RequestDuration *prometheus.HistogramVec
	RequestFailures *prometheus.CounterVec
	QueueDrops      *prometheus.CounterVec
	QueueDepth      prometheus.Gauge
	UnderrunEvents  *prometheus.CounterVec
	UnderrunSamples *prometheus.CounterVec
	VoicesPlaying   prometheus.Gauge
	RenderDuration  prometheus.Histogram

	// Resolved per kind up front; drops are reported from the render
	// goroutine and must not allocate.
	duration [len(kinds)]prometheus.Observer
	failures [len(kinds)]prometheus.Counter
	drops    [len(kinds)]prometheus.Counter
}

var _ request.Observer = (*Metrics)(nil)

// NewMetrics creates the instruments and registers them with reg. A nil
// reg leaves them unregistered, which is what tests usually want.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	m := &Metrics{
		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Time spent serving a file request.",
			Buckets:   []float64{0.00005, 0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.05},
		}, []string{"kind"}),
		RequestFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "request_failures_total",
			Help:      "File requests that returned an error.",
		}, []string{"kind"}),
		QueueDrops: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queue_drops_total",
			Help:      "Requests dropped because the queue was full.",
		}, []string{"kind"}),
		QueueDepth: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_depth",
			Help:      "Requests waiting in the queue.",
		}),
		UnderrunEvents: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "underrun_events_total",
			Help:      "Contiguous runs of empty reads.",
		}, []string{"voice"}),
		UnderrunSamples: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "underrun_samples_total",
			Help:      "Samples rendered as silence because a buffer was empty.",
		}, []string{"voice"}),
		VoicesPlaying: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "voices_playing",
			Help:      "Voices currently producing their stream.",
		}),
		RenderDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "render_block_duration_seconds",
			Help:      "Time spent rendering one block.",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 2, 12),
		}),
	}

	for i, k := range kinds {
		m.duration[i] = m.RequestDuration.WithLabelValues(k.String())
		m.failures[i] = m.RequestFailures.WithLabelValues(k.String())
		m.drops[i] = m.QueueDrops.WithLabelValues(k.String())
	}

	return m
}

// RequestHandled implements request.Observer.
func (m *Metrics) RequestHandled(kind request.Kind, elapsed time.Duration, err error) {
	if m == nil || int(kind) >= len(kinds) {
		return
	}

	m.duration[kind].Observe(elapsed.Seconds())
	if err != nil {
		m.failures[kind].Inc()
	}
}

// RequestDropped implements request.Observer.
func (m *Metrics) RequestDropped(kind request.Kind) {
	if m == nil || int(kind) >= len(kinds) {
		return
	}

	m.drops[kind].Inc()
}

// SetQueueDepth records the number of queued requests.
func (m *Metrics) SetQueueDepth(n int) {
	if m == nil {
		return
	}

	m.QueueDepth.Set(float64(n))
}

// AddUnderruns adds the underrun counters drained from one voice.
func (m *Metrics) AddUnderruns(voice string, events, samples uint64) {
	if m == nil || (events == 0 && samples == 0) {
		return
	}

	m.UnderrunEvents.WithLabelValues(voice).Add(float64(events))
	m.UnderrunSamples.WithLabelValues(voice).Add(float64(samples))
}

// SetPlaying records the number of playing voices.
func (m *Metrics) SetPlaying(n int) {
	if m == nil {
		return
	}

	m.VoicesPlaying.Set(float64(n))
}

// ObserveRender records the duration of one render block.
func (m *Metrics) ObserveRender(d time.Duration) {
	if m == nil {
		return
	}

	m.RenderDuration.Observe(d.Seconds())
}
