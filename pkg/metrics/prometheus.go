package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	ticksIngested *prometheus.CounterVec
	ticksDropped  *prometheus.CounterVec
	candlesClosed *prometheus.CounterVec
	alertsFired   *prometheus.CounterVec
	errorsTotal   *prometheus.CounterVec
	lastPrice     *prometheus.GaugeVec
	latency       *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		ticksIngested: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pairstream_ticks_ingested_total",
				Help: "Total number of ticks accepted from the stream",
			},
			[]string{"symbol"},
		),
		ticksDropped: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pairstream_ticks_dropped_total",
				Help: "Total number of ticks dropped",
			},
			[]string{"reason"},
		),
		candlesClosed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pairstream_candles_closed_total",
				Help: "Total number of candles closed",
			},
			[]string{"symbol", "timeframe"},
		),
		alertsFired: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pairstream_alerts_triggered_total",
				Help: "Total number of alert triggers",
			},
			[]string{"rule"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pairstream_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastPrice: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "pairstream_last_price",
				Help: "Last recorded price for a symbol",
			},
			[]string{"symbol"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pairstream_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordTickIngested counts one accepted tick.
func (r *Recorder) RecordTickIngested(symbol string) {
	r.ticksIngested.WithLabelValues(symbol).Inc()
}

// RecordTickDropped counts one dropped tick with its reason.
func (r *Recorder) RecordTickDropped(reason string) {
	r.ticksDropped.WithLabelValues(reason).Inc()
}

// RecordCandleClosed counts one closed candle.
func (r *Recorder) RecordCandleClosed(symbol, tf string) {
	r.candlesClosed.WithLabelValues(symbol, tf).Inc()
}

// RecordAlertTriggered counts one alert trigger.
func (r *Recorder) RecordAlertTriggered(rule string) {
	r.alertsFired.WithLabelValues(rule).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLastPrice records the last price for a symbol.
func (r *Recorder) RecordLastPrice(symbol string, price float64) {
	r.lastPrice.WithLabelValues(symbol).Set(price)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
