package metrics

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Prometheus metrics
	ticksAppliedMetric = promauto.NewCounter(prometheus.CounterOpts{
		Name: "token_radar_ticks_applied_total",
		Help: "The total number of simulated price ticks applied to the store",
	})

	tickErrorsMetric = promauto.NewCounter(prometheus.CounterOpts{
		Name: "token_radar_tick_errors_total",
		Help: "Ticks that failed or panicked and were not applied",
	})

	tickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "token_radar_tick_seconds",
		Help:    "Time spent applying one tick batch",
		Buckets: prometheus.ExponentialBuckets(0.00001, 4, 8),
	})

	deriveDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "token_radar_derive_seconds",
		Help:    "Time spent deriving a view",
		Buckets: prometheus.ExponentialBuckets(0.00001, 4, 8),
	}, []string{"sort_by"})

	viewSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "token_radar_view_tokens",
		Help:    "Number of tokens in each derived view",
		Buckets: prometheus.LinearBuckets(0, 2, 10),
	})

	subscribersMetric = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "token_radar_ws_subscribers",
		Help: "Currently connected live view subscribers",
	})

	droppedNotifications = promauto.NewCounter(prometheus.CounterOpts{
		Name: "token_radar_tick_notifications_coalesced_total",
		Help: "Tick notifications merged because a subscriber had not read the previous one",
	})

	requestErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "token_radar_request_errors_total",
		Help: "Rejected or failed requests by type",
	}, []string{"type"})

	// Internal counters
	ticksApplied uint64
	tickErrors   uint64
	lastTick     atomic.Int64
	startTime    = time.Now()
)

func IncrementTicks() {
	atomic.AddUint64(&ticksApplied, 1)
	ticksAppliedMetric.Inc()
	lastTick.Store(time.Now().UnixNano())
}

func IncrementTickErrors() {
	atomic.AddUint64(&tickErrors, 1)
	tickErrorsMetric.Inc()
}

func RecordTickDuration(duration time.Duration) {
	tickDuration.Observe(duration.Seconds())
}

func RecordDerive(sortBy string, duration time.Duration, tokens int) {
	deriveDuration.WithLabelValues(sortBy).Observe(duration.Seconds())
	viewSize.Observe(float64(tokens))
}

func SubscriberConnected() {
	subscribersMetric.Inc()
}

func SubscriberDisconnected() {
	subscribersMetric.Dec()
}

func IncrementCoalesced() {
	droppedNotifications.Inc()
}

func IncrementRequestErrors(kind string) {
	requestErrors.WithLabelValues(kind).Inc()
}

// GetStats returns ticks applied, tick errors, time of last tick and uptime.
func GetStats() (uint64, uint64, time.Time, time.Duration) {
	var last time.Time
	if ns := lastTick.Load(); ns != 0 {
		last = time.Unix(0, ns)
	}
	return atomic.LoadUint64(&ticksApplied),
		atomic.LoadUint64(&tickErrors),
		last,
		time.Since(startTime)
}
