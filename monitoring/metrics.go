package monitoring

import (
	"context"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// System resources
	MemoryUsage = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "token_radar_memory_bytes",
		Help: "Current memory usage in bytes",
	})

	GoroutineCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "token_radar_goroutines",
		Help: "Current number of goroutines",
	})

	// Store contents
	TokensTracked = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "token_radar_tokens_tracked",
		Help: "Tokens held in the store",
	})

	TotalMarketCap = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "token_radar_total_market_cap_usd",
		Help: "Sum of market cap over all tracked tokens",
	})

	TrendingTokens = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "token_radar_trending_tokens",
		Help: "Tracked tokens with trending status",
	})
)

// StoreStats reports the store aggregates published as gauges.
type StoreStats func() (tokens int, totalMarketCap float64, trending int)

// StartMetricsCollection refreshes the gauges every interval until ctx ends.
func StartMetricsCollection(ctx context.Context, interval time.Duration, stats StoreStats) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		collectSystemMetrics(stats)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				collectSystemMetrics(stats)
			}
		}
	}()
}

func collectSystemMetrics(stats StoreStats) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	MemoryUsage.Set(float64(m.Alloc))
	GoroutineCount.Set(float64(runtime.NumGoroutine()))

	if stats != nil {
		tokens, mcap, trending := stats()
		TokensTracked.Set(float64(tokens))
		TotalMarketCap.Set(mcap)
		TrendingTokens.Set(float64(trending))
	}
}
