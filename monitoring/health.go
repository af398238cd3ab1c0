package monitoring

import (
	"encoding/json"
	"net/http"
	"runtime"
	"sort"
	"sync"
	"time"

	"token_radar/metrics"
)

type HealthStatus struct {
	Status          string            `json:"status"`
	Uptime          string            `json:"uptime"`
	StartTime       time.Time         `json:"start_time"`
	MemoryUsage     uint64            `json:"memory_usage"`
	GoroutineCount  int               `json:"goroutine_count"`
	TicksApplied    uint64            `json:"ticks_applied"`
	TickErrors      uint64            `json:"tick_errors"`
	LastTick        *time.Time        `json:"last_tick,omitempty"`
	ComponentStatus map[string]string `json:"component_status"`
}

type Health struct {
	startTime time.Time

	mu     sync.RWMutex
	checks map[string]func() bool
}

func NewHealth() *Health {
	return &Health{
		startTime: time.Now(),
		checks:    make(map[string]func() bool),
	}
}

func (h *Health) RegisterHealthCheck(name string, check func() bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks[name] = check
}

func (h *Health) Status() HealthStatus {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	ticks, tickErrors, lastTick, _ := metrics.GetStats()

	status := HealthStatus{
		Status:          "ok",
		Uptime:          time.Since(h.startTime).Round(time.Second).String(),
		StartTime:       h.startTime,
		MemoryUsage:     m.Alloc,
		GoroutineCount:  runtime.NumGoroutine(),
		TicksApplied:    ticks,
		TickErrors:      tickErrors,
		ComponentStatus: make(map[string]string),
	}
	if !lastTick.IsZero() {
		status.LastTick = &lastTick
	}

	h.mu.RLock()
	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if h.checks[name]() {
			status.ComponentStatus[name] = "healthy"
		} else {
			status.ComponentStatus[name] = "unhealthy"
			status.Status = "degraded"
		}
	}
	h.mu.RUnlock()

	return status
}

func (h *Health) HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	status := h.Status()

	w.Header().Set("Content-Type", "application/json")
	if status.Status != "ok" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(status)
}
