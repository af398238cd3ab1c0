package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"token_radar/dashboard"
	"token_radar/models"
	"token_radar/monitoring"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(t *testing.T) (http.Handler, *dashboard.Dashboard) {
	t.Helper()
	d, err := dashboard.New(models.SeedTokens(), time.Hour)
	require.NoError(t, err)
	t.Cleanup(d.Close)

	health := monitoring.NewHealth()
	health.RegisterHealthCheck("store", func() bool { return len(d.Tokens()) > 0 })
	return NewHandler(d, nil, health, true), d
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func decodeFrame(t *testing.T, rec *httptest.ResponseRecorder) dashboard.Frame {
	t.Helper()
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var frame dashboard.Frame
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &frame))
	return frame
}

func frameNames(f dashboard.Frame) []string {
	out := make([]string, len(f.Tokens))
	for i, tok := range f.Tokens {
		out[i] = tok.Name
	}
	return out
}

func TestTokens_Default(t *testing.T) {
	h, _ := newTestHandler(t)
	frame := decodeFrame(t, get(t, h, "/api/tokens"))

	assert.Equal(t, []string{
		"AXIOM", "DAEMON", "PULSENET", "NEURAL", "NEXUS-AI", "SYNTHEX", "VECTRA", "COGNET",
	}, frameNames(frame))
	assert.Equal(t, models.FilterAll, frame.Params.Filter)
	assert.Equal(t, models.SortByMarketCap, frame.Params.SortBy)
}

func TestTokens_Scenarios(t *testing.T) {
	h, _ := newTestHandler(t)

	frame := decodeFrame(t, get(t, h, "/api/tokens?filter=trending"))
	assert.Equal(t, []string{"AXIOM", "DAEMON"}, frameNames(frame))

	frame = decodeFrame(t, get(t, h, "/api/tokens?q=syn"))
	assert.Equal(t, []string{"SYNTHEX"}, frameNames(frame))

	frame = decodeFrame(t, get(t, h, "/api/tokens?sort=change24h"))
	names := frameNames(frame)
	assert.Equal(t, "AXIOM", names[0])
	assert.Equal(t, "COGNET", names[len(names)-1])

	frame = decodeFrame(t, get(t, h, "/api/tokens?q=zzzz"))
	assert.Empty(t, frame.Tokens)
	assert.Equal(t, 8, frame.Stats.TotalTokens)
	assert.Equal(t, 2, frame.Stats.TrendingCount)
}

func TestTokens_InvalidParams(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := get(t, h, "/api/tokens?filter=inactive")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid filter")

	rec = get(t, h, "/api/tokens?sort=price")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid sort key")
}

func TestTokens_MethodNotAllowed(t *testing.T) {
	h, _ := newTestHandler(t)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/tokens", strings.NewReader("{}")))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestStats(t *testing.T) {
	h, d := newTestHandler(t)
	require.NoError(t, d.Tick())

	rec := get(t, h, "/api/stats")
	require.Equal(t, http.StatusOK, rec.Code)

	var stats models.Stats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, models.Stats{
		TotalTokens:    8,
		TotalMarketCap: 18770000,
		TrendingCount:  2,
		ActiveAgents:   8,
	}, stats)
}

func TestOptions(t *testing.T) {
	h, _ := newTestHandler(t)
	rec := get(t, h, "/api/options")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{
		"filters": ["all","trending","new","active"],
		"sortKeys": ["marketCap","change24h","launchDate"],
		"defaults": {"filter":"all","searchQuery":"","sortBy":"marketCap"}
	}`, rec.Body.String())
}

func TestHealthAndMetrics(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := get(t, h, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"store":"healthy"`)

	rec = get(t, h, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "token_radar_")
}

func TestCORSPreflight(t *testing.T) {
	h, _ := newTestHandler(t)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/tokens", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
