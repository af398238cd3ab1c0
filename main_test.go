package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"token_radar/config"
	"token_radar/dashboard"
	"token_radar/models"
	"token_radar/parser"
	"token_radar/store"
	"token_radar/view"
	"token_radar/ws"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Simulation.TickInterval = time.Hour
	return cfg
}

func TestNewDashboard_SeedFile(t *testing.T) {
	seed := models.SeedTokens()
	seed[7].ID = seed[0].ID
	data, err := json.Marshal(seed)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "seed.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	cfg := testConfig()
	cfg.Simulation.SeedFile = path
	_, err = newDashboard(cfg)
	assert.ErrorIs(t, err, store.ErrDuplicateID)

	cfg.Simulation.SeedFile = ""
	cfg.Simulation.RandomSeed = 9
	d, err := newDashboard(cfg)
	require.NoError(t, err)
	defer d.Close()
	assert.Len(t, d.Tokens(), 8)
}

func TestNewHealth(t *testing.T) {
	d, err := newDashboard(testConfig())
	require.NoError(t, err)
	defer d.Close()

	health := newHealth(d)
	assert.Equal(t, "degraded", health.Status().Status)

	require.NoError(t, d.Start(context.Background()))
	status := health.Status()
	assert.Equal(t, "ok", status.Status)
	assert.Equal(t, "healthy", status.ComponentStatus["price_simulation"])
}

func TestRenderFrame(t *testing.T) {
	d, err := newDashboard(testConfig())
	require.NoError(t, err)
	defer d.Close()

	var out bytes.Buffer
	frame := d.View(view.Params{Filter: models.FilterTrending, SortBy: models.SortByMarketCap})
	renderFrame(&out, parser.Envelope{Type: parser.ViewFrame, View: &frame})

	text := out.String()
	assert.Contains(t, text, "TOKENS TRACKED 8")
	assert.Contains(t, text, "TOTAL MCAP $18.77M")
	assert.Contains(t, text, "filter=trending")
	assert.Less(t, strings.Index(text, "AXIOM"), strings.Index(text, "DAEMON"))
	assert.NotContains(t, text, "NEURAL")

	out.Reset()
	empty := d.View(view.Params{Filter: models.FilterAll, SearchQuery: "zzzz", SortBy: models.SortByMarketCap})
	renderFrame(&out, parser.Envelope{Type: parser.ViewFrame, View: &empty})
	assert.Contains(t, out.String(), "NO TOKENS FOUND")

	out.Reset()
	renderFrame(&out, parser.Envelope{Type: parser.ErrorFrame, Error: "invalid filter"})
	assert.Equal(t, "! invalid filter\n", out.String())
}

func TestRunWatch_FollowsLiveView(t *testing.T) {
	d, err := dashboard.New(models.SeedTokens(), time.Hour)
	require.NoError(t, err)
	hub := ws.NewHub(d, time.Second)
	server := httptest.NewServer(hub)
	t.Cleanup(func() {
		hub.Close()
		server.Close()
		d.Close()
	})

	cfg := testConfig()
	cfg.Watch.URL = "ws" + strings.TrimPrefix(server.URL, "http")
	cfg.Watch.Filter = "trending"
	cfg.Watch.SortBy = "change24h"

	ctx, cancel := context.WithCancel(context.Background())
	out := &syncBuffer{}
	done := make(chan error, 1)
	go func() { done <- runWatch(ctx, cfg, out) }()

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "sort=change24h")
	}, 3*time.Second, 10*time.Millisecond)

	require.NoError(t, d.Tick())
	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "] v1 ")
	}, 3*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("runWatch did not stop")
	}
}

func TestRunWatch_RejectsBadParams(t *testing.T) {
	cfg := testConfig()
	cfg.Watch.URL = "ws://127.0.0.1:1/ws"
	cfg.Watch.Filter = "inactive"

	err := runWatch(context.Background(), cfg, &bytes.Buffer{})
	assert.ErrorIs(t, err, models.ErrInvalidFilter)
}
