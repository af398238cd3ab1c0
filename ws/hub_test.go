package ws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"token_radar/dashboard"
	"token_radar/models"
	"token_radar/parser"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	dash   *dashboard.Dashboard
	hub    *Hub
	server *httptest.Server
	url    string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	d, err := dashboard.New(models.SeedTokens(), time.Hour)
	require.NoError(t, err)

	hub := NewHub(d, 50*time.Millisecond)
	server := httptest.NewServer(hub)

	t.Cleanup(func() {
		hub.Close()
		server.Close()
		d.Close()
	})
	return &harness{
		dash:   d,
		hub:    hub,
		server: server,
		url:    "ws" + strings.TrimPrefix(server.URL, "http"),
	}
}

func connect(t *testing.T, url string) (*Client, <-chan parser.Envelope, context.CancelFunc) {
	t.Helper()
	frames := make(chan parser.Envelope, 16)
	client := NewClient(url, nil)
	client.OnFrame = func(env parser.Envelope) { frames <- env }

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, client.Connect(ctx))

	go client.Listen(ctx)
	t.Cleanup(func() {
		cancel()
		client.Close()
	})
	return client, frames, cancel
}

func next(t *testing.T, frames <-chan parser.Envelope) parser.Envelope {
	t.Helper()
	select {
	case env := <-frames:
		return env
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for frame")
		return parser.Envelope{}
	}
}

func tokenNames(env parser.Envelope) []string {
	out := make([]string, 0, len(env.View.Tokens))
	for _, tok := range env.View.Tokens {
		out = append(out, tok.Name)
	}
	return out
}

func TestHub_InitialFrameUsesQueryParams(t *testing.T) {
	h := newHarness(t)
	_, frames, _ := connect(t, h.url+"?filter=trending")

	env := next(t, frames)
	require.Equal(t, parser.ViewFrame, env.Type)
	assert.Equal(t, []string{"AXIOM", "DAEMON"}, tokenNames(env))
	assert.Equal(t, models.FilterTrending, env.View.Params.Filter)
	assert.Equal(t, 8, env.View.Stats.TotalTokens)
}

func TestHub_RejectsBadQueryParams(t *testing.T) {
	h := newHarness(t)

	_, resp, err := websocket.DefaultDialer.Dial(h.url+"?sort=holders", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHub_CommandsChangeOnlyThatConnection(t *testing.T) {
	h := newHarness(t)
	a, framesA, _ := connect(t, h.url)
	_, framesB, _ := connect(t, h.url)

	next(t, framesA)
	next(t, framesB)

	require.NoError(t, a.Send(parser.SetSearchQuery, "syn"))
	env := next(t, framesA)
	assert.Equal(t, []string{"SYNTHEX"}, tokenNames(env))

	require.NoError(t, a.Send(parser.SetFilter, "inactive"))
	env = next(t, framesA)
	assert.Equal(t, parser.ErrorFrame, env.Type)
	assert.Contains(t, env.Error, "invalid filter")

	// B still sees the default view after a tick.
	require.NoError(t, h.dash.Tick())
	envB := next(t, framesB)
	assert.Len(t, envB.View.Tokens, 8)
	assert.Equal(t, uint64(1), envB.View.Version)

	envA := next(t, framesA)
	assert.Equal(t, []string{"SYNTHEX"}, tokenNames(envA))
	assert.Equal(t, uint64(1), envA.View.Version)
}

func TestHub_EmptyViewKeepsStats(t *testing.T) {
	h := newHarness(t)
	c, frames, _ := connect(t, h.url)
	first := next(t, frames)

	require.NoError(t, c.Send(parser.SetSearchQuery, "zzzz"))
	env := next(t, frames)
	assert.Empty(t, env.View.Tokens)
	assert.Equal(t, first.View.Stats, env.View.Stats)

	require.NoError(t, c.Send(parser.SetSearchQuery, ""))
	env = next(t, frames)
	assert.Len(t, env.View.Tokens, 8)
}

func TestHub_CloseDisconnectsClients(t *testing.T) {
	h := newHarness(t)
	_, frames, _ := connect(t, h.url)
	next(t, frames)
	require.Eventually(t, func() bool { return h.hub.Count() == 1 }, time.Second, 5*time.Millisecond)

	h.hub.Close()
	assert.Equal(t, 0, h.hub.Count())

	// New connections are refused after Close.
	conn, _, err := websocket.DefaultDialer.Dial(h.url, nil)
	if err == nil {
		conn.SetReadDeadline(time.Now().Add(time.Second))
		_, _, err = conn.ReadMessage()
		conn.Close()
	}
	assert.Error(t, err)
}

func TestClient_SendWithoutConnect(t *testing.T) {
	c := NewClient("ws://127.0.0.1:1/ws", nil)
	assert.Error(t, c.Send(parser.SetFilter, "all"))
	assert.Error(t, c.Listen(context.Background()))
	c.Close()
}
