package ws

import (
	"context"
	"net/http"
	"sync"
	"time"

	"token_radar/dashboard"
	"token_radar/metrics"
	"token_radar/parser"
	"token_radar/utils"
	"token_radar/view"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	HeartbeatInterval = 10 * time.Second
	writeWait         = 10 * time.Second
	maxMessageSize    = 4096
)

// Hub serves the live view over websocket. Every connection owns its own
// view parameters and gets a fresh frame on connect, after each accepted
// command and after each tick.
type Hub struct {
	dash      *dashboard.Dashboard
	upgrader  websocket.Upgrader
	heartbeat time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu    sync.Mutex
	conns map[string]*websocket.Conn
}

func NewHub(d *dashboard.Dashboard, heartbeat time.Duration) *Hub {
	if heartbeat <= 0 {
		heartbeat = HeartbeatInterval
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		dash: d,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		heartbeat: heartbeat,
		ctx:       ctx,
		cancel:    cancel,
		conns:     make(map[string]*websocket.Conn),
	}
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params, err := view.ParseParams(q.Get("filter"), q.Get("q"), q.Get("sort"))
	if err != nil {
		metrics.IncrementRequestErrors("invalid_params")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error
		utils.Error(err, "Websocket upgrade failed", "remote_addr", r.RemoteAddr)
		return
	}

	id := uuid.New().String()
	if !h.register(id, conn) {
		conn.Close()
		return
	}

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		defer h.unregister(id)
		h.serve(id, conn, view.NewState(params))
	}()
}

func (h *Hub) register(id string, conn *websocket.Conn) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.ctx.Err() != nil {
		return false
	}
	h.conns[id] = conn
	metrics.SubscriberConnected()
	return true
}

func (h *Hub) unregister(id string) {
	h.mu.Lock()
	conn, ok := h.conns[id]
	delete(h.conns, id)
	h.mu.Unlock()

	if ok {
		conn.Close()
		metrics.SubscriberDisconnected()
	}
}

func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// Close disconnects every client and waits for their goroutines.
func (h *Hub) Close() {
	h.cancel()

	h.mu.Lock()
	for _, conn := range h.conns {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
			time.Now().Add(time.Second))
		conn.Close()
	}
	h.mu.Unlock()

	h.wg.Wait()
}

func (h *Hub) serve(id string, conn *websocket.Conn, state *view.State) {
	ticks, unsubscribe := h.dash.Subscribe()
	defer unsubscribe()

	commands := make(chan []byte)
	readErr := make(chan error, 1)
	done := make(chan struct{})
	defer close(done)
	go h.readLoop(conn, commands, readErr, done)

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	log := utils.Logger.With("subscriber_id", id)
	log.Infow("Live view subscriber connected", "params", state.Get())

	if err := h.sendView(conn, state); err != nil {
		log.Warnw("Initial frame failed", "error", err)
		return
	}

	for {
		select {
		case <-h.ctx.Done():
			return

		case err := <-readErr:
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warnw("Live view subscriber dropped", "error", err)
			} else {
				log.Infow("Live view subscriber disconnected")
			}
			return

		case raw := <-commands:
			cmd, err := parser.ParseCommand(raw)
			if err != nil {
				metrics.IncrementRequestErrors("invalid_command")
				if err := h.sendError(conn, err); err != nil {
					return
				}
				continue
			}
			cmd.Apply(state)
			log.Debugw("View parameters changed", "command", cmd.Type, "value", cmd.Value)
			if err := h.sendView(conn, state); err != nil {
				return
			}

		case _, ok := <-ticks:
			if !ok {
				return
			}
			if err := h.sendView(conn, state); err != nil {
				log.Warnw("Tick frame failed", "error", err)
				return
			}

		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				log.Warnw("Failed to send heartbeat", "error", err)
				return
			}
		}
	}
}

func (h *Hub) readLoop(conn *websocket.Conn, out chan<- []byte, errc chan<- error, done <-chan struct{}) {
	pongWait := 3 * h.heartbeat
	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			errc <- err
			return
		}
		conn.SetReadDeadline(time.Now().Add(pongWait))
		select {
		case out <- message:
		case <-done:
			return
		}
	}
}

func (h *Hub) sendView(conn *websocket.Conn, state *view.State) error {
	payload, err := parser.EncodeView(h.dash.View(state.Get()))
	if err != nil {
		return err
	}
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.TextMessage, payload)
}

func (h *Hub) sendError(conn *websocket.Conn, cause error) error {
	payload, err := parser.EncodeError(cause)
	if err != nil {
		return err
	}
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.TextMessage, payload)
}
