package ws

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"token_radar/parser"

	"github.com/gorilla/websocket"
)

// Client is a live view consumer. It dials a Hub, forwards parameter
// changes and hands every decoded frame to OnFrame.
type Client struct {
	url     string
	Headers map[string]string
	OnFrame func(parser.Envelope)

	mu   sync.Mutex
	conn *websocket.Conn
}

func NewClient(url string, headers map[string]string) *Client {
	return &Client{
		url:     url,
		Headers: headers,
	}
}

func (c *Client) Connect(ctx context.Context) error {
	dialer := websocket.Dialer{
		HandshakeTimeout: 5 * time.Second,
	}

	conn, resp, err := dialer.DialContext(ctx, c.url, c.getHttpHeaders())
	if err != nil {
		if resp != nil {
			return fmt.Errorf("dial %s: %w (status %d)", c.url, err, resp.StatusCode)
		}
		return fmt.Errorf("dial %s: %w", c.url, err)
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	return nil
}

func (c *Client) getHttpHeaders() http.Header {
	headers := http.Header{}
	for key, value := range c.Headers {
		headers.Set(key, value)
	}
	return headers
}

func (c *Client) current() (*websocket.Conn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil, fmt.Errorf("websocket is not connected")
	}
	return c.conn, nil
}

// Send asks the hub to change one view parameter.
func (c *Client) Send(kind, value string) error {
	conn, err := c.current()
	if err != nil {
		return err
	}
	payload, err := parser.EncodeCommand(kind, value)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.TextMessage, payload)
}

// Listen reads frames until the connection fails or ctx is cancelled.
// It returns nil only when ctx ends the session.
func (c *Client) Listen(ctx context.Context) error {
	conn, err := c.current()
	if err != nil {
		return err
	}

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read: %w", err)
		}

		env, err := parser.DecodeEnvelope(message)
		if err != nil {
			return err
		}
		if c.OnFrame != nil {
			c.OnFrame(env)
		}
	}
}

func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		c.conn.Close()
		c.conn = nil
	}
}
