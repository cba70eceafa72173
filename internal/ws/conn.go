package ws

import (
	"context"
	"net/http"

	"nhooyr.io/websocket"
)

// Conn wraps one player's websocket with a buffered outbound queue
type Conn struct {
	ws  *websocket.Conn
	out chan []byte
}

// Accept upgrades HTTP to websocket (allow all origins)
func Accept(w http.ResponseWriter, r *http.Request) (*websocket.Conn, error) {
	return websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns:  []string{"*"},
		CompressionMode: websocket.CompressionDisabled,
	})
}

// NewConn wraps a freshly accepted websocket
func NewConn(ws *websocket.Conn) *Conn {
	return &Conn{ws: ws, out: make(chan []byte, 256)}
}

// Read blocks until it receives a text/binary message
// Returns false if the connection is closed
func (c *Conn) Read(ctx context.Context) ([]byte, bool) {
	for {
		typ, data, err := c.ws.Read(ctx)
		if err != nil {
			return nil, false
		}
		if typ == websocket.MessageText || typ == websocket.MessageBinary {
			return data, true
		}
	}
}

// WriteLoop drains outbound messages until ctx is cancelled
func (c *Conn) WriteLoop(ctx context.Context) {
	for {
		select {
		case b := <-c.out:
			_ = c.ws.Write(ctx, websocket.MessageText, b)
		case <-ctx.Done():
			return
		}
	}
}

// Send enqueues without blocking; a slow client drops frames rather than
// stalling a broadcast
func (c *Conn) Send(b []byte) {
	select {
	case c.out <- b:
	default:
	}
}

// Ping blocks until the peer answers or ctx expires. A nil return means the
// connection passed the liveness probe.
func (c *Conn) Ping(ctx context.Context) error { return c.ws.Ping(ctx) }

// Close closes the websocket normally
func (c *Conn) Close() error { return c.ws.Close(websocket.StatusNormalClosure, "bye") }
