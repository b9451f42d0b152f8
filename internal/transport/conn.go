package transport

import (
	"context"

	"github.com/coder/websocket"
)

// Conn is a single established connection to the serving side. The channel
// owns the connection lifecycle; implementations only move frames.
type Conn interface {
	// Read blocks until the next text frame arrives.
	Read(ctx context.Context) ([]byte, error)

	// Write sends a single text frame.
	Write(ctx context.Context, data []byte) error

	Close() error
}

// Dialer opens a connection to the given URL. The channel uses it for the
// initial connect and for every reconnect attempt.
type Dialer func(ctx context.Context, url string) (Conn, error)

// DialWebSocket is the default dialer, opening a WebSocket connection.
func DialWebSocket(ctx context.Context, url string) (Conn, error) {
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	return &wsConn{conn: conn}, nil
}

type wsConn struct {
	conn *websocket.Conn
}

func (c *wsConn) Read(ctx context.Context) ([]byte, error) {
	for {
		typ, data, err := c.conn.Read(ctx)
		if err != nil {
			return nil, err
		}
		if typ != websocket.MessageText {
			continue // the protocol is JSON text frames only
		}
		return data, nil
	}
}

func (c *wsConn) Write(ctx context.Context, data []byte) error {
	return c.conn.Write(ctx, websocket.MessageText, data)
}

func (c *wsConn) Close() error {
	return c.conn.Close(websocket.StatusNormalClosure, "")
}
