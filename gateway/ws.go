package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
)

// openWS dials the event feed over WebSocket. Each text message is one
// record payload, fed through the same decode pipeline as the SSE frames.
func (s *Subscription) openWS(ctx context.Context) (func() error, func(chan struct{}), error) {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}

	conn, resp, err := dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		if resp != nil {
			return nil, nil, fmt.Errorf("gateway: event feed HTTP %d: %w", resp.StatusCode, err)
		}
		return nil, nil, fmt.Errorf("gateway: %w", err)
	}

	closer := func() error {
		// Best-effort close handshake before dropping the connection.
		_ = conn.WriteMessage(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		)
		return conn.Close()
	}
	start := func(done chan struct{}) {
		go s.readWS(conn, done)
	}
	return closer, start, nil
}

func (s *Subscription) readWS(conn *websocket.Conn, done chan struct{}) {
	defer close(done)
	defer conn.Close()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				err = fmt.Errorf("gateway: event feed closed by server")
			}
			s.transportClosed(err)
			return
		}
		s.dispatch(message)
	}
}
