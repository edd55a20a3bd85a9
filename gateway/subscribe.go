package gateway

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"pkt.systems/pslog"

	"github.com/ad-astra-video/flow"
	"github.com/ad-astra-video/flow/sse"
)

// Subscription is a long-lived connection to the gateway's event-log feed.
// It owns the connection lifecycle (see [flow.ConnState]); decoded records
// are handed to the OnRecord callback in arrival order from a single
// reader goroutine.
//
// A caller-driven Disconnect sticks: the subscription stays disconnected,
// and any reconnect policy layered on top must wait for a later explicit
// Connect. Transport failures end in ConnError instead, which is also never
// auto-recovered.
type Subscription struct {
	url        string
	httpClient *http.Client
	useWS      bool
	log        pslog.Logger
	onRecord   func(flow.Record)

	mu      sync.Mutex
	state   flow.ConnState
	lastErr error
	manual  bool
	cancel  context.CancelFunc
	closer  func() error
	done    chan struct{}
}

// SubOption configures a [Subscription].
type SubOption func(*Subscription)

// WithWebSocket switches the subscription transport from SSE to WebSocket.
func WithWebSocket() SubOption {
	return func(s *Subscription) { s.useWS = true }
}

// WithSubscriptionHTTPClient sets a custom HTTP client for the SSE transport.
func WithSubscriptionHTTPClient(hc *http.Client) SubOption {
	return func(s *Subscription) { s.httpClient = hc }
}

// WithLogger sets a structured logger for connection events.
func WithLogger(l pslog.Logger) SubOption {
	return func(s *Subscription) { s.log = l }
}

// Subscribe creates a Subscription for url. onRecord receives every decoded
// record; it is called from the reader goroutine and must not block.
// The subscription starts disconnected; call Connect to open the transport.
func Subscribe(url string, onRecord func(flow.Record), opts ...SubOption) *Subscription {
	s := &Subscription{
		url:        url,
		httpClient: http.DefaultClient,
		onRecord:   onRecord,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// State returns the current connection state.
func (s *Subscription) State() flow.ConnState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns the most recent transport error, if any.
func (s *Subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Connect opens the transport. It is a no-op when already connected or
// connecting, so duplicate calls never open duplicate transports. From
// ConnError it behaves as a fresh connect.
func (s *Subscription) Connect(ctx context.Context) error {
	s.mu.Lock()
	if s.state == flow.ConnConnecting || s.state == flow.ConnConnected {
		s.mu.Unlock()
		return nil
	}
	s.state = flow.ConnConnecting
	s.manual = false
	s.lastErr = nil
	s.mu.Unlock()

	cctx, cancel := context.WithCancel(ctx)

	var (
		closer func() error
		start  func(done chan struct{})
		err    error
	)
	if s.useWS {
		closer, start, err = s.openWS(cctx)
	} else {
		closer, start, err = s.openSSE(cctx)
	}
	if err != nil {
		cancel()
		s.mu.Lock()
		// Leave a disconnect that landed during the dial untouched.
		if s.state == flow.ConnConnecting {
			s.state = flow.ConnError
			s.lastErr = err
		}
		s.mu.Unlock()
		if s.log != nil {
			s.log.Error("event feed connect failed", "url", s.url, "err", err)
		}
		return err
	}

	done := make(chan struct{})
	s.mu.Lock()
	if s.state != flow.ConnConnecting {
		// Disconnect won the race while the dial was in flight. Close the
		// transport that just opened and stay disconnected.
		s.mu.Unlock()
		cancel()
		_ = closer()
		return nil
	}
	s.cancel = cancel
	s.closer = closer
	s.done = done
	s.state = flow.ConnConnected
	s.mu.Unlock()

	if s.log != nil {
		s.log.Info("event feed connected", "url", s.url, "transport", s.transportName())
	}
	start(done)
	return nil
}

// Disconnect closes the transport if one is open, regardless of current
// state, and leaves the subscription disconnected. It is idempotent and is
// also the teardown path: component shutdown calls it to avoid leaking the
// connection.
func (s *Subscription) Disconnect() {
	s.mu.Lock()
	s.manual = true
	s.state = flow.ConnDisconnected
	cancel, closer, done := s.cancel, s.closer, s.done
	s.cancel, s.closer, s.done = nil, nil, nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if closer != nil {
		_ = closer()
	}
	if done != nil {
		select {
		case <-done:
		case <-time.After(time.Second):
		}
	}
}

func (s *Subscription) transportName() string {
	if s.useWS {
		return "ws"
	}
	return "sse"
}

// openSSE issues the GET and hands the body to a reader goroutine.
func (s *Subscription) openSSE(ctx context.Context) (func() error, func(chan struct{}), error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("gateway: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("gateway: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, nil, fmt.Errorf("gateway: event feed HTTP %d", resp.StatusCode)
	}

	start := func(done chan struct{}) {
		go s.readSSE(resp.Body, done)
	}
	return resp.Body.Close, start, nil
}

// readSSE decodes the event feed line by line: "data:" lines accumulate
// into one payload dispatched at the blank-line event boundary, and bare
// JSON lines are dispatched directly for newline-delimited feeds.
func (s *Subscription) readSSE(body io.ReadCloser, done chan struct{}) {
	defer close(done)
	defer body.Close()

	dec := sse.NewDecoder(body)
	var data strings.Builder

	for {
		line, err := dec.Next()
		if err != nil {
			s.transportClosed(err)
			return
		}

		if line == "" {
			if data.Len() > 0 {
				s.dispatch([]byte(data.String()))
				data.Reset()
			}
			continue
		}

		if strings.HasPrefix(line, "data:") {
			payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.WriteString(payload)
		} else if strings.HasPrefix(line, "{") {
			s.dispatch([]byte(line))
		}
	}
}

func (s *Subscription) dispatch(payload []byte) {
	if s.onRecord == nil {
		return
	}
	s.onRecord(DecodeRecord(payload, time.Now()))
}

// transportClosed records why the reader stopped. After a manual
// disconnect the state stays disconnected no matter how the transport
// reports the closure.
func (s *Subscription) transportClosed(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.manual || s.state == flow.ConnDisconnected {
		return
	}
	s.state = flow.ConnError
	if err == io.EOF {
		err = fmt.Errorf("gateway: event feed closed by server")
	}
	s.lastErr = err
	if s.log != nil {
		s.log.Warn("event feed lost", "url", s.url, "err", err)
	}
}
