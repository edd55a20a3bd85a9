package gateway_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ad-astra-video/flow"
	"github.com/ad-astra-video/flow/gateway"
)

// sseResponse builds a streaming gateway response for tests.
type sseResponse struct {
	lines []string
}

func (s sseResponse) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		flusher, _ := w.(http.Flusher)
		for _, line := range s.lines {
			fmt.Fprintf(w, "%s\n", line)
			if flusher != nil {
				flusher.Flush()
			}
		}
	}
}

func helloWorldResponse() sseResponse {
	return sseResponse{lines: []string{
		`data: {"choices":[{"delta":{"content":"Hello"}}]}`,
		`data: {"choices":[{"delta":{"content":" world"}}]}`,
		`data: [DONE]`,
	}}
}

func openStream(t *testing.T, handler http.HandlerFunc) flow.Stream {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client := gateway.New(srv.URL)
	stream, err := client.Open(context.Background(), flow.Request{
		Path:       "/process/request/text",
		Capability: "text-generation",
		Prompt:     "Hi",
	})
	require.NoError(t, err)
	t.Cleanup(func() { stream.Close() })
	return stream
}

func drain(t *testing.T, s flow.Stream) ([]flow.Event, error) {
	t.Helper()
	var events []flow.Event
	for {
		evt, err := s.Next()
		if err == io.EOF {
			return events, nil
		}
		if err != nil {
			return events, err
		}
		events = append(events, evt)
	}
}

func TestOpen_StreamingAccumulatesDeltas(t *testing.T) {
	t.Parallel()

	s := openStream(t, helloWorldResponse().handler())

	events, err := drain(t, s)
	require.NoError(t, err)
	assert.Equal(t, []flow.Event{
		flow.EventContentDelta{Delta: "Hello"},
		flow.EventContentDelta{Delta: " world"},
	}, events)

	assert.Equal(t, flow.StreamStateComplete, s.State())
	text, err := s.Text()
	require.NoError(t, err)
	assert.Equal(t, "Hello world", text)
}

func TestOpen_PayloadDoneFlagCompletes(t *testing.T) {
	t.Parallel()

	// No [DONE] sentinel: the payload-level flag on the last chunk is the
	// only completion signal.
	s := openStream(t, sseResponse{lines: []string{
		`data: {"choices":[{"delta":{"content":"partial"}}]}`,
		`data: {"choices":[{"delta":{"content":" end"}}],"done":true}`,
	}}.handler())

	events, err := drain(t, s)
	require.NoError(t, err)
	assert.Len(t, events, 2)
	assert.Equal(t, flow.StreamStateComplete, s.State())
	text, _ := s.Text()
	assert.Equal(t, "partial end", text)
}

func TestOpen_GarbageLineBecomesLiteralText(t *testing.T) {
	t.Parallel()

	s := openStream(t, sseResponse{lines: []string{
		`data: some-garbage-not-json`,
		`data: [DONE]`,
	}}.handler())

	events, err := drain(t, s)
	require.NoError(t, err)
	assert.Equal(t, []flow.Event{flow.EventContentDelta{Delta: "some-garbage-not-json"}}, events)
	text, _ := s.Text()
	assert.Equal(t, "some-garbage-not-json", text)
}

func TestOpen_HeartbeatLinesNeverContribute(t *testing.T) {
	t.Parallel()

	s := openStream(t, sseResponse{lines: []string{
		`data: {"balance":"3.50"}`,
		`data: {"choices":[{"delta":{"content":"story"}}]}`,
		`data: {"balance":"3.49"}`,
		`data: [DONE]`,
	}}.handler())

	events, err := drain(t, s)
	require.NoError(t, err)
	assert.Equal(t, []flow.Event{flow.EventContentDelta{Delta: "story"}}, events)
	text, _ := s.Text()
	assert.Equal(t, "story", text)
}

func TestOpen_MidStreamFailureKeepsPartialText(t *testing.T) {
	t.Parallel()

	// The server drops the connection after two deltas with no completion
	// signal. The stream ends in error, but the deltas stay readable.
	s := openStream(t, sseResponse{lines: []string{
		`data: {"choices":[{"delta":{"content":"Hello"}}]}`,
		`data: {"choices":[{"delta":{"content":" world"}}]}`,
	}}.handler())

	events, err := drain(t, s)
	require.Error(t, err)
	assert.Len(t, events, 2)
	assert.Equal(t, flow.StreamStateError, s.State())

	text, terr := s.Text()
	require.NoError(t, terr)
	assert.Equal(t, "Hello world", text)
}

func TestOpen_SingleDocumentResponse(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"content":"A short story."}`)
	}))
	t.Cleanup(srv.Close)

	client := gateway.New(srv.URL)
	stream, err := client.Open(context.Background(), flow.Request{Path: "/process/request/text"})
	require.NoError(t, err)
	t.Cleanup(func() { stream.Close() })

	// Born complete: no streaming phase at all.
	assert.Equal(t, flow.StreamStateComplete, stream.State())
	text, err := stream.Text()
	require.NoError(t, err)
	assert.Equal(t, "A short story.", text)

	_, err = stream.Next()
	assert.Equal(t, io.EOF, err)
}

func TestOpen_DocumentMissingContentIsProtocolViolation(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"result":"wrong shape"}`)
	}))
	t.Cleanup(srv.Close)

	client := gateway.New(srv.URL)
	_, err := client.Open(context.Background(), flow.Request{Path: "/process/request/text"})
	require.Error(t, err)
	assert.ErrorIs(t, err, flow.ErrProtocol)
}

func TestOpen_HTTPErrorUsesBodyMessage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		code int
		body string
		want string
	}{
		{"json message", http.StatusBadRequest, `{"message":"capability not found"}`, "capability not found"},
		{"json error string", http.StatusPaymentRequired, `{"error":"insufficient balance"}`, "insufficient balance"},
		{"plain text", http.StatusBadGateway, "upstream worker unavailable", "upstream worker unavailable"},
		{"empty body", http.StatusServiceUnavailable, "", "HTTP 503"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.code)
				fmt.Fprint(w, tt.body)
			}))
			t.Cleanup(srv.Close)

			_, err := gateway.New(srv.URL).Open(context.Background(), flow.Request{Path: "/p"})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestOpen_EmptyPathRejected(t *testing.T) {
	t.Parallel()

	_, err := gateway.New("http://unused").Open(context.Background(), flow.Request{})
	require.Error(t, err)
	assert.ErrorIs(t, err, flow.ErrValidation)
}

func TestOpen_SendsJobDescriptorHeader(t *testing.T) {
	t.Parallel()

	var job map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := base64.StdEncoding.DecodeString(r.Header.Get("Livepeer-Job"))
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(raw, &job))
		assert.Equal(t, "text/event-stream", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"content":"ok"}`)
	}))
	t.Cleanup(srv.Close)

	stream, err := gateway.New(srv.URL, gateway.WithTimeoutSeconds(30)).Open(context.Background(), flow.Request{
		Path:       "/process/request/text",
		Capability: "text-generation",
		Prompt:     "Hi",
		Parameters: map[string]any{"temperature": 0.7},
	})
	require.NoError(t, err)
	stream.Close()

	assert.Equal(t, "text-generation", job["capability"])
	assert.Equal(t, float64(30), job["timeout_seconds"])
	assert.Contains(t, job["request"], "Hi")
	assert.Contains(t, job["parameters"], "temperature")
}

func TestRunner_EndToEnd(t *testing.T) {
	t.Parallel()

	t.Run("streaming exchange", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(helloWorldResponse().handler())
		t.Cleanup(srv.Close)

		runner := flow.NewRunner(gateway.New(srv.URL))
		session := flow.NewSession("")
		runner.Run(context.Background(), session, flow.Request{Path: "/process/request/text", Prompt: "Hi"})

		snap := session.Snapshot()
		assert.Equal(t, flow.SessionCompleted, snap.Status)
		assert.Equal(t, "Hello world", snap.Text)
		assert.NoError(t, snap.Err)
	})

	t.Run("single document skips streaming status", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"content":"A short story."}`)
		}))
		t.Cleanup(srv.Close)

		session := flow.NewSession("")
		var statuses []flow.SessionStatus
		session.Subscribe(func(s flow.Snapshot) {
			statuses = append(statuses, s.Status)
		})

		flow.NewRunner(gateway.New(srv.URL)).Run(context.Background(), session, flow.Request{Path: "/p"})

		assert.Equal(t, []flow.SessionStatus{flow.SessionConnecting, flow.SessionCompleted}, statuses)
		assert.Equal(t, "A short story.", session.Snapshot().Text)
	})

	t.Run("mid-stream failure surfaces as errored with partial text", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(sseResponse{lines: []string{
			`data: {"choices":[{"delta":{"content":"Hello"}}]}`,
			`data: {"choices":[{"delta":{"content":" world"}}]}`,
		}}.handler())
		t.Cleanup(srv.Close)

		session := flow.NewSession("")
		flow.NewRunner(gateway.New(srv.URL)).Run(context.Background(), session, flow.Request{Path: "/p"})

		snap := session.Snapshot()
		assert.Equal(t, flow.SessionErrored, snap.Status)
		assert.Equal(t, "Hello world", snap.Text)
		assert.Error(t, snap.Err)
	})
}
