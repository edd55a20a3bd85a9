package gateway

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ad-astra-video/flow"
	"github.com/ad-astra-video/flow/sse"
)

// stream implements [flow.Stream] by interpreting SSE frames from an HTTP
// response body. Events come out in strict wire order; a transport failure
// mid-stream leaves everything accumulated so far readable through Text().
type stream struct {
	body  io.ReadCloser
	dec   *sse.Decoder
	ctx   context.Context
	state flow.StreamState
	text  strings.Builder
	err   error // terminal error, if any
}

// Interface compliance check.
var _ flow.Stream = (*stream)(nil)

func newStream(ctx context.Context, body io.ReadCloser) *stream {
	return &stream{
		body:  body,
		dec:   sse.NewDecoder(body),
		ctx:   ctx,
		state: flow.StreamStateNew,
	}
}

// Next reads the next semantic event from the stream.
// Returns io.EOF when the stream completes normally.
func (s *stream) Next() (flow.Event, error) {
	switch s.state {
	case flow.StreamStateComplete:
		return nil, io.EOF
	case flow.StreamStateError:
		return nil, s.err
	case flow.StreamStateClosed:
		return nil, fmt.Errorf("gateway: %w", flow.ErrStreamClosed)
	}

	for {
		line, err := s.dec.Next()
		if err != nil {
			s.terminate(err)
			return nil, s.err
		}

		s.state = flow.StreamStateStreaming

		f := sse.Interpret(line)
		switch f.Kind {
		case sse.KindIgnorable:
			continue

		case sse.KindDone:
			s.state = flow.StreamStateComplete
			return nil, io.EOF

		case sse.KindDelta, sse.KindUnparseable:
			if f.Delta != "" {
				s.text.WriteString(f.Delta)
			}
			if f.Done {
				// Payload-level completion: deliver the delta now, finalize
				// on the following Next call. First completion signal wins.
				s.state = flow.StreamStateComplete
			}
			if f.Delta == "" {
				if s.state == flow.StreamStateComplete {
					return nil, io.EOF
				}
				continue
			}
			return flow.EventContentDelta{Delta: f.Delta}, nil
		}
	}
}

// State returns the current stream state.
func (s *stream) State() flow.StreamState {
	return s.state
}

// Text returns the text accumulated so far. Partial results are valid in
// every state except before the first read.
func (s *stream) Text() (string, error) {
	if s.state == flow.StreamStateNew {
		return "", fmt.Errorf("gateway: %w", flow.ErrStreamNotReady)
	}
	return s.text.String(), nil
}

// Close closes the underlying HTTP response body.
func (s *stream) Close() error {
	if s.state != flow.StreamStateComplete && s.state != flow.StreamStateError {
		s.state = flow.StreamStateClosed
	}
	return s.body.Close()
}

// terminate records a terminal error. An EOF without a completion signal
// means the transport dropped mid-stream.
func (s *stream) terminate(err error) {
	s.state = flow.StreamStateError
	if err == io.EOF {
		s.err = fmt.Errorf("gateway: unexpected end of stream")
		return
	}
	if s.ctx.Err() != nil {
		s.err = s.ctx.Err()
		return
	}
	s.err = fmt.Errorf("gateway: %w", err)
}
