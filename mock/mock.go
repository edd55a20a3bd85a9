// Package mock provides test doubles for flow interfaces using function
// fields.
package mock

import (
	"context"
	"io"

	"github.com/ad-astra-video/flow"
)

// Interface compliance checks.
var (
	_ flow.Opener = (*Opener)(nil)
	_ flow.Stream = (*Stream)(nil)
)

// Opener is a test double for flow.Opener.
// Set OpenFn before calling Open.
type Opener struct {
	OpenFn func(ctx context.Context, req flow.Request) (flow.Stream, error)
}

// Open delegates to OpenFn.
func (o *Opener) Open(ctx context.Context, req flow.Request) (flow.Stream, error) {
	return o.OpenFn(ctx, req)
}

// Stream is a test double for flow.Stream.
// Set the function fields for the methods you need. NextFn panics when nil
// to catch missing setup. The other fields are nil-safe because test code
// commonly calls defer stream.Close() and rarely needs custom behavior
// from State or Text.
type Stream struct {
	NextFn  func() (flow.Event, error)
	StateFn func() flow.StreamState
	TextFn  func() (string, error)
	CloseFn func() error
}

// Next delegates to NextFn.
func (s *Stream) Next() (flow.Event, error) {
	return s.NextFn()
}

// State delegates to StateFn. Returns StreamStateNew when StateFn is nil.
func (s *Stream) State() flow.StreamState {
	if s.StateFn == nil {
		return flow.StreamStateNew
	}
	return s.StateFn()
}

// Text delegates to TextFn. Returns the empty string when TextFn is nil.
func (s *Stream) Text() (string, error) {
	if s.TextFn == nil {
		return "", nil
	}
	return s.TextFn()
}

// Close delegates to CloseFn. Returns nil when CloseFn is not set.
func (s *Stream) Close() error {
	if s.CloseFn == nil {
		return nil
	}
	return s.CloseFn()
}

// Deltas returns a Stream that yields the given deltas in order, then
// io.EOF, accumulating them so Text reports the full output. When fail is
// non-nil it is returned after the deltas instead of io.EOF and the stream
// ends in the error state.
func Deltas(fail error, deltas ...string) *Stream {
	var (
		i     int
		state = flow.StreamStateStreaming
		text  string
	)
	s := &Stream{}
	s.NextFn = func() (flow.Event, error) {
		if i < len(deltas) {
			d := deltas[i]
			i++
			text += d
			return flow.EventContentDelta{Delta: d}, nil
		}
		if fail != nil {
			state = flow.StreamStateError
			return nil, fail
		}
		state = flow.StreamStateComplete
		return nil, io.EOF
	}
	s.StateFn = func() flow.StreamState { return state }
	s.TextFn = func() (string, error) { return text, nil }
	return s
}
