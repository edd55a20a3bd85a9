package flow

import "context"

// StreamState indicates the current state of a Stream.
type StreamState int

const (
	StreamStateNew       StreamState = iota // Before Next() is ever called.
	StreamStateStreaming                    // Mid-stream, receiving deltas.
	StreamStateComplete                     // Next() returned io.EOF.
	StreamStateError                        // Next() returned non-EOF error.
	StreamStateClosed                       // Close() called before terminal state.
)

// Stream uses a pull-based iterator pattern. Cancellation flows through the
// context passed to Opener.Open().
//
// State() returns the current StreamState. Callers can use it to determine
// whether Text() will return a partial or complete result.
//
// Text() returns the accumulated result text. Behavior by stream state:
//   - StreamStateComplete: complete text, nil error.
//   - StreamStateError: partial text, nil error. Everything accumulated
//     before the failure is retained.
//   - StreamStateStreaming: partial text, nil error.
//   - StreamStateNew: empty text, non-nil error. Exchanges that resolved
//     to a single document are born complete instead.
//   - StreamStateClosed: partial text, nil error.
type Stream interface {
	Next() (Event, error)
	State() StreamState
	Text() (string, error)
	Close() error
}

// Opener is a strategy pattern interface for opening exchanges with the
// upstream gateway. Implementations open exactly one network transport per
// call and never retry on their own.
type Opener interface {
	Open(ctx context.Context, req Request) (Stream, error)
}
