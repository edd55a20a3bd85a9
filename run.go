package flow

import (
	"context"
	"io"
)

// Runner drives exchanges opened by an Opener into Sessions.
type Runner struct {
	opener Opener
}

// NewRunner creates a Runner with the given opener.
func NewRunner(opener Opener) *Runner {
	return &Runner{opener: opener}
}

// RunOption configures a single Run invocation.
type RunOption func(*runConfig)

type runConfig struct {
	onEvent func(Event)
}

// WithEventHandler sets a callback that receives each streaming event during
// the run, after it has been applied to the session. If nil or not set,
// events are observable only through session snapshots.
func WithEventHandler(h func(Event)) RunOption {
	return func(c *runConfig) {
		c.onEvent = h
	}
}

// Run opens the exchange described by req and applies decoded events to
// session in strict arrival order. It blocks until the session reaches a
// terminal status. Failures never escape as return values or panics; the
// session's status and error are the sole reporting channel.
func (r *Runner) Run(ctx context.Context, session *Session, req Request, opts ...RunOption) {
	var cfg runConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	session.connecting()

	if err := req.Validate(); err != nil {
		session.fail(err)
		return
	}

	stream, err := r.opener.Open(ctx, req)
	if err != nil {
		session.fail(err)
		return
	}
	defer stream.Close()

	// Single-document responses are born complete; the session goes straight
	// from connecting to completed with no streaming status in between.
	if stream.State() == StreamStateComplete {
		text, terr := stream.Text()
		if terr != nil {
			session.fail(terr)
			return
		}
		session.completeWith(text)
		return
	}

	session.streaming()

	for {
		evt, err := stream.Next()
		if err == io.EOF {
			session.complete()
			return
		}
		if err != nil {
			// Partial text stays on the session either way.
			if ctx.Err() != nil {
				session.disconnect()
			} else {
				session.fail(err)
			}
			return
		}
		if d, ok := evt.(EventContentDelta); ok {
			session.append(d.Delta)
		}
		if cfg.onEvent != nil {
			cfg.onEvent(evt)
		}
	}
}
