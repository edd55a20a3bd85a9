package flow

import (
	"strings"
	"sync"

	"github.com/google/uuid"
)

// SessionStatus is the lifecycle of one streaming exchange.
type SessionStatus int

const (
	SessionIdle SessionStatus = iota
	SessionConnecting
	SessionStreaming
	SessionCompleted
	SessionErrored
	SessionDisconnected
)

// String returns the lowercase status name.
func (s SessionStatus) String() string {
	switch s {
	case SessionIdle:
		return "idle"
	case SessionConnecting:
		return "connecting"
	case SessionStreaming:
		return "streaming"
	case SessionCompleted:
		return "completed"
	case SessionErrored:
		return "errored"
	case SessionDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further accumulation can occur.
func (s SessionStatus) Terminal() bool {
	return s == SessionCompleted || s == SessionErrored || s == SessionDisconnected
}

// Snapshot is an immutable view of a Session, published to subscribers
// after every state change.
type Snapshot struct {
	ID     string
	Status SessionStatus
	Text   string
	Err    error
}

// Session owns the evolving result of one streaming exchange: the
// accumulated text, the status, and the last error. All mutation goes
// through the Runner that drives the session; callers only read snapshots.
//
// Once a terminal status is reached the accumulated text never changes
// again. A failure mid-stream keeps everything accumulated so far.
type Session struct {
	id string

	mu      sync.Mutex
	status  SessionStatus
	text    strings.Builder
	err     error
	subs    map[int]func(Snapshot)
	nextSub int
	done    chan struct{}
}

// NewSession creates a Session. An empty id gets a generated one.
func NewSession(id string) *Session {
	if id == "" {
		id = uuid.NewString()
	}
	return &Session{
		id:   id,
		subs: make(map[int]func(Snapshot)),
		done: make(chan struct{}),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Snapshot returns the current session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Done returns a channel closed when the session reaches a terminal status.
func (s *Session) Done() <-chan struct{} { return s.done }

// Subscribe registers fn to receive a snapshot after every state change.
// The returned function cancels the subscription. fn is invoked on the
// goroutine driving the session; it must not block.
func (s *Session) Subscribe(fn func(Snapshot)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Session) snapshotLocked() Snapshot {
	return Snapshot{ID: s.id, Status: s.status, Text: s.text.String(), Err: s.err}
}

// notifyLocked publishes the current snapshot to all subscribers and closes
// the done channel on the first transition into a terminal status.
func (s *Session) notifyLocked() {
	snap := s.snapshotLocked()
	for _, fn := range s.subs {
		fn(snap)
	}
	if snap.Status.Terminal() {
		select {
		case <-s.done:
		default:
			close(s.done)
		}
	}
}

func (s *Session) connecting() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status.Terminal() {
		return
	}
	s.status = SessionConnecting
	s.notifyLocked()
}

func (s *Session) streaming() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status.Terminal() {
		return
	}
	s.status = SessionStreaming
	s.notifyLocked()
}

func (s *Session) append(delta string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status.Terminal() || delta == "" {
		return
	}
	s.text.WriteString(delta)
	s.notifyLocked()
}

func (s *Session) complete() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status.Terminal() {
		return
	}
	s.status = SessionCompleted
	s.notifyLocked()
}

// completeWith resolves a single-document exchange: the full text lands in
// one step with no intermediate streaming status.
func (s *Session) completeWith(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status.Terminal() {
		return
	}
	s.text.Reset()
	s.text.WriteString(text)
	s.status = SessionCompleted
	s.notifyLocked()
}

// fail records a terminal error. Text accumulated before the failure is
// retained.
func (s *Session) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status.Terminal() {
		return
	}
	s.status = SessionErrored
	s.err = err
	s.notifyLocked()
}

func (s *Session) disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status.Terminal() {
		return
	}
	s.status = SessionDisconnected
	s.notifyLocked()
}
