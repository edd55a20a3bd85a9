// Package eventlog accumulates streamed records for display: a bounded,
// insertion-ordered history with stable sequence numbers, per-record
// display state, and text filtering.
package eventlog

import (
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/ad-astra-video/flow"
)

// DefaultCap bounds retained history when no cap is configured.
const DefaultCap = 1000

// Log owns the ordered record history of one subscription session. Append
// is the sole mutation entry point for record content; display state (
// expand/pin/filter) has its own methods. Callers only ever receive copies.
type Log struct {
	mu      sync.Mutex
	cap     int
	seq     uint64
	records []flow.Record
	filter  string
	pattern string
	subs    map[int]func()
	nextSub int
}

// Option configures a [Log].
type Option func(*Log)

// WithCap sets the maximum number of retained records. Values below one
// fall back to DefaultCap.
func WithCap(n int) Option {
	return func(l *Log) {
		if n > 0 {
			l.cap = n
		}
	}
}

// New creates an empty Log.
func New(opts ...Option) *Log {
	l := &Log{
		cap:  DefaultCap,
		subs: make(map[int]func()),
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Subscribe registers fn to be called after every mutation. The returned
// function cancels the subscription.
func (l *Log) Subscribe(fn func()) func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	id := l.nextSub
	l.nextSub++
	l.subs[id] = fn
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.subs, id)
	}
}

func (l *Log) notifyLocked() {
	for _, fn := range l.subs {
		fn()
	}
}

// Append assigns the next sequence number to rec, stores it, and evicts the
// oldest non-pinned records once the cap is exceeded. Sequence numbers are
// never reused, so evicted and retained records together form a gapless
// strictly increasing series.
func (l *Log) Append(rec flow.Record) flow.Record {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.seq++
	rec.Sequence = l.seq
	l.records = append(l.records, rec)
	l.evictLocked()
	l.notifyLocked()
	return rec
}

func (l *Log) evictLocked() {
	for len(l.records) > l.cap {
		evicted := false
		for i, r := range l.records {
			if !r.Pinned {
				l.records = append(l.records[:i], l.records[i+1:]...)
				evicted = true
				break
			}
		}
		if !evicted {
			// Everything is pinned; the cap yields rather than dropping
			// records the caller asked to keep.
			return
		}
	}
}

// Len returns the number of retained records.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}

// Records returns a copy of the retained records in insertion order.
func (l *Log) Records() []flow.Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]flow.Record(nil), l.records...)
}

// Clear drops all records and resets the sequence counter.
func (l *Log) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = nil
	l.seq = 0
	l.notifyLocked()
}

// Toggle flips the expanded flag of the record with the given sequence.
func (l *Log) Toggle(seq uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.records {
		if l.records[i].Sequence == seq {
			l.records[i].Expanded = !l.records[i].Expanded
			l.notifyLocked()
			return
		}
	}
}

// Pin marks the record with the given sequence as exempt from eviction.
func (l *Log) Pin(seq uint64, pinned bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.records {
		if l.records[i].Sequence == seq {
			l.records[i].Pinned = pinned
			l.notifyLocked()
			return
		}
	}
}

// ExpandAll marks every retained record expanded.
func (l *Log) ExpandAll() { l.setExpanded(true) }

// CollapseAll marks every retained record collapsed.
func (l *Log) CollapseAll() { l.setExpanded(false) }

func (l *Log) setExpanded(expanded bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.records {
		l.records[i].Expanded = expanded
	}
	l.notifyLocked()
}

// SetFilter sets the free-text filter. A single search string is matched
// case-insensitively as a substring against a record's type, topic, key
// and serialized payload; any one field matching keeps the record.
func (l *Log) SetFilter(query string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.filter = strings.ToLower(strings.TrimSpace(query))
	l.notifyLocked()
}

// Filter returns the current free-text filter.
func (l *Log) Filter() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.filter
}

// SetTopicPattern sets a glob pattern matched against record topics, e.g.
// "jobs.*" or "payments.**". An empty pattern matches everything.
func (l *Log) SetTopicPattern(pattern string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pattern = pattern
	l.notifyLocked()
}

// Filtered returns a copy of the retained records that pass both the
// free-text filter and the topic pattern, in insertion order.
func (l *Log) Filtered() []flow.Record {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]flow.Record, 0, len(l.records))
	for _, rec := range l.records {
		if l.matchLocked(rec) {
			out = append(out, rec)
		}
	}
	return out
}

func (l *Log) matchLocked(rec flow.Record) bool {
	if l.pattern != "" {
		ok, err := doublestar.Match(l.pattern, rec.Topic)
		if err != nil || !ok {
			return false
		}
	}
	if l.filter == "" {
		return true
	}
	for _, field := range []string{rec.Type, rec.Topic, rec.Key, string(rec.Raw)} {
		if strings.Contains(strings.ToLower(field), l.filter) {
			return true
		}
	}
	return false
}
