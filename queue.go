package flow

import (
	"context"
	"sync"
)

// Queue serializes generation exchanges through a single worker so that at
// most one upstream transport is active at a time. Dispatch is FIFO.
type Queue struct {
	runner *Runner
	jobs   chan queueJob

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

type queueJob struct {
	ctx     context.Context
	session *Session
	req     Request
	opts    []RunOption
}

// NewQueue creates a Queue backed by runner and starts its worker.
func NewQueue(runner *Runner) *Queue {
	q := &Queue{
		runner: runner,
		jobs:   make(chan queueJob, 64),
	}
	q.wg.Add(1)
	go q.work()
	return q
}

// Enqueue schedules one exchange and returns its session immediately. The
// session stays idle until the worker reaches it; callers observe progress
// through Subscribe or Done. After Close the session comes back already
// disconnected.
func (q *Queue) Enqueue(ctx context.Context, req Request, opts ...RunOption) *Session {
	session := NewSession("")
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		session.disconnect()
		return session
	}
	q.jobs <- queueJob{ctx: ctx, session: session, req: req, opts: opts}
	q.mu.Unlock()
	return session
}

// Close stops accepting work and blocks until queued exchanges finish.
func (q *Queue) Close() {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.jobs)
	}
	q.mu.Unlock()
	q.wg.Wait()
}

func (q *Queue) work() {
	defer q.wg.Done()
	for job := range q.jobs {
		if job.ctx.Err() != nil {
			job.session.disconnect()
			continue
		}
		q.runner.Run(job.ctx, job.session, job.req, job.opts...)
	}
}
