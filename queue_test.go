package flow_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ad-astra-video/flow"
	"github.com/ad-astra-video/flow/mock"
)

func TestQueue_SerializesExchanges(t *testing.T) {
	t.Parallel()

	var (
		mu      sync.Mutex
		active  int
		maxSeen int
		prompts []string
	)
	opener := &mock.Opener{
		OpenFn: func(ctx context.Context, req flow.Request) (flow.Stream, error) {
			mu.Lock()
			active++
			if active > maxSeen {
				maxSeen = active
			}
			prompts = append(prompts, req.Prompt)
			mu.Unlock()

			s := mock.Deltas(nil, "out:"+req.Prompt)
			s.CloseFn = func() error {
				mu.Lock()
				active--
				mu.Unlock()
				return nil
			}
			return s, nil
		},
	}

	queue := flow.NewQueue(flow.NewRunner(opener))
	sessions := make([]*flow.Session, 0, 5)
	for _, prompt := range []string{"a", "b", "c", "d", "e"} {
		sessions = append(sessions, queue.Enqueue(context.Background(), flow.Request{
			Path:   "/generate",
			Prompt: prompt,
		}))
	}
	queue.Close()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, maxSeen, "more than one exchange in flight")
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, prompts)
	for i, session := range sessions {
		snap := session.Snapshot()
		require.Equal(t, flow.SessionCompleted, snap.Status)
		assert.Equal(t, "out:"+prompts[i], snap.Text)
	}
}

func TestQueue_EnqueueReturnsIdleSession(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	opener := &mock.Opener{
		OpenFn: func(ctx context.Context, req flow.Request) (flow.Stream, error) {
			<-release
			return mock.Deltas(nil, "x"), nil
		},
	}

	queue := flow.NewQueue(flow.NewRunner(opener))
	first := queue.Enqueue(context.Background(), flow.Request{Path: "/generate"})
	second := queue.Enqueue(context.Background(), flow.Request{Path: "/generate"})

	// The second session cannot have started while the first blocks.
	assert.Equal(t, flow.SessionIdle, second.Snapshot().Status)

	close(release)
	queue.Close()

	assert.Equal(t, flow.SessionCompleted, first.Snapshot().Status)
	assert.Equal(t, flow.SessionCompleted, second.Snapshot().Status)
}

func TestQueue_SkipsCancelledJobs(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	opened := false
	opener := &mock.Opener{
		OpenFn: func(ctx context.Context, req flow.Request) (flow.Stream, error) {
			opened = true
			return mock.Deltas(nil, "x"), nil
		},
	}

	queue := flow.NewQueue(flow.NewRunner(opener))
	session := queue.Enqueue(ctx, flow.Request{Path: "/generate"})
	queue.Close()

	assert.False(t, opened)
	assert.Equal(t, flow.SessionDisconnected, session.Snapshot().Status)
}

func TestQueue_CloseIsIdempotent(t *testing.T) {
	t.Parallel()

	queue := flow.NewQueue(flow.NewRunner(&mock.Opener{}))
	queue.Close()
	assert.NotPanics(t, queue.Close)
}

func TestQueue_EnqueueAfterCloseReturnsDisconnected(t *testing.T) {
	t.Parallel()

	opened := false
	opener := &mock.Opener{
		OpenFn: func(ctx context.Context, req flow.Request) (flow.Stream, error) {
			opened = true
			return mock.Deltas(nil, "x"), nil
		},
	}

	queue := flow.NewQueue(flow.NewRunner(opener))
	queue.Close()

	var session *flow.Session
	require.NotPanics(t, func() {
		session = queue.Enqueue(context.Background(), flow.Request{Path: "/generate"})
	})
	require.NotNil(t, session)
	assert.Equal(t, flow.SessionDisconnected, session.Snapshot().Status)
	assert.False(t, opened)
}
