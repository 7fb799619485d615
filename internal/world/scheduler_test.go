package world

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// detachedScheduler has no worker goroutines; tests feed replies directly.
func detachedScheduler(queue int, timeout time.Duration, clock *time.Time) *Scheduler {
	return &Scheduler{
		jobs:    make(chan Envelope, queue),
		results: make(chan Envelope, queue),
		pending: make(map[ChunkCoord]pendingRequest),
		limiter: rate.NewLimiter(rate.Inf, 0),
		timeout: timeout,
		now:     func() time.Time { return *clock },
		log:     zap.NewNop(),
	}
}

// answer pops the next queued job and replies to it with a flat chunk.
func answer(t *testing.T, s *Scheduler) Envelope {
	t.Helper()
	select {
	case job := <-s.jobs:
		coord := ChunkCoord{X: job.Generate.ChunkX, Z: job.Generate.ChunkZ}
		c := NewChunk(coord.X, coord.Z, DefaultDimensions())
		NewFlatGenerator(4).PopulateChunk(c)
		return ResultEnvelope(c, job.Generate.RequestID)
	default:
		t.Fatal("no job queued")
		return Envelope{}
	}
}

func TestSchedulerAtMostOnePending(t *testing.T) {
	now := time.Unix(0, 0)
	s := detachedScheduler(8, 0, &now)
	c := ChunkCoord{X: 1, Z: 1}

	require.True(t, s.Request(c))
	assert.False(t, s.Request(c), "duplicate request issued")
	assert.True(t, s.Pending(c))
	assert.Equal(t, 1, s.PendingCount())
	assert.Len(t, s.jobs, 1)
}

func TestSchedulerPollDeliversAndClears(t *testing.T) {
	now := time.Unix(0, 0)
	s := detachedScheduler(8, 0, &now)
	c := ChunkCoord{X: -2, Z: 3}
	require.True(t, s.Request(c))
	s.results <- answer(t, s)

	done, failed := s.Poll()
	require.Len(t, done, 1)
	assert.Empty(t, failed)
	assert.Equal(t, c, done[0].Coord)
	assert.False(t, s.Pending(c))
	assert.True(t, s.Request(c), "coordinate should be requestable again")
}

func TestSchedulerDiscardsStaleReplies(t *testing.T) {
	now := time.Unix(0, 0)
	s := detachedScheduler(8, 0, &now)
	c := ChunkCoord{X: 0, Z: 0}
	require.True(t, s.Request(c))
	reply := answer(t, s)
	reply.Result.RequestID = "someone-else"
	s.results <- reply

	done, failed := s.Poll()
	assert.Empty(t, done)
	assert.Empty(t, failed)
	assert.True(t, s.Pending(c), "stale reply must not clear the pending entry")
	assert.EqualValues(t, 1, s.Stats().Stale)

	// unsolicited result
	s.results <- ResultEnvelope(NewChunk(9, 9, DefaultDimensions()), "")
	done, _ = s.Poll()
	assert.Empty(t, done)
	assert.EqualValues(t, 2, s.Stats().Stale)
}

func TestSchedulerErrorClearsPending(t *testing.T) {
	now := time.Unix(0, 0)
	s := detachedScheduler(8, 0, &now)
	c := ChunkCoord{X: 4, Z: 4}
	require.True(t, s.Request(c))
	job := <-s.jobs
	s.results <- ErrorEnvelope(c.Key(), job.Generate.RequestID, "worker exploded")

	done, failed := s.Poll()
	assert.Empty(t, done)
	require.Len(t, failed, 1)
	assert.Equal(t, c, failed[0].Coord)
	assert.False(t, failed[0].TimedOut)
	assert.Equal(t, "worker exploded", failed[0].Message)
	assert.False(t, s.Pending(c))
}

func TestSchedulerWatchdog(t *testing.T) {
	now := time.Unix(100, 0)
	s := detachedScheduler(8, 5*time.Second, &now)
	a, b := ChunkCoord{X: 2, Z: 0}, ChunkCoord{X: 1, Z: 0}
	require.True(t, s.Request(a))
	require.True(t, s.Request(b))

	now = now.Add(4 * time.Second)
	_, failed := s.Poll()
	assert.Empty(t, failed)

	now = now.Add(time.Second)
	_, failed = s.Poll()
	require.Len(t, failed, 2)
	assert.Equal(t, b, failed[0].Coord, "expired requests sorted by coordinate")
	assert.True(t, failed[0].TimedOut)
	assert.Zero(t, s.PendingCount())

	// the late reply is now stale
	s.results <- answer(t, s)
	done, _ := s.Poll()
	assert.Empty(t, done)
	assert.EqualValues(t, 2, s.Stats().TimedOut)
	assert.EqualValues(t, 1, s.Stats().Stale)
}

func TestSchedulerFullQueue(t *testing.T) {
	now := time.Unix(0, 0)
	s := detachedScheduler(2, 0, &now)
	assert.True(t, s.Request(ChunkCoord{X: 0}))
	assert.True(t, s.Request(ChunkCoord{X: 1}))
	assert.False(t, s.Request(ChunkCoord{X: 2}))
	assert.False(t, s.Pending(ChunkCoord{X: 2}))
}

func TestSchedulerRateLimit(t *testing.T) {
	now := time.Unix(0, 0)
	s := detachedScheduler(16, 0, &now)
	s.limiter = rate.NewLimiter(rate.Limit(0.001), 3)
	issued := 0
	for i := range 10 {
		if s.Request(ChunkCoord{X: i}) {
			issued++
		}
	}
	assert.Equal(t, 3, issued)
}

func TestSchedulerEndToEnd(t *testing.T) {
	params := DefaultGenParams(42)
	opts := DefaultSchedulerOptions()
	opts.Workers = 2
	s := NewScheduler(NewInitPayload(params), opts, nil)
	defer s.Close()

	want := map[ChunkCoord]bool{{0, 0}: true, {1, 0}: true, {0, -1}: true}
	for c := range want {
		require.True(t, s.Request(c))
	}

	got := map[ChunkCoord]*Chunk{}
	require.Eventually(t, func() bool {
		done, failed := s.Poll()
		assert.Empty(t, failed)
		for _, d := range done {
			got[d.Coord] = d.Chunk
		}
		return len(got) == len(want)
	}, 10*time.Second, 5*time.Millisecond)

	g := mustGenerator(t, params)
	for c, chunk := range got {
		assert.Equal(t, g.Generate(c.X, c.Z).Digest(), chunk.Digest(), "chunk %v", c)
	}
	assert.Zero(t, s.PendingCount())
}

func TestSchedulerClose(t *testing.T) {
	s := NewScheduler(NewInitPayload(DefaultGenParams(1)), SchedulerOptions{Workers: 1, QueueSize: 4}, nil)
	s.Close()
	s.Close()
	assert.False(t, s.Request(ChunkCoord{}))
}

type closingHandler struct {
	*Worker
	closed atomic.Int32
}

func (h *closingHandler) Close() error {
	h.closed.Add(1)
	return nil
}

func TestSchedulerCustomHandlers(t *testing.T) {
	var mu sync.Mutex
	var handlers []*closingHandler
	opts := SchedulerOptions{Workers: 2, QueueSize: 4}
	opts.NewHandler = func(_ int, log *zap.Logger) (Handler, error) {
		h := &closingHandler{Worker: NewWorker(log)}
		mu.Lock()
		handlers = append(handlers, h)
		mu.Unlock()
		return h, nil
	}
	s := NewScheduler(NewInitPayload(DefaultGenParams(5)), opts, nil)

	c := ChunkCoord{X: 2, Z: -2}
	require.True(t, s.Request(c))
	var got []Completed
	require.Eventually(t, func() bool {
		done, _ := s.Poll()
		got = append(got, done...)
		return len(got) == 1
	}, 10*time.Second, 5*time.Millisecond)
	assert.Equal(t, mustGenerator(t, DefaultGenParams(5)).Generate(c.X, c.Z).Digest(), got[0].Chunk.Digest())

	s.Close()
	mu.Lock()
	defer mu.Unlock()
	require.Len(t, handlers, 2)
	for _, h := range handlers {
		assert.Positive(t, h.closed.Load(), "handler left open")
	}
}

func TestSchedulerHandlerStartFailure(t *testing.T) {
	opts := SchedulerOptions{Workers: 2, QueueSize: 4}
	opts.NewHandler = func(int, *zap.Logger) (Handler, error) {
		return nil, errors.New("no worker binary")
	}
	s := NewScheduler(NewInitPayload(DefaultGenParams(5)), opts, nil)
	require.True(t, s.Request(ChunkCoord{}))
	done, failed := s.Poll()
	assert.Empty(t, done)
	assert.Empty(t, failed)
	s.Close()
}

func TestSyncDispatcher(t *testing.T) {
	d := NewSyncDispatcher(NewFlatGenerator(3))
	c := ChunkCoord{X: 7, Z: -7}
	require.True(t, d.Request(c))
	assert.False(t, d.Request(c))
	assert.True(t, d.Pending(c))

	done, failed := d.Poll()
	assert.Empty(t, failed)
	require.Len(t, done, 1)
	assert.Equal(t, c, done[0].Coord)
	assert.Zero(t, d.PendingCount())
}
