package world

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"runtime"
	"slices"
	"sync"
	"time"

	"alphacraft/internal/profiling"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Completed is a generated chunk ready to merge.
type Completed struct {
	Coord ChunkCoord
	Chunk *Chunk
}

// Failure is a generation attempt that ended without a chunk. The coordinate
// is no longer pending and may be requested again.
type Failure struct {
	Coord    ChunkCoord
	Message  string
	TimedOut bool
}

// Dispatcher hands chunk generation to workers and returns finished work.
// All methods are called from the simulation goroutine.
type Dispatcher interface {
	// Request dispatches coord unless it is already pending. It reports
	// whether a new job was issued.
	Request(coord ChunkCoord) bool
	Pending(coord ChunkCoord) bool
	PendingCount() int
	// Poll drains whatever finished since the last call without blocking.
	Poll() ([]Completed, []Failure)
}

// Handler answers worker envelopes. *Worker handles them in process; a
// handler may also forward them to a worker in another process. Handlers
// that implement io.Closer are closed when their pool slot stops.
type Handler interface {
	Handle(env Envelope) (Envelope, bool)
}

// HandlerFactory creates the handler for pool slot id.
type HandlerFactory func(id int, log *zap.Logger) (Handler, error)

// InProcessHandlers is the default factory.
func InProcessHandlers(_ int, log *zap.Logger) (Handler, error) {
	return NewWorker(log), nil
}

// SchedulerOptions tunes the worker pool.
type SchedulerOptions struct {
	Workers      int            // <= 0 means runtime.NumCPU()
	QueueSize    int            // buffered generate requests
	RequestRate  float64        // dispatches per second, <= 0 means unlimited
	RequestBurst int            // token bucket depth when RequestRate > 0
	Timeout      time.Duration  // watchdog for lost requests, <= 0 disables
	NewHandler   HandlerFactory // nil means InProcessHandlers
}

// DefaultSchedulerOptions returns a pool sized to the machine.
func DefaultSchedulerOptions() SchedulerOptions {
	return SchedulerOptions{
		Workers:      runtime.NumCPU(),
		QueueSize:    1024,
		RequestBurst: 64,
		Timeout:      30 * time.Second,
	}
}

// SchedulerStats are cumulative counters.
type SchedulerStats struct {
	Pending    int
	Dispatched uint64
	Completed  uint64
	Failed     uint64
	TimedOut   uint64
	Stale      uint64
}

type pendingRequest struct {
	id     string
	issued time.Time
}

// Scheduler runs generation workers on goroutines. Requests and replies
// travel as envelopes over channels; workers never see the chunk store.
type Scheduler struct {
	jobs    chan Envelope
	results chan Envelope
	pending map[ChunkCoord]pendingRequest

	limiter    *rate.Limiter
	timeout    time.Duration
	newHandler HandlerFactory
	now     func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	closed bool

	stats SchedulerStats
	log   *zap.Logger
}

// NewScheduler starts the worker pool. Every worker is initialized with init
// before it takes jobs.
func NewScheduler(init InitPayload, opts SchedulerOptions, log *zap.Logger) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	workers = max(workers, 1)
	queue := max(opts.QueueSize, 1)

	limit := rate.Inf
	burst := 0
	if opts.RequestRate > 0 {
		limit = rate.Limit(opts.RequestRate)
		burst = max(opts.RequestBurst, 1)
	}

	newHandler := opts.NewHandler
	if newHandler == nil {
		newHandler = InProcessHandlers
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		jobs:       make(chan Envelope, queue),
		results:    make(chan Envelope, queue+workers),
		pending:    make(map[ChunkCoord]pendingRequest),
		limiter:    rate.NewLimiter(limit, burst),
		timeout:    opts.Timeout,
		newHandler: newHandler,
		now:        time.Now,
		ctx:        ctx,
		cancel:     cancel,
		log:        log,
	}
	for i := range workers {
		s.wg.Add(1)
		go s.runWorker(i, init)
	}
	log.Info("generation scheduler started",
		zap.Int("workers", workers),
		zap.Int("queue", queue),
		zap.Duration("timeout", opts.Timeout),
	)
	return s
}

func (s *Scheduler) runWorker(id int, init InitPayload) {
	defer s.wg.Done()
	log := s.log.With(zap.Int("worker", id))
	w, err := s.newHandler(id, log)
	if err != nil {
		log.Error("worker failed to start", zap.Error(err))
		return
	}
	if c, ok := w.(io.Closer); ok {
		// unblocks a Handle stuck on a remote peer during shutdown
		stop := context.AfterFunc(s.ctx, func() { _ = c.Close() })
		defer stop()
		defer c.Close()
	}
	w.Handle(InitEnvelope(init))
	for {
		select {
		case <-s.ctx.Done():
			return
		case req := <-s.jobs:
			resp, ok := w.Handle(req)
			if !ok {
				continue
			}
			select {
			case s.results <- resp:
			case <-s.ctx.Done():
				return
			}
		}
	}
}

// Request implements Dispatcher. A full queue or an exhausted rate budget
// leaves the coordinate unrequested so the caller retries on a later tick.
func (s *Scheduler) Request(coord ChunkCoord) bool {
	if s.closed {
		return false
	}
	if _, ok := s.pending[coord]; ok {
		return false
	}
	if len(s.jobs) >= cap(s.jobs) || !s.limiter.Allow() {
		return false
	}
	id := uuid.NewString()
	select {
	case s.jobs <- GenerateEnvelope(coord, id):
	default:
		return false
	}
	s.pending[coord] = pendingRequest{id: id, issued: s.now()}
	s.stats.Dispatched++
	return true
}

// Pending implements Dispatcher.
func (s *Scheduler) Pending(coord ChunkCoord) bool {
	_, ok := s.pending[coord]
	return ok
}

// PendingCount implements Dispatcher.
func (s *Scheduler) PendingCount() int {
	return len(s.pending)
}

// Poll implements Dispatcher. Results come back in completion order.
func (s *Scheduler) Poll() ([]Completed, []Failure) {
	defer profiling.Track("world.Scheduler.Poll")()
	var done []Completed
	var failed []Failure
	for {
		select {
		case env := <-s.results:
			done, failed = s.accept(env, done, failed)
		default:
			return done, s.expire(failed)
		}
	}
}

func (s *Scheduler) accept(env Envelope, done []Completed, failed []Failure) ([]Completed, []Failure) {
	switch env.Type {
	case MessageResult:
		r := env.Result
		if r == nil {
			return done, failed
		}
		coord, err := ParseChunkKey(r.ChunkKey)
		if err != nil {
			s.log.Warn("dropping result with bad key", zap.Error(err))
			return done, failed
		}
		if !s.claim(coord, r.RequestID) {
			return done, failed
		}
		if r.Chunk == nil {
			s.stats.Failed++
			return done, append(failed, Failure{Coord: coord, Message: "result without chunk data"})
		}
		s.stats.Completed++
		return append(done, Completed{Coord: coord, Chunk: r.Chunk}), failed
	case MessageError:
		e := env.Error
		if e == nil {
			return done, failed
		}
		coord, err := ParseChunkKey(e.ChunkKey)
		if err != nil {
			s.log.Warn("worker error without usable chunk key", zap.String("message", e.Message), zap.Error(err))
			return done, failed
		}
		if !s.claim(coord, e.RequestID) {
			return done, failed
		}
		s.stats.Failed++
		s.log.Warn("chunk generation failed",
			zap.Int("cx", coord.X),
			zap.Int("cz", coord.Z),
			zap.String("request_id", e.RequestID),
			zap.String("message", e.Message),
		)
		return done, append(failed, Failure{Coord: coord, Message: e.Message})
	default:
		s.log.Warn("unexpected envelope from worker", zap.String("type", string(env.Type)))
		return done, failed
	}
}

// claim clears the pending entry a reply belongs to. Replies for requests
// that were already expired or superseded are stale.
func (s *Scheduler) claim(coord ChunkCoord, requestID string) bool {
	p, ok := s.pending[coord]
	if !ok || p.id != requestID {
		s.stats.Stale++
		s.log.Debug("discarding stale reply",
			zap.Int("cx", coord.X),
			zap.Int("cz", coord.Z),
			zap.String("request_id", requestID),
		)
		return false
	}
	delete(s.pending, coord)
	return true
}

func (s *Scheduler) expire(failed []Failure) []Failure {
	if s.timeout <= 0 || len(s.pending) == 0 {
		return failed
	}
	now := s.now()
	var expired []ChunkCoord
	for coord, p := range s.pending {
		if now.Sub(p.issued) >= s.timeout {
			expired = append(expired, coord)
		}
	}
	slices.SortFunc(expired, func(a, b ChunkCoord) int {
		return cmp.Or(cmp.Compare(a.X, b.X), cmp.Compare(a.Z, b.Z))
	})
	for _, coord := range expired {
		p := s.pending[coord]
		delete(s.pending, coord)
		s.stats.TimedOut++
		s.log.Warn("chunk generation timed out",
			zap.Int("cx", coord.X),
			zap.Int("cz", coord.Z),
			zap.String("request_id", p.id),
			zap.Duration("after", now.Sub(p.issued)),
		)
		failed = append(failed, Failure{
			Coord:    coord,
			Message:  fmt.Sprintf("generation timed out after %s", s.timeout),
			TimedOut: true,
		})
	}
	return failed
}

// Stats returns a copy of the counters.
func (s *Scheduler) Stats() SchedulerStats {
	st := s.stats
	st.Pending = len(s.pending)
	return st
}

// Close stops the workers and waits for them to exit. In-flight results are
// discarded.
func (s *Scheduler) Close() {
	if s.closed {
		return
	}
	s.closed = true
	s.cancel()
	s.wg.Wait()
	s.log.Info("generation scheduler closed",
		zap.Uint64("dispatched", s.stats.Dispatched),
		zap.Uint64("completed", s.stats.Completed),
		zap.Uint64("failed", s.stats.Failed),
		zap.Uint64("timed_out", s.stats.TimedOut),
	)
}

// SyncDispatcher generates on the calling goroutine. Requested chunks are
// returned by the next Poll.
type SyncDispatcher struct {
	gen     TerrainGenerator
	pending map[ChunkCoord]struct{}
	ready   []Completed
}

// NewSyncDispatcher wraps a generator.
func NewSyncDispatcher(gen TerrainGenerator) *SyncDispatcher {
	return &SyncDispatcher{gen: gen, pending: make(map[ChunkCoord]struct{})}
}

func (d *SyncDispatcher) Request(coord ChunkCoord) bool {
	if _, ok := d.pending[coord]; ok {
		return false
	}
	c := NewChunk(coord.X, coord.Z, d.gen.Dimensions())
	d.gen.PopulateChunk(c)
	d.pending[coord] = struct{}{}
	d.ready = append(d.ready, Completed{Coord: coord, Chunk: c})
	return true
}

func (d *SyncDispatcher) Pending(coord ChunkCoord) bool {
	_, ok := d.pending[coord]
	return ok
}

func (d *SyncDispatcher) PendingCount() int { return len(d.pending) }

func (d *SyncDispatcher) Poll() ([]Completed, []Failure) {
	out := d.ready
	d.ready = nil
	for _, c := range out {
		delete(d.pending, c.Coord)
	}
	return out, nil
}
