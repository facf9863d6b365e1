package regenworker

import (
	"context"
	"hash/fnv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// RegenJob is one regeneration task handed to the pool. Jobs for the same
// post always land on the same worker, so regenerations of one post run in
// dispatch order while different posts proceed in parallel.
type RegenJob struct {
	TaskID  string
	PostID  string
	Handler func(ctx context.Context) error
}

// PoolStats is a point-in-time snapshot of the pool, served by the REST API.
type PoolStats struct {
	NumWorkers      int            `json:"num_workers"`
	QueueSize       int            `json:"queue_size"`
	ActiveWorkers   int            `json:"active_workers"`
	TotalDispatched int64          `json:"total_dispatched"`
	TotalProcessed  int64          `json:"total_processed"`
	TotalDropped    int64          `json:"total_dropped"`
	TotalErrors     int64          `json:"total_errors"`
	WorkerStats     []WorkerStats  `json:"worker_stats"`
	ActivePosts     map[string]int `json:"active_posts"` // postID -> worker_id
}

// WorkerStats holds per-worker counters.
type WorkerStats struct {
	WorkerID      int   `json:"worker_id"`
	QueueDepth    int   `json:"queue_depth"`
	IsProcessing  bool  `json:"is_processing"`
	JobsProcessed int64 `json:"jobs_processed"`
}

type activePostEntry struct {
	workerID  int
	updatedAt time.Time
}

// RegenWorkerPool runs regeneration pipelines on a bounded set of workers,
// each with its own queue. Dispatch is non-blocking: when a worker's queue
// is full the job is dropped and counted, never queued unbounded.
type RegenWorkerPool struct {
	numWorkers int
	queueSize  int
	workers    []*worker
	wg         sync.WaitGroup
	stopOnce   sync.Once
	stopped    int32
	stopCh     chan struct{}

	totalDispatched int64
	totalProcessed  int64
	totalDropped    int64
	totalErrors     int64
	activePostsMu   sync.RWMutex
	activePosts     map[string]activePostEntry
	startTime       time.Time

	// Hooks for external monitoring (heartbeat store, websocket hub).
	OnWorkerStart func(workerID int, postID string)
	OnWorkerEnd   func(workerID int, postID string)
}

type worker struct {
	id            int
	jobQueue      chan RegenJob
	ctx           context.Context
	cancel        context.CancelFunc
	isProcessing  int32 // atomic: 1 if processing, 0 if idle
	jobsProcessed int64 // atomic counter
	pool          *RegenWorkerPool
}

func NewRegenWorkerPool(numWorkers, queueSize int) *RegenWorkerPool {
	if numWorkers <= 0 {
		numWorkers = 8
	}
	if queueSize <= 0 {
		queueSize = 100
	}

	return &RegenWorkerPool{
		numWorkers:  numWorkers,
		queueSize:   queueSize,
		workers:     make([]*worker, numWorkers),
		activePosts: make(map[string]activePostEntry),
		stopCh:      make(chan struct{}),
		startTime:   time.Now(),
	}
}

// Start launches the workers plus a janitor that expires stale active-post
// entries left behind by dropped or crashed jobs.
func (p *RegenWorkerPool) Start(ctx context.Context) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		ticker := time.NewTicker(1 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-p.stopCh:
				return
			case <-ticker.C:
				now := time.Now()
				p.activePostsMu.Lock()
				for k, v := range p.activePosts {
					if !v.updatedAt.IsZero() && now.Sub(v.updatedAt) > 2*time.Second {
						delete(p.activePosts, k)
					}
				}
				p.activePostsMu.Unlock()
			}
		}
	}()

	for i := 0; i < p.numWorkers; i++ {
		workerCtx, cancel := context.WithCancel(ctx)
		w := &worker{
			id:       i,
			jobQueue: make(chan RegenJob, p.queueSize),
			ctx:      workerCtx,
			cancel:   cancel,
			pool:     p,
		}
		p.workers[i] = w

		p.wg.Add(1)
		go w.run(&p.wg)
	}

	logrus.Infof("[REGEN_POOL] Started with %d workers, queue size: %d", p.numWorkers, p.queueSize)
}

// TryDispatch enqueues a job on the worker owning the post's shard. Returns
// false when the pool is stopped or the target queue is full, so callers can
// surface backpressure instead of blocking the request path.
func (p *RegenWorkerPool) TryDispatch(job RegenJob) bool {
	if atomic.LoadInt32(&p.stopped) == 1 {
		atomic.AddInt64(&p.totalDropped, 1)
		return false
	}

	shard := p.shardForPost(job.PostID)
	atomic.AddInt64(&p.totalDispatched, 1)

	p.activePostsMu.Lock()
	p.activePosts[job.PostID] = activePostEntry{workerID: shard, updatedAt: time.Now()}
	p.activePostsMu.Unlock()

	sent := func() (ok bool) {
		defer func() {
			if r := recover(); r != nil {
				ok = false
			}
		}()
		select {
		case p.workers[shard].jobQueue <- job:
			return true
		default:
			return false
		}
	}()

	if sent {
		return true
	}
	p.activePostsMu.Lock()
	delete(p.activePosts, job.PostID)
	p.activePostsMu.Unlock()

	atomic.AddInt64(&p.totalDropped, 1)
	logrus.Warnf("[REGEN_POOL] Worker %d queue full (or stopped), dropping task %s for post %s",
		shard, job.TaskID, job.PostID)
	return false
}

// Dispatch enqueues without reporting the outcome.
func (p *RegenWorkerPool) Dispatch(job RegenJob) {
	_ = p.TryDispatch(job)
}

// Stop shuts the pool down gracefully, draining queued jobs first.
func (p *RegenWorkerPool) Stop() {
	p.stopOnce.Do(func() {
		atomic.StoreInt32(&p.stopped, 1)
		close(p.stopCh)
		logrus.Info("[REGEN_POOL] Stopping workers...")

		for _, w := range p.workers {
			w.cancel()
			close(w.jobQueue)
		}

		p.wg.Wait()

		logrus.Info("[REGEN_POOL] All workers stopped")
	})
}

// shardForPost maps a post to its worker with a consistent hash.
func (p *RegenWorkerPool) shardForPost(postID string) int {
	h := fnv.New32a()
	h.Write([]byte(postID))
	return int(h.Sum32() % uint32(p.numWorkers))
}

// GetStats returns a live snapshot of the pool.
func (p *RegenWorkerPool) GetStats() PoolStats {
	workerStats := make([]WorkerStats, len(p.workers))
	activeWorkers := 0

	for i, w := range p.workers {
		isProcessing := atomic.LoadInt32(&w.isProcessing) == 1
		if isProcessing {
			activeWorkers++
		}

		workerStats[i] = WorkerStats{
			WorkerID:      w.id,
			QueueDepth:    len(w.jobQueue),
			IsProcessing:  isProcessing,
			JobsProcessed: atomic.LoadInt64(&w.jobsProcessed),
		}
	}

	now := time.Now()
	p.activePostsMu.Lock()
	activeSnapshot := make(map[string]int, len(p.activePosts))
	for k, v := range p.activePosts {
		if !v.updatedAt.IsZero() && now.Sub(v.updatedAt) > 2*time.Second {
			delete(p.activePosts, k)
			continue
		}
		activeSnapshot[k] = v.workerID
	}
	p.activePostsMu.Unlock()

	return PoolStats{
		NumWorkers:      p.numWorkers,
		QueueSize:       p.queueSize,
		ActiveWorkers:   activeWorkers,
		TotalDispatched: atomic.LoadInt64(&p.totalDispatched),
		TotalProcessed:  atomic.LoadInt64(&p.totalProcessed),
		TotalDropped:    atomic.LoadInt64(&p.totalDropped),
		TotalErrors:     atomic.LoadInt64(&p.totalErrors),
		WorkerStats:     workerStats,
		ActivePosts:     activeSnapshot,
	}
}

func (w *worker) run(wg *sync.WaitGroup) {
	defer wg.Done()

	logrus.Debugf("[REGEN_POOL] Worker %d started", w.id)

	for {
		select {
		case job, ok := <-w.jobQueue:
			if !ok {
				logrus.Debugf("[REGEN_POOL] Worker %d shutting down", w.id)
				return
			}

			func() {
				if w.pool.OnWorkerStart != nil {
					w.pool.OnWorkerStart(w.id, job.PostID)
				}
				atomic.StoreInt32(&w.isProcessing, 1)
				defer func() {
					if r := recover(); r != nil {
						atomic.AddInt64(&w.pool.totalErrors, 1)
						logrus.Errorf("[REGEN_POOL] Worker %d panic for post %s: %v", w.id, job.PostID, r)
					}
					if w.pool.OnWorkerEnd != nil {
						w.pool.OnWorkerEnd(w.id, job.PostID)
					}
					atomic.StoreInt32(&w.isProcessing, 0)
					atomic.AddInt64(&w.jobsProcessed, 1)
					atomic.AddInt64(&w.pool.totalProcessed, 1)
				}()

				if err := job.Handler(w.ctx); err != nil {
					atomic.AddInt64(&w.pool.totalErrors, 1)
					logrus.WithError(err).Errorf("[REGEN_POOL] Worker %d task %s failed for post %s",
						w.id, job.TaskID, job.PostID)
				}
			}()

		case <-w.ctx.Done():
			logrus.Debugf("[REGEN_POOL] Worker %d context cancelled, draining queue...", w.id)
			w.drainQueue()
			return
		}
	}
}

// drainQueue finishes queued jobs before shutdown so accepted regenerations
// are not lost on restart.
func (w *worker) drainQueue() {
	for {
		select {
		case job, ok := <-w.jobQueue:
			if !ok {
				return
			}
			func() {
				defer func() {
					if r := recover(); r != nil {
						atomic.AddInt64(&w.pool.totalErrors, 1)
						logrus.Errorf("[REGEN_POOL] Worker %d drain panic: %v", w.id, r)
					}
				}()
				if err := job.Handler(w.ctx); err != nil {
					logrus.WithError(err).Errorf("[REGEN_POOL] Worker %d drain task %s failed", w.id, job.TaskID)
				}
			}()
		default:
			return
		}
	}
}
