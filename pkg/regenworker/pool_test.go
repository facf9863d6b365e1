package regenworker

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPool_DispatchNonBlocking(t *testing.T) {
	pool := NewRegenWorkerPool(2, 10)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool.Start(ctx)
	defer pool.Stop()

	start := time.Now()
	pool.Dispatch(RegenJob{
		TaskID: "t1",
		PostID: "post-1",
		Handler: func(ctx context.Context) error {
			time.Sleep(100 * time.Millisecond)
			return nil
		},
	})
	elapsed := time.Since(start)

	assert.Less(t, elapsed, 10*time.Millisecond, "dispatch must not block on the handler")
}

func TestPool_SamePostSequentialProcessing(t *testing.T) {
	pool := NewRegenWorkerPool(4, 100)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool.Start(ctx)
	defer pool.Stop()

	var results []int
	var mu sync.Mutex

	for i := 1; i <= 5; i++ {
		val := i
		pool.Dispatch(RegenJob{
			TaskID: fmt.Sprintf("t%d", i),
			PostID: "post-1",
			Handler: func(ctx context.Context) error {
				time.Sleep(10 * time.Millisecond)
				mu.Lock()
				results = append(results, val)
				mu.Unlock()
				return nil
			},
		})
	}

	time.Sleep(200 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []int{1, 2, 3, 4, 5}, results, "tasks for one post must run in dispatch order")
}

func TestPool_DifferentPostsParallelProcessing(t *testing.T) {
	pool := NewRegenWorkerPool(4, 100)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool.Start(ctx)
	defer pool.Stop()

	var activeCount int32

	for i := 0; i < 4; i++ {
		pool.Dispatch(RegenJob{
			TaskID: fmt.Sprintf("t%d", i),
			PostID: fmt.Sprintf("post-%c", 'A'+i),
			Handler: func(ctx context.Context) error {
				atomic.AddInt32(&activeCount, 1)
				time.Sleep(50 * time.Millisecond)
				atomic.AddInt32(&activeCount, -1)
				return nil
			},
		})
	}

	time.Sleep(10 * time.Millisecond)

	active := atomic.LoadInt32(&activeCount)
	assert.GreaterOrEqual(t, active, int32(2), "distinct posts should process in parallel")
}

func TestPool_RespectsMaxWorkers(t *testing.T) {
	maxWorkers := 3
	pool := NewRegenWorkerPool(maxWorkers, 100)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool.Start(ctx)
	defer pool.Stop()

	var activeCount int32
	var maxActive int32

	for i := 0; i < 10; i++ {
		pool.Dispatch(RegenJob{
			TaskID: fmt.Sprintf("t%d", i),
			PostID: fmt.Sprintf("post-%c", 'A'+i),
			Handler: func(ctx context.Context) error {
				current := atomic.AddInt32(&activeCount, 1)
				for {
					max := atomic.LoadInt32(&maxActive)
					if current <= max || atomic.CompareAndSwapInt32(&maxActive, max, current) {
						break
					}
				}
				time.Sleep(30 * time.Millisecond)
				atomic.AddInt32(&activeCount, -1)
				return nil
			},
		})
	}

	time.Sleep(200 * time.Millisecond)

	max := atomic.LoadInt32(&maxActive)
	assert.LessOrEqual(t, max, int32(maxWorkers), "must not exceed the worker limit")
}

func TestPool_GracefulShutdown(t *testing.T) {
	pool := NewRegenWorkerPool(2, 10)
	ctx, cancel := context.WithCancel(context.Background())

	pool.Start(ctx)

	var completed int32

	for i := 0; i < 2; i++ {
		pool.Dispatch(RegenJob{
			TaskID: fmt.Sprintf("t%d", i),
			PostID: fmt.Sprintf("post-%c", 'A'+i),
			Handler: func(ctx context.Context) error {
				time.Sleep(50 * time.Millisecond)
				atomic.AddInt32(&completed, 1)
				return nil
			},
		})
	}

	time.Sleep(10 * time.Millisecond)

	cancel()
	pool.Stop()

	completedCount := atomic.LoadInt32(&completed)
	assert.Equal(t, int32(2), completedCount, "in-flight tasks must finish during shutdown")
}

func TestPool_ConsistentHashing(t *testing.T) {
	pool := NewRegenWorkerPool(4, 100)

	shard1 := pool.shardForPost("post-123")
	shard2 := pool.shardForPost("post-123")
	shard3 := pool.shardForPost("post-123")

	assert.Equal(t, shard1, shard2, "same post must map to the same shard")
	assert.Equal(t, shard2, shard3, "same post must map to the same shard")

	assert.GreaterOrEqual(t, shard1, 0)
	assert.Less(t, shard1, 4)
}

func TestPool_FairDistribution(t *testing.T) {
	numWorkers := 4
	pool := NewRegenWorkerPool(numWorkers, 100)

	shardCounts := make(map[int]int)

	for i := 0; i < 100; i++ {
		shard := pool.shardForPost(fmt.Sprintf("post-%d", i))
		shardCounts[shard]++
	}

	for shard, count := range shardCounts {
		assert.Greater(t, count, 10, "worker %d should receive >10 posts", shard)
		assert.Less(t, count, 45, "worker %d should receive <45 posts", shard)
	}
}

func TestPool_TryDispatchBackpressure(t *testing.T) {
	pool := NewRegenWorkerPool(1, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool.Start(ctx)
	defer pool.Stop()

	block := make(chan struct{})
	slow := func(ctx context.Context) error {
		<-block
		return nil
	}

	// First job occupies the worker, second fills the queue.
	require.True(t, pool.TryDispatch(RegenJob{TaskID: "t1", PostID: "post-1", Handler: slow}))
	time.Sleep(20 * time.Millisecond)
	require.True(t, pool.TryDispatch(RegenJob{TaskID: "t2", PostID: "post-1", Handler: slow}))

	// Queue is full now; the third job must be rejected, not queued.
	accepted := pool.TryDispatch(RegenJob{TaskID: "t3", PostID: "post-1", Handler: slow})
	assert.False(t, accepted, "a full queue must reject new tasks")

	stats := pool.GetStats()
	assert.Equal(t, int64(1), stats.TotalDropped)

	close(block)
}
