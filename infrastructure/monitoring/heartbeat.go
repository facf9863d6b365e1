package monitoring

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/janushq/janus/pkg/regenworker"
)

const heartbeatInterval = 30 * time.Second

// StartHeartbeat reports this node to the store until the context ends, then
// withdraws it. When a pool is given its queue depth is synced on each beat.
func StartHeartbeat(ctx context.Context, store Store, pool *regenworker.RegenWorkerPool, serverID, version string) {
	started := time.Now()

	beat := func() {
		uptime := int64(time.Since(started).Seconds())
		if err := store.ReportHeartbeat(ctx, serverID, uptime, version); err != nil {
			logrus.Debugf("[MONITOR] heartbeat failed for %s: %v", serverID, err)
		}
		if pool != nil {
			stats := pool.GetStats()
			pending := int64(0)
			for _, w := range stats.WorkerStats {
				pending += int64(w.QueueDepth)
			}
			if err := store.UpdateStat(ctx, StatPending, pending); err != nil {
				logrus.Debugf("[MONITOR] pending sync failed for %s: %v", serverID, err)
			}
		}
	}

	logrus.Infof("[MONITOR] heartbeat started for server %s (every %s)", serverID, heartbeatInterval)
	beat()

	go func() {
		ticker := time.NewTicker(heartbeatInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				cleanup, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				if err := store.RemoveServer(cleanup, serverID); err != nil {
					logrus.Debugf("[MONITOR] could not withdraw server %s: %v", serverID, err)
				}
				cancel()
				return
			case <-ticker.C:
				beat()
			}
		}
	}()
}

// AttachPool mirrors worker activity from the regeneration pool into the
// store, one entry per worker, plus the processed counter.
func AttachPool(store Store, pool *regenworker.RegenWorkerPool, serverID string) {
	pool.OnWorkerStart = func(workerID int, postID string) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = store.UpdateWorkerActivity(ctx, RegenActivity{
			ServerID:     serverID,
			WorkerID:     workerID,
			IsProcessing: true,
			PostID:       postID,
			StartedAt:    time.Now(),
		})
	}

	pool.OnWorkerEnd = func(workerID int, postID string) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = store.UpdateWorkerActivity(ctx, RegenActivity{
			ServerID:     serverID,
			WorkerID:     workerID,
			IsProcessing: false,
		})
		_ = store.IncrementStat(ctx, StatProcessed)
	}
}
