package monitoring

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Staleness cutoffs. A server missing two heartbeat intervals is considered
// gone; idle workers expire a bit later so the dashboard can show wind-down.
const (
	serverTTL     = 1 * time.Minute
	idleWorkerTTL = 2 * time.Minute
)

// MemoryStore keeps monitoring state in-process. Sufficient for single-node
// deployments; it sees only this node's workers.
type MemoryStore struct {
	mu sync.RWMutex

	servers map[string]ServerInfo
	workers map[string]RegenActivity // key: "serverID:workerID"
	stats   GlobalStats
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		servers: make(map[string]ServerInfo),
		workers: make(map[string]RegenActivity),
	}
}

var _ Store = (*MemoryStore)(nil)

func (s *MemoryStore) ReportHeartbeat(ctx context.Context, serverID string, uptime int64, version string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.servers[serverID] = ServerInfo{
		ID:       serverID,
		LastSeen: time.Now(),
		Uptime:   uptime,
		Version:  version,
	}
	return nil
}

func (s *MemoryStore) GetActiveServers(ctx context.Context) ([]ServerInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var active []ServerInfo
	now := time.Now()
	for _, srv := range s.servers {
		if now.Sub(srv.LastSeen) < serverTTL {
			active = append(active, srv)
		}
	}
	return active, nil
}

func (s *MemoryStore) RemoveServer(ctx context.Context, serverID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.servers, serverID)
	for key, act := range s.workers {
		if act.ServerID == serverID {
			delete(s.workers, key)
		}
	}
	return nil
}

func (s *MemoryStore) UpdateWorkerActivity(ctx context.Context, activity RegenActivity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := fmt.Sprintf("%s:%d", activity.ServerID, activity.WorkerID)
	activity.UpdatedAt = time.Now()
	s.workers[key] = activity
	return nil
}

func (s *MemoryStore) GetClusterActivity(ctx context.Context) ([]RegenActivity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []RegenActivity
	now := time.Now()

	for _, act := range s.workers {
		srv, ok := s.servers[act.ServerID]
		if !ok || time.Since(srv.LastSeen) > serverTTL {
			continue
		}
		// Workers mid-pipeline always show; idle ones age out.
		if !act.IsProcessing && now.Sub(act.UpdatedAt) > idleWorkerTTL {
			continue
		}
		result = append(result, act)
	}
	return result, nil
}

func (s *MemoryStore) IncrementStat(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch key {
	case StatProcessed:
		s.stats.TotalProcessed++
	case StatErrors:
		s.stats.TotalErrors++
	case StatDropped:
		s.stats.TotalDropped++
	}
	return nil
}

func (s *MemoryStore) UpdateStat(ctx context.Context, key string, value int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if key == StatPending {
		s.stats.TotalPending = value
	}
	return nil
}

func (s *MemoryStore) GetGlobalStats(ctx context.Context) (GlobalStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats, nil
}
