package monitoring

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/janushq/janus/infrastructure/valkey"
)

// ValkeyStore shares monitoring state across nodes through Valkey hashes,
// so every instance serves the whole cluster's picture.
type ValkeyStore struct {
	client *valkey.Client
	prefix string
}

func NewValkeyStore(client *valkey.Client) *ValkeyStore {
	return &ValkeyStore{
		client: client,
		prefix: client.Key("monitoring") + ":",
	}
}

var _ Store = (*ValkeyStore)(nil)

func (s *ValkeyStore) serversKey() string { return s.prefix + "servers" }
func (s *ValkeyStore) workersKey() string { return s.prefix + "workers" }
func (s *ValkeyStore) statsKey() string   { return s.prefix + "stats" }

func (s *ValkeyStore) ReportHeartbeat(ctx context.Context, serverID string, uptime int64, version string) error {
	info := ServerInfo{
		ID:       serverID,
		LastSeen: time.Now(),
		Uptime:   uptime,
		Version:  version,
	}

	data, err := json.Marshal(info)
	if err != nil {
		return err
	}

	cmd := s.client.Inner().B().Hset().
		Key(s.serversKey()).
		FieldValue().
		FieldValue(serverID, string(data)).
		Build()

	return s.client.Inner().Do(ctx, cmd).Error()
}

func (s *ValkeyStore) GetActiveServers(ctx context.Context) ([]ServerInfo, error) {
	cmd := s.client.Inner().B().Hgetall().Key(s.serversKey()).Build()
	entries, err := s.client.Inner().Do(ctx, cmd).AsStrMap()
	if err != nil {
		return nil, err
	}

	var active []ServerInfo
	now := time.Now()

	for _, val := range entries {
		var info ServerInfo
		if err := json.Unmarshal([]byte(val), &info); err == nil {
			// Cross-node clocks can drift, so the shared cutoff is looser
			// than the in-memory one.
			if now.Sub(info.LastSeen) < 2*serverTTL {
				active = append(active, info)
			}
		}
	}

	return active, nil
}

func (s *ValkeyStore) RemoveServer(ctx context.Context, serverID string) error {
	cmd := s.client.Inner().B().Hdel().Key(s.serversKey()).Field(serverID).Build()
	return s.client.Inner().Do(ctx, cmd).Error()
}

func (s *ValkeyStore) UpdateWorkerActivity(ctx context.Context, activity RegenActivity) error {
	key := fmt.Sprintf("%s:%d", activity.ServerID, activity.WorkerID)
	activity.UpdatedAt = time.Now()

	data, err := json.Marshal(activity)
	if err != nil {
		return err
	}

	cmd := s.client.Inner().B().Hset().
		Key(s.workersKey()).
		FieldValue().
		FieldValue(key, string(data)).
		Build()

	return s.client.Inner().Do(ctx, cmd).Error()
}

func (s *ValkeyStore) GetClusterActivity(ctx context.Context) ([]RegenActivity, error) {
	activeServers, err := s.GetActiveServers(ctx)
	if err != nil {
		return nil, err
	}

	aliveIDs := make(map[string]bool)
	for _, srv := range activeServers {
		aliveIDs[srv.ID] = true
	}

	cmd := s.client.Inner().B().Hgetall().Key(s.workersKey()).Build()
	entries, err := s.client.Inner().Do(ctx, cmd).AsStrMap()
	if err != nil {
		return nil, err
	}

	var result []RegenActivity
	now := time.Now()

	for _, val := range entries {
		var act RegenActivity
		if err := json.Unmarshal([]byte(val), &act); err == nil {
			if !aliveIDs[act.ServerID] {
				continue
			}
			if !act.IsProcessing && now.Sub(act.UpdatedAt) > idleWorkerTTL {
				continue
			}
			result = append(result, act)
		}
	}

	return result, nil
}

func (s *ValkeyStore) IncrementStat(ctx context.Context, key string) error {
	cmd := s.client.Inner().B().Hincrby().
		Key(s.statsKey()).
		Field(key).
		Increment(1).
		Build()

	return s.client.Inner().Do(ctx, cmd).Error()
}

func (s *ValkeyStore) UpdateStat(ctx context.Context, key string, value int64) error {
	cmd := s.client.Inner().B().Hset().
		Key(s.statsKey()).
		FieldValue().
		FieldValue(key, fmt.Sprintf("%d", value)).
		Build()

	return s.client.Inner().Do(ctx, cmd).Error()
}

func (s *ValkeyStore) GetGlobalStats(ctx context.Context) (GlobalStats, error) {
	cmd := s.client.Inner().B().Hgetall().Key(s.statsKey()).Build()
	res, err := s.client.Inner().Do(ctx, cmd).AsIntMap()
	if err != nil {
		return GlobalStats{}, err
	}

	return GlobalStats{
		TotalProcessed: res[StatProcessed],
		TotalErrors:    res[StatErrors],
		TotalDropped:   res[StatDropped],
		TotalPending:   res[StatPending],
		ValkeyEnabled:  true,
	}, nil
}
