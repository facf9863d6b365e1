package monitoring

import (
	"context"
	"time"
)

// ServerInfo is one node's heartbeat entry. Multi-instance deployments share
// a Valkey-backed store; single instances use the in-memory one.
type ServerInfo struct {
	ID       string    `json:"id"`
	LastSeen time.Time `json:"last_seen"`
	Uptime   int64     `json:"uptime_seconds"`
	Version  string    `json:"version"`
}

// RegenActivity describes what one regeneration worker is doing right now.
type RegenActivity struct {
	ServerID     string    `json:"server_id"`
	WorkerID     int       `json:"worker_id"`
	IsProcessing bool      `json:"is_processing"`
	PostID       string    `json:"post_id,omitempty"`
	StartedAt    time.Time `json:"started_at,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// GlobalStats aggregates pipeline counters across all nodes.
type GlobalStats struct {
	TotalProcessed int64 `json:"total_processed"`
	TotalErrors    int64 `json:"total_errors"`
	TotalDropped   int64 `json:"total_dropped"`
	TotalPending   int64 `json:"total_pending"`

	ValkeyEnabled bool `json:"valkey_enabled"`
}

// Stat keys accepted by IncrementStat and UpdateStat.
const (
	StatProcessed = "processed"
	StatErrors    = "error"
	StatDropped   = "dropped"
	StatPending   = "pending"
)

// Store is the heartbeat and cluster-activity contract. Implementations must
// tolerate concurrent writers from every worker in the pool.
type Store interface {
	ReportHeartbeat(ctx context.Context, serverID string, uptime int64, version string) error
	GetActiveServers(ctx context.Context) ([]ServerInfo, error)
	RemoveServer(ctx context.Context, serverID string) error

	UpdateWorkerActivity(ctx context.Context, activity RegenActivity) error
	GetClusterActivity(ctx context.Context) ([]RegenActivity, error)

	IncrementStat(ctx context.Context, key string) error
	UpdateStat(ctx context.Context, key string, value int64) error
	GetGlobalStats(ctx context.Context) (GlobalStats, error)
}
