package health

import (
	"context"
	"time"
)

type Component string

const (
	ComponentDatabase Component = "database"
	ComponentValkey   Component = "valkey"
	ComponentAI       Component = "ai_provider"
	ComponentPlatform Component = "platform"
)

type Status string

const (
	StatusOk       Status = "OK"
	StatusError    Status = "ERROR"
	StatusDisabled Status = "DISABLED"
)

type ComponentStatus struct {
	Component Component `json:"component"`
	Status    Status    `json:"status"`
	Message   string    `json:"message,omitempty"`
	LatencyMS int64     `json:"latency_ms"`
	CheckedAt time.Time `json:"checked_at"`
}

type IHealthUsecase interface {
	// Details checks every infrastructure dependency live: database ping,
	// valkey ping, AI provider key resolution, platform reachability.
	Details(ctx context.Context) []ComponentStatus
	// Healthy is the cheap liveness answer for the bare /health endpoint.
	Healthy(ctx context.Context) bool
}
