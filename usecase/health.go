package usecase

import (
	"context"
	"fmt"
	"time"

	coreconfig "github.com/janushq/janus/core/config"
	"github.com/janushq/janus/core/database"
	domainCredential "github.com/janushq/janus/domains/credential"
	"github.com/janushq/janus/domains/health"
	infraValkey "github.com/janushq/janus/infrastructure/valkey"
	"github.com/janushq/janus/infrastructure/xclone"
)

type healthService struct {
	credentialUsecase domainCredential.ICredentialUsecase
	valkey            *infraValkey.Client
	platform          *xclone.Client
}

func NewHealthService(cred domainCredential.ICredentialUsecase, valkey *infraValkey.Client, platform *xclone.Client) health.IHealthUsecase {
	return &healthService{
		credentialUsecase: cred,
		valkey:            valkey,
		platform:          platform,
	}
}

// Healthy answers the bare liveness probe: only the database has to respond.
func (s *healthService) Healthy(ctx context.Context) bool {
	return s.checkDatabase(ctx).Status == health.StatusOk
}

func (s *healthService) Details(ctx context.Context) []health.ComponentStatus {
	return []health.ComponentStatus{
		s.checkDatabase(ctx),
		s.checkValkey(ctx),
		s.checkAIProvider(ctx),
		s.checkPlatform(ctx),
	}
}

func (s *healthService) checkDatabase(ctx context.Context) health.ComponentStatus {
	start := time.Now()
	record := health.ComponentStatus{
		Component: health.ComponentDatabase,
		Status:    health.StatusOk,
		CheckedAt: start.UTC(),
	}

	sqlDB, err := database.GetLegacyDB()
	if err == nil {
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		err = sqlDB.PingContext(pingCtx)
	}
	if err != nil {
		record.Status = health.StatusError
		record.Message = err.Error()
	} else {
		record.Message = "Connection successful"
	}
	record.LatencyMS = time.Since(start).Milliseconds()
	return record
}

func (s *healthService) checkValkey(ctx context.Context) health.ComponentStatus {
	start := time.Now()
	record := health.ComponentStatus{
		Component: health.ComponentValkey,
		Status:    health.StatusOk,
		CheckedAt: start.UTC(),
	}

	if s.valkey == nil {
		record.Status = health.StatusDisabled
		record.Message = "Valkey is not configured"
		return record
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := s.valkey.Ping(pingCtx); err != nil {
		record.Status = health.StatusError
		record.Message = err.Error()
	} else {
		record.Message = "Connection successful"
	}
	record.LatencyMS = time.Since(start).Milliseconds()
	return record
}

// checkAIProvider resolves the active provider's key without calling the
// model. Key resolution failing means every regeneration would fail too.
func (s *healthService) checkAIProvider(ctx context.Context) health.ComponentStatus {
	start := time.Now()
	record := health.ComponentStatus{
		Component: health.ComponentAI,
		Status:    health.StatusOk,
		CheckedAt: start.UTC(),
	}

	provider := "gemini"
	if coreconfig.Global != nil && coreconfig.Global.AI.Provider != "" {
		provider = coreconfig.Global.AI.Provider
	}

	if s.credentialUsecase == nil {
		record.Status = health.StatusError
		record.Message = "credential service not initialized"
		return record
	}

	if _, err := s.credentialUsecase.ResolveKey(ctx, provider); err != nil {
		record.Status = health.StatusError
		record.Message = err.Error()
	} else {
		record.Message = fmt.Sprintf("API key resolved for %s", provider)
	}
	record.LatencyMS = time.Since(start).Milliseconds()
	return record
}

func (s *healthService) checkPlatform(ctx context.Context) health.ComponentStatus {
	start := time.Now()
	record := health.ComponentStatus{
		Component: health.ComponentPlatform,
		Status:    health.StatusOk,
		CheckedAt: start.UTC(),
	}

	if s.platform == nil {
		record.Status = health.StatusDisabled
		record.Message = "Platform integration is not enabled"
		return record
	}

	record.Message = fmt.Sprintf("Configured against %s", s.platform.BaseURL())
	record.LatencyMS = time.Since(start).Milliseconds()
	return record
}
