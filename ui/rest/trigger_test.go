package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/janushq/janus/content/domain"
	"github.com/janushq/janus/content/repository"
	"github.com/janushq/janus/pkg/regenworker"
	"github.com/janushq/janus/regenengine"
	regenrepo "github.com/janushq/janus/regenengine/repository"
	"github.com/janushq/janus/ui/rest/middleware"
	"github.com/janushq/janus/usecase"
)

type noopProvider struct{}

func (noopProvider) Name() string { return "gemini" }

func (noopProvider) ParseTrigger(ctx context.Context, condition, prompt string) (regenengine.ParsedTrigger, error) {
	return regenengine.ParsedTrigger{Value: 10, Comparison: "<", Prompt: "make it better"}, nil
}

func (noopProvider) AnalyzeMetrics(ctx context.Context, input regenengine.AnalysisInput) (regenengine.AnalysisReport, error) {
	return regenengine.AnalysisReport{Report: "flat engagement on both sides"}, nil
}

func (noopProvider) GenerateVariants(ctx context.Context, input regenengine.GenerationInput) ([]regenengine.VariantDraft, error) {
	return []regenengine.VariantDraft{
		{Slot: domain.VariantA, Content: "Second draft, tighter."},
		{Slot: domain.VariantB, Content: "take two, now with jokes 😄"},
	}, nil
}

func (noopProvider) GenerateMedia(ctx context.Context, prompt string) (regenengine.MediaAsset, error) {
	return regenengine.MediaAsset{}, regenengine.ErrMediaUnsupported
}

func newTriggerTestApp(t *testing.T) (*fiber.App, domain.ContentRepository) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	repo := repository.NewContentGormRepository(db)
	if err := repo.Init(context.Background()); err != nil {
		t.Fatalf("init schema: %v", err)
	}

	pool := regenworker.NewRegenWorkerPool(1, 8)
	ctx, cancel := context.WithCancel(context.Background())
	pool.Start(ctx)
	t.Cleanup(func() {
		cancel()
		pool.Stop()
	})

	engine := regenengine.NewEngine(repo, regenrepo.NewMemoryStatusStore(), pool)
	engine.RegisterProvider(noopProvider{})

	app := fiber.New()
	app.Use(middleware.Recovery())
	api := app.Group("/api")
	InitRestTrigger(api, usecase.NewTriggerService(repo, engine))
	return app, repo
}

func seedTriggerPost(t *testing.T, repo domain.ContentRepository, withMetrics bool) *domain.Post {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()

	campaign := &domain.Campaign{
		ID:        uuid.New().String(),
		Name:      "API rollout",
		Phase:     domain.PhaseActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := repo.CreateCampaign(ctx, campaign); err != nil {
		t.Fatalf("create campaign: %v", err)
	}

	postedAt := now.Add(-time.Hour)
	post := &domain.Post{
		ID:         uuid.New().String(),
		CampaignID: campaign.ID,
		Topic:      "Structured logging",
		Status:     domain.PostStatusPublished,
		PostedAt:   &postedAt,
		Variants: []domain.ContentVariant{
			{ID: uuid.New().String(), Slot: domain.VariantA, Content: "Log fields, not sentences.", IsCurrent: true, CreatedAt: now},
			{ID: uuid.New().String(), Slot: domain.VariantB, Content: "your logs are a mess, here's the fix", IsCurrent: true, CreatedAt: now},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	for i := range post.Variants {
		post.Variants[i].PostID = post.ID
	}
	if err := repo.CreatePost(ctx, post); err != nil {
		t.Fatalf("create post: %v", err)
	}

	if withMetrics {
		err := repo.UpsertMetrics(ctx, &domain.MetricRecord{
			PostID:      post.ID,
			A:           domain.VariantMetrics{Likes: 2},
			B:           domain.VariantMetrics{Likes: 9},
			RefreshedAt: now,
		})
		if err != nil {
			t.Fatalf("upsert metrics: %v", err)
		}
	}
	return post
}

func postJSON(t *testing.T, app *fiber.App, path string, body any) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, 10000)
	if err != nil {
		t.Fatalf("app.Test() error: %v", err)
	}
	return resp
}

func TestSetTriggerEndpoint_StructuredForm(t *testing.T) {
	app, repo := newTriggerTestApp(t)
	post := seedTriggerPost(t, repo, false)

	resp := postJSON(t, app, "/api/posts/"+post.ID+"/trigger", map[string]any{
		"condition":     "likes",
		"comparison":    "<",
		"threshold":     10,
		"action_prompt": "make it more playful",
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}

	reloaded, err := repo.GetPost(context.Background(), post.ID)
	if err != nil {
		t.Fatalf("reload post: %v", err)
	}
	if reloaded.Trigger == nil {
		t.Fatal("trigger was not armed")
	}
	if reloaded.Trigger.Threshold != 10 || reloaded.Trigger.Comparison != domain.ComparisonLess {
		t.Fatalf("unexpected trigger stored: %+v", reloaded.Trigger)
	}
}

func TestSetTriggerEndpoint_UnknownCondition(t *testing.T) {
	app, repo := newTriggerTestApp(t)
	post := seedTriggerPost(t, repo, false)

	resp := postJSON(t, app, "/api/posts/"+post.ID+"/trigger", map[string]any{
		"condition":     "views",
		"comparison":    "<",
		"threshold":     10,
		"action_prompt": "make it more playful",
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}

	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "VALIDATION_ERROR") {
		t.Fatalf("expected validation error code in body: %s", body)
	}
}

func TestSetTriggerEndpoint_UnknownPost(t *testing.T) {
	app, _ := newTriggerTestApp(t)

	resp := postJSON(t, app, "/api/posts/"+uuid.New().String()+"/trigger", map[string]any{
		"condition":     "likes",
		"comparison":    "<",
		"threshold":     10,
		"action_prompt": "make it more playful",
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestClearTriggerEndpoint(t *testing.T) {
	app, repo := newTriggerTestApp(t)
	post := seedTriggerPost(t, repo, false)

	err := repo.SetTrigger(context.Background(), post.ID, domain.TriggerConfig{
		Condition: domain.MetricLikes, Comparison: domain.ComparisonLess, Threshold: 10, ActionPrompt: "retry",
	})
	if err != nil {
		t.Fatalf("arm trigger: %v", err)
	}

	req := httptest.NewRequest(http.MethodDelete, "/api/posts/"+post.ID+"/trigger", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test() error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}

	reloaded, err := repo.GetPost(context.Background(), post.ID)
	if err != nil {
		t.Fatalf("reload post: %v", err)
	}
	if reloaded.Trigger != nil {
		t.Fatal("trigger should be cleared")
	}
}

func TestCheckTriggersEndpoint(t *testing.T) {
	app, repo := newTriggerTestApp(t)
	post := seedTriggerPost(t, repo, true)

	err := repo.SetTrigger(context.Background(), post.ID, domain.TriggerConfig{
		Condition: domain.MetricLikes, Comparison: domain.ComparisonGreater, Threshold: 5, ActionPrompt: "push the winner",
	})
	if err != nil {
		t.Fatalf("arm trigger: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/triggers/check", nil)
	resp, err := app.Test(req, 10000)
	if err != nil {
		t.Fatalf("app.Test() error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}

	var envelope struct {
		Results TriggerCheckResult `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	if envelope.Results.Count != 1 {
		t.Fatalf("expected one fired trigger, got %d", envelope.Results.Count)
	}
	fired := envelope.Results.Fired[0]
	if fired.PostID != post.ID {
		t.Fatalf("fired wrong post: %s", fired.PostID)
	}
	if len(fired.TriggeredVariants) != 1 || fired.TriggeredVariants[0] != domain.VariantB {
		t.Fatalf("expected variant B to fire, got %v", fired.TriggeredVariants)
	}
	if fired.TaskID == "" {
		t.Fatal("fired trigger should carry a task id")
	}
}

func TestCheckTriggersEndpoint_NoCandidates(t *testing.T) {
	app, _ := newTriggerTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/api/triggers/check", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test() error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}

	var envelope struct {
		Results TriggerCheckResult `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Results.Count != 0 {
		t.Fatalf("expected zero fired triggers, got %d", envelope.Results.Count)
	}
}
