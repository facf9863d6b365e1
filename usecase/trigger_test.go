package usecase_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/janushq/janus/config"
	"github.com/janushq/janus/content/domain"
	"github.com/janushq/janus/content/repository"
	domainTrigger "github.com/janushq/janus/domains/trigger"
	pkgError "github.com/janushq/janus/pkg/error"
	"github.com/janushq/janus/pkg/regenworker"
	"github.com/janushq/janus/regenengine"
	regenrepo "github.com/janushq/janus/regenengine/repository"
	"github.com/janushq/janus/usecase"
)

// stubProvider answers the trigger parser and the regeneration pipeline with
// canned responses so the usecase tests never touch a real model.
type stubProvider struct {
	mu       sync.Mutex
	parsed   regenengine.ParsedTrigger
	parseErr error

	parseCondition string
	parsePrompt    string
}

func (p *stubProvider) Name() string { return "gemini" }

func (p *stubProvider) ParseTrigger(ctx context.Context, condition, prompt string) (regenengine.ParsedTrigger, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.parseCondition = condition
	p.parsePrompt = prompt
	return p.parsed, p.parseErr
}

func (p *stubProvider) AnalyzeMetrics(ctx context.Context, input regenengine.AnalysisInput) (regenengine.AnalysisReport, error) {
	return regenengine.AnalysisReport{Report: "variant B held attention longer"}, nil
}

func (p *stubProvider) GenerateVariants(ctx context.Context, input regenengine.GenerationInput) ([]regenengine.VariantDraft, error) {
	return []regenengine.VariantDraft{
		{Slot: domain.VariantA, Content: "Rewritten with a sharper opening line."},
		{Slot: domain.VariantB, Content: "fresh take, more fun this time 🎉"},
	}, nil
}

func (p *stubProvider) GenerateMedia(ctx context.Context, prompt string) (regenengine.MediaAsset, error) {
	return regenengine.MediaAsset{}, regenengine.ErrMediaUnsupported
}

func newTriggerTestRepo(t *testing.T) *repository.ContentGormRepository {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	repo := repository.NewContentGormRepository(db)
	require.NoError(t, repo.Init(context.Background()))
	return repo
}

func newTriggerEngine(t *testing.T, repo domain.ContentRepository, provider regenengine.Provider) *regenengine.Engine {
	t.Helper()
	pool := regenworker.NewRegenWorkerPool(2, 16)
	ctx, cancel := context.WithCancel(context.Background())
	pool.Start(ctx)
	t.Cleanup(func() {
		cancel()
		pool.Stop()
	})

	engine := regenengine.NewEngine(repo, regenrepo.NewMemoryStatusStore(), pool)
	if provider != nil {
		engine.RegisterProvider(provider)
	}
	return engine
}

// seedCandidate writes a published post with an armed trigger and, when
// withMetrics is set, a metric snapshot with A=3 and B=8 likes.
func seedCandidate(t *testing.T, repo domain.ContentRepository, cfg domain.TriggerConfig, withMetrics bool) *domain.Post {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()

	campaign := &domain.Campaign{
		ID:        uuid.New().String(),
		Name:      "Winter rollout",
		Phase:     domain.PhaseActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, repo.CreateCampaign(ctx, campaign))

	postedAt := now.Add(-90 * time.Minute)
	post := &domain.Post{
		ID:         uuid.New().String(),
		CampaignID: campaign.ID,
		Topic:      "Error handling in Go services",
		Status:     domain.PostStatusPublished,
		PostedAt:   &postedAt,
		Trigger:    &cfg,
		Variants: []domain.ContentVariant{
			{ID: uuid.New().String(), Slot: domain.VariantA, Content: "Errors are values.", IsCurrent: true, CreatedAt: now},
			{ID: uuid.New().String(), Slot: domain.VariantB, Content: "stop ignoring your errors lol", IsCurrent: true, CreatedAt: now},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	for i := range post.Variants {
		post.Variants[i].PostID = post.ID
	}
	require.NoError(t, repo.CreatePost(ctx, post))

	if withMetrics {
		require.NoError(t, repo.UpsertMetrics(ctx, &domain.MetricRecord{
			PostID:      post.ID,
			A:           domain.VariantMetrics{Likes: 3, Impressions: 200},
			B:           domain.VariantMetrics{Likes: 8, Impressions: 150},
			RefreshedAt: now,
		}))
	}
	return post
}

func publishedPostWith(trigger *domain.TriggerConfig, status domain.PostStatus, postedAt *time.Time) domain.Post {
	return domain.Post{
		ID:       uuid.New().String(),
		Topic:    "Topic",
		Status:   status,
		PostedAt: postedAt,
		Trigger:  trigger,
	}
}

func TestEvaluatePost(t *testing.T) {
	postedAt := time.Now().UTC().Add(-time.Hour)
	armed := &domain.TriggerConfig{
		Condition:    domain.MetricLikes,
		Comparison:   domain.ComparisonGreater,
		Threshold:    5,
		ActionPrompt: "double down on what works",
	}

	tests := []struct {
		name     string
		post     domain.Post
		metrics  domain.MetricRecord
		fires    bool
		variants []string
	}{
		{
			name:     "fires on the variant above the threshold",
			post:     publishedPostWith(armed, domain.PostStatusPublished, &postedAt),
			metrics:  domain.MetricRecord{A: domain.VariantMetrics{Likes: 3}, B: domain.VariantMetrics{Likes: 8}},
			fires:    true,
			variants: []string{domain.VariantB},
		},
		{
			name:    "no fire when both variants are below",
			post:    publishedPostWith(armed, domain.PostStatusPublished, &postedAt),
			metrics: domain.MetricRecord{A: domain.VariantMetrics{Likes: 1}, B: domain.VariantMetrics{Likes: 2}},
			fires:   false,
		},
		{
			name: "fires both variants when both match",
			post: publishedPostWith(&domain.TriggerConfig{
				Condition: domain.MetricLikes, Comparison: domain.ComparisonLess, Threshold: 10, ActionPrompt: "make it punchier",
			}, domain.PostStatusPublished, &postedAt),
			metrics:  domain.MetricRecord{A: domain.VariantMetrics{Likes: 3}, B: domain.VariantMetrics{Likes: 8}},
			fires:    true,
			variants: []string{domain.VariantA, domain.VariantB},
		},
		{
			name: "equality fires on the exact value",
			post: publishedPostWith(&domain.TriggerConfig{
				Condition: domain.MetricImpressions, Comparison: domain.ComparisonEqual, Threshold: 100, ActionPrompt: "celebrate the milestone",
			}, domain.PostStatusPublished, &postedAt),
			metrics:  domain.MetricRecord{A: domain.VariantMetrics{Impressions: 100}, B: domain.VariantMetrics{Impressions: 42}},
			fires:    true,
			variants: []string{domain.VariantA},
		},
		{
			name: "equality does not fire one off the value",
			post: publishedPostWith(&domain.TriggerConfig{
				Condition: domain.MetricImpressions, Comparison: domain.ComparisonEqual, Threshold: 100, ActionPrompt: "celebrate the milestone",
			}, domain.PostStatusPublished, &postedAt),
			metrics: domain.MetricRecord{A: domain.VariantMetrics{Impressions: 99}, B: domain.VariantMetrics{Impressions: 101}},
			fires:   false,
		},
		{
			name:    "draft posts are never evaluated",
			post:    publishedPostWith(armed, domain.PostStatusDraft, &postedAt),
			metrics: domain.MetricRecord{B: domain.VariantMetrics{Likes: 8}},
			fires:   false,
		},
		{
			name:    "published without posted_at is skipped",
			post:    publishedPostWith(armed, domain.PostStatusPublished, nil),
			metrics: domain.MetricRecord{B: domain.VariantMetrics{Likes: 8}},
			fires:   false,
		},
		{
			name:    "no trigger armed",
			post:    publishedPostWith(nil, domain.PostStatusPublished, &postedAt),
			metrics: domain.MetricRecord{B: domain.VariantMetrics{Likes: 8}},
			fires:   false,
		},
		{
			name: "incomplete trigger is skipped",
			post: publishedPostWith(&domain.TriggerConfig{
				Condition: domain.MetricLikes, Comparison: domain.ComparisonGreater, Threshold: 5,
			}, domain.PostStatusPublished, &postedAt),
			metrics: domain.MetricRecord{B: domain.VariantMetrics{Likes: 8}},
			fires:   false,
		},
		{
			name: "unknown condition metric is skipped",
			post: publishedPostWith(&domain.TriggerConfig{
				Condition: "views", Comparison: domain.ComparisonGreater, Threshold: 5, ActionPrompt: "adjust",
			}, domain.PostStatusPublished, &postedAt),
			metrics: domain.MetricRecord{B: domain.VariantMetrics{Likes: 8}},
			fires:   false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.metrics.PostID = tc.post.ID
			event, fired := usecase.EvaluatePost(tc.post, tc.metrics)

			assert.Equal(t, tc.fires, fired)
			if !tc.fires {
				return
			}
			assert.Equal(t, tc.post.ID, event.PostID)
			assert.Equal(t, tc.variants, event.TriggeredVariants)
			assert.Equal(t, *tc.post.Trigger, event.Config)
			assert.Greater(t, event.Elapsed, time.Duration(0))
		})
	}
}

func TestEvaluatePostIsDeterministic(t *testing.T) {
	postedAt := time.Now().UTC().Add(-time.Hour)
	post := publishedPostWith(&domain.TriggerConfig{
		Condition: domain.MetricLikes, Comparison: domain.ComparisonLess, Threshold: 10, ActionPrompt: "make it punchier",
	}, domain.PostStatusPublished, &postedAt)
	metrics := domain.MetricRecord{
		PostID: post.ID,
		A:      domain.VariantMetrics{Likes: 3},
		B:      domain.VariantMetrics{Likes: 8},
	}

	first, firedFirst := usecase.EvaluatePost(post, metrics)
	second, firedSecond := usecase.EvaluatePost(post, metrics)

	require.True(t, firedFirst)
	require.True(t, firedSecond)
	assert.Equal(t, first.TriggeredVariants, second.TriggeredVariants)
	assert.Equal(t, first.ValueA, second.ValueA)
	assert.Equal(t, first.ValueB, second.ValueB)
	assert.Equal(t, first.Config, second.Config)
}

func TestSetTriggerStructuredForm(t *testing.T) {
	repo := newTriggerTestRepo(t)
	post := seedCandidate(t, repo, domain.TriggerConfig{
		Condition: domain.MetricLikes, Comparison: domain.ComparisonLess, Threshold: 1, ActionPrompt: "placeholder",
	}, false)
	service := usecase.NewTriggerService(repo, newTriggerEngine(t, repo, nil))

	threshold := 50
	cfg, err := service.SetTrigger(context.Background(), post.ID, domainTrigger.SetTriggerRequest{
		Condition:    domain.MetricRetweets,
		Comparison:   ">",
		Threshold:    &threshold,
		ActionPrompt: "lean into the thread format",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.MetricRetweets, cfg.Condition)
	assert.Equal(t, domain.ComparisonGreater, cfg.Comparison)
	assert.Equal(t, 50, cfg.Threshold)

	reloaded, err := repo.GetPost(context.Background(), post.ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded.Trigger)
	assert.Equal(t, cfg, *reloaded.Trigger)
}

func TestSetTriggerPromptForm(t *testing.T) {
	repo := newTriggerTestRepo(t)
	post := seedCandidate(t, repo, domain.TriggerConfig{
		Condition: domain.MetricLikes, Comparison: domain.ComparisonLess, Threshold: 1, ActionPrompt: "placeholder",
	}, false)

	provider := &stubProvider{parsed: regenengine.ParsedTrigger{
		Value:      100,
		Comparison: "less than",
		Duration:   2,
		Prompt:     "rewrite it with a more professional tone",
	}}
	service := usecase.NewTriggerService(repo, newTriggerEngine(t, repo, provider))

	cfg, err := service.SetTrigger(context.Background(), post.ID, domainTrigger.SetTriggerRequest{
		Condition: domain.MetricImpressions,
		Prompt:    "if this gets less than 100 impressions in 2 days, rewrite it with a more professional tone",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.MetricImpressions, cfg.Condition)
	assert.Equal(t, domain.ComparisonLess, cfg.Comparison)
	assert.Equal(t, 100, cfg.Threshold)
	assert.Equal(t, "rewrite it with a more professional tone", cfg.ActionPrompt)

	assert.Equal(t, domain.MetricImpressions, provider.parseCondition)
	assert.NotEmpty(t, provider.parsePrompt)
}

func TestSetTriggerRejectsUnknownCondition(t *testing.T) {
	repo := newTriggerTestRepo(t)
	service := usecase.NewTriggerService(repo, newTriggerEngine(t, repo, nil))

	threshold := 10
	_, err := service.SetTrigger(context.Background(), uuid.New().String(), domainTrigger.SetTriggerRequest{
		Condition:    "views",
		Comparison:   "<",
		Threshold:    &threshold,
		ActionPrompt: "adjust",
	})
	require.Error(t, err)

	var validationErr pkgError.ValidationError
	require.True(t, errors.As(err, &validationErr))
	assert.Contains(t, err.Error(), "must be one of")
}

func TestSetTriggerStructuredFormRequiresAllFields(t *testing.T) {
	repo := newTriggerTestRepo(t)
	service := usecase.NewTriggerService(repo, newTriggerEngine(t, repo, nil))

	_, err := service.SetTrigger(context.Background(), uuid.New().String(), domainTrigger.SetTriggerRequest{
		Condition:  domain.MetricLikes,
		Comparison: "<",
	})
	require.Error(t, err)

	var validationErr pkgError.ValidationError
	assert.True(t, errors.As(err, &validationErr))
}

func TestSetTriggerUnknownPost(t *testing.T) {
	repo := newTriggerTestRepo(t)
	service := usecase.NewTriggerService(repo, newTriggerEngine(t, repo, nil))

	threshold := 10
	_, err := service.SetTrigger(context.Background(), uuid.New().String(), domainTrigger.SetTriggerRequest{
		Condition:    domain.MetricLikes,
		Comparison:   "<",
		Threshold:    &threshold,
		ActionPrompt: "adjust",
	})
	require.Error(t, err)

	var notFound pkgError.NotFoundError
	assert.True(t, errors.As(err, &notFound))
}

func TestSetTriggerPromptParserIncomplete(t *testing.T) {
	repo := newTriggerTestRepo(t)
	post := seedCandidate(t, repo, domain.TriggerConfig{
		Condition: domain.MetricLikes, Comparison: domain.ComparisonLess, Threshold: 1, ActionPrompt: "placeholder",
	}, false)

	provider := &stubProvider{parsed: regenengine.ParsedTrigger{
		Value:      5,
		Comparison: "<",
		Prompt:     "   ",
	}}
	service := usecase.NewTriggerService(repo, newTriggerEngine(t, repo, provider))

	_, err := service.SetTrigger(context.Background(), post.ID, domainTrigger.SetTriggerRequest{
		Condition: domain.MetricLikes,
		Prompt:    "do something when it flops",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "could not extract a complete trigger")
}

func TestSetTriggerPromptParserBadComparison(t *testing.T) {
	repo := newTriggerTestRepo(t)
	post := seedCandidate(t, repo, domain.TriggerConfig{
		Condition: domain.MetricLikes, Comparison: domain.ComparisonLess, Threshold: 1, ActionPrompt: "placeholder",
	}, false)

	provider := &stubProvider{parsed: regenengine.ParsedTrigger{
		Value:      5,
		Comparison: "approximately",
		Prompt:     "soften the tone",
	}}
	service := usecase.NewTriggerService(repo, newTriggerEngine(t, repo, provider))

	_, err := service.SetTrigger(context.Background(), post.ID, domainTrigger.SetTriggerRequest{
		Condition: domain.MetricLikes,
		Prompt:    "when likes hover around five, soften the tone",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `parser returned "approximately"`)
}

func TestClearTriggerDisarms(t *testing.T) {
	repo := newTriggerTestRepo(t)
	post := seedCandidate(t, repo, domain.TriggerConfig{
		Condition: domain.MetricLikes, Comparison: domain.ComparisonLess, Threshold: 10, ActionPrompt: "make it punchier",
	}, true)
	service := usecase.NewTriggerService(repo, newTriggerEngine(t, repo, nil))

	require.NoError(t, service.ClearTrigger(context.Background(), post.ID))

	reloaded, err := repo.GetPost(context.Background(), post.ID)
	require.NoError(t, err)
	assert.Nil(t, reloaded.Trigger)

	fired, err := service.CheckTriggers(context.Background())
	require.NoError(t, err)
	assert.Empty(t, fired)
}

func TestCheckTriggersFiresAndDisarms(t *testing.T) {
	repo := newTriggerTestRepo(t)
	post := seedCandidate(t, repo, domain.TriggerConfig{
		Condition: domain.MetricLikes, Comparison: domain.ComparisonLess, Threshold: 10, ActionPrompt: "make it punchier",
	}, true)

	engine := newTriggerEngine(t, repo, &stubProvider{})
	service := usecase.NewTriggerService(repo, engine)

	fired, err := service.CheckTriggers(context.Background())
	require.NoError(t, err)
	require.Len(t, fired, 1)

	assert.Equal(t, post.ID, fired[0].PostID)
	assert.Equal(t, domain.MetricLikes, fired[0].Condition)
	assert.Equal(t, domain.ComparisonLess, fired[0].Comparison)
	assert.Equal(t, 10, fired[0].Threshold)
	assert.Equal(t, []string{domain.VariantA, domain.VariantB}, fired[0].TriggeredVariants)
	assert.EqualValues(t, 3, fired[0].ValueA)
	assert.EqualValues(t, 8, fired[0].ValueB)
	require.NotEmpty(t, fired[0].TaskID)

	deadline := time.Now().Add(5 * time.Second)
	for {
		task, err := engine.StatusStore().GetTask(context.Background(), fired[0].TaskID)
		require.NoError(t, err)
		if task.Finished() {
			require.Equal(t, regenengine.TaskSucceeded, task.Status)
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("task %s did not finish in time", fired[0].TaskID)
		}
		time.Sleep(10 * time.Millisecond)
	}

	// The finalize step disarmed the trigger, so a second pass is a no-op.
	again, err := service.CheckTriggers(context.Background())
	require.NoError(t, err)
	assert.Empty(t, again)

	reloaded, err := repo.GetPost(context.Background(), post.ID)
	require.NoError(t, err)
	assert.Nil(t, reloaded.Trigger)
	assert.Equal(t, domain.PostStatusDraft, reloaded.Status)
}

func TestCheckTriggersFiresSingleVariant(t *testing.T) {
	repo := newTriggerTestRepo(t)
	seedCandidate(t, repo, domain.TriggerConfig{
		Condition: domain.MetricLikes, Comparison: domain.ComparisonGreater, Threshold: 5, ActionPrompt: "double down on what works",
	}, true)

	service := usecase.NewTriggerService(repo, newTriggerEngine(t, repo, &stubProvider{}))

	fired, err := service.CheckTriggers(context.Background())
	require.NoError(t, err)
	require.Len(t, fired, 1)
	assert.Equal(t, []string{domain.VariantB}, fired[0].TriggeredVariants)
}

func TestCheckTriggersSkipsPostWithoutMetrics(t *testing.T) {
	repo := newTriggerTestRepo(t)
	seedCandidate(t, repo, domain.TriggerConfig{
		Condition: domain.MetricLikes, Comparison: domain.ComparisonLess, Threshold: 10, ActionPrompt: "make it punchier",
	}, false)

	service := usecase.NewTriggerService(repo, newTriggerEngine(t, repo, &stubProvider{}))

	fired, err := service.CheckTriggers(context.Background())
	require.NoError(t, err)
	assert.Empty(t, fired)
}

func TestCheckTriggersReturnsBeforeWebhookDelivery(t *testing.T) {
	repo := newTriggerTestRepo(t)
	seedCandidate(t, repo, domain.TriggerConfig{
		Condition: domain.MetricLikes, Comparison: domain.ComparisonLess, Threshold: 10, ActionPrompt: "make it punchier",
	}, true)

	received := make(chan struct{}, 4)
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received <- struct{}{}
		time.Sleep(2 * time.Second)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(slow.Close)

	prev := config.WebhookURLs
	config.WebhookURLs = []string{slow.URL}
	t.Cleanup(func() { config.WebhookURLs = prev })

	service := usecase.NewTriggerService(repo, newTriggerEngine(t, repo, &stubProvider{}))

	start := time.Now()
	fired, err := service.CheckTriggers(context.Background())
	elapsed := time.Since(start)

	require.NoError(t, err)
	require.Len(t, fired, 1)
	assert.Less(t, elapsed, time.Second, "webhook delivery must not stall the evaluation pass")

	// The fire event and the task outcome still reach the endpoint, just in
	// the background.
	for i := 0; i < 2; i++ {
		select {
		case <-received:
		case <-time.After(5 * time.Second):
			t.Fatal("webhook delivery never started")
		}
	}
}

func TestCheckTriggersNoCandidates(t *testing.T) {
	repo := newTriggerTestRepo(t)
	service := usecase.NewTriggerService(repo, newTriggerEngine(t, repo, nil))

	fired, err := service.CheckTriggers(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, fired)
	assert.Empty(t, fired)
}
