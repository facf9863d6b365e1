package regenengine_test

import (
	"context"
	"errors"
	"strings"
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
	coreconfig "github.com/janushq/janus/core/config"
	pkgError "github.com/janushq/janus/pkg/error"
	"github.com/janushq/janus/pkg/regenworker"
	"github.com/janushq/janus/regenengine"
	regenrepo "github.com/janushq/janus/regenengine/repository"
)

type fakeProvider struct {
	mu sync.Mutex

	parsed      regenengine.ParsedTrigger
	parseErr    error
	report      string
	analyzeErr  error
	drafts      []regenengine.VariantDraft
	generateErr error
	media       regenengine.MediaAsset
	mediaErr    error

	analyzeInput  regenengine.AnalysisInput
	generateInput regenengine.GenerationInput
	analyzeCalls  int
	generateCalls int
	mediaCalls    int
}

func (f *fakeProvider) Name() string { return "gemini" }

func (f *fakeProvider) ParseTrigger(ctx context.Context, condition, prompt string) (regenengine.ParsedTrigger, error) {
	return f.parsed, f.parseErr
}

func (f *fakeProvider) AnalyzeMetrics(ctx context.Context, input regenengine.AnalysisInput) (regenengine.AnalysisReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.analyzeCalls++
	f.analyzeInput = input
	if f.analyzeErr != nil {
		return regenengine.AnalysisReport{}, f.analyzeErr
	}
	return regenengine.AnalysisReport{Report: f.report}, nil
}

func (f *fakeProvider) GenerateVariants(ctx context.Context, input regenengine.GenerationInput) ([]regenengine.VariantDraft, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.generateCalls++
	f.generateInput = input
	if f.generateErr != nil {
		return nil, f.generateErr
	}
	return f.drafts, nil
}

func (f *fakeProvider) GenerateMedia(ctx context.Context, prompt string) (regenengine.MediaAsset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mediaCalls++
	if f.mediaErr != nil {
		return regenengine.MediaAsset{}, f.mediaErr
	}
	return f.media, nil
}

func (f *fakeProvider) calls() (analyze, generate, media int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.analyzeCalls, f.generateCalls, f.mediaCalls
}

func testDrafts() []regenengine.VariantDraft {
	return []regenengine.VariantDraft{
		{Slot: domain.VariantA, Content: "Go's scheduler explained in one diagram.", Hook: "One diagram", Reasoning: "Analysis favored visual hooks", Hashtags: []string{"#golang"}},
		{Slot: domain.VariantB, Content: "goroutines go brrr 🚀 here's why", Hook: "Casual energy", Reasoning: "B side leans informal", Hashtags: []string{"#golang", "#dev"}},
	}
}

func setupTestRepo(t *testing.T) *repository.ContentGormRepository {
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

// seedPublishedPost creates a campaign, a published post with an armed trigger,
// one current variant per slot and a metric row.
func seedPublishedPost(t *testing.T, repo domain.ContentRepository) *domain.Post {
	t.Helper()
	post := seedPublishedPostNoMetrics(t, repo)
	require.NoError(t, repo.UpsertMetrics(context.Background(), &domain.MetricRecord{
		PostID:      post.ID,
		A:           domain.VariantMetrics{Likes: 3, Impressions: 120},
		B:           domain.VariantMetrics{Likes: 8, Impressions: 95},
		RefreshedAt: time.Now().UTC(),
	}))
	return post
}

// seedPublishedPostNoMetrics seeds the same post without a metric row.
func seedPublishedPostNoMetrics(t *testing.T, repo domain.ContentRepository) *domain.Post {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()

	campaign := &domain.Campaign{
		ID:        uuid.New().String(),
		Name:      "Autumn launch",
		Phase:     domain.PhaseActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, repo.CreateCampaign(ctx, campaign))

	postedAt := now.Add(-2 * time.Hour)
	post := &domain.Post{
		ID:         uuid.New().String(),
		CampaignID: campaign.ID,
		Topic:      "Go concurrency patterns",
		Status:     domain.PostStatusPublished,
		PostedAt:   &postedAt,
		Trigger: &domain.TriggerConfig{
			Condition:    domain.MetricLikes,
			Comparison:   domain.ComparisonLess,
			Threshold:    10,
			ActionPrompt: "make it more playful",
		},
		Variants: []domain.ContentVariant{
			{ID: uuid.New().String(), Slot: domain.VariantA, Content: "Original professional text", IsCurrent: true, CreatedAt: now},
			{ID: uuid.New().String(), Slot: domain.VariantB, Content: "Original casual text", IsCurrent: true, CreatedAt: now},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	for i := range post.Variants {
		post.Variants[i].PostID = post.ID
	}
	require.NoError(t, repo.CreatePost(ctx, post))
	return post
}

func triggerEventFor(post *domain.Post) domain.TriggerEvent {
	return domain.TriggerEvent{
		PostID:            post.ID,
		Config:            *post.Trigger,
		ValueA:            3,
		ValueB:            8,
		TriggeredVariants: []string{domain.VariantA, domain.VariantB},
	}
}

func newTestEngine(t *testing.T, repo domain.ContentRepository, provider regenengine.Provider) (*regenengine.Engine, regenengine.StatusStore) {
	t.Helper()
	pool := regenworker.NewRegenWorkerPool(2, 16)
	ctx, cancel := context.WithCancel(context.Background())
	pool.Start(ctx)
	t.Cleanup(func() {
		cancel()
		pool.Stop()
	})

	store := regenrepo.NewMemoryStatusStore()
	engine := regenengine.NewEngine(repo, store, pool)
	if provider != nil {
		engine.RegisterProvider(provider)
	}
	return engine, store
}

func waitForTask(t *testing.T, store regenengine.StatusStore, taskID string) regenengine.TaskRecord {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		task, err := store.GetTask(context.Background(), taskID)
		if err == nil && task.Finished() {
			return task
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("task %s did not finish in time", taskID)
	return regenengine.TaskRecord{}
}

func TestEngineRunsFullPipeline(t *testing.T) {
	repo := setupTestRepo(t)
	post := seedPublishedPost(t, repo)
	provider := &fakeProvider{report: "B outperforms A on every counter.", drafts: testDrafts()}
	engine, store := newTestEngine(t, repo, provider)

	var hookMu sync.Mutex
	var statuses []regenengine.TaskStatus
	engine.RegisterTaskHook(func(task regenengine.TaskRecord) {
		hookMu.Lock()
		statuses = append(statuses, task.Status)
		hookMu.Unlock()
	})

	ctx := context.Background()
	task, err := engine.EnqueueRegeneration(ctx, triggerEventFor(post))
	require.NoError(t, err)
	require.NotEmpty(t, task.TaskID)
	assert.Equal(t, domain.MetricLikes, task.Condition)

	done := waitForTask(t, store, task.TaskID)
	assert.Equal(t, regenengine.TaskSucceeded, done.Status)
	assert.Empty(t, done.Error)
	assert.NotNil(t, done.StartedAt)
	assert.NotNil(t, done.FinishedAt)
	assert.Equal(t, 1, done.Attempts)

	// Trigger disarmed, post back to draft.
	reloaded, err := repo.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Nil(t, reloaded.Trigger)
	assert.Equal(t, domain.PostStatusDraft, reloaded.Status)

	// Fresh variants are current, the originals flipped off.
	current, err := repo.ListVariants(ctx, post.ID, true)
	require.NoError(t, err)
	require.Len(t, current, 2)
	assert.Equal(t, "Go's scheduler explained in one diagram.", current[0].Content)
	assert.Equal(t, "goroutines go brrr 🚀 here's why", current[1].Content)

	all, err := repo.ListVariants(ctx, post.ID, false)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	// The analysis saw the stored counters and the generation saw the report.
	provider.mu.Lock()
	assert.Equal(t, int64(3), provider.analyzeInput.Metrics.A.Likes)
	assert.Equal(t, int64(8), provider.analyzeInput.Metrics.B.Likes)
	assert.Equal(t, "make it more playful", provider.generateInput.ActionPrompt)
	assert.Equal(t, "B outperforms A on every counter.", provider.generateInput.Analysis)
	provider.mu.Unlock()

	hookMu.Lock()
	defer hookMu.Unlock()
	require.NotEmpty(t, statuses)
	assert.Equal(t, regenengine.TaskPending, statuses[0])
	assert.Equal(t, regenengine.TaskSucceeded, statuses[len(statuses)-1])
}

func TestEngineAnalyzeFailureLeavesTriggerArmed(t *testing.T) {
	repo := setupTestRepo(t)
	post := seedPublishedPost(t, repo)
	provider := &fakeProvider{analyzeErr: errors.New("model unavailable"), drafts: testDrafts()}
	engine, store := newTestEngine(t, repo, provider)

	ctx := context.Background()
	task, err := engine.EnqueueRegeneration(ctx, triggerEventFor(post))
	require.NoError(t, err)

	done := waitForTask(t, store, task.TaskID)
	assert.Equal(t, regenengine.TaskFailed, done.Status)
	assert.Equal(t, regenengine.StageAnalyze, done.Stage)
	assert.Contains(t, done.Error, "model unavailable")

	// The post is untouched so a later sweep can retry.
	reloaded, err := repo.GetPost(ctx, post.ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded.Trigger)
	assert.Equal(t, domain.PostStatusPublished, reloaded.Status)

	all, err := repo.ListVariants(ctx, post.ID, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, generate, _ := provider.calls()
	assert.Zero(t, generate)
}

func TestEngineMissingMetricRecordFailsTask(t *testing.T) {
	repo := setupTestRepo(t)
	post := seedPublishedPostNoMetrics(t, repo)
	provider := &fakeProvider{report: "report", drafts: testDrafts()}
	engine, store := newTestEngine(t, repo, provider)

	ctx := context.Background()
	task, err := engine.EnqueueRegeneration(ctx, triggerEventFor(post))
	require.NoError(t, err)

	done := waitForTask(t, store, task.TaskID)
	assert.Equal(t, regenengine.TaskFailed, done.Status)
	assert.Equal(t, regenengine.StageLoad, done.Stage)
	assert.Contains(t, done.Error, "no metrics recorded")

	// The pipeline never reached the model and the trigger stays armed.
	analyze, generate, _ := provider.calls()
	assert.Zero(t, analyze)
	assert.Zero(t, generate)

	reloaded, err := repo.GetPost(ctx, post.ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded.Trigger)
	assert.Equal(t, domain.PostStatusPublished, reloaded.Status)

	all, err := repo.ListVariants(ctx, post.ID, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestEngineRejectsOverlongContent(t *testing.T) {
	repo := setupTestRepo(t)
	post := seedPublishedPost(t, repo)
	drafts := testDrafts()
	drafts[1].Content = strings.Repeat("x", domain.MaxContentLength+1)
	provider := &fakeProvider{report: "report", drafts: drafts}
	engine, store := newTestEngine(t, repo, provider)

	ctx := context.Background()
	task, err := engine.EnqueueRegeneration(ctx, triggerEventFor(post))
	require.NoError(t, err)

	done := waitForTask(t, store, task.TaskID)
	assert.Equal(t, regenengine.TaskFailed, done.Status)
	assert.Equal(t, regenengine.StageGenerate, done.Stage)
	assert.Contains(t, done.Error, "exceeds 280 characters")

	// Nothing was persisted and the trigger is still armed.
	all, err := repo.ListVariants(ctx, post.ID, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	reloaded, err := repo.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.NotNil(t, reloaded.Trigger)
}

func TestEngineMediaFailureDoesNotAbort(t *testing.T) {
	repo := setupTestRepo(t)
	post := seedPublishedPost(t, repo)
	provider := &fakeProvider{report: "report", drafts: testDrafts(), mediaErr: errors.New("image model overloaded")}
	engine, store := newTestEngine(t, repo, provider)

	prev := config.ContentMediaEnabled
	config.ContentMediaEnabled = true
	t.Cleanup(func() { config.ContentMediaEnabled = prev })

	ctx := context.Background()
	task, err := engine.EnqueueRegeneration(ctx, triggerEventFor(post))
	require.NoError(t, err)

	done := waitForTask(t, store, task.TaskID)
	assert.Equal(t, regenengine.TaskSucceeded, done.Status)

	current, err := repo.ListVariants(ctx, post.ID, true)
	require.NoError(t, err)
	require.Len(t, current, 2)
	assert.Empty(t, current[0].MediaPath)
	assert.Empty(t, current[1].MediaPath)

	// Both variants were attempted despite the first failure.
	_, _, media := provider.calls()
	assert.Equal(t, 2, media)
}

func TestEngineMediaUnsupportedSkipsRemainingVariants(t *testing.T) {
	repo := setupTestRepo(t)
	post := seedPublishedPost(t, repo)
	provider := &fakeProvider{report: "report", drafts: testDrafts(), mediaErr: regenengine.ErrMediaUnsupported}
	engine, store := newTestEngine(t, repo, provider)

	prev := config.ContentMediaEnabled
	config.ContentMediaEnabled = true
	t.Cleanup(func() { config.ContentMediaEnabled = prev })

	task, err := engine.EnqueueRegeneration(context.Background(), triggerEventFor(post))
	require.NoError(t, err)

	done := waitForTask(t, store, task.TaskID)
	assert.Equal(t, regenengine.TaskSucceeded, done.Status)

	_, _, media := provider.calls()
	assert.Equal(t, 1, media)
}

func TestEngineStoresGeneratedMedia(t *testing.T) {
	repo := setupTestRepo(t)
	post := seedPublishedPost(t, repo)
	provider := &fakeProvider{
		report: "report",
		drafts: testDrafts(),
		media:  regenengine.MediaAsset{Data: []byte("not-a-real-image"), MIMEType: "image/png"},
	}
	engine, store := newTestEngine(t, repo, provider)

	prevGlobal := coreconfig.Global
	coreconfig.Global = &coreconfig.Config{}
	coreconfig.Global.Paths.Generated = t.TempDir()
	prevMedia := config.ContentMediaEnabled
	config.ContentMediaEnabled = true
	t.Cleanup(func() {
		coreconfig.Global = prevGlobal
		config.ContentMediaEnabled = prevMedia
	})

	ctx := context.Background()
	task, err := engine.EnqueueRegeneration(ctx, triggerEventFor(post))
	require.NoError(t, err)

	done := waitForTask(t, store, task.TaskID)
	require.Equal(t, regenengine.TaskSucceeded, done.Status)

	current, err := repo.ListVariants(ctx, post.ID, true)
	require.NoError(t, err)
	require.Len(t, current, 2)
	for _, v := range current {
		assert.NotEmpty(t, v.MediaPath)
		assert.Equal(t, "image/png", v.MediaMIME)
		assert.True(t, strings.HasSuffix(v.MediaPath, ".png"))
	}
}

type finalizeFailRepo struct {
	domain.ContentRepository
}

func (r *finalizeFailRepo) FinalizeRegeneration(ctx context.Context, postID string) error {
	return errors.New("disk I/O error")
}

func TestEngineFinalizeFailureKeepsTriggerArmed(t *testing.T) {
	inner := setupTestRepo(t)
	post := seedPublishedPost(t, inner)
	provider := &fakeProvider{report: "report", drafts: testDrafts()}
	engine, store := newTestEngine(t, &finalizeFailRepo{ContentRepository: inner}, provider)

	ctx := context.Background()
	task, err := engine.EnqueueRegeneration(ctx, triggerEventFor(post))
	require.NoError(t, err)

	done := waitForTask(t, store, task.TaskID)
	assert.Equal(t, regenengine.TaskFailed, done.Status)
	assert.Equal(t, regenengine.StageFinalize, done.Stage)
	assert.Contains(t, done.Error, "disk I/O error")

	// The new variants landed but the trigger was never disarmed.
	current, err := inner.ListVariants(ctx, post.ID, true)
	require.NoError(t, err)
	assert.Len(t, current, 2)

	reloaded, err := inner.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.NotNil(t, reloaded.Trigger)
	assert.Equal(t, domain.PostStatusPublished, reloaded.Status)
}

func TestEngineDisarmedTriggerFailsAtLoad(t *testing.T) {
	repo := setupTestRepo(t)
	post := seedPublishedPost(t, repo)
	provider := &fakeProvider{report: "report", drafts: testDrafts()}
	engine, store := newTestEngine(t, repo, provider)

	ctx := context.Background()
	event := triggerEventFor(post)
	require.NoError(t, repo.ClearTrigger(ctx, post.ID))

	task, err := engine.EnqueueRegeneration(ctx, event)
	require.NoError(t, err)

	done := waitForTask(t, store, task.TaskID)
	assert.Equal(t, regenengine.TaskFailed, done.Status)
	assert.Equal(t, regenengine.StageLoad, done.Stage)
	assert.Contains(t, done.Error, "no longer armed")

	analyze, _, _ := provider.calls()
	assert.Zero(t, analyze)
}

func TestEngineQueueFullRecordsFailedTask(t *testing.T) {
	repo := setupTestRepo(t)
	post := seedPublishedPost(t, repo)
	provider := &fakeProvider{report: "report", drafts: testDrafts()}

	pool := regenworker.NewRegenWorkerPool(1, 1)
	poolCtx, cancel := context.WithCancel(context.Background())
	pool.Start(poolCtx)
	t.Cleanup(func() {
		cancel()
		pool.Stop()
	})

	store := regenrepo.NewMemoryStatusStore()
	engine := regenengine.NewEngine(repo, store, pool)
	engine.RegisterProvider(provider)

	// Occupy the only worker so the single queue slot is all that is left.
	started := make(chan struct{})
	release := make(chan struct{})
	require.True(t, pool.TryDispatch(regenworker.RegenJob{
		TaskID: "blocker",
		PostID: post.ID,
		Handler: func(context.Context) error {
			close(started)
			<-release
			return nil
		},
	}))
	<-started

	ctx := context.Background()
	event := triggerEventFor(post)

	first, err := engine.EnqueueRegeneration(ctx, event)
	require.NoError(t, err)
	assert.Equal(t, regenengine.TaskPending, first.Status)

	second, err := engine.EnqueueRegeneration(ctx, event)
	require.NoError(t, err)
	assert.Equal(t, regenengine.TaskFailed, second.Status)
	assert.Contains(t, second.Error, "queue full")

	stored, err := store.GetTask(ctx, second.TaskID)
	require.NoError(t, err)
	assert.Equal(t, regenengine.TaskFailed, stored.Status)

	// Backpressure clears and the queued task still runs.
	close(release)
	done := waitForTask(t, store, first.TaskID)
	assert.Equal(t, regenengine.TaskSucceeded, done.Status)
}

func TestEngineActiveProviderUnregistered(t *testing.T) {
	repo := setupTestRepo(t)
	engine, _ := newTestEngine(t, repo, nil)

	_, err := engine.ParseTriggerPrompt(context.Background(), domain.MetricLikes, "under 10 likes")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not registered")

	var internal pkgError.InternalServerError
	assert.ErrorAs(t, err, &internal)
}
