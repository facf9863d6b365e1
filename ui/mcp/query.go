package mcp

import (
	"context"
	"fmt"
	"strconv"

	"github.com/janushq/janus/content/domain"
	domainCampaign "github.com/janushq/janus/domains/campaign"
	domainMetric "github.com/janushq/janus/domains/metric"
	domainPost "github.com/janushq/janus/domains/post"
	domainTask "github.com/janushq/janus/domains/task"
	"github.com/janushq/janus/regenengine"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

type QueryHandler struct {
	campaignService domainCampaign.ICampaignUsecase
	postService     domainPost.IPostUsecase
	metricService   domainMetric.IMetricUsecase
	taskService     domainTask.ITaskUsecase
}

func InitMcpQuery(
	campaignService domainCampaign.ICampaignUsecase,
	postService domainPost.IPostUsecase,
	metricService domainMetric.IMetricUsecase,
	taskService domainTask.ITaskUsecase,
) *QueryHandler {
	return &QueryHandler{
		campaignService: campaignService,
		postService:     postService,
		metricService:   metricService,
		taskService:     taskService,
	}
}

func (h *QueryHandler) AddQueryTools(mcpServer *server.MCPServer) {
	mcpServer.AddTool(h.toolListCampaigns(), h.handleListCampaigns)
	mcpServer.AddTool(h.toolGetPost(), h.handleGetPost)
	mcpServer.AddTool(h.toolGetMetrics(), h.handleGetMetrics)
	mcpServer.AddTool(h.toolListRegenerationTasks(), h.handleListRegenerationTasks)
}

type campaignListResult struct {
	Campaigns []domain.Campaign `json:"campaigns"`
	Count     int               `json:"count"`
}

type taskListResult struct {
	Tasks []regenengine.TaskRecord `json:"tasks"`
	Count int                      `json:"count"`
}

func (h *QueryHandler) toolListCampaigns() mcp.Tool {
	return mcp.NewTool(
		"janus_list_campaigns",
		mcp.WithDescription("Retrieve every campaign with its current phase and strategy."),
		mcp.WithTitleAnnotation("List Campaigns"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
	)
}

func (h *QueryHandler) handleListCampaigns(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_ = request
	campaigns, err := h.campaignService.List(ctx)
	if err != nil {
		return nil, err
	}

	resp := campaignListResult{Campaigns: campaigns, Count: len(campaigns)}
	fallback := fmt.Sprintf("Found %d campaigns", len(campaigns))
	return mcp.NewToolResultStructured(resp, fallback), nil
}

func (h *QueryHandler) toolGetPost() mcp.Tool {
	return mcp.NewTool(
		"janus_get_post",
		mcp.WithDescription("Fetch a post with its active variants, trigger configuration and publication state."),
		mcp.WithTitleAnnotation("Get Post"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithString("post_id",
			mcp.Description("The post identifier."),
			mcp.Required(),
		),
	)
}

func (h *QueryHandler) handleGetPost(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	postID, err := request.RequireString("post_id")
	if err != nil {
		return nil, err
	}

	post, err := h.postService.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	fallback := fmt.Sprintf("Post %s (%s) in status %s", post.ID, post.Topic, post.Status)
	return mcp.NewToolResultStructured(post, fallback), nil
}

func (h *QueryHandler) toolGetMetrics() mcp.Tool {
	return mcp.NewTool(
		"janus_get_metrics",
		mcp.WithDescription("Fetch the stored engagement counters for both variants of a post."),
		mcp.WithTitleAnnotation("Get Post Metrics"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithString("post_id",
			mcp.Description("The post identifier whose metrics should be returned."),
			mcp.Required(),
		),
	)
}

func (h *QueryHandler) handleGetMetrics(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	postID, err := request.RequireString("post_id")
	if err != nil {
		return nil, err
	}

	record, err := h.metricService.Get(ctx, postID)
	if err != nil {
		return nil, err
	}

	fallback := fmt.Sprintf("Metrics for post %s refreshed at %s", record.PostID, record.RefreshedAt.Format("2006-01-02 15:04:05"))
	return mcp.NewToolResultStructured(record, fallback), nil
}

func (h *QueryHandler) toolListRegenerationTasks() mcp.Tool {
	return mcp.NewTool(
		"janus_list_regeneration_tasks",
		mcp.WithDescription("List regeneration tasks ordered from newest to oldest, optionally filtered to one post."),
		mcp.WithTitleAnnotation("List Regeneration Tasks"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithString("post_id",
			mcp.Description("Restrict the listing to tasks for this post."),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of tasks to return. Defaults to 100."),
		),
	)
}

func (h *QueryHandler) handleListRegenerationTasks(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	if raw, ok := args["post_id"]; ok && raw != nil {
		postID := fmt.Sprintf("%v", raw)
		tasks, err := h.taskService.ListByPost(ctx, postID)
		if err != nil {
			return nil, err
		}

		resp := taskListResult{Tasks: tasks, Count: len(tasks)}
		fallback := fmt.Sprintf("Found %d regeneration tasks for post %s", len(tasks), postID)
		return mcp.NewToolResultStructured(resp, fallback), nil
	}

	limit := 0
	if raw, ok := args["limit"]; ok && raw != nil {
		parsed, err := toInt(raw)
		if err != nil {
			return nil, fmt.Errorf("limit: %w", err)
		}
		limit = parsed
	}

	tasks, err := h.taskService.List(ctx, limit)
	if err != nil {
		return nil, err
	}

	resp := taskListResult{Tasks: tasks, Count: len(tasks)}
	fallback := fmt.Sprintf("Found %d regeneration tasks", len(tasks))
	return mcp.NewToolResultStructured(resp, fallback), nil
}

func toInt(value any) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	case string:
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("unable to parse integer value %q", v)
		}
		return parsed, nil
	default:
		return 0, fmt.Errorf("unsupported integer value type %T", value)
	}
}
