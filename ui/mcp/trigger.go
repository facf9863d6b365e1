package mcp

import (
	"context"
	"fmt"

	domainTrigger "github.com/janushq/janus/domains/trigger"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

type TriggerHandler struct {
	triggerService domainTrigger.ITriggerUsecase
}

func InitMcpTrigger(triggerService domainTrigger.ITriggerUsecase) *TriggerHandler {
	return &TriggerHandler{triggerService: triggerService}
}

func (h *TriggerHandler) AddTriggerTools(mcpServer *server.MCPServer) {
	mcpServer.AddTool(h.toolSetTrigger(), h.handleSetTrigger)
	mcpServer.AddTool(h.toolClearTrigger(), h.handleClearTrigger)
	mcpServer.AddTool(h.toolCheckTriggers(), h.handleCheckTriggers)
}

type triggerCheckResult struct {
	Fired []domainTrigger.FiredTrigger `json:"fired"`
	Count int                          `json:"count"`
}

func (h *TriggerHandler) toolSetTrigger() mcp.Tool {
	return mcp.NewTool(
		"janus_set_trigger",
		mcp.WithDescription("Arm a regeneration trigger on a published post. Either pass condition plus a natural language prompt describing threshold, comparison and rewrite instruction, or pass condition, comparison, threshold and action_prompt explicitly."),
		mcp.WithTitleAnnotation("Arm Regeneration Trigger"),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithString("post_id",
			mcp.Description("The post to arm the trigger on."),
			mcp.Required(),
		),
		mcp.WithString("condition",
			mcp.Description("Metric to watch: likes, impressions, retweets or comments."),
			mcp.Required(),
		),
		mcp.WithString("prompt",
			mcp.Description("Natural language trigger description, e.g. 'if it stays under 100 impressions for 2 hours, rewrite it with a stronger hook'."),
		),
		mcp.WithString("comparison",
			mcp.Description("Comparison operator for the structured form: <, = or >."),
		),
		mcp.WithNumber("threshold",
			mcp.Description("Metric threshold for the structured form."),
		),
		mcp.WithString("action_prompt",
			mcp.Description("Rewrite instruction for the structured form."),
		),
	)
}

func (h *TriggerHandler) handleSetTrigger(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	postID, err := request.RequireString("post_id")
	if err != nil {
		return nil, err
	}

	condition, err := request.RequireString("condition")
	if err != nil {
		return nil, err
	}

	args := request.GetArguments()
	req := domainTrigger.SetTriggerRequest{
		Condition:    condition,
		Prompt:       stringArg(args, "prompt"),
		Comparison:   stringArg(args, "comparison"),
		ActionPrompt: stringArg(args, "action_prompt"),
	}
	if raw, ok := args["threshold"]; ok && raw != nil {
		parsed, err := toInt(raw)
		if err != nil {
			return nil, fmt.Errorf("threshold: %w", err)
		}
		req.Threshold = &parsed
	}

	cfg, err := h.triggerService.SetTrigger(ctx, postID, req)
	if err != nil {
		return nil, err
	}

	fallback := fmt.Sprintf("Trigger armed on post %s: %s %s %d", postID, cfg.Condition, cfg.Comparison, cfg.Threshold)
	return mcp.NewToolResultStructured(cfg, fallback), nil
}

func (h *TriggerHandler) toolClearTrigger() mcp.Tool {
	return mcp.NewTool(
		"janus_clear_trigger",
		mcp.WithDescription("Disarm the regeneration trigger on a post without touching its content."),
		mcp.WithTitleAnnotation("Clear Regeneration Trigger"),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithString("post_id",
			mcp.Description("The post whose trigger should be removed."),
			mcp.Required(),
		),
	)
}

func (h *TriggerHandler) handleClearTrigger(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	postID, err := request.RequireString("post_id")
	if err != nil {
		return nil, err
	}

	if err := h.triggerService.ClearTrigger(ctx, postID); err != nil {
		return nil, err
	}

	resp := map[string]string{"post_id": postID, "status": "cleared"}
	return mcp.NewToolResultStructured(resp, fmt.Sprintf("Trigger cleared on post %s", postID)), nil
}

func (h *TriggerHandler) toolCheckTriggers() mcp.Tool {
	return mcp.NewTool(
		"janus_check_triggers",
		mcp.WithDescription("Evaluate every armed trigger against current metrics and dispatch a regeneration task for each one that fires. Returns immediately with the fired list; pipelines run in the background."),
		mcp.WithTitleAnnotation("Check Triggers"),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(false),
	)
}

func (h *TriggerHandler) handleCheckTriggers(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_ = request
	fired, err := h.triggerService.CheckTriggers(ctx)
	if err != nil {
		return nil, err
	}

	resp := triggerCheckResult{Fired: fired, Count: len(fired)}
	fallback := fmt.Sprintf("%d triggers fired", len(fired))
	return mcp.NewToolResultStructured(resp, fallback), nil
}

func stringArg(args map[string]any, key string) string {
	value, ok := args[key]
	if !ok || value == nil {
		return ""
	}
	if str, ok := value.(string); ok {
		return str
	}
	return fmt.Sprintf("%v", value)
}
