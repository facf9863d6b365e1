package config

import (
	"os"
	"strconv"
	"strings"
)

// GetAllSettings returns a map of all dynamic settings currently loaded in memory.
func GetAllSettings() map[string]any {
	if Global == nil {
		return map[string]any{}
	}
	return map[string]any{
		"ai_provider":              Global.AI.Provider,
		"ai_text_model":            Global.AI.TextModel,
		"ai_parser_model":          Global.AI.ParserModel,
		"ai_media_model":           Global.AI.MediaModel,
		"ai_media_enabled":         Global.AI.MediaEnabled,
		"ai_global_system_prompt":  Global.AI.GlobalSystemPrompt,
		"platform_enabled":         Global.Platform.Enabled,
		"platform_base_url":        Global.Platform.BaseURL,
		"worker_pool_size":         Global.WorkerPool.Size,
		"worker_pool_queue_size":   Global.WorkerPool.QueueSize,
		"trigger_sweep_interval_s": Global.Triggers.SweepIntervalSec,
		"app_debug":                Global.App.Debug,
		"app_version":              Global.App.Version,
	}
}

// Helpers
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		vLower := strings.ToLower(v)
		return vLower == "1" || vLower == "true" || vLower == "yes" || vLower == "on"
	}
	return fallback
}
