package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Config holds all application configuration in a structured way.
type Config struct {
	App        AppConfig
	MCP        MCPConfig
	Paths      PathsConfig
	Database   DatabaseConfig
	Platform   PlatformConfig
	AI         AIConfig
	WorkerPool WorkerPoolConfig
	Triggers   TriggersConfig
	Webhooks   WebhooksConfig
	Security   SecurityConfig
	APIKeys    APIKeysConfig
}

type AppConfig struct {
	Version            string
	Port               string
	Debug              bool
	Environment        string
	BasicAuth          []string
	BasePath           string
	TrustedProxies     []string
	BaseUrl            string
	CorsAllowedOrigins []string
	ServerID           string
}

type MCPConfig struct {
	Port string
	Host string
}

type PathsConfig struct {
	BaseDir   string
	Statics   string
	Generated string
	Storages  string
}

type DatabaseConfig struct {
	Driver          string
	Host            string
	Port            int
	User            string
	Password        string
	Name            string // File path for SQLite, DB Name for Postgres
	ValkeyEnabled   bool
	ValkeyAddress   string
	ValkeyPassword  string
	ValkeyDB        int
	ValkeyKeyPrefix string
	URI             string
}

// PlatformConfig points at the X-clone simulator that hosts published posts.
type PlatformConfig struct {
	Enabled    bool
	BaseURL    string
	APIKey     string
	TimeoutSec int
}

type AIConfig struct {
	Provider           string // gemini | openai
	TextModel          string
	ParserModel        string
	MediaModel         string
	OpenAIModel        string
	GlobalSystemPrompt string
	MediaEnabled       bool
}

type WorkerPoolConfig struct {
	Size      int
	QueueSize int
}

// TriggersConfig controls the optional in-process sweep. External cron hitting
// GET /api/triggers/check is the expected driver; the sweep is a fallback.
type TriggersConfig struct {
	SweepIntervalSec int // 0 disables the sweep
}

type WebhooksConfig struct {
	URLs   []string
	Secret string
}

type SecurityConfig struct {
	SecretKey string
}

type APIKeysConfig struct {
	Gemini string
	OpenAI string
	AI     string // Generic/Fallback
}

// Global provides access to the loaded configuration globally (Migration Helper)
var Global *Config

// LoadConfig loads configuration from Environment Variables or defaults.
func LoadConfig() (*Config, error) {
	baseDir := getEnv("APP_BASE_DIR", "storages")

	// App Defaults
	debug := false
	if v := os.Getenv("APP_DEBUG"); v == "true" || v == "1" || v == "on" {
		debug = true
	} else if v := os.Getenv("DEBUG"); v == "true" || v == "1" {
		debug = true
	}

	// Basic Auth
	var basicAuth []string
	if v := os.Getenv("APP_BASIC_AUTH"); v != "" {
		basicAuth = strings.Split(v, ",")
	}

	// Cors
	corsOrigins := []string{"http://localhost:3000", "http://localhost:5173"}
	if v := os.Getenv("APP_CORS_ALLOWED_ORIGINS"); v != "" {
		corsOrigins = strings.Split(v, ",")
	}

	appCfg := AppConfig{
		Version:            "v1.4.0",
		Port:               getEnv("APP_PORT", "3000"),
		Debug:              debug,
		Environment:        getEnv("APP_ENV", "development"),
		BasicAuth:          basicAuth,
		BasePath:           getEnv("APP_BASE_PATH", ""),
		BaseUrl:            getEnv("APP_BASE_URL", "http://localhost:3000"),
		CorsAllowedOrigins: corsOrigins,
		ServerID:           getEnv("SERVER_ID", ""),
	}
	if v := os.Getenv("APP_TRUSTED_PROXIES"); v != "" {
		appCfg.TrustedProxies = strings.Split(v, ",")
	}

	// Paths
	pathsCfg := PathsConfig{
		BaseDir:   baseDir,
		Statics:   getEnv("PATH_STATICS", "statics"),
		Generated: getEnv("PATH_GENERATED", filepath.Join("statics", "generated")),
		Storages:  baseDir,
	}

	// Database
	dbDriver := getEnv("DB_DRIVER", "sqlite")
	dbCfg := DatabaseConfig{
		Driver:          dbDriver,
		Name:            getEnv("DB_NAME", filepath.Join(pathsCfg.Storages, "janus.db")),
		Host:            getEnv("DB_HOST", "localhost"),
		Port:            getEnvInt("DB_PORT", 5432),
		User:            getEnv("DB_USER", "postgres"),
		Password:        getEnv("DB_PASSWORD", ""),
		ValkeyEnabled:   getEnvBool("VALKEY_ENABLED", false),
		ValkeyAddress:   getEnv("VALKEY_ADDRESS", "localhost:6379"),
		ValkeyPassword:  getEnv("VALKEY_PASSWORD", ""),
		ValkeyDB:        getEnvInt("VALKEY_DB", 0),
		ValkeyKeyPrefix: getEnv("VALKEY_KEY_PREFIX", "janus:"),
		URI:             getEnv("DB_URI", fmt.Sprintf("file:%s?_foreign_keys=on", filepath.Join(pathsCfg.Storages, "janus.db"))),
	}

	// Platform (X-clone simulator)
	platformCfg := PlatformConfig{
		Enabled:    getEnvBool("XCLONE_ENABLED", false),
		BaseURL:    getEnv("XCLONE_BASE_URL", "http://localhost:8000"),
		APIKey:     getEnv("XCLONE_API_KEY", ""),
		TimeoutSec: getEnvInt("XCLONE_TIMEOUT_SEC", 15),
	}

	// AI
	aiCfg := AIConfig{
		Provider:           getEnv("AI_PROVIDER", "gemini"),
		TextModel:          getEnv("AI_TEXT_MODEL", "gemini-2.5-flash"),
		ParserModel:        getEnv("AI_PARSER_MODEL", "gemini-2.5-flash-lite"),
		MediaModel:         getEnv("AI_MEDIA_MODEL", "gemini-2.5-flash-image"),
		OpenAIModel:        getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		GlobalSystemPrompt: getEnv("AI_GLOBAL_SYSTEM_PROMPT", ""),
		MediaEnabled:       getEnvBool("AI_MEDIA_ENABLED", true),
	}

	// Webhooks
	var webhookURLs []string
	if v := os.Getenv("WEBHOOK_URLS"); v != "" {
		for _, u := range strings.Split(v, ",") {
			if u = strings.TrimSpace(u); u != "" {
				webhookURLs = append(webhookURLs, u)
			}
		}
	}

	cfg := &Config{
		App:      appCfg,
		MCP:      MCPConfig{Port: getEnv("MCP_PORT", "8080"), Host: getEnv("MCP_HOST", "localhost")},
		Paths:    pathsCfg,
		Database: dbCfg,
		Platform: platformCfg,
		AI:       aiCfg,
		WorkerPool: WorkerPoolConfig{
			Size:      getEnvInt("REGEN_WORKER_POOL_SIZE", 8),
			QueueSize: getEnvInt("REGEN_WORKER_QUEUE_SIZE", 256),
		},
		Triggers: TriggersConfig{SweepIntervalSec: getEnvInt("TRIGGER_SWEEP_INTERVAL_SEC", 0)},
		Webhooks: WebhooksConfig{URLs: webhookURLs, Secret: getEnv("WEBHOOK_SECRET", "")},
		Security: SecurityConfig{SecretKey: getEnv("APP_SECRET_KEY", "changeme_please_change_me_in_prod_12345")},
		APIKeys: APIKeysConfig{
			Gemini: getEnv("GEMINI_API_KEY", ""),
			OpenAI: getEnv("OPENAI_API_KEY", ""),
			AI:     getEnv("AI_API_KEY", ""),
		},
	}

	Global = cfg
	return cfg, nil
}
