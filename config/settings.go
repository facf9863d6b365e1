package config

import (
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

var (
	AppVersion             = "v1.4.0"
	AppPort                = "3000"
	AppDebug               = false
	AppOs                  = "Janus"
	AppBasicAuthCredential []string
	AppBasePath            = ""
	AppTrustedProxies      []string // Trusted proxy IP ranges (e.g., "0.0.0.0/0" for all, or specific CIDRs)

	McpPort = "8080"
	McpHost = "localhost"

	PathMedia     = "statics/media"
	PathGenerated = "statics/generated"
	PathStorages  = "storages"

	DBURI = "file:storages/janus.db?_foreign_keys=on"

	// X-clone platform simulator that hosts published posts.
	XCloneBaseURL    = "http://localhost:8000"
	XCloneAPIKey     = ""
	XCloneTimeoutSec = 15

	// Creative direction prepended to every content-generation prompt.
	// Editable at runtime; persisted in the global_settings table.
	ContentSystemPrompt string
	ContentTextModel    = "gemini-2.5-flash"
	ContentMediaEnabled = true

	// Regeneration worker pool settings
	RegenWorkerPoolSize  int = 8
	RegenWorkerQueueSize int = 256

	TriggerSweepIntervalSec int = 0

	WebhookURLs   []string
	WebhookSecret = ""

	// Security
	AppSecretKey string = "changeme_please_change_me_in_prod_12345"
)

func init() {
	if v := strings.TrimSpace(os.Getenv("AI_GLOBAL_SYSTEM_PROMPT")); v != "" {
		ContentSystemPrompt = v
	}
	loadContentSystemPromptFromDB()
	if v := strings.TrimSpace(os.Getenv("AI_TEXT_MODEL")); v != "" {
		ContentTextModel = v
	}
	loadContentTextModelFromDB()
	if v := strings.TrimSpace(os.Getenv("AI_MEDIA_ENABLED")); v != "" {
		switch strings.ToLower(v) {
		case "1", "true", "yes", "y", "on":
			ContentMediaEnabled = true
		case "0", "false", "no", "n", "off":
			ContentMediaEnabled = false
		}
	}

	if val := os.Getenv("REGEN_WORKER_POOL_SIZE"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil && parsed > 0 {
			RegenWorkerPoolSize = parsed
		}
	}
	if val := os.Getenv("REGEN_WORKER_QUEUE_SIZE"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil && parsed > 0 {
			RegenWorkerQueueSize = parsed
		}
	}
	if val := os.Getenv("TRIGGER_SWEEP_INTERVAL_SEC"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil && parsed >= 0 {
			TriggerSweepIntervalSec = parsed
		}
	}

	if v := strings.TrimSpace(os.Getenv("XCLONE_BASE_URL")); v != "" {
		XCloneBaseURL = strings.TrimRight(v, "/")
	}
	if v := strings.TrimSpace(os.Getenv("XCLONE_API_KEY")); v != "" {
		XCloneAPIKey = v
	}

	if v := strings.TrimSpace(os.Getenv("WEBHOOK_URLS")); v != "" {
		for _, u := range strings.Split(v, ",") {
			if u = strings.TrimSpace(u); u != "" {
				WebhookURLs = append(WebhookURLs, u)
			}
		}
	}
	if v := strings.TrimSpace(os.Getenv("WEBHOOK_SECRET")); v != "" {
		WebhookSecret = v
	}

	if val := os.Getenv("APP_SECRET_KEY"); val != "" {
		AppSecretKey = val
	}
}

func SetContentSystemPrompt(v string) {
	ContentSystemPrompt = strings.TrimSpace(v)
}

func SaveContentSystemPrompt(v string) error {
	SetContentSystemPrompt(v)
	return saveGlobalSetting("content_system_prompt", ContentSystemPrompt)
}

func SetContentTextModel(v string) {
	v = strings.TrimSpace(v)
	if v != "" {
		ContentTextModel = v
	}
}

func SaveContentTextModel(v string) error {
	SetContentTextModel(v)
	return saveGlobalSetting("content_text_model", ContentTextModel)
}

func loadContentSystemPromptFromDB() {
	if v, ok := loadGlobalSetting("content_system_prompt"); ok {
		ContentSystemPrompt = strings.TrimSpace(v)
	}
}

func loadContentTextModelFromDB() {
	if v, ok := loadGlobalSetting("content_text_model"); ok && strings.TrimSpace(v) != "" {
		ContentTextModel = strings.TrimSpace(v)
	}
}

func openSettingsDB() (*sql.DB, error) {
	dbPath := fmt.Sprintf("%s/janus.db", PathStorages)
	connStr := fmt.Sprintf("file:%s?_journal_mode=WAL&_foreign_keys=on", dbPath)
	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS global_settings (key TEXT PRIMARY KEY, value TEXT)`); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func loadGlobalSetting(key string) (string, bool) {
	db, err := openSettingsDB()
	if err != nil {
		return "", false
	}
	defer db.Close()

	var v sql.NullString
	if err := db.QueryRow(`SELECT value FROM global_settings WHERE key = ?`, key).Scan(&v); err != nil {
		return "", false
	}
	return v.String, v.Valid
}

func saveGlobalSetting(key, value string) error {
	db, err := openSettingsDB()
	if err != nil {
		return err
	}
	defer db.Close()

	_, err = db.Exec(`INSERT INTO global_settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	return err
}
