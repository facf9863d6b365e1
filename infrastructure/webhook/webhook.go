package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/janushq/janus/config"
	pkgError "github.com/janushq/janus/pkg/error"
)

// Event names emitted by the trigger and regeneration pipeline.
const (
	EventTriggerFired   = "trigger.fired"
	EventRegenSucceeded = "regeneration.succeeded"
	EventRegenFailed    = "regeneration.failed"
)

var httpClient = &http.Client{Timeout: 15 * time.Second}

var submitWebhookFn = submitWebhook

// ForwardEvent delivers the payload to every configured webhook URL.
// It only returns an error when all deliveries fail. Partial failures are
// logged and suppressed so successful targets still receive the event.
func ForwardEvent(ctx context.Context, eventName string, payload map[string]any) error {
	urls := config.WebhookURLs
	total := len(urls)

	if total == 0 {
		logrus.Debugf("[WEBHOOK] no webhook configured, skipping %s", eventName)
		return nil
	}

	logrus.WithFields(logrus.Fields{
		"event":    eventName,
		"webhooks": total,
	}).Info("[WEBHOOK] Forwarding event to configured webhook(s)")

	var (
		failed    []string
		successes int
	)
	for _, url := range urls {
		if err := submitWebhookFn(ctx, eventName, payload, url); err != nil {
			failed = append(failed, fmt.Sprintf("%s: %v", url, err))
			logrus.Warnf("[WEBHOOK] Failed forwarding %s to %s: %v", eventName, url, err)
			continue
		}
		successes++
	}

	if len(failed) == total {
		return pkgError.WebhookError(fmt.Sprintf("all webhook URLs failed for %s: %s", eventName, strings.Join(failed, "; ")))
	}

	if len(failed) > 0 {
		logrus.Warnf("[WEBHOOK] Some webhook URLs failed for %s (succeeded: %d/%d): %s", eventName, successes, total, strings.Join(failed, "; "))
	} else {
		logrus.Infof("[WEBHOOK] %s forwarded to all webhook(s)", eventName)
	}

	return nil
}

func submitWebhook(ctx context.Context, eventName string, payload map[string]any, url string) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Janus-Event", eventName)
	if config.WebhookSecret != "" {
		req.Header.Set("X-Hub-Signature-256", ComputeSignature(config.WebhookSecret, body))
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("deliver webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook target returned status %d", resp.StatusCode)
	}
	return nil
}

// ComputeSignature returns the GitHub-style HMAC-SHA256 signature header
// value for a payload: "sha256=<hex digest>".
func ComputeSignature(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}
