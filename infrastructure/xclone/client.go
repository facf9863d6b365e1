package xclone

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/valyala/fasthttp"

	coreconfig "github.com/janushq/janus/core/config"
	pkgError "github.com/janushq/janus/pkg/error"
)

const defaultTimeout = 15 * time.Second

// PublicMetrics mirrors the public_metrics object of the Twitter API v2
// tweet payload the simulator emits.
type PublicMetrics struct {
	RetweetCount int64 `json:"retweet_count"`
	ReplyCount   int64 `json:"reply_count"`
	LikeCount    int64 `json:"like_count"`
	QuoteCount   int64 `json:"quote_count"`
}

// NonPublicMetrics mirrors the non_public_metrics object.
type NonPublicMetrics struct {
	ImpressionCount   int64 `json:"impression_count"`
	UserProfileClicks int64 `json:"user_profile_clicks"`
}

// Tweet is a single platform post with its engagement counters.
type Tweet struct {
	ID               string            `json:"id"`
	Text             string            `json:"text"`
	CreatedAt        string            `json:"created_at"`
	AuthorID         string            `json:"author_id"`
	PublicMetrics    *PublicMetrics    `json:"public_metrics"`
	NonPublicMetrics *NonPublicMetrics `json:"non_public_metrics"`
}

type apiError struct {
	Message string `json:"message"`
}

type tweetsResponse struct {
	Data   []Tweet    `json:"data"`
	Errors []apiError `json:"errors"`
}

// Client talks to the X-clone simulator over its Twitter-API-v2 compatible
// endpoints. It only reads engagement data, it never creates posts.
type Client struct {
	baseURL string
	apiKey  string
	timeout time.Duration
	http    *fasthttp.Client
}

// NewClient creates a platform client. timeoutSec <= 0 falls back to 15s.
func NewClient(baseURL, apiKey string, timeoutSec int) *Client {
	timeout := defaultTimeout
	if timeoutSec > 0 {
		timeout = time.Duration(timeoutSec) * time.Second
	}

	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		timeout: timeout,
		http: &fasthttp.Client{
			Name:            "janus-platform-client",
			ReadTimeout:     timeout,
			WriteTimeout:    timeout,
			MaxConnsPerHost: 16,
		},
	}
}

// NewClientFromGlobalConfig builds a client from the loaded application
// config. Returns nil when the platform integration is disabled.
func NewClientFromGlobalConfig() *Client {
	cfg := coreconfig.Global
	if cfg == nil || !cfg.Platform.Enabled {
		return nil
	}
	return NewClient(cfg.Platform.BaseURL, cfg.Platform.APIKey, cfg.Platform.TimeoutSec)
}

// BaseURL returns the configured simulator base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// GetTweetMetrics fetches engagement counters for the given platform post
// IDs in a single call and returns them keyed by ID.
func (c *Client) GetTweetMetrics(ctx context.Context, ids []string) (map[string]Tweet, error) {
	if len(ids) == 0 {
		return map[string]Tweet{}, nil
	}

	query := url.Values{}
	query.Set("ids", strings.Join(ids, ","))
	query.Set("tweet.fields", "public_metrics,non_public_metrics")

	body, status, err := c.get(ctx, "/2/tweets?"+query.Encode())
	if err != nil {
		return nil, pkgError.UpstreamError(fmt.Sprintf("platform request failed: %v", err))
	}

	var parsed tweetsResponse
	if jsonErr := json.Unmarshal(body, &parsed); jsonErr != nil {
		return nil, pkgError.UpstreamError(fmt.Sprintf("platform returned invalid JSON (status %d)", status))
	}

	if status == fasthttp.StatusNotFound {
		return nil, pkgError.NotFoundError(firstErrorMessage(parsed.Errors, "tweet not found on platform"))
	}
	if status != fasthttp.StatusOK {
		return nil, pkgError.UpstreamError(fmt.Sprintf("platform returned status %d: %s", status, firstErrorMessage(parsed.Errors, "unknown error")))
	}

	result := make(map[string]Tweet, len(parsed.Data))
	for _, tweet := range parsed.Data {
		result[tweet.ID] = tweet
	}

	logrus.Debugf("[XCLONE] fetched metrics for %d/%d tweets", len(result), len(ids))
	return result, nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, int, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.baseURL + path)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	if timeout <= 0 {
		return nil, 0, ctx.Err()
	}

	if err := c.http.DoTimeout(req, resp, timeout); err != nil {
		return nil, 0, err
	}

	body := make([]byte, len(resp.Body()))
	copy(body, resp.Body())
	return body, resp.StatusCode(), nil
}

func firstErrorMessage(errs []apiError, fallback string) string {
	if len(errs) > 0 && errs[0].Message != "" {
		return errs[0].Message
	}
	return fallback
}
