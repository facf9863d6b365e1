package xclone

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgError "github.com/janushq/janus/pkg/error"
)

func TestGetTweetMetrics(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/2/tweets", r.URL.Path)
		assert.Equal(t, "111,222", r.URL.Query().Get("ids"))
		assert.Equal(t, "public_metrics,non_public_metrics", r.URL.Query().Get("tweet.fields"))
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data": [
			{"id": "111", "text": "variant a", "created_at": "2026-08-25T10:00:00.123456",
			 "public_metrics": {"retweet_count": 2, "reply_count": 1, "like_count": 7, "quote_count": 0},
			 "non_public_metrics": {"impression_count": 140, "user_profile_clicks": 0}},
			{"id": "222", "text": "variant b",
			 "public_metrics": {"retweet_count": 0, "reply_count": 0, "like_count": 3, "quote_count": 0},
			 "non_public_metrics": {"impression_count": 90, "user_profile_clicks": 0}}
		]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "test-key", 5)
	tweets, err := client.GetTweetMetrics(context.Background(), []string{"111", "222"})
	require.NoError(t, err)
	require.Len(t, tweets, 2)

	a := tweets["111"]
	require.NotNil(t, a.PublicMetrics)
	require.NotNil(t, a.NonPublicMetrics)
	assert.Equal(t, int64(7), a.PublicMetrics.LikeCount)
	assert.Equal(t, int64(2), a.PublicMetrics.RetweetCount)
	assert.Equal(t, int64(1), a.PublicMetrics.ReplyCount)
	assert.Equal(t, int64(140), a.NonPublicMetrics.ImpressionCount)

	b := tweets["222"]
	assert.Equal(t, int64(3), b.PublicMetrics.LikeCount)
}

func TestGetTweetMetricsNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"errors": [{"message": "Tweet not found"}]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "", 5)
	_, err := client.GetTweetMetrics(context.Background(), []string{"999"})
	require.Error(t, err)

	var notFound pkgError.NotFoundError
	assert.ErrorAs(t, err, &notFound)
	assert.Contains(t, err.Error(), "Tweet not found")
}

func TestGetTweetMetricsUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"errors": [{"message": "database exploded"}]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "", 5)
	_, err := client.GetTweetMetrics(context.Background(), []string{"111"})
	require.Error(t, err)

	var upstream pkgError.UpstreamError
	assert.ErrorAs(t, err, &upstream)
	assert.Contains(t, err.Error(), "status 500")
}

func TestGetTweetMetricsEmptyIDs(t *testing.T) {
	client := NewClient("http://localhost:0", "", 1)
	tweets, err := client.GetTweetMetrics(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, tweets)
}
