package scrapejob

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeRun(w http.ResponseWriter, id, status, datasetId string) {
	json.NewEncoder(w).Encode(map[string]any{
		"data": map[string]string{
			"id":               id,
			"status":           status,
			"defaultDatasetId": datasetId,
		},
	})
}

func testConfig(baseURL string) Config {
	return Config{
		BaseURL:      baseURL,
		Token:        "test-token",
		Actor:        "test~actor",
		PollInterval: time.Millisecond,
		MaxAttempts:  15,
	}
}

func TestFetchReviewsHappyPath(t *testing.T) {
	var polls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "test-token", r.URL.Query().Get("token"))

		switch r.URL.Path {
		case "/v2/acts/test~actor/runs":
			require.Equal(t, http.MethodPost, r.Method)

			var payload map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
			starts := payload["startUrls"].([]any)
			require.Len(t, starts, 1)
			first := starts[0].(map[string]any)
			require.Equal(t, "http://example.com/hotel", first["url"])
			require.NotEmpty(t, first["uniqueKey"])
			require.EqualValues(t, 50, payload["maxReviews"])

			writeRun(w, "run1", StatusReady, "ds1")
		case "/v2/actor-runs/run1":
			switch polls.Add(1) {
			case 1:
				writeRun(w, "run1", StatusReady, "ds1")
			case 2:
				writeRun(w, "run1", StatusRunning, "ds1")
			default:
				writeRun(w, "run1", StatusSucceeded, "ds1")
			}
		case "/v2/datasets/ds1/items":
			json.NewEncoder(w).Encode([]map[string]any{
				{"title": "Great stay", "text": "Loved the pool", "rating": 5},
				{"review": "Room was small", "rating": 3},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))
	reviews, err := client.FetchReviews(context.Background(), "http://example.com/hotel")
	require.NoError(t, err)
	require.Len(t, reviews, 2)
	require.Equal(t, "Loved the pool", reviews[0].Body())
	require.Equal(t, "Room was small", reviews[1].Body())
	require.EqualValues(t, 3, polls.Load())
}

func TestAwaitCompletionExhaustsAttempts(t *testing.T) {
	var polls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		polls.Add(1)
		writeRun(w, "run1", StatusRunning, "ds1")
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))
	err := client.AwaitCompletion(context.Background(), Run{ID: "run1", DatasetID: "ds1"})
	require.ErrorIs(t, err, ErrAttemptsExhausted)
	require.EqualValues(t, 15, polls.Load())
}

func TestAwaitCompletionReportsFailedRun(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeRun(w, "run1", "FAILED", "ds1")
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))
	err := client.AwaitCompletion(context.Background(), Run{ID: "run1", DatasetID: "ds1"})

	var failed RunFailedError
	require.ErrorAs(t, err, &failed)
	require.Equal(t, "FAILED", failed.Status)
	require.NotErrorIs(t, err, ErrAttemptsExhausted)
}

func TestAwaitCompletionHonorsContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeRun(w, "run1", StatusRunning, "ds1")
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.PollInterval = time.Hour
	client := NewClient(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := client.AwaitCompletion(ctx, Run{ID: "run1", DatasetID: "ds1"})
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestStartRunWithoutRunHandle(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data": {}}`)
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))
	_, err := client.StartRun(context.Background(), "http://example.com/hotel")
	require.ErrorIs(t, err, ErrNoRunHandle)
}

func TestFetchResultsNonListPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"error": "dataset not ready"}`)
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))
	reviews, err := client.FetchResults(context.Background(), Run{ID: "run1", DatasetID: "ds1"})
	require.NoError(t, err)
	require.Empty(t, reviews)
}
