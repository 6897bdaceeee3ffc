// cmd/veridex/reasoning_test.go
package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func newTestReasoner(t *testing.T, handler http.HandlerFunc) *OpenAIReasoner {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	config := openai.DefaultConfig("test-token")
	config.BaseURL = srv.URL + "/v1"
	return &OpenAIReasoner{
		client:     openai.NewClientWithConfig(config),
		chatModel:  "test-model",
		limiter:    rate.NewLimiter(rate.Inf, 1),
		maxRetries: 0,
	}
}

func chatResponse(t *testing.T, w http.ResponseWriter, content string) {
	t.Helper()

	resp := map[string]interface{}{
		"id":     "test",
		"object": "chat.completion",
		"model":  "test-model",
		"choices": []map[string]interface{}{{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]string{"role": "assistant", "content": content},
		}},
	}
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(resp))
}

func TestGenerateSearchQueriesFromEntities(t *testing.T) {
	r := newTestReasoner(t, func(w http.ResponseWriter, req *http.Request) {
		chatResponse(t, w,
			`{"persons":["Jane Smith"],"organizations":[],"locations":["India"],"keywords":["vaccine"]}`)
	})

	queries, err := r.GenerateSearchQueries(context.Background(), "Jane Smith promotes a vaccine in India")
	require.NoError(t, err)
	require.NotEmpty(t, queries)

	// Most specific variant first: the person name alone.
	assert.Equal(t, "Jane Smith", queries[0])
	assert.Contains(t, queries, "Jane Smith India")
}

func TestGenerateSearchQueriesModelFallback(t *testing.T) {
	calls := 0
	r := newTestReasoner(t, func(w http.ResponseWriter, req *http.Request) {
		calls++
		if calls == 1 {
			// Entity extraction finds nothing usable.
			chatResponse(t, w, `{}`)
			return
		}
		chatResponse(t, w, "NASA Moon water")
	})

	queries, err := r.GenerateSearchQueries(context.Background(), "NASA confirms water on the Moon")
	require.NoError(t, err)
	require.Equal(t, []string{"NASA Moon water"}, queries)
}

func TestGenerateSearchQueriesNeverEmptyOnModelFailure(t *testing.T) {
	r := newTestReasoner(t, func(w http.ResponseWriter, req *http.Request) {
		http.Error(w, "backend down", http.StatusInternalServerError)
	})

	queries, err := r.GenerateSearchQueries(context.Background(), "The government has announced a new vaccine policy")
	require.NoError(t, err)
	require.NotEmpty(t, queries)
	assert.Equal(t, "government announced new vaccine policy", queries[0])
}

func TestGenerateSearchQueriesAllStopWordsStillYieldsQuery(t *testing.T) {
	r := newTestReasoner(t, func(w http.ResponseWriter, req *http.Request) {
		http.Error(w, "backend down", http.StatusInternalServerError)
	})

	queries, err := r.GenerateSearchQueries(context.Background(), "is of the and")
	require.NoError(t, err)
	require.NotEmpty(t, queries)
	assert.NotEmpty(t, queries[0])
}
