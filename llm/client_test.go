// Copyright 2026 The Locator Authors
// SPDX-License-Identifier: Apache-2.0

package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventloc/locator/resolver"
)

type chatRequest struct {
	Model          string  `json:"model"`
	Temperature    float32 `json:"temperature"`
	MaxTokens      int     `json:"max_tokens"`
	ResponseFormat *struct {
		Type string `json:"type"`
	} `json:"response_format"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func newTestClient(t *testing.T, handler http.HandlerFunc, trace *bytes.Buffer) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := Config{APIKey: "sk-test", BaseURL: srv.URL + "/v1/", Timeout: 5 * time.Second}
	if trace != nil {
		cfg.Trace = trace
	}

	c, err := NewClient(cfg, nil)
	require.NoError(t, err)

	return c
}

func completionBody(content string) string {
	b, _ := json.Marshal(map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   "gpt-4o-mini",
		"choices": []map[string]any{{
			"index":         0,
			"message":       map[string]string{"role": "assistant", "content": content},
			"finish_reason": "stop",
		}},
		"usage": map[string]int{"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15},
	})

	return string(b)
}

func TestClientComplete(t *testing.T) {
	var got chatRequest

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionBody(`{"address": "NO_ADDRESS"}`)))
	}, nil)

	content, err := c.Complete(context.Background(), resolver.CompletionRequest{
		System:      "system prompt",
		User:        "Clues: party",
		Model:       "gpt-4o-mini",
		Temperature: 0.1,
		MaxTokens:   300,
		JSONMode:    true,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"address": "NO_ADDRESS"}`, content)

	assert.Equal(t, "gpt-4o-mini", got.Model)
	assert.InDelta(t, 0.1, got.Temperature, 1e-6)
	assert.Equal(t, 300, got.MaxTokens)
	require.NotNil(t, got.ResponseFormat)
	assert.Equal(t, "json_object", got.ResponseFormat.Type)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "system prompt", got.Messages[0].Content)
	assert.Equal(t, "user", got.Messages[1].Role)
	assert.Equal(t, "Clues: party", got.Messages[1].Content)
}

func TestClientCompleteTextMode(t *testing.T) {
	var got chatRequest

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionBody("ADDRESS: 1 Main St, Springfield, IL")))
	}, nil)

	content, err := c.Complete(context.Background(), resolver.CompletionRequest{Model: "m", MaxTokens: 10})
	require.NoError(t, err)
	assert.Equal(t, "ADDRESS: 1 Main St, Springfield, IL", content)
	assert.Nil(t, got.ResponseFormat)
}

func TestClientRateLimitIsRetryable(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": {"message": "slow down", "type": "requests", "code": "rate_limit_exceeded"}}`))
	}, nil)

	_, err := c.Complete(context.Background(), resolver.CompletionRequest{Model: "m", MaxTokens: 10})
	require.Error(t, err)
	assert.True(t, resolver.IsRateLimitError(err))
	assert.True(t, resolver.IsRetryable(err))
}

func TestClientEmptyChoices(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": "x", "object": "chat.completion", "model": "m", "choices": []}`))
	}, nil)

	_, err := c.Complete(context.Background(), resolver.CompletionRequest{Model: "m", MaxTokens: 10})
	assert.ErrorIs(t, err, ErrEmptyCompletion)
}

func TestClientTraceRedactsKey(t *testing.T) {
	var trace bytes.Buffer

	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionBody("{}")))
	}, &trace)

	_, err := c.Complete(context.Background(), resolver.CompletionRequest{Model: "m", MaxTokens: 10})
	require.NoError(t, err)

	assert.Contains(t, trace.String(), "/v1/chat/completions")
	assert.NotContains(t, trace.String(), "sk-test")
}

func TestClientSendsHeaders(t *testing.T) {
	var got http.Header

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionBody("{}")))
	}))
	t.Cleanup(srv.Close)

	c, err := NewClient(Config{
		APIKey:  "sk-test",
		BaseURL: srv.URL + "/v1",
		Headers: map[string]string{"User-Agent": "locator/1.2.3", "X-Gateway-Route": "geo"},
	}, nil)
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), resolver.CompletionRequest{Model: "m", MaxTokens: 10})
	require.NoError(t, err)

	assert.Equal(t, "locator/1.2.3", got.Get("User-Agent"))
	assert.Equal(t, "geo", got.Get("X-Gateway-Route"))
	assert.Equal(t, "Bearer sk-test", got.Get("Authorization"))
}

func TestNewClientRequiresKey(t *testing.T) {
	_, err := NewClient(Config{}, nil)
	assert.Error(t, err)
}
