// Copyright 2026 The Locator Authors
// SPDX-License-Identifier: Apache-2.0

// Package llm talks to OpenAI compatible chat completion services.
package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/eventloc/locator/logging"
	"github.com/eventloc/locator/resolver"
	"github.com/eventloc/locator/utils/httputils"
)

// ErrEmptyCompletion is returned when the service answers without choices.
var ErrEmptyCompletion = errors.New("completion has no choices")

// Config configures a Client.
type Config struct {
	APIKey  string
	BaseURL string            // empty means the OpenAI endpoint
	Timeout time.Duration     // HTTP timeout, zero means none
	Trace   io.Writer         // dumps every HTTP transaction when set
	Headers map[string]string // added to every request
}

// Client implements resolver.Completer on top of go-openai.
type Client struct {
	api    *openai.Client
	logger *zap.Logger
}

var _ resolver.Completer = (*Client)(nil)

// NewClient creates a client from cfg.
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("llm: api key is required")
	}

	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	}

	oc.HTTPClient = httputils.NewClient(cfg.Timeout, cfg.Trace, cfg.Headers)

	return &Client{
		api:    openai.NewClientWithConfig(oc),
		logger: logging.OrNop(logger).Named("llm"),
	}, nil
}

// Complete sends a system and user message pair and returns the first choice.
func (c *Client) Complete(ctx context.Context, req resolver.CompletionRequest) (string, error) {
	chat := openai.ChatCompletionRequest{
		Model: req.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.System},
			{Role: openai.ChatMessageRoleUser, Content: req.User},
		},
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}

	if req.JSONMode {
		chat.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	start := time.Now()

	resp, err := c.api.CreateChatCompletion(ctx, chat)
	if err != nil {
		return "", classify(err)
	}

	c.logger.Debug("completion",
		zap.String("model", resp.Model),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
		zap.Duration("elapsed", time.Since(start)))

	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}

	return resp.Choices[0].Message.Content, nil
}

// classify rewords API errors so resolver.IsRetryable recognizes rate limits.
func classify(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == 429 {
		return fmt.Errorf("rate limit exceeded: %w", err)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode == 429 {
		return fmt.Errorf("rate limit exceeded: %w", err)
	}

	return fmt.Errorf("chat completion: %w", err)
}
