/*
Copyright (C) 2026 Wayfarer HQ

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package assistant wraps an OpenAI-compatible chat completions API to
// generate trip suggestions.
package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ErrNotConfigured is returned when no API key is set.
var ErrNotConfigured = errors.New("assistant not configured")

const systemPrompt = "You are a travel planning assistant. Suggest concrete, seasonal, " +
	"locally loved activities for the given destination. Answer with short bullet points, " +
	"one activity per line, no preamble."

// Message is a single chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Client calls an OpenAI-compatible chat completions endpoint.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewClient creates an assistant client.
func NewClient(baseURL, apiKey, model string, logger zerolog.Logger) *Client {
	baseURL = strings.TrimSuffix(baseURL, "/")
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger: logger.With().Str("component", "assistant").Logger(),
	}
}

// Enabled reports whether an API key is configured.
func (c *Client) Enabled() bool {
	return c.apiKey != ""
}

// SuggestActivities asks the model for activity ideas for a destination.
// Interests may be empty.
func (c *Client) SuggestActivities(ctx context.Context, destination string, interests []string) (string, error) {
	prompt := fmt.Sprintf("Destination: %s.", destination)
	if len(interests) > 0 {
		prompt += " Interests: " + strings.Join(interests, ", ") + "."
	}
	prompt += " Suggest up to 8 activities."

	return c.Chat(ctx, []Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: prompt},
	})
}

// Chat sends a raw conversation and returns the first choice's content.
func (c *Client) Chat(ctx context.Context, messages []Message) (string, error) {
	if !c.Enabled() {
		return "", ErrNotConfigured
	}

	reqBody := struct {
		Model       string    `json:"model"`
		Messages    []Message `json:"messages"`
		Temperature float64   `json:"temperature"`
	}{
		Model:       c.model,
		Messages:    messages,
		Temperature: 0.7,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("assistant request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("assistant request failed (status %d): %s", resp.StatusCode, string(errBody))
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", errors.New("assistant returned no choices")
	}

	return parsed.Choices[0].Message.Content, nil
}
