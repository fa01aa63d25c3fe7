// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package translate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/olegiv/travelcms/internal/model"
)

// DefaultOpenAIModel is used when no model is configured.
const DefaultOpenAIModel = "gpt-4o-mini"

// OpenAIProvider translates with an OpenAI-compatible chat completion API.
// The texts are sent as a JSON array and a JSON array is expected back.
type OpenAIProvider struct {
	client openai.Client
	model  string
}

// NewOpenAIProvider creates an OpenAI provider. baseURL may point at any
// OpenAI-compatible server; empty uses the official API.
func NewOpenAIProvider(apiKey, baseURL, model string) *OpenAIProvider {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if model == "" {
		model = DefaultOpenAIModel
	}
	return &OpenAIProvider{
		client: openai.NewClient(opts...),
		model:  model,
	}
}

// Name implements Provider.
func (p *OpenAIProvider) Name() string { return "openai" }

// Translate implements Provider.
func (p *OpenAIProvider) Translate(ctx context.Context, texts []string, source, target string) ([]string, error) {
	if len(texts) == 0 {
		return []string{}, nil
	}

	input, err := json.Marshal(texts)
	if err != nil {
		return nil, fmt.Errorf("openai: marshal: %w", err)
	}

	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(p.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt(source, target, len(texts))),
			openai.UserMessage(string(input)),
		},
		Temperature: openai.Float(0.2),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: openai: %w", ErrProviderFailure, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: openai: no choices returned", ErrProviderFailure)
	}

	out, err := parseTranslations(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, fmt.Errorf("%w: openai: %w", ErrProviderFailure, err)
	}
	if err := checkCount("openai", len(out), len(texts)); err != nil {
		return nil, err
	}
	return out, nil
}

func languageName(code string) string {
	if l, err := model.ParseLanguage(code); err == nil {
		return l.Name
	}
	return code
}

func systemPrompt(source, target string, n int) string {
	return fmt.Sprintf(
		"You are a professional translator for a travel agency website. "+
			"Translate each string of the JSON array from %s to %s. "+
			"Keep markdown, HTML tags, URLs, numbers and proper names of places unchanged. "+
			"Reply with only a JSON array of exactly %d strings in the same order.",
		languageName(source), languageName(target), n)
}

// parseTranslations decodes a JSON string array from a model reply, ignoring
// markdown code fences and text around the array.
func parseTranslations(reply string) ([]string, error) {
	s := strings.TrimSpace(reply)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")

	start := strings.Index(s, "[")
	end := strings.LastIndex(s, "]")
	if start < 0 || end < start {
		return nil, errors.New("reply contains no JSON array")
	}

	var out []string
	if err := json.Unmarshal([]byte(s[start:end+1]), &out); err != nil {
		return nil, fmt.Errorf("decoding reply: %w", err)
	}
	return out, nil
}
