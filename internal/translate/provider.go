// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package translate fills in missing translations of content items through an
// external machine translation provider. Work is tracked as persisted jobs
// processed by a pool of background workers.
package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/olegiv/travelcms/internal/cache"
	"github.com/olegiv/travelcms/internal/config"
	"github.com/olegiv/travelcms/internal/service"
)

// Errors returned by this package. The first three are shared with the
// service layer so handlers can match either.
var (
	ErrNotFound        = service.ErrNotFound
	ErrInvalidInput    = service.ErrInvalidInput
	ErrConflict        = service.ErrConflict
	ErrProviderFailure = errors.New("translation provider failure")
)

const httpTimeout = 60 * time.Second

// Provider translates a batch of texts from one language to another.
// The result has the same length and order as texts.
type Provider interface {
	Name() string
	Translate(ctx context.Context, texts []string, source, target string) ([]string, error)
}

// NewFromConfig builds the configured provider wrapped with the outbound rate
// limiter and the translation memo.
func NewFromConfig(cfg *config.Config, c cache.Cache, logger *slog.Logger) (Provider, error) {
	var p Provider
	switch cfg.TranslationProvider {
	case config.ProviderDeepL:
		p = NewDeepLProvider(cfg.DeepLAPIKey, cfg.DeepLAPIURL)
	case config.ProviderGoogle:
		p = NewGoogleProvider(cfg.GoogleAPIKey, "")
	case config.ProviderOpenAI:
		p = NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel)
	default:
		return nil, fmt.Errorf("%w: unknown translation provider %q", ErrInvalidInput, cfg.TranslationProvider)
	}

	p = NewRateLimited(p, cfg.ProviderRPS, cfg.ProviderBurst)
	if c != nil {
		p = NewMemoized(p, c, time.Duration(cfg.CacheTTL)*time.Second, logger)
	}
	return p, nil
}

// doJSONRequest posts body as JSON and decodes a 200 response into out.
// Any other status is reported as ErrProviderFailure.
func doJSONRequest(ctx context.Context, client *http.Client, url string, headers map[string]string, body, out any) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: http call: %w", ErrProviderFailure, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return fmt.Errorf("%w: read body: %w", ErrProviderFailure, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: api error (status %d): %s", ErrProviderFailure, resp.StatusCode, truncate(string(respBody), 300))
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("%w: decode: %w", ErrProviderFailure, err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func checkCount(name string, got, want int) error {
	if got != want {
		return fmt.Errorf("%w: %s returned %d translations for %d texts", ErrProviderFailure, name, got, want)
	}
	return nil
}

// inBatches calls fn on consecutive chunks of at most size texts and joins
// the results in order.
func inBatches(texts []string, size int, fn func([]string) ([]string, error)) ([]string, error) {
	out := make([]string, 0, len(texts))
	for batch := range slices.Chunk(texts, size) {
		res, err := fn(batch)
		if err != nil {
			return nil, err
		}
		out = append(out, res...)
	}
	return out, nil
}
