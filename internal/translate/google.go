// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package translate

import (
	"context"
	"fmt"
	"html"
	"net/http"
	"net/url"
)

// DefaultGoogleURL is the Google Cloud Translation v2 endpoint.
const DefaultGoogleURL = "https://translation.googleapis.com/language/translate/v2"

// googleMaxSegments is the most q segments Google accepts in one request.
const googleMaxSegments = 128

// GoogleProvider translates through the Google Cloud Translation v2 REST API.
type GoogleProvider struct {
	apiKey   string
	endpoint string
	client   *http.Client
}

// NewGoogleProvider creates a Google provider. An empty endpoint selects the
// public API.
func NewGoogleProvider(apiKey, endpoint string) *GoogleProvider {
	if endpoint == "" {
		endpoint = DefaultGoogleURL
	}
	return &GoogleProvider{
		apiKey:   apiKey,
		endpoint: endpoint,
		client:   &http.Client{Timeout: httpTimeout},
	}
}

// Name implements Provider.
func (p *GoogleProvider) Name() string { return "google" }

// Translate implements Provider.
func (p *GoogleProvider) Translate(ctx context.Context, texts []string, source, target string) ([]string, error) {
	if len(texts) == 0 {
		return []string{}, nil
	}
	src, err := baseLanguage(source)
	if err != nil {
		return nil, err
	}
	tgt, err := baseLanguage(target)
	if err != nil {
		return nil, err
	}
	if tgt == "zh" {
		tgt = "zh-CN"
	}
	return inBatches(texts, googleMaxSegments, func(batch []string) ([]string, error) {
		return p.translateBatch(ctx, batch, src, tgt)
	})
}

func (p *GoogleProvider) translateBatch(ctx context.Context, texts []string, src, tgt string) ([]string, error) {
	body := map[string]any{
		"q":      texts,
		"source": src,
		"target": tgt,
		"format": "text",
	}
	var result struct {
		Data struct {
			Translations []struct {
				TranslatedText string `json:"translatedText"`
			} `json:"translations"`
		} `json:"data"`
	}
	endpoint := p.endpoint + "?key=" + url.QueryEscape(p.apiKey)
	if err := doJSONRequest(ctx, p.client, endpoint, nil, body, &result); err != nil {
		return nil, fmt.Errorf("google: %w", err)
	}
	if err := checkCount("google", len(result.Data.Translations), len(texts)); err != nil {
		return nil, err
	}

	out := make([]string, len(result.Data.Translations))
	for i, t := range result.Data.Translations {
		out[i] = html.UnescapeString(t.TranslatedText)
	}
	return out, nil
}
