// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package translate

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/text/language"
)

// DefaultDeepLURL is the DeepL API Free endpoint.
const DefaultDeepLURL = "https://api-free.deepl.com/v2/translate"

// deeplMaxTexts is the most text entries DeepL accepts in one request.
const deeplMaxTexts = 50

// DeepLProvider translates through the DeepL v2 REST API.
type DeepLProvider struct {
	apiKey string
	url    string
	client *http.Client
}

// NewDeepLProvider creates a DeepL provider. An empty url selects the Free endpoint.
func NewDeepLProvider(apiKey, url string) *DeepLProvider {
	if url == "" {
		url = DefaultDeepLURL
	}
	return &DeepLProvider{
		apiKey: apiKey,
		url:    url,
		client: &http.Client{Timeout: httpTimeout},
	}
}

// Name implements Provider.
func (p *DeepLProvider) Name() string { return "deepl" }

// Translate implements Provider.
func (p *DeepLProvider) Translate(ctx context.Context, texts []string, source, target string) ([]string, error) {
	if len(texts) == 0 {
		return []string{}, nil
	}
	src, err := deeplSourceCode(source)
	if err != nil {
		return nil, err
	}
	tgt, err := deeplTargetCode(target)
	if err != nil {
		return nil, err
	}
	return inBatches(texts, deeplMaxTexts, func(batch []string) ([]string, error) {
		return p.translateBatch(ctx, batch, src, tgt)
	})
}

func (p *DeepLProvider) translateBatch(ctx context.Context, texts []string, src, tgt string) ([]string, error) {
	body := map[string]any{
		"text":        texts,
		"source_lang": src,
		"target_lang": tgt,
	}
	var result struct {
		Translations []struct {
			Text string `json:"text"`
		} `json:"translations"`
	}
	headers := map[string]string{"Authorization": "DeepL-Auth-Key " + p.apiKey}
	if err := doJSONRequest(ctx, p.client, p.url, headers, body, &result); err != nil {
		return nil, fmt.Errorf("deepl: %w", err)
	}
	if err := checkCount("deepl", len(result.Translations), len(texts)); err != nil {
		return nil, err
	}

	out := make([]string, len(result.Translations))
	for i, t := range result.Translations {
		out[i] = t.Text
	}
	return out, nil
}

func baseLanguage(code string) (string, error) {
	tag, err := language.Parse(code)
	if err != nil {
		return "", fmt.Errorf("%w: language %q: %v", ErrInvalidInput, code, err)
	}
	base, _ := tag.Base()
	return base.String(), nil
}

// deeplSourceCode maps a language to a DeepL source_lang value.
func deeplSourceCode(code string) (string, error) {
	base, err := baseLanguage(code)
	if err != nil {
		return "", err
	}
	return strings.ToUpper(base), nil
}

// deeplTargetCode maps a language to a DeepL target_lang value. English needs
// a regional variant as a target.
func deeplTargetCode(code string) (string, error) {
	base, err := baseLanguage(code)
	if err != nil {
		return "", err
	}
	switch base {
	case "en":
		return "EN-US", nil
	case "zh":
		return "ZH-HANS", nil
	}
	return strings.ToUpper(base), nil
}
