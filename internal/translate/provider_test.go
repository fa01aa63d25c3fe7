// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package translate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/travelcms/internal/cache"
	"github.com/olegiv/travelcms/internal/config"
	"github.com/olegiv/travelcms/internal/testutil"
)

func TestDeepLProvider(t *testing.T) {
	var got struct {
		Text       []string `json:"text"`
		SourceLang string   `json:"source_lang"`
		TargetLang string   `json:"target_lang"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "DeepL-Auth-Key secret", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"translations":[{"detected_source_language":"ID","text":"Beach"},{"text":"Sea"}]}`))
	}))
	defer srv.Close()

	p := NewDeepLProvider("secret", srv.URL)
	out, err := p.Translate(context.Background(), []string{"Pantai", "Laut"}, "id", "en")
	require.NoError(t, err)
	assert.Equal(t, []string{"Beach", "Sea"}, out)
	assert.Equal(t, []string{"Pantai", "Laut"}, got.Text)
	assert.Equal(t, "ID", got.SourceLang)
	assert.Equal(t, "EN-US", got.TargetLang)
	assert.Equal(t, "deepl", p.Name())
}

func TestDeepLProvider_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message":"Wrong auth key"}`))
	}))
	defer srv.Close()

	_, err := NewDeepLProvider("bad", srv.URL).Translate(context.Background(), []string{"x"}, "id", "de")
	assert.ErrorIs(t, err, ErrProviderFailure)
	assert.Contains(t, err.Error(), "403")

	short := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"translations":[]}`))
	}))
	defer short.Close()

	_, err = NewDeepLProvider("k", short.URL).Translate(context.Background(), []string{"x"}, "id", "de")
	assert.ErrorIs(t, err, ErrProviderFailure)
}

func TestDeepLTargetCode(t *testing.T) {
	tests := map[string]string{"en": "EN-US", "de": "DE", "nl": "NL", "zh": "ZH-HANS", "en-GB": "EN-US"}
	for in, want := range tests {
		got, err := deeplTargetCode(in)
		require.NoError(t, err)
		assert.Equal(t, want, got, in)
	}
	_, err := deeplTargetCode("not a tag!")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestGoogleProvider(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "gkey", r.URL.Query().Get("key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"data":{"translations":[{"translatedText":"Tom &amp; Jerry"}]}}`))
	}))
	defer srv.Close()

	p := NewGoogleProvider("gkey", srv.URL)
	out, err := p.Translate(context.Background(), []string{"Tom & Jerry"}, "id", "zh")
	require.NoError(t, err)
	assert.Equal(t, []string{"Tom & Jerry"}, out)
	assert.Equal(t, "zh-CN", got["target"])
	assert.Equal(t, "id", got["source"])
	assert.Equal(t, "text", got["format"])
}

func numberedTexts(n int) []string {
	texts := make([]string, n)
	for i := range texts {
		texts[i] = "teks " + strconv.Itoa(i)
	}
	return texts
}

func TestDeepLProvider_Batches(t *testing.T) {
	var sizes []int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Text []string `json:"text"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		sizes = append(sizes, len(req.Text))
		if len(req.Text) > 50 {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"message":"Too many texts"}`))
			return
		}
		type translation struct {
			Text string `json:"text"`
		}
		resp := struct {
			Translations []translation `json:"translations"`
		}{}
		for _, text := range req.Text {
			resp.Translations = append(resp.Translations, translation{Text: "en:" + text})
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	texts := numberedTexts(60)
	out, err := NewDeepLProvider("k", srv.URL).Translate(context.Background(), texts, "id", "en")
	require.NoError(t, err)
	assert.Equal(t, []int{50, 10}, sizes)
	require.Len(t, out, 60)
	for i, text := range texts {
		assert.Equal(t, "en:"+text, out[i])
	}
}

func TestGoogleProvider_Batches(t *testing.T) {
	var sizes []int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Q []string `json:"q"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		sizes = append(sizes, len(req.Q))
		if len(req.Q) > 128 {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		type translation struct {
			TranslatedText string `json:"translatedText"`
		}
		var resp struct {
			Data struct {
				Translations []translation `json:"translations"`
			} `json:"data"`
		}
		for _, text := range req.Q {
			resp.Data.Translations = append(resp.Data.Translations, translation{TranslatedText: "de:" + text})
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	texts := numberedTexts(130)
	out, err := NewGoogleProvider("k", srv.URL).Translate(context.Background(), texts, "id", "de")
	require.NoError(t, err)
	assert.Equal(t, []int{128, 2}, sizes)
	require.Len(t, out, 130)
	assert.Equal(t, "de:teks 0", out[0])
	assert.Equal(t, "de:teks 129", out[129])
}

func TestDeepLProvider_BatchFailureStops(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewDeepLProvider("k", srv.URL).Translate(context.Background(), numberedTexts(120), "id", "nl")
	assert.ErrorIs(t, err, ErrProviderFailure)
	assert.Equal(t, 1, calls)
}

func TestProviders_EmptyBatch(t *testing.T) {
	ctx := context.Background()
	for _, p := range []Provider{
		NewDeepLProvider("k", "http://127.0.0.1:1"),
		NewGoogleProvider("k", "http://127.0.0.1:1"),
		NewOpenAIProvider("k", "http://127.0.0.1:1", ""),
	} {
		out, err := p.Translate(ctx, nil, "id", "en")
		require.NoError(t, err, p.Name())
		assert.Empty(t, out)
	}
}

func TestOpenAIProvider(t *testing.T) {
	var prompt string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		require.Len(t, req.Messages, 2)
		prompt = req.Messages[0].Content
		assert.Equal(t, `["Pantai","Laut"]`, req.Messages[1].Content)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1", "object": "chat.completion", "created": 1, "model": "test-model",
			"choices": [{"index": 0, "finish_reason": "stop",
				"message": {"role": "assistant", "content": "` + "```json\\n[\\\"Strand\\\", \\\"Meer\\\"]\\n```" + `"}}]
		}`))
	}))
	defer srv.Close()

	p := NewOpenAIProvider("sk-test", srv.URL, "test-model")
	out, err := p.Translate(context.Background(), []string{"Pantai", "Laut"}, "id", "de")
	require.NoError(t, err)
	assert.Equal(t, []string{"Strand", "Meer"}, out)
	assert.Contains(t, prompt, "from Indonesian to German")
	assert.Contains(t, prompt, "exactly 2 strings")
}

func TestParseTranslations(t *testing.T) {
	tests := []struct {
		name    string
		reply   string
		want    []string
		wantErr bool
	}{
		{"plain", `["a","b"]`, []string{"a", "b"}, false},
		{"fenced", "```json\n[\"a\"]\n```", []string{"a"}, false},
		{"surrounding text", "Here you go: [\"a\"] done", []string{"a"}, false},
		{"no array", "sorry", nil, true},
		{"not strings", `[1,2]`, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseTranslations(tt.reply)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRateLimited(t *testing.T) {
	fake := &testutil.FakeProvider{}
	p := NewRateLimited(fake, 1000, 1)

	out, err := p.Translate(context.Background(), []string{"a"}, "id", "en")
	require.NoError(t, err)
	assert.Equal(t, []string{"[en] a"}, out)
	assert.Equal(t, "fake", p.Name())

	slow := NewRateLimited(fake, 0.001, 1)
	_, err = slow.Translate(context.Background(), []string{"a"}, "id", "en")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = slow.Translate(ctx, []string{"a"}, "id", "en")
	assert.ErrorIs(t, err, ErrProviderFailure)
	assert.Equal(t, 2, fake.CallCount())
}

func TestMemoized(t *testing.T) {
	fake := &testutil.FakeProvider{}
	mem := cache.NewMemoryCache(cache.MemoryCacheOptions{DefaultTTL: time.Minute})
	defer func() { _ = mem.Close() }()
	p := NewMemoized(fake, mem, time.Minute, testutil.TestLogger())
	ctx := context.Background()

	out, err := p.Translate(ctx, []string{"Pantai", "Laut"}, "id", "en")
	require.NoError(t, err)
	assert.Equal(t, []string{"[en] Pantai", "[en] Laut"}, out)

	out, err = p.Translate(ctx, []string{"Gunung", "Laut", "Pantai"}, "id", "en")
	require.NoError(t, err)
	assert.Equal(t, []string{"[en] Gunung", "[en] Laut", "[en] Pantai"}, out)

	calls := fake.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, []string{"Gunung"}, calls[1].Texts, "only the uncached text is sent")

	_, err = p.Translate(ctx, []string{"Gunung", "Laut", "Pantai"}, "id", "en")
	require.NoError(t, err)
	assert.Equal(t, 2, fake.CallCount())

	// Another target language is a separate memo entry.
	_, err = p.Translate(ctx, []string{"Laut"}, "id", "de")
	require.NoError(t, err)
	assert.Equal(t, 3, fake.CallCount())
}

func TestMemoized_DoesNotCacheFailures(t *testing.T) {
	fake := &testutil.FakeProvider{FailFor: map[string]bool{"nl": true}}
	mem := cache.NewMemoryCache(cache.MemoryCacheOptions{})
	defer func() { _ = mem.Close() }()
	p := NewMemoized(fake, mem, time.Minute, testutil.TestLogger())

	_, err := p.Translate(context.Background(), []string{"Laut"}, "id", "nl")
	assert.ErrorIs(t, err, testutil.ErrFakeProvider)
	_, err = p.Translate(context.Background(), []string{"Laut"}, "id", "nl")
	assert.Error(t, err)
	assert.Equal(t, 2, fake.CallCount())
}

func TestNewFromConfig(t *testing.T) {
	mem := cache.NewMemoryCache(cache.MemoryCacheOptions{})
	defer func() { _ = mem.Close() }()

	for _, name := range []string{config.ProviderDeepL, config.ProviderGoogle, config.ProviderOpenAI} {
		cfg := &config.Config{TranslationProvider: name, ProviderRPS: 1, ProviderBurst: 1, CacheTTL: 60}
		p, err := NewFromConfig(cfg, mem, testutil.TestLogger())
		require.NoError(t, err)
		assert.Equal(t, name, p.Name())
		assert.IsType(t, &Memoized{}, p)
	}

	p, err := NewFromConfig(&config.Config{TranslationProvider: config.ProviderDeepL, ProviderRPS: 1}, nil, testutil.TestLogger())
	require.NoError(t, err)
	assert.IsType(t, &RateLimited{}, p)

	_, err = NewFromConfig(&config.Config{TranslationProvider: "babelfish"}, nil, testutil.TestLogger())
	assert.ErrorIs(t, err, ErrInvalidInput)
}
