// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package translate

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/olegiv/travelcms/internal/cache"
)

// RateLimited limits the rate of outbound calls to a provider.
type RateLimited struct {
	Provider
	limiter *rate.Limiter
}

// NewRateLimited wraps p so that at most rps calls per second are made, with
// bursts of up to burst calls.
func NewRateLimited(p Provider, rps float64, burst int) *RateLimited {
	if burst < 1 {
		burst = 1
	}
	return &RateLimited{
		Provider: p,
		limiter:  rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// Translate waits for the limiter before calling the wrapped provider.
func (p *RateLimited) Translate(ctx context.Context, texts []string, source, target string) ([]string, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limit wait: %w", ErrProviderFailure, err)
	}
	return p.Provider.Translate(ctx, texts, source, target)
}

// Memoized caches single text translations so unchanged strings are not
// sent to the provider again.
type Memoized struct {
	Provider
	memo   *cache.TypedCache[string]
	logger *slog.Logger
}

// NewMemoized wraps p with a translation memo stored in c.
func NewMemoized(p Provider, c cache.Cache, ttl time.Duration, logger *slog.Logger) *Memoized {
	return &Memoized{
		Provider: p,
		memo:     cache.NewTypedCache[string](c, "tr:", ttl),
		logger:   logger,
	}
}

// Translate returns memoized results and sends only the remaining texts to
// the wrapped provider in a single call.
func (p *Memoized) Translate(ctx context.Context, texts []string, source, target string) ([]string, error) {
	out := make([]string, len(texts))
	keys := make([]string, len(texts))
	var (
		missIdx   []int
		missTexts []string
	)
	for i, text := range texts {
		keys[i] = memoKey(p.Name(), source, target, text)
		if v, ok := p.memo.Get(ctx, keys[i]); ok {
			out[i] = v
			continue
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, text)
	}
	if len(missTexts) == 0 {
		return out, nil
	}

	translated, err := p.Provider.Translate(ctx, missTexts, source, target)
	if err != nil {
		return nil, err
	}
	if err := checkCount(p.Name(), len(translated), len(missTexts)); err != nil {
		return nil, err
	}

	for j, i := range missIdx {
		out[i] = translated[j]
		if err := p.memo.Set(ctx, keys[i], translated[j]); err != nil {
			p.logger.Debug("translation memo write failed", "error", err)
		}
	}
	p.logger.Debug("translation memo",
		"provider", p.Name(), "target", target,
		"hits", len(texts)-len(missTexts), "misses", len(missTexts))
	return out, nil
}

func memoKey(provider, source, target, text string) string {
	sum := sha256.Sum256([]byte(provider + "\x00" + source + "\x00" + target + "\x00" + text))
	return hex.EncodeToString(sum[:])
}
