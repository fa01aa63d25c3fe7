// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net/http"
	"strconv"
)

// HeadersConfig holds the response headers set on every API response.
type HeadersConfig struct {
	IsDevelopment bool
	HSTSMaxAge    int // seconds; 0 disables
	NoStore       bool
}

// DefaultHeadersConfig returns the header policy for the environment.
func DefaultHeadersConfig(isDev bool) HeadersConfig {
	cfg := HeadersConfig{IsDevelopment: isDev, NoStore: true}
	if !isDev {
		cfg.HSTSMaxAge = 31536000
	}
	return cfg
}

// APIHeaders sets security and caching headers for JSON responses.
func APIHeaders(cfg HeadersConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Referrer-Policy", "no-referrer")
			h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
			if cfg.NoStore {
				h.Set("Cache-Control", "no-store")
			}
			if !cfg.IsDevelopment && cfg.HSTSMaxAge > 0 {
				h.Set("Strict-Transport-Security", "max-age="+strconv.Itoa(cfg.HSTSMaxAge)+"; includeSubDomains")
			}
			next.ServeHTTP(w, r)
		})
	}
}
