// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/travelcms/internal/cache"
	"github.com/olegiv/travelcms/internal/service"
	"github.com/olegiv/travelcms/internal/testutil"
	"github.com/olegiv/travelcms/internal/translate"
)

type testEnv struct {
	db         *sql.DB
	router     http.Handler
	dispatcher *translate.Dispatcher
	memo       *cache.MemoryCache
}

// testSetup wires the API on a fresh database with a started dispatcher.
func testSetup(t *testing.T, p translate.Provider) testEnv {
	t.Helper()

	db := testutil.TestDB(t)
	logger := testutil.TestLogger()
	events := service.NewEventService(db, logger)

	d := translate.NewDispatcher(db, translate.NewTranslator(db, p, logger), logger, translate.Config{
		Workers:      2,
		PollInterval: 10 * time.Millisecond,
	})
	require.NoError(t, d.Start(context.Background()))
	t.Cleanup(d.Stop)

	memo := cache.NewMemoryCache(cache.MemoryCacheOptions{DefaultTTL: time.Minute})
	t.Cleanup(func() { _ = memo.Close() })

	h := NewHandler(Deps{
		DB:          db,
		Coverage:    service.NewCoverageService(db, logger),
		Content:     service.NewContentService(db, events, logger),
		Events:      events,
		Dispatcher:  d,
		Memo:        memo,
		Logger:      logger,
		WaitTimeout: 10 * time.Second,
	})
	r := chi.NewRouter()
	h.Routes(r)

	return testEnv{db: db, router: r, dispatcher: d, memo: memo}
}

func (e testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

// dataOf decodes a v1 {"data": ...} envelope.
func dataOf[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	return decodeBody[struct {
		Data T     `json:"data"`
		Meta *Meta `json:"meta"`
	}](t, w).Data
}

func waitCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}
