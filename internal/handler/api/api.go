// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package api provides the REST API handlers for content and translations.
package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/travelcms/internal/cache"
	"github.com/olegiv/travelcms/internal/service"
	"github.com/olegiv/travelcms/internal/translate"
	"github.com/olegiv/travelcms/internal/version"
)

// Handler holds shared dependencies for all API handlers.
type Handler struct {
	db         *sql.DB
	coverage   *service.CoverageService
	content    *service.ContentService
	events     *service.EventService
	dispatcher *translate.Dispatcher
	memo       cache.Cache
	logger     *slog.Logger
	startTime  time.Time
	// waitTimeout bounds how long a trigger with ?wait=true blocks.
	waitTimeout time.Duration
}

// Deps groups the services the API is built on.
type Deps struct {
	DB          *sql.DB
	Coverage    *service.CoverageService
	Content     *service.ContentService
	Events      *service.EventService
	Dispatcher  *translate.Dispatcher
	Memo        cache.Cache // translation memo; optional
	Logger      *slog.Logger
	WaitTimeout time.Duration
}

// NewHandler creates a new API handler.
func NewHandler(d Deps) *Handler {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.WaitTimeout <= 0 {
		d.WaitTimeout = 25 * time.Second
	}
	return &Handler{
		db:          d.DB,
		coverage:    d.Coverage,
		content:     d.Content,
		events:      d.Events,
		dispatcher:  d.Dispatcher,
		memo:        d.Memo,
		logger:      d.Logger,
		startTime:   time.Now(),
		waitTimeout: d.WaitTimeout,
	}
}

// Routes mounts every API endpoint on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/health", h.Health)

	r.Route("/api/translations", func(r chi.Router) {
		r.Post("/trigger", h.Trigger)
		r.Get("/check", h.Check)
		r.Get("/pending", h.Pending)
		r.Get("/providers", h.Providers)
		r.Get("/jobs", h.ListJobs)
		r.Get("/jobs/{id}", h.GetJob)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/status", h.Status)
		r.Get("/events", h.ListEvents)
		r.Delete("/cache", h.ClearCache)

		r.Route("/content/{family}", func(r chi.Router) {
			r.Get("/", h.ListItems)
			r.Post("/", h.CreateItem)
			r.Get("/{id}", h.GetItem)
			r.Put("/{id}", h.UpdateItem)
			r.Delete("/{id}", h.DeleteItem)
			r.Get("/{id}/translations", h.ListTranslations)
			r.Put("/{id}/translations/{lang}", h.PutTranslation)
			r.Delete("/{id}/translations/{lang}", h.DeleteTranslation)
			r.Get("/{id}/localized/{lang}", h.GetLocalized)
		})
	})
}

// Response is the standard API response wrapper.
type Response struct {
	Data any   `json:"data,omitempty"`
	Meta *Meta `json:"meta,omitempty"`
}

// Meta contains list metadata.
type Meta struct {
	Total int `json:"total"`
}

// ErrorResponse is the standard API error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteSuccess writes a successful JSON response.
func WriteSuccess(w http.ResponseWriter, data any, meta *Meta) {
	WriteJSON(w, http.StatusOK, Response{Data: data, Meta: meta})
}

// WriteCreated writes a 201 Created JSON response.
func WriteCreated(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusCreated, Response{Data: data})
}

// WriteError writes an error JSON response.
func WriteError(w http.ResponseWriter, statusCode int, code, message string) {
	WriteJSON(w, statusCode, ErrorResponse{Error: ErrorDetail{Code: code, Message: message}})
}

// WriteBadRequest writes a 400 Bad Request response.
func WriteBadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, "bad_request", message)
}

// WriteNotFound writes a 404 Not Found response.
func WriteNotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, "not_found", message)
}

// WriteInternalError writes a 500 Internal Server Error response.
func WriteInternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, "internal_error", message)
}

// statusFor maps a service error onto an HTTP status and error code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, translate.ErrNotRunning):
		return http.StatusServiceUnavailable, "unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// writeServiceError writes err in the v1 error shape. Internal errors are
// logged and replaced with message.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error, message string) {
	status, code := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error(message, "error", err, "path", r.URL.Path)
		WriteInternalError(w, message)
		return
	}
	WriteError(w, status, code, err.Error())
}

// decodeJSON decodes the request body into v, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// StatusResponse contains API status information.
type StatusResponse struct {
	Status   string       `json:"status"`
	Version  string       `json:"version"`
	Build    version.Info `json:"build"`
	Provider string       `json:"provider"`
	Memo     *cache.Stats `json:"memo,omitempty"`
}

// Status returns the API status.
func (h *Handler) Status(w http.ResponseWriter, _ *http.Request) {
	resp := StatusResponse{
		Status:   "ok",
		Version:  "v1",
		Build:    version.Get(),
		Provider: h.dispatcher.ProviderName(),
	}
	if sp, ok := h.memo.(cache.StatsProvider); ok {
		stats := sp.Stats()
		resp.Memo = &stats
	}
	WriteSuccess(w, resp, nil)
}

// ClearCache handles DELETE /api/v1/cache. It drops every memoized
// translation so the next provider call is fresh.
func (h *Handler) ClearCache(w http.ResponseWriter, r *http.Request) {
	if h.memo == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err := h.memo.Clear(r.Context()); err != nil {
		h.logger.Error("failed to clear translation memo", "error", err)
		WriteInternalError(w, "Failed to clear cache")
		return
	}
	h.logger.Info("translation memo cleared")
	w.WriteHeader(http.StatusNoContent)
}

// HealthStatus is the body of the health check.
type HealthStatus struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Cache    string `json:"cache,omitempty"`
	Uptime   string `json:"uptime"`
}

// Health handles GET /health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := HealthStatus{
		Status:   "healthy",
		Database: "ok",
		Uptime:   time.Since(h.startTime).Round(time.Second).String(),
	}
	status := http.StatusOK
	if err := h.db.PingContext(ctx); err != nil {
		resp.Status = "unhealthy"
		resp.Database = err.Error()
		status = http.StatusServiceUnavailable
	}
	// The memo is optional, so a failing cache only degrades the service.
	if p, ok := h.memo.(cache.Pinger); ok {
		resp.Cache = "ok"
		if err := p.Ping(ctx); err != nil {
			resp.Cache = err.Error()
			if status == http.StatusOK {
				resp.Status = "degraded"
			}
		}
	}
	WriteJSON(w, status, resp)
}
