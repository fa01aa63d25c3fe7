// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/travelcms/internal/model"
	"github.com/olegiv/travelcms/internal/util"
)

// The /api/translations endpoints answer with a {success, ...} envelope
// instead of the v1 data/error shape.

// TriggerRequest is the body of POST /api/translations/trigger.
type TriggerRequest struct {
	ContentType      string `json:"contentType"`
	ContentID        string `json:"contentId"`
	ForceRetranslate bool   `json:"forceRetranslate"`
	Force            bool   `json:"force,omitempty"` // alias of forceRetranslate
}

// TriggerData describes the job started by a trigger.
type TriggerData struct {
	ContentType model.Family          `json:"contentType"`
	ContentID   string                `json:"contentId"`
	JobID       string                `json:"jobId"`
	Status      model.JobStatus       `json:"status"`
	Job         *model.TranslationJob `json:"job,omitempty"`
}

// TriggerResponse is the success body of a trigger.
type TriggerResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    TriggerData `json:"data"`
	Logs    []string    `json:"logs"`
}

// ResultResponse is the success body of the read endpoints.
type ResultResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

// FailureResponse is the error body of every /api/translations endpoint.
type FailureResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func writeFailure(w http.ResponseWriter, status int, message string, err error) {
	resp := FailureResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	WriteJSON(w, status, resp)
}

// failureFor picks the status and headline for a trigger error. Anything that
// is not a client error is reported as 500.
func failureFor(err error) (int, string) {
	status, _ := statusFor(err)
	switch status {
	case http.StatusBadRequest:
		return status, "Invalid request"
	case http.StatusNotFound:
		return status, "Content not found"
	case http.StatusConflict:
		return status, "Translation already in progress"
	default:
		return http.StatusInternalServerError, "Failed to start translation"
	}
}

// Trigger handles POST /api/translations/trigger. It queues a job and answers
// 202 with the job id, or with ?wait=true blocks until the job finishes and
// answers 200 with its result.
func (h *Handler) Trigger(w http.ResponseWriter, r *http.Request) {
	var req TriggerRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		writeFailure(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if strings.TrimSpace(req.ContentType) == "" || strings.TrimSpace(req.ContentID) == "" {
		writeFailure(w, http.StatusBadRequest, "Missing required fields",
			errors.New("contentType and contentId are required"))
		return
	}

	job, err := h.dispatcher.Enqueue(r.Context(), req.ContentType, req.ContentID, req.ForceRetranslate || req.Force)
	if err != nil {
		status, message := failureFor(err)
		if status == http.StatusInternalServerError {
			h.logger.Error("failed to queue translation", "error", err,
				"content_type", req.ContentType, "content_id", req.ContentID)
		}
		writeFailure(w, status, message, err)
		return
	}

	data := TriggerData{
		ContentType: job.Family,
		ContentID:   job.ContentID,
		JobID:       job.ID,
		Status:      job.Status,
	}
	logs := []string{fmt.Sprintf("Queued translation job %s for %s %q (force=%t)", job.ID, job.Family, job.ContentID, job.Force)}

	if wait, _ := strconv.ParseBool(r.URL.Query().Get("wait")); !wait {
		WriteJSON(w, http.StatusAccepted, TriggerResponse{
			Success: true,
			Message: fmt.Sprintf("Translation started for %s %q", job.Family, job.ContentID),
			Data:    data,
			Logs:    logs,
		})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.waitTimeout)
	defer cancel()
	done, err := h.dispatcher.Wait(ctx, job.ID)
	if err != nil {
		if ctx.Err() == nil {
			writeFailure(w, http.StatusInternalServerError, "Failed to read translation job", err)
			return
		}
		// Still running: hand back the job id to poll.
		if done.Status != "" {
			data.Status = done.Status
		}
		WriteJSON(w, http.StatusAccepted, TriggerResponse{
			Success: true,
			Message: fmt.Sprintf("Translation of %s %q is still running", job.Family, job.ContentID),
			Data:    data,
			Logs:    append(logs, "Poll /api/translations/jobs/"+job.ID+" for the result"),
		})
		return
	}

	translated, skipped, failed := done.Counts()
	data.Status = done.Status
	data.Job = &done
	WriteJSON(w, http.StatusOK, TriggerResponse{
		Success: done.Status != model.JobFailed,
		Message: fmt.Sprintf("Translation %s: %d translated, %d skipped, %d failed",
			strings.ReplaceAll(string(done.Status), "_", " "), translated, skipped, failed),
		Data: data,
		Logs: append(logs, done.Logs...),
	})
}

// Check handles GET /api/translations/check?section=all|<family>.
func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	report, err := h.coverage.Check(r.Context(), r.URL.Query().Get("section"))
	if err != nil {
		if status, _ := statusFor(err); status == http.StatusBadRequest {
			writeFailure(w, status, "Invalid section", err)
			return
		}
		h.logger.Error("translation check failed", "error", err)
		writeFailure(w, http.StatusInternalServerError, "Failed to check translations", err)
		return
	}
	WriteJSON(w, http.StatusOK, ResultResponse{Success: true, Data: report})
}

// PendingData lists the items that are not fully translated.
type PendingData struct {
	Count int                  `json:"count"`
	Items []model.ItemCoverage `json:"items"`
}

// Pending handles GET /api/translations/pending.
func (h *Handler) Pending(w http.ResponseWriter, r *http.Request) {
	items, err := h.coverage.ItemsNeedingTranslation(r.Context())
	if err != nil {
		h.logger.Error("listing pending translations failed", "error", err)
		writeFailure(w, http.StatusInternalServerError, "Failed to check translations", err)
		return
	}
	WriteJSON(w, http.StatusOK, ResultResponse{Success: true, Data: PendingData{Count: len(items), Items: items}})
}

// ProvidersData describes the configured translation backend.
type ProvidersData struct {
	Provider        string           `json:"provider"`
	SourceLanguage  string           `json:"sourceLanguage"`
	TargetLanguages []model.Language `json:"targetLanguages"`
}

// Providers handles GET /api/translations/providers.
func (h *Handler) Providers(w http.ResponseWriter, _ *http.Request) {
	targets := make([]model.Language, 0, len(model.Languages))
	for _, l := range model.Languages {
		if model.IsTargetLanguage(l.Code) {
			targets = append(targets, l)
		}
	}
	WriteJSON(w, http.StatusOK, ResultResponse{Success: true, Data: ProvidersData{
		Provider:        h.dispatcher.ProviderName(),
		SourceLanguage:  model.SourceLanguage,
		TargetLanguages: targets,
	}})
}

// ListJobs handles GET /api/translations/jobs?limit=N.
func (h *Handler) ListJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.dispatcher.List(r.Context(), util.ParseLimit(r.URL.Query().Get("limit"), 20, 100))
	if err != nil {
		h.logger.Error("listing translation jobs failed", "error", err)
		writeFailure(w, http.StatusInternalServerError, "Failed to list translation jobs", err)
		return
	}
	WriteJSON(w, http.StatusOK, ResultResponse{Success: true, Data: jobs})
}

// GetJob handles GET /api/translations/jobs/{id}.
func (h *Handler) GetJob(w http.ResponseWriter, r *http.Request) {
	job, err := h.dispatcher.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if status, _ := statusFor(err); status == http.StatusNotFound {
			writeFailure(w, status, "Job not found", err)
			return
		}
		writeFailure(w, http.StatusInternalServerError, "Failed to read translation job", err)
		return
	}
	WriteJSON(w, http.StatusOK, ResultResponse{Success: true, Data: job})
}
