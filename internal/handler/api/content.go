// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/travelcms/internal/model"
	"github.com/olegiv/travelcms/internal/service"
)

// ItemResponse represents a content item in API responses.
type ItemResponse struct {
	ID          string             `json:"id"`
	ContentType model.Family       `json:"contentType"`
	Slug        string             `json:"slug"`
	Status      string             `json:"status"`
	Fields      map[string]*string `json:"fields"`
	Attributes  json.RawMessage    `json:"attributes"`
	CreatedAt   time.Time          `json:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt"`
}

// ItemRequest is the body of item create and update requests.
type ItemRequest struct {
	Slug       *string            `json:"slug,omitempty"`
	Status     *string            `json:"status,omitempty"`
	Fields     map[string]*string `json:"fields,omitempty"`
	Attributes json.RawMessage    `json:"attributes,omitempty"`
}

// TranslationResponse represents one language copy of an item.
type TranslationResponse struct {
	Language         string             `json:"language"`
	Fields           map[string]*string `json:"fields"`
	IsAutoTranslated bool               `json:"isAutoTranslated"`
	Completeness     float64            `json:"completeness"`
	MissingFields    []string           `json:"missingFields"`
	CreatedAt        time.Time          `json:"createdAt"`
	UpdatedAt        time.Time          `json:"updatedAt"`
}

// TranslationRequest is the body of a manual translation edit.
type TranslationRequest struct {
	Fields map[string]*string `json:"fields"`
}

func fieldMap(schema model.Schema, v model.Values) map[string]*string {
	out := make(map[string]*string, len(schema.Fields))
	for i, f := range schema.Fields {
		if i < len(v) && v[i].Valid {
			s := v[i].String
			out[f.Name] = &s
			continue
		}
		out[f.Name] = nil
	}
	return out
}

func itemToResponse(item model.Item) ItemResponse {
	schema := model.MustSchema(item.Family)
	attrs := json.RawMessage(item.Attributes)
	if len(attrs) == 0 {
		attrs = json.RawMessage("{}")
	}
	return ItemResponse{
		ID:          item.ID,
		ContentType: item.Family,
		Slug:        item.Slug,
		Status:      item.Status,
		Fields:      fieldMap(schema, item.Values),
		Attributes:  attrs,
		CreatedAt:   item.CreatedAt,
		UpdatedAt:   item.UpdatedAt,
	}
}

func translationToResponse(schema model.Schema, tr model.Translation) TranslationResponse {
	pct, missing := schema.Completeness(tr.Values)
	return TranslationResponse{
		Language:         tr.Language,
		Fields:           fieldMap(schema, tr.Values),
		IsAutoTranslated: tr.IsAutoTranslated,
		Completeness:     model.Round2(pct),
		MissingFields:    missing,
		CreatedAt:        tr.CreatedAt,
		UpdatedAt:        tr.UpdatedAt,
	}
}

// familyParam resolves the {family} URL parameter. It writes a 404 and
// returns false for an unknown family.
func familyParam(w http.ResponseWriter, r *http.Request) (model.Family, bool) {
	name := chi.URLParam(r, "family")
	family, ok := model.ParseFamily(name)
	if !ok {
		WriteNotFound(w, "Unknown content type: "+name)
		return "", false
	}
	return family, true
}

func (in ItemRequest) toInput() service.ItemInput {
	return service.ItemInput{
		Slug:       in.Slug,
		Status:     in.Status,
		Fields:     in.Fields,
		Attributes: in.Attributes,
	}
}

// ListItems handles GET /api/v1/content/{family}?status=.
func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	family, ok := familyParam(w, r)
	if !ok {
		return
	}
	items, err := h.content.List(r.Context(), family, r.URL.Query().Get("status"))
	if err != nil {
		h.writeServiceError(w, r, err, "Failed to list content")
		return
	}
	resp := make([]ItemResponse, len(items))
	for i, item := range items {
		resp[i] = itemToResponse(item)
	}
	WriteSuccess(w, resp, &Meta{Total: len(resp)})
}

// CreateItem handles POST /api/v1/content/{family}.
func (h *Handler) CreateItem(w http.ResponseWriter, r *http.Request) {
	family, ok := familyParam(w, r)
	if !ok {
		return
	}
	var req ItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteBadRequest(w, "Invalid JSON body: "+err.Error())
		return
	}
	item, err := h.content.Create(r.Context(), family, req.toInput())
	if err != nil {
		h.writeServiceError(w, r, err, "Failed to create content")
		return
	}
	WriteCreated(w, itemToResponse(item))
}

// GetItem handles GET /api/v1/content/{family}/{id}.
func (h *Handler) GetItem(w http.ResponseWriter, r *http.Request) {
	family, ok := familyParam(w, r)
	if !ok {
		return
	}
	item, err := h.content.Get(r.Context(), family, chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err, "Failed to retrieve content")
		return
	}
	WriteSuccess(w, itemToResponse(item), nil)
}

// UpdateItem handles PUT /api/v1/content/{family}/{id}.
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	family, ok := familyParam(w, r)
	if !ok {
		return
	}
	var req ItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteBadRequest(w, "Invalid JSON body: "+err.Error())
		return
	}
	item, err := h.content.Update(r.Context(), family, chi.URLParam(r, "id"), req.toInput())
	if err != nil {
		h.writeServiceError(w, r, err, "Failed to update content")
		return
	}
	WriteSuccess(w, itemToResponse(item), nil)
}

// DeleteItem handles DELETE /api/v1/content/{family}/{id}.
func (h *Handler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	family, ok := familyParam(w, r)
	if !ok {
		return
	}
	if err := h.content.Delete(r.Context(), family, chi.URLParam(r, "id")); err != nil {
		h.writeServiceError(w, r, err, "Failed to delete content")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListTranslations handles GET /api/v1/content/{family}/{id}/translations.
func (h *Handler) ListTranslations(w http.ResponseWriter, r *http.Request) {
	family, ok := familyParam(w, r)
	if !ok {
		return
	}
	rows, err := h.content.Translations(r.Context(), family, chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err, "Failed to list translations")
		return
	}
	schema := model.MustSchema(family)
	resp := make([]TranslationResponse, len(rows))
	for i, tr := range rows {
		resp[i] = translationToResponse(schema, tr)
	}
	WriteSuccess(w, resp, &Meta{Total: len(resp)})
}

// PutTranslation handles PUT /api/v1/content/{family}/{id}/translations/{lang}.
func (h *Handler) PutTranslation(w http.ResponseWriter, r *http.Request) {
	family, ok := familyParam(w, r)
	if !ok {
		return
	}
	var req TranslationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteBadRequest(w, "Invalid JSON body: "+err.Error())
		return
	}
	tr, err := h.content.PutTranslation(r.Context(), family, chi.URLParam(r, "id"), chi.URLParam(r, "lang"), req.Fields)
	if err != nil {
		h.writeServiceError(w, r, err, "Failed to save translation")
		return
	}
	WriteSuccess(w, translationToResponse(model.MustSchema(family), tr), nil)
}

// DeleteTranslation handles DELETE /api/v1/content/{family}/{id}/translations/{lang}.
func (h *Handler) DeleteTranslation(w http.ResponseWriter, r *http.Request) {
	family, ok := familyParam(w, r)
	if !ok {
		return
	}
	if err := h.content.DeleteTranslation(r.Context(), family, chi.URLParam(r, "id"), chi.URLParam(r, "lang")); err != nil {
		h.writeServiceError(w, r, err, "Failed to delete translation")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetLocalized handles GET /api/v1/content/{family}/{id}/localized/{lang}.
// With ?format=html rich fields are returned as sanitized HTML.
func (h *Handler) GetLocalized(w http.ResponseWriter, r *http.Request) {
	family, ok := familyParam(w, r)
	if !ok {
		return
	}
	asHTML := r.URL.Query().Get("format") == "html"
	item, err := h.content.Localized(r.Context(), family, chi.URLParam(r, "id"), chi.URLParam(r, "lang"), asHTML)
	if err != nil {
		h.writeServiceError(w, r, err, "Failed to localize content")
		return
	}
	WriteSuccess(w, item, nil)
}
