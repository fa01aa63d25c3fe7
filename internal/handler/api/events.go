// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"

	"github.com/olegiv/travelcms/internal/util"
)

// ListEvents handles GET /api/v1/events?limit=N, newest first.
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.events.List(r.Context(), util.ParseLimit(r.URL.Query().Get("limit"), 50, 500))
	if err != nil {
		h.writeServiceError(w, r, err, "Failed to list events")
		return
	}
	WriteSuccess(w, events, &Meta{Total: len(events)})
}
