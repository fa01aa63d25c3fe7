// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/olegiv/travelcms/internal/model"
	"github.com/olegiv/travelcms/internal/store"
	"github.com/olegiv/travelcms/internal/testutil"
)

func TestNewEventService(t *testing.T) {
	db := testutil.TestDB(t)

	svc := NewEventService(db, testutil.TestLogger())
	if svc == nil {
		t.Error("NewEventService returned nil")
	}
}

func TestLogEvent(t *testing.T) {
	db := testutil.TestDB(t)
	svc := NewEventService(db, testutil.TestLogger())
	ctx := context.Background()

	err := svc.LogEvent(ctx, model.EventLevelWarning, model.EventCategoryTranslation, "provider slow",
		map[string]any{"provider": "deepl", "ms": 1200})
	if err != nil {
		t.Fatalf("LogEvent: %v", err)
	}

	events, err := svc.List(ctx, 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	e := events[0]
	if e.Level != model.EventLevelWarning || e.Category != model.EventCategoryTranslation {
		t.Errorf("event = %+v", e)
	}

	var meta map[string]any
	if err := json.Unmarshal([]byte(e.Metadata), &meta); err != nil {
		t.Fatalf("metadata: %v", err)
	}
	if meta["provider"] != "deepl" {
		t.Errorf("metadata = %v", meta)
	}
}

func TestLogEvent_Levels(t *testing.T) {
	db := testutil.TestDB(t)
	svc := NewEventService(db, testutil.TestLogger())
	ctx := context.Background()

	svc.LogInfo(ctx, model.EventCategoryContent, "info", nil)
	svc.LogWarning(ctx, model.EventCategoryContent, "warning", nil)
	svc.LogError(ctx, model.EventCategoryContent, "error", nil)

	events, err := svc.List(ctx, 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []string{model.EventLevelError, model.EventLevelWarning, model.EventLevelInfo}
	if len(events) != len(want) {
		t.Fatalf("got %d events, want %d", len(events), len(want))
	}
	for i, e := range events {
		if e.Level != want[i] {
			t.Errorf("events[%d].Level = %q, want %q", i, e.Level, want[i])
		}
		if e.Metadata != "{}" {
			t.Errorf("events[%d].Metadata = %q, want {}", i, e.Metadata)
		}
	}
}

func TestLogEvent_NilService(t *testing.T) {
	var svc *EventService
	if err := svc.LogEvent(context.Background(), model.EventLevelInfo, model.EventCategorySystem, "x", nil); err != nil {
		t.Errorf("nil service returned %v", err)
	}
	svc.LogInfo(context.Background(), model.EventCategorySystem, "x", nil)
}

func TestDeleteOldEvents(t *testing.T) {
	db := testutil.TestDB(t)
	svc := NewEventService(db, testutil.TestLogger())
	ctx := context.Background()

	_, err := store.New(db).CreateEvent(ctx, store.CreateEventParams{
		Level: model.EventLevelInfo, Category: model.EventCategorySystem,
		Message: "old", CreatedAt: time.Now().UTC().Add(-10 * 24 * time.Hour),
	})
	if err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}
	svc.LogInfo(ctx, model.EventCategorySystem, "new", nil)

	n, err := svc.DeleteOldEvents(ctx, 7*24*time.Hour)
	if err != nil {
		t.Fatalf("DeleteOldEvents: %v", err)
	}
	if n != 1 {
		t.Errorf("deleted %d events, want 1", n)
	}
}
