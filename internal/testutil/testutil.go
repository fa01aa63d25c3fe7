// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package testutil provides shared test helpers: migrated SQLite databases,
// content fixtures and a scripted translation provider.
package testutil

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/olegiv/travelcms/internal/model"
	"github.com/olegiv/travelcms/internal/store"
)

// TestLogger creates a logger that discards everything.
func TestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

// TestDB creates a migrated SQLite database in a temp dir, opened through the
// cgo sqlite3 driver. It is closed automatically when the test ends.
func TestDB(t *testing.T) *sql.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "travelcms-test.db")
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := store.Migrate(db); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return db
}

// Fields maps registry field names to values for fixtures.
type Fields map[string]string

// ValuesFor builds schema-aligned Values from a Fields map. Unknown names fail the test.
func ValuesFor(t *testing.T, family model.Family, fields Fields) model.Values {
	t.Helper()

	s := model.MustSchema(family)
	v := s.EmptyValues()
	for name, value := range fields {
		idx := s.FieldIndex(name)
		if idx < 0 {
			t.Fatalf("unknown %s field %q", family, name)
		}
		v[idx] = model.NullString(value)
	}
	return v
}

// FullFields returns a Fields map with every field of the family filled,
// each value prefixed with prefix.
func FullFields(family model.Family, prefix string) Fields {
	s := model.MustSchema(family)
	f := make(Fields, len(s.Fields))
	for _, field := range s.Fields {
		if field.Kind == model.FieldList {
			f[field.Name] = `["` + prefix + " " + field.Name + `"]`
			continue
		}
		f[field.Name] = prefix + " " + field.Name
	}
	return f
}

// CreateItem inserts a content item and returns it.
func CreateItem(t *testing.T, db *sql.DB, family model.Family, id, status string, fields Fields) model.Item {
	t.Helper()

	now := time.Now().UTC()
	item := model.Item{
		ID:        id,
		Family:    family,
		Slug:      id,
		Status:    status,
		Values:    ValuesFor(t, family, fields),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := store.New(db).CreateItem(context.Background(), model.MustSchema(family), item); err != nil {
		t.Fatalf("CreateItem(%s/%s): %v", family, id, err)
	}
	return item
}

// CreateTranslation upserts a translation row for an item.
func CreateTranslation(t *testing.T, db *sql.DB, family model.Family, id, lang string, fields Fields) {
	t.Helper()

	now := time.Now().UTC()
	tr := model.Translation{
		ContentID: id,
		Language:  lang,
		Values:    ValuesFor(t, family, fields),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := store.New(db).UpsertTranslation(context.Background(), model.MustSchema(family), tr); err != nil {
		t.Fatalf("UpsertTranslation(%s/%s/%s): %v", family, id, lang, err)
	}
}
