// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/olegiv/travelcms/internal/model"
)

func translationColumns(s model.Schema, alias string) string {
	prefix := ""
	if alias != "" {
		prefix = alias + "."
	}
	cols := []string{prefix + "content_id", prefix + "language"}
	for _, c := range s.Columns() {
		cols = append(cols, prefix+c)
	}
	cols = append(cols, prefix+"is_auto_translated", prefix+"created_at", prefix+"updated_at")
	return strings.Join(cols, ", ")
}

func scanTranslation(s model.Schema, row interface{ Scan(...any) error }) (model.Translation, error) {
	tr := model.Translation{Values: s.EmptyValues()}
	dest := []any{&tr.ContentID, &tr.Language}
	for i := range tr.Values {
		dest = append(dest, &tr.Values[i])
	}
	dest = append(dest, &tr.IsAutoTranslated, &tr.CreatedAt, &tr.UpdatedAt)
	err := row.Scan(dest...)
	return tr, err
}

func (q *Queries) queryTranslations(ctx context.Context, s model.Schema, query string, args ...any) ([]model.Translation, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", s.TranslationTable, err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.Translation
	for rows.Next() {
		tr, err := scanTranslation(s, rows)
		if err != nil {
			return nil, fmt.Errorf("scanning %s: %w", s.TranslationTable, err)
		}
		out = append(out, tr)
	}
	return out, rows.Err()
}

// ListFamilyTranslations returns every translation row of the items of a
// family, grouped by content id. A non-empty status limits the rows to items
// in that status.
func (q *Queries) ListFamilyTranslations(ctx context.Context, s model.Schema, status string) (map[string][]model.Translation, error) {
	query := "SELECT " + translationColumns(s, "t") +
		" FROM " + s.TranslationTable + " t JOIN " + s.Table + " c ON c.id = t.content_id"
	var args []any
	if status != "" {
		query += " WHERE c.status = ?"
		args = append(args, status)
	}
	query += " ORDER BY t.content_id, t.language"

	rows, err := q.queryTranslations(ctx, s, query, args...)
	if err != nil {
		return nil, err
	}
	grouped := make(map[string][]model.Translation)
	for _, tr := range rows {
		grouped[tr.ContentID] = append(grouped[tr.ContentID], tr)
	}
	return grouped, nil
}

// ListItemTranslations returns the translation rows of one item ordered by language.
func (q *Queries) ListItemTranslations(ctx context.Context, s model.Schema, contentID string) ([]model.Translation, error) {
	return q.queryTranslations(ctx, s,
		"SELECT "+translationColumns(s, "")+" FROM "+s.TranslationTable+
			" WHERE content_id = ? ORDER BY language", contentID)
}

// GetTranslation returns one translation row. It returns sql.ErrNoRows when absent.
func (q *Queries) GetTranslation(ctx context.Context, s model.Schema, contentID, lang string) (model.Translation, error) {
	row := q.db.QueryRowContext(ctx,
		"SELECT "+translationColumns(s, "")+" FROM "+s.TranslationTable+
			" WHERE content_id = ? AND language = ?", contentID, lang)
	return scanTranslation(s, row)
}

// UpsertTranslation inserts the row for (ContentID, Language) or replaces the
// field values of the existing one. CreatedAt is kept on update.
func (q *Queries) UpsertTranslation(ctx context.Context, s model.Schema, tr model.Translation) error {
	cols := s.Columns()
	updates := make([]string, 0, len(cols)+2)
	for _, c := range cols {
		updates = append(updates, c+" = excluded."+c)
	}
	updates = append(updates,
		"is_auto_translated = excluded.is_auto_translated",
		"updated_at = excluded.updated_at")

	args := []any{tr.ContentID, tr.Language}
	args = append(args, valueArgs(s, tr.Values)...)
	args = append(args, tr.IsAutoTranslated, tr.CreatedAt, tr.UpdatedAt)

	query := "INSERT INTO " + s.TranslationTable + " (" + translationColumns(s, "") + ") VALUES (" +
		placeholders(len(cols)+5) + ") ON CONFLICT (content_id, language) DO UPDATE SET " +
		strings.Join(updates, ", ")

	if _, err := q.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upserting %s translation %s/%s: %w", s.Family, tr.ContentID, tr.Language, err)
	}
	return nil
}

// DeleteTranslation removes one translation row.
// It returns sql.ErrNoRows when the row does not exist.
func (q *Queries) DeleteTranslation(ctx context.Context, s model.Schema, contentID, lang string) error {
	res, err := q.db.ExecContext(ctx,
		"DELETE FROM "+s.TranslationTable+" WHERE content_id = ? AND language = ?", contentID, lang)
	if err != nil {
		return fmt.Errorf("deleting %s translation: %w", s.Family, err)
	}
	return requireAffected(res)
}
