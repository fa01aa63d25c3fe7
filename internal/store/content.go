// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/olegiv/travelcms/internal/model"
)

// Table and column names below come from the static field registry in
// package model, never from request input.

func itemColumns(s model.Schema) string {
	cols := append([]string{"id", "slug", "status"}, s.Columns()...)
	cols = append(cols, "attributes", "created_at", "updated_at")
	return strings.Join(cols, ", ")
}

func scanItem(s model.Schema, row interface{ Scan(...any) error }) (model.Item, error) {
	item := model.Item{Family: s.Family, Values: s.EmptyValues()}
	dest := []any{&item.ID, &item.Slug, &item.Status}
	for i := range item.Values {
		dest = append(dest, &item.Values[i])
	}
	dest = append(dest, &item.Attributes, &item.CreatedAt, &item.UpdatedAt)
	err := row.Scan(dest...)
	return item, err
}

// ListItems returns the items of a family ordered by creation time.
// An empty status returns every item.
func (q *Queries) ListItems(ctx context.Context, s model.Schema, status string) ([]model.Item, error) {
	query := "SELECT " + itemColumns(s) + " FROM " + s.Table
	var args []any
	if status != "" {
		query += " WHERE status = ?"
		args = append(args, status)
	}
	query += " ORDER BY created_at, id"

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", s.Table, err)
	}
	defer func() { _ = rows.Close() }()

	items := []model.Item{}
	for rows.Next() {
		item, err := scanItem(s, rows)
		if err != nil {
			return nil, fmt.Errorf("scanning %s: %w", s.Table, err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// GetItem returns one item by id. It returns sql.ErrNoRows when absent.
func (q *Queries) GetItem(ctx context.Context, s model.Schema, id string) (model.Item, error) {
	row := q.db.QueryRowContext(ctx, "SELECT "+itemColumns(s)+" FROM "+s.Table+" WHERE id = ?", id)
	return scanItem(s, row)
}

// CountItems counts the items of a family, optionally restricted to a status.
func (q *Queries) CountItems(ctx context.Context, s model.Schema, status string) (int, error) {
	query := "SELECT COUNT(*) FROM " + s.Table
	var args []any
	if status != "" {
		query += " WHERE status = ?"
		args = append(args, status)
	}
	var n int
	err := q.db.QueryRowContext(ctx, query, args...).Scan(&n)
	return n, err
}

// SlugExists reports whether slug is used by an item other than excludeID.
func (q *Queries) SlugExists(ctx context.Context, s model.Schema, slug, excludeID string) (bool, error) {
	var n int
	err := q.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM "+s.Table+" WHERE slug = ? AND id != ?", slug, excludeID).Scan(&n)
	return n > 0, err
}

// CreateItem inserts a new item. A slug or id collision returns ErrDuplicate.
func (q *Queries) CreateItem(ctx context.Context, s model.Schema, item model.Item) error {
	cols := itemColumns(s)
	n := len(s.Fields) + 6
	args := []any{item.ID, item.Slug, item.Status}
	args = append(args, valueArgs(s, item.Values)...)
	args = append(args, attributesOrEmpty(item.Attributes), item.CreatedAt, item.UpdatedAt)

	_, err := q.db.ExecContext(ctx,
		"INSERT INTO "+s.Table+" ("+cols+") VALUES ("+placeholders(n)+")", args...)
	if isUniqueViolation(err) {
		return fmt.Errorf("creating %s item: %w", s.Family, ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("creating %s item: %w", s.Family, err)
	}
	return nil
}

// UpdateItem replaces an item's slug, status, fields and attributes.
// It returns sql.ErrNoRows when the item does not exist.
func (q *Queries) UpdateItem(ctx context.Context, s model.Schema, item model.Item) error {
	sets := []string{"slug = ?", "status = ?"}
	for _, c := range s.Columns() {
		sets = append(sets, c+" = ?")
	}
	sets = append(sets, "attributes = ?", "updated_at = ?")

	args := []any{item.Slug, item.Status}
	args = append(args, valueArgs(s, item.Values)...)
	args = append(args, attributesOrEmpty(item.Attributes), item.UpdatedAt, item.ID)

	res, err := q.db.ExecContext(ctx,
		"UPDATE "+s.Table+" SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if isUniqueViolation(err) {
		return fmt.Errorf("updating %s item: %w", s.Family, ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("updating %s item: %w", s.Family, err)
	}
	return requireAffected(res)
}

// DeleteItem removes an item and its translations.
// It returns sql.ErrNoRows when the item does not exist.
func (q *Queries) DeleteItem(ctx context.Context, s model.Schema, id string) error {
	if _, err := q.db.ExecContext(ctx,
		"DELETE FROM "+s.TranslationTable+" WHERE content_id = ?", id); err != nil {
		return fmt.Errorf("deleting %s translations: %w", s.Family, err)
	}
	res, err := q.db.ExecContext(ctx, "DELETE FROM "+s.Table+" WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting %s item: %w", s.Family, err)
	}
	return requireAffected(res)
}

func valueArgs(s model.Schema, v model.Values) []any {
	args := make([]any, len(s.Fields))
	for i := range s.Fields {
		if i < len(v) && v[i].Valid {
			args[i] = v[i].String
		} else {
			args[i] = nil
		}
	}
	return args
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func attributesOrEmpty(a string) string {
	if strings.TrimSpace(a) == "" {
		return "{}"
	}
	return a
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
