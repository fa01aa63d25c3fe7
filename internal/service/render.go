// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/olegiv/travelcms/internal/model"
)

// LocalizedItem is an item merged with one of its translations.
type LocalizedItem struct {
	ID               string         `json:"id"`
	ContentType      model.Family   `json:"contentType"`
	Slug             string         `json:"slug"`
	Status           string         `json:"status"`
	Language         string         `json:"language"`
	Fields           map[string]any `json:"fields"`
	FallbackFields   []string       `json:"fallbackFields"`
	IsAutoTranslated bool           `json:"isAutoTranslated"`
	Attributes       map[string]any `json:"attributes,omitempty"`
}

var (
	markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))
	ugc      = bluemonday.UGCPolicy()
)

// Localized returns the item with every field taken from the translation in
// lang where filled and from the source otherwise. The source language itself
// returns the item unchanged. With asHTML set, rich fields are rendered from
// markdown and sanitized.
func (s *ContentService) Localized(ctx context.Context, family model.Family, id, lang string, asHTML bool) (LocalizedItem, error) {
	schema, err := schemaFor(family)
	if err != nil {
		return LocalizedItem{}, err
	}
	l, err := model.ParseLanguage(lang)
	if err != nil {
		return LocalizedItem{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	item, err := s.getItem(ctx, schema, id)
	if err != nil {
		return LocalizedItem{}, err
	}

	out := LocalizedItem{
		ID:             item.ID,
		ContentType:    family,
		Slug:           item.Slug,
		Status:         item.Status,
		Language:       l.Code,
		Fields:         make(map[string]any, len(schema.Fields)),
		FallbackFields: []string{},
	}
	if item.Attributes != "" {
		_ = json.Unmarshal([]byte(item.Attributes), &out.Attributes)
	}

	var tr model.Translation
	if l.Code != model.SourceLanguage {
		tr, err = s.queries.GetTranslation(ctx, schema, id, l.Code)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return LocalizedItem{}, err
		}
		out.IsAutoTranslated = tr.IsAutoTranslated
	}

	for i, f := range schema.Fields {
		value := item.Values.Get(i)
		if tr.Values.Filled(i) {
			value = tr.Values.Get(i)
		} else if l.Code != model.SourceLanguage {
			out.FallbackFields = append(out.FallbackFields, f.Name)
		}
		out.Fields[f.Name] = renderField(f, value, asHTML)
	}
	return out, nil
}

func renderField(f model.Field, value string, asHTML bool) any {
	switch f.Kind {
	case model.FieldList:
		var v any
		if value != "" && json.Unmarshal([]byte(value), &v) == nil {
			return v
		}
		return value
	case model.FieldRich:
		if !asHTML || value == "" {
			return value
		}
		html, err := RenderMarkdown(value)
		if err != nil {
			return ugc.Sanitize(value)
		}
		return html
	default:
		return value
	}
}

// RenderMarkdown converts markdown to sanitized HTML.
func RenderMarkdown(src string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return ugc.Sanitize(buf.String()), nil
}
