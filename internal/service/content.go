// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/olegiv/travelcms/internal/model"
	"github.com/olegiv/travelcms/internal/store"
	"github.com/olegiv/travelcms/internal/util"
)

// allowedStatuses lists the statuses an item of each family may take.
var allowedStatuses = map[model.Family][]string{
	model.FamilySection:     {model.StatusDraft, model.StatusPublished},
	model.FamilyPackage:     {model.StatusDraft, model.StatusPublished, model.StatusArchived},
	model.FamilyBlog:        {model.StatusDraft, model.StatusPublished, model.StatusArchived},
	model.FamilyTestimonial: {model.StatusPending, model.StatusApproved, model.StatusRejected},
	model.FamilyGallery:     {model.StatusDraft, model.StatusPublished},
}

// defaultStatus is used when an item is created without a status.
var defaultStatus = map[model.Family]string{
	model.FamilySection:     model.StatusPublished,
	model.FamilyPackage:     model.StatusDraft,
	model.FamilyBlog:        model.StatusDraft,
	model.FamilyTestimonial: model.StatusPending,
	model.FamilyGallery:     model.StatusPublished,
}

// ItemInput carries the writable parts of an item. Nil pointers leave the
// current value untouched on update; an empty string clears a field.
type ItemInput struct {
	Slug       *string
	Status     *string
	Fields     map[string]*string
	Attributes json.RawMessage
}

// ContentService manages content items and their translation rows.
type ContentService struct {
	db      *sql.DB
	queries *store.Queries
	events  *EventService
	logger  *slog.Logger
	now     func() time.Time
}

// NewContentService creates a new ContentService.
func NewContentService(db *sql.DB, events *EventService, logger *slog.Logger) *ContentService {
	return &ContentService{
		db:      db,
		queries: store.New(db),
		events:  events,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func schemaFor(family model.Family) (model.Schema, error) {
	s, ok := model.SchemaFor(family)
	if !ok {
		return model.Schema{}, fmt.Errorf("%w: unknown content type %q", ErrInvalidInput, family)
	}
	return s, nil
}

// List returns the items of a family. An empty status returns all items.
func (s *ContentService) List(ctx context.Context, family model.Family, status string) ([]model.Item, error) {
	schema, err := schemaFor(family)
	if err != nil {
		return nil, err
	}
	return s.queries.ListItems(ctx, schema, status)
}

// Get returns one item.
func (s *ContentService) Get(ctx context.Context, family model.Family, id string) (model.Item, error) {
	schema, err := schemaFor(family)
	if err != nil {
		return model.Item{}, err
	}
	return s.getItem(ctx, schema, id)
}

func (s *ContentService) getItem(ctx context.Context, schema model.Schema, id string) (model.Item, error) {
	item, err := s.queries.GetItem(ctx, schema, id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Item{}, fmt.Errorf("%w: %s %q", ErrNotFound, schema.Family, id)
	}
	if err != nil {
		return model.Item{}, fmt.Errorf("loading %s %q: %w", schema.Family, id, err)
	}
	return item, nil
}

// Create validates and stores a new item. The slug defaults to the
// transliterated title and is made unique within the family.
func (s *ContentService) Create(ctx context.Context, family model.Family, in ItemInput) (model.Item, error) {
	schema, err := schemaFor(family)
	if err != nil {
		return model.Item{}, err
	}

	now := s.now()
	item := model.Item{
		ID:         uuid.NewString(),
		Family:     family,
		Status:     defaultStatus[family],
		Values:     schema.EmptyValues(),
		Attributes: "{}",
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := applyInput(schema, &item, in); err != nil {
		return model.Item{}, err
	}

	base := util.Slugify(schema.Title(item.Values))
	if in.Slug != nil {
		base = *in.Slug
	}
	item.Slug, err = util.UniqueSlug(base, string(family), func(slug string) (bool, error) {
		return s.queries.SlugExists(ctx, schema, slug, item.ID)
	})
	if err != nil {
		return model.Item{}, fmt.Errorf("choosing slug: %w", err)
	}

	if err := s.queries.CreateItem(ctx, schema, item); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return model.Item{}, fmt.Errorf("%w: slug %q already used", ErrConflict, item.Slug)
		}
		return model.Item{}, err
	}

	s.events.LogInfo(ctx, model.EventCategoryContent, "content item created",
		map[string]any{"contentType": family, "contentId": item.ID})
	return item, nil
}

// Update applies a partial update to an item.
func (s *ContentService) Update(ctx context.Context, family model.Family, id string, in ItemInput) (model.Item, error) {
	schema, err := schemaFor(family)
	if err != nil {
		return model.Item{}, err
	}
	item, err := s.getItem(ctx, schema, id)
	if err != nil {
		return model.Item{}, err
	}

	if err := applyInput(schema, &item, in); err != nil {
		return model.Item{}, err
	}
	if in.Slug != nil {
		taken, err := s.queries.SlugExists(ctx, schema, item.Slug, item.ID)
		if err != nil {
			return model.Item{}, err
		}
		if taken {
			return model.Item{}, fmt.Errorf("%w: slug %q already used", ErrConflict, item.Slug)
		}
	}
	item.UpdatedAt = s.now()

	if err := s.queries.UpdateItem(ctx, schema, item); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return model.Item{}, fmt.Errorf("%w: slug %q already used", ErrConflict, item.Slug)
		}
		if errors.Is(err, sql.ErrNoRows) {
			return model.Item{}, fmt.Errorf("%w: %s %q", ErrNotFound, family, id)
		}
		return model.Item{}, err
	}
	return item, nil
}

// Delete removes an item together with its translations.
func (s *ContentService) Delete(ctx context.Context, family model.Family, id string) error {
	schema, err := schemaFor(family)
	if err != nil {
		return err
	}

	err = store.RunInTx(ctx, s.db, func(q *store.Queries) error {
		return q.DeleteItem(ctx, schema, id)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s %q", ErrNotFound, family, id)
	}
	if err != nil {
		return err
	}

	s.events.LogInfo(ctx, model.EventCategoryContent, "content item deleted",
		map[string]any{"contentType": family, "contentId": id})
	return nil
}

// Translations returns the translation rows of an item.
func (s *ContentService) Translations(ctx context.Context, family model.Family, id string) ([]model.Translation, error) {
	schema, err := schemaFor(family)
	if err != nil {
		return nil, err
	}
	if _, err := s.getItem(ctx, schema, id); err != nil {
		return nil, err
	}
	rows, err := s.queries.ListItemTranslations(ctx, schema, id)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []model.Translation{}
	}
	return rows, nil
}

// PutTranslation stores a manual edit of one language copy. Provided fields
// are merged into the existing row; the row is marked as not auto-translated.
func (s *ContentService) PutTranslation(ctx context.Context, family model.Family, id, lang string, fields map[string]*string) (model.Translation, error) {
	schema, err := schemaFor(family)
	if err != nil {
		return model.Translation{}, err
	}
	code, err := targetLanguage(lang)
	if err != nil {
		return model.Translation{}, err
	}
	if _, err := s.getItem(ctx, schema, id); err != nil {
		return model.Translation{}, err
	}

	now := s.now()
	tr, err := s.queries.GetTranslation(ctx, schema, id, code)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		tr = model.Translation{ContentID: id, Language: code, Values: schema.EmptyValues(), CreatedAt: now}
	case err != nil:
		return model.Translation{}, err
	}

	if err := applyFields(schema, tr.Values, fields); err != nil {
		return model.Translation{}, err
	}
	tr.IsAutoTranslated = false
	tr.UpdatedAt = now

	if err := s.queries.UpsertTranslation(ctx, schema, tr); err != nil {
		return model.Translation{}, err
	}
	return tr, nil
}

// DeleteTranslation removes one language copy of an item.
func (s *ContentService) DeleteTranslation(ctx context.Context, family model.Family, id, lang string) error {
	schema, err := schemaFor(family)
	if err != nil {
		return err
	}
	code, err := targetLanguage(lang)
	if err != nil {
		return err
	}
	err = s.queries.DeleteTranslation(ctx, schema, id, code)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: no %s translation for %s %q", ErrNotFound, code, family, id)
	}
	return err
}

func targetLanguage(lang string) (string, error) {
	l, err := model.ParseLanguage(lang)
	if err != nil || !model.IsTargetLanguage(l.Code) {
		return "", fmt.Errorf("%w: %q is not a translation language", ErrInvalidInput, lang)
	}
	return l.Code, nil
}

func applyInput(schema model.Schema, item *model.Item, in ItemInput) error {
	if in.Status != nil {
		status := strings.ToLower(strings.TrimSpace(*in.Status))
		if !slices.Contains(allowedStatuses[schema.Family], status) {
			return fmt.Errorf("%w: status %q is not valid for %s", ErrInvalidInput, *in.Status, schema.Family)
		}
		item.Status = status
	}
	if in.Slug != nil {
		slug := strings.TrimSpace(*in.Slug)
		if !util.IsValidSlug(slug) {
			return fmt.Errorf("%w: invalid slug %q", ErrInvalidInput, *in.Slug)
		}
		item.Slug = slug
	}
	if len(in.Attributes) > 0 {
		var obj map[string]any
		if err := json.Unmarshal(in.Attributes, &obj); err != nil {
			return fmt.Errorf("%w: attributes must be a JSON object", ErrInvalidInput)
		}
		if obj == nil {
			// null clears the attributes.
			item.Attributes = "{}"
		} else {
			item.Attributes = string(in.Attributes)
		}
	}
	return applyFields(schema, item.Values, in.Fields)
}

// applyFields writes named field values into v. FieldList values must be
// JSON arrays or objects.
func applyFields(schema model.Schema, v model.Values, fields map[string]*string) error {
	for name, value := range fields {
		idx := schema.FieldIndex(name)
		if idx < 0 {
			return fmt.Errorf("%w: unknown %s field %q", ErrInvalidInput, schema.Family, name)
		}
		if value == nil {
			continue
		}
		if *value == "" {
			v[idx] = sql.NullString{}
			continue
		}
		if schema.Fields[idx].Kind == model.FieldList && !isJSONCollection(*value) {
			return fmt.Errorf("%w: field %q must be a JSON array or object", ErrInvalidInput, name)
		}
		v[idx] = model.NullString(*value)
	}
	return nil
}

func isJSONCollection(s string) bool {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "[") && !strings.HasPrefix(s, "{") {
		return false
	}
	return json.Valid([]byte(s))
}
