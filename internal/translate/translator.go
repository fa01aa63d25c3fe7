// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package translate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/olegiv/travelcms/internal/model"
	"github.com/olegiv/travelcms/internal/store"
)

// Outcome is the result of translating one item.
type Outcome struct {
	Results []model.LanguageResult
	Logs    []string
}

// Status derives the final job status from the per-language results.
func (o Outcome) Status() model.JobStatus {
	failed := 0
	for _, r := range o.Results {
		if r.Status == model.OutcomeFailed {
			failed++
		}
	}
	switch {
	case failed == 0:
		return model.JobCompleted
	case failed == len(o.Results):
		return model.JobFailed
	default:
		return model.JobCompletedWithErrors
	}
}

// Translator translates one item into every target language.
type Translator struct {
	queries  *store.Queries
	provider Provider
	logger   *slog.Logger
	now      func() time.Time
}

// NewTranslator creates a Translator writing to db through provider.
func NewTranslator(db *sql.DB, provider Provider, logger *slog.Logger) *Translator {
	return &Translator{
		queries:  store.New(db),
		provider: provider,
		logger:   logger.With("category", model.EventCategoryTranslation),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Provider returns the provider used by the translator.
func (t *Translator) Provider() Provider {
	return t.provider
}

// Run translates the item into each target language. Languages whose row is
// already complete are skipped unless force is set. A failure in one language
// is recorded and the remaining languages are still processed.
// Run returns ErrNotFound when the item does not exist.
func (t *Translator) Run(ctx context.Context, family model.Family, contentID string, force bool) (Outcome, error) {
	schema, ok := model.SchemaFor(family)
	if !ok {
		return Outcome{}, fmt.Errorf("%w: unknown content type %q", ErrInvalidInput, family)
	}

	item, err := t.queries.GetItem(ctx, schema, contentID)
	if errors.Is(err, sql.ErrNoRows) {
		return Outcome{}, fmt.Errorf("%w: %s %q", ErrNotFound, family, contentID)
	}
	if err != nil {
		return Outcome{}, fmt.Errorf("loading %s %q: %w", family, contentID, err)
	}

	payload := NewPayload(schema, item.Values)
	var out Outcome
	logf := func(format string, args ...any) {
		out.Logs = append(out.Logs, fmt.Sprintf(format, args...))
	}
	logf("Translating %s %q (%d fields, %d texts) with %s",
		family, schema.Title(item.Values), payload.Fields(), len(payload.Texts()), t.provider.Name())

	for _, lang := range model.TargetLanguages() {
		res := t.translateLanguage(ctx, schema, item.ID, lang, payload, force)
		out.Results = append(out.Results, res)
		switch res.Status {
		case model.OutcomeSkipped:
			logf("%s: already complete, skipped", lang)
		case model.OutcomeFailed:
			logf("%s: failed: %s", lang, res.Error)
			t.logger.Warn("translation failed",
				"content_type", family, "content_id", item.ID, "language", lang, "error", res.Error)
		default:
			logf("%s: translated", lang)
		}
	}

	translated, skipped, failed := countOutcomes(out.Results)
	logf("Done: %d translated, %d skipped, %d failed", translated, skipped, failed)
	return out, nil
}

func (t *Translator) translateLanguage(ctx context.Context, schema model.Schema, contentID, lang string, payload *Payload, force bool) model.LanguageResult {
	res := model.LanguageResult{Language: lang}
	fail := func(err error) model.LanguageResult {
		res.Status = model.OutcomeFailed
		res.Error = err.Error()
		return res
	}

	now := t.now()
	row, err := t.queries.GetTranslation(ctx, schema, contentID, lang)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		row = model.Translation{ContentID: contentID, Language: lang, Values: schema.EmptyValues(), CreatedAt: now}
	case err != nil:
		return fail(err)
	case !force && schema.IsComplete(row.Values):
		res.Status = model.OutcomeSkipped
		return res
	}

	translated := []string{}
	if texts := payload.Texts(); len(texts) > 0 {
		translated, err = t.provider.Translate(ctx, texts, model.SourceLanguage, lang)
		if err != nil {
			return fail(err)
		}
	}
	if err := payload.Apply(row.Values, translated); err != nil {
		return fail(err)
	}

	row.IsAutoTranslated = true
	row.UpdatedAt = now
	if err := t.queries.UpsertTranslation(ctx, schema, row); err != nil {
		return fail(err)
	}

	res.Status = model.OutcomeTranslated
	return res
}

func countOutcomes(results []model.LanguageResult) (translated, skipped, failed int) {
	return model.TranslationJob{Results: results}.Counts()
}
