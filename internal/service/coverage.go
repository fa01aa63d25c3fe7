// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package service provides the business logic of the CMS: translation
// coverage reporting, content management and the event log.
package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/olegiv/travelcms/internal/model"
	"github.com/olegiv/travelcms/internal/store"
)

// SectionAll selects every family in Check.
const SectionAll = "all"

// CoverageService computes translation coverage from the current rows.
// Nothing is cached: every call reads the database again.
type CoverageService struct {
	queries *store.Queries
	logger  *slog.Logger
}

// NewCoverageService creates a new CoverageService.
func NewCoverageService(db *sql.DB, logger *slog.Logger) *CoverageService {
	return &CoverageService{
		queries: store.New(db),
		logger:  logger,
	}
}

// CheckFamily reports the coverage of every item of a family that passes the
// family's status filter.
func (s *CoverageService) CheckFamily(ctx context.Context, family model.Family) (model.SectionCoverage, error) {
	schema, ok := model.SchemaFor(family)
	if !ok {
		return model.SectionCoverage{}, fmt.Errorf("%w: unknown section %q", ErrInvalidInput, family)
	}

	items, err := s.queries.ListItems(ctx, schema, schema.StatusFilter)
	if err != nil {
		return model.SectionCoverage{}, fmt.Errorf("checking %s coverage: %w", family, err)
	}
	translations, err := s.queries.ListFamilyTranslations(ctx, schema, schema.StatusFilter)
	if err != nil {
		return model.SectionCoverage{}, fmt.Errorf("checking %s coverage: %w", family, err)
	}

	return SectionCoverageFor(schema, items, translations), nil
}

// CheckAll checks every family concurrently.
func (s *CoverageService) CheckAll(ctx context.Context) (model.CoverageReport, error) {
	families := model.Families()
	sections := make([]model.SectionCoverage, len(families))

	g, gctx := errgroup.WithContext(ctx)
	for i, family := range families {
		g.Go(func() error {
			sc, err := s.CheckFamily(gctx, family)
			if err != nil {
				return err
			}
			sections[i] = sc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return model.CoverageReport{}, err
	}

	return newReport(sections), nil
}

func newReport(sections []model.SectionCoverage) model.CoverageReport {
	byName := make(map[string]model.SectionCoverage, len(sections))
	for _, sc := range sections {
		byName[sc.Section.Plural()] = sc
	}
	return model.CoverageReport{Summary: Summarize(sections), Sections: byName}
}

// Check runs CheckAll for "all" or CheckFamily for a single family name.
func (s *CoverageService) Check(ctx context.Context, section string) (model.CoverageReport, error) {
	section = strings.TrimSpace(section)
	if section == "" || strings.EqualFold(section, SectionAll) {
		return s.CheckAll(ctx)
	}

	family, ok := model.ParseFamily(section)
	if !ok {
		return model.CoverageReport{}, fmt.Errorf("%w: unknown section %q", ErrInvalidInput, section)
	}
	sc, err := s.CheckFamily(ctx, family)
	if err != nil {
		return model.CoverageReport{}, err
	}
	return newReport([]model.SectionCoverage{sc}), nil
}

// ItemsNeedingTranslation returns every checked item whose status is not
// complete, tagged with its family.
func (s *CoverageService) ItemsNeedingTranslation(ctx context.Context) ([]model.ItemCoverage, error) {
	report, err := s.CheckAll(ctx)
	if err != nil {
		return nil, err
	}

	pending := []model.ItemCoverage{}
	for _, sc := range report.Ordered() {
		for _, item := range sc.Items {
			if item.Status != model.CoverageComplete {
				item.Section = sc.Section
				pending = append(pending, item)
			}
		}
	}
	s.logger.Debug("items needing translation", "count", len(pending))
	return pending, nil
}

// SectionCoverageFor builds the coverage of a family from its items and their
// translation rows grouped by content id.
func SectionCoverageFor(schema model.Schema, items []model.Item, translations map[string][]model.Translation) model.SectionCoverage {
	sc := model.SectionCoverage{
		Section:    schema.Family,
		TotalItems: len(items),
		Items:      make([]model.ItemCoverage, 0, len(items)),
	}
	for _, item := range items {
		ic := ItemCoverageFor(schema, item, translations[item.ID])
		if ic.Status == model.CoverageComplete {
			sc.TranslatedItems++
		}
		sc.Items = append(sc.Items, ic)
	}
	sc.CoveragePercentage = model.Percentage(sc.TranslatedItems, sc.TotalItems)
	return sc
}

// ItemCoverageFor computes the per-language completeness of one item.
// The source language is always complete and excluded from the average.
// MissingLanguages lists only languages without a row; partially filled
// rows are reported through their completeness instead.
func ItemCoverageFor(schema model.Schema, item model.Item, rows []model.Translation) model.ItemCoverage {
	byLang := make(map[string]model.Translation, len(rows))
	for _, r := range rows {
		byLang[r.Language] = r
	}

	ic := model.ItemCoverage{
		ItemID:    item.ID,
		ItemTitle: schema.Title(item.Values),
		Translations: map[string]model.LanguageCoverage{
			model.SourceLanguage: {Exists: true, Completeness: 100, MissingFields: []string{}},
		},
		MissingLanguages: []string{},
	}

	targets := model.TargetLanguages()
	var sum float64
	for _, lang := range targets {
		row, ok := byLang[lang]
		if !ok {
			ic.Translations[lang] = model.LanguageCoverage{
				Exists:        false,
				Completeness:  0,
				MissingFields: []string{model.MissingAll},
			}
			ic.MissingLanguages = append(ic.MissingLanguages, lang)
			continue
		}
		pct, missing := schema.Completeness(row.Values)
		ic.Translations[lang] = model.LanguageCoverage{
			Exists:        true,
			Completeness:  model.Round2(pct),
			MissingFields: missing,
		}
		sum += pct
	}

	overall := sum / float64(len(targets))
	ic.OverallCompleteness = model.Round2(overall)
	ic.Status = model.StatusFor(overall)
	return ic
}

// Summarize totals a set of section reports.
func Summarize(sections []model.SectionCoverage) model.CoverageSummary {
	var sum model.CoverageSummary
	for _, sc := range sections {
		sum.TotalItems += sc.TotalItems
		sum.TranslatedItems += sc.TranslatedItems
	}
	sum.OverallCoverage = model.Percentage(sum.TranslatedItems, sum.TotalItems)
	return sum
}
