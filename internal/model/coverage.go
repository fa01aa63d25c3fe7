// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// CoverageStatus classifies an item's overall translation completeness.
type CoverageStatus string

// Coverage statuses
const (
	CoverageComplete CoverageStatus = "complete"
	CoveragePartial  CoverageStatus = "partial"
	CoverageMissing  CoverageStatus = "missing"
)

// MissingAll is the single missingFields entry reported for a language without a row.
const MissingAll = "all"

// StatusFor maps an overall completeness percentage to a status.
func StatusFor(overall float64) CoverageStatus {
	switch {
	case overall >= 100:
		return CoverageComplete
	case overall > 0:
		return CoveragePartial
	default:
		return CoverageMissing
	}
}

// LanguageCoverage is the completeness of one language copy of an item.
type LanguageCoverage struct {
	Exists        bool     `json:"exists"`
	Completeness  float64  `json:"completeness"`
	MissingFields []string `json:"missingFields"`
}

// ItemCoverage is the translation state of one content item.
type ItemCoverage struct {
	ItemID              string                      `json:"itemId"`
	ItemTitle           string                      `json:"itemTitle"`
	Section             Family                      `json:"section,omitempty"`
	Translations        map[string]LanguageCoverage `json:"translations"`
	OverallCompleteness float64                     `json:"overallCompleteness"`
	MissingLanguages    []string                    `json:"missingLanguages"`
	Status              CoverageStatus              `json:"status"`
}

// SectionCoverage aggregates the coverage of one content family.
type SectionCoverage struct {
	Section            Family         `json:"section"`
	TotalItems         int            `json:"totalItems"`
	TranslatedItems    int            `json:"translatedItems"`
	CoveragePercentage float64        `json:"coveragePercentage"`
	Items              []ItemCoverage `json:"items"`
}

// CoverageSummary holds site-wide totals.
type CoverageSummary struct {
	TotalItems      int     `json:"totalItems"`
	TranslatedItems int     `json:"translatedItems"`
	OverallCoverage float64 `json:"overallCoverage"`
}

// CoverageReport is the result of a coverage check. Sections are keyed by
// the plural family name.
type CoverageReport struct {
	Summary  CoverageSummary            `json:"summary"`
	Sections map[string]SectionCoverage `json:"sections"`
}

// Ordered returns the report's sections in family order.
func (r CoverageReport) Ordered() []SectionCoverage {
	out := make([]SectionCoverage, 0, len(r.Sections))
	for _, f := range Families() {
		if sc, ok := r.Sections[f.Plural()]; ok {
			out = append(out, sc)
		}
	}
	return out
}

// Percentage returns part/total*100 rounded to two decimals, or 0 when total is 0.
func Percentage(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return Round2(float64(part) / float64(total) * 100)
}
