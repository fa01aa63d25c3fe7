// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/travelcms/internal/model"
	"github.com/olegiv/travelcms/internal/testutil"
)

// partialPackageFields fills 8 of the 15 package fields.
func partialPackageFields() testutil.Fields {
	return testutil.Fields{
		"title":        "Bali Tour",
		"description":  "Drei Tage",
		"destinations": `["Ubud"]`,
		"includes":     `["Hotel"]`,
		"groupSize":    "2-10",
		"difficulty":   "leicht",
		"departure":    "Denpasar",
		"location":     "Bali",
	}
}

func TestCheckFamily_PartialPackage(t *testing.T) {
	db := testutil.TestDB(t)
	svc := NewCoverageService(db, testutil.TestLogger())

	testutil.CreateItem(t, db, model.FamilyPackage, "p1", model.StatusPublished,
		testutil.FullFields(model.FamilyPackage, "ID"))
	testutil.CreateTranslation(t, db, model.FamilyPackage, "p1", "en",
		testutil.FullFields(model.FamilyPackage, "EN"))
	testutil.CreateTranslation(t, db, model.FamilyPackage, "p1", "de", partialPackageFields())

	sc, err := svc.CheckFamily(context.Background(), model.FamilyPackage)
	require.NoError(t, err)
	require.Len(t, sc.Items, 1)
	assert.Equal(t, 1, sc.TotalItems)
	assert.Equal(t, 0, sc.TranslatedItems)

	ic := sc.Items[0]
	assert.Equal(t, "p1", ic.ItemID)
	assert.Equal(t, "ID title", ic.ItemTitle)

	assert.Equal(t, model.LanguageCoverage{Exists: true, Completeness: 100, MissingFields: []string{}}, ic.Translations["id"])
	assert.Equal(t, float64(100), ic.Translations["en"].Completeness)
	assert.Empty(t, ic.Translations["en"].MissingFields)

	de := ic.Translations["de"]
	assert.True(t, de.Exists)
	assert.InDelta(t, 53.33, de.Completeness, 0.001)
	assert.Equal(t, []string{"longDescription", "excludes", "highlights", "itinerary", "faqs", "bestFor", "return"}, de.MissingFields)

	for _, lang := range []string{"nl", "zh"} {
		assert.False(t, ic.Translations[lang].Exists)
		assert.Equal(t, []string{model.MissingAll}, ic.Translations[lang].MissingFields)
	}

	assert.InDelta(t, 38.33, ic.OverallCompleteness, 0.001)
	assert.Equal(t, model.CoveragePartial, ic.Status)
	assert.Equal(t, []string{"nl", "zh"}, ic.MissingLanguages)
}

func TestCheckFamily_BlogWithoutTranslations(t *testing.T) {
	db := testutil.TestDB(t)
	svc := NewCoverageService(db, testutil.TestLogger())

	testutil.CreateItem(t, db, model.FamilyBlog, "b1", model.StatusPublished,
		testutil.Fields{"title": "Kuliner Jogja"})

	sc, err := svc.CheckFamily(context.Background(), model.FamilyBlog)
	require.NoError(t, err)
	require.Len(t, sc.Items, 1)

	ic := sc.Items[0]
	assert.Equal(t, float64(0), ic.OverallCompleteness)
	assert.Equal(t, model.CoverageMissing, ic.Status)
	assert.Equal(t, []string{"en", "de", "nl", "zh"}, ic.MissingLanguages)
	assert.Len(t, ic.Translations, 5)
	assert.Equal(t, float64(0), sc.CoveragePercentage)
}

func TestCheckFamily_StatusFilter(t *testing.T) {
	db := testutil.TestDB(t)
	svc := NewCoverageService(db, testutil.TestLogger())
	ctx := context.Background()

	testutil.CreateItem(t, db, model.FamilyPackage, "live", model.StatusPublished, testutil.Fields{"title": "Live"})
	testutil.CreateItem(t, db, model.FamilyPackage, "wip", model.StatusDraft, testutil.Fields{"title": "Draft"})
	testutil.CreateItem(t, db, model.FamilyTestimonial, "t1", model.StatusApproved, testutil.Fields{"name": "Ayu"})
	testutil.CreateItem(t, db, model.FamilyTestimonial, "t2", model.StatusRejected, testutil.Fields{"name": "Budi"})
	// Sections and gallery items are checked regardless of status.
	testutil.CreateItem(t, db, model.FamilySection, "hero", model.StatusDraft, testutil.Fields{"title": "Hero"})

	sc, err := svc.CheckFamily(ctx, model.FamilyPackage)
	require.NoError(t, err)
	require.Len(t, sc.Items, 1)
	assert.Equal(t, "live", sc.Items[0].ItemID)

	sc, err = svc.CheckFamily(ctx, model.FamilyTestimonial)
	require.NoError(t, err)
	require.Len(t, sc.Items, 1)
	assert.Equal(t, "Ayu", sc.Items[0].ItemTitle)

	sc, err = svc.CheckFamily(ctx, model.FamilySection)
	require.NoError(t, err)
	assert.Equal(t, 1, sc.TotalItems)
}

func TestCheckFamily_CompleteItem(t *testing.T) {
	db := testutil.TestDB(t)
	svc := NewCoverageService(db, testutil.TestLogger())

	testutil.CreateItem(t, db, model.FamilyGallery, "g1", model.StatusPublished,
		testutil.FullFields(model.FamilyGallery, "ID"))
	for _, lang := range model.TargetLanguages() {
		testutil.CreateTranslation(t, db, model.FamilyGallery, "g1", lang,
			testutil.FullFields(model.FamilyGallery, lang))
	}

	sc, err := svc.CheckFamily(context.Background(), model.FamilyGallery)
	require.NoError(t, err)
	require.Len(t, sc.Items, 1)
	assert.Equal(t, model.CoverageComplete, sc.Items[0].Status)
	assert.Equal(t, float64(100), sc.Items[0].OverallCompleteness)
	assert.Empty(t, sc.Items[0].MissingLanguages)
	assert.Equal(t, 1, sc.TranslatedItems)
	assert.Equal(t, float64(100), sc.CoveragePercentage)
}

func TestCheckFamily_BlankValuesAreMissing(t *testing.T) {
	db := testutil.TestDB(t)
	svc := NewCoverageService(db, testutil.TestLogger())

	testutil.CreateItem(t, db, model.FamilyGallery, "g1", model.StatusPublished, testutil.Fields{"title": "Pura"})
	testutil.CreateTranslation(t, db, model.FamilyGallery, "g1", "en",
		testutil.Fields{"title": "Temple", "description": "   ", "tags": "[]"})

	sc, err := svc.CheckFamily(context.Background(), model.FamilyGallery)
	require.NoError(t, err)
	en := sc.Items[0].Translations["en"]
	assert.InDelta(t, 66.67, en.Completeness, 0.001)
	assert.Equal(t, []string{"description"}, en.MissingFields)
}

func TestCheckAll(t *testing.T) {
	db := testutil.TestDB(t)
	svc := NewCoverageService(db, testutil.TestLogger())

	testutil.CreateItem(t, db, model.FamilySection, "hero", model.StatusPublished,
		testutil.FullFields(model.FamilySection, "ID"))
	for _, lang := range model.TargetLanguages() {
		testutil.CreateTranslation(t, db, model.FamilySection, "hero", lang,
			testutil.FullFields(model.FamilySection, lang))
	}
	testutil.CreateItem(t, db, model.FamilyBlog, "b1", model.StatusPublished, testutil.Fields{"title": "Blog"})

	report, err := svc.CheckAll(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Sections, 5)

	for _, f := range model.Families() {
		sc, ok := report.Sections[f.Plural()]
		require.True(t, ok, f)
		assert.Equal(t, f, sc.Section)
	}
	assert.Equal(t, 1, report.Sections["sections"].TranslatedItems)
	assert.Equal(t, model.CoverageMissing, report.Sections["blogs"].Items[0].Status)

	var order []model.Family
	for _, sc := range report.Ordered() {
		order = append(order, sc.Section)
	}
	assert.Equal(t, model.Families(), order)

	assert.Equal(t, 2, report.Summary.TotalItems)
	assert.Equal(t, 1, report.Summary.TranslatedItems)
	assert.Equal(t, float64(50), report.Summary.OverallCoverage)
}

func TestCheck_Section(t *testing.T) {
	db := testutil.TestDB(t)
	svc := NewCoverageService(db, testutil.TestLogger())
	ctx := context.Background()

	report, err := svc.Check(ctx, "all")
	require.NoError(t, err)
	assert.Len(t, report.Sections, 5)
	assert.Equal(t, float64(0), report.Summary.OverallCoverage)

	report, err = svc.Check(ctx, "")
	require.NoError(t, err)
	assert.Len(t, report.Sections, 5)

	report, err = svc.Check(ctx, "packages")
	require.NoError(t, err)
	require.Len(t, report.Sections, 1)
	assert.Equal(t, model.FamilyPackage, report.Sections["packages"].Section)

	_, err = svc.Check(ctx, "bogus")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.CheckFamily(ctx, model.Family("bogus"))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestItemsNeedingTranslation(t *testing.T) {
	db := testutil.TestDB(t)
	svc := NewCoverageService(db, testutil.TestLogger())

	testutil.CreateItem(t, db, model.FamilyGallery, "done", model.StatusPublished, testutil.FullFields(model.FamilyGallery, "ID"))
	for _, lang := range model.TargetLanguages() {
		testutil.CreateTranslation(t, db, model.FamilyGallery, "done", lang, testutil.FullFields(model.FamilyGallery, lang))
	}
	testutil.CreateItem(t, db, model.FamilyGallery, "half", model.StatusPublished, testutil.Fields{"title": "Half"})
	testutil.CreateTranslation(t, db, model.FamilyGallery, "half", "en", testutil.FullFields(model.FamilyGallery, "en"))
	testutil.CreateItem(t, db, model.FamilyBlog, "new", model.StatusPublished, testutil.Fields{"title": "New"})

	pending, err := svc.ItemsNeedingTranslation(context.Background())
	require.NoError(t, err)
	require.Len(t, pending, 2)

	byID := map[string]model.ItemCoverage{}
	for _, ic := range pending {
		byID[ic.ItemID] = ic
	}
	assert.Equal(t, model.FamilyGallery, byID["half"].Section)
	assert.Equal(t, model.CoveragePartial, byID["half"].Status)
	assert.Equal(t, model.FamilyBlog, byID["new"].Section)
	assert.Equal(t, model.CoverageMissing, byID["new"].Status)
	assert.NotContains(t, byID, "done")
}

func TestSummarize(t *testing.T) {
	tests := []struct {
		name     string
		sections []model.SectionCoverage
		want     model.CoverageSummary
	}{
		{
			name: "two sections",
			sections: []model.SectionCoverage{
				{TotalItems: 5, TranslatedItems: 5},
				{TotalItems: 10, TranslatedItems: 2},
			},
			want: model.CoverageSummary{TotalItems: 15, TranslatedItems: 7, OverallCoverage: 46.67},
		},
		{
			name:     "empty",
			sections: []model.SectionCoverage{{}, {}},
			want:     model.CoverageSummary{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Summarize(tt.sections))
		})
	}
}

func TestSectionCoverageFor_Empty(t *testing.T) {
	sc := SectionCoverageFor(model.MustSchema(model.FamilyBlog), nil, nil)
	assert.Equal(t, 0, sc.TotalItems)
	assert.Equal(t, float64(0), sc.CoveragePercentage)
	assert.NotNil(t, sc.Items)
}
