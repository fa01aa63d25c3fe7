// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"database/sql"
	"math"
)

// FieldKind describes how a translatable field is stored and sent to providers.
type FieldKind int

const (
	// FieldText is a short plain-text value.
	FieldText FieldKind = iota
	// FieldRich is a long body that may contain markdown or HTML.
	FieldRich
	// FieldList is a JSON array or object stored as text.
	FieldList
)

// Field describes one translatable field of a content family.
type Field struct {
	Name   string    // API name, e.g. "longDescription"
	Column string    // database column, e.g. "long_description"
	Kind   FieldKind // storage and payload handling
}

// Schema is the translatable field registry entry of one content family.
type Schema struct {
	Family           Family
	Table            string
	TranslationTable string
	// StatusFilter restricts coverage checks to items in this status.
	// Empty means every item is checked.
	StatusFilter string
	// TitleField is the field used as the item's display title.
	TitleField string
	Fields     []Field
}

var schemas = map[Family]Schema{
	FamilySection: {
		Family:           FamilySection,
		Table:            "sections",
		TranslationTable: "section_translations",
		TitleField:       "title",
		Fields: []Field{
			{"title", "title", FieldText},
			{"subtitle", "subtitle", FieldText},
			{"description", "description", FieldText},
			{"ctaText", "cta_text", FieldText},
		},
	},
	FamilyPackage: {
		Family:           FamilyPackage,
		Table:            "packages",
		TranslationTable: "package_translations",
		StatusFilter:     StatusPublished,
		TitleField:       "title",
		Fields: []Field{
			{"title", "title", FieldText},
			{"description", "description", FieldText},
			{"longDescription", "long_description", FieldRich},
			{"destinations", "destinations", FieldList},
			{"includes", "includes", FieldList},
			{"excludes", "excludes", FieldList},
			{"highlights", "highlights", FieldList},
			{"itinerary", "itinerary", FieldList},
			{"faqs", "faqs", FieldList},
			{"groupSize", "group_size", FieldText},
			{"difficulty", "difficulty", FieldText},
			{"bestFor", "best_for", FieldText},
			{"departure", "departure", FieldText},
			{"return", "return_info", FieldText},
			{"location", "location", FieldText},
		},
	},
	FamilyBlog: {
		Family:           FamilyBlog,
		Table:            "blog_posts",
		TranslationTable: "blog_post_translations",
		StatusFilter:     StatusPublished,
		TitleField:       "title",
		Fields: []Field{
			{"title", "title", FieldText},
			{"excerpt", "excerpt", FieldText},
			{"content", "content", FieldRich},
			{"category", "category", FieldText},
			{"tags", "tags", FieldList},
		},
	},
	FamilyTestimonial: {
		Family:           FamilyTestimonial,
		Table:            "testimonials",
		TranslationTable: "testimonial_translations",
		StatusFilter:     StatusApproved,
		TitleField:       "name",
		Fields: []Field{
			{"name", "name", FieldText},
			{"role", "role", FieldText},
			{"content", "content", FieldText},
			{"packageName", "package_name", FieldText},
			{"location", "location", FieldText},
		},
	},
	FamilyGallery: {
		Family:           FamilyGallery,
		Table:            "gallery_items",
		TranslationTable: "gallery_item_translations",
		TitleField:       "title",
		Fields: []Field{
			{"title", "title", FieldText},
			{"description", "description", FieldText},
			{"tags", "tags", FieldList},
		},
	},
}

// SchemaFor returns the field registry entry for a family.
func SchemaFor(f Family) (Schema, bool) {
	s, ok := schemas[f]
	return s, ok
}

// MustSchema is like SchemaFor but panics for an unknown family.
func MustSchema(f Family) Schema {
	s, ok := schemas[f]
	if !ok {
		panic("model: unknown content family " + string(f))
	}
	return s
}

// FieldNames returns the translatable field names in registry order.
func (s Schema) FieldNames() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// Columns returns the translatable database columns in registry order.
func (s Schema) Columns() []string {
	cols := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		cols[i] = f.Column
	}
	return cols
}

// FieldIndex returns the position of the named field, or -1.
func (s Schema) FieldIndex(name string) int {
	for i, f := range s.Fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// EmptyValues returns a Values slice sized for this schema with every field unset.
func (s Schema) EmptyValues() Values {
	return make(Values, len(s.Fields))
}

// Title returns the display title from a set of values.
func (s Schema) Title(v Values) string {
	return v.Get(s.FieldIndex(s.TitleField))
}

// Completeness returns the share of filled fields as a percentage together
// with the names of the unfilled fields. The percentage is not rounded.
func (s Schema) Completeness(v Values) (float64, []string) {
	total := len(s.Fields)
	if total == 0 {
		return 100, []string{}
	}
	missing := []string{}
	filled := 0
	for i, f := range s.Fields {
		if v.Filled(i) {
			filled++
			continue
		}
		missing = append(missing, f.Name)
	}
	return float64(filled) / float64(total) * 100, missing
}

// IsComplete reports whether every translatable field is filled.
func (s Schema) IsComplete(v Values) bool {
	for i := range s.Fields {
		if !v.Filled(i) {
			return false
		}
	}
	return true
}

// Round2 rounds to two decimal places.
func Round2(x float64) float64 {
	return math.Round(x*100) / 100
}

// NullString is a helper for building Values from plain strings.
func NullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: true}
}
