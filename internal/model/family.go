// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"database/sql"
	"strings"
)

// Family identifies a content family managed by the CMS.
type Family string

// Content families
const (
	FamilySection     Family = "section"
	FamilyPackage     Family = "package"
	FamilyBlog        Family = "blog"
	FamilyTestimonial Family = "testimonial"
	FamilyGallery     Family = "gallery"
)

// Content statuses used by the family filters.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
	StatusArchived  = "archived"
	StatusPending   = "pending"
	StatusApproved  = "approved"
	StatusRejected  = "rejected"
)

// Families returns every content family in report order.
func Families() []Family {
	return []Family{FamilySection, FamilyPackage, FamilyBlog, FamilyTestimonial, FamilyGallery}
}

// ParseFamily resolves a family from its name. Plural forms are accepted
// ("packages", "blogs", "galleries").
func ParseFamily(s string) (Family, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "section", "sections":
		return FamilySection, true
	case "package", "packages":
		return FamilyPackage, true
	case "blog", "blogs", "post", "posts":
		return FamilyBlog, true
	case "testimonial", "testimonials":
		return FamilyTestimonial, true
	case "gallery", "galleries":
		return FamilyGallery, true
	}
	return "", false
}

// String implements fmt.Stringer.
func (f Family) String() string {
	return string(f)
}

// Plural returns the family name used as a coverage report key.
func (f Family) Plural() string {
	if f == FamilyGallery {
		return "galleries"
	}
	return string(f) + "s"
}

// Values holds field values positionally aligned with a Schema's Fields.
type Values []sql.NullString

// Filled reports whether the value at index i is present and not blank.
func (v Values) Filled(i int) bool {
	return i >= 0 && i < len(v) && v[i].Valid && strings.TrimSpace(v[i].String) != ""
}

// Get returns the value at index i, or "" when absent.
func (v Values) Get(i int) string {
	if i < 0 || i >= len(v) || !v[i].Valid {
		return ""
	}
	return v[i].String
}
