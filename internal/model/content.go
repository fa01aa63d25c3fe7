// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "time"

// Item is a content row of any family in the source language.
type Item struct {
	ID         string
	Family     Family
	Slug       string
	Status     string
	Values     Values // aligned with the family Schema
	Attributes string // JSON object with untranslatable fields
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Translation is the per-language copy of an item's translatable fields.
// There is at most one row per (ContentID, Language).
type Translation struct {
	ContentID        string
	Language         string
	Values           Values // aligned with the family Schema
	IsAutoTranslated bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
