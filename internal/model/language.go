// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/language"
)

// SourceLanguage is the language content is authored in.
const SourceLanguage = "id"

// Language represents a content language of the site.
type Language struct {
	Code       string       `json:"code"`        // ISO 639-1: id, en, de, nl, zh
	Name       string       `json:"name"`        // Indonesian, English, ...
	NativeName string       `json:"native_name"` // Bahasa Indonesia, English, ...
	Tag        language.Tag `json:"-"`
}

// Languages lists the source language followed by the translation targets.
var Languages = []Language{
	{"id", "Indonesian", "Bahasa Indonesia", language.Indonesian},
	{"en", "English", "English", language.English},
	{"de", "German", "Deutsch", language.German},
	{"nl", "Dutch", "Nederlands", language.Dutch},
	{"zh", "Chinese", "中文", language.Chinese},
}

// TargetLanguages returns the codes of the languages content is translated into.
func TargetLanguages() []string {
	return []string{"en", "de", "nl", "zh"}
}

// IsTargetLanguage reports whether code is one of the translation targets.
func IsTargetLanguage(code string) bool {
	return slices.Contains(TargetLanguages(), code)
}

// ParseLanguage normalizes a BCP 47 tag ("EN", "zh-Hans", "de_DE") to its base
// language and returns the matching site language.
func ParseLanguage(code string) (Language, error) {
	tag, err := language.Parse(strings.ReplaceAll(strings.TrimSpace(code), "_", "-"))
	if err != nil {
		return Language{}, fmt.Errorf("invalid language %q: %w", code, err)
	}
	base, _ := tag.Base()
	for _, l := range Languages {
		if l.Code == base.String() {
			return l, nil
		}
	}
	return Language{}, fmt.Errorf("unsupported language %q", code)
}
