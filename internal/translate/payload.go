// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package translate

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"slices"
	"strconv"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/olegiv/travelcms/internal/model"
)

// Payload is the translatable content of one item flattened into a list of
// strings. JSON list fields are parsed and only their string leaves are sent;
// the structure is rebuilt from the translated leaves by Apply.
type Payload struct {
	schema model.Schema
	fields []payloadField
	texts  []string
}

type payloadField struct {
	index int
	kind  model.FieldKind
	tree  any // decoded JSON of a list field, nil for plain values
	raw   string
	start int // first leaf in texts
	count int
}

// NewPayload flattens the filled fields of v.
func NewPayload(schema model.Schema, v model.Values) *Payload {
	p := &Payload{schema: schema}
	for i, f := range schema.Fields {
		if !v.Filled(i) {
			continue
		}
		pf := payloadField{index: i, kind: f.Kind, raw: v.Get(i), start: len(p.texts)}

		if f.Kind == model.FieldList {
			if tree, err := decodeJSON(pf.raw); err == nil {
				pf.tree = tree
				collectLeaves(tree, &p.texts)
			} else if translatable(pf.raw) {
				p.texts = append(p.texts, pf.raw)
			}
		} else if translatable(pf.raw) {
			p.texts = append(p.texts, pf.raw)
		}

		pf.count = len(p.texts) - pf.start
		p.fields = append(p.fields, pf)
	}
	return p
}

// Texts returns the strings to send to the provider.
func (p *Payload) Texts() []string {
	return p.texts
}

// Fields returns the number of filled fields in the payload.
func (p *Payload) Fields() int {
	return len(p.fields)
}

// Apply rebuilds field values from translated leaves and writes them into
// dst. Fields absent from the payload are left untouched.
func (p *Payload) Apply(dst model.Values, translated []string) error {
	if len(translated) != len(p.texts) {
		return fmt.Errorf("%w: got %d translations for %d texts", ErrProviderFailure, len(translated), len(p.texts))
	}
	if len(dst) != len(p.schema.Fields) {
		return fmt.Errorf("values have %d fields, want %d", len(dst), len(p.schema.Fields))
	}

	for _, pf := range p.fields {
		leaves := slices.Clone(translated[pf.start : pf.start+pf.count])
		for i := range leaves {
			leaves[i] = sanitize(pf.kind, leaves[i])
		}

		switch {
		case pf.count == 0:
			dst[pf.index] = model.NullString(pf.raw)
		case pf.tree != nil:
			next := 0
			rebuilt := replaceLeaves(pf.tree, func() string {
				s := leaves[next]
				next++
				return s
			})
			encoded, err := encodeJSON(rebuilt)
			if err != nil {
				return fmt.Errorf("encoding %s: %w", p.schema.Fields[pf.index].Name, err)
			}
			dst[pf.index] = model.NullString(encoded)
		default:
			dst[pf.index] = model.NullString(leaves[0])
		}
	}
	return nil
}

// translatable reports whether a string should be sent for translation.
// Blank strings, URLs and numbers are kept verbatim.
func translatable(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	for _, prefix := range []string{"http://", "https://", "mailto:", "/"} {
		if strings.HasPrefix(s, prefix) && !strings.ContainsAny(s, " \n") {
			return false
		}
	}
	if _, err := strconv.ParseFloat(s, 64); err == nil {
		return false
	}
	return true
}

// collectLeaves appends the translatable strings of a decoded JSON value in
// walk order. Object keys are visited sorted.
func collectLeaves(v any, out *[]string) {
	switch t := v.(type) {
	case string:
		if translatable(t) {
			*out = append(*out, t)
		}
	case []any:
		for _, e := range t {
			collectLeaves(e, out)
		}
	case map[string]any:
		for _, k := range sortedKeys(t) {
			collectLeaves(t[k], out)
		}
	}
}

// replaceLeaves returns v with every translatable string replaced by next(),
// walking in the same order as collectLeaves.
func replaceLeaves(v any, next func() string) any {
	switch t := v.(type) {
	case string:
		if translatable(t) {
			return next()
		}
		return t
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = replaceLeaves(e, next)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for _, k := range sortedKeys(t) {
			out[k] = replaceLeaves(t[k], next)
		}
		return out
	default:
		return v
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// decodeJSON decodes a JSON document keeping numbers as json.Number so they
// are written back unchanged.
func decodeJSON(s string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, errors.New("trailing data after JSON value")
	}
	return v, nil
}

func encodeJSON(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

var (
	strictPolicy = bluemonday.StrictPolicy()
	ugcPolicy    = bluemonday.UGCPolicy()
)

// sanitize strips unsafe markup from provider output. Rich fields keep user
// generated content tags; other fields lose all tags. Text without tags is
// returned unchanged.
func sanitize(kind model.FieldKind, s string) string {
	if !strings.Contains(s, "<") {
		return s
	}
	if kind == model.FieldRich {
		return ugcPolicy.Sanitize(s)
	}
	return html.UnescapeString(strictPolicy.Sanitize(s))
}
