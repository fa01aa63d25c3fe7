// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/olegiv/travelcms/internal/model"
)

type demoItem struct {
	family model.Family
	id     string
	status string
	fields map[string]string
	attrs  string
}

// demoItems is one Indonesian item per family, untranslated.
var demoItems = []demoItem{
	{model.FamilySection, "demo-hero", model.StatusPublished, map[string]string{
		"title":       "Jelajahi Keindahan Bali",
		"subtitle":    "Tur privat bersama pemandu lokal",
		"description": "Dari sawah terasering hingga pantai tersembunyi, kami siapkan perjalanan yang tak terlupakan.",
		"ctaText":     "Lihat Paket",
	}, `{"key":"hero","image":"/images/hero.jpg"}`},
	{model.FamilyPackage, "demo-ubud", model.StatusPublished, map[string]string{
		"title":           "Tur Sehari Ubud",
		"description":     "Sawah Tegallalang, Monkey Forest dan Pura Tirta Empul dalam satu hari.",
		"longDescription": "Nikmati **Ubud** bersama pemandu berlisensi.\n\n- Penjemputan hotel\n- Makan siang lokal",
		"destinations":    `["Tegallalang","Monkey Forest","Tirta Empul"]`,
		"includes":        `["Transportasi ber-AC","Tiket masuk","Makan siang"]`,
		"excludes":        `["Tips pemandu"]`,
		"highlights":      `["Sawah terasering","Ritual penyucian"]`,
		"itinerary":       `[{"day":1,"title":"Ubud","activities":["Tegallalang","Monkey Forest","Tirta Empul"]}]`,
		"faqs":            `[{"question":"Apakah cocok untuk anak?","answer":"Ya, cocok untuk semua umur."}]`,
		"groupSize":       "2-8 orang",
		"difficulty":      "Mudah",
		"bestFor":         "Keluarga",
		"departure":       "08.00 dari hotel",
		"return":          "17.00 ke hotel",
		"location":        "Ubud, Bali",
	}, `{"price":750000,"currency":"IDR","durationDays":1}`},
	{model.FamilyBlog, "demo-kuliner", model.StatusPublished, map[string]string{
		"title":    "5 Kuliner Wajib di Bali",
		"excerpt":  "Babi guling, sate lilit dan lainnya.",
		"content":  "## Babi Guling\n\nHidangan khas yang wajib dicoba.",
		"category": "Kuliner",
		"tags":     `["kuliner","bali"]`,
	}, `{"author":"Tim Redaksi"}`},
	{model.FamilyTestimonial, "demo-ayu", model.StatusApproved, map[string]string{
		"name":        "Ayu",
		"role":        "Wisatawan",
		"content":     "Pemandunya ramah dan perjalanannya sangat rapi.",
		"packageName": "Tur Sehari Ubud",
		"location":    "Jakarta",
	}, `{"rating":5}`},
	{model.FamilyGallery, "demo-uluwatu", model.StatusPublished, map[string]string{
		"title":       "Senja di Uluwatu",
		"description": "Tari kecak dengan latar matahari terbenam.",
		"tags":        `["uluwatu","senja"]`,
	}, `{"image":"/images/uluwatu.jpg"}`},
}

// SeedDemo inserts demo content when the database holds no items at all.
// It reports whether anything was inserted.
func SeedDemo(ctx context.Context, db *sql.DB) (bool, error) {
	queries := New(db)
	for _, f := range model.Families() {
		n, err := queries.CountItems(ctx, model.MustSchema(f), "")
		if err != nil {
			return false, fmt.Errorf("counting %s: %w", f, err)
		}
		if n > 0 {
			slog.Info("content already present, skipping demo seed")
			return false, nil
		}
	}

	now := time.Now().UTC()
	err := RunInTx(ctx, db, func(q *Queries) error {
		for _, d := range demoItems {
			s := model.MustSchema(d.family)
			v := s.EmptyValues()
			for name, value := range d.fields {
				idx := s.FieldIndex(name)
				if idx < 0 {
					return fmt.Errorf("demo %s has unknown field %q", d.family, name)
				}
				v[idx] = model.NullString(value)
			}
			item := model.Item{
				ID:         d.id,
				Family:     d.family,
				Slug:       d.id,
				Status:     d.status,
				Values:     v,
				Attributes: d.attrs,
				CreatedAt:  now,
				UpdatedAt:  now,
			}
			if err := q.CreateItem(ctx, s, item); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("seeding demo content: %w", err)
	}

	slog.Info("seeded demo content", "items", len(demoItems))
	return true, nil
}
