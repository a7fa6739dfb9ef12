// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// DemoCreatorID owns the scape created by Seed. Sign a development token
// with this uid to open it in the editor.
const DemoCreatorID = "demo-creator"

// demoWidgets are inserted in order; position is the slice index.
var demoWidgets = []struct {
	id, typ, variant, channel string
	feature                   bool
	caption                   string
	data                      string
}{
	{"0190a000-0000-7000-8000-000000000001", "header", "wide", "neutral", false, "", `{"text":"Welcome"}`},
	{"0190a000-0000-7000-8000-000000000002", "audio", "medium", "red", true, "Start with this track", `{"media":"demo/track.mp3","title":"Opening"}`},
	{"0190a000-0000-7000-8000-000000000003", "text", "medium", "blue", false, "", `{"body":"A short note about this scape."}`},
	{"0190a000-0000-7000-8000-000000000004", "button", "small", "green", false, "", `{"label":"Shop","url":"https://example.com"}`},
}

// Seed populates the database with one published demo scape for local
// development. It does nothing if the demo creator already has scapes.
func Seed(db *sql.DB) error {
	ctx := context.Background()

	var count int
	if err := db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM scapes WHERE creator_id = $1", DemoCreatorID,
	).Scan(&count); err != nil {
		return fmt.Errorf("seed check scapes: %w", err)
	}
	if count > 0 {
		slog.Info("database already seeded, skipping")
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("seed begin: %w", err)
	}
	defer tx.Rollback()

	var scapeID string
	err = tx.QueryRowContext(ctx, `
		INSERT INTO scapes (creator_id, title, slug, description, tagline,
		                    feature_widget_id, is_published, published_at)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE, NOW())
		RETURNING id
	`, DemoCreatorID, "Demo Scape", "demo-scape",
		"A scape created by the development seed.", "Everything in one place",
		demoWidgets[1].id,
	).Scan(&scapeID)
	if err != nil {
		return fmt.Errorf("seed insert scape: %w", err)
	}

	for i, w := range demoWidgets {
		var caption *string
		if w.feature {
			c := w.caption
			caption = &c
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO scape_widgets (scape_id, id, type, variant, channel,
			                           position, is_feature, featured_caption, data)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`, scapeID, w.id, w.typ, w.variant, w.channel, i, w.feature, caption, w.data); err != nil {
			return fmt.Errorf("seed insert widget %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed commit: %w", err)
	}

	slog.Info("database seeded with demo scape",
		"scape_id", scapeID,
		"creator_id", DemoCreatorID,
	)
	return nil
}
