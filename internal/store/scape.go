// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"scapes/internal/models"
)

// ScapeStore handles scape and widget persistence.
type ScapeStore struct {
	db *sql.DB
}

// NewScapeStore creates a new ScapeStore with the given database connection.
func NewScapeStore(db *sql.DB) *ScapeStore {
	return &ScapeStore{db: db}
}

const scapeColumns = `
	id, creator_id, title, slug, description, tagline, banner_ref,
	feature_widget_id, is_published, visibility, comments_enabled,
	published_at, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanScape(row rowScanner) (*models.Scape, error) {
	s := &models.Scape{}
	err := row.Scan(
		&s.ID, &s.CreatorID, &s.Title, &s.Slug, &s.Description, &s.Tagline,
		&s.BannerRef, &s.FeatureWidgetID, &s.IsPublished, &s.Visibility,
		&s.CommentsEnabled, &s.PublishedAt, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Find retrieves a scape and its widgets by id. Returns nil if not found
// or if id is not a valid UUID.
func (s *ScapeStore) Find(ctx context.Context, id string) (*models.Scape, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, nil
	}
	return s.find(ctx, `SELECT `+scapeColumns+` FROM scapes WHERE id = $1`, uid)
}

// FindPublished retrieves a published, non-private scape for public
// display. Returns nil if there is none.
func (s *ScapeStore) FindPublished(ctx context.Context, id string) (*models.Scape, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, nil
	}
	return s.find(ctx, `
		SELECT `+scapeColumns+` FROM scapes
		WHERE id = $1 AND is_published AND visibility <> 'private'
	`, uid)
}

func (s *ScapeStore) find(ctx context.Context, query string, id uuid.UUID) (*models.Scape, error) {
	sc, err := scanScape(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find scape: %w", err)
	}

	widgets, err := s.widgets(ctx, sc.ID)
	if err != nil {
		return nil, err
	}
	sc.Widgets = widgets
	return sc, nil
}

func (s *ScapeStore) widgets(ctx context.Context, scapeID uuid.UUID) ([]models.Widget, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, scape_id, type, variant, channel, position,
		       is_feature, featured_caption, data
		FROM scape_widgets
		WHERE scape_id = $1
		ORDER BY position ASC
	`, scapeID)
	if err != nil {
		return nil, fmt.Errorf("list widgets: %w", err)
	}
	defer rows.Close()

	var items []models.Widget
	for rows.Next() {
		var w models.Widget
		var data []byte
		if err := rows.Scan(
			&w.ID, &w.ScapeID, &w.Type, &w.Variant, &w.Channel, &w.Position,
			&w.IsFeature, &w.FeaturedCaption, &data,
		); err != nil {
			return nil, fmt.Errorf("scan widget: %w", err)
		}
		w.Data = data
		items = append(items, w)
	}
	return items, rows.Err()
}

// ListByCreator returns summaries of every scape owned by creatorID,
// most recently updated first.
func (s *ScapeStore) ListByCreator(ctx context.Context, creatorID string) ([]models.ScapeSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.id, s.title, s.slug, s.is_published, s.published_at, s.updated_at,
		       (SELECT COUNT(*) FROM scape_widgets w WHERE w.scape_id = s.id)
		FROM scapes s
		WHERE s.creator_id = $1
		ORDER BY s.updated_at DESC
	`, creatorID)
	if err != nil {
		return nil, fmt.Errorf("list scapes by creator: %w", err)
	}
	defer rows.Close()

	var items []models.ScapeSummary
	for rows.Next() {
		var sum models.ScapeSummary
		if err := rows.Scan(
			&sum.ID, &sum.Title, &sum.Slug, &sum.IsPublished,
			&sum.PublishedAt, &sum.UpdatedAt, &sum.WidgetCount,
		); err != nil {
			return nil, fmt.Errorf("scan scape summary: %w", err)
		}
		items = append(items, sum)
	}
	return items, rows.Err()
}

// TitleTaken reports whether creatorID owns another scape with the same
// title, compared case-insensitively after trimming. excludeID is ignored
// unless it is a persisted id.
func (s *ScapeStore) TitleTaken(ctx context.Context, title, creatorID, excludeID string) (bool, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return false, nil
	}

	var exclude *uuid.UUID
	if uid, err := uuid.Parse(excludeID); err == nil {
		exclude = &uid
	}

	var taken bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM scapes
			WHERE creator_id = $1
			  AND lower(btrim(title)) = lower($2)
			  AND ($3::uuid IS NULL OR id <> $3::uuid)
		)
	`, creatorID, title, exclude).Scan(&taken)
	if err != nil {
		return false, fmt.Errorf("check scape title: %w", err)
	}
	return taken, nil
}

// Upsert inserts sc when its ID is zero and updates the existing row
// otherwise. It writes scape-level fields only and returns the row id.
func (s *ScapeStore) Upsert(ctx context.Context, sc *models.Scape) (uuid.UUID, error) {
	if sc.ID == uuid.Nil {
		var id uuid.UUID
		err := s.db.QueryRowContext(ctx, `
			INSERT INTO scapes (creator_id, title, slug, description, tagline,
			                    banner_ref, feature_widget_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id
		`, sc.CreatorID, sc.Title, sc.Slug, sc.Description, sc.Tagline,
			sc.BannerRef, sc.FeatureWidgetID,
		).Scan(&id)
		if err != nil {
			return uuid.Nil, fmt.Errorf("insert scape: %w", err)
		}
		return id, nil
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE scapes SET
			title = $1, slug = $2, description = $3, tagline = $4,
			banner_ref = $5, feature_widget_id = $6, updated_at = NOW()
		WHERE id = $7
	`, sc.Title, sc.Slug, sc.Description, sc.Tagline,
		sc.BannerRef, sc.FeatureWidgetID, sc.ID,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("update scape: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return uuid.Nil, fmt.Errorf("update scape %s: %w", sc.ID, sql.ErrNoRows)
	}
	return sc.ID, nil
}

// ReplaceWidgets deletes every widget of the scape and inserts ws in their
// place inside one transaction. Position is written as the slice index.
func (s *ScapeStore) ReplaceWidgets(ctx context.Context, scapeID uuid.UUID, ws []models.Widget) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("replace widgets begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM scape_widgets WHERE scape_id = $1`, scapeID); err != nil {
		return fmt.Errorf("delete widgets: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO scape_widgets (scape_id, id, type, variant, channel,
		                           position, is_feature, featured_caption, data)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`)
	if err != nil {
		return fmt.Errorf("prepare widget insert: %w", err)
	}
	defer stmt.Close()

	for i, w := range ws {
		data := w.Data
		if len(data) == 0 {
			data = []byte("{}")
		}
		if _, err := stmt.ExecContext(ctx,
			scapeID, w.ID, w.Type, w.Variant, w.Channel,
			i, w.IsFeature, w.FeaturedCaption, string(data),
		); err != nil {
			return fmt.Errorf("insert widget %s: %w", w.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("replace widgets commit: %w", err)
	}
	return nil
}

// SetPublished sets the published flag. published_at is stamped on the
// first transition to published and kept afterwards. When fields is non-nil
// the visibility columns are written too.
func (s *ScapeStore) SetPublished(ctx context.Context, scapeID uuid.UUID, published bool, fields *models.PublishFields) error {
	var err error
	if fields != nil {
		vis := fields.Visibility
		if vis == "" {
			vis = models.VisibilityPublic
		}
		_, err = s.db.ExecContext(ctx, `
			UPDATE scapes SET
				is_published = $1,
				published_at = CASE WHEN $1 THEN COALESCE(published_at, NOW()) ELSE published_at END,
				visibility = $2, comments_enabled = $3, updated_at = NOW()
			WHERE id = $4
		`, published, vis, fields.CommentsEnabled, scapeID)
	} else {
		_, err = s.db.ExecContext(ctx, `
			UPDATE scapes SET
				is_published = $1,
				published_at = CASE WHEN $1 THEN COALESCE(published_at, NOW()) ELSE published_at END,
				updated_at = NOW()
			WHERE id = $2
		`, published, scapeID)
	}
	if err != nil {
		return fmt.Errorf("set scape published: %w", err)
	}
	return nil
}

// Delete removes a scape. Its widgets go with it via ON DELETE CASCADE.
func (s *ScapeStore) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM scapes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete scape: %w", err)
	}
	return nil
}
