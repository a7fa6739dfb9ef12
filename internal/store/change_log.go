// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// change_log.go records completed scape writes in the database so a
// creator can see when a scape was saved, published or deleted.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"scapes/internal/publisher"
)

// ChangeLogStore handles the scape change log.
type ChangeLogStore struct {
	db *sql.DB
}

// NewChangeLogStore creates a new ChangeLogStore.
func NewChangeLogStore(db *sql.DB) *ChangeLogStore {
	return &ChangeLogStore{db: db}
}

// ScapeChanged records c. It is best-effort: failures are logged.
func (s *ChangeLogStore) ScapeChanged(ctx context.Context, c publisher.Change) {
	id, err := uuid.Parse(c.ScapeID)
	if err != nil {
		slog.Warn("change log: bad scape id", "scape_id", c.ScapeID)
		return
	}
	_, err = s.db.ExecContext(context.WithoutCancel(ctx), `
		INSERT INTO scape_changes (scape_id, creator_id, kind, published)
		VALUES ($1, $2, $3, $4)
	`, id, c.CreatorID, string(c.Kind), c.Published)
	if err != nil {
		slog.Warn("failed to log scape change",
			"scape_id", c.ScapeID,
			"kind", c.Kind,
			"error", err,
		)
		return
	}
	slog.Debug("scape change logged", "scape_id", c.ScapeID, "kind", c.Kind)
}

// History returns the most recent changes to one of creatorID's scapes,
// newest first. Another creator's scape yields an empty list.
func (s *ChangeLogStore) History(ctx context.Context, scapeID, creatorID string, limit int) ([]ChangeEntry, error) {
	id, err := uuid.Parse(scapeID)
	if err != nil {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, scape_id, kind, published, changed_at
		FROM scape_changes
		WHERE scape_id = $1 AND creator_id = $2
		ORDER BY changed_at DESC, id DESC
		LIMIT $3
	`, id, creatorID, limit)
	if err != nil {
		return nil, fmt.Errorf("query change log: %w", err)
	}
	defer rows.Close()

	var entries []ChangeEntry
	for rows.Next() {
		var e ChangeEntry
		if err := rows.Scan(&e.ID, &e.ScapeID, &e.Kind, &e.Published, &e.ChangedAt); err != nil {
			return nil, fmt.Errorf("scan change log: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ChangeEntry is a single logged write.
type ChangeEntry struct {
	ID        int64     `json:"id"`
	ScapeID   uuid.UUID `json:"scapeId"`
	Kind      string    `json:"type"`
	Published bool      `json:"published"`
	ChangedAt time.Time `json:"changedAt"`
}
