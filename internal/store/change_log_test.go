// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"scapes/internal/publisher"
)

func TestChangeLogStoreHistory(t *testing.T) {
	db := testDB(t)
	s := NewChangeLogStore(db)
	ctx := context.Background()

	scapeID := uuid.New()
	t.Cleanup(func() {
		db.Exec("DELETE FROM scape_changes WHERE scape_id = $1", scapeID)
	})

	s.ScapeChanged(ctx, publisher.Change{Kind: publisher.ChangeSaved, ScapeID: scapeID.String(), CreatorID: "alice"})
	s.ScapeChanged(ctx, publisher.Change{Kind: publisher.ChangePublished, ScapeID: scapeID.String(), CreatorID: "alice", Published: true})

	entries, err := s.History(ctx, scapeID.String(), "alice", 10)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Kind != string(publisher.ChangePublished) || !entries[0].Published {
		t.Errorf("newest entry = %+v, want the publish", entries[0])
	}

	limited, err := s.History(ctx, scapeID.String(), "alice", 1)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("limit 1 returned %d entries", len(limited))
	}

	other, err := s.History(ctx, scapeID.String(), "bob", 10)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(other) != 0 {
		t.Errorf("another creator saw %d entries", len(other))
	}
}

func TestChangeLogStoreIgnoresBadInput(t *testing.T) {
	db := testDB(t)
	s := NewChangeLogStore(db)

	// Best-effort: a malformed id is dropped without panicking.
	s.ScapeChanged(context.Background(), publisher.Change{Kind: publisher.ChangeSaved, ScapeID: "nope"})

	entries, err := s.History(context.Background(), "nope", "alice", 10)
	if err != nil || entries != nil {
		t.Errorf("History(bad id) = %v, %v", entries, err)
	}
}
