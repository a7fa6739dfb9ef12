// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package session stores editing-session snapshots in Valkey. A snapshot
// is the full draft of one open editor, written as JSON after every change
// and expired automatically, so an editor can be picked up again after a
// restart or on another instance.
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"scapes/internal/scape"
)

const (
	// DefaultTTL is how long an untouched snapshot lives in Valkey.
	DefaultTTL = 24 * time.Hour

	keyPrefix = "editor:"

	// idLength is the byte length of the random session ID (16 bytes = 32 hex chars).
	idLength = 16
)

// Data is one editor snapshot.
type Data struct {
	ID        string       `json:"id"`
	CreatorID string       `json:"creator_id"`
	Draft     *scape.Draft `json:"draft"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// Store manages snapshot lifecycle in Valkey.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore creates a snapshot store backed by the given Valkey client.
// A zero ttl selects DefaultTTL.
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{client: client, ttl: ttl}
}

// Put writes the snapshot and resets its TTL.
func (s *Store) Put(ctx context.Context, data *Data) error {
	data.UpdatedAt = time.Now()

	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("snapshot marshal: %w", err)
	}

	if err := s.client.Set(ctx, keyPrefix+data.ID, payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("snapshot store: %w", err)
	}
	return nil
}

// Get returns the snapshot for id. Returns nil if it expired or never existed.
func (s *Store) Get(ctx context.Context, id string) (*Data, error) {
	payload, err := s.client.Get(ctx, keyPrefix+id).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("snapshot get: %w", err)
	}

	var data Data
	if err := json.Unmarshal(payload, &data); err != nil {
		return nil, fmt.Errorf("snapshot unmarshal: %w", err)
	}
	return &data, nil
}

// Delete removes the snapshot. Deleting a missing snapshot is not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, keyPrefix+id).Err(); err != nil {
		return fmt.Errorf("snapshot delete: %w", err)
	}
	return nil
}

// GenerateID creates a cryptographically random session identifier.
func GenerateID() (string, error) {
	b := make([]byte, idLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
