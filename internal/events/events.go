// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package events announces scape changes on a Valkey pub/sub channel so
// other services (feeds, notifications) can react to them.
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"scapes/internal/publisher"
)

// Channel is the pub/sub channel events are published on.
const Channel = "broadcast"

// Event is the wire form of a publisher.Change.
type Event struct {
	publisher.Change
	At time.Time `json:"at"`
}

// Publisher implements publisher.Notifier. A nil client turns it into a
// no-op so development setups without Valkey keep working.
type Publisher struct {
	client  *redis.Client
	channel string
}

// NewPublisher creates an event publisher on the default channel.
func NewPublisher(client *redis.Client) *Publisher {
	return &Publisher{client: client, channel: Channel}
}

// ScapeChanged publishes c. Failures are logged and never reach the caller.
func (p *Publisher) ScapeChanged(ctx context.Context, c publisher.Change) {
	if p == nil || p.client == nil {
		return
	}
	data, err := json.Marshal(Event{Change: c, At: time.Now().UTC()})
	if err != nil {
		slog.Error("marshal scape event", "scape_id", c.ScapeID, "error", err)
		return
	}
	if err := p.client.Publish(context.WithoutCancel(ctx), p.channel, data).Err(); err != nil {
		slog.Warn("publish scape event", "scape_id", c.ScapeID, "type", c.Kind, "error", err)
		return
	}
	slog.Debug("scape event published", "scape_id", c.ScapeID, "type", c.Kind)
}
