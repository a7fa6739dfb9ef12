// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Visibility controls who can see a published scape.
type Visibility string

const (
	VisibilityPublic   Visibility = "public"
	VisibilityUnlisted Visibility = "unlisted"
	VisibilityPrivate  Visibility = "private"
)

// ParseVisibility validates a visibility value. Empty means public.
func ParseVisibility(s string) (Visibility, error) {
	switch v := Visibility(s); v {
	case "":
		return VisibilityPublic, nil
	case VisibilityPublic, VisibilityUnlisted, VisibilityPrivate:
		return v, nil
	}
	return "", fmt.Errorf("unknown visibility %q", s)
}

// Scape is one row of the scapes table plus, when loaded, its widgets.
type Scape struct {
	ID              uuid.UUID  `json:"id"`
	CreatorID       string     `json:"creator_id"`
	Title           string     `json:"title"`
	Slug            string     `json:"slug"`
	Description     string     `json:"description"`
	Tagline         string     `json:"tagline"`
	BannerRef       *string    `json:"banner_ref,omitempty"`
	FeatureWidgetID *string    `json:"feature_widget_id,omitempty"`
	IsPublished     bool       `json:"is_published"`
	Visibility      Visibility `json:"visibility"`
	CommentsEnabled bool       `json:"comments_enabled"`
	PublishedAt     *time.Time `json:"published_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`

	Widgets []Widget `json:"widgets,omitempty"`
}

// IsOwnedBy reports whether creatorID owns the scape.
func (s *Scape) IsOwnedBy(creatorID string) bool {
	return creatorID != "" && s.CreatorID == creatorID
}

// VisibleTo reports whether viewerID may read the scape. Owners always can;
// everyone else only once it is published.
func (s *Scape) VisibleTo(viewerID string) bool {
	return s.IsPublished || s.IsOwnedBy(viewerID)
}

// Widget is one row of the scape_widgets table. Data holds the type-specific
// payload exactly as the editor encoded it.
type Widget struct {
	ID              string          `json:"id"`
	ScapeID         uuid.UUID       `json:"scape_id"`
	Type            string          `json:"type"`
	Variant         string          `json:"variant"`
	Channel         string          `json:"channel"`
	Position        int             `json:"position"`
	IsFeature       bool            `json:"is_feature"`
	FeaturedCaption *string         `json:"featured_caption,omitempty"`
	Data            json.RawMessage `json:"data"`
}

// PublishFields are the extra columns written when a scape is published.
type PublishFields struct {
	Visibility      Visibility
	CommentsEnabled bool
}

// ScapeSummary is the list-view projection used by the dashboard.
type ScapeSummary struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	IsPublished bool       `json:"is_published"`
	WidgetCount int        `json:"widget_count"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
