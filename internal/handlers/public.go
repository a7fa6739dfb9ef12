// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"scapes/internal/models"
	"scapes/internal/publisher"
	"scapes/internal/scape"
)

// PublishedFinder loads a published, non-private scape. It returns nil
// when there is none.
type PublishedFinder interface {
	FindPublished(ctx context.Context, id string) (*models.Scape, error)
}

// MediaResolver turns a stored media reference into a URL a browser can
// load.
type MediaResolver interface {
	Resolve(ctx context.Context, ref scape.MediaRef) (string, error)
}

// ViewCache stores rendered public views by scape id.
type ViewCache interface {
	Get(ctx context.Context, id string) ([]byte, bool)
	Set(ctx context.Context, id string, data []byte)
}

// Public serves published scapes to anonymous readers. Rendered views
// are kept in the Valkey cache and dropped whenever the scape changes.
type Public struct {
	scapes PublishedFinder
	media  MediaResolver
	cache  ViewCache
}

// NewPublic creates the public handler group. media and cache may be nil.
func NewPublic(scapes PublishedFinder, media MediaResolver, cache ViewCache) *Public {
	return &Public{scapes: scapes, media: media, cache: cache}
}

// publicView is the reader-facing shape of a published scape.
type publicView struct {
	Scape           *scape.Draft      `json:"scape"`
	Visibility      models.Visibility `json:"visibility"`
	CommentsEnabled bool              `json:"commentsEnabled"`
	PublishedAt     string            `json:"publishedAt,omitempty"`
}

// View renders a published scape as JSON with media resolved to URLs.
func (p *Public) View(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	if p.cache != nil {
		if cached, ok := p.cache.Get(ctx, id); ok {
			writeCached(w, cached, "HIT")
			return
		}
	}

	rec, err := p.scapes.FindPublished(ctx, id)
	if err != nil {
		slog.Error("find published scape failed", "scape_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if rec == nil {
		writeError(w, http.StatusNotFound, "scape not found")
		return
	}

	body, err := p.render(ctx, rec)
	if err != nil {
		slog.Error("render published scape failed", "scape_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if p.cache != nil {
		p.cache.Set(ctx, id, body)
	}
	writeCached(w, body, "MISS")
}

func (p *Public) render(ctx context.Context, rec *models.Scape) ([]byte, error) {
	d, err := publisher.FromRecord(rec)
	if err != nil {
		return nil, err
	}
	if err := p.resolveMedia(ctx, d); err != nil {
		return nil, err
	}

	view := publicView{
		Scape:           d,
		Visibility:      rec.Visibility,
		CommentsEnabled: rec.CommentsEnabled,
	}
	if rec.PublishedAt != nil {
		view.PublishedAt = rec.PublishedAt.UTC().Format(time.RFC3339)
	}
	return json.Marshal(view)
}

// resolveMedia rewrites the banner and every widget's media references in
// place. d must not be shared.
func (p *Public) resolveMedia(ctx context.Context, d *scape.Draft) error {
	if p.media == nil {
		return nil
	}
	resolve := func(ref scape.MediaRef) (scape.MediaRef, error) {
		u, err := p.media.Resolve(ctx, ref)
		if err != nil {
			return ref, fmt.Errorf("resolve %q: %w", ref, err)
		}
		return scape.MediaRef(u), nil
	}

	banner, err := resolve(d.Banner)
	if err != nil {
		return err
	}
	d.SetBanner(banner)

	for _, w := range d.Widgets {
		data, err := mapMedia(w.Data, resolve)
		if err != nil {
			return err
		}
		if err := d.SetPayload(w.ID, data); err != nil {
			return err
		}
	}
	return nil
}

func writeCached(w http.ResponseWriter, body []byte, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "public, max-age=60")
	w.Header().Set("X-Cache", status)
	w.Write(body)
}
