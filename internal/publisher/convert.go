// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package publisher

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"scapes/internal/models"
	"scapes/internal/scape"
	"scapes/internal/slug"
)

// ToRecord converts a draft into the row shape written by the store.
// Widget positions are taken from slice order, not the Position field.
// A new draft yields a record with a zero ID.
func ToRecord(d *scape.Draft, creatorID string) (*models.Scape, error) {
	rec := &models.Scape{
		CreatorID:   creatorID,
		Title:       strings.TrimSpace(d.Title),
		Slug:        slug.Generate(d.Title),
		Description: d.Description,
		Tagline:     d.Tagline,
		IsPublished: !d.IsDraft,
		Widgets:     make([]models.Widget, 0, len(d.Widgets)),
	}
	if !d.IsNew() {
		id, err := uuid.Parse(d.ID)
		if err != nil {
			return nil, fmt.Errorf("scape id %q: %w", d.ID, err)
		}
		rec.ID = id
	}
	if d.Banner != "" {
		banner := string(d.Banner)
		rec.BannerRef = &banner
	}
	if fid := d.FeatureWidgetID(); fid != "" {
		rec.FeatureWidgetID = &fid
	}

	for i, w := range d.Widgets {
		data, err := json.Marshal(w.Data)
		if err != nil {
			return nil, fmt.Errorf("encode widget %s: %w", w.ID, err)
		}
		mw := models.Widget{
			ID:        w.ID,
			ScapeID:   rec.ID,
			Type:      string(w.Type),
			Variant:   string(w.Variant),
			Channel:   string(w.Channel),
			Position:  i,
			IsFeature: w.IsFeature,
			Data:      data,
		}
		if w.FeaturedCaption != nil {
			c := *w.FeaturedCaption
			mw.FeaturedCaption = &c
		}
		rec.Widgets = append(rec.Widgets, mw)
	}
	return rec, nil
}

// FromRecord builds an editable draft from a stored scape.
func FromRecord(rec *models.Scape) (*scape.Draft, error) {
	d := &scape.Draft{
		ID:          rec.ID.String(),
		Title:       rec.Title,
		Description: rec.Description,
		Tagline:     rec.Tagline,
		IsDraft:     !rec.IsPublished,
		Widgets:     make([]scape.Widget, 0, len(rec.Widgets)),
	}
	if rec.BannerRef != nil {
		d.Banner = scape.MediaRef(*rec.BannerRef)
	}

	for _, mw := range rec.Widgets {
		wt, err := scape.ParseWidgetType(mw.Type)
		if err != nil {
			return nil, fmt.Errorf("widget %s: %w", mw.ID, err)
		}
		ch, err := scape.ParseChannel(mw.Channel)
		if err != nil {
			return nil, fmt.Errorf("widget %s: %w", mw.ID, err)
		}
		payload, err := scape.DecodePayload(wt, mw.Data)
		if err != nil {
			return nil, fmt.Errorf("widget %s: %w", mw.ID, err)
		}
		variant := scape.Variant(mw.Variant)
		if variant == "" {
			variant = scape.DefaultVariant(wt)
		}
		w := scape.Widget{
			ID:        mw.ID,
			Type:      wt,
			Variant:   variant,
			Channel:   ch,
			Position:  mw.Position,
			IsFeature: mw.IsFeature,
			Data:      payload,
		}
		if mw.FeaturedCaption != nil {
			c := *mw.FeaturedCaption
			w.FeaturedCaption = &c
		}
		d.Widgets = append(d.Widgets, w)
	}

	d.Normalize()
	return d, nil
}
