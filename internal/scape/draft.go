// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package scape

import (
	"encoding/json"
	"fmt"
)

// NewID is the id of a draft that has never been saved.
const NewID = "new"

// Draft is the document being edited: scape-level metadata plus the
// ordered widget collection. Widget positions always equal their index
// in Widgets once an operation returns.
//
// The feature pointer is not stored; FeatureWidgetID derives it from the
// widgets so the two can never disagree.
type Draft struct {
	ID          string
	Title       string
	Description string
	Tagline     string
	Banner      MediaRef
	Widgets     []Widget
	IsDraft     bool
}

// NewDraft returns an empty, unsaved draft.
func NewDraft() *Draft {
	return &Draft{ID: NewID, IsDraft: true, Widgets: []Widget{}}
}

// IsNew reports whether the draft has never been persisted.
func (d *Draft) IsNew() bool {
	return d.ID == "" || d.ID == NewID
}

// FeatureWidgetID returns the id of the feature widget, or "" if none.
func (d *Draft) FeatureWidgetID() string {
	for _, w := range d.Widgets {
		if w.IsFeature {
			return w.ID
		}
	}
	return ""
}

// FeatureWidget returns the feature widget, if one is designated.
func (d *Draft) FeatureWidget() (Widget, bool) {
	for _, w := range d.Widgets {
		if w.IsFeature {
			return w, true
		}
	}
	return Widget{}, false
}

// IndexOf returns the index of the widget with the given id, or -1.
func (d *Draft) IndexOf(id string) int {
	for i, w := range d.Widgets {
		if w.ID == id {
			return i
		}
	}
	return -1
}

// Widget returns a copy of the widget with the given id.
func (d *Draft) Widget(id string) (Widget, bool) {
	if i := d.IndexOf(id); i >= 0 {
		return d.Widgets[i].clone(), true
	}
	return Widget{}, false
}

// Clone returns a deep copy of the draft.
func (d *Draft) Clone() *Draft {
	out := *d
	out.Widgets = make([]Widget, len(d.Widgets))
	for i, w := range d.Widgets {
		out.Widgets[i] = w.clone()
	}
	return &out
}

// Append places w at the end of the collection. The widget arrives
// unfeatured; SetFeature is the only way to designate a feature widget.
func (d *Draft) Append(w Widget) error {
	if w.ID == "" {
		return fmt.Errorf("append: %w", ErrWidgetNotFound)
	}
	if d.IndexOf(w.ID) >= 0 {
		return fmt.Errorf("append %s: %w", w.ID, ErrDuplicateWidget)
	}
	w = w.clone()
	w.IsFeature = false
	w.FeaturedCaption = nil
	w.Position = len(d.Widgets)
	d.Widgets = append(d.Widgets, w)
	return nil
}

// Remove deletes a widget and closes the gap it leaves. Removing the
// feature widget leaves the document with no feature.
func (d *Draft) Remove(id string) error {
	i := d.IndexOf(id)
	if i < 0 {
		return fmt.Errorf("remove %s: %w", id, ErrWidgetNotFound)
	}
	removed := d.Widgets[i].Position
	d.Widgets = append(d.Widgets[:i], d.Widgets[i+1:]...)
	for j := range d.Widgets {
		if d.Widgets[j].Position > removed {
			d.Widgets[j].Position--
		}
	}
	return nil
}

// MoveTo moves the widget at index from to index to. See MoveWidgets.
func (d *Draft) MoveTo(from, to int) {
	d.Widgets = MoveWidgets(d.Widgets, from, to)
}

// MoveStep moves a widget delta places (negative is up). It is the
// up/down button entry point and reduces to MoveTo.
func (d *Draft) MoveStep(id string, delta int) error {
	i := d.IndexOf(id)
	if i < 0 {
		return fmt.Errorf("move %s: %w", id, ErrWidgetNotFound)
	}
	d.MoveTo(i, i+delta)
	return nil
}

// SetFeature makes id the feature widget and unfeatures every other one.
// Calling it on the current feature widget turns the feature off.
func (d *Draft) SetFeature(id string) error {
	i := d.IndexOf(id)
	if i < 0 {
		return fmt.Errorf("set feature %s: %w", id, ErrWidgetNotFound)
	}

	if d.Widgets[i].IsFeature {
		d.Widgets[i].IsFeature = false
		d.Widgets[i].FeaturedCaption = nil
		return nil
	}

	for j := range d.Widgets {
		if j == i {
			continue
		}
		d.Widgets[j].IsFeature = false
		d.Widgets[j].FeaturedCaption = nil
	}
	d.Widgets[i].IsFeature = true
	if d.Widgets[i].FeaturedCaption == nil {
		empty := ""
		d.Widgets[i].FeaturedCaption = &empty
	}
	return nil
}

// SetCaption sets the caption of the feature widget.
func (d *Draft) SetCaption(id, caption string) error {
	i := d.IndexOf(id)
	if i < 0 {
		return fmt.Errorf("set caption %s: %w", id, ErrWidgetNotFound)
	}
	if !d.Widgets[i].IsFeature {
		return fmt.Errorf("set caption %s: %w", id, ErrNotFeatured)
	}
	d.Widgets[i].FeaturedCaption = &caption
	return nil
}

// SetChannel retags a widget.
func (d *Draft) SetChannel(id string, ch Channel) error {
	if _, err := ParseChannel(string(ch)); err != nil {
		return err
	}
	i := d.IndexOf(id)
	if i < 0 {
		return fmt.Errorf("set channel %s: %w", id, ErrWidgetNotFound)
	}
	if ch == "" {
		ch = ChannelNeutral
	}
	d.Widgets[i].Channel = ch
	return nil
}

// SetPayload replaces a widget's content. The payload type must match.
func (d *Draft) SetPayload(id string, p Payload) error {
	i := d.IndexOf(id)
	if i < 0 {
		return fmt.Errorf("set payload %s: %w", id, ErrWidgetNotFound)
	}
	if p == nil || p.WidgetType() != d.Widgets[i].Type {
		return fmt.Errorf("set payload %s: %w", id, ErrPayloadMismatch)
	}
	d.Widgets[i].Data = p.clonePayload()
	return nil
}

func (d *Draft) SetTitle(title string)      { d.Title = title }
func (d *Draft) SetDescription(desc string) { d.Description = desc }
func (d *Draft) SetTagline(tagline string)  { d.Tagline = tagline }
func (d *Draft) SetBanner(banner MediaRef)  { d.Banner = banner }

// draftJSON is the wire shape of a Draft.
type draftJSON struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	Tagline         string   `json:"tagline"`
	Banner          MediaRef `json:"banner,omitempty"`
	Widgets         []Widget `json:"widgets"`
	FeatureWidgetID string   `json:"featureWidgetId,omitempty"`
	IsDraft         bool     `json:"isDraft"`
}

// MarshalJSON includes the derived featureWidgetId for clients.
func (d *Draft) MarshalJSON() ([]byte, error) {
	ws := d.Widgets
	if ws == nil {
		ws = []Widget{}
	}
	return json.Marshal(draftJSON{
		ID:              d.ID,
		Title:           d.Title,
		Description:     d.Description,
		Tagline:         d.Tagline,
		Banner:          d.Banner,
		Widgets:         ws,
		FeatureWidgetID: d.FeatureWidgetID(),
		IsDraft:         d.IsDraft,
	})
}

// UnmarshalJSON restores a draft. Widgets are kept in the order given and
// positions are recomputed from that order; featureWidgetId is ignored in
// favour of the widgets' own flags.
func (d *Draft) UnmarshalJSON(b []byte) error {
	var raw draftJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if raw.ID == "" {
		raw.ID = NewID
	}

	*d = Draft{
		ID:          raw.ID,
		Title:       raw.Title,
		Description: raw.Description,
		Tagline:     raw.Tagline,
		Banner:      raw.Banner,
		Widgets:     raw.Widgets,
		IsDraft:     raw.IsDraft,
	}
	d.Normalize()
	return nil
}

// Normalize restores the document invariants on data that did not come
// through the draft operations: positions are recomputed from slice order,
// only the first flagged widget stays featured and it always has a
// caption value.
func (d *Draft) Normalize() {
	if d.Widgets == nil {
		d.Widgets = []Widget{}
	}
	Renumber(d.Widgets)

	featured := false
	for i := range d.Widgets {
		w := &d.Widgets[i]
		if !w.IsFeature || featured {
			w.IsFeature = false
			w.FeaturedCaption = nil
			continue
		}
		featured = true
		if w.FeaturedCaption == nil {
			empty := ""
			w.FeaturedCaption = &empty
		}
	}
}
