// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package scape holds the in-memory document model for a Scape: the typed
// widgets it is composed of, the ordered collection that owns them, the
// reorder primitive, and the synchronous validation pass that gates the
// Save Draft and Publish actions.
package scape

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// WidgetType selects the shape of a widget's payload.
type WidgetType string

const (
	WidgetText    WidgetType = "text"
	WidgetImage   WidgetType = "image"
	WidgetAudio   WidgetType = "audio"
	WidgetGallery WidgetType = "gallery"
	WidgetShop    WidgetType = "shop"
	WidgetLive    WidgetType = "live"
	WidgetButton  WidgetType = "button"
	WidgetLLM     WidgetType = "llm"
	WidgetHeader  WidgetType = "header"
)

// AllWidgetTypes returns every widget type in a stable order.
func AllWidgetTypes() []WidgetType {
	return []WidgetType{
		WidgetText, WidgetImage, WidgetAudio, WidgetGallery, WidgetShop,
		WidgetLive, WidgetButton, WidgetLLM, WidgetHeader,
	}
}

// ParseWidgetType validates a raw type name.
func ParseWidgetType(s string) (WidgetType, error) {
	for _, t := range AllWidgetTypes() {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownType, s)
}

// Variant is the size class picked when a widget is created.
type Variant string

const (
	VariantSmall  Variant = "small"
	VariantMedium Variant = "medium"
	VariantLarge  Variant = "large"
	VariantWide   Variant = "wide"
	VariantTall   Variant = "tall"
)

// variantsByType lists the allowed variants per type. The first entry is
// the default.
var variantsByType = map[WidgetType][]Variant{
	WidgetText:    {VariantMedium, VariantSmall, VariantLarge, VariantWide},
	WidgetImage:   {VariantMedium, VariantSmall, VariantLarge, VariantWide, VariantTall},
	WidgetAudio:   {VariantWide, VariantSmall, VariantMedium},
	WidgetGallery: {VariantLarge, VariantWide, VariantTall},
	WidgetShop:    {VariantMedium, VariantLarge, VariantWide},
	WidgetLive:    {VariantLarge, VariantWide},
	WidgetButton:  {VariantSmall, VariantWide},
	WidgetLLM:     {VariantLarge, VariantMedium, VariantTall},
	WidgetHeader:  {VariantWide},
}

// VariantsFor returns the variants a widget of type t may be created with.
func VariantsFor(t WidgetType) []Variant {
	vs := variantsByType[t]
	out := make([]Variant, len(vs))
	copy(out, vs)
	return out
}

// DefaultVariant returns the variant used when the caller does not pick one.
func DefaultVariant(t WidgetType) Variant {
	if vs := variantsByType[t]; len(vs) > 0 {
		return vs[0]
	}
	return ""
}

func variantAllowed(t WidgetType, v Variant) bool {
	for _, allowed := range variantsByType[t] {
		if allowed == v {
			return true
		}
	}
	return false
}

// Channel is a colour tag used for cross-widget signalling. It has no
// effect on layout.
type Channel string

const (
	ChannelRed     Channel = "red"
	ChannelGreen   Channel = "green"
	ChannelBlue    Channel = "blue"
	ChannelNeutral Channel = "neutral"
)

// ParseChannel validates a raw channel name. An empty string maps to neutral.
func ParseChannel(s string) (Channel, error) {
	switch Channel(s) {
	case ChannelRed, ChannelGreen, ChannelBlue, ChannelNeutral:
		return Channel(s), nil
	case "":
		return ChannelNeutral, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownChannel, s)
}

// EndPosition marks a widget that has not been placed in a document yet.
const EndPosition = -1

// Widget is one content block of a Scape.
type Widget struct {
	ID              string
	Type            WidgetType
	Variant         Variant
	Channel         Channel
	Position        int
	IsFeature       bool
	FeaturedCaption *string
	Data            Payload
}

// NewWidget creates a widget with a fresh id, the neutral channel and an
// unplaced position. An empty variant selects the type's default.
func NewWidget(t WidgetType, v Variant, p Payload) (Widget, error) {
	if _, err := ParseWidgetType(string(t)); err != nil {
		return Widget{}, err
	}
	if v == "" {
		v = DefaultVariant(t)
	}
	if !variantAllowed(t, v) {
		return Widget{}, fmt.Errorf("%w: %q for %s", ErrUnknownVariant, v, t)
	}
	if p == nil {
		var err error
		if p, err = DefaultPayload(t); err != nil {
			return Widget{}, err
		}
	}
	if p.WidgetType() != t {
		return Widget{}, fmt.Errorf("%w: %s payload for %s widget", ErrPayloadMismatch, p.WidgetType(), t)
	}

	id, err := newWidgetID()
	if err != nil {
		return Widget{}, fmt.Errorf("widget id: %w", err)
	}

	return Widget{
		ID:       id,
		Type:     t,
		Variant:  v,
		Channel:  ChannelNeutral,
		Position: EndPosition,
		Data:     p,
	}, nil
}

// newWidgetID returns a UUIDv7: a millisecond timestamp followed by random
// bits, which keeps ids unique for the life of the process.
func newWidgetID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// Caption returns the featured caption or an empty string.
func (w Widget) Caption() string {
	if w.FeaturedCaption == nil {
		return ""
	}
	return *w.FeaturedCaption
}

// clone returns a deep copy of w.
func (w Widget) clone() Widget {
	out := w
	if w.FeaturedCaption != nil {
		c := *w.FeaturedCaption
		out.FeaturedCaption = &c
	}
	if w.Data != nil {
		out.Data = w.Data.clonePayload()
	}
	return out
}

// widgetJSON is the wire shape of a Widget.
type widgetJSON struct {
	ID              string          `json:"id"`
	Type            WidgetType      `json:"type"`
	Variant         Variant         `json:"variant"`
	Channel         Channel         `json:"channel"`
	Position        int             `json:"position"`
	IsFeature       bool            `json:"isFeature"`
	FeaturedCaption *string         `json:"featuredCaption,omitempty"`
	Data            json.RawMessage `json:"data"`
}

// MarshalJSON encodes the payload under "data" next to the widget fields.
func (w Widget) MarshalJSON() ([]byte, error) {
	var data json.RawMessage = []byte("{}")
	if w.Data != nil {
		b, err := json.Marshal(w.Data)
		if err != nil {
			return nil, fmt.Errorf("marshal %s payload: %w", w.Type, err)
		}
		data = b
	}
	return json.Marshal(widgetJSON{
		ID:              w.ID,
		Type:            w.Type,
		Variant:         w.Variant,
		Channel:         w.Channel,
		Position:        w.Position,
		IsFeature:       w.IsFeature,
		FeaturedCaption: w.FeaturedCaption,
		Data:            data,
	})
}

// UnmarshalJSON decodes "data" into the payload struct selected by "type".
func (w *Widget) UnmarshalJSON(b []byte) error {
	var raw widgetJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if _, err := ParseWidgetType(string(raw.Type)); err != nil {
		return err
	}
	ch, err := ParseChannel(string(raw.Channel))
	if err != nil {
		return err
	}
	p, err := DecodePayload(raw.Type, raw.Data)
	if err != nil {
		return err
	}
	if raw.ID == "" {
		return errors.New("widget: missing id")
	}
	variant := raw.Variant
	if variant == "" {
		variant = DefaultVariant(raw.Type)
	}
	if !variantAllowed(raw.Type, variant) {
		return fmt.Errorf("%w: %q for %s", ErrUnknownVariant, variant, raw.Type)
	}

	*w = Widget{
		ID:              raw.ID,
		Type:            raw.Type,
		Variant:         variant,
		Channel:         ch,
		Position:        raw.Position,
		IsFeature:       raw.IsFeature,
		FeaturedCaption: raw.FeaturedCaption,
		Data:            p,
	}
	return nil
}
