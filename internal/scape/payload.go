// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package scape

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
)

// Payload is the type-specific content of a widget. The set of
// implementations is closed: clonePayload is unexported, so only this
// package can add a widget type.
type Payload interface {
	WidgetType() WidgetType
	clonePayload() Payload
}

// MediaRef is an opaque reference to an asset owned by the media
// subsystem. The engine never resolves it.
type MediaRef string

type TextPayload struct {
	Body string `json:"body"`
}

type ImagePayload struct {
	Media MediaRef `json:"media"`
	Alt   string   `json:"alt,omitempty"`
}

type AudioPayload struct {
	Media MediaRef `json:"media"`
	Title string   `json:"title,omitempty"`
	Cover MediaRef `json:"cover,omitempty"`
}

type GalleryPayload struct {
	Media []MediaRef `json:"media"`
}

// Product is one listing inside a shop widget. Price is in minor units.
type Product struct {
	Name     string   `json:"name"`
	Price    int64    `json:"price"`
	Currency string   `json:"currency"`
	Image    MediaRef `json:"image,omitempty"`
	URL      string   `json:"url,omitempty"`
}

type ShopPayload struct {
	Products []Product `json:"products"`
}

type LivePayload struct {
	Stream      string `json:"stream"`
	ChatEnabled bool   `json:"chatEnabled"`
}

type ButtonPayload struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

type LLMPayload struct {
	Prompt  string `json:"prompt"`
	Persona string `json:"persona,omitempty"`
}

type HeaderPayload struct {
	Text string `json:"text"`
}

func (TextPayload) WidgetType() WidgetType    { return WidgetText }
func (ImagePayload) WidgetType() WidgetType   { return WidgetImage }
func (AudioPayload) WidgetType() WidgetType   { return WidgetAudio }
func (GalleryPayload) WidgetType() WidgetType { return WidgetGallery }
func (ShopPayload) WidgetType() WidgetType    { return WidgetShop }
func (LivePayload) WidgetType() WidgetType    { return WidgetLive }
func (ButtonPayload) WidgetType() WidgetType  { return WidgetButton }
func (LLMPayload) WidgetType() WidgetType     { return WidgetLLM }
func (HeaderPayload) WidgetType() WidgetType  { return WidgetHeader }

func (p TextPayload) clonePayload() Payload  { return p }
func (p ImagePayload) clonePayload() Payload { return p }
func (p AudioPayload) clonePayload() Payload { return p }
func (p GalleryPayload) clonePayload() Payload {
	p.Media = slices.Clone(p.Media)
	return p
}
func (p ShopPayload) clonePayload() Payload {
	p.Products = slices.Clone(p.Products)
	return p
}
func (p LivePayload) clonePayload() Payload   { return p }
func (p ButtonPayload) clonePayload() Payload { return p }
func (p LLMPayload) clonePayload() Payload    { return p }
func (p HeaderPayload) clonePayload() Payload { return p }

// DefaultPayload returns the empty payload a freshly created widget of
// type t starts with.
func DefaultPayload(t WidgetType) (Payload, error) {
	switch t {
	case WidgetText:
		return TextPayload{}, nil
	case WidgetImage:
		return ImagePayload{}, nil
	case WidgetAudio:
		return AudioPayload{}, nil
	case WidgetGallery:
		return GalleryPayload{Media: []MediaRef{}}, nil
	case WidgetShop:
		return ShopPayload{Products: []Product{}}, nil
	case WidgetLive:
		return LivePayload{ChatEnabled: true}, nil
	case WidgetButton:
		return ButtonPayload{}, nil
	case WidgetLLM:
		return LLMPayload{}, nil
	case WidgetHeader:
		return HeaderPayload{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, t)
	}
}

// DecodePayload parses raw JSON into the payload struct for type t.
// Unknown fields are rejected so a payload for one type cannot be stored
// under another. A missing or null body yields the default payload.
func DecodePayload(t WidgetType, raw json.RawMessage) (Payload, error) {
	if len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return DefaultPayload(t)
	}

	switch t {
	case WidgetText:
		return decodeInto[TextPayload](t, raw)
	case WidgetImage:
		return decodeInto[ImagePayload](t, raw)
	case WidgetAudio:
		return decodeInto[AudioPayload](t, raw)
	case WidgetGallery:
		return decodeInto[GalleryPayload](t, raw)
	case WidgetShop:
		return decodeInto[ShopPayload](t, raw)
	case WidgetLive:
		return decodeInto[LivePayload](t, raw)
	case WidgetButton:
		return decodeInto[ButtonPayload](t, raw)
	case WidgetLLM:
		return decodeInto[LLMPayload](t, raw)
	case WidgetHeader:
		return decodeInto[HeaderPayload](t, raw)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, t)
	}
}

func decodeInto[P Payload](t WidgetType, raw json.RawMessage) (Payload, error) {
	var p P
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", t, err)
	}
	return p, nil
}
