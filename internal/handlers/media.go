// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"slices"

	"scapes/internal/scape"
)

// mapMedia returns a copy of p with fn applied to every media reference.
// Payloads without media are returned unchanged.
func mapMedia(p scape.Payload, fn func(scape.MediaRef) (scape.MediaRef, error)) (scape.Payload, error) {
	var err error
	switch v := p.(type) {
	case scape.ImagePayload:
		v.Media, err = fn(v.Media)
		return v, err
	case scape.AudioPayload:
		if v.Media, err = fn(v.Media); err != nil {
			return p, err
		}
		v.Cover, err = fn(v.Cover)
		return v, err
	case scape.GalleryPayload:
		v.Media = slices.Clone(v.Media)
		for i := range v.Media {
			if v.Media[i], err = fn(v.Media[i]); err != nil {
				return p, err
			}
		}
		return v, nil
	case scape.ShopPayload:
		v.Products = slices.Clone(v.Products)
		for i := range v.Products {
			if v.Products[i].Image, err = fn(v.Products[i].Image); err != nil {
				return p, err
			}
		}
		return v, nil
	}
	return p, nil
}
