// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package scape

import "errors"

var (
	ErrWidgetNotFound  = errors.New("widget not found")
	ErrNotFeatured     = errors.New("widget is not the feature widget")
	ErrPayloadMismatch = errors.New("payload does not match widget type")
	ErrUnknownType     = errors.New("unknown widget type")
	ErrUnknownVariant  = errors.New("unknown widget variant")
	ErrUnknownChannel  = errors.New("unknown channel")
	ErrDuplicateWidget = errors.New("widget id already present")
)
