// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package storage

import (
	"context"
	"strings"

	"scapes/internal/scape"
)

// PrivatePrefix marks a reference to an object in the private bucket.
const PrivatePrefix = "private/"

// Resolve turns a media reference into a URL.
//
//	""                 -> ""
//	http(s)://...      -> unchanged
//	private/<key>      -> pre-signed URL into the private bucket
//	<key>              -> public bucket URL
//
// A nil client returns every reference unchanged.
func (c *Client) Resolve(ctx context.Context, ref scape.MediaRef) (string, error) {
	s := string(ref)
	if c == nil || s == "" || isAbsolute(s) {
		return s, nil
	}
	if key, ok := strings.CutPrefix(s, PrivatePrefix); ok {
		return c.PresignedURL(ctx, key, c.presignTTL)
	}
	return c.FileURL(strings.TrimPrefix(s, "/")), nil
}

// Normalize converts a URL that points into the public bucket back to its
// key, so stored references survive a CDN or endpoint change. Anything
// else is returned as given.
func (c *Client) Normalize(ref scape.MediaRef) scape.MediaRef {
	if c == nil {
		return ref
	}
	if key, ok := c.KeyFromURL(string(ref)); ok {
		return scape.MediaRef(key)
	}
	return ref
}

func isAbsolute(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
