// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package scape

// MoveWidgets returns a new slice with the widget at index from removed and
// reinserted at index to, and every position recomputed from the new order.
// Both indices are clamped into range. The input slice is not modified.
//
// Drag-and-drop and the up/down buttons both end up here; an adjacent swap
// is just a move of distance one.
func MoveWidgets(ws []Widget, from, to int) []Widget {
	out := make([]Widget, len(ws))
	for i, w := range ws {
		out[i] = w.clone()
	}
	if len(out) == 0 {
		return out
	}

	from = clamp(from, 0, len(out)-1)
	to = clamp(to, 0, len(out)-1)
	if from == to {
		Renumber(out)
		return out
	}

	moved := out[from]
	out = append(out[:from], out[from+1:]...)
	out = append(out[:to], append([]Widget{moved}, out[to:]...)...)

	Renumber(out)
	return out
}

// Renumber sets each widget's position to its index.
func Renumber(ws []Widget) {
	for i := range ws {
		ws[i].Position = i
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
