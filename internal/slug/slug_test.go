// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package slug

import (
	"strings"
	"testing"
)

func TestGenerate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "simple two words", input: "Hello World", want: "hello-world"},
		{name: "title with year", input: "Summer Tour 2026", want: "summer-tour-2026"},
		{name: "punctuation", input: "Hello, World! How's it going?", want: "hello-world-hows-it-going"},
		{name: "ampersand", input: "Rock & Roll", want: "rock-roll"},
		{name: "accents folded", input: "Café Olé", want: "cafe-ole"},
		{name: "umlauts", input: "Zürich Öl", want: "zurich-ol"},
		{name: "tabs and newlines", input: "a\tb\nc", want: "a-b-c"},
		{name: "leading and trailing hyphens", input: "--My Scape--", want: "my-scape"},
		{name: "empty", input: "", want: Fallback},
		{name: "only symbols", input: "!!! ???", want: Fallback},
		{name: "only non-latin", input: "東京", want: Fallback},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Generate(tt.input); got != tt.want {
				t.Errorf("Generate(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestGenerateTruncates(t *testing.T) {
	got := Generate(strings.Repeat("word ", 40))
	if len(got) > maxLen {
		t.Errorf("len = %d, want <= %d", len(got), maxLen)
	}
	if strings.HasSuffix(got, "-") || strings.HasPrefix(got, "-") {
		t.Errorf("slug %q has a dangling hyphen", got)
	}
	if !strings.HasSuffix(got, "word") {
		t.Errorf("slug %q should end on a whole word", got)
	}
}
