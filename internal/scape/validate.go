// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package scape

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Default length limits, counted in runes.
const (
	DefaultTaglineMax = 75
	DefaultCaptionMax = 300
)

// Limits bounds the free-text fields checked before publishing.
type Limits struct {
	TaglineMax int
	CaptionMax int
}

// DefaultLimits returns the limits used when none are configured.
func DefaultLimits() Limits {
	return Limits{TaglineMax: DefaultTaglineMax, CaptionMax: DefaultCaptionMax}
}

// Policy holds validation rules that are product decisions rather than
// structural requirements.
type Policy struct {
	// UniqueTitleBlocksPublish makes a title known to be taken block
	// publishing. When false the uniqueness result is advisory.
	UniqueTitleBlocksPublish bool
}

// NameState is the state of the asynchronous title uniqueness check.
type NameState string

const (
	NameUnknown  NameState = "unknown"
	NameChecking NameState = "checking"
	NameUnique   NameState = "unique"
	NameTaken    NameState = "taken"
)

// NameStatus is the uniqueness result for one title.
type NameStatus struct {
	State NameState `json:"state"`
	Title string    `json:"title"`
}

// ValidationResult gates the Save Draft and Publish actions.
type ValidationResult struct {
	IsValid      bool      `json:"isValid"`
	Errors       []string  `json:"errors"`
	CanSaveDraft bool      `json:"canSaveDraft"`
	CanPublish   bool      `json:"canPublish"`
	NameIsUnique bool      `json:"nameIsUnique"`
	NameCheck    NameState `json:"nameCheck"`
}

// Validate runs the structural pass over d and folds in the latest
// uniqueness status. It performs no I/O.
func Validate(d *Draft, name NameStatus, limits Limits, policy Policy) ValidationResult {
	if limits.TaglineMax <= 0 {
		limits.TaglineMax = DefaultTaglineMax
	}
	if limits.CaptionMax <= 0 {
		limits.CaptionMax = DefaultCaptionMax
	}
	if name.State == "" {
		name.State = NameUnknown
	}

	res := ValidationResult{
		Errors:       []string{},
		NameIsUnique: name.State == NameUnique,
		NameCheck:    name.State,
	}

	canSave := true
	if strings.TrimSpace(d.Title) == "" {
		res.Errors = append(res.Errors, "Title is required.")
		canSave = false
	}

	canPublish := canSave
	if len(d.Widgets) == 0 {
		res.Errors = append(res.Errors, "Add at least one widget before publishing.")
		canPublish = false
	}
	if fw, ok := d.FeatureWidget(); ok {
		caption := strings.TrimSpace(fw.Caption())
		switch {
		case caption == "":
			res.Errors = append(res.Errors, "Featured caption is required.")
			canPublish = false
		case utf8.RuneCountInString(fw.Caption()) > limits.CaptionMax:
			res.Errors = append(res.Errors, fmt.Sprintf("Featured caption is too long (max %d characters).", limits.CaptionMax))
			canPublish = false
		}
	}
	if utf8.RuneCountInString(d.Tagline) > limits.TaglineMax {
		res.Errors = append(res.Errors, fmt.Sprintf("Tagline is too long (max %d characters).", limits.TaglineMax))
		canPublish = false
	}
	if policy.UniqueTitleBlocksPublish && name.State == NameTaken {
		res.Errors = append(res.Errors, "You already have a scape with this title.")
		canPublish = false
	}

	res.CanSaveDraft = canSave
	res.CanPublish = canPublish
	res.IsValid = canPublish
	return res
}
