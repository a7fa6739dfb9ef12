// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package publisher

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingCreator is returned for a write attempted without a creator id.
	ErrMissingCreator = errors.New("creator id is required")

	// ErrNotFound means the scape does not exist or is not visible to the
	// caller. Editors should leave the editing session.
	ErrNotFound = errors.New("scape not found")

	// ErrUnauthorized matches any OwnerOnlyError.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrPersistFailed matches any PersistError.
	ErrPersistFailed = errors.New("could not save scape")
)

// OwnerOnlyError is returned when someone other than the owner tries to
// change a scape. It is raised before any write happens.
type OwnerOnlyError struct {
	Action  string
	ScapeID string
}

func (e *OwnerOnlyError) Error() string {
	return fmt.Sprintf("only the owner can %s scape %s", e.Action, e.ScapeID)
}

// Is makes errors.Is(err, ErrUnauthorized) true.
func (e *OwnerOnlyError) Is(target error) bool {
	return target == ErrUnauthorized
}

// PersistError wraps a store failure with the step that failed. The
// caller's draft is untouched when one is returned.
type PersistError struct {
	Step string
	Err  error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("persist %s: %v", e.Step, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrPersistFailed) true.
func (e *PersistError) Is(target error) bool {
	return target == ErrPersistFailed
}
