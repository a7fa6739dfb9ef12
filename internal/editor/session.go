// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package editor owns open editing sessions. Each session holds exactly
// one draft; every change runs one at a time on a copy of it and replaces
// the draft only if the change succeeds.
package editor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"scapes/internal/models"
	"scapes/internal/namecheck"
	"scapes/internal/publisher"
	"scapes/internal/scape"
	"scapes/internal/session"
)

var (
	// ErrSaveInProgress is returned when Save or Publish is called while
	// another one is still running for the same session.
	ErrSaveInProgress = errors.New("a save is already in progress")

	// ErrSessionNotFound means the session id is unknown or has expired.
	ErrSessionNotFound = errors.New("editing session not found")

	// ErrInvalid matches any ValidationError.
	ErrInvalid = errors.New("scape is not valid")
)

// ValidationError blocks a save or publish. Errors holds the user-facing
// messages from the validation pass.
type ValidationError struct {
	Action string
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("cannot %s: %s", e.Action, strings.Join(e.Errors, " "))
}

// Is makes errors.Is(err, ErrInvalid) true.
func (e *ValidationError) Is(target error) bool { return target == ErrInvalid }

// Persister is the subset of the publisher used by sessions.
type Persister interface {
	Save(ctx context.Context, d *scape.Draft, creatorID string, opts publisher.SaveOptions) (publisher.Result, error)
	Publish(ctx context.Context, d *scape.Draft, creatorID string, opts publisher.PublishOptions) (publisher.Result, error)
	Load(ctx context.Context, id, viewerID string) (*scape.Draft, *models.Scape, error)
}

// SnapshotStore keeps a copy of each session's draft outside the process.
// Get returns (nil, nil) on a miss.
type SnapshotStore interface {
	Put(ctx context.Context, data *session.Data) error
	Get(ctx context.Context, id string) (*session.Data, error)
	Delete(ctx context.Context, id string) error
}

// State is what the editor UI renders: the draft and its validation.
type State struct {
	SessionID  string                 `json:"sessionId"`
	Version    uint64                 `json:"version"`
	Draft      *scape.Draft           `json:"draft"`
	Validation scape.ValidationResult `json:"validation"`
	Saving     bool                   `json:"saving"`
}

// Session is one open editor.
type Session struct {
	id        string
	creatorID string
	limits    scape.Limits
	policy    scape.Policy
	persister Persister
	snapshots SnapshotStore
	checker   *namecheck.Checker

	mu       sync.Mutex
	draft    *scape.Draft
	version  uint64
	saving   bool
	lastUsed time.Time
	subs     map[chan State]struct{}
	closed   bool
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// CreatorID returns the id of the creator editing the draft.
func (s *Session) CreatorID() string { return s.creatorID }

// State returns a copy of the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

func (s *Session) stateLocked() State {
	return State{
		SessionID:  s.id,
		Version:    s.version,
		Draft:      s.draft.Clone(),
		Validation: scape.Validate(s.draft, s.checker.Status(), s.limits, s.policy),
		Saving:     s.saving,
	}
}

// Apply runs fn against a copy of the draft. If fn succeeds the copy
// becomes the draft; otherwise the draft is left as it was and fn's error
// is returned.
func (s *Session) Apply(ctx context.Context, fn func(d *scape.Draft) error) (State, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return State{}, ErrSessionNotFound
	}
	work := s.draft.Clone()
	if err := fn(work); err != nil {
		s.mu.Unlock()
		return State{}, err
	}
	titleChanged := work.Title != s.draft.Title
	s.draft = work
	s.version++
	s.lastUsed = time.Now()
	s.mu.Unlock()

	if titleChanged {
		s.checker.TitleChanged(work.Title)
	}

	st := s.State()
	s.snapshot(ctx)
	s.broadcast(st)
	return st, nil
}

// Save persists the draft. The draft must have a title.
func (s *Session) Save(ctx context.Context, opts publisher.SaveOptions) (publisher.Result, State, error) {
	return s.persist(ctx, "save", func(v scape.ValidationResult) bool { return v.CanSaveDraft },
		func(d *scape.Draft) (publisher.Result, error) {
			return s.persister.Save(ctx, d, s.creatorID, opts)
		})
}

// Publish persists the draft and marks it published. The draft must pass
// the full validation pass.
func (s *Session) Publish(ctx context.Context, opts publisher.PublishOptions) (publisher.Result, State, error) {
	return s.persist(ctx, "publish", func(v scape.ValidationResult) bool { return v.CanPublish },
		func(d *scape.Draft) (publisher.Result, error) {
			return s.persister.Publish(ctx, d, s.creatorID, opts)
		})
}

func (s *Session) persist(
	ctx context.Context,
	action string,
	allowed func(scape.ValidationResult) bool,
	run func(*scape.Draft) (publisher.Result, error),
) (publisher.Result, State, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return publisher.Result{}, State{}, ErrSessionNotFound
	}
	if s.saving {
		s.mu.Unlock()
		return publisher.Result{}, State{}, ErrSaveInProgress
	}
	v := scape.Validate(s.draft, s.checker.Status(), s.limits, s.policy)
	if !allowed(v) {
		s.mu.Unlock()
		return publisher.Result{}, State{}, &ValidationError{Action: action, Errors: v.Errors}
	}
	s.saving = true
	pending := s.draft.Clone()
	st := s.stateLocked()
	s.mu.Unlock()
	s.broadcast(st)

	res, err := run(pending)

	s.mu.Lock()
	s.saving = false
	if err == nil {
		if s.draft.IsNew() {
			s.draft.ID = res.ScapeID
		}
		s.draft.IsDraft = !res.Published
		s.version++
	}
	s.lastUsed = time.Now()
	st = s.stateLocked()
	s.mu.Unlock()

	if err != nil {
		s.broadcast(st)
		return publisher.Result{}, st, err
	}

	s.checker.SetExclude(res.ScapeID)
	s.snapshot(ctx)
	s.broadcast(st)
	return res, st, nil
}

// Subscribe returns a channel that receives the state after every change,
// including asynchronous name-check results. Slow readers only see the
// latest state. Call the returned func to unsubscribe.
func (s *Session) Subscribe() (<-chan State, func()) {
	ch := make(chan State, 1)
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	s.subs[ch] = struct{}{}
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			if _, ok := s.subs[ch]; ok {
				delete(s.subs, ch)
				close(ch)
			}
			s.mu.Unlock()
		})
	}
}

func (s *Session) broadcast(st State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.subs {
		select {
		case ch <- st:
		default:
			// Drop the stale state and deliver the new one.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- st:
			default:
			}
		}
	}
}

// onNameStatus is the checker's notify hook.
func (s *Session) onNameStatus(scape.NameStatus) {
	s.broadcast(s.State())
}

func (s *Session) snapshot(ctx context.Context) {
	if s.snapshots == nil {
		return
	}
	s.mu.Lock()
	data := &session.Data{ID: s.id, CreatorID: s.creatorID, Draft: s.draft.Clone()}
	s.mu.Unlock()

	if err := s.snapshots.Put(context.WithoutCancel(ctx), data); err != nil {
		slog.Warn("editor snapshot failed", "session_id", s.id, "error", err)
	}
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastUsed = time.Now()
	s.mu.Unlock()
}

// close stops the name checker and ends every subscription.
func (s *Session) close() {
	s.checker.Stop()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for ch := range s.subs {
		close(ch)
	}
	s.subs = nil
}
