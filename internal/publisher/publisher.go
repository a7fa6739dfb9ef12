// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package publisher persists scape drafts. Save and Publish compose three
// store primitives (upsert the scape row, replace its widgets, set the
// published flag) behind a single error, and never touch the caller's
// draft.
package publisher

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"scapes/internal/models"
	"scapes/internal/scape"
)

// Store is the persistence boundary. Find returns (nil, nil) when the
// scape does not exist.
type Store interface {
	Find(ctx context.Context, id string) (*models.Scape, error)
	TitleTaken(ctx context.Context, title, creatorID, excludeID string) (bool, error)
	Upsert(ctx context.Context, sc *models.Scape) (uuid.UUID, error)
	ReplaceWidgets(ctx context.Context, scapeID uuid.UUID, ws []models.Widget) error
	SetPublished(ctx context.Context, scapeID uuid.UUID, published bool, fields *models.PublishFields) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// ChangeKind names what happened to a scape.
type ChangeKind string

const (
	ChangeSaved     ChangeKind = "scape.saved"
	ChangePublished ChangeKind = "scape.published"
	ChangeDeleted   ChangeKind = "scape.deleted"
)

// Change describes a completed write.
type Change struct {
	Kind      ChangeKind `json:"type"`
	ScapeID   string     `json:"scapeId"`
	CreatorID string     `json:"creatorId"`
	Published bool       `json:"published"`
}

// Notifier is told about every completed write. Notifiers must not fail
// the write; they log their own errors.
type Notifier interface {
	ScapeChanged(ctx context.Context, c Change)
}

// Recorder observes persistence operations, typically for metrics.
type Recorder interface {
	ObservePersist(op string, err error, elapsed time.Duration)
}

// Option configures a Service.
type Option func(*Service)

// WithNotifier adds a notifier. Notifiers run in the order given.
func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		if n != nil {
			s.notifiers = append(s.notifiers, n)
		}
	}
}

// WithRecorder sets the operation recorder.
func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

// Service is the persistence orchestrator.
type Service struct {
	store     Store
	notifiers []Notifier
	recorder  Recorder
}

// New creates a Service backed by store.
func New(store Store, opts ...Option) *Service {
	s := &Service{store: store}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SaveOptions controls Save.
type SaveOptions struct {
	// PreservePublishedState leaves the published flag as stored. Used by
	// "Update" on a scape that is already live.
	PreservePublishedState bool
}

// PublishOptions are written together with the published flag.
type PublishOptions struct {
	Visibility      models.Visibility
	CommentsEnabled bool
}

// Result reports the outcome of a successful Save or Publish. Callers
// holding a new draft must adopt ScapeID so later saves update the same
// record.
type Result struct {
	ScapeID   string `json:"scapeId"`
	Created   bool   `json:"created"`
	Published bool   `json:"published"`
}

// Save persists d's content. Unless opts.PreservePublishedState is set the
// scape is stored as an unpublished draft.
func (s *Service) Save(ctx context.Context, d *scape.Draft, creatorID string, opts SaveOptions) (Result, error) {
	start := time.Now()
	var publish *bool
	if !opts.PreservePublishedState {
		f := false
		publish = &f
	}
	res, err := s.persist(ctx, d, creatorID, publish, nil)
	s.observe("save", err, start)
	return res, err
}

// Publish persists d's content and marks it published with the given
// visibility fields.
func (s *Service) Publish(ctx context.Context, d *scape.Draft, creatorID string, opts PublishOptions) (Result, error) {
	start := time.Now()
	vis := opts.Visibility
	if vis == "" {
		vis = models.VisibilityPublic
	}
	t := true
	res, err := s.persist(ctx, d, creatorID, &t, &models.PublishFields{
		Visibility:      vis,
		CommentsEnabled: opts.CommentsEnabled,
	})
	s.observe("publish", err, start)
	return res, err
}

// persist runs the three store steps. publish == nil preserves the stored
// flag.
func (s *Service) persist(ctx context.Context, d *scape.Draft, creatorID string, publish *bool, fields *models.PublishFields) (Result, error) {
	if creatorID == "" {
		return Result{}, ErrMissingCreator
	}
	work := d.Clone()
	created := work.IsNew()

	published := false
	if !created {
		existing, err := s.authorize(ctx, work.ID, creatorID, "update")
		if err != nil {
			return Result{}, err
		}
		published = existing.IsPublished
	}

	rec, err := ToRecord(work, creatorID)
	if err != nil {
		return Result{}, &PersistError{Step: "encode", Err: err}
	}

	id, err := s.store.Upsert(ctx, rec)
	if err != nil {
		return Result{}, &PersistError{Step: "upsert", Err: err}
	}

	if err := s.store.ReplaceWidgets(ctx, id, rec.Widgets); err != nil {
		s.rollbackInsert(ctx, created, id)
		return Result{}, &PersistError{Step: "replace_widgets", Err: err}
	}

	if publish != nil {
		if err := s.store.SetPublished(ctx, id, *publish, fields); err != nil {
			s.rollbackInsert(ctx, created, id)
			return Result{}, &PersistError{Step: "set_published", Err: err}
		}
		published = *publish
	}

	res := Result{ScapeID: id.String(), Created: created, Published: published}
	kind := ChangeSaved
	if publish != nil && *publish {
		kind = ChangePublished
	}
	s.notify(ctx, Change{Kind: kind, ScapeID: res.ScapeID, CreatorID: creatorID, Published: published})

	slog.Info("scape persisted",
		"scape_id", res.ScapeID,
		"creator_id", creatorID,
		"created", created,
		"published", published,
		"widgets", len(rec.Widgets),
	)
	return res, nil
}

// rollbackInsert removes a row inserted earlier in the same failed call,
// so a retry of a new draft does not leave an orphan behind.
func (s *Service) rollbackInsert(ctx context.Context, created bool, id uuid.UUID) {
	if !created {
		return
	}
	if err := s.store.Delete(context.WithoutCancel(ctx), id); err != nil {
		slog.Warn("could not remove partially saved scape", "scape_id", id, "error", err)
	}
}

// authorize loads the scape and checks that creatorID owns it.
func (s *Service) authorize(ctx context.Context, id, creatorID, action string) (*models.Scape, error) {
	existing, err := s.store.Find(ctx, id)
	if err != nil {
		return nil, &PersistError{Step: "authorize", Err: err}
	}
	if existing == nil {
		return nil, ErrNotFound
	}
	if !existing.IsOwnedBy(creatorID) {
		slog.Warn("scape owner check failed", "scape_id", id, "creator_id", creatorID, "action", action)
		return nil, &OwnerOnlyError{Action: action, ScapeID: id}
	}
	return existing, nil
}

// Load fetches a scape for editing or viewing. An unknown id and another
// creator's unpublished scape both yield ErrNotFound.
func (s *Service) Load(ctx context.Context, id, viewerID string) (*scape.Draft, *models.Scape, error) {
	rec, err := s.store.Find(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("load scape: %w", err)
	}
	if rec == nil || !rec.VisibleTo(viewerID) {
		return nil, nil, ErrNotFound
	}
	d, err := FromRecord(rec)
	if err != nil {
		return nil, nil, fmt.Errorf("load scape %s: %w", id, err)
	}
	return d, rec, nil
}

// Delete removes a scape after checking that creatorID owns it.
func (s *Service) Delete(ctx context.Context, id, creatorID string) error {
	start := time.Now()
	err := s.delete(ctx, id, creatorID)
	s.observe("delete", err, start)
	return err
}

func (s *Service) delete(ctx context.Context, id, creatorID string) error {
	if creatorID == "" {
		return ErrMissingCreator
	}
	existing, err := s.authorize(ctx, id, creatorID, "delete")
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, existing.ID); err != nil {
		return &PersistError{Step: "delete", Err: err}
	}
	s.notify(ctx, Change{Kind: ChangeDeleted, ScapeID: existing.ID.String(), CreatorID: creatorID})
	slog.Info("scape deleted", "scape_id", existing.ID, "creator_id", creatorID)
	return nil
}

// CheckTitle is a one-shot uniqueness lookup.
func (s *Service) CheckTitle(ctx context.Context, title, creatorID, excludeID string) (bool, error) {
	if creatorID == "" {
		return false, ErrMissingCreator
	}
	taken, err := s.store.TitleTaken(ctx, title, creatorID, excludeID)
	if err != nil {
		return false, fmt.Errorf("check title: %w", err)
	}
	return taken, nil
}

func (s *Service) notify(ctx context.Context, c Change) {
	for _, n := range s.notifiers {
		n.ScapeChanged(ctx, c)
	}
}

func (s *Service) observe(op string, err error, start time.Time) {
	if s.recorder != nil {
		s.recorder.ObservePersist(op, err, time.Since(start))
	}
}
