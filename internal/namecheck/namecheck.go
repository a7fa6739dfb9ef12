// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package namecheck runs the debounced title uniqueness check for one
// editing session. Every check is stamped with a generation number and the
// title it was issued for; a result is applied only if both still match
// when it arrives, so a slow response for an old title can never overwrite
// the status of the current one.
package namecheck

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"scapes/internal/scape"
)

const (
	// DefaultDebounce is the quiet period after the last title change
	// before a lookup is issued.
	DefaultDebounce = 500 * time.Millisecond

	// DefaultTimeout bounds a single lookup.
	DefaultTimeout = 5 * time.Second
)

// Lookup reports whether creatorID already owns another scape titled
// title. excludeID is the scape being edited and never counts as a clash.
type Lookup interface {
	TitleTaken(ctx context.Context, title, creatorID, excludeID string) (bool, error)
}

// Observer is told how each issued check ended.
type Observer interface {
	CheckResolved(state scape.NameState)
	CheckFailed(err error)
	CheckDiscarded()
}

type nopObserver struct{}

func (nopObserver) CheckResolved(scape.NameState) {}
func (nopObserver) CheckFailed(error)             {}
func (nopObserver) CheckDiscarded()               {}

// Option configures a Checker.
type Option func(*Checker)

// WithDebounce sets the quiet period. Zero issues the lookup immediately.
func WithDebounce(d time.Duration) Option {
	return func(c *Checker) { c.debounce = d }
}

// WithTimeout sets the per-lookup timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Checker) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithObserver attaches an observer, typically metrics.
func WithObserver(o Observer) Option {
	return func(c *Checker) {
		if o != nil {
			c.observer = o
		}
	}
}

// WithNotify registers a callback run after every status change. It is
// called without the checker's lock held.
func WithNotify(fn func(scape.NameStatus)) Option {
	return func(c *Checker) { c.notify = fn }
}

// Checker tracks the uniqueness status of a single draft's title.
type Checker struct {
	lookup    Lookup
	creatorID string
	debounce  time.Duration
	timeout   time.Duration
	observer  Observer
	notify    func(scape.NameStatus)

	mu        sync.Mutex
	excludeID string
	title     string
	gen       uint64
	state     scape.NameState
	known     scape.NameStatus // last status that came back from a lookup
	timer     *time.Timer
	cancel    context.CancelFunc
	stopped   bool
}

// New creates a checker for drafts owned by creatorID. excludeID is the
// persisted id of the draft, or scape.NewID for a draft never saved.
func New(lookup Lookup, creatorID, excludeID string, opts ...Option) *Checker {
	c := &Checker{
		lookup:    lookup,
		creatorID: creatorID,
		excludeID: excludeID,
		debounce:  DefaultDebounce,
		timeout:   DefaultTimeout,
		observer:  nopObserver{},
		state:     scape.NameUnknown,
		known:     scape.NameStatus{State: scape.NameUnknown},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TitleChanged records a new title and restarts the debounce timer. Any
// pending or in-flight check for an earlier title is abandoned.
func (c *Checker) TitleChanged(title string) {
	c.schedule(title, false)
}

// Recheck issues a fresh check for the current title.
func (c *Checker) Recheck() {
	c.mu.Lock()
	title := c.title
	c.mu.Unlock()
	c.schedule(title, true)
}

// SetExclude adopts the persisted id once the draft has been saved, so
// later checks do not collide with the draft's own record. A change of id
// discards any answer computed against the old one and checks again.
func (c *Checker) SetExclude(id string) {
	c.mu.Lock()
	if id == c.excludeID {
		c.mu.Unlock()
		return
	}
	c.excludeID = id
	c.mu.Unlock()
	c.Recheck()
}

// Status returns the current uniqueness status.
func (c *Checker) Status() scape.NameStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return scape.NameStatus{State: c.state, Title: c.title}
}

// Stop abandons any pending work. Results arriving later are dropped.
func (c *Checker) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopped = true
	c.gen++
	c.abandonLocked()
}

func (c *Checker) schedule(title string, force bool) {
	title = strings.TrimSpace(title)

	c.mu.Lock()
	if c.stopped || (!force && title == c.title) {
		c.mu.Unlock()
		return
	}
	c.gen++
	gen := c.gen
	c.abandonLocked()
	c.title = title

	if title == "" {
		c.state = scape.NameUnknown
	} else {
		c.state = scape.NameChecking
		c.timer = time.AfterFunc(c.debounce, func() { c.run(gen) })
	}
	status := scape.NameStatus{State: c.state, Title: c.title}
	c.mu.Unlock()

	c.emit(status)
}

// abandonLocked stops the debounce timer and cancels an in-flight lookup.
func (c *Checker) abandonLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

func (c *Checker) run(gen uint64) {
	c.mu.Lock()
	if c.stopped || gen != c.gen {
		c.mu.Unlock()
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	c.cancel = cancel
	title, creatorID, excludeID := c.title, c.creatorID, c.excludeID
	c.mu.Unlock()

	taken, err := c.lookup.TitleTaken(ctx, title, creatorID, excludeID)
	cancel()
	c.apply(gen, title, excludeID, taken, err)
}

func (c *Checker) apply(gen uint64, title, excludeID string, taken bool, err error) {
	c.mu.Lock()
	if c.stopped || gen != c.gen || title != c.title || excludeID != c.excludeID {
		c.mu.Unlock()
		c.observer.CheckDiscarded()
		slog.Debug("stale title check discarded", "title", title, "creator_id", c.creatorID)
		return
	}
	c.cancel = nil

	if err != nil {
		// Fall back to the last answer for this same title. Never report
		// unique on a failed lookup.
		if c.known.Title == title {
			c.state = c.known.State
		} else {
			c.state = scape.NameUnknown
		}
		status := scape.NameStatus{State: c.state, Title: c.title}
		c.mu.Unlock()

		slog.Warn("title uniqueness check failed", "title", title, "creator_id", c.creatorID, "error", err)
		c.observer.CheckFailed(err)
		c.emit(status)
		return
	}

	c.state = scape.NameUnique
	if taken {
		c.state = scape.NameTaken
	}
	c.known = scape.NameStatus{State: c.state, Title: title}
	status := c.known
	c.mu.Unlock()

	c.observer.CheckResolved(status.State)
	c.emit(status)
}

func (c *Checker) emit(status scape.NameStatus) {
	if c.notify != nil {
		c.notify(status)
	}
}
