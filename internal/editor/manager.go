// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package editor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"scapes/internal/namecheck"
	"scapes/internal/publisher"
	"scapes/internal/scape"
	"scapes/internal/session"
)

// DefaultIdleTTL is how long an untouched session stays in memory. Its
// snapshot outlives it.
const DefaultIdleTTL = 30 * time.Minute

// Config holds the tunables shared by every session.
type Config struct {
	Limits        scape.Limits
	Policy        scape.Policy
	Debounce      time.Duration
	LookupTimeout time.Duration
	IdleTTL       time.Duration
}

// Gauge is satisfied by a prometheus.Gauge.
type Gauge interface {
	Set(float64)
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithNameObserver attaches an observer to every session's name checker.
func WithNameObserver(o namecheck.Observer) ManagerOption {
	return func(m *Manager) { m.observer = o }
}

// WithSessionGauge reports the number of in-memory sessions.
func WithSessionGauge(g Gauge) ManagerOption {
	return func(m *Manager) { m.gauge = g }
}

// Manager is the registry of open sessions.
type Manager struct {
	persister Persister
	lookup    namecheck.Lookup
	snapshots SnapshotStore
	cfg       Config
	observer  namecheck.Observer
	gauge     Gauge

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager creates a session registry. snapshots may be nil, in which
// case sessions live in memory only.
func NewManager(p Persister, lookup namecheck.Lookup, snapshots SnapshotStore, cfg Config, opts ...ManagerOption) *Manager {
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = DefaultIdleTTL
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = namecheck.DefaultDebounce
	}
	if cfg.Limits == (scape.Limits{}) {
		cfg.Limits = scape.DefaultLimits()
	}
	m := &Manager{
		persister: p,
		lookup:    lookup,
		snapshots: snapshots,
		cfg:       cfg,
		sessions:  make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Open starts a session for creatorID. scapeID is scape.NewID for a fresh
// draft or the id of a scape the creator owns.
func (m *Manager) Open(ctx context.Context, creatorID, scapeID string) (*Session, error) {
	if creatorID == "" {
		return nil, publisher.ErrMissingCreator
	}

	d := scape.NewDraft()
	if scapeID != "" && scapeID != scape.NewID {
		loaded, rec, err := m.persister.Load(ctx, scapeID, creatorID)
		if err != nil {
			return nil, err
		}
		if !rec.IsOwnedBy(creatorID) {
			return nil, &publisher.OwnerOnlyError{Action: "edit", ScapeID: scapeID}
		}
		d = loaded
	}

	id, err := session.GenerateID()
	if err != nil {
		return nil, fmt.Errorf("session id: %w", err)
	}

	s := m.newSession(id, creatorID, d)
	m.register(s)
	s.snapshot(ctx)

	slog.Info("editor session opened", "session_id", id, "creator_id", creatorID, "scape_id", d.ID)
	return s, nil
}

// Get returns the session with the given id. A session that is no longer
// in memory is restored from its snapshot.
func (m *Manager) Get(ctx context.Context, id, creatorID string) (*Session, error) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	m.mu.Unlock()

	if !ok {
		var err error
		if s, err = m.restore(ctx, id); err != nil {
			return nil, err
		}
	}
	if s.creatorID != creatorID {
		return nil, &publisher.OwnerOnlyError{Action: "edit", ScapeID: s.State().Draft.ID}
	}
	s.touch()
	return s, nil
}

func (m *Manager) restore(ctx context.Context, id string) (*Session, error) {
	if m.snapshots == nil {
		return nil, ErrSessionNotFound
	}
	data, err := m.snapshots.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("restore session: %w", err)
	}
	if data == nil || data.Draft == nil {
		return nil, ErrSessionNotFound
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	// Another request may have restored it meanwhile.
	if s, ok := m.sessions[id]; ok {
		return s, nil
	}
	s := m.newSession(id, data.CreatorID, data.Draft)
	m.sessions[id] = s
	m.reportLocked()

	slog.Info("editor session restored", "session_id", id, "creator_id", data.CreatorID)
	return s, nil
}

// Discard closes the session and deletes its snapshot.
func (m *Manager) Discard(ctx context.Context, id, creatorID string) error {
	s, err := m.Get(ctx, id, creatorID)
	if err != nil {
		return err
	}

	m.mu.Lock()
	delete(m.sessions, id)
	m.reportLocked()
	m.mu.Unlock()

	s.close()
	if m.snapshots != nil {
		if err := m.snapshots.Delete(ctx, id); err != nil {
			slog.Warn("editor snapshot delete failed", "session_id", id, "error", err)
		}
	}
	slog.Info("editor session discarded", "session_id", id)
	return nil
}

// Sweep evicts sessions idle since before now minus the idle TTL. Their
// snapshots are kept so they can be restored later.
func (m *Manager) Sweep(now time.Time) int {
	cutoff := now.Add(-m.cfg.IdleTTL)

	m.mu.Lock()
	var idle []*Session
	for id, s := range m.sessions {
		if s.idleSince().Before(cutoff) {
			idle = append(idle, s)
			delete(m.sessions, id)
		}
	}
	m.reportLocked()
	m.mu.Unlock()

	for _, s := range idle {
		s.close()
	}
	if len(idle) > 0 {
		slog.Info("idle editor sessions evicted", "count", len(idle))
	}
	return len(idle)
}

// Run sweeps idle sessions every interval until ctx is cancelled.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			m.Sweep(now)
		}
	}
}

// Len returns the number of sessions held in memory.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Close shuts every session down. Snapshots are kept.
func (m *Manager) Close() {
	m.mu.Lock()
	all := m.sessions
	m.sessions = make(map[string]*Session)
	m.reportLocked()
	m.mu.Unlock()

	for _, s := range all {
		s.close()
	}
}

func (m *Manager) newSession(id, creatorID string, d *scape.Draft) *Session {
	s := &Session{
		id:        id,
		creatorID: creatorID,
		limits:    m.cfg.Limits,
		policy:    m.cfg.Policy,
		persister: m.persister,
		snapshots: m.snapshots,
		draft:     d,
		lastUsed:  time.Now(),
		subs:      make(map[chan State]struct{}),
	}

	opts := []namecheck.Option{
		namecheck.WithDebounce(m.cfg.Debounce),
		namecheck.WithTimeout(m.cfg.LookupTimeout),
		namecheck.WithNotify(s.onNameStatus),
	}
	if m.observer != nil {
		opts = append(opts, namecheck.WithObserver(m.observer))
	}
	s.checker = namecheck.New(m.lookup, creatorID, d.ID, opts...)
	if d.Title != "" {
		s.checker.TitleChanged(d.Title)
	}
	return s
}

func (m *Manager) register(s *Session) {
	m.mu.Lock()
	m.sessions[s.id] = s
	m.reportLocked()
	m.mu.Unlock()
}

func (m *Manager) reportLocked() {
	if m.gauge != nil {
		m.gauge.Set(float64(len(m.sessions)))
	}
}
