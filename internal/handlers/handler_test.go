// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides shared test infrastructure for the handler
// tests: an in-memory scape store, a miniredis-backed view cache and a
// chi router that mirrors the production routes.
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"scapes/internal/cache"
	"scapes/internal/editor"
	"scapes/internal/middleware"
	"scapes/internal/models"
	"scapes/internal/publisher"
	"scapes/internal/scape"
	"scapes/internal/store"
)

// memStore is an in-memory scape store covering every interface the
// handlers and the publisher need.
type memStore struct {
	mu   sync.Mutex
	rows map[uuid.UUID]*models.Scape
}

func newMemStore() *memStore {
	return &memStore{rows: make(map[uuid.UUID]*models.Scape)}
}

func (m *memStore) get(id string) *models.Scape {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil
	}
	row, ok := m.rows[uid]
	if !ok {
		return nil
	}
	cp := *row
	cp.Widgets = slices.Clone(row.Widgets)
	return &cp
}

func (m *memStore) Find(_ context.Context, id string) (*models.Scape, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.get(id), nil
}

func (m *memStore) FindPublished(_ context.Context, id string) (*models.Scape, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row := m.get(id)
	if row == nil || !row.IsPublished || row.Visibility == models.VisibilityPrivate {
		return nil, nil
	}
	return row, nil
}

func (m *memStore) ListByCreator(_ context.Context, creatorID string) ([]models.ScapeSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.ScapeSummary
	for _, row := range m.rows {
		if row.CreatorID != creatorID {
			continue
		}
		out = append(out, models.ScapeSummary{
			ID:          row.ID,
			Title:       row.Title,
			Slug:        row.Slug,
			IsPublished: row.IsPublished,
			WidgetCount: len(row.Widgets),
			UpdatedAt:   row.UpdatedAt,
		})
	}
	return out, nil
}

func (m *memStore) TitleTaken(_ context.Context, title, creatorID, excludeID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, row := range m.rows {
		if id.String() == excludeID || row.CreatorID != creatorID {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(row.Title), strings.TrimSpace(title)) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) Upsert(_ context.Context, sc *models.Scape) (uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	if sc.ID == uuid.Nil {
		row := *sc
		row.ID = uuid.New()
		row.IsPublished = false
		row.Visibility = models.VisibilityPublic
		row.CreatedAt, row.UpdatedAt = now, now
		m.rows[row.ID] = &row
		return row.ID, nil
	}
	row := m.rows[sc.ID]
	row.Title, row.Slug, row.Description, row.Tagline = sc.Title, sc.Slug, sc.Description, sc.Tagline
	row.BannerRef, row.FeatureWidgetID = sc.BannerRef, sc.FeatureWidgetID
	row.UpdatedAt = now
	return sc.ID, nil
}

func (m *memStore) ReplaceWidgets(_ context.Context, id uuid.UUID, ws []models.Widget) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Widget, len(ws))
	for i, w := range ws {
		w.ScapeID = id
		w.Position = i
		out[i] = w
	}
	m.rows[id].Widgets = out
	return nil
}

func (m *memStore) SetPublished(_ context.Context, id uuid.UUID, published bool, f *models.PublishFields) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	row := m.rows[id]
	row.IsPublished = published
	if f != nil {
		row.Visibility = f.Visibility
		row.CommentsEnabled = f.CommentsEnabled
		now := time.Now()
		row.PublishedAt = &now
	}
	return nil
}

func (m *memStore) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, id)
	return nil
}

// memHistory is an in-memory change log.
type memHistory struct {
	mu      sync.Mutex
	entries []store.ChangeEntry
	owners  []string
}

func (h *memHistory) ScapeChanged(_ context.Context, c publisher.Change) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries, store.ChangeEntry{
		ID:        int64(len(h.entries) + 1),
		ScapeID:   uuid.MustParse(c.ScapeID),
		Kind:      string(c.Kind),
		Published: c.Published,
		ChangedAt: time.Now(),
	})
	h.owners = append(h.owners, c.CreatorID)
}

func (h *memHistory) History(_ context.Context, scapeID, creatorID string, limit int) ([]store.ChangeEntry, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []store.ChangeEntry
	for i := len(h.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if h.entries[i].ScapeID.String() == scapeID && h.owners[i] == creatorID {
			out = append(out, h.entries[i])
		}
	}
	return out, nil
}

// prefixResolver resolves media refs by prefixing a fake CDN host.
type prefixResolver struct{}

func (prefixResolver) Resolve(_ context.Context, ref scape.MediaRef) (string, error) {
	if ref == "" {
		return "", nil
	}
	return "https://cdn.test/" + string(ref), nil
}

// testEnv holds all dependencies for handler tests.
type testEnv struct {
	store    *memStore
	sessions *editor.Manager
	views    *cache.ScapeCache
	history  *memHistory
	redis    *miniredis.Miniredis
	router   chi.Router
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	scapes := newMemStore()
	views := cache.NewScapeCache(client, 0)
	history := &memHistory{}
	svc := publisher.New(scapes, publisher.WithNotifier(views), publisher.WithNotifier(history))
	sessions := editor.NewManager(svc, scapes, nil, editor.Config{Debounce: time.Millisecond})
	t.Cleanup(sessions.Close)

	env := &testEnv{store: scapes, sessions: sessions, views: views, history: history, redis: mr}
	env.router = testRouter(
		NewEditor(sessions, nil),
		NewLibrary(scapes, svc, history),
		NewPublic(scapes, prefixResolver{}, views),
	)
	return env
}

// testCreator authenticates requests from the X-Test-Creator header.
func testCreator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := r.Header.Get("X-Test-Creator"); id != "" {
			r = r.WithContext(middleware.WithCreator(r.Context(), id))
		}
		next.ServeHTTP(w, r)
	})
}

func testRouter(ed *Editor, lib *Library, pub *Public) chi.Router {
	r := chi.NewRouter()
	r.Get("/s/{id}", pub.View)
	r.Route("/api", func(r chi.Router) {
		r.Use(testCreator)
		r.Get("/scapes", lib.List)
		r.Get("/scapes/title-check", lib.TitleCheck)
		r.Delete("/scapes/{id}", lib.Delete)
		r.Get("/scapes/{id}/history", lib.History)

		r.Post("/editor", ed.Open)
		r.Route("/editor/{sid}", func(r chi.Router) {
			r.Get("/", ed.Get)
			r.Delete("/", ed.Discard)
			r.Get("/ws", ed.Stream)
			r.Patch("/", ed.Patch)
			r.Post("/widgets", ed.AddWidget)
			r.Post("/move", ed.Move)
			r.Delete("/widgets/{wid}", ed.RemoveWidget)
			r.Post("/widgets/{wid}/feature", ed.ToggleFeature)
			r.Put("/widgets/{wid}/channel", ed.SetChannel)
			r.Put("/widgets/{wid}/caption", ed.SetCaption)
			r.Put("/widgets/{wid}/data", ed.SetData)
			r.Post("/save", ed.Save)
			r.Post("/publish", ed.Publish)
		})
	})
	return r
}

// do sends a request as creator (empty means anonymous) and returns the
// recorded response.
func (env *testEnv) do(t *testing.T, method, path, creator, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if creator != "" {
		req.Header.Set("X-Test-Creator", creator)
	}
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	return rec
}

// decode unmarshals a JSON response body into v.
func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(bytes.NewReader(rec.Body.Bytes())).Decode(v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

// stateResponse mirrors editor.State on the wire.
type stateResponse struct {
	SessionID string `json:"sessionId"`
	Version   uint64 `json:"version"`
	Draft     struct {
		ID              string `json:"id"`
		Title           string `json:"title"`
		Tagline         string `json:"tagline"`
		Banner          string `json:"banner"`
		FeatureWidgetID string `json:"featureWidgetId"`
		Widgets         []struct {
			ID              string          `json:"id"`
			Type            string          `json:"type"`
			Channel         string          `json:"channel"`
			Position        int             `json:"position"`
			IsFeature       bool            `json:"isFeature"`
			FeaturedCaption *string         `json:"featuredCaption"`
			Data            json.RawMessage `json:"data"`
		} `json:"widgets"`
	} `json:"draft"`
	Validation struct {
		Errors       []string `json:"errors"`
		CanSaveDraft bool     `json:"canSaveDraft"`
		CanPublish   bool     `json:"canPublish"`
	} `json:"validation"`
}

// openSession starts a session for creator and returns its id.
func (env *testEnv) openSession(t *testing.T, creator, scapeID string) string {
	t.Helper()
	rec := env.do(t, http.MethodPost, "/api/editor", creator, `{"scapeId":"`+scapeID+`"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("open session: status %d, body %s", rec.Code, rec.Body)
	}
	var st stateResponse
	decode(t, rec, &st)
	return st.SessionID
}

// addWidget appends a widget and returns its id.
func (env *testEnv) addWidget(t *testing.T, creator, sid, body string) string {
	t.Helper()
	rec := env.do(t, http.MethodPost, "/api/editor/"+sid+"/widgets", creator, body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("add widget: status %d, body %s", rec.Code, rec.Body)
	}
	var resp struct {
		WidgetID string `json:"widgetId"`
	}
	decode(t, rec, &resp)
	return resp.WidgetID
}

// state fetches the current session state.
func (env *testEnv) state(t *testing.T, creator, sid string) stateResponse {
	t.Helper()
	rec := env.do(t, http.MethodGet, "/api/editor/"+sid+"/", creator, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get session: status %d, body %s", rec.Code, rec.Body)
	}
	var st stateResponse
	decode(t, rec, &st)
	return st
}

// publishScape builds and publishes a one-widget scape, returning its id.
func (env *testEnv) publishScape(t *testing.T, creator, title string) string {
	t.Helper()
	sid := env.openSession(t, creator, scape.NewID)
	if rec := env.do(t, http.MethodPatch, "/api/editor/"+sid+"/", creator, `{"title":"`+title+`","banner":"banners/b.png"}`); rec.Code != http.StatusOK {
		t.Fatalf("patch: status %d, body %s", rec.Code, rec.Body)
	}
	env.addWidget(t, creator, sid, `{"type":"image","data":{"media":"photos/a.jpg","alt":"a"}}`)
	rec := env.do(t, http.MethodPost, "/api/editor/"+sid+"/publish", creator, `{"visibility":"public"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("publish: status %d, body %s", rec.Code, rec.Body)
	}
	var resp struct {
		Result publisher.Result `json:"result"`
	}
	decode(t, rec, &resp)
	return resp.Result.ScapeID
}
