// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"scapes/internal/middleware"
	"scapes/internal/models"
	"scapes/internal/publisher"
	"scapes/internal/store"
)

// ScapeLister lists a creator's scapes for the dashboard.
type ScapeLister interface {
	ListByCreator(ctx context.Context, creatorID string) ([]models.ScapeSummary, error)
}

// ScapeService is the subset of the publisher used outside editing
// sessions.
type ScapeService interface {
	CheckTitle(ctx context.Context, title, creatorID, excludeID string) (bool, error)
	Delete(ctx context.Context, id, creatorID string) error
}

// ChangeHistory reads the change log of a creator's scape.
type ChangeHistory interface {
	History(ctx context.Context, scapeID, creatorID string, limit int) ([]store.ChangeEntry, error)
}

// Library groups the creator's scape management endpoints.
type Library struct {
	scapes  ScapeLister
	service ScapeService
	history ChangeHistory
}

// NewLibrary creates the library handler group. history may be nil.
func NewLibrary(scapes ScapeLister, service ScapeService, history ChangeHistory) *Library {
	return &Library{scapes: scapes, service: service, history: history}
}

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

type titleCheckQuery struct {
	Title     string `json:"title" validate:"required,max=200"`
	ExcludeID string `json:"excludeId" validate:"omitempty,uuid"`
}

type titleCheckResponse struct {
	Title  string `json:"title"`
	Taken  bool   `json:"taken"`
	Unique bool   `json:"unique"`
}

// List returns the creator's scapes, most recently updated first.
func (h *Library) List(w http.ResponseWriter, r *http.Request) {
	creatorID := middleware.CreatorFromCtx(r.Context())
	if creatorID == "" {
		respondError(w, r, publisher.ErrMissingCreator)
		return
	}
	list, err := h.scapes.ListByCreator(r.Context(), creatorID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if list == nil {
		list = []models.ScapeSummary{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"scapes": list})
}

// TitleCheck reports whether a title is already used by another of the
// creator's scapes. It answers immediately, without the editor's debounce.
func (h *Library) TitleCheck(w http.ResponseWriter, r *http.Request) {
	q := titleCheckQuery{
		Title:     strings.TrimSpace(r.URL.Query().Get("title")),
		ExcludeID: r.URL.Query().Get("excludeId"),
	}
	if err := validate.Struct(&q); err != nil {
		respondError(w, r, errorFromValidation(err))
		return
	}

	taken, err := h.service.CheckTitle(r.Context(), q.Title, middleware.CreatorFromCtx(r.Context()), q.ExcludeID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, titleCheckResponse{Title: q.Title, Taken: taken, Unique: !taken})
}

// Delete removes one of the creator's scapes.
func (h *Library) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.service.Delete(r.Context(), chi.URLParam(r, "id"), middleware.CreatorFromCtx(r.Context()))
	if err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// History lists the latest saves, publishes and deletions of a scape.
func (h *Library) History(w http.ResponseWriter, r *http.Request) {
	creatorID := middleware.CreatorFromCtx(r.Context())
	if creatorID == "" {
		respondError(w, r, publisher.ErrMissingCreator)
		return
	}

	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respondError(w, r, fmt.Errorf("%w: limit must be a positive integer", errBadRequest))
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	entries := []store.ChangeEntry{}
	if h.history != nil {
		got, err := h.history.History(r.Context(), chi.URLParam(r, "id"), creatorID, limit)
		if err != nil {
			respondError(w, r, err)
			return
		}
		if got != nil {
			entries = got
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"changes": entries})
}
