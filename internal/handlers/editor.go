// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"scapes/internal/editor"
	"scapes/internal/middleware"
	"scapes/internal/models"
	"scapes/internal/publisher"
	"scapes/internal/scape"
)

// MediaNormalizer rewrites media URLs that point into our own storage
// back to storage keys before they are stored in a draft.
type MediaNormalizer interface {
	Normalize(ref scape.MediaRef) scape.MediaRef
}

// Editor groups the editing session endpoints.
type Editor struct {
	sessions *editor.Manager
	media    MediaNormalizer
}

// NewEditor creates the editor handler group. media may be nil.
func NewEditor(sessions *editor.Manager, media MediaNormalizer) *Editor {
	return &Editor{sessions: sessions, media: media}
}

type openRequest struct {
	ScapeID string `json:"scapeId" validate:"required,uuid|eq=new"`
}

type patchRequest struct {
	Title       *string `json:"title" validate:"omitempty,max=200"`
	Description *string `json:"description" validate:"omitempty,max=5000"`
	Tagline     *string `json:"tagline" validate:"omitempty,max=1000"`
	Banner      *string `json:"banner" validate:"omitempty,max=2048"`
}

type addWidgetRequest struct {
	Type    string          `json:"type" validate:"required,oneof=text image audio gallery shop live button llm header"`
	Variant string          `json:"variant" validate:"omitempty,max=32"`
	Data    json.RawMessage `json:"data"`
}

type moveRequest struct {
	From      *int   `json:"from" validate:"required_without=WidgetID"`
	To        *int   `json:"to" validate:"required_with=From"`
	WidgetID  string `json:"widgetId" validate:"required_without=From"`
	Direction string `json:"direction" validate:"omitempty,oneof=up down"`
}

type channelRequest struct {
	Channel string `json:"channel" validate:"required,oneof=red green blue neutral"`
}

type captionRequest struct {
	Caption string `json:"caption" validate:"max=2000"`
}

type dataRequest struct {
	Data json.RawMessage `json:"data" validate:"required"`
}

type saveRequest struct {
	PreservePublishedState bool `json:"preservePublishedState"`
}

type publishRequest struct {
	Visibility      string `json:"visibility" validate:"omitempty,oneof=public unlisted private"`
	CommentsEnabled *bool  `json:"commentsEnabled"`
}

type widgetResponse struct {
	WidgetID string       `json:"widgetId"`
	State    editor.State `json:"state"`
}

type persistResponse struct {
	Result publisher.Result `json:"result"`
	State  editor.State     `json:"state"`
}

// Open starts an editing session for a new draft or an owned scape.
func (h *Editor) Open(w http.ResponseWriter, r *http.Request) {
	creatorID := middleware.CreatorFromCtx(r.Context())
	var req openRequest
	if err := bind(w, r, &req, false); err != nil {
		respondError(w, r, err)
		return
	}
	s, err := h.sessions.Open(r.Context(), creatorID, req.ScapeID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, s.State())
}

// Get returns the session's draft and validation.
func (h *Editor) Get(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.State())
}

// Discard closes the session without saving.
func (h *Editor) Discard(w http.ResponseWriter, r *http.Request) {
	creatorID := middleware.CreatorFromCtx(r.Context())
	if creatorID == "" {
		respondError(w, r, publisher.ErrMissingCreator)
		return
	}
	if err := h.sessions.Discard(r.Context(), chi.URLParam(r, "sid"), creatorID); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Patch updates scape-level fields. Absent fields are left alone.
func (h *Editor) Patch(w http.ResponseWriter, r *http.Request) {
	var req patchRequest
	if err := bind(w, r, &req, false); err != nil {
		respondError(w, r, err)
		return
	}
	h.apply(w, r, func(d *scape.Draft) error {
		if req.Title != nil {
			d.SetTitle(*req.Title)
		}
		if req.Description != nil {
			d.SetDescription(*req.Description)
		}
		if req.Tagline != nil {
			d.SetTagline(*req.Tagline)
		}
		if req.Banner != nil {
			d.SetBanner(h.normalize(scape.MediaRef(strings.TrimSpace(*req.Banner))))
		}
		return nil
	})
}

// AddWidget creates a widget and appends it to the draft.
func (h *Editor) AddWidget(w http.ResponseWriter, r *http.Request) {
	var req addWidgetRequest
	if err := bind(w, r, &req, false); err != nil {
		respondError(w, r, err)
		return
	}
	wt := scape.WidgetType(req.Type)
	p, err := scape.DecodePayload(wt, req.Data)
	if err != nil {
		respondError(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	widget, err := scape.NewWidget(wt, scape.Variant(req.Variant), h.normalizePayload(p))
	if err != nil {
		respondError(w, r, err)
		return
	}

	s, ok := h.session(w, r)
	if !ok {
		return
	}
	st, err := s.Apply(r.Context(), func(d *scape.Draft) error { return d.Append(widget) })
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, widgetResponse{WidgetID: widget.ID, State: st})
}

// RemoveWidget deletes a widget from the draft.
func (h *Editor) RemoveWidget(w http.ResponseWriter, r *http.Request) {
	wid := chi.URLParam(r, "wid")
	h.apply(w, r, func(d *scape.Draft) error { return d.Remove(wid) })
}

// Move reorders widgets, either by index ({from,to}) or one step
// ({widgetId,direction}).
func (h *Editor) Move(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if err := bind(w, r, &req, false); err != nil {
		respondError(w, r, err)
		return
	}
	if req.From == nil && req.Direction == "" {
		respondError(w, r, fmt.Errorf("%w: direction is required", errBadRequest))
		return
	}
	h.apply(w, r, func(d *scape.Draft) error {
		if req.From != nil {
			d.MoveTo(*req.From, *req.To)
			return nil
		}
		delta := 1
		if req.Direction == "up" {
			delta = -1
		}
		return d.MoveStep(req.WidgetID, delta)
	})
}

// ToggleFeature makes the widget the feature widget, or clears the
// feature if it already is one.
func (h *Editor) ToggleFeature(w http.ResponseWriter, r *http.Request) {
	wid := chi.URLParam(r, "wid")
	h.apply(w, r, func(d *scape.Draft) error { return d.SetFeature(wid) })
}

// SetChannel retags a widget.
func (h *Editor) SetChannel(w http.ResponseWriter, r *http.Request) {
	var req channelRequest
	if err := bind(w, r, &req, false); err != nil {
		respondError(w, r, err)
		return
	}
	wid := chi.URLParam(r, "wid")
	h.apply(w, r, func(d *scape.Draft) error { return d.SetChannel(wid, scape.Channel(req.Channel)) })
}

// SetCaption sets the featured caption.
func (h *Editor) SetCaption(w http.ResponseWriter, r *http.Request) {
	var req captionRequest
	if err := bind(w, r, &req, false); err != nil {
		respondError(w, r, err)
		return
	}
	wid := chi.URLParam(r, "wid")
	h.apply(w, r, func(d *scape.Draft) error { return d.SetCaption(wid, req.Caption) })
}

// SetData replaces a widget's payload. The payload is decoded against the
// widget's type.
func (h *Editor) SetData(w http.ResponseWriter, r *http.Request) {
	var req dataRequest
	if err := bind(w, r, &req, false); err != nil {
		respondError(w, r, err)
		return
	}
	wid := chi.URLParam(r, "wid")
	h.apply(w, r, func(d *scape.Draft) error {
		widget, ok := d.Widget(wid)
		if !ok {
			return fmt.Errorf("set data %s: %w", wid, scape.ErrWidgetNotFound)
		}
		p, err := scape.DecodePayload(widget.Type, req.Data)
		if err != nil {
			return fmt.Errorf("%w: %v", errBadRequest, err)
		}
		return d.SetPayload(wid, h.normalizePayload(p))
	})
}

// Save persists the draft.
func (h *Editor) Save(w http.ResponseWriter, r *http.Request) {
	var req saveRequest
	if err := bind(w, r, &req, true); err != nil {
		respondError(w, r, err)
		return
	}
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	res, st, err := s.Save(r.Context(), publisher.SaveOptions{PreservePublishedState: req.PreservePublishedState})
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, persistResponse{Result: res, State: st})
}

// Publish persists the draft and makes it live.
func (h *Editor) Publish(w http.ResponseWriter, r *http.Request) {
	var req publishRequest
	if err := bind(w, r, &req, true); err != nil {
		respondError(w, r, err)
		return
	}
	vis, err := models.ParseVisibility(req.Visibility)
	if err != nil {
		respondError(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	comments := true
	if req.CommentsEnabled != nil {
		comments = *req.CommentsEnabled
	}

	s, ok := h.session(w, r)
	if !ok {
		return
	}
	res, st, err := s.Publish(r.Context(), publisher.PublishOptions{Visibility: vis, CommentsEnabled: comments})
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, persistResponse{Result: res, State: st})
}

// session resolves the {sid} URL parameter for the authenticated creator.
// It writes the error response itself and reports whether to continue.
func (h *Editor) session(w http.ResponseWriter, r *http.Request) (*editor.Session, bool) {
	creatorID := middleware.CreatorFromCtx(r.Context())
	if creatorID == "" {
		respondError(w, r, publisher.ErrMissingCreator)
		return nil, false
	}
	s, err := h.sessions.Get(r.Context(), chi.URLParam(r, "sid"), creatorID)
	if err != nil {
		respondError(w, r, err)
		return nil, false
	}
	return s, true
}

func (h *Editor) apply(w http.ResponseWriter, r *http.Request, fn func(*scape.Draft) error) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	st, err := s.Apply(r.Context(), fn)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (h *Editor) normalize(ref scape.MediaRef) scape.MediaRef {
	if h.media == nil {
		return ref
	}
	return h.media.Normalize(ref)
}

// normalizePayload applies normalize to every media reference in p.
func (h *Editor) normalizePayload(p scape.Payload) scape.Payload {
	if h.media == nil {
		return p
	}
	out, _ := mapMedia(p, func(ref scape.MediaRef) (scape.MediaRef, error) {
		return h.media.Normalize(ref), nil
	})
	return out
}
