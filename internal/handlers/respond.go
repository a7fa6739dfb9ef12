// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers implements the JSON editor API, the creator's scape
// library and the public read endpoint.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"scapes/internal/editor"
	"scapes/internal/publisher"
	"scapes/internal/scape"
)

// maxBodyBytes bounds every JSON request body.
const maxBodyBytes = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their JSON names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// errBadRequest marks request errors that map to 400.
var errBadRequest = errors.New("bad request")

// bind decodes the JSON body into dst and runs its validate tags. An
// empty body is allowed when optional is true.
func bind(w http.ResponseWriter, r *http.Request, dst any, optional bool) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if !(optional && errors.Is(err, io.EOF)) {
			return fmt.Errorf("%w: invalid JSON body: %v", errBadRequest, err)
		}
	}
	if err := validate.Struct(dst); err != nil {
		return errorFromValidation(err)
	}
	return nil
}

// errorFromValidation turns a validator error into a 400.
func errorFromValidation(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return fmt.Errorf("%w: %s", errBadRequest, describe(verrs))
	}
	return fmt.Errorf("%w: %v", errBadRequest, err)
}

func describe(verrs validator.ValidationErrors) string {
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Field()
		switch fe.Tag() {
		case "required", "required_without", "required_with":
			msgs = append(msgs, field+" is required")
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of: %s", field, fe.Param()))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s is too long (max %s)", field, fe.Param()))
		case "min":
			msgs = append(msgs, fmt.Sprintf("%s must be at least %s", field, fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid", field))
		}
	}
	return strings.Join(msgs, "; ")
}

// writeJSON encodes data with the given status.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Warn("write json response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// respondError maps domain errors to HTTP statuses. Unknown errors are
// logged and reported as 500 without detail.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *editor.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"errors": verr.Errors})
	case errors.Is(err, errBadRequest):
		writeError(w, http.StatusBadRequest, strings.TrimPrefix(err.Error(), errBadRequest.Error()+": "))
	case errors.Is(err, publisher.ErrMissingCreator):
		writeError(w, http.StatusUnauthorized, "authentication required")
	case errors.Is(err, publisher.ErrUnauthorized):
		writeError(w, http.StatusForbidden, "only the owner can change this scape")
	case errors.Is(err, editor.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, "editing session not found")
	case errors.Is(err, publisher.ErrNotFound):
		writeError(w, http.StatusNotFound, "scape not found")
	case errors.Is(err, scape.ErrWidgetNotFound):
		writeError(w, http.StatusNotFound, "widget not found")
	case errors.Is(err, editor.ErrSaveInProgress):
		writeError(w, http.StatusConflict, "a save is already in progress")
	case isStructural(err):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"errors": []string{err.Error()}})
	case errors.Is(err, publisher.ErrPersistFailed):
		slog.Error("persist failed", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "Could not save your scape. Please try again.")
	default:
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func isStructural(err error) bool {
	for _, target := range []error{
		scape.ErrNotFeatured,
		scape.ErrPayloadMismatch,
		scape.ErrUnknownType,
		scape.ErrUnknownVariant,
		scape.ErrUnknownChannel,
		scape.ErrDuplicateWidget,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
