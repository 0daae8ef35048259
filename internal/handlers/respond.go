// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers contains the JSON HTTP handlers of the catalog API.
// Handlers are grouped by audience (Feed, Sites, Admin, Auth, Submissions),
// each created with its dependencies through a NewX constructor.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"refto/internal/feed"
	"refto/internal/store"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// errorBody is the shape of every error response.
type errorBody struct {
	Error string            `json:"error"`
	Field map[string]string `json:"fields,omitempty"`
}

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response failed", "error", err)
	}
}

// writeError sends a JSON error message.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// handleError maps a service or store error onto an HTTP response. Unknown
// errors are logged and answered with a generic 500.
func handleError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *feed.ValidationError
	var fe fieldErrors
	switch {
	case errors.As(err, &fe):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "validation failed", Field: fe})
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, errorBody{
			Error: ve.Error(),
			Field: map[string]string{ve.Field: ve.Message},
		})
	case errors.Is(err, feed.ErrNotFound), errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, store.ErrConflict):
		writeError(w, http.StatusConflict, "already exists")
	case errors.Is(err, store.ErrNotEditable):
		writeError(w, http.StatusConflict, "submission can no longer be edited")
	default:
		slog.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// decodeJSON reads a JSON body into dst and validates it.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return &feed.ValidationError{Field: "body", Message: "empty request body"}
		}
		return &feed.ValidationError{Field: "body", Message: err.Error()}
	}
	return validateStruct(dst)
}

// uuidParam parses a chi URL parameter as a UUID.
func uuidParam(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, &feed.ValidationError{Field: name, Message: "must be a UUID"}
	}
	return id, nil
}

// queryInt reads an optional integer query parameter. Missing means 0.
func queryInt(r *http.Request, name string) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &feed.ValidationError{Field: name, Message: "must be an integer"}
	}
	return n, nil
}

// queryBool reads an optional boolean query parameter.
func queryBool(r *http.Request, name string) (*bool, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, &feed.ValidationError{Field: name, Message: "must be true or false"}
	}
	return &b, nil
}

// queryUUIDs reads a comma-separated list of UUIDs.
func queryUUIDs(r *http.Request, name string) ([]uuid.UUID, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, nil
	}
	var ids []uuid.UUID
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := uuid.Parse(part)
		if err != nil {
			return nil, &feed.ValidationError{Field: name, Message: fmt.Sprintf("%q is not a UUID", part)}
		}
		ids = append(ids, id)
	}
	return ids, nil
}
