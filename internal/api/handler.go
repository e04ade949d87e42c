package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/eugenenazirov/confstore/internal/argv"
)

type contextKey string

const requestIDContextKey contextKey = "requestID"

// Handler serves a read-only view of a configuration snapshot.
type Handler struct {
	snapshot *argv.Snapshot

	clock func() time.Time
}

// HandlerOption configures Handler behaviour.
type HandlerOption func(*Handler)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) HandlerOption {
	return func(h *Handler) {
		h.clock = clock
	}
}

// NewHandler constructs a Handler over snap.
func NewHandler(snap *argv.Snapshot, opts ...HandlerOption) *Handler {
	h := &Handler{
		snapshot: snap,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	_ = r
	resp := healthResponse{
		Status:          "ok",
		Timestamp:       h.clock(),
		SnapshotTakenAt: h.snapshot.TakenAt(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleListSettings(w http.ResponseWriter, r *http.Request) {
	_ = r
	resp := settingsResponse{
		Settings: h.snapshot.Settings(),
		Commands: nonNil(h.snapshot.Commands()),
		Unknown:  h.snapshot.Unknown(),
		TakenAt:  h.snapshot.TakenAt(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetSetting(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	setting, ok := h.snapshot.Setting(name)
	if !ok {
		suggestion := ""
		if alternative := argv.Deprecated(name); alternative != "" {
			suggestion = fmt.Sprintf("'%s' is deprecated, use '%s' instead", name, alternative)
		}
		writeError(w, http.StatusNotFound, "Unknown setting", fmt.Sprintf("setting %q is not set", name), suggestion)
		return
	}
	writeJSON(w, http.StatusOK, setting)
}

func (h *Handler) handleConfig(w http.ResponseWriter, r *http.Request) {
	full := false
	if raw := r.URL.Query().Get("full"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request", "full must be a boolean")
			return
		}
		full = parsed
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(h.snapshot.Config(full)))
}

func (h *Handler) handleDiff(w http.ResponseWriter, r *http.Request) {
	_ = r
	resp := diffResponse{
		Changes: nonNil(h.snapshot.Diff()),
		TakenAt: h.snapshot.TakenAt(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func requestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDContextKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

type settingsResponse struct {
	Settings []argv.Setting    `json:"settings"`
	Commands []string          `json:"commands"`
	Unknown  map[string]string `json:"unknown"`
	TakenAt  time.Time         `json:"takenAt"`
}

type diffResponse struct {
	Changes []argv.Change `json:"changes"`
	TakenAt time.Time     `json:"takenAt"`
}

type healthResponse struct {
	Status          string    `json:"status"`
	Timestamp       time.Time `json:"timestamp"`
	SnapshotTakenAt time.Time `json:"snapshotTakenAt"`
}

type errorResponse struct {
	Error      string `json:"error"`
	Details    string `json:"details,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message, details string, suggestion ...string) {
	resp := errorResponse{
		Error:   message,
		Details: details,
	}
	if len(suggestion) > 0 {
		resp.Suggestion = suggestion[0]
	}
	writeJSON(w, status, resp)
}

func writeInternalError(w http.ResponseWriter, err error) {
	writeError(w, http.StatusInternalServerError, "Internal error", err.Error())
}
