// Package handler exposes the script service over plain HTTP, Connect and
// websockets.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"scriptsmith/internal/llm"
	"scriptsmith/internal/repository/archive"
	"scriptsmith/internal/repository/scripts"
	"scriptsmith/internal/service/generate"
)

// ScriptService is the subset of generate.Service the handlers use.
type ScriptService interface {
	Generate(ctx context.Context, req generate.Request) (*generate.Response, error)
	Recent(ctx context.Context, limit int) ([]scripts.Record, error)
	Script(ctx context.Context, id string) (scripts.Record, error)
	Archived(ctx context.Context, runID string) ([]byte, error)
}

// UsageReporter exposes per-role LLM traffic counters.
type UsageReporter interface {
	Snapshot() []llm.RoleUsage
}

type ScriptHandler struct {
	svc   ScriptService
	usage UsageReporter
}

func NewScriptHandler(svc ScriptService, usage UsageReporter) *ScriptHandler {
	return &ScriptHandler{svc: svc, usage: usage}
}

// maxBodyBytes bounds request bodies; data is free text but not a document.
const maxBodyBytes = 1 << 20

func (h *ScriptHandler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var in generate.Request
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	out, err := h.svc.Generate(r.Context(), in)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *ScriptHandler) HandleListScripts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	limit := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	items, err := h.svc.Recent(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if items == nil {
		items = []scripts.Record{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"scripts": items})
}

func (h *ScriptHandler) HandleGetScript(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}
	rec, err := h.svc.Script(r.Context(), id)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *ScriptHandler) HandleRunArchive(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	runID := strings.TrimSpace(r.PathValue("id"))
	raw, err := h.svc.Archived(r.Context(), runID)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(raw)
}

func (h *ScriptHandler) HandleUsage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var roles []llm.RoleUsage
	if h.usage != nil {
		roles = h.usage.Snapshot()
	}
	if roles == nil {
		roles = []llm.RoleUsage{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"roles": roles})
}

func HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, generate.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, scripts.ErrNotFound), errors.Is(err, archive.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	default:
		if strings.Contains(strings.ToLower(err.Error()), "required") {
			return http.StatusBadRequest
		}
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"error": msg, "success": false})
}
