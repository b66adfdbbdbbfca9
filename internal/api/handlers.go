package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/daymark/internal/apperr"
	"github.com/starford/daymark/internal/engine"
	"github.com/starford/daymark/internal/gate"
	"github.com/starford/daymark/internal/journal"
	"github.com/starford/daymark/internal/metadoc"
	"github.com/starford/daymark/internal/policy"
)

// Handler holds API route handlers.
type Handler struct {
	eng *engine.Service
	g   *gate.Gate
	db  journal.Ledger
}

// NewHandler creates a new Handler.
func NewHandler(eng *engine.Service, g *gate.Gate, db journal.Ledger) *Handler {
	return &Handler{eng: eng, g: g, db: db}
}

// docPath extracts the document path from the URL (everything after the
// route prefix). Supports encoded slashes (e.g. daily%2Fnote.md).
func docPath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// Recent handles GET /api/documents: journal entries, most recent first.
func (h *Handler) Recent(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := h.db.Recent(limit)
	if err != nil {
		slog.Error("recent stamps failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if entries == nil {
		entries = []journal.Entry{}
	}
	writeJSON(w, http.StatusOK, RecentResponse{Stamps: entries, Total: len(entries)})
}

// Detail handles GET /api/documents/*: the parsed header of one note.
func (h *Handler) Detail(w http.ResponseWriter, r *http.Request) {
	path := docPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	d, err := h.eng.Detail(r.Context(), path)
	if err != nil {
		h.writeError(w, path, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// Stamp handles POST /api/stamp: an explicit stamp trigger. Explicit
// triggers bypass the debounce but still honor the in-flight write guard.
func (h *Handler) Stamp(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req StampRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid json body"))
		return
	}
	if req.Path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	if !h.g.InScope(req.Path) {
		writeJSON(w, http.StatusBadRequest, errorBody("document out of scope: "+req.Path))
		return
	}

	var (
		res *engine.Result
		err error
	)
	switch req.Kind {
	case "", engine.ManualKind:
		res, err = h.withGuard(r, req.Path, func() (*engine.Result, error) {
			return h.eng.AddToday(r.Context(), req.Path)
		})
	case string(policy.KindTemplateDone):
		res, err = gate.StampAfterTemplate(r.Context(), h.g, h.eng, req.Path)
	case string(policy.KindNew), string(policy.KindEdit):
		kind := policy.Kind(req.Kind)
		res, err = h.withGuard(r, req.Path, func() (*engine.Result, error) {
			return h.eng.Process(r.Context(), req.Path, kind)
		})
	default:
		writeJSON(w, http.StatusBadRequest, errorBody("unknown kind: "+req.Kind))
		return
	}

	if err != nil {
		h.writeError(w, req.Path, err)
		return
	}
	if res == nil {
		writeJSON(w, http.StatusConflict, errorBody("document busy: "+req.Path))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) withGuard(_ *http.Request, path string, fn func() (*engine.Result, error)) (*engine.Result, error) {
	if !h.g.Begin(path) {
		return nil, nil
	}
	defer h.g.End(path)
	return fn()
}

// writeError maps engine failures onto status codes and logs once, with the
// document path in both places.
func (h *Handler) writeError(w http.ResponseWriter, path string, err error) {
	var pe *metadoc.ParseError
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("not found: "+path))
	case errors.As(err, &pe):
		slog.Error("frontmatter parse failed", slog.String("path", path), slog.String("error", err.Error()))
		writeJSON(w, http.StatusUnprocessableEntity, errorBody(err.Error()))
	case errors.Is(err, apperr.ErrBadKind):
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
	default:
		slog.Error("stamp failed", slog.String("path", path), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}
