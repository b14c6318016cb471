// Package server exposes the session boundary over HTTP.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/smallnest/scopeagent/log"
	"github.com/smallnest/scopeagent/render"
	"github.com/smallnest/scopeagent/scope"
	"github.com/smallnest/scopeagent/session"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 64 << 10

// Handler serves the session API.
type Handler struct {
	sessions *session.Manager
	logger   log.Logger
}

// NewHandler creates a Handler over the session manager.
func NewHandler(m *session.Manager, logger log.Logger) *Handler {
	if logger == nil {
		logger = log.GetDefaultLogger()
	}
	return &Handler{sessions: m, logger: logger}
}

// Router builds the chi router with the standard middleware stack.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))

	h.RegisterRoutes(r)
	return r
}

// RegisterRoutes mounts the session routes on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", h.createSession)
		r.Get("/", h.listSessions)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.getSession)
			r.Delete("/", h.deleteSession)
			r.Post("/messages", h.postMessage)
			r.Get("/brief", h.getBrief)
		})
	})
}

type messageRequest struct {
	Message string `json:"message"`
}

type createResponse struct {
	ID     string       `json:"id"`
	Status scope.Status `json:"status"`
}

func (h *Handler) createSession(w http.ResponseWriter, r *http.Request) {
	st, err := h.sessions.Start(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	JSON(w, http.StatusCreated, createResponse{ID: st.ID, Status: st.Status})
}

func (h *Handler) listSessions(w http.ResponseWriter, r *http.Request) {
	list, err := h.sessions.List(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]any{"sessions": list})
}

func (h *Handler) getSession(w http.ResponseWriter, r *http.Request) {
	st, err := h.sessions.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, err)
		return
	}
	JSON(w, http.StatusOK, st)
}

func (h *Handler) deleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) postMessage(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		Error(w, http.StatusBadRequest, "message is required")
		return
	}

	reply, err := h.sessions.Send(r.Context(), chi.URLParam(r, "id"), req.Message)
	if err != nil {
		h.fail(w, err)
		return
	}
	JSON(w, http.StatusOK, reply)
}

// getBrief renders the finished brief as an HTML page, or as markdown with
// ?format=markdown.
func (h *Handler) getBrief(w http.ResponseWriter, r *http.Request) {
	st, err := h.sessions.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, err)
		return
	}
	if st.Brief == nil {
		Error(w, http.StatusNotFound, "no research brief for this session")
		return
	}

	md := scope.FormatBrief(st.Brief)
	if r.URL.Query().Get("format") == "markdown" {
		if st.Report != "" {
			md += "\n" + st.Report + "\n"
		}
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(md))
		return
	}

	title := st.Brief.Title()
	if title == "" {
		title = "Research Brief"
	}
	page, err := render.Page(title, md, st.Report)
	if err != nil {
		h.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(page))
}

// fail maps domain errors onto status codes.
func (h *Handler) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrNotFound):
		Error(w, http.StatusNotFound, "session not found")
	case errors.Is(err, scope.ErrSessionDone):
		Error(w, http.StatusConflict, "session is already done")
	case errors.Is(err, session.ErrConflict):
		Error(w, http.StatusConflict, "session was updated by another request")
	case errors.Is(err, scope.ErrEmptyInput), errors.Is(err, session.ErrInvalidID):
		Error(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("request failed: %v", err)
		Error(w, http.StatusInternalServerError, "internal error")
	}
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}
