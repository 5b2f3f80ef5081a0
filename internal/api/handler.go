// Package api exposes editing sessions over JSON/HTTP.
//
// Every request that changes the graph records one history step, except
// when it carries ?transient=1. Gestures send their intermediate updates as
// transient and the final one without the flag.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gyaneshwarpardhi/patchbay/internal/editor"
	"github.com/gyaneshwarpardhi/patchbay/internal/nodedef"
	"github.com/gyaneshwarpardhi/patchbay/internal/project"
	"github.com/gyaneshwarpardhi/patchbay/internal/session"
)

// Handler holds all HTTP handler dependencies.
type Handler struct {
	sessions *session.Manager
	projects project.Store
	logger   *slog.Logger
	mux      *http.ServeMux
}

// New creates an HTTP handler and registers all routes.
func New(sessions *session.Manager, projects project.Store, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{sessions: sessions, projects: projects, logger: logger, mux: http.NewServeMux()}

	h.mux.HandleFunc("POST /v1/sessions", h.createSession)
	h.mux.HandleFunc("GET /v1/sessions", h.listSessions)
	h.mux.HandleFunc("GET /v1/sessions/{id}", h.getSession)
	h.mux.HandleFunc("DELETE /v1/sessions/{id}", h.closeSession)
	h.mux.HandleFunc("GET /v1/sessions/{id}/document", h.getDocument)
	h.mux.HandleFunc("PUT /v1/sessions/{id}/document", h.loadDocument)
	h.mux.HandleFunc("GET /v1/sessions/{id}/history", h.getHistory)

	h.mux.HandleFunc("POST /v1/sessions/{id}/nodes", h.createNode)
	h.mux.HandleFunc("PUT /v1/sessions/{id}/nodes/{node}/position", h.setNodePosition)
	h.mux.HandleFunc("PUT /v1/sessions/{id}/nodes/{node}/name", h.setNodeName)
	h.mux.HandleFunc("PUT /v1/sessions/{id}/nodes/{node}/width", h.setNodeWidth)
	h.mux.HandleFunc("POST /v1/sessions/{id}/nodes/{node}/fold", h.toggleFold)
	h.mux.HandleFunc("PUT /v1/sessions/{id}/nodes/{node}/params/{param}", h.setParam)
	h.mux.HandleFunc("POST /v1/sessions/{id}/nodes/{node}/front", h.sendToFront)
	h.mux.HandleFunc("POST /v1/sessions/{id}/containers", h.createContainer)
	h.mux.HandleFunc("PUT /v1/sessions/{id}/containers/{container}/bounds", h.setContainerBounds)
	h.mux.HandleFunc("PUT /v1/sessions/{id}/containers/{container}/name", h.setContainerName)
	h.mux.HandleFunc("POST /v1/sessions/{id}/connections", h.connect)
	h.mux.HandleFunc("POST /v1/sessions/{id}/temporary-connection", h.createTemporaryConnection)
	h.mux.HandleFunc("POST /v1/sessions/{id}/temporary-connection/apply", h.applyTemporaryConnection)
	h.mux.HandleFunc("DELETE /v1/sessions/{id}/temporary-connection", h.removeTemporaryConnection)
	h.mux.HandleFunc("POST /v1/sessions/{id}/remove", h.remove)
	h.mux.HandleFunc("POST /v1/sessions/{id}/selection/move", h.moveSelection)
	h.mux.HandleFunc("POST /v1/sessions/{id}/select", h.selectItem)
	h.mux.HandleFunc("DELETE /v1/sessions/{id}/selection", h.clearSelection)
	h.mux.HandleFunc("PUT /v1/sessions/{id}/viewport", h.setViewport)
	h.mux.HandleFunc("POST /v1/sessions/{id}/undo", h.undo)
	h.mux.HandleFunc("POST /v1/sessions/{id}/redo", h.redo)
	h.mux.HandleFunc("POST /v1/sessions/{id}/save-point", h.setSavePoint)

	h.mux.HandleFunc("POST /v1/sessions/{id}/save", h.saveProject)
	h.mux.HandleFunc("POST /v1/sessions/{id}/open", h.openProject)
	h.mux.HandleFunc("GET /v1/projects", h.listProjects)
	h.mux.HandleFunc("DELETE /v1/projects/{name}", h.deleteProject)

	h.mux.HandleFunc("GET /v1/kinds", h.listKinds)
	h.mux.HandleFunc("GET /healthz", h.healthz)
	h.mux.HandleFunc("GET /readyz", h.readyz)
	h.mux.Handle("GET /metrics", promhttp.Handler())

	return loggingMiddleware(logger, h.mux)
}

// do runs fn on the session named by the {id} path segment.
func (h *Handler) do(r *http.Request, fn func(e *editor.Editor) error) error {
	s, err := h.sessions.Get(r.PathValue("id"))
	if err != nil {
		return err
	}
	return s.Do(r.Context(), fn)
}

// command runs a mutating fn on the session and records a history step
// named description if the graph moved away from the last snapshot.
func (h *Handler) command(w http.ResponseWriter, r *http.Request, description string, fn func(e *editor.Editor) (any, error)) {
	transient := r.URL.Query().Get("transient") == "1"
	var out any
	err := h.do(r, func(e *editor.Editor) error {
		v, err := fn(e)
		if err != nil {
			return err
		}
		if !transient && e.Dirty() {
			e.PushTransaction(description)
		}
		out = v
		return nil
	})
	if err != nil {
		fail(w, err)
		return
	}
	if out == nil {
		out = map[string]interface{}{"ok": true}
	}
	writeJSON(w, http.StatusOK, out)
}

type sessionView struct {
	ID      string             `json:"id"`
	Created time.Time          `json:"created"`
	Project string             `json:"project"`
	History editor.HistoryInfo `json:"history"`
}

// POST /v1/sessions
func (h *Handler) createSession(w http.ResponseWriter, r *http.Request) {
	s, err := h.sessions.Create()
	if err != nil {
		fail(w, err)
		return
	}
	view, err := describe(r.Context(), s)
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

func describe(ctx context.Context, s *session.Session) (sessionView, error) {
	view := sessionView{ID: s.ID, Created: s.Created}
	err := s.Do(ctx, func(e *editor.Editor) error {
		view.Project = e.ProjectName()
		view.History = e.History()
		return nil
	})
	return view, err
}

// GET /v1/sessions
func (h *Handler) listSessions(w http.ResponseWriter, r *http.Request) {
	out := []session.Info{}
	for _, s := range h.sessions.List() {
		info := session.Info{ID: s.ID, Created: s.Created}
		_ = s.Do(r.Context(), func(e *editor.Editor) error {
			info.Project = e.ProjectName()
			return nil
		})
		out = append(out, info)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"sessions": out})
}

// GET /v1/sessions/{id}
func (h *Handler) getSession(w http.ResponseWriter, r *http.Request) {
	s, err := h.sessions.Get(r.PathValue("id"))
	if err != nil {
		fail(w, err)
		return
	}
	view, err := describe(r.Context(), s)
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// DELETE /v1/sessions/{id}
func (h *Handler) closeSession(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Close(r.PathValue("id")); err != nil {
		fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GET /v1/kinds: node kinds available to new sessions.
func (h *Handler) listKinds(w http.ResponseWriter, r *http.Request) {
	reg := h.sessions.Settings().Registry
	kinds := reg.Kinds()
	out := make([]kindView, 0, len(kinds))
	for _, k := range kinds {
		def, err := reg.Get(k)
		if err != nil {
			continue
		}
		out = append(out, newKindView(def))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"kinds": out})
}

type kindView struct {
	Kind    string      `json:"kind"`
	Label   string      `json:"label"`
	Inputs  int         `json:"inputs"`
	Outputs int         `json:"outputs"`
	Params  []paramView `json:"params"`
}

type paramView struct {
	Name         string   `json:"name"`
	Type         string   `json:"type"`
	Default      any      `json:"default"`
	Values       []string `json:"values,omitempty"`
	Min          *float64 `json:"min,omitempty"`
	Max          *float64 `json:"max,omitempty"`
	AcceptsInput bool     `json:"acceptsInput,omitempty"`
}

func newKindView(def nodedef.Definition) kindView {
	v := kindView{Kind: def.Kind, Label: def.Label, Inputs: def.InputPortCount, Outputs: def.OutputPortCount, Params: []paramView{}}
	for _, p := range def.Params {
		pv := paramView{Name: p.ParamName(), Default: p.DefaultValue()}
		switch p := p.(type) {
		case nodedef.ChoiceParam:
			pv.Type, pv.Values = "choice", p.Values
		case nodedef.NumberParam:
			pv.Type, pv.Min, pv.Max = "number", &p.Min, &p.Max
		case nodedef.BooleanParam:
			pv.Type = "boolean"
		case nodedef.AudioParam:
			pv.Type, pv.Min, pv.Max, pv.AcceptsInput = "audioParam", &p.Min, &p.Max, p.AcceptsInput
		}
		v.Params = append(v.Params, pv)
	}
	return v
}

// GET /healthz: always 200 (liveness probe).
func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GET /readyz: 503 if any session queue is >80% full.
func (h *Handler) readyz(w http.ResponseWriter, r *http.Request) {
	worst, n := 0.0, 0
	for _, s := range h.sessions.List() {
		worst = max(worst, s.QueueUtilization())
		n++
	}
	if worst > 0.8 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":            "overloaded",
			"queue_utilization": worst,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":            "ready",
		"sessions":          n,
		"queue_utilization": worst,
	})
}
