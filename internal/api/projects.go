package api

import (
	"net/http"

	"github.com/gyaneshwarpardhi/patchbay/internal/document"
	"github.com/gyaneshwarpardhi/patchbay/internal/editor"
	"github.com/gyaneshwarpardhi/patchbay/internal/project"
)

type projectRequest struct {
	Name string `json:"name"`
}

// POST /v1/sessions/{id}/save: saves under the given name, or the
// session's project name.
func (h *Handler) saveProject(w http.ResponseWriter, r *http.Request) {
	var req projectRequest
	if err := decode(r, &req); err != nil {
		fail(w, err)
		return
	}
	if req.Name != "" {
		if err := project.CheckName(req.Name); err != nil {
			fail(w, err)
			return
		}
	}
	var doc *document.Document
	err := h.do(r, func(e *editor.Editor) error {
		doc = e.Document()
		return nil
	})
	if err != nil {
		fail(w, err)
		return
	}
	if req.Name != "" {
		doc.ProjectName = req.Name
	}
	if err := h.projects.Save(r.Context(), doc.ProjectName, doc); err != nil {
		fail(w, err)
		return
	}
	// The session takes the new name only once it is on disk.
	err = h.do(r, func(e *editor.Editor) error {
		e.SetProjectName(doc.ProjectName)
		return nil
	})
	if err != nil {
		fail(w, err)
		return
	}
	h.logger.Info("project saved", "session", r.PathValue("id"), "project", doc.ProjectName)
	writeJSON(w, http.StatusOK, map[string]interface{}{"saved": true, "project": doc.ProjectName})
}

// POST /v1/sessions/{id}/open: replaces the session content with a saved
// project. A corrupt project answers 422 and changes nothing.
func (h *Handler) openProject(w http.ResponseWriter, r *http.Request) {
	var req projectRequest
	if err := decode(r, &req); err != nil {
		fail(w, err)
		return
	}
	if _, err := h.sessions.Get(r.PathValue("id")); err != nil {
		fail(w, err)
		return
	}
	doc, err := h.projects.Load(r.Context(), req.Name)
	if err != nil {
		fail(w, err)
		return
	}
	err = h.do(r, func(e *editor.Editor) error {
		return e.LoadDocument(doc)
	})
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"loaded": true, "project": doc.ProjectName})
}

// GET /v1/projects
func (h *Handler) listProjects(w http.ResponseWriter, r *http.Request) {
	list, err := h.projects.List(r.Context())
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"projects": list})
}

// DELETE /v1/projects/{name}
func (h *Handler) deleteProject(w http.ResponseWriter, r *http.Request) {
	if err := h.projects.Delete(r.Context(), r.PathValue("name")); err != nil {
		fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
