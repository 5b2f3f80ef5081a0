package api

import (
	"fmt"
	"net/http"

	"github.com/gyaneshwarpardhi/patchbay/internal/document"
	"github.com/gyaneshwarpardhi/patchbay/internal/editor"
	"github.com/gyaneshwarpardhi/patchbay/internal/geom"
	"github.com/gyaneshwarpardhi/patchbay/internal/graph"
	"github.com/gyaneshwarpardhi/patchbay/internal/selection"
)

type createNodeRequest struct {
	Kind string  `json:"kind"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Name string  `json:"name"`
}

// POST /v1/sessions/{id}/nodes
func (h *Handler) createNode(w http.ResponseWriter, r *http.Request) {
	var req createNodeRequest
	if err := decode(r, &req); err != nil {
		fail(w, err)
		return
	}
	if req.Kind == "" {
		writeError(w, http.StatusBadRequest, "node kind is required")
		return
	}
	h.command(w, r, "Create "+req.Kind, func(e *editor.Editor) (any, error) {
		return e.CreateNodeOfKind(req.Kind, geom.Coordinates{X: req.X, Y: req.Y}, req.Name)
	})
}

// PUT /v1/sessions/{id}/nodes/{node}/position
func (h *Handler) setNodePosition(w http.ResponseWriter, r *http.Request) {
	var req geom.Coordinates
	if err := decode(r, &req); err != nil {
		fail(w, err)
		return
	}
	id := graph.NodeID(r.PathValue("node"))
	h.command(w, r, "Move node", func(e *editor.Editor) (any, error) {
		return nil, e.SetNodePosition(id, req)
	})
}

// PUT /v1/sessions/{id}/nodes/{node}/name
func (h *Handler) setNodeName(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := decode(r, &req); err != nil {
		fail(w, err)
		return
	}
	id := graph.NodeID(r.PathValue("node"))
	h.command(w, r, "Rename node", func(e *editor.Editor) (any, error) {
		return nil, e.SetNodeName(id, req.Name)
	})
}

// PUT /v1/sessions/{id}/nodes/{node}/width
func (h *Handler) setNodeWidth(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Width float64 `json:"width"`
	}
	if err := decode(r, &req); err != nil {
		fail(w, err)
		return
	}
	id := graph.NodeID(r.PathValue("node"))
	h.command(w, r, "Resize node", func(e *editor.Editor) (any, error) {
		return nil, e.SetNodeWidth(id, req.Width)
	})
}

// POST /v1/sessions/{id}/nodes/{node}/fold
func (h *Handler) toggleFold(w http.ResponseWriter, r *http.Request) {
	id := graph.NodeID(r.PathValue("node"))
	h.command(w, r, "Fold node", func(e *editor.Editor) (any, error) {
		return nil, e.ToggleNodeFoldState(id)
	})
}

// PUT /v1/sessions/{id}/nodes/{node}/params/{param}
func (h *Handler) setParam(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Value any `json:"value"`
	}
	if err := decode(r, &req); err != nil {
		fail(w, err)
		return
	}
	id, param := graph.NodeID(r.PathValue("node")), r.PathValue("param")
	h.command(w, r, "Set "+param, func(e *editor.Editor) (any, error) {
		return nil, e.SetParamValue(id, param, req.Value)
	})
}

// POST /v1/sessions/{id}/nodes/{node}/front
func (h *Handler) sendToFront(w http.ResponseWriter, r *http.Request) {
	id := graph.NodeID(r.PathValue("node"))
	h.command(w, r, "Bring to front", func(e *editor.Editor) (any, error) {
		return nil, e.SendNodeToFront(id)
	})
}

// POST /v1/sessions/{id}/containers
func (h *Handler) createContainer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name   string      `json:"name"`
		Bounds geom.Bounds `json:"bounds"`
	}
	if err := decode(r, &req); err != nil {
		fail(w, err)
		return
	}
	h.command(w, r, "Create container", func(e *editor.Editor) (any, error) {
		return e.CreateContainer(req.Name, req.Bounds)
	})
}

// PUT /v1/sessions/{id}/containers/{container}/bounds
func (h *Handler) setContainerBounds(w http.ResponseWriter, r *http.Request) {
	var req geom.Bounds
	if err := decode(r, &req); err != nil {
		fail(w, err)
		return
	}
	id := graph.ContainerID(r.PathValue("container"))
	h.command(w, r, "Resize container", func(e *editor.Editor) (any, error) {
		return nil, e.SetContainerBounds(id, req)
	})
}

// PUT /v1/sessions/{id}/containers/{container}/name
func (h *Handler) setContainerName(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := decode(r, &req); err != nil {
		fail(w, err)
		return
	}
	id := graph.ContainerID(r.PathValue("container"))
	h.command(w, r, "Rename container", func(e *editor.Editor) (any, error) {
		return nil, e.SetContainerName(id, req.Name)
	})
}

type connectResult struct {
	Connected bool `json:"connected"`
}

// POST /v1/sessions/{id}/connections: an illegal pair answers
// {"connected": false}, not an error.
func (h *Handler) connect(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Source graph.PortID `json:"source"`
		Target graph.PortID `json:"target"`
	}
	if err := decode(r, &req); err != nil {
		fail(w, err)
		return
	}
	h.command(w, r, "Connect", func(e *editor.Editor) (any, error) {
		return connectResult{Connected: e.Connect(req.Source, req.Target)}, nil
	})
}

// POST /v1/sessions/{id}/temporary-connection
func (h *Handler) createTemporaryConnection(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Port graph.PortID `json:"port"`
	}
	if err := decode(r, &req); err != nil {
		fail(w, err)
		return
	}
	err := h.do(r, func(e *editor.Editor) error {
		return e.CreateTemporaryConnection(req.Port)
	})
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true})
}

// POST /v1/sessions/{id}/temporary-connection/apply
func (h *Handler) applyTemporaryConnection(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Target graph.PortID `json:"target"`
	}
	if err := decode(r, &req); err != nil {
		fail(w, err)
		return
	}
	h.command(w, r, "Connect", func(e *editor.Editor) (any, error) {
		ok, err := e.ApplyTemporaryConnection(req.Target)
		if err != nil {
			return nil, err
		}
		return connectResult{Connected: ok}, nil
	})
}

// DELETE /v1/sessions/{id}/temporary-connection
func (h *Handler) removeTemporaryConnection(w http.ResponseWriter, r *http.Request) {
	err := h.do(r, func(e *editor.Editor) error {
		e.RemoveTemporaryConnection()
		return nil
	})
	if err != nil {
		fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// POST /v1/sessions/{id}/remove: removes the listed ids, or the selection
// when none are given. Unknown ids are ignored.
func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDs []string `json:"ids"`
	}
	if err := decode(r, &req); err != nil {
		fail(w, err)
		return
	}
	h.command(w, r, "Delete", func(e *editor.Editor) (any, error) {
		if len(req.IDs) == 0 {
			e.RemoveSelection()
			return nil, nil
		}
		refs := make([]graph.Ref, 0, len(req.IDs))
		for _, id := range req.IDs {
			if ref, ok := e.State().Resolve(id); ok {
				refs = append(refs, ref)
			}
		}
		e.Remove(refs)
		return nil, nil
	})
}

// POST /v1/sessions/{id}/selection/move
func (h *Handler) moveSelection(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DX float64 `json:"dx"`
		DY float64 `json:"dy"`
	}
	if err := decode(r, &req); err != nil {
		fail(w, err)
		return
	}
	h.command(w, r, "Move selection", func(e *editor.Editor) (any, error) {
		return nil, e.MoveSelection(req.DX, req.DY)
	})
}

type selectRequest struct {
	ID       string `json:"id"`
	Event    string `json:"event"` // down | up
	Modifier string `json:"modifier,omitempty"`
	Shift    bool   `json:"shift,omitempty"`
	Meta     bool   `json:"meta,omitempty"`
	Ctrl     bool   `json:"ctrl,omitempty"`
}

type selectionView struct {
	Selection []string `json:"selection"`
}

func viewOf(sel selection.Selection) selectionView {
	v := selectionView{Selection: []string{}}
	for _, r := range sel.Items() {
		v.Selection = append(v.Selection, r.ID)
	}
	return v
}

// POST /v1/sessions/{id}/select: one pointer event of a selection gesture.
// Selection changes alone are not recorded in history.
func (h *Handler) selectItem(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if err := decode(r, &req); err != nil {
		fail(w, err)
		return
	}
	var ev editor.SelectEvent
	switch req.Event {
	case "down", "":
		ev = editor.MouseDown
	case "up":
		ev = editor.MouseUp
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown pointer event %q", req.Event))
		return
	}
	mod := selection.ModifierFromKeys(req.Shift, req.Meta, req.Ctrl)
	if req.Modifier != "" {
		m, err := selection.ParseModifier(req.Modifier)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		mod = m
	}
	var out selectionView
	err := h.do(r, func(e *editor.Editor) error {
		ref, ok := e.State().Resolve(req.ID)
		if !ok {
			out = viewOf(e.Selection())
			return nil
		}
		out = viewOf(e.Select(ref, ev, mod))
		return nil
	})
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// DELETE /v1/sessions/{id}/selection
func (h *Handler) clearSelection(w http.ResponseWriter, r *http.Request) {
	err := h.do(r, func(e *editor.Editor) error {
		e.ClearSelection()
		return nil
	})
	if err != nil {
		fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PUT /v1/sessions/{id}/viewport
func (h *Handler) setViewport(w http.ResponseWriter, r *http.Request) {
	var req geom.Coordinates
	if err := decode(r, &req); err != nil {
		fail(w, err)
		return
	}
	// Panning is view state; it never records a history step on its own.
	err := h.do(r, func(e *editor.Editor) error {
		e.SetViewportOffset(req)
		return nil
	})
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true})
}

// POST /v1/sessions/{id}/undo
func (h *Handler) undo(w http.ResponseWriter, r *http.Request) {
	h.historyMove(w, r, (*editor.Editor).Undo)
}

// POST /v1/sessions/{id}/redo
func (h *Handler) redo(w http.ResponseWriter, r *http.Request) {
	h.historyMove(w, r, (*editor.Editor).Redo)
}

func (h *Handler) historyMove(w http.ResponseWriter, r *http.Request, move func(*editor.Editor) bool) {
	var moved bool
	var info editor.HistoryInfo
	err := h.do(r, func(e *editor.Editor) error {
		moved = move(e)
		info = e.History()
		return nil
	})
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"moved": moved, "history": info})
}

// POST /v1/sessions/{id}/save-point
func (h *Handler) setSavePoint(w http.ResponseWriter, r *http.Request) {
	var info editor.HistoryInfo
	err := h.do(r, func(e *editor.Editor) error {
		e.SetSavePoint()
		info = e.History()
		return nil
	})
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// GET /v1/sessions/{id}/history
func (h *Handler) getHistory(w http.ResponseWriter, r *http.Request) {
	var info editor.HistoryInfo
	err := h.do(r, func(e *editor.Editor) error {
		info = e.History()
		return nil
	})
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// GET /v1/sessions/{id}/document
func (h *Handler) getDocument(w http.ResponseWriter, r *http.Request) {
	var doc *document.Document
	err := h.do(r, func(e *editor.Editor) error {
		doc = e.Document()
		return nil
	})
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// PUT /v1/sessions/{id}/document: replaces the session content. An invalid
// document is rejected with 422 and the session is left as it was.
func (h *Handler) loadDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := document.Decode(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
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
