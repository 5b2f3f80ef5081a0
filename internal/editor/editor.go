// Package editor wires the graph, selection and history of one editing
// session together and exposes the command surface used by the UI layer.
//
// Commands apply a pure graph function and commit the result to the
// session's stores; a failing command changes nothing. Commands never record
// history themselves: the caller decides where a user action ends and calls
// PushTransaction once for it.
package editor

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/gyaneshwarpardhi/patchbay/internal/config"
	"github.com/gyaneshwarpardhi/patchbay/internal/document"
	"github.com/gyaneshwarpardhi/patchbay/internal/geom"
	"github.com/gyaneshwarpardhi/patchbay/internal/graph"
	"github.com/gyaneshwarpardhi/patchbay/internal/history"
	"github.com/gyaneshwarpardhi/patchbay/internal/metrics"
	"github.com/gyaneshwarpardhi/patchbay/internal/nodedef"
	"github.com/gyaneshwarpardhi/patchbay/internal/selection"
	"github.com/gyaneshwarpardhi/patchbay/internal/store"
)

// ErrInvalidParamValue is returned when a value does not fit the parameter's
// definition.
var ErrInvalidParamValue = errors.New("invalid param value")

// Editor is one editing session.
type Editor struct {
	registry    *nodedef.Registry
	graph       *store.Store[*graph.State]
	selection   *store.Store[selection.Selection]
	history     *history.History
	conf        config.EditorConf
	logger      *slog.Logger
	projectName string
}

// New creates an editor with an empty graph and a save point on it.
func New(reg *nodedef.Registry, conf config.EditorConf, logger *slog.Logger) *Editor {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Editor{
		registry:    reg,
		graph:       store.New(graph.NewState()),
		selection:   store.New(selection.Selection{}),
		history:     history.New(history.WithLimit(conf.HistoryLimit)),
		conf:        conf,
		logger:      logger,
		projectName: conf.ProjectName,
	}
	e.SetSavePoint()
	return e
}

func (e *Editor) State() *graph.State            { return e.graph.Get() }
func (e *Editor) Selection() selection.Selection { return e.selection.Get() }
func (e *Editor) ProjectName() string            { return e.projectName }
func (e *Editor) Registry() *nodedef.Registry    { return e.registry }

func (e *Editor) SetProjectName(name string) { e.projectName = name }

// Subscribe registers fn for every committed graph state.
func (e *Editor) Subscribe(fn func(*graph.State)) (unsubscribe func()) {
	return e.graph.Subscribe(fn)
}

// SubscribeSelection registers fn for every selection change.
func (e *Editor) SubscribeSelection(fn func(selection.Selection)) (unsubscribe func()) {
	return e.selection.Subscribe(fn)
}

// apply runs a graph command against the live state and commits it.
func (e *Editor) apply(command string, fn func(*graph.State) (*graph.State, error)) error {
	err := e.graph.Update(fn)
	if err != nil {
		metrics.CommandsApplied.WithLabelValues(command, "error").Inc()
		e.logger.Debug("command failed", "command", command, "err", err)
		return err
	}
	metrics.CommandsApplied.WithLabelValues(command, "ok").Inc()
	return nil
}

// CreateNodeOfKind adds a node of kind with its top-left corner at pos. An
// empty name falls back to the kind's label.
func (e *Editor) CreateNodeOfKind(kind string, pos geom.Coordinates, name string) (*graph.Node, error) {
	def, err := e.registry.Get(kind)
	if err != nil {
		metrics.CommandsApplied.WithLabelValues("create_node", "error").Inc()
		return nil, err
	}
	if name == "" {
		name = def.Label
	}
	bounds := geom.Bounds{X: pos.X, Y: pos.Y, Width: e.conf.DefaultNodeWidth, Height: e.conf.DefaultNodeHeight}
	var created *graph.Node
	err = e.apply("create_node", func(s *graph.State) (*graph.State, error) {
		created = graph.CreateNode(def, bounds, name, s)
		return graph.AddNode(created, s)
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// CreateContainer adds a grouping rectangle.
func (e *Editor) CreateContainer(name string, bounds geom.Bounds) (*graph.Container, error) {
	var created *graph.Container
	err := e.apply("create_container", func(s *graph.State) (*graph.State, error) {
		created = graph.CreateContainer(name, bounds, s)
		return graph.AddContainer(created, s)
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (e *Editor) SetContainerBounds(id graph.ContainerID, b geom.Bounds) error {
	return e.apply("set_container_bounds", func(s *graph.State) (*graph.State, error) {
		return graph.SetContainerBounds(id, b, s)
	})
}

func (e *Editor) SetContainerName(id graph.ContainerID, name string) error {
	return e.apply("set_container_name", func(s *graph.State) (*graph.State, error) {
		return graph.SetContainerName(id, name, s)
	})
}

func (e *Editor) SetNodePosition(id graph.NodeID, c geom.Coordinates) error {
	return e.apply("set_node_position", func(s *graph.State) (*graph.State, error) {
		return graph.SetNodePosition(id, c, s)
	})
}

// MoveSelection shifts every selected node by dx, dy.
func (e *Editor) MoveSelection(dx, dy float64) error {
	ids := e.Selection().Nodes()
	return e.apply("move_selection", func(s *graph.State) (*graph.State, error) {
		return graph.MoveNodes(ids, dx, dy, s)
	})
}

func (e *Editor) SetNodeName(id graph.NodeID, name string) error {
	return e.apply("set_node_name", func(s *graph.State) (*graph.State, error) {
		return graph.SetNodeName(id, name, s)
	})
}

func (e *Editor) SetNodeWidth(id graph.NodeID, width float64) error {
	return e.apply("set_node_width", func(s *graph.State) (*graph.State, error) {
		return graph.SetNodeWidth(id, width, s)
	})
}

func (e *Editor) ToggleNodeFoldState(id graph.NodeID) error {
	return e.apply("toggle_fold", func(s *graph.State) (*graph.State, error) {
		return graph.ToggleNodeFoldState(id, s)
	})
}

// SetParamValue checks value against the parameter definition of the node's
// kind, clamping numbers into range, and stores it.
func (e *Editor) SetParamValue(id graph.NodeID, param string, value any) error {
	return e.apply("set_param", func(s *graph.State) (*graph.State, error) {
		n, ok := s.Node(id)
		if !ok {
			return nil, fmt.Errorf("%w: %s", graph.ErrNodeNotFound, id)
		}
		v, err := e.coerceParam(n.Kind, param, value)
		if err != nil {
			return nil, err
		}
		return graph.SetParamValue(id, param, v, s)
	})
}

func (e *Editor) coerceParam(kind, param string, value any) (any, error) {
	def, err := e.registry.Get(kind)
	if err != nil {
		// Kinds missing from the catalog keep whatever they are given.
		return value, nil
	}
	p, ok := def.Param(param)
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", graph.ErrParamNotFound, kind, param)
	}
	switch p := p.(type) {
	case nodedef.ChoiceParam:
		v, ok := value.(string)
		if !ok || !contains(p.Values, v) {
			return nil, fmt.Errorf("%w: %s must be one of %v, got %v", ErrInvalidParamValue, param, p.Values, value)
		}
		return v, nil
	case nodedef.BooleanParam:
		v, ok := value.(bool)
		if !ok {
			return nil, fmt.Errorf("%w: %s must be a boolean, got %v", ErrInvalidParamValue, param, value)
		}
		return v, nil
	case nodedef.NumberParam:
		return clampNumber(param, value, p.Min, p.Max)
	case nodedef.AudioParam:
		return clampNumber(param, value, p.Min, p.Max)
	}
	return value, nil
}

func clampNumber(param string, value any, lo, hi float64) (any, error) {
	var f float64
	switch n := value.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	default:
		return nil, fmt.Errorf("%w: %s must be a number, got %v", ErrInvalidParamValue, param, value)
	}
	return min(max(f, lo), hi), nil
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}

func (e *Editor) SendNodeToFront(id graph.NodeID) error {
	return e.apply("send_to_front", func(s *graph.State) (*graph.State, error) {
		return graph.SendNodeToFront(id, s)
	})
}

func (e *Editor) SetViewportOffset(c geom.Coordinates) {
	_ = e.apply("set_viewport", func(s *graph.State) (*graph.State, error) {
		return graph.SetViewportOffset(c, s), nil
	})
}

// Connect links two ports. It reports whether a connection was made; an
// illegal pair is not an error.
func (e *Editor) Connect(source, target graph.PortID) bool {
	before := len(e.State().Connections)
	_ = e.apply("connect", func(s *graph.State) (*graph.State, error) {
		return graph.DoAddConnection(source, target, s), nil
	})
	return e.connected(before)
}

func (e *Editor) connected(before int) bool {
	if len(e.State().Connections) > before {
		return true
	}
	metrics.ConnectionsRejected.Inc()
	return false
}

func (e *Editor) CreateTemporaryConnection(port graph.PortID) error {
	return e.apply("create_temporary_connection", func(s *graph.State) (*graph.State, error) {
		return graph.CreateTemporaryConnection(port, s)
	})
}

// ApplyTemporaryConnection finishes a drag on target and reports whether a
// connection was made.
func (e *Editor) ApplyTemporaryConnection(target graph.PortID) (bool, error) {
	before := len(e.State().Connections)
	err := e.apply("apply_temporary_connection", func(s *graph.State) (*graph.State, error) {
		return graph.ApplyTemporaryConnection(target, s)
	})
	if err != nil {
		return false, err
	}
	return e.connected(before), nil
}

func (e *Editor) RemoveTemporaryConnection() {
	_ = e.apply("remove_temporary_connection", func(s *graph.State) (*graph.State, error) {
		return graph.RemoveTemporaryConnection(s), nil
	})
}

// Remove deletes entities (and connections attached to removed nodes) and
// drops them from the selection.
func (e *Editor) Remove(refs []graph.Ref) {
	_ = e.apply("remove", func(s *graph.State) (*graph.State, error) {
		return graph.Remove(refs, s), nil
	})
	e.pruneSelection()
}

// RemoveSelection deletes everything selected.
func (e *Editor) RemoveSelection() {
	e.Remove(e.Selection().Items())
}

func (e *Editor) pruneSelection() {
	sel := e.Selection()
	if pruned := selection.Prune(sel, e.State()); !pruned.Equal(sel) {
		e.selection.Set(pruned)
	}
}

// SelectEvent is the pointer phase of a selection gesture.
type SelectEvent int

const (
	MouseDown SelectEvent = iota
	MouseUp
)

// Select resolves a pointer event on item. Unknown items are ignored.
func (e *Editor) Select(item graph.Ref, ev SelectEvent, mod selection.Modifier) selection.Selection {
	if !e.State().Has(item) {
		return e.Selection()
	}
	cur := e.Selection()
	var next selection.Selection
	if ev == MouseDown {
		next = selection.MouseDown(cur, item, mod)
	} else {
		next = selection.MouseUp(cur, item, mod)
	}
	if !next.Equal(cur) {
		e.selection.Set(next)
	}
	return next
}

func (e *Editor) ClearSelection() {
	e.selection.Set(selection.Selection{})
}

// PushTransaction snapshots the live graph and selection.
func (e *Editor) PushTransaction(description string) history.Transaction {
	t := e.history.Push(description, e.State(), e.Selection())
	metrics.TransactionsPushed.Inc()
	e.logger.Debug("transaction pushed", "id", t.ID, "description", description)
	return t
}

// Dirty reports whether the live graph content differs from the snapshot at
// the history cursor. Viewport moves and a pending drag-to-connect do not
// count.
func (e *Editor) Dirty() bool {
	t, ok := e.history.Current()
	return !ok || !graph.SameContent(t.Graph, e.State())
}

// Undo restores the previous snapshot. It reports false when there is none.
func (e *Editor) Undo() bool {
	t, ok := e.history.Undo()
	if !ok {
		return false
	}
	e.restore(t)
	metrics.HistoryMoves.WithLabelValues("undo").Inc()
	return true
}

// Redo restores the next snapshot. It reports false when there is none.
func (e *Editor) Redo() bool {
	t, ok := e.history.Redo()
	if !ok {
		return false
	}
	e.restore(t)
	metrics.HistoryMoves.WithLabelValues("redo").Inc()
	return true
}

func (e *Editor) restore(t history.Transaction) {
	e.graph.Set(t.Graph)
	e.selection.Set(t.Selection)
}

// SetSavePoint makes the live state the oldest reachable undo step.
func (e *Editor) SetSavePoint() {
	e.history.SetSavePoint("Save point", e.State(), e.Selection())
}

// HistoryInfo summarises the undo log.
type HistoryInfo struct {
	Index        int      `json:"index"`
	HasPrevious  bool     `json:"hasPrevious"`
	HasNext      bool     `json:"hasNext"`
	Descriptions []string `json:"descriptions"`
}

func (e *Editor) History() HistoryInfo {
	info := HistoryInfo{
		Index:       e.history.Index(),
		HasPrevious: e.history.HasPrevious(),
		HasNext:     e.history.HasNext(),
	}
	for _, t := range e.history.Transactions() {
		info.Descriptions = append(info.Descriptions, t.Description)
	}
	return info
}

// LoadState replaces the live graph and selection wholesale. The caller is
// responsible for the structural validity of s.
func (e *Editor) LoadState(s *graph.State, sel selection.Selection) {
	e.graph.Set(s)
	e.selection.Set(sel)
}

// LoadDocument validates doc and, only if it is valid, replaces the session
// content with it and sets a save point.
func (e *Editor) LoadDocument(doc *document.Document) error {
	s, sel, err := document.ToState(doc, e.registry)
	if err != nil {
		metrics.DocumentsLoaded.WithLabelValues("invalid").Inc()
		e.logger.Warn("document rejected", "project", doc.ProjectName, "err", err)
		return fmt.Errorf("load %q: %w", doc.ProjectName, err)
	}
	e.LoadState(s, sel)
	if doc.ProjectName != "" {
		e.projectName = doc.ProjectName
	}
	e.SetSavePoint()
	metrics.DocumentsLoaded.WithLabelValues("ok").Inc()
	e.logger.Info("document loaded", "project", e.projectName, "nodes", len(s.Nodes), "connections", len(s.Connections))
	return nil
}

// Document returns the persistable form of the session.
func (e *Editor) Document() *document.Document {
	return document.FromState(e.projectName, e.State(), e.Selection())
}
