package graph

import (
	"fmt"
	"maps"
	"slices"

	"github.com/gyaneshwarpardhi/patchbay/internal/geom"
	"github.com/gyaneshwarpardhi/patchbay/internal/ident"
	"github.com/gyaneshwarpardhi/patchbay/internal/nodedef"
)

// Node width limits enforced by SetNodeWidth.
const (
	MinNodeWidth = 80
	MaxNodeWidth = 400
)

// AddNode inserts n at the front of the z-order.
func AddNode(n *Node, s *State) (*State, error) {
	if _, exists := s.Nodes[n.ID]; exists {
		return nil, fmt.Errorf("add node %s: %w", n.ID, ErrDuplicateID)
	}
	own := make(map[PortID]bool)
	for _, p := range n.Ports() {
		if own[p.ID] {
			return nil, fmt.Errorf("add node %s: port %s listed twice: %w", n.ID, p.ID, ErrDuplicateID)
		}
		own[p.ID] = true
		if owner, _, found := FindPort(p.ID, s); found {
			return nil, fmt.Errorf("add node %s: port %s already owned by %s: %w", n.ID, p.ID, owner, ErrDuplicateID)
		}
	}
	next := s.withNode(n)
	next.NodeOrder = append(slices.Clip(s.NodeOrder), n.ID)
	return next, nil
}

// CreateNode builds a node of the given definition with fresh node and port
// ids. The node is not inserted; pass it to AddNode.
func CreateNode(def nodedef.Definition, bounds geom.Bounds, name string, s *State) *Node {
	id := ident.Next(ident.NodePrefix, s.nodeIDs())
	n := &Node{
		ID:          id,
		Kind:        def.Kind,
		Name:        name,
		ParamValues: make(map[string]any, len(def.Params)),
		ParamPorts:  make(map[string]Port),
		InputPorts:  make([]Port, def.InputPortCount),
		OutputPorts: make([]Port, def.OutputPortCount),
		Display:     NodeDisplay{Bounds: bounds},
	}
	for i := range n.InputPorts {
		n.InputPorts[i] = Port{ID: PortID(ident.InputPort(string(id), i)), Kind: PortInput}
	}
	for i := range n.OutputPorts {
		n.OutputPorts[i] = Port{ID: PortID(ident.OutputPort(string(id), i)), Kind: PortOutput}
	}
	for _, p := range def.Params {
		n.ParamValues[p.ParamName()] = p.DefaultValue()
		if nodedef.Modulatable(p) {
			n.ParamPorts[p.ParamName()] = Port{
				ID:   PortID(ident.ParamPort(string(id), p.ParamName())),
				Kind: PortAudioParam,
			}
		}
	}
	return n
}

// updateNode applies fn to a copy of the node and returns the new state.
func updateNode(id NodeID, s *State, fn func(n *Node)) (*State, error) {
	n, ok := s.Nodes[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	c := n.clone()
	fn(c)
	return s.withNode(c), nil
}

// SetNodePosition moves the node's top-left corner to c.
func SetNodePosition(id NodeID, c geom.Coordinates, s *State) (*State, error) {
	return updateNode(id, s, func(n *Node) {
		n.Display.Bounds = n.Display.Bounds.WithPosition(c)
	})
}

// MoveNodes shifts every listed node by dx, dy.
func MoveNodes(ids []NodeID, dx, dy float64, s *State) (*State, error) {
	var err error
	for _, id := range ids {
		s, err = updateNode(id, s, func(n *Node) {
			n.Display.Bounds = n.Display.Bounds.Translate(dx, dy)
		})
		if err != nil {
			return nil, err
		}
	}
	return s, nil
}

func SetNodeName(id NodeID, name string, s *State) (*State, error) {
	return updateNode(id, s, func(n *Node) { n.Name = name })
}

func ToggleNodeFoldState(id NodeID, s *State) (*State, error) {
	return updateNode(id, s, func(n *Node) { n.Display.Folded = !n.Display.Folded })
}

// SetNodeWidth sets the width, clamped to [MinNodeWidth, MaxNodeWidth].
func SetNodeWidth(id NodeID, width float64, s *State) (*State, error) {
	width = min(max(width, MinNodeWidth), MaxNodeWidth)
	return updateNode(id, s, func(n *Node) { n.Display.Bounds.Width = width })
}

// SetParamValue replaces the value of an existing parameter.
func SetParamValue(id NodeID, param string, value any, s *State) (*State, error) {
	n, ok := s.Nodes[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	if _, ok := n.ParamValues[param]; !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrParamNotFound, id, param)
	}
	return updateNode(id, s, func(n *Node) {
		n.ParamValues = maps.Clone(n.ParamValues)
		n.ParamValues[param] = value
	})
}

// SendNodeToFront moves id to the end of the z-order.
func SendNodeToFront(id NodeID, s *State) (*State, error) {
	if _, ok := s.Nodes[id]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	order := make([]NodeID, 0, len(s.NodeOrder))
	for _, o := range s.NodeOrder {
		if o != id {
			order = append(order, o)
		}
	}
	next := s.clone()
	next.NodeOrder = append(order, id)
	return next, nil
}

func SetViewportOffset(c geom.Coordinates, s *State) *State {
	next := s.clone()
	next.ViewportOffset = c
	return next
}

// Remove deletes the referenced nodes, connections and containers. Every
// connection attached to a removed node goes with it. Unknown refs are
// ignored; when none of the refs exist s itself is returned.
func Remove(refs []Ref, s *State) *State {
	nodes := make(map[NodeID]bool)
	conns := make(map[ConnectionID]bool)
	containers := make(map[ContainerID]bool)
	matched := 0
	for _, r := range refs {
		if !s.Has(r) {
			continue
		}
		matched++
		switch r.Kind {
		case EntityNode:
			nodes[NodeID(r.ID)] = true
		case EntityConnection:
			conns[ConnectionID(r.ID)] = true
		case EntityContainer:
			containers[ContainerID(r.ID)] = true
		}
	}
	if matched == 0 {
		return s
	}

	next := s.clone()

	deadPorts := make(map[PortID]bool)
	if len(nodes) > 0 {
		next.Nodes = make(map[NodeID]*Node, len(s.Nodes))
		for id, n := range s.Nodes {
			if nodes[id] {
				for _, p := range n.Ports() {
					deadPorts[p.ID] = true
				}
				continue
			}
			next.Nodes[id] = n
		}
		next.NodeOrder = make([]NodeID, 0, len(s.NodeOrder))
		for _, id := range s.NodeOrder {
			if !nodes[id] {
				next.NodeOrder = append(next.NodeOrder, id)
			}
		}
		if tp := s.TemporaryConnectionPort; tp != nil && deadPorts[tp.ID] {
			next.TemporaryConnectionPort = nil
		}
	}

	next.Connections = make([]Connection, 0, len(s.Connections))
	for _, c := range s.Connections {
		if conns[c.ID] || deadPorts[c.Source] || deadPorts[c.Target] {
			continue
		}
		next.Connections = append(next.Connections, c)
	}

	if len(containers) > 0 {
		next.Containers = make(map[ContainerID]*Container, len(s.Containers))
		for id, ct := range s.Containers {
			if !containers[id] {
				next.Containers[id] = ct
			}
		}
	}
	return next
}
