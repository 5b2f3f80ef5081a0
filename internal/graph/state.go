// Package graph holds the editor's graph state and the pure commands that
// derive new states from it.
//
// A State is never modified after it is returned. Every command builds a new
// State that shares untouched nodes and containers with its input, so older
// states can be kept as history snapshots.
package graph

import (
	"maps"
	"slices"

	"github.com/gyaneshwarpardhi/patchbay/internal/geom"
)

// State is the whole editable graph. NodeOrder is the z-order (last is
// front) and is always a permutation of the Nodes keys.
type State struct {
	Nodes                   map[NodeID]*Node
	NodeOrder               []NodeID
	Connections             []Connection
	Containers              map[ContainerID]*Container
	ViewportOffset          geom.Coordinates
	TemporaryConnectionPort *Port
}

// NewState returns an empty graph.
func NewState() *State {
	return &State{
		Nodes:      make(map[NodeID]*Node),
		Containers: make(map[ContainerID]*Container),
	}
}

func (s *State) clone() *State {
	c := *s
	return &c
}

// withNode returns a copy of s where id maps to n.
func (s *State) withNode(n *Node) *State {
	c := s.clone()
	c.Nodes = maps.Clone(s.Nodes)
	if c.Nodes == nil {
		c.Nodes = make(map[NodeID]*Node)
	}
	c.Nodes[n.ID] = n
	return c
}

func (s *State) withContainer(ct *Container) *State {
	c := s.clone()
	c.Containers = maps.Clone(s.Containers)
	if c.Containers == nil {
		c.Containers = make(map[ContainerID]*Container)
	}
	c.Containers[ct.ID] = ct
	return c
}

// Node returns the node with the given id.
func (s *State) Node(id NodeID) (*Node, bool) {
	n, ok := s.Nodes[id]
	return n, ok
}

// OrderedNodes returns nodes back to front.
func (s *State) OrderedNodes() []*Node {
	out := make([]*Node, 0, len(s.NodeOrder))
	for _, id := range s.NodeOrder {
		if n, ok := s.Nodes[id]; ok {
			out = append(out, n)
		}
	}
	return out
}

// Connection returns the connection with the given id.
func (s *State) Connection(id ConnectionID) (Connection, bool) {
	for _, c := range s.Connections {
		if c.ID == id {
			return c, true
		}
	}
	return Connection{}, false
}

// Has reports whether the referenced entity exists.
func (s *State) Has(r Ref) bool {
	switch r.Kind {
	case EntityNode:
		_, ok := s.Nodes[NodeID(r.ID)]
		return ok
	case EntityConnection:
		_, ok := s.Connection(ConnectionID(r.ID))
		return ok
	case EntityContainer:
		_, ok := s.Containers[ContainerID(r.ID)]
		return ok
	}
	return false
}

// Resolve finds which entity kind owns a bare id.
func (s *State) Resolve(id string) (Ref, bool) {
	for _, kind := range []EntityKind{EntityNode, EntityConnection, EntityContainer} {
		r := Ref{Kind: kind, ID: id}
		if s.Has(r) {
			return r, true
		}
	}
	return Ref{}, false
}

// SameContent reports whether a and b hold the same nodes, z-order,
// connections and containers. The viewport and a pending temporary
// connection are view state and are not compared. Nodes and containers are
// compared by identity, so an update that rebuilt a node counts as a change.
func SameContent(a, b *State) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return maps.Equal(a.Nodes, b.Nodes) &&
		slices.Equal(a.NodeOrder, b.NodeOrder) &&
		slices.Equal(a.Connections, b.Connections) &&
		maps.Equal(a.Containers, b.Containers)
}

func (s *State) nodeIDs() []NodeID {
	out := make([]NodeID, 0, len(s.Nodes))
	for id := range s.Nodes {
		out = append(out, id)
	}
	return out
}

func (s *State) connectionIDs() []ConnectionID {
	out := make([]ConnectionID, len(s.Connections))
	for i, c := range s.Connections {
		out[i] = c.ID
	}
	return out
}

func (s *State) containerIDs() []ContainerID {
	out := make([]ContainerID, 0, len(s.Containers))
	for id := range s.Containers {
		out = append(out, id)
	}
	return out
}
