package graph

import (
	"sort"

	"github.com/gyaneshwarpardhi/patchbay/internal/geom"
)

// Typed identifiers. Each entity lives in its own id namespace; nothing in
// the engine infers an entity's type from the shape of its id.
type (
	NodeID       string
	PortID       string
	ConnectionID string
	ContainerID  string
)

// EntityKind discriminates the entities that share the selection id-space.
type EntityKind string

const (
	EntityNode       EntityKind = "node"
	EntityConnection EntityKind = "connection"
	EntityContainer  EntityKind = "container"
)

// Ref names a selectable entity.
type Ref struct {
	Kind EntityKind `json:"kind"`
	ID   string     `json:"id"`
}

func NodeRef(id NodeID) Ref             { return Ref{Kind: EntityNode, ID: string(id)} }
func ConnectionRef(id ConnectionID) Ref { return Ref{Kind: EntityConnection, ID: string(id)} }
func ContainerRef(id ContainerID) Ref   { return Ref{Kind: EntityContainer, ID: string(id)} }

// PortKind determines which ports a port may be wired to.
type PortKind string

const (
	PortInput      PortKind = "input"
	PortOutput     PortKind = "output"
	PortAudioParam PortKind = "audioParam"
)

// Port is owned by exactly one node.
type Port struct {
	ID   PortID   `json:"id"`
	Kind PortKind `json:"kind"`
}

// NodeDisplay is the visual state of a node.
type NodeDisplay struct {
	Bounds geom.Bounds `json:"bounds"`
	Folded bool        `json:"folded"`
}

// Node is one audio-processing unit on the canvas. ParamPorts holds a port
// for every parameter that accepts modulation; its keys are a subset of
// ParamValues keys.
type Node struct {
	ID          NodeID          `json:"id"`
	Kind        string          `json:"kind"`
	Name        string          `json:"name"`
	ParamValues map[string]any  `json:"paramValues"`
	ParamPorts  map[string]Port `json:"paramPorts"`
	InputPorts  []Port          `json:"inputPorts"`
	OutputPorts []Port          `json:"outputPorts"`
	Display     NodeDisplay     `json:"display"`
}

// Ports returns every port of n: inputs, outputs, then param ports ordered
// by parameter name.
func (n *Node) Ports() []Port {
	out := make([]Port, 0, len(n.InputPorts)+len(n.OutputPorts)+len(n.ParamPorts))
	out = append(out, n.InputPorts...)
	out = append(out, n.OutputPorts...)
	names := make([]string, 0, len(n.ParamPorts))
	for name := range n.ParamPorts {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		out = append(out, n.ParamPorts[name])
	}
	return out
}

func (n *Node) clone() *Node {
	c := *n
	return &c
}

// Connection links two ports. Storage is undirected; Source/Target only
// record how the link was drawn.
type Connection struct {
	ID     ConnectionID `json:"id"`
	Source PortID       `json:"source"`
	Target PortID       `json:"target"`
}

// ContainerDisplay is the visual state of a container.
type ContainerDisplay struct {
	Bounds geom.Bounds `json:"bounds"`
}

// Container is a visual grouping rectangle. Membership is derived from
// bounds intersection and never stored.
type Container struct {
	ID      ContainerID      `json:"id"`
	Name    string           `json:"name"`
	Display ContainerDisplay `json:"display"`
}
