// Package document converts between graph states and the persisted JSON
// project format, and validates incoming documents before they reach the
// editor.
package document

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/gyaneshwarpardhi/patchbay/internal/graph"
	"github.com/gyaneshwarpardhi/patchbay/internal/nodedef"
	"github.com/gyaneshwarpardhi/patchbay/internal/selection"
)

// CurrentVersion is the only document version this build understands.
const CurrentVersion = "0"

var (
	ErrInvalidDocument = errors.New("invalid document")
	ErrUnknownVersion  = errors.New("unknown document version")
)

// Document is the persisted project.
type Document struct {
	ProjectName string     `json:"projectName"`
	DocVersion  string     `json:"docVersion"`
	AudioGraph  AudioGraph `json:"audioGraph"`
	Selection   []string   `json:"selection"`
}

// AudioGraph is the persisted graph. Older files call the z-order
// elementOrder; both names are read, only nodeOrder is written.
type AudioGraph struct {
	Nodes        map[graph.NodeID]*graph.Node           `json:"nodes"`
	Connections  []graph.Connection                     `json:"connections"`
	NodeOrder    []graph.NodeID                         `json:"nodeOrder,omitempty"`
	ElementOrder []graph.NodeID                         `json:"elementOrder,omitempty"`
	Containers   map[graph.ContainerID]*graph.Container `json:"containers,omitempty"`
}

// Order returns the z-order, whichever field carried it.
func (g AudioGraph) Order() []graph.NodeID {
	if len(g.NodeOrder) > 0 {
		return g.NodeOrder
	}
	return g.ElementOrder
}

// FromState builds a document from a live state. The temporary connection
// port is never persisted.
func FromState(projectName string, s *graph.State, sel selection.Selection) *Document {
	doc := &Document{
		ProjectName: projectName,
		DocVersion:  CurrentVersion,
		AudioGraph: AudioGraph{
			Nodes:       make(map[graph.NodeID]*graph.Node, len(s.Nodes)),
			Connections: append([]graph.Connection{}, s.Connections...),
			NodeOrder:   append([]graph.NodeID{}, s.NodeOrder...),
		},
		Selection: []string{},
	}
	for id, n := range s.Nodes {
		doc.AudioGraph.Nodes[id] = n
	}
	if len(s.Containers) > 0 {
		doc.AudioGraph.Containers = make(map[graph.ContainerID]*graph.Container, len(s.Containers))
		for id, c := range s.Containers {
			doc.AudioGraph.Containers[id] = c
		}
	}
	for _, r := range sel.Items() {
		doc.Selection = append(doc.Selection, r.ID)
	}
	return doc
}

// ToState validates doc and builds the state and selection it describes.
func ToState(doc *Document, reg *nodedef.Registry) (*graph.State, selection.Selection, error) {
	if err := Validate(doc, reg); err != nil {
		return nil, selection.Selection{}, err
	}
	s := graph.NewState()
	for id, n := range doc.AudioGraph.Nodes {
		s.Nodes[id] = normalize(n)
	}
	s.NodeOrder = append([]graph.NodeID{}, doc.AudioGraph.Order()...)
	s.Connections = append([]graph.Connection{}, doc.AudioGraph.Connections...)
	for id, c := range doc.AudioGraph.Containers {
		s.Containers[id] = c
	}
	s.TemporaryConnectionPort = nil

	refs := make([]graph.Ref, 0, len(doc.Selection))
	for _, id := range doc.Selection {
		r, _ := s.Resolve(id)
		refs = append(refs, r)
	}
	return s, selection.New(refs...), nil
}

// normalize fills nil collections so loaded nodes look like created ones.
func normalize(n *graph.Node) *graph.Node {
	c := *n
	if c.ParamValues == nil {
		c.ParamValues = map[string]any{}
	}
	if c.ParamPorts == nil {
		c.ParamPorts = map[string]graph.Port{}
	}
	if c.InputPorts == nil {
		c.InputPorts = []graph.Port{}
	}
	if c.OutputPorts == nil {
		c.OutputPorts = []graph.Port{}
	}
	return &c
}

// Decode reads a JSON document. It does not validate.
func Decode(r io.Reader) (*Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return &doc, nil
}

// Encode writes doc as indented JSON.
func Encode(w io.Writer, doc *Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	return nil
}
