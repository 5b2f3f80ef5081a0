package document

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gyaneshwarpardhi/patchbay/internal/graph"
	"github.com/gyaneshwarpardhi/patchbay/internal/nodedef"
)

// Validate checks a document for:
//   - a known docVersion
//   - globally unique node, port, connection and container ids
//   - references from order, connections and selection that resolve
//   - param ports matching the kind's modulatable params (when reg knows the kind)
//   - legal connections: distinct nodes, compatible port kinds, no parallel edges
//
// reg may be nil, in which case kinds are not checked.
func Validate(doc *Document, reg *nodedef.Registry) error {
	if doc.DocVersion != CurrentVersion {
		return fmt.Errorf("%w: %q", ErrUnknownVersion, doc.DocVersion)
	}

	var errs []string
	ids := make(map[string]string) // id → what owns it
	claim := func(id, what string) {
		if prev, ok := ids[id]; ok {
			errs = append(errs, fmt.Sprintf("duplicate id %q (%s and %s)", id, prev, what))
			return
		}
		ids[id] = what
	}

	ag := doc.AudioGraph
	portOwner := make(map[graph.PortID]graph.NodeID)
	portKind := make(map[graph.PortID]graph.PortKind)

	nodeIDs := make([]graph.NodeID, 0, len(ag.Nodes))
	for id := range ag.Nodes {
		nodeIDs = append(nodeIDs, id)
	}
	sort.Slice(nodeIDs, func(i, j int) bool { return nodeIDs[i] < nodeIDs[j] })

	for _, id := range nodeIDs {
		n := ag.Nodes[id]
		if n == nil {
			errs = append(errs, fmt.Sprintf("node %s: empty", id))
			continue
		}
		if n.ID != id {
			errs = append(errs, fmt.Sprintf("node %s: id field is %q", id, n.ID))
		}
		claim(string(id), "node "+string(id))
		validatePorts(n, &errs)
		for _, p := range n.Ports() {
			claim(string(p.ID), fmt.Sprintf("port of node %s", id))
			portOwner[p.ID] = id
			portKind[p.ID] = p.Kind
		}
		for name := range n.ParamPorts {
			if _, ok := n.ParamValues[name]; !ok {
				errs = append(errs, fmt.Sprintf("node %s: param port %q has no value", id, name))
			}
		}
		if reg != nil {
			validateKind(n, reg, &errs)
		}
	}

	order := ag.Order()
	seen := make(map[graph.NodeID]bool, len(order))
	for _, id := range order {
		if _, ok := ag.Nodes[id]; !ok {
			errs = append(errs, fmt.Sprintf("nodeOrder: unknown node %q", id))
			continue
		}
		if seen[id] {
			errs = append(errs, fmt.Sprintf("nodeOrder: node %q listed twice", id))
		}
		seen[id] = true
	}
	for _, id := range nodeIDs {
		if !seen[id] {
			errs = append(errs, fmt.Sprintf("nodeOrder: node %q missing", id))
		}
	}

	type pair struct{ a, b graph.PortID }
	edges := make(map[pair]bool)
	for i, c := range ag.Connections {
		loc := fmt.Sprintf("connections[%d] %s", i, c.ID)
		if c.ID == "" {
			errs = append(errs, fmt.Sprintf("connections[%d]: id is required", i))
		} else {
			claim(string(c.ID), "connection")
		}
		src, okSrc := portOwner[c.Source]
		dst, okDst := portOwner[c.Target]
		if !okSrc {
			errs = append(errs, fmt.Sprintf("%s: unknown source port %q", loc, c.Source))
		}
		if !okDst {
			errs = append(errs, fmt.Sprintf("%s: unknown target port %q", loc, c.Target))
		}
		if !okSrc || !okDst {
			continue
		}
		if src == dst {
			errs = append(errs, fmt.Sprintf("%s: connects node %s to itself", loc, src))
		}
		if !graph.KindsCompatible(portKind[c.Source], portKind[c.Target]) {
			errs = append(errs, fmt.Sprintf("%s: %s cannot connect to %s", loc, portKind[c.Source], portKind[c.Target]))
		}
		key := pair{c.Source, c.Target}
		if key.b < key.a {
			key = pair{key.b, key.a}
		}
		if edges[key] {
			errs = append(errs, fmt.Sprintf("%s: duplicate edge between %s and %s", loc, c.Source, c.Target))
		}
		edges[key] = true
	}

	for id, c := range ag.Containers {
		if c == nil || c.ID != id {
			errs = append(errs, fmt.Sprintf("container %s: id mismatch", id))
		}
		claim(string(id), "container")
	}

	for _, id := range doc.Selection {
		if _, ok := ids[id]; !ok || isPort(id, portOwner) {
			errs = append(errs, fmt.Sprintf("selection: unknown entity %q", id))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w:\n  - %s", ErrInvalidDocument, strings.Join(errs, "\n  - "))
	}
	return nil
}

func isPort(id string, owners map[graph.PortID]graph.NodeID) bool {
	_, ok := owners[graph.PortID(id)]
	return ok
}

func validatePorts(n *graph.Node, errs *[]string) {
	check := func(ports []graph.Port, want graph.PortKind, field string) {
		for i, p := range ports {
			if p.ID == "" {
				*errs = append(*errs, fmt.Sprintf("node %s: %s[%d] has no id", n.ID, field, i))
			}
			if p.Kind != want {
				*errs = append(*errs, fmt.Sprintf("node %s: %s[%d] has kind %q, want %q", n.ID, field, i, p.Kind, want))
			}
		}
	}
	check(n.InputPorts, graph.PortInput, "inputPorts")
	check(n.OutputPorts, graph.PortOutput, "outputPorts")
	for name, p := range n.ParamPorts {
		if p.Kind != graph.PortAudioParam {
			*errs = append(*errs, fmt.Sprintf("node %s: param port %q has kind %q", n.ID, name, p.Kind))
		}
	}
}

func validateKind(n *graph.Node, reg *nodedef.Registry, errs *[]string) {
	def, err := reg.Get(n.Kind)
	if err != nil {
		*errs = append(*errs, fmt.Sprintf("node %s: %v", n.ID, err))
		return
	}
	if len(n.InputPorts) != def.InputPortCount || len(n.OutputPorts) != def.OutputPortCount {
		*errs = append(*errs, fmt.Sprintf("node %s: %s expects %d inputs and %d outputs, has %d and %d",
			n.ID, n.Kind, def.InputPortCount, def.OutputPortCount, len(n.InputPorts), len(n.OutputPorts)))
	}
	want := def.ModulatableParams()
	got := make([]string, 0, len(n.ParamPorts))
	for name := range n.ParamPorts {
		got = append(got, name)
	}
	sort.Strings(want)
	sort.Strings(got)
	if strings.Join(want, ",") != strings.Join(got, ",") {
		*errs = append(*errs, fmt.Sprintf("node %s: param ports %v, %s accepts input on %v", n.ID, got, n.Kind, want))
	}
}
