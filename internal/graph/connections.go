package graph

import (
	"fmt"
	"slices"

	"github.com/gyaneshwarpardhi/patchbay/internal/ident"
)

// allowedPeers lists, for each port kind, the kinds it may be linked with.
var allowedPeers = map[PortKind][]PortKind{
	PortInput:      {PortOutput},
	PortOutput:     {PortInput, PortAudioParam},
	PortAudioParam: {PortOutput},
}

// KindsCompatible reports whether ports of kinds a and b may be linked.
// Both sides of the table must agree, so the relation is symmetric.
func KindsCompatible(a, b PortKind) bool {
	return slices.Contains(allowedPeers[a], b) && slices.Contains(allowedPeers[b], a)
}

// FindPort resolves a port id to its owning node.
func FindPort(id PortID, s *State) (NodeID, Port, bool) {
	for nid, n := range s.Nodes {
		for _, p := range n.InputPorts {
			if p.ID == id {
				return nid, p, true
			}
		}
		for _, p := range n.OutputPorts {
			if p.ID == id {
				return nid, p, true
			}
		}
		for _, p := range n.ParamPorts {
			if p.ID == id {
				return nid, p, true
			}
		}
	}
	return "", Port{}, false
}

// AreAlreadyConnected reports whether a connection joins a and b in either
// direction.
func AreAlreadyConnected(a, b PortID, s *State) bool {
	for _, c := range s.Connections {
		if (c.Source == a && c.Target == b) || (c.Source == b && c.Target == a) {
			return true
		}
	}
	return false
}

// CanConnect reports whether source and target may be linked: distinct
// ports on distinct nodes, not yet connected, with compatible kinds.
func CanConnect(source, target PortID, s *State) bool {
	if source == target {
		return false
	}
	srcNode, srcPort, ok := FindPort(source, s)
	if !ok {
		return false
	}
	dstNode, dstPort, ok := FindPort(target, s)
	if !ok || srcNode == dstNode {
		return false
	}
	if AreAlreadyConnected(source, target, s) {
		return false
	}
	return KindsCompatible(srcPort.Kind, dstPort.Kind)
}

// DoAddConnection links source and target when CanConnect allows it and
// returns s unchanged otherwise.
func DoAddConnection(source, target PortID, s *State) *State {
	if !CanConnect(source, target, s) {
		return s
	}
	next := s.clone()
	next.Connections = append(slices.Clip(s.Connections), Connection{
		ID:     ident.Next(ident.ConnectionPrefix, s.connectionIDs()),
		Source: source,
		Target: target,
	})
	return next
}

// AddConnection links output outIdx of srcNode to input inIdx of dstNode.
// Missing nodes or ports are errors; an illegal link is a no-op.
func AddConnection(srcNode NodeID, outIdx int, dstNode NodeID, inIdx int, s *State) (*State, error) {
	src, ok := s.Nodes[srcNode]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, srcNode)
	}
	dst, ok := s.Nodes[dstNode]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, dstNode)
	}
	if outIdx < 0 || outIdx >= len(src.OutputPorts) {
		return nil, fmt.Errorf("%w: %s has no output %d", ErrPortNotFound, srcNode, outIdx)
	}
	if inIdx < 0 || inIdx >= len(dst.InputPorts) {
		return nil, fmt.Errorf("%w: %s has no input %d", ErrPortNotFound, dstNode, inIdx)
	}
	return DoAddConnection(src.OutputPorts[outIdx].ID, dst.InputPorts[inIdx].ID, s), nil
}

// CreateTemporaryConnection starts a drag-to-connect gesture from port.
func CreateTemporaryConnection(port PortID, s *State) (*State, error) {
	_, p, ok := FindPort(port, s)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPortNotFound, port)
	}
	next := s.clone()
	next.TemporaryConnectionPort = &p
	return next, nil
}

// ApplyTemporaryConnection completes the pending gesture on target. The
// pending port is cleared whether or not the link was legal.
func ApplyTemporaryConnection(target PortID, s *State) (*State, error) {
	if _, _, ok := FindPort(target, s); !ok {
		return nil, fmt.Errorf("%w: %s", ErrPortNotFound, target)
	}
	pending := s.TemporaryConnectionPort
	if pending == nil {
		return nil, ErrNoTemporaryConnection
	}
	next := DoAddConnection(pending.ID, target, s).clone()
	next.TemporaryConnectionPort = nil
	return next, nil
}

// RemoveTemporaryConnection cancels a pending gesture, if any.
func RemoveTemporaryConnection(s *State) *State {
	next := s.clone()
	next.TemporaryConnectionPort = nil
	return next
}
