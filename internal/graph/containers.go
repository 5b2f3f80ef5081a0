package graph

import (
	"fmt"

	"github.com/gyaneshwarpardhi/patchbay/internal/geom"
	"github.com/gyaneshwarpardhi/patchbay/internal/ident"
)

// AddContainer inserts ct.
func AddContainer(ct *Container, s *State) (*State, error) {
	if _, exists := s.Containers[ct.ID]; exists {
		return nil, fmt.Errorf("add container %s: %w", ct.ID, ErrDuplicateID)
	}
	return s.withContainer(ct), nil
}

// CreateContainer builds a container with a fresh id. It is not inserted.
func CreateContainer(name string, bounds geom.Bounds, s *State) *Container {
	return &Container{
		ID:      ident.Next(ident.ContainerPrefix, s.containerIDs()),
		Name:    name,
		Display: ContainerDisplay{Bounds: bounds},
	}
}

func updateContainer(id ContainerID, s *State, fn func(ct *Container)) (*State, error) {
	ct, ok := s.Containers[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrContainerNotFound, id)
	}
	c := *ct
	fn(&c)
	return s.withContainer(&c), nil
}

func SetContainerBounds(id ContainerID, b geom.Bounds, s *State) (*State, error) {
	return updateContainer(id, s, func(ct *Container) { ct.Display.Bounds = b })
}

func SetContainerName(id ContainerID, name string, s *State) (*State, error) {
	return updateContainer(id, s, func(ct *Container) { ct.Name = name })
}

// ContainedNodes returns, back to front, the nodes overlapping container id.
func ContainedNodes(id ContainerID, s *State) ([]NodeID, error) {
	ct, ok := s.Containers[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrContainerNotFound, id)
	}
	var out []NodeID
	for _, n := range s.OrderedNodes() {
		if ct.Display.Bounds.Intersects(n.Display.Bounds) {
			out = append(out, n.ID)
		}
	}
	return out, nil
}
