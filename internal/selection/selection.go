// Package selection tracks which canvas entities are selected and resolves
// mouse gestures with modifier keys into selection changes.
package selection

import (
	"slices"

	"github.com/gyaneshwarpardhi/patchbay/internal/graph"
)

// Selection is an immutable, insertion-ordered set of entity refs.
type Selection struct {
	items []graph.Ref
}

// New returns a selection holding refs, duplicates dropped.
func New(refs ...graph.Ref) Selection {
	var s Selection
	for _, r := range refs {
		if !s.Contains(r) {
			s.items = append(s.items, r)
		}
	}
	return s
}

func (s Selection) Contains(r graph.Ref) bool { return slices.Contains(s.items, r) }
func (s Selection) Len() int                  { return len(s.items) }

// Items returns a copy of the selected refs.
func (s Selection) Items() []graph.Ref { return slices.Clone(s.items) }

// Nodes returns the selected node ids.
func (s Selection) Nodes() []graph.NodeID {
	var out []graph.NodeID
	for _, r := range s.items {
		if r.Kind == graph.EntityNode {
			out = append(out, graph.NodeID(r.ID))
		}
	}
	return out
}

// Equal reports whether both selections hold the same refs in the same order.
func (s Selection) Equal(o Selection) bool { return slices.Equal(s.items, o.items) }

// SetUnique replaces the selection with r alone.
func SetUnique(r graph.Ref) Selection { return New(r) }

// Add returns s with r appended if absent.
func (s Selection) Add(r graph.Ref) Selection {
	if s.Contains(r) {
		return s
	}
	return Selection{items: append(slices.Clip(s.items), r)}
}

// Remove returns s without refs.
func (s Selection) Remove(refs ...graph.Ref) Selection {
	out := make([]graph.Ref, 0, len(s.items))
	for _, r := range s.items {
		if !slices.Contains(refs, r) {
			out = append(out, r)
		}
	}
	return Selection{items: out}
}

// Toggle adds r if absent, removes it otherwise.
func (s Selection) Toggle(r graph.Ref) Selection {
	if s.Contains(r) {
		return s.Remove(r)
	}
	return s.Add(r)
}

// Prune drops refs that do not exist in g.
func Prune(s Selection, g *graph.State) Selection {
	var stale []graph.Ref
	for _, r := range s.items {
		if !g.Has(r) {
			stale = append(stale, r)
		}
	}
	if len(stale) == 0 {
		return s
	}
	return s.Remove(stale...)
}
