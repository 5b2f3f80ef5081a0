package selection_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyaneshwarpardhi/patchbay/internal/graph"
	"github.com/gyaneshwarpardhi/patchbay/internal/selection"
)

var (
	a = graph.NodeRef("Node-1")
	b = graph.NodeRef("Node-2")
	c = graph.ConnectionRef("Connection-1")
)

func TestSetOperations(t *testing.T) {
	s := selection.New(a, b, a)
	assert.Equal(t, []graph.Ref{a, b}, s.Items())

	s2 := s.Add(c)
	assert.Equal(t, 2, s.Len(), "Add must not modify the receiver")
	assert.Equal(t, []graph.Ref{a, b, c}, s2.Items())
	assert.Equal(t, []graph.NodeID{"Node-1", "Node-2"}, s2.Nodes())

	assert.Equal(t, []graph.Ref{b, c}, s2.Remove(a).Items())
	assert.False(t, s2.Toggle(b).Contains(b))
	assert.True(t, s.Toggle(c).Contains(c))
	assert.True(t, selection.SetUnique(c).Equal(selection.New(c)))
}

func TestMouseDown_Plain(t *testing.T) {
	multi := selection.New(a, b)
	assert.True(t, selection.MouseDown(multi, a, selection.ModifierNone).Equal(multi),
		"pressing a selected item keeps the multi-selection for dragging")
	assert.Equal(t, []graph.Ref{c}, selection.MouseDown(multi, c, selection.ModifierNone).Items())
}

func TestMouseDown_Add(t *testing.T) {
	got := selection.MouseDown(selection.New(a), b, selection.ModifierAdd)
	assert.Equal(t, []graph.Ref{a, b}, got.Items())
	assert.Equal(t, []graph.Ref{a, b}, selection.MouseDown(got, a, selection.ModifierAdd).Items())
}

func TestToggle_ResolvedOnMouseDownOnly(t *testing.T) {
	s := selection.New(a, b)
	down := selection.MouseDown(s, a, selection.ModifierToggle)
	assert.Equal(t, []graph.Ref{b}, down.Items())
	up := selection.MouseUp(down, a, selection.ModifierToggle)
	assert.True(t, up.Equal(down), "release must not toggle a second time")

	down = selection.MouseDown(up, a, selection.ModifierToggle)
	assert.Equal(t, []graph.Ref{b, a}, down.Items())
}

func TestMouseUp(t *testing.T) {
	multi := selection.New(a, b)
	assert.Equal(t, []graph.Ref{a}, selection.MouseUp(multi, a, selection.ModifierNone).Items())
	assert.Equal(t, []graph.Ref{a, b, c}, selection.MouseUp(multi, c, selection.ModifierAdd).Items())
	single := selection.New(a)
	assert.True(t, selection.MouseUp(single, a, selection.ModifierNone).Equal(single))
}

func TestModifierFromKeys(t *testing.T) {
	assert.Equal(t, selection.ModifierNone, selection.ModifierFromKeys(false, false, false))
	assert.Equal(t, selection.ModifierAdd, selection.ModifierFromKeys(true, false, false))
	assert.Equal(t, selection.ModifierAdd, selection.ModifierFromKeys(false, true, false))
	assert.Equal(t, selection.ModifierToggle, selection.ModifierFromKeys(true, false, true))

	m, err := selection.ParseModifier("toggle")
	require.NoError(t, err)
	assert.Equal(t, selection.ModifierToggle, m)
	_, err = selection.ParseModifier("alt")
	assert.Error(t, err)
}

func TestPrune(t *testing.T) {
	g := graph.NewState()
	g.Nodes["Node-1"] = &graph.Node{ID: "Node-1"}
	g.NodeOrder = []graph.NodeID{"Node-1"}

	s := selection.New(a, b)
	assert.Equal(t, []graph.Ref{a}, selection.Prune(s, g).Items())
	kept := selection.New(a)
	assert.True(t, selection.Prune(kept, g).Equal(kept))
}
