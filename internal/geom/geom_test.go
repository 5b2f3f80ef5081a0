package geom_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gyaneshwarpardhi/patchbay/internal/geom"
)

func TestIntersects(t *testing.T) {
	a := geom.Bounds{X: 0, Y: 0, Width: 10, Height: 10}
	assert.True(t, a.Intersects(geom.Bounds{X: 5, Y: 5, Width: 10, Height: 10}))
	assert.False(t, a.Intersects(geom.Bounds{X: 10, Y: 0, Width: 5, Height: 5}), "touching edges")
	assert.False(t, a.Intersects(geom.Bounds{X: 20, Y: 20, Width: 1, Height: 1}))
}

func TestExpand(t *testing.T) {
	b := geom.Bounds{X: 10, Y: 10, Width: 20, Height: 20}
	assert.Equal(t, geom.Bounds{X: 5, Y: 5, Width: 30, Height: 30}, b.Expand(5))
	shrunk := b.Expand(-15)
	assert.Equal(t, 0.0, shrunk.Width)
	assert.Equal(t, 0.0, shrunk.Height)
}

func TestOuterBounds(t *testing.T) {
	_, ok := geom.OuterBounds()
	assert.False(t, ok)

	got, ok := geom.OuterBounds(
		geom.Bounds{X: 0, Y: 0, Width: 10, Height: 10},
		geom.Bounds{X: -5, Y: 20, Width: 10, Height: 5},
	)
	assert.True(t, ok)
	assert.Equal(t, geom.Bounds{X: -5, Y: 0, Width: 15, Height: 25}, got)
}

func TestContainsAndPosition(t *testing.T) {
	b := geom.Bounds{X: 1, Y: 2, Width: 3, Height: 4}
	assert.True(t, b.Contains(geom.Coordinates{X: 4, Y: 6}))
	assert.False(t, b.Contains(geom.Coordinates{X: 0, Y: 6}))
	moved := b.WithPosition(geom.Coordinates{X: 9, Y: 9})
	assert.Equal(t, geom.Coordinates{X: 9, Y: 9}, moved.Position())
	assert.Equal(t, 3.0, moved.Width)
	assert.Equal(t, geom.Bounds{X: 2, Y: 0, Width: 3, Height: 4}, b.Translate(1, -2))
}
