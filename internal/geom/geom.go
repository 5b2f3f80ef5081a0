// Package geom holds the rectangle and point helpers used by containers and
// selection logic.
package geom

import "math"

// Coordinates is a point on the editor canvas.
type Coordinates struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns c translated by d.
func (c Coordinates) Add(d Coordinates) Coordinates {
	return Coordinates{X: c.X + d.X, Y: c.Y + d.Y}
}

// Bounds is an axis-aligned rectangle; X/Y is the top-left corner.
type Bounds struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (b Bounds) Right() float64  { return b.X + b.Width }
func (b Bounds) Bottom() float64 { return b.Y + b.Height }

// Position returns the top-left corner.
func (b Bounds) Position() Coordinates {
	return Coordinates{X: b.X, Y: b.Y}
}

// WithPosition returns b moved so its top-left corner is at c.
func (b Bounds) WithPosition(c Coordinates) Bounds {
	b.X, b.Y = c.X, c.Y
	return b
}

// Translate returns b shifted by dx, dy.
func (b Bounds) Translate(dx, dy float64) Bounds {
	b.X += dx
	b.Y += dy
	return b
}

// Expand grows b by margin on every side. A negative margin shrinks it,
// never below zero size.
func (b Bounds) Expand(margin float64) Bounds {
	out := Bounds{
		X:      b.X - margin,
		Y:      b.Y - margin,
		Width:  b.Width + 2*margin,
		Height: b.Height + 2*margin,
	}
	if out.Width < 0 {
		out.X += out.Width / 2
		out.Width = 0
	}
	if out.Height < 0 {
		out.Y += out.Height / 2
		out.Height = 0
	}
	return out
}

// Intersects reports whether b and o overlap. Touching edges do not count.
func (b Bounds) Intersects(o Bounds) bool {
	return b.X < o.Right() && o.X < b.Right() &&
		b.Y < o.Bottom() && o.Y < b.Bottom()
}

// Contains reports whether p lies inside b (edges included).
func (b Bounds) Contains(p Coordinates) bool {
	return p.X >= b.X && p.X <= b.Right() && p.Y >= b.Y && p.Y <= b.Bottom()
}

// OuterBounds returns the smallest rectangle enclosing all bs. The second
// result is false when bs is empty.
func OuterBounds(bs ...Bounds) (Bounds, bool) {
	if len(bs) == 0 {
		return Bounds{}, false
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, b := range bs {
		minX = math.Min(minX, b.X)
		minY = math.Min(minY, b.Y)
		maxX = math.Max(maxX, b.Right())
		maxY = math.Max(maxY, b.Bottom())
	}
	return Bounds{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}, true
}
