package replay

import "github.com/danieljhkim/atelier/internal/forest"

// Point is a drop location in canvas coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is a component's bounding box as reported by the canvas host.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Center returns the centre of r.
func (r Rect) Center() Point {
	return Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// Geometry turns a drop location into an insertion index among children.
type Geometry interface {
	Index(children []*forest.Node, boxes map[string]Rect, at Point) int
}

// BoxGeometry places the drop before the first child that lies after the
// point in reading order: the point is above the child's box, or inside
// its row and left of its centre. Children without a box are ignored.
type BoxGeometry struct{}

// Index implements Geometry.
func (BoxGeometry) Index(children []*forest.Node, boxes map[string]Rect, at Point) int {
	next := 0
	for _, child := range children {
		if child.Parent.Index >= next {
			next = child.Parent.Index + 1
		}
		box, ok := boxes[child.ID]
		if !ok {
			continue
		}
		above := at.Y < box.Y
		inRow := at.Y <= box.Y+box.Height
		if above || (inRow && at.X < box.Center().X) {
			return child.Parent.Index
		}
	}
	return next
}
