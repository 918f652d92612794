// Package shape holds the vector shapes overlaid on a project image.
package shape

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// ErrInvalidShape is returned when a shape violates a geometric invariant.
var ErrInvalidShape = errors.New("invalid shape")

// Kind is the shape type as stored in layer records.
type Kind string

const (
	KindCircle Kind = "circle"
	KindLine   Kind = "line"
)

// MinPolylinePoints is the number of clicks that commits a polyline.
const MinPolylinePoints = 2

// Point is a canvas coordinate.
type Point = r2.Vec

// Shape is either a Circle or a Polyline. Rotation is in degrees.
type Shape interface {
	Identity() ID
	Kind() Kind
	// Clone returns a copy that shares no memory with the receiver.
	Clone() Shape
	Validate() error
	WithID(id ID) Shape
}

// ============================================================
// Circle
// ============================================================

type Circle struct {
	ID       ID
	X        float64
	Y        float64
	Radius   float64
	Fill     string
	Rotation float64
}

func (c Circle) Identity() ID { return c.ID }
func (c Circle) Kind() Kind   { return KindCircle }
func (c Circle) Clone() Shape { return c }

func (c Circle) WithID(id ID) Shape {
	c.ID = id
	return c
}

func (c Circle) Validate() error {
	if c.ID.IsZero() {
		return fmt.Errorf("%w: circle without id", ErrInvalidShape)
	}
	if !finite(c.X, c.Y, c.Rotation) {
		return fmt.Errorf("%w: circle %s has non-finite position", ErrInvalidShape, c.ID)
	}
	if !finite(c.Radius) || c.Radius <= 0 {
		return fmt.Errorf("%w: circle %s radius %v must be positive", ErrInvalidShape, c.ID, c.Radius)
	}
	return nil
}

// ============================================================
// Polyline
// ============================================================

// Polyline is an open path. X and Y offset every point, the way a dragged
// line node keeps its points and moves its origin.
type Polyline struct {
	ID          ID
	X           float64
	Y           float64
	Points      []Point
	Stroke      string
	StrokeWidth float64
	Rotation    float64
}

func (p Polyline) Identity() ID { return p.ID }
func (p Polyline) Kind() Kind   { return KindLine }

func (p Polyline) Clone() Shape {
	p.Points = append([]Point(nil), p.Points...)
	return p
}

func (p Polyline) WithID(id ID) Shape {
	out := p.Clone().(Polyline)
	out.ID = id
	return out
}

func (p Polyline) Validate() error {
	if p.ID.IsZero() {
		return fmt.Errorf("%w: polyline without id", ErrInvalidShape)
	}
	if len(p.Points) < MinPolylinePoints {
		return fmt.Errorf("%w: polyline %s has %d points, need %d", ErrInvalidShape, p.ID, len(p.Points), MinPolylinePoints)
	}
	if !finite(p.X, p.Y, p.Rotation, p.StrokeWidth) {
		return fmt.Errorf("%w: polyline %s has non-finite fields", ErrInvalidShape, p.ID)
	}
	if p.StrokeWidth < 0 {
		return fmt.Errorf("%w: polyline %s stroke width %v", ErrInvalidShape, p.ID, p.StrokeWidth)
	}
	for _, pt := range p.Points {
		if !finite(pt.X, pt.Y) {
			return fmt.Errorf("%w: polyline %s has non-finite point", ErrInvalidShape, p.ID)
		}
	}
	return nil
}

// Coords flattens the points into x1, y1, x2, y2, ...
func (p Polyline) Coords() []float64 {
	out := make([]float64, 0, len(p.Points)*2)
	for _, pt := range p.Points {
		out = append(out, pt.X, pt.Y)
	}
	return out
}

// CloneAll deep-copies a list of shapes.
func CloneAll(shapes []Shape) []Shape {
	if shapes == nil {
		return nil
	}
	out := make([]Shape, len(shapes))
	for i, s := range shapes {
		out[i] = s.Clone()
	}
	return out
}

func finite(vals ...float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
