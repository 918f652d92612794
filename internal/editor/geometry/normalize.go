// Package geometry folds transform-handle results back into shape fields and
// answers bounds and hit queries.
package geometry

import (
	"fmt"
	"math"

	"layer-editor/internal/editor/shape"
)

// Transform is what a resize/rotate handle reports when the user lets go:
// final position, rotation in degrees, and the scale accumulated since the
// handle was attached.
type Transform struct {
	X        float64
	Y        float64
	Rotation float64
	ScaleX   float64
	ScaleY   float64
}

// Identity is a transform with unit scale at the origin.
func Identity() Transform {
	return Transform{ScaleX: 1, ScaleY: 1}
}

// Normalize bakes t's scale into the geometry of s and returns the new shape
// together with t reset to unit scale. The caller must push the reset scale
// back to the handle, otherwise the next transform compounds.
//
// Circles only honour ScaleX; a non-uniform scale on a circle keeps it round.
// Polylines scale every x coordinate by ScaleX and every y by ScaleY.
func Normalize(s shape.Shape, t Transform) (shape.Shape, Transform, error) {
	if !validScale(t.ScaleX) || !validScale(t.ScaleY) {
		return nil, t, fmt.Errorf("%w: scale %v x %v", shape.ErrInvalidShape, t.ScaleX, t.ScaleY)
	}

	var out shape.Shape
	switch v := s.Clone().(type) {
	case shape.Circle:
		v.X, v.Y, v.Rotation = t.X, t.Y, t.Rotation
		v.Radius *= t.ScaleX
		out = v
	case shape.Polyline:
		v.X, v.Y, v.Rotation = t.X, t.Y, t.Rotation
		for i := range v.Points {
			v.Points[i].X *= t.ScaleX
			v.Points[i].Y *= t.ScaleY
		}
		out = v
	default:
		return nil, t, fmt.Errorf("%w: unsupported shape %T", shape.ErrInvalidShape, s)
	}

	if err := out.Validate(); err != nil {
		return nil, t, err
	}

	t.ScaleX, t.ScaleY = 1, 1
	return out, t, nil
}

func validScale(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
