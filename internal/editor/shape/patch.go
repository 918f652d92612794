package shape

import "fmt"

// Patch is a partial update. Nil fields are left alone; fields that do not
// apply to the target kind are ignored.
type Patch struct {
	X           *float64
	Y           *float64
	Radius      *float64
	Rotation    *float64
	Fill        *string
	Stroke      *string
	StrokeWidth *float64
	Points      []Point
}

// Move is the patch produced by a drag.
func Move(at Point) Patch {
	return Patch{X: &at.X, Y: &at.Y}
}

// Recolor sets whichever color the kind paints with.
func Recolor(s Shape, color string) Patch {
	if s.Kind() == KindCircle {
		return Patch{Fill: &color}
	}
	return Patch{Stroke: &color}
}

// Apply merges p into a copy of s and validates the result.
func Apply(s Shape, p Patch) (Shape, error) {
	var out Shape
	switch v := s.Clone().(type) {
	case Circle:
		setFloat(&v.X, p.X)
		setFloat(&v.Y, p.Y)
		setFloat(&v.Radius, p.Radius)
		setFloat(&v.Rotation, p.Rotation)
		if p.Fill != nil {
			v.Fill = *p.Fill
		}
		out = v
	case Polyline:
		setFloat(&v.X, p.X)
		setFloat(&v.Y, p.Y)
		setFloat(&v.Rotation, p.Rotation)
		setFloat(&v.StrokeWidth, p.StrokeWidth)
		if p.Stroke != nil {
			v.Stroke = *p.Stroke
		}
		if p.Points != nil {
			v.Points = append([]Point(nil), p.Points...)
		}
		out = v
	default:
		return nil, fmt.Errorf("%w: unsupported shape %T", ErrInvalidShape, s)
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return out, nil
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}
