package geometry

import (
	"math"

	"layer-editor/internal/editor/shape"

	"gonum.org/v1/gonum/spatial/r2"
)

// HitTolerance widens thin polylines so they can still be picked.
const HitTolerance = 4.0

// WorldPoints returns the polyline's points on the canvas, with the node
// offset and rotation applied.
func WorldPoints(p shape.Polyline) []r2.Vec {
	origin := r2.Vec{X: p.X, Y: p.Y}
	rot := r2.NewRotation(radians(p.Rotation), r2.Vec{})
	out := make([]r2.Vec, len(p.Points))
	for i, pt := range p.Points {
		out[i] = r2.Add(rot.Rotate(pt), origin)
	}
	return out
}

// Bounds is the axis-aligned box around s as drawn.
func Bounds(s shape.Shape) r2.Box {
	switch v := s.(type) {
	case shape.Circle:
		return r2.NewBox(v.X-v.Radius, v.Y-v.Radius, v.X+v.Radius, v.Y+v.Radius)
	case shape.Polyline:
		pts := WorldPoints(v)
		if len(pts) == 0 {
			return r2.Box{}
		}
		box := r2.Box{Min: pts[0], Max: pts[0]}
		for _, pt := range pts[1:] {
			box = box.Union(r2.Box{Min: pt, Max: pt})
		}
		pad := v.StrokeWidth / 2
		return r2.Box{
			Min: r2.Sub(box.Min, r2.Vec{X: pad, Y: pad}),
			Max: r2.Add(box.Max, r2.Vec{X: pad, Y: pad}),
		}
	}
	return r2.Box{}
}

// Contains reports whether p lands on s.
func Contains(s shape.Shape, p r2.Vec) bool {
	switch v := s.(type) {
	case shape.Circle:
		return r2.Norm(r2.Sub(p, r2.Vec{X: v.X, Y: v.Y})) <= v.Radius
	case shape.Polyline:
		reach := math.Max(v.StrokeWidth/2, HitTolerance)
		pts := WorldPoints(v)
		for i := 1; i < len(pts); i++ {
			if segmentDistance(p, pts[i-1], pts[i]) <= reach {
				return true
			}
		}
	}
	return false
}

func segmentDistance(p, a, b r2.Vec) float64 {
	ab := r2.Sub(b, a)
	l2 := r2.Norm2(ab)
	if l2 == 0 {
		return r2.Norm(r2.Sub(p, a))
	}
	t := r2.Dot(r2.Sub(p, a), ab) / l2
	t = math.Max(0, math.Min(1, t))
	closest := r2.Add(a, r2.Scale(t, ab))
	return r2.Norm(r2.Sub(p, closest))
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
