package shape

import (
	"fmt"
	"math"
)

// ============================================================
// Layer properties codec
// ============================================================

// Properties encodes the geometry and style of s for a layer record. Identity,
// kind and draft state are never part of it.
func Properties(s Shape) map[string]any {
	switch v := s.(type) {
	case Circle:
		return map[string]any{
			"x":        v.X,
			"y":        v.Y,
			"radius":   v.Radius,
			"fill":     v.Fill,
			"rotation": v.Rotation,
		}
	case Polyline:
		return map[string]any{
			"x":           v.X,
			"y":           v.Y,
			"points":      v.Coords(),
			"stroke":      v.Stroke,
			"strokeWidth": v.StrokeWidth,
			"rotation":    v.Rotation,
		}
	}
	return map[string]any{}
}

// FromRecord decodes a persisted layer record.
func FromRecord(id int64, kind string, props map[string]any) (Shape, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: layer id %d", ErrInvalidShape, id)
	}

	var s Shape
	switch Kind(kind) {
	case KindCircle:
		s = Circle{
			ID:       ServerID(id),
			X:        floatProp(props, "x", 0),
			Y:        floatProp(props, "y", 0),
			Radius:   floatProp(props, "radius", 0),
			Fill:     stringProp(props, "fill"),
			Rotation: floatProp(props, "rotation", 0),
		}
	case KindLine:
		points, err := pointsProp(props, "points")
		if err != nil {
			return nil, fmt.Errorf("layer %d: %w", id, err)
		}
		s = Polyline{
			ID:          ServerID(id),
			X:           floatProp(props, "x", 0),
			Y:           floatProp(props, "y", 0),
			Points:      points,
			Stroke:      stringProp(props, "stroke"),
			StrokeWidth: floatProp(props, "strokeWidth", 0),
			Rotation:    floatProp(props, "rotation", 0),
		}
	default:
		return nil, fmt.Errorf("%w: layer %d has unknown shape type %q", ErrInvalidShape, id, kind)
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func floatProp(props map[string]any, key string, def float64) float64 {
	if v, ok := toFloat(props[key]); ok {
		return v
	}
	return def
}

func stringProp(props map[string]any, key string) string {
	if v, ok := props[key].(string); ok {
		return v
	}
	return ""
}

func pointsProp(props map[string]any, key string) ([]Point, error) {
	var coords []float64
	switch raw := props[key].(type) {
	case []float64:
		coords = raw
	case []any:
		coords = make([]float64, 0, len(raw))
		for _, item := range raw {
			v, ok := toFloat(item)
			if !ok {
				return nil, fmt.Errorf("%w: non-numeric point coordinate %v", ErrInvalidShape, item)
			}
			coords = append(coords, v)
		}
	case nil:
		return nil, fmt.Errorf("%w: missing points", ErrInvalidShape)
	default:
		return nil, fmt.Errorf("%w: points must be an array, got %T", ErrInvalidShape, raw)
	}

	if len(coords)%2 != 0 {
		return nil, fmt.Errorf("%w: odd number of point coordinates (%d)", ErrInvalidShape, len(coords))
	}
	points := make([]Point, 0, len(coords)/2)
	for i := 0; i < len(coords); i += 2 {
		points = append(points, Point{X: coords[i], Y: coords[i+1]})
	}
	return points, nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, !math.IsNaN(n)
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
