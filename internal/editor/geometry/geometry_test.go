package geometry

import (
	"math"
	"testing"

	"layer-editor/internal/editor/shape"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"
)

func TestNormalizeCircleUsesScaleX(t *testing.T) {
	c := shape.Circle{ID: shape.ServerID(1), X: 0, Y: 0, Radius: 40, Fill: "#f00"}

	out, reset, err := Normalize(c, Transform{X: 15, Y: 25, Rotation: 30, ScaleX: 1.5, ScaleY: 3})
	require.NoError(t, err)
	got := out.(shape.Circle)
	require.Equal(t, 60.0, got.Radius)
	require.Equal(t, 15.0, got.X)
	require.Equal(t, 25.0, got.Y)
	require.Equal(t, 30.0, got.Rotation)
	require.Equal(t, "#f00", got.Fill)

	require.Equal(t, 1.0, reset.ScaleX)
	require.Equal(t, 1.0, reset.ScaleY)
	require.Equal(t, 15.0, reset.X)
	require.Equal(t, 40.0, c.Radius, "input untouched")
}

func TestNormalizePolylinePerAxis(t *testing.T) {
	p := shape.Polyline{ID: shape.ServerID(2), Points: []shape.Point{{X: 10, Y: 10}, {X: 20, Y: -4}}, StrokeWidth: 3}

	out, _, err := Normalize(p, Transform{X: 1, Y: 2, ScaleX: 2, ScaleY: 0.5})
	require.NoError(t, err)
	require.Equal(t, []shape.Point{{X: 20, Y: 5}, {X: 40, Y: -2}}, out.(shape.Polyline).Points)
	require.Equal(t, []shape.Point{{X: 10, Y: 10}, {X: 20, Y: -4}}, p.Points, "input untouched")
}

func TestNormalizeAppliesScaleOnce(t *testing.T) {
	c := shape.Circle{ID: shape.ServerID(1), Radius: 10}
	tr := Transform{ScaleX: 2, ScaleY: 2}

	once, reset, err := Normalize(c, tr)
	require.NoError(t, err)
	require.Equal(t, 20.0, once.(shape.Circle).Radius)

	// Re-reading the handle after the reset must not scale again.
	again, reset2, err := Normalize(once, reset)
	require.NoError(t, err)
	require.Equal(t, 20.0, again.(shape.Circle).Radius)
	require.Equal(t, 1.0, reset2.ScaleX)
	require.Equal(t, 1.0, reset2.ScaleY)
}

func TestNormalizeRejectsBadScale(t *testing.T) {
	c := shape.Circle{ID: shape.ServerID(1), Radius: 10}
	for _, s := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		_, _, err := Normalize(c, Transform{ScaleX: s, ScaleY: 1})
		require.ErrorIs(t, err, shape.ErrInvalidShape)
	}
}

func TestBoundsAndContains(t *testing.T) {
	c := shape.Circle{ID: shape.ServerID(1), X: 50, Y: 50, Radius: 10}
	b := Bounds(c)
	require.Equal(t, r2.Vec{X: 40, Y: 40}, b.Min)
	require.Equal(t, r2.Vec{X: 60, Y: 60}, b.Max)
	require.True(t, Contains(c, r2.Vec{X: 55, Y: 55}))
	require.False(t, Contains(c, r2.Vec{X: 61, Y: 50}))

	p := shape.Polyline{ID: shape.ServerID(2), X: 100, Points: []shape.Point{{X: 0, Y: 0}, {X: 10, Y: 0}}, StrokeWidth: 2}
	require.True(t, Contains(p, r2.Vec{X: 105, Y: 1}))
	require.False(t, Contains(p, r2.Vec{X: 5, Y: 0}))

	rotated := p
	rotated.Rotation = 90
	pts := WorldPoints(rotated)
	require.InDelta(t, 100, pts[1].X, 1e-9)
	require.InDelta(t, 10, pts[1].Y, 1e-9)
	require.True(t, Contains(rotated, r2.Vec{X: 100, Y: 5}))
}
