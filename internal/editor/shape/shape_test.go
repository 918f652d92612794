package shape

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIDVariants(t *testing.T) {
	d1, d2 := NewDraftID(), NewDraftID()
	require.True(t, d1.IsDraft())
	require.NotEqual(t, d1, d2)
	_, ok := d1.Server()
	require.False(t, ok)

	s := ServerID(5)
	require.False(t, s.IsDraft())
	n, ok := s.Server()
	require.True(t, ok)
	require.Equal(t, int64(5), n)
	require.Equal(t, "5", s.String())

	require.True(t, ID{}.IsZero())
	require.False(t, ID{}.IsDraft())

	parsed, err := ParseID(d1.String())
	require.NoError(t, err)
	require.Equal(t, d1, parsed)
	parsed, err = ParseID("42")
	require.NoError(t, err)
	require.Equal(t, ServerID(42), parsed)
	_, err = ParseID("nope")
	require.Error(t, err)
}

func TestNonPositiveServerIDIsNotPersisted(t *testing.T) {
	for _, n := range []int64{-3, 0} {
		_, ok := ServerID(n).Server()
		require.False(t, ok, n)
	}
}

func TestCircleValidate(t *testing.T) {
	c := Circle{ID: NewDraftID(), X: 10, Y: 10, Radius: 40}
	require.NoError(t, c.Validate())

	for _, r := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		bad := c
		bad.Radius = r
		require.ErrorIs(t, bad.Validate(), ErrInvalidShape, "radius %v", r)
	}

	c.ID = ID{}
	require.ErrorIs(t, c.Validate(), ErrInvalidShape)
}

func TestPolylineValidate(t *testing.T) {
	p := Polyline{ID: NewDraftID(), Points: []Point{{X: 0, Y: 0}}, StrokeWidth: 3}
	require.ErrorIs(t, p.Validate(), ErrInvalidShape)

	p.Points = append(p.Points, Point{X: 5, Y: 5})
	require.NoError(t, p.Validate())
	require.Equal(t, []float64{0, 0, 5, 5}, p.Coords())
}

func TestPolylineCloneDoesNotAlias(t *testing.T) {
	p := Polyline{ID: NewDraftID(), Points: []Point{{X: 1, Y: 2}, {X: 3, Y: 4}}}
	c := p.Clone().(Polyline)
	c.Points[0].X = 99
	require.Equal(t, 1.0, p.Points[0].X)

	w := p.WithID(ServerID(7)).(Polyline)
	w.Points[1].Y = 99
	require.Equal(t, 4.0, p.Points[1].Y)
	require.Equal(t, ServerID(7), w.ID)
}

func TestApplyPatch(t *testing.T) {
	c := Circle{ID: ServerID(1), X: 1, Y: 1, Radius: 10, Fill: "#000"}
	out, err := Apply(c, Move(Point{X: 5, Y: 6}))
	require.NoError(t, err)
	require.Equal(t, 5.0, out.(Circle).X)
	require.Equal(t, 6.0, out.(Circle).Y)
	require.Equal(t, 1.0, c.X, "input is not modified")

	out, err = Apply(c, Recolor(c, "#fff"))
	require.NoError(t, err)
	require.Equal(t, "#fff", out.(Circle).Fill)

	zero := 0.0
	_, err = Apply(c, Patch{Radius: &zero})
	require.ErrorIs(t, err, ErrInvalidShape)

	p := Polyline{ID: ServerID(2), Points: []Point{{}, {X: 1, Y: 1}}, Stroke: "#000"}
	out, err = Apply(p, Recolor(p, "#f00"))
	require.NoError(t, err)
	require.Equal(t, "#f00", out.(Polyline).Stroke)

	_, err = Apply(p, Patch{Points: []Point{{X: 1, Y: 1}}})
	require.ErrorIs(t, err, ErrInvalidShape)
}

func TestPropertiesRoundTripThroughJSON(t *testing.T) {
	p := Polyline{ID: ServerID(3), X: 2, Points: []Point{{X: 1, Y: 2}, {X: 3, Y: 4}}, Stroke: "#00f", StrokeWidth: 3, Rotation: 45}

	props := Properties(p)
	require.NotContains(t, props, "id")
	require.NotContains(t, props, "type")

	raw, err := json.Marshal(props)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))

	back, err := FromRecord(3, "line", decoded)
	require.NoError(t, err)
	require.Equal(t, p, back)
}

func TestFromRecordCircle(t *testing.T) {
	s, err := FromRecord(5, "circle", map[string]any{"x": 10.0, "y": 20.0, "radius": 40.0, "fill": "#ff0000"})
	require.NoError(t, err)
	require.Equal(t, Circle{ID: ServerID(5), X: 10, Y: 20, Radius: 40, Fill: "#ff0000"}, s)
}

func TestFromRecordRejects(t *testing.T) {
	_, err := FromRecord(1, "rect", map[string]any{})
	require.ErrorIs(t, err, ErrInvalidShape)

	_, err = FromRecord(1, "circle", map[string]any{"radius": -3.0})
	require.ErrorIs(t, err, ErrInvalidShape)

	_, err = FromRecord(1, "line", map[string]any{"points": []any{1.0, 2.0, 3.0}})
	require.ErrorIs(t, err, ErrInvalidShape)

	_, err = FromRecord(0, "circle", map[string]any{"radius": 3.0})
	require.ErrorIs(t, err, ErrInvalidShape)
}
