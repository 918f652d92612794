package render

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"layer-editor/internal/editor/shape"

	"github.com/stretchr/testify/require"
)

func sampleShapes() []shape.Shape {
	return []shape.Shape{
		shape.Circle{ID: shape.ServerID(1), X: 100, Y: 100, Radius: 40, Fill: "#ff0000", Rotation: 30},
		shape.Polyline{
			ID:          shape.ServerID(2),
			X:           10,
			Y:           5,
			Points:      []shape.Point{{X: 0, Y: 0}, {X: 200, Y: 0}, {X: 200, Y: 50}},
			Stroke:      "#0000ff",
			StrokeWidth: 3,
			Rotation:    90,
		},
	}
}

func draw(c *Canvas, shapes []shape.Shape) {
	c.Clear()
	for _, s := range shapes {
		c.RenderShape(s)
	}
}

func TestHitPicksTopmost(t *testing.T) {
	c := NewCanvas(500, 500)
	draw(c, []shape.Shape{
		shape.Circle{ID: shape.ServerID(1), X: 100, Y: 100, Radius: 50},
		shape.Circle{ID: shape.ServerID(2), X: 120, Y: 100, Radius: 50},
	})

	require.Equal(t, shape.ServerID(2), c.Hit(shape.Point{X: 110, Y: 100}))
	require.Equal(t, shape.ServerID(1), c.Hit(shape.Point{X: 55, Y: 100}))
	require.True(t, c.Hit(shape.Point{X: 400, Y: 400}).IsZero())
}

func TestHandleScaleCompoundsUntilReset(t *testing.T) {
	c := NewCanvas(500, 500)
	id := shape.ServerID(1)
	draw(c, []shape.Shape{shape.Circle{ID: id, X: 10, Y: 10, Radius: 5}})

	_, err := c.TransformHandle(shape.Point{}, 0, 2, 2)
	require.ErrorIs(t, err, ErrNoHandle)

	c.AttachHandles(id)
	tr, err := c.TransformHandle(shape.Point{X: 10, Y: 10}, 0, 2, 3)
	require.NoError(t, err)
	require.Equal(t, 2.0, tr.ScaleX)

	tr, err = c.TransformHandle(shape.Point{X: 10, Y: 10}, 15, 2, 1)
	require.NoError(t, err)
	require.Equal(t, 4.0, tr.ScaleX)
	require.Equal(t, 3.0, tr.ScaleY)
	require.Equal(t, 15.0, tr.Rotation)

	c.ResetHandleScale()
	tr, err = c.TransformHandle(shape.Point{X: 10, Y: 10}, 15, 2, 1)
	require.NoError(t, err)
	require.Equal(t, 2.0, tr.ScaleX)
	require.Equal(t, 1.0, tr.ScaleY)

	// Re-attaching to the same target keeps the accumulated scale.
	c.AttachHandles(id)
	h, ok := c.Handle()
	require.True(t, ok)
	require.Equal(t, 2.0, h.ScaleX)

	c.DetachHandles()
	_, ok = c.Handle()
	require.False(t, ok)
}

func TestSVGOutput(t *testing.T) {
	c := NewCanvas(640, 480)
	c.SetBackground("/media/images/a.png")
	draw(c, sampleShapes())
	c.AttachHandles(shape.ServerID(1))

	svg := c.SVG()
	require.True(t, strings.HasPrefix(svg, `<?xml`))
	require.Contains(t, svg, `viewBox="0 0 640 480"`)
	require.Contains(t, svg, `<image href="/media/images/a.png"`)
	require.Contains(t, svg, `<circle id="1" cx="100" cy="100" r="40" fill="#ff0000" transform="rotate(30 100 100)" />`)
	require.Contains(t, svg, `points="0,0 200,0 200,50"`)
	require.Contains(t, svg, `transform="translate(10 5) rotate(90)"`)
	require.Contains(t, svg, `class="handle" data-target="1"`)
}

func TestExportThenImport(t *testing.T) {
	c := NewCanvas(640, 480)
	want := sampleShapes()
	draw(c, want)

	got, err := Parse(strings.NewReader(c.SVG()))
	require.NoError(t, err)
	require.Len(t, got, 2)

	circle := got[0].(shape.Circle)
	require.True(t, circle.ID.IsDraft())
	require.Equal(t, 40.0, circle.Radius)
	require.Equal(t, 30.0, circle.Rotation)
	require.Equal(t, "#ff0000", circle.Fill)

	line := got[1].(shape.Polyline)
	orig := want[1].(shape.Polyline)
	require.Equal(t, orig.Points, line.Points)
	require.Equal(t, orig.X, line.X)
	require.Equal(t, orig.Y, line.Y)
	require.Equal(t, orig.Rotation, line.Rotation)
	require.Equal(t, orig.Stroke, line.Stroke)
}

func TestParseElements(t *testing.T) {
	doc := `<svg xmlns="http://www.w3.org/2000/svg">
  <circle cx="5" cy="6" r="0" />
  <g>
    <line x1="1" y1="2" x2="3" y2="4" stroke="green" stroke-width="2px" />
    <path d="M 0 0 h 10 v 10 z" />
    <path d="M 0 0 C 1 1 2 2 3 3" />
  </g>
  <circle cx="5" cy="6" r="7" fill="navy" />
</svg>`

	got, err := Parse(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, got, 3)

	circle := got[0].(shape.Circle)
	require.Equal(t, "#000080", circle.Fill)

	line := got[1].(shape.Polyline)
	require.Equal(t, []float64{1, 2, 3, 4}, line.Coords())
	require.Equal(t, "#008000", line.Stroke)
	require.Equal(t, 2.0, line.StrokeWidth)

	path := got[2].(shape.Polyline)
	require.Equal(t, []float64{0, 0, 10, 0, 10, 10, 0, 0}, path.Coords())
	require.Equal(t, importStroke, path.Stroke)

	_, err = Parse(strings.NewReader("<svg"))
	require.Error(t, err)
}

func TestParseColor(t *testing.T) {
	c, ok := ParseColor("#F0a")
	require.True(t, ok)
	require.Equal(t, color.RGBA{R: 0xff, G: 0x00, B: 0xaa, A: 0xff}, c)
	require.Equal(t, "#ff00aa", HexColor(c))

	_, ok = ParseColor("#12345")
	require.False(t, ok)
	_, ok = ParseColor("none")
	require.False(t, ok)
}

func TestExportPDF(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 64, 32))
	var png64 bytes.Buffer
	require.NoError(t, png.Encode(&png64, img))

	w, h, err := ImageSize(bytes.NewReader(png64.Bytes()))
	require.NoError(t, err)
	require.Equal(t, 64.0, w)
	require.Equal(t, 32.0, h)

	var out bytes.Buffer
	bg := NewBackground("images/a.png", bytes.NewReader(png64.Bytes()))
	require.NotNil(t, bg)
	require.NoError(t, ExportPDF(&out, sampleShapes(), 640, 480, bg))
	require.True(t, bytes.HasPrefix(out.Bytes(), []byte("%PDF-")))

	require.Nil(t, NewBackground("images/a.webp", nil))
	require.Error(t, ExportPDF(&out, nil, 0, 10, nil))
}
