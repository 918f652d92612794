// Package render draws editor shapes as SVG and PDF and reads shapes back
// from SVG documents.
package render

import (
	"errors"
	"fmt"
	"html"
	"io"
	"strconv"
	"strings"

	"layer-editor/internal/editor/geometry"
	"layer-editor/internal/editor/shape"

	"gonum.org/v1/gonum/spatial/r2"
)

var ErrNoHandle = errors.New("no handle attached")

const defaultCanvasSize = 1000.0

// Handle is the resize/rotate handle around one shape. Its scale accumulates
// across transforms until ResetHandleScale is called.
type Handle struct {
	Target shape.ID
	ScaleX float64
	ScaleY float64
}

// ============================================================
// Canvas
// ============================================================

// Canvas is an in-memory SVG stage. It keeps the last rendered frame so
// pointer queries and exports see what the user sees.
type Canvas struct {
	width      float64
	height     float64
	background string
	shapes     []shape.Shape
	handle     *Handle
}

// NewCanvas creates a stage. A zero size is derived from the content.
func NewCanvas(width, height float64) *Canvas {
	return &Canvas{width: width, height: height}
}

// SetBackground sets the href of the image drawn under the shapes.
func (c *Canvas) SetBackground(href string) {
	c.background = href
}

func (c *Canvas) Clear() {
	c.shapes = c.shapes[:0]
}

func (c *Canvas) RenderShape(s shape.Shape) {
	c.shapes = append(c.shapes, s.Clone())
}

func (c *Canvas) AttachHandles(id shape.ID) {
	if c.handle != nil && c.handle.Target == id {
		return
	}
	c.handle = &Handle{Target: id, ScaleX: 1, ScaleY: 1}
}

func (c *Canvas) DetachHandles() {
	c.handle = nil
}

func (c *Canvas) ResetHandleScale() {
	if c.handle != nil {
		c.handle.ScaleX, c.handle.ScaleY = 1, 1
	}
}

// Handle returns a copy of the attached handle.
func (c *Canvas) Handle() (Handle, bool) {
	if c.handle == nil {
		return Handle{}, false
	}
	return *c.handle, true
}

func (c *Canvas) Shapes() []shape.Shape {
	return shape.CloneAll(c.shapes)
}

// Hit returns the topmost shape under p, or the zero ID.
func (c *Canvas) Hit(p shape.Point) shape.ID {
	for i := len(c.shapes) - 1; i >= 0; i-- {
		if geometry.Contains(c.shapes[i], p) {
			return c.shapes[i].Identity()
		}
	}
	return shape.ID{}
}

// TransformHandle simulates a drag of the handle: the target ends at `at`
// with the given rotation, and its scale is multiplied by sx, sy on top of
// whatever the handle already carries.
func (c *Canvas) TransformHandle(at shape.Point, rotation, sx, sy float64) (geometry.Transform, error) {
	if c.handle == nil {
		return geometry.Transform{}, ErrNoHandle
	}
	c.handle.ScaleX *= sx
	c.handle.ScaleY *= sy
	return geometry.Transform{
		X:        at.X,
		Y:        at.Y,
		Rotation: rotation,
		ScaleX:   c.handle.ScaleX,
		ScaleY:   c.handle.ScaleY,
	}, nil
}

// Size returns the stage size, falling back to the content bounds.
func (c *Canvas) Size() (float64, float64) {
	if c.width > 0 && c.height > 0 {
		return c.width, c.height
	}
	if len(c.shapes) == 0 {
		return defaultCanvasSize, defaultCanvasSize
	}

	box := geometry.Bounds(c.shapes[0])
	for _, s := range c.shapes[1:] {
		box = box.Union(geometry.Bounds(s))
	}
	w, h := box.Max.X, box.Max.Y
	if w <= 0 {
		w = defaultCanvasSize
	}
	if h <= 0 {
		h = defaultCanvasSize
	}
	return w, h
}

// ============================================================
// SVG output
// ============================================================

// SVG собирает документ из последнего кадра.
func (c *Canvas) SVG() string {
	width, height := c.Size()

	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	b.WriteString(fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%s" height="%s" viewBox="0 0 %s %s">`,
		formatFloat(width), formatFloat(height), formatFloat(width), formatFloat(height)))
	b.WriteString("\n")

	if c.background != "" {
		b.WriteString(fmt.Sprintf(`  <image href="%s" x="0" y="0" width="%s" height="%s" />`,
			html.EscapeString(c.background), formatFloat(width), formatFloat(height)))
		b.WriteString("\n")
	}

	for _, s := range c.shapes {
		if elem := renderShape(s); elem != "" {
			b.WriteString("  ")
			b.WriteString(elem)
			b.WriteString("\n")
		}
	}

	if elem := c.renderHandle(); elem != "" {
		b.WriteString("  ")
		b.WriteString(elem)
		b.WriteString("\n")
	}

	b.WriteString(`</svg>`)
	return b.String()
}

func (c *Canvas) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, c.SVG())
	return int64(n), err
}

func renderShape(s shape.Shape) string {
	switch v := s.(type) {
	case shape.Circle:
		return fmt.Sprintf(`<circle id="%s" cx="%s" cy="%s" r="%s" fill="%s"%s />`,
			v.ID, formatFloat(v.X), formatFloat(v.Y), formatFloat(v.Radius), html.EscapeString(v.Fill),
			rotateAttr(v.Rotation, v.X, v.Y))
	case shape.Polyline:
		return fmt.Sprintf(`<polyline id="%s" points="%s" fill="none" stroke="%s" stroke-width="%s"%s />`,
			v.ID, formatPoints(v.Points), html.EscapeString(v.Stroke), formatFloat(v.StrokeWidth),
			lineTransformAttr(v))
	}
	return ""
}

func (c *Canvas) renderHandle() string {
	if c.handle == nil {
		return ""
	}
	for _, s := range c.shapes {
		if s.Identity() != c.handle.Target {
			continue
		}
		box := geometry.Bounds(s)
		size := r2.Sub(box.Max, box.Min)
		return fmt.Sprintf(`<rect class="handle" data-target="%s" data-scale-x="%s" data-scale-y="%s" x="%s" y="%s" width="%s" height="%s" fill="none" stroke="#0096ff" stroke-dasharray="4 2" />`,
			c.handle.Target, formatFloat(c.handle.ScaleX), formatFloat(c.handle.ScaleY),
			formatFloat(box.Min.X), formatFloat(box.Min.Y), formatFloat(size.X), formatFloat(size.Y))
	}
	return ""
}

func rotateAttr(deg, cx, cy float64) string {
	if deg == 0 {
		return ""
	}
	return fmt.Sprintf(` transform="rotate(%s %s %s)"`, formatFloat(deg), formatFloat(cx), formatFloat(cy))
}

func lineTransformAttr(p shape.Polyline) string {
	var parts []string
	if p.X != 0 || p.Y != 0 {
		parts = append(parts, fmt.Sprintf("translate(%s %s)", formatFloat(p.X), formatFloat(p.Y)))
	}
	if p.Rotation != 0 {
		parts = append(parts, fmt.Sprintf("rotate(%s)", formatFloat(p.Rotation)))
	}
	if len(parts) == 0 {
		return ""
	}
	return ` transform="` + strings.Join(parts, " ") + `"`
}

// ============================================================
// Formatting helpers
// ============================================================

func formatFloat(val float64) string {
	return strconv.FormatFloat(val, 'f', -1, 64)
}

func formatPoints(points []shape.Point) string {
	parts := make([]string, len(points))
	for i, p := range points {
		parts[i] = formatFloat(p.X) + "," + formatFloat(p.Y)
	}
	return strings.Join(parts, " ")
}
