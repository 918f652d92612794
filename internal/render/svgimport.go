package render

import (
	"encoding/xml"
	"fmt"
	"io"
	"log"
	"regexp"
	"strconv"
	"strings"

	"layer-editor/internal/editor/shape"
)

const (
	importFill        = "#ff0000"
	importStroke      = "#000000"
	importStrokeWidth = 3.0
)

// ============================================================
// XML Structures
// ============================================================

type svgDoc struct {
	XMLName xml.Name `xml:"svg"`
	svgGroup
}

type svgGroup struct {
	Circles   []svgCircle   `xml:"circle"`
	Polylines []svgPolyline `xml:"polyline"`
	Lines     []svgLine     `xml:"line"`
	Paths     []svgPath     `xml:"path"`
	Groups    []svgGroup    `xml:"g"`
}

type svgCircle struct {
	CX        float64 `xml:"cx,attr"`
	CY        float64 `xml:"cy,attr"`
	R         float64 `xml:"r,attr"`
	Fill      string  `xml:"fill,attr"`
	Transform string  `xml:"transform,attr"`
}

type svgStroke struct {
	Stroke      string `xml:"stroke,attr"`
	StrokeWidth string `xml:"stroke-width,attr"`
	Transform   string `xml:"transform,attr"`
}

type svgPolyline struct {
	Points string `xml:"points,attr"`
	svgStroke
}

type svgLine struct {
	X1 float64 `xml:"x1,attr"`
	Y1 float64 `xml:"y1,attr"`
	X2 float64 `xml:"x2,attr"`
	Y2 float64 `xml:"y2,attr"`
	svgStroke
}

type svgPath struct {
	D string `xml:"d,attr"`
	svgStroke
}

// ============================================================
// Parser
// ============================================================

// Parse reads circles, polylines, lines and straight-segment paths from an
// SVG document and returns them as drafts, grouped by element kind within each
// group. Elements that would not make a valid shape are skipped.
func Parse(r io.Reader) ([]shape.Shape, error) {
	var doc svgDoc
	decoder := xml.NewDecoder(r)
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode svg: %w", err)
	}

	var out []shape.Shape
	skipped := collect(doc.svgGroup, &out)
	if skipped > 0 {
		log.Printf("[RENDER] SVG import skipped %d elements", skipped)
	}
	return out, nil
}

func collect(g svgGroup, out *[]shape.Shape) int {
	skipped := 0
	add := func(s shape.Shape) {
		if err := s.Validate(); err != nil {
			skipped++
			return
		}
		*out = append(*out, s)
	}

	for _, c := range g.Circles {
		rot, _, _ := parseTransform(c.Transform)
		add(shape.Circle{
			ID:       shape.NewDraftID(),
			X:        c.CX,
			Y:        c.CY,
			Radius:   c.R,
			Fill:     normalizeColor(c.Fill, importFill),
			Rotation: rot,
		})
	}
	for _, p := range g.Polylines {
		add(polyline(pointsFromCoords(parseCoords(p.Points)), p.svgStroke))
	}
	for _, l := range g.Lines {
		add(polyline([]shape.Point{{X: l.X1, Y: l.Y1}, {X: l.X2, Y: l.Y2}}, l.svgStroke))
	}
	for _, p := range g.Paths {
		points, err := ParsePath(p.D)
		if err != nil {
			skipped++
			continue
		}
		add(polyline(points, p.svgStroke))
	}
	for _, child := range g.Groups {
		skipped += collect(child, out)
	}
	return skipped
}

func polyline(points []shape.Point, st svgStroke) shape.Polyline {
	rot, dx, dy := parseTransform(st.Transform)
	width := importStrokeWidth
	if w, err := strconv.ParseFloat(strings.TrimSuffix(st.StrokeWidth, "px"), 64); err == nil && w > 0 {
		width = w
	}
	return shape.Polyline{
		ID:          shape.NewDraftID(),
		X:           dx,
		Y:           dy,
		Points:      points,
		Stroke:      normalizeColor(st.Stroke, importStroke),
		StrokeWidth: width,
		Rotation:    rot,
	}
}

var transformRe = regexp.MustCompile(`(rotate|translate)\(([^)]*)\)`)

// parseTransform picks rotate() and translate() out of a transform
// attribute. Other functions are ignored.
func parseTransform(attr string) (rotation, dx, dy float64) {
	for _, m := range transformRe.FindAllStringSubmatch(attr, -1) {
		args := parseCoords(m[2])
		switch m[1] {
		case "rotate":
			if len(args) >= 1 {
				rotation = args[0]
			}
		case "translate":
			if len(args) >= 1 {
				dx = args[0]
			}
			if len(args) >= 2 {
				dy = args[1]
			}
		}
	}
	return rotation, dx, dy
}

// ============================================================
// Path Parser
// ============================================================

var pathCmdRe = regexp.MustCompile(`([MmLlHhVvZz])([^MmLlHhVvZz]*)`)

// ParsePath разбирает path из прямых отрезков (M, L, H, V, Z) в точки.
// Implicit repeated coordinates after M and L are honoured.
func ParsePath(d string) ([]shape.Point, error) {
	d = strings.TrimSpace(d)
	if d == "" {
		return nil, fmt.Errorf("empty path")
	}
	if strings.ContainsAny(d, "CcSsQqTtAa") {
		return nil, fmt.Errorf("curved path segments are not supported")
	}

	var (
		points []shape.Point
		cur    shape.Point
	)
	for _, match := range pathCmdRe.FindAllStringSubmatch(d, -1) {
		cmd := match[1]
		coords := parseCoords(match[2])

		switch cmd {
		case "M", "L":
			for i := 0; i+1 < len(coords); i += 2 {
				cur = shape.Point{X: coords[i], Y: coords[i+1]}
				points = append(points, cur)
			}
		case "m", "l":
			for i := 0; i+1 < len(coords); i += 2 {
				cur = shape.Point{X: cur.X + coords[i], Y: cur.Y + coords[i+1]}
				points = append(points, cur)
			}
		case "H", "h", "V", "v":
			for _, v := range coords {
				switch cmd {
				case "H":
					cur.X = v
				case "h":
					cur.X += v
				case "V":
					cur.Y = v
				case "v":
					cur.Y += v
				}
				points = append(points, cur)
			}
		case "Z", "z":
			// Замыкаем путь, возвращаясь к первой точке
			if len(points) > 0 {
				cur = points[0]
				points = append(points, cur)
			}
		}
	}
	return points, nil
}

func parseCoords(s string) []float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	// Разделитель: запятая или пробел
	parts := strings.Fields(strings.ReplaceAll(s, ",", " "))

	coords := make([]float64, 0, len(parts))
	for _, part := range parts {
		if val, err := strconv.ParseFloat(part, 64); err == nil {
			coords = append(coords, val)
		}
	}
	return coords
}

func pointsFromCoords(coords []float64) []shape.Point {
	points := make([]shape.Point, 0, len(coords)/2)
	for i := 0; i+1 < len(coords); i += 2 {
		points = append(points, shape.Point{X: coords[i], Y: coords[i+1]})
	}
	return points
}
