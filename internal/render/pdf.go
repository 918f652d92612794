package render

import (
	"fmt"
	"io"
	"strings"

	"layer-editor/internal/editor/geometry"
	"layer-editor/internal/editor/shape"

	"github.com/jung-kurt/gofpdf"
)

// Background is an image placed under the shapes of a PDF page.
type Background struct {
	Name string
	// Type is one of PNG, JPG, JPEG or GIF.
	Type string
	Data io.Reader
}

// pdfImageType maps a stored file name to a type gofpdf can embed.
func pdfImageType(name string) (string, bool) {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".png"):
		return "PNG", true
	case strings.HasSuffix(lower, ".jpg"), strings.HasSuffix(lower, ".jpeg"):
		return "JPG", true
	case strings.HasSuffix(lower, ".gif"):
		return "GIF", true
	}
	return "", false
}

// NewBackground returns nil when the file type cannot be embedded in a PDF.
func NewBackground(name string, data io.Reader) *Background {
	t, ok := pdfImageType(name)
	if !ok {
		return nil
	}
	return &Background{Name: name, Type: t, Data: data}
}

// ExportPDF пишет одну страницу размером width x height (1px = 1pt).
func ExportPDF(w io.Writer, shapes []shape.Shape, width, height float64, bg *Background) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid page size %vx%v", width, height)
	}

	p := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: width, Ht: height},
	})
	p.SetMargins(0, 0, 0)
	p.SetAutoPageBreak(false, 0)
	p.AddPage()

	if bg != nil {
		opts := gofpdf.ImageOptions{ImageType: bg.Type}
		p.RegisterImageOptionsReader(bg.Name, opts, bg.Data)
		p.ImageOptions(bg.Name, 0, 0, width, height, false, opts, 0, "")
	}

	p.SetLineCapStyle("round")
	p.SetLineJoinStyle("round")

	for _, s := range shapes {
		switch v := s.(type) {
		case shape.Circle:
			c, ok := ParseColor(v.Fill)
			if !ok {
				c, _ = ParseColor(importFill)
			}
			p.SetFillColor(int(c.R), int(c.G), int(c.B))
			p.Circle(v.X, v.Y, v.Radius, "F")

		case shape.Polyline:
			c, ok := ParseColor(v.Stroke)
			if !ok {
				c, _ = ParseColor(importStroke)
			}
			p.SetDrawColor(int(c.R), int(c.G), int(c.B))
			p.SetLineWidth(v.StrokeWidth)

			pts := geometry.WorldPoints(v)
			p.MoveTo(pts[0].X, pts[0].Y)
			for _, pt := range pts[1:] {
				p.LineTo(pt.X, pt.Y)
			}
			p.DrawPath("D")
		}
	}

	return p.Output(w)
}
