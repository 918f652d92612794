package handlers

import (
	"bytes"
	"fmt"
	"log"
	"net/http"
	"os"

	"layer-editor/internal/editor/shape"
	"layer-editor/internal/layers/models"
	"layer-editor/internal/render"

	"github.com/gofiber/fiber/v3"
)

// ============================================================
// Export
// ============================================================

// ExportSVG отдаёт изображение проекта со слоями поверх как SVG.
func (h *LayerHandler) ExportSVG(c fiber.Ctx) error {
	project, shapes, ok, err := h.loadForExport(c)
	if !ok {
		return err
	}

	width, height, _ := h.imageSize(project.Image)
	canvas := render.NewCanvas(width, height)
	canvas.SetBackground("/media/" + project.Image.ImageFile)
	for _, s := range shapes {
		canvas.RenderShape(s)
	}

	c.Set("Content-Type", "image/svg+xml")
	return c.SendString(canvas.SVG())
}

// ExportPDF отдаёт ту же сцену одной страницей PDF.
func (h *LayerHandler) ExportPDF(c fiber.Ctx) error {
	project, shapes, ok, err := h.loadForExport(c)
	if !ok {
		return err
	}

	width, height, data := h.imageSize(project.Image)
	if width == 0 || height == 0 {
		width, height = render.NewCanvas(0, 0).Size()
	}

	var bg *render.Background
	if data != nil {
		bg = render.NewBackground(project.Image.ImageFile, bytes.NewReader(data))
	}

	var buf bytes.Buffer
	if err := render.ExportPDF(&buf, shapes, width, height, bg); err != nil {
		log.Printf("[LAYERS] pdf export error: %v", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to render pdf"})
	}

	c.Set("Content-Type", "application/pdf")
	c.Set("Content-Disposition", fmt.Sprintf(`inline; filename="project-%d.pdf"`, project.ID))
	return c.Send(buf.Bytes())
}

// loadForExport returns the project and its layers as shapes. Layers that do
// not decode are skipped. When ok is false the error response has already
// been written and err is what the handler must return.
func (h *LayerHandler) loadForExport(c fiber.Ctx) (project *models.Project, shapes []shape.Shape, ok bool, err error) {
	id, valid := idParam(c)
	if !valid {
		return nil, nil, false, c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid id"})
	}

	project, err = h.repo.GetProject(c.Context(), id)
	if err != nil {
		return nil, nil, false, h.fail(c, err, "project")
	}
	if project.Image == nil {
		return nil, nil, false, c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "project has no image"})
	}

	shapes = make([]shape.Shape, 0, len(project.Image.Layers))
	for _, l := range project.Image.Layers {
		s, err := shape.FromRecord(l.ID, l.ShapeType, l.Properties)
		if err != nil {
			log.Printf("[LAYERS] skip layer %d in export: %v", l.ID, err)
			continue
		}
		shapes = append(shapes, s)
	}
	return project, shapes, true, nil
}

// imageSize reads the stored image. Zero size means unknown.
func (h *LayerHandler) imageSize(image *models.Image) (float64, float64, []byte) {
	path, err := h.storage.Path(image.ImageFile)
	if err != nil {
		return 0, 0, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("[LAYERS] read image %s: %v", image.ImageFile, err)
		return 0, 0, nil
	}
	w, hgt, err := render.ImageSize(bytes.NewReader(data))
	if err != nil {
		return 0, 0, data
	}
	return w, hgt, data
}
