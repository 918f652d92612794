package handlers

import (
	"errors"
	"io"
	"log"
	"net/http"
	"strings"

	"layer-editor/internal/layers/models"
	"layer-editor/internal/layers/repository"
	"layer-editor/internal/layers/storage"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/static"
)

// ============================================================
// Layer Handler
// ============================================================

type LayerHandler struct {
	repo    *repository.Repository
	storage *storage.FileStorage
}

func NewLayerHandler(repo *repository.Repository, storage *storage.FileStorage) *LayerHandler {
	return &LayerHandler{
		repo:    repo,
		storage: storage,
	}
}

// Register вешает все маршруты сервиса на router.
func (h *LayerHandler) Register(router fiber.Router) {
	router.Get("/projects", h.ListProjects)
	router.Post("/projects/upload", h.UploadProject)
	router.Get("/projects/:id", h.GetProject)
	router.Get("/projects/:id/svg", h.ExportSVG)
	router.Get("/projects/:id/pdf", h.ExportPDF)

	router.Post("/layers", h.CreateLayer)
	router.Get("/layers/:id", h.GetLayer)
	router.Patch("/layers/:id", h.PatchLayer)
	router.Delete("/layers/:id", h.DeleteLayer)

	router.Get("/media/*", static.New(h.storage.Root()))
}

// ============================================================
// Projects
// ============================================================

// ListProjects возвращает все проекты.
func (h *LayerHandler) ListProjects(c fiber.Ctx) error {
	projects, err := h.repo.ListProjects(c.Context())
	if err != nil {
		log.Printf("[LAYERS] list projects error: %v", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to list projects"})
	}
	return c.JSON(projects)
}

// UploadProject создаёт проект из multipart формы title, description, image_file.
func (h *LayerHandler) UploadProject(c fiber.Ctx) error {
	title := strings.TrimSpace(c.FormValue("title"))
	if title == "" {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "title required"})
	}

	fileHeader, err := c.FormFile("image_file")
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "image_file required"})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to open file"})
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to read file"})
	}

	stored, err := h.storage.SaveImage(fileHeader.Filename, data)
	if errors.Is(err, storage.ErrUnsupportedImage) {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err != nil {
		log.Printf("[LAYERS] save image error: %v", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to save file"})
	}

	project, err := h.repo.CreateProject(c.Context(), title, c.FormValue("description"), stored)
	if err != nil {
		log.Printf("[LAYERS] create project error: %v", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to create project"})
	}

	log.Printf("[LAYERS] Project %d created with image %s", project.ID, stored)
	return c.Status(http.StatusCreated).JSON(project)
}

// GetProject возвращает проект с изображением и слоями.
func (h *LayerHandler) GetProject(c fiber.Ctx) error {
	id, ok := idParam(c)
	if !ok {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid id"})
	}

	project, err := h.repo.GetProject(c.Context(), id)
	if err != nil {
		return h.fail(c, err, "project")
	}
	return c.JSON(project)
}

// ============================================================
// Layers
// ============================================================

// CreateLayer сохраняет новый слой изображения.
func (h *LayerHandler) CreateLayer(c fiber.Ctx) error {
	var req models.CreateLayerRequest
	if err := c.Bind().JSON(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid json"})
	}
	if req.Image <= 0 || req.ShapeType == "" {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "image and shape_type required"})
	}

	layer, err := h.repo.CreateLayer(c.Context(), req)
	if errors.Is(err, repository.ErrNotFound) {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "image not found"})
	}
	if err != nil {
		return h.fail(c, err, "layer")
	}

	log.Printf("[LAYERS] Layer %d (%s) created on image %d at %d", layer.ID, layer.ShapeType, layer.Image, layer.LayerID)
	return c.Status(http.StatusCreated).JSON(layer)
}

func (h *LayerHandler) GetLayer(c fiber.Ctx) error {
	id, ok := idParam(c)
	if !ok {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid id"})
	}

	layer, err := h.repo.GetLayer(c.Context(), id)
	if err != nil {
		return h.fail(c, err, "layer")
	}
	return c.JSON(layer)
}

// PatchLayer целиком заменяет properties слоя.
func (h *LayerHandler) PatchLayer(c fiber.Ctx) error {
	id, ok := idParam(c)
	if !ok {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid id"})
	}

	var req models.PatchLayerRequest
	if err := c.Bind().JSON(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid json"})
	}
	if req.Properties == nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "properties required"})
	}

	layer, err := h.repo.UpdateLayerProperties(c.Context(), id, req.Properties)
	if err != nil {
		return h.fail(c, err, "layer")
	}
	return c.JSON(layer)
}

func (h *LayerHandler) DeleteLayer(c fiber.Ctx) error {
	id, ok := idParam(c)
	if !ok {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid id"})
	}

	if err := h.repo.DeleteLayer(c.Context(), id); err != nil {
		return h.fail(c, err, "layer")
	}
	return c.SendStatus(http.StatusNoContent)
}

// ============================================================
// Helpers
// ============================================================

func idParam(c fiber.Ctx) (int64, bool) {
	id := fiber.Params[int64](c, "id", 0)
	return id, id > 0
}

func (h *LayerHandler) fail(c fiber.Ctx, err error, what string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": what + " not found"})
	}
	log.Printf("[LAYERS] %s error: %v", what, err)
	return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
}
