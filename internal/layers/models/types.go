package models

// ============================================================
// Layer service records
// ============================================================

type Project struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	CreatedAt   string `json:"created_at"`
	Image       *Image `json:"image,omitempty"`
}

type Image struct {
	ID        int64   `json:"id"`
	ProjectID int64   `json:"project"`
	ImageFile string  `json:"image_file"`
	CreatedAt string  `json:"created_at"`
	Layers    []Layer `json:"layers"`
}

// Layer is one persisted shape. Properties hold the kind-specific geometry
// and style; ShapeType is "circle" or "line".
type Layer struct {
	ID         int64          `json:"id"`
	Image      int64          `json:"image"`
	LayerID    int            `json:"layer_id"`
	ShapeType  string         `json:"shape_type"`
	Properties map[string]any `json:"properties"`
	CreatedAt  string         `json:"created_at"`
}

// ============================================================
// Requests
// ============================================================

type CreateLayerRequest struct {
	Image      int64          `json:"image"`
	LayerID    int            `json:"layer_id"`
	ShapeType  string         `json:"shape_type"`
	Properties map[string]any `json:"properties"`
}

type PatchLayerRequest struct {
	Properties map[string]any `json:"properties"`
}
