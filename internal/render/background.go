package render

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"

	_ "golang.org/x/image/webp"
)

// ImageSize reads the pixel size of an uploaded background image so exports
// line up with what the editor showed.
func ImageSize(r io.Reader) (float64, float64, error) {
	cfg, format, err := image.DecodeConfig(r)
	if err != nil {
		return 0, 0, fmt.Errorf("decode image config: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return 0, 0, fmt.Errorf("%s image has no size", format)
	}
	return float64(cfg.Width), float64(cfg.Height), nil
}
