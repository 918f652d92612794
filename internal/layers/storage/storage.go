package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var ErrUnsupportedImage = errors.New("unsupported image type")

var allowedExt = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
	".svg":  "image/svg+xml",
}

// ============================================================
// File Storage
// ============================================================

// FileStorage хранит загруженные изображения под root/images.
type FileStorage struct {
	root string
}

func NewFileStorage(root string) *FileStorage {
	return &FileStorage{root: root}
}

func (s *FileStorage) Root() string {
	return s.root
}

func (s *FileStorage) ImagesDir() string {
	return filepath.Join(s.root, "images")
}

// Path переводит имя из базы (images/<file>) в путь на диске.
func (s *FileStorage) Path(stored string) (string, error) {
	clean := filepath.Clean("/" + filepath.FromSlash(stored))
	path := filepath.Join(s.root, clean)
	if !strings.HasPrefix(path, filepath.Clean(s.root)+string(os.PathSeparator)) {
		return "", fmt.Errorf("path %q escapes media root", stored)
	}
	return path, nil
}

func (s *FileStorage) EnsureImagesDir() error {
	if err := os.MkdirAll(s.ImagesDir(), 0o755); err != nil {
		return fmt.Errorf("mkdir images dir: %w", err)
	}
	return nil
}

// SaveImage сохраняет файл под новым uuid-именем и возвращает имя для базы.
func (s *FileStorage) SaveImage(originalName string, data []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	if _, ok := allowedExt[ext]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedImage, ext)
	}
	if err := s.EnsureImagesDir(); err != nil {
		return "", err
	}

	name := uuid.NewString() + ext
	if err := os.WriteFile(filepath.Join(s.ImagesDir(), name), data, 0o644); err != nil {
		return "", fmt.Errorf("write image: %w", err)
	}
	return "images/" + name, nil
}

// ContentType угадывает тип по расширению сохранённого файла.
func ContentType(stored string) string {
	if ct, ok := allowedExt[strings.ToLower(filepath.Ext(stored))]; ok {
		return ct
	}
	return "application/octet-stream"
}
