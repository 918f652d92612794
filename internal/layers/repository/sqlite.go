package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"layer-editor/internal/layers/models"
)

var ErrNotFound = errors.New("not found")

//go:embed migrations/001_init_layers.sql
var initSQL string

// ============================================================
// SQLite Repository
// ============================================================

type Repository struct {
	db *sql.DB
}

func New(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Init применяет миграции.
func (r *Repository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, initSQL); err != nil {
		return fmt.Errorf("apply migration: %w", err)
	}
	return nil
}

// ============================================================
// Projects
// ============================================================

// CreateProject создаёт проект вместе с его изображением.
func (r *Repository) CreateProject(ctx context.Context, title, description, imageFile string) (*models.Project, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
        INSERT INTO projects (title, description) VALUES (?, ?)
    `, title, description)
	if err != nil {
		return nil, fmt.Errorf("insert project: %w", err)
	}
	projectID, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `
        INSERT INTO images (project_id, image_file) VALUES (?, ?)
    `, projectID, imageFile); err != nil {
		return nil, fmt.Errorf("insert image: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return r.GetProject(ctx, projectID)
}

// ListProjects возвращает проекты без слоёв.
func (r *Repository) ListProjects(ctx context.Context) ([]models.Project, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT p.id, p.title, p.description, p.created_at,
               i.id, i.image_file, i.created_at
        FROM projects p
        LEFT JOIN images i ON i.project_id = p.id
        ORDER BY p.id
    `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	projects := []models.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, *p)
	}
	return projects, rows.Err()
}

// GetProject возвращает проект, изображение и упорядоченный список слоёв.
func (r *Repository) GetProject(ctx context.Context, id int64) (*models.Project, error) {
	row := r.db.QueryRowContext(ctx, `
        SELECT p.id, p.title, p.description, p.created_at,
               i.id, i.image_file, i.created_at
        FROM projects p
        LEFT JOIN images i ON i.project_id = p.id
        WHERE p.id = ?
    `, id)

	p, err := scanProject(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("project %d: %w", id, ErrNotFound)
		}
		return nil, err
	}

	if p.Image != nil {
		layers, err := r.ListLayers(ctx, p.Image.ID)
		if err != nil {
			return nil, err
		}
		p.Image.Layers = layers
	}
	return p, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProject(row scanner) (*models.Project, error) {
	var (
		p          models.Project
		imageID    sql.NullInt64
		imageFile  sql.NullString
		imageSince sql.NullString
	)
	if err := row.Scan(&p.ID, &p.Title, &p.Description, &p.CreatedAt, &imageID, &imageFile, &imageSince); err != nil {
		return nil, err
	}
	if imageID.Valid {
		p.Image = &models.Image{
			ID:        imageID.Int64,
			ProjectID: p.ID,
			ImageFile: imageFile.String,
			CreatedAt: imageSince.String,
			Layers:    []models.Layer{},
		}
	}
	return &p, nil
}

// ============================================================
// Layers
// ============================================================

const layerColumns = `id, image_id, layer_id, shape_type, properties, created_at`

// ListLayers возвращает слои изображения в порядке layer_id, id.
func (r *Repository) ListLayers(ctx context.Context, imageID int64) ([]models.Layer, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT `+layerColumns+`
        FROM layers
        WHERE image_id = ?
        ORDER BY layer_id, id
    `, imageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	layers := []models.Layer{}
	for rows.Next() {
		l, err := scanLayer(rows)
		if err != nil {
			return nil, err
		}
		layers = append(layers, *l)
	}
	return layers, rows.Err()
}

func (r *Repository) GetLayer(ctx context.Context, id int64) (*models.Layer, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+layerColumns+` FROM layers WHERE id = ?`, id)
	l, err := scanLayer(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("layer %d: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return l, nil
}

// CreateLayer сохраняет слой; изображение должно существовать.
func (r *Repository) CreateLayer(ctx context.Context, req models.CreateLayerRequest) (*models.Layer, error) {
	var exists int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM images WHERE id = ?`, req.Image).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("image %d: %w", req.Image, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	props, err := encodeProperties(req.Properties)
	if err != nil {
		return nil, err
	}

	res, err := r.db.ExecContext(ctx, `
        INSERT INTO layers (image_id, layer_id, shape_type, properties)
        VALUES (?, ?, ?, ?)
    `, req.Image, req.LayerID, req.ShapeType, props)
	if err != nil {
		return nil, fmt.Errorf("insert layer: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return r.GetLayer(ctx, id)
}

// UpdateLayerProperties целиком заменяет properties слоя.
func (r *Repository) UpdateLayerProperties(ctx context.Context, id int64, properties map[string]any) (*models.Layer, error) {
	props, err := encodeProperties(properties)
	if err != nil {
		return nil, err
	}

	res, err := r.db.ExecContext(ctx, `UPDATE layers SET properties = ? WHERE id = ?`, props, id)
	if err != nil {
		return nil, fmt.Errorf("update layer: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, fmt.Errorf("layer %d: %w", id, ErrNotFound)
	}
	return r.GetLayer(ctx, id)
}

func (r *Repository) DeleteLayer(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM layers WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete layer: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("layer %d: %w", id, ErrNotFound)
	}
	return nil
}

func scanLayer(row scanner) (*models.Layer, error) {
	var (
		l     models.Layer
		props string
	)
	if err := row.Scan(&l.ID, &l.Image, &l.LayerID, &l.ShapeType, &props, &l.CreatedAt); err != nil {
		return nil, err
	}
	l.Properties = map[string]any{}
	if err := json.Unmarshal([]byte(props), &l.Properties); err != nil {
		return nil, fmt.Errorf("layer %d properties: %w", l.ID, err)
	}
	return &l, nil
}

func encodeProperties(props map[string]any) (string, error) {
	if props == nil {
		props = map[string]any{}
	}
	data, err := json.Marshal(props)
	if err != nil {
		return "", fmt.Errorf("encode properties: %w", err)
	}
	return string(data), nil
}

// OpenSQLite открывает sqlite по указанному пути.
func OpenSQLite(dbPath string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir db dir: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?cache=shared&mode=rwc&_pragma=busy_timeout=5000&_pragma=foreign_keys=on", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	return db, nil
}
