// Package coordinator keeps the local shape store and the layer service in
// step: it creates drafts remotely, patches persisted shapes, and reloads the
// canonical layer list.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log"

	"layer-editor/internal/editor/shape"
	"layer-editor/internal/editor/store"
	"layer-editor/internal/layers/models"
)

// ErrOffline is the cause of every sync attempt made without a backend.
var ErrOffline = errors.New("no layer service")

// Backend is the layer service as the editor needs it.
type Backend interface {
	GetProject(ctx context.Context, projectID int64) (*models.Project, error)
	CreateLayer(ctx context.Context, req models.CreateLayerRequest) (*models.Layer, error)
	PatchLayer(ctx context.Context, layerID int64, req models.PatchLayerRequest) (*models.Layer, error)
	DeleteLayer(ctx context.Context, layerID int64) error
}

// SyncError reports one failed remote call. The local store keeps the edit
// that triggered it.
type SyncError struct {
	Op  string
	ID  shape.ID
	Err error
}

func (e *SyncError) Error() string {
	if e.ID.IsZero() {
		return fmt.Sprintf("sync %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("sync %s %s: %v", e.Op, e.ID, e.Err)
}

func (e *SyncError) Unwrap() error { return e.Err }

// Created pairs a draft with the identity the server gave it.
type Created struct {
	Draft  shape.ID
	Server shape.ID
}

// Report summarises a PersistNewShapes run.
type Report struct {
	Created []Created
	Failed  []shape.ID
}

// ============================================================
// Coordinator
// ============================================================

type Coordinator struct {
	backend   Backend
	projectID int64
	imageID   int64
	// layerIDs maps server ids to the layer_id they are stacked at.
	layerIDs map[int64]int
}

// New creates a coordinator. A nil backend leaves the session offline: every
// sync call fails with ErrOffline and drafts stay local.
func New(backend Backend) *Coordinator {
	return &Coordinator{backend: backend, layerIDs: map[int64]int{}}
}

// Online reports whether there is a layer service to sync with.
func (c *Coordinator) Online() bool { return c.backend != nil }

func (c *Coordinator) ProjectID() int64 { return c.projectID }
func (c *Coordinator) ImageID() int64   { return c.imageID }

// Load fetches the project's ordered layer list and replaces the store with
// it. When keepDrafts is set, each draft goes back right after the persisted
// shape it followed locally (or first, if nothing persisted preceded it), so
// stacking order survives a reload; otherwise drafts are dropped.
func (c *Coordinator) Load(ctx context.Context, st *store.Store, projectID int64, keepDrafts bool) error {
	if !c.Online() {
		return &SyncError{Op: "load", Err: ErrOffline}
	}
	project, err := c.backend.GetProject(ctx, projectID)
	if err != nil {
		return &SyncError{Op: "load", Err: err}
	}
	if project.Image == nil {
		return &SyncError{Op: "load", Err: fmt.Errorf("project %d has no image", projectID)}
	}

	shapes := make([]shape.Shape, 0, len(project.Image.Layers))
	layerIDs := make(map[int64]int, len(project.Image.Layers))
	for _, layer := range project.Image.Layers {
		s, err := shape.FromRecord(layer.ID, layer.ShapeType, layer.Properties)
		if err != nil {
			return &SyncError{Op: "load", ID: shape.ServerID(layer.ID), Err: err}
		}
		shapes = append(shapes, s)
		layerIDs[layer.ID] = layer.LayerID
	}
	if keepDrafts {
		shapes = mergeDrafts(st.Shapes(), shapes)
	}

	if err := st.ReplaceAll(shapes); err != nil {
		return &SyncError{Op: "load", Err: err}
	}

	c.layerIDs = layerIDs
	c.projectID = project.ID
	c.imageID = project.Image.ID
	log.Printf("[SYNC] Loaded project %d: %d layers, image %d", project.ID, len(project.Image.Layers), c.imageID)
	return nil
}

// mergeDrafts places the drafts of local into persisted. A draft is anchored
// to the nearest persisted shape before it that the server still has.
func mergeDrafts(local, persisted []shape.Shape) []shape.Shape {
	known := make(map[shape.ID]bool, len(persisted))
	for _, s := range persisted {
		known[s.Identity()] = true
	}

	var (
		anchor shape.ID
		head   []shape.Shape
	)
	after := map[shape.ID][]shape.Shape{}
	for _, s := range local {
		id := s.Identity()
		switch {
		case id.IsDraft() && anchor.IsZero():
			head = append(head, s)
		case id.IsDraft():
			after[anchor] = append(after[anchor], s)
		case known[id]:
			anchor = id
		}
	}

	out := make([]shape.Shape, 0, len(persisted)+len(head))
	out = append(out, head...)
	for _, s := range persisted {
		out = append(out, s)
		out = append(out, after[s.Identity()]...)
	}
	return out
}

// PersistNewShapes creates every draft on the server, one request at a time
// in stacking order. Each success swaps the draft for the server shape in
// place; failures stay drafts and are returned joined.
//
// A draft's layer_id is one above the highest layer_id stacked below it:
// drafts appended after the last layer continue the sequence 1, 2, 3, ...
// A failed create still takes its slot, so when it is retried after a reload
// it fits back between its neighbours.
func (c *Coordinator) PersistNewShapes(ctx context.Context, st *store.Store) (Report, error) {
	var report Report
	if !c.Online() {
		return report, &SyncError{Op: "create", Err: ErrOffline}
	}
	if c.imageID == 0 {
		return report, &SyncError{Op: "create", Err: errors.New("no image loaded")}
	}

	var (
		errs []error
		top  int
	)
	for _, sh := range st.Shapes() {
		id := sh.Identity()
		if n, persisted := id.Server(); persisted {
			top = max(top, c.layerIDs[n])
			continue
		}
		top++
		position := top

		layer, err := c.backend.CreateLayer(ctx, models.CreateLayerRequest{
			Image:      c.imageID,
			LayerID:    position,
			ShapeType:  string(sh.Kind()),
			Properties: shape.Properties(sh),
		})
		if err == nil {
			err = c.adopt(st, id, layer)
		}
		if err != nil {
			log.Printf("[SYNC] Create %s failed: %v", id, err)
			report.Failed = append(report.Failed, id)
			errs = append(errs, &SyncError{Op: "create", ID: id, Err: err})
			continue
		}

		c.layerIDs[layer.ID] = position
		report.Created = append(report.Created, Created{Draft: id, Server: shape.ServerID(layer.ID)})
		log.Printf("[SYNC] Created layer %d from %s at position %d", layer.ID, id, position)
	}

	return report, errors.Join(errs...)
}

// adopt swaps the draft for the shape described by the server's record.
func (c *Coordinator) adopt(st *store.Store, draft shape.ID, layer *models.Layer) error {
	if layer == nil || layer.ID <= 0 {
		return errors.New("server returned no layer id")
	}
	confirmed, err := shape.FromRecord(layer.ID, layer.ShapeType, layer.Properties)
	if err != nil {
		return err
	}
	return st.Swap(draft, confirmed)
}

// PersistUpdate sends the full properties of a persisted shape. Drafts have
// nothing to patch yet and are skipped.
func (c *Coordinator) PersistUpdate(ctx context.Context, st *store.Store, id shape.ID) error {
	serverID, persisted := id.Server()
	if !persisted {
		return nil
	}
	s, ok := st.Find(id)
	if !ok {
		return fmt.Errorf("persist %s: %w", id, store.ErrNotFound)
	}
	if !c.Online() {
		return &SyncError{Op: "update", ID: id, Err: ErrOffline}
	}

	if _, err := c.backend.PatchLayer(ctx, serverID, models.PatchLayerRequest{Properties: shape.Properties(s)}); err != nil {
		log.Printf("[SYNC] Patch layer %d failed: %v", serverID, err)
		return &SyncError{Op: "update", ID: id, Err: err}
	}
	return nil
}

// PersistDelete removes a persisted shape's layer. Drafts are skipped.
func (c *Coordinator) PersistDelete(ctx context.Context, id shape.ID) error {
	serverID, persisted := id.Server()
	if !persisted {
		return nil
	}
	if !c.Online() {
		return &SyncError{Op: "delete", ID: id, Err: ErrOffline}
	}
	if err := c.backend.DeleteLayer(ctx, serverID); err != nil {
		log.Printf("[SYNC] Delete layer %d failed: %v", serverID, err)
		return &SyncError{Op: "delete", ID: id, Err: err}
	}
	delete(c.layerIDs, serverID)
	return nil
}
