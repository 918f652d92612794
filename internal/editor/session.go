// Package editor runs one editing session over the shapes of a project's
// image. It owns the store, the undo history and the state machine, and pushes
// persisted changes to the layer service through a coordinator.
package editor

import (
	"context"
	"errors"
	"fmt"
	"log"

	"layer-editor/internal/editor/coordinator"
	"layer-editor/internal/editor/history"
	"layer-editor/internal/editor/machine"
	"layer-editor/internal/editor/shape"
	"layer-editor/internal/editor/store"
)

const (
	DefaultColor       = "#ff0000"
	DefaultStrokeWidth = 3.0
	DefaultRadius      = 40.0
)

// Renderer draws the store and owns the resize/rotate handle.
type Renderer interface {
	Clear()
	RenderShape(s shape.Shape)
	AttachHandles(id shape.ID)
	DetachHandles()
	// ResetHandleScale sets the handle's accumulated scale back to 1.
	ResetHandleScale()
}

// Brush holds the style applied to new shapes and recolors.
type Brush struct {
	Color       string
	StrokeWidth float64
}

// ============================================================
// Session
// ============================================================

type Session struct {
	store    *store.Store
	history  *history.History
	state    machine.State
	brush    Brush
	renderer Renderer
	sync     *coordinator.Coordinator
	// deleted maps layers removed on the server to the draft id they come
	// back as when undo or redo restores them.
	deleted map[int64]shape.ID
}

func NewSession(backend coordinator.Backend, renderer Renderer) *Session {
	return &Session{
		store:    store.New(),
		history:  history.New(),
		state:    machine.Idle{},
		brush:    Brush{Color: DefaultColor, StrokeWidth: DefaultStrokeWidth},
		renderer: renderer,
		sync:     coordinator.New(backend),
		deleted:  map[int64]shape.ID{},
	}
}

// Open loads a project's layers, dropping whatever was being edited.
func (s *Session) Open(ctx context.Context, projectID int64) error {
	if err := s.sync.Load(ctx, s.store, projectID, false); err != nil {
		return err
	}
	s.reset()
	log.Printf("[EDITOR] Opened project %d with %d shapes", projectID, s.store.Len())
	return nil
}

// Reload refreshes persisted shapes from the server. Unsaved drafts are kept
// on top.
func (s *Session) Reload(ctx context.Context) error {
	if err := s.sync.Load(ctx, s.store, s.sync.ProjectID(), true); err != nil {
		return err
	}
	s.reset()
	return nil
}

// Save creates every draft on the server and reloads. Drafts whose create
// failed survive the reload in their stacking position; their errors are
// returned joined. Offline, nothing changes and the history is kept.
func (s *Session) Save(ctx context.Context) (coordinator.Report, error) {
	report, persistErr := s.sync.PersistNewShapes(ctx, s.store)
	loadErr := s.sync.Load(ctx, s.store, s.sync.ProjectID(), true)
	// Once a draft has been swapped for its server shape, older snapshots
	// would bring the draft back and it would be created twice.
	if loadErr == nil || len(report.Created) > 0 {
		s.reset()
	}

	log.Printf("[EDITOR] Saved: %d created, %d failed", len(report.Created), len(report.Failed))
	return report, errors.Join(persistErr, loadErr)
}

// Dispatch feeds one event through the state machine and redraws. A returned
// *coordinator.SyncError is not fatal: the local edit has been applied and the
// session stays usable.
func (s *Session) Dispatch(ctx context.Context, ev machine.Event) error {
	next, out, err := machine.Step(s.state, s.withBrush(ev), sessionEnv{s})
	if err != nil {
		return err
	}
	s.state = machine.Reconcile(next, sessionEnv{s})

	if out.Handle != nil && s.renderer != nil {
		s.renderer.ResetHandleScale()
	}
	s.redraw()

	switch {
	case !out.Changed.IsZero():
		return s.sync.PersistUpdate(ctx, s.store, out.Changed)
	case !out.Removed.IsZero():
		if err := s.sync.PersistDelete(ctx, out.Removed); err != nil {
			return err
		}
		if n, ok := out.Removed.Server(); ok {
			s.deleted[n] = shape.ID{}
		}
	}
	return nil
}

// Import adds shapes as new drafts in one undoable step.
func (s *Session) Import(shapes []shape.Shape) error {
	drafts := make([]shape.Shape, 0, len(shapes))
	for _, sh := range shapes {
		if !sh.Identity().IsDraft() {
			sh = sh.WithID(shape.NewDraftID())
		}
		drafts = append(drafts, sh)
	}

	err := sessionEnv{s}.Mutate(func(st *store.Store) error {
		return st.ReplaceAll(append(st.Shapes(), drafts...))
	})
	if err != nil {
		return fmt.Errorf("import: %w", err)
	}
	s.redraw()
	log.Printf("[EDITOR] Imported %d shapes", len(drafts))
	return nil
}

func (s *Session) SetBrush(b Brush) {
	if b.Color == "" {
		b.Color = s.brush.Color
	}
	if b.StrokeWidth <= 0 {
		b.StrokeWidth = s.brush.StrokeWidth
	}
	s.brush = b
}

func (s *Session) Brush() Brush               { return s.brush }
func (s *Session) Shapes() []shape.Shape      { return s.store.Shapes() }
func (s *Session) State() machine.State       { return s.state }
func (s *Session) Selected() (shape.ID, bool) { return machine.Selection(s.state) }
func (s *Session) CanUndo() bool              { return s.history.CanUndo() }
func (s *Session) CanRedo() bool              { return s.history.CanRedo() }
func (s *Session) ImageID() int64             { return s.sync.ImageID() }
func (s *Session) ProjectID() int64           { return s.sync.ProjectID() }

func (s *Session) Find(id shape.ID) (shape.Shape, bool) {
	return s.store.Find(id)
}

// withBrush fills style fields the event left empty.
func (s *Session) withBrush(ev machine.Event) machine.Event {
	switch e := ev.(type) {
	case machine.StartPolyline:
		if e.Stroke == "" {
			e.Stroke = s.brush.Color
		}
		if e.StrokeWidth <= 0 {
			e.StrokeWidth = s.brush.StrokeWidth
		}
		return e
	case machine.AddCircle:
		if e.Fill == "" {
			e.Fill = s.brush.Color
		}
		if e.Radius == 0 {
			e.Radius = DefaultRadius
		}
		return e
	case machine.Recolor:
		if e.Color == "" {
			e.Color = s.brush.Color
		}
		return e
	}
	return ev
}

func (s *Session) reset() {
	s.history.Clear()
	clear(s.deleted)
	s.state = machine.Idle{}
	s.redraw()
}

func (s *Session) redraw() {
	if s.renderer == nil {
		return
	}
	s.renderer.Clear()
	for _, sh := range s.store.Shapes() {
		s.renderer.RenderShape(sh)
	}
	if id, ok := machine.Selection(s.state); ok {
		s.renderer.AttachHandles(id)
	} else {
		s.renderer.DetachHandles()
	}
}

// ============================================================
// machine.Env
// ============================================================

type sessionEnv struct{ s *Session }

// Mutate applies fn and records the pre-mutation store only when fn succeeds.
// Store operations leave the store untouched on error, so a failed mutation
// never leaves an orphan history entry.
func (e sessionEnv) Mutate(fn func(st *store.Store) error) error {
	before := e.s.store.Shapes()
	if err := fn(e.s.store); err != nil {
		return err
	}
	e.s.history.Snapshot(before)
	return nil
}

func (e sessionEnv) Undo() bool {
	prev, ok := e.s.history.Undo(e.s.store.Shapes())
	if !ok {
		return false
	}
	return e.replace(prev)
}

func (e sessionEnv) Redo() bool {
	next, ok := e.s.history.Redo(e.s.store.Shapes())
	if !ok {
		return false
	}
	return e.replace(next)
}

// replace restores a snapshot. Shapes whose layer was deleted on the server
// come back as drafts so the next Save creates them again.
func (e sessionEnv) replace(shapes []shape.Shape) bool {
	for i, sh := range shapes {
		n, ok := sh.Identity().Server()
		if !ok {
			continue
		}
		draft, gone := e.s.deleted[n]
		if !gone {
			continue
		}
		if draft.IsZero() {
			draft = shape.NewDraftID()
			e.s.deleted[n] = draft
		}
		shapes[i] = sh.WithID(draft)
	}
	if err := e.s.store.ReplaceAll(shapes); err != nil {
		log.Printf("[EDITOR] Failed to restore snapshot: %v", err)
		return false
	}
	return true
}

func (e sessionEnv) Find(id shape.ID) (shape.Shape, bool) { return e.s.store.Find(id) }
