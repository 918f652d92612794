// Package machine is the selection/draw state machine of the editor. States
// are plain values; Step takes one state and an event and returns the next
// state. Every store mutation goes through Env.Mutate, which snapshots the
// history first.
package machine

import (
	"errors"
	"fmt"

	"layer-editor/internal/editor/geometry"
	"layer-editor/internal/editor/shape"
	"layer-editor/internal/editor/store"
)

// ErrUnexpectedEvent is returned when an event has no transition from the
// current state. The state is left as it was.
var ErrUnexpectedEvent = errors.New("unexpected event")

// Env is the editing session as seen by the machine.
type Env interface {
	// Mutate snapshots the history, then applies fn to the store.
	Mutate(fn func(st *store.Store) error) error
	// Undo and Redo replay history without snapshotting. They report
	// whether anything changed.
	Undo() bool
	Redo() bool
	Find(id shape.ID) (shape.Shape, bool)
}

// ============================================================
// States
// ============================================================

type State interface {
	isState()
	String() string
}

type Idle struct{}

// AwaitingPolylinePoint buffers clicks until the polyline has enough points.
type AwaitingPolylinePoint struct {
	Points      []shape.Point
	Stroke      string
	StrokeWidth float64
}

type ShapeSelected struct {
	ID shape.ID
}

func (Idle) isState()                  {}
func (AwaitingPolylinePoint) isState() {}
func (ShapeSelected) isState()         {}

func (Idle) String() string { return "idle" }
func (s AwaitingPolylinePoint) String() string {
	return fmt.Sprintf("awaiting-polyline-point(%d)", len(s.Points))
}
func (s ShapeSelected) String() string { return "selected(" + s.ID.String() + ")" }

// Selection returns the selected id, if any.
func Selection(st State) (shape.ID, bool) {
	if sel, ok := st.(ShapeSelected); ok {
		return sel.ID, true
	}
	return shape.ID{}, false
}

// ============================================================
// Events
// ============================================================

type Event interface{ isEvent() }

type (
	StartPolyline struct {
		Stroke      string
		StrokeWidth float64
	}
	// Click is a pointer press on the canvas. Hit is the shape under the
	// pointer, zero when the press landed on empty canvas.
	Click struct {
		At  shape.Point
		Hit shape.ID
	}
	AddCircle struct {
		Center shape.Point
		Radius float64
		Fill   string
	}
	DragEnd struct {
		ID shape.ID
		At shape.Point
	}
	TransformEnd struct {
		ID     shape.ID
		Result geometry.Transform
	}
	Recolor struct{ Color string }
	Delete  struct{}
	Cancel  struct{}
	Undo    struct{}
	Redo    struct{}
)

func (StartPolyline) isEvent() {}
func (Click) isEvent()         {}
func (AddCircle) isEvent()     {}
func (DragEnd) isEvent()       {}
func (TransformEnd) isEvent()  {}
func (Recolor) isEvent()       {}
func (Delete) isEvent()        {}
func (Cancel) isEvent()        {}
func (Undo) isEvent()          {}
func (Redo) isEvent()          {}

// Outcome tells the session what a step did to the store.
type Outcome struct {
	Created  shape.ID
	Changed  shape.ID
	Removed  shape.ID
	Replayed bool
	// Handle is set after a transform: the handle's scale must be reset.
	Handle *geometry.Transform
}

// Mutated reports whether the store changed.
func (o Outcome) Mutated() bool {
	return !o.Created.IsZero() || !o.Changed.IsZero() || !o.Removed.IsZero() || o.Replayed
}
