package machine

import (
	"fmt"

	"layer-editor/internal/editor/geometry"
	"layer-editor/internal/editor/shape"
	"layer-editor/internal/editor/store"
)

// Step applies ev to st. On error the returned state is st.
func Step(st State, ev Event, env Env) (State, Outcome, error) {
	// Replays are allowed from anywhere and always land in Idle.
	switch ev.(type) {
	case Undo:
		return Idle{}, Outcome{Replayed: env.Undo()}, nil
	case Redo:
		return Idle{}, Outcome{Replayed: env.Redo()}, nil
	case Cancel:
		return Idle{}, Outcome{}, nil
	}

	switch cur := st.(type) {
	case Idle:
		return stepIdle(cur, ev, env)
	case ShapeSelected:
		return stepSelected(cur, ev, env)
	case AwaitingPolylinePoint:
		return stepAwaiting(cur, ev, env)
	}
	return st, Outcome{}, fmt.Errorf("%w: unknown state %T", ErrUnexpectedEvent, st)
}

// Reconcile drops a selection whose shape is gone.
func Reconcile(st State, env Env) State {
	if sel, ok := st.(ShapeSelected); ok {
		if _, exists := env.Find(sel.ID); !exists {
			return Idle{}
		}
	}
	return st
}

func stepIdle(cur Idle, ev Event, env Env) (State, Outcome, error) {
	switch e := ev.(type) {
	case StartPolyline:
		return startPolyline(e), Outcome{}, nil
	case Click:
		return clickSelect(cur, e, env)
	case AddCircle:
		return addCircle(cur, e, env)
	case DragEnd:
		return dragEnd(cur, e, env)
	}
	return unexpected(cur, ev)
}

func stepSelected(cur ShapeSelected, ev Event, env Env) (State, Outcome, error) {
	switch e := ev.(type) {
	case StartPolyline:
		return startPolyline(e), Outcome{}, nil
	case Click:
		return clickSelect(cur, e, env)
	case AddCircle:
		return addCircle(cur, e, env)
	case DragEnd:
		return dragEnd(cur, e, env)
	case TransformEnd:
		if e.ID != cur.ID {
			return cur, Outcome{}, fmt.Errorf("%w: transform of %s while %s is selected", ErrUnexpectedEvent, e.ID, cur.ID)
		}
		return transformEnd(cur, e, env)
	case Recolor:
		return recolor(cur, e, env)
	case Delete:
		if err := env.Mutate(func(s *store.Store) error { return s.Remove(cur.ID) }); err != nil {
			return cur, Outcome{}, err
		}
		return Idle{}, Outcome{Removed: cur.ID}, nil
	}
	return unexpected(cur, ev)
}

func stepAwaiting(cur AwaitingPolylinePoint, ev Event, env Env) (State, Outcome, error) {
	click, ok := ev.(Click)
	if !ok {
		return unexpected(cur, ev)
	}

	points := append(append([]shape.Point(nil), cur.Points...), click.At)
	if len(points) < shape.MinPolylinePoints {
		next := cur
		next.Points = points
		return next, Outcome{}, nil
	}

	line := shape.Polyline{
		ID:          shape.NewDraftID(),
		Points:      points,
		Stroke:      cur.Stroke,
		StrokeWidth: cur.StrokeWidth,
	}
	if err := env.Mutate(func(s *store.Store) error { return s.Add(line) }); err != nil {
		return cur, Outcome{}, err
	}
	return Idle{}, Outcome{Created: line.ID}, nil
}

// ============================================================
// Transitions shared by Idle and ShapeSelected
// ============================================================

func startPolyline(e StartPolyline) State {
	return AwaitingPolylinePoint{Stroke: e.Stroke, StrokeWidth: e.StrokeWidth}
}

func clickSelect(cur State, e Click, env Env) (State, Outcome, error) {
	if e.Hit.IsZero() {
		return Idle{}, Outcome{}, nil
	}
	if _, ok := env.Find(e.Hit); !ok {
		return cur, Outcome{}, fmt.Errorf("select %s: %w", e.Hit, store.ErrNotFound)
	}
	return ShapeSelected{ID: e.Hit}, Outcome{}, nil
}

func addCircle(cur State, e AddCircle, env Env) (State, Outcome, error) {
	c := shape.Circle{
		ID:     shape.NewDraftID(),
		X:      e.Center.X,
		Y:      e.Center.Y,
		Radius: e.Radius,
		Fill:   e.Fill,
	}
	if err := c.Validate(); err != nil {
		return cur, Outcome{}, err
	}
	if err := env.Mutate(func(s *store.Store) error { return s.Add(c) }); err != nil {
		return cur, Outcome{}, err
	}
	return cur, Outcome{Created: c.ID}, nil
}

func dragEnd(cur State, e DragEnd, env Env) (State, Outcome, error) {
	if _, ok := env.Find(e.ID); !ok {
		return cur, Outcome{}, fmt.Errorf("drag %s: %w", e.ID, store.ErrNotFound)
	}
	if err := env.Mutate(func(s *store.Store) error { return s.Update(e.ID, shape.Move(e.At)) }); err != nil {
		return cur, Outcome{}, err
	}
	return cur, Outcome{Changed: e.ID}, nil
}

func transformEnd(cur ShapeSelected, e TransformEnd, env Env) (State, Outcome, error) {
	s, ok := env.Find(e.ID)
	if !ok {
		return Idle{}, Outcome{}, fmt.Errorf("transform %s: %w", e.ID, store.ErrNotFound)
	}
	next, reset, err := geometry.Normalize(s, e.Result)
	if err != nil {
		return cur, Outcome{}, err
	}
	if err := env.Mutate(func(st *store.Store) error { return st.Put(next) }); err != nil {
		return cur, Outcome{}, err
	}
	return cur, Outcome{Changed: e.ID, Handle: &reset}, nil
}

func recolor(cur ShapeSelected, e Recolor, env Env) (State, Outcome, error) {
	s, ok := env.Find(cur.ID)
	if !ok {
		return Idle{}, Outcome{}, fmt.Errorf("recolor %s: %w", cur.ID, store.ErrNotFound)
	}
	if err := env.Mutate(func(st *store.Store) error { return st.Update(cur.ID, shape.Recolor(s, e.Color)) }); err != nil {
		return cur, Outcome{}, err
	}
	return cur, Outcome{Changed: cur.ID}, nil
}

func unexpected(cur State, ev Event) (State, Outcome, error) {
	return cur, Outcome{}, fmt.Errorf("%w: %T in state %s", ErrUnexpectedEvent, ev, cur)
}
