package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"

	"layer-editor/internal/editor"
	"layer-editor/internal/editor/coordinator"
	"layer-editor/internal/editor/machine"
	"layer-editor/internal/editor/shape"
	"layer-editor/internal/render"
)

// ============================================================
// Event Script
// ============================================================

// step is one line of an editing script, e.g.
//
//	{"op": "circle", "x": 120, "y": 80}
//	{"op": "click", "x": 120, "y": 80}
//	{"op": "transform", "x": 130, "y": 90, "rotation": 30, "scale_x": 2, "scale_y": 2}
type step struct {
	Op       string      `json:"op"`
	X        float64     `json:"x"`
	Y        float64     `json:"y"`
	From     *[2]float64 `json:"from,omitempty"`
	Radius   float64     `json:"radius,omitempty"`
	Color    string      `json:"color,omitempty"`
	Width    float64     `json:"width,omitempty"`
	Rotation float64     `json:"rotation,omitempty"`
	ScaleX   float64     `json:"scale_x,omitempty"`
	ScaleY   float64     `json:"scale_y,omitempty"`
}

func readScript(r io.Reader) ([]step, error) {
	var steps []step
	if err := json.NewDecoder(r).Decode(&steps); err != nil {
		return nil, fmt.Errorf("decode script: %w", err)
	}
	return steps, nil
}

// runScript plays steps against the session. Sync failures are logged and
// the script goes on; any other error stops it.
func runScript(ctx context.Context, s *editor.Session, canvas *render.Canvas, steps []step) error {
	for i, st := range steps {
		err := runStep(ctx, s, canvas, st)

		var syncErr *coordinator.SyncError
		if errors.As(err, &syncErr) {
			log.Printf("[EDITOR] step %d (%s): %v", i+1, st.Op, err)
			continue
		}
		if err != nil {
			return fmt.Errorf("step %d (%s): %w", i+1, st.Op, err)
		}
	}
	return nil
}

func runStep(ctx context.Context, s *editor.Session, canvas *render.Canvas, st step) error {
	at := shape.Point{X: st.X, Y: st.Y}

	switch st.Op {
	case "brush":
		s.SetBrush(editor.Brush{Color: st.Color, StrokeWidth: st.Width})
		return nil
	case "polyline":
		return s.Dispatch(ctx, machine.StartPolyline{Stroke: st.Color, StrokeWidth: st.Width})
	case "circle":
		return s.Dispatch(ctx, machine.AddCircle{Center: at, Radius: st.Radius, Fill: st.Color})
	case "click":
		return s.Dispatch(ctx, machine.Click{At: at, Hit: canvas.Hit(at)})
	case "drag":
		id, err := dragTarget(s, canvas, st)
		if err != nil {
			return err
		}
		return s.Dispatch(ctx, machine.DragEnd{ID: id, At: at})
	case "transform":
		id, ok := s.Selected()
		if !ok {
			return fmt.Errorf("%w: nothing selected", machine.ErrUnexpectedEvent)
		}
		tr, err := canvas.TransformHandle(at, st.Rotation, orOne(st.ScaleX), orOne(st.ScaleY))
		if err != nil {
			return err
		}
		return s.Dispatch(ctx, machine.TransformEnd{ID: id, Result: tr})
	case "recolor":
		return s.Dispatch(ctx, machine.Recolor{Color: st.Color})
	case "delete":
		return s.Dispatch(ctx, machine.Delete{})
	case "cancel":
		return s.Dispatch(ctx, machine.Cancel{})
	case "undo":
		return s.Dispatch(ctx, machine.Undo{})
	case "redo":
		return s.Dispatch(ctx, machine.Redo{})
	case "save":
		report, err := s.Save(ctx)
		log.Printf("[EDITOR] save: %d created, %d failed", len(report.Created), len(report.Failed))
		return err
	case "reload":
		return s.Reload(ctx)
	}
	return fmt.Errorf("unknown op %q", st.Op)
}

// dragTarget is the shape under "from", or the selection when "from" is
// absent.
func dragTarget(s *editor.Session, canvas *render.Canvas, st step) (shape.ID, error) {
	if st.From != nil {
		id := canvas.Hit(shape.Point{X: st.From[0], Y: st.From[1]})
		if id.IsZero() {
			return shape.ID{}, fmt.Errorf("nothing at %v", *st.From)
		}
		return id, nil
	}
	if id, ok := s.Selected(); ok {
		return id, nil
	}
	return shape.ID{}, fmt.Errorf("%w: nothing to drag", machine.ErrUnexpectedEvent)
}

func orOne(v float64) float64 {
	if v == 0 {
		return 1
	}
	return v
}
