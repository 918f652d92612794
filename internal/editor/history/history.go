// Package history keeps linear undo/redo stacks of full store snapshots.
package history

import "layer-editor/internal/editor/shape"

// Entry is an immutable deep copy of the store at one point in time.
type Entry []shape.Shape

type History struct {
	undo []Entry
	redo []Entry
}

func New() *History {
	return &History{}
}

// Snapshot records current before an undoable mutation and drops the redo
// branch.
func (h *History) Snapshot(current []shape.Shape) {
	h.undo = append(h.undo, Entry(shape.CloneAll(current)))
	h.redo = nil
}

// Undo pops the latest entry and parks current on the redo stack. With an
// empty undo stack it does nothing and reports false.
func (h *History) Undo(current []shape.Shape) ([]shape.Shape, bool) {
	if len(h.undo) == 0 {
		return nil, false
	}
	prev := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]
	h.redo = append(h.redo, Entry(shape.CloneAll(current)))
	return shape.CloneAll(prev), true
}

// Redo is the mirror of Undo.
func (h *History) Redo(current []shape.Shape) ([]shape.Shape, bool) {
	if len(h.redo) == 0 {
		return nil, false
	}
	next := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]
	h.undo = append(h.undo, Entry(shape.CloneAll(current)))
	return shape.CloneAll(next), true
}

func (h *History) Clear() {
	h.undo = nil
	h.redo = nil
}

func (h *History) CanUndo() bool { return len(h.undo) > 0 }
func (h *History) CanRedo() bool { return len(h.redo) > 0 }

// Depth returns the sizes of the undo and redo stacks.
func (h *History) Depth() (undo, redo int) {
	return len(h.undo), len(h.redo)
}
