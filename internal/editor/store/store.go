// Package store keeps the shapes of the open image in stacking order.
package store

import (
	"errors"
	"fmt"

	"layer-editor/internal/editor/shape"
)

var (
	ErrNotFound    = errors.New("shape not found")
	ErrDuplicateID = errors.New("duplicate shape id")
)

// ============================================================
// Shape Store
// ============================================================

// Store is owned by a single editing session and is not safe for concurrent
// use. Shapes go in and come out as deep copies.
type Store struct {
	shapes []shape.Shape
}

func New() *Store {
	return &Store{}
}

// Add appends s on top of the stack.
func (st *Store) Add(s shape.Shape) error {
	if s == nil {
		return fmt.Errorf("%w: nil shape", shape.ErrInvalidShape)
	}
	if err := s.Validate(); err != nil {
		return err
	}
	if st.Index(s.Identity()) >= 0 {
		return fmt.Errorf("%w: %s", ErrDuplicateID, s.Identity())
	}
	st.shapes = append(st.shapes, s.Clone())
	return nil
}

// Update merges p into the shape with the given id.
func (st *Store) Update(id shape.ID, p shape.Patch) error {
	i := st.Index(id)
	if i < 0 {
		return fmt.Errorf("update %s: %w", id, ErrNotFound)
	}
	next, err := shape.Apply(st.shapes[i], p)
	if err != nil {
		return fmt.Errorf("update %s: %w", id, err)
	}
	st.shapes[i] = next
	return nil
}

// Put replaces the shape carrying the same id, keeping its position.
func (st *Store) Put(s shape.Shape) error {
	return st.Swap(s.Identity(), s)
}

// Swap replaces the shape identified by old with s in place. It is how a
// draft takes on its server identity.
func (st *Store) Swap(old shape.ID, s shape.Shape) error {
	i := st.Index(old)
	if i < 0 {
		return fmt.Errorf("swap %s: %w", old, ErrNotFound)
	}
	if err := s.Validate(); err != nil {
		return err
	}
	if j := st.Index(s.Identity()); j >= 0 && j != i {
		return fmt.Errorf("%w: %s", ErrDuplicateID, s.Identity())
	}
	st.shapes[i] = s.Clone()
	return nil
}

func (st *Store) Remove(id shape.ID) error {
	i := st.Index(id)
	if i < 0 {
		return fmt.Errorf("remove %s: %w", id, ErrNotFound)
	}
	st.shapes = append(st.shapes[:i], st.shapes[i+1:]...)
	return nil
}

// ReplaceAll swaps the whole collection. On error the store is unchanged.
func (st *Store) ReplaceAll(shapes []shape.Shape) error {
	seen := make(map[shape.ID]struct{}, len(shapes))
	for _, s := range shapes {
		if s == nil {
			return fmt.Errorf("%w: nil shape", shape.ErrInvalidShape)
		}
		if err := s.Validate(); err != nil {
			return err
		}
		if _, dup := seen[s.Identity()]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateID, s.Identity())
		}
		seen[s.Identity()] = struct{}{}
	}
	st.shapes = shape.CloneAll(shapes)
	return nil
}

// Find never fails; a missing id is reported through ok.
func (st *Store) Find(id shape.ID) (s shape.Shape, ok bool) {
	i := st.Index(id)
	if i < 0 {
		return nil, false
	}
	return st.shapes[i].Clone(), true
}

// Index returns the stacking position of id, or -1.
func (st *Store) Index(id shape.ID) int {
	for i, s := range st.shapes {
		if s.Identity() == id {
			return i
		}
	}
	return -1
}

func (st *Store) Shapes() []shape.Shape {
	return shape.CloneAll(st.shapes)
}

// Drafts returns the shapes not yet known to the server, in stacking order.
func (st *Store) Drafts() []shape.Shape {
	var out []shape.Shape
	for _, s := range st.shapes {
		if s.Identity().IsDraft() {
			out = append(out, s.Clone())
		}
	}
	return out
}

func (st *Store) Len() int { return len(st.shapes) }
