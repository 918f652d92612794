package coordinator

import (
	"context"
	"errors"
	"testing"

	"layer-editor/internal/editor/shape"
	"layer-editor/internal/editor/store"
	"layer-editor/internal/layers/models"

	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	project  *models.Project
	nextID   int64
	failAt   map[int]bool
	creates  []models.CreateLayerRequest
	patches  map[int64]models.PatchLayerRequest
	deleted  []int64
	patchErr error
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		project: &models.Project{ID: 1, Image: &models.Image{ID: 7, ProjectID: 1}},
		nextID:  100,
		failAt:  map[int]bool{},
		patches: map[int64]models.PatchLayerRequest{},
	}
}

func (f *fakeBackend) GetProject(_ context.Context, id int64) (*models.Project, error) {
	if f.project == nil || f.project.ID != id {
		return nil, errors.New("404")
	}
	return f.project, nil
}

func (f *fakeBackend) CreateLayer(_ context.Context, req models.CreateLayerRequest) (*models.Layer, error) {
	f.creates = append(f.creates, req)
	if f.failAt[len(f.creates)] {
		return nil, errors.New("502 bad gateway")
	}
	f.nextID++
	return &models.Layer{
		ID:         f.nextID,
		Image:      req.Image,
		LayerID:    req.LayerID,
		ShapeType:  req.ShapeType,
		Properties: req.Properties,
	}, nil
}

func (f *fakeBackend) PatchLayer(_ context.Context, id int64, req models.PatchLayerRequest) (*models.Layer, error) {
	if f.patchErr != nil {
		return nil, f.patchErr
	}
	f.patches[id] = req
	return &models.Layer{ID: id, Properties: req.Properties}, nil
}

func (f *fakeBackend) DeleteLayer(_ context.Context, id int64) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func TestLoadCircleRecord(t *testing.T) {
	backend := newFakeBackend()
	backend.project.Image.Layers = []models.Layer{{
		ID:        5,
		ShapeType: "circle",
		Properties: map[string]any{
			"x": 10.0, "y": 20.0, "radius": 40.0, "fill": "#ff0000",
		},
	}}

	st := store.New()
	require.NoError(t, st.Add(shape.Circle{ID: shape.NewDraftID(), Radius: 3}))

	c := New(backend)
	require.NoError(t, c.Load(context.Background(), st, 1, false))
	require.Equal(t, int64(7), c.ImageID())

	shapes := st.Shapes()
	require.Len(t, shapes, 1)
	require.Equal(t, shape.Circle{ID: shape.ServerID(5), X: 10, Y: 20, Radius: 40, Fill: "#ff0000"}, shapes[0])
	require.False(t, shapes[0].Identity().IsDraft())
}

func TestLoadKeepsDraftsInPlace(t *testing.T) {
	backend := newFakeBackend()
	backend.project.Image.Layers = []models.Layer{
		{ID: 5, LayerID: 1, ShapeType: "circle", Properties: map[string]any{"radius": 1.0}},
		{ID: 7, LayerID: 3, ShapeType: "circle", Properties: map[string]any{"radius": 1.0}},
		{ID: 8, LayerID: 4, ShapeType: "circle", Properties: map[string]any{"radius": 1.0}},
	}

	st := store.New()
	d0, d1, d2 := shape.NewDraftID(), shape.NewDraftID(), shape.NewDraftID()
	// Layer 6 is gone from the server; d2 falls back to following layer 5.
	for _, s := range []shape.Shape{
		shape.Circle{ID: d0, Radius: 2},
		shape.Circle{ID: shape.ServerID(5), Radius: 1},
		shape.Circle{ID: d1, Radius: 3},
		shape.Circle{ID: shape.ServerID(6), Radius: 1},
		shape.Circle{ID: d2, Radius: 4},
		shape.Circle{ID: shape.ServerID(7), Radius: 1},
	} {
		require.NoError(t, st.Add(s))
	}

	require.NoError(t, New(backend).Load(context.Background(), st, 1, true))

	var got []shape.ID
	for _, s := range st.Shapes() {
		got = append(got, s.Identity())
	}
	require.Equal(t, []shape.ID{d0, shape.ServerID(5), d1, d2, shape.ServerID(7), shape.ServerID(8)}, got)
}

func TestLoadRejectsBadRecordAtomically(t *testing.T) {
	backend := newFakeBackend()
	backend.project.Image.Layers = []models.Layer{
		{ID: 5, ShapeType: "circle", Properties: map[string]any{"radius": 1.0}},
		{ID: 6, ShapeType: "hexagon", Properties: map[string]any{}},
	}

	st := store.New()
	draft := shape.Circle{ID: shape.NewDraftID(), Radius: 2}
	require.NoError(t, st.Add(draft))

	err := New(backend).Load(context.Background(), st, 1, false)
	var syncErr *SyncError
	require.ErrorAs(t, err, &syncErr)
	require.ErrorIs(t, err, shape.ErrInvalidShape)
	require.Equal(t, []shape.Shape{draft}, st.Shapes())
}

func TestPersistNewShapesPartialFailure(t *testing.T) {
	backend := newFakeBackend()
	backend.failAt[2] = true
	backend.project.Image.Layers = []models.Layer{
		{ID: 1, LayerID: 1, ShapeType: "circle", Properties: map[string]any{"radius": 9.0}},
	}

	c := New(backend)
	st := store.New()
	require.NoError(t, c.Load(context.Background(), st, 1, false))
	persisted := shape.Circle{ID: shape.ServerID(1), Radius: 9}

	drafts := []shape.Shape{
		shape.Circle{ID: shape.NewDraftID(), X: 1, Radius: 10, Fill: "#111"},
		shape.Polyline{ID: shape.NewDraftID(), Points: []shape.Point{{}, {X: 5, Y: 5}}, Stroke: "#222", StrokeWidth: 2},
		shape.Circle{ID: shape.NewDraftID(), X: 3, Radius: 30, Fill: "#333"},
	}
	for _, d := range drafts {
		require.NoError(t, st.Add(d))
	}

	report, err := c.PersistNewShapes(context.Background(), st)
	require.Error(t, err)

	var syncErr *SyncError
	require.ErrorAs(t, err, &syncErr)
	require.Equal(t, "create", syncErr.Op)
	require.Equal(t, drafts[1].Identity(), syncErr.ID)
	require.Equal(t, []shape.ID{drafts[1].Identity()}, report.Failed)
	require.Len(t, report.Created, 2)

	shapes := st.Shapes()
	require.Len(t, shapes, 4)
	require.Equal(t, persisted, shapes[0])
	require.Equal(t, shape.ServerID(101), shapes[1].Identity())
	require.Equal(t, drafts[1].Identity(), shapes[2].Identity())
	require.True(t, shapes[2].Identity().IsDraft())
	require.Equal(t, shape.ServerID(102), shapes[3].Identity())
	require.Equal(t, 30.0, shapes[3].(shape.Circle).Radius)

	require.Len(t, backend.creates, 3)
	for i, req := range backend.creates {
		require.Equal(t, int64(7), req.Image)
		require.Equal(t, i+2, req.LayerID, "position follows stacking order")
	}
	require.Equal(t, "line", backend.creates[1].ShapeType)
	require.Equal(t, []float64{0, 0, 5, 5}, backend.creates[1].Properties["points"])
	require.NotContains(t, backend.creates[0].Properties, "id")

	// The failed draft kept slot 3 and is retried into it.
	report, err = c.PersistNewShapes(context.Background(), st)
	require.NoError(t, err)
	require.Len(t, report.Created, 1)
	require.Len(t, backend.creates, 4)
	require.Equal(t, 3, backend.creates[3].LayerID)
	require.Equal(t, shape.ServerID(103), st.Shapes()[2].Identity())
}

func TestOfflineSyncFails(t *testing.T) {
	ctx := context.Background()
	c := New(nil)
	require.False(t, c.Online())

	st := store.New()
	draft := shape.Circle{ID: shape.NewDraftID(), Radius: 1}
	saved := shape.Circle{ID: shape.ServerID(4), Radius: 1}
	require.NoError(t, st.Add(draft))
	require.NoError(t, st.Add(saved))

	_, err := c.PersistNewShapes(ctx, st)
	require.ErrorIs(t, err, ErrOffline)
	require.ErrorIs(t, c.Load(ctx, st, 1, true), ErrOffline)
	require.ErrorIs(t, c.PersistUpdate(ctx, st, saved.ID), ErrOffline)
	require.ErrorIs(t, c.PersistDelete(ctx, saved.ID), ErrOffline)

	// Drafts never need the server.
	require.NoError(t, c.PersistUpdate(ctx, st, draft.ID))
	require.NoError(t, c.PersistDelete(ctx, draft.ID))
	require.Equal(t, []shape.Shape{draft, saved}, st.Shapes())
}

func TestPersistNewShapesNeedsImage(t *testing.T) {
	st := store.New()
	require.NoError(t, st.Add(shape.Circle{ID: shape.NewDraftID(), Radius: 1}))

	_, err := New(newFakeBackend()).PersistNewShapes(context.Background(), st)
	require.Error(t, err)
	require.True(t, st.Shapes()[0].Identity().IsDraft())
}

func TestPersistUpdate(t *testing.T) {
	backend := newFakeBackend()
	c := New(backend)
	st := store.New()

	draft := shape.Circle{ID: shape.NewDraftID(), Radius: 1}
	saved := shape.Circle{ID: shape.ServerID(4), X: 2, Y: 3, Radius: 5, Fill: "#abc", Rotation: 15}
	require.NoError(t, st.Add(draft))
	require.NoError(t, st.Add(saved))

	require.NoError(t, c.PersistUpdate(context.Background(), st, draft.ID))
	require.Empty(t, backend.patches)

	require.NoError(t, c.PersistUpdate(context.Background(), st, saved.ID))
	require.Equal(t, shape.Properties(saved), backend.patches[4].Properties)

	err := c.PersistUpdate(context.Background(), st, shape.ServerID(99))
	require.ErrorIs(t, err, store.ErrNotFound)

	backend.patchErr = errors.New("timeout")
	err = c.PersistUpdate(context.Background(), st, saved.ID)
	var syncErr *SyncError
	require.ErrorAs(t, err, &syncErr)
	require.Equal(t, "update", syncErr.Op)

	// The local edit survives a failed patch.
	got, ok := st.Find(saved.ID)
	require.True(t, ok)
	require.Equal(t, saved, got)
}

func TestPersistDeleteSkipsDrafts(t *testing.T) {
	backend := newFakeBackend()
	c := New(backend)

	require.NoError(t, c.PersistDelete(context.Background(), shape.NewDraftID()))
	require.NoError(t, c.PersistDelete(context.Background(), shape.ServerID(8)))
	require.Equal(t, []int64{8}, backend.deleted)
}
