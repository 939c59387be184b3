package resource

import (
	"context"
	"testing"
	"time"

	"github.com/SlpAus/rewards-hub-backend/internal/platform/kvstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type widget struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Weight    int       `json:"weight"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

type widgetPatch struct {
	Name   *string `json:"name,omitempty"`
	Weight *int    `json:"weight,omitempty"`
}

func newWidgetRepo(store kvstore.Store, now func() time.Time) *Repository[widget] {
	return NewRepository(store, Options[widget]{
		Collection: "widgets",
		Less:       func(a, b *widget) bool { return a.Weight < b.Weight },
		Defaults: func(rec kvstore.Record, _ time.Time) error {
			return rec.Set("status", "fresh")
		},
		Now: now,
	})
}

func TestRepository_CreateInjectsDefaults(t *testing.T) {
	fixed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	repo := newWidgetRepo(kvstore.NewMemoryStore(), func() time.Time { return fixed })

	w, err := repo.Create(context.Background(), widget{ID: "client-id", Name: "a", Weight: 3, Status: "ignored"})
	require.NoError(t, err)

	assert.NotEmpty(t, w.ID)
	assert.NotEqual(t, "client-id", w.ID)
	assert.Equal(t, "fresh", w.Status)
	assert.True(t, fixed.Equal(w.CreatedAt))

	again, err := repo.Get(context.Background(), w.ID)
	require.NoError(t, err)
	assert.Equal(t, w, again)
}

func TestRepository_ListSorts(t *testing.T) {
	ctx := context.Background()
	repo := newWidgetRepo(kvstore.NewMemoryStore(), nil)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)

	for _, weight := range []int{5, 1, 3} {
		_, err := repo.Create(ctx, widget{Name: "w", Weight: weight})
		require.NoError(t, err)
	}

	list, err = repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []int{1, 3, 5}, []int{list[0].Weight, list[1].Weight, list[2].Weight})
}

func TestRepository_UpdateOnlyNamedFields(t *testing.T) {
	ctx := context.Background()
	repo := newWidgetRepo(kvstore.NewMemoryStore(), nil)

	w, err := repo.Create(ctx, widget{Name: "a", Weight: 3})
	require.NoError(t, err)

	name := "b"
	updated, err := repo.Update(ctx, w.ID, widgetPatch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "b", updated.Name)
	assert.Equal(t, 3, updated.Weight)
	assert.Equal(t, w.ID, updated.ID)
	assert.True(t, w.CreatedAt.Equal(updated.CreatedAt))

	_, err = repo.Update(ctx, "missing", widgetPatch{Name: &name})
	assert.ErrorIs(t, err, ErrNotFound)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestRepository_DeleteThenGet(t *testing.T) {
	ctx := context.Background()
	repo := newWidgetRepo(kvstore.NewMemoryStore(), nil)

	w, err := repo.Create(ctx, widget{Name: "a"})
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, w.ID))
	_, err = repo.Get(ctx, w.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NoError(t, repo.Delete(ctx, w.ID))
	assert.NoError(t, repo.Delete(ctx, "never-existed"))
}
