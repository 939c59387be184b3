package backup

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/SlpAus/rewards-hub-backend/internal/platform/config"
	"github.com/SlpAus/rewards-hub-backend/internal/platform/database"
	"github.com/SlpAus/rewards-hub-backend/internal/platform/kvstore"
	"github.com/SlpAus/rewards-hub-backend/internal/platform/logger"
	"github.com/SlpAus/rewards-hub-backend/pkg/lifecycle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLayout = Layout{
	Collections: []string{"widgets", "gadgets"},
	Docs:        []string{"settings"},
}

func newService(t *testing.T, store kvstore.Store) *Service {
	t.Helper()
	logger.Discard()

	db, err := database.OpenSnapshotDB(config.SnapshotConfig{
		Driver: "sqlite",
		DSN:    filepath.Join(t.TempDir(), "snapshot.db"),
	})
	require.NoError(t, err)

	svc := NewService(db, store, testLayout)
	require.NoError(t, svc.PrimeDB())
	return svc
}

func seed(t *testing.T, ctx context.Context, store kvstore.Store) (string, string) {
	t.Helper()
	a, err := store.Create(ctx, "widgets", kvstore.Record{"name": kvstore.MustJSON("a"), "weight": kvstore.MustJSON(3)})
	require.NoError(t, err)
	b, err := store.Create(ctx, "gadgets", kvstore.Record{"name": kvstore.MustJSON("b")})
	require.NoError(t, err)
	require.NoError(t, store.MergeDoc(ctx, "settings", kvstore.Record{"pool": kvstore.MustJSON("100")}, nil))
	return a, b
}

func TestSnapshot_RoundTripIntoEmptyStore(t *testing.T) {
	ctx := context.Background()
	source := kvstore.NewMemoryStore()
	svc := newService(t, source)
	fixed := time.Date(2025, 5, 5, 5, 5, 5, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	widgetID, gadgetID := seed(t, ctx, source)

	n, err := svc.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	last, err := svc.LastSnapshotAt()
	require.NoError(t, err)
	assert.True(t, fixed.Equal(last))

	// 换成一个空的主存储，模拟Redis丢失数据
	target := kvstore.NewMemoryStore()
	svc.store = target

	restored, err := svc.RestoreIfEmpty(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, restored)

	w, err := target.Get(ctx, "widgets", widgetID)
	require.NoError(t, err)
	assert.JSONEq(t, `3`, string(w["weight"]))

	_, err = target.Get(ctx, "gadgets", gadgetID)
	require.NoError(t, err)

	doc, err := target.GetDoc(ctx, "settings")
	require.NoError(t, err)
	assert.JSONEq(t, `"100"`, string(doc["pool"]))
}

func TestSnapshot_ReplacesPreviousSnapshot(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemoryStore()
	svc := newService(t, store)

	widgetID, _ := seed(t, ctx, store)
	_, err := svc.Snapshot(ctx)
	require.NoError(t, err)

	require.NoError(t, store.Remove(ctx, "widgets", widgetID))
	n, err := svc.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	var count int64
	require.NoError(t, svc.db.Model(&SnapshotRecord{}).Where("scope = ?", "widgets").Count(&count).Error)
	assert.Zero(t, count)
}

func TestRestoreIfEmpty_LeavesPopulatedStoreAlone(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemoryStore()
	svc := newService(t, store)

	seed(t, ctx, store)
	_, err := svc.Snapshot(ctx)
	require.NoError(t, err)

	live, err := store.Create(ctx, "widgets", kvstore.Record{"name": kvstore.MustJSON("new")})
	require.NoError(t, err)

	restored, err := svc.RestoreIfEmpty(ctx)
	require.NoError(t, err)
	assert.Zero(t, restored)

	items, err := store.GetAll(ctx, "widgets")
	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.Equal(t, live, items[1].ID)
}

func TestRestoreIfEmpty_NoSnapshotYet(t *testing.T) {
	svc := newService(t, kvstore.NewMemoryStore())

	restored, err := svc.RestoreIfEmpty(context.Background())
	require.NoError(t, err)
	assert.Zero(t, restored)
}

func TestStartScheduler_StopsOnShutdown(t *testing.T) {
	store := kvstore.NewMemoryStore()
	svc := newService(t, store)
	seed(t, context.Background(), store)

	graceful := lifecycle.NewManager("graceful", logger.Log)
	forceful := lifecycle.NewManager("forceful", logger.Log)
	gh, err := graceful.NewServiceHandle("snapshot")
	require.NoError(t, err)
	fh, err := forceful.NewServiceHandle("snapshot")
	require.NoError(t, err)

	go svc.StartScheduler(gh, fh, 10*time.Millisecond, func() bool { return true })

	require.Eventually(t, func() bool {
		last, err := svc.LastSnapshotAt()
		return err == nil && !last.IsZero()
	}, 2*time.Second, 10*time.Millisecond)

	graceful.Shutdown()
	assert.Empty(t, graceful.WaitWithTimeout(2*time.Second))
	assert.Empty(t, forceful.WaitWithTimeout(time.Second))
}

func TestSnapshot_RefusesToOverwriteWithEmptyStore(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemoryStore()
	svc := newService(t, store)

	seed(t, ctx, store)
	_, err := svc.Snapshot(ctx)
	require.NoError(t, err)

	svc.store = kvstore.NewMemoryStore()
	_, err = svc.Snapshot(ctx)
	assert.ErrorIs(t, err, ErrEmptyStore)

	var count int64
	require.NoError(t, svc.db.Model(&SnapshotRecord{}).Count(&count).Error)
	assert.EqualValues(t, 3, count)
}
