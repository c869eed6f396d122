package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/narrative-engine/pkg/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestSQLite(t *testing.T, dataDir string) *SQLiteStorage {
	t.Helper()
	s, err := NewSQLiteStorage(":memory:", dataDir, time.Hour, testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteStorage_GameStateRoundTrip(t *testing.T) {
	s := setupTestSQLite(t, t.TempDir())
	ctx := context.Background()

	gs := state.NewGameState("eldoria", "town_square")
	gs.SetFlag("welcomed_to_eldoria")
	gs.AddItem("lantern", state.Item{Name: "Lantern"})
	gs.MarkFired("welcome_to_eldoria")
	gs.ChangeLocation("saltstone_bluffs")

	require.NoError(t, s.SaveGameState(ctx, gs.ID, gs))

	gs.SetFlag("tide_out")
	require.NoError(t, s.SaveGameState(ctx, gs.ID, gs), "saving again updates the row")

	loaded, err := s.LoadGameState(ctx, gs.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, gs.ID, loaded.ID)
	assert.Equal(t, "saltstone_bluffs", loaded.Location)
	assert.True(t, loaded.HasFlag("tide_out"))
	assert.Equal(t, "Lantern", loaded.Inventory["lantern"].Name)
	assert.True(t, loaded.HasFired("welcome_to_eldoria"))
	assert.Equal(t, []string{"town_square"}, loaded.VisitHistory)
}

func TestSQLiteStorage_MissingAndDeleted(t *testing.T) {
	s := setupTestSQLite(t, t.TempDir())
	ctx := context.Background()

	loaded, err := s.LoadGameState(ctx, uuid.New())
	assert.NoError(t, err)
	assert.Nil(t, loaded)

	gs := state.NewGameState("eldoria", "town_square")
	require.NoError(t, s.SaveGameState(ctx, gs.ID, gs))
	require.NoError(t, s.DeleteGameState(ctx, gs.ID))

	loaded, err = s.LoadGameState(ctx, gs.ID)
	assert.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestSQLiteStorage_Expiry(t *testing.T) {
	s := setupTestSQLite(t, t.TempDir())
	ctx := context.Background()

	clock := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return clock }

	stale := state.NewGameState("eldoria", "town_square")
	fresh := state.NewGameState("eldoria", "town_square")
	require.NoError(t, s.SaveGameState(ctx, stale.ID, stale))

	clock = clock.Add(30 * time.Minute)
	require.NoError(t, s.SaveGameState(ctx, fresh.ID, fresh))

	clock = clock.Add(45 * time.Minute)
	loaded, err := s.LoadGameState(ctx, stale.ID)
	assert.NoError(t, err)
	assert.Nil(t, loaded, "expired games read as missing")

	loaded, err = s.LoadGameState(ctx, fresh.ID)
	require.NoError(t, err)
	assert.NotNil(t, loaded)

	clock = clock.Add(time.Hour)
	n, err := s.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestSQLiteStorage_StoriesAndPing(t *testing.T) {
	s := setupTestSQLite(t, writeTestStories(t))
	ctx := context.Background()

	require.NoError(t, s.WaitForConnection(ctx))

	infos, err := s.ListStories(ctx)
	require.NoError(t, err)
	assert.Len(t, infos, 2)

	st, err := s.GetStory(ctx, "eldoria")
	require.NoError(t, err)
	assert.Equal(t, "The Shores of Eldoria", st.Title)
}

func TestNewSQLiteStorage_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "narrative.db")
	s, err := NewSQLiteStorage(path, "", 0, testLogger())
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	assert.Equal(t, DefaultGameStateTTL, s.ttl)
	assert.Equal(t, "./data", s.dataDir)

	gs := state.NewGameState("eldoria", "town_square")
	require.NoError(t, s.SaveGameState(context.Background(), gs.ID, gs))
}
