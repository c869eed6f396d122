package storage

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/jwebster45206/narrative-engine/pkg/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func setupTestRedis(t *testing.T, dataDir string) (*RedisStorage, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}

	rs, err := NewRedisStorage("redis://"+mr.Addr(), dataDir, time.Hour, testLogger())
	if err != nil {
		mr.Close()
		t.Fatalf("Failed to create redis storage: %v", err)
	}
	t.Cleanup(func() {
		_ = rs.Close()
		mr.Close()
	})
	return rs, mr
}

func TestRedisStorage_GameStateRoundTrip(t *testing.T) {
	rs, mr := setupTestRedis(t, t.TempDir())
	ctx := context.Background()

	gs := state.NewGameState("eldoria", "town_square")
	gs.SetFlag("welcomed_to_eldoria")
	gs.AddItem("lantern", state.Item{Name: "Lantern"})
	gs.UpdateStat("health", 80)
	gs.MarkFired("welcome_to_eldoria")
	gs.MarkCheckpoint(5)
	require.NoError(t, gs.AdvanceTurn())
	gs.ChangeLocation("saltstone_bluffs")

	require.NoError(t, rs.SaveGameState(ctx, gs.ID, gs))
	assert.True(t, mr.Exists("gamestate:"+gs.ID.String()))
	assert.Equal(t, time.Hour, mr.TTL("gamestate:"+gs.ID.String()))

	loaded, err := rs.LoadGameState(ctx, gs.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, gs.ID, loaded.ID)
	assert.Equal(t, "eldoria", loaded.StoryID)
	assert.Equal(t, "saltstone_bluffs", loaded.Location)
	assert.True(t, loaded.HasFlag("welcomed_to_eldoria"))
	assert.Equal(t, "Lantern", loaded.Inventory["lantern"].Name)
	assert.Equal(t, 80, loaded.Stat("health"))
	assert.True(t, loaded.HasFired("welcome_to_eldoria"))
	assert.True(t, loaded.CheckpointFired(5))
	assert.Equal(t, 1, loaded.TurnCountGlobal)
	assert.Equal(t, 0, loaded.TurnCountInLocation)
	assert.Equal(t, []string{"town_square"}, loaded.VisitHistory)
}

func TestRedisStorage_LoadMissingGameState(t *testing.T) {
	rs, _ := setupTestRedis(t, t.TempDir())

	loaded, err := rs.LoadGameState(context.Background(), uuid.New())
	assert.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestRedisStorage_LoadCorruptGameState(t *testing.T) {
	rs, mr := setupTestRedis(t, t.TempDir())
	id := uuid.New()
	require.NoError(t, mr.Set("gamestate:"+id.String(), "{not json"))

	_, err := rs.LoadGameState(context.Background(), id)
	assert.Error(t, err)
}

func TestRedisStorage_DeleteGameState(t *testing.T) {
	rs, mr := setupTestRedis(t, t.TempDir())
	ctx := context.Background()
	gs := state.NewGameState("eldoria", "town_square")

	require.NoError(t, rs.SaveGameState(ctx, gs.ID, gs))
	require.NoError(t, rs.DeleteGameState(ctx, gs.ID))
	assert.False(t, mr.Exists("gamestate:"+gs.ID.String()))
}

func TestRedisStorage_Ping(t *testing.T) {
	rs, mr := setupTestRedis(t, t.TempDir())
	assert.NoError(t, rs.Ping(context.Background()))

	mr.Close()
	assert.Error(t, rs.Ping(context.Background()))
}

func TestNewRedisStorage_BareAddress(t *testing.T) {
	rs, err := NewRedisStorage("localhost:6379", "", 0, testLogger())
	require.NoError(t, err)
	assert.Equal(t, "./data", rs.dataDir)
	assert.Equal(t, DefaultGameStateTTL, rs.ttl)
	_ = rs.Close()
}
