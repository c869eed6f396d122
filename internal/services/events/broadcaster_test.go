package events

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/jwebster45206/narrative-engine/pkg/chat"
	"github.com/jwebster45206/narrative-engine/pkg/state"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupBroadcaster(t *testing.T) *Broadcaster {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewBroadcaster(client, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func receive(t *testing.T, ch <-chan *redis.Message) Event {
	t.Helper()
	select {
	case msg := <-ch:
		var ev Event
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &ev))
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestBroadcaster_PublishTurn(t *testing.T) {
	b := setupBroadcaster(t)
	ctx := context.Background()

	gs := state.NewGameState("harbor", "docks")
	gs.TurnCountGlobal = 3

	pubsub, err := b.Subscribe(ctx, gs.ID)
	require.NoError(t, err)
	defer func() { _ = pubsub.Close() }()
	ch := pubsub.Channel()

	resp := &chat.TurnResponse{GameStateID: gs.ID, Narrative: "Waves.", Fired: []string{"fog"}}
	require.NoError(t, b.PublishTurn(ctx, EventTypeTurnCompleted, gs, resp))

	ev := receive(t, ch)
	assert.Equal(t, EventTypeTurnCompleted, ev.Type)
	assert.Equal(t, gs.ID.String(), ev.GameID)
	assert.Equal(t, float64(3), ev.Data["turn"])
	assert.Equal(t, "docks", ev.Data["location"])
	assert.Equal(t, "Waves.", ev.Data["narrative"])
}

func TestBroadcaster_PublishTurn_Ended(t *testing.T) {
	b := setupBroadcaster(t)
	ctx := context.Background()

	gs := state.NewGameState("harbor", "docks")
	pubsub, err := b.Subscribe(ctx, gs.ID)
	require.NoError(t, err)
	defer func() { _ = pubsub.Close() }()
	ch := pubsub.Channel()

	msg := "The storm takes the harbor."
	resp := &chat.TurnResponse{GameStateID: gs.ID, Ended: &state.Ending{Message: &msg}}
	require.NoError(t, b.PublishTurn(ctx, EventTypeEventForced, gs, resp))

	assert.Equal(t, EventTypeEventForced, receive(t, ch).Type)
	ended := receive(t, ch)
	assert.Equal(t, EventTypeGameEnded, ended.Type)
	assert.Equal(t, false, ended.Data["success"])
	assert.Equal(t, msg, ended.Data["message"])
}

func TestChannel(t *testing.T) {
	id := uuid.MustParse("6f1c5a2e-2f43-4b8a-9a53-0b7f3c1d2e4f")
	assert.Equal(t, "game-events:6f1c5a2e-2f43-4b8a-9a53-0b7f3c1d2e4f", Channel(id))
}
