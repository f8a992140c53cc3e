package admin

import (
	"context"
	"testing"

	"github.com/discolens/discolens-bridge/internal/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	backing, err := cache.NewMemory(100)
	require.NoError(t, err)
	return NewStore(backing)
}

func TestPersonalities_AbsentDocumentIsEmptyList(t *testing.T) {
	store := newTestStore(t)

	list, err := store.Personalities(context.Background())

	require.NoError(t, err)
	assert.Empty(t, list)
	assert.NotNil(t, list)
}

func TestSavePersonality_InsertsThenReplaces(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SavePersonality(ctx, Personality{ID: "dj", Name: "The DJ", Prompt: "Keep it punchy."}))
	require.NoError(t, store.SavePersonality(ctx, Personality{ID: "critic", Name: "The Critic"}))

	// saving an existing ID replaces in place
	require.NoError(t, store.SavePersonality(ctx, Personality{ID: "dj", Name: "The DJ", Prompt: "Slow it down."}))

	list, err := store.Personalities(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Slow it down.", list[0].Prompt)
	assert.Equal(t, "critic", list[1].ID)
}

func TestSavePersonality_RejectsEmptyID(t *testing.T) {
	store := newTestStore(t)

	err := store.SavePersonality(context.Background(), Personality{Name: "Anonymous"})

	assert.ErrorContains(t, err, "id must not be empty")
}

func TestDeletePersonality(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SavePersonality(ctx, Personality{ID: "dj", Name: "The DJ"}))

	require.NoError(t, store.DeletePersonality(ctx, "dj"))

	list, err := store.Personalities(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	assert.ErrorIs(t, store.DeletePersonality(ctx, "dj"), ErrNotFound)
}

func TestActivePersonality_Selection(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.ActivePersonality(ctx)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, store.SetActivePersonality(ctx, "ghost"), ErrNotFound)

	require.NoError(t, store.SavePersonality(ctx, Personality{ID: "dj", Name: "The DJ", Prompt: "Keep it punchy."}))
	require.NoError(t, store.SetActivePersonality(ctx, "dj"))

	active, err := store.ActivePersonality(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Keep it punchy.", active.Prompt)
}

func TestDeletePersonality_ClearsActiveSelection(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SavePersonality(ctx, Personality{ID: "dj", Name: "The DJ"}))
	require.NoError(t, store.SavePersonality(ctx, Personality{ID: "critic", Name: "The Critic"}))
	require.NoError(t, store.SetActivePersonality(ctx, "dj"))

	require.NoError(t, store.DeletePersonality(ctx, "dj"))

	_, err := store.ActivePersonality(ctx)
	assert.ErrorIs(t, err, ErrNotFound)

	// deleting an inactive personality leaves the selection alone
	require.NoError(t, store.SetActivePersonality(ctx, "critic"))
	require.NoError(t, store.SavePersonality(ctx, Personality{ID: "dj", Name: "The DJ"}))
	require.NoError(t, store.DeletePersonality(ctx, "dj"))

	active, err := store.ActivePersonality(ctx)
	require.NoError(t, err)
	assert.Equal(t, "critic", active.ID)
}

func TestGameData_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.GameData(ctx)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.SetGameData(ctx, GameData{Version: "12", Date: "2026-08-31"}))

	data, err := store.GameData(ctx)
	require.NoError(t, err)
	assert.Equal(t, GameData{Version: "12", Date: "2026-08-31"}, data)
}
