package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toolturn/toolturn/core"
)

func sampleTranscript() []core.Message {
	return []core.Message{
		core.NewUserMessage("what is 2+2?"),
		core.NewAssistantMessage("", []core.ToolCall{
			{ID: "call_1", Name: "calculator", Arguments: `{"expr":"2+2"}`},
		}),
		{Role: core.RoleTool, Content: "4", ToolCallID: "call_1", Name: "calculator"},
		core.NewAssistantMessage("It is 4.", nil),
	}
}

func TestInMemoryStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	msgs, err := store.Load(ctx, "unknown")
	require.NoError(t, err)
	assert.Empty(t, msgs)

	require.NoError(t, store.Save(ctx, "conv-1", sampleTranscript()))

	got, err := store.Load(ctx, "conv-1")
	require.NoError(t, err)
	assert.Equal(t, sampleTranscript(), got)
}

func TestInMemoryStore_LoadReturnsCopy(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	require.NoError(t, store.Save(ctx, "conv-1", sampleTranscript()))

	first, err := store.Load(ctx, "conv-1")
	require.NoError(t, err)
	first[0].Content = "mutated"

	second, err := store.Load(ctx, "conv-1")
	require.NoError(t, err)
	assert.Equal(t, "what is 2+2?", second[0].Content)
}

func TestSQLiteStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := OpenSQLite(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	msgs, err := store.Load(ctx, "unknown")
	require.NoError(t, err)
	assert.Empty(t, msgs)

	require.NoError(t, store.Save(ctx, "conv-1", sampleTranscript()))

	got, err := store.Load(ctx, "conv-1")
	require.NoError(t, err)
	assert.Equal(t, sampleTranscript(), got)
}

func TestSQLiteStore_SaveReplaces(t *testing.T) {
	ctx := context.Background()
	store, err := OpenSQLite(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Save(ctx, "conv-1", sampleTranscript()))

	shorter := []core.Message{core.NewUserMessage("fresh start")}
	require.NoError(t, store.Save(ctx, "conv-1", shorter))

	got, err := store.Load(ctx, "conv-1")
	require.NoError(t, err)
	assert.Equal(t, shorter, got)
}

func TestSQLiteStore_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store, err := OpenSQLite(dir)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, "conv-1", sampleTranscript()))
	require.NoError(t, store.Close())

	reopened, err := OpenSQLite(dir)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Load(ctx, "conv-1")
	require.NoError(t, err)
	assert.Equal(t, sampleTranscript(), got)
}
