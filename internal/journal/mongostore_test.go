package journal

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMongoStore(t *testing.T) {
	uri := os.Getenv("THERA_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("THERA_TEST_MONGO_URI not set")
	}
	ctx := context.Background()

	store, err := ConnectMongo(ctx, uri, "thera_test_"+uuid.NewString()[:8])
	require.NoError(t, err)
	t.Cleanup(func() {
		store.journals.Database().Drop(context.Background())
		store.Close(context.Background())
	})
	require.NoError(t, store.Ping(ctx))

	base := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	first := &Entry{UserID: "user1", Text: "first", CreatedAt: base}
	second := &Entry{UserID: "user1", Text: "second", CreatedAt: base.Add(time.Hour)}
	require.NoError(t, store.CreateEntry(ctx, first))
	require.NoError(t, store.CreateEntry(ctx, second))

	entries, err := store.ListJournals(ctx, "user1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "second", entries[0].Text)

	_, err = store.GetJournal(ctx, "user2", first.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.CreateDistressLog(ctx, &DistressLog{
		UserID: "user1", DetectedEmotion: "Sad (a.k.a. blue)", Level: 7, JournalRef: first.ID, CreatedAt: base,
	}))
	logs, err := store.EmotionLogs(ctx, "user1", EmotionFilter{Emotion: "a.k.a"})
	require.NoError(t, err)
	assert.Len(t, logs, 1)
	logs, err = store.EmotionLogs(ctx, "user1", EmotionFilter{Emotion: "a.k.x"})
	require.NoError(t, err)
	assert.Empty(t, logs, "emotion filter is matched literally")

	err = store.CreateEntryRecords(ctx, &Entry{UserID: "user3", Text: "third"},
		&DistressLog{UserID: "user3", DetectedEmotion: "sad", Level: 5},
		&HealingMemory{ID: "memory-1", UserID: "user3"})
	require.NoError(t, err)
	err = store.CreateEntryRecords(ctx, &Entry{UserID: "user3", Text: "fourth"},
		&DistressLog{UserID: "user3", DetectedEmotion: "angry", Level: 5},
		&HealingMemory{ID: "memory-1", UserID: "user3"})
	require.Error(t, err, "duplicate memory id")
	entries, err = store.ListJournals(ctx, "user3")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "third", entries[0].Text)
	logs, err = store.EmotionLogs(ctx, "user3", EmotionFilter{})
	require.NoError(t, err)
	assert.Len(t, logs, 1)

	users, err := store.ActiveUsers(ctx, base)
	require.NoError(t, err)
	assert.Equal(t, []string{"user1", "user3"}, users)

	n, err := InstallSeeds(ctx, store, DefaultSeeds())
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	seeds, err := store.ListAllSeeds(ctx)
	require.NoError(t, err)
	assert.Len(t, seeds, 5)
}
