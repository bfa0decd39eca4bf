package history

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dicta-app/dicta/internal/session"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "state", "history.jsonl"))
	require.NoError(t, err)
	return store
}

func TestRecordAndRecent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	entries := []session.HistoryEntry{
		{Text: "First transcript", DurationSeconds: 12.5, WordCount: 2, Timestamp: time.Now()},
		{Text: "Second transcript", DurationSeconds: 3.0, WordCount: 2, Timestamp: time.Now()},
	}
	for _, entry := range entries {
		require.NoError(t, store.Record(ctx, entry))
	}

	records, err := store.Recent(0)
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, "First transcript", records[0].Text)
	require.Equal(t, "Second transcript", records[1].Text)
	require.NotEmpty(t, records[0].ID)
	require.NotEqual(t, records[0].ID, records[1].ID)
	require.Equal(t, 12.5, records[0].DurationSeconds)
}

func TestRecentHonorsLimit(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, text := range []string{"one", "two", "three"} {
		require.NoError(t, store.Record(ctx, session.HistoryEntry{Text: text, Timestamp: time.Now()}))
	}

	records, err := store.Recent(2)
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, "two", records[0].Text)
	require.Equal(t, "three", records[1].Text)
}

func TestRecentMissingFile(t *testing.T) {
	store := newTestStore(t)
	records, err := store.Recent(10)
	require.NoError(t, err)
	require.Empty(t, records)
}

func TestRecentSkipsMalformedLines(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Record(ctx, session.HistoryEntry{Text: "good", Timestamp: time.Now()}))

	file, err := os.OpenFile(store.path, os.O_WRONLY|os.O_APPEND, 0o600)
	require.NoError(t, err)
	_, err = file.WriteString("{broken\n")
	require.NoError(t, err)
	require.NoError(t, file.Close())

	require.NoError(t, store.Record(ctx, session.HistoryEntry{Text: "after", Timestamp: time.Now()}))

	records, err := store.Recent(0)
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, "good", records[0].Text)
	require.Equal(t, "after", records[1].Text)
}

func TestNewStoreEmptyPath(t *testing.T) {
	_, err := NewStore("  ")
	require.Error(t, err)
}
