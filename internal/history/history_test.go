package history

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func entry(itemID, status string, finished time.Time) Entry {
	return Entry{
		ItemID:     itemID,
		URL:        "https://example.com/" + itemID,
		Title:      "Video " + itemID,
		Status:     status,
		FinishedAt: finished,
	}
}

func TestRecordAndList(t *testing.T) {
	s := testStore(t)
	now := time.Now()

	require.NoError(t, s.Record(Entry{
		ItemID:     "a",
		URL:        "https://example.com/a",
		Title:      "First",
		Status:     "completed",
		OutputFile: "/dl/first.mp4",
		Duration:   120,
		FinishedAt: now.Add(-2 * time.Hour),
	}))
	require.NoError(t, s.Record(Entry{
		ItemID:       "b",
		URL:          "https://example.com/b",
		Title:        "Second",
		Status:       "failed",
		ErrorMessage: "ERROR: boom",
		FinishedAt:   now.Add(-1 * time.Hour),
	}))
	require.NoError(t, s.Record(entry("c", "cancelled", now)))

	entries, err := s.List(0)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	// Newest first.
	assert.Equal(t, "c", entries[0].ItemID)
	assert.Equal(t, "b", entries[1].ItemID)
	assert.Equal(t, "a", entries[2].ItemID)

	assert.Equal(t, "failed", entries[1].Status)
	assert.Equal(t, "ERROR: boom", entries[1].ErrorMessage)
	assert.Equal(t, "/dl/first.mp4", entries[2].OutputFile)
	assert.Equal(t, int64(120), entries[2].Duration)
	assert.WithinDuration(t, now, entries[0].FinishedAt, time.Second)
}

func TestListLimit(t *testing.T) {
	s := testStore(t)
	now := time.Now()

	for i, id := range []string{"a", "b", "c", "d"} {
		require.NoError(t, s.Record(entry(id, "completed", now.Add(time.Duration(i)*time.Minute))))
	}

	entries, err := s.List(2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "d", entries[0].ItemID)
	assert.Equal(t, "c", entries[1].ItemID)
}

func TestPrune(t *testing.T) {
	s := testStore(t)
	now := time.Now()

	require.NoError(t, s.Record(entry("old", "completed", now.Add(-48*time.Hour))))
	require.NoError(t, s.Record(entry("older", "failed", now.Add(-72*time.Hour))))
	require.NoError(t, s.Record(entry("fresh", "completed", now)))

	removed, err := s.Prune(now.Add(-24 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	entries, err := s.List(0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "fresh", entries[0].ItemID)

	// Nothing left to prune.
	removed, err = s.Prune(now.Add(-24 * time.Hour))
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestClear(t *testing.T) {
	s := testStore(t)

	require.NoError(t, s.Record(entry("a", "completed", time.Now())))
	require.NoError(t, s.Clear())

	entries, err := s.List(0)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestOpenReusesExistingDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	s, err := Open(path, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, s.Record(entry("a", "completed", time.Now())))
	require.NoError(t, s.Close())

	// Reopening runs migrations idempotently and keeps the data.
	s2, err := Open(path, zerolog.Nop())
	require.NoError(t, err)
	defer s2.Close()

	entries, err := s2.List(0)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
