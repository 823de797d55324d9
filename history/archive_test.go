package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lumora-Labs/lumora-go-router/models"
)

func openTestArchive(t *testing.T) *Archive {
	t.Helper()
	a, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, a.Close()) })
	return a
}

func TestArchiveRecordAndRecent(t *testing.T) {
	a := openTestArchive(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Minute)
	for i, summary := range []string{"первый", "второй", "третий"} {
		err := a.Record(ctx, "s1", models.ActionRecord{
			ID:        summary,
			Category:  models.CategoryImageGeneration,
			Summary:   summary,
			Success:   true,
			Timestamp: base.Add(time.Duration(i) * time.Second),
		})
		require.NoError(t, err)
	}

	recent, err := a.Recent(ctx, "s1", 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "третий", recent[0].ID)
	assert.Equal(t, "второй", recent[1].ID)
	assert.True(t, recent[0].Success)
	assert.Equal(t, models.CategoryImageGeneration, recent[0].Category)
}

func TestArchiveRecentUnknownSession(t *testing.T) {
	a := openTestArchive(t)
	recent, err := a.Recent(context.Background(), "missing", 5)
	require.NoError(t, err)
	assert.Empty(t, recent)
}

func TestArchiveSessionsIsolated(t *testing.T) {
	a := openTestArchive(t)
	ctx := context.Background()

	require.NoError(t, a.Record(ctx, "a", models.ActionRecord{ID: "1", Category: models.CategoryWebSearch, Summary: "поиск"}))
	require.NoError(t, a.Record(ctx, "b", models.ActionRecord{ID: "2", Category: models.CategoryConversation, Summary: "беседа"}))

	recentA, err := a.Recent(ctx, "a", 10)
	require.NoError(t, err)
	require.Len(t, recentA, 1)
	assert.Equal(t, "1", recentA[0].ID)
}
