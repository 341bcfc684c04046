package search

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSuggestIndex(t *testing.T) *SuggestIndex {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	idx, err := NewSuggestIndex(logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })

	return idx
}

func TestSuggest_NearMisses(t *testing.T) {
	idx := newTestSuggestIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.IndexTags("guild-1", []string{"catfish", "caterpillar", "dog"}))

	got, err := idx.Suggest(ctx, "guild-1", []string{"cat"}, 5)
	require.NoError(t, err)

	assert.Contains(t, got, "catfish")
	assert.Contains(t, got, "caterpillar")
	assert.NotContains(t, got, "dog")
}

func TestSuggest_SkipsExactMatches(t *testing.T) {
	idx := newTestSuggestIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.IndexTags("guild-1", []string{"cat", "cats"}))

	got, err := idx.Suggest(ctx, "guild-1", []string{"cat"}, 5)
	require.NoError(t, err)

	assert.NotContains(t, got, "cat")
	assert.Contains(t, got, "cats")
}

func TestSuggest_GuildScoped(t *testing.T) {
	idx := newTestSuggestIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.IndexTags("guild-1", []string{"catfish"}))
	require.NoError(t, idx.IndexTags("guild-2", []string{"catnip"}))

	got, err := idx.Suggest(ctx, "guild-1", []string{"cat"}, 5)
	require.NoError(t, err)

	assert.Contains(t, got, "catfish")
	assert.NotContains(t, got, "catnip")
}

func TestSuggest_RemoveTags(t *testing.T) {
	idx := newTestSuggestIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.IndexTags("guild-1", []string{"catfish"}))
	require.NoError(t, idx.RemoveTags("guild-1", []string{"catfish"}))

	got, err := idx.Suggest(ctx, "guild-1", []string{"cat"}, 5)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSuggest_LimitAndEmptyQuery(t *testing.T) {
	idx := newTestSuggestIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.IndexTags("guild-1", []string{"cata", "catb", "catc", "catd"}))

	got, err := idx.Suggest(ctx, "guild-1", []string{"cat"}, 2)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = idx.Suggest(ctx, "guild-1", nil, 5)
	require.NoError(t, err)
	assert.Empty(t, got)
}
