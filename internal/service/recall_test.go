package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memoriaapp/memoria-server/internal/domain"
	apperrors "github.com/memoriaapp/memoria-server/internal/errors"
	"github.com/memoriaapp/memoria-server/internal/search"
	"github.com/memoriaapp/memoria-server/internal/session"
)

// recallFixture wires a recall service over the in-memory mocks.
type recallFixture struct {
	svc      *RecallService
	store    *mockStore
	sessions *session.Store
}

func newRecallFixture(t *testing.T, records ...domain.MediaRecord) *recallFixture {
	t.Helper()
	logger := testLogger()

	ms := newMockStore(records...)
	suggest, err := search.NewSuggestIndex(logger)
	require.NoError(t, err)
	t.Cleanup(func() { suggest.Close() })

	sessions := session.NewStore(time.Minute, nil, logger)
	engine := search.NewEngine(ms, logger)

	return &recallFixture{
		svc:      NewRecallService(ms, engine, suggest, sessions, logger),
		store:    ms,
		sessions: sessions,
	}
}

func recallRecord(id string, recalls int64, age time.Duration, tags ...string) domain.MediaRecord {
	rec := carouselRecord(id, "user-1", tags...)
	rec.RecallCount = recalls
	rec.CreatedAt = time.Now().UTC().Add(-age)
	return rec
}

func TestStartSearchOpensSessionAtBestMatch(t *testing.T) {
	f := newRecallFixture(t,
		recallRecord("media-both", 0, time.Hour, "cat", "grumpy"),
		recallRecord("media-one", 0, time.Minute, "cat"),
		recallRecord("media-none", 0, time.Minute, "dog"),
	)

	res, err := f.svc.StartSearch(context.Background(), StartSearchRequest{
		GuildID: "guild-1",
		UserID:  "user-1",
		Mode:    domain.ModeRecall,
		TagText: "Cat, grumpy",
	})
	require.NoError(t, err)
	require.NotNil(t, res.View)

	assert.Equal(t, domain.ViewActive, res.View.State)
	assert.Equal(t, "media-both", res.View.Item.ID)
	assert.Equal(t, 0, res.View.Index)
	assert.Equal(t, 2, res.View.Total)
	assert.Empty(t, res.Suggestions)

	records, ok := f.sessions.Get(res.View.SessionKey)
	require.True(t, ok)
	assert.Len(t, records, 2)
}

func TestStartSearchLastSearchWins(t *testing.T) {
	f := newRecallFixture(t,
		recallRecord("media-cat", 0, time.Hour, "cat"),
		recallRecord("media-dog", 0, time.Hour, "dog"),
	)

	first, err := f.svc.StartSearch(context.Background(), StartSearchRequest{
		GuildID: "guild-1", UserID: "user-1", Mode: domain.ModeRecall, TagText: "cat",
	})
	require.NoError(t, err)

	second, err := f.svc.StartSearch(context.Background(), StartSearchRequest{
		GuildID: "guild-1", UserID: "user-1", Mode: domain.ModeRecall, TagText: "dog",
	})
	require.NoError(t, err)

	// Same key, new contents: the first carousel's item is gone.
	assert.Equal(t, first.View.SessionKey, second.View.SessionKey)
	records, ok := f.sessions.Get(second.View.SessionKey)
	require.True(t, ok)
	require.Len(t, records, 1)
	assert.Equal(t, "media-dog", records[0].ID)
}

func TestStartSearchModesAreIndependentSessions(t *testing.T) {
	f := newRecallFixture(t,
		recallRecord("media-cat", 0, time.Hour, "cat"),
	)

	recall, err := f.svc.StartSearch(context.Background(), StartSearchRequest{
		GuildID: "guild-1", UserID: "user-1", Mode: domain.ModeRecall, TagText: "cat",
	})
	require.NoError(t, err)

	del, err := f.svc.StartSearch(context.Background(), StartSearchRequest{
		GuildID: "guild-1", UserID: "user-1", Mode: domain.ModeDelete, TagText: "cat",
	})
	require.NoError(t, err)

	assert.NotEqual(t, recall.View.SessionKey, del.View.SessionKey)
	assert.Equal(t, 2, f.sessions.Len())
}

func TestStartSearchValidation(t *testing.T) {
	f := newRecallFixture(t)

	tests := []struct {
		name string
		req  StartSearchRequest
	}{
		{"top mode refused", StartSearchRequest{GuildID: "guild-1", UserID: "user-1", Mode: domain.ModeTop, TagText: "cat"}},
		{"unknown mode", StartSearchRequest{GuildID: "guild-1", UserID: "user-1", Mode: "shuffle", TagText: "cat"}},
		{"no usable tags", StartSearchRequest{GuildID: "guild-1", UserID: "user-1", Mode: domain.ModeRecall, TagText: " ,,, !!!"}},
		{"bad media type", StartSearchRequest{GuildID: "guild-1", UserID: "user-1", Mode: domain.ModeRecall, TagText: "cat", MediaType: "hologram"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.StartSearch(context.Background(), tt.req)
			assert.ErrorIs(t, err, apperrors.ErrValidation)
		})
	}
}

func TestStartSearchZeroResultsSuggestsNearMisses(t *testing.T) {
	f := newRecallFixture(t,
		recallRecord("media-a", 0, time.Hour, "grumpy_cat"),
		recallRecord("media-b", 0, time.Hour, "dog"),
	)

	res, err := f.svc.StartSearch(context.Background(), StartSearchRequest{
		GuildID: "guild-1",
		UserID:  "user-1",
		Mode:    domain.ModeRecall,
		TagText: "grumpy_cta",
	})
	require.NoError(t, err)

	assert.Nil(t, res.View)
	assert.Contains(t, res.Suggestions, "grumpy_cat")

	// Zero results never open a session.
	assert.Equal(t, 0, f.sessions.Len())
}

func TestStartSearchZeroResultsEmptyGuild(t *testing.T) {
	f := newRecallFixture(t)

	res, err := f.svc.StartSearch(context.Background(), StartSearchRequest{
		GuildID: "guild-1",
		UserID:  "user-1",
		Mode:    domain.ModeRecall,
		TagText: "cat",
	})
	require.NoError(t, err)

	assert.Nil(t, res.View)
	assert.Empty(t, res.Suggestions)
}

func TestTopCarouselOrdersByPopularity(t *testing.T) {
	f := newRecallFixture(t,
		recallRecord("media-cold", 1, time.Hour, "cat"),
		recallRecord("media-hot", 9, 2*time.Hour, "dog"),
		recallRecord("media-warm", 5, time.Hour, "cat"),
	)

	view, err := f.svc.TopCarousel(context.Background(), "guild-1", "msg-1", "")
	require.NoError(t, err)

	assert.Equal(t, "media-hot", view.Item.ID)
	assert.Equal(t, 3, view.Total)
	assert.Equal(t, domain.MessageSessionKey("msg-1"), view.SessionKey)
}

func TestTopCarouselEmptyGuild(t *testing.T) {
	f := newRecallFixture(t)

	_, err := f.svc.TopCarousel(context.Background(), "guild-1", "msg-1", "")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestAddMediaStoresNormalizedTags(t *testing.T) {
	f := newRecallFixture(t)

	rec, err := f.svc.AddMedia(context.Background(), AddMediaRequest{
		GuildID:     "guild-1",
		OwnerUserID: "user-1",
		MediaURL:    "https://cdn.example.com/cat.gif",
		MediaType:   domain.MediaTypeGif,
		TagText:     "Cat, GRUMPY cat",
		FileName:    "cat.gif",
	})
	require.NoError(t, err)

	assert.True(t, len(rec.ID) > len("media-"))
	assert.Equal(t, []string{"cat", "grumpy"}, rec.Tags)

	stored, err := f.store.GetMedia(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.MediaTypeGif, stored.MediaType)
	assert.Equal(t, "user-1", stored.OwnerUserID)
}

func TestAddMediaValidation(t *testing.T) {
	f := newRecallFixture(t)

	_, err := f.svc.AddMedia(context.Background(), AddMediaRequest{
		GuildID: "guild-1", OwnerUserID: "user-1",
		MediaURL: "https://cdn.example.com/x", MediaType: "hologram", TagText: "cat",
	})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = f.svc.AddMedia(context.Background(), AddMediaRequest{
		GuildID: "guild-1", OwnerUserID: "user-1",
		MediaURL: "https://cdn.example.com/x", MediaType: domain.MediaTypeImage, TagText: "  ",
	})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}
