package service

import (
	"context"
	"log/slog"

	"github.com/memoriaapp/memoria-server/internal/domain"
	"github.com/memoriaapp/memoria-server/internal/errors"
	"github.com/memoriaapp/memoria-server/internal/id"
	"github.com/memoriaapp/memoria-server/internal/normalize"
	"github.com/memoriaapp/memoria-server/internal/search"
	"github.com/memoriaapp/memoria-server/internal/session"
	"github.com/memoriaapp/memoria-server/internal/store"
)

// maxSuggestions caps the "did you mean" list on zero-result searches.
const maxSuggestions = 5

// RecallService opens carousels and ingests media. It owns the
// search-to-session handoff: a successful search atomically replaces any
// in-flight session under the same key, so the last search wins.
type RecallService struct {
	store    store.Store
	engine   *search.Engine
	suggest  *search.SuggestIndex
	sessions *session.Store
	logger   *slog.Logger
}

// NewRecallService creates the recall/ingest service.
func NewRecallService(
	store store.Store,
	engine *search.Engine,
	suggest *search.SuggestIndex,
	sessions *session.Store,
	logger *slog.Logger,
) *RecallService {
	return &RecallService{
		store:    store,
		engine:   engine,
		suggest:  suggest,
		sessions: sessions,
		logger:   logger,
	}
}

// StartSearchRequest opens a ranked recall or delete carousel.
type StartSearchRequest struct {
	GuildID   string
	UserID    string
	Mode      domain.SessionMode
	TagText   string           // raw tag text, normalized here
	MediaType domain.MediaType // optional filter
}

// StartResult is the outcome of a search. View is nil on zero results;
// Suggestions may accompany that case with near-miss tags to show
// instead, or stay empty when the guild's vocabulary offers none.
type StartResult struct {
	View        *domain.CarouselView
	Suggestions []string
}

// StartSearch runs a ranked search and, on a hit, opens a session
// showing the best match. Zero results never open a session; they come
// back with spelling suggestions drawn from the guild's live tag
// vocabulary.
func (s *RecallService) StartSearch(ctx context.Context, req StartSearchRequest) (*StartResult, error) {
	if req.Mode != domain.ModeRecall && req.Mode != domain.ModeDelete {
		return nil, errors.Validation("search opens recall or delete carousels only")
	}
	if req.MediaType != "" && !req.MediaType.Valid() {
		return nil, errors.Validationf("unknown media type %q", req.MediaType)
	}

	tags := normalize.Tags(req.TagText)
	if len(tags) == 0 {
		return nil, errors.Validation("search needs at least one tag")
	}

	results, err := s.engine.Search(ctx, domain.SearchQuery{
		GuildID:   req.GuildID,
		Tags:      tags,
		MediaType: req.MediaType,
	})
	if err != nil {
		s.logger.Error("search failed", "guild_id", req.GuildID, "error", err)
		return nil, errors.Wrap(err, errors.CodeInternal, "search failed, try again later")
	}

	if len(results) == 0 {
		return &StartResult{Suggestions: s.suggestTags(ctx, req.GuildID, tags)}, nil
	}

	key := domain.UserSessionKey(req.Mode, req.UserID)
	s.sessions.Put(key, results)

	s.logger.Info("carousel opened",
		"session_key", key,
		"mode", req.Mode,
		"guild_id", req.GuildID,
		"results", len(results),
	)

	return &StartResult{View: activeView(key, req.Mode, results, 0)}, nil
}

// TopCarousel opens a popularity carousel keyed to the presenting
// message, shared by every viewer.
func (s *RecallService) TopCarousel(ctx context.Context, guildID, messageID string, mediaType domain.MediaType) (*domain.CarouselView, error) {
	if mediaType != "" && !mediaType.Valid() {
		return nil, errors.Validationf("unknown media type %q", mediaType)
	}

	results, err := s.engine.TopByPopularity(ctx, guildID, mediaType)
	if err != nil {
		s.logger.Error("top search failed", "guild_id", guildID, "error", err)
		return nil, errors.Wrap(err, errors.CodeInternal, "search failed, try again later")
	}
	if len(results) == 0 {
		return nil, errors.NotFound("no media in this guild yet")
	}

	key := domain.MessageSessionKey(messageID)
	s.sessions.Put(key, results)

	s.logger.Info("carousel opened",
		"session_key", key,
		"mode", domain.ModeTop,
		"guild_id", guildID,
		"results", len(results),
	)

	return activeView(key, domain.ModeTop, results, 0), nil
}

// AddMediaRequest ingests one media record.
type AddMediaRequest struct {
	GuildID      string
	OwnerUserID  string
	MediaURL     string
	MediaType    domain.MediaType
	TagText      string // raw tag text, normalized here
	FileName     string
	ThumbnailURL string
}

// AddMedia stores a new record under a generated id and feeds its tags
// to the suggestion index.
func (s *RecallService) AddMedia(ctx context.Context, req AddMediaRequest) (*domain.MediaRecord, error) {
	if !req.MediaType.Valid() {
		return nil, errors.Validationf("unknown media type %q", req.MediaType)
	}

	tags := normalize.Tags(req.TagText)
	if len(tags) == 0 {
		return nil, errors.Validation("media needs at least one tag")
	}

	mediaID, err := id.Generate("media")
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "could not generate media id")
	}

	rec := &domain.MediaRecord{
		ID:           mediaID,
		GuildID:      req.GuildID,
		OwnerUserID:  req.OwnerUserID,
		MediaURL:     req.MediaURL,
		MediaType:    req.MediaType,
		Tags:         tags,
		FileName:     req.FileName,
		ThumbnailURL: req.ThumbnailURL,
	}

	if err := s.store.CreateMedia(ctx, rec); err != nil {
		s.logger.Error("create media failed", "guild_id", req.GuildID, "error", err)
		return nil, errors.Wrap(err, errors.CodeInternal, "could not store media, try again later")
	}

	// Best-effort: suggestions degrade, ingest does not.
	if err := s.suggest.IndexTags(req.GuildID, rec.Tags); err != nil {
		s.logger.Warn("suggest index update failed", "media_id", rec.ID, "error", err)
	}

	s.logger.Info("media added",
		"media_id", rec.ID,
		"guild_id", rec.GuildID,
		"owner_id", rec.OwnerUserID,
		"media_type", rec.MediaType,
		"tags", len(rec.Tags),
	)

	return rec, nil
}

// suggestTags refreshes the guild's vocabulary in the suggestion index
// and queries it for near misses. Best-effort: any failure just means no
// suggestions.
func (s *RecallService) suggestTags(ctx context.Context, guildID string, queryTags []string) []string {
	vocab, err := s.store.GuildTags(ctx, guildID)
	if err != nil {
		s.logger.Warn("guild tag refresh failed", "guild_id", guildID, "error", err)
		return nil
	}
	if len(vocab) == 0 {
		return nil
	}
	if err := s.suggest.IndexTags(guildID, vocab); err != nil {
		s.logger.Warn("suggest index refresh failed", "guild_id", guildID, "error", err)
		return nil
	}

	suggestions, err := s.suggest.Suggest(ctx, guildID, queryTags, maxSuggestions)
	if err != nil {
		s.logger.Warn("tag suggestion failed", "guild_id", guildID, "error", err)
		return nil
	}
	return suggestions
}
