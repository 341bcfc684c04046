// Package service orchestrates the Memoria recall, carousel, and ingest
// flows.
package service

import (
	"context"
	stderrors "errors"
	"log/slog"

	"github.com/memoriaapp/memoria-server/internal/domain"
	"github.com/memoriaapp/memoria-server/internal/errors"
	"github.com/memoriaapp/memoria-server/internal/normalize"
	"github.com/memoriaapp/memoria-server/internal/session"
	"github.com/memoriaapp/memoria-server/internal/store"
)

// AuthorizeDelete decides whether an actor may delete a record. The
// default policy allows the owner or a privileged actor; the predicate
// is injectable because role resolution lives outside the core.
type AuthorizeDelete func(actor domain.Actor, rec domain.MediaRecord) bool

// OwnerOrPrivileged is the default delete policy.
func OwnerOrPrivileged(actor domain.Actor, rec domain.MediaRecord) bool {
	return actor.Privileged || actor.UserID == rec.OwnerUserID
}

// CarouselService is the state machine behind every carousel control.
// It is memoryless between calls: the session list is the only state,
// and the position is recomputed from the item id carried in the token.
type CarouselService struct {
	store     store.Store
	sessions  *session.Store
	deliverer Deliverer
	authorize AuthorizeDelete
	logger    *slog.Logger
}

// NewCarouselService creates the carousel controller. A nil authorize
// falls back to OwnerOrPrivileged.
func NewCarouselService(
	store store.Store,
	sessions *session.Store,
	deliverer Deliverer,
	authorize AuthorizeDelete,
	logger *slog.Logger,
) *CarouselService {
	if authorize == nil {
		authorize = OwnerOrPrivileged
	}
	return &CarouselService{
		store:     store,
		sessions:  sessions,
		deliverer: deliverer,
		authorize: authorize,
		logger:    logger,
	}
}

// ActionRequest is one decoded carousel interaction.
type ActionRequest struct {
	Token domain.ActionToken
	Actor domain.Actor

	// MessageID identifies the presenting message; it scopes the session
	// key for top carousels.
	MessageID string

	// EditText is the raw tag text for edit actions.
	EditText string

	// Destination is the opaque delivery descriptor for send actions.
	Destination string
}

// HandleAction validates the request against the session store and
// performs one navigation step or one repository-backed mutation.
//
// Expected outcomes (expired session, stale item, denied delete, empty
// edit) come back as coded errors and are logged at warning level; only
// repository failures are system errors. No session mutation is
// committed before the corresponding repository call succeeds, with one
// documented exception: send tears the session down even on delivery
// failure, trading retryability for guaranteed state release.
func (s *CarouselService) HandleAction(ctx context.Context, req ActionRequest) (*domain.CarouselView, error) {
	if !req.Token.Mode.Valid() || !req.Token.Action.Valid() {
		return nil, errors.Validation("unknown carousel action")
	}

	key := req.Token.SessionKey(req.Actor.UserID, req.MessageID)

	// Common preamble: resolve the session, then locate the item.
	records, ok := s.sessions.Get(key)
	if !ok {
		s.logger.Warn("action on expired session",
			"session_key", key,
			"action", req.Token.Action,
			"user_id", req.Actor.UserID,
		)
		return nil, errors.SessionExpired("this search has expired, start a new one")
	}

	idx := indexOf(records, req.Token.ItemID)
	if idx < 0 {
		// Stale concurrent state: the session survives untouched.
		s.logger.Warn("action on missing item",
			"session_key", key,
			"item_id", req.Token.ItemID,
			"action", req.Token.Action,
		)
		return nil, errors.ItemMissing("that item is no longer in this carousel")
	}

	switch req.Token.Action {
	case domain.ActionPrev, domain.ActionNext:
		return s.navigate(key, req.Token, records, idx), nil
	case domain.ActionConfirmDelete:
		return s.confirmDelete(ctx, key, req, records, idx)
	case domain.ActionSend:
		return s.send(ctx, key, req, records[idx])
	case domain.ActionEdit:
		return s.editTags(ctx, key, req, records, idx)
	default:
		return nil, errors.Validation("unknown carousel action")
	}
}

// navigate clamps the new index to [0, len-1], saturating rather than
// wrapping around. The list is unchanged.
func (s *CarouselService) navigate(key string, token domain.ActionToken, records []domain.MediaRecord, idx int) *domain.CarouselView {
	next := idx
	if token.Action == domain.ActionPrev {
		next--
	} else {
		next++
	}
	next = clamp(next, 0, len(records)-1)

	return activeView(key, token.Mode, records, next)
}

// confirmDelete tombstones the current item and renormalizes the
// carousel position. Only available in delete mode.
func (s *CarouselService) confirmDelete(ctx context.Context, key string, req ActionRequest, records []domain.MediaRecord, idx int) (*domain.CarouselView, error) {
	if req.Token.Mode != domain.ModeDelete {
		return nil, errors.Validation("delete is only available in a delete carousel")
	}

	item := records[idx]
	if !s.authorize(req.Actor, item) {
		s.logger.Warn("delete denied",
			"session_key", key,
			"item_id", item.ID,
			"user_id", req.Actor.UserID,
		)
		return nil, errors.Unauthorized("you can only delete media you added")
	}

	// Repository first; the session is only touched on confirmed success.
	deleted, err := s.store.DeleteMedia(ctx, item.ID, req.Actor.UserID, req.Actor.Privileged)
	if err != nil {
		s.logger.Error("delete media failed", "item_id", item.ID, "error", err)
		return nil, errors.Wrap(err, errors.CodeInternal, "could not delete media, try again later")
	}
	if !deleted {
		// Gone from the repository behind our back; leave the session as
		// is so the next interaction re-resolves.
		return nil, errors.NotFound("that media no longer exists")
	}

	remaining, _ := s.sessions.RemoveItem(key, item.ID)

	s.logger.Info("media deleted",
		"item_id", item.ID,
		"guild_id", item.GuildID,
		"user_id", req.Actor.UserID,
		"remaining", remaining,
	)

	if remaining == 0 {
		return &domain.CarouselView{
			State:      domain.ViewExhausted,
			SessionKey: key,
			Mode:       req.Token.Mode,
			Deleted:    &item,
		}, nil
	}

	// Deleting index i shows what is now at i, or the new last index if
	// i was the last.
	rest := append(records[:idx:idx], records[idx+1:]...)
	view := activeView(key, req.Token.Mode, rest, clamp(idx, 0, len(rest)-1))
	view.Deleted = &item
	return view, nil
}

// send delivers the current item and unconditionally tears the session
// down: a session permits exactly one navigation-to-send cycle. Only
// available in recall mode.
func (s *CarouselService) send(ctx context.Context, key string, req ActionRequest, item domain.MediaRecord) (*domain.CarouselView, error) {
	if req.Token.Mode != domain.ModeRecall {
		return nil, errors.Validation("send is only available in a recall carousel")
	}

	// Claim the session before delivering. Take is atomic, so of two
	// racing sends exactly one delivers; the other observes an expired
	// session. Single-use either way: the session never comes back,
	// even on delivery failure.
	if _, ok := s.sessions.Take(key); !ok {
		s.logger.Warn("send lost claim on session",
			"session_key", key,
			"item_id", item.ID,
		)
		return nil, errors.SessionExpired("this search has expired, start a new one")
	}

	// Delivery never runs under the session store's lock.
	sentAsLink := false
	err := s.deliverer.Deliver(ctx, req.Destination, item)
	if stderrors.Is(err, ErrPayloadTooLarge) {
		// Two-tier fallback: retry as a reference link.
		sentAsLink = true
		err = s.deliverer.DeliverReference(ctx, req.Destination, item)
	}

	if err != nil {
		s.logger.Warn("delivery failed",
			"session_key", key,
			"item_id", item.ID,
			"error", err,
		)
		return nil, errors.Wrap(err, errors.CodeDeliveryFailed, "could not deliver the media")
	}

	// Best-effort: a failed count must not undo the send.
	if err := s.store.IncrementRecallCount(ctx, item.ID); err != nil {
		s.logger.Warn("recall count increment failed", "item_id", item.ID, "error", err)
	}

	s.logger.Info("media sent",
		"item_id", item.ID,
		"guild_id", item.GuildID,
		"user_id", req.Actor.UserID,
		"as_link", sentAsLink,
	)

	return &domain.CarouselView{
		State:      domain.ViewSent,
		SessionKey: key,
		Mode:       req.Token.Mode,
		Item:       &item,
		SentAsLink: sentAsLink,
	}, nil
}

// editTags renormalizes the submitted text, updates the repository, and
// swaps the session snapshot for the stored result.
func (s *CarouselService) editTags(ctx context.Context, key string, req ActionRequest, records []domain.MediaRecord, idx int) (*domain.CarouselView, error) {
	item := records[idx]

	newTags := normalize.Tags(req.EditText)
	if len(newTags) == 0 {
		return nil, errors.Validation("cannot remove all tags from media")
	}

	updated, err := s.store.UpdateTags(ctx, item.ID, newTags)
	switch {
	case stderrors.Is(err, store.ErrEmptyTags):
		return nil, errors.Validation("cannot remove all tags from media")
	case stderrors.Is(err, store.ErrNotFound):
		return nil, errors.NotFound("that media no longer exists")
	case err != nil:
		s.logger.Error("update tags failed", "item_id", item.ID, "error", err)
		return nil, errors.Wrap(err, errors.CodeInternal, "could not update tags, try again later")
	}

	// Commit the confirmed result back into the session. If the session
	// raced away in the meantime the view still reflects the stored
	// record.
	s.sessions.ReplaceAt(key, item.ID, *updated)

	diff := domain.DiffTags(item.Tags, updated.Tags)

	s.logger.Info("tags updated",
		"item_id", item.ID,
		"guild_id", item.GuildID,
		"user_id", req.Actor.UserID,
		"added", len(diff.Added),
		"removed", len(diff.Removed),
	)

	records[idx] = *updated
	view := activeView(key, req.Token.Mode, records, idx)
	view.Diff = &diff
	return view, nil
}

// activeView renders the item at idx of a snapshot list.
func activeView(key string, mode domain.SessionMode, records []domain.MediaRecord, idx int) *domain.CarouselView {
	item := records[idx]
	return &domain.CarouselView{
		State:      domain.ViewActive,
		SessionKey: key,
		Mode:       mode,
		Item:       &item,
		Index:      idx,
		Total:      len(records),
	}
}

// indexOf locates a record by id; -1 when absent.
func indexOf(records []domain.MediaRecord, itemID string) int {
	for i := range records {
		if records[i].ID == itemID {
			return i
		}
	}
	return -1
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
