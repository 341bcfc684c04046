// Package store defines the persistence interface for the Memoria server.
package store

import (
	"context"

	"github.com/memoriaapp/memoria-server/internal/domain"
)

// Store defines the repository contract the core consumes. Implementations
// own the MediaRecord rows; callers receive value snapshots.
type Store interface {
	// Lifecycle
	Close() error

	// Media
	CreateMedia(ctx context.Context, rec *domain.MediaRecord) error
	GetMedia(ctx context.Context, id string) (*domain.MediaRecord, error)

	// FindCandidates returns all non-tombstoned records for a guild,
	// filtered by media type when mediaType is non-empty. Rows come back
	// ordered created_at DESC; the search engine re-sorts and relies on
	// this order only as the residual tie-break.
	FindCandidates(ctx context.Context, guildID string, mediaType domain.MediaType) ([]domain.MediaRecord, error)

	// DeleteMedia tombstones a record. Returns false when the record is
	// absent or the requesting user is neither the owner nor privileged.
	DeleteMedia(ctx context.Context, id, requestingUserID string, isPrivileged bool) (bool, error)

	// UpdateTags replaces a record's tag list and returns the updated
	// record. Rejects an empty newTags with ErrEmptyTags before mutating.
	UpdateTags(ctx context.Context, id string, newTags []string) (*domain.MediaRecord, error)

	// IncrementRecallCount bumps the recall counter. Best-effort for
	// callers: a failure here must not undo a completed send.
	IncrementRecallCount(ctx context.Context, id string) error

	// GuildTags returns the distinct canonical tags in use across a
	// guild's live records, for the suggestion index.
	GuildTags(ctx context.Context, guildID string) ([]string, error)
}
