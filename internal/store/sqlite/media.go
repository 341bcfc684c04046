package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/memoriaapp/memoria-server/internal/domain"
	"github.com/memoriaapp/memoria-server/internal/store"
)

// mediaColumns is the ordered list of columns selected in media queries.
// Must match the scan order in scanMedia.
const mediaColumns = `id, guild_id, owner_user_id, media_url, media_type, tags, file_name, thumbnail_url, recall_count, created_at, deleted_at`

// scanMedia scans a sql.Row (or sql.Rows via its Scan method) into a
// domain.MediaRecord.
func scanMedia(scanner interface{ Scan(dest ...any) error }) (*domain.MediaRecord, error) {
	var (
		m         domain.MediaRecord
		tagsJSON  string
		createdAt string
		deletedAt sql.NullString
	)

	err := scanner.Scan(
		&m.ID,
		&m.GuildID,
		&m.OwnerUserID,
		&m.MediaURL,
		&m.MediaType,
		&tagsJSON,
		&m.FileName,
		&m.ThumbnailURL,
		&m.RecallCount,
		&createdAt,
		&deletedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(tagsJSON), &m.Tags); err != nil {
		return nil, fmt.Errorf("decode tags for %s: %w", m.ID, err)
	}
	if m.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if m.DeletedAt, err = parseNullableTime(deletedAt); err != nil {
		return nil, err
	}

	return &m, nil
}

// CreateMedia inserts a new media record.
func (s *Store) CreateMedia(ctx context.Context, rec *domain.MediaRecord) error {
	tagsJSON, err := json.Marshal(rec.Tags)
	if err != nil {
		return fmt.Errorf("encode tags: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO media (id, guild_id, owner_user_id, media_url, media_type, tags, file_name, thumbnail_url, recall_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		rec.GuildID,
		rec.OwnerUserID,
		rec.MediaURL,
		rec.MediaType,
		string(tagsJSON),
		rec.FileName,
		rec.ThumbnailURL,
		rec.RecallCount,
		formatTime(rec.CreatedAt),
	)
	return err
}

// GetMedia retrieves a live (non-tombstoned) record by id.
// Returns store.ErrNotFound if the record does not exist or is deleted.
func (s *Store) GetMedia(ctx context.Context, id string) (*domain.MediaRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+mediaColumns+` FROM media WHERE id = ? AND deleted_at IS NULL`, id)

	m, err := scanMedia(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

// FindCandidates returns all live records for a guild, newest first,
// optionally filtered by media type. The created_at DESC order is the
// residual tie-break the search engine depends on.
func (s *Store) FindCandidates(ctx context.Context, guildID string, mediaType domain.MediaType) ([]domain.MediaRecord, error) {
	query := `SELECT ` + mediaColumns + ` FROM media WHERE guild_id = ? AND deleted_at IS NULL`
	args := []any{guildID}
	if mediaType != "" {
		query += ` AND media_type = ?`
		args = append(args, mediaType)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.MediaRecord
	for rows.Next() {
		m, err := scanMedia(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return records, nil
}

// DeleteMedia tombstones a record. Returns false when the record is
// absent, already deleted, or the requesting user is neither the owner
// nor privileged. The authorization check and the tombstone write happen
// in one statement so concurrent deletes cannot both succeed.
func (s *Store) DeleteMedia(ctx context.Context, id, requestingUserID string, isPrivileged bool) (bool, error) {
	query := `UPDATE media SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`
	args := []any{formatTime(nowUTC()), id}
	if !isPrivileged {
		query += ` AND owner_user_id = ?`
		args = append(args, requestingUserID)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// UpdateTags replaces a record's tag list and returns the updated record.
// Rejects an empty tag set with store.ErrEmptyTags before mutating;
// returns store.ErrNotFound for absent or tombstoned records.
func (s *Store) UpdateTags(ctx context.Context, id string, newTags []string) (*domain.MediaRecord, error) {
	if len(newTags) == 0 {
		return nil, store.ErrEmptyTags
	}

	tagsJSON, err := json.Marshal(newTags)
	if err != nil {
		return nil, fmt.Errorf("encode tags: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE media SET tags = ? WHERE id = ? AND deleted_at IS NULL`,
		string(tagsJSON), id)
	if err != nil {
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, store.ErrNotFound
	}

	return s.GetMedia(ctx, id)
}

// IncrementRecallCount bumps the recall counter for a record.
// A missing record is not an error; recall counting is best-effort.
func (s *Store) IncrementRecallCount(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE media SET recall_count = recall_count + 1 WHERE id = ? AND deleted_at IS NULL`, id)
	return err
}

// GuildTags returns the distinct canonical tags across a guild's live
// records, for the suggestion index.
func (s *Store) GuildTags(ctx context.Context, guildID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT value
		FROM media, json_each(media.tags)
		WHERE guild_id = ? AND deleted_at IS NULL
		ORDER BY value`, guildID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tags []string
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}
