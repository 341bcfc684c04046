// Package domain contains the core types for the Memoria server.
package domain

import "time"

// Tag limits enforced at the normalization boundary.
const (
	MaxTagsPerRecord = 20
	MaxTagLength     = 50
)

// MediaType classifies a stored media record.
type MediaType string

// Supported media types.
const (
	MediaTypeImage MediaType = "image"
	MediaTypeGif   MediaType = "gif"
	MediaTypeVideo MediaType = "video"
)

// Valid reports whether t is a known media type.
func (t MediaType) Valid() bool {
	switch t {
	case MediaTypeImage, MediaTypeGif, MediaTypeVideo:
		return true
	}
	return false
}

// MediaRecord is a stored, taggable media item scoped to a guild.
// Tags are canonical (see internal/normalize), never empty after any
// mutation, and keep their display order. Sessions hold value snapshots
// of records, never live references.
type MediaRecord struct {
	ID           string     `json:"id"`
	GuildID      string     `json:"guild_id"`
	OwnerUserID  string     `json:"owner_user_id"`
	MediaURL     string     `json:"media_url"`
	MediaType    MediaType  `json:"media_type"`
	Tags         []string   `json:"tags"`
	FileName     string     `json:"file_name,omitempty"`
	ThumbnailURL string     `json:"thumbnail_url,omitempty"`
	RecallCount  int64      `json:"recall_count"`
	CreatedAt    time.Time  `json:"created_at"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"` // tombstone
}

// HasTag reports whether the record carries the given canonical tag.
func (m *MediaRecord) HasTag(tag string) bool {
	for _, t := range m.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Clone returns a value copy with its own tag slice, safe to hand to a
// session snapshot.
func (m *MediaRecord) Clone() MediaRecord {
	c := *m
	c.Tags = make([]string, len(m.Tags))
	copy(c.Tags, m.Tags)
	return c
}

// SearchQuery describes one ranked tag search.
type SearchQuery struct {
	GuildID   string
	Tags      []string  // canonical, ordered-unique, non-empty
	MediaType MediaType // optional filter; empty means all types
}

// TagDiff is the set difference between two tag lists, order preserved
// from the newer/older list respectively.
type TagDiff struct {
	Added   []string `json:"added"`
	Removed []string `json:"removed"`
}

// DiffTags computes added (new minus old) and removed (old minus new) by
// set difference.
func DiffTags(oldTags, newTags []string) TagDiff {
	oldSet := make(map[string]struct{}, len(oldTags))
	for _, t := range oldTags {
		oldSet[t] = struct{}{}
	}
	newSet := make(map[string]struct{}, len(newTags))
	for _, t := range newTags {
		newSet[t] = struct{}{}
	}

	var d TagDiff
	for _, t := range newTags {
		if _, ok := oldSet[t]; !ok {
			d.Added = append(d.Added, t)
		}
	}
	for _, t := range oldTags {
		if _, ok := newSet[t]; !ok {
			d.Removed = append(d.Removed, t)
		}
	}
	return d
}
