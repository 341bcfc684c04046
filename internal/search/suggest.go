package search

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/search/query"
)

// SuggestIndex is a Bleve index over each guild's tag vocabulary. It
// backs the "did you mean" suggestions offered when a ranked search
// comes back empty. Exact ranking never goes through Bleve; this index
// only matches near-miss tags.
//
// Thread safety: all public methods are safe for concurrent use.
type SuggestIndex struct {
	index  bleve.Index
	logger *slog.Logger
	mu     sync.RWMutex
}

// tagDoc is one indexed vocabulary entry.
type tagDoc struct {
	GuildID string `json:"guild_id"`
	Tag     string `json:"tag"`
}

// NewSuggestIndex creates an in-memory suggestion index. The vocabulary
// is small (bounded tags per guild) and rebuilt from the repository on
// demand, so nothing is persisted.
func NewSuggestIndex(logger *slog.Logger) (*SuggestIndex, error) {
	indexMapping := bleve.NewIndexMapping()

	docMapping := bleve.NewDocumentMapping()

	guildFieldMapping := bleve.NewTextFieldMapping()
	guildFieldMapping.Analyzer = keyword.Name
	guildFieldMapping.Store = false
	docMapping.AddFieldMappingsAt("guild_id", guildFieldMapping)

	tagFieldMapping := bleve.NewTextFieldMapping()
	tagFieldMapping.Analyzer = keyword.Name
	tagFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("tag", tagFieldMapping)

	indexMapping.DefaultMapping = docMapping

	index, err := bleve.NewMemOnly(indexMapping)
	if err != nil {
		return nil, fmt.Errorf("create suggest index: %w", err)
	}

	return &SuggestIndex{index: index, logger: logger}, nil
}

// docID namespaces a tag entry per guild.
func docID(guildID, tag string) string {
	return guildID + "\x00" + tag
}

// IndexTags adds a guild's tags to the vocabulary. Indexing the same
// tag twice is a cheap overwrite.
func (s *SuggestIndex) IndexTags(guildID string, tags []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	batch := s.index.NewBatch()
	for _, tag := range tags {
		if err := batch.Index(docID(guildID, tag), tagDoc{GuildID: guildID, Tag: tag}); err != nil {
			return fmt.Errorf("index tag %q: %w", tag, err)
		}
	}
	return s.index.Batch(batch)
}

// RemoveTags drops vocabulary entries that no longer exist in the guild.
func (s *SuggestIndex) RemoveTags(guildID string, tags []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	batch := s.index.NewBatch()
	for _, tag := range tags {
		batch.Delete(docID(guildID, tag))
	}
	return s.index.Batch(batch)
}

// Suggest returns up to limit vocabulary tags of the guild that nearly
// match any of the query tags (prefix or small edit distance), best
// match first. Exact hits are skipped: the caller only asks after an
// exact search found nothing.
func (s *SuggestIndex) Suggest(ctx context.Context, guildID string, queryTags []string, limit int) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 || len(queryTags) == 0 {
		return nil, nil
	}

	perTag := make([]query.Query, 0, len(queryTags)*2)
	for _, tag := range queryTags {
		prefix := bleve.NewPrefixQuery(tag)
		prefix.SetField("tag")
		perTag = append(perTag, prefix)

		fuzzy := bleve.NewFuzzyQuery(tag)
		fuzzy.SetField("tag")
		fuzzy.SetFuzziness(2)
		perTag = append(perTag, fuzzy)
	}

	guildFilter := bleve.NewTermQuery(guildID)
	guildFilter.SetField("guild_id")

	combined := bleve.NewConjunctionQuery(guildFilter, bleve.NewDisjunctionQuery(perTag...))

	// Over-fetch so exact hits can be filtered out below.
	request := bleve.NewSearchRequestOptions(combined, limit+len(queryTags), 0, false)
	request.Fields = []string{"tag"}

	result, err := s.index.SearchInContext(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("suggest query: %w", err)
	}

	exact := make(map[string]struct{}, len(queryTags))
	for _, tag := range queryTags {
		exact[tag] = struct{}{}
	}

	suggestions := make([]string, 0, limit)
	for _, hit := range result.Hits {
		tag, ok := hit.Fields["tag"].(string)
		if !ok {
			continue
		}
		if _, isExact := exact[tag]; isExact {
			continue
		}
		suggestions = append(suggestions, tag)
		if len(suggestions) == limit {
			break
		}
	}

	return suggestions, nil
}

// Close releases the index.
func (s *SuggestIndex) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.Close()
}
