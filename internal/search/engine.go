// Package search ranks a guild's media records against tag queries.
package search

import (
	"context"
	"log/slog"
	"sort"

	"github.com/memoriaapp/memoria-server/internal/domain"
)

// CandidateSource is the slice of the repository the engine reads.
type CandidateSource interface {
	FindCandidates(ctx context.Context, guildID string, mediaType domain.MediaType) ([]domain.MediaRecord, error)
}

// Engine scores and orders candidates for a tag query.
//
// Ranking is fully deterministic: score (query ∩ tags, set semantics)
// descending, then recall count descending, then creation time
// descending; residual ties keep the repository's own newest-first
// return order via a stable sort.
type Engine struct {
	source CandidateSource
	logger *slog.Logger
}

// NewEngine creates a ranked search engine over the given source.
func NewEngine(source CandidateSource, logger *slog.Logger) *Engine {
	return &Engine{source: source, logger: logger}
}

// scored pairs a candidate with its query overlap for sorting.
type scored struct {
	rec   domain.MediaRecord
	score int
}

// Search returns the guild's candidates ranked against the query.
// Candidates sharing no tag with the query are excluded; an empty
// result means "no results", which the caller signals to the user.
func (e *Engine) Search(ctx context.Context, q domain.SearchQuery) ([]domain.MediaRecord, error) {
	candidates, err := e.source.FindCandidates(ctx, q.GuildID, q.MediaType)
	if err != nil {
		return nil, err
	}

	queryTags := make(map[string]struct{}, len(q.Tags))
	for _, tag := range q.Tags {
		queryTags[tag] = struct{}{}
	}

	results := make([]scored, 0, len(candidates))
	for _, rec := range candidates {
		score := overlap(queryTags, rec.Tags)
		if score == 0 {
			continue
		}
		results = append(results, scored{rec: rec, score: score})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].score != results[j].score {
			return results[i].score > results[j].score
		}
		if results[i].rec.RecallCount != results[j].rec.RecallCount {
			return results[i].rec.RecallCount > results[j].rec.RecallCount
		}
		return results[i].rec.CreatedAt.After(results[j].rec.CreatedAt)
	})

	ranked := make([]domain.MediaRecord, len(results))
	for i, r := range results {
		ranked[i] = r.rec
	}

	e.logger.Debug("ranked search",
		"guild_id", q.GuildID,
		"query_tags", len(q.Tags),
		"candidates", len(candidates),
		"results", len(ranked),
	)

	return ranked, nil
}

// TopByPopularity returns the guild's candidates ordered by recall count
// descending, then creation time descending. No tag filtering.
func (e *Engine) TopByPopularity(ctx context.Context, guildID string, mediaType domain.MediaType) ([]domain.MediaRecord, error) {
	candidates, err := e.source.FindCandidates(ctx, guildID, mediaType)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].RecallCount != candidates[j].RecallCount {
			return candidates[i].RecallCount > candidates[j].RecallCount
		}
		return candidates[i].CreatedAt.After(candidates[j].CreatedAt)
	})

	return candidates, nil
}

// overlap counts how many query tags the candidate carries. Set
// semantics: duplicate candidate tags cannot inflate the score.
func overlap(queryTags map[string]struct{}, candidateTags []string) int {
	seen := make(map[string]struct{}, len(candidateTags))
	score := 0
	for _, tag := range candidateTags {
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		if _, ok := queryTags[tag]; ok {
			score++
		}
	}
	return score
}
