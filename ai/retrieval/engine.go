// Package retrieval turns one visitor question into a ranked, deduplicated
// set of reference chunks for an exhibit key.
package retrieval

import (
	"context"
	"log/slog"
	"math"

	"github.com/hrygo/docent/store"
)

// Embedder is the slice of the embedding service the engine needs.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// ChunkSearcher is the slice of the store the engine needs.
type ChunkSearcher interface {
	SearchChunkCandidates(ctx context.Context, opts *store.ChunkSearchOptions) ([]*store.ChunkCandidate, error)
}

// Result is a read-only projection of a retrieved chunk plus the expanded
// query that produced it.
type Result struct {
	Content string `json:"content"`
	Museum  string `json:"museum"`
	Class   string `json:"class"`
	Source  string `json:"source"`
	Query   string `json:"-"`
}

// Options tunes the engine.
type Options struct {
	// TopK is the number of results returned per question.
	TopK int
	// FetchFactor oversamples candidates per expanded query before the
	// diversity selection (candidates fetched = FetchFactor * TopK).
	FetchFactor int
	// Lambda is the relevance weight in the diversity trade-off; the
	// redundancy penalty gets weight 1 - Lambda.
	Lambda float32
	// FingerprintLength is the dedup prefix length in runes. Prefix
	// matching is a cheap approximation: two distinct chunks sharing a
	// prefix of this length are treated as duplicates.
	FingerprintLength int
	Logger            *slog.Logger
}

func (o *Options) applyDefaults() {
	if o.TopK <= 0 {
		o.TopK = 3
	}
	if o.FetchFactor < 1 {
		o.FetchFactor = 3
	}
	if o.Lambda <= 0 || o.Lambda > 1 {
		o.Lambda = 0.6
	}
	if o.FingerprintLength <= 0 {
		o.FingerprintLength = 100
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

// Engine runs query expansion, per-expansion diversity search, and
// cross-query deduplication. Every failure inside the engine degrades to an
// empty result list; a degraded answer without citations is preferable to a
// failed request.
type Engine struct {
	searcher ChunkSearcher
	embedder Embedder
	opts     Options
}

// NewEngine creates a retrieval engine.
func NewEngine(searcher ChunkSearcher, embedder Embedder, opts Options) *Engine {
	opts.applyDefaults()
	return &Engine{
		searcher: searcher,
		embedder: embedder,
		opts:     opts,
	}
}

// Retrieve returns at most TopK deduplicated chunks for the question,
// preserving first-accepted order. It never returns an error: lookup
// failures are logged and contribute nothing to the result.
func (e *Engine) Retrieve(ctx context.Context, key store.ExhibitKey, question string) []*Result {
	if err := key.Validate(); err != nil {
		e.opts.Logger.Warn("retrieval skipped: invalid exhibit key", "error", err)
		return []*Result{}
	}

	expansions := ExpandQuery(question)
	fetchLimit := e.opts.TopK * e.opts.FetchFactor

	accepted := make([]*Result, 0, e.opts.TopK)
	seen := make(map[string]struct{})

	for _, expanded := range expansions {
		if len(accepted) >= e.opts.TopK {
			break
		}

		vector, err := e.embedder.Embed(ctx, expanded)
		if err != nil {
			e.opts.Logger.Warn("retrieval: embedding failed",
				"key", key.String(), "query", expanded, "error", err)
			continue
		}

		candidates, err := e.searcher.SearchChunkCandidates(ctx, &store.ChunkSearchOptions{
			Key:    key,
			Vector: vector,
			Limit:  fetchLimit,
		})
		if err != nil {
			e.opts.Logger.Warn("retrieval: chunk search failed",
				"key", key.String(), "query", expanded, "error", err)
			continue
		}
		if len(candidates) == 0 {
			continue
		}

		for _, candidate := range selectDiverse(candidates, e.opts.TopK, e.opts.Lambda) {
			fp := fingerprint(candidate.Chunk.Content, e.opts.FingerprintLength)
			if _, dup := seen[fp]; dup {
				continue
			}
			seen[fp] = struct{}{}
			accepted = append(accepted, &Result{
				Content: candidate.Chunk.Content,
				Museum:  candidate.Chunk.Location,
				Class:   candidate.Chunk.ClassName,
				Source:  candidate.Chunk.Source,
				Query:   expanded,
			})
		}
	}

	if len(accepted) > e.opts.TopK {
		accepted = accepted[:e.opts.TopK]
	}

	e.opts.Logger.Debug("retrieval complete",
		"key", key.String(),
		"expansions", len(expansions),
		"results", len(accepted),
	)
	return accepted
}

// fingerprint returns the dedup key for a chunk: its first n runes.
func fingerprint(content string, n int) string {
	runes := []rune(content)
	if len(runes) <= n {
		return content
	}
	return string(runes[:n])
}

// selectDiverse greedily picks up to k candidates trading relevance to the
// query against redundancy with already-selected chunks (maximal marginal
// relevance). Candidates arrive sorted by relevance; the first pick is
// always the most relevant one.
func selectDiverse(candidates []*store.ChunkCandidate, k int, lambda float32) []*store.ChunkCandidate {
	if len(candidates) <= 1 || k <= 0 {
		if k > 0 && len(candidates) > k {
			return candidates[:k]
		}
		return candidates
	}

	selected := make([]*store.ChunkCandidate, 0, k)
	remaining := make([]*store.ChunkCandidate, len(candidates))
	copy(remaining, candidates)

	for len(selected) < k && len(remaining) > 0 {
		bestIdx := -1
		bestScore := float32(math.Inf(-1))
		for i, candidate := range remaining {
			redundancy := float32(0)
			for _, chosen := range selected {
				if sim := cosineSimilarity(candidate.Embedding, chosen.Embedding); sim > redundancy {
					redundancy = sim
				}
			}
			score := lambda*candidate.Score - (1-lambda)*redundancy
			if score > bestScore {
				bestScore = score
				bestIdx = i
			}
		}
		selected = append(selected, remaining[bestIdx])
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}
	return selected
}

// cosineSimilarity computes the cosine similarity between two vectors.
func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
