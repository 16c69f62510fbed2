// Package search answers free-text questions against the semantic note index:
// vector nearest neighbours first, then a rerank pass.
package search

import (
	"context"
	"fmt"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	"github.com/notedx/notedx/internal/cohere"
	"github.com/notedx/notedx/internal/db"
)

const (
	vectorSearchLimit = 20
	rerankTopN        = 10
)

type QueryEmbedder interface {
	EmbedQuery(ctx context.Context, query string) ([]float32, error)
}

type Reranker interface {
	Rerank(ctx context.Context, query string, documents []string, topN int) ([]cohere.Ranked, error)
}

type Searcher struct {
	db       *db.DB
	embedder QueryEmbedder
	reranker Reranker
}

type Result struct {
	Rank      int
	Score     float64
	Ref       string
	Content   string
	StartLine int
	EndLine   int
	NoteID    int64
	ChunkID   int64
}

// New builds a searcher. A nil reranker keeps the vector order, scoring by
// inverse distance.
func New(database *db.DB, embedder QueryEmbedder, reranker Reranker) *Searcher {
	return &Searcher{
		db:       database,
		embedder: embedder,
		reranker: reranker,
	}
}

func (s *Searcher) Search(ctx context.Context, query string) ([]Result, error) {
	queryEmb, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	embBytes, err := sqlite_vec.SerializeFloat32(queryEmb)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize query embedding: %w", err)
	}

	candidates, err := s.db.SearchSimilar(embBytes, vectorSearchLimit)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}

	if len(candidates) == 0 {
		return nil, nil
	}

	if s.reranker == nil {
		n := min(len(candidates), rerankTopN)
		results := make([]Result, n)
		for i := range n {
			c := candidates[i]
			results[i] = toResult(i+1, 1/(1+c.Distance), c)
		}
		return results, nil
	}

	docs := make([]string, len(candidates))
	for i, c := range candidates {
		docs[i] = c.Content
	}

	ranked, err := s.reranker.Rerank(ctx, query, docs, rerankTopN)
	if err != nil {
		return nil, fmt.Errorf("rerank failed: %w", err)
	}

	results := make([]Result, len(ranked))
	for i, rr := range ranked {
		results[i] = toResult(i+1, rr.Score, candidates[rr.Index])
	}
	return results, nil
}

func toResult(rank int, score float64, c db.ChunkWithScore) Result {
	return Result{
		Rank:      rank,
		Score:     score,
		Ref:       c.Ref,
		Content:   c.Content,
		StartLine: c.StartLine,
		EndLine:   c.EndLine,
		NoteID:    c.NoteID,
		ChunkID:   c.ID,
	}
}

// Preview returns content cut to maxLen bytes for one-line display.
func Preview(content string, maxLen int) string {
	if len(content) <= maxLen {
		return content
	}
	cut := maxLen - 3
	for cut > 0 && content[cut]&0xC0 == 0x80 {
		cut--
	}
	return content[:cut] + "..."
}
