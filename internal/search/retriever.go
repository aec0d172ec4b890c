// Package search embeds a query and retrieves ranked chunks from the
// vector store. It never writes.
package search

import (
	"context"

	"golang.org/x/sync/errgroup"

	"maharajah/internal/embed"
	"maharajah/internal/store"
)

// Result is one self-contained retrieval hit. For Find, Score is the L2
// distance (lower is better); for Query it is the RRF sum (higher is
// better).
type Result struct {
	Rank      int     `json:"rank"`
	FilePath  string  `json:"file_path"`
	StartLine int     `json:"start_line"`
	EndLine   int     `json:"end_line"`
	Symbol    string  `json:"symbol"`
	Score     float64 `json:"score"`
	Summary   *string `json:"summary"`
	Content   string  `json:"content"`

	chunkID int
}

// Searcher is the read-only slice of the store the retriever uses.
type Searcher interface {
	KNN(ctx context.Context, column store.Column, query []float32, k int) ([]store.SearchResult, error)
}

// Embedder embeds the query text.
type Embedder interface {
	Embed(ctx context.Context, texts []string, role embed.Role) ([][]float32, error)
}

// Retriever runs semantic searches against an indexed project.
type Retriever struct {
	store    Searcher
	embedder Embedder
}

// NewRetriever creates a retriever over the given store and embedder.
func NewRetriever(s Searcher, e Embedder) *Retriever {
	return &Retriever{store: s, embedder: e}
}

// Find returns the k chunks whose content vectors are nearest to the
// query. minScore, when non-nil, drops results with Score < minScore.
func (r *Retriever) Find(ctx context.Context, query string, k int, minScore *float64) ([]Result, error) {
	qv, err := r.embedQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	hits, err := r.store.KNN(ctx, store.ColumnContent, qv, k)
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(hits))
	for _, h := range hits {
		results = append(results, fromHit(h, h.Distance))
	}
	return finalize(results, minScore), nil
}

// Query performs dual-vector retrieval: top-K from the content column and
// top-K from the summary column, fused with Reciprocal Rank Fusion. K is
// max(k*4, 20) so the fused head is stable. Scores are RRF sums.
func (r *Retriever) Query(ctx context.Context, query string, k int, minScore *float64) ([]Result, error) {
	qv, err := r.embedQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	fetch := k * 4
	if fetch < 20 {
		fetch = 20
	}

	var contentHits, summaryHits []store.SearchResult
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		contentHits, err = r.store.KNN(gctx, store.ColumnContent, qv, fetch)
		return err
	})
	g.Go(func() error {
		var err error
		summaryHits, err = r.store.KNN(gctx, store.ColumnSummary, qv, fetch)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	fused := rrfMerge(contentHits, summaryHits)
	if len(fused) > k {
		fused = fused[:k]
	}
	return finalize(fused, minScore), nil
}

func (r *Retriever) embedQuery(ctx context.Context, query string) ([]float32, error) {
	vectors, err := r.embedder.Embed(ctx, []string{query}, embed.RoleQuery)
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func fromHit(h store.SearchResult, score float64) Result {
	return Result{
		FilePath:  h.FilePath,
		StartLine: h.StartLine,
		EndLine:   h.EndLine,
		Symbol:    h.Symbol,
		Score:     score,
		Summary:   h.Summary,
		Content:   h.Content,
		chunkID:   h.ChunkID,
	}
}

// finalize applies the min-score filter and assigns 1-based ranks.
func finalize(results []Result, minScore *float64) []Result {
	if minScore != nil {
		kept := results[:0]
		for _, r := range results {
			if r.Score >= *minScore {
				kept = append(kept, r)
			}
		}
		results = kept
	}
	for i := range results {
		results[i].Rank = i + 1
	}
	return results
}
