package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"maharajah/internal/embed"
	"maharajah/internal/store"
)

// fakeStore serves canned results per column.
type fakeStore struct {
	content []store.SearchResult
	summary []store.SearchResult
	lastK   int
}

func (f *fakeStore) KNN(ctx context.Context, column store.Column, query []float32, k int) ([]store.SearchResult, error) {
	f.lastK = k
	hits := f.content
	if column == store.ColumnSummary {
		hits = f.summary
	}
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

type fakeEmbedder struct {
	lastRole embed.Role
	lastText string
}

func (f *fakeEmbedder) Embed(ctx context.Context, texts []string, role embed.Role) ([][]float32, error) {
	f.lastRole = role
	f.lastText = texts[0]
	return [][]float32{{0.1, 0.2}}, nil
}

func hit(path string, chunkID int, dist float64) store.SearchResult {
	return store.SearchResult{
		FilePath: path, ChunkID: chunkID,
		StartLine: 1, EndLine: 2,
		Content: "code", Distance: dist,
	}
}

func TestFindRanksAndUsesQueryRole(t *testing.T) {
	st := &fakeStore{content: []store.SearchResult{
		hit("a.go", 1, 0.1),
		hit("b.go", 1, 0.5),
	}}
	emb := &fakeEmbedder{}
	r := NewRetriever(st, emb)

	results, err := r.Find(context.Background(), "say hello", 5, nil)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, embed.RoleQuery, emb.lastRole)
	assert.Equal(t, 1, results[0].Rank)
	assert.Equal(t, "a.go", results[0].FilePath)
	assert.Equal(t, 0.1, results[0].Score)
	assert.Equal(t, 2, results[1].Rank)
}

func TestFindMinScoreFilter(t *testing.T) {
	st := &fakeStore{content: []store.SearchResult{
		hit("a.go", 1, 0.1),
		hit("b.go", 1, 0.5),
	}}
	r := NewRetriever(st, &fakeEmbedder{})

	min := 0.3
	results, err := r.Find(context.Background(), "q", 5, &min)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "b.go", results[0].FilePath)
	assert.Equal(t, 1, results[0].Rank)
}

func TestQueryFetchesWidenedK(t *testing.T) {
	st := &fakeStore{}
	r := NewRetriever(st, &fakeEmbedder{})

	_, err := r.Query(context.Background(), "q", 3, nil)
	require.NoError(t, err)
	assert.Equal(t, 20, st.lastK) // max(3*4, 20)

	_, err = r.Query(context.Background(), "q", 10, nil)
	require.NoError(t, err)
	assert.Equal(t, 40, st.lastK)
}

func TestQuerySummaryLiftsRow(t *testing.T) {
	// B leads on content; A trails on content but leads on its summary
	// vector and shows up in both lists, so fusion lifts it over B.
	st := &fakeStore{
		content: []store.SearchResult{
			hit("f.go", 2, 0.2), // B
			hit("f.go", 1, 0.9), // A
		},
		summary: []store.SearchResult{
			hit("f.go", 1, 0.1), // A
		},
	}
	r := NewRetriever(st, &fakeEmbedder{})

	results, err := r.Query(context.Background(), "binary heap", 2, nil)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, 1, results[0].chunkID) // A first
	assert.Equal(t, 2, results[1].chunkID)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestRRFScores(t *testing.T) {
	content := []store.SearchResult{hit("a.go", 1, 0.1), hit("b.go", 1, 0.2)}
	summary := []store.SearchResult{hit("b.go", 1, 0.1)}

	merged := rrfMerge(content, summary)
	require.Len(t, merged, 2)

	// b.go: rank 2 in content + rank 1 in summary.
	assert.Equal(t, "b.go", merged[0].FilePath)
	assert.InDelta(t, 1.0/62+1.0/61, merged[0].Score, 1e-12)
	// a.go: rank 1 in content only.
	assert.Equal(t, "a.go", merged[1].FilePath)
	assert.InDelta(t, 1.0/61, merged[1].Score, 1e-12)
}

func TestRRFMonotonicity(t *testing.T) {
	// Improving a row's rank in one list while the other is unchanged
	// must not decrease its fused score.
	summary := []store.SearchResult{hit("x.go", 1, 0.1)}

	before := rrfMerge([]store.SearchResult{
		hit("y.go", 1, 0.1),
		hit("x.go", 1, 0.2),
	}, summary)
	after := rrfMerge([]store.SearchResult{
		hit("x.go", 1, 0.1),
		hit("y.go", 1, 0.2),
	}, summary)

	scoreOf := func(results []Result, path string) float64 {
		for _, r := range results {
			if r.FilePath == path {
				return r.Score
			}
		}
		t.Fatalf("missing %s", path)
		return 0
	}

	assert.GreaterOrEqual(t, scoreOf(after, "x.go"), scoreOf(before, "x.go"))
}

func TestRRFTieBreakLexicographic(t *testing.T) {
	// Same single-list rank pattern gives equal scores; order must be
	// (file_path, chunk_id) ascending.
	content := []store.SearchResult{hit("b.go", 1, 0.1)}
	summary := []store.SearchResult{hit("a.go", 2, 0.1)}

	merged := rrfMerge(content, summary)
	require.Len(t, merged, 2)
	assert.Equal(t, merged[0].Score, merged[1].Score)
	assert.Equal(t, "a.go", merged[0].FilePath)
	assert.Equal(t, "b.go", merged[1].FilePath)
}
