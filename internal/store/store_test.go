package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"maharajah/internal/apperr"
)

func testSchema(dim int) Schema {
	return Schema{TableName: "chunks", Dim: dim, ModelID: "test-model"}
}

func openTest(t *testing.T, dim int) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "index.db")
	s, err := Open(path, testSchema(dim), false)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func vec(dim int, fill float32) []float32 {
	v := make([]float32, dim)
	for i := range v {
		v[i] = fill
	}
	return v
}

func row(path string, chunkID int, hash string, content []float32) Row {
	return Row{
		FilePath:      path,
		ChunkID:       chunkID,
		ContentHash:   hash,
		Language:      "go",
		StartLine:     1,
		EndLine:       2,
		Content:       "func x() {}",
		ContentVector: content,
		SummaryVector: content,
	}
}

func TestReplaceAndListFileHashes(t *testing.T) {
	s := openTest(t, 4)
	ctx := context.Background()

	require.NoError(t, s.ReplaceFile(ctx, "a.go", []Row{
		row("a.go", 1, "h1", vec(4, 0.1)),
		row("a.go", 2, "h1", vec(4, 0.2)),
	}))
	require.NoError(t, s.ReplaceFile(ctx, "b.go", []Row{
		row("b.go", 1, "h2", vec(4, 0.3)),
	}))

	hashes, err := s.ListFileHashes(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a.go": "h1", "b.go": "h2"}, hashes)

	st, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, st.FileCount)
	assert.Equal(t, 3, st.ChunkCount)
	assert.Equal(t, 4, st.Dimension)
}

func TestReplaceFileIsAtomicPerPath(t *testing.T) {
	s := openTest(t, 4)
	ctx := context.Background()

	require.NoError(t, s.ReplaceFile(ctx, "a.go", []Row{
		row("a.go", 1, "h1", vec(4, 0.1)),
		row("a.go", 2, "h1", vec(4, 0.2)),
	}))
	// Re-index with fewer chunks: the stale second row must be gone.
	require.NoError(t, s.ReplaceFile(ctx, "a.go", []Row{
		row("a.go", 1, "h2", vec(4, 0.5)),
	}))

	st, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, st.ChunkCount)

	hashes, err := s.ListFileHashes(ctx)
	require.NoError(t, err)
	assert.Equal(t, "h2", hashes["a.go"])
}

func TestDeleteFile(t *testing.T) {
	s := openTest(t, 4)
	ctx := context.Background()

	require.NoError(t, s.ReplaceFile(ctx, "a.go", []Row{row("a.go", 1, "h1", vec(4, 0.1))}))
	require.NoError(t, s.DeleteFile(ctx, "a.go"))

	st, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, st.ChunkCount)

	// Vector rows must be purged with the chunk rows.
	hits, err := s.KNN(ctx, ColumnContent, vec(4, 0.1), 5)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestKNNOrderAndTieBreak(t *testing.T) {
	s := openTest(t, 4)
	ctx := context.Background()

	near := vec(4, 0.9)
	far := vec(4, 0.1)
	require.NoError(t, s.ReplaceFile(ctx, "b.go", []Row{row("b.go", 1, "h", near)}))
	require.NoError(t, s.ReplaceFile(ctx, "a.go", []Row{
		row("a.go", 1, "h", far),
		row("a.go", 2, "h", near),
	}))

	hits, err := s.KNN(ctx, ColumnContent, vec(4, 1.0), 3)
	require.NoError(t, err)
	require.Len(t, hits, 3)

	// Equal distances fall back to (file_path, chunk_id) order.
	assert.Equal(t, "a.go", hits[0].FilePath)
	assert.Equal(t, 2, hits[0].ChunkID)
	assert.Equal(t, "b.go", hits[1].FilePath)
	assert.Equal(t, "a.go", hits[2].FilePath)
	assert.Equal(t, 1, hits[2].ChunkID)

	assert.LessOrEqual(t, hits[0].Distance, hits[2].Distance)
}

func TestKNNSummaryColumn(t *testing.T) {
	s := openTest(t, 4)
	ctx := context.Background()

	r := row("a.go", 1, "h", vec(4, 0.1))
	r.Summary = "a min-heap priority queue"
	r.SummaryVector = vec(4, 0.9)
	require.NoError(t, s.ReplaceFile(ctx, "a.go", []Row{r}))

	content, err := s.KNN(ctx, ColumnContent, vec(4, 0.9), 1)
	require.NoError(t, err)
	summary, err := s.KNN(ctx, ColumnSummary, vec(4, 0.9), 1)
	require.NoError(t, err)

	require.Len(t, content, 1)
	require.Len(t, summary, 1)
	assert.Greater(t, content[0].Distance, summary[0].Distance)
	require.NotNil(t, summary[0].Summary)
	assert.Equal(t, "a min-heap priority queue", *summary[0].Summary)
}

func TestNullSummaryRoundTrip(t *testing.T) {
	s := openTest(t, 4)
	ctx := context.Background()

	require.NoError(t, s.ReplaceFile(ctx, "a.go", []Row{row("a.go", 1, "h", vec(4, 0.5))}))
	hits, err := s.KNN(ctx, ColumnContent, vec(4, 0.5), 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Nil(t, hits[0].Summary)
}

func TestModelMismatchOnOpen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index.db")

	s, err := Open(path, testSchema(4), false)
	require.NoError(t, err)
	require.NoError(t, s.ReplaceFile(context.Background(), "a.go", []Row{row("a.go", 1, "h", vec(4, 0.1))}))
	require.NoError(t, s.Close())

	// Reopen with a different dimension: hard error, contents untouched.
	_, err = Open(path, testSchema(8), false)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrModelMismatch)
	assert.Equal(t, apperr.ExitMismatch, apperr.ExitCode(err))

	reopened, err := Open(path, testSchema(4), false)
	require.NoError(t, err)
	defer reopened.Close()
	st, err := reopened.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, st.ChunkCount)
}

func TestResetDropsOldIdentity(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index.db")

	s, err := Open(path, testSchema(4), false)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	// Reset lets a new identity replace the old one.
	s, err = Open(path, testSchema(8), true)
	require.NoError(t, err)
	defer s.Close()

	st, err := s.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, st.ChunkCount)
	assert.Equal(t, 8, st.Dimension)
}

func TestClear(t *testing.T) {
	s := openTest(t, 4)
	ctx := context.Background()

	require.NoError(t, s.ReplaceFile(ctx, "a.go", []Row{row("a.go", 1, "h", vec(4, 0.1))}))
	require.NoError(t, s.Clear(ctx))

	st, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, st.FileCount)
	assert.Equal(t, 0, st.ChunkCount)
}

func TestRejectsWrongDimensionRow(t *testing.T) {
	s := openTest(t, 4)
	r := row("a.go", 1, "h", vec(3, 0.1))
	err := s.ReplaceFile(context.Background(), "a.go", []Row{r})
	require.Error(t, err)
	assert.Equal(t, apperr.ExitStore, apperr.ExitCode(err))
}
