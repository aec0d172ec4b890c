// Package index orchestrates the walk → hash → chunk → embed → store
// pipeline and reconciles deletions against the vector store.
package index

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"os"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"maharajah/internal/chunker"
	"maharajah/internal/embed"
	"maharajah/internal/store"
	"maharajah/internal/walker"
)

// Embedder is the slice of the embedding capability the indexer needs.
// Both *embed.Actor and direct embedder implementations satisfy it.
type Embedder interface {
	Embed(ctx context.Context, texts []string, role embed.Role) ([][]float32, error)
}

// Config holds the indexer wiring.
type Config struct {
	Root       string
	Store      *store.Store
	Chunker    *chunker.ASTChunker
	Registry   *chunker.Registry
	Embedder   Embedder
	Extensions []string
	Excludes   []string
	Workers    int
	// Progress, when set, is called after each processed file.
	Progress func(done, total int)
}

// Flags are the per-invocation index options.
type Flags struct {
	Reindex bool
	Include []string
	Exclude []string
}

// Indexer writes and deletes chunk rows; it is the only writer the store
// ever sees apart from the clear operation.
type Indexer struct {
	cfg Config
}

// New creates an Indexer.
func New(cfg Config) *Indexer {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	return &Indexer{cfg: cfg}
}

// SetProgress installs the per-file progress callback. Call before Index.
func (idx *Indexer) SetProgress(fn func(done, total int)) {
	idx.cfg.Progress = fn
}

// Index runs one full cycle: walk the project, re-chunk and re-embed
// changed files, and purge rows for files that disappeared. Per-file
// failures are collected in the report instead of aborting.
func (idx *Indexer) Index(ctx context.Context, flags Flags) (*Report, error) {
	start := time.Now()
	report := &Report{}

	if flags.Reindex {
		if err := idx.cfg.Store.Clear(ctx); err != nil {
			return report, err
		}
	}

	prior, err := idx.cfg.Store.ListFileHashes(ctx)
	if err != nil {
		return report, err
	}

	excludes := append(append([]string{}, idx.cfg.Excludes...), flags.Exclude...)

	walkStart := time.Now()
	files, walkErrs := walker.Walk(ctx, walker.Options{
		Root:       idx.cfg.Root,
		Extensions: walker.ExtensionSet(idx.cfg.Extensions),
		Include:    flags.Include,
		Exclude:    excludes,
	})

	var (
		mu       sync.Mutex // guards seen and report counters
		seen     = make(map[string]string)
		done     atomic.Int64
		total    atomic.Int64
		chunkNs  atomic.Int64
		embedNs  atomic.Int64
		storeNs  atomic.Int64
	)

	g, gctx := errgroup.WithContext(ctx)
	for range idx.cfg.Workers {
		g.Go(func() error {
			for fi := range files {
				if err := gctx.Err(); err != nil {
					return err
				}
				total.Add(1)

				ferr := idx.processFile(gctx, fi, prior, &seenMap{mu: &mu, m: seen}, report, &mu,
					&chunkNs, &embedNs, &storeNs)
				if ferr != nil {
					if errors.Is(ferr, context.Canceled) || errors.Is(ferr, context.DeadlineExceeded) {
						return ferr
					}
					slog.Warn("indexing failed", "path", fi.RelPath, "error", ferr)
					mu.Lock()
					report.Errors = append(report.Errors, FileError{Path: fi.RelPath, Err: ferr})
					mu.Unlock()
				}

				if idx.cfg.Progress != nil {
					idx.cfg.Progress(int(done.Add(1)), int(total.Load()))
				}
			}
			return nil
		})
	}

	pipelineErr := g.Wait()
	for range files {
		// Drain anything the walker had in flight when a worker bailed.
	}
	report.WalkTime = time.Since(walkStart)
	if werr := <-walkErrs; werr != nil && pipelineErr == nil {
		pipelineErr = werr
	}
	if pipelineErr != nil {
		report.Elapsed = time.Since(start)
		return report, pipelineErr
	}

	// Reconcile deletions: anything indexed before but not walked now.
	for path := range prior {
		if _, ok := seen[path]; ok {
			continue
		}
		if err := idx.cfg.Store.DeleteFile(ctx, path); err != nil {
			report.Elapsed = time.Since(start)
			return report, err
		}
		report.FilesDeleted++
	}

	report.FilesScanned = int(total.Load())
	report.ChunkTime = time.Duration(chunkNs.Load())
	report.EmbedTime = time.Duration(embedNs.Load())
	report.StoreTime = time.Duration(storeNs.Load())
	report.Elapsed = time.Since(start)
	return report, nil
}

// seenMap is the walked-path snapshot shared across workers.
type seenMap struct {
	mu *sync.Mutex
	m  map[string]string
}

func (s *seenMap) put(path, hash string) {
	s.mu.Lock()
	s.m[path] = hash
	s.mu.Unlock()
}

// processFile runs one file through hash → chunk → embed → store.
func (idx *Indexer) processFile(
	ctx context.Context,
	fi walker.FileInfo,
	prior map[string]string,
	seen *seenMap,
	report *Report,
	mu *sync.Mutex,
	chunkNs, embedNs, storeNs *atomic.Int64,
) error {
	src, err := os.ReadFile(fi.Path)
	if err != nil {
		// The file exists but cannot be read; keep whatever rows it
		// already has instead of treating it as deleted.
		if hash, ok := prior[fi.RelPath]; ok {
			seen.put(fi.RelPath, hash)
		}
		return err
	}

	hash := hashBytes(src)
	seen.put(fi.RelPath, hash)

	if prior[fi.RelPath] == hash {
		mu.Lock()
		report.FilesSkipped++
		mu.Unlock()
		return nil
	}

	_, hadRows := prior[fi.RelPath]

	if isBinary(src) {
		// Binary content produces no chunks; purge anything left from a
		// previous text incarnation.
		if hadRows {
			if err := idx.replace(ctx, fi.RelPath, nil, storeNs); err != nil {
				return err
			}
		}
		mu.Lock()
		report.FilesSkipped++
		mu.Unlock()
		return nil
	}

	chunkStart := time.Now()
	chunks, err := idx.cfg.Chunker.Chunk(ctx, fi.RelPath, src)
	chunkNs.Add(int64(time.Since(chunkStart)))
	if err != nil {
		// Parse failures leave existing rows untouched.
		return err
	}

	if len(chunks) == 0 {
		if hadRows {
			if err := idx.replace(ctx, fi.RelPath, nil, storeNs); err != nil {
				return err
			}
			mu.Lock()
			report.FilesChanged++
			mu.Unlock()
		} else {
			mu.Lock()
			report.FilesSkipped++
			mu.Unlock()
		}
		return nil
	}

	rows, embedDur, err := idx.embedChunks(ctx, fi, hash, chunks)
	embedNs.Add(int64(embedDur))
	if err != nil {
		return err
	}

	if err := idx.replace(ctx, fi.RelPath, rows, storeNs); err != nil {
		return err
	}

	mu.Lock()
	report.FilesChanged++
	report.ChunksWritten += len(rows)
	mu.Unlock()
	return nil
}

// embedChunks turns chunks into store rows. Content texts are embedded in
// one request; only non-empty summaries get their own embedding, the rest
// reuse the content vector. When a whole-file batch fails, chunks are
// retried one at a time so a single oversized chunk only loses itself.
func (idx *Indexer) embedChunks(
	ctx context.Context,
	fi walker.FileInfo,
	hash string,
	chunks []chunker.RawChunk,
) ([]store.Row, time.Duration, error) {
	lang := idx.cfg.Registry.LanguageName(fi.RelPath)

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}

	start := time.Now()
	vectors, err := idx.cfg.Embedder.Embed(ctx, texts, embed.RoleDocument)
	if err != nil {
		if ctx.Err() != nil {
			return nil, time.Since(start), ctx.Err()
		}
		vectors, chunks = idx.embedOneByOne(ctx, fi.RelPath, chunks)
		if len(chunks) == 0 {
			return nil, time.Since(start), err
		}
	}

	var summaryTexts []string
	var summaryAt []int
	for i, c := range chunks {
		if c.Summary != "" {
			summaryTexts = append(summaryTexts, c.Summary)
			summaryAt = append(summaryAt, i)
		}
	}

	summaryVectors := make([][]float32, len(chunks))
	for i := range summaryVectors {
		summaryVectors[i] = vectors[i]
	}
	if len(summaryTexts) > 0 {
		sv, err := idx.cfg.Embedder.Embed(ctx, summaryTexts, embed.RoleDocument)
		if err != nil {
			return nil, time.Since(start), err
		}
		for i, at := range summaryAt {
			summaryVectors[at] = sv[i]
		}
	}
	embedDur := time.Since(start)

	rows := make([]store.Row, len(chunks))
	for i, c := range chunks {
		rows[i] = store.Row{
			FilePath:      fi.RelPath,
			ChunkID:       i + 1,
			ContentHash:   hash,
			Language:      lang,
			Symbol:        c.Symbol,
			StartLine:     c.StartLine,
			EndLine:       c.EndLine,
			Content:       c.Content,
			Summary:       c.Summary,
			MtimeUnix:     fi.Mtime,
			ContentVector: vectors[i],
			SummaryVector: summaryVectors[i],
		}
	}
	return rows, embedDur, nil
}

// embedOneByOne retries chunks individually after a batch failure,
// dropping the ones that still fail.
func (idx *Indexer) embedOneByOne(
	ctx context.Context,
	path string,
	chunks []chunker.RawChunk,
) ([][]float32, []chunker.RawChunk) {
	var vectors [][]float32
	var kept []chunker.RawChunk
	for _, c := range chunks {
		v, err := idx.cfg.Embedder.Embed(ctx, []string{c.Content}, embed.RoleDocument)
		if err != nil {
			slog.Warn("embedding failed, chunk skipped",
				"path", path, "symbol", c.Symbol, "start_line", c.StartLine, "error", err)
			continue
		}
		vectors = append(vectors, v[0])
		kept = append(kept, c)
	}
	return vectors, kept
}

// replace writes rows for a file. Once a write is started it is allowed to
// complete even if the surrounding cycle is cancelled, so no partial row
// sets are left behind.
func (idx *Indexer) replace(ctx context.Context, path string, rows []store.Row, storeNs *atomic.Int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	start := time.Now()
	err := idx.cfg.Store.ReplaceFile(context.WithoutCancel(ctx), path, rows)
	storeNs.Add(int64(time.Since(start)))
	return err
}

// hashBytes is the content fingerprint: SHA-256 of the raw bytes, hex.
func hashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// isBinary reports content that cannot be chunked: a NUL in the first
// 512 bytes or invalid UTF-8.
func isBinary(src []byte) bool {
	probe := src
	if len(probe) > 512 {
		probe = probe[:512]
	}
	if bytes.IndexByte(probe, 0) >= 0 {
		return true
	}
	return !utf8.Valid(src)
}
