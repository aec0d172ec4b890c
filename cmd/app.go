package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"maharajah/internal/chunker"
	"maharajah/internal/chunker/languages"
	"maharajah/internal/config"
	"maharajah/internal/embed"
	"maharajah/internal/index"
	"maharajah/internal/search"
	"maharajah/internal/store"
)

// app is the assembled engine shared by the commands. The embedder actor
// and the store handle live for the whole invocation.
type app struct {
	cfg       *config.Config
	targetDir string
	store     *store.Store
	registry  *chunker.Registry
	indexer   *index.Indexer
	retriever *search.Retriever
	actor     *embed.Actor
}

// loadConfig resolves the target directory and layered configuration
// without touching the store. Used by the config command.
func loadConfig() (*config.Config, string, error) {
	targetDir := flagDir
	if targetDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, "", err
		}
		targetDir = wd
	}
	targetDir, err := filepath.Abs(targetDir)
	if err != nil {
		return nil, "", err
	}

	globalPath := flagConfig
	if globalPath == "" {
		globalPath = config.GlobalPath()
	}
	if err := config.EnsureGlobal(globalPath); err != nil {
		return nil, "", err
	}

	projectPath := filepath.Join(targetDir, "maharajah.toml")
	if _, err := os.Stat(projectPath); err != nil {
		projectPath = ""
	}

	cfg, err := config.Load(globalPath, projectPath)
	if err != nil {
		return nil, "", err
	}
	return cfg, targetDir, nil
}

// newApp opens the store and wires the engine. reset drops any existing
// tables first (the --reindex and db clear paths); it is also the escape
// hatch from a model mismatch.
func newApp(ctx context.Context, reset bool, workers int) (*app, error) {
	cfg, targetDir, err := loadConfig()
	if err != nil {
		return nil, err
	}

	dbPath := config.DBPath(targetDir)
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}

	s, err := store.Open(dbPath, store.Schema{
		TableName:    cfg.DB.TableName,
		Dim:          cfg.DB.EmbeddingDim,
		ModelID:      cfg.Embed.ModelID,
		ManifestPath: config.ManifestPath(targetDir),
	}, reset)
	if err != nil {
		return nil, err
	}

	registry := chunker.NewRegistry()
	languages.RegisterAll(registry)

	embedder := embed.NewOllamaEmbedder(cfg.Embed.BaseURL, cfg.Embed.ModelID, cfg.DB.EmbeddingDim)
	actor := embed.StartActor(ctx, embedder, cfg.Index.EmbedBatch)

	a := &app{
		cfg:       cfg,
		targetDir: targetDir,
		store:     s,
		registry:  registry,
		actor:     actor,
	}
	a.indexer = index.New(index.Config{
		Root:       targetDir,
		Store:      s,
		Chunker:    chunker.NewASTChunker(registry, cfg.Index.MaxChunkLines),
		Registry:   registry,
		Embedder:   actor,
		Extensions: cfg.Index.DefaultExtensions,
		Excludes:   cfg.Index.DefaultExcludes,
		Workers:    workers,
	})
	a.retriever = search.NewRetriever(s, actor)
	return a, nil
}

func (a *app) Close() error {
	return a.store.Close()
}

// refresh runs an incremental index cycle before retrieval and returns how
// many files were updated. A no-op when nothing changed.
func (a *app) refresh(ctx context.Context) (int, error) {
	report, err := a.indexer.Index(ctx, index.Flags{})
	if err != nil {
		return 0, err
	}
	return report.FilesChanged + report.FilesDeleted, nil
}
