// Package config loads the layered maharajah configuration:
// built-in defaults, the global TOML file, an optional per-project TOML
// file, and MAHARAJAH_ environment variables, in increasing precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config is the effective application configuration.
type Config struct {
	Embed EmbedConfig `koanf:"embed" json:"embed"`
	DB    DBConfig    `koanf:"db" json:"db"`
	Index IndexConfig `koanf:"index" json:"index"`
}

// EmbedConfig selects and locates the embedding model.
type EmbedConfig struct {
	// ModelID identifies the embedding model. Vectors from different
	// models are not comparable, so the store records this value.
	ModelID string `koanf:"model_id" json:"model_id"`
	// BaseURL is the local model server endpoint.
	BaseURL string `koanf:"base_url" json:"base_url"`
}

// DBConfig locates the chunk table inside the vector store.
type DBConfig struct {
	TableName    string `koanf:"table_name" json:"table_name"`
	EmbeddingDim int    `koanf:"embedding_dim" json:"embedding_dim"`
}

// IndexConfig controls chunking and file selection.
type IndexConfig struct {
	MaxChunkLines     int      `koanf:"max_chunk_lines" json:"max_chunk_lines"`
	DefaultExtensions []string `koanf:"default_extensions" json:"default_extensions"`
	DefaultExcludes   []string `koanf:"default_excludes" json:"default_excludes"`
	EmbedBatch        int      `koanf:"embed_batch" json:"embed_batch"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Embed: EmbedConfig{
			ModelID: "nomic-ai/CodeRankEmbed",
			BaseURL: "http://localhost:11434",
		},
		DB: DBConfig{
			TableName:    "chunks",
			EmbeddingDim: 768,
		},
		Index: IndexConfig{
			MaxChunkLines: 150,
			DefaultExtensions: []string{
				"rs", "py", "js", "cjs", "mjs", "jsx", "ts", "tsx",
				"go", "java", "cs", "fs", "fsx", "scala", "sc", "hs", "rb",
			},
			DefaultExcludes: []string{
				"**/target/**",
				"**/node_modules/**",
				"**/__pycache__/**",
				".venv/**",
				"venv/**",
				"env/**",
				"vendor/**",
				"dist-newstyle/**",
				".stack-work/**",
				".bundle/**",
				".gradle/**",
				"**/build/**",
				".sbt/**",
				"**/bin/Debug/**",
				"**/bin/Release/**",
				"**/obj/**",
			},
			EmbedBatch: 32,
		},
	}
}

// GlobalPath returns the default global config path: ~/.maharajah/maharajah.toml.
func GlobalPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".maharajah", "maharajah.toml")
}

// DBPath returns the vector store location for a project directory.
func DBPath(targetDir string) string {
	return filepath.Join(targetDir, ".maharajah", "index.db")
}

// ManifestPath returns the JSON manifest location for a project directory.
func ManifestPath(targetDir string) string {
	return filepath.Join(targetDir, ".maharajah", "manifest.json")
}

const defaultGlobalConfig = `# maharajah global configuration
# This file was created automatically. Edit as needed.
# Project-level overrides go in maharajah.toml in the project directory.

[embed]
model_id = "nomic-ai/CodeRankEmbed"
base_url = "http://localhost:11434"

[db]
table_name = "chunks"
embedding_dim = 768

[index]
max_chunk_lines = 150
embed_batch = 32
default_extensions = ["rs", "py", "js", "cjs", "mjs", "jsx", "ts", "tsx", "go", "java", "cs", "fs", "fsx", "scala", "sc", "hs", "rb"]
default_excludes = [
    "**/target/**",
    "**/node_modules/**",
    "**/__pycache__/**",
    ".venv/**",
    "venv/**",
    "env/**",
    "vendor/**",
    "dist-newstyle/**",
    ".stack-work/**",
    ".bundle/**",
    ".gradle/**",
    "**/build/**",
    ".sbt/**",
    "**/bin/Debug/**",
    "**/bin/Release/**",
    "**/obj/**",
]
`

// EnsureGlobal creates the global config file with defaults on first run.
// It does nothing if the file already exists.
func EnsureGlobal(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(defaultGlobalConfig), 0o644); err != nil {
		return fmt.Errorf("write default config: %w", err)
	}
	return nil
}

// Load resolves the configuration. globalPath is always consulted (missing
// file is fine), projectPath is merged only when non-empty, and MAHARAJAH_
// environment variables win over both. Nested keys in env use "__",
// e.g. MAHARAJAH_EMBED__MODEL_ID.
func Load(globalPath, projectPath string) (*Config, error) {
	k := koanf.New(".")
	cfg := Default()

	for _, path := range []string{globalPath, projectPath} {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("access config %s: %w", path, err)
		}
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("MAHARAJAH_", ".", func(s string) string {
		s = strings.TrimPrefix(s, "MAHARAJAH_")
		return strings.ReplaceAll(strings.ToLower(s), "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("load env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks for values the rest of the engine cannot work with.
func (c *Config) Validate() error {
	if c.Embed.ModelID == "" {
		return fmt.Errorf("embed.model_id is required")
	}
	if c.DB.TableName == "" {
		return fmt.Errorf("db.table_name is required")
	}
	if c.DB.EmbeddingDim <= 0 {
		return fmt.Errorf("db.embedding_dim must be positive, got %d", c.DB.EmbeddingDim)
	}
	if c.Index.MaxChunkLines <= 0 {
		return fmt.Errorf("index.max_chunk_lines must be positive, got %d", c.Index.MaxChunkLines)
	}
	if c.Index.EmbedBatch <= 0 {
		return fmt.Errorf("index.embed_batch must be positive, got %d", c.Index.EmbedBatch)
	}
	return nil
}
