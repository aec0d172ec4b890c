package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// schemaVersion bumps when the table layout changes incompatibly.
const schemaVersion = 1

// Schema describes the table the store manages. Vectors from different
// model identities are not comparable, so ModelID and Dim are recorded in
// the meta table and checked on every open.
type Schema struct {
	TableName    string
	Dim          int
	ModelID      string
	ManifestPath string // optional JSON mirror of the meta record
}

const (
	metaModelKey   = "embedding_model"
	metaDimKey     = "embedding_dim"
	metaVersionKey = "schema_version"
)

func ddl(s Schema) string {
	return fmt.Sprintf(`
PRAGMA journal_mode=WAL;

CREATE TABLE IF NOT EXISTS %[1]s (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    file_path    TEXT NOT NULL,
    chunk_id     INTEGER NOT NULL,
    content_hash TEXT NOT NULL,
    language     TEXT NOT NULL DEFAULT '',
    symbol       TEXT NOT NULL DEFAULT '',
    start_line   INTEGER NOT NULL,
    end_line     INTEGER NOT NULL,
    content      TEXT NOT NULL,
    summary      TEXT,
    mtime_unix   INTEGER NOT NULL DEFAULT 0,
    UNIQUE (file_path, chunk_id)
);

CREATE INDEX IF NOT EXISTS %[1]s_file_path ON %[1]s (file_path);

CREATE VIRTUAL TABLE IF NOT EXISTS %[1]s_vec_content USING vec0(
    chunk_id INTEGER PRIMARY KEY,
    embedding float[%[2]d]
);

CREATE VIRTUAL TABLE IF NOT EXISTS %[1]s_vec_summary USING vec0(
    chunk_id INTEGER PRIMARY KEY,
    embedding float[%[2]d]
);

CREATE TABLE IF NOT EXISTS meta (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`, s.TableName, s.Dim)
}

func dropDDL(s Schema) string {
	return fmt.Sprintf(`
DROP TABLE IF EXISTS %[1]s;
DROP TABLE IF EXISTS %[1]s_vec_content;
DROP TABLE IF EXISTS %[1]s_vec_summary;
DROP TABLE IF EXISTS meta;
`, s.TableName)
}

func initSchema(db *sql.DB, s Schema) error {
	_, err := db.Exec(ddl(s))
	return err
}

// manifest mirrors the meta record next to the database for inspection.
type manifest struct {
	ModelID       string `json:"model_id"`
	Dimension     int    `json:"dimension"`
	SchemaVersion int    `json:"schema_version"`
}

func writeManifest(s Schema) error {
	if s.ManifestPath == "" {
		return nil
	}
	data, err := json.MarshalIndent(manifest{
		ModelID:       s.ModelID,
		Dimension:     s.Dim,
		SchemaVersion: schemaVersion,
	}, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.ManifestPath), 0o755); err != nil {
		return err
	}
	return os.WriteFile(s.ManifestPath, append(data, '\n'), 0o644)
}
