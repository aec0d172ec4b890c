// Package store persists chunk rows and their vectors in SQLite with the
// sqlite-vec extension. The retriever only reads; all writes come from the
// indexer or the explicit clear operation.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"

	"maharajah/internal/apperr"
)

func init() {
	sqlite_vec.Auto()
}

// Store is a SQLite + sqlite-vec backed chunk table with two vector
// columns (content, summary).
type Store struct {
	db     *sql.DB
	schema Schema
}

// Open creates or opens the store at path. When reset is true any existing
// tables are dropped first (the `index --reindex` and `db clear` paths).
// Opening an existing store whose recorded model id or dimension disagrees
// with the schema fails with apperr.ErrModelMismatch.
func Open(path string, schema Schema, reset bool) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, &apperr.StoreError{Err: fmt.Errorf("open db: %w", err)}
	}
	// SQLite allows one writer at a time; a single pooled connection keeps
	// concurrent ReplaceFile callers from tripping over SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, schema: schema}

	if reset {
		if _, err := db.Exec(dropDDL(schema)); err != nil {
			db.Close()
			return nil, &apperr.StoreError{Err: fmt.Errorf("drop tables: %w", err)}
		}
	}

	fresh, err := s.isFresh()
	if err != nil {
		db.Close()
		return nil, &apperr.StoreError{Err: err}
	}

	if err := initSchema(db, schema); err != nil {
		db.Close()
		return nil, &apperr.StoreError{Err: fmt.Errorf("init schema: %w", err)}
	}

	if fresh {
		if err := s.stampIdentity(); err != nil {
			db.Close()
			return nil, &apperr.StoreError{Err: err}
		}
	} else if err := s.verifyIdentity(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// isFresh reports whether the meta table does not exist yet.
func (s *Store) isFresh() (bool, error) {
	var name string
	err := s.db.QueryRow(
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'meta'",
	).Scan(&name)
	if err == sql.ErrNoRows {
		return true, nil
	}
	return false, err
}

// stampIdentity records the embedding model identity and writes the
// manifest mirror.
func (s *Store) stampIdentity() error {
	for key, value := range map[string]string{
		metaModelKey:   s.schema.ModelID,
		metaDimKey:     strconv.Itoa(s.schema.Dim),
		metaVersionKey: strconv.Itoa(schemaVersion),
	} {
		if err := s.setMeta(key, value); err != nil {
			return err
		}
	}
	return writeManifest(s.schema)
}

// verifyIdentity checks the recorded model identity against the schema.
func (s *Store) verifyIdentity() error {
	model, err := s.getMeta(metaModelKey)
	if err != nil {
		return &apperr.StoreError{Err: err}
	}
	dim, err := s.getMeta(metaDimKey)
	if err != nil {
		return &apperr.StoreError{Err: err}
	}
	if model != s.schema.ModelID || dim != strconv.Itoa(s.schema.Dim) {
		return fmt.Errorf(
			"store was built with model %s (dim %s) but configuration wants %s (dim %d); run `index --reindex` or `db clear --yes`: %w",
			model, dim, s.schema.ModelID, s.schema.Dim, apperr.ErrModelMismatch,
		)
	}
	return nil
}

func (s *Store) getMeta(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM meta WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

func (s *Store) setMeta(key, value string) error {
	_, err := s.db.Exec(
		"INSERT INTO meta (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	return err
}

// ListFileHashes returns a snapshot of every indexed file's content hash.
func (s *Store) ListFileHashes(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(
		"SELECT DISTINCT file_path, content_hash FROM %s", s.schema.TableName,
	))
	if err != nil {
		return nil, &apperr.StoreError{Err: err}
	}
	defer rows.Close()

	hashes := make(map[string]string)
	for rows.Next() {
		var path, hash string
		if err := rows.Scan(&path, &hash); err != nil {
			return nil, &apperr.StoreError{Err: err}
		}
		hashes[path] = hash
	}
	if err := rows.Err(); err != nil {
		return nil, &apperr.StoreError{Err: err}
	}
	return hashes, nil
}

// ReplaceFile atomically replaces all rows for a file: existing rows are
// deleted and the new rows inserted in one transaction. Passing zero rows
// just purges the file.
func (s *Store) ReplaceFile(ctx context.Context, filePath string, rows []Row) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &apperr.StoreError{Err: err}
	}
	defer tx.Rollback()

	if err := s.deleteFileTx(tx, filePath); err != nil {
		return &apperr.StoreError{Err: err}
	}

	if len(rows) > 0 {
		stmt, err := tx.Prepare(fmt.Sprintf(
			`INSERT INTO %s (file_path, chunk_id, content_hash, language, symbol,
			                 start_line, end_line, content, summary, mtime_unix)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, s.schema.TableName,
		))
		if err != nil {
			return &apperr.StoreError{Err: err}
		}
		defer stmt.Close()

		vecContent, err := tx.Prepare(fmt.Sprintf(
			"INSERT INTO %s_vec_content (chunk_id, embedding) VALUES (?, ?)", s.schema.TableName,
		))
		if err != nil {
			return &apperr.StoreError{Err: err}
		}
		defer vecContent.Close()

		vecSummary, err := tx.Prepare(fmt.Sprintf(
			"INSERT INTO %s_vec_summary (chunk_id, embedding) VALUES (?, ?)", s.schema.TableName,
		))
		if err != nil {
			return &apperr.StoreError{Err: err}
		}
		defer vecSummary.Close()

		for _, r := range rows {
			if len(r.ContentVector) != s.schema.Dim || len(r.SummaryVector) != s.schema.Dim {
				return &apperr.StoreError{Err: fmt.Errorf(
					"chunk %s:%d vector dimension %d/%d, want %d",
					r.FilePath, r.ChunkID, len(r.ContentVector), len(r.SummaryVector), s.schema.Dim,
				)}
			}

			summary := sql.NullString{String: r.Summary, Valid: r.Summary != ""}
			res, err := stmt.Exec(
				r.FilePath, r.ChunkID, r.ContentHash, r.Language, r.Symbol,
				r.StartLine, r.EndLine, r.Content, summary, r.MtimeUnix,
			)
			if err != nil {
				return &apperr.StoreError{Err: fmt.Errorf("insert chunk %s:%d: %w", r.FilePath, r.ChunkID, err)}
			}
			id, err := res.LastInsertId()
			if err != nil {
				return &apperr.StoreError{Err: err}
			}

			contentBlob, err := sqlite_vec.SerializeFloat32(r.ContentVector)
			if err != nil {
				return &apperr.StoreError{Err: fmt.Errorf("serialize content vector %s:%d: %w", r.FilePath, r.ChunkID, err)}
			}
			if _, err := vecContent.Exec(id, contentBlob); err != nil {
				return &apperr.StoreError{Err: err}
			}

			summaryBlob, err := sqlite_vec.SerializeFloat32(r.SummaryVector)
			if err != nil {
				return &apperr.StoreError{Err: fmt.Errorf("serialize summary vector %s:%d: %w", r.FilePath, r.ChunkID, err)}
			}
			if _, err := vecSummary.Exec(id, summaryBlob); err != nil {
				return &apperr.StoreError{Err: err}
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return &apperr.StoreError{Err: err}
	}
	return nil
}

// DeleteFile removes every row belonging to a file.
func (s *Store) DeleteFile(ctx context.Context, filePath string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &apperr.StoreError{Err: err}
	}
	defer tx.Rollback()

	if err := s.deleteFileTx(tx, filePath); err != nil {
		return &apperr.StoreError{Err: err}
	}
	if err := tx.Commit(); err != nil {
		return &apperr.StoreError{Err: err}
	}
	return nil
}

// deleteFileTx removes the vector rows first because the vec tables have
// no foreign keys onto the chunk table.
func (s *Store) deleteFileTx(tx *sql.Tx, filePath string) error {
	table := s.schema.TableName
	for _, vec := range []string{"_vec_content", "_vec_summary"} {
		_, err := tx.Exec(fmt.Sprintf(
			"DELETE FROM %[1]s%[2]s WHERE chunk_id IN (SELECT id FROM %[1]s WHERE file_path = ?)",
			table, vec,
		), filePath)
		if err != nil {
			return err
		}
	}
	_, err := tx.Exec(fmt.Sprintf("DELETE FROM %s WHERE file_path = ?", table), filePath)
	return err
}

// KNN returns the k nearest rows to the query vector on the chosen column,
// ordered by L2 distance ascending with (file_path, chunk_id) breaking ties.
func (s *Store) KNN(ctx context.Context, column Column, query []float32, k int) ([]SearchResult, error) {
	if len(query) != s.schema.Dim {
		return nil, &apperr.StoreError{Err: fmt.Errorf(
			"query vector dimension %d, want %d", len(query), s.schema.Dim,
		)}
	}

	vecTable := s.schema.TableName + "_vec_content"
	if column == ColumnSummary {
		vecTable = s.schema.TableName + "_vec_summary"
	}

	blob, err := sqlite_vec.SerializeFloat32(query)
	if err != nil {
		return nil, &apperr.StoreError{Err: fmt.Errorf("serialize query vector: %w", err)}
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT c.file_path, c.chunk_id, c.symbol, c.start_line, c.end_line,
		       c.content, c.summary, v.distance
		FROM (
			SELECT chunk_id, distance FROM %s
			WHERE embedding MATCH ?
			ORDER BY distance LIMIT ?
		) v
		JOIN %s c ON c.id = v.chunk_id
		ORDER BY v.distance, c.file_path, c.chunk_id
	`, vecTable, s.schema.TableName), blob, k)
	if err != nil {
		return nil, &apperr.StoreError{Err: err}
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var r SearchResult
		var summary sql.NullString
		err := rows.Scan(
			&r.FilePath, &r.ChunkID, &r.Symbol, &r.StartLine, &r.EndLine,
			&r.Content, &summary, &r.Distance,
		)
		if err != nil {
			return nil, &apperr.StoreError{Err: err}
		}
		if summary.Valid {
			r.Summary = &summary.String
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, &apperr.StoreError{Err: err}
	}
	return results, nil
}

// Stats reports file count, chunk count, and the configured dimension.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := s.db.QueryRowContext(ctx, fmt.Sprintf(
		"SELECT COUNT(DISTINCT file_path), COUNT(*) FROM %s", s.schema.TableName,
	)).Scan(&st.FileCount, &st.ChunkCount)
	if err != nil {
		return st, &apperr.StoreError{Err: err}
	}
	st.Dimension = s.schema.Dim
	return st, nil
}

// Clear drops every table and recreates them empty with the current schema
// identity.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, dropDDL(s.schema)); err != nil {
		return &apperr.StoreError{Err: err}
	}
	if err := initSchema(s.db, s.schema); err != nil {
		return &apperr.StoreError{Err: err}
	}
	if err := s.stampIdentity(); err != nil {
		return &apperr.StoreError{Err: err}
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
