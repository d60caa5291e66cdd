// Package sqlitevec provides an embedded, in-process collection driver
// backed by SQLite with the sqlite-vec extension. It serves local runs and
// tests where no remote vector store is available.
package sqlitevec

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/ctava-msft/gloss/pkg/vector"
)

// Store implements vector.Collection on a SQLite database with a vec0
// virtual table for KNN search. Filterable scalar fields are mirrored as
// vec0 metadata columns so similarity search can filter before ranking.
type Store struct {
	db     *sql.DB
	schema vector.Schema
	logger *zap.Logger
}

// New opens a SQLite database at path for the given schema. Use ":memory:"
// for an in-memory collection.
func New(path string, schema vector.Schema, logger *zap.Logger) (*Store, error) {
	// enable connection to have sqlite-vec extension
	sqlite_vec.Auto()

	if path == "" {
		path = ":memory:"
	}

	if schema.Dimensions == 0 {
		return nil, fmt.Errorf("collection dimensions cannot be 0, must be configured")
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening database: %v", vector.ErrConnection, err)
	}

	// A second pooled connection would see a different :memory: database.
	db.SetMaxOpenConns(1)

	// Verify sqlite-vec is loaded
	var vecVersion string
	if err := db.QueryRow("SELECT vec_version()").Scan(&vecVersion); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: sqlite-vec not available: %v", vector.ErrConnection, err)
	}

	logger.Info("embedded vector store initialized",
		zap.String("path", path),
		zap.String("collection", schema.Name),
		zap.Uint("dimensions", schema.Dimensions),
		zap.String("vec_version", vecVersion),
	)

	return &Store{
		db:     db,
		schema: schema,
		logger: logger,
	}, nil
}

// Ensure creates the collection tables if absent. When the database already
// holds this collection, its recorded vector size is compared against the
// schema and a mismatch is reported instead of being left to the extension.
func (s *Store) Ensure(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)
	`, s.table("meta")))
	if err != nil {
		return fmt.Errorf("creating meta table: %w", err)
	}

	var recorded string
	err = s.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT value FROM %s WHERE key = 'dimensions'`, s.table("meta")),
	).Scan(&recorded)
	switch err {
	case nil:
		existing, convErr := strconv.ParseUint(recorded, 10, 64)
		if convErr == nil && existing != uint64(s.schema.Dimensions) {
			return fmt.Errorf("%w: collection %q has dimension %d, schema declares %d",
				vector.ErrSchemaMismatch, s.schema.Name, existing, s.schema.Dimensions)
		}
		return nil
	case sql.ErrNoRows:
		// First ensure for this collection, create everything below.
	default:
		return fmt.Errorf("reading collection dimensions: %w", err)
	}

	_, err = s.db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			record_key TEXT NOT NULL UNIQUE
		)
	`, s.table("records")))
	if err != nil {
		return fmt.Errorf("creating records table: %w", err)
	}

	_, err = s.db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			record_rowid INTEGER NOT NULL,
			field TEXT NOT NULL,
			value TEXT NOT NULL,
			PRIMARY KEY (record_rowid, field)
		)
	`, s.table("fields")))
	if err != nil {
		return fmt.Errorf("creating fields table: %w", err)
	}

	_, err = s.db.ExecContext(ctx, fmt.Sprintf(
		`CREATE INDEX IF NOT EXISTS %s ON %s (field, value)`,
		s.table("fields_by_value"), s.table("fields"),
	))
	if err != nil {
		return fmt.Errorf("indexing fields table: %w", err)
	}

	// The vec0 virtual table carries the embedding plus one metadata
	// column per filterable field, so KNN queries filter before ranking.
	cols := []string{fmt.Sprintf("embedding float[%d] distance_metric=cosine", s.schema.Dimensions)}
	for _, f := range s.schema.ScalarFields {
		if f.Filterable {
			// vec0's constructor parser rejects quoted identifiers.
			cols = append(cols, fmt.Sprintf(`%s text`, f.Name))
		}
	}
	_, err = s.db.ExecContext(ctx, fmt.Sprintf(
		`CREATE VIRTUAL TABLE IF NOT EXISTS %s USING vec0(%s)`,
		s.table("vectors"), strings.Join(cols, ", "),
	))
	if err != nil {
		return fmt.Errorf("creating vec0 table: %w", err)
	}

	_, err = s.db.ExecContext(ctx, fmt.Sprintf(
		`INSERT INTO %s (key, value) VALUES ('dimensions', ?)`, s.table("meta"),
	), strconv.FormatUint(uint64(s.schema.Dimensions), 10))
	if err != nil {
		return fmt.Errorf("recording collection dimensions: %w", err)
	}

	s.logger.Info("created collection",
		zap.String("collection", s.schema.Name),
		zap.Uint("dimensions", s.schema.Dimensions),
	)

	return nil
}

// Upsert inserts or fully replaces documents by key. The whole batch is
// validated against the schema dimension before anything is written.
func (s *Store) Upsert(ctx context.Context, docs ...vector.Document) error {
	for _, doc := range docs {
		if uint(len(doc.Embedding)) != s.schema.Dimensions {
			return fmt.Errorf("%w: document %q has %d dimensions, collection expects %d",
				vector.ErrSchemaMismatch, doc.Key, len(doc.Embedding), s.schema.Dimensions)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, doc := range docs {
		var rowID int64
		err := tx.QueryRowContext(ctx,
			fmt.Sprintf(`SELECT rowid FROM %s WHERE record_key = ?`, s.table("records")),
			doc.Key,
		).Scan(&rowID)

		switch err {
		case nil:
			// Replacement, not a merge: drop the old fields and the old
			// vector row first. vec0 does not support UPDATE.
			if _, err := tx.ExecContext(ctx,
				fmt.Sprintf(`DELETE FROM %s WHERE record_rowid = ?`, s.table("fields")), rowID,
			); err != nil {
				return fmt.Errorf("clearing fields for document %q: %w", doc.Key, err)
			}
			if _, err := tx.ExecContext(ctx,
				fmt.Sprintf(`DELETE FROM %s WHERE rowid = ?`, s.table("vectors")), rowID,
			); err != nil {
				return fmt.Errorf("clearing vector for document %q: %w", doc.Key, err)
			}
		case sql.ErrNoRows:
			result, err := tx.ExecContext(ctx,
				fmt.Sprintf(`INSERT INTO %s (record_key) VALUES (?)`, s.table("records")),
				doc.Key,
			)
			if err != nil {
				return fmt.Errorf("inserting document %q: %w", doc.Key, err)
			}
			rowID, err = result.LastInsertId()
			if err != nil {
				return fmt.Errorf("getting rowid for document %q: %w", doc.Key, err)
			}
		default:
			return fmt.Errorf("checking for existing document %q: %w", doc.Key, err)
		}

		for field, value := range doc.Fields {
			if _, err := tx.ExecContext(ctx,
				fmt.Sprintf(`INSERT INTO %s (record_rowid, field, value) VALUES (?, ?, ?)`, s.table("fields")),
				rowID, field, value,
			); err != nil {
				return fmt.Errorf("storing field %q of document %q: %w", field, doc.Key, err)
			}
		}

		vecCols := []string{"rowid", "embedding"}
		vecArgs := []any{rowID, serializeFloat32(doc.Embedding)}
		for _, f := range s.schema.ScalarFields {
			if f.Filterable {
				vecCols = append(vecCols, fmt.Sprintf(`"%s"`, f.Name))
				vecArgs = append(vecArgs, doc.Fields[f.Name])
			}
		}
		placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(vecCols)), ", ")
		if _, err := tx.ExecContext(ctx,
			fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`,
				s.table("vectors"), strings.Join(vecCols, ", "), placeholders),
			vecArgs...,
		); err != nil {
			return fmt.Errorf("storing vector for document %q: %w", doc.Key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	s.logger.Debug("upserted documents", zap.Int("count", len(docs)))

	return nil
}

// Delete removes documents by key, silently skipping keys that are absent.
func (s *Store) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, key := range keys {
		var rowID int64
		err := tx.QueryRowContext(ctx,
			fmt.Sprintf(`SELECT rowid FROM %s WHERE record_key = ?`, s.table("records")),
			key,
		).Scan(&rowID)
		if err == sql.ErrNoRows {
			continue
		}
		if err != nil {
			return fmt.Errorf("looking up document %q: %w", key, err)
		}

		if _, err := tx.ExecContext(ctx,
			fmt.Sprintf(`DELETE FROM %s WHERE rowid = ?`, s.table("vectors")), rowID,
		); err != nil {
			return fmt.Errorf("deleting vector for document %q: %w", key, err)
		}
		if _, err := tx.ExecContext(ctx,
			fmt.Sprintf(`DELETE FROM %s WHERE record_rowid = ?`, s.table("fields")), rowID,
		); err != nil {
			return fmt.Errorf("deleting fields for document %q: %w", key, err)
		}
		if _, err := tx.ExecContext(ctx,
			fmt.Sprintf(`DELETE FROM %s WHERE rowid = ?`, s.table("records")), rowID,
		); err != nil {
			return fmt.Errorf("deleting document %q: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

// Search returns up to opts.TopK documents ordered by descending cosine
// similarity, restricted to the filter when one is set.
func (s *Store) Search(ctx context.Context, embedding []float32, opts vector.SearchOptions) ([]vector.QueryResult, error) {
	if uint(len(embedding)) != s.schema.Dimensions {
		return nil, fmt.Errorf("%w: query vector has %d dimensions, collection expects %d",
			vector.ErrSchemaMismatch, len(embedding), s.schema.Dimensions)
	}

	topK := opts.TopK
	if topK <= 0 {
		topK = 10
	}

	query := fmt.Sprintf(`
		SELECT r.rowid, r.record_key, v.distance
		FROM %s v
		INNER JOIN %s r ON r.rowid = v.rowid
		WHERE v.embedding MATCH ? AND v.k = ?`,
		s.table("vectors"), s.table("records"),
	)
	args := []any{serializeFloat32(embedding), topK}

	if opts.Filter != nil {
		if !s.schema.Filterable(opts.Filter.Field) {
			return nil, fmt.Errorf("%w: %q", vector.ErrNotFilterable, opts.Filter.Field)
		}
		query += fmt.Sprintf(` AND v."%s" = ?`, opts.Filter.Field)
		args = append(args, opts.Filter.Value)
	}

	query += ` ORDER BY v.distance`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("searching vectors: %w", err)
	}
	defer rows.Close()

	type hit struct {
		rowID    int64
		key      string
		distance float64
	}
	var hits []hit
	for rows.Next() {
		var h hit
		if err := rows.Scan(&h.rowID, &h.key, &h.distance); err != nil {
			return nil, fmt.Errorf("scanning search result: %w", err)
		}
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating search results: %w", err)
	}
	rows.Close()

	rowIDs := make([]int64, len(hits))
	for i, h := range hits {
		rowIDs[i] = h.rowID
	}
	fields, err := s.fieldsFor(ctx, rowIDs)
	if err != nil {
		return nil, err
	}

	results := make([]vector.QueryResult, len(hits))
	for i, h := range hits {
		results[i] = vector.QueryResult{
			Document: vector.Document{Key: h.key, Fields: fields[h.rowID]},
			// Cosine distance to similarity.
			Score: float32(1 - h.distance),
		}
	}

	return results, nil
}

// Query returns up to limit documents whose field equals the filter value,
// in stable key order. No vector is involved and scores are zero.
func (s *Store) Query(ctx context.Context, filter vector.Filter, limit int) ([]vector.QueryResult, error) {
	if !s.schema.Filterable(filter.Field) {
		return nil, fmt.Errorf("%w: %q", vector.ErrNotFilterable, filter.Field)
	}

	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT r.rowid, r.record_key
		FROM %s r
		INNER JOIN %s f ON f.record_rowid = r.rowid
		WHERE f.field = ? AND f.value = ?
		ORDER BY r.record_key
		LIMIT ?`,
		s.table("records"), s.table("fields"),
	), filter.Field, filter.Value, limit)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var rowIDs []int64
	var keys []string
	for rows.Next() {
		var rowID int64
		var key string
		if err := rows.Scan(&rowID, &key); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		rowIDs = append(rowIDs, rowID)
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}
	rows.Close()

	fields, err := s.fieldsFor(ctx, rowIDs)
	if err != nil {
		return nil, err
	}

	results := make([]vector.QueryResult, len(rowIDs))
	for i, rowID := range rowIDs {
		results[i] = vector.QueryResult{
			Document: vector.Document{Key: keys[i], Fields: fields[rowID]},
		}
	}

	return results, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// fieldsFor loads the scalar fields of the given rows in one query. The
// rows cursor of the caller must be closed first, SQLite runs on a single
// connection here.
func (s *Store) fieldsFor(ctx context.Context, rowIDs []int64) (map[int64]map[string]string, error) {
	fields := make(map[int64]map[string]string, len(rowIDs))
	if len(rowIDs) == 0 {
		return fields, nil
	}

	placeholders := make([]string, len(rowIDs))
	args := make([]any, len(rowIDs))
	for i, id := range rowIDs {
		placeholders[i] = "?"
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(
		`SELECT record_rowid, field, value FROM %s WHERE record_rowid IN (%s)`,
		s.table("fields"), strings.Join(placeholders, ","),
	), args...)
	if err != nil {
		return nil, fmt.Errorf("loading fields: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var rowID int64
		var field, value string
		if err := rows.Scan(&rowID, &field, &value); err != nil {
			return nil, fmt.Errorf("scanning field: %w", err)
		}
		if fields[rowID] == nil {
			fields[rowID] = make(map[string]string)
		}
		fields[rowID][field] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating fields: %w", err)
	}

	return fields, nil
}

// table returns the quoted, collection-prefixed name for one of the
// store's tables.
func (s *Store) table(suffix string) string {
	return fmt.Sprintf(`"%s_%s"`, s.schema.Name, suffix)
}

// serializeFloat32 converts a vector to the little-endian BLOB format
// sqlite-vec expects.
func serializeFloat32(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

var _ vector.Collection = (*Store)(nil)
