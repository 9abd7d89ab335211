package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/vegvisr/graphvec/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/vegvisr/graphvec/internal/core/domain"
	"github.com/vegvisr/graphvec/internal/core/ports/driven"
)

// dbFile is the database file name inside the data directory.
const dbFile = "metadata.db"

// Store is a unified SQLite-based storage that provides access to
// the metadata store interfaces through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.graphvec/data/metadata.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".graphvec", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, dbFile)

	// WAL lets searches read while a reindex writes.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// EmbeddingStore returns the driven.EmbeddingStore backed by this store.
func (s *Store) EmbeddingStore() *EmbeddingRows {
	return &EmbeddingRows{store: s}
}

// AnalyticsStore returns the driven.AnalyticsStore backed by this store.
func (s *Store) AnalyticsStore() *SearchLog {
	return &SearchLog{store: s}
}

// migrate runs all pending migrations and records each applied version.
func (s *Store) migrate(fsys fs.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_vector_embeddings.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if err := s.apply(version, string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

func (s *Store) apply(version int, script string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	if _, err := tx.Exec(script); err != nil {
		_ = tx.Rollback()
		return err
	}
	if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// ==================== Embedding Rows ====================

// EmbeddingRows implements driven.EmbeddingStore over the vector_embeddings table.
type EmbeddingRows struct {
	store *Store
}

var _ driven.EmbeddingStore = (*EmbeddingRows)(nil)

// Insert upserts a row by ID. The original created_at is kept on update.
func (r *EmbeddingRows) Insert(ctx context.Context, entry domain.EmbeddingIndexEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	_, err := r.store.db.ExecContext(ctx, `
		INSERT INTO vector_embeddings (
			id, graph_id, node_id, embedding_type, content_hash, content_preview,
			vector_id, metadata, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			graph_id = excluded.graph_id,
			node_id = excluded.node_id,
			embedding_type = excluded.embedding_type,
			content_hash = excluded.content_hash,
			content_preview = excluded.content_preview,
			vector_id = excluded.vector_id,
			metadata = excluded.metadata
	`, entry.ID, entry.GraphID, nullString(entry.NodeID), entry.EmbeddingType.String(),
		entry.ContentHash, entry.ContentPreview, entry.VectorID,
		nullString(entry.MetadataJSON), entry.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("saving embedding row %s: %w", entry.ID, err)
	}
	return nil
}

// Get retrieves a row by ID.
func (r *EmbeddingRows) Get(ctx context.Context, id string) (domain.EmbeddingIndexEntry, error) {
	row := r.store.db.QueryRowContext(ctx, `
		SELECT id, graph_id, node_id, embedding_type, content_hash, content_preview,
			vector_id, metadata, created_at
		FROM vector_embeddings WHERE id = ?
	`, id)

	var (
		entry           domain.EmbeddingIndexEntry
		nodeID, preview sql.NullString
		metadata, kind  sql.NullString
		createdAt       time.Time
	)
	err := row.Scan(&entry.ID, &entry.GraphID, &nodeID, &kind, &entry.ContentHash,
		&preview, &entry.VectorID, &metadata, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.EmbeddingIndexEntry{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.EmbeddingIndexEntry{}, fmt.Errorf("scanning embedding row: %w", err)
	}

	entry.NodeID = nodeID.String
	entry.EmbeddingType = domain.ChunkKind(kind.String)
	entry.ContentPreview = preview.String
	entry.MetadataJSON = metadata.String
	entry.CreatedAt = createdAt
	return entry, nil
}

// ExistsForGraph reports whether any row exists for the graph.
func (r *EmbeddingRows) ExistsForGraph(ctx context.Context, graphID string) (bool, error) {
	var exists int
	err := r.store.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM vector_embeddings WHERE graph_id = ?)", graphID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking rows for graph %s: %w", graphID, err)
	}
	return exists == 1, nil
}

// CountForGraph returns the number of rows for the graph.
func (r *EmbeddingRows) CountForGraph(ctx context.Context, graphID string) (int, error) {
	return r.count(ctx, "SELECT COUNT(*) FROM vector_embeddings WHERE graph_id = ?", graphID)
}

// CountByGraphs returns row counts for the graphs that have rows.
func (r *EmbeddingRows) CountByGraphs(ctx context.Context, graphIDs []string) (map[string]int, error) {
	counts := make(map[string]int)
	if len(graphIDs) == 0 {
		return counts, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(graphIDs)), ",")
	args := make([]any, len(graphIDs))
	for i, id := range graphIDs {
		args[i] = id
	}

	rows, err := r.store.db.QueryContext(ctx,
		"SELECT graph_id, COUNT(*) FROM vector_embeddings WHERE graph_id IN ("+placeholders+") GROUP BY graph_id",
		args...)
	if err != nil {
		return nil, fmt.Errorf("counting rows by graph: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id string
			n  int
		)
		if err := rows.Scan(&id, &n); err != nil {
			return nil, fmt.Errorf("scanning graph count: %w", err)
		}
		counts[id] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating graph counts: %w", err)
	}
	return counts, nil
}

// Count returns the total number of rows.
func (r *EmbeddingRows) Count(ctx context.Context) (int, error) {
	return r.count(ctx, "SELECT COUNT(*) FROM vector_embeddings")
}

// CountDistinctGraphs returns the number of graphs with rows.
func (r *EmbeddingRows) CountDistinctGraphs(ctx context.Context) (int, error) {
	return r.count(ctx, "SELECT COUNT(DISTINCT graph_id) FROM vector_embeddings")
}

func (r *EmbeddingRows) count(ctx context.Context, query string, args ...any) (int, error) {
	var n int
	if err := r.store.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting embedding rows: %w", err)
	}
	return n, nil
}

// ==================== Search Analytics ====================

// SearchLog implements driven.AnalyticsStore over the search_analytics table.
type SearchLog struct {
	store *Store
}

var _ driven.AnalyticsStore = (*SearchLog)(nil)

// RecordSearch saves one search record.
func (l *SearchLog) RecordSearch(ctx context.Context, record domain.SearchAnalytics) error {
	metadataJSON := jsonNull
	if len(record.Metadata) > 0 {
		raw, err := json.Marshal(record.Metadata)
		if err != nil {
			return fmt.Errorf("marshalling search metadata: %w", err)
		}
		metadataJSON = string(raw)
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}

	_, err := l.store.db.ExecContext(ctx, `
		INSERT INTO search_analytics (
			id, query, search_type, results_count, response_time_ms, metadata, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`, record.ID, record.Query, string(record.SearchType), record.ResultsCount,
		record.ResponseTimeMs, metadataJSON, record.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("saving search record: %w", err)
	}
	return nil
}

// Recent returns the latest search records, newest first.
func (l *SearchLog) Recent(ctx context.Context, limit int) ([]domain.SearchAnalytics, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := l.store.db.QueryContext(ctx, `
		SELECT id, query, search_type, results_count, response_time_ms, metadata, created_at
		FROM search_analytics ORDER BY created_at DESC, id LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing searches: %w", err)
	}
	defer rows.Close()

	var records []domain.SearchAnalytics
	for rows.Next() {
		var (
			rec        domain.SearchAnalytics
			searchType string
			metadata   sql.NullString
		)
		if err := rows.Scan(&rec.ID, &rec.Query, &searchType, &rec.ResultsCount,
			&rec.ResponseTimeMs, &metadata, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning search record: %w", err)
		}
		rec.SearchType = domain.SearchType(searchType)
		if metadata.Valid && metadata.String != jsonNull {
			if err := json.Unmarshal([]byte(metadata.String), &rec.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshalling search metadata: %w", err)
			}
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating searches: %w", err)
	}
	return records, nil
}

// jsonNull is the JSON representation of null.
const jsonNull = "null"

// nullString converts an empty string to SQL NULL.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
