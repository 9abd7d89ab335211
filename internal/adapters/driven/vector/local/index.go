// Package local provides the default similarity index: an exact in-process
// index whose records are kept in badger, so vectors survive restarts.
//
// Every record is loaded into memory on open and queries never touch disk.
// Upserts are written through to badger before they are acknowledged.
package local

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/vegvisr/graphvec/internal/adapters/driven/storage/memory"
	"github.com/vegvisr/graphvec/internal/adapters/driven/vector"
	"github.com/vegvisr/graphvec/internal/core/domain"
	"github.com/vegvisr/graphvec/internal/core/ports/driven"
	"github.com/vegvisr/graphvec/internal/logger"
)

// Ensure Index implements the interface.
var _ driven.SimilarityIndex = (*Index)(nil)

const keyPrefix = "vec:"

// storedRecord is the badger value for one vector.
type storedRecord struct {
	Values   []float32      `json:"values"`
	Metadata map[string]any `json:"metadata"`
}

// Index is a persistent exact cosine index.
type Index struct {
	mem *memory.SimilarityIndex
	db  *badger.DB
}

// Open opens or creates the index in dir and loads its records.
// An empty dir keeps everything in memory.
func Open(dir string, dimensions int) (*Index, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("%w: open vector index: %w", domain.ErrPersistence, err)
	}

	idx := &Index{mem: memory.NewSimilarityIndex(dimensions), db: db}
	if err := idx.load(); err != nil {
		db.Close()
		return nil, err
	}
	return idx, nil
}

func (i *Index) load() error {
	var records []domain.VectorRecord
	err := i.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(keyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			id := string(item.Key()[len(prefix):])
			err := item.Value(func(val []byte) error {
				var rec storedRecord
				if err := json.Unmarshal(val, &rec); err != nil {
					return fmt.Errorf("decode vector %s: %w", id, err)
				}
				records = append(records, domain.VectorRecord{
					ID:       id,
					Values:   rec.Values,
					Metadata: vector.DecodeMetadata(rec.Metadata),
				})
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: load vector index: %w", domain.ErrPersistence, err)
	}

	if err := i.mem.Upsert(context.Background(), records); err != nil {
		return fmt.Errorf("%w: load vector index: %w", domain.ErrPersistence, err)
	}
	if len(records) > 0 {
		logger.Debug("Loaded %d vectors from local index", len(records))
	}
	return nil
}

// Upsert inserts or replaces records by ID.
func (i *Index) Upsert(ctx context.Context, records []domain.VectorRecord) error {
	// The memory index checks dimensions before anything reaches disk.
	if err := i.mem.Upsert(ctx, records); err != nil {
		return err
	}

	wb := i.db.NewWriteBatch()
	defer wb.Cancel()
	for _, r := range records {
		val, err := json.Marshal(storedRecord{Values: r.Values, Metadata: vector.EncodeMetadata(r.Metadata)})
		if err != nil {
			return fmt.Errorf("encode vector %s: %w", r.ID, err)
		}
		if err := wb.Set([]byte(keyPrefix+r.ID), val); err != nil {
			return fmt.Errorf("write vector %s: %w", r.ID, err)
		}
	}
	if err := wb.Flush(); err != nil {
		return fmt.Errorf("write vectors: %w", err)
	}
	return nil
}

// Query returns the top K records by cosine similarity.
func (i *Index) Query(ctx context.Context, vec []float32, opts driven.QueryOptions) ([]driven.VectorMatch, error) {
	return i.mem.Query(ctx, vec, opts)
}

// Len returns the number of stored records.
func (i *Index) Len() int {
	return i.mem.Len()
}

// Close closes the badger database.
func (i *Index) Close() error {
	return i.db.Close()
}
