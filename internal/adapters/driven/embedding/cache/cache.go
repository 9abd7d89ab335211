// Package cache provides a persistent embedding cache in front of any
// embedding service.
//
// Vectors are stored in badger keyed by model name and the SHA-256 of the
// input text, so re-embedding unchanged text after a force reindex costs no
// upstream call. Switching models never serves a stale vector.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/vegvisr/graphvec/internal/core/ports/driven"
	"github.com/vegvisr/graphvec/internal/logger"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// DefaultTTL is how long a cached vector lives.
const DefaultTTL = 30 * 24 * time.Hour

const keyPrefix = "emb:"

// Config holds cache configuration.
type Config struct {
	// Dir is the badger directory. Empty keeps the cache in memory.
	Dir string

	// TTL bounds entry lifetime (default: 30 days). Negative disables expiry.
	TTL time.Duration
}

// Stats reports cache effectiveness.
type Stats struct {
	Hits   uint64
	Misses uint64
}

// EmbeddingService wraps an embedding service with a badger-backed cache.
type EmbeddingService struct {
	inner driven.EmbeddingService
	db    *badger.DB
	ttl   time.Duration

	hits   atomic.Uint64
	misses atomic.Uint64
}

// New opens the cache and wraps inner.
func New(inner driven.EmbeddingService, cfg Config) (*EmbeddingService, error) {
	if inner == nil {
		return nil, errors.New("cache: inner embedding service is required")
	}

	opts := badger.DefaultOptions(cfg.Dir).WithLogger(nil)
	if cfg.Dir == "" {
		opts = badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open embedding cache: %w", err)
	}

	ttl := cfg.TTL
	if ttl == 0 {
		ttl = DefaultTTL
	}

	return &EmbeddingService{inner: inner, db: db, ttl: ttl}, nil
}

// Embed returns the cached vector for text, calling the wrapped service on a miss.
// Cache read and write failures are logged and never fail the call.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	key := s.key(text)

	if vec, ok := s.lookup(key); ok {
		s.hits.Add(1)
		return vec, nil
	}
	s.misses.Add(1)

	vec, err := s.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	if err := s.store(key, vec); err != nil {
		logger.Warn("Embedding cache write failed: %v", err)
	}
	return vec, nil
}

func (s *EmbeddingService) lookup(key []byte) ([]float32, bool) {
	var vec []float32
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			decoded, err := decodeVector(val)
			if err != nil {
				return err
			}
			vec = decoded
			return nil
		})
	})
	if err != nil {
		if !errors.Is(err, badger.ErrKeyNotFound) {
			logger.Warn("Embedding cache read failed: %v", err)
		}
		return nil, false
	}
	return vec, true
}

func (s *EmbeddingService) store(key []byte, vec []float32) error {
	return s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry(key, encodeVector(vec))
		if s.ttl > 0 {
			entry = entry.WithTTL(s.ttl)
		}
		return txn.SetEntry(entry)
	})
}

func (s *EmbeddingService) key(text string) []byte {
	sum := sha256.Sum256([]byte(text))
	key := make([]byte, 0, len(keyPrefix)+len(s.inner.ModelName())+1+len(sum))
	key = append(key, keyPrefix...)
	key = append(key, s.inner.ModelName()...)
	key = append(key, ':')
	return append(key, sum[:]...)
}

// Stats returns hit and miss counts since the cache was opened.
func (s *EmbeddingService) Stats() Stats {
	return Stats{Hits: s.hits.Load(), Misses: s.misses.Load()}
}

// Dimensions returns the wrapped service's vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.inner.Dimensions()
}

// ModelName returns the wrapped service's model.
func (s *EmbeddingService) ModelName() string {
	return s.inner.ModelName()
}

// Ping checks the wrapped service.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	return s.inner.Ping(ctx)
}

// Close closes the cache and the wrapped service.
func (s *EmbeddingService) Close() error {
	innerErr := s.inner.Close()
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close embedding cache: %w", err)
	}
	return innerErr
}

// encodeVector packs a vector as little-endian float32 bits.
func encodeVector(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(v))
	}
	return buf
}

func decodeVector(buf []byte) ([]float32, error) {
	if len(buf)%4 != 0 {
		return nil, fmt.Errorf("corrupt cache entry: %d bytes", len(buf))
	}
	vec := make([]float32, len(buf)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[4*i:]))
	}
	return vec, nil
}
