package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/vegvisr/graphvec/internal/core/domain"
	"github.com/vegvisr/graphvec/internal/core/ports/driven"
	"github.com/vegvisr/graphvec/internal/logger"
)

// vectorWriter stores vector records and their metadata rows.
// Vectors are upserted in one call; metadata rows are inserted one by one so a
// bad row never blocks the rest.
type vectorWriter struct {
	index driven.SimilarityIndex
	store driven.EmbeddingStore
}

// writeResult reports what a write stored.
type writeResult struct {
	rowsStored int
	rowErrors  []string
}

func (w *vectorWriter) write(ctx context.Context, records []domain.VectorRecord) (writeResult, error) {
	var res writeResult
	if len(records) == 0 {
		return res, nil
	}
	if w.index == nil {
		return res, fmt.Errorf("%w: %w", domain.ErrPersistence, domain.ErrVectorIndexUnavailable)
	}

	if err := w.index.Upsert(ctx, records); err != nil {
		return res, fmt.Errorf("%w: upsert vectors: %w", domain.ErrPersistence, err)
	}

	for _, record := range records {
		entry, err := indexEntry(record)
		if err == nil {
			err = w.store.Insert(ctx, entry)
		}
		if err != nil {
			logger.Warn("Database error for vector %s: %v", record.ID, err)
			res.rowErrors = append(res.rowErrors, fmt.Sprintf("%s: %v", record.ID, err))
			continue
		}
		res.rowsStored++
	}

	return res, nil
}

// indexEntry builds the metadata row for a stored vector.
func indexEntry(record domain.VectorRecord) (domain.EmbeddingIndexEntry, error) {
	meta := make(map[string]any, len(record.Metadata.Extra)+5)
	for k, v := range record.Metadata.Extra {
		meta[k] = v
	}
	meta["graphId"] = record.Metadata.GraphID
	meta["nodeId"] = record.Metadata.NodeID
	meta["contentType"] = record.Metadata.ContentType.String()
	meta["originalContent"] = record.Metadata.Snippet
	meta["createdAt"] = record.Metadata.CreatedAt

	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return domain.EmbeddingIndexEntry{}, fmt.Errorf("encode metadata: %w", err)
	}

	sum := sha256.Sum256([]byte(record.Metadata.Snippet))

	return domain.EmbeddingIndexEntry{
		ID:             record.ID,
		GraphID:        record.Metadata.GraphID,
		NodeID:         record.Metadata.NodeID,
		EmbeddingType:  record.Metadata.ContentType,
		ContentHash:    hex.EncodeToString(sum[:]),
		ContentPreview: truncateRunes(record.Metadata.Snippet, domain.MaxPreviewChars),
		VectorID:       record.ID,
		MetadataJSON:   string(metaJSON),
		CreatedAt:      record.Metadata.CreatedAt,
	}, nil
}
