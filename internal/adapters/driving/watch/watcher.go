// Package watch re-indexes graphs as their files change.
//
// Changes are debounced per graph: an editor that writes a file several
// times in quick succession triggers one forced re-index once the file has
// been quiet for the debounce delay. Deleted graphs are only logged; the
// similarity index is append-only.
package watch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/vegvisr/graphvec/internal/core/domain"
	"github.com/vegvisr/graphvec/internal/core/ports/driven"
	"github.com/vegvisr/graphvec/internal/core/ports/driving"
	"github.com/vegvisr/graphvec/internal/logger"
)

// DefaultDebounce is how long a graph must be quiet before it is re-indexed.
const DefaultDebounce = 500 * time.Millisecond

// ErrMissingDependency is returned when the source or index service is nil.
var ErrMissingDependency = errors.New("watch: graph watcher and index service are required")

// Config holds watcher options.
type Config struct {
	// Debounce is the quiet period before a changed graph is indexed.
	Debounce time.Duration

	// OnIndexed is called after each re-index attempt. Optional.
	OnIndexed func(graphID string, summary *domain.IndexSummary, err error)
}

// Watcher drives IndexService from graph change notifications.
type Watcher struct {
	source driven.GraphWatcher
	index  driving.IndexService
	cfg    Config

	mu      sync.Mutex
	pending map[string]*time.Timer
}

// New creates a watcher.
func New(source driven.GraphWatcher, index driving.IndexService, cfg Config) (*Watcher, error) {
	if source == nil || index == nil {
		return nil, ErrMissingDependency
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	return &Watcher{
		source:  source,
		index:   index,
		cfg:     cfg,
		pending: make(map[string]*time.Timer),
	}, nil
}

// Run watches until ctx is cancelled or the change stream ends.
// Graphs are indexed one at a time.
func (w *Watcher) Run(ctx context.Context) error {
	changes, err := w.source.Watch(ctx)
	if err != nil {
		return fmt.Errorf("starting watch: %w", err)
	}

	ready := make(chan string, 16)
	done := make(chan struct{})
	defer close(done)
	defer w.stopPending()

	for {
		select {
		case <-ctx.Done():
			return nil

		case change, ok := <-changes:
			if !ok {
				return nil
			}
			w.handle(change, ready, done)

		case graphID := <-ready:
			w.reindex(ctx, graphID)
		}
	}
}

func (w *Watcher) handle(change domain.GraphChange, ready chan<- string, done <-chan struct{}) {
	if change.GraphID == "" {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, ok := w.pending[change.GraphID]; ok {
		timer.Stop()
		delete(w.pending, change.GraphID)
	}

	if change.Type == domain.GraphDeleted {
		logger.Info("Graph %s removed (%s); existing vectors are kept", change.GraphID, change.Path)
		return
	}

	logger.Debug("Graph %s %s, scheduling re-index", change.GraphID, change.Type)
	graphID := change.GraphID
	var timer *time.Timer
	timer = time.AfterFunc(w.cfg.Debounce, func() {
		w.mu.Lock()
		current := w.pending[graphID] == timer
		if current {
			delete(w.pending, graphID)
		}
		w.mu.Unlock()
		if !current {
			return
		}

		select {
		case ready <- graphID:
		case <-done:
		}
	})
	w.pending[graphID] = timer
}

func (w *Watcher) reindex(ctx context.Context, graphID string) {
	summary, err := w.index.IndexGraph(ctx, domain.IndexRequest{
		GraphID: graphID,
		Action:  domain.IndexActionForce,
	})
	if err != nil {
		logger.Warn("Re-index of graph %s failed: %v", graphID, err)
	} else {
		logger.Info("Re-indexed graph %s: %d vectors", graphID, summary.VectorsCreated)
	}

	if w.cfg.OnIndexed != nil {
		w.cfg.OnIndexed(graphID, summary, err)
	}
}

func (w *Watcher) stopPending() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for id, timer := range w.pending {
		timer.Stop()
		delete(w.pending, id)
	}
}
