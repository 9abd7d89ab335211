// Package filesystem reads knowledge graphs from a directory of JSON files.
//
// Each *.json file holds one graph document. A document without an "id"
// field takes its ID from the file name. Subdirectories are walked; hidden
// files and directories are ignored.
package filesystem

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/vegvisr/graphvec/internal/core/domain"
	"github.com/vegvisr/graphvec/internal/core/ports/driven"
	"github.com/vegvisr/graphvec/internal/logger"
)

// Ensure Source implements the interfaces.
var (
	_ driven.GraphSource  = (*Source)(nil)
	_ driven.GraphWatcher = (*Source)(nil)
)

const graphExt = ".json"

// Source serves graphs stored under a root directory.
type Source struct {
	root string

	mu       sync.Mutex
	closed   bool
	watchers []*fsnotify.Watcher
}

// New creates a filesystem graph source rooted at root.
func New(root string) *Source {
	return &Source{root: root}
}

// Root returns the graph directory.
func (s *Source) Root() string {
	return s.root
}

// ListGraphs returns a summary of every readable graph file, ordered by ID.
// Unreadable files are logged and skipped.
func (s *Source) ListGraphs(ctx context.Context) ([]domain.GraphSummary, error) {
	files, err := s.graphFiles()
	if err != nil {
		return nil, err
	}

	graphs := make([]domain.GraphSummary, 0, len(files))
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		doc, err := readGraph(path)
		if err != nil {
			logger.Warn("Skipping graph file %s: %v", path, err)
			continue
		}

		summary := domain.GraphSummary{
			ID:       doc.ID,
			Title:    doc.Metadata.Title,
			Metadata: doc.Metadata,
			Nodes:    doc.Nodes,
		}
		if info, err := os.Stat(path); err == nil {
			summary.CreatedAt = info.ModTime().UTC().Format(time.RFC3339)
		}
		graphs = append(graphs, summary)
	}

	sort.Slice(graphs, func(i, j int) bool { return graphs[i].ID < graphs[j].ID })
	return graphs, nil
}

// GetGraph returns the graph with the given ID. The file named after the ID
// is tried first; otherwise every file is scanned for a matching "id" field.
func (s *Source) GetGraph(ctx context.Context, id string) (*domain.GraphDocument, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: graph id is required", domain.ErrValidation)
	}

	if isPlainName(id) {
		path := filepath.Join(s.root, id+graphExt)
		if doc, err := readGraph(path); err == nil && doc.ID == id {
			return doc, nil
		} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: read graph %s: %w", domain.ErrUpstreamFetch, id, err)
		}
	}

	files, err := s.graphFiles()
	if err != nil {
		return nil, err
	}
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		doc, err := readGraph(path)
		if err != nil {
			continue
		}
		if doc.ID == id {
			return doc, nil
		}
	}

	return nil, fmt.Errorf("graph %s: %w", id, domain.ErrNotFound)
}

// Watch streams graph file changes until ctx is cancelled.
func (s *Source) Watch(ctx context.Context) (<-chan domain.GraphChange, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, errors.New("filesystem source is closed")
	}

	info, err := os.Stat(s.root)
	if err != nil {
		return nil, fmt.Errorf("root path error: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root path error: %s is not a directory", s.root)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}

	err = filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != s.root && isHidden(d.Name()) {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
	if err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watching %s: %w", s.root, err)
	}

	s.watchers = append(s.watchers, watcher)

	changes := make(chan domain.GraphChange, 16)
	go s.watchLoop(ctx, watcher, changes)
	return changes, nil
}

func (s *Source) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, changes chan<- domain.GraphChange) {
	defer close(changes)
	defer watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}

			// New subdirectories are watched as they appear.
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if !isHidden(filepath.Base(event.Name)) {
						if err := watcher.Add(event.Name); err != nil {
							logger.Warn("Failed to watch %s: %v", event.Name, err)
						}
					}
					continue
				}
			}

			change, ok := toChange(event)
			if !ok {
				continue
			}

			select {
			case changes <- change:
			case <-ctx.Done():
				return
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("Graph watcher error: %v", err)
		}
	}
}

// Close stops all watchers.
func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	var errs []error
	for _, w := range s.watchers {
		if err := w.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	s.watchers = nil
	return errors.Join(errs...)
}

func toChange(event fsnotify.Event) (domain.GraphChange, bool) {
	if !isGraphFile(event.Name) {
		return domain.GraphChange{}, false
	}

	change := domain.GraphChange{Path: event.Name, GraphID: fileGraphID(event.Name)}
	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		change.Type = domain.GraphDeleted
		return change, true
	case event.Has(fsnotify.Create):
		change.Type = domain.GraphCreated
	case event.Has(fsnotify.Write):
		change.Type = domain.GraphUpdated
	default:
		return domain.GraphChange{}, false
	}

	// The file may be mid-write; the name-derived ID is kept in that case.
	if doc, err := readGraph(event.Name); err == nil {
		change.GraphID = doc.ID
	}
	return change, true
}

func (s *Source) graphFiles() ([]string, error) {
	var files []string
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != s.root && isHidden(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if isGraphFile(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: reading graph directory: %w", domain.ErrUpstreamFetch, err)
	}
	sort.Strings(files)
	return files, nil
}

func readGraph(path string) (*domain.GraphDocument, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var doc domain.GraphDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	if doc.ID == "" {
		doc.ID = fileGraphID(path)
	}
	return &doc, nil
}

func fileGraphID(path string) string {
	return strings.TrimSuffix(filepath.Base(path), graphExt)
}

func isGraphFile(path string) bool {
	name := filepath.Base(path)
	return strings.HasSuffix(name, graphExt) && !isHidden(name)
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

// isPlainName reports whether id can be used as a file name in the root.
func isPlainName(id string) bool {
	return id != "." && id != ".." && !strings.ContainsAny(id, `/\`)
}
