// Package cli provides the graphvec command line interface.
package cli

import (
	"context"
	"errors"
	"sync"

	"github.com/spf13/cobra"

	"github.com/vegvisr/graphvec/internal/core/domain"
	"github.com/vegvisr/graphvec/internal/core/ports/driven"
	"github.com/vegvisr/graphvec/internal/core/ports/driving"
	"github.com/vegvisr/graphvec/internal/logger"
)

// version is set at build time with -ldflags.
var version = "dev"

// Command annotations controlling bootstrap.
const (
	// skipBootstrap marks commands that run without building services.
	skipBootstrap = "skip-bootstrap"

	// settingsOnly marks commands that need the settings service alone, so
	// they keep working while the rest of the configuration is broken.
	settingsOnly = "settings-only"
)

// SearchHistory lists recorded searches, newest first.
type SearchHistory interface {
	Recent(ctx context.Context, limit int) ([]domain.SearchAnalytics, error)
}

// Services holds everything the commands need.
type Services struct {
	Search   driving.SearchService
	Index    driving.IndexService
	Reindex  driving.ReindexService
	Status   driving.StatusService
	Settings driving.SettingsService

	// Watcher is nil unless graphs come from a local directory.
	Watcher driven.GraphWatcher

	// History is optional.
	History SearchHistory

	// ServerAddr is the default listen address for serve.
	ServerAddr string
}

// BootstrapOptions are passed to BootstrapFunc.
type BootstrapOptions struct {
	ConfigDir string

	// SettingsOnly asks for the settings service alone.
	SettingsOnly bool
}

// BootstrapFunc builds services. The returned function releases them.
type BootstrapFunc func(opts BootstrapOptions) (*Services, func(), error)

var (
	searchService   driving.SearchService
	indexService    driving.IndexService
	reindexService  driving.ReindexService
	statusService   driving.StatusService
	settingsService driving.SettingsService
	graphWatcher    driven.GraphWatcher
	searchHistory   SearchHistory
	serverAddr      string

	bootstrap BootstrapFunc

	cleanupMu sync.Mutex
	cleanup   func()
)

var (
	verbose   bool
	configDir string
)

var rootCmd = &cobra.Command{
	Use:   "graphvec",
	Short: "Semantic search over knowledge graphs",
	Long: `graphvec vectorizes knowledge-graph documents and serves vector,
keyword and hybrid search over them.

Graphs are read from a content API or a local directory, embedded with
Workers AI, Ollama or OpenAI, and stored in Vectorize, Qdrant or an
in-process index.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "configuration directory (default ~/.graphvec)")
}

// SetServices injects the services used by commands.
func SetServices(s *Services) {
	if s == nil {
		s = &Services{}
	}
	searchService = s.Search
	indexService = s.Index
	reindexService = s.Reindex
	statusService = s.Status
	settingsService = s.Settings
	graphWatcher = s.Watcher
	searchHistory = s.History
	serverAddr = s.ServerAddr
}

// SetBootstrap sets the function that builds services before a command runs.
func SetBootstrap(fn BootstrapFunc) {
	bootstrap = fn
}

// SetVersion sets the reported version.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	defer runCleanup()
	return rootCmd.ExecuteContext(ctx)
}

func setup(cmd *cobra.Command, _ []string) error {
	if verbose {
		logger.SetVerbose(true)
	}

	if cmd.Annotations[skipBootstrap] == "true" || bootstrap == nil {
		return nil
	}

	svc, done, err := bootstrap(BootstrapOptions{
		ConfigDir:    configDir,
		SettingsOnly: cmd.Annotations[settingsOnly] == "true",
	})
	if err != nil {
		return err
	}
	SetServices(svc)

	cleanupMu.Lock()
	cleanup = done
	cleanupMu.Unlock()
	return nil
}

func runCleanup() {
	cleanupMu.Lock()
	defer cleanupMu.Unlock()
	if cleanup != nil {
		cleanup()
		cleanup = nil
	}
}

// errNotConfigured reports a missing service for a command.
func errNotConfigured(name string) error {
	return errors.New(name + " service not configured")
}
