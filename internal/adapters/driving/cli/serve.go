package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/vegvisr/graphvec/internal/adapters/driving/rest"
	"github.com/vegvisr/graphvec/internal/adapters/driving/watch"
	"github.com/vegvisr/graphvec/internal/logger"
)

var serveWatch bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Starts the JSON HTTP API:

  POST /index-graph           index one graph
  POST /search                vector, keyword or hybrid search
  POST /reindex-all           vectorize every graph
  POST /reindex-sample        vectorize the first N graphs
  POST /vectorization-status  vector counts per graph
  GET  /analyze-content       indexing workload estimate
  GET  /health                health probe

With --watch and a filesystem content source, edited graphs are
re-indexed while the server runs.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default server.addr)")
	serveCmd.Flags().BoolVar(&serveWatch, "watch", false, "re-index graphs as their files change")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	addr, err := cmd.Flags().GetString("addr")
	if err != nil {
		return err
	}
	if addr == "" {
		addr = serverAddr
	}
	if addr == "" {
		addr = ":8787"
	}

	server, err := rest.NewServer(&rest.Ports{
		Search:  searchService,
		Index:   indexService,
		Reindex: reindexService,
		Status:  statusService,
	})
	if err != nil {
		return err
	}

	var watcher *watch.Watcher
	if serveWatch {
		if graphWatcher == nil {
			return errors.New("--watch requires content.provider = filesystem")
		}
		watcher, err = watch.New(graphWatcher, indexService, watch.Config{})
		if err != nil {
			return err
		}
	}

	g, ctx := errgroup.WithContext(cmd.Context())
	g.Go(func() error {
		return server.Run(ctx, addr)
	})

	if watcher != nil {
		g.Go(func() error {
			if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Graph watcher stopped: %v", err)
			}
			return nil
		})
	}

	cmd.Printf("graphvec API listening on http://%s\n", displayAddr(addr))
	return g.Wait()
}
