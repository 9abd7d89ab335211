package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/vegvisr/graphvec/internal/adapters/driving/watch"
	"github.com/vegvisr/graphvec/internal/core/domain"
)

var watchDebounce = watch.DefaultDebounce

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-index graphs as their files change",
	Long: `Watches the graph directory (content.provider = filesystem) and
force re-indexes each graph shortly after its file is created or edited.

Removed graphs are reported but their vectors are kept. Stop with Ctrl-C.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", watch.DefaultDebounce, "quiet period before re-indexing")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	if indexService == nil {
		return errNotConfigured("index")
	}
	if graphWatcher == nil {
		return errors.New("watch requires content.provider = filesystem")
	}

	st := stylesFor(cmd.OutOrStdout())
	w, err := watch.New(graphWatcher, indexService, watch.Config{
		Debounce: watchDebounce,
		OnIndexed: func(graphID string, summary *domain.IndexSummary, err error) {
			switch {
			case err != nil:
				cmd.Println(st.err.Render("✗ " + graphID + ": " + err.Error()))
			case !summary.Success:
				cmd.Println(st.warning.Render("! " + graphID + ": " + summary.Message))
			default:
				cmd.Println(st.success.Render("✓ " + graphID + ": " + summary.Message))
			}
		},
	})
	if err != nil {
		return err
	}

	cmd.Println(st.muted.Render("Watching for graph changes. Press Ctrl-C to stop."))
	return w.Run(cmd.Context())
}
