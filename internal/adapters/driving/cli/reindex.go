package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/vegvisr/graphvec/internal/core/domain"
)

var (
	reindexSample int
	reindexJSON   bool
)

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Vectorize every graph that has no vectors yet",
	Long: `Walks the corpus listing and vectorizes each graph in turn.

Graphs that already have vectors are skipped. Documents are processed one
at a time at the configured rate (reindex.requests_per_second). A failure
on one graph is counted and the run moves on.

Interrupting with Ctrl-C stops after the current graph and prints the
partial summary.`,
	Args: cobra.NoArgs,
	RunE: runReindex,
}

func init() {
	reindexCmd.Flags().IntVar(&reindexSample, "sample", 0, "only process the first N graphs")
	reindexCmd.Flags().BoolVar(&reindexJSON, "json", false, "output the summary as JSON")
	rootCmd.AddCommand(reindexCmd)
}

func runReindex(cmd *cobra.Command, _ []string) error {
	if reindexService == nil {
		return errNotConfigured("reindex")
	}

	var (
		summary *domain.ReindexSummary
		err     error
	)
	if cmd.Flags().Changed("sample") {
		summary, err = reindexService.ReindexSample(cmd.Context(), reindexSample)
	} else {
		summary, err = reindexService.ReindexAll(cmd.Context())
	}
	if err != nil {
		return err
	}

	if reindexJSON {
		return outputJSON(cmd, summary)
	}
	printReindexSummary(cmd, summary)
	return nil
}

func printReindexSummary(cmd *cobra.Command, s *domain.ReindexSummary) {
	st := stylesFor(cmd.OutOrStdout())

	switch {
	case s.Interrupted:
		cmd.Println(st.warning.Render(s.Message))
	case s.Errors > 0:
		cmd.Println(st.warning.Render(s.Message))
	default:
		cmd.Println(st.success.Render(s.Message))
	}

	cmd.Printf("  Processed: %d\n", s.Processed)
	cmd.Printf("  Skipped:   %d\n", s.Skipped)
	cmd.Printf("  Empty:     %d\n", s.Empty)
	cmd.Printf("  Errors:    %d\n", s.Errors)
	cmd.Printf("  Total:     %d (%d%% processed)\n", s.TotalConsidered, s.SuccessRatePercent)
	cmd.Printf("  Duration:  %s\n", s.Duration.Round(time.Millisecond))

	if s.Errors > 0 {
		steps := s.Steps
		cmd.Println(st.muted.Render("  Failures by step:"))
		cmd.Printf("    lookup %d, fetch %d, extraction %d, embedding %d, vector upsert %d, metadata %d\n",
			steps.Lookup, steps.Fetch, steps.Extraction, steps.Embedding, steps.VectorUpsert, steps.MetadataInsert)
	}
}
