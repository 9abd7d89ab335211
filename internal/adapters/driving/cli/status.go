package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	statusRecent int
	statusJSON   bool
)

var statusCmd = &cobra.Command{
	Use:   "status [graph-id...]",
	Short: "Show vectorization status",
	Long: `Shows service health and, for each graph ID given, whether it has
been vectorized and how many vectors it has. Recent searches are listed
when search analytics are recorded.`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().IntVar(&statusRecent, "recent", 5, "number of recent searches to show (0 to hide)")
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "output graph status as JSON")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	if statusService == nil {
		return errNotConfigured("status")
	}
	ctx := cmd.Context()
	st := stylesFor(cmd.OutOrStdout())

	if statusJSON {
		if len(args) == 0 {
			return outputJSON(cmd, statusService.Health(ctx))
		}
		status, err := statusService.VectorizationStatus(ctx, args)
		if err != nil {
			return fmt.Errorf("status failed: %w", err)
		}
		return outputJSON(cmd, status)
	}

	health := statusService.Health(ctx)
	cmd.Println(st.title.Render(health.Service))
	cmd.Printf("  Status: %s\n", health.Status)
	cmd.Printf("  Time:   %s\n", health.Timestamp)

	if len(args) > 0 {
		status, err := statusService.VectorizationStatus(ctx, args)
		if err != nil {
			return fmt.Errorf("status failed: %w", err)
		}

		cmd.Println()
		cmd.Println(st.title.Render(fmt.Sprintf("Graphs (%d of %d vectorized)",
			status.VectorizedCount, status.TotalGraphs)))
		for _, id := range args {
			gs, ok := status.StatusMap[id]
			if !ok {
				continue
			}
			if gs.IsVectorized {
				cmd.Printf("  %s  %s\n", st.success.Render("✓"), fmt.Sprintf("%s (%d vectors)", id, gs.VectorCount))
			} else {
				cmd.Printf("  %s  %s\n", st.warning.Render("✗"), id+" (not vectorized)")
			}
		}
	}

	if statusRecent > 0 && searchHistory != nil {
		recent, err := searchHistory.Recent(ctx, statusRecent)
		if err != nil {
			cmd.Println(st.warning.Render(fmt.Sprintf("Could not load search history: %v", err)))
			return nil
		}
		if len(recent) > 0 {
			cmd.Println()
			cmd.Println(st.title.Render("Recent searches"))
			for _, r := range recent {
				cmd.Printf("  %s  %-8s %3d results %5dms  %q\n",
					st.muted.Render(r.CreatedAt.Local().Format("2006-01-02 15:04")),
					r.SearchType, r.ResultsCount, r.ResponseTimeMs, r.Query)
			}
		}
	}

	return nil
}
