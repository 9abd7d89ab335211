package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var (
	analyzeSample int
	analyzeJSON   bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Estimate the indexing workload",
	Long: `Samples graphs from the corpus, counts their nodes by type and
estimates how many vectors a full reindex would create.`,
	Args: cobra.NoArgs,
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().IntVar(&analyzeSample, "sample", 0, "number of graphs to sample (default reindex.sample_size)")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "output the analysis as JSON")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, _ []string) error {
	if statusService == nil {
		return errNotConfigured("status")
	}

	analysis, err := statusService.AnalyzeContent(cmd.Context(), analyzeSample)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	if analyzeJSON {
		return outputJSON(cmd, analysis)
	}

	st := stylesFor(cmd.OutOrStdout())
	cmd.Println(st.title.Render("Content analysis"))
	cmd.Printf("  Graphs:                %d\n", analysis.TotalGraphs)
	cmd.Printf("  Sampled:               %d graphs, %d nodes\n", analysis.SampleSize, analysis.SampledNodes)
	cmd.Printf("  Vectors in sample:     %d\n", analysis.EstimatedVectors)
	cmd.Printf("  Estimated total nodes: %d\n", analysis.EstimatedTotalNodes)
	cmd.Printf("  Estimated vectors:     %d\n", analysis.EstimatedTotalVectors)
	cmd.Printf("  Vectorized graphs:     %d\n", analysis.CurrentlyVectorized)
	cmd.Printf("  Needing vectorization: %d\n", analysis.NeedsVectorization)
	if analysis.FetchErrors > 0 {
		cmd.Println(st.warning.Render(fmt.Sprintf("  %d sampled graphs could not be fetched", analysis.FetchErrors)))
	}

	if len(analysis.ContentTypes) > 0 {
		types := make([]string, 0, len(analysis.ContentTypes))
		for t := range analysis.ContentTypes {
			types = append(types, t)
		}
		sort.Strings(types)

		cmd.Println()
		cmd.Println(st.title.Render("Node types"))
		for _, t := range types {
			cmd.Printf("  %-20s %d\n", t, analysis.ContentTypes[t])
		}
	}

	if len(analysis.SampleContent) > 0 {
		cmd.Println()
		cmd.Println(st.title.Render("Samples"))
		for _, s := range analysis.SampleContent {
			cmd.Printf("  %s/%s %s\n", s.GraphID, s.NodeID, st.muted.Render("["+s.ContentType+"]"))
			cmd.Printf("      %s\n", clip(s.ContentPreview, snippetWidth))
		}
	}
	return nil
}
