package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/vegvisr/graphvec/internal/core/domain"
)

// snippetWidth bounds snippets in table output.
const snippetWidth = 60

var (
	searchLimit int
	searchType  string
	searchJSON  bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search knowledge graphs",
	Long: `Searches the knowledge-graph corpus.

Search types:
  vector   - nearest-neighbour search over embedded titles, labels and content
  keyword  - substring matching over titles, categories and node text
  hybrid   - both, fused by graph (default)

Hybrid search degrades to the available path when the embedding service
or the corpus listing is unavailable.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", domain.DefaultSearchLimit, "maximum number of graphs")
	searchCmd.Flags().StringVarP(&searchType, "type", "t", string(domain.SearchTypeHybrid), "search type: vector, keyword or hybrid")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if searchService == nil {
		return errNotConfigured("search")
	}

	resp, err := searchService.Search(cmd.Context(), domain.SearchRequest{
		Query:      args[0],
		SearchType: domain.SearchType(searchType),
		Limit:      searchLimit,
	})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputJSON(cmd, resp)
	}
	return outputSearchTable(cmd, resp)
}

func outputJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, resp *domain.SearchResponse) error {
	st := stylesFor(cmd.OutOrStdout())

	if len(resp.Results) == 0 {
		if resp.Message != "" {
			cmd.Println(st.warning.Render(resp.Message))
		} else {
			cmd.Println("No results found.")
		}
		for _, s := range resp.Suggestions {
			cmd.Println(st.muted.Render("  - " + s))
		}
		return nil
	}

	cmd.Println(st.title.Render(fmt.Sprintf("%d results for %q (%s, %dms)",
		resp.TotalResults, resp.Query, resp.SearchType, resp.ResponseTimeMs)))
	cmd.Println()

	rows := make([][]string, 0, len(resp.Results))
	for i, r := range resp.Results {
		snippet := ""
		if len(r.MatchedContent) > 0 {
			snippet = r.MatchedContent[0].Snippet
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			r.GraphID,
			fmt.Sprintf("%.3f", r.RelevanceScore),
			string(r.MatchType),
			clip(snippet, snippetWidth),
		})
	}

	if st.styled {
		t := table.New().
			Border(lipgloss.RoundedBorder()).
			BorderStyle(st.border).
			Headers("#", "GRAPH", "SCORE", "MATCH", "SNIPPET").
			Rows(rows...).
			StyleFunc(func(row, _ int) lipgloss.Style {
				if row == table.HeaderRow {
					return st.header
				}
				return lipgloss.NewStyle().Padding(0, 1)
			})
		cmd.Println(t.String())
		return nil
	}

	for _, row := range rows {
		cmd.Printf("  [%s] %s (%s, %s)\n", row[0], row[1], row[2], row[3])
		if row[4] != "" {
			cmd.Printf("      %s\n", row[4])
		}
	}
	return nil
}

// clip flattens whitespace and cuts s to n runes.
func clip(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}
