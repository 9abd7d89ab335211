package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vegvisr/graphvec/internal/adapters/driving/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Model Context Protocol integration",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Expose graphvec to MCP clients",
	Long: `Expose search, index_graph, reindex_all and vectorization_status as MCP
tools, plus health and analysis resources.

Without --addr the server speaks JSON-RPC on stdin/stdout, which is what
desktop assistants launch. With --addr it serves streamable HTTP.

  graphvec mcp serve
  graphvec mcp serve --addr 127.0.0.1:8788`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().String("addr", "", "serve streamable HTTP on this address instead of stdio")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	addr, _ := cmd.Flags().GetString("addr")

	server, err := mcp.NewServer(&mcp.Ports{
		Search:  searchService,
		Index:   indexService,
		Reindex: reindexService,
		Status:  statusService,
	}, mcp.WithVersion(version))
	if err != nil {
		return err
	}

	if addr == "" {
		return server.Run(cmd.Context())
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "MCP endpoint: http://%s\n", displayAddr(addr))
	return server.RunHTTP(cmd.Context(), addr)
}

// displayAddr turns ":8788" into "localhost:8788" for printing.
func displayAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}
