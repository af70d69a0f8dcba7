package cli

import (
	"fmt"
	"net"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-docs/internal/adapters/driving/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Expose the document index to AI assistants",
	Long:  `Serve the document index over the Model Context Protocol (MCP).`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start an MCP server over the document index.

Tools:
  find_documents    keyword search, typo tolerant unless strict is set
  find_suggestions  corrected queries that match at least one document
  guess_labels      labels the classifiers propose for a document

Resources:
  sercha-docs://labels                    known labels and their colours
  sercha-docs://documents                 indexed documents
  sercha-docs://documents/{documentId}    text of one document

The server talks JSON-RPC over stdio unless --port is given, in which
case it serves streamable HTTP on that port.

Examples:
  sercha-docs mcp serve
  sercha-docs mcp serve --port 8080 --host 0.0.0.0

Client configuration:
  {
    "mcpServers": {
      "sercha-docs": {
        "command": "/path/to/sercha-docs",
        "args": ["mcp", "serve"]
      }
    }
  }`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpServeCmd.Flags().String("host", "127.0.0.1", "HTTP listen address")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}
	host, err := cmd.Flags().GetString("host")
	if err != nil {
		return fmt.Errorf("getting host flag: %w", err)
	}
	if searchService == nil {
		return fmt.Errorf("search service not configured")
	}

	server, err := mcp.NewServer(&mcp.Ports{
		Search:    searchService,
		Labels:    labelService,
		Documents: documentService,
	})
	if err != nil {
		return err
	}

	if port <= 0 {
		return server.Run(cmd.Context())
	}

	ln, err := net.Listen("tcp", net.JoinHostPort(host, fmt.Sprint(port)))
	if err != nil {
		return fmt.Errorf("listening for MCP clients: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "MCP server listening on http://%s\n", ln.Addr())
	return server.RunHTTP(cmd.Context(), ln)
}
