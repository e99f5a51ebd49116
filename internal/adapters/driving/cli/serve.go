package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragsync/internal/adapters/driving/mcp"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server so AI assistants can index
files and remove indexed documents.

Tools:
  process_file_for_rag        index a file given by path or base64 content
  delete_document_by_file_id  remove everything indexed for a file id

By default the server speaks JSON-RPC over stdio. Use --http to serve
streamable HTTP instead.

Examples:
  # Stdio mode (for desktop assistants)
  ragsync serve

  # HTTP mode (for MCP Inspector, remote access)
  ragsync serve --http :8080`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var serveHTTPAddr string

func init() {
	serveCmd.Flags().StringVar(&serveHTTPAddr, "http", "", "Serve streamable HTTP on this address instead of stdio")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	wc, err := a.watcherConfig()
	if err != nil {
		return err
	}
	_, indexer, err := a.pipeline(ctx, wc)
	if err != nil {
		return err
	}

	server, err := mcp.NewServer(&mcp.Ports{
		Ingestion: indexer,
		Documents: indexer,
	})
	if err != nil {
		return err
	}

	if serveHTTPAddr != "" {
		cmd.PrintErrf("MCP server listening on http://%s\n", serveHTTPAddr)
		return server.RunHTTP(ctx, serveHTTPAddr)
	}
	return server.Run(ctx)
}
