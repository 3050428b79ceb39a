package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"counsel/adapters/store"
	mcpserver "counsel/internal/mcp"

	"counsel/internal/logging"
)

var mcpFlags struct {
	db string
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server over stdio",
	Long: `Starts an MCP server over stdin/stdout so an agent client can list cases,
record timeline entries and pull assessments as tools.

The server monitors for parent process death and self-terminates when the
client disconnects, to prevent zombie processes.`,
	RunE: runMCP,
}

func init() {
	mcpCmd.Flags().StringVar(&mcpFlags.db, "db", store.DefaultDBPath, "Store DB path")
}

func runMCP(cmd *cobra.Command, _ []string) error {
	st, err := store.Open(mcpFlags.db)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	srv := mcpserver.NewServer(st, nil)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	mcpserver.WatchParent(ctx, cancel)

	logging.New("mcp").Info("starting counsel MCP server over stdio (parent watchdog active)")
	return srv.Run(ctx, &sdkmcp.StdioTransport{})
}
