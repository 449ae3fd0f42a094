package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"ragstore/internal/mcpserver"
)

var mcpPort int

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server exposing document search and
collection listing as tools for AI assistants.

By default the server communicates over stdio using JSON-RPC. Use --port to
serve the streamable HTTP transport instead.

Claude Desktop configuration (claude_desktop_config.json):
  {
    "mcpServers": {
      "ragstore": {
        "command": "/path/to/ragstore",
        "args": ["mcp"]
      }
    }
  }`,
	RunE: runMCP,
}

func init() {
	mcpCmd.Flags().IntVarP(&mcpPort, "port", "p", 0, "HTTP port (0 = use stdio)")
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	app, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	server := mcpserver.NewServer(app.service, app.store)

	if mcpPort > 0 {
		addr := fmt.Sprintf(":%d", mcpPort)
		slog.Info("Starting MCP server", "transport", "http", "addr", addr)
		return server.RunHTTP(ctx, addr)
	}

	slog.Info("Starting MCP server", "transport", "stdio")
	return server.Run(ctx)
}
