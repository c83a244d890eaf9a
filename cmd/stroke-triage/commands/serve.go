package commands

import (
	"stroke-triage/internal/mcp"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the triage model as MCP tools over stdio",
	RunE: func(cmd *cobra.Command, args []string) error {
		return mcp.NewServer(cfg, params, Version).Start(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
