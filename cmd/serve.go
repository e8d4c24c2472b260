package cmd

import (
	"fmt"

	"github.com/mj1618/desktop-intent/internal/config"
	"github.com/mj1618/desktop-intent/internal/logging"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start an MCP server exposing the automation tools",
	Long: `Start a Model Context Protocol (MCP) server that exposes find, click, type,
select, toggle, expand, wait, read, scroll-find, keyboard and mouse control
as tools. One automation session serves every call, so element ids and held
keys carry over between calls.

Supported transports:
  stdio   Standard I/O (default, for local MCP clients)
  http    Streamable HTTP transport (for remote agents)

When the config came from a file, edits to it are picked up live for
log_level, request_rate, request_burst and request_timeout.

Examples:
  desktop-intent serve
  desktop-intent serve --transport http --address 127.0.0.1:8765`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("transport", "", "Transport: stdio, http")
	serveCmd.Flags().String("address", "", "Listen address for the http transport")
}

func runServe(cmd *cobra.Command, args []string) error {
	if v, _ := cmd.Flags().GetString("transport"); v != "" {
		cfg.Transport = config.Transport(v)
	}
	if v, _ := cmd.Flags().GetString("address"); v != "" {
		cfg.HTTPAddress = v
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	svc, err := newService()
	if err != nil {
		return fmt.Errorf("failed to start automation: %w", err)
	}
	defer func() {
		if !svc.Close(cfg.CloseTimeout) {
			logging.Warn("mcp").Msg("automation thread did not stop in time")
		}
	}()

	return newMCPServer(svc, cfg).serve(cmd.Context(), cfg)
}
