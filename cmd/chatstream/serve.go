package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/i2y/chatstream/host"
	"github.com/i2y/chatstream/mcp"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start an MCP server on stdio",
		Long: `Starts a Model Context Protocol server on stdio exposing the chat_completion
tool. Streamed text is echoed to stderr since stdout carries the protocol.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, logger, err := root.setup()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			handler := host.New(
				host.WithProvider(settings.Provider),
				host.WithDefaults(host.Defaults{
					BaseURL: settings.BaseURL,
					APIKey:  settings.APIKey,
					Model:   settings.Model,
				}),
				host.WithSink(cmd.ErrOrStderr()),
				host.WithLogger(logger),
			)

			srv := mcp.NewServer(handler, Version, mcp.WithLogger(logger))
			if err := srv.Serve(cmd.Context()); err != nil {
				return fmt.Errorf("mcp server: %w", err)
			}
			return nil
		},
	}
}
