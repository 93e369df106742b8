package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/i2y/chatstream/host"
	"github.com/i2y/chatstream/requestfile"
)

type runOptions struct {
	model   string
	baseURL string
}

func newRunCmd(root *rootOptions) *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run <request-file|glob>...",
		Short: "Run completions for request files",
		Long: `Runs each matching request file in order, printing the reply as it streams.
Patterns may use ** to match any depth, e.g. "requests/**/*.yaml".
Fields missing from a request file are taken from the config.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, logger, err := root.setup()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			if opts.model != "" {
				settings.Model = opts.model
			}
			if opts.baseURL != "" {
				settings.BaseURL = opts.baseURL
			}

			files, err := requestfile.Expand(args)
			if err != nil {
				return err
			}

			handler := host.New(
				host.WithProvider(settings.Provider),
				host.WithDefaults(host.Defaults{
					BaseURL: settings.BaseURL,
					APIKey:  settings.APIKey,
					Model:   settings.Model,
				}),
				host.WithSink(cmd.OutOrStdout()),
				host.WithLogger(logger),
			)

			failed := 0
			for _, file := range files {
				if err := runFile(cmd, handler, file); err != nil {
					failed++
					logger.Debug("request failed", zap.String("file", file), zap.Error(err))
					fmt.Fprintf(cmd.ErrOrStderr(), "Error: %s: %v\n", file, err)
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d requests failed", failed, len(files))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.model, "model", "", "model to use when a request file has none")
	cmd.Flags().StringVar(&opts.baseURL, "base-url", "", "server root to use when a request file has none")
	return cmd
}

func runFile(cmd *cobra.Command, handler *host.Handler, file string) error {
	doc, err := requestfile.Load(file)
	if err != nil {
		return err
	}
	req, err := doc.Request()
	if err != nil {
		return err
	}

	result := handler.Completion(cmd.Context(), req)
	if !result.OK() {
		return errors.New(result.Err)
	}
	return nil
}
