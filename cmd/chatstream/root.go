package main

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/i2y/chatstream/config"
	"github.com/i2y/chatstream/openai"
	"github.com/i2y/chatstream/provider"
)

// Version is set via ldflags at build time.
var Version = "dev"

type rootOptions struct {
	cfgFile string
	envFile string
	verbose bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "chatstream",
		Short: "Stream chat completions from OpenAI-compatible servers",
		Long: `chatstream sends conversations to an OpenAI-compatible chat completions
endpoint, prints the reply as it streams and marks the end of each response.
Request files are YAML or JSON; run "chatstream schema" for their format.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// A missing .env file is not an error.
			_ = godotenv.Load(opts.envFile)
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.cfgFile, "config", "chatstream.yaml", "config file path")
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before the config")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log at debug level")

	cmd.AddCommand(
		newRunCmd(opts),
		newServeCmd(opts),
		newSchemaCmd(),
		newVersionCmd(),
	)
	return cmd
}

// setup loads settings, builds the logger and registers the configured
// provider.
func (o *rootOptions) setup() (*config.Settings, *zap.Logger, error) {
	settings, err := config.Load(o.cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	if o.verbose {
		settings.LogLevel = "debug"
	}
	if err := settings.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}

	logger, err := config.NewLogger(settings)
	if err != nil {
		return nil, nil, err
	}

	provider.Register("openai", func() (provider.StreamingProvider, error) {
		return openai.New(
			openai.WithReadTimeout(settings.ReadTimeout),
			openai.WithLogger(logger),
		)
	})
	if !provider.IsRegistered(settings.Provider) {
		return nil, nil, fmt.Errorf("unknown provider %q (available: %v)", settings.Provider, provider.Available())
	}

	return settings, logger, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version of chatstream",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "chatstream %s\n", Version)
		},
	}
}
