package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"adlens/internal/app"
	"adlens/internal/config"
)

func newServeCmd() *cobra.Command {
	var envFile string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the audit HTTP server",
		Long:  "Starts the REST API and the report UI. Configuration comes from the environment (LDAP_URL, LDAP_BASE_DN, ADLENS_*); an optional .env file fills in what the environment leaves unset.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.LoadDotEnv(envFile); err != nil {
				return err
			}
			cfg, err := config.LoadFromEnv()
			if err != nil {
				return err
			}

			logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
			for _, warning := range cfg.Warnings {
				logger.Warn(warning)
			}

			a, err := app.New(cfg, logger)
			if err != nil {
				return err
			}
			return a.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", ".env", "path to an optional .env file")
	return cmd
}
