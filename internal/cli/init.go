package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/lk9900/pojedi/internal/engine"
	"github.com/lk9900/pojedi/internal/schema"
)

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a local database file with the schema",
		Long: `Create (or verify) a local database file with the meal tracker schema.

Safe to re-run: tables are created only if absent.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := dbPath
			if path == "" {
				cfg, err := loadConfig(rootOpts)
				if err != nil {
					return err
				}
				path = cfg.Store.CachePath
			}

			eng, err := engine.Open(path)
			if err != nil {
				return err
			}
			defer eng.Close()

			ctx := cmd.Context()
			if err := schema.Apply(ctx, eng); err != nil {
				return err
			}
			slog.Info("database initialized", "path", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "database file (overrides config)")

	return cmd
}
