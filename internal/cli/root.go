// Package cli wires the pojedi commands.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/lk9900/pojedi/internal/config"
	"github.com/lk9900/pojedi/internal/github"
	"github.com/lk9900/pojedi/internal/store"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Config  string
}

// NewRootCommand creates the root command for the pojedi CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "pojedi",
		Short: "Personal meal tracker",
		Long: `A small meal-tracking service: restaurants, menu sections, meals.

The SQLite database image is kept in a local file and, in github mode,
synced to a file in a GitHub repository after every mutation.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			configureLogging(opts.Verbose)
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Config, "config", "", "path to config file")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewInitCommand(opts))
	cmd.AddCommand(NewPullCommand(opts))
	cmd.AddCommand(NewPushCommand(opts))

	return cmd
}

func configureLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

func loadConfig(opts *RootOptions) (config.Config, error) {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// openStore loads configuration and constructs the durable store.
func openStore(opts *RootOptions) (*store.Store, config.Config, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, config.Config{}, err
	}

	storeOpts := []store.Option{store.WithLogger(slog.Default())}
	if cfg.Mode() == store.ModeGitHub {
		storeOpts = append(storeOpts, store.WithRemote(github.NewClient(cfg.GitHub, nil)))
	}

	st, err := store.Open(store.Config{
		CachePath: cfg.Store.CachePath,
		Mode:      cfg.Mode(),
	}, storeOpts...)
	if err != nil {
		return nil, config.Config{}, err
	}
	return st, cfg, nil
}
