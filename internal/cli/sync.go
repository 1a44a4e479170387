package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/lk9900/pojedi/internal/store"
)

// NewPullCommand creates the pull command.
func NewPullCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "pull",
		Short: "Replace the local cache with the remote image",
		Long: `Fetch the remote database image and replace the local cache file.

Discards local-only changes. Use this to reconcile an instance whose
uploads were rejected because another instance moved the remote forward.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, cfg, err := openStore(rootOpts)
			if err != nil {
				return err
			}
			defer st.Close()

			if cfg.Mode() != store.ModeGitHub {
				return fmt.Errorf("pull requires github mode (store.mode is %q)", cfg.Store.Mode)
			}

			if err := st.Pull(cmd.Context()); err != nil {
				return err
			}
			slog.Info("pulled remote image", "path", cfg.Store.CachePath)
			return nil
		},
	}
}

// NewPushCommand creates the push command.
func NewPushCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "push",
		Short: "Upload the local image to the remote store",
		Long: `Upload the current local database image to the remote store.

Fails if the remote has moved past the locally known version; pull first
and re-apply local changes if so.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, cfg, err := openStore(rootOpts)
			if err != nil {
				return err
			}
			defer st.Close()

			if cfg.Mode() != store.ModeGitHub {
				return fmt.Errorf("push requires github mode (store.mode is %q)", cfg.Store.Mode)
			}

			outcome, err := st.Push(cmd.Context())
			if err != nil {
				return fmt.Errorf("push (%s): %w", outcome, err)
			}
			slog.Info("pushed local image")
			return nil
		},
	}
}
