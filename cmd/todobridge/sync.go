package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var errNoReplica = errors.New("replication is not configured: set replica.dir or --replica-dir")

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Pull records from the sync directory",
	Long: `Apply records other devices have published to the sync directory.

With --watch the directory is watched and changes are applied until interrupted.`,
	Args: cobra.NoArgs,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().BoolP("watch", "w", false, "Keep watching the sync directory")
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Replica.Dir == "" {
		return errNoReplica
	}
	a, err := newApp(cfg, newLogger(cfg, cmd.ErrOrStderr()))
	if err != nil {
		return err
	}
	defer a.Close()

	if watch, _ := cmd.Flags().GetBool("watch"); watch {
		fmt.Fprintf(cmd.ErrOrStderr(), "watching %s (Ctrl+C to stop)\n", a.replica.Dir())
		return a.replica.Watch(cmd.Context())
	}

	applied, err := a.replica.Pull(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "pulled %d records from %s\n", applied, a.replica.Dir())
	return nil
}
