package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/caffeineduck/todobridge/internal/config"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show directories, stored keys and sync state",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()
	return a.printStatus(cmd.Context(), cmd.OutOrStdout())
}

func (a *app) printStatus(ctx context.Context, w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintf(tw, "downloads\t%s\n", a.cfg.Paths.Downloads)
	fmt.Fprintf(tw, "user data\t%s\n", a.cfg.Paths.UserData)
	if a.cfg.Store.Driver == config.DriverSQLite {
		fmt.Fprintf(tw, "store\t%s (%s)\n", a.cfg.Store.Driver, a.cfg.StoreDir())
	} else {
		fmt.Fprintf(tw, "store\t%s\n", a.cfg.Store.Driver)
	}
	if a.replica != nil {
		fmt.Fprintf(tw, "replica\t%s (device %s)\n", a.replica.Dir(), a.replica.Device())
		if err := a.replica.LastError(); err != nil {
			fmt.Fprintf(tw, "replica error\t%v\n", err)
		}
	} else {
		fmt.Fprintf(tw, "replica\tdisabled\n")
	}

	status, err := a.bridge.CloudSyncState()
	if err != nil {
		fmt.Fprintf(tw, "cloud sync\terror: %v\n", err)
	} else {
		data, _ := json.Marshal(status)
		fmt.Fprintf(tw, "cloud sync\t%s\n", data)
	}

	keys, err := a.store.Keys(ctx)
	if err != nil {
		tw.Flush()
		return fmt.Errorf("listing keys: %w", err)
	}
	slices.Sort(keys)
	fmt.Fprintf(tw, "keys\t%d\n", len(keys))
	for _, key := range keys {
		value, ok, err := a.store.Get(ctx, key)
		if err != nil || !ok {
			continue
		}
		fmt.Fprintf(tw, "  %s\t%s\n", key, humanize.Bytes(uint64(len(value))))
	}
	return tw.Flush()
}
