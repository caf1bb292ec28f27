package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Move a legacy todos.json into the store",
	Long: `Copy todos.json from the user data directory into the store now, instead of
on the plugin's first read. Nothing is migrated when the store already holds a
todo list.

What happens to the legacy file afterwards is set by --legacy-policy.`,
	Args: cobra.NoArgs,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.bridge.Migrate(cmd.Context())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if !res.Migrated {
		fmt.Fprintf(out, "nothing to migrate: %s\n", res.Reason)
		return nil
	}
	fmt.Fprintf(out, "migrated %s (legacy file %s)\n", res.LegacyPath, res.Action)
	return nil
}
