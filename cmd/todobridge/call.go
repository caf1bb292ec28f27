package main

import (
	"github.com/spf13/cobra"
)

var callCmd = &cobra.Command{
	Use:   "call <service> [json-args]",
	Short: "Call one bridge service",
	Long: `Call a bridge service by name and print its result.

Arguments are a single JSON object. String results are printed as-is; other
results are printed as JSON.

Examples:
  todobridge call readTodos
  todobridge call writeTodos '{"json":"[{\"title\":\"milk\"}]"}'
  todobridge call writeTextFile '{"text":"exported"}'
  todobridge call cloudSyncState`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runCall,
}

func init() {
	rootCmd.AddCommand(callCmd)
}

func runCall(cmd *cobra.Command, args []string) error {
	var raw string
	if len(args) == 2 {
		raw = args[1]
	}
	callArgs, err := parseCallArgs(raw)
	if err != nil {
		return err
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.registry.Call(cmd.Context(), args[0], callArgs)
	if err != nil {
		return err
	}
	return printResult(cmd.OutOrStdout(), result)
}
