package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/caffeineduck/todobridge/executor"
	"github.com/caffeineduck/todobridge/language/javascript"
)

var runCmd = &cobra.Command{
	Use:   "run [file] [args...]",
	Short: "Run a plugin script in the sandbox",
	Long: `Run a JavaScript plugin script in a WebAssembly sandbox with the bridge
services bound to the global 'services' object.

The embedded QuickJS WASI interpreter is used unless executor.runtime in the
config or $TODOBRIDGE_QJS_WASM names another build.

Code can be provided via:
  - File argument: todobridge run plugin.js
  - Inline flag: todobridge run -c 'console.log(services.readTodos())'
  - Stdin: echo 'console.log(services.readSettings())' | todobridge run

Remaining arguments reach the script as scriptArgs. With -c every positional
argument is a script argument.`,
	Args: cobra.ArbitraryArgs,
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringP("code", "c", "", "Code to execute")
	runCmd.Flags().Duration("timeout", 0, "Execution timeout (default from config: 30s)")
	runCmd.Flags().String("memory", "", "Memory limit, e.g. 64MB (default from config: no limit)")
	runCmd.Flags().Bool("no-cache", false, "Disable compilation cache")
	rootCmd.AddCommand(runCmd)
}

// readSource returns the script and the arguments passed through to it.
func readSource(cmd *cobra.Command, args []string) (string, []string, error) {
	code, _ := cmd.Flags().GetString("code")
	switch {
	case code != "":
		return code, args, nil
	case len(args) > 0:
		data, err := os.ReadFile(args[0])
		if err != nil {
			return "", nil, fmt.Errorf("reading file: %w", err)
		}
		return string(data), args[1:], nil
	default:
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", nil, fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil, nil
	}
}

func runRun(cmd *cobra.Command, args []string) error {
	source, scriptArgs, err := readSource(cmd, args)
	if err != nil {
		return err
	}
	if source == "" {
		return fmt.Errorf("no code provided: use a file, -c, or stdin")
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	if f := cmd.Flags().Lookup("timeout"); f.Changed {
		a.cfg.Executor.Timeout, _ = cmd.Flags().GetDuration("timeout")
	}
	if f := cmd.Flags().Lookup("memory"); f.Changed {
		a.cfg.Executor.Memory = f.Value.String()
	}
	pages, err := a.cfg.MemoryPages()
	if err != nil {
		return fmt.Errorf("memory limit: %w", err)
	}

	js, err := javascript.LoadDefault(a.cfg.Executor.Runtime)
	if err != nil {
		return err
	}

	execOpts := []executor.ExecutorOption{
		executor.WithLogger(a.logger.With("component", "executor")),
	}
	if noCache, _ := cmd.Flags().GetBool("no-cache"); !noCache {
		execOpts = append(execOpts, executor.WithDiskCache())
	}
	if pages > 0 {
		execOpts = append(execOpts, executor.WithMemoryLimit(pages))
	}

	exec, err := executor.New(a.registry, execOpts...)
	if err != nil {
		return err
	}
	defer exec.Close()

	result := exec.Run(cmd.Context(), js, source,
		executor.WithTimeout(a.cfg.Executor.Timeout),
		executor.WithScriptArgs(scriptArgs...),
	)
	fmt.Fprint(cmd.OutOrStdout(), result.Output)
	a.logger.Debug("script finished", "duration", result.Duration, "calls", result.Calls)
	return result.Error
}
