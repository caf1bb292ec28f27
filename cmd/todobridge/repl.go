package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/caffeineduck/todobridge/hostfunc"
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Interactive shell for calling bridge services",
	Long: `Start an interactive shell that calls bridge services.

Enter a service name followed by an optional JSON object of arguments:
  >>> writeTodos {"json":"[]"}
  >>> readTodos

Features:
  - Command history (up/down arrows)
  - Tab completion of service names
  - History search (Ctrl+R)

Type 'list' to show services, 'exit' or 'quit' to end the session, or press Ctrl+D.`,
	Args: cobra.NoArgs,
	RunE: runRepl,
}

func init() {
	replCmd.Flags().String("history", "", "History file path (default: ~/.todobridge_history)")
	rootCmd.AddCommand(replCmd)
}

func runRepl(cmd *cobra.Command, args []string) error {
	historyFile, _ := cmd.Flags().GetString("history")
	if historyFile == "" {
		home, _ := os.UserHomeDir()
		historyFile = filepath.Join(home, ".todobridge_history")
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	names := a.registry.List()
	items := make([]readline.PrefixCompleterInterface, 0, len(names)+3)
	for _, name := range names {
		items = append(items, readline.PcItem(name))
	}
	items = append(items, readline.PcItem("list"), readline.PcItem("help"), readline.PcItem("exit"))

	rl, err := readline.NewEx(&readline.Config{
		Prompt:            ">>> ",
		HistoryFile:       historyFile,
		HistoryLimit:      1000,
		AutoComplete:      readline.NewPrefixCompleter(items...),
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	})
	if err != nil {
		return fmt.Errorf("initializing readline: %w", err)
	}
	defer rl.Close()

	fmt.Fprintln(os.Stderr, "todobridge shell (type 'list' for services, 'exit' to quit, Ctrl+D to exit)")

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if quit := evalLine(cmd.Context(), a.registry, line, rl.Stdout()); quit {
			return nil
		}
	}
}

// evalLine runs one shell line and reports whether the shell should exit.
func evalLine(ctx context.Context, registry *hostfunc.Registry, line string, w io.Writer) bool {
	line = strings.TrimSpace(line)
	name, rest, _ := strings.Cut(line, " ")

	switch name {
	case "":
		return false
	case "exit", "quit":
		return true
	case "list", "help":
		for _, n := range registry.List() {
			fmt.Fprintln(w, n)
		}
		return false
	}

	args, err := parseCallArgs(rest)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return false
	}
	result, err := registry.Call(ctx, name, args)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return false
	}
	if err := printResult(w, result); err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
	}
	return false
}
