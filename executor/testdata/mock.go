//go:build wasip1

// Mock language for testing executor logic without a real interpreter.
// Build with: GOOS=wasip1 GOARCH=wasm go build -o mock.wasm mock.go
//
// The script is passed as the first argument, one command per line:
//
//	print <text>          write text to stdout
//	eprint <text>         write text to stderr
//	call <fn> <json>      make a host call and print the raw response line
//	exit <code>           exit with code
//	spin                  loop forever
package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

func main() {
	if len(os.Args) < 2 {
		return
	}
	stdin := bufio.NewReader(os.Stdin)

	for _, line := range strings.Split(os.Args[1], "\n") {
		cmd, rest, _ := strings.Cut(strings.TrimSpace(line), " ")
		switch cmd {
		case "print":
			fmt.Println(rest)
		case "eprint":
			fmt.Fprintln(os.Stderr, rest)
		case "call":
			fn, args, _ := strings.Cut(rest, " ")
			if args == "" {
				args = "{}"
			}
			fmt.Fprintf(os.Stderr, "\x00BRIDGE:{\"fn\":%q,\"args\":%s}\x00", fn, args)
			resp, err := stdin.ReadString('\n')
			if err != nil {
				fmt.Fprintln(os.Stderr, "read response:", err)
				os.Exit(3)
			}
			fmt.Print(resp)
		case "exit":
			code, _ := strconv.Atoi(rest)
			os.Exit(code)
		case "spin":
			for {
			}
		}
	}
}
