package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

// exitInterrupted follows the shell convention for SIGINT (128 + 2).
const exitInterrupted = 130

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cmd := newRootCommand()
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		if errors.Is(err, errEncodeCancelled) || errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, "encode cancelled")
			return exitInterrupted
		}
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
