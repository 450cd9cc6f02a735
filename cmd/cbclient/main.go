package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/kanoloa/cbclient/cmd/cbclient/commands"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rootCmd := commands.NewRootCommand(version, commit, date)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(commands.ExitCode(err))
	}
}
