// Command scaffold generates scaffold structure graphs and manages their
// revisions, takeoffs and publication.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/roach88/scaffold/internal/cli"
)

func main() {
	// Minimal logger until the root command installs the configured one.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	if err := cli.NewRootCommand().Execute(); err != nil {
		if !cli.IsReported(err) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(cli.GetExitCode(err))
	}
}
