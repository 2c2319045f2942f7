// cmd/glance/main.go
//
// Entry point for the glance CLI: turn a commit range into grouped,
// AI-summarized release notes.
//
// Flow:
// 1. Load .env (if present) for OPENAI_API_KEY / GITHUB_TOKEN
// 2. Parse flags into validated options
// 3. Run the pipeline (or --check diagnostics)
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/kingrea/git-glance/internal/app"
)

func main() {
	// Missing .env is fine; the environment may already be populated.
	_ = godotenv.Load()

	var flags app.FlagValues
	flag.StringVar(&flags.Release, "release", "", "release reference to use as the range tip (default HEAD)")
	flag.StringVar(&flags.Release, "r", "", "shorthand for -release")
	flag.StringVar(&flags.Last, "last", "", "baseline reference for the range (default: latest tag)")
	flag.StringVar(&flags.Last, "l", "", "shorthand for -last")
	flag.StringVar(&flags.RepoDir, "repo", ".", "path to the git repository")
	flag.IntVar(&flags.Workers, "workers", 0, "concurrent external calls (default: from config)")
	flag.BoolVar(&flags.Check, "check", false, "check external tool and credential availability, then exit")
	flag.Parse()

	opts, err := app.OptionsFromFlags(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := app.Run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
