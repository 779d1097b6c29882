package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/alecthomas/kong"

	"github.com/okian/prospect/internal/seed"
	"github.com/okian/prospect/pkg/logger"
)

// CLI holds the seeder's flags.
var CLI struct {
	URL      string        `help:"Base URL of the service." default:"http://localhost:9080" env:"PROSPECT_SEED_URL"`
	Athletes int           `help:"Number of athletes to generate." default:"200"`
	Days     int           `help:"Days of history per athlete, ending today." default:"30"`
	Top      int           `help:"Number of leaderboard entries to verify." default:"50"`
	Workers  int           `help:"Number of concurrent submitters (default: CPU cores * 2)."`
	Timeout  time.Duration `help:"HTTP request timeout." default:"30s"`
	Deadline time.Duration `help:"Overall run deadline." default:"10m"`
	Seed     uint64        `help:"Generator seed." default:"1"`
	Verbose  bool          `help:"Log every athlete as it is submitted." short:"v"`
}

func main() {
	kong.Parse(&CLI,
		kong.Name("prospect-seed"),
		kong.Description("Seed a prospect service with generated athletes and verify the leaderboard."),
		kong.UsageOnError(),
	)

	if err := logger.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logging: %v\n", err)
		os.Exit(1)
	}

	err := run()
	_ = logger.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	workers := CLI.Workers
	if workers < 1 {
		workers = runtime.NumCPU() * 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, CLI.Deadline)
	defer cancel()

	_, err := seed.Run(ctx, &seed.Config{
		BaseURL:  CLI.URL,
		Athletes: CLI.Athletes,
		Days:     CLI.Days,
		TopN:     CLI.Top,
		Workers:  workers,
		Timeout:  CLI.Timeout,
		Seed:     CLI.Seed,
		Verbose:  CLI.Verbose,
	})
	return err
}
