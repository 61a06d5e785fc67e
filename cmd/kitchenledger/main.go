package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/vsinha/kitchenledger/pkg/interfaces/cli/commands"
)

func main() {
	// Command line flags
	var (
		configFile  = flag.String("config", "", "Path to config file (default: ./kitchenledger.yaml when present)")
		format      = flag.String("format", "text", "Output format: text, json")
		seedDir     = flag.String("seed", "", "Seed directory imported before the command runs")
		journalFile = flag.String("journal", "", "Event journal loaded before and saved after the command")
		metricsFile = flag.String("metrics", "", "Write Prometheus metrics to this file after the command")
		verbose     = flag.Bool("verbose", false, "Enable debug logging")
		help        = flag.Bool("help", false, "Show help message")
	)

	flag.Parse()

	config := commands.Config{
		ConfigFile:  *configFile,
		Format:      *format,
		SeedDir:     *seedDir,
		JournalFile: *journalFile,
		MetricsFile: *metricsFile,
		Verbose:     *verbose,
		Help:        *help,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := commands.NewCommand(config, os.Stdout)
	if err := cmd.Execute(ctx, flag.Args()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
