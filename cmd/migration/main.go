package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/riskibarqy/prediction-league/internal/app"
	"github.com/riskibarqy/prediction-league/internal/config"
	"github.com/riskibarqy/prediction-league/internal/platform/logging"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		printUsage()
		return 2
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		return 1
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat).Named("migration")
	defer func() { _ = logger.Sync() }()

	migrator, err := app.NewMigrator(cfg, logger)
	if err != nil {
		logger.Error("build migrator", "error", err)
		return 1
	}
	defer migrator.Close()

	if err := migrator.Run(args[0], args[1:]); err != nil {
		logger.Error("migration failed", "command", args[0], "error", err)
		return 1
	}
	return 0
}

func printUsage() {
	name := filepath.Base(os.Args[0])
	fmt.Fprintf(os.Stderr, "usage: %s <up|down|version|force|goto> [args]\n", name)
	fmt.Fprintln(os.Stderr, "examples:")
	fmt.Fprintf(os.Stderr, "  %s up\n", name)
	fmt.Fprintf(os.Stderr, "  %s down 1\n", name)
	fmt.Fprintf(os.Stderr, "  %s version\n", name)
	fmt.Fprintf(os.Stderr, "  %s force 1776384300\n", name)
	fmt.Fprintf(os.Stderr, "  %s goto 1776384100\n", name)
}
