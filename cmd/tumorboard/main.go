// Package main is the tumorboard entry point: LLM-assisted clinical
// actionability assessment of somatic variants.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/tumorboard/tumorboard/internal/cli"
	"github.com/tumorboard/tumorboard/internal/config"
	"github.com/tumorboard/tumorboard/internal/logging"
)

func main() {
	// A missing .env file is fine; explicit env vars still apply.
	_ = godotenv.Load()

	configManager, err := config.NewManager()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if err := configManager.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration validation failed: %v\n", err)
		os.Exit(1)
	}

	cfg := configManager.GetConfig()
	logger := logging.NewLogger(cfg.Logging)

	app := cli.New(cfg, logger)
	if err := app.Run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
