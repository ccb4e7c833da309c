// Package cli implements the tumorboard command-line interface.
package cli

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/tumorboard/tumorboard/internal/api"
	"github.com/tumorboard/tumorboard/internal/domain"
	"github.com/tumorboard/tumorboard/internal/engine"
	"github.com/tumorboard/tumorboard/internal/history"
	"github.com/tumorboard/tumorboard/internal/llm"
	"github.com/tumorboard/tumorboard/internal/validation"
	"github.com/tumorboard/tumorboard/pkg/external"
)

// CLI dispatches tumorboard subcommands.
type CLI struct {
	config *domain.Config
	logger *logrus.Logger
}

// New creates a CLI bound to loaded configuration.
func New(config *domain.Config, logger *logrus.Logger) *CLI {
	return &CLI{
		config: config,
		logger: logger,
	}
}

// Run executes the subcommand named by args[0]. It returns an error for any
// failure the command could not recover from; the caller maps that to a
// non-zero exit.
func (c *CLI) Run(args []string) error {
	if len(args) == 0 {
		c.showHelp()
		return fmt.Errorf("no command given")
	}

	switch args[0] {
	case "assess":
		return c.runAssess(args[1:])
	case "batch":
		return c.runBatch(args[1:])
	case "validate":
		return c.runValidate(args[1:])
	case "serve":
		return c.runServe(args[1:])
	case "history":
		return c.runHistory(args[1:])
	case "version":
		fmt.Printf("tumorboard %s\n", api.Version)
		return nil
	case "help", "--help", "-h":
		c.showHelp()
		return nil
	default:
		c.showHelp()
		return fmt.Errorf("unknown command: %s", args[0])
	}
}

func (c *CLI) showHelp() {
	help := `
Tumorboard - LLM-assisted variant actionability assessment

Usage:
  tumorboard <command> [options]

Commands:
  assess    Assess a single variant
  batch     Assess a batch of variants from a JSON file
  validate  Benchmark the pipeline against a gold-standard dataset
  serve     Run the HTTP API server
  history   List past assessments
  version   Print the version

Examples:
  # Assess one variant
  tumorboard assess --gene BRAF --variant V600E --tumor-type Melanoma

  # Assess a batch and write results to a file
  tumorboard batch --input variants.json --output results.json

  # Run the benchmark
  tumorboard validate --dataset gold_standard.json

  # Start the API server
  tumorboard serve
`
	fmt.Println(help)
}

// buildEngine wires the full pipeline from configuration. The returned
// cleanup closes the history store when one was opened.
func (c *CLI) buildEngine() (*engine.Engine, *history.SQLiteStore, func(), error) {
	myvariant := external.NewMyVariantClient(c.config.MyVariant)
	evidence, err := external.NewResilientEvidenceClient(myvariant, c.config.MyVariant.CacheSize, c.logger)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to create evidence client: %w", err)
	}

	completions := llm.NewOpenAIClient(c.config.LLM)
	assessor := llm.NewService(completions, c.config.LLM, c.logger)

	opts := []engine.Option{
		engine.WithMaxConcurrent(c.config.Assessment.MaxConcurrent),
	}

	var store *history.SQLiteStore
	cleanup := func() {}
	if c.config.History.Enabled {
		store, err = history.NewSQLiteStore(c.config.History.Path)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to open history store: %w", err)
		}
		cleanup = func() { store.Close() }
		opts = append(opts, engine.WithRecorder(store))
	}

	return engine.New(evidence, assessor, c.logger, opts...), store, cleanup, nil
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func (c *CLI) runAssess(args []string) error {
	flags := flag.NewFlagSet("assess", flag.ContinueOnError)
	gene := flags.String("gene", "", "gene symbol (required)")
	variant := flags.String("variant", "", "variant notation (required)")
	tumorType := flags.String("tumor-type", "", "tumor type for clinical context")
	output := flags.String("output", "", "write the assessment JSON to this file")
	if err := flags.Parse(args); err != nil {
		return err
	}

	input := domain.VariantInput{Gene: *gene, Variant: *variant, TumorType: *tumorType}
	if err := input.Validate(); err != nil {
		return err
	}

	assessmentEngine, _, cleanup, err := c.buildEngine()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := signalContext()
	defer cancel()

	assessment, err := assessmentEngine.AssessVariant(ctx, input)
	if err != nil {
		return err
	}

	fmt.Println(assessment.Report())

	if *output != "" {
		if err := writeJSON(*output, assessment); err != nil {
			return err
		}
		fmt.Printf("\nAssessment written to %s\n", *output)
	}
	return nil
}

// loadBatchInputs reads a batch input file: a JSON array of variant
// objects. Every entry must carry a gene and a variant.
func loadBatchInputs(path string) ([]domain.VariantInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read input file: %w", err)
	}
	var variants []domain.VariantInput
	if err := json.Unmarshal(data, &variants); err != nil {
		return nil, fmt.Errorf("failed to parse input file %s: %w", path, err)
	}
	if len(variants) == 0 {
		return nil, fmt.Errorf("input file %s contains no variants", path)
	}
	for i, v := range variants {
		if err := v.Validate(); err != nil {
			return nil, fmt.Errorf("variant %d: %w", i, err)
		}
	}
	return variants, nil
}

func (c *CLI) runBatch(args []string) error {
	flags := flag.NewFlagSet("batch", flag.ContinueOnError)
	input := flags.String("input", "", "JSON file with the variants to assess (required)")
	output := flags.String("output", "", "write the results JSON to this file")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if *input == "" {
		return fmt.Errorf("--input is required")
	}

	variants, err := loadBatchInputs(*input)
	if err != nil {
		return err
	}

	assessmentEngine, _, cleanup, err := c.buildEngine()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := signalContext()
	defer cancel()

	outcome, err := assessmentEngine.BatchAssess(ctx, variants)
	if err != nil {
		return err
	}

	printBatchSummary(outcome)

	if *output != "" {
		result := map[string]any{
			"assessments":       outcome.Assessments,
			"tier_distribution": outcome.TierDistribution(),
		}
		if err := writeJSON(*output, result); err != nil {
			return err
		}
		fmt.Printf("\nResults written to %s\n", *output)
	}

	if len(outcome.Assessments) == 0 {
		return fmt.Errorf("all %d variants failed to assess", len(outcome.Failed))
	}
	return nil
}

func printBatchSummary(outcome *engine.BatchOutcome) {
	fmt.Printf("\nBatch complete: %d succeeded, %d failed\n",
		len(outcome.Assessments), len(outcome.Failed))

	distribution := outcome.TierDistribution()
	if len(distribution) > 0 {
		fmt.Println("\nTier distribution:")
		for _, tier := range domain.OrderedTiers {
			if count, ok := distribution[tier.String()]; ok {
				fmt.Printf("  %s: %d\n", tier, count)
			}
		}
		if count, ok := distribution[domain.TierUnknown.String()]; ok {
			fmt.Printf("  %s: %d\n", domain.TierUnknown, count)
		}
	}

	for _, failure := range outcome.Failed {
		fmt.Printf("  FAILED %s: %v\n", failure.Input.Label(), failure.Err)
	}
}

func (c *CLI) runValidate(args []string) error {
	flags := flag.NewFlagSet("validate", flag.ContinueOnError)
	dataset := flags.String("dataset", "", "gold-standard JSON file (required)")
	output := flags.String("output", "", "write the metrics JSON to this file")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if *dataset == "" {
		return fmt.Errorf("--dataset is required")
	}

	entries, err := validation.LoadGoldStandard(*dataset)
	if err != nil {
		return err
	}

	assessmentEngine, _, cleanup, err := c.buildEngine()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := signalContext()
	defer cancel()

	runner := validation.NewRunner(assessmentEngine, c.config.Validation.MaxConcurrent, c.logger)
	metrics, err := runner.Run(ctx, entries)
	if err != nil {
		return err
	}

	fmt.Println(metrics.Report())

	if *output != "" {
		if err := writeJSON(*output, metrics); err != nil {
			return err
		}
		fmt.Printf("\nMetrics written to %s\n", *output)
	}
	return nil
}

func (c *CLI) runServe(args []string) error {
	flags := flag.NewFlagSet("serve", flag.ContinueOnError)
	if err := flags.Parse(args); err != nil {
		return err
	}

	assessmentEngine, store, cleanup, err := c.buildEngine()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := signalContext()
	defer cancel()

	var reader api.HistoryReader
	if store != nil {
		reader = store
	}
	server := api.NewServer(c.config, assessmentEngine, reader, c.logger)
	return server.Start(ctx)
}

func (c *CLI) runHistory(args []string) error {
	flags := flag.NewFlagSet("history", flag.ContinueOnError)
	limit := flags.Int("limit", 20, "maximum entries to show")
	export := flags.String("export", "", "export the full history JSON to this file")
	if err := flags.Parse(args); err != nil {
		return err
	}

	if !c.config.History.Enabled {
		return fmt.Errorf("history store is disabled in configuration")
	}

	store, err := history.NewSQLiteStore(c.config.History.Path)
	if err != nil {
		return fmt.Errorf("failed to open history store: %w", err)
	}
	defer store.Close()

	ctx, cancel := signalContext()
	defer cancel()

	if *export != "" {
		f, err := os.Create(*export)
		if err != nil {
			return fmt.Errorf("failed to create export file: %w", err)
		}
		defer f.Close()
		if err := store.ExportJSON(ctx, f); err != nil {
			return err
		}
		fmt.Printf("History exported to %s\n", *export)
		return nil
	}

	entries, err := store.List(ctx, *limit, 0)
	if err != nil {
		return err
	}
	total, err := store.Count(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Assessment history (%d total):\n\n", total)
	for _, entry := range entries {
		fmt.Printf("%s  %-8s %-12s %-20s %s (%.1f%%)\n",
			entry.CreatedAt.Format("2006-01-02 15:04"),
			entry.Gene, entry.Variant, entry.TumorType,
			entry.Tier, entry.Confidence*100)
	}
	return nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
