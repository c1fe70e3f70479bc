package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/erp/orderstats/internal/application/report"
	"github.com/erp/orderstats/internal/bootstrap"
	"github.com/erp/orderstats/internal/infrastructure/config"
	"github.com/erp/orderstats/internal/infrastructure/dataset"
	"github.com/erp/orderstats/internal/infrastructure/logger"
	"github.com/erp/orderstats/internal/infrastructure/persistence"
	"go.uber.org/zap"
)

var errUsage = errors.New("usage")

func main() {
	var logLevel string
	flag.StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	flag.Usage = printUsage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(2)
	}

	// Logs go to stderr so command output can be piped
	log, err := logger.New(&logger.Config{
		Level:      logLevel,
		Format:     "console",
		Output:     "stderr",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log, args, os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			printUsage()
			os.Exit(2)
		}
		log.Error("Command failed", zap.String("command", args[0]), zap.Error(err))
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprint(os.Stderr, `Usage: orderstats [-log-level level] <command> [flags]

Commands:
  summary   Run every report over the configured dataset and print JSON
            -card-type VISA  -color RED  -card-number 4111...
  generate  Write a synthetic dataset
            -seed 0  -customers 100  -format yaml|json  -output path
  seed      Load a dataset file into the configured database
            -file path  -truncate

Configuration is read from config.toml and ORDERSTATS_* environment variables.
`)
}

// run dispatches a subcommand; output is written to out.
func run(ctx context.Context, cfg *config.Config, log *zap.Logger, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}
	switch args[0] {
	case "summary":
		return runSummary(ctx, cfg, log, args[1:], out)
	case "generate":
		return runGenerate(cfg, log, args[1:], out)
	case "seed":
		return runSeed(ctx, cfg, log, args[1:])
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, args[0])
	}
}

func runSummary(ctx context.Context, cfg *config.Config, log *zap.Logger, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("summary", flag.ContinueOnError)
	var req report.SummaryRequest
	fs.StringVar(&req.CardType, "card-type", "", "Card type for the orders report")
	fs.StringVar(&req.Color, "color", "", "Color for the color check")
	fs.StringVar(&req.CardNumber, "card-number", "", "Card number for the average price")
	if err := fs.Parse(args); err != nil {
		return err
	}

	src, err := bootstrap.OpenSource(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := src.Close(); err != nil {
			log.Warn("Error closing dataset source", zap.Error(err))
		}
	}()

	svc, err := bootstrap.NewStatsService(cfg.Stats, src, log, nil, nil)
	if err != nil {
		return err
	}

	summary, err := svc.Summary(ctx, req)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(summary)
}

func runGenerate(cfg *config.Config, log *zap.Logger, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("generate", flag.ContinueOnError)
	seed := fs.Uint64("seed", uint64(cfg.Dataset.Seed), "Random seed, 0 picks one")
	customers := fs.Int("customers", cfg.Dataset.Customers, "Number of customers")
	format := fs.String("format", "", "Output format: yaml or json (default from -output, else yaml)")
	output := fs.String("output", "", "Output file (default stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *customers < 0 {
		return fmt.Errorf("%w: -customers cannot be negative", errUsage)
	}

	f := dataset.Format(*format)
	if f == "" {
		f = dataset.FormatYAML
		if *output != "" {
			var err error
			if f, err = dataset.FormatFromPath(*output); err != nil {
				return err
			}
		}
	}

	gen := dataset.NewGenerator(dataset.DefaultGeneratorConfig(*seed, *customers))

	w := out
	if *output != "" {
		file, err := os.Create(*output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer file.Close()
		w = file
	}

	if err := gen.Write(w, f); err != nil {
		return err
	}

	log.Info("Dataset generated",
		zap.Uint64("seed", gen.Seed()),
		zap.Int("customers", *customers),
		zap.String("format", string(f)),
		zap.String("output", *output),
	)
	return nil
}

func runSeed(ctx context.Context, cfg *config.Config, log *zap.Logger, args []string) error {
	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	file := fs.String("file", cfg.Dataset.Path, "Dataset file to load")
	truncate := fs.Bool("truncate", false, "Delete stored customers before loading")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *file == "" {
		return fmt.Errorf("%w: -file is required", errUsage)
	}

	fileSource, err := dataset.NewFileSource(*file, log)
	if err != nil {
		return err
	}
	customers, err := fileSource.LoadCustomers(ctx)
	if err != nil {
		return err
	}

	db, err := bootstrap.OpenDatabase(cfg, log)
	if err != nil {
		return err
	}
	defer db.Close()

	repo := persistence.NewCustomerRepository(db.DB)
	if err := repo.AutoMigrate(ctx); err != nil {
		return err
	}
	if *truncate {
		if err := repo.DeleteAll(ctx); err != nil {
			return err
		}
	}
	if err := repo.Save(ctx, customers); err != nil {
		return err
	}

	total, err := repo.Count(ctx)
	if err != nil {
		return err
	}
	log.Info("Dataset loaded",
		zap.String("file", *file),
		zap.Int("loaded", len(customers)),
		zap.Int64("stored", total),
		zap.String("driver", db.Driver()),
	)
	return nil
}
