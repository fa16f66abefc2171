package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	_ "time/tzdata"

	sonic "github.com/bytedance/sonic"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/otel"

	"github.com/riskibarqy/pickem/external/linesmaker"
	"github.com/riskibarqy/pickem/external/schedulecsv"
	"github.com/riskibarqy/pickem/internal/app"
	"github.com/riskibarqy/pickem/internal/config"
	"github.com/riskibarqy/pickem/internal/observability"
	"github.com/riskibarqy/pickem/internal/platform/logging"
	"github.com/riskibarqy/pickem/internal/usecase"
)

var tracer = otel.Tracer("pickem/cmd/importer")

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(2)
	}
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logger := logging.NewJSON(cfg.LogLevel).With("service", "pickem-importer", "env", cfg.AppEnv)
	logging.SetDefault(logger)
	defer func() {
		_ = logger.Sync()
	}()

	telemetry, err := observability.Setup(cfg, logger)
	if err != nil {
		logger.Error("init observability", "error", err)
		os.Exit(1)
	}
	defer func() {
		_ = telemetry.Shutdown(context.Background())
	}()

	ctx := context.Background()
	repos, err := app.OpenRepositories(ctx, cfg, logger)
	if err != nil {
		logger.Error("open repositories", "error", err)
		os.Exit(1)
	}
	defer func() {
		_ = repos.Close()
	}()

	services, err := app.NewServices(cfg, repos, logger)
	if err != nil {
		logger.Error("build services", "error", err)
		os.Exit(1)
	}

	if err := run(ctx, os.Args[1:], cfg, services, os.Stdout, logger); err != nil {
		logger.Error("import failed", "command", os.Args[1], "error", err)
		os.Exit(1)
	}
}

// run executes one importer command and prints its report as JSON to out.
func run(ctx context.Context, args []string, cfg config.Config, services *app.Services, out io.Writer, logger *logging.Logger) error {
	if len(args) == 0 {
		return fmt.Errorf("command is required")
	}

	cmd := strings.ToLower(strings.TrimSpace(args[0]))
	ctx, span := tracer.Start(ctx, "importer."+cmd)
	defer span.End()

	var (
		result any
		err    error
	)
	switch cmd {
	case "teams":
		result, err = importTeams(ctx, args[1:], services)
	case "schedule":
		result, err = importSchedule(ctx, args[1:], services)
	case "odds":
		result, err = importOdds(ctx, args[1:], cfg, services, logger)
	case "scores":
		result, err = importScores(ctx, args[1:], services)
	case "evaluate":
		if len(args) < 2 {
			return fmt.Errorf("evaluate requires a slate id")
		}
		result, err = services.Picks.EvaluateSlate(ctx, args[1])
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
	if err != nil {
		span.RecordError(err)
		return err
	}

	// Imports bump the cache generation so api processes sharing Redis drop stale reads.
	if err := services.Seasons.Invalidate(ctx); err != nil {
		logger.Warn("invalidate caches failed", "error", err)
	}

	encoded, err := sonic.ConfigDefault.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	_, err = fmt.Fprintln(out, string(encoded))
	return err
}

func importTeams(ctx context.Context, args []string, services *app.Services) (usecase.ImportReport, error) {
	var records []usecase.TeamRecord
	if err := readJSONFile(args, &records); err != nil {
		return usecase.ImportReport{}, err
	}
	return services.Imports.ImportTeams(ctx, records)
}

func importScores(ctx context.Context, args []string, services *app.Services) (usecase.ImportReport, error) {
	var records []usecase.ScoreRecord
	if err := readJSONFile(args, &records); err != nil {
		return usecase.ImportReport{}, err
	}
	return services.Imports.ImportScores(ctx, records)
}

func importSchedule(ctx context.Context, args []string, services *app.Services) (usecase.ImportReport, error) {
	if len(args) == 0 {
		return usecase.ImportReport{}, fmt.Errorf("schedule requires a csv file")
	}
	f, err := os.Open(args[0])
	if err != nil {
		return usecase.ImportReport{}, fmt.Errorf("open schedule: %w", err)
	}
	defer f.Close()

	parser, err := schedulecsv.NewParser(nil)
	if err != nil {
		return usecase.ImportReport{}, err
	}
	records, rowErrors, err := parser.Parse(f)
	if err != nil {
		return usecase.ImportReport{}, fmt.Errorf("parse schedule: %w", err)
	}

	report, err := services.Imports.ImportSchedule(ctx, records)
	return usecase.WithDecodeErrors(report, rowErrors), err
}

// importOdds reads a saved feed document when a file is given and pulls the live feed otherwise.
func importOdds(ctx context.Context, args []string, cfg config.Config, services *app.Services, logger *logging.Logger) (usecase.ImportReport, error) {
	var (
		records   []usecase.OddsRecord
		rowErrors []usecase.RecordError
		err       error
	)
	if len(args) > 0 {
		raw, readErr := os.ReadFile(args[0])
		if readErr != nil {
			return usecase.ImportReport{}, fmt.Errorf("read odds feed: %w", readErr)
		}
		records, rowErrors, err = linesmaker.ParseFeed(raw)
	} else {
		records, rowErrors, err = app.NewOddsClient(cfg, logger).FetchOdds(ctx)
	}
	if err != nil {
		return usecase.ImportReport{}, err
	}

	report, err := services.Imports.ImportOdds(ctx, records)
	return usecase.WithDecodeErrors(report, rowErrors), err
}

func readJSONFile(args []string, target any) error {
	if len(args) == 0 {
		return fmt.Errorf("a json file is required")
	}
	raw, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read %s: %w", args[0], err)
	}
	if err := sonic.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("decode %s: %w", args[0], err)
	}
	return nil
}

func printUsage() {
	name := filepath.Base(os.Args[0])
	fmt.Fprintf(os.Stderr, "usage: %s <teams|schedule|odds|scores|evaluate> [file|slate id]\n", name)
	fmt.Fprintln(os.Stderr, "examples:")
	fmt.Fprintf(os.Stderr, "  %s teams teams.json\n", name)
	fmt.Fprintf(os.Stderr, "  %s schedule nfl-2011.csv\n", name)
	fmt.Fprintf(os.Stderr, "  %s odds\n", name)
	fmt.Fprintf(os.Stderr, "  %s odds lines.xml\n", name)
	fmt.Fprintf(os.Stderr, "  %s scores week8.json\n", name)
	fmt.Fprintf(os.Stderr, "  %s evaluate 2011-2012:8\n", name)
}
