package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/sotirisspyrou-uk/ai-marketing-toolkit/internal/dataset"
	"github.com/sotirisspyrou-uk/ai-marketing-toolkit/internal/domain"
	"github.com/sotirisspyrou-uk/ai-marketing-toolkit/internal/engine"
	"github.com/sotirisspyrou-uk/ai-marketing-toolkit/internal/fixtures"
	"github.com/sotirisspyrou-uk/ai-marketing-toolkit/internal/observability"
	"github.com/sotirisspyrou-uk/ai-marketing-toolkit/internal/reporting"
	"github.com/sotirisspyrou-uk/ai-marketing-toolkit/internal/storage"
	chstore "github.com/sotirisspyrou-uk/ai-marketing-toolkit/internal/storage/clickhouse"
	"github.com/sotirisspyrou-uk/ai-marketing-toolkit/internal/storage/memory"
	"github.com/sotirisspyrou-uk/ai-marketing-toolkit/internal/storage/migrations"
	pgstore "github.com/sotirisspyrou-uk/ai-marketing-toolkit/internal/storage/postgres"
)

func main() {
	// Parse flags
	input := flag.String("input", "", "Journey CSV file (journey_id,channel,timestamp_ms,cost,converted,conversion_value)")
	useFixtures := flag.Bool("use-fixtures", false, "Use built-in fixture journeys instead of a CSV file")
	synthetic := flag.Int("synthetic", 0, "Generate N seeded synthetic journeys instead of a CSV file")
	modelList := flag.String("models", "LINEAR,LAST_TOUCH", "Comma-separated models to run, first is primary")
	seed := flag.Int64("seed", 1, "Seed for sampling models and bootstrap")
	halfLife := flag.Float64("half-life-days", 0, "TIME_DECAY half-life in days (0 = default 7)")
	sampleCount := flag.Int("shapley-samples", 0, "SHAPLEY_VALUE Monte Carlo permutations (0 = default 1000)")
	resamples := flag.Int("resamples", 0, "Bootstrap resamples (0 = default 200)")
	minSample := flag.Int("min-sample", 0, "Minimum converted journeys before warning (0 = default 1000)")
	timeout := flag.Duration("timeout", 0, "Run deadline (0 = none)")
	outputDir := flag.String("output-dir", "docs", "Output directory for generated reports")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string for journey persistence")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse connection string for run persistence")
	useMemory := flag.Bool("use-memory", false, "Persist the run to in-memory stores (verification mode)")
	metricsAddr := flag.String("metrics-addr", "", "Prometheus metrics HTTP address (empty to disable)")
	quiet := flag.Bool("quiet", false, "Suppress engine logging")
	flag.Parse()

	logger := log.New(os.Stdout, "[attribution] ", log.LstdFlags)
	engineLogger := log.New(os.Stdout, "[engine] ", log.LstdFlags)
	if *quiet {
		engineLogger = log.New(io.Discard, "", 0)
	}

	// Start metrics server if enabled
	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", observability.Handler())
			mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("ok"))
			})
			logger.Printf("Starting metrics server on %s", *metricsAddr)
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil && err != http.ErrServerClosed {
				logger.Printf("Metrics server error: %v", err)
			}
		}()
	}

	// Cancel on SIGINT/SIGTERM
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, cancelling run...", sig)
		cancel()
	}()

	journeys, err := loadJourneys(*input, *useFixtures, *synthetic, *seed)
	if err != nil {
		logger.Fatalf("Error loading journeys: %v", err)
	}
	logger.Printf("Loaded %d journeys", len(journeys))

	cfg, err := buildConfig(*modelList, *seed, *halfLife, *sampleCount, *resamples, *minSample, *timeout)
	if err != nil {
		logger.Fatalf("Error building config: %v", err)
	}

	result, err := engine.New(engineLogger).Run(ctx, journeys, cfg)
	if err != nil {
		logger.Fatalf("Error running attribution: %v", err)
	}

	report := reporting.NewGenerator().Generate(result)
	observability.RecordReportGenerated()
	if err := writeReports(*outputDir, report); err != nil {
		logger.Fatalf("Error writing reports: %v", err)
	}
	logger.Printf("Reports written to %s (run %s)", *outputDir, result.RunID[:12])

	if err := persist(ctx, logger, result, journeys, *seed, *postgresDSN, *clickhouseDSN, *useMemory); err != nil {
		logger.Fatalf("Error persisting run: %v", err)
	}
}

// loadJourneys picks the journey source: CSV file, synthetic set, or fixtures.
func loadJourneys(input string, useFixtures bool, synthetic int, seed int64) ([]*domain.Journey, error) {
	switch {
	case input != "":
		return dataset.LoadJourneysFile(input)
	case synthetic > 0:
		return fixtures.Synthetic(synthetic, seed), nil
	case useFixtures:
		return fixtures.Journeys(), nil
	default:
		return nil, fmt.Errorf("no journey source: use -input, -use-fixtures or -synthetic")
	}
}

// buildConfig translates flags into an engine config.
func buildConfig(modelList string, seed int64, halfLife float64, sampleCount, resamples, minSample int, timeout time.Duration) (engine.Config, error) {
	var models []domain.ModelConfig
	for _, name := range strings.Split(modelList, ",") {
		name = strings.ToUpper(strings.TrimSpace(name))
		if name == "" {
			continue
		}

		mc := domain.ModelConfig{ModelType: name, Seed: &seed}
		if name == domain.ModelTypeTimeDecay && halfLife > 0 {
			hl := halfLife
			mc.HalfLifeDays = &hl
		}
		if name == domain.ModelTypeShapley && sampleCount > 0 {
			sc := sampleCount
			mc.SampleCount = &sc
		}
		models = append(models, mc)
	}
	if len(models) == 0 {
		return engine.Config{}, fmt.Errorf("no models specified")
	}

	cfg := engine.Config{
		Models:             models,
		MinSampleSize:      minSample,
		BootstrapResamples: resamples,
		Seed:               seed,
	}
	if timeout > 0 {
		cfg.Deadline = time.Now().Add(timeout)
	}
	return cfg, nil
}

// writeReports renders the Markdown and CSV outputs.
func writeReports(outputDir string, report *reporting.Report) error {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	mdPath := filepath.Join(outputDir, "ATTRIBUTION_REPORT.md")
	if err := os.WriteFile(mdPath, []byte(reporting.RenderMarkdown(report)), 0o644); err != nil {
		return fmt.Errorf("write markdown report: %w", err)
	}

	csvPath := filepath.Join(outputDir, "CHANNEL_CREDITS.csv")
	if err := os.WriteFile(csvPath, []byte(reporting.RenderCSV(report.ModelAttribution)), 0o644); err != nil {
		return fmt.Errorf("write csv report: %w", err)
	}

	return nil
}

// persist stores journeys and the finished run in the configured backends.
// Already-stored journeys and runs are tolerated so reruns stay idempotent.
func persist(ctx context.Context, logger *log.Logger, result *engine.Result, journeys []*domain.Journey, seed int64, postgresDSN, clickhouseDSN string, useMemory bool) error {
	if !useMemory && postgresDSN == "" && clickhouseDSN == "" {
		return nil
	}

	run := result.ToRun(seed, time.Now().UnixMilli())

	var journeyStore storage.JourneyStore
	var runStore storage.AttributionRunStore

	if useMemory {
		journeyStore = memory.NewJourneyStore()
		runStore = memory.NewAttributionRunStore()
	} else {
		if postgresDSN != "" {
			pool, err := pgstore.NewPool(ctx, postgresDSN)
			if err != nil {
				return fmt.Errorf("connect to postgres: %w", err)
			}
			defer pool.Close()

			if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
				return fmt.Errorf("run postgres migrations: %w", err)
			}
			journeyStore = pgstore.NewJourneyStore(pool)
		}

		if clickhouseDSN != "" {
			conn, err := migrations.RunClickhouseMigrations(ctx, clickhouseDSN)
			if err != nil {
				return fmt.Errorf("run clickhouse migrations: %w", err)
			}
			defer conn.Close()

			runStore = chstore.NewAttributionRunStore(conn)
		}
	}

	if journeyStore != nil {
		inserted := 0
		for _, j := range journeys {
			err := journeyStore.Insert(ctx, j)
			if errors.Is(err, storage.ErrDuplicateKey) {
				continue
			}
			if err != nil {
				return fmt.Errorf("insert journey %s: %w", j.JourneyID, err)
			}
			inserted++
		}
		logger.Printf("Persisted %d new journeys (%d already stored)", inserted, len(journeys)-inserted)
	}

	if runStore != nil {
		err := runStore.Insert(ctx, run)
		if errors.Is(err, storage.ErrDuplicateKey) {
			logger.Printf("Run %s already stored", run.RunID[:12])
			return nil
		}
		if err != nil {
			return fmt.Errorf("insert run: %w", err)
		}
		logger.Printf("Persisted run %s (%d credit rows)", run.RunID[:12], len(run.Credits))
	}

	return nil
}
