package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/sotirisspyrou-uk/ai-marketing-toolkit/internal/dataset"
	"github.com/sotirisspyrou-uk/ai-marketing-toolkit/internal/fixtures"
	"github.com/sotirisspyrou-uk/ai-marketing-toolkit/internal/storage"
	"github.com/sotirisspyrou-uk/ai-marketing-toolkit/internal/storage/migrations"
	pgstore "github.com/sotirisspyrou-uk/ai-marketing-toolkit/internal/storage/postgres"
)

func main() {
	// Parse flags
	input := flag.String("input", "", "Journey CSV file to ingest")
	useFixtures := flag.Bool("use-fixtures", false, "Ingest built-in fixture journeys instead of a CSV file")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string")
	skipDuplicates := flag.Bool("skip-duplicates", true, "Skip journeys that are already stored instead of failing")
	flag.Parse()

	logger := log.New(os.Stdout, "[ingest] ", log.LstdFlags)

	if *postgresDSN == "" {
		logger.Fatal("--postgres-dsn is required")
	}
	if *input == "" && !*useFixtures {
		logger.Fatal("--input or --use-fixtures is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, cancelling...", sig)
		cancel()
	}()

	journeys := fixtures.Journeys()
	if *input != "" {
		var err error
		journeys, err = dataset.LoadJourneysFile(*input)
		if err != nil {
			logger.Fatalf("Error loading journeys: %v", err)
		}
	}
	logger.Printf("Loaded %d journeys", len(journeys))

	pool, err := pgstore.NewPool(ctx, *postgresDSN)
	if err != nil {
		logger.Fatalf("Error connecting to postgres: %v", err)
	}
	defer pool.Close()

	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		logger.Fatalf("Error running migrations: %v", err)
	}

	store := pgstore.NewJourneyStore(pool)

	if !*skipDuplicates {
		if err := store.InsertBulk(ctx, journeys); err != nil {
			logger.Fatalf("Error inserting journeys: %v", err)
		}
		logger.Printf("Ingested %d journeys", len(journeys))
		return
	}

	inserted, skipped := 0, 0
	for _, j := range journeys {
		err := store.Insert(ctx, j)
		if errors.Is(err, storage.ErrDuplicateKey) {
			skipped++
			continue
		}
		if err != nil {
			logger.Fatalf("Error inserting journey %s: %v", j.JourneyID, err)
		}
		inserted++
	}

	logger.Printf("Ingested %d journeys (%d already stored)", inserted, skipped)
}
