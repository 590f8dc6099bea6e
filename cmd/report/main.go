package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sotirisspyrou-uk/ai-marketing-toolkit/internal/domain"
	"github.com/sotirisspyrou-uk/ai-marketing-toolkit/internal/reporting"
	"github.com/sotirisspyrou-uk/ai-marketing-toolkit/internal/storage"
	chstore "github.com/sotirisspyrou-uk/ai-marketing-toolkit/internal/storage/clickhouse"
)

func main() {
	// Parse flags
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse connection string")
	runID := flag.String("run-id", "", "Run to render (empty renders the most recent run)")
	listRecent := flag.Int("list-recent", 0, "List the N most recent runs and exit")
	outputDir := flag.String("output-dir", "docs", "Output directory for generated files")
	flag.Parse()

	logger := log.New(os.Stdout, "[report] ", log.LstdFlags)

	if *clickhouseDSN == "" {
		logger.Fatal("--clickhouse-dsn is required")
	}

	ctx := context.Background()

	conn, err := chstore.NewConn(ctx, *clickhouseDSN)
	if err != nil {
		logger.Fatalf("Error connecting to clickhouse: %v", err)
	}
	defer conn.Close()

	store := chstore.NewAttributionRunStore(conn)

	if *listRecent > 0 {
		listRuns(ctx, logger, store, *listRecent)
		return
	}

	run, err := resolveRun(ctx, store, *runID)
	if err != nil {
		logger.Fatalf("Error loading run: %v", err)
	}

	if err := writeRunReport(*outputDir, run); err != nil {
		logger.Fatalf("Error writing report: %v", err)
	}

	logger.Printf("Report for run %s written to %s", run.RunID[:12], *outputDir)
}

// listRuns prints recent run headers to stdout.
func listRuns(ctx context.Context, logger *log.Logger, store storage.AttributionRunStore, limit int) {
	runs, err := store.GetRecent(ctx, limit)
	if err != nil {
		logger.Fatalf("Error listing runs: %v", err)
	}

	for _, run := range runs {
		createdAt := time.UnixMilli(run.CreatedAtMs).UTC().Format(time.RFC3339)
		fmt.Printf("%s  %s  models=%s journeys=%d revenue=%.2f\n",
			run.RunID, createdAt, strings.Join(run.ModelIDs, ","),
			run.JourneysIncluded, run.TotalRevenue)
	}
}

// resolveRun loads the requested run, or the most recent one when no ID given.
func resolveRun(ctx context.Context, store storage.AttributionRunStore, runID string) (*domain.AttributionRun, error) {
	if runID != "" {
		return store.GetByID(ctx, runID)
	}

	recent, err := store.GetRecent(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(recent) == 0 {
		return nil, fmt.Errorf("no stored runs")
	}
	return store.GetByID(ctx, recent[0].RunID)
}

// writeRunReport renders the stored run as Markdown and CSV.
func writeRunReport(outputDir string, run *domain.AttributionRun) error {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	mdPath := filepath.Join(outputDir, "STORED_RUN.md")
	if err := os.WriteFile(mdPath, []byte(renderRunMarkdown(run)), 0o644); err != nil {
		return fmt.Errorf("write markdown: %w", err)
	}

	rows := make([]reporting.ModelAttributionRow, 0, len(run.Credits))
	for _, c := range run.Credits {
		rows = append(rows, reporting.ModelAttributionRow{
			ModelID:     c.ModelID,
			Channel:     c.Channel,
			Credit:      c.Credit,
			CreditShare: c.CreditShare,
			Cost:        c.Cost,
			ROAS:        c.ROAS,
			Touchpoints: c.Touchpoints,
		})
	}

	csvPath := filepath.Join(outputDir, "CHANNEL_CREDITS.csv")
	if err := os.WriteFile(csvPath, []byte(reporting.RenderCSV(rows)), 0o644); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}

	return nil
}

// renderRunMarkdown renders the persisted run header and its credit table.
// Confidence and diagnostics live only in the original run output; stored
// runs carry the header and the credit rows.
func renderRunMarkdown(run *domain.AttributionRun) string {
	var sb strings.Builder

	sb.WriteString("# Stored Attribution Run\n\n")
	sb.WriteString(fmt.Sprintf("Run: %s\n\n", run.RunID))
	sb.WriteString(fmt.Sprintf("Created: %s | Seed: %d | Models: %s\n\n",
		time.UnixMilli(run.CreatedAtMs).UTC().Format(time.RFC3339),
		run.Seed, strings.Join(run.ModelIDs, ", ")))

	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Included Journeys | %d |\n", run.JourneysIncluded))
	sb.WriteString(fmt.Sprintf("| Excluded Journeys | %d |\n", run.JourneysExcluded))
	sb.WriteString(fmt.Sprintf("| Total Conversions | %d |\n", run.TotalConversions))
	sb.WriteString(fmt.Sprintf("| Total Revenue | %.2f |\n", run.TotalRevenue))
	sb.WriteString(fmt.Sprintf("| Total Cost | %.2f |\n", run.TotalCost))
	sb.WriteString("\n")

	sb.WriteString("## Channel Credits\n\n")
	sb.WriteString("| Model | Channel | Credit | Share | Cost | ROAS | Touchpoints |\n")
	sb.WriteString("|-------|---------|--------|-------|------|------|-------------|\n")
	for _, c := range run.Credits {
		sb.WriteString(fmt.Sprintf("| %s | %s | %.4f | %.4f | %.2f | %.4f | %d |\n",
			c.ModelID, c.Channel, c.Credit, c.CreditShare, c.Cost, c.ROAS, c.Touchpoints))
	}
	sb.WriteString("\n")

	return sb.String()
}
