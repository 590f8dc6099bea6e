// Package engine orchestrates attribution runs: journey validation, model
// execution, aggregation, bootstrap confidence, and reconciliation.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"runtime"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sotirisspyrou-uk/ai-marketing-toolkit/internal/aggregate"
	"github.com/sotirisspyrou-uk/ai-marketing-toolkit/internal/attribution"
	"github.com/sotirisspyrou-uk/ai-marketing-toolkit/internal/domain"
	"github.com/sotirisspyrou-uk/ai-marketing-toolkit/internal/idhash"
	"github.com/sotirisspyrou-uk/ai-marketing-toolkit/internal/observability"
	"github.com/sotirisspyrou-uk/ai-marketing-toolkit/internal/reconcile"
)

// Engine errors
var (
	// ErrCancelled is returned when a run is cancelled or exceeds its
	// deadline. Partial results are discarded.
	ErrCancelled = errors.New("attribution run cancelled")

	// ErrNoModels is returned when the config requests no models.
	ErrNoModels = errors.New("no models requested")

	// ErrNoJourneys is returned when every input journey was excluded.
	ErrNoJourneys = errors.New("no valid journeys")
)

// Default thresholds, applied by withDefaults when the field is zero.
const (
	DefaultMinSampleSize      = 1000
	DefaultMinAvgPathLength   = 2.0
	DefaultBootstrapResamples = 200
	DefaultSeed               = 1
)

// maxExcludedSamples bounds the offending-journey sample carried in
// diagnostics.
const maxExcludedSamples = 5

// Config controls one attribution run. Pass it by value per call; repeated
// or parallel runs with different settings never interfere.
type Config struct {
	// Models to run. The first entry is the primary model whose portfolio
	// and confidence land at the top level of the Result.
	Models []domain.ModelConfig

	MinSampleSize    int     // converted journeys below this flag BelowMinSample
	MinAvgPathLength float64 // average path length below this flags BelowMinPathLength

	// MinConvertedJourneys is the hard minimum a model requires to run.
	// Zero derives max(1, MinSampleSize/100).
	MinConvertedJourneys int

	BootstrapResamples int
	Seed               int64

	// Deadline bounds wall-clock time for expensive sampling. Zero means
	// no deadline.
	Deadline time.Time
}

func (c Config) withDefaults() Config {
	if c.MinSampleSize == 0 {
		c.MinSampleSize = DefaultMinSampleSize
	}
	if c.MinAvgPathLength == 0 {
		c.MinAvgPathLength = DefaultMinAvgPathLength
	}
	if c.MinConvertedJourneys == 0 {
		c.MinConvertedJourneys = c.MinSampleSize / 100
		if c.MinConvertedJourneys < 1 {
			c.MinConvertedJourneys = 1
		}
	}
	if c.BootstrapResamples == 0 {
		c.BootstrapResamples = DefaultBootstrapResamples
	}
	if c.Seed == 0 {
		c.Seed = DefaultSeed
	}
	return c
}

// ModelResult holds the full output of one model within a run.
type ModelResult struct {
	Portfolio    *domain.PortfolioAttribution
	Confidence   *domain.ConfidenceReport
	Conservation *reconcile.ConservationResult
}

// Diagnostics carries data-quality and comparison output. Data-quality
// issues are attached here rather than raised, so partial results remain
// usable.
type Diagnostics struct {
	ExcludedJourneys int
	ExclusionReasons map[string]int // reason code -> count
	ExcludedSamples  []string       // up to maxExcludedSamples journey IDs

	// FailedModels maps model ID to failure message. The primary model
	// failing fails the run; secondary failures are reported here.
	FailedModels map[string]string

	// Comparison is present when more than one model succeeded.
	Comparison *reconcile.ComparisonMatrix

	// BaselineDeltas compares each non-baseline model against last-touch,
	// present when last-touch was among the requested models.
	BaselineDeltas []*reconcile.BaselineComparison
}

// Result is the output of one attribution run.
type Result struct {
	RunID       string
	Portfolio   *domain.PortfolioAttribution // primary model
	Confidence  *domain.ConfidenceReport     // primary model
	Models      map[string]*ModelResult      // all successful models by ID
	Diagnostics Diagnostics
}

// Engine runs attribution. Safe for concurrent use; it holds no per-run
// state.
type Engine struct {
	logger *log.Logger
}

// New creates an Engine. A nil logger defaults to stdout.
func New(logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.New(os.Stdout, "[engine] ", log.LstdFlags)
	}
	return &Engine{logger: logger}
}

// Run executes one attribution run over the supplied journeys.
// Journeys are never mutated; all outputs are freshly constructed.
func (e *Engine) Run(ctx context.Context, journeys []*domain.Journey, cfg Config) (*Result, error) {
	start := time.Now()

	result, err := e.run(ctx, journeys, cfg)
	if err != nil {
		observability.RecordRun("error", time.Since(start).Seconds())
		return nil, err
	}

	observability.RecordRun("ok", time.Since(start).Seconds())
	observability.RecordSuccessfulRun(time.Now().Unix())
	return result, nil
}

func (e *Engine) run(ctx context.Context, journeys []*domain.Journey, cfg Config) (*Result, error) {
	cfg = cfg.withDefaults()
	if len(cfg.Models) == 0 {
		return nil, ErrNoModels
	}
	observability.RecordJourneysLoaded(len(journeys))

	if !cfg.Deadline.IsZero() {
		var cancel context.CancelFunc
		ctx, cancel = context.WithDeadline(ctx, cfg.Deadline)
		defer cancel()
	}

	models := make([]attribution.Model, len(cfg.Models))
	for i, mc := range cfg.Models {
		m, err := attribution.FromConfig(mc)
		if err != nil {
			return nil, fmt.Errorf("model config %d: %w", i, err)
		}
		models[i] = m
	}

	included, diagnostics := e.validate(journeys)
	if len(included) == 0 {
		return nil, fmt.Errorf("%w: %d journeys excluded", ErrNoJourneys, diagnostics.ExcludedJourneys)
	}

	e.logger.Printf("run start: %d journeys (%d excluded), %d models, seed %d",
		len(included), diagnostics.ExcludedJourneys, len(models), cfg.Seed)

	results, modelErrs := e.runModels(ctx, models, included, diagnostics.ExcludedJourneys, cfg)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCancelled, err)
	}

	result := &Result{
		Models:      make(map[string]*ModelResult),
		Diagnostics: *diagnostics,
	}
	result.Diagnostics.FailedModels = make(map[string]string)

	for i, m := range models {
		if modelErrs[i] != nil {
			if i == 0 {
				return nil, fmt.Errorf("primary model %s: %w", m.ID(), modelErrs[i])
			}
			result.Diagnostics.FailedModels[m.ID()] = modelErrs[i].Error()
			e.logger.Printf("model %s failed: %v", m.ID(), modelErrs[i])
			continue
		}
		result.Models[m.ID()] = results[i]
	}

	primary := results[0]
	result.Portfolio = primary.Portfolio
	result.Confidence = primary.Confidence

	modelIDs := make([]string, 0, len(result.Models))
	for id := range result.Models {
		modelIDs = append(modelIDs, id)
	}
	sort.Strings(modelIDs)
	result.RunID = idhash.ComputeRunID(cfg.Seed, len(included), modelIDs)

	e.attachComparisons(result)

	e.logger.Printf("run %s done: %d models succeeded, significance %.4f",
		result.RunID[:12], len(result.Models), result.Confidence.Significance)
	return result, nil
}

// validate splits journeys into included and excluded, counting exclusion
// reasons. Malformed journeys are never silently dropped.
func (e *Engine) validate(journeys []*domain.Journey) ([]*domain.Journey, *Diagnostics) {
	diagnostics := &Diagnostics{ExclusionReasons: make(map[string]int)}

	included := make([]*domain.Journey, 0, len(journeys))
	for _, j := range journeys {
		if err := attribution.ValidateJourney(j); err != nil {
			reason := attribution.ExclusionReason(err)
			observability.RecordJourneyExcluded(reason)
			diagnostics.ExcludedJourneys++
			diagnostics.ExclusionReasons[reason]++
			if len(diagnostics.ExcludedSamples) < maxExcludedSamples {
				diagnostics.ExcludedSamples = append(diagnostics.ExcludedSamples, j.JourneyID)
			}
			continue
		}
		included = append(included, j)
	}
	return included, diagnostics
}

// runModels executes every model in parallel, bounded by core count. Each
// model allocates credit, is checked for per-journey conservation, is
// aggregated, bootstrap-estimated, and portfolio-verified. Model failures
// are collected per model instead of cancelling siblings.
func (e *Engine) runModels(ctx context.Context, models []attribution.Model, journeys []*domain.Journey, excluded int, cfg Config) ([]*ModelResult, []error) {
	results := make([]*ModelResult, len(models))
	modelErrs := make([]error, len(models))

	grp := &errgroup.Group{}
	grp.SetLimit(runtime.GOMAXPROCS(0))

	for i, m := range models {
		idx, model := i, m
		grp.Go(func() error {
			modelStart := time.Now()
			results[idx], modelErrs[idx] = e.runModel(ctx, model, journeys, excluded, cfg)

			status := "ok"
			if modelErrs[idx] != nil {
				status = "error"
			}
			observability.RecordModelRun(model.ID(), status, time.Since(modelStart).Seconds())
			return nil
		})
	}
	// Goroutines report failures through modelErrs, never through the group.
	_ = grp.Wait()

	return results, modelErrs
}

func (e *Engine) runModel(ctx context.Context, model attribution.Model, journeys []*domain.Journey, excluded int, cfg Config) (*ModelResult, error) {
	input := &attribution.ModelInput{
		Journeys:             journeys,
		MinConvertedJourneys: cfg.MinConvertedJourneys,
	}
	vectors, err := model.Allocate(ctx, input)
	if err != nil {
		return nil, err
	}

	// Conservation failure is an engine bug, never silently corrected.
	if _, err := reconcile.PerJourneyConservation(model.ID(), journeys, vectors); err != nil {
		return nil, err
	}

	portfolio, err := aggregate.Sum(model.ID(), journeys, vectors, excluded)
	if err != nil {
		return nil, err
	}

	conservation, err := reconcile.VerifyConservation(portfolio)
	if err != nil {
		return nil, err
	}

	confidence, err := aggregate.BootstrapConfidence(ctx, model, journeys, aggregate.BootstrapConfig{
		Resamples:        cfg.BootstrapResamples,
		Seed:             cfg.Seed,
		MinSampleSize:    cfg.MinSampleSize,
		MinAvgPathLength: cfg.MinAvgPathLength,
	})
	if err != nil {
		return nil, err
	}

	return &ModelResult{
		Portfolio:    portfolio,
		Confidence:   confidence,
		Conservation: conservation,
	}, nil
}

// attachComparisons fills the comparison matrix and last-touch baseline
// deltas when the run produced enough successful models.
func (e *Engine) attachComparisons(result *Result) {
	if len(result.Models) < 2 {
		return
	}

	portfolios := make([]*domain.PortfolioAttribution, 0, len(result.Models))
	for _, mr := range result.Models {
		portfolios = append(portfolios, mr.Portfolio)
	}
	result.Diagnostics.Comparison = reconcile.BuildComparisonMatrix(portfolios)

	baseline, ok := result.Models[domain.ModelTypeLastTouch]
	if !ok {
		return
	}
	ids := make([]string, 0, len(result.Models))
	for id := range result.Models {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if id == domain.ModelTypeLastTouch {
			continue
		}
		result.Diagnostics.BaselineDeltas = append(result.Diagnostics.BaselineDeltas,
			reconcile.CompareToBaseline(baseline.Portfolio, result.Models[id].Portfolio))
	}
}
