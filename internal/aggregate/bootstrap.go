package aggregate

import (
	"context"
	"errors"
	"math/rand"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/sotirisspyrou-uk/ai-marketing-toolkit/internal/attribution"
	"github.com/sotirisspyrou-uk/ai-marketing-toolkit/internal/domain"
	"github.com/sotirisspyrou-uk/ai-marketing-toolkit/internal/idhash"
)

// ErrNoResamples is returned when every bootstrap resample failed to
// allocate, which only happens on degenerate inputs (no converted journeys).
var ErrNoResamples = errors.New("no bootstrap resample produced a result")

// BootstrapConfig controls the confidence estimator.
type BootstrapConfig struct {
	Resamples        int     // number of bootstrap resamples
	Seed             int64   // top-level seed; per-resample seeds derive from it
	MinSampleSize    int     // converted journeys below this flag BelowMinSample
	MinAvgPathLength float64 // average path length below this flags BelowMinPathLength

	// CI percentiles for portfolio ROAS.
	LowerPercentile float64 // default 0.025
	UpperPercentile float64 // default 0.975
}

// resampleResult holds the per-channel credit shares and portfolio ROAS of
// one bootstrap resample.
type resampleResult struct {
	shares map[string]float64
	roas   float64
	ok     bool
}

// BootstrapConfidence estimates attribution stability by resampling the
// journey set with replacement, re-running the model per resample, and
// measuring dispersion of per-channel credit shares. Each resample draws
// from a generator seeded by the top-level seed and the resample index, so
// the report is identical regardless of worker count. Resamples that land
// on zero converted journeys are skipped deterministically.
func BootstrapConfidence(ctx context.Context, model attribution.Model, journeys []*domain.Journey, cfg BootstrapConfig) (*domain.ConfidenceReport, error) {
	lower := cfg.LowerPercentile
	if lower == 0 {
		lower = 0.025
	}
	upper := cfg.UpperPercentile
	if upper == 0 {
		upper = 0.975
	}

	results := make([]resampleResult, cfg.Resamples)

	grp, grpCtx := errgroup.WithContext(ctx)
	grp.SetLimit(runtime.GOMAXPROCS(0))

	for r := 0; r < cfg.Resamples; r++ {
		idx := r
		grp.Go(func() error {
			if err := grpCtx.Err(); err != nil {
				return err
			}
			res, err := runResample(grpCtx, model, journeys, cfg.Seed, idx)
			if err != nil {
				return err
			}
			results[idx] = res
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return nil, err
	}

	report := &domain.ConfidenceReport{
		ModelID:           model.ID(),
		Resamples:         cfg.Resamples,
		Seed:              cfg.Seed,
		MinSampleSize:     cfg.MinSampleSize,
		MinAvgPathLength:  cfg.MinAvgPathLength,
		ConvertedJourneys: ConvertedCount(journeys),
		AveragePathLength: AveragePathLength(journeys),
	}
	report.BelowMinSample = report.ConvertedJourneys < cfg.MinSampleSize
	report.BelowMinPathLength = report.AveragePathLength < cfg.MinAvgPathLength

	// Deterministic reduction in resample-index order.
	channelShares := make(map[string][]float64)
	var roasValues []float64
	for r := 0; r < cfg.Resamples; r++ {
		if !results[r].ok {
			continue
		}
		for ch, share := range results[r].shares {
			channelShares[ch] = append(channelShares[ch], share)
		}
		roasValues = append(roasValues, results[r].roas)
	}
	if len(roasValues) == 0 {
		return nil, ErrNoResamples
	}

	channels := make([]string, 0, len(channelShares))
	for ch := range channelShares {
		channels = append(channels, ch)
	}
	sort.Strings(channels)

	cvSum := 0.0
	for _, ch := range channels {
		// Channels absent from a resample carry share 0 in that resample.
		values := channelShares[ch]
		for len(values) < len(roasValues) {
			values = append(values, 0)
		}
		mean := computeMean(values)
		stddev := computeStddev(values, mean)
		cv := computeCV(stddev, mean)
		cvSum += cv
		report.Channels = append(report.Channels, domain.ChannelConfidence{
			Channel:      ch,
			CreditMean:   mean,
			CreditStddev: stddev,
			CV:           cv,
		})
	}
	if len(channels) > 0 {
		report.Significance = clamp01(1 - cvSum/float64(len(channels)))
	}

	sort.Float64s(roasValues)
	report.ROASLower = computePercentile(roasValues, lower)
	report.ROASUpper = computePercentile(roasValues, upper)

	return report, nil
}

// runResample draws one bootstrap resample and computes its credit shares
// and portfolio ROAS.
func runResample(ctx context.Context, model attribution.Model, journeys []*domain.Journey, seed int64, index int) (resampleResult, error) {
	rng := rand.New(rand.NewSource(idhash.DeriveSeed(seed, index)))

	n := len(journeys)
	resampled := make([]*domain.Journey, n)
	for i := 0; i < n; i++ {
		resampled[i] = journeys[rng.Intn(n)]
	}

	input := &attribution.ModelInput{Journeys: resampled, MinConvertedJourneys: 1}
	vectors, err := model.Allocate(ctx, input)
	if err != nil {
		if errors.Is(err, attribution.ErrInsufficientData) {
			return resampleResult{}, nil // skipped, deterministic given the seed
		}
		return resampleResult{}, err
	}

	portfolio, err := Sum(model.ID(), resampled, vectors, 0)
	if err != nil {
		return resampleResult{}, err
	}

	res := resampleResult{shares: make(map[string]float64), ok: true}
	for _, cm := range portfolio.Channels {
		res.shares[cm.Channel] = cm.CreditShare
	}
	if portfolio.TotalCost > 0 {
		res.roas = portfolio.TotalRevenue / portfolio.TotalCost
	}
	return res, nil
}
