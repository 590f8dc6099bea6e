package attribution

import (
	"context"
	"math/bits"
	"math/rand"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/sotirisspyrou-uk/ai-marketing-toolkit/internal/domain"
	"github.com/sotirisspyrou-uk/ai-marketing-toolkit/internal/idhash"
)

// shapleyBatchSize is the number of Monte Carlo permutations processed
// between cancellation checks. Each batch owns an independently seeded
// generator, so results do not depend on worker scheduling.
const shapleyBatchSize = 64

// ShapleyModel treats each distinct channel as a player in a cooperative
// game. The value of a coalition is the total conversion value of journeys
// reachable through its channels; a channel's credit is its Shapley value,
// the average marginal contribution over channel orderings. Exact subset
// enumeration is used up to exactChannelLimit channels, Monte Carlo
// permutation sampling above it.
type ShapleyModel struct {
	exactChannelLimit int
	sampleCount       int
	seed              int64
}

// NewShapleyModel creates a Shapley-value model.
func NewShapleyModel(exactChannelLimit, sampleCount int, seed int64) *ShapleyModel {
	return &ShapleyModel{
		exactChannelLimit: exactChannelLimit,
		sampleCount:       sampleCount,
		seed:              seed,
	}
}

// ID returns the model type identifier.
func (m *ShapleyModel) ID() string {
	return domain.ModelTypeShapley
}

// Allocate computes global Shapley values over the converted journey set and
// distributes each journey's value across its channels proportionally.
func (m *ShapleyModel) Allocate(ctx context.Context, input *ModelInput) ([]domain.CreditVector, error) {
	if err := checkMinConverted(input); err != nil {
		return nil, err
	}
	if input.ConvertedCount() == 0 {
		return nil, ErrInsufficientData
	}

	game := buildGame(input.Journeys)

	var shares map[string]float64
	var err error
	if len(game.players) <= m.exactChannelLimit {
		shares = game.exactShapley()
	} else {
		shares, err = game.sampledShapley(ctx, m.sampleCount, m.seed)
		if err != nil {
			return nil, err
		}
	}

	out := make([]domain.CreditVector, len(input.Journeys))
	for i, j := range input.Journeys {
		out[i] = distributeByChannelShares(j, shares)
	}
	return out, nil
}

// coalition is a group of converted journeys sharing the same channel set.
type coalition struct {
	channels map[string]bool
	value    float64
}

// game holds the cooperative game derived from converted journeys.
// players are sorted ASC so permutation sampling is reproducible.
type game struct {
	players    []string
	coalitions []coalition
}

// buildGame groups converted journeys by distinct channel set. The value of
// a channel subset S is the summed conversion value of coalitions
// intersecting S.
func buildGame(journeys []*domain.Journey) *game {
	byKey := make(map[string]*coalition)
	playerSet := make(map[string]bool)

	for _, j := range journeys {
		if !j.Converted || j.ConversionValue == 0 {
			continue
		}
		channels := j.Channels()
		sorted := make([]string, len(channels))
		copy(sorted, channels)
		sort.Strings(sorted)

		key := ""
		for _, ch := range sorted {
			key += ch + "\x00"
			playerSet[ch] = true
		}

		if c, ok := byKey[key]; ok {
			c.value += j.ConversionValue
			continue
		}
		set := make(map[string]bool, len(sorted))
		for _, ch := range sorted {
			set[ch] = true
		}
		byKey[key] = &coalition{channels: set, value: j.ConversionValue}
	}

	g := &game{players: make([]string, 0, len(playerSet))}
	for ch := range playerSet {
		g.players = append(g.players, ch)
	}
	sort.Strings(g.players)

	keys := make([]string, 0, len(byKey))
	for k := range byKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		g.coalitions = append(g.coalitions, *byKey[k])
	}
	return g
}

// exactShapley enumerates all channel subsets with bitmasks. Only viable for
// small player counts; the factory bounds this via exactChannelLimit.
func (g *game) exactShapley() map[string]float64 {
	n := len(g.players)
	playerIdx := make(map[string]int, n)
	for i, ch := range g.players {
		playerIdx[ch] = i
	}

	// Per-coalition channel bitmask.
	masks := make([]uint32, len(g.coalitions))
	for i, c := range g.coalitions {
		var mask uint32
		for ch := range c.channels {
			mask |= 1 << playerIdx[ch]
		}
		masks[i] = mask
	}

	// Coalition value for every subset.
	size := 1 << n
	values := make([]float64, size)
	for s := 1; s < size; s++ {
		total := 0.0
		for i, c := range g.coalitions {
			if masks[i]&uint32(s) != 0 {
				total += c.value
			}
		}
		values[s] = total
	}

	// Subset weights: |S|! * (n-|S|-1)! / n!
	factorial := make([]float64, n+1)
	factorial[0] = 1
	for i := 1; i <= n; i++ {
		factorial[i] = factorial[i-1] * float64(i)
	}
	weight := make([]float64, n)
	for s := 0; s < n; s++ {
		weight[s] = factorial[s] * factorial[n-1-s] / factorial[n]
	}

	shares := make(map[string]float64, n)
	for i, ch := range g.players {
		bit := uint32(1) << i
		phi := 0.0
		for s := 0; s < size; s++ {
			if uint32(s)&bit != 0 {
				continue
			}
			setSize := bits.OnesCount32(uint32(s))
			phi += weight[setSize] * (values[s|int(bit)] - values[s])
		}
		shares[ch] = phi
	}
	return shares
}

// sampledShapley estimates Shapley values by Monte Carlo permutation
// sampling. Work is split into fixed batches, each with a seed derived from
// the top-level seed and the batch index, so the estimate is identical
// regardless of worker count. Cancellation is checked between batches;
// partial results are discarded.
func (g *game) sampledShapley(ctx context.Context, sampleCount int, seed int64) (map[string]float64, error) {
	n := len(g.players)
	numBatches := (sampleCount + shapleyBatchSize - 1) / shapleyBatchSize

	// Per-batch marginal sums, reduced in batch-index order.
	batchSums := make([][]float64, numBatches)

	grp, grpCtx := errgroup.WithContext(ctx)
	grp.SetLimit(runtime.GOMAXPROCS(0))

	for b := 0; b < numBatches; b++ {
		batch := b
		grp.Go(func() error {
			if err := grpCtx.Err(); err != nil {
				return err
			}

			samples := shapleyBatchSize
			if batch == numBatches-1 {
				samples = sampleCount - batch*shapleyBatchSize
			}

			rng := rand.New(rand.NewSource(idhash.DeriveSeed(seed, batch)))
			sums := make([]float64, n)
			covered := make([]bool, len(g.coalitions))

			for s := 0; s < samples; s++ {
				perm := rng.Perm(n)
				for i := range covered {
					covered[i] = false
				}
				for _, pi := range perm {
					ch := g.players[pi]
					for ci := range g.coalitions {
						if covered[ci] || !g.coalitions[ci].channels[ch] {
							continue
						}
						covered[ci] = true
						sums[pi] += g.coalitions[ci].value
					}
				}
			}

			batchSums[batch] = sums
			return nil
		})
	}

	if err := grp.Wait(); err != nil {
		return nil, err
	}

	shares := make(map[string]float64, n)
	for b := 0; b < numBatches; b++ {
		for i, ch := range g.players {
			shares[ch] += batchSums[b][i]
		}
	}
	for ch := range shares {
		shares[ch] /= float64(sampleCount)
	}
	return shares, nil
}
