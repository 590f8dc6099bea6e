package attribution

import (
	"context"

	"github.com/sotirisspyrou-uk/ai-marketing-toolkit/internal/domain"
)

// Chain state identifiers. Channel names are states too; these three are
// reserved and never valid channel identifiers.
const (
	stateStart      = "__start__"
	stateConversion = "__conversion__"
	stateNull       = "__null__"
)

// markovSolveTolerance bounds the fixed-point iteration for absorption
// probabilities.
const markovSolveTolerance = 1e-12

// markovSolveMaxIter caps the fixed-point iteration. First-order chains over
// marketing paths converge far earlier in practice.
const markovSolveMaxIter = 10000

// MarkovModel implements data-driven attribution via removal effects. A
// first-order Markov chain is fitted over all observed journeys (converted
// journeys absorb in conversion, the rest in null); each channel's removal
// effect is the proportional drop in overall conversion probability when
// transitions through that channel are redirected to null. Conversion value
// is allocated per journey proportional to the removal effects of the
// journey's distinct channels.
type MarkovModel struct{}

// NewMarkovModel creates a Markov removal-effect model.
func NewMarkovModel() *MarkovModel {
	return &MarkovModel{}
}

// ID returns the model type identifier.
func (m *MarkovModel) ID() string {
	return domain.ModelTypeMarkov
}

// Allocate fits the chain on the full journey set and distributes each
// converted journey's value by the removal effects of its channels.
func (m *MarkovModel) Allocate(ctx context.Context, input *ModelInput) ([]domain.CreditVector, error) {
	if err := checkMinConverted(input); err != nil {
		return nil, err
	}
	if input.ConvertedCount() == 0 {
		return nil, ErrInsufficientData
	}

	chain := fitChain(input.Journeys)
	baseline := chain.conversionProbability(nil)
	if baseline == 0 {
		// Converted journeys exist but the chain assigns them zero mass;
		// only possible with no touchpoints, which validation excludes.
		return nil, ErrInsufficientData
	}

	effects := make(map[string]float64, len(chain.channels))
	for _, ch := range chain.channels {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		removed := chain.conversionProbability(map[string]bool{ch: true})
		effect := (baseline - removed) / baseline
		if effect < 0 {
			effect = 0
		}
		effects[ch] = effect
	}

	out := make([]domain.CreditVector, len(input.Journeys))
	for i, j := range input.Journeys {
		out[i] = distributeByChannelShares(j, effects)
	}
	return out, nil
}

// chain holds first-order transition counts over channel states. States and
// per-state destinations keep their first-seen order so sweeps over the
// chain are deterministic.
type chain struct {
	channels    []string                  // distinct channels, first-seen order
	transitions map[string]map[string]int // from -> to -> count
	destOrder   map[string][]string       // from -> to, first-seen order
}

// fitChain counts transitions over all journeys. Every journey contributes
// start -> first channel, channel -> channel steps, and a terminal step to
// the conversion or null absorbing state.
func fitChain(journeys []*domain.Journey) *chain {
	c := &chain{
		transitions: make(map[string]map[string]int),
		destOrder:   make(map[string][]string),
	}
	seen := make(map[string]bool)

	add := func(from, to string) {
		row := c.transitions[from]
		if row == nil {
			row = make(map[string]int)
			c.transitions[from] = row
		}
		if _, ok := row[to]; !ok {
			c.destOrder[from] = append(c.destOrder[from], to)
		}
		row[to]++
	}

	for _, j := range journeys {
		if len(j.Touchpoints) == 0 {
			continue
		}
		prev := stateStart
		for _, tp := range j.Touchpoints {
			if !seen[tp.Channel] {
				seen[tp.Channel] = true
				c.channels = append(c.channels, tp.Channel)
			}
			add(prev, tp.Channel)
			prev = tp.Channel
		}
		if j.Converted {
			add(prev, stateConversion)
		} else {
			add(prev, stateNull)
		}
	}
	return c
}

// conversionProbability computes the probability of absorbing in conversion
// when starting from the start state, with transitions into removed channels
// redirected to null. Solved by fixed-point iteration on
// v(s) = sum_t p(s->t) * v(t) with v(conversion)=1, v(null)=0. The sweep
// visits states and destinations in fixed first-seen order, never map order,
// so repeated solves on the same chain are bit-identical.
func (c *chain) conversionProbability(removed map[string]bool) float64 {
	states := make([]string, 0, len(c.channels)+1)
	states = append(states, stateStart)
	states = append(states, c.channels...)

	values := make(map[string]float64, len(states))

	for iter := 0; iter < markovSolveMaxIter; iter++ {
		maxDelta := 0.0
		for _, from := range states {
			if removed[from] {
				continue
			}
			row := c.transitions[from]
			if len(row) == 0 {
				continue
			}
			total := 0
			for _, count := range row {
				total += count
			}
			next := 0.0
			for _, to := range c.destOrder[from] {
				p := float64(row[to]) / float64(total)
				switch {
				case to == stateConversion:
					next += p
				case to == stateNull || removed[to]:
					// absorbed in null, contributes 0
				default:
					next += p * values[to]
				}
			}
			if delta := next - values[from]; delta > maxDelta {
				maxDelta = delta
			} else if -delta > maxDelta {
				maxDelta = -delta
			}
			values[from] = next
		}
		if maxDelta < markovSolveTolerance {
			break
		}
	}
	return values[stateStart]
}
