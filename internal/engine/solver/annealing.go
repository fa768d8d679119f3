package solver

import (
	"context"
	"math"
	"math/rand"
	"time"
)

const (
	initialTemperature = 50.0
	minTemperature     = 0.01
	coolingFactor      = 0.97
	movesPerPlateau    = 40
	reheatFactor       = 0.5
)

// anneal runs simulated annealing from the seed: worsening moves are accepted
// with probability exp(-delta/T) under a geometric cooling schedule, and the
// temperature is reheated when no improvement lands within the unimproved
// budget.
func anneal(ctx context.Context, p *problem, st *state, rng *rand.Rand, deadline time.Time, unimproved time.Duration) *state {
	best := st.clone()
	bestScore := best.score()
	current := st
	currentScore := bestScore

	temperature := initialTemperature
	lastImprovement := time.Now()

	for {
		if ctx.Err() != nil || time.Now().After(deadline) {
			return best
		}
		if best.feasible() && time.Since(lastImprovement) > unimproved {
			return best
		}
		if time.Since(lastImprovement) > unimproved {
			temperature = initialTemperature * reheatFactor
			lastImprovement = time.Now()
		}

		for i := 0; i < movesPerPlateau; i++ {
			mv, ok := randomMove(p, current, rng)
			if !ok {
				return best
			}
			apply(current, mv)
			score := current.score()
			delta := score - currentScore

			if delta <= 0 || rng.Float64() < math.Exp(-delta/temperature) {
				currentScore = score
				if score < bestScore {
					best = current.clone()
					bestScore = score
					lastImprovement = time.Now()
				}
				continue
			}
			revert(current, mv)
		}

		temperature *= coolingFactor
		if temperature < minTemperature {
			temperature = minTemperature
		}
	}
}
