package policy

import (
	"fmt"
	"strings"

	"golang.org/x/exp/rand"

	"github.com/tcgsim/battlesim/internal/game"
)

// Factory builds a fresh policy for one seat of one match. rng is owned by
// the returned policy.
type Factory func(archetype string, rng *rand.Rand) game.Policy

// HeuristicFactory gives every seat the heuristic of its archetype.
func HeuristicFactory(archetype string, rng *rand.Rand) game.Policy {
	return NewHeuristic(StyleFor(archetype), rng)
}

// RandomFactory gives every seat a Random policy.
func RandomFactory(_ string, rng *rand.Rand) game.Policy {
	return NewRandom(rng, DefaultPassProbability)
}

// ExternalFactory wraps a shared scorer. The scorer must be safe for
// concurrent use when matches run in parallel.
func ExternalFactory(scorer Scorer) Factory {
	return func(_ string, rng *rand.Rand) game.Policy {
		return NewExternal(scorer, rng)
	}
}

// ByName returns a built-in factory: "heuristic" or "random".
func ByName(name string) (Factory, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "heuristic":
		return HeuristicFactory, nil
	case "random":
		return RandomFactory, nil
	default:
		return nil, fmt.Errorf("unknown policy %q", name)
	}
}
