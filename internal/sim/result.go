package sim

import (
	"sort"
	"sync"

	"github.com/tcgsim/battlesim/internal/game"
)

// Failure records a match that produced no outcome.
type Failure struct {
	Match  int    `json:"match"`
	Reason string `json:"reason"`
}

// AggregateResult is the reduction of every match of one run. Each match
// lands in exactly one of Wins, Draws or Failures.
type AggregateResult struct {
	Seed     uint64         `json:"seed"`
	Matches  int            `json:"matches"`
	Wins     map[string]int `json:"wins"`
	Draws    int            `json:"draws"`
	Failures []Failure      `json:"failures,omitempty"`
	// Turns is the sum of turns over all finished matches.
	Turns int `json:"turns"`
	// Reasons counts finished matches by how they ended.
	Reasons map[string]int `json:"reasons"`
	// Appearances counts how many seats each archetype took.
	Appearances map[string]int `json:"appearances"`
	// Playstyles counts the end-of-match playstyle of every seat by archetype.
	Playstyles map[string]map[string]int `json:"playstyles"`
	Knockouts  map[string]int            `json:"knockouts"`
}

// NewAggregateResult returns an empty result for a run of n matches.
func NewAggregateResult(seed uint64, n int) *AggregateResult {
	return &AggregateResult{
		Seed:        seed,
		Matches:     n,
		Wins:        make(map[string]int),
		Reasons:     make(map[string]int),
		Appearances: make(map[string]int),
		Playstyles:  make(map[string]map[string]int),
		Knockouts:   make(map[string]int),
	}
}

// TotalWins sums the win counts.
func (r *AggregateResult) TotalWins() int {
	total := 0
	for _, n := range r.Wins {
		total += n
	}
	return total
}

// Recorded is the number of matches accounted for.
func (r *AggregateResult) Recorded() int {
	return r.TotalWins() + r.Draws + len(r.Failures)
}

// Finished is the number of matches that reached an outcome.
func (r *AggregateResult) Finished() int {
	return r.TotalWins() + r.Draws
}

// MeanTurns is the average match length over finished matches.
func (r *AggregateResult) MeanTurns() float64 {
	finished := r.Finished()
	if finished == 0 {
		return 0
	}
	return float64(r.Turns) / float64(finished)
}

// Archetypes returns every archetype that won or took a seat, sorted.
func (r *AggregateResult) Archetypes() []string {
	seen := make(map[string]bool, len(r.Appearances))
	for name := range r.Appearances {
		seen[name] = true
	}
	for name := range r.Wins {
		seen[name] = true
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// collector merges match outcomes from concurrent workers.
type collector struct {
	mu  sync.Mutex
	res *AggregateResult
}

func (c *collector) record(archetypes [2]string, result game.Result, playstyles [2]game.Playstyle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if result.IsDraw() {
		c.res.Draws++
	} else {
		c.res.Wins[archetypes[result.Winner]]++
	}
	c.res.Turns += result.Turns
	c.res.Reasons[result.Reason.String()]++
	for seat, archetype := range archetypes {
		c.res.Appearances[archetype]++
		c.res.Knockouts[archetype] += result.Stats.Knockouts[seat]
		styles := c.res.Playstyles[archetype]
		if styles == nil {
			styles = make(map[string]int)
			c.res.Playstyles[archetype] = styles
		}
		styles[playstyles[seat].String()]++
	}
}

func (c *collector) fail(match int, reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.res.Failures = append(c.res.Failures, Failure{Match: match, Reason: reason})
}

// result returns the merged result with failures in match order.
func (c *collector) result() *AggregateResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	sort.Slice(c.res.Failures, func(i, j int) bool { return c.res.Failures[i].Match < c.res.Failures[j].Match })
	return c.res
}
