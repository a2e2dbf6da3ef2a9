package sim

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/exp/rand"
	"golang.org/x/sync/errgroup"

	"github.com/tcgsim/battlesim/internal/catalog"
	"github.com/tcgsim/battlesim/internal/deck"
	"github.com/tcgsim/battlesim/internal/game"
	"github.com/tcgsim/battlesim/internal/policy"
)

// DeckSource builds the deck an archetype plays with.
type DeckSource interface {
	Deck(archetype string) ([]catalog.Card, error)
}

// CatalogDecks builds decks from a catalog and caches them per archetype.
// Builds are deterministic, so a cached deck equals a fresh one.
type CatalogDecks struct {
	builder *deck.Builder
	catalog *catalog.Catalog
	cache   sync.Map
}

func NewCatalogDecks(builder *deck.Builder, cat *catalog.Catalog) *CatalogDecks {
	return &CatalogDecks{builder: builder, catalog: cat}
}

func (d *CatalogDecks) Deck(archetype string) ([]catalog.Card, error) {
	if cached, ok := d.cache.Load(archetype); ok {
		return cached.([]catalog.Card), nil
	}
	cards, err := d.builder.Build(archetype, d.catalog)
	if err != nil {
		return nil, err
	}
	d.cache.Store(archetype, cards)
	return cards, nil
}

// Observer receives a snapshot after every turn of every match. It is
// called from worker goroutines and must be safe for concurrent use.
type Observer func(snapshot game.MatchSnapshot)

// Matchup picks the archetypes of one match.
type Matchup func(match int, rng *rand.Rand, pool []string) [2]string

// SampleWithReplacement draws both seats independently from the pool.
func SampleWithReplacement(_ int, rng *rand.Rand, pool []string) [2]string {
	return [2]string{pool[rng.Intn(len(pool))], pool[rng.Intn(len(pool))]}
}

// Options configure a Harness. Zero values take defaults.
type Options struct {
	// Workers bounds concurrent matches; 0 means GOMAXPROCS.
	Workers int
	// Seed is the run seed; 0 derives one from the clock.
	Seed uint64
	// Match is the template of every match. ID, Rand, Bus, Replay and
	// Logger are set per match.
	Match    game.MatchConfig
	Policies policy.Factory
	Matchup  Matchup
	Observer Observer
	Recorder *game.ReplayRecorder
	Logger   *zap.Logger
}

// Harness runs batches of independent matches.
type Harness struct {
	opts  Options
	decks DeckSource
}

func NewHarness(decks DeckSource, opts Options) *Harness {
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	if opts.Policies == nil {
		opts.Policies = policy.HeuristicFactory
	}
	if opts.Matchup == nil {
		opts.Matchup = SampleWithReplacement
	}
	return &Harness{opts: opts, decks: decks}
}

// Run plays numMatches matches between archetypes drawn from pool and
// returns the merged result. Cancelling ctx stops dispatching new matches;
// matches already running finish, and the partial result is returned with
// the context's error.
func (h *Harness) Run(ctx context.Context, numMatches int, pool []string) (*AggregateResult, error) {
	if numMatches < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidMatchCount, numMatches)
	}
	if len(pool) == 0 {
		return nil, ErrNoArchetypes
	}
	pool = append([]string(nil), pool...)

	seed := h.opts.Seed
	if seed == 0 {
		seed = timeSeed()
	}
	c := &collector{res: NewAggregateResult(seed, numMatches)}

	if h.opts.Logger != nil {
		h.opts.Logger.Info("simulation run started",
			zap.Int("matches", numMatches),
			zap.Strings("archetypes", pool),
			zap.Int("workers", h.opts.Workers),
			zap.Uint64("seed", seed),
		)
	}

	var g errgroup.Group
	g.SetLimit(h.opts.Workers)
	for i := 0; i < numMatches; i++ {
		if ctx.Err() != nil {
			break
		}
		index := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			h.playMatch(index, MatchSeed(seed, index), pool, c)
			return nil
		})
	}
	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}

	res := c.result()
	if h.opts.Logger != nil {
		h.opts.Logger.Info("simulation run finished",
			zap.Int("matches", numMatches),
			zap.Int("draws", res.Draws),
			zap.Int("failures", len(res.Failures)),
			zap.Any("wins", res.Wins),
			zap.Error(err),
		)
	}
	return res, err
}

// playMatch runs one match and records exactly one outcome for it.
func (h *Harness) playMatch(index int, seed uint64, pool []string, c *collector) {
	logger := h.opts.Logger
	matchID := uuid.NewString()
	defer func() {
		if r := recover(); r != nil {
			c.fail(index, fmt.Sprintf("panic: %v", r))
			if h.opts.Recorder != nil {
				h.opts.Recorder.ClearReplay(matchID)
			}
			if logger != nil {
				logger.Error("match panicked",
					zap.Int("match", index),
					zap.String("match_id", matchID),
					zap.Any("panic", r),
				)
			}
		}
	}()

	rng := rand.New(rand.NewSource(seed))
	archetypes := h.opts.Matchup(index, rng, pool)

	var setups [2]game.PlayerSetup
	for seat, archetype := range archetypes {
		cards, err := h.decks.Deck(archetype)
		if err != nil {
			c.fail(index, fmt.Sprintf("build %s deck: %v", archetype, err))
			if logger != nil {
				logger.Warn("deck build failed",
					zap.Int("match", index),
					zap.String("archetype", archetype),
					zap.Error(err),
				)
			}
			return
		}
		policyRng := rand.New(rand.NewSource(deriveSeed(seed, uint64(seat)+1)))
		setups[seat] = game.PlayerSetup{
			Name:      fmt.Sprintf("%s (seat %d)", archetype, seat+1),
			Archetype: archetype,
			Deck:      cards,
			Policy:    h.opts.Policies(archetype, policyRng),
		}
	}

	cfg := h.opts.Match
	cfg.ID = matchID
	cfg.Rand = rng
	cfg.Bus = nil
	cfg.Logger = logger
	cfg.Replay = nil
	if h.opts.Recorder != nil {
		cfg.Replay = h.opts.Recorder.StartRecording(matchID)
	}
	m := game.NewMatch(cfg, setups[0], setups[1])

	for !m.PlayTurn() {
		if h.opts.Observer != nil {
			h.opts.Observer(m.Snapshot())
		}
	}
	if h.opts.Observer != nil {
		h.opts.Observer(m.Snapshot())
	}

	result, _ := m.Result()
	c.record(archetypes, result, [2]game.Playstyle{
		m.Player(0).ClassifyPlaystyle(),
		m.Player(1).ClassifyPlaystyle(),
	})

	if h.opts.Recorder != nil {
		if err := h.opts.Recorder.SaveReplay(matchID); err != nil && logger != nil {
			logger.Warn("failed to save replay", zap.String("match_id", matchID), zap.Error(err))
		}
	}
}
