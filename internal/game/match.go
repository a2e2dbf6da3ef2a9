package game

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/exp/rand"

	"github.com/tcgsim/battlesim/internal/catalog"
	"github.com/tcgsim/battlesim/internal/game/counters"
	"github.com/tcgsim/battlesim/internal/game/rules"
	"github.com/tcgsim/battlesim/internal/game/watchers"
)

// Match defaults.
const (
	DefaultMaxTurns          = 200
	DefaultMaxActionsPerTurn = 20
	DefaultOpeningHand       = 7
	DefaultAttachLimit       = 1
)

// NoWinner is the Result.Winner of a drawn match.
const NoWinner = -1

// Reason says why a match ended.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonPrizesTaken
	ReasonDeckOut
	ReasonNoReplacement
	ReasonTurnLimit
)

var reasonNames = map[Reason]string{
	ReasonNone:          "NONE",
	ReasonPrizesTaken:   "PRIZES_TAKEN",
	ReasonDeckOut:       "DECK_OUT",
	ReasonNoReplacement: "NO_REPLACEMENT",
	ReasonTurnLimit:     "TURN_LIMIT",
}

func (r Reason) String() string {
	if name, ok := reasonNames[r]; ok {
		return name
	}
	return fmt.Sprintf("REASON_%d", int(r))
}

// MarshalText encodes the reason by name.
func (r Reason) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText decodes a reason name.
func (r *Reason) UnmarshalText(text []byte) error {
	for reason, name := range reasonNames {
		if name == string(text) {
			*r = reason
			return nil
		}
	}
	return fmt.Errorf("unknown reason %q", text)
}

// Result is the outcome of a finished match.
type Result struct {
	Winner int            `json:"winner"`
	Reason Reason         `json:"reason"`
	Turns  int            `json:"turns"`
	Stats  watchers.Stats `json:"stats"`
}

// IsDraw reports whether nobody won.
func (r Result) IsDraw() bool {
	return r.Winner == NoWinner
}

// MatchConfig controls one match. Zero values fall back to the defaults.
type MatchConfig struct {
	ID                string
	MaxTurns          int
	MaxActionsPerTurn int
	OpeningHand       int
	PrizeCards        int
	PrizesPerKnockout int
	BenchSize         int
	// AttachLimit caps resource attachments per turn; negative means unlimited.
	AttachLimit int
	FirstPlayer int
	// NoShuffle keeps decks in the given order. Used by scripted scenarios.
	NoShuffle bool

	Rand   *rand.Rand
	Hook   RuleHook
	Logger *zap.Logger
	Bus    *rules.EventBus
	Replay *Replay
}

func (cfg MatchConfig) withDefaults() MatchConfig {
	if cfg.ID == "" {
		cfg.ID = uuid.NewString()
	}
	if cfg.MaxTurns <= 0 {
		cfg.MaxTurns = DefaultMaxTurns
	}
	if cfg.MaxActionsPerTurn <= 0 {
		cfg.MaxActionsPerTurn = DefaultMaxActionsPerTurn
	}
	if cfg.OpeningHand <= 0 {
		cfg.OpeningHand = DefaultOpeningHand
	}
	if cfg.PrizeCards <= 0 {
		cfg.PrizeCards = DefaultPrizeCards
	}
	if cfg.PrizesPerKnockout <= 0 {
		cfg.PrizesPerKnockout = 1
	}
	if cfg.BenchSize <= 0 {
		cfg.BenchSize = DefaultBenchSize
	}
	switch {
	case cfg.AttachLimit == 0:
		cfg.AttachLimit = DefaultAttachLimit
	case cfg.AttachLimit < 0:
		cfg.AttachLimit = 0
	}
	if cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewSource(uint64(time.Now().UnixNano())))
	}
	if cfg.Hook == nil {
		cfg.Hook = StandardRules{}
	}
	if cfg.Bus == nil {
		cfg.Bus = rules.NewEventBus()
	}
	cfg.FirstPlayer &= 1
	return cfg
}

// PlayerSetup describes one seat: its constructed deck and its policy.
type PlayerSetup struct {
	Name      string
	Archetype string
	Deck      []catalog.Card
	Policy    Policy
}

// Match drives two players through the turn state machine. A match is used
// once and is not safe for concurrent use.
type Match struct {
	cfg      MatchConfig
	players  [2]*Player
	policies [2]Policy
	arena    [2][]*CardInstance
	turns    *rules.TurnManager
	bus      *rules.EventBus
	registry *rules.WatcherRegistry
	stats    *watchers.StatsSet
	logger   *zap.Logger

	mustPromote      [2]bool
	attachedThisTurn int
	result           *Result
}

// NewMatch builds a match in the setup phase. Nothing is shuffled or drawn
// until the first PlayTurn.
func NewMatch(cfg MatchConfig, first, second PlayerSetup) *Match {
	cfg = cfg.withDefaults()
	m := &Match{
		cfg:      cfg,
		turns:    rules.NewTurnManager(cfg.FirstPlayer),
		bus:      cfg.Bus,
		registry: rules.NewWatcherRegistry(),
		logger:   cfg.Logger,
	}
	m.stats = watchers.NewStatsSet(m.registry)
	m.registry.Attach(m.bus)

	for seat, setup := range [2]PlayerSetup{first, second} {
		name := setup.Name
		if name == "" {
			name = fmt.Sprintf("Player %d", seat+1)
		}
		m.arena[seat] = NewInstances(setup.Deck, seat)
		deck := append([]*CardInstance(nil), m.arena[seat]...)
		p := NewPlayer(name, seat, deck, cfg.PrizeCards, cfg.BenchSize)
		p.Archetype = setup.Archetype
		m.players[seat] = p
		m.policies[seat] = setup.Policy
		if m.policies[seat] == nil {
			m.policies[seat] = PolicyFunc(func(DecisionView) Action { return EndTurn() })
		}
	}
	return m
}

// ID returns the match ID.
func (m *Match) ID() string {
	return m.cfg.ID
}

// Player returns the state of a seat.
func (m *Match) Player(seat int) *Player {
	return m.players[seat&1]
}

// Instances returns every card instance a seat started with.
func (m *Match) Instances(seat int) []*CardInstance {
	return append([]*CardInstance(nil), m.arena[seat&1]...)
}

// Bus returns the match event bus.
func (m *Match) Bus() *rules.EventBus {
	return m.bus
}

// Watchers returns the match watcher registry.
func (m *Match) Watchers() *rules.WatcherRegistry {
	return m.registry
}

// Phase returns the current phase.
func (m *Match) Phase() rules.Phase {
	return m.turns.CurrentPhase()
}

// Turn returns the current turn number (0 before setup).
func (m *Match) Turn() int {
	return m.turns.TurnNumber()
}

// ActivePlayer returns the seat whose turn it is.
func (m *Match) ActivePlayer() int {
	return m.turns.ActivePlayer()
}

// Over reports whether the match has reached a terminal state.
func (m *Match) Over() bool {
	return m.result != nil
}

// Result returns the outcome once the match is over.
func (m *Match) Result() (Result, bool) {
	if m.result == nil {
		return Result{}, false
	}
	return *m.result, true
}

// MustPromote reports whether a seat owes a promotion from the bench.
func (m *Match) MustPromote(seat int) bool {
	return m.mustPromote[seat&1]
}

// PlayTurn plays one full turn for the active seat and reports whether the
// match is over. Calling it after the match ended changes nothing and
// returns true.
func (m *Match) PlayTurn() bool {
	if m.result != nil {
		return true
	}
	if m.turns.CurrentPhase() == rules.PhaseSetup {
		m.setup()
		m.advance()
	}

	seat := m.turns.ActivePlayer()
	p, opp := m.players[seat], m.players[1-seat]

	card, ok := p.DrawCard()
	if !ok {
		m.publish(rules.NewEvent(rules.EventDeckOut, m.cfg.ID, m.Turn(), seat))
		m.finish(1-seat, ReasonDeckOut)
		return true
	}
	m.publishCard(rules.EventCardDrawn, seat, card, 0)
	m.advance()

	attack, attacking := m.actionPhase(seat)
	m.advance()

	if attacking {
		m.resolveAttack(p, opp, attack)
		if m.resolveKnockouts() {
			return true
		}
	}
	m.advance()

	before := p.Conditions
	damage := m.cfg.Hook.BetweenTurns(p)
	m.publishConditions(seat, before)
	if damage > 0 {
		ev := rules.NewEventWithAmount(rules.EventDamageDealt, m.cfg.ID, m.Turn(), rules.NoPlayer, damage)
		ev.Data = "between_turns"
		m.publish(ev)
		if m.resolveKnockouts() {
			return true
		}
	}

	m.publish(rules.NewEvent(rules.EventTurnEnded, m.cfg.ID, m.Turn(), seat))
	m.registry.ResetWatchersByScope(rules.WatcherScopeTurn)
	m.attachedThisTurn = 0
	m.advance()

	if m.turns.TurnNumber() > m.cfg.MaxTurns {
		m.finish(NoWinner, ReasonTurnLimit)
		return true
	}
	m.record()
	return false
}

// Run plays turns until the match ends and returns the result.
func (m *Match) Run() Result {
	for !m.PlayTurn() {
	}
	return *m.result
}

func (m *Match) setup() {
	m.publish(rules.NewEvent(rules.EventMatchStarted, m.cfg.ID, 0, rules.NoPlayer))
	for seat, p := range m.players {
		if !m.cfg.NoShuffle {
			p.ShuffleDeck(m.cfg.Rand)
			m.publish(rules.NewEvent(rules.EventDeckShuffled, m.cfg.ID, 0, seat))
		}
		for i := 0; i < m.cfg.OpeningHand; i++ {
			card, ok := p.DrawCard()
			if !ok {
				break
			}
			m.publishCard(rules.EventCardDrawn, seat, card, 0)
		}
	}
	if m.logger != nil {
		m.logger.Debug("match setup complete",
			zap.String("match_id", m.cfg.ID),
			zap.String("first_player", m.players[m.turns.ActivePlayer()].Name),
			zap.Int("opening_hand", m.cfg.OpeningHand),
		)
	}
}

// actionPhase queries the seat's policy until it ends the turn, chooses a
// legal attack, or runs out of actions. Rejected proposals count toward the
// cap.
func (m *Match) actionPhase(seat int) (Action, bool) {
	p, opp := m.players[seat], m.players[1-seat]
	policy := m.policies[seat]

	for taken := 0; taken < m.cfg.MaxActionsPerTurn; taken++ {
		legal := legalActions(p, opp, m.cfg.Hook, m.mustPromote[seat], m.attachedThisTurn, m.cfg.AttachLimit)
		action := policy.Decide(DecisionView{
			MatchID:      m.cfg.ID,
			Turn:         m.Turn(),
			Self:         p.Snapshot(),
			Opponent:     opp.publicView(),
			Legal:        legal,
			ActionsTaken: taken,
			MustPromote:  m.mustPromote[seat],
		})

		switch action.Kind {
		case ActionEndTurn:
			if m.mustPromote[seat] {
				m.reject(seat, action, ErrMustPromote)
				continue
			}
			return Action{}, false
		case ActionAttack:
			if m.mustPromote[seat] {
				m.reject(seat, action, ErrMustPromote)
				continue
			}
			if err := p.checkAttack(opp, action.Index, m.cfg.Hook); err != nil {
				m.reject(seat, action, err)
				continue
			}
			return action, true
		}

		if err := m.apply(seat, action); err != nil {
			m.reject(seat, action, err)
		}
	}

	if m.mustPromote[seat] {
		m.forcePromote(seat)
	}
	return Action{}, false
}

// apply performs a non-attack action. On error nothing has changed.
func (m *Match) apply(seat int, action Action) error {
	p := m.players[seat]
	if m.mustPromote[seat] && action.Kind != ActionPromote {
		return ErrMustPromote
	}

	switch action.Kind {
	case ActionPlayCreature:
		card, err := p.PlayCreature(action.CardID)
		if err != nil {
			return err
		}
		m.publishCard(rules.EventCreaturePlayed, seat, card, 0)

	case ActionAttachResource:
		if m.cfg.AttachLimit > 0 && m.attachedThisTurn >= m.cfg.AttachLimit {
			return ErrAttachLimit
		}
		card, err := p.AttachResource(action.CardID)
		if err != nil {
			return err
		}
		m.attachedThisTurn++
		m.publishCard(rules.EventResourceAttached, seat, card, p.Active.Resources())

	case ActionPlaySupport:
		card, err := p.PlaySupport(action.CardID)
		if err != nil {
			return err
		}
		m.publishCard(rules.EventSupportPlayed, seat, card, 0)

	case ActionPromote:
		card, err := p.PromoteFromBench(action.Index)
		if err != nil {
			return err
		}
		m.mustPromote[seat] = false
		m.publishCard(rules.EventPromoted, seat, card, 0)

	default:
		return fmt.Errorf("%w: %s", ErrIllegalAction, action)
	}
	return nil
}

// forcePromote fills the active slot when a policy burned its whole action
// budget without promoting.
func (m *Match) forcePromote(seat int) {
	card, err := m.players[seat].PromoteFromBench(0)
	if err != nil {
		return
	}
	m.mustPromote[seat] = false
	ev := rules.NewEvent(rules.EventPromoted, m.cfg.ID, m.Turn(), seat)
	ev.CardID, ev.CardName, ev.Data = card.ID, card.Name(), "forced"
	m.publish(ev)
	if m.logger != nil {
		m.logger.Debug("forced promotion",
			zap.String("match_id", m.cfg.ID),
			zap.Int("seat", seat),
			zap.String("card", card.Name()),
		)
	}
}

func (m *Match) resolveAttack(p, opp *Player, action Action) {
	attacker := p.Active
	defender := opp.Active
	before := [2]ConditionSet{m.players[0].Conditions, m.players[1].Conditions}
	damage, err := p.Attack(opp, action.Index, m.cfg.Hook)
	if err != nil {
		m.reject(p.Seat, action, err)
		return
	}
	name := attacker.Card.Attacks[action.Index].Name

	ev := rules.NewEventWithAmount(rules.EventAttack, m.cfg.ID, m.Turn(), p.Seat, damage)
	ev.CardID, ev.CardName, ev.Data = attacker.ID, attacker.Name(), name
	m.publish(ev)

	hit := rules.NewEventWithAmount(rules.EventDamageDealt, m.cfg.ID, m.Turn(), p.Seat, damage)
	hit.CardID, hit.CardName, hit.Data = defender.ID, defender.Name(), name
	m.publish(hit)
	m.publishConditions(0, before[0])
	m.publishConditions(1, before[1])

	if m.logger != nil {
		m.logger.Debug("attack resolved",
			zap.String("match_id", m.cfg.ID),
			zap.Int("turn", m.Turn()),
			zap.String("attacker", attacker.Name()),
			zap.String("attack", name),
			zap.String("defender", defender.Name()),
			zap.Int("damage", damage),
			zap.Int("defender_hp", defender.HP),
		)
	}
}

// resolveKnockouts discards every knocked-out active creature and reports
// whether that ended the match. All prizes are awarded before any
// replacement is checked.
func (m *Match) resolveKnockouts() bool {
	var knocked [2]bool
	for seat, p := range m.players {
		if p.Active != nil && p.Active.HP <= 0 {
			knocked[seat] = true
		}
	}
	if !knocked[0] && !knocked[1] {
		return false
	}

	for seat := range m.players {
		if !knocked[seat] {
			continue
		}
		taker := m.players[1-seat]
		for i := 0; i < m.cfg.PrizesPerKnockout; i++ {
			taker.TakePrizeCard()
		}
		m.publish(rules.NewEventWithAmount(rules.EventPrizeTaken, m.cfg.ID, m.Turn(), taker.Seat, taker.Prizes))
	}

	var noReplacement [2]bool
	for seat, p := range m.players {
		if !knocked[seat] {
			continue
		}
		card := p.DiscardActive()
		ev := rules.NewEvent(rules.EventKnockout, m.cfg.ID, m.Turn(), 1-seat)
		ev.CardID, ev.CardName = card.ID, card.Name()
		m.publish(ev)
		if len(p.Bench) == 0 {
			noReplacement[seat] = true
		} else {
			m.mustPromote[seat] = true
		}
	}

	prizesDone := [2]bool{m.players[0].Prizes == 0, m.players[1].Prizes == 0}
	switch {
	case prizesDone[0] && prizesDone[1]:
		m.finish(NoWinner, ReasonPrizesTaken)
	case prizesDone[0]:
		m.finish(0, ReasonPrizesTaken)
	case prizesDone[1]:
		m.finish(1, ReasonPrizesTaken)
	case noReplacement[0] && noReplacement[1]:
		m.finish(NoWinner, ReasonNoReplacement)
	case noReplacement[0]:
		m.finish(1, ReasonNoReplacement)
	case noReplacement[1]:
		m.finish(0, ReasonNoReplacement)
	default:
		return false
	}
	return true
}

func (m *Match) finish(winner int, reason Reason) {
	m.result = &Result{
		Winner: winner,
		Reason: reason,
		Turns:  m.turns.TurnNumber(),
		Stats:  m.stats.Stats(),
	}
	m.turns.Terminate()

	ev := rules.NewEvent(rules.EventMatchEnded, m.cfg.ID, m.result.Turns, winner)
	ev.Data = reason.String()
	m.publish(ev)

	if m.logger != nil {
		m.logger.Debug("match finished",
			zap.String("match_id", m.cfg.ID),
			zap.Int("winner", winner),
			zap.String("reason", reason.String()),
			zap.Int("turns", m.result.Turns),
		)
	}
	m.record()
}

func (m *Match) reject(seat int, action Action, err error) {
	m.players[seat].Usage.Increment(counters.CounterTypeActionsRejected)
	ev := rules.NewEvent(rules.EventActionRejected, m.cfg.ID, m.Turn(), seat)
	ev.CardID = action.CardID
	ev.Data = action.String()
	ev.Description = err.Error()
	m.publish(ev)
	if m.logger != nil {
		m.logger.Debug("action rejected",
			zap.String("match_id", m.cfg.ID),
			zap.Int("turn", m.Turn()),
			zap.Int("seat", seat),
			zap.Stringer("action", action),
			zap.Error(err),
		)
	}
}

func (m *Match) advance() {
	from := m.turns.CurrentPhase()
	to := m.turns.Advance()
	ev := rules.NewEvent(rules.EventPhaseChanged, m.cfg.ID, m.turns.TurnNumber(), m.turns.ActivePlayer())
	ev.Data = to.String()
	m.publish(ev)
	if m.logger != nil {
		m.logger.Debug("phase changed",
			zap.String("match_id", m.cfg.ID),
			zap.Int("turn", m.turns.TurnNumber()),
			zap.Stringer("from", from),
			zap.Stringer("to", to),
		)
	}
}

func (m *Match) publish(event rules.Event) {
	m.bus.Publish(event)
}

func (m *Match) publishCard(eventType rules.EventType, seat int, card *CardInstance, amount int) {
	ev := rules.NewEventWithAmount(eventType, m.cfg.ID, m.Turn(), seat, amount)
	ev.CardID, ev.CardName = card.ID, card.Name()
	m.publish(ev)
}

// publishConditions reports how a seat's conditions changed since before.
func (m *Match) publishConditions(seat int, before ConditionSet) {
	after := m.players[seat].Conditions
	for _, c := range AllConditions() {
		var eventType rules.EventType
		switch {
		case after.Has(c) && !before.Has(c):
			eventType = rules.EventConditionApplied
		case before.Has(c) && !after.Has(c):
			eventType = rules.EventConditionCleared
		default:
			continue
		}
		ev := rules.NewEvent(eventType, m.cfg.ID, m.Turn(), seat)
		ev.Data = c.String()
		m.publish(ev)
	}
}

// record appends a snapshot to the replay, if one is attached.
func (m *Match) record() {
	if m.cfg.Replay != nil {
		snap := m.Snapshot()
		m.cfg.Replay.RecordState(&snap)
	}
}

// Snapshot returns a deep copy of the match for observers.
func (m *Match) Snapshot() MatchSnapshot {
	snap := MatchSnapshot{
		MatchID:      m.cfg.ID,
		Turn:         m.turns.TurnNumber(),
		Phase:        m.turns.CurrentPhase(),
		ActivePlayer: m.turns.ActivePlayer(),
		Over:         m.result != nil,
		Timestamp:    time.Now(),
	}
	for seat, p := range m.players {
		snap.Players[seat] = p.Snapshot()
	}
	if m.result != nil {
		res := *m.result
		snap.Result = &res
	}
	return snap
}
