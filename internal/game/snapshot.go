package game

import (
	"time"

	"github.com/tcgsim/battlesim/internal/catalog"
	"github.com/tcgsim/battlesim/internal/game/rules"
)

// CardView is a read-only copy of a card instance and its overlay.
type CardView struct {
	InstanceID string           `json:"instance_id"`
	CardID     string           `json:"card_id"`
	Name       string           `json:"name"`
	Category   catalog.Category `json:"category"`
	HP         int              `json:"hp,omitempty"`
	MaxHP      int              `json:"max_hp,omitempty"`
	Resources  int              `json:"resources,omitempty"`
	Attacks    []catalog.Attack `json:"attacks,omitempty"`
	Types      []string         `json:"types,omitempty"`
}

// PlayerView is a read-only copy of one seat. Hand is nil in views of the
// opponent; HandCount is always set.
type PlayerView struct {
	Seat         int            `json:"seat"`
	Name         string         `json:"name"`
	Archetype    string         `json:"archetype,omitempty"`
	Hand         []CardView     `json:"hand,omitempty"`
	HandCount    int            `json:"hand_count"`
	DeckCount    int            `json:"deck_count"`
	Active       *CardView      `json:"active,omitempty"`
	Bench        []CardView     `json:"bench"`
	DiscardCount int            `json:"discard_count"`
	Prizes       int            `json:"prizes"`
	Conditions   []Condition    `json:"conditions,omitempty"`
	AttackLog    []int          `json:"attack_log,omitempty"`
	Usage        map[string]int `json:"usage,omitempty"`
}

// Snapshot returns a deep copy of the player's state including the hand.
func (p *Player) Snapshot() PlayerView {
	view := p.publicView()
	view.Hand = make([]CardView, 0, len(p.Hand))
	for _, c := range p.Hand {
		view.Hand = append(view.Hand, c.view())
	}
	return view
}

// publicView is what the opponent is allowed to see.
func (p *Player) publicView() PlayerView {
	view := PlayerView{
		Seat:         p.Seat,
		Name:         p.Name,
		Archetype:    p.Archetype,
		HandCount:    len(p.Hand),
		DeckCount:    len(p.Deck),
		Bench:        make([]CardView, 0, len(p.Bench)),
		DiscardCount: len(p.Discard),
		Prizes:       p.Prizes,
		Conditions:   p.Conditions.List(),
		AttackLog:    append([]int(nil), p.AttackLog...),
		Usage:        p.Usage.Snapshot(),
	}
	if p.Active != nil {
		active := p.Active.view()
		view.Active = &active
	}
	for _, c := range p.Bench {
		view.Bench = append(view.Bench, c.view())
	}
	return view
}

// MatchSnapshot is a read-only copy of the whole match, taken between turns.
type MatchSnapshot struct {
	MatchID      string        `json:"match_id"`
	Turn         int           `json:"turn"`
	Phase        rules.Phase   `json:"phase"`
	ActivePlayer int           `json:"active_player"`
	Players      [2]PlayerView `json:"players"`
	Over         bool          `json:"over"`
	Result       *Result       `json:"result,omitempty"`
	Timestamp    time.Time     `json:"timestamp"`
}
