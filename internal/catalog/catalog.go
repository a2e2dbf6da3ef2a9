package catalog

import (
	"errors"
	"fmt"
	"sort"
)

var (
	ErrEmptyCatalog = errors.New("catalog has no cards")
	ErrDuplicateID  = errors.New("duplicate card id")
)

// Catalog is a read-only collection of card definitions. It is safe for
// concurrent use because nothing mutates it after New returns.
type Catalog struct {
	cards []Card
	byID  map[string]int
}

// New builds a catalog from the given definitions. The input is copied.
func New(cards []Card) (*Catalog, error) {
	if len(cards) == 0 {
		return nil, ErrEmptyCatalog
	}
	c := &Catalog{
		cards: make([]Card, 0, len(cards)),
		byID:  make(map[string]int, len(cards)),
	}
	for _, card := range cards {
		if card.ID == "" {
			return nil, fmt.Errorf("card %q has no id", card.Name)
		}
		if _, exists := c.byID[card.ID]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateID, card.ID)
		}
		c.byID[card.ID] = len(c.cards)
		c.cards = append(c.cards, card.clone())
	}
	return c, nil
}

// Len returns the number of definitions.
func (c *Catalog) Len() int {
	return len(c.cards)
}

// Get looks up a definition by ID.
func (c *Catalog) Get(id string) (Card, bool) {
	idx, ok := c.byID[id]
	if !ok {
		return Card{}, false
	}
	return c.cards[idx].clone(), true
}

// All returns every definition, sorted by ID.
func (c *Catalog) All() []Card {
	out := make([]Card, 0, len(c.cards))
	for _, card := range c.cards {
		out = append(out, card.clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ByCategory returns the definitions in the given categories, sorted by ID.
func (c *Catalog) ByCategory(categories ...Category) []Card {
	want := make(map[Category]bool, len(categories))
	for _, cat := range categories {
		want[cat] = true
	}
	out := make([]Card, 0)
	for _, card := range c.cards {
		if want[card.Category] {
			out = append(out, card.clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Counts returns how many definitions exist per category.
func (c *Catalog) Counts() map[Category]int {
	counts := make(map[Category]int)
	for _, card := range c.cards {
		counts[card.Category]++
	}
	return counts
}
