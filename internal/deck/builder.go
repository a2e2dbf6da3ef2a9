package deck

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/tcgsim/battlesim/internal/catalog"
)

// Deck size bounds and copy limit.
const (
	DefaultMinSize   = 10
	DefaultMaxSize   = 20
	DefaultMaxCopies = 2
)

// Builder constructs archetype decks from a catalog. Build is deterministic
// and a Builder is safe for concurrent use once configured.
type Builder struct {
	MinSize   int
	MaxSize   int
	MaxCopies int

	profiles map[string]Profile
}

// NewBuilder returns a builder with the built-in profiles, replaced or
// extended by the given ones (matched by name, case-insensitively).
func NewBuilder(overrides ...Profile) *Builder {
	b := &Builder{
		MinSize:   DefaultMinSize,
		MaxSize:   DefaultMaxSize,
		MaxCopies: DefaultMaxCopies,
		profiles:  make(map[string]Profile),
	}
	for _, p := range DefaultProfiles() {
		b.profiles[strings.ToLower(p.Name)] = p
	}
	for _, p := range overrides {
		b.profiles[strings.ToLower(p.Name)] = p
	}
	return b
}

// Profile returns the profile of an archetype.
func (b *Builder) Profile(archetype string) (Profile, error) {
	p, ok := b.profiles[strings.ToLower(archetype)]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %q", ErrUnknownArchetype, archetype)
	}
	return p, nil
}

// Archetypes returns the names of every known profile, sorted.
func (b *Builder) Archetypes() []string {
	names := make([]string, 0, len(b.profiles))
	for _, p := range b.profiles {
		names = append(names, p.Name)
	}
	sort.Strings(names)
	return names
}

// Composition returns the declared creature and non-creature counts of an
// archetype's full-size deck.
func (b *Builder) Composition(archetype string) (creatures, support int, err error) {
	p, err := b.Profile(archetype)
	if err != nil {
		return 0, 0, err
	}
	size := b.targetSize(p)
	creatures = split(size, p.CreatureRatio)
	return creatures, size - creatures, nil
}

// Build returns the deck of an archetype: creatures first, ranked by the
// profile's weights, then resources and supports. When the catalog cannot
// supply a full-size deck the size shrinks toward MinSize, keeping the
// creature ratio.
func (b *Builder) Build(archetype string, cat *catalog.Catalog) ([]catalog.Card, error) {
	p, err := b.Profile(archetype)
	if err != nil {
		return nil, err
	}

	creatures := rankCreatures(cat.ByCategory(catalog.CategoryCreature), p.Weights)
	resources := cat.ByCategory(catalog.CategoryResource)
	supports := cat.ByCategory(catalog.CategorySupport)

	copies := b.maxCopies()
	creatureCap := len(creatures) * copies
	nonCreatureCap := (len(resources) + len(supports)) * copies

	minSize := b.MinSize
	if minSize <= 0 {
		minSize = DefaultMinSize
	}
	for size := b.targetSize(p); size >= minSize; size-- {
		wantCreatures := split(size, p.CreatureRatio)
		wantOther := size - wantCreatures
		if wantCreatures > creatureCap || wantOther > nonCreatureCap {
			continue
		}

		wantResources := split(wantOther, p.ResourceShare)
		if limit := len(resources) * copies; wantResources > limit {
			wantResources = limit
		}
		wantSupports := wantOther - wantResources
		if limit := len(supports) * copies; wantSupports > limit {
			wantResources += wantSupports - limit
			wantSupports = limit
		}

		deck := make([]catalog.Card, 0, size)
		deck = append(deck, take(creatures, wantCreatures, copies)...)
		deck = append(deck, take(resources, wantResources, copies)...)
		deck = append(deck, take(supports, wantSupports, copies)...)
		return deck, nil
	}

	return nil, fmt.Errorf("%w: archetype %s needs %d cards, catalog has %d creatures and %d non-creatures (max %d copies)",
		ErrInsufficientCatalog, p.Name, minSize, len(creatures), len(resources)+len(supports), copies)
}

func (b *Builder) maxCopies() int {
	if b.MaxCopies <= 0 {
		return DefaultMaxCopies
	}
	return b.MaxCopies
}

// targetSize clamps the profile's deck size to the builder's bounds.
func (b *Builder) targetSize(p Profile) int {
	minSize, maxSize := b.MinSize, b.MaxSize
	if minSize <= 0 {
		minSize = DefaultMinSize
	}
	if maxSize < minSize {
		maxSize = minSize
	}
	size := p.DeckSize
	if size <= 0 {
		size = maxSize
	}
	if size < minSize {
		size = minSize
	}
	if size > maxSize {
		size = maxSize
	}
	return size
}

func split(n int, ratio float64) int {
	return int(math.Round(float64(n) * ratio))
}

func score(c catalog.Card, w Weights) float64 {
	return w.Damage*float64(c.MaxDamage()) + w.HP*float64(c.HP) - w.Cost*c.MeanCost()
}

// rankCreatures sorts by descending score, then by ID.
func rankCreatures(cards []catalog.Card, w Weights) []catalog.Card {
	sort.SliceStable(cards, func(i, j int) bool {
		si, sj := score(cards[i], w), score(cards[j], w)
		if si != sj {
			return si > sj
		}
		return cards[i].ID < cards[j].ID
	})
	return cards
}

// take picks n cards from the ranked list, one copy of each per round, for
// at most copies rounds.
func take(ranked []catalog.Card, n, copies int) []catalog.Card {
	out := make([]catalog.Card, 0, n)
	for round := 0; round < copies && len(out) < n; round++ {
		for _, c := range ranked {
			if len(out) == n {
				break
			}
			out = append(out, c)
		}
	}
	return out
}
