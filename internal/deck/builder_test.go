package deck

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tcgsim/battlesim/internal/catalog"
)

func testCatalog(t *testing.T, creatures, supports, resources int) *catalog.Catalog {
	t.Helper()
	var cards []catalog.Card
	for i := 0; i < creatures; i++ {
		cards = append(cards, catalog.Card{
			ID:       fmt.Sprintf("c%02d", i),
			Name:     fmt.Sprintf("Creature %d", i),
			Category: catalog.CategoryCreature,
			HP:       40 + (i%7)*20,
			Attacks:  []catalog.Attack{{Name: "Hit", Damage: 10 + (i%5)*20, Cost: i % 3}},
		})
	}
	for i := 0; i < supports; i++ {
		cards = append(cards, catalog.Card{ID: fmt.Sprintf("s%02d", i), Name: "Support", Category: catalog.CategorySupport})
	}
	for i := 0; i < resources; i++ {
		cards = append(cards, catalog.Card{ID: fmt.Sprintf("r%02d", i), Name: "Energy", Category: catalog.CategoryResource})
	}
	cat, err := catalog.New(cards)
	require.NoError(t, err)
	return cat
}

func countCategories(cards []catalog.Card) map[catalog.Category]int {
	counts := make(map[catalog.Category]int)
	for _, c := range cards {
		counts[c.Category]++
	}
	return counts
}

func TestBuildAggroMatchesDeclaredRatio(t *testing.T) {
	cat := testCatalog(t, 50, 20, 0)
	b := NewBuilder()

	deck, err := b.Build("Aggro", cat)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(deck), b.MinSize)
	assert.LessOrEqual(t, len(deck), b.MaxSize)

	creatures, support, err := b.Composition("Aggro")
	require.NoError(t, err)
	assert.Equal(t, 14, creatures)
	assert.Equal(t, 6, support)

	counts := countCategories(deck)
	assert.Equal(t, creatures, counts[catalog.CategoryCreature])
	assert.Equal(t, support, counts[catalog.CategorySupport]+counts[catalog.CategoryResource])
}

func TestBuildIsDeterministic(t *testing.T) {
	cat := testCatalog(t, 30, 10, 5)
	b := NewBuilder()
	for _, archetype := range []string{"Aggro", "Control", "Stall"} {
		first, err := b.Build(archetype, cat)
		require.NoError(t, err)
		second, err := b.Build(archetype, cat)
		require.NoError(t, err)
		assert.Equal(t, first, second, archetype)
	}
}

func TestBuildBiasesByArchetype(t *testing.T) {
	cat := testCatalog(t, 50, 20, 10)
	b := NewBuilder()

	aggro, err := b.Build("Aggro", cat)
	require.NoError(t, err)
	stall, err := b.Build("Stall", cat)
	require.NoError(t, err)

	meanOf := func(deck []catalog.Card, f func(catalog.Card) int) float64 {
		total, n := 0, 0
		for _, c := range deck {
			if c.IsCreature() {
				total += f(c)
				n++
			}
		}
		return float64(total) / float64(n)
	}
	damage := func(c catalog.Card) int { return c.MaxDamage() }
	hp := func(c catalog.Card) int { return c.HP }

	assert.Greater(t, meanOf(aggro, damage), meanOf(stall, damage))
	assert.Greater(t, meanOf(stall, hp), meanOf(aggro, hp))
}

func TestBuildRespectsCopyLimit(t *testing.T) {
	cat := testCatalog(t, 8, 3, 2)
	b := NewBuilder()

	deck, err := b.Build("Control", cat)
	require.NoError(t, err)
	copies := make(map[string]int)
	for _, c := range deck {
		copies[c.ID]++
	}
	for id, n := range copies {
		assert.LessOrEqual(t, n, b.MaxCopies, id)
	}
	assert.GreaterOrEqual(t, len(deck), b.MinSize)
}

func TestBuildShrinksToFit(t *testing.T) {
	// 4 creatures and 2 supports allow at most 8 + 4 cards; at a 0.6
	// creature ratio the largest deck that fits is 7 + 4.
	cat := testCatalog(t, 4, 2, 0)
	deck, err := NewBuilder().Build("Stall", cat)
	require.NoError(t, err)
	assert.Len(t, deck, 11)
	assert.Equal(t, 7, countCategories(deck)[catalog.CategoryCreature])
}

func TestBuildInsufficientCatalog(t *testing.T) {
	cat := testCatalog(t, 2, 1, 0)
	_, err := NewBuilder().Build("Aggro", cat)
	assert.ErrorIs(t, err, ErrInsufficientCatalog)

	_, err = NewBuilder().Build("Tempo", cat)
	assert.ErrorIs(t, err, ErrUnknownArchetype)
}

func TestProfilesFromYAML(t *testing.T) {
	profiles, err := ParseProfiles([]byte(`
profiles:
  - name: Aggro
    creature_ratio: 0.5
    resource_share: 0.5
    deck_size: 16
    weights: {damage: 1, hp: 1, cost: 0}
  - name: Tempo
    creature_ratio: 0.8
    deck_size: 30
`))
	require.NoError(t, err)
	require.Len(t, profiles, 2)

	b := NewBuilder(profiles...)
	creatures, support, err := b.Composition("aggro")
	require.NoError(t, err)
	assert.Equal(t, 8, creatures)
	assert.Equal(t, 8, support)

	creatures, support, err = b.Composition("Tempo")
	require.NoError(t, err)
	assert.Equal(t, 20, creatures+support, "deck size is clamped to the maximum")
	assert.Equal(t, []string{"Aggro", "Control", "Stall", "Tempo"}, b.Archetypes())

	_, err = ParseProfiles([]byte("profiles:\n  - name: Bad\n    creature_ratio: 1.5\n"))
	assert.Error(t, err)
}
