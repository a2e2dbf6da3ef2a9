package catalog

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"
)

// rawCard accepts both the cached card-data dump (supertype, string damage,
// cost as a list of energy symbols) and the canonical catalog format.
// JSON is a subset of YAML, so one decoder covers both file kinds.
type rawCard struct {
	ID          string        `yaml:"id"`
	Name        string        `yaml:"name"`
	Supertype   string        `yaml:"supertype"`
	Category    string        `yaml:"category"`
	Subtypes    []string      `yaml:"subtypes"`
	HP          any           `yaml:"hp"`
	Attacks     []rawAttack   `yaml:"attacks"`
	Types       []string      `yaml:"types"`
	Weaknesses  []rawModifier `yaml:"weaknesses"`
	Resistances []rawModifier `yaml:"resistances"`
	Effects     any           `yaml:"effects"`
	Text        any           `yaml:"text"`
}

type rawAttack struct {
	Name                string `yaml:"name"`
	Damage              any    `yaml:"damage"`
	Cost                any    `yaml:"cost"`
	ConvertedEnergyCost int    `yaml:"convertedEnergyCost"`
	Text                string `yaml:"text"`
}

type rawModifier struct {
	Type       string `yaml:"type"`
	Value      any    `yaml:"value"`
	Multiplier int    `yaml:"multiplier"`
}

type rawEnvelope struct {
	Data  []rawCard `yaml:"data"`
	Cards []rawCard `yaml:"cards"`
}

// LoadFile reads a catalog from a JSON or YAML file.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes catalog bytes. The top level may be a bare list or an object
// with a "data" or "cards" list.
func Parse(data []byte) (*Catalog, error) {
	var list []rawCard
	if err := yaml.Unmarshal(data, &list); err != nil {
		var env rawEnvelope
		if envErr := yaml.Unmarshal(data, &env); envErr != nil {
			return nil, fmt.Errorf("parse catalog: %w", err)
		}
		list = append(env.Data, env.Cards...)
	}

	cards := make([]Card, 0, len(list))
	for i, raw := range list {
		card, err := raw.toCard()
		if err != nil {
			return nil, fmt.Errorf("card %d (%s): %w", i, raw.ID, err)
		}
		cards = append(cards, card)
	}
	return New(cards)
}

func (r rawCard) toCard() (Card, error) {
	label := r.Category
	if label == "" {
		label = r.Supertype
	}
	category, ok := ParseCategory(label)
	if !ok {
		return Card{}, fmt.Errorf("unknown category %q", label)
	}

	card := Card{
		ID:       r.ID,
		Name:     r.Name,
		Category: category,
		Subtypes: r.Subtypes,
		HP:       leadingInt(r.HP),
		Types:    r.Types,
		Effects:  stringList(r.Effects),
	}
	if len(card.Effects) == 0 {
		card.Effects = stringList(r.Text)
	}

	for _, a := range r.Attacks {
		card.Attacks = append(card.Attacks, Attack{
			Name:   a.Name,
			Damage: leadingInt(a.Damage),
			Cost:   attackCost(a),
			Text:   a.Text,
		})
	}
	for _, w := range r.Weaknesses {
		mult := w.Multiplier
		if mult == 0 {
			mult = leadingInt(w.Value)
		}
		if mult == 0 {
			mult = 2
		}
		card.Weaknesses = append(card.Weaknesses, Weakness{Type: w.Type, Multiplier: mult})
	}
	for _, res := range r.Resistances {
		card.Resistances = append(card.Resistances, Resistance{Type: res.Type, Value: leadingInt(res.Value)})
	}
	return card, nil
}

func attackCost(a rawAttack) int {
	switch v := a.Cost.(type) {
	case []any:
		return len(v)
	case int:
		return v
	}
	return a.ConvertedEnergyCost
}

// leadingInt extracts the first run of digits from values such as "30+",
// "20×", "-30" or "×2". Anything unparsable is 0.
func leadingInt(v any) int {
	switch n := v.(type) {
	case nil:
		return 0
	case int:
		if n < 0 {
			return -n
		}
		return n
	case float64:
		if n < 0 {
			return int(-n)
		}
		return int(n)
	case string:
		start := strings.IndexFunc(n, unicode.IsDigit)
		if start < 0 {
			return 0
		}
		end := start
		for end < len(n) && n[end] >= '0' && n[end] <= '9' {
			end++
		}
		value, err := strconv.Atoi(n[start:end])
		if err != nil {
			return 0
		}
		return value
	}
	return 0
}

func stringList(v any) []string {
	switch s := v.(type) {
	case string:
		if s == "" {
			return nil
		}
		return []string{s}
	case []any:
		out := make([]string, 0, len(s))
		for _, item := range s {
			if str, ok := item.(string); ok && str != "" {
				out = append(out, str)
			}
		}
		return out
	}
	return nil
}
