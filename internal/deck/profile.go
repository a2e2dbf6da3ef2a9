package deck

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Weights score creature definitions for an archetype. Cost is subtracted.
type Weights struct {
	Damage float64 `yaml:"damage"`
	HP     float64 `yaml:"hp"`
	Cost   float64 `yaml:"cost"`
}

// Profile describes how an archetype builds its deck.
type Profile struct {
	Name string `yaml:"name"`
	// CreatureRatio is the share of the deck taken by creatures. The rest
	// is split between resources and supports.
	CreatureRatio float64 `yaml:"creature_ratio"`
	// ResourceShare is the share of the non-creature slots given to
	// resources when the catalog has them.
	ResourceShare float64 `yaml:"resource_share"`
	DeckSize      int     `yaml:"deck_size"`
	Weights       Weights `yaml:"weights"`
}

// Built-in archetype profiles.
var (
	AggroProfile = Profile{
		Name:          "Aggro",
		CreatureRatio: 0.7,
		ResourceShare: 0.5,
		DeckSize:      20,
		Weights:       Weights{Damage: 2, HP: 0.25, Cost: 10},
	}
	ControlProfile = Profile{
		Name:          "Control",
		CreatureRatio: 0.6,
		ResourceShare: 0.5,
		DeckSize:      20,
		Weights:       Weights{Damage: 1, HP: 0.5, Cost: 5},
	}
	StallProfile = Profile{
		Name:          "Stall",
		CreatureRatio: 0.6,
		ResourceShare: 0.5,
		DeckSize:      20,
		Weights:       Weights{Damage: 0.25, HP: 2, Cost: 2},
	}
)

// DefaultProfiles returns the built-in profiles.
func DefaultProfiles() []Profile {
	return []Profile{AggroProfile, ControlProfile, StallProfile}
}

func (p Profile) validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("profile has no name")
	}
	if p.CreatureRatio < 0 || p.CreatureRatio > 1 {
		return fmt.Errorf("profile %s: creature_ratio %.2f outside [0,1]", p.Name, p.CreatureRatio)
	}
	if p.ResourceShare < 0 || p.ResourceShare > 1 {
		return fmt.Errorf("profile %s: resource_share %.2f outside [0,1]", p.Name, p.ResourceShare)
	}
	return nil
}

// ProfileFile is the YAML layout of a profiles file.
type ProfileFile struct {
	Profiles []Profile `yaml:"profiles"`
}

// LoadProfiles reads archetype profiles from a YAML file.
func LoadProfiles(path string) ([]Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseProfiles(data)
}

// ParseProfiles decodes a profiles document.
func ParseProfiles(data []byte) ([]Profile, error) {
	var pf ProfileFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("parse profiles YAML: %w", err)
	}
	for _, p := range pf.Profiles {
		if err := p.validate(); err != nil {
			return nil, err
		}
	}
	return pf.Profiles, nil
}
