package counters

// CounterType names a counter kept on a card instance or a player.
type CounterType string

const (
	// Card-instance counters.
	CounterTypeResource CounterType = "resource"

	// Player usage counters.
	CounterTypeResourcesAttached CounterType = "resources_attached"
	CounterTypeSupportsPlayed    CounterType = "supports_played"
	CounterTypeCreaturesPlayed   CounterType = "creatures_played"
	CounterTypeAttacksMade       CounterType = "attacks_made"
	CounterTypeActionsRejected   CounterType = "actions_rejected"
)

// String returns the counter name.
func (ct CounterType) String() string {
	return string(ct)
}

// New creates a counter of this type with the given count.
func (ct CounterType) New(count int) *Counter {
	return NewCounter(string(ct), count)
}
