package counters

// Counter is a named non-negative tally.
type Counter struct {
	Name  string
	Count int
}

// NewCounter creates a counter. Counts below one are raised to one.
func NewCounter(name string, count int) *Counter {
	if count <= 0 {
		count = 1
	}
	return &Counter{Name: name, Count: count}
}

// Add increases the count; non-positive amounts are ignored.
func (c *Counter) Add(amount int) {
	if amount > 0 {
		c.Count += amount
	}
}

func (c *Counter) Copy() *Counter {
	return &Counter{Name: c.Name, Count: c.Count}
}

// Counters is a set of counters keyed by name. Card instances keep their
// attached resources here and players keep their usage tallies.
type Counters struct {
	Counters map[string]*Counter
}

func NewCounters() *Counters {
	return &Counters{Counters: make(map[string]*Counter)}
}

// AddCounter merges counter into the set, summing with an existing one of
// the same name.
func (cs *Counters) AddCounter(counter *Counter) {
	if counter == nil {
		return
	}
	if existing, ok := cs.Counters[counter.Name]; ok {
		existing.Add(counter.Count)
		return
	}
	cs.Counters[counter.Name] = counter.Copy()
}

// Increment adds one to the named counter.
func (cs *Counters) Increment(ct CounterType) {
	cs.AddCounter(ct.New(1))
}

// GetCount returns the count for name, 0 when absent.
func (cs *Counters) GetCount(name string) int {
	if counter, ok := cs.Counters[name]; ok {
		return counter.Count
	}
	return 0
}

// Count is GetCount keyed by CounterType.
func (cs *Counters) Count(ct CounterType) int {
	return cs.GetCount(string(ct))
}

// Clear removes every counter.
func (cs *Counters) Clear() {
	cs.Counters = make(map[string]*Counter)
}

// Snapshot returns name -> count, suitable for read-only views.
func (cs *Counters) Snapshot() map[string]int {
	out := make(map[string]int, len(cs.Counters))
	for name, counter := range cs.Counters {
		out[name] = counter.Count
	}
	return out
}
