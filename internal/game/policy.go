package game

// DecisionView is everything a policy may look at when choosing an action.
type DecisionView struct {
	MatchID      string
	Turn         int
	Self         PlayerView
	Opponent     PlayerView
	Legal        []Action
	ActionsTaken int
	MustPromote  bool
}

// Find returns the first legal action of the given kind.
func (v DecisionView) Find(kind ActionKind) (Action, bool) {
	for _, a := range v.Legal {
		if a.Kind == kind {
			return a, true
		}
	}
	return Action{}, false
}

// HandCard returns the view of a hand card by instance ID.
func (v DecisionView) HandCard(instanceID string) (CardView, bool) {
	for _, c := range v.Self.Hand {
		if c.InstanceID == instanceID {
			return c, true
		}
	}
	return CardView{}, false
}

// Policy chooses one action per decision point. Implementations must depend
// only on the view and their own random source.
type Policy interface {
	Decide(view DecisionView) Action
}

// PolicyFunc adapts a function to the Policy interface.
type PolicyFunc func(view DecisionView) Action

func (f PolicyFunc) Decide(view DecisionView) Action {
	return f(view)
}
