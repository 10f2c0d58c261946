package session

import "fmt"

// Phase is the lifecycle state of a Session.
type Phase string

const (
	PhaseUnopened Phase = "Unopened"
	PhaseOpened   Phase = "Opened"
	PhaseMounted  Phase = "Mounted"
	PhaseClosed   Phase = "Closed"
)

// allowedTransitions lists, for each phase, the phases it may move to.
// Unopened goes straight to Closed when launch fails.
var allowedTransitions = map[Phase][]Phase{
	PhaseUnopened: {PhaseOpened, PhaseClosed},
	PhaseOpened:   {PhaseMounted, PhaseClosed},
	PhaseMounted:  {PhaseClosed},
}

// transition moves the session to phase to, or fails if the move is not allowed.
func (s *Session) transition(to Phase) error {
	for _, next := range allowedTransitions[s.phase] {
		if next == to {
			s.log.Debug("session phase transition", "from", s.phase, "to", to)
			s.phase = to
			return nil
		}
	}
	return fmt.Errorf("cannot transition session from %s to %s", s.phase, to)
}

// IsTerminal returns true if no further transition is possible.
func IsTerminal(phase Phase) bool {
	return len(allowedTransitions[phase]) == 0
}
