package agent

import "time"

// Observer is told about routing decisions and finished specialist runs.
type Observer interface {
	Routed(agents []ID)
	AgentFinished(id ID, outcome Outcome, elapsed time.Duration)
}

type nopObserver struct{}

func (nopObserver) Routed([]ID) {}
func (nopObserver) AgentFinished(ID, Outcome, time.Duration) {}
