package engine

// Event is a progress notification emitted while a run advances. Consumers
// (CLI logging, the dashboard event bus) observe events; they cannot reach
// back into run state.
type Event struct {
	Type    string `json:"type"`
	Run     int    `json:"run"`
	Round   int    `json:"round,omitempty"`
	Message string `json:"message,omitempty"`
	Payload any    `json:"payload,omitempty"`
}

const (
	EventRunStarted     = "run_started"
	EventRoundPlanned   = "round_planned"
	EventTurnRecorded   = "turn_recorded"
	EventClustersMerged = "clusters_merged"
	EventRoundComplete  = "round_complete"
	EventRunFinished    = "run_finished"
)

// Hook receives progress events. A nil hook is silently ignored.
type Hook func(Event)

func (h Hook) emit(ev Event) {
	if h != nil {
		h(ev)
	}
}
