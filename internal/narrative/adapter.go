// Package narrative is the boundary to the external generative-text service.
// The engine invokes an Adapter through a narrow contract and treats any
// failed call as fatal for the run; no placeholder text is ever substituted
// for a failed generation.
package narrative

import (
	"context"
	"fmt"
)

// Consensus signal values recorded on an Exchange. Positive values indicate
// agreement, negative values a critique the participants did not act on.
const (
	SignalAgree    = 1.0
	SignalCritique = -0.5
)

// Participant is the slice of an agent profile a prompt exposes.
type Participant struct {
	Name string
	Role string
	Idea string
}

// Prompt is the context handed to a provider for one conversation grouping.
type Prompt struct {
	Round        int
	Participants []Participant
}

// Exchange is the structured result of one generation call.
type Exchange struct {
	Text          string   `json:"text"`
	Signal        float64  `json:"signal"`
	ConsensusIdea string   `json:"consensus_idea,omitempty"`
	Actions       []string `json:"actions,omitempty"`
	CostUnits     int      `json:"cost_units"`
}

type Adapter interface {
	Name() string
	Generate(ctx context.Context, p Prompt) (Exchange, error)
}

// FailureKind classifies an adapter failure.
type FailureKind string

const (
	KindConfig    FailureKind = "config"
	KindAuth      FailureKind = "auth"
	KindTransport FailureKind = "transport"
	KindMalformed FailureKind = "malformed"
)

// Failure is a classified adapter error. It is fatal for the current run;
// the orchestrator preserves the partial run state alongside it.
type Failure struct {
	Kind FailureKind
	Op   string
	Err  error
}

func (f *Failure) Error() string {
	if f.Err == nil {
		return fmt.Sprintf("narrative %s failure: %s", f.Kind, f.Op)
	}
	return fmt.Sprintf("narrative %s failure: %s: %v", f.Kind, f.Op, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

func failf(kind FailureKind, op string, err error) *Failure {
	return &Failure{Kind: kind, Op: op, Err: err}
}
