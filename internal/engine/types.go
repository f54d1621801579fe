// Package engine implements the round-based conversation simulation: affinity
// pairing, budget-throttled narrative calls, cluster formation, and scoring.
// One RunState is owned by exactly one run; the only artifact exposed to
// callers is the frozen RunResult.
package engine

import (
	"fmt"
	"math/rand"

	"github.com/mtzanidakis/hacksim/internal/profile"
)

// State is the round scheduler's phase.
type State int

const (
	StateIdle State = iota
	StateRoundInProgress
	StateExhausted
	StateComplete
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRoundInProgress:
		return "round_in_progress"
	case StateExhausted:
		return "exhausted"
	case StateComplete:
		return "complete"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Cluster is a set of agents converged on a single idea. Clusters only grow
// by merge, never split; every agent belongs to exactly one cluster at any
// time.
type Cluster struct {
	ID            string   `json:"id"`
	Members       []string `json:"members"`
	Idea          string   `json:"idea"`
	OriginIdea    string   `json:"origin_idea"`
	IdeaHistory   []string `json:"idea_history,omitempty"`
	Skills        []string `json:"skills,omitempty"`
	Personalities []string `json:"personalities,omitempty"`
	XPLevels      []string `json:"xp_levels,omitempty"`
	LastIdeaRound int      `json:"last_idea_round"`
	Interactions  int      `json:"interactions"`
	Critiques     int      `json:"critiques"`
	ResearchDone  bool     `json:"research_done"`
}

// ConversationTurn is one recorded exchange. Turns are appended in strict
// round-then-pairing-rank order and never mutated afterwards.
type ConversationTurn struct {
	Round         int      `json:"round"`
	Seq           int      `json:"seq"`
	ClusterIDs    []string `json:"cluster_ids"`
	Narrative     string   `json:"narrative"`
	Signal        float64  `json:"signal"`
	ConsensusIdea string   `json:"consensus_idea,omitempty"`
	Actions       []string `json:"actions,omitempty"`
	CostUnits     int      `json:"cost_units"`
}

// RunState is the mutable state of a single run. It is created once from the
// roster plus configuration, mutated only by the scheduler during the round
// loop, and frozen into a RunResult at termination.
type RunState struct {
	Roster    *profile.Roster
	Clusters  []*Cluster
	Turns     []ConversationTurn
	Round     int
	RoundsRun int
	Budget    *BudgetManager

	rng *rand.Rand
}

func newRunState(roster *profile.Roster, seed int64, budget *BudgetManager) *RunState {
	return &RunState{
		Roster:   roster,
		Clusters: newClusters(roster),
		Budget:   budget,
		rng:      rand.New(rand.NewSource(seed)),
	}
}

// clusterByID returns the live cluster with the given id, or nil.
func (rs *RunState) clusterByID(id string) *Cluster {
	for _, c := range rs.Clusters {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// RunResult is the terminal snapshot of one run: the ordered turn log, the
// final partition, and the ranked leaderboard.
type RunResult struct {
	RunIndex        int                `json:"run_index"`
	Seed            int64              `json:"seed"`
	Status          State              `json:"-"`
	StatusName      string             `json:"status"`
	HaltReason      string             `json:"halt_reason,omitempty"`
	RoundsRun       int                `json:"rounds_run"`
	CallsMade       int                `json:"calls_made"`
	BudgetRemaining int                `json:"budget_remaining"`
	Turns           []ConversationTurn `json:"turns"`
	Clusters        []Cluster          `json:"clusters"`
	Leaderboard     []LeaderboardEntry `json:"leaderboard"`
}

// Summary aggregates the results of every run in one invocation.
type Summary struct {
	Runs        []RunResult      `json:"runs"`
	Leaderboard []AggregatedIdea `json:"leaderboard"`
}

// AggregatedIdea is a cross-run leaderboard bucket, keyed by idea slug.
type AggregatedIdea struct {
	Slug          string  `json:"slug"`
	Idea          string  `json:"idea"`
	Appearances   int     `json:"appearances"`
	AvgScore      float64 `json:"avg_score"`
	Wins          int     `json:"wins"`
	BestTeam      string  `json:"best_team"`
	BestRun       int     `json:"best_run"`
	BestReasoning string  `json:"best_reasoning,omitempty"`
}
