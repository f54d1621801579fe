package engine

import (
	"context"
	"fmt"
	"math/rand"
	"sort"

	"github.com/mtzanidakis/hacksim/internal/config"
	"github.com/mtzanidakis/hacksim/internal/narrative"
	"github.com/mtzanidakis/hacksim/internal/profile"
)

const leaderboardSize = 8

// Orchestrator composes the roster, budget, scheduler, and adapter into
// reproducible runs. A master RNG seeded from the configuration deals every
// run its own seed; each run owns an isolated RunState and budget.
type Orchestrator struct {
	roster  *profile.Roster
	cfg     config.SimulationConfig
	adapter narrative.Adapter
	hook    Hook
}

func NewOrchestrator(roster *profile.Roster, cfg config.SimulationConfig, adapter narrative.Adapter, hook Hook) (*Orchestrator, error) {
	if roster == nil || roster.Len() == 0 {
		return nil, fmt.Errorf("at least one agent profile is required")
	}
	if adapter == nil {
		return nil, fmt.Errorf("narrative adapter is required")
	}
	if err := config.ValidateSimulation(cfg); err != nil {
		return nil, err
	}
	return &Orchestrator{roster: roster, cfg: cfg, adapter: adapter, hook: hook}, nil
}

// Run executes the configured number of runs and aggregates their
// leaderboards. Budget exhaustion halts the sequence gracefully; an adapter
// failure returns the summary built so far, partial run included, alongside
// the classified error.
func (o *Orchestrator) Run(ctx context.Context) (*Summary, error) {
	master := rand.New(rand.NewSource(o.cfg.Seed))
	summary := &Summary{}
	var haltReason string

	for runIdx := 1; runIdx <= o.cfg.Runs; runIdx++ {
		runSeed := master.Int63n(10001)
		result, err := o.runOnce(ctx, runIdx, runSeed)
		summary.Runs = append(summary.Runs, *result)

		if err != nil {
			summary.Leaderboard = aggregate(summary.Runs, result.HaltReason)
			return summary, err
		}
		if result.Status == StateExhausted {
			haltReason = result.HaltReason
			break
		}
	}

	summary.Leaderboard = aggregate(summary.Runs, haltReason)
	return summary, nil
}

func (o *Orchestrator) runOnce(ctx context.Context, runIdx int, runSeed int64) (*RunResult, error) {
	budget := NewBudgetManager(o.cfg.CallBudget, o.cfg.ThrottleInterval)
	rs := newRunState(o.roster, runSeed, budget)
	sched := newRoundScheduler(runIdx, o.cfg.Rounds, o.cfg.MinTeamSize, o.cfg.MaxTeamSize, o.adapter, o.hook)

	o.hook.emit(Event{Type: EventRunStarted, Run: runIdx, Payload: map[string]int64{"seed": runSeed}})

	err := sched.Run(ctx, rs)
	result := freeze(rs, sched.Phase(), runIdx, runSeed, o.cfg.CallBudget, err)

	o.hook.emit(Event{
		Type:    EventRunFinished,
		Run:     runIdx,
		Message: result.StatusName,
		Payload: map[string]any{"calls_made": result.CallsMade, "halt_reason": result.HaltReason},
	})
	return result, err
}

// freeze snapshots a run state into its terminal RunResult. On adapter
// failure the partial state is preserved for inspection rather than
// discarded.
func freeze(rs *RunState, phase State, runIdx int, runSeed int64, budgetCap int, runErr error) *RunResult {
	clusters := make([]Cluster, len(rs.Clusters))
	for i, c := range rs.Clusters {
		clusters[i] = *c
	}

	haltReason := ""
	switch {
	case runErr != nil:
		haltReason = runErr.Error()
	case phase == StateExhausted:
		haltReason = "call budget exhausted"
	}

	return &RunResult{
		RunIndex:        runIdx,
		Seed:            runSeed,
		Status:          phase,
		StatusName:      phase.String(),
		HaltReason:      haltReason,
		RoundsRun:       rs.RoundsRun,
		CallsMade:       budgetCap - rs.Budget.Remaining(),
		BudgetRemaining: rs.Budget.Remaining(),
		Turns:           append([]ConversationTurn(nil), rs.Turns...),
		Clusters:        clusters,
		Leaderboard:     BuildLeaderboard(rs.Clusters, rs.RoundsRun),
	}
}

// aggregate buckets every run's leaderboard entries by idea slug and ranks
// the buckets by average score. A halt reason is surfaced as a marker entry
// at the top of the board.
func aggregate(runs []RunResult, haltReason string) []AggregatedIdea {
	type bucket struct {
		entries []LeaderboardEntry
		runIdxs []int
	}
	buckets := make(map[string]*bucket)
	var order []string

	for _, run := range runs {
		for _, entry := range run.Leaderboard {
			slug := slugify(entry.Idea)
			b, ok := buckets[slug]
			if !ok {
				b = &bucket{}
				buckets[slug] = b
				order = append(order, slug)
			}
			b.entries = append(b.entries, entry)
			b.runIdxs = append(b.runIdxs, run.RunIndex)
		}
	}

	aggregated := make([]AggregatedIdea, 0, len(buckets))
	for _, slug := range order {
		b := buckets[slug]
		total := 0.0
		wins := 0
		best := 0
		for i, e := range b.entries {
			total += e.Score
			if e.Rank == 1 {
				wins++
			}
			if e.Score > b.entries[best].Score {
				best = i
			}
		}
		bestEntry := b.entries[best]
		aggregated = append(aggregated, AggregatedIdea{
			Slug:          slug,
			Idea:          bestEntry.Idea,
			Appearances:   len(b.entries),
			AvgScore:      round3(total / float64(len(b.entries))),
			Wins:          wins,
			BestTeam:      bestEntry.TeamName,
			BestRun:       b.runIdxs[best],
			BestReasoning: bestEntry.Reasoning,
		})
	}

	sort.SliceStable(aggregated, func(i, j int) bool {
		if aggregated[i].AvgScore != aggregated[j].AvgScore {
			return aggregated[i].AvgScore > aggregated[j].AvgScore
		}
		return aggregated[i].Slug < aggregated[j].Slug
	})
	if len(aggregated) > leaderboardSize {
		aggregated = aggregated[:leaderboardSize]
	}

	if haltReason != "" {
		marker := AggregatedIdea{
			Slug: "early-stop",
			Idea: "Simulation halted early: " + haltReason,
		}
		aggregated = append([]AggregatedIdea{marker}, aggregated...)
	}
	return aggregated
}
