package engine

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/mtzanidakis/hacksim/internal/narrative"
	"github.com/mtzanidakis/hacksim/internal/profile"
)

// stubAdapter answers every prompt through fn, so tests control the
// narrative without a script file.
type stubAdapter struct {
	calls int
	fn    func(narrative.Prompt) (narrative.Exchange, error)
}

func (a *stubAdapter) Name() string { return "stub" }

func (a *stubAdapter) Generate(_ context.Context, p narrative.Prompt) (narrative.Exchange, error) {
	a.calls++
	return a.fn(p)
}

func critiqueAdapter() *stubAdapter {
	return &stubAdapter{fn: func(p narrative.Prompt) (narrative.Exchange, error) {
		return narrative.Exchange{
			Text:   fmt.Sprintf("round %d critique", p.Round),
			Signal: narrative.SignalCritique,
		}, nil
	}}
}

func alignAdapter(idea string) *stubAdapter {
	return &stubAdapter{fn: func(p narrative.Prompt) (narrative.Exchange, error) {
		return narrative.Exchange{
			Text:          fmt.Sprintf("round %d agreement", p.Round),
			Signal:        narrative.SignalAgree,
			ConsensusIdea: idea,
		}, nil
	}}
}

func testRoster(t *testing.T, profiles ...profile.AgentProfile) *profile.Roster {
	t.Helper()
	r, err := profile.NewRoster(profiles)
	if err != nil {
		t.Fatalf("roster: %v", err)
	}
	return r
}

func quartet(t *testing.T) *profile.Roster {
	t.Helper()
	return testRoster(t,
		profile.AgentProfile{Name: "Ava", Role: "Engineer", Idea: "predictive maintenance copilot for factories", Skills: []string{"go"}},
		profile.AgentProfile{Name: "Ben", Role: "Designer", Idea: "predictive maintenance copilot for factories", Skills: []string{"design"}},
		profile.AgentProfile{Name: "Cara", Role: "Researcher", Idea: "community garden logistics app", Skills: []string{"research"}},
		profile.AgentProfile{Name: "Dan", Role: "Analyst", Idea: "esports scrim analytics", Skills: []string{"data"}},
	)
}

func newTestState(t *testing.T, roster *profile.Roster, seed int64, budget int) *RunState {
	t.Helper()
	return newRunState(roster, seed, NewBudgetManager(budget, 0))
}

func TestPlanRoundRanksIdenticalIdeasFirst(t *testing.T) {
	rs := newTestState(t, quartet(t), 1, 10)
	sched := newRoundScheduler(1, 6, 1, 4, critiqueAdapter(), nil)
	rs.Round = 1

	groups := sched.planRound(rs)
	if len(groups) != 2 {
		t.Fatalf("expected 2 groupings for 4 singletons, got %d", len(groups))
	}
	first := groups[0].clusters
	if len(first) != 2 || first[0].ID != "c01" || first[1].ID != "c02" {
		ids := make([]string, len(first))
		for i, c := range first {
			ids[i] = c.ID
		}
		t.Errorf("top grouping = %v, want the identical-idea pair [c01 c02]", ids)
	}
}

func TestPlanRoundRespectsMaxTeamSize(t *testing.T) {
	rs := newTestState(t, quartet(t), 1, 10)
	rs.Clusters = []*Cluster{
		{ID: "c01", Members: []string{"Ava", "Ben", "Cara"}, Idea: "x"},
		{ID: "c02", Members: []string{"Dan", "Eli"}, Idea: "y"},
	}
	sched := newRoundScheduler(1, 6, 1, 4, critiqueAdapter(), nil)
	if groups := sched.planRound(rs); groups != nil {
		t.Errorf("oversized pairing must be skipped, got %d groupings", len(groups))
	}
}

func TestPlanRoundPrioritizesUndersizedClusters(t *testing.T) {
	roster := testRoster(t,
		profile.AgentProfile{Name: "Ava", Role: "Engineer", Idea: "drone delivery routing", Skills: []string{"go"}},
		profile.AgentProfile{Name: "Ben", Role: "Designer", Idea: "drone delivery routing", Skills: []string{"design"}},
		profile.AgentProfile{Name: "Cara", Role: "Researcher", Idea: "drone delivery routing", Skills: []string{"research"}},
		profile.AgentProfile{Name: "Dan", Role: "Analyst", Idea: "drone delivery routing", Skills: []string{"data"}},
		profile.AgentProfile{Name: "Eve", Role: "Marketer", Idea: "artisanal cheese marketplace", Skills: []string{"growth"}},
	)
	clusters := func() []*Cluster {
		return []*Cluster{
			{ID: "c01", Members: []string{"Ava", "Ben"}, Idea: "drone delivery routing"},
			{ID: "c02", Members: []string{"Cara", "Dan"}, Idea: "drone delivery routing"},
			{ID: "c03", Members: []string{"Eve"}, Idea: "artisanal cheese marketplace"},
		}
	}

	rs := newTestState(t, roster, 1, 10)
	rs.Clusters = clusters()
	rs.Round = 1
	sched := newRoundScheduler(1, 6, 1, 4, critiqueAdapter(), nil)
	groups := sched.planRound(rs)
	if len(groups) == 0 {
		t.Fatal("expected at least one grouping")
	}
	if !groupingHas(groups[0], "c01") || !groupingHas(groups[0], "c02") {
		t.Errorf("with no minimum, the identical-idea pair [c01 c02] should rank first")
	}

	rs = newTestState(t, roster, 1, 10)
	rs.Clusters = clusters()
	rs.Round = 1
	sched = newRoundScheduler(1, 6, 2, 4, critiqueAdapter(), nil)
	groups = sched.planRound(rs)
	if len(groups) == 0 {
		t.Fatal("expected at least one grouping")
	}
	if !groupingHas(groups[0], "c03") {
		ids := make([]string, len(groups[0].clusters))
		for i, c := range groups[0].clusters {
			ids[i] = c.ID
		}
		t.Errorf("top grouping = %v, want the undersized cluster c03 to converse first", ids)
	}
}

func groupingHas(g grouping, id string) bool {
	for _, c := range g.clusters {
		if c.ID == id {
			return true
		}
	}
	return false
}

func TestPlanRoundSingleClusterIsTerminal(t *testing.T) {
	rs := newTestState(t, quartet(t), 1, 10)
	rs.Clusters = rs.Clusters[:1]
	sched := newRoundScheduler(1, 6, 1, 4, critiqueAdapter(), nil)
	if groups := sched.planRound(rs); groups != nil {
		t.Errorf("a lone cluster cannot converse, got %d groupings", len(groups))
	}
}

func TestSchedulerExhaustsMidRound(t *testing.T) {
	rs := newTestState(t, quartet(t), 1, 3)
	adapter := critiqueAdapter()
	sched := newRoundScheduler(1, 6, 1, 4, adapter, nil)

	if err := sched.Run(context.Background(), rs); err != nil {
		t.Fatalf("exhaustion must not surface as an error: %v", err)
	}
	if sched.Phase() != StateExhausted {
		t.Fatalf("phase = %s, want exhausted", sched.Phase())
	}
	if adapter.calls != 3 {
		t.Errorf("adapter calls = %d, want exactly the budget of 3", adapter.calls)
	}
	if len(rs.Turns) != 3 {
		t.Errorf("recorded turns = %d, want 3", len(rs.Turns))
	}
	// Two pairings fit round one; the third call lands in round two before
	// the budget runs dry, and that round is still finalized.
	if rs.RoundsRun != 2 {
		t.Errorf("rounds run = %d, want 2", rs.RoundsRun)
	}
	if rs.Budget.Remaining() != 0 {
		t.Errorf("remaining budget = %d, want 0", rs.Budget.Remaining())
	}
}

func TestSchedulerCompletesWhenOneClusterRemains(t *testing.T) {
	rs := newTestState(t, quartet(t), 3, 100)
	sched := newRoundScheduler(1, 10, 1, 4, alignAdapter("one team, one idea"), nil)

	if err := sched.Run(context.Background(), rs); err != nil {
		t.Fatalf("run: %v", err)
	}
	if sched.Phase() != StateComplete {
		t.Fatalf("phase = %s, want complete", sched.Phase())
	}
	if len(rs.Clusters) != 1 {
		t.Fatalf("expected full convergence, got %d clusters", len(rs.Clusters))
	}
	if got := rs.Clusters[0].Idea; got != "one team, one idea" {
		t.Errorf("final idea = %q", got)
	}
	if len(rs.Clusters[0].Members) != 4 {
		t.Errorf("final members = %d, want 4", len(rs.Clusters[0].Members))
	}
}

func TestSchedulerAdapterFailureKeepsPartialState(t *testing.T) {
	failure := &narrative.Failure{Kind: narrative.KindTransport, Op: "generate", Err: errors.New("connection reset")}
	adapter := &stubAdapter{}
	adapter.fn = func(p narrative.Prompt) (narrative.Exchange, error) {
		if adapter.calls >= 2 {
			return narrative.Exchange{}, failure
		}
		return narrative.Exchange{Text: "ok", Signal: narrative.SignalCritique}, nil
	}

	rs := newTestState(t, quartet(t), 1, 10)
	sched := newRoundScheduler(1, 6, 1, 4, adapter, nil)

	err := sched.Run(context.Background(), rs)
	var nf *narrative.Failure
	if !errors.As(err, &nf) || nf.Kind != narrative.KindTransport {
		t.Fatalf("expected transport failure, got %v", err)
	}
	if len(rs.Turns) != 1 {
		t.Errorf("turns before the failure must be preserved, got %d", len(rs.Turns))
	}
}

func TestSchedulerResolvesNeutralSignals(t *testing.T) {
	neutral := &stubAdapter{fn: func(p narrative.Prompt) (narrative.Exchange, error) {
		return narrative.Exchange{Text: "undecided"}, nil
	}}
	rs := newTestState(t, quartet(t), 5, 4)
	sched := newRoundScheduler(1, 1, 1, 4, neutral, nil)

	if err := sched.Run(context.Background(), rs); err != nil {
		t.Fatalf("run: %v", err)
	}
	for _, turn := range rs.Turns {
		if turn.Signal != 0.5 && turn.Signal != -0.25 {
			t.Errorf("neutral verdict must resolve to +0.5 or -0.25, got %v", turn.Signal)
		}
	}
}

func TestSchedulerTurnOrdering(t *testing.T) {
	rs := newTestState(t, quartet(t), 1, 100)
	sched := newRoundScheduler(1, 3, 1, 4, critiqueAdapter(), nil)

	if err := sched.Run(context.Background(), rs); err != nil {
		t.Fatalf("run: %v", err)
	}
	lastRound, lastSeq := 0, 0
	for _, turn := range rs.Turns {
		if turn.Round < lastRound {
			t.Fatalf("round regressed from %d to %d", lastRound, turn.Round)
		}
		if turn.Seq != lastSeq+1 {
			t.Fatalf("sequence gap: %d after %d", turn.Seq, lastSeq)
		}
		lastRound, lastSeq = turn.Round, turn.Seq
	}
}
