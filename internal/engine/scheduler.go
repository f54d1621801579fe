package engine

import (
	"context"
	"errors"
	"sort"

	"github.com/mtzanidakis/hacksim/internal/narrative"
)

// triadChance is the seeded probability of promoting a formed pair to a
// three-way conversation when a free cluster remains.
const triadChance = 0.35

type grouping struct {
	clusters []*Cluster
	affinity float64
}

// RoundScheduler drives the round loop of one run:
// Idle → RoundInProgress → (RoundInProgress | Exhausted) → Complete.
// Budget exhaustion finalizes the current round with the turns already
// recorded; an adapter failure stops the run with its partial state intact.
type RoundScheduler struct {
	runIndex    int
	maxRounds   int
	minTeamSize int
	maxTeamSize int
	adapter     narrative.Adapter
	hook        Hook
	phase       State
}

func newRoundScheduler(runIndex, maxRounds, minTeamSize, maxTeamSize int, adapter narrative.Adapter, hook Hook) *RoundScheduler {
	return &RoundScheduler{
		runIndex:    runIndex,
		maxRounds:   maxRounds,
		minTeamSize: minTeamSize,
		maxTeamSize: maxTeamSize,
		adapter:     adapter,
		hook:        hook,
		phase:       StateIdle,
	}
}

func (s *RoundScheduler) Phase() State {
	return s.phase
}

// Run advances rounds until the round cap is reached, no pairings remain
// possible, or the budget is exhausted. The returned error is nil for both
// normal completion and exhaustion; only adapter failures (or cancellation)
// surface as errors, with rs left at its partial state for inspection.
func (s *RoundScheduler) Run(ctx context.Context, rs *RunState) error {
	for round := 1; round <= s.maxRounds; round++ {
		rs.Round = round

		groupings := s.planRound(rs)
		if len(groupings) == 0 {
			break
		}
		s.phase = StateRoundInProgress
		s.hook.emit(Event{
			Type:    EventRoundPlanned,
			Run:     s.runIndex,
			Round:   round,
			Message: "conversation groups queued",
			Payload: map[string]int{"groups": len(groupings)},
		})

		roundTurns, exhausted, err := s.playRound(ctx, rs, groupings)
		if err != nil {
			return err
		}

		merges := rs.applyFormation(roundTurns)
		for _, m := range merges {
			s.hook.emit(Event{
				Type:    EventClustersMerged,
				Run:     s.runIndex,
				Round:   round,
				Message: "clusters converged on a shared idea",
				Payload: m,
			})
		}
		rs.applyReflection()
		rs.RoundsRun = round
		s.hook.emit(Event{Type: EventRoundComplete, Run: s.runIndex, Round: round})

		if exhausted {
			s.phase = StateExhausted
			return nil
		}
	}

	s.phase = StateComplete
	return nil
}

// playRound acquires budget and invokes the adapter for each grouping in
// rank order. On exhaustion the remaining groupings are simply not
// attempted.
func (s *RoundScheduler) playRound(ctx context.Context, rs *RunState, groupings []grouping) ([]ConversationTurn, bool, error) {
	var roundTurns []ConversationTurn

	for _, g := range groupings {
		if _, err := rs.Budget.Acquire(ctx); err != nil {
			if errors.Is(err, ErrBudgetExhausted) {
				return roundTurns, true, nil
			}
			return roundTurns, false, err
		}

		exch, err := s.adapter.Generate(ctx, s.promptFor(rs, g))
		if err != nil {
			return roundTurns, false, err
		}

		signal := exch.Signal
		if signal == 0 {
			// Neutral verdict: one seeded draw against the grouping's
			// compatibility decides, and the resolved signal is recorded on
			// the turn so the log alone determines formation and scoring.
			if rs.rng.Float64() < collabProbability(g.affinity) {
				signal = 0.5
			} else {
				signal = -0.25
			}
		}

		ids := make([]string, len(g.clusters))
		for i, c := range g.clusters {
			ids[i] = c.ID
			c.Interactions++
			if signal < 0 {
				c.Critiques++
			}
		}

		turn := ConversationTurn{
			Round:         rs.Round,
			Seq:           len(rs.Turns) + 1,
			ClusterIDs:    ids,
			Narrative:     exch.Text,
			Signal:        signal,
			ConsensusIdea: exch.ConsensusIdea,
			Actions:       exch.Actions,
			CostUnits:     exch.CostUnits,
		}
		rs.Turns = append(rs.Turns, turn)
		roundTurns = append(roundTurns, turn)

		s.hook.emit(Event{
			Type:    EventTurnRecorded,
			Run:     s.runIndex,
			Round:   rs.Round,
			Message: exch.Text,
			Payload: turn,
		})
	}

	return roundTurns, false, nil
}

// planRound ranks every eligible cluster pair by affinity descending (ties
// broken by the seeded RNG, not insertion order) and greedily assigns each
// cluster to at most one grouping. Formed pairs may then be promoted to
// triads by a seeded draw. Unmatched clusters sit the round out.
func (s *RoundScheduler) planRound(rs *RunState) []grouping {
	cs := rs.Clusters
	if len(cs) < 2 {
		return nil
	}

	type rankedPair struct {
		a, b  int
		score float64
	}
	var pairs []rankedPair
	for i := 0; i < len(cs); i++ {
		for j := i + 1; j < len(cs); j++ {
			if s.maxTeamSize > 0 && len(cs[i].Members)+len(cs[j].Members) > s.maxTeamSize {
				continue
			}
			pairs = append(pairs, rankedPair{a: i, b: j, score: PairAffinity(cs[i], cs[j])})
		}
	}
	if len(pairs) == 0 {
		return nil
	}

	// Seeded shuffle before the stable sort: equal scores end up in a
	// reproducible but seed-dependent order.
	rs.rng.Shuffle(len(pairs), func(i, j int) { pairs[i], pairs[j] = pairs[j], pairs[i] })
	sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].score > pairs[j].score })

	// Clusters still below the minimum team size get first pick of the
	// conversations, in affinity order among themselves.
	if s.minTeamSize > 1 {
		under := func(c *Cluster) bool { return len(c.Members) < s.minTeamSize }
		sort.SliceStable(pairs, func(i, j int) bool {
			ui := under(cs[pairs[i].a]) || under(cs[pairs[i].b])
			uj := under(cs[pairs[j].a]) || under(cs[pairs[j].b])
			return ui && !uj
		})
	}

	engaged := make(map[string]bool, len(cs))
	var groups []grouping
	for _, p := range pairs {
		a, b := cs[p.a], cs[p.b]
		if engaged[a.ID] || engaged[b.ID] {
			continue
		}
		engaged[a.ID] = true
		engaged[b.ID] = true
		groups = append(groups, grouping{clusters: []*Cluster{a, b}})
	}

	for gi := range groups {
		if len(engaged) == len(cs) {
			break
		}
		if rs.rng.Float64() >= triadChance {
			continue
		}
		// Attach the best-ranked free cluster connected to this grouping.
		for _, p := range pairs {
			a, b := cs[p.a], cs[p.b]
			var free *Cluster
			switch {
			case inGrouping(groups[gi], a) && !engaged[b.ID]:
				free = b
			case inGrouping(groups[gi], b) && !engaged[a.ID]:
				free = a
			default:
				continue
			}
			size := len(free.Members)
			for _, c := range groups[gi].clusters {
				size += len(c.Members)
			}
			if s.maxTeamSize > 0 && size > s.maxTeamSize {
				continue
			}
			engaged[free.ID] = true
			groups[gi].clusters = append(groups[gi].clusters, free)
			break
		}
	}

	for gi := range groups {
		groups[gi].affinity = groupAffinity(groups[gi].clusters)
	}
	return groups
}

func inGrouping(g grouping, c *Cluster) bool {
	for _, member := range g.clusters {
		if member.ID == c.ID {
			return true
		}
	}
	return false
}

func (s *RoundScheduler) promptFor(rs *RunState, g grouping) narrative.Prompt {
	var participants []narrative.Participant
	for _, c := range g.clusters {
		for _, name := range c.Members {
			p, _ := rs.Roster.ByName(name)
			participants = append(participants, narrative.Participant{
				Name: p.Name,
				Role: p.Role,
				Idea: c.Idea,
			})
		}
	}
	return narrative.Prompt{Round: rs.Round, Participants: participants}
}
