package engine

import (
	"fmt"
	"math/rand"

	"github.com/mtzanidakis/hacksim/internal/profile"
)

// Cluster IDs are deterministic and ordered: the leaderboard tie-break
// depends on them.
func clusterID(i int) string {
	return fmt.Sprintf("c%02d", i+1)
}

// newClusters builds the initial partition: one singleton cluster per
// profile, in roster order.
func newClusters(roster *profile.Roster) []*Cluster {
	out := make([]*Cluster, roster.Len())
	for i := 0; i < roster.Len(); i++ {
		p := roster.At(i)
		out[i] = &Cluster{
			ID:            clusterID(i),
			Members:       []string{p.Name},
			Idea:          p.Idea,
			OriginIdea:    p.Idea,
			Skills:        append([]string(nil), p.Skills...),
			Personalities: []string{p.Personality},
			XPLevels:      []string{p.XPLevel},
		}
	}
	return out
}

// Merge combines two clusters into one: member and skill sets are unioned,
// idea histories are appended, and the agreed idea becomes the consensus.
// Pure and total over its inputs; the lower cluster ID survives.
func Merge(a, b Cluster, idea string, round int) Cluster {
	lo, hi := a, b
	if hi.ID < lo.ID {
		lo, hi = hi, lo
	}

	merged := Cluster{
		ID:            lo.ID,
		Members:       unionOrdered(lo.Members, hi.Members),
		Idea:          idea,
		OriginIdea:    lo.OriginIdea,
		Skills:        unionOrdered(lo.Skills, hi.Skills),
		Personalities: unionOrdered(lo.Personalities, hi.Personalities),
		XPLevels:      append(append([]string(nil), lo.XPLevels...), hi.XPLevels...),
		LastIdeaRound: lo.LastIdeaRound,
		Interactions:  lo.Interactions + hi.Interactions,
		Critiques:     lo.Critiques + hi.Critiques,
		ResearchDone:  lo.ResearchDone || hi.ResearchDone,
	}

	merged.IdeaHistory = append(append([]string(nil), lo.IdeaHistory...), hi.IdeaHistory...)
	merged.IdeaHistory = append(merged.IdeaHistory, lo.Idea)
	if hi.Idea != lo.Idea {
		merged.IdeaHistory = append(merged.IdeaHistory, hi.Idea)
	}
	if idea != lo.Idea || idea != hi.Idea {
		merged.LastIdeaRound = round
	}
	return merged
}

func unionOrdered(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, s := range append(append([]string(nil), a...), b...) {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// blendIdeas picks the agreed idea when the adapter did not supply an
// explicit blend: a seeded permutation fixes the stitch order, keeping the
// choice reproducible without favoring insertion order.
func blendIdeas(rng *rand.Rand, ideas []string) string {
	if len(ideas) == 0 {
		return ""
	}
	perm := rng.Perm(len(ideas))
	merged := ideas[perm[0]]
	for _, idx := range perm[1:] {
		merged = mergeIdeas(merged, ideas[idx])
	}
	return merged
}

type mergeRecord struct {
	Into    string
	From    []string
	Idea    string
	Members int
}

// applyFormation merges the participants of every agreeing turn, in turn
// order. A cluster merges at most once per round: the first-ranked
// qualifying turn wins and later ones involving the same cluster are
// skipped.
func (rs *RunState) applyFormation(turns []ConversationTurn) []mergeRecord {
	mergedThisRound := make(map[string]bool)
	var records []mergeRecord

	for _, turn := range turns {
		if turn.Signal <= 0 {
			continue
		}

		var participants []*Cluster
		tainted := false
		for _, id := range turn.ClusterIDs {
			if mergedThisRound[id] {
				tainted = true
				break
			}
			if c := rs.clusterByID(id); c != nil {
				participants = append(participants, c)
			}
		}
		if tainted || len(participants) < 2 {
			continue
		}

		idea := turn.ConsensusIdea
		if idea == "" {
			ideas := make([]string, len(participants))
			for i, c := range participants {
				ideas[i] = c.Idea
			}
			idea = blendIdeas(rs.rng, ideas)
		}

		merged := *participants[0]
		for _, c := range participants[1:] {
			merged = Merge(merged, *c, idea, turn.Round)
		}

		var from []string
		for _, c := range participants {
			mergedThisRound[c.ID] = true
			if c.ID != merged.ID {
				from = append(from, c.ID)
			}
		}
		rs.replaceClusters(&merged, from)
		records = append(records, mergeRecord{
			Into:    merged.ID,
			From:    from,
			Idea:    merged.Idea,
			Members: len(merged.Members),
		})
	}
	return records
}

// replaceClusters installs the merged cluster in place of its surviving ID
// and drops the absorbed ones, preserving partition order.
func (rs *RunState) replaceClusters(merged *Cluster, absorbed []string) {
	drop := make(map[string]bool, len(absorbed))
	for _, id := range absorbed {
		drop[id] = true
	}
	out := rs.Clusters[:0]
	for _, c := range rs.Clusters {
		switch {
		case c.ID == merged.ID:
			out = append(out, merged)
		case drop[c.ID]:
			// absorbed
		default:
			out = append(out, c)
		}
	}
	rs.Clusters = out
}

// applyReflection gives each cluster that has not yet done user research a
// seeded chance to complete it between rounds.
func (rs *RunState) applyReflection() {
	for _, c := range rs.Clusters {
		if c.ResearchDone {
			continue
		}
		if rs.rng.Float64() < 0.3 {
			c.ResearchDone = true
		}
	}
}
