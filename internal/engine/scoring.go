package engine

import (
	"fmt"
	"hash/fnv"
	"math"
	"sort"
	"strings"
)

// Scoring weights for the per-cluster composite.
const (
	weightSkillDiversity = 0.5
	weightCritiques      = 0.6
	weightInteractions   = 0.4
	weightResilience     = 0.3
)

// LeaderboardEntry is one ranked cluster with its score breakdown and the
// reasoning derived from the same inputs.
type LeaderboardEntry struct {
	Rank         int                `json:"rank"`
	ClusterID    string             `json:"cluster_id"`
	TeamName     string             `json:"team_name"`
	Members      []string           `json:"members"`
	Idea         string             `json:"idea"`
	Pivoted      bool               `json:"pivoted"`
	ResearchDone bool               `json:"research_done"`
	Breakdown    map[string]float64 `json:"breakdown"`
	Score        float64            `json:"score"`
	Reasoning    string             `json:"reasoning"`
}

// BuildLeaderboard scores the terminal partition. Pure over its inputs:
// clusters ordered by score descending, ties broken by cluster ID, and no
// randomness at this stage.
func BuildLeaderboard(clusters []*Cluster, roundsRun int) []LeaderboardEntry {
	entries := make([]LeaderboardEntry, 0, len(clusters))
	for _, c := range clusters {
		diversity := len(distinct(c.Skills))
		resilience := roundsRun - c.LastIdeaRound
		if resilience < 0 {
			resilience = 0
		}

		breakdown := map[string]float64{
			"skill_diversity":   round3(float64(diversity) * weightSkillDiversity),
			"survived_critique": round3(float64(c.Critiques) * weightCritiques),
			"interaction":       round3(float64(c.Interactions) * weightInteractions),
			"idea_resilience":   round3(float64(resilience) * weightResilience),
		}
		// Sum in a fixed order so the composite is bit-identical across
		// evaluations regardless of map iteration.
		score := breakdown["skill_diversity"] +
			breakdown["survived_critique"] +
			breakdown["interaction"] +
			breakdown["idea_resilience"]

		entries = append(entries, LeaderboardEntry{
			ClusterID:    c.ID,
			TeamName:     teamName(c),
			Members:      append([]string(nil), c.Members...),
			Idea:         c.Idea,
			Pivoted:      c.Idea != c.OriginIdea,
			ResearchDone: c.ResearchDone,
			Breakdown:    breakdown,
			Score:        round3(score),
			Reasoning:    reasoning(c, diversity, resilience),
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].ClusterID < entries[j].ClusterID
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}

func reasoning(c *Cluster, diversity, resilience int) string {
	var parts []string
	parts = append(parts, fmt.Sprintf("%d distinct skills across %d members", diversity, len(c.Members)))
	if c.Critiques > 0 {
		parts = append(parts, fmt.Sprintf("survived %d critical exchanges", c.Critiques))
	}
	if c.Interactions > 0 {
		parts = append(parts, fmt.Sprintf("%d conversations joined", c.Interactions))
	} else {
		parts = append(parts, "no conversations this run")
	}
	if resilience > 0 {
		parts = append(parts, fmt.Sprintf("idea stable for %d rounds", resilience))
	}
	if c.ResearchDone {
		parts = append(parts, "validated with user research")
	}
	return strings.Join(parts, "; ") + "."
}

var teamAdjectives = []string{"Signal", "Catalyst", "Momentum", "Insight", "Pulse", "Vector", "Fusion", "Orbit", "Sprint", "Arc"}
var teamNouns = []string{"Circle", "Crew", "Collective", "Guild", "Forum", "Loop", "Bridge", "Pod", "Squad", "Lab"}

// teamName derives a display name from the membership alone, so scoring
// stays free of the run's RNG stream.
func teamName(c *Cluster) string {
	h := fnv.New32a()
	for _, m := range c.Members {
		h.Write([]byte(m))
	}
	sum := h.Sum32()
	adjective := teamAdjectives[sum%uint32(len(teamAdjectives))]
	noun := teamNouns[(sum/7)%uint32(len(teamNouns))]
	return adjective + " " + noun
}

func distinct(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	var out []string
	for _, s := range items {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
