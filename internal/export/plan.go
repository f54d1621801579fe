// Package export renders simulation summaries as plain text, Markdown, and
// JSON, and packs the artifacts into a compressed archive.
package export

import (
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/mtzanidakis/hacksim/internal/engine"
	"github.com/mtzanidakis/hacksim/internal/profile"
)

// SixHourPlan drafts an execution plan for a leaderboard entry's team.
// Deterministic over the entry and roster, so repeated exports agree.
func SixHourPlan(entry engine.LeaderboardEntry, roster *profile.Roster) []string {
	if len(entry.Members) == 0 {
		return nil
	}

	members := make([]profile.AgentProfile, 0, len(entry.Members))
	for _, name := range entry.Members {
		if p, ok := roster.ByName(name); ok {
			members = append(members, p)
		}
	}
	if len(members) == 0 {
		return nil
	}

	lead := members[0]
	technical := pickRole(members, lead, "engineer", "developer")
	designer := pickRole(members, technical, "design")
	researcher := pickRole(members, lead, "research", "ops")

	concept := strings.SplitN(entry.Idea, ".", 2)[0]
	plan := []string{
		fmt.Sprintf("Hour 1: %s leads alignment on the refined concept: %s.", lead.Name, concept),
		fmt.Sprintf("Hour 2: %s pulls two quick interviews or transcript reviews to validate assumptions.", researcher.Name),
		fmt.Sprintf("Hour 3: %s scaffolds the core workflow; focus on the highest-signal feature.", technical.Name),
		fmt.Sprintf("Hour 4: %s drafts a clickable storyboard covering the end-to-end experience.", designer.Name),
		"Hour 5: Pair to stitch narrative + demo script; bake research insights into the storyline.",
		"Hour 6: Dry run the pitch, capture metrics in the dashboard, and tag next-day follow-ups.",
	}

	if len(distinctSkills(members)) >= 4 {
		plan[2] += " Shield novelty with a rapid feasibility spike test."
	}
	if !entry.ResearchDone {
		plan[1] += " Prioritize the riskiest assumption first."
	}
	// Idea-derived draw keeps the closing flourish stable per idea.
	h := fnv.New32a()
	h.Write([]byte(entry.Idea))
	if h.Sum32()%10 < 4 {
		plan[5] += " Close with a crisp ask for pilots or data access."
	}
	return plan
}

func pickRole(members []profile.AgentProfile, fallback profile.AgentProfile, keywords ...string) profile.AgentProfile {
	for _, m := range members {
		role := strings.ToLower(m.Role)
		for _, kw := range keywords {
			if strings.Contains(role, kw) {
				return m
			}
		}
	}
	return fallback
}

func distinctSkills(members []profile.AgentProfile) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, m := range members {
		for _, s := range m.Skills {
			if _, ok := seen[s]; ok {
				continue
			}
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	return out
}
