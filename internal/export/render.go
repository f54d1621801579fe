package export

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/mtzanidakis/hacksim/internal/engine"
	"github.com/mtzanidakis/hacksim/internal/profile"
)

// JSON renders a summary as indented JSON.
func JSON(summary *engine.Summary) ([]byte, error) {
	raw, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode summary: %w", err)
	}
	return append(raw, '\n'), nil
}

// Text streams the human-readable report the CLI prints after a run.
func Text(w io.Writer, summary *engine.Summary, roster *profile.Roster) error {
	var b strings.Builder
	b.WriteString("=== Hackathon Simulation Runs ===\n")

	for _, run := range summary.Runs {
		fmt.Fprintf(&b, "\nRun %d (seed %d, %s", run.RunIndex, run.Seed, run.StatusName)
		if run.HaltReason != "" {
			fmt.Fprintf(&b, ": %s", run.HaltReason)
		}
		fmt.Fprintf(&b, ", %d/%d calls used):\n", run.CallsMade, run.CallsMade+run.BudgetRemaining)

		for _, entry := range run.Leaderboard {
			fmt.Fprintf(&b, "  %d. %s [%s] — %s, %s\n",
				entry.Rank, entry.TeamName, entry.ClusterID, pivotLabel(entry), researchLabel(entry))
			fmt.Fprintf(&b, "     Final idea: %s\n", entry.Idea)
			fmt.Fprintf(&b, "     Scores → %s; total %.2f\n", breakdownLine(entry.Breakdown), entry.Score)
		}
		for _, turn := range run.Turns {
			fmt.Fprintf(&b, "     [round %d] %s: %s\n", turn.Round, strings.Join(turn.ClusterIDs, "+"), turn.Narrative)
		}
	}

	b.WriteString("\n=== Aggregated Leaderboard Across Runs ===\n")
	for idx, agg := range summary.Leaderboard {
		fmt.Fprintf(&b, "%d. %s\n", idx+1, agg.Idea)
		if agg.Appearances == 0 {
			continue
		}
		fmt.Fprintf(&b, "   Avg score %.2f across %d runs, %d simulated wins. Best showing: %s in run %d.\n",
			agg.AvgScore, agg.Appearances, agg.Wins, agg.BestTeam, agg.BestRun)
		if agg.BestReasoning != "" {
			fmt.Fprintf(&b, "   Highlight: %s\n", agg.BestReasoning)
		}
		if plan := planFor(summary, agg, roster); len(plan) > 0 {
			b.WriteString("   Suggested 6-hour plan sample:\n")
			for _, step := range plan {
				fmt.Fprintf(&b, "     * %s\n", step)
			}
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// Markdown renders the summary as a standalone Markdown report.
func Markdown(summary *engine.Summary, roster *profile.Roster) string {
	var b strings.Builder
	b.WriteString("# Hackathon Simulation Summary\n\n## Runs\n")

	for _, run := range summary.Runs {
		fmt.Fprintf(&b, "\n### Run %d (seed %d)\n\n", run.RunIndex, run.Seed)
		fmt.Fprintf(&b, "Status: %s; narrative calls used: %d.\n\n", run.StatusName, run.CallsMade)
		for _, entry := range run.Leaderboard {
			fmt.Fprintf(&b, "- **%d. %s** — %s, %s<br>  Final idea: %s\n",
				entry.Rank, entry.TeamName, pivotLabel(entry), researchLabel(entry), entry.Idea)
			fmt.Fprintf(&b, "  - Scores → %s; total **%.2f**\n", breakdownLine(entry.Breakdown), entry.Score)
		}
	}

	b.WriteString("\n## Leaderboard\n")
	for idx, agg := range summary.Leaderboard {
		fmt.Fprintf(&b, "\n### %d. %s\n\n", idx+1, agg.Idea)
		if agg.Appearances == 0 {
			continue
		}
		fmt.Fprintf(&b, "- Avg score **%.2f** across %d runs; %d simulated wins.\n",
			agg.AvgScore, agg.Appearances, agg.Wins)
		fmt.Fprintf(&b, "- Best showing: %s (run %d).\n", agg.BestTeam, agg.BestRun)
		if agg.BestReasoning != "" {
			fmt.Fprintf(&b, "- Highlight: %s\n", agg.BestReasoning)
		}
		if plan := planFor(summary, agg, roster); len(plan) > 0 {
			b.WriteString("- Six-hour plan:\n")
			for _, step := range plan {
				fmt.Fprintf(&b, "  - %s\n", step)
			}
		}
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}

// planFor locates the best run's leaderboard entry behind an aggregated idea
// and drafts its plan. Marker rows have no backing entry and get none.
func planFor(summary *engine.Summary, agg engine.AggregatedIdea, roster *profile.Roster) []string {
	if agg.BestRun < 1 || agg.BestRun > len(summary.Runs) {
		return nil
	}
	for _, entry := range summary.Runs[agg.BestRun-1].Leaderboard {
		if entry.TeamName == agg.BestTeam && entry.Idea == agg.Idea {
			return SixHourPlan(entry, roster)
		}
	}
	return nil
}

func pivotLabel(e engine.LeaderboardEntry) string {
	if e.Pivoted {
		return "Pivoted"
	}
	return "Stayed course"
}

func researchLabel(e engine.LeaderboardEntry) string {
	if e.ResearchDone {
		return "validated with user research"
	}
	return "skipped user research"
}

func breakdownLine(breakdown map[string]float64) string {
	keys := make([]string, 0, len(breakdown))
	for k := range breakdown {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s: %.2f", k, breakdown[k])
	}
	return strings.Join(parts, ", ")
}
