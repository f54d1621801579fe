package main

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/mtzanidakis/hacksim/internal/engine"
	"github.com/mtzanidakis/hacksim/internal/profile"
)

func testSummary() *engine.Summary {
	return &engine.Summary{
		Runs: []engine.RunResult{{
			RunIndex:   1,
			Seed:       99,
			StatusName: "complete",
			RoundsRun:  1,
			CallsMade:  2,
			Leaderboard: []engine.LeaderboardEntry{{
				Rank:      1,
				ClusterID: "c01",
				TeamName:  "Night Shift",
				Members:   []string{"Ava"},
				Idea:      "drone field mapping",
				Breakdown: map[string]float64{"skill_diversity": 1.0},
				Score:     1.0,
			}},
		}},
		Leaderboard: []engine.AggregatedIdea{{
			Slug:        "drone-field-mapping",
			Idea:        "drone field mapping",
			Appearances: 1,
			AvgScore:    1.0,
			Wins:        1,
			BestTeam:    "Night Shift",
			BestRun:     1,
		}},
	}
}

func testRoster(t *testing.T) *profile.Roster {
	t.Helper()
	r, err := profile.NewRoster([]profile.AgentProfile{
		{Name: "Ava", Role: "Backend Engineer", Idea: "drone field mapping", Skills: []string{"go"}},
	})
	if err != nil {
		t.Fatalf("roster: %v", err)
	}
	return r
}

func TestBuildArtifacts(t *testing.T) {
	artifacts, err := buildArtifacts(testSummary(), testRoster(t))
	if err != nil {
		t.Fatalf("build artifacts: %v", err)
	}
	if len(artifacts) != 2 {
		t.Fatalf("got %d artifacts, want 2", len(artifacts))
	}

	if artifacts[0].Name != "summary.json" {
		t.Errorf("first artifact = %s", artifacts[0].Name)
	}
	var decoded engine.Summary
	if err := json.Unmarshal(artifacts[0].Data, &decoded); err != nil {
		t.Fatalf("summary.json not valid JSON: %v", err)
	}
	if decoded.Leaderboard[0].Slug != "drone-field-mapping" {
		t.Errorf("slug = %s", decoded.Leaderboard[0].Slug)
	}

	if artifacts[1].Name != "leaderboard.md" {
		t.Errorf("second artifact = %s", artifacts[1].Name)
	}
	if !strings.Contains(string(artifacts[1].Data), "drone field mapping") {
		t.Error("markdown missing winning idea")
	}
}

func TestRunSimRejectsUnknownFlag(t *testing.T) {
	if err := runSim([]string{"-bogus"}); err == nil {
		t.Fatal("expected error for unknown flag")
	}
}

func TestRunSimRejectsMissingValue(t *testing.T) {
	if err := runSim([]string{"-seed"}); err == nil {
		t.Fatal("expected error for missing flag value")
	}
}
