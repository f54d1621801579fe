package sim

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mtzanidakis/hacksim/internal/config"
	"github.com/mtzanidakis/hacksim/internal/store"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

const testProfiles = `[
	{"name": "Ava", "role": "Backend Engineer", "idea": "drone field mapping", "skills": ["go"]},
	{"name": "Ben", "role": "Product Designer", "idea": "drone field mapping", "skills": ["design"]},
	{"name": "Cara", "role": "UX Researcher", "idea": "community pantry router", "skills": ["research"]},
	{"name": "Dan", "role": "Data Analyst", "idea": "esports scrim analytics", "skills": ["data"]}
]`

const testScript = `[
	{"text": "agreed to team up", "signal": 1.0, "consensus_idea": "drone pantry logistics"},
	{"text": "kept separate tracks", "signal": -0.5},
	{"text": "joined the larger effort", "signal": 1.0, "consensus_idea": "drone pantry logistics"},
	{"text": "final alignment check", "signal": -0.5}
]`

func testRunner(t *testing.T, budget int) *Runner {
	t.Helper()
	st, err := store.New(config.StoreConfig{Path: filepath.Join(t.TempDir(), "test.db")})
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	cfg := &config.Config{
		Simulation: config.SimulationConfig{
			ProfilesPath:     writeFile(t, "profiles.json", testProfiles),
			Runs:             1,
			Rounds:           2,
			Seed:             42,
			CallBudget:       budget,
			ThrottleInterval: 0,
			MinTeamSize:      2,
			MaxTeamSize:      4,
		},
		Narrative: config.NarrativeConfig{
			Provider:   config.ProviderReplay,
			ReplayPath: writeFile(t, "script.json", testScript),
		},
	}
	return NewRunner(cfg, st, nil)
}

func TestExecutePersistsRun(t *testing.T) {
	r := testRunner(t, 10)

	record, summary, err := r.Execute(context.Background(), "unit test")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if record.Status != "complete" {
		t.Errorf("status = %s, want complete", record.Status)
	}
	if record.CallsMade == 0 {
		t.Error("calls made not counted")
	}
	if summary == nil || len(summary.Runs) != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}

	stored, err := r.store.GetRun(record.ID)
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if stored == nil {
		t.Fatal("run not persisted")
	}
	if stored.Label != "unit test" || len(stored.Summary) == 0 {
		t.Errorf("stored run incomplete: %+v", stored)
	}
}

func TestExecuteMarksExhaustion(t *testing.T) {
	r := testRunner(t, 1)

	record, summary, err := r.Execute(context.Background(), "tight budget")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if record.Status != "exhausted" {
		t.Errorf("status = %s, want exhausted", record.Status)
	}
	if record.HaltReason == "" {
		t.Error("exhausted run must carry a halt reason")
	}
	if record.CallsMade != 1 {
		t.Errorf("calls made = %d, want 1", record.CallsMade)
	}
	if len(summary.Runs) != 1 {
		t.Fatalf("expected the partial run in the summary")
	}
}

func TestExecuteScriptExhaustionFails(t *testing.T) {
	r := testRunner(t, 10)
	r.cfg.Narrative.ReplayPath = writeFile(t, "short.json", `[{"text": "only one", "signal": -0.5}]`)

	record, _, err := r.Execute(context.Background(), "short script")
	if err == nil {
		t.Fatal("expected script exhaustion to fail the run")
	}
	if record.Status != "failed" {
		t.Errorf("status = %s, want failed", record.Status)
	}
	stored, _ := r.store.GetRun(record.ID)
	if stored == nil || stored.Status != "failed" {
		t.Error("failed status must be persisted")
	}
}

func TestAdapterRejectsBadConfig(t *testing.T) {
	r := testRunner(t, 5)
	r.cfg.Narrative = config.NarrativeConfig{Provider: config.ProviderGemini}

	if _, err := r.Adapter(); err == nil {
		t.Error("gemini without an API key must be rejected")
	}

	r.cfg.Narrative = config.NarrativeConfig{Provider: "oracle"}
	if _, err := r.Adapter(); err == nil {
		t.Error("unknown provider must be rejected")
	}
}

func TestRosterFallsBackToDefaults(t *testing.T) {
	r := testRunner(t, 5)
	r.cfg.Simulation.ProfilesPath = ""

	roster, err := r.Roster()
	if err != nil {
		t.Fatalf("roster: %v", err)
	}
	if roster.Len() == 0 {
		t.Error("default roster must not be empty")
	}
}

func TestExecuteHonorsThrottle(t *testing.T) {
	r := testRunner(t, 2)
	r.cfg.Simulation.Rounds = 1
	r.cfg.Simulation.ThrottleInterval = 50 * time.Millisecond

	start := time.Now()
	if _, _, err := r.Execute(context.Background(), "throttled"); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Errorf("two calls with a 50ms floor finished in %v", elapsed)
	}
}
