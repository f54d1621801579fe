package scheduler

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/mtzanidakis/hacksim/internal/config"
	"github.com/mtzanidakis/hacksim/internal/sim"
	"github.com/mtzanidakis/hacksim/internal/store"
)

func testSetup(t *testing.T) (*Scheduler, *store.Store) {
	t.Helper()
	st, err := store.New(config.StoreConfig{Path: filepath.Join(t.TempDir(), "test.db")})
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	script := filepath.Join(t.TempDir(), "script.json")
	if err := os.WriteFile(script, []byte(`[
		{"text": "pairing up", "signal": -0.5},
		{"text": "pairing up again", "signal": -0.5}
	]`), 0o644); err != nil {
		t.Fatalf("write script: %v", err)
	}

	cfg := &config.Config{
		Simulation: config.SimulationConfig{
			Runs: 1, Rounds: 1, Seed: 1, CallBudget: 2,
			MinTeamSize: 2, MaxTeamSize: 4,
		},
		Narrative: config.NarrativeConfig{
			Provider:   config.ProviderReplay,
			ReplayPath: script,
		},
		Scheduler: config.SchedulerConfig{PollInterval: time.Minute},
	}
	runner := sim.NewRunner(cfg, st, nil)
	return New(st, runner, nil, cfg.Scheduler), st
}

func TestPollExecutesDueSchedule(t *testing.T) {
	s, st := testSetup(t)

	past := time.Now().Add(-time.Minute)
	if err := st.SaveSchedule(&store.ScheduledSim{
		ID:        "sched-1",
		Name:      "hourly sim",
		Schedule:  `{"kind":"interval","interval_ms":3600000}`,
		Status:    "active",
		NextRunAt: &past,
	}); err != nil {
		t.Fatalf("save schedule: %v", err)
	}

	s.poll(context.Background())

	got, err := st.GetSchedule("sched-1")
	if err != nil {
		t.Fatalf("get schedule: %v", err)
	}
	if got.LastStatus != "success" {
		t.Errorf("last status = %q, want success (error: %q)", got.LastStatus, got.LastError)
	}
	if got.NextRunAt == nil || !got.NextRunAt.After(time.Now()) {
		t.Errorf("next run not advanced: %v", got.NextRunAt)
	}
	if got.Status != "active" {
		t.Errorf("recurring schedule must stay active, got %s", got.Status)
	}

	runs, err := st.ListRuns(10)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 persisted run, got %d", len(runs))
	}
	if runs[0].Label != "scheduled: hourly sim" {
		t.Errorf("run label = %q", runs[0].Label)
	}
}

func TestPollRetiresOneShot(t *testing.T) {
	s, st := testSetup(t)

	past := time.Now().Add(-time.Minute)
	elapsed := time.Now().Add(-time.Second).UnixMilli()
	if err := st.SaveSchedule(&store.ScheduledSim{
		ID:        "sched-once",
		Name:      "one shot",
		Schedule:  `{"kind":"once","at_ms":` + itoa(elapsed) + `}`,
		Status:    "active",
		NextRunAt: &past,
	}); err != nil {
		t.Fatalf("save schedule: %v", err)
	}

	s.poll(context.Background())

	got, _ := st.GetSchedule("sched-once")
	if got.Status != "completed" {
		t.Errorf("one-shot schedule status = %s, want completed", got.Status)
	}
}

func TestPollIgnoresFutureSchedules(t *testing.T) {
	s, st := testSetup(t)

	future := time.Now().Add(time.Hour)
	_ = st.SaveSchedule(&store.ScheduledSim{
		ID:        "sched-future",
		Name:      "later",
		Schedule:  `{"kind":"interval","interval_ms":3600000}`,
		Status:    "active",
		NextRunAt: &future,
	})

	s.poll(context.Background())

	runs, _ := st.ListRuns(10)
	if len(runs) != 0 {
		t.Errorf("future schedules must not run, got %d runs", len(runs))
	}
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}
