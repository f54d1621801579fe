// Package sim wires the engine into the service: it builds the roster and
// narrative adapter from configuration, streams progress onto the event bus,
// and persists finished runs.
package sim

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mtzanidakis/hacksim/internal/config"
	"github.com/mtzanidakis/hacksim/internal/engine"
	"github.com/mtzanidakis/hacksim/internal/narrative"
	"github.com/mtzanidakis/hacksim/internal/natsbus"
	"github.com/mtzanidakis/hacksim/internal/profile"
	"github.com/mtzanidakis/hacksim/internal/store"
)

// Runner executes simulations for the CLI, the web API, and the scheduler.
type Runner struct {
	cfg   *config.Config
	store *store.Store
	bus   *natsbus.Client
}

func NewRunner(cfg *config.Config, st *store.Store, bus *natsbus.Client) *Runner {
	return &Runner{cfg: cfg, store: st, bus: bus}
}

// Roster loads the configured profile set, or the built-in one when no path
// is configured.
func (r *Runner) Roster() (*profile.Roster, error) {
	if r.cfg.Simulation.ProfilesPath == "" {
		return profile.Default(), nil
	}
	return profile.Load(r.cfg.Simulation.ProfilesPath)
}

// Adapter builds the configured narrative provider. The choice is explicit
// and validated up front; there is no call-time fallback between providers.
func (r *Runner) Adapter() (narrative.Adapter, error) {
	if err := config.ValidateNarrative(r.cfg.Narrative); err != nil {
		return nil, err
	}
	switch r.cfg.Narrative.Provider {
	case config.ProviderGemini:
		return narrative.NewGemini(r.cfg.Narrative)
	case config.ProviderReplay:
		return narrative.NewReplay(r.cfg.Narrative.ReplayPath)
	}
	return nil, &config.Error{Field: "narrative.provider", Reason: "unknown provider"}
}

// Execute runs the configured simulation end to end and persists the result.
// The summary is returned even when the run failed partway, alongside the
// error.
func (r *Runner) Execute(ctx context.Context, label string) (*store.SimRun, *engine.Summary, error) {
	return r.execute(ctx, uuid.NewString(), label)
}

// StartAsync launches a simulation in the background and returns its ID
// immediately. Progress is observable on the event bus and in the store.
func (r *Runner) StartAsync(ctx context.Context, label string) string {
	simID := uuid.NewString()
	go func() {
		if _, _, err := r.execute(ctx, simID, label); err != nil {
			slog.Error("background simulation failed", "sim_id", simID, "error", err)
		}
	}()
	return simID
}

func (r *Runner) execute(ctx context.Context, simID, label string) (*store.SimRun, *engine.Summary, error) {
	roster, err := r.Roster()
	if err != nil {
		return nil, nil, fmt.Errorf("load profiles: %w", err)
	}
	adapter, err := r.Adapter()
	if err != nil {
		return nil, nil, err
	}

	record := &store.SimRun{
		ID:         simID,
		Label:      label,
		Status:     "running",
		Seed:       r.cfg.Simulation.Seed,
		Runs:       r.cfg.Simulation.Runs,
		Rounds:     r.cfg.Simulation.Rounds,
		CallBudget: r.cfg.Simulation.CallBudget,
	}
	if r.store != nil {
		if err := r.store.SaveRun(record); err != nil {
			return nil, nil, err
		}
	}
	r.publishStatus(simID, "running")

	orch, err := engine.NewOrchestrator(roster, r.cfg.Simulation, adapter, r.hook(simID))
	if err != nil {
		return nil, nil, err
	}

	slog.Info("simulation started",
		"sim_id", simID, "provider", adapter.Name(),
		"agents", roster.Len(), "runs", r.cfg.Simulation.Runs, "seed", r.cfg.Simulation.Seed)

	summary, runErr := orch.Run(ctx)
	r.finalize(record, summary, runErr)

	if r.store != nil {
		if err := r.store.SaveRun(record); err != nil {
			slog.Error("failed to persist simulation", "sim_id", simID, "error", err)
		}
	}
	r.publishResult(record)

	if runErr != nil {
		slog.Error("simulation failed", "sim_id", simID, "error", runErr)
		return record, summary, runErr
	}
	slog.Info("simulation finished", "sim_id", simID, "status", record.Status, "calls_made", record.CallsMade)
	return record, summary, nil
}

func (r *Runner) finalize(record *store.SimRun, summary *engine.Summary, runErr error) {
	record.Status = "complete"
	calls := 0
	for _, run := range summary.Runs {
		calls += run.CallsMade
		if run.HaltReason != "" {
			record.HaltReason = run.HaltReason
		}
		if run.Status == engine.StateExhausted {
			record.Status = "exhausted"
		}
	}
	record.CallsMade = calls
	if runErr != nil {
		record.Status = "failed"
		record.HaltReason = runErr.Error()
	}

	raw, err := json.Marshal(summary)
	if err != nil {
		slog.Error("failed to encode summary", "sim_id", record.ID, "error", err)
		return
	}
	record.Summary = raw
}

// hook bridges engine progress events onto the NATS bus for live dashboards.
func (r *Runner) hook(simID string) engine.Hook {
	if r.bus == nil {
		return nil
	}
	topic := natsbus.TopicSimEvents(simID)
	return func(ev engine.Event) {
		if err := r.bus.PublishJSON(topic, ev); err != nil {
			slog.Warn("failed to publish sim event", "sim_id", simID, "error", err)
		}
	}
}

func (r *Runner) publishStatus(simID, status string) {
	if r.bus == nil {
		return
	}
	payload := map[string]string{"type": "status_changed", "id": simID, "status": status}
	if err := r.bus.PublishJSON(natsbus.TopicSimStatus(simID), payload); err != nil {
		slog.Warn("failed to publish sim status", "sim_id", simID, "error", err)
	}
}

func (r *Runner) publishResult(record *store.SimRun) {
	if r.bus == nil {
		return
	}
	r.publishStatus(record.ID, record.Status)
	payload := map[string]any{
		"type":        "run_finished",
		"id":          record.ID,
		"status":      record.Status,
		"calls_made":  record.CallsMade,
		"halt_reason": record.HaltReason,
		"finished_at": time.Now().UTC().Format(time.RFC3339),
	}
	if err := r.bus.PublishJSON(natsbus.TopicSimResult(record.ID), payload); err != nil {
		slog.Warn("failed to publish sim result", "sim_id", record.ID, "error", err)
	}
}
