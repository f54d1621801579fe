// Package scheduler runs recurring simulations on their stored cadence.
package scheduler

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/mtzanidakis/hacksim/internal/config"
	"github.com/mtzanidakis/hacksim/internal/natsbus"
	"github.com/mtzanidakis/hacksim/internal/schedule"
	"github.com/mtzanidakis/hacksim/internal/sim"
	"github.com/mtzanidakis/hacksim/internal/store"
)

type Scheduler struct {
	store        *store.Store
	runner       *sim.Runner
	bus          *natsbus.Client
	pollInterval time.Duration
}

func New(st *store.Store, runner *sim.Runner, bus *natsbus.Client, cfg config.SchedulerConfig) *Scheduler {
	return &Scheduler{
		store:        st,
		runner:       runner,
		bus:          bus,
		pollInterval: cfg.PollInterval,
	}
}

func (s *Scheduler) Start(ctx context.Context) {
	if s.pollInterval == 0 {
		s.pollInterval = 30 * time.Second
	}

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	slog.Info("scheduler started", "poll_interval", s.pollInterval)

	for {
		select {
		case <-ctx.Done():
			slog.Info("scheduler stopped")
			return
		case <-ticker.C:
			s.poll(ctx)
		}
	}
}

func (s *Scheduler) poll(ctx context.Context) {
	due, err := s.store.GetDueSchedules(time.Now())
	if err != nil {
		slog.Error("failed to get due schedules", "error", err)
		return
	}

	for _, sched := range due {
		s.execute(ctx, sched)
	}
}

func (s *Scheduler) execute(ctx context.Context, sched store.ScheduledSim) {
	slog.Info("executing scheduled simulation", "id", sched.ID, "name", sched.Name)

	_, _, err := s.runner.Execute(ctx, "scheduled: "+sched.Name)

	var lastStatus, lastError string
	if err != nil {
		lastStatus = "error"
		lastError = err.Error()
		slog.Error("scheduled simulation failed", "id", sched.ID, "error", err)
	} else {
		lastStatus = "success"
	}

	nextRun := schedule.NextAfter(sched.Schedule, time.Now())

	if err := s.store.UpdateScheduleRun(sched.ID, lastStatus, lastError, nextRun); err != nil {
		slog.Error("failed to update schedule run", "id", sched.ID, "error", err)
	}

	s.publishExecuted(sched, lastStatus)

	// One-shot cadences with no next firing are retired.
	if nextRun == nil {
		slog.Info("no next run, marking schedule completed", "id", sched.ID, "name", sched.Name)
		if err := s.store.UpdateScheduleStatus(sched.ID, "completed"); err != nil {
			slog.Error("failed to complete schedule", "id", sched.ID, "error", err)
		}
	}
}

func (s *Scheduler) publishExecuted(sched store.ScheduledSim, status string) {
	if s.bus == nil {
		return
	}

	event := map[string]any{
		"type":      "schedule_executed",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"data": map[string]any{
			"id":     sched.ID,
			"name":   sched.Name,
			"status": status,
		},
	}

	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	_ = s.bus.Publish(natsbus.TopicSchedule(sched.ID), data)
}
