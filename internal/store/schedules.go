package store

import (
	"database/sql"
	"fmt"
	"time"
)

// ScheduledSim is a recurring simulation defined by a cron expression.
type ScheduledSim struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Schedule   string     `json:"schedule"`
	Status     string     `json:"status"`
	NextRunAt  *time.Time `json:"next_run_at,omitempty"`
	LastRunAt  *time.Time `json:"last_run_at,omitempty"`
	LastStatus string     `json:"last_status,omitempty"`
	LastError  string     `json:"last_error,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

func scanSchedule(sc scanner) (*ScheduledSim, error) {
	sim := &ScheduledSim{}
	var lastStatus, lastError sql.NullString
	err := sc.Scan(&sim.ID, &sim.Name, &sim.Schedule, &sim.Status,
		&sim.NextRunAt, &sim.LastRunAt, &lastStatus, &lastError, &sim.CreatedAt)
	if err != nil {
		return nil, err
	}
	sim.LastStatus = lastStatus.String
	sim.LastError = lastError.String
	return sim, nil
}

func (s *Store) SaveSchedule(sim *ScheduledSim) error {
	_, err := s.db.Exec(`
		INSERT INTO scheduled_sims (id, name, schedule, status, next_run_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			schedule = excluded.schedule,
			status = excluded.status,
			next_run_at = excluded.next_run_at`,
		sim.ID, sim.Name, sim.Schedule, sim.Status, sim.NextRunAt)
	if err != nil {
		return fmt.Errorf("save schedule: %w", err)
	}
	return nil
}

func (s *Store) GetSchedule(id string) (*ScheduledSim, error) {
	row := s.db.QueryRow(`
		SELECT id, name, schedule, status, next_run_at, last_run_at, last_status, last_error, created_at
		FROM scheduled_sims WHERE id = ?`, id)
	sim, err := scanSchedule(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get schedule: %w", err)
	}
	return sim, nil
}

func (s *Store) ListSchedules() ([]ScheduledSim, error) {
	rows, err := s.db.Query(`
		SELECT id, name, schedule, status, next_run_at, last_run_at, last_status, last_error, created_at
		FROM scheduled_sims ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	defer rows.Close()

	var sims []ScheduledSim
	for rows.Next() {
		sim, err := scanSchedule(rows)
		if err != nil {
			return nil, fmt.Errorf("scan schedule: %w", err)
		}
		sims = append(sims, *sim)
	}
	return sims, rows.Err()
}

func (s *Store) GetDueSchedules(now time.Time) ([]ScheduledSim, error) {
	rows, err := s.db.Query(`
		SELECT id, name, schedule, status, next_run_at, last_run_at, last_status, last_error, created_at
		FROM scheduled_sims
		WHERE status = 'active' AND next_run_at <= ?
		ORDER BY next_run_at`, now)
	if err != nil {
		return nil, fmt.Errorf("get due schedules: %w", err)
	}
	defer rows.Close()

	var sims []ScheduledSim
	for rows.Next() {
		sim, err := scanSchedule(rows)
		if err != nil {
			return nil, fmt.Errorf("scan schedule: %w", err)
		}
		sims = append(sims, *sim)
	}
	return sims, rows.Err()
}

func (s *Store) UpdateScheduleRun(id string, lastStatus string, lastError string, nextRunAt *time.Time) error {
	_, err := s.db.Exec(`
		UPDATE scheduled_sims
		SET last_run_at = CURRENT_TIMESTAMP, last_status = ?, last_error = ?, next_run_at = ?
		WHERE id = ?`, lastStatus, lastError, nextRunAt, id)
	return err
}

func (s *Store) UpdateScheduleStatus(id string, status string) error {
	_, err := s.db.Exec(`UPDATE scheduled_sims SET status = ? WHERE id = ?`, status, id)
	return err
}

func (s *Store) DeleteSchedule(id string) error {
	_, err := s.db.Exec(`DELETE FROM scheduled_sims WHERE id = ?`, id)
	return err
}
