package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// SimRun is one persisted simulation invocation: its configuration snapshot
// and, once finished, the full summary as JSON.
type SimRun struct {
	ID         string          `json:"id"`
	Label      string          `json:"label"`
	Status     string          `json:"status"`
	Seed       int64           `json:"seed"`
	Runs       int             `json:"runs"`
	Rounds     int             `json:"rounds"`
	CallBudget int             `json:"call_budget"`
	CallsMade  int             `json:"calls_made"`
	HaltReason string          `json:"halt_reason,omitempty"`
	Summary    json.RawMessage `json:"summary,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

func scanRun(sc scanner, withSummary bool) (*SimRun, error) {
	r := &SimRun{}
	var haltReason sql.NullString
	var summary []byte

	dest := []any{&r.ID, &r.Label, &r.Status, &r.Seed, &r.Runs, &r.Rounds,
		&r.CallBudget, &r.CallsMade, &haltReason}
	if withSummary {
		dest = append(dest, &summary)
	}
	dest = append(dest, &r.CreatedAt)

	if err := sc.Scan(dest...); err != nil {
		return nil, err
	}
	r.HaltReason = haltReason.String
	if len(summary) > 0 {
		r.Summary = json.RawMessage(summary)
	}
	return r, nil
}

func (s *Store) SaveRun(r *SimRun) error {
	var summary any
	if len(r.Summary) > 0 {
		summary = string(r.Summary)
	}
	_, err := s.db.Exec(`
		INSERT INTO sim_runs (id, label, status, seed, runs, rounds, call_budget, calls_made, halt_reason, summary)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			label = excluded.label,
			status = excluded.status,
			calls_made = excluded.calls_made,
			halt_reason = excluded.halt_reason,
			summary = excluded.summary`,
		r.ID, r.Label, r.Status, r.Seed, r.Runs, r.Rounds,
		r.CallBudget, r.CallsMade, r.HaltReason, summary)
	if err != nil {
		return fmt.Errorf("save run: %w", err)
	}
	return nil
}

func (s *Store) GetRun(id string) (*SimRun, error) {
	row := s.db.QueryRow(`
		SELECT id, label, status, seed, runs, rounds, call_budget, calls_made, halt_reason, summary, created_at
		FROM sim_runs WHERE id = ?`, id)
	r, err := scanRun(row, true)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return r, nil
}

// ListRuns returns run metadata newest first, without the summary blobs.
func (s *Store) ListRuns(limit int) ([]SimRun, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(`
		SELECT id, label, status, seed, runs, rounds, call_budget, calls_made, halt_reason, created_at
		FROM sim_runs ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	// Never nil: an empty listing must serialize as a list, not null.
	runs := make([]SimRun, 0, limit)
	for rows.Next() {
		r, err := scanRun(rows, false)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, *r)
	}
	return runs, rows.Err()
}

func (s *Store) DeleteRun(id string) error {
	_, err := s.db.Exec(`DELETE FROM sim_runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	return nil
}
