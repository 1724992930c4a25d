// Package history keeps a local log of drawbridge runs in SQLite.
//
// Every open, close, start, and stop is recorded with what it changed, so
// "who opened port 22 last Tuesday" can be answered from the machine that
// did it. The database lives under $XDG_STATE_HOME/drawbridge (default
// ~/.local/state/drawbridge).
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/matzehuels/drawbridge/pkg/dispatch"
)

// Status values of a Run.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Run is one recorded command.
type Run struct {
	ID       string
	Command  string
	Targets  []string
	Started  time.Time
	Duration time.Duration
	Status   string
	Error    string
	Summary  string
	Details  Details
}

// Details is the per-resource outcome stored as JSON.
type Details struct {
	Firewalls []FirewallDetail `json:"firewalls,omitempty"`
	Instances []InstanceDetail `json:"instances,omitempty"`
}

// FirewallDetail lists rule changes in display form.
type FirewallDetail struct {
	Name    string   `json:"name"`
	Added   []string `json:"added,omitempty"`
	Removed []string `json:"removed,omitempty"`
}

// InstanceDetail is the final state of one instance.
type InstanceDetail struct {
	Name         string `json:"name"`
	Running      bool   `json:"running"`
	InstanceType string `json:"instance_type,omitempty"`
	Target       string `json:"target,omitempty"`
	FQDN         string `json:"fqdn,omitempty"`
}

// FromReport converts a dispatch report and its error into a Run.
func FromReport(r *dispatch.Report, err error) Run {
	run := Run{
		Command:  r.Command,
		Targets:  r.Targets,
		Started:  r.Started,
		Duration: r.Duration(),
		Status:   StatusOK,
	}
	if err != nil {
		run.Status = StatusError
		run.Error = err.Error()
	}

	for _, fw := range r.Firewalls {
		d := FirewallDetail{Name: fw.Name}
		for _, rule := range fw.Added {
			d.Added = append(d.Added, rule.String())
		}
		for _, rule := range fw.Removed {
			d.Removed = append(d.Removed, rule.String())
		}
		run.Details.Firewalls = append(run.Details.Firewalls, d)
	}
	for _, inst := range r.Instances {
		d := InstanceDetail{Name: inst.Name, Running: inst.Running, FQDN: inst.FQDN}
		if inst.Running {
			d.InstanceType = inst.InstanceType.String()
			d.Target = inst.Target.String()
		}
		run.Details.Instances = append(run.Details.Instances, d)
	}
	run.Summary = summarize(r)
	return run
}

func summarize(r *dispatch.Report) string {
	var parts []string
	if len(r.Firewalls) > 0 {
		added, removed := r.RulesChanged()
		parts = append(parts, fmt.Sprintf("%d firewall(s), +%d -%d rules", len(r.Firewalls), added, removed))
	}
	if len(r.Instances) > 0 {
		running := 0
		for _, inst := range r.Instances {
			if inst.Running {
				running++
			}
		}
		parts = append(parts, fmt.Sprintf("%d instance(s), %d running", len(r.Instances), running))
	}
	if len(parts) == 0 {
		return "nothing matched"
	}
	return strings.Join(parts, "; ")
}

// DefaultPath returns the history database location.
func DefaultPath() (string, error) {
	dir := os.Getenv("XDG_STATE_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot locate state directory: %w", err)
		}
		dir = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(dir, "drawbridge", "history.db"), nil
}

// Store is a SQLite-backed run log.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates the database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite connection: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000"} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to run %q: %w", pragma, err)
		}
	}

	s := &Store{db: db, path: path}
	if err := s.createTables(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

func (s *Store) createTables(ctx context.Context) error {
	runs := `
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			command TEXT NOT NULL,
			targets TEXT NOT NULL,
			started_at INTEGER NOT NULL,
			duration_ms INTEGER NOT NULL,
			status TEXT NOT NULL,
			error TEXT NOT NULL DEFAULT '',
			summary TEXT NOT NULL DEFAULT '',
			details TEXT NOT NULL DEFAULT '{}'
		)
	`
	if _, err := s.db.ExecContext(ctx, runs); err != nil {
		return fmt.Errorf("failed to create runs table: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at)`); err != nil {
		return fmt.Errorf("failed to create runs index: %w", err)
	}
	return nil
}

// Path is the database file.
func (s *Store) Path() string { return s.path }

// Record stores run, assigning an ID if it has none, and returns the stored run.
func (s *Store) Record(ctx context.Context, run Run) (Run, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	targets, err := json.Marshal(run.Targets)
	if err != nil {
		return run, fmt.Errorf("failed to encode targets: %w", err)
	}
	details, err := json.Marshal(run.Details)
	if err != nil {
		return run, fmt.Errorf("failed to encode details: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs (id, command, targets, started_at, duration_ms, status, error, summary, details)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.Command, string(targets), run.Started.UnixMilli(), run.Duration.Milliseconds(),
		run.Status, run.Error, run.Summary, string(details))
	if err != nil {
		return run, fmt.Errorf("failed to record run: %w", err)
	}
	return run, nil
}

// List returns up to limit runs, newest first. A limit <= 0 returns all runs.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, command, targets, started_at, duration_ms, status, error, summary, details
		FROM runs
		ORDER BY started_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var targets, details string
		var startedMs, durationMs int64
		if err := rows.Scan(&run.ID, &run.Command, &targets, &startedMs, &durationMs,
			&run.Status, &run.Error, &run.Summary, &details); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if err := json.Unmarshal([]byte(targets), &run.Targets); err != nil {
			return nil, fmt.Errorf("failed to decode targets of run %s: %w", run.ID, err)
		}
		if err := json.Unmarshal([]byte(details), &run.Details); err != nil {
			return nil, fmt.Errorf("failed to decode details of run %s: %w", run.ID, err)
		}
		run.Started = time.UnixMilli(startedMs)
		run.Duration = time.Duration(durationMs) * time.Millisecond
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
