package activity

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"trackwell-hq/meridian/pkg/money"
)

// SQLiteConfig contains configuration for the SQLite activity source.
type SQLiteConfig struct {
	// Path is the application database file path.
	Path string

	// MaxOpenConns is the maximum number of open connections.
	// Default: 10
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections.
	// Default: 5
	MaxIdleConns int

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// DefaultSQLiteConfig returns the default SQLite source configuration.
func DefaultSQLiteConfig() *SQLiteConfig {
	return &SQLiteConfig{
		Path:         "data/meridian.db",
		MaxOpenConns: 10,
		MaxIdleConns: 5,
		BusyTimeout:  5 * time.Second,
	}
}

// SQLiteSource reads cost activity from the application database.
//
// The source is strictly read-only: Meridian never mutates projects, time
// entries, or direct costs; those tables are owned by the collaborators
// that record them.
type SQLiteSource struct {
	db     *sql.DB
	config *SQLiteConfig
	logger *slog.Logger

	projectStmt  *sql.Stmt
	projectsStmt *sql.Stmt
	entriesStmt  *sql.Stmt
	costsStmt    *sql.Stmt
}

// NewSQLiteSource opens a read-only activity source over the given
// database.
func NewSQLiteSource(config *SQLiteConfig) (*SQLiteSource, error) {
	if config == nil {
		config = DefaultSQLiteConfig()
	}

	logger := slog.Default().With("component", "activity.sqlite")

	dsn := fmt.Sprintf("file:%s?mode=ro&_busy_timeout=%d",
		config.Path, int(config.BusyTimeout.Milliseconds()))

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open activity database: %w", err)
	}

	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)

	s := &SQLiteSource{
		db:     db,
		config: config,
		logger: logger,
	}

	if err := s.prepareStatements(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("activity source opened",
		"path", config.Path,
		"max_open_conns", config.MaxOpenConns,
	)

	return s, nil
}

// prepareStatements prepares the read queries for reuse.
func (s *SQLiteSource) prepareStatements() error {
	var err error

	s.projectStmt, err = s.db.Prepare(`
		SELECT id, name, budget_amount, budget_threshold_percent, hourly_rate, status
		FROM projects
		WHERE id = ?
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare project statement: %w", err)
	}

	s.projectsStmt, err = s.db.Prepare(`
		SELECT id, name, budget_amount, budget_threshold_percent, hourly_rate, status
		FROM projects
		ORDER BY id
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare projects statement: %w", err)
	}

	s.entriesStmt, err = s.db.Prepare(`
		SELECT id, project_id, user_id, start_time, end_time, billable
		FROM time_entries
		WHERE project_id = ? AND start_time >= ? AND start_time <= ?
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare time entries statement: %w", err)
	}

	s.costsStmt, err = s.db.Prepare(`
		SELECT id, project_id, amount, cost_date, billable
		FROM direct_costs
		WHERE project_id = ? AND cost_date >= ? AND cost_date <= ?
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare direct costs statement: %w", err)
	}

	return nil
}

// Project returns the project with the given ID.
func (s *SQLiteSource) Project(ctx context.Context, id string) (*Project, error) {
	var (
		p         Project
		budget    string
		rate      string
		threshold float64
		status    string
	)

	err := s.projectStmt.QueryRowContext(ctx, id).Scan(
		&p.ID, &p.Name, &budget, &threshold, &rate, &status,
	)
	if err == sql.ErrNoRows {
		return nil, ErrProjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load project: %w", err)
	}

	if p.BudgetAmount, err = money.Parse(budget); err != nil {
		return nil, fmt.Errorf("invalid budget amount for project %s: %w", id, err)
	}
	if p.HourlyRate, err = money.Parse(rate); err != nil {
		return nil, fmt.Errorf("invalid hourly rate for project %s: %w", id, err)
	}
	p.BudgetThresholdPercent = threshold
	p.Status = ProjectStatus(status)

	return &p, nil
}

// Projects returns all projects.
func (s *SQLiteSource) Projects(ctx context.Context) ([]*Project, error) {
	rows, err := s.projectsStmt.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var out []*Project
	for rows.Next() {
		var (
			p         Project
			budget    string
			rate      string
			threshold float64
			status    string
		)
		if err := rows.Scan(&p.ID, &p.Name, &budget, &threshold, &rate, &status); err != nil {
			return nil, fmt.Errorf("failed to scan project row: %w", err)
		}
		if p.BudgetAmount, err = money.Parse(budget); err != nil {
			return nil, fmt.Errorf("invalid budget amount for project %s: %w", p.ID, err)
		}
		if p.HourlyRate, err = money.Parse(rate); err != nil {
			return nil, fmt.Errorf("invalid hourly rate for project %s: %w", p.ID, err)
		}
		p.BudgetThresholdPercent = threshold
		p.Status = ProjectStatus(status)
		out = append(out, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating project rows: %w", err)
	}
	return out, nil
}

// TimeEntries returns time entries for a project within [start, end].
func (s *SQLiteSource) TimeEntries(ctx context.Context, projectID string, start, end time.Time) ([]*TimeEntry, error) {
	rows, err := s.entriesStmt.QueryContext(ctx, projectID, start.Unix(), end.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to query time entries: %w", err)
	}
	defer rows.Close()

	var out []*TimeEntry
	for rows.Next() {
		var (
			e            TimeEntry
			startSec     int64
			endSec       int64
			billableFlag int
		)
		if err := rows.Scan(&e.ID, &e.ProjectID, &e.UserID, &startSec, &endSec, &billableFlag); err != nil {
			return nil, fmt.Errorf("failed to scan time entry row: %w", err)
		}
		e.Start = time.Unix(startSec, 0)
		e.End = time.Unix(endSec, 0)
		e.Billable = billableFlag != 0
		out = append(out, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating time entry rows: %w", err)
	}
	return out, nil
}

// DirectCosts returns direct costs for a project within [start, end].
func (s *SQLiteSource) DirectCosts(ctx context.Context, projectID string, start, end time.Time) ([]*DirectCost, error) {
	rows, err := s.costsStmt.QueryContext(ctx, projectID, start.Unix(), end.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to query direct costs: %w", err)
	}
	defer rows.Close()

	var out []*DirectCost
	for rows.Next() {
		var (
			c            DirectCost
			amount       string
			dateSec      int64
			billableFlag int
		)
		if err := rows.Scan(&c.ID, &c.ProjectID, &amount, &dateSec, &billableFlag); err != nil {
			return nil, fmt.Errorf("failed to scan direct cost row: %w", err)
		}
		if c.Amount, err = money.Parse(amount); err != nil {
			return nil, fmt.Errorf("invalid amount for direct cost %s: %w", c.ID, err)
		}
		c.CostDate = time.Unix(dateSec, 0)
		c.Billable = billableFlag != 0
		out = append(out, &c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating direct cost rows: %w", err)
	}
	return out, nil
}

// Close releases the prepared statements and the database handle.
func (s *SQLiteSource) Close() error {
	for _, stmt := range []*sql.Stmt{s.projectStmt, s.projectsStmt, s.entriesStmt, s.costsStmt} {
		if stmt != nil {
			stmt.Close()
		}
	}
	return s.db.Close()
}
