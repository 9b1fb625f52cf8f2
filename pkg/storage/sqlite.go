package storage

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"trackwell-hq/meridian/pkg/alerts"
	"trackwell-hq/meridian/pkg/money"
	"trackwell-hq/meridian/pkg/schedule"
)

// SQLiteStore implements alerts.Store and schedule.Store backed by a
// single SQLite database file.
//
// SQLiteStore uses a write-ahead log (WAL) for better concurrent
// performance and automatic checkpointing to balance write performance
// with durability.
type SQLiteStore struct {
	db                 *sql.DB
	dbPath             string
	checkpointInterval time.Duration
	done               chan struct{}
	closeOnce          sync.Once

	// now is the clock used for lease expiry, overridable in tests.
	now func() time.Time
}

// SQLiteStoreConfig configures the SQLite store.
type SQLiteStoreConfig struct {
	// DBPath is the path to the SQLite database file.
	DBPath string

	// CheckpointInterval is how often to checkpoint the WAL.
	// Default: 5 minutes
	CheckpointInterval time.Duration

	// BusyTimeout is how long to wait for locks before failing.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// NewSQLiteStore creates a SQLite store with default settings.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	return NewSQLiteStoreWithConfig(SQLiteStoreConfig{DBPath: dbPath})
}

// NewSQLiteStoreWithConfig creates a SQLite store with custom
// configuration.
func NewSQLiteStoreWithConfig(cfg SQLiteStoreConfig) (*SQLiteStore, error) {
	if cfg.DBPath == "" {
		return nil, fmt.Errorf("db path cannot be empty")
	}
	if cfg.CheckpointInterval == 0 {
		cfg.CheckpointInterval = 5 * time.Minute
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=%d&_synchronous=NORMAL",
		cfg.DBPath, int(cfg.BusyTimeout.Milliseconds()))

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports a single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	store := &SQLiteStore{
		db:                 db,
		dbPath:             cfg.DBPath,
		checkpointInterval: cfg.CheckpointInterval,
		done:               make(chan struct{}),
		now:                time.Now,
	}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	go store.checkpointLoop()

	return store, nil
}

// initSchema creates the database schema if it doesn't exist.
func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS alerts (
		id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL,
		alert_type TEXT NOT NULL,
		consumed_percent REAL NOT NULL,
		budget_amount TEXT NOT NULL,
		consumed_amount TEXT NOT NULL,
		message TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		acknowledged INTEGER NOT NULL DEFAULT 0,
		acknowledged_by TEXT,
		acknowledged_at INTEGER
	);

	CREATE INDEX IF NOT EXISTS idx_alerts_dedup
		ON alerts(project_id, alert_type, acknowledged, created_at);

	CREATE TABLE IF NOT EXISTS schedules (
		id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		cadence TEXT NOT NULL,
		cron_expr TEXT NOT NULL DEFAULT '',
		timezone TEXT NOT NULL DEFAULT '',
		next_run_at INTEGER NOT NULL,
		last_run_at INTEGER,
		active INTEGER NOT NULL DEFAULT 1,
		end_date INTEGER,
		recipient TEXT NOT NULL DEFAULT '',
		subject TEXT NOT NULL DEFAULT '',
		lease_until INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_schedules_due
		ON schedules(active, next_run_at);

	CREATE TABLE IF NOT EXISTS artifacts (
		id TEXT PRIMARY KEY,
		schedule_id TEXT NOT NULL,
		period_key TEXT NOT NULL,
		kind TEXT NOT NULL,
		content TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		UNIQUE (schedule_id, period_key)
	);

	CREATE TABLE IF NOT EXISTS failed_deliveries (
		id TEXT PRIMARY KEY,
		schedule_id TEXT NOT NULL,
		period_key TEXT NOT NULL,
		recipient TEXT NOT NULL DEFAULT '',
		attempts INTEGER NOT NULL,
		last_error TEXT NOT NULL,
		failed_at INTEGER NOT NULL,
		UNIQUE (schedule_id, period_key)
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close releases the database. Close is idempotent.
func (s *SQLiteStore) Close() error {
	var closeErr error

	s.closeOnce.Do(func() {
		close(s.done)
		if s.db != nil {
			_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
			closeErr = s.db.Close()
		}
	})

	return closeErr
}

// checkpointLoop runs periodic WAL checkpoints.
func (s *SQLiteStore) checkpointLoop() {
	ticker := time.NewTicker(s.checkpointInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_, _ = s.db.Exec("PRAGMA wal_checkpoint(PASSIVE)")
		case <-s.done:
			return
		}
	}
}

// ============================================================================
// alerts.Store
// ============================================================================

// Insert appends a new alert. The dedup check runs inside the insert
// transaction so concurrent checks cannot both succeed.
func (s *SQLiteStore) Insert(ctx context.Context, alert *alerts.Alert) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	since := alert.CreatedAt.Add(-alerts.DedupWindow).Unix()
	var existing int
	err = tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM alerts
		WHERE project_id = ? AND alert_type = ? AND acknowledged = 0 AND created_at >= ?
	`, alert.ProjectID, string(alert.Type), since).Scan(&existing)
	if err != nil {
		return fmt.Errorf("failed to check for duplicate alert: %w", err)
	}
	if existing > 0 {
		return alerts.ErrDuplicateAlert
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO alerts (id, project_id, alert_type, consumed_percent,
			budget_amount, consumed_amount, message, created_at, acknowledged)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0)
	`,
		alert.ID,
		alert.ProjectID,
		string(alert.Type),
		alert.ConsumedPercent,
		alert.BudgetAmount.String(),
		alert.ConsumedAmount.String(),
		alert.Message,
		alert.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert alert: %w", err)
	}

	return tx.Commit()
}

// Acknowledge marks an alert acknowledged. The conditional update keeps
// the transition one-way.
func (s *SQLiteStore) Acknowledge(ctx context.Context, alertID, by string, at time.Time) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE alerts SET acknowledged = 1, acknowledged_by = ?, acknowledged_at = ?
		WHERE id = ? AND acknowledged = 0
	`, by, at.Unix(), alertID)
	if err != nil {
		return fmt.Errorf("failed to acknowledge alert: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		var acked int
		err := s.db.QueryRowContext(ctx,
			`SELECT acknowledged FROM alerts WHERE id = ?`, alertID).Scan(&acked)
		if err == sql.ErrNoRows {
			return alerts.ErrAlertNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to look up alert: %w", err)
		}
		return alerts.ErrAlreadyAcknowledged
	}

	return nil
}

// Unacknowledged returns the most recent unacknowledged alert of the
// given type created at or after since, or nil.
func (s *SQLiteStore) Unacknowledged(ctx context.Context, projectID string, typ alerts.Type, since time.Time) (*alerts.Alert, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, project_id, alert_type, consumed_percent, budget_amount,
			consumed_amount, message, created_at, acknowledged, acknowledged_by, acknowledged_at
		FROM alerts
		WHERE project_id = ? AND alert_type = ? AND acknowledged = 0 AND created_at >= ?
		ORDER BY created_at DESC
		LIMIT 1
	`, projectID, string(typ), since.Unix())

	alert, err := scanAlert(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query unacknowledged alert: %w", err)
	}
	return alert, nil
}

// ListByProject returns all alerts for a project, newest first.
func (s *SQLiteStore) ListByProject(ctx context.Context, projectID string) ([]*alerts.Alert, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, project_id, alert_type, consumed_percent, budget_amount,
			consumed_amount, message, created_at, acknowledged, acknowledged_by, acknowledged_at
		FROM alerts
		WHERE project_id = ?
		ORDER BY created_at DESC
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}
	defer rows.Close()

	return collectAlerts(rows)
}

// ListUnacknowledged returns all unacknowledged alerts, newest first.
func (s *SQLiteStore) ListUnacknowledged(ctx context.Context) ([]*alerts.Alert, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, project_id, alert_type, consumed_percent, budget_amount,
			consumed_amount, message, created_at, acknowledged, acknowledged_by, acknowledged_at
		FROM alerts
		WHERE acknowledged = 0
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list unacknowledged alerts: %w", err)
	}
	defer rows.Close()

	return collectAlerts(rows)
}

// Counts returns the total and unacknowledged alert counts.
func (s *SQLiteStore) Counts(ctx context.Context) (int, int, error) {
	var total, unacked int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(CASE WHEN acknowledged = 0 THEN 1 ELSE 0 END), 0)
		FROM alerts
	`).Scan(&total, &unacked)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count alerts: %w", err)
	}
	return total, unacked, nil
}

// DeleteByProject removes all alerts, schedules, and artifacts owned by
// a project in one transaction.
func (s *SQLiteStore) DeleteByProject(ctx context.Context, projectID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM alerts WHERE project_id = ?`, projectID); err != nil {
		return fmt.Errorf("failed to delete alerts: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM artifacts WHERE schedule_id IN
			(SELECT id FROM schedules WHERE project_id = ?)
	`, projectID); err != nil {
		return fmt.Errorf("failed to delete artifacts: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM failed_deliveries WHERE schedule_id IN
			(SELECT id FROM schedules WHERE project_id = ?)
	`, projectID); err != nil {
		return fmt.Errorf("failed to delete failed deliveries: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM schedules WHERE project_id = ?`, projectID); err != nil {
		return fmt.Errorf("failed to delete schedules: %w", err)
	}

	return tx.Commit()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAlert(row rowScanner) (*alerts.Alert, error) {
	var (
		alert          alerts.Alert
		typ            string
		budgetAmount   string
		consumedAmount string
		createdAt      int64
		acknowledged   int
		ackBy          sql.NullString
		ackAt          sql.NullInt64
	)

	err := row.Scan(&alert.ID, &alert.ProjectID, &typ, &alert.ConsumedPercent,
		&budgetAmount, &consumedAmount, &alert.Message, &createdAt,
		&acknowledged, &ackBy, &ackAt)
	if err != nil {
		return nil, err
	}

	alert.Type = alerts.Type(typ)
	alert.CreatedAt = time.Unix(createdAt, 0).UTC()
	alert.Acknowledged = acknowledged != 0
	if ackBy.Valid {
		alert.AcknowledgedBy = ackBy.String
	}
	if ackAt.Valid {
		t := time.Unix(ackAt.Int64, 0).UTC()
		alert.AcknowledgedAt = &t
	}

	if alert.BudgetAmount, err = money.Parse(budgetAmount); err != nil {
		return nil, fmt.Errorf("invalid budget amount %q: %w", budgetAmount, err)
	}
	if alert.ConsumedAmount, err = money.Parse(consumedAmount); err != nil {
		return nil, fmt.Errorf("invalid consumed amount %q: %w", consumedAmount, err)
	}

	return &alert, nil
}

func collectAlerts(rows *sql.Rows) ([]*alerts.Alert, error) {
	var out []*alerts.Alert
	for rows.Next() {
		alert, err := scanAlert(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		out = append(out, alert)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return out, nil
}

// ============================================================================
// schedule.Store
// ============================================================================

// PutSchedule creates or replaces a schedule definition.
func (s *SQLiteStore) PutSchedule(ctx context.Context, sched *schedule.Schedule) error {
	var lastRun, endDate any
	if sched.LastRunAt != nil {
		lastRun = sched.LastRunAt.Unix()
	}
	if sched.EndDate != nil {
		endDate = sched.EndDate.Unix()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO schedules (id, project_id, kind, cadence, cron_expr, timezone,
			next_run_at, last_run_at, active, end_date, recipient, subject, lease_until)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0)
		ON CONFLICT (id) DO UPDATE SET
			project_id = excluded.project_id,
			kind = excluded.kind,
			cadence = excluded.cadence,
			cron_expr = excluded.cron_expr,
			timezone = excluded.timezone,
			next_run_at = excluded.next_run_at,
			last_run_at = excluded.last_run_at,
			active = excluded.active,
			end_date = excluded.end_date,
			recipient = excluded.recipient,
			subject = excluded.subject
	`,
		sched.ID, sched.ProjectID, string(sched.Kind), string(sched.Cadence),
		sched.CronExpr, sched.Timezone, sched.NextRunAt.Unix(), lastRun,
		boolToInt(sched.Active), endDate, sched.Recipient, sched.Subject,
	)
	if err != nil {
		return fmt.Errorf("failed to save schedule: %w", err)
	}
	return nil
}

// GetSchedule returns a schedule by ID.
func (s *SQLiteStore) GetSchedule(ctx context.Context, id string) (*schedule.Schedule, error) {
	row := s.db.QueryRowContext(ctx, scheduleColumns+` WHERE id = ?`, id)

	sched, err := scanSchedule(row)
	if err == sql.ErrNoRows {
		return nil, schedule.ErrScheduleNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load schedule: %w", err)
	}
	return sched, nil
}

// ListSchedules returns all schedules.
func (s *SQLiteStore) ListSchedules(ctx context.Context) ([]*schedule.Schedule, error) {
	rows, err := s.db.QueryContext(ctx, scheduleColumns+` ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list schedules: %w", err)
	}
	defer rows.Close()

	return collectSchedules(rows)
}

// Due returns active schedules with NextRunAt <= now and no unexpired
// claim lease.
func (s *SQLiteStore) Due(ctx context.Context, now time.Time) ([]*schedule.Schedule, error) {
	rows, err := s.db.QueryContext(ctx,
		scheduleColumns+` WHERE active = 1 AND next_run_at <= ? AND lease_until <= ? ORDER BY next_run_at`,
		now.Unix(), now.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to query due schedules: %w", err)
	}
	defer rows.Close()

	return collectSchedules(rows)
}

// Claim leases a due schedule for execution. The conditional update is
// the compare-and-swap: it succeeds only while NextRunAt still matches
// what the caller observed and no unexpired lease exists.
func (s *SQLiteStore) Claim(ctx context.Context, id string, observedNextRun, leaseUntil time.Time) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE schedules SET lease_until = ?
		WHERE id = ? AND active = 1 AND next_run_at = ? AND lease_until <= ?
	`, leaseUntil.Unix(), id, observedNextRun.Unix(), s.now().Unix())
	if err != nil {
		return false, fmt.Errorf("failed to claim schedule: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 1 {
		return true, nil
	}

	var exists int
	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM schedules WHERE id = ?`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to look up schedule: %w", err)
	}
	if exists == 0 {
		return false, schedule.ErrScheduleNotFound
	}
	return false, nil
}

// Complete advances the schedule and inserts the occurrence artifact in
// one transaction. A pre-existing artifact still advances the schedule;
// the insert is skipped and ErrDuplicateArtifact returned.
func (s *SQLiteStore) Complete(ctx context.Context, id string, lastRun, nextRun time.Time, artifact *schedule.Artifact) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE schedules SET last_run_at = ?, next_run_at = ?, lease_until = 0
		WHERE id = ?
	`, lastRun.Unix(), nextRun.Unix(), id)
	if err != nil {
		return fmt.Errorf("failed to advance schedule: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return schedule.ErrScheduleNotFound
	}

	var existing int
	err = tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM artifacts WHERE schedule_id = ? AND period_key = ?
	`, artifact.ScheduleID, artifact.PeriodKey).Scan(&existing)
	if err != nil {
		return fmt.Errorf("failed to check for duplicate artifact: %w", err)
	}
	if existing > 0 {
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit: %w", err)
		}
		return schedule.ErrDuplicateArtifact
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO artifacts (id, schedule_id, period_key, kind, content, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, artifact.ID, artifact.ScheduleID, artifact.PeriodKey,
		string(artifact.Kind), artifact.Content, artifact.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to insert artifact: %w", err)
	}

	return tx.Commit()
}

// Deactivate sets Active to false.
func (s *SQLiteStore) Deactivate(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE schedules SET active = 0 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate schedule: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return schedule.ErrScheduleNotFound
	}
	return nil
}

// Artifact returns the artifact for an occurrence, or nil.
func (s *SQLiteStore) Artifact(ctx context.Context, scheduleID, periodKey string) (*schedule.Artifact, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, schedule_id, period_key, kind, content, created_at
		FROM artifacts WHERE schedule_id = ? AND period_key = ?
	`, scheduleID, periodKey)

	artifact, err := scanArtifact(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load artifact: %w", err)
	}
	return artifact, nil
}

// ListArtifacts returns all artifacts of a schedule, newest first.
func (s *SQLiteStore) ListArtifacts(ctx context.Context, scheduleID string) ([]*schedule.Artifact, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, schedule_id, period_key, kind, content, created_at
		FROM artifacts WHERE schedule_id = ?
		ORDER BY created_at DESC
	`, scheduleID)
	if err != nil {
		return nil, fmt.Errorf("failed to list artifacts: %w", err)
	}
	defer rows.Close()

	var out []*schedule.Artifact
	for rows.Next() {
		artifact, err := scanArtifact(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan artifact: %w", err)
		}
		out = append(out, artifact)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return out, nil
}

// PutFailedDelivery records an exhausted delivery, replacing any record
// for the same occurrence.
func (s *SQLiteStore) PutFailedDelivery(ctx context.Context, fd *schedule.FailedDelivery) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO failed_deliveries
			(id, schedule_id, period_key, recipient, attempts, last_error, failed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (schedule_id, period_key) DO UPDATE SET
			recipient = excluded.recipient,
			attempts = excluded.attempts,
			last_error = excluded.last_error,
			failed_at = excluded.failed_at
	`, fd.ID, fd.ScheduleID, fd.PeriodKey, fd.Recipient,
		fd.Attempts, fd.LastError, fd.FailedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to record failed delivery: %w", err)
	}
	return nil
}

// ListFailedDeliveries returns all recorded failures, oldest first.
func (s *SQLiteStore) ListFailedDeliveries(ctx context.Context) ([]*schedule.FailedDelivery, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, schedule_id, period_key, recipient, attempts, last_error, failed_at
		FROM failed_deliveries
		ORDER BY failed_at ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list failed deliveries: %w", err)
	}
	defer rows.Close()

	var out []*schedule.FailedDelivery
	for rows.Next() {
		fd, err := scanFailedDelivery(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan failed delivery: %w", err)
		}
		out = append(out, fd)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return out, nil
}

// DeleteFailedDelivery removes a record by ID. Unknown IDs are a no-op.
func (s *SQLiteStore) DeleteFailedDelivery(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM failed_deliveries WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete failed delivery: %w", err)
	}
	return nil
}

const scheduleColumns = `
	SELECT id, project_id, kind, cadence, cron_expr, timezone,
		next_run_at, last_run_at, active, end_date, recipient, subject
	FROM schedules`

func scanSchedule(row rowScanner) (*schedule.Schedule, error) {
	var (
		sched     schedule.Schedule
		kind      string
		cadence   string
		nextRunAt int64
		lastRunAt sql.NullInt64
		active    int
		endDate   sql.NullInt64
	)

	err := row.Scan(&sched.ID, &sched.ProjectID, &kind, &cadence,
		&sched.CronExpr, &sched.Timezone, &nextRunAt, &lastRunAt,
		&active, &endDate, &sched.Recipient, &sched.Subject)
	if err != nil {
		return nil, err
	}

	sched.Kind = schedule.Kind(kind)
	sched.Cadence = schedule.Cadence(cadence)
	sched.NextRunAt = time.Unix(nextRunAt, 0).UTC()
	sched.Active = active != 0
	if lastRunAt.Valid {
		t := time.Unix(lastRunAt.Int64, 0).UTC()
		sched.LastRunAt = &t
	}
	if endDate.Valid {
		t := time.Unix(endDate.Int64, 0).UTC()
		sched.EndDate = &t
	}

	return &sched, nil
}

func collectSchedules(rows *sql.Rows) ([]*schedule.Schedule, error) {
	var out []*schedule.Schedule
	for rows.Next() {
		sched, err := scanSchedule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan schedule: %w", err)
		}
		out = append(out, sched)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return out, nil
}

func scanFailedDelivery(row rowScanner) (*schedule.FailedDelivery, error) {
	var (
		fd       schedule.FailedDelivery
		failedAt int64
	)

	err := row.Scan(&fd.ID, &fd.ScheduleID, &fd.PeriodKey, &fd.Recipient,
		&fd.Attempts, &fd.LastError, &failedAt)
	if err != nil {
		return nil, err
	}

	fd.FailedAt = time.Unix(failedAt, 0).UTC()
	return &fd, nil
}

func scanArtifact(row rowScanner) (*schedule.Artifact, error) {
	var (
		artifact  schedule.Artifact
		kind      string
		createdAt int64
	)

	err := row.Scan(&artifact.ID, &artifact.ScheduleID, &artifact.PeriodKey,
		&kind, &artifact.Content, &createdAt)
	if err != nil {
		return nil, err
	}

	artifact.Kind = schedule.Kind(kind)
	artifact.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &artifact, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
