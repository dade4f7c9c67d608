package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/dkotov/pitchlab/internal/domain"
	"github.com/dkotov/pitchlab/internal/learning"
	"github.com/dkotov/pitchlab/internal/shared"
	_ "modernc.org/sqlite"
)

const (
	writeRetryAttempts = 3
	writeRetryDelay    = 50 * time.Millisecond
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Open database with WAL mode for better concurrency.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS users (
		user_id TEXT PRIMARY KEY,
		username TEXT NOT NULL,
		last_seen_at INTEGER NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_users_last_seen ON users(last_seen_at);

	CREATE TABLE IF NOT EXISTS scenarios (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT NOT NULL,
		scenario_type TEXT NOT NULL,
		prospect_persona TEXT NOT NULL,
		difficulty_level INTEGER NOT NULL,
		duration TEXT NOT NULL,
		objectives_json TEXT NOT NULL,
		tags_json TEXT NOT NULL,
		completion_count INTEGER NOT NULL DEFAULT 0,
		is_active INTEGER NOT NULL DEFAULT 1,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_scenarios_type ON scenarios(scenario_type);

	CREATE TABLE IF NOT EXISTS session_reports (
		session_id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		scenario_type TEXT NOT NULL,
		started_at INTEGER NOT NULL,
		ended_at INTEGER NOT NULL,
		turn_count INTEGER NOT NULL,
		average_performance REAL NOT NULL,
		report_json TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_reports_user ON session_reports(user_id, ended_at);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// execWrite runs a write statement, retrying briefly on SQLite concurrency
// conflicts that outlast the busy timeout.
func (s *SQLiteStore) execWrite(ctx context.Context, query string, args ...any) (sql.Result, error) {
	var res sql.Result
	var err error
	for attempt := 0; attempt < writeRetryAttempts; attempt++ {
		res, err = s.db.ExecContext(ctx, query, args...)
		if err == nil || !shared.IsSQLiteConflictError(err) {
			return res, err
		}
		slog.Debug("SQLite write conflict, retrying", "attempt", attempt+1)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(writeRetryDelay):
		}
	}
	return res, err
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// GetUser retrieves a user by their user ID.
func (s *SQLiteStore) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	query := `
		SELECT user_id, username, last_seen_at, created_at, updated_at
		FROM users WHERE user_id = ?`

	row := s.db.QueryRowContext(ctx, query, userID)

	var user domain.User
	var lastSeen, createdAt, updatedAt int64

	err := row.Scan(&user.UserID, &user.Username, &lastSeen, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan user row: %w", err)
	}

	user.LastSeenAt = time.Unix(lastSeen, 0)
	user.CreatedAt = time.Unix(createdAt, 0)
	user.UpdatedAt = time.Unix(updatedAt, 0)

	return &user, nil
}

// UpsertUser creates or updates a user record.
func (s *SQLiteStore) UpsertUser(ctx context.Context, user *domain.User) error {
	query := `
	INSERT INTO users (user_id, username, last_seen_at, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(user_id) DO UPDATE SET
		username = excluded.username,
		last_seen_at = excluded.last_seen_at,
		updated_at = excluded.updated_at`

	_, err := s.execWrite(ctx, query,
		user.UserID, user.Username,
		user.LastSeenAt.Unix(), user.CreatedAt.Unix(), user.UpdatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

// UpdateLastSeen updates the last_seen_at timestamp for a user.
func (s *SQLiteStore) UpdateLastSeen(ctx context.Context, userID string, lastSeen time.Time) error {
	query := `UPDATE users SET last_seen_at = ?, updated_at = ? WHERE user_id = ?`
	result, err := s.execWrite(ctx, query, lastSeen.Unix(), time.Now().Unix(), userID)
	if err != nil {
		return fmt.Errorf("update last_seen: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		slog.Warn("UpdateLastSeen affected 0 rows", "user_id", userID)
	}

	return nil
}

// ListScenarios returns the scenario catalog ordered by difficulty then title.
func (s *SQLiteStore) ListScenarios(ctx context.Context, activeOnly bool) ([]*domain.Scenario, error) {
	query := `
		SELECT id, title, description, scenario_type, prospect_persona,
		       difficulty_level, duration, objectives_json, tags_json,
		       completion_count, is_active, created_at, updated_at
		FROM scenarios`
	if activeOnly {
		query += ` WHERE is_active = 1`
	}
	query += ` ORDER BY difficulty_level, title`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query scenarios: %w", err)
	}
	defer rows.Close()

	var scenarios []*domain.Scenario
	for rows.Next() {
		scenario, err := scanScenario(rows)
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, scenario)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scenarios: %w", err)
	}
	return scenarios, nil
}

// GetScenario retrieves one scenario by id.
func (s *SQLiteStore) GetScenario(ctx context.Context, id string) (*domain.Scenario, error) {
	query := `
		SELECT id, title, description, scenario_type, prospect_persona,
		       difficulty_level, duration, objectives_json, tags_json,
		       completion_count, is_active, created_at, updated_at
		FROM scenarios WHERE id = ?`

	scenario, err := scanScenario(s.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return scenario, nil
}

// UpsertScenario creates or updates a catalog entry.
func (s *SQLiteStore) UpsertScenario(ctx context.Context, scenario *domain.Scenario) error {
	objectives, err := json.Marshal(scenario.Objectives)
	if err != nil {
		return fmt.Errorf("marshal objectives: %w", err)
	}
	tags, err := json.Marshal(scenario.Tags)
	if err != nil {
		return fmt.Errorf("marshal tags: %w", err)
	}

	query := `
	INSERT INTO scenarios (id, title, description, scenario_type, prospect_persona,
		difficulty_level, duration, objectives_json, tags_json,
		completion_count, is_active, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		title = excluded.title,
		description = excluded.description,
		scenario_type = excluded.scenario_type,
		prospect_persona = excluded.prospect_persona,
		difficulty_level = excluded.difficulty_level,
		duration = excluded.duration,
		objectives_json = excluded.objectives_json,
		tags_json = excluded.tags_json,
		is_active = excluded.is_active,
		updated_at = excluded.updated_at`

	active := 0
	if scenario.Active {
		active = 1
	}

	_, err = s.execWrite(ctx, query,
		scenario.ID, scenario.Title, scenario.Description,
		scenario.ScenarioType, scenario.ProspectPersona,
		scenario.DifficultyLevel, scenario.DurationHint,
		string(objectives), string(tags),
		scenario.CompletionCount, active,
		scenario.CreatedAt.Unix(), scenario.UpdatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("upsert scenario: %w", err)
	}
	return nil
}

// IncrementScenarioCompletion bumps the completion counter for every catalog
// entry of the given scenario type.
func (s *SQLiteStore) IncrementScenarioCompletion(ctx context.Context, scenarioType string) error {
	query := `UPDATE scenarios SET completion_count = completion_count + 1, updated_at = ? WHERE scenario_type = ?`
	_, err := s.execWrite(ctx, query, time.Now().Unix(), scenarioType)
	if err != nil {
		return fmt.Errorf("increment scenario completion: %w", err)
	}
	return nil
}

// SaveSessionReport archives an ended session's final report.
func (s *SQLiteStore) SaveSessionReport(ctx context.Context, report *learning.FinalReport) error {
	body, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal session report: %w", err)
	}

	query := `
	INSERT INTO session_reports (session_id, user_id, scenario_type, started_at,
		ended_at, turn_count, average_performance, report_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(session_id) DO NOTHING`

	_, err = s.execWrite(ctx, query,
		report.SessionID, report.UserID, report.ScenarioType,
		report.StartTime.Unix(), report.EndTime.Unix(),
		report.TurnCount, report.AveragePerformance, string(body),
	)
	if err != nil {
		return fmt.Errorf("save session report: %w", err)
	}
	return nil
}

// ListSessionReports returns a user's archived reports, newest first.
func (s *SQLiteStore) ListSessionReports(ctx context.Context, userID string, limit int) ([]*learning.FinalReport, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `
		SELECT report_json FROM session_reports
		WHERE user_id = ? ORDER BY ended_at DESC LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query session reports: %w", err)
	}
	defer rows.Close()

	var reports []*learning.FinalReport
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("scan report row: %w", err)
		}
		var report learning.FinalReport
		if err := json.Unmarshal([]byte(body), &report); err != nil {
			return nil, fmt.Errorf("unmarshal report: %w", err)
		}
		reports = append(reports, &report)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reports: %w", err)
	}
	return reports, nil
}

// scanner abstracts sql.Row and sql.Rows for shared scan logic.
type scanner interface {
	Scan(dest ...any) error
}

func scanScenario(row scanner) (*domain.Scenario, error) {
	var scenario domain.Scenario
	var objectives, tags string
	var active int
	var createdAt, updatedAt int64

	err := row.Scan(
		&scenario.ID, &scenario.Title, &scenario.Description,
		&scenario.ScenarioType, &scenario.ProspectPersona,
		&scenario.DifficultyLevel, &scenario.DurationHint,
		&objectives, &tags,
		&scenario.CompletionCount, &active, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(objectives), &scenario.Objectives); err != nil {
		return nil, fmt.Errorf("unmarshal objectives: %w", err)
	}
	if err := json.Unmarshal([]byte(tags), &scenario.Tags); err != nil {
		return nil, fmt.Errorf("unmarshal tags: %w", err)
	}
	scenario.Active = active == 1
	scenario.CreatedAt = time.Unix(createdAt, 0)
	scenario.UpdatedAt = time.Unix(updatedAt, 0)

	return &scenario, nil
}
