// Package store handles SQLite persistence.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/pacstudy/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Store wraps SQLite access for study sessions.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	st := &Store{db: db}
	if err := st.migrate(); err != nil {
		// Best-effort close on migration failure.
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate db: %w", err)
	}
	return st, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id INTEGER PRIMARY KEY,
			uuid TEXT NOT NULL UNIQUE,
			kind TEXT NOT NULL,
			started_at TEXT NOT NULL,
			ended_at TEXT NOT NULL,
			time_limit_ms INTEGER NOT NULL,
			countdown_ms INTEGER NOT NULL,
			freeze_first INTEGER NOT NULL,
			advice_frequency INTEGER NOT NULL,
			total_reward REAL NOT NULL,
			step_count INTEGER NOT NULL,
			elapsed_ms INTEGER NOT NULL,
			episodes INTEGER NOT NULL,
			human_advice INTEGER NOT NULL,
			agent_actions INTEGER NOT NULL,
			advice_requests INTEGER NOT NULL,
			advice_timeouts INTEGER NOT NULL,
			mode_switched_ms INTEGER,
			end_reason TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS session_actions (
			session_id INTEGER NOT NULL,
			action INTEGER NOT NULL,
			count INTEGER NOT NULL,
			PRIMARY KEY (session_id, action)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_ended_at ON sessions(ended_at);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_kind ON sessions(kind);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// InsertSession stores a completed session and its action distribution.
// An empty UUID is filled in; the stored UUID is written back to rec.
func (s *Store) InsertSession(ctx context.Context, rec *model.SessionRecord) (id int64, err error) {
	if rec.UUID == "" {
		rec.UUID = uuid.NewString()
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			// Best-effort rollback.
			_ = tx.Rollback()
		}
	}()

	st := rec.Stats
	var switched any
	if st.ModeSwitchedAt != nil {
		switched = st.ModeSwitchedAt.Milliseconds()
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO sessions (uuid, kind, started_at, ended_at, time_limit_ms, countdown_ms, freeze_first,
			advice_frequency, total_reward, step_count, elapsed_ms, episodes, human_advice, agent_actions,
			advice_requests, advice_timeouts, mode_switched_ms, end_reason)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.UUID,
		string(rec.Kind),
		rec.StartedAt.Format(time.RFC3339Nano),
		rec.EndedAt.Format(time.RFC3339Nano),
		rec.TimeLimit.Milliseconds(),
		rec.Countdown.Milliseconds(),
		rec.FreezeModeFirst,
		rec.AdviceFrequency,
		st.TotalReward,
		st.StepCount,
		st.Elapsed.Milliseconds(),
		st.Episodes,
		st.HumanAdviceCount,
		st.AgentActionCount,
		st.AdviceRequests,
		st.AdviceTimeouts,
		switched,
		string(st.EndReason),
	)
	if err != nil {
		return 0, err
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, err
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO session_actions (session_id, action, count) VALUES (?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer func() {
		// Best-effort statement close.
		_ = stmt.Close()
	}()
	for action, n := range st.ActionDistribution {
		if _, err = stmt.ExecContext(ctx, id, action, n); err != nil {
			return 0, err
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// ListSessions returns session aggregates filtered by stats config, oldest first.
func (s *Store) ListSessions(ctx context.Context, cfg model.StatsConfig) ([]model.SessionAggregate, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if cfg.Kind != "" {
		clauses = append(clauses, "kind = ?")
		args = append(args, string(cfg.Kind))
	}
	if cfg.Since != nil {
		clauses = append(clauses, "ended_at >= ?")
		args = append(args, cfg.Since.Format(time.RFC3339Nano))
	}
	query := fmt.Sprintf(`SELECT id, uuid, kind, ended_at, total_reward, step_count, elapsed_ms,
			human_advice, advice_requests, end_reason
		FROM sessions
		WHERE %s
		ORDER BY ended_at ASC, id ASC`, strings.Join(clauses, " AND "))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		// Best-effort rows close.
		_ = rows.Close()
	}()

	var sessions []model.SessionAggregate
	for rows.Next() {
		var agg model.SessionAggregate
		var kind, endedAt, reason string
		if err := rows.Scan(&agg.SessionID, &agg.UUID, &kind, &endedAt, &agg.TotalReward, &agg.StepCount,
			&agg.ElapsedMs, &agg.HumanAdviceCount, &agg.AdviceRequests, &reason); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(time.RFC3339Nano, endedAt)
		if err != nil {
			return nil, err
		}
		agg.Kind = model.SessionKind(kind)
		agg.EndedAt = parsed
		agg.EndReason = model.EndReason(reason)
		sessions = append(sessions, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}

// ListActionAggregates sums action counts per session kind across sessions.
func (s *Store) ListActionAggregates(ctx context.Context, sessionIDs []int64) ([]model.ActionAggregate, error) {
	if len(sessionIDs) == 0 {
		return nil, nil
	}
	placeholders, args := idArgs(sessionIDs)
	query := fmt.Sprintf(`SELECT s.kind, a.action, SUM(a.count)
		FROM session_actions a
		JOIN sessions s ON s.id = a.session_id
		WHERE a.session_id IN (%s)
		GROUP BY s.kind, a.action
		ORDER BY s.kind, a.action`, placeholders)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		// Best-effort rows close.
		_ = rows.Close()
	}()

	var result []model.ActionAggregate
	for rows.Next() {
		var agg model.ActionAggregate
		var kind string
		if err := rows.Scan(&kind, &agg.Action, &agg.Count); err != nil {
			return nil, err
		}
		agg.Kind = model.SessionKind(kind)
		result = append(result, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// SessionActions returns the per-action counts of each session, indexed by
// action id.
func (s *Store) SessionActions(ctx context.Context, sessionIDs []int64) (map[int64][]int, error) {
	result := map[int64][]int{}
	if len(sessionIDs) == 0 {
		return result, nil
	}
	placeholders, args := idArgs(sessionIDs)
	query := fmt.Sprintf(`SELECT session_id, action, count FROM session_actions WHERE session_id IN (%s)`, placeholders)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		// Best-effort rows close.
		_ = rows.Close()
	}()

	for rows.Next() {
		var id int64
		var action, count int
		if err := rows.Scan(&id, &action, &count); err != nil {
			return nil, err
		}
		if action < 0 || action >= model.NumActions {
			continue
		}
		if _, ok := result[id]; !ok {
			result[id] = make([]int, model.NumActions)
		}
		result[id][action] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func idArgs(ids []int64) (string, []any) {
	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}
	return strings.Join(placeholders, ","), args
}
