package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"callwire/internal/model"
)

type sqliteStore struct {
	baseStore
}

func NewSQLite(dsn string) (Store, error) {
	if strings.TrimSpace(dsn) == "" {
		dsn = "file:callwire.db?_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	return &sqliteStore{baseStore{db: db}}, nil
}

func (s *sqliteStore) Init(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	// Time columns need a TIMESTAMP decltype; the driver only converts
	// back to time.Time on scan for date-typed columns.
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS calls (
			call_id TEXT PRIMARY KEY,
			agent_id TEXT NOT NULL,
			agent_name TEXT NOT NULL,
			call_start_time TEXT NOT NULL,
			call_end_time TIMESTAMP,
			caller_timezone TEXT,
			is_dnc_listed INTEGER NOT NULL DEFAULT 0,
			has_prior_consent INTEGER NOT NULL DEFAULT 0,
			is_prerecorded INTEGER NOT NULL DEFAULT 0,
			call_type TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS alerts (
			id TEXT PRIMARY KEY,
			call_id TEXT NOT NULL,
			agent_id TEXT NOT NULL,
			agent_name TEXT NOT NULL,
			rule_id TEXT NOT NULL,
			title TEXT NOT NULL,
			severity TEXT NOT NULL,
			confidence INTEGER NOT NULL,
			quote TEXT NOT NULL,
			start_char INTEGER NOT NULL,
			end_char INTEGER NOT NULL,
			why_it_matters TEXT NOT NULL,
			agent_fix_suggestion TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_alerts_call_id ON alerts(call_id)`,
		`CREATE INDEX IF NOT EXISTS idx_alerts_agent_id ON alerts(agent_id)`,
		`CREATE INDEX IF NOT EXISTS idx_alerts_severity ON alerts(severity)`,
		`CREATE INDEX IF NOT EXISTS idx_alerts_rule_id ON alerts(rule_id)`,
		`CREATE INDEX IF NOT EXISTS idx_alerts_created_at ON alerts(created_at)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *sqliteStore) SaveCallStart(ctx context.Context, meta model.CallMetadata) error {
	if s.db == nil {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO calls (call_id, agent_id, agent_name, call_start_time, caller_timezone,
			is_dnc_listed, has_prior_consent, is_prerecorded, call_type, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		meta.CallID,
		meta.AgentID,
		meta.AgentName,
		meta.CallStartTime,
		meta.CallerTimezone,
		boolToInt(meta.IsDNCListed),
		boolToInt(meta.HasPriorConsent),
		boolToInt(meta.IsPrerecorded),
		meta.CallType,
		nowUTC(),
	)
	return err
}

func (s *sqliteStore) SaveCallEnd(ctx context.Context, callID string) error {
	if s.db == nil || callID == "" {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE calls SET call_end_time = ? WHERE call_id = ?`, nowUTC(), callID)
	return err
}

func (s *sqliteStore) SaveAlert(ctx context.Context, alert model.Alert, meta model.CallMetadata) error {
	if s.db == nil {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO alerts (id, call_id, agent_id, agent_name, rule_id, title, severity,
			confidence, quote, start_char, end_char, why_it_matters, agent_fix_suggestion, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		alert.ID,
		alert.CallID,
		meta.AgentID,
		meta.AgentName,
		alert.RuleID,
		alert.Title,
		string(alert.Severity),
		alert.Confidence,
		alert.Evidence.Quote,
		alert.Evidence.StartChar,
		alert.Evidence.EndChar,
		alert.WhyItMatters,
		alert.RecommendedFix,
		alert.CreatedAt.UTC(),
	)
	return err
}

func (s *sqliteStore) ListAlerts(ctx context.Context, filter AlertFilter) ([]StoredAlert, error) {
	if s.db == nil {
		return nil, nil
	}
	query := `SELECT id, call_id, agent_id, agent_name, rule_id, title, severity, confidence,
		quote, start_char, end_char, why_it_matters, agent_fix_suggestion, created_at
		FROM alerts WHERE 1=1`
	args := make([]any, 0, 4)
	if filter.CallID != "" {
		query += " AND call_id = ?"
		args = append(args, filter.CallID)
	}
	if filter.AgentID != "" {
		query += " AND agent_id = ?"
		args = append(args, filter.AgentID)
	}
	if filter.Severity != "" {
		query += " AND severity = ?"
		args = append(args, filter.Severity)
	}
	if filter.RuleID != "" {
		query += " AND rule_id = ?"
		args = append(args, filter.RuleID)
	}
	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAlerts(rows)
}

func scanAlerts(rows *sql.Rows) ([]StoredAlert, error) {
	out := make([]StoredAlert, 0)
	for rows.Next() {
		var a StoredAlert
		var severity string
		if err := rows.Scan(
			&a.ID,
			&a.CallID,
			&a.AgentID,
			&a.AgentName,
			&a.RuleID,
			&a.Title,
			&severity,
			&a.Confidence,
			&a.Evidence.Quote,
			&a.Evidence.StartChar,
			&a.Evidence.EndChar,
			&a.WhyItMatters,
			&a.RecommendedFix,
			&a.CreatedAt,
		); err != nil {
			return nil, err
		}
		a.Severity = model.Severity(severity)
		out = append(out, a)
	}
	return out, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
