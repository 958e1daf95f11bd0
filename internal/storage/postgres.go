package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"

	"callwire/internal/model"
)

type postgresStore struct {
	baseStore
}

func NewPostgres(dsn string) (Store, error) {
	if strings.TrimSpace(dsn) == "" {
		dsn = "postgres://localhost:5432/callwire?sslmode=disable"
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	return &postgresStore{baseStore{db: db}}, nil
}

func (s *postgresStore) Init(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS calls (
			call_id TEXT PRIMARY KEY,
			agent_id TEXT NOT NULL,
			agent_name TEXT NOT NULL,
			call_start_time TEXT NOT NULL,
			call_end_time TIMESTAMPTZ,
			caller_timezone TEXT,
			is_dnc_listed BOOLEAN NOT NULL DEFAULT FALSE,
			has_prior_consent BOOLEAN NOT NULL DEFAULT FALSE,
			is_prerecorded BOOLEAN NOT NULL DEFAULT FALSE,
			call_type TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
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
			created_at TIMESTAMPTZ NOT NULL
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

func (s *postgresStore) SaveCallStart(ctx context.Context, meta model.CallMetadata) error {
	if s.db == nil {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO calls (call_id, agent_id, agent_name, call_start_time, caller_timezone,
			is_dnc_listed, has_prior_consent, is_prerecorded, call_type, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (call_id) DO UPDATE SET
			agent_id = EXCLUDED.agent_id,
			agent_name = EXCLUDED.agent_name,
			call_start_time = EXCLUDED.call_start_time,
			call_end_time = NULL,
			caller_timezone = EXCLUDED.caller_timezone,
			is_dnc_listed = EXCLUDED.is_dnc_listed,
			has_prior_consent = EXCLUDED.has_prior_consent,
			is_prerecorded = EXCLUDED.is_prerecorded,
			call_type = EXCLUDED.call_type`,
		meta.CallID,
		meta.AgentID,
		meta.AgentName,
		meta.CallStartTime,
		meta.CallerTimezone,
		meta.IsDNCListed,
		meta.HasPriorConsent,
		meta.IsPrerecorded,
		meta.CallType,
		nowUTC(),
	)
	return err
}

func (s *postgresStore) SaveCallEnd(ctx context.Context, callID string) error {
	if s.db == nil || callID == "" {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE calls SET call_end_time = $1 WHERE call_id = $2`, nowUTC(), callID)
	return err
}

func (s *postgresStore) SaveAlert(ctx context.Context, alert model.Alert, meta model.CallMetadata) error {
	if s.db == nil {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO alerts (id, call_id, agent_id, agent_name, rule_id, title, severity,
			confidence, quote, start_char, end_char, why_it_matters, agent_fix_suggestion, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
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

func (s *postgresStore) ListAlerts(ctx context.Context, filter AlertFilter) ([]StoredAlert, error) {
	if s.db == nil {
		return nil, nil
	}
	query := `SELECT id, call_id, agent_id, agent_name, rule_id, title, severity, confidence,
		quote, start_char, end_char, why_it_matters, agent_fix_suggestion, created_at
		FROM alerts WHERE 1=1`
	args := make([]any, 0, 4)
	n := 0
	arg := func(v any) string {
		n++
		args = append(args, v)
		return fmt.Sprintf("$%d", n)
	}
	if filter.CallID != "" {
		query += " AND call_id = " + arg(filter.CallID)
	}
	if filter.AgentID != "" {
		query += " AND agent_id = " + arg(filter.AgentID)
	}
	if filter.Severity != "" {
		query += " AND severity = " + arg(filter.Severity)
	}
	if filter.RuleID != "" {
		query += " AND rule_id = " + arg(filter.RuleID)
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
