package storage

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"callwire/internal/config"
	"callwire/internal/model"
)

// Store is the durable record of calls and the alerts raised against them.
// Persistence happens strictly after evaluation returns; the engine treats
// save failures as log-and-continue.
type Store interface {
	Init(ctx context.Context) error
	Close() error
	SaveCallStart(ctx context.Context, meta model.CallMetadata) error
	SaveCallEnd(ctx context.Context, callID string) error
	SaveAlert(ctx context.Context, alert model.Alert, meta model.CallMetadata) error
	ListAlerts(ctx context.Context, filter AlertFilter) ([]StoredAlert, error)
}

// AlertFilter narrows ListAlerts; zero fields are ignored.
type AlertFilter struct {
	CallID   string
	AgentID  string
	Severity string
	RuleID   string
	Limit    int
	Offset   int
}

// StoredAlert is an alert row joined with the call context it was saved
// under.
type StoredAlert struct {
	model.Alert
	AgentID   string `json:"agent_id"`
	AgentName string `json:"agent_name"`
}

func NewStore(cfg config.StorageConfig) (Store, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	switch strings.ToLower(cfg.Driver) {
	case "sqlite":
		return NewSQLite(cfg.DSN)
	case "postgres", "postgresql":
		return NewPostgres(cfg.DSN)
	default:
		return nil, errors.New("unsupported storage driver")
	}
}

type baseStore struct {
	db *sql.DB
}

func (b *baseStore) Close() error {
	if b.db != nil {
		return b.db.Close()
	}
	return nil
}

func nowUTC() time.Time {
	return time.Now().UTC()
}
