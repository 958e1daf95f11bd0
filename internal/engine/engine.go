package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"callwire/internal/alerts"
	"callwire/internal/config"
	"callwire/internal/metrics"
	"callwire/internal/model"
	"callwire/internal/rules"
	"callwire/internal/storage"
)

// Engine owns one Session per active call and runs the evaluator over every
// appended transcript segment. The rule library is fixed for the process
// lifetime; config is swapped atomically on reload.
type Engine struct {
	logger   *slog.Logger
	lib      *rules.Library
	stats    *metrics.Store
	alerts   *alerts.Store
	store    storage.Store
	cfg      atomic.Value
	eval     atomic.Value
	sessions map[string]*Session
	mu       sync.Mutex
	started  time.Time
}

func NewEngine(cfg *config.Config, lib *rules.Library, logger *slog.Logger, statsStore *metrics.Store, alertsStore *alerts.Store, store storage.Store) *Engine {
	e := &Engine{
		logger:   logger,
		lib:      lib,
		stats:    statsStore,
		alerts:   alertsStore,
		store:    store,
		sessions: make(map[string]*Session),
		started:  time.Now().UTC(),
	}
	e.cfg.Store(cfg)
	e.eval.Store(buildEvaluator(cfg, lib, logger))
	return e
}

func buildEvaluator(cfg *config.Config, lib *rules.Library, logger *slog.Logger) *Evaluator {
	return NewEvaluator(lib, Options{
		MaxSuggestions:        cfg.Evaluation.MaxSuggestions,
		EvidenceContextChars:  cfg.Evaluation.EvidenceContextChars,
		IdentityNudgeMinChars: cfg.Evaluation.IdentityNudgeMinChars,
		PurposeNudgeMinChars:  cfg.Evaluation.PurposeNudgeMinChars,
	}, logger)
}

func (e *Engine) UpdateConfig(cfg *config.Config) {
	e.cfg.Store(cfg)
	e.eval.Store(buildEvaluator(cfg, e.lib, e.logger))
}

func (e *Engine) evaluator() *Evaluator {
	if v := e.eval.Load(); v != nil {
		return v.(*Evaluator)
	}
	return NewEvaluator(e.lib, Options{}, e.logger)
}

// Start consumes segments from the ingest channel. Segments arrive one at a
// time as dialogue occurs; evaluation for a session is strictly sequential.
func (e *Engine) Start(ctx context.Context, in <-chan model.Segment) {
	go func() {
		for {
			select {
			case seg := <-in:
				e.ProcessSegment(seg)
			case <-ctx.Done():
				return
			}
		}
	}()
}

// StartCall creates (or re-creates) the session for a call, resetting all
// detection state before any evaluation is accepted.
func (e *Engine) StartCall(meta model.CallMetadata) error {
	if meta.CallID == "" {
		return errors.New("call_id is required")
	}
	sess := NewSession(meta)
	e.mu.Lock()
	e.sessions[meta.CallID] = sess
	e.mu.Unlock()
	if e.logger != nil {
		e.logger.Info("call started",
			"call_id", meta.CallID,
			"agent_id", meta.AgentID,
			"call_type", meta.CallType,
		)
	}
	if e.store != nil {
		if err := e.store.SaveCallStart(context.Background(), meta); err != nil && e.logger != nil {
			e.logger.Warn("save call start failed", "call_id", meta.CallID, "err", err)
		}
	}
	return nil
}

// EndCall discards the call's session so no state can leak into a later
// call reusing the same id.
func (e *Engine) EndCall(callID string) error {
	if callID == "" {
		return errors.New("call_id is required")
	}
	e.mu.Lock()
	_, ok := e.sessions[callID]
	delete(e.sessions, callID)
	e.mu.Unlock()
	if !ok {
		return errors.New("unknown call")
	}
	if e.logger != nil {
		e.logger.Info("call ended", "call_id", callID)
	}
	if e.store != nil {
		if err := e.store.SaveCallEnd(context.Background(), callID); err != nil && e.logger != nil {
			e.logger.Warn("save call end failed", "call_id", callID, "err", err)
		}
	}
	return nil
}

// ProcessSegment appends one utterance to its call's transcript and runs a
// full evaluation over the transcript so far. Segments for calls that were
// never started are dropped: evaluating without a prior StartCall is a
// caller contract violation this core does not paper over.
func (e *Engine) ProcessSegment(seg model.Segment) *model.EvaluationResult {
	sess := e.session(seg.CallID)
	if sess == nil {
		if e.logger != nil {
			e.logger.Warn("segment for unknown call dropped", "call_id", seg.CallID, "source", seg.Source)
		}
		return nil
	}
	sess.Append(seg)
	meta := sess.Metadata()
	transcript := sess.Transcript()

	result := e.evaluator().Evaluate(sess, meta, transcript)

	for _, alert := range result.Alerts {
		e.alerts.Add(alert)
		if e.logger != nil {
			e.logger.Warn("compliance alert",
				"call_id", alert.CallID,
				"rule_id", alert.RuleID,
				"severity", alert.Severity,
				"confidence", alert.Confidence,
			)
		}
		if e.store != nil {
			if err := e.store.SaveAlert(context.Background(), alert, meta); err != nil && e.logger != nil {
				e.logger.Warn("save alert failed", "rule_id", alert.RuleID, "err", err)
			}
		}
	}
	if e.stats != nil {
		e.stats.Record(seg.CallID, len(transcript), result)
	}
	return &result
}

// SessionFor exposes the live session for a call, or nil.
func (e *Engine) SessionFor(callID string) *Session {
	return e.session(callID)
}

// CallState is the live-session snapshot served by the API.
type CallState struct {
	CallID          string      `json:"call_id"`
	CallType        string      `json:"call_type"`
	Disclosures     Disclosures `json:"disclosures"`
	AlertedRules    []string    `json:"alerted_rules"`
	Segments        int         `json:"segments"`
	TranscriptChars int         `json:"transcript_chars"`
}

func (e *Engine) CallState(callID string) (CallState, bool) {
	sess := e.session(callID)
	if sess == nil {
		return CallState{}, false
	}
	return sess.snapshot(), true
}

func (e *Engine) session(callID string) *Session {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sessions[callID]
}

func (e *Engine) ActiveCalls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.sessions)
}

// Reset drops every live session. Admin restart path.
func (e *Engine) Reset() {
	e.mu.Lock()
	e.sessions = make(map[string]*Session)
	e.mu.Unlock()
}
