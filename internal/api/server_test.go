package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"callwire/internal/alerts"
	"callwire/internal/config"
	"callwire/internal/engine"
	"callwire/internal/metrics"
	"callwire/internal/model"
	"callwire/internal/rules"
)

type fakeEngine struct {
	active int
	resets int
	states map[string]engine.CallState
}

func (f *fakeEngine) Reset()                          { f.resets++ }
func (f *fakeEngine) UpdateConfig(cfg *config.Config) {}
func (f *fakeEngine) ActiveCalls() int                { return f.active }
func (f *fakeEngine) CallState(callID string) (engine.CallState, bool) {
	st, ok := f.states[callID]
	return st, ok
}

func newServerForTest() (*Server, *fakeEngine) {
	eng := &fakeEngine{states: map[string]engine.CallState{}}
	s := &Server{
		cfg:     config.NewStatic(config.DefaultConfig()),
		stats:   metrics.NewStore(100),
		alerts:  alerts.NewStore(100),
		lib:     rules.Compile(rules.Default(), true),
		engine:  eng,
		version: "test",
	}
	return s, eng
}

func TestStatusEndpoint(t *testing.T) {
	s, eng := newServerForTest()
	eng.active = 2

	rec := httptest.NewRecorder()
	s.handleStatus(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp statusResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.ActiveCalls != 2 || resp.Rules.Total != 11 {
		t.Fatalf("unexpected status: %+v", resp)
	}
}

func TestAlertsEndpointSeverityFilter(t *testing.T) {
	s, _ := newServerForTest()
	s.alerts.Add(model.Alert{ID: "a", Severity: model.SeverityLow})
	s.alerts.Add(model.Alert{ID: "b", Severity: model.SeverityHigh})

	rec := httptest.NewRecorder()
	s.handleAlerts(rec, httptest.NewRequest(http.MethodGet, "/alerts?min_severity=high", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp struct {
		Alerts []model.Alert `json:"alerts"`
		Count  int           `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Count != 1 || resp.Alerts[0].ID != "b" {
		t.Fatalf("filter not applied: %+v", resp)
	}
}

func TestCallStateEndpoint(t *testing.T) {
	s, eng := newServerForTest()
	eng.states["c-1"] = engine.CallState{CallID: "c-1", AlertedRules: []string{"DNC-001"}}

	rec := httptest.NewRecorder()
	s.handleCallState(rec, httptest.NewRequest(http.MethodGet, "/calls/c-1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "DNC-001") {
		t.Fatalf("body = %s", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	s.handleCallState(rec, httptest.NewRequest(http.MethodGet, "/calls/ghost", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown call, got %d", rec.Code)
	}
}

func TestRulesEndpointCategoryFilter(t *testing.T) {
	s, _ := newServerForTest()
	rec := httptest.NewRecorder()
	s.handleRules(rec, httptest.NewRequest(http.MethodGet, "/rules?category=do_not_call", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp struct {
		Rules []ruleSummary `json:"rules"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Rules) != 3 {
		t.Fatalf("expected 3 do_not_call rules, got %d", len(resp.Rules))
	}
	for _, r := range resp.Rules {
		if r.Category != model.CategoryDoNotCall {
			t.Fatalf("wrong category in response: %+v", r)
		}
	}
}

func TestAdminRestart(t *testing.T) {
	s, eng := newServerForTest()
	s.alerts.Add(model.Alert{ID: "a"})
	s.stats.Record("c-1", 10, model.EvaluationResult{})

	rec := httptest.NewRecorder()
	s.handleRestart(rec, httptest.NewRequest(http.MethodPost, "/admin/restart", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if eng.resets != 1 {
		t.Fatalf("engine not reset")
	}
	if len(s.alerts.List(0)) != 0 || len(s.stats.GetAll()) != 0 {
		t.Fatalf("stores not cleared")
	}
}
