package engine

import (
	"testing"

	"callwire/internal/alerts"
	"callwire/internal/config"
	"callwire/internal/metrics"
	"callwire/internal/model"
	"callwire/internal/rules"
)

func newEngineForTest() *Engine {
	cfg := config.DefaultConfig()
	lib := rules.Compile(rules.Default(), true)
	return NewEngine(cfg, lib, nil, metrics.NewStore(100), alerts.NewStore(100), nil)
}

func segment(callID, speaker, text string) model.Segment {
	return model.Segment{CallID: callID, Speaker: model.Speaker(speaker), Text: text}
}

func TestStartCallRequiresID(t *testing.T) {
	eng := newEngineForTest()
	if err := eng.StartCall(model.CallMetadata{}); err == nil {
		t.Fatalf("expected error for empty call id")
	}
}

func TestSegmentForUnknownCallDropped(t *testing.T) {
	eng := newEngineForTest()
	if result := eng.ProcessSegment(segment("nope", "customer", "don't call me")); result != nil {
		t.Fatalf("expected nil result for unknown call")
	}
	if got := len(eng.alerts.List(0)); got != 0 {
		t.Fatalf("expected no alerts, got %d", got)
	}
}

func TestProcessSegmentAlertFlow(t *testing.T) {
	eng := newEngineForTest()
	meta := model.CallMetadata{CallID: "call-1", AgentID: "agent-7"}
	if err := eng.StartCall(meta); err != nil {
		t.Fatalf("StartCall: %v", err)
	}

	result := eng.ProcessSegment(segment("call-1", "customer", "stop calling me right now"))
	if result == nil || len(result.Alerts) != 1 {
		t.Fatalf("expected 1 alert, got %+v", result)
	}
	if result.Alerts[0].RuleID != rules.RuleDNCRequest {
		t.Fatalf("expected %s, got %s", rules.RuleDNCRequest, result.Alerts[0].RuleID)
	}

	stored := eng.alerts.ForCall("call-1")
	if len(stored) != 1 {
		t.Fatalf("alert not recorded in ring store")
	}

	st, _, ok := eng.stats.Get("call-1")
	if !ok {
		t.Fatalf("stats not recorded")
	}
	if st.Segments != 1 || st.Alerts != 1 {
		t.Fatalf("unexpected stats: %+v", st)
	}
}

func TestTranscriptAccumulatesAcrossSegments(t *testing.T) {
	eng := newEngineForTest()
	if err := eng.StartCall(model.CallMetadata{CallID: "call-1"}); err != nil {
		t.Fatalf("StartCall: %v", err)
	}

	eng.ProcessSegment(segment("call-1", "agent", "hello, how are you"))
	result := eng.ProcessSegment(segment("call-1", "customer", "please stop calling me"))
	if result == nil || len(result.Alerts) != 1 {
		t.Fatalf("expected alert on second segment, got %+v", result)
	}
	a := result.Alerts[0]
	// Span points into the joined transcript, past the first segment.
	if a.Evidence.StartChar <= len("hello, how are you") {
		t.Fatalf("evidence span should land in the second segment, got start %d", a.Evidence.StartChar)
	}

	sess := eng.SessionFor("call-1")
	if got := sess.Transcript(); got != "hello, how are you please stop calling me" {
		t.Fatalf("transcript = %q", got)
	}
	segs := sess.Segments()
	if len(segs) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(segs))
	}
	if segs[1].StartChar != len("hello, how are you")+1 {
		t.Fatalf("segment start = %d", segs[1].StartChar)
	}
}

func TestCallsAreIsolated(t *testing.T) {
	eng := newEngineForTest()
	for _, id := range []string{"call-a", "call-b"} {
		if err := eng.StartCall(model.CallMetadata{CallID: id}); err != nil {
			t.Fatalf("StartCall(%s): %v", id, err)
		}
	}

	resA := eng.ProcessSegment(segment("call-a", "customer", "don't call me again"))
	if resA == nil || len(resA.Alerts) != 1 {
		t.Fatalf("call-a should alert, got %+v", resA)
	}

	// The other call saw nothing; its session carries no DNC state, so the
	// continuation phrasing stays gated.
	resB := eng.ProcessSegment(segment("call-b", "agent", "before you go, just one more thing"))
	if resB == nil {
		t.Fatalf("call-b segment dropped")
	}
	if len(resB.Alerts) != 0 {
		t.Fatalf("call-b should not alert, got %d alerts", len(resB.Alerts))
	}
}

func TestEndCallDiscardsState(t *testing.T) {
	eng := newEngineForTest()
	if err := eng.StartCall(model.CallMetadata{CallID: "call-1"}); err != nil {
		t.Fatalf("StartCall: %v", err)
	}
	eng.ProcessSegment(segment("call-1", "customer", "don't call me"))
	if err := eng.EndCall("call-1"); err != nil {
		t.Fatalf("EndCall: %v", err)
	}
	if eng.ActiveCalls() != 0 {
		t.Fatalf("session not discarded")
	}

	// Same id restarted: the rule fires again because nothing leaked.
	if err := eng.StartCall(model.CallMetadata{CallID: "call-1"}); err != nil {
		t.Fatalf("StartCall: %v", err)
	}
	result := eng.ProcessSegment(segment("call-1", "customer", "don't call me"))
	if result == nil || len(result.Alerts) != 1 {
		t.Fatalf("expected alert after restart, got %+v", result)
	}
}

func TestEndUnknownCall(t *testing.T) {
	eng := newEngineForTest()
	if err := eng.EndCall("ghost"); err == nil {
		t.Fatalf("expected error ending unknown call")
	}
}

func TestUpdateConfigChangesEvaluation(t *testing.T) {
	eng := newEngineForTest()
	cfg := config.DefaultConfig()
	cfg.Evaluation.MaxSuggestions = 1
	eng.UpdateConfig(cfg)

	if err := eng.StartCall(model.CallMetadata{CallID: "call-1", CallType: model.CallTypeOutboundSales}); err != nil {
		t.Fatalf("StartCall: %v", err)
	}
	long := "hello there how are you today hello there how are you today hello there how are you today hello there how are you today"
	result := eng.ProcessSegment(segment("call-1", "agent", long))
	if result == nil {
		t.Fatalf("segment dropped")
	}
	if len(result.SuggestedNextLines) != 1 {
		t.Fatalf("expected 1 suggestion after reload, got %d", len(result.SuggestedNextLines))
	}
}

func TestCallStateSnapshot(t *testing.T) {
	eng := newEngineForTest()
	meta := model.CallMetadata{CallID: "call-1", CallType: model.CallTypeOutboundSales}
	if err := eng.StartCall(meta); err != nil {
		t.Fatalf("StartCall: %v", err)
	}
	eng.ProcessSegment(segment("call-1", "agent", "hi, this is mike from acme"))
	eng.ProcessSegment(segment("call-1", "customer", "don't call me"))

	state, ok := eng.CallState("call-1")
	if !ok {
		t.Fatalf("expected live call state")
	}
	if state.CallID != "call-1" || state.CallType != model.CallTypeOutboundSales {
		t.Fatalf("metadata missing from snapshot: %+v", state)
	}
	if !state.Disclosures.SellerIdentified {
		t.Fatalf("disclosure flag missing from snapshot")
	}
	if len(state.AlertedRules) != 1 || state.AlertedRules[0] != rules.RuleDNCRequest {
		t.Fatalf("alerted rules = %v", state.AlertedRules)
	}
	if state.Segments != 2 {
		t.Fatalf("segments = %d", state.Segments)
	}
	want := len("hi, this is mike from acme don't call me")
	if state.TranscriptChars != want {
		t.Fatalf("transcript chars = %d, want %d", state.TranscriptChars, want)
	}

	if _, ok := eng.CallState("ghost"); ok {
		t.Fatalf("unknown call must report no state")
	}
}

// Snapshots taken while segments are being evaluated must stay internally
// consistent: never a view with half an evaluation's effects applied.
func TestCallStateSnapshotConcurrent(t *testing.T) {
	eng := newEngineForTest()
	if err := eng.StartCall(model.CallMetadata{CallID: "call-1"}); err != nil {
		t.Fatalf("StartCall: %v", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 50; i++ {
			eng.ProcessSegment(segment("call-1", "customer", "hello there"))
		}
		eng.ProcessSegment(segment("call-1", "customer", "this is mike calling from acme, don't call me"))
	}()
	for {
		select {
		case <-done:
			state, ok := eng.CallState("call-1")
			if !ok {
				t.Fatalf("expected live call state")
			}
			if len(state.AlertedRules) != 1 || state.AlertedRules[0] != rules.RuleDNCRequest {
				t.Fatalf("alerted rules = %v", state.AlertedRules)
			}
			if !state.Disclosures.SellerIdentified {
				t.Fatalf("disclosure flag missing after final segment")
			}
			return
		default:
			if state, ok := eng.CallState("call-1"); ok && len(state.AlertedRules) > 1 {
				t.Fatalf("impossible snapshot: %v", state.AlertedRules)
			}
		}
	}
}

func TestResetDropsAllSessions(t *testing.T) {
	eng := newEngineForTest()
	for _, id := range []string{"a", "b", "c"} {
		if err := eng.StartCall(model.CallMetadata{CallID: id}); err != nil {
			t.Fatalf("StartCall: %v", err)
		}
	}
	if eng.ActiveCalls() != 3 {
		t.Fatalf("expected 3 active calls")
	}
	eng.Reset()
	if eng.ActiveCalls() != 0 {
		t.Fatalf("expected 0 active calls after reset")
	}
}
