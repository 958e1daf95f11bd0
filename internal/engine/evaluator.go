package engine

import (
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"callwire/internal/model"
	"callwire/internal/rules"
)

// Confidence is fixed per detection strategy: metadata checks are the most
// certain, contextual nudges the least.
const (
	confidenceMetadata   = 95
	confidenceTrigger    = 90
	confidenceRegex      = 85
	confidenceRuleFix    = 85
	confidenceContextual = 80
)

// Options carries the evaluation tunables. Zero values fall back to the
// contract defaults (3 suggestions, 30 context chars, 50/100 nudge floors).
type Options struct {
	MaxSuggestions        int
	EvidenceContextChars  int
	IdentityNudgeMinChars int
	PurposeNudgeMinChars  int
}

func (o Options) withDefaults() Options {
	if o.MaxSuggestions <= 0 {
		o.MaxSuggestions = 3
	}
	if o.EvidenceContextChars <= 0 {
		o.EvidenceContextChars = 30
	}
	if o.IdentityNudgeMinChars <= 0 {
		o.IdentityNudgeMinChars = 50
	}
	if o.PurposeNudgeMinChars <= 0 {
		o.PurposeNudgeMinChars = 100
	}
	return o
}

// Evaluator turns (rule library, call metadata, transcript-so-far) into
// deduplicated alerts and ranked suggestions. It is stateless itself; all
// cross-turn state lives in the Session it is handed.
type Evaluator struct {
	lib    *rules.Library
	opts   Options
	logger *slog.Logger
}

func NewEvaluator(lib *rules.Library, opts Options, logger *slog.Logger) *Evaluator {
	return &Evaluator{lib: lib, opts: opts.withDefaults(), logger: logger}
}

type evalContext struct {
	meta       model.CallMetadata
	transcript string
	lower      string
	sess       *Session
}

// Evaluate runs every enabled rule in library order against the transcript
// so far. Safe to re-invoke on each new line of dialogue: a rule that has
// already alerted this session is skipped, and the seen set is updated the
// moment an alert is produced so a single call cannot double-fire either.
func (e *Evaluator) Evaluate(sess *Session, meta model.CallMetadata, transcript string) model.EvaluationResult {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	ectx := &evalContext{
		meta:       meta,
		transcript: transcript,
		lower:      strings.ToLower(transcript),
		sess:       sess,
	}
	alerts := make([]model.Alert, 0)
	suggestions := make([]model.SuggestedLine, 0)

	for _, rule := range e.lib.Rules() {
		if !rule.Enabled {
			continue
		}
		if _, done := sess.seen[rule.ID]; done {
			continue
		}
		// DNC-002 is order-gated: a continuation attempt is only
		// attributable once a DNC request has been recorded in this call.
		if rule.ID == rules.RuleDNCPersisted && !sess.dncRequested {
			continue
		}
		alert, ok := e.detect(rule, ectx)
		if !ok {
			continue
		}
		sess.seen[rule.ID] = struct{}{}
		alerts = append(alerts, alert)
		if rule.RecommendedFix != "" {
			suggestions = append(suggestions, model.SuggestedLine{
				Text:       rule.RecommendedFix,
				Confidence: confidenceRuleFix,
			})
		}
	}

	suggestions = e.contextual(sess, meta, transcript, suggestions)
	if len(suggestions) > e.opts.MaxSuggestions {
		suggestions = suggestions[:e.opts.MaxSuggestions]
	}
	return model.EvaluationResult{Alerts: alerts, SuggestedNextLines: suggestions}
}

// detect routes one rule to its detection strategy. A panic inside a single
// rule (a pathological pattern, unexpected rule data) is contained here so
// the remaining rules still evaluate.
func (e *Evaluator) detect(rule rules.Compiled, ectx *evalContext) (alert model.Alert, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			if e.logger != nil {
				e.logger.Warn("rule evaluation recovered", "rule_id", rule.ID, "panic", r)
			}
			alert, ok = model.Alert{}, false
		}
	}()
	if rule.RequiresMetadata {
		return e.detectMetadata(rule, ectx)
	}
	if alert, ok = e.detectTrigger(rule, ectx); ok {
		return alert, true
	}
	return e.detectRegex(rule, ectx)
}

// applySideEffects records cross-turn flags when certain rules match,
// regardless of which text detector produced the match.
func (c *evalContext) applySideEffects(ruleID string) {
	switch ruleID {
	case rules.RuleDNCRequest:
		c.sess.dncRequested = true
	case rules.RuleConsentRevoked:
		c.sess.consentRevoked = true
	}
}

// markDisclosure flips the disclosure flag for positive-disclosure rules.
// Returns true when the match is a presence check that must not alert.
func (c *evalContext) markDisclosure(ruleID string) bool {
	switch ruleID {
	case rules.RuleSellerIdentity:
		c.sess.disclosures.SellerIdentified = true
	case rules.RuleSalesPurpose:
		c.sess.disclosures.SalesPurposeStated = true
	case rules.RuleProductDescription:
		c.sess.disclosures.ProductDescribed = true
	case rules.RuleCallbackNumber:
		c.sess.disclosures.CallbackProvided = true
	case rules.RuleRecordingDisclosure:
		c.sess.disclosures.RecordingDisclosed = true
	default:
		return false
	}
	return true
}

// evidence builds the literal excerpt for a text match: the matched span
// plus trailing context, quoted from the original-case transcript.
func (c *evalContext) evidence(start, end, contextChars int) model.Evidence {
	quoteEnd := end + contextChars
	if quoteEnd > len(c.transcript) {
		quoteEnd = len(c.transcript)
	}
	return model.Evidence{
		Quote:     strings.TrimSpace(c.transcript[start:quoteEnd]),
		StartChar: start,
		EndChar:   end,
	}
}

func newAlert(rule rules.Compiled, callID string, confidence int, ev model.Evidence) model.Alert {
	return model.Alert{
		ID:             uuid.NewString(),
		CallID:         callID,
		RuleID:         rule.ID,
		Title:          rule.Title,
		Severity:       rule.Severity,
		Confidence:     confidence,
		Evidence:       ev,
		WhyItMatters:   rule.WhyItMatters,
		RecommendedFix: rule.RecommendedFix,
		CreatedAt:      time.Now().UTC(),
	}
}
