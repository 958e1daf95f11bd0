package engine

import (
	"callwire/internal/model"
	"callwire/internal/rules"
)

// detectRegex tries the rule's pre-compiled patterns in order, first match
// wins. Patterns that failed to compile were dropped at library load time,
// so only valid patterns reach this point. Positive-disclosure rules update
// session state on match and intentionally do not alert: they are presence
// checks, not violations.
func (e *Evaluator) detectRegex(rule rules.Compiled, ectx *evalContext) (model.Alert, bool) {
	for _, re := range rule.Patterns {
		loc := re.FindStringIndex(ectx.lower)
		if loc == nil {
			continue
		}
		start, end := loc[0], loc[1]
		ectx.applySideEffects(rule.ID)
		if ectx.markDisclosure(rule.ID) {
			return model.Alert{}, false
		}
		ev := ectx.evidence(start, end, e.opts.EvidenceContextChars)
		return newAlert(rule, ectx.meta.CallID, confidenceRegex, ev), true
	}
	return model.Alert{}, false
}
