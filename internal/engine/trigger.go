package engine

import (
	"strings"

	"callwire/internal/model"
	"callwire/internal/rules"
)

// detectTrigger scans the rule's exact phrases in declared order against the
// lower-cased transcript and alerts on the first literal substring match.
// No match falls through to the regex detector for the same rule.
func (e *Evaluator) detectTrigger(rule rules.Compiled, ectx *evalContext) (model.Alert, bool) {
	for _, phrase := range rule.Triggers {
		pos := strings.Index(ectx.lower, strings.ToLower(phrase))
		if pos < 0 {
			continue
		}
		end := pos + len(phrase)
		ectx.applySideEffects(rule.ID)
		ev := ectx.evidence(pos, end, e.opts.EvidenceContextChars)
		return newAlert(rule, ectx.meta.CallID, confidenceTrigger, ev), true
	}
	return model.Alert{}, false
}
