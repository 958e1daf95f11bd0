package engine

import (
	"callwire/internal/model"
	"callwire/internal/rules"
)

// detectMetadata fires purely as a function of call metadata; transcript
// text is never consulted. Only the rules enumerated here can fire — any
// other metadata-driven rule is a silent no-match, not an error.
func (e *Evaluator) detectMetadata(rule rules.Compiled, ectx *evalContext) (model.Alert, bool) {
	switch rule.ID {
	case rules.RuleCallingTime:
		// Known stub: no local-time arithmetic is implemented, so the
		// calling-time rule never fires.
		return model.Alert{}, false
	case rules.RuleDNCListed:
		if ectx.meta.IsDNCListed && !ectx.meta.HasPriorConsent {
			ev := model.Evidence{Quote: "Number is on National DNC Registry (metadata flag)"}
			return newAlert(rule, ectx.meta.CallID, confidenceMetadata, ev), true
		}
	case rules.RulePrerecorded:
		if ectx.meta.IsPrerecorded && !ectx.meta.HasPriorConsent {
			ev := model.Evidence{Quote: "Using prerecorded/artificial voice without consent (metadata flag)"}
			return newAlert(rule, ectx.meta.CallID, confidenceMetadata, ev), true
		}
	}
	return model.Alert{}, false
}
