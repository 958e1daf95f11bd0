package engine

import (
	"callwire/internal/model"
)

const (
	identitySuggestion = "Identify yourself and your company: 'Hi, my name is [Name] calling from [Company Name].'"
	purposeSuggestion  = "Disclose the sales purpose: 'I'm calling today with a special offer for you.'"
)

// contextual appends disclosure nudges for outbound sales calls once the
// conversation is long enough that the disclosure should already have
// happened. Rule-triggered suggestions stay first; duplicates by text are
// dropped. Caller is expected to hold sess.mu.
func (e *Evaluator) contextual(sess *Session, meta model.CallMetadata, transcript string, suggestions []model.SuggestedLine) []model.SuggestedLine {
	if meta.CallType != model.CallTypeOutboundSales {
		return suggestions
	}
	if len(transcript) > e.opts.IdentityNudgeMinChars && !sess.disclosures.SellerIdentified {
		suggestions = appendUnique(suggestions, model.SuggestedLine{
			Text:       identitySuggestion,
			Confidence: confidenceContextual,
		})
	}
	if len(transcript) > e.opts.PurposeNudgeMinChars && !sess.disclosures.SalesPurposeStated {
		suggestions = appendUnique(suggestions, model.SuggestedLine{
			Text:       purposeSuggestion,
			Confidence: confidenceContextual,
		})
	}
	return suggestions
}

func appendUnique(list []model.SuggestedLine, line model.SuggestedLine) []model.SuggestedLine {
	for _, existing := range list {
		if existing.Text == line.Text {
			return list
		}
	}
	return append(list, line)
}
