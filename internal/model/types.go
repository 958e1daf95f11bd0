package model

import "time"

type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

func (s Severity) Rank() int {
	switch s {
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	}
	return 0
}

type Category string

const (
	CategoryCallingTime         Category = "calling_time"
	CategoryDoNotCall           Category = "do_not_call"
	CategoryDisclosure          Category = "disclosure"
	CategoryConsent             Category = "consent"
	CategoryIdentification      Category = "identification"
	CategoryRecordingDisclosure Category = "recording_disclosure"
	CategoryPrerecorded         Category = "prerecorded"
)

type Speaker string

const (
	SpeakerAgent    Speaker = "agent"
	SpeakerCustomer Speaker = "customer"
)

const CallTypeOutboundSales = "outbound_sales"

// Rule is one static compliance concern and how to detect it. A rule is
// either metadata-driven (RequiresMetadata set, triggers and patterns empty)
// or text-driven; detectors rely on that exclusivity.
type Rule struct {
	ID               string   `json:"id" yaml:"id"`
	Title            string   `json:"title" yaml:"title"`
	Category         Category `json:"category" yaml:"category"`
	Description      string   `json:"description" yaml:"description"`
	Severity         Severity `json:"severity" yaml:"severity"`
	Triggers         []string `json:"triggers,omitempty" yaml:"triggers,omitempty"`
	RegexPatterns    []string `json:"regex_patterns,omitempty" yaml:"regex_patterns,omitempty"`
	RequiresMetadata bool     `json:"requires_metadata" yaml:"requires_metadata"`
	MetadataField    string   `json:"metadata_field,omitempty" yaml:"metadata_field,omitempty"`
	WhyItMatters     string   `json:"why_it_matters" yaml:"why_it_matters"`
	RecommendedFix   string   `json:"recommended_fix" yaml:"recommended_fix"`
	LegalReference   string   `json:"legal_reference" yaml:"legal_reference"`
	Enabled          bool     `json:"enabled" yaml:"enabled"`
	Optional         bool     `json:"optional" yaml:"optional"`
}

type RuleSet struct {
	Version     string `json:"version" yaml:"version"`
	LastUpdated string `json:"last_updated" yaml:"last_updated"`
	Disclaimer  string `json:"disclaimer" yaml:"disclaimer"`
	Rules       []Rule `json:"rules" yaml:"rules"`
}

// CallMetadata is fixed for the lifetime of one call session.
type CallMetadata struct {
	CallID          string `json:"call_id" yaml:"call_id"`
	AgentID         string `json:"agent_id" yaml:"agent_id"`
	AgentName       string `json:"agent_name" yaml:"agent_name"`
	CallStartTime   string `json:"call_start_time" yaml:"call_start_time"`
	CallerTimezone  string `json:"caller_timezone,omitempty" yaml:"caller_timezone,omitempty"`
	CustomerPhone   string `json:"customer_phone,omitempty" yaml:"customer_phone,omitempty"`
	IsDNCListed     bool   `json:"is_dnc_listed" yaml:"is_dnc_listed"`
	HasPriorConsent bool   `json:"has_prior_consent" yaml:"has_prior_consent"`
	IsPrerecorded   bool   `json:"is_prerecorded" yaml:"is_prerecorded"`
	CallType        string `json:"call_type" yaml:"call_type"`
}

// Segment is one utterance appended to a call transcript. StartChar and
// EndChar locate it within the concatenated transcript and are filled in by
// the engine when the segment is appended.
type Segment struct {
	CallID      string  `json:"call_id"`
	ID          string  `json:"id,omitempty"`
	Speaker     Speaker `json:"speaker"`
	Text        string  `json:"text"`
	TimestampMS int64   `json:"timestamp_ms"`
	StartChar   int     `json:"start_char"`
	EndChar     int     `json:"end_char"`
	Source      string  `json:"source,omitempty"`
}

// Evidence is the literal excerpt justifying an alert. For metadata-only
// rules the quote is a fixed description and the span is (0,0).
type Evidence struct {
	Quote     string `json:"quote"`
	StartChar int    `json:"start_char"`
	EndChar   int    `json:"end_char"`
}

type Alert struct {
	ID             string    `json:"id"`
	CallID         string    `json:"call_id"`
	RuleID         string    `json:"rule_id"`
	Title          string    `json:"title"`
	Severity       Severity  `json:"severity"`
	Confidence     int       `json:"confidence"`
	Evidence       Evidence  `json:"evidence"`
	WhyItMatters   string    `json:"why_it_matters"`
	RecommendedFix string    `json:"agent_fix_suggestion"`
	CreatedAt      time.Time `json:"created_at"`
}

// SuggestedLine is a "what to say next" prompt for the agent. Recomputed on
// every evaluation, never carried across calls.
type SuggestedLine struct {
	Text       string `json:"text"`
	Confidence int    `json:"confidence"`
}

type EvaluationResult struct {
	Alerts             []Alert         `json:"alerts"`
	SuggestedNextLines []SuggestedLine `json:"suggested_next_lines"`
}

// CallStats is the rolling evaluation summary kept per active call.
type CallStats struct {
	CallID          string         `json:"call_id"`
	Segments        int            `json:"segments"`
	TranscriptChars int            `json:"transcript_chars"`
	Evaluations     int            `json:"evaluations"`
	Alerts          int            `json:"alerts"`
	BySeverity      map[string]int `json:"by_severity"`
	Suggestions     int            `json:"suggestions"`
}
