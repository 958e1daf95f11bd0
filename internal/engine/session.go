package engine

import (
	"sort"
	"strings"
	"sync"

	"callwire/internal/model"
)

// Disclosures records which required positive disclosures have been observed
// this call. They suppress redundant suggestions and never produce alerts.
type Disclosures struct {
	SellerIdentified   bool `json:"seller_identified"`
	SalesPurposeStated bool `json:"sales_purpose_stated"`
	ProductDescribed   bool `json:"product_described"`
	CallbackProvided   bool `json:"callback_provided"`
	RecordingDisclosed bool `json:"recording_disclosed"`
}

// Session holds every piece of mutable detection state for one active call:
// cross-turn flags, disclosure state, the set of rules that already alerted,
// and the growing transcript. A session belongs to exactly one call and must
// be Reset before any evaluation for a new call; stale state would suppress
// legitimate alerts or mis-gate order-dependent rules.
type Session struct {
	mu sync.Mutex

	meta       model.CallMetadata
	segments   []model.Segment
	transcript string
	lower      string

	dncRequested   bool
	consentRevoked bool
	disclosures    Disclosures
	seen           map[string]struct{}
}

func NewSession(meta model.CallMetadata) *Session {
	s := &Session{}
	s.Reset()
	s.meta = meta
	return s
}

// Reset clears all flags, the seen-rule set, and the transcript. Metadata is
// cleared too; NewSession restores it for the call being started.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.meta = model.CallMetadata{}
	s.segments = nil
	s.transcript = ""
	s.lower = ""
	s.dncRequested = false
	s.consentRevoked = false
	s.disclosures = Disclosures{}
	s.seen = make(map[string]struct{})
}

// Append adds one utterance to the transcript and returns the segment with
// its character span filled in. Segments are append-only; utterances are
// joined with a single space.
func (s *Session) Append(seg model.Segment) model.Segment {
	s.mu.Lock()
	defer s.mu.Unlock()
	sep := ""
	if s.transcript != "" {
		sep = " "
	}
	seg.StartChar = len(s.transcript) + len(sep)
	seg.EndChar = seg.StartChar + len(seg.Text)
	s.transcript += sep + seg.Text
	s.lower += strings.ToLower(sep + seg.Text)
	s.segments = append(s.segments, seg)
	return seg
}

func (s *Session) Metadata() model.CallMetadata {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.meta
}

func (s *Session) Transcript() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transcript
}

func (s *Session) Segments() []model.Segment {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Segment, len(s.segments))
	copy(out, s.segments)
	return out
}

func (s *Session) DisclosureState() Disclosures {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disclosures
}

// AlertedRules returns the ids of rules that have already fired this call.
func (s *Session) AlertedRules() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.alertedRulesLocked()
}

func (s *Session) alertedRulesLocked() []string {
	out := make([]string, 0, len(s.seen))
	for id := range s.seen {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// snapshot captures the full detection state under one lock so an
// evaluation landing in between cannot produce a view where the alerted
// rules and the disclosure flags disagree.
func (s *Session) snapshot() CallState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return CallState{
		CallID:          s.meta.CallID,
		CallType:        s.meta.CallType,
		Disclosures:     s.disclosures,
		AlertedRules:    s.alertedRulesLocked(),
		Segments:        len(s.segments),
		TranscriptChars: len(s.transcript),
	}
}
