package normalize

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"callwire/internal/config"
	"callwire/internal/model"
)

// SegmentFields is the loosely typed shape parsers extract from an incoming
// line before it becomes a model.Segment.
type SegmentFields struct {
	CallID      string
	SegmentID   string
	Speaker     string
	Text        string
	TimestampMS string
	Extras      map[string]string
	Raw         string
}

// Normalize turns parsed fields into a segment, filling the call id and
// speaker from parser defaults when the feed does not carry them.
func Normalize(fields SegmentFields, cfg *config.Config) (model.Segment, error) {
	callID := strings.TrimSpace(fields.CallID)
	if callID == "" {
		callID = cfg.Ingest.Parser.DefaultCallID
	}
	if callID == "" {
		return model.Segment{}, errors.New("segment has no call_id and no default is configured")
	}
	text := strings.TrimSpace(fields.Text)
	if text == "" {
		return model.Segment{}, errors.New("segment has no text")
	}
	speaker := ParseSpeaker(fields.Speaker)
	if speaker == "" {
		speaker = ParseSpeaker(cfg.Ingest.Parser.DefaultSpeaker)
	}
	if speaker == "" {
		speaker = model.SpeakerCustomer
	}
	var ms int64
	if ts := strings.TrimSpace(fields.TimestampMS); ts != "" {
		parsed, err := strconv.ParseInt(ts, 10, 64)
		if err != nil {
			return model.Segment{}, fmt.Errorf("parse timestamp_ms: %w", err)
		}
		ms = parsed
	}
	return model.Segment{
		CallID:      callID,
		ID:          strings.TrimSpace(fields.SegmentID),
		Speaker:     speaker,
		Text:        text,
		TimestampMS: ms,
	}, nil
}

// ParseSpeaker maps the aliases transcription feeds use onto the two roles
// the detector cares about. Unknown values return empty.
func ParseSpeaker(value string) model.Speaker {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "agent", "rep", "representative", "sales", "operator", "caller_agent":
		return model.SpeakerAgent
	case "customer", "caller", "consumer", "prospect", "callee":
		return model.SpeakerCustomer
	}
	return ""
}
