package ingest

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"callwire/internal/normalize"
)

// Transcript feeds arrive either as JSON objects or as plain
// "Speaker: utterance" lines written by a transcriber.
var reSpeakerPrefix = regexp.MustCompile(`^\s*([A-Za-z][A-Za-z_]{0,19})\s*[:>]\s*(.+)$`)

type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

func (p *Parser) ParseLine(line string) (*normalize.SegmentFields, error) {
	trim := strings.TrimSpace(line)
	if trim == "" {
		return nil, nil
	}
	if looksLikeJSON(trim) {
		if fields, err := ParseJSONBytes([]byte(trim)); err == nil {
			fields.Raw = line
			return fields, nil
		}
	}
	fields := &normalize.SegmentFields{Extras: map[string]string{}, Raw: line}
	if m := reSpeakerPrefix.FindStringSubmatch(trim); m != nil && normalize.ParseSpeaker(m[1]) != "" {
		fields.Speaker = m[1]
		fields.Text = m[2]
		return fields, nil
	}
	fields.Text = trim
	return fields, nil
}

func looksLikeJSON(s string) bool {
	for _, ch := range s {
		if ch == '{' || ch == '[' {
			return true
		}
		if ch > ' ' {
			return false
		}
	}
	return false
}

func ParseJSONBytes(data []byte) (*normalize.SegmentFields, error) {
	var obj map[string]interface{}
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, err
	}
	return ParseJSONMap(obj), nil
}

// ParseJSONMap extracts segment fields from a decoded object, tolerating the
// key aliases different transcribers emit.
func ParseJSONMap(obj map[string]interface{}) *normalize.SegmentFields {
	fields := &normalize.SegmentFields{Extras: map[string]string{}}
	for key, val := range obj {
		fields.Extras[strings.ToLower(key)] = fmt.Sprint(val)
	}
	fields.CallID = firstNonEmpty(fields.Extras, "call_id", "call", "callid", "session_id")
	fields.SegmentID = firstNonEmpty(fields.Extras, "id", "segment_id", "seq")
	fields.Speaker = firstNonEmpty(fields.Extras, "speaker", "role", "who", "channel")
	fields.Text = firstNonEmpty(fields.Extras, "text", "utterance", "content", "message", "transcript")
	fields.TimestampMS = firstNonEmpty(fields.Extras, "timestamp_ms", "ts_ms", "offset_ms", "timestamp")
	return fields
}

func firstNonEmpty(m map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(m[k]); v != "" {
			return v
		}
	}
	return ""
}
