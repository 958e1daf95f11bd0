package ingest

import (
	"testing"

	"callwire/internal/normalize"
)

func TestParseLineJSON(t *testing.T) {
	p := NewParser()
	fields, err := p.ParseLine(`{"call_id":"c-1","speaker":"agent","text":"hello there","timestamp_ms":1500}`)
	if err != nil {
		t.Fatalf("ParseLine: %v", err)
	}
	if fields.CallID != "c-1" || fields.Speaker != "agent" || fields.Text != "hello there" {
		t.Fatalf("unexpected fields: %+v", fields)
	}
	if fields.TimestampMS != "1500" {
		t.Fatalf("timestamp = %q", fields.TimestampMS)
	}
}

func TestParseLineJSONAliases(t *testing.T) {
	p := NewParser()
	fields, err := p.ParseLine(`{"session_id":"c-2","role":"caller","utterance":"stop calling me","offset_ms":"90"}`)
	if err != nil {
		t.Fatalf("ParseLine: %v", err)
	}
	if fields.CallID != "c-2" {
		t.Fatalf("call id alias not honored: %q", fields.CallID)
	}
	if fields.Speaker != "caller" || fields.Text != "stop calling me" || fields.TimestampMS != "90" {
		t.Fatalf("unexpected fields: %+v", fields)
	}
}

func TestParseLineSpeakerPrefix(t *testing.T) {
	p := NewParser()
	fields, err := p.ParseLine("Agent: hi, this is mike from acme")
	if err != nil {
		t.Fatalf("ParseLine: %v", err)
	}
	if fields.Speaker != "Agent" {
		t.Fatalf("speaker = %q", fields.Speaker)
	}
	if fields.Text != "hi, this is mike from acme" {
		t.Fatalf("text = %q", fields.Text)
	}
}

func TestParseLineUnknownPrefixKeptAsText(t *testing.T) {
	p := NewParser()
	// "Note" is not a recognized speaker alias, so the colon is part of
	// the utterance, not a speaker marker.
	fields, err := p.ParseLine("Note: customer sounded upset")
	if err != nil {
		t.Fatalf("ParseLine: %v", err)
	}
	if fields.Speaker != "" {
		t.Fatalf("speaker = %q", fields.Speaker)
	}
	if fields.Text != "Note: customer sounded upset" {
		t.Fatalf("text = %q", fields.Text)
	}
}

func TestParseLinePlainText(t *testing.T) {
	p := NewParser()
	fields, err := p.ParseLine("  please don't call me again  ")
	if err != nil {
		t.Fatalf("ParseLine: %v", err)
	}
	if fields.Text != "please don't call me again" {
		t.Fatalf("text = %q", fields.Text)
	}
	if fields.Speaker != "" {
		t.Fatalf("speaker should be empty, got %q", fields.Speaker)
	}
}

func TestParseLineBlank(t *testing.T) {
	p := NewParser()
	fields, err := p.ParseLine("   ")
	if err != nil || fields != nil {
		t.Fatalf("blank line should yield nil, nil; got %+v, %v", fields, err)
	}
}

func TestParseLineMalformedJSONFallsBack(t *testing.T) {
	p := NewParser()
	fields, err := p.ParseLine(`{"call_id": broken`)
	if err != nil {
		t.Fatalf("ParseLine: %v", err)
	}
	if fields.Text != `{"call_id": broken` {
		t.Fatalf("malformed JSON should fall back to plain text, got %q", fields.Text)
	}
}

func TestParseSpeakerAliases(t *testing.T) {
	cases := map[string]string{
		"agent":    "agent",
		"REP":      "agent",
		"operator": "agent",
		"customer": "customer",
		"Caller":   "customer",
		"prospect": "customer",
		"narrator": "",
		"":         "",
	}
	for in, want := range cases {
		if got := string(normalize.ParseSpeaker(in)); got != want {
			t.Fatalf("ParseSpeaker(%q) = %q, want %q", in, got, want)
		}
	}
}
