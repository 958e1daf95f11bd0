package normalize

import (
	"testing"

	"callwire/internal/config"
)

func TestNormalizeDefaults(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Ingest.Parser.DefaultCallID = "tail-1"

	seg, err := Normalize(SegmentFields{Text: "hello there"}, cfg)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if seg.CallID != "tail-1" {
		t.Fatalf("call id = %q", seg.CallID)
	}
	if string(seg.Speaker) != "customer" {
		t.Fatalf("speaker = %q", seg.Speaker)
	}
}

func TestNormalizeRequiresCallID(t *testing.T) {
	cfg := config.DefaultConfig()
	if _, err := Normalize(SegmentFields{Text: "hello"}, cfg); err == nil {
		t.Fatalf("expected error without call id or default")
	}
}

func TestNormalizeRequiresText(t *testing.T) {
	cfg := config.DefaultConfig()
	if _, err := Normalize(SegmentFields{CallID: "c-1", Text: "   "}, cfg); err == nil {
		t.Fatalf("expected error for blank text")
	}
}

func TestNormalizeTimestamp(t *testing.T) {
	cfg := config.DefaultConfig()
	seg, err := Normalize(SegmentFields{CallID: "c-1", Text: "hi", TimestampMS: "2500"}, cfg)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if seg.TimestampMS != 2500 {
		t.Fatalf("timestamp = %d", seg.TimestampMS)
	}
	if _, err := Normalize(SegmentFields{CallID: "c-1", Text: "hi", TimestampMS: "not-a-number"}, cfg); err == nil {
		t.Fatalf("expected error for bad timestamp")
	}
}

func TestNormalizeSpeakerAlias(t *testing.T) {
	cfg := config.DefaultConfig()
	seg, err := Normalize(SegmentFields{CallID: "c-1", Text: "hi", Speaker: "Rep"}, cfg)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if string(seg.Speaker) != "agent" {
		t.Fatalf("speaker = %q", seg.Speaker)
	}
}
