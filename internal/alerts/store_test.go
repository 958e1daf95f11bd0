package alerts

import (
	"fmt"
	"testing"
	"time"

	"callwire/internal/model"
)

func TestStoreBounded(t *testing.T) {
	s := NewStore(3)
	for i := 0; i < 5; i++ {
		s.Add(model.Alert{ID: fmt.Sprintf("a%d", i), CallID: "c-1"})
	}
	list := s.List(0)
	if len(list) != 3 {
		t.Fatalf("expected 3 alerts, got %d", len(list))
	}
	if list[0].ID != "a2" || list[2].ID != "a4" {
		t.Fatalf("oldest alerts not evicted: %v", list)
	}
}

func TestStoreListLimit(t *testing.T) {
	s := NewStore(10)
	for i := 0; i < 5; i++ {
		s.Add(model.Alert{ID: fmt.Sprintf("a%d", i)})
	}
	list := s.List(2)
	if len(list) != 2 || list[0].ID != "a3" || list[1].ID != "a4" {
		t.Fatalf("List(2) = %v", list)
	}
}

func TestStoreSince(t *testing.T) {
	s := NewStore(10)
	base := time.Now().UTC()
	s.Add(model.Alert{ID: "old", CreatedAt: base.Add(-time.Minute)})
	s.Add(model.Alert{ID: "new", CreatedAt: base.Add(time.Minute)})
	list := s.Since(base)
	if len(list) != 1 || list[0].ID != "new" {
		t.Fatalf("Since = %v", list)
	}
}

func TestStoreForCall(t *testing.T) {
	s := NewStore(10)
	s.Add(model.Alert{ID: "a", CallID: "c-1"})
	s.Add(model.Alert{ID: "b", CallID: "c-2"})
	s.Add(model.Alert{ID: "c", CallID: "c-1"})
	list := s.ForCall("c-1")
	if len(list) != 2 || list[0].ID != "a" || list[1].ID != "c" {
		t.Fatalf("ForCall = %v", list)
	}
}
