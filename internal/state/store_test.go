package state

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

func TestStore_RecordSuccess(t *testing.T) {
	var s Store

	before := time.Now()
	s.Record(StreamTail, nil)

	h := s.Health(StreamTail)
	if h.LastUpdated.Before(before) {
		t.Fatalf("LastUpdated = %v, want >= %v", h.LastUpdated, before)
	}
	if h.LastError != nil || h.ConsecutiveFailures != 0 {
		t.Fatalf("health = %#v, want clean", h)
	}
}

func TestStore_RecordErrorClonesError(t *testing.T) {
	var s Store

	origErr := errors.New("boom")
	s.Record(StreamGroupings, origErr)

	h := s.Health(StreamGroupings)
	if h.LastError == nil || h.LastError.Error() != "boom" {
		t.Fatalf("LastError = %v, want boom", h.LastError)
	}
	if !errors.Is(h.LastError, origErr) {
		t.Fatalf("LastError should wrap the recorded error")
	}
	if reflect.ValueOf(h.LastError).Pointer() == reflect.ValueOf(origErr).Pointer() {
		t.Fatalf("Health should clone error instance")
	}
}

func TestStore_ConsecutiveFailures(t *testing.T) {
	var s Store

	if s.Health(StreamTail).IsOffline() {
		t.Fatal("IsOffline() = true, want false with 0 failures")
	}

	s.Record(StreamTail, errors.New("fail 1"))
	if h := s.Health(StreamTail); h.ConsecutiveFailures != 1 || h.IsOffline() {
		t.Fatalf("after 1 failure: %#v", h)
	}

	s.Record(StreamTail, errors.New("fail 2"))
	if h := s.Health(StreamTail); h.ConsecutiveFailures != 2 || !h.IsOffline() {
		t.Fatalf("after 2 failures: %#v", h)
	}
	if !s.Snapshot().Offline() {
		t.Fatal("Snapshot().Offline() = false, want true")
	}

	// Other streams are tracked independently.
	if s.Health(StreamGroupings).IsOffline() {
		t.Fatal("groupings offline, want online")
	}

	s.Record(StreamTail, nil)
	if h := s.Health(StreamTail); h.ConsecutiveFailures != 0 || h.IsOffline() {
		t.Fatalf("after success: %#v", h)
	}
	if s.Snapshot().Offline() {
		t.Fatal("Snapshot().Offline() = true after recovery")
	}
}

func TestStore_NilIsInert(t *testing.T) {
	var s *Store
	s.Record(StreamTail, errors.New("ignored"))
	if h := s.Health(StreamTail); h.ConsecutiveFailures != 0 {
		t.Fatalf("nil store health = %#v", h)
	}
	if len(s.Snapshot()) != 0 {
		t.Fatal("nil store snapshot not empty")
	}
}
