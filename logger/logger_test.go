package logger

import (
	"sync/atomic"
	"testing"
)

func TestWithComponent(t *testing.T) {
	log := Logger()
	entry := log.WithComponent("test")
	if v, ok := entry.Entry.Data["component"]; !ok || v != "test" {
		t.Fatalf("component field missing: %v", entry.Entry.Data)
	}
}

func TestConfigureInvalidLevel(t *testing.T) {
	// Ensure environment variables do not override the provided level
	t.Setenv("LOG_LEVEL", "")

	log := Logger()
	if err := log.Configure("invalid", "json", "stdout", 0); err == nil {
		t.Fatalf("expected error for invalid level")
	}
}

func TestConfigureInvalidFormat(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")

	log := Logger()
	if err := log.Configure("info", "xml", "stdout", 0); err == nil {
		t.Fatalf("expected error for invalid format")
	}
}

func TestRecordFetchCounters(t *testing.T) {
	before := atomic.LoadInt64(&fetchesTotal)
	failBefore := atomic.LoadInt64(&failuresTotal)

	RecordFetch("okx", false)
	RecordFetch("okx", true)

	if got := atomic.LoadInt64(&fetchesTotal) - before; got != 2 {
		t.Errorf("fetches delta = %d, want 2", got)
	}
	if got := atomic.LoadInt64(&failuresTotal) - failBefore; got != 1 {
		t.Errorf("failures delta = %d, want 1", got)
	}

	v, ok := exchanges.Load("okx")
	if !ok {
		t.Fatal("per-exchange stat missing")
	}
	es := v.(*exchangeStat)
	if atomic.LoadInt64(&es.fetches) < 2 {
		t.Errorf("okx fetches = %d, want >= 2", es.fetches)
	}
}
