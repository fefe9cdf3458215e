package pool

import (
	"testing"
)

func TestRegistry_StartLinkRejectsDuplicateName(t *testing.T) {
	reg := NewRegistry()
	p, err := reg.StartLink("dup", WithWorkers(2))
	if err != nil {
		t.Fatalf("StartLink: %v", err)
	}
	defer p.Stop()

	if _, err := reg.StartLink("dup", WithWorkers(2)); err != ErrAlreadyStarted {
		t.Fatalf("expected ErrAlreadyStarted, got %v", err)
	}
}

func TestRegistry_LookupFailsForUnknownName(t *testing.T) {
	reg := NewRegistry()
	if _, err := reg.Lookup("missing"); err != ErrNoProc {
		t.Fatalf("expected ErrNoProc, got %v", err)
	}
}

func TestRegistry_StopRemovesEntry(t *testing.T) {
	reg := NewRegistry()
	p, err := reg.StartLink("stoppable", WithWorkers(1))
	if err != nil {
		t.Fatalf("StartLink: %v", err)
	}
	_ = p

	if err := reg.Stop("stoppable"); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if _, err := reg.Lookup("stoppable"); err != ErrNoProc {
		t.Fatalf("expected ErrNoProc after Stop, got %v", err)
	}
}

func TestRegistry_RebuildSucceedsOnMissingEntry(t *testing.T) {
	reg := NewRegistry()
	p, err := reg.StartLink("rebuild-me", WithWorkers(3))
	if err != nil {
		t.Fatalf("StartLink: %v", err)
	}
	defer p.Stop()

	reg.mu.Lock()
	delete(reg.pools, "rebuild-me")
	reg.mu.Unlock()

	rebuilt, err := reg.Rebuild("rebuild-me")
	if err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	if _, err := rebuilt.BestWorker(); err != nil {
		t.Fatalf("BestWorker after rebuild: %v", err)
	}
}
