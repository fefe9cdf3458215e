package pool

import (
	"errors"
	"testing"
	"time"
)

func TestWorkerSupervisor_RestartsCrashedWorkerOneForOne(t *testing.T) {
	p := newTestPool(t, 2)
	ws := p.sup.workers()

	victim := ws.WorkerAt(0)
	survivor := ws.WorkerAt(1)
	victimID := victim.id

	// Force the outer recover in workerUnit.run to fire by closing the
	// done channel twice would panic; instead simulate a fatal fault by
	// invoking the crash path the supervisor itself reacts to.
	p.sup.onWorkerCrash(0, errors.New("simulated fault"))

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if ws2 := p.sup.workers(); ws2.WorkerAt(0) != nil && ws2.WorkerAt(0) != victim {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	respawned := p.sup.workers().WorkerAt(0)
	if respawned == victim {
		t.Fatal("expected worker 0 to be respawned as a new instance")
	}
	if respawned.id != victimID {
		t.Fatalf("expected respawned worker to keep id %s, got %s", victimID, respawned.id)
	}

	if p.sup.workers().WorkerAt(1) != survivor {
		t.Fatal("expected worker 1 to survive worker 0's restart untouched")
	}
}

func TestSupervisor_TerminateStopsEverythingIdempotently(t *testing.T) {
	reg := NewRegistry()
	p, err := reg.StartLink("terminate-me", WithWorkers(2))
	if err != nil {
		t.Fatalf("StartLink: %v", err)
	}

	p.Stop()
	p.Stop() // idempotent

	if p.sup.Alive() {
		t.Fatal("expected supervisor to report terminated")
	}
	if _, err := reg.Lookup("terminate-me"); err != ErrNoProc {
		t.Fatalf("expected ErrNoProc post-termination, got %v", err)
	}
}

func TestRestartTracker_TripsOnExceededIntensity(t *testing.T) {
	rt := &restartTracker{intensity: 2, period: time.Minute}

	ok1, _ := rt.record()
	ok2, _ := rt.record()
	ok3, _ := rt.record()

	if !ok1 || !ok2 {
		t.Fatal("expected first two restarts within budget")
	}
	if ok3 {
		t.Fatal("expected third restart to exceed intensity budget")
	}
}

func TestRestartTracker_PrunesOldEntries(t *testing.T) {
	rt := &restartTracker{intensity: 1, period: 30 * time.Millisecond}

	ok1, _ := rt.record()
	if !ok1 {
		t.Fatal("expected first restart within budget")
	}

	time.Sleep(50 * time.Millisecond)

	ok2, _ := rt.record()
	if !ok2 {
		t.Fatal("expected restart after the window elapsed to be within budget again")
	}
}
