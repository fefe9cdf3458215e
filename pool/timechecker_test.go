package pool

import (
	"sync"
	"testing"
	"time"
)

func TestTimeChecker_FiresHandlerOnOverrun(t *testing.T) {
	var mu sync.Mutex
	var gotWorker string
	var gotPayload any
	fired := make(chan struct{}, 1)

	handler := func(workerID string, elapsed time.Duration, payload any) {
		mu.Lock()
		gotWorker = workerID
		gotPayload = payload
		mu.Unlock()
		select {
		case fired <- struct{}{}:
		default:
		}
	}

	tc := newTimeChecker(20*time.Millisecond, handler)
	marker := &taskMarker{taskID: "t1", startedAt: time.Now(), payload: "slow-payload"}
	tc.onStart("worker-1", marker)

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("handler never fired")
	}

	mu.Lock()
	defer mu.Unlock()
	if gotWorker != "worker-1" {
		t.Fatalf("expected worker-1, got %s", gotWorker)
	}
	if gotPayload != "slow-payload" {
		t.Fatalf("expected slow-payload, got %v", gotPayload)
	}
}

func TestTimeChecker_OnStopDisarmsTimer(t *testing.T) {
	fired := make(chan struct{}, 1)
	handler := func(workerID string, elapsed time.Duration, payload any) {
		fired <- struct{}{}
	}

	tc := newTimeChecker(30*time.Millisecond, handler)
	tc.onStart("worker-1", &taskMarker{startedAt: time.Now()})
	tc.onStop("worker-1")

	select {
	case <-fired:
		t.Fatal("handler fired despite onStop")
	case <-time.After(80 * time.Millisecond):
	}
}

func TestTimeChecker_DisabledWhenBudgetZero(t *testing.T) {
	fired := make(chan struct{}, 1)
	handler := func(workerID string, elapsed time.Duration, payload any) {
		fired <- struct{}{}
	}

	tc := newTimeChecker(0, handler)
	tc.onStart("worker-1", &taskMarker{startedAt: time.Now()})

	select {
	case <-fired:
		t.Fatal("handler should never fire when budget is 0")
	case <-time.After(50 * time.Millisecond):
	}
}
