package pool

import (
	"testing"
	"time"
)

func TestDefaultOptions(t *testing.T) {
	o := defaultOptions()
	if o.workers != 100 {
		t.Fatalf("expected default 100 workers, got %d", o.workers)
	}
	if o.queueType != FIFO {
		t.Fatalf("expected default FIFO, got %v", o.queueType)
	}
	if o.poolSupIntensity != 5 {
		t.Fatalf("expected default intensity 5, got %d", o.poolSupIntensity)
	}
	if o.poolSupPeriod != 60*time.Second {
		t.Fatalf("expected default period 60s, got %v", o.poolSupPeriod)
	}
}

func TestWithWorkers_IgnoresNonPositive(t *testing.T) {
	o := defaultOptions()
	WithWorkers(0)(o)
	if o.workers != 100 {
		t.Fatalf("expected WithWorkers(0) to be ignored, got %d", o.workers)
	}
	WithWorkers(-3)(o)
	if o.workers != 100 {
		t.Fatalf("expected WithWorkers(-3) to be ignored, got %d", o.workers)
	}
	WithWorkers(16)(o)
	if o.workers != 16 {
		t.Fatalf("expected 16 workers, got %d", o.workers)
	}
}

func TestWithOverrunHandler_DisabledByDefault(t *testing.T) {
	o := defaultOptions()
	if o.overrunBudget != 0 {
		t.Fatalf("expected overrun detection disabled by default, got budget=%v", o.overrunBudget)
	}
}

func TestOptionsNormalized_IncludesExpectedKeys(t *testing.T) {
	o := defaultOptions()
	m := o.normalized()
	for _, key := range []string{"workers", "queue_type", "pool_sup_shutdown", "pool_sup_intensity", "pool_sup_period", "enable_callbacks", "overrun_budget", "worker_affinity"} {
		if _, ok := m[key]; !ok {
			t.Fatalf("normalized options missing key %q", key)
		}
	}
}
