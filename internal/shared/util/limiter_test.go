package util

import (
	"context"
	"testing"
	"time"
)

func mustWait(t *testing.T, l *Limiter) time.Duration {
	t.Helper()
	waited, err := l.Wait(context.Background())
	if err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	return waited
}

func TestLimiter(t *testing.T) {
	l := NewLimiter(10, 2)

	if waited := mustWait(t, l); waited > 50*time.Millisecond {
		t.Errorf("expected first token at once, waited %v", waited)
	}
	if waited := mustWait(t, l); waited > 50*time.Millisecond {
		t.Errorf("expected second token at once (burst), waited %v", waited)
	}
	if waited := mustWait(t, l); waited < 50*time.Millisecond {
		t.Errorf("expected third token to be held back, waited %v", waited)
	}
}

func TestLimiter_ZeroBurstStillAdmits(t *testing.T) {
	l := NewLimiter(10, 0)
	if waited := mustWait(t, l); waited > 50*time.Millisecond {
		t.Errorf("expected a burst of at least one, waited %v", waited)
	}
}

func TestLimiter_Wait(t *testing.T) {
	l := NewLimiter(100, 1)
	mustWait(t, l)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	waited, err := l.Wait(ctx)
	if err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	if waited < 5*time.Millisecond {
		t.Errorf("expected to be held back, waited %v", waited)
	}
}

func TestLimiter_WaitCancelled(t *testing.T) {
	l := NewLimiter(0.001, 1)
	mustWait(t, l)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := l.Wait(ctx); err == nil {
		t.Fatal("expected cancelled wait to fail")
	}
}

func TestLimiter_WaitBeyondDeadlineFailsFast(t *testing.T) {
	l := NewLimiter(1, 1)
	mustWait(t, l)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	waited, err := l.Wait(ctx)
	if err == nil {
		t.Fatal("expected wait past the deadline to fail")
	}
	if waited > 100*time.Millisecond {
		t.Errorf("expected an immediate failure, waited %v", waited)
	}
}

func TestLimiterRegistry(t *testing.T) {
	reg := NewLimiterRegistry(100, 10, time.Minute)
	now := time.Unix(1_700_000_000, 0)
	reg.now = func() time.Time { return now }

	l1 := reg.Get("api.example.com")
	l2 := reg.Get("cdn.example.com")
	if l1 == l2 {
		t.Error("expected different limiters for different hosts")
	}
	if reg.Get("api.example.com") != l1 {
		t.Error("expected same limiter for same host")
	}
	if reg.Len() != 2 {
		t.Fatalf("expected 2 limiters, got %d", reg.Len())
	}

	now = now.Add(30 * time.Second)
	reg.Get("api.example.com")

	now = now.Add(45 * time.Second)
	if reg.Get("api.example.com") != l1 {
		t.Error("recently used limiter must survive the sweep")
	}
	if reg.Len() != 1 {
		t.Fatalf("expected idle limiter to be swept, have %d", reg.Len())
	}
	if reg.Get("cdn.example.com") == l2 {
		t.Error("expected swept limiter to be replaced")
	}
}
