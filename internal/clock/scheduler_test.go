package clock

import (
	"context"
	"testing"
)

func TestTimeoutAdvancesVirtualTime(t *testing.T) {
	s := New()
	var observed float64
	s.Spawn(func(p *Process) {
		p.Timeout(10)
		observed = p.Now()
	})
	if err := s.Run(context.Background(), 100); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if observed != 10 {
		t.Fatalf("observed = %v, want 10", observed)
	}
}

func TestFIFOTieBreakAtSameInstant(t *testing.T) {
	s := New()
	var order []int
	s.Spawn(func(p *Process) {
		p.Timeout(5)
		order = append(order, 1)
	})
	s.Spawn(func(p *Process) {
		p.Timeout(5)
		order = append(order, 2)
	})
	s.Spawn(func(p *Process) {
		p.Timeout(5)
		order = append(order, 3)
	})
	if err := s.Run(context.Background(), 10); err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := []int{1, 2, 3}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestInterruptDuringTimeoutReturnsInterrupted(t *testing.T) {
	s := New()
	var gotErr error
	var woke float64

	victim := s.Spawn(func(p *Process) {
		err := p.Timeout(100)
		gotErr = err
		woke = p.Now()
	})

	s.Spawn(func(p *Process) {
		p.Timeout(4)
		s.Interrupt(victim, "test-interrupt")
	})

	if err := s.Run(context.Background(), 200); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if gotErr == nil {
		t.Fatalf("expected an Interrupted error, got nil")
	}
	interrupted, ok := gotErr.(*Interrupted)
	if !ok {
		t.Fatalf("expected *Interrupted, got %T", gotErr)
	}
	if interrupted.Reason != "test-interrupt" {
		t.Fatalf("Reason = %q, want %q", interrupted.Reason, "test-interrupt")
	}
	if woke != 4 {
		t.Fatalf("woke = %v, want 4", woke)
	}
}

func TestInterruptOnAlreadyFinishedProcessIsNoop(t *testing.T) {
	s := New()
	p := s.Spawn(func(p *Process) {
		// Completes immediately, no suspension.
	})
	if !p.Done() {
		t.Fatalf("expected process to be done immediately")
	}
	s.Interrupt(p, "too-late") // must not panic or corrupt the queue
	if err := s.Run(context.Background(), 10); err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestAwaitResumesAfterSubCompletes(t *testing.T) {
	s := New()
	var parentResumedAt float64

	sub := s.Spawn(func(p *Process) {
		p.Timeout(7)
	})

	s.Spawn(func(p *Process) {
		p.Await(sub)
		parentResumedAt = p.Now()
	})

	if err := s.Run(context.Background(), 50); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if parentResumedAt != 7 {
		t.Fatalf("parentResumedAt = %v, want 7", parentResumedAt)
	}
}

func TestAwaitOnAlreadyDoneSubResumesImmediately(t *testing.T) {
	s := New()
	sub := s.Spawn(func(p *Process) {})
	var resumedAt float64
	s.Spawn(func(p *Process) {
		p.Timeout(3)
		p.Await(sub)
		resumedAt = p.Now()
	})
	if err := s.Run(context.Background(), 20); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if resumedAt != 3 {
		t.Fatalf("resumedAt = %v, want 3", resumedAt)
	}
}

func TestRunStopsAtHorizonEvenWithPendingEvents(t *testing.T) {
	s := New()
	var ran bool
	s.Spawn(func(p *Process) {
		p.Timeout(1000)
		ran = true
	})
	if err := s.Run(context.Background(), 10); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if ran {
		t.Fatalf("process should not have resumed past the horizon")
	}
	if s.Now() != 10 {
		t.Fatalf("Now() = %v, want 10", s.Now())
	}
}

func TestRunRespectsContextCancellation(t *testing.T) {
	s := New()
	s.Spawn(func(p *Process) {
		p.Timeout(1)
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.Run(ctx, 100); err == nil {
		t.Fatalf("expected context error, got nil")
	}
}
