package vehicle

import (
	"context"
	"testing"

	"fleet-simulator/internal/battery"
	"fleet-simulator/internal/clock"
	"fleet-simulator/internal/task"
)

func newTestVehicle(sched *clock.Scheduler, level float64, th Thresholds) (*Vehicle, *task.Registry) {
	reg := task.NewRegistry(func(int) (float64, float64) { return 0, 0 })
	bat := battery.New(0.02, 3600*0.1, level) // fast idle drain: 0.1 per second of idle
	v := New(1, sched, reg, 0, bat, 4.0, th)
	return v, reg
}

func TestIdleDrainGeneratesTaskAtSwapThreshold(t *testing.T) {
	sched := clock.New()
	th := Thresholds{SwapThreshold: 0.2, BountyThreshold: 0.05}
	v, reg := newTestVehicle(sched, 0.3, th)

	if err := sched.Run(context.Background(), 2); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if !v.HasTask {
		t.Fatalf("expected a task to have been generated once battery crossed the swap threshold")
	}
	if reg.Count() != 1 {
		t.Fatalf("registry Count() = %d, want 1", reg.Count())
	}
}

func TestIdleDrainRaisesBountyAtBountyThreshold(t *testing.T) {
	sched := clock.New()
	th := Thresholds{SwapThreshold: 0.2, BountyThreshold: 0.1}
	v, _ := newTestVehicle(sched, 0.3, th)

	if err := sched.Run(context.Background(), 3); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if !v.HasTask || !v.Task.Bounty {
		t.Fatalf("expected a bounty task once battery crossed the bounty threshold, got HasTask=%v Task=%+v", v.HasTask, v.Task)
	}
	if v.Available {
		t.Fatalf("expected vehicle to be unavailable once its task is a bounty")
	}
}

func TestInterruptIdleStopsDrainAtInterruptTime(t *testing.T) {
	sched := clock.New()
	th := Thresholds{SwapThreshold: 0.2, BountyThreshold: 0.05}
	v, _ := newTestVehicle(sched, 0.5, th)

	sched.Spawn(func(p *clock.Process) {
		p.Timeout(1)
		v.InterruptIdle("ride")
	})

	if err := sched.Run(context.Background(), 1); err != nil {
		t.Fatalf("Run: %v", err)
	}

	// One second of idle drain at 0.1/sec should have taken roughly 0.1 off.
	if v.Battery.Level > 0.41 || v.Battery.Level < 0.39 {
		t.Fatalf("Battery.Level = %v, want ~0.4", v.Battery.Level)
	}
}

func TestNoTaskGeneratedAboveThreshold(t *testing.T) {
	sched := clock.New()
	th := Thresholds{SwapThreshold: 0.2, BountyThreshold: 0.05}
	v, _ := newTestVehicle(sched, 0.3, th)

	sched.Spawn(func(p *clock.Process) {
		p.Timeout(0.5)
		v.InterruptIdle("stop-early")
	})

	if err := sched.Run(context.Background(), 1); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if v.HasTask {
		t.Fatalf("expected no task yet, battery still well above swap threshold")
	}
}
