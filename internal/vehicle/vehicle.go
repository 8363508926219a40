// Package vehicle implements the idle-drain/ride/maintenance-threshold
// state machine described in spec.md §4.3, grounded on original_source's
// Vehicleclass.py. The idle process is the only nontrivial coroutine in the
// core; it is expressed here as a clock.Process with an interrupt-handler
// tail, following spec.md §9's guidance to prefer a channel/select cancel
// signal over exception-based interrupts — clock.Process.Timeout already
// returns a typed *clock.Interrupted error instead of raising, so the
// handler here is just an error check.
package vehicle

import (
	"log/slog"
	"math"

	"fleet-simulator/internal/battery"
	"fleet-simulator/internal/clock"
	"fleet-simulator/internal/task"
)

// Status mirrors spec.md §3's three-value Vehicle status.
type Status string

const (
	StatusReady  Status = "ready"
	StatusRiding Status = "riding"
	StatusBounty Status = "bounty"
)

// Thresholds bundles the battery-level configuration a Vehicle needs. Kept
// as plain floats (rather than a dependency on internal/config) so this
// package never has to import the config loader.
type Thresholds struct {
	SwapThreshold   float64
	BountyThreshold float64
}

// Vehicle is identified by a stable integer ID; its ParkingSpot is referenced
// by ID (SpotID), and its Task is held as a *task.Task whose back-reference
// to the vehicle is an ID (Task.VehicleID). This arena-style indirection
// keeps Vehicle<->ParkingSpot<->Vehicle and Vehicle<->Task<->Vehicle from
// forming a literal pointer cycle.
type Vehicle struct {
	ID      int
	Battery *battery.Battery
	SpotID  int
	Status  Status

	HasTask bool
	Task    *task.Task

	Available bool

	riding   float64 // m/s
	sched    *clock.Scheduler
	registry *task.Registry

	idleProc  *clock.Process
	idleStart float64
}

// New constructs a Vehicle already parked at spotID, with its idle process
// spawned on sched. Matches Vehicleclass.py's constructor, which immediately
// runs check_maintenance_need (in case the vehicle was seeded below
// threshold) and spawns the idle coroutine.
func New(id int, sched *clock.Scheduler, registry *task.Registry, spotID int, bat *battery.Battery, ridingSpeedMS float64, th Thresholds) *Vehicle {
	v := &Vehicle{
		ID:        id,
		Battery:   bat,
		SpotID:    spotID,
		Status:    StatusReady,
		Available: true,
		riding:    ridingSpeedMS,
		sched:     sched,
		registry:  registry,
	}
	v.CheckMaintenanceNeed(th)
	v.idleProc = sched.Spawn(func(p *clock.Process) { v.idleLoop(p, th) })
	return v
}

// CheckMaintenanceNeed implements spec.md §4.3's check_maintenance_need: a
// task is created once, the first time level crosses SwapThreshold, and a
// bounty is raised once level also crosses BountyThreshold. Exported so
// internal/data's DataInterface can trigger it at the end of a ride,
// per spec.md §4.4 step 5 and §4.7 step 4.
func (v *Vehicle) CheckMaintenanceNeed(th Thresholds) {
	if v.Battery.Level <= th.SwapThreshold && !v.HasTask {
		v.generateTask()
	}
	if v.Battery.Level <= th.BountyThreshold && v.HasTask && !v.Task.Bounty {
		v.Task.Bounty = true
		v.Task.HasBounty = true
		v.Task.BountyTime = v.sched.Now()
		v.Status = StatusBounty
	}
}

func (v *Vehicle) generateTask() {
	t := v.registry.New(v.ID, v.sched.Now(), v.Battery.Level)
	v.Task = t
	v.HasTask = true
	slog.Info("vehicle task created",
		"vehicle_id", v.ID,
		"task_id", t.ID,
		"task_type", t.Type,
		"battery_level", v.Battery.Level)
}

// UpdateAvailability implements spec.md §4.3's update_availability.
func (v *Vehicle) UpdateAvailability() {
	v.Available = !v.HasTask || !v.Task.Bounty
}

// idleLoop is the idle coroutine: pick the next threshold below the current
// level, suspend for the time it takes idle drain to reach it, and either
// apply the threshold update and restart, or — if interrupted first — apply
// the partial discharge for the time actually spent idle and return.
func (v *Vehicle) idleLoop(p *clock.Process, th Thresholds) {
	var target float64
	switch {
	case v.Battery.Level > th.SwapThreshold:
		target = th.SwapThreshold
	case v.Battery.Level > th.BountyThreshold:
		target = th.BountyThreshold
	default:
		target = 0
	}

	rate := v.Battery.IdleRate()
	var delta float64
	if rate > 0 {
		delta = math.Round((v.Battery.Level - target) / rate)
	}

	v.idleStart = p.Now()
	err := p.Timeout(delta)
	if err != nil {
		// Interrupted: account for the idle time actually elapsed and stop.
		// interrupt_idle_process's caller is responsible for what happens
		// next (ride, swap) and for calling ResumeIdle when that's done.
		timeIdle := p.Now() - v.idleStart
		v.Battery.DischargeIdle(timeIdle)
		return
	}

	v.Battery.Level = target
	v.CheckMaintenanceNeed(th)
	v.UpdateAvailability()
	if v.Battery.Level > 0 {
		v.ResumeIdle(th)
	}
}

// InterruptIdle requests interrupt of the idle process if it is currently
// suspended; otherwise it is a silent no-op, per spec.md §5. Must be called
// exactly once before any non-idle activity (ride, swap) begins.
func (v *Vehicle) InterruptIdle(reason string) {
	v.sched.Interrupt(v.idleProc, reason)
}

// ResumeIdle restarts the idle process. Callers (Rider, FleetSpecialist) are
// responsible for calling this once the activity that followed
// InterruptIdle has finished.
func (v *Vehicle) ResumeIdle(th Thresholds) {
	v.idleProc = v.sched.Spawn(func(p *clock.Process) { v.idleLoop(p, th) })
}

// Ride suspends the calling process for the time a ride of the given
// distance takes at the vehicle's riding speed, then applies the ride
// discharge. The caller supplies distanceM (Rider passes the bike distance
// between the two spots); Ride neither computes a distance itself nor
// accepts a separate override distance. Status transitions around the ride belong to the caller
// (data.Interface.VehicleRide), per spec.md §4.3.
func (v *Vehicle) Ride(p *clock.Process, distanceM float64) {
	t := math.Round(distanceM / v.riding)
	_ = p.Timeout(t) // a ride is never interrupted once under way
	v.Battery.DischargeRide(distanceM)
}
