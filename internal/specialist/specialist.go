// Package specialist implements the fleet specialist work loop described in
// spec.md §4.5, grounded on original_source's FleetSpecialist.py and
// generalized from car-simulator/internal/simulator/charging.go's
// FindNearestChargingStation brute-force nearest-by-distance scan.
package specialist

import (
	"log/slog"
	"math"
	"sort"

	"fleet-simulator/internal/clock"
	"fleet-simulator/internal/geo"
	"fleet-simulator/internal/mapiface"
	"fleet-simulator/internal/parking"
	"fleet-simulator/internal/task"
	"fleet-simulator/internal/vehicle"
)

// Config bundles the timing and scope parameters for one FleetSpecialist,
// kept as plain fields (rather than a dependency on internal/config) for the
// same reason vehicle.Thresholds is: this package must never import the
// config loader.
type Config struct {
	StartTime          float64
	SwapSpeedMS        float64 // van driving speed, m/s
	TimePerSwapSingle  float64 // seconds to swap one vehicle's battery
	TimePerSwapMulti   float64 // seconds per vehicle when swapping a batch at one spot
	PollInterval       float64 // seconds to wait before re-checking when no task is available
	FocusArea          string  // empty means no area restriction

	VanBatteryCapacity     int     // charged batteries the van carries between refills
	RefillVanBatteriesTime float64 // seconds spent restocking once the van runs out

	Thresholds vehicle.Thresholds // needed to resume a vehicle's idle process after a swap
}

// Resolver performs the actual side effect of resolving a task once its
// vehicle's battery has been swapped — declared narrowly here so this
// package never imports internal/data directly.
type Resolver interface {
	ResolveTask(t *task.Task, resolvedBy int, resolvedTime float64, distanceDriven float64)
}

// SpotLookup and VehicleLookup mirror the rider package's arena accessors.
type SpotLookup func(id int) *parking.Spot
type VehicleLookup func(id int) *vehicle.Vehicle

// Specialist is a single fleet specialist (van), identified by ID, parked at
// a starting spot and driven entirely by its work loop: it never idles or
// drains its own battery (spec.md's Non-goals exclude optimized specialist
// routing and specialist-vehicle modeling — the van itself has no battery).
type Specialist struct {
	ID     int
	SpotID int

	cfg       Config
	registry  *task.Registry
	spotOf    SpotLookup
	vehicleOf VehicleLookup
	m         mapiface.Map
	resolver  Resolver

	vanStock int // charged batteries remaining before the next refill trip
}

// New constructs a Specialist parked at startSpotID and spawns its work loop
// on sched once cfg.StartTime has elapsed.
func New(id int, sched *clock.Scheduler, registry *task.Registry, startSpotID int, cfg Config, spotOf SpotLookup, vehicleOf VehicleLookup, m mapiface.Map, resolver Resolver) *Specialist {
	s := &Specialist{
		ID:        id,
		SpotID:    startSpotID,
		cfg:       cfg,
		registry:  registry,
		spotOf:    spotOf,
		vehicleOf: vehicleOf,
		m:         m,
		resolver:  resolver,
	}
	sched.Spawn(func(p *clock.Process) { s.workLoop(p) })
	return s
}

func (s *Specialist) workLoop(p *clock.Process) {
	if wait := s.cfg.StartTime - p.Now(); wait > 0 {
		if err := p.Timeout(wait); err != nil {
			return
		}
	}
	s.registry.AddSpecialist(s.ID)
	s.vanStock = s.cfg.VanBatteryCapacity

	waitingLogged := false
	for {
		for s.vanStock > 0 {
			candidates := s.planCandidates()
			if len(candidates) == 0 {
				if !waitingLogged {
					slog.Info("no tasks available, waiting", "specialist_id", s.ID)
					waitingLogged = true
				}
				if err := p.Timeout(s.cfg.PollInterval); err != nil {
					return
				}
				continue
			}
			waitingLogged = false

			chosen := s.nearestTask(candidates)
			batch := s.tasksAtSameSpot(candidates, s.locate(chosen))

			driveTime := s.driveTo(s.locate(chosen))
			if err := p.Timeout(driveTime); err != nil {
				return
			}
			s.SpotID = s.vehicleSpotID(chosen.VehicleID)

			valid := s.validBatch(batch)
			if len(valid) == 0 {
				continue
			}

			swapDuration := s.cfg.TimePerSwapSingle
			if len(valid) > 1 {
				swapDuration = s.cfg.TimePerSwapMulti
			}

			if err := s.swapBatch(p, valid, swapDuration); err != nil {
				return
			}
		}

		// Van exhausted: stand down and restock before planning again.
		if err := p.Timeout(s.cfg.RefillVanBatteriesTime); err != nil {
			return
		}
		s.vanStock = s.cfg.VanBatteryCapacity
	}
}

// validBatch applies spec.md §4.5 step 5's arrival validity check to every
// task the specialist planned to service at this stop: the task must still
// be active, its (dynamically resolved) location must still match where the
// specialist actually arrived, and its vehicle must not have been picked up
// for a ride in the meantime. Tasks that fail are logged as missed and
// dropped from this visit so the specialist replans rather than swapping a
// vehicle that's no longer there (or no longer eligible).
func (s *Specialist) validBatch(batch []*task.Task) []*task.Task {
	here := s.currentLocation()
	out := make([]*task.Task, 0, len(batch))
	for _, t := range batch {
		v := s.vehicleOf(t.VehicleID)
		switch {
		case t.Status != task.StatusActive:
			slog.Info("missed task", "specialist_id", s.ID, "task_id", t.ID, "reason", "not active")
		case !geo.Equal(s.locate(t), here):
			slog.Info("missed task", "specialist_id", s.ID, "task_id", t.ID, "reason", "vehicle moved")
		case v == nil || v.Status == vehicle.StatusRiding:
			slog.Info("missed task", "specialist_id", s.ID, "task_id", t.ID, "reason", "vehicle riding")
		default:
			out = append(out, t)
		}
	}
	return out
}

// swapBatch services each valid task in turn: interrupt the vehicle's idle
// process, mark the task pending (spec.md §4.5 step 6, so a second
// specialist's AvailableTasks query excludes it while the swap is under
// way), suspend for the swap, then refill, resolve, and resume idle. Stops
// mid-batch if the van runs out of charged batteries, leaving any remaining
// tasks active for a later visit.
func (s *Specialist) swapBatch(p *clock.Process, valid []*task.Task, swapDuration float64) error {
	for _, t := range valid {
		if s.vanStock <= 0 {
			return nil
		}

		v := s.vehicleOf(t.VehicleID)
		if v != nil {
			v.InterruptIdle("swap")
		}
		t.Status = task.StatusPending

		if err := p.Timeout(swapDuration); err != nil {
			return err
		}

		now := p.Now()
		s.registry.Remove(t)
		if v != nil {
			// Record the incoming level before Refill overwrites it —
			// spec.md §9's open question on battery_out timing.
			t.BatteryOut = v.Battery.Level
			t.HasOut = true
			v.Battery.Refill()
			v.HasTask = false
			v.Status = vehicle.StatusReady
			v.UpdateAvailability()
			v.ResumeIdle(s.cfg.Thresholds)
		}
		s.vanStock--
		s.resolver.ResolveTask(t, s.ID, now, 0)
		slog.Info("task resolved", "specialist_id", s.ID, "task_id", t.ID, "vehicle_id", t.VehicleID, "van_stock", s.vanStock)
	}
	return nil
}

// planCandidates mirrors FleetSpecialist.py's plan_next_task scoping rules:
// prefer bounty tasks over plain ones, restrict to the focus area if one is
// configured, and fall back to the unrestricted set if the area has nothing
// open.
func (s *Specialist) planCandidates() []*task.Task {
	all := s.registry.AvailableTasks(func(vehicleID int) bool {
		v := s.vehicleOf(vehicleID)
		return v != nil && v.Status == vehicle.StatusRiding
	})
	if len(all) == 0 {
		return nil
	}

	scoped := all
	if s.cfg.FocusArea != "" {
		inArea := filterByArea(all, s.cfg.FocusArea, s.locate, s.m)
		if len(inArea) > 0 {
			scoped = inArea
		}
	}

	bounty := make([]*task.Task, 0, len(scoped))
	for _, t := range scoped {
		if t.Bounty {
			bounty = append(bounty, t)
		}
	}
	if len(bounty) > 0 {
		return bounty
	}
	return scoped
}

func filterByArea(tasks []*task.Task, area string, locate func(*task.Task) geo.Location, m mapiface.Map) []*task.Task {
	out := make([]*task.Task, 0, len(tasks))
	for _, t := range tasks {
		if m.Contains(area, locate(t)) {
			out = append(out, t)
		}
	}
	return out
}

func (s *Specialist) locate(t *task.Task) geo.Location {
	lon, lat := s.registry.Location(t)
	return geo.New(lon, lat)
}

func (s *Specialist) vehicleSpotID(vehicleID int) int {
	v := s.vehicleOf(vehicleID)
	if v == nil {
		return s.SpotID
	}
	return v.SpotID
}

// nearestTask picks the candidate whose resolved location is closest to the
// specialist's current position by straight-line (Haversine) distance, ties
// broken by lowest task ID for deterministic replay.
func (s *Specialist) nearestTask(candidates []*task.Task) *task.Task {
	here := s.currentLocation()
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].ID < candidates[j].ID })

	best := candidates[0]
	bestDist := geo.HaversineMeters(here, s.locate(best))
	for _, t := range candidates[1:] {
		d := geo.HaversineMeters(here, s.locate(t))
		if d < bestDist {
			best = t
			bestDist = d
		}
	}
	return best
}

// tasksAtSameSpot returns every candidate whose resolved location matches
// loc exactly, grounding the TIME_PER_SWAP_MULTIPLE batching behavior: a
// specialist that arrives at a spot hosting several due-for-swap vehicles
// services all of them in one visit.
func (s *Specialist) tasksAtSameSpot(candidates []*task.Task, loc geo.Location) []*task.Task {
	out := make([]*task.Task, 0, 1)
	for _, t := range candidates {
		if geo.Equal(s.locate(t), loc) {
			out = append(out, t)
		}
	}
	return out
}

func (s *Specialist) currentLocation() geo.Location {
	spot := s.spotOf(s.SpotID)
	return geo.New(spot.Lon, spot.Lat)
}

func (s *Specialist) driveTo(dest geo.Location) float64 {
	d := s.m.DriveDistanceMeters(s.currentLocation(), dest)
	if s.cfg.SwapSpeedMS <= 0 {
		return 0
	}
	return math.Round(d / s.cfg.SwapSpeedMS)
}
