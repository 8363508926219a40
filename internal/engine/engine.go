// Package engine assembles every subsystem into one runnable simulation,
// grounded on original_source's Simulationclass.py (world construction,
// the periodic Gini-coefficient snapshot, generate_uniform_demand wiring)
// and on car-simulator/cmd/main.go's graceful-shutdown pattern, restyled
// around golang.org/x/sync/errgroup the way niceyeti-tabular coordinates
// its worker goroutines.
package engine

import (
	"context"
	"log/slog"
	"math/rand"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"fleet-simulator/internal/battery"
	"fleet-simulator/internal/clock"
	"fleet-simulator/internal/config"
	"fleet-simulator/internal/data"
	"fleet-simulator/internal/demand"
	"fleet-simulator/internal/geo"
	"fleet-simulator/internal/httpapi"
	"fleet-simulator/internal/mapiface"
	"fleet-simulator/internal/parking"
	"fleet-simulator/internal/results"
	"fleet-simulator/internal/rider"
	"fleet-simulator/internal/specialist"
	"fleet-simulator/internal/task"
	"fleet-simulator/internal/vehicle"
)

const shutdownGrace = 5 * time.Second

// Engine owns every arena table in the simulation (spots, vehicles, tasks)
// and the scheduler driving them. Its fields are unexported: every other
// package only ever sees Engine through the narrow lookup closures it hands
// out, per spec.md §9's arena-table guidance.
type Engine struct {
	cfg   config.Config
	sched *clock.Scheduler
	m     mapiface.Map

	spots    map[int]*parking.Spot
	vehicles map[int]*vehicle.Vehicle
	registry *task.Registry

	thresholds vehicle.Thresholds
	dataIface  *data.Interface
	sink       results.Sink

	specialists []*specialist.Specialist
	debugSrv    *httpapi.Server
}

// New constructs an Engine: places cfg.VehicleCount vehicles across
// spotLocations, derives neighbor relationships from cfg.WalkRadiusM,
// spawns cfg.SpecialistCount fleet specialists, and schedules
// cfg.RidersPerHour worth of rider demand over the run's duration.
func New(cfg config.Config, m mapiface.Map, spotLocations []geo.Location, sink results.Sink, stream data.EventStreamer, debugSrv *httpapi.Server) *Engine {
	sched := clock.New()

	e := &Engine{
		cfg:      cfg,
		sched:    sched,
		m:        m,
		spots:    make(map[int]*parking.Spot),
		vehicles: make(map[int]*vehicle.Vehicle),
		thresholds: vehicle.Thresholds{
			SwapThreshold:   cfg.SwapThreshold,
			BountyThreshold: cfg.BountyThreshold,
		},
		sink:     sink,
		debugSrv: debugSrv,
	}

	for i, loc := range spotLocations {
		e.spots[i] = parking.New(i, loc.Lon, loc.Lat)
	}
	e.wireNeighbors(spotLocations)

	e.registry = task.NewRegistry(func(vehicleID int) (lon, lat float64) {
		v := e.vehicles[vehicleID]
		if v == nil {
			return 0, 0
		}
		spot := e.spots[v.SpotID]
		return spot.Lon, spot.Lat
	})
	e.dataIface = data.New(sink, e.registry, stream)

	e.placeVehicles()
	e.spawnSpecialists()
	e.spawnDemand()

	return e
}

func (e *Engine) wireNeighbors(spotLocations []geo.Location) {
	for i, loc := range spotLocations {
		for _, j := range e.m.NeighborIndices(loc, spotLocations, e.cfg.WalkRadiusM) {
			e.spots[i].AddNeighbor(j)
		}
	}
}

func (e *Engine) placeVehicles() {
	rnd := rand.New(rand.NewSource(e.cfg.RandomSeed))
	spotIDs := e.sortedSpotIDs()
	if len(spotIDs) == 0 {
		return
	}
	for i := 0; i < e.cfg.VehicleCount; i++ {
		spotID := spotIDs[rnd.Intn(len(spotIDs))]
		bat := vehicleBattery(e.cfg)
		v := vehicle.New(i, e.sched, e.registry, spotID, bat, e.cfg.RidingSpeedMS, e.thresholds)
		e.vehicles[i] = v
		e.spots[spotID].AddVehicle(i)
	}
}

func vehicleBattery(cfg config.Config) *battery.Battery {
	return battery.New(cfg.DischargeRideKm, cfg.DischargeIdleHour, cfg.InitialBattery)
}

func (e *Engine) spawnSpecialists() {
	spotIDs := e.sortedSpotIDs()
	if len(spotIDs) == 0 {
		return
	}
	cfg := specialist.Config{
		StartTime:              e.cfg.SpecialistStartTime,
		SwapSpeedMS:            e.cfg.SpecialistSpeedMS,
		TimePerSwapSingle:      e.cfg.TimePerSwapSingle,
		TimePerSwapMulti:       e.cfg.TimePerSwapMultiple,
		PollInterval:           e.cfg.SpecialistPollInterval,
		FocusArea:              e.cfg.FocusArea,
		VanBatteryCapacity:     e.cfg.VanBatteryCapacity,
		RefillVanBatteriesTime: e.cfg.RefillVanBatteriesTime,
		Thresholds:             e.thresholds,
	}
	for i := 0; i < e.cfg.SpecialistCount; i++ {
		start := spotIDs[i%len(spotIDs)]
		s := specialist.New(1000+i, e.sched, e.registry, start, cfg, e.spotLookup, e.vehicleLookup, e.m, e.dataIface)
		e.specialists = append(e.specialists, s)
	}
}

func (e *Engine) spawnDemand() {
	spotIDs := e.sortedSpotIDs()
	gen := demand.New(e.cfg.RandomSeed+1, spotIDs, e.cfg.RidersPerHour, e.cfg.SimDurationSeconds)
	for _, req := range gen.Generate() {
		req := req
		e.sched.Spawn(func(p *clock.Process) {
			rider.Run(p, req, e.spotLookup, e.vehicleLookup, e.m, e.thresholds, e.dataIface)
		})
	}
}

func (e *Engine) spotLookup(id int) *parking.Spot     { return e.spots[id] }
func (e *Engine) vehicleLookup(id int) *vehicle.Vehicle { return e.vehicles[id] }

func (e *Engine) sortedSpotIDs() []int {
	ids := make([]int, 0, len(e.spots))
	for id := range e.spots {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Run drives the scheduler to cfg.SimDurationSeconds, running the periodic
// snapshot loop and (if configured) the debug HTTP server alongside it,
// coordinating shutdown with an errgroup the way car-simulator's main.go
// coordinates its signal handler with the HTTP server's graceful Shutdown.
func (e *Engine) Run(ctx context.Context) error {
	e.sched.Spawn(func(p *clock.Process) { e.snapshotLoop(p) })

	g, gctx := errgroup.WithContext(ctx)

	if e.debugSrv != nil {
		g.Go(func() error { return e.debugSrv.ListenAndServe() })
	}

	g.Go(func() error {
		err := e.sched.Run(gctx, e.cfg.SimDurationSeconds)
		if e.debugSrv != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
			defer cancel()
			if serr := e.debugSrv.Shutdown(shutdownCtx); serr != nil {
				slog.Error("debug server shutdown failed", "error", serr)
			}
		}
		return err
	})

	err := g.Wait()

	slog.Info("simulation finished", "remaining_tasks", e.registry.Count())
	for _, t := range e.registry.Remaining() {
		slog.Info("task left open at end of run", "task_id", t.ID, "vehicle_id", t.VehicleID, "bounty", t.Bounty)
	}

	return err
}

func (e *Engine) snapshotLoop(p *clock.Process) {
	for {
		if err := p.Timeout(e.cfg.SnapshotIntervalSec); err != nil {
			return
		}
		avgBattery := e.avgBatteryLevel()
		snap := httpapi.Snapshot{
			SimTime:       p.Now(),
			VehicleCount:  len(e.vehicles),
			ActiveTasks:   e.registry.Count(),
			BountyTasks:   e.registry.CountBounty(),
			GiniByParking: e.giniByParking(),
		}
		slog.Info("snapshot", "sim_time", snap.SimTime, "active_tasks", snap.ActiveTasks, "bounty_tasks", snap.BountyTasks, "gini", snap.GiniByParking, "avg_battery_level", avgBattery)
		if e.debugSrv != nil {
			e.debugSrv.Publish(snap)
		}

		e.sink.WriteState(results.StateRow{
			Time:                    snap.SimTime,
			AvgBatteryLevel:         avgBattery,
			NumBounties:             snap.BountyTasks,
			NumTasks:                snap.ActiveTasks,
			VehicleDistributionGini: snap.GiniByParking,
		})
	}
}

// avgBatteryLevel implements the "avg_battery_level" state-row field per
// spec.md §6: the mean battery level across every vehicle at the moment of
// the snapshot.
func (e *Engine) avgBatteryLevel() float64 {
	if len(e.vehicles) == 0 {
		return 0
	}
	var sum float64
	for _, v := range e.vehicles {
		sum += v.Battery.Level
	}
	return sum / float64(len(e.vehicles))
}

// giniByParking computes the Gini coefficient of vehicles-per-parking-spot,
// matching original_source's distribution-inequality snapshot metric.
func (e *Engine) giniByParking() float64 {
	counts := make([]float64, 0, len(e.spots))
	for _, s := range e.spots {
		counts = append(counts, float64(s.Count()))
	}
	return gini(counts)
}

func gini(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	var sum, weighted float64
	for i, v := range sorted {
		sum += v
		weighted += float64(i+1) * v
	}
	if sum == 0 {
		return 0
	}
	return (2*weighted - float64(n+1)*sum) / (float64(n) * sum)
}
