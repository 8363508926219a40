// Package rider implements the one-shot rider fulfillment process described
// in spec.md §4.4, grounded on original_source's Rider.py: wait for
// departure, pick up a vehicle at the origin spot (falling back to a
// neighboring spot if the origin has none available), ride to the
// destination, park, and record the outcome.
package rider

import (
	"log/slog"
	"math"

	"fleet-simulator/internal/clock"
	"fleet-simulator/internal/geo"
	"fleet-simulator/internal/mapiface"
	"fleet-simulator/internal/parking"
	"fleet-simulator/internal/vehicle"
)

// Status values for Row.Status, matching spec.md §6's ride-row contract.
const (
	StatusCompleted  = "completed"
	StatusUnfulfilled = "unfullfilled" // spelling matches original_source/Ride.py
)

// Row is the flattened Results record for one rider's trip outcome,
// mirroring original_source's Ride.py row shape field-for-field. Coordinates
// are rounded to 5 decimals, battery levels to 3 and DistanceM to whole
// meters; the time fields carry the virtual-clock values unrounded.
type Row struct {
	RiderID      int
	VehicleID    int
	OriginSpotID int
	DestSpotID   int
	PickupSpotID int
	RequestTime  float64
	DepartTime   float64
	PickupTime   float64
	DropoffTime  float64
	TimeRide     float64
	DistanceM    float64
	OriginLon    float64
	OriginLat    float64
	DestLon      float64
	DestLat      float64
	BatteryIn    float64
	BatteryOut   float64
	Fallback     bool
	Fulfilled    bool
	Status       string
}

// Recorder accepts a finished ride row and coordinates the vehicle-side
// effects of an in-progress one. Implemented by internal/data; declared
// narrowly here so this package never imports the results sinks or the
// streaming layer directly.
type Recorder interface {
	RecordRide(Row)

	// VehicleRide runs spec.md §4.7's vehicle_ride coordinator: marks the
	// vehicle riding and unavailable, suspends for the ride, moves it
	// between spot rosters, then restores readiness and re-checks
	// maintenance need. Declared here (rather than left inline in Run) so
	// every ride — not just the idle-drain path — goes through the single
	// side-effecting boundary spec.md §4.7 names.
	VehicleRide(p *clock.Process, v *vehicle.Vehicle, origin, dest *parking.Spot, distanceM float64, th vehicle.Thresholds)
}

// SpotLookup and VehicleLookup resolve the arena-style ID tables the Engine
// owns. Passed in rather than imported as package-level globals so the rider
// process never has to know how the Engine stores its tables.
type SpotLookup func(id int) *parking.Spot
type VehicleLookup func(id int) *vehicle.Vehicle

// Request is everything known about a rider's trip before it starts.
type Request struct {
	RiderID       int
	DepartureTime float64
	OriginSpotID  int
	DestSpotID    int
}

// Run is the rider coroutine body: spawn with sched.Spawn(func(p
// *clock.Process) { rider.Run(p, req, ...) }). It suspends until
// req.DepartureTime, attempts pickup (with neighbor fallback), rides to the
// destination if a vehicle was found, and always records exactly one Row.
func Run(p *clock.Process, req Request, spotOf SpotLookup, vehicleOf VehicleLookup, m mapiface.Map, th vehicle.Thresholds, rec Recorder) {
	if wait := req.DepartureTime - p.Now(); wait > 0 {
		if err := p.Timeout(wait); err != nil {
			rec.RecordRide(Row{RiderID: req.RiderID, OriginSpotID: req.OriginSpotID, DestSpotID: req.DestSpotID, RequestTime: req.DepartureTime, Status: StatusUnfulfilled})
			return
		}
	}

	row := Row{
		RiderID:      req.RiderID,
		OriginSpotID: req.OriginSpotID,
		DestSpotID:   req.DestSpotID,
		RequestTime:  req.DepartureTime,
		DepartTime:   p.Now(),
	}

	pickupSpotID, v, fallback := findVehicle(req.OriginSpotID, spotOf, vehicleOf)
	if v == nil {
		row.Status = StatusUnfulfilled
		slog.Info("rider pickup failed", "rider_id", req.RiderID, "origin_spot_id", req.OriginSpotID)
		rec.RecordRide(row)
		return
	}
	row.PickupSpotID = pickupSpotID
	row.Fallback = fallback
	row.VehicleID = v.ID

	v.InterruptIdle("pickup")
	row.PickupTime = p.Now()

	origin := spotOf(pickupSpotID)
	dest := spotOf(req.DestSpotID)
	originLoc := locationOf(origin)
	destLoc := locationOf(dest)
	row.OriginLon, row.OriginLat = math.Round(originLoc.Lon*1e5)/1e5, math.Round(originLoc.Lat*1e5)/1e5
	row.DestLon, row.DestLat = math.Round(destLoc.Lon*1e5)/1e5, math.Round(destLoc.Lat*1e5)/1e5

	distance := m.BikeDistanceMeters(originLoc, destLoc)
	row.DistanceM = math.Round(distance)
	row.BatteryIn = math.Round(v.Battery.Level*1e3) / 1e3

	rec.VehicleRide(p, v, origin, dest, distance, th)

	row.BatteryOut = math.Round(v.Battery.Level*1e3) / 1e3
	row.DropoffTime = p.Now()
	row.TimeRide = row.DropoffTime - row.PickupTime

	v.ResumeIdle(th)

	// Parking delay (spec.md §4.4 step 6): the rider dismounts and the ride
	// record is only emitted once this settles, independent of the ride
	// itself.
	_ = p.Timeout(30) // parking delay is never interrupted

	row.Status = StatusCompleted
	row.Fulfilled = true
	rec.RecordRide(row)
}

// findVehicle tries the origin spot first, then each of its neighbors in
// order, returning the first available vehicle found. fallback reports
// whether the match came from a neighbor rather than the origin itself, per
// original_source's neighbor-fallback behavior in Rider.py.
func findVehicle(originID int, spotOf SpotLookup, vehicleOf VehicleLookup) (spotID int, v *vehicle.Vehicle, fallback bool) {
	origin := spotOf(originID)
	isAvailable := func(vehicleID int) bool {
		cand := vehicleOf(vehicleID)
		return cand != nil && cand.Available && cand.Status == vehicle.StatusReady
	}

	if id, ok := origin.PickAvailableVehicle(isAvailable); ok {
		return originID, vehicleOf(id), false
	}

	for _, n := range origin.Neighbors() {
		nSpot := spotOf(n)
		if id, ok := nSpot.PickAvailableVehicle(isAvailable); ok {
			return n, vehicleOf(id), true
		}
	}
	return 0, nil, false
}

func locationOf(s *parking.Spot) geo.Location {
	return geo.New(s.Lon, s.Lat)
}
