// Package parking implements ParkingSpot: a fixed point where vehicles may
// be parked and picked up, grounded on original_source's ParkingSpotclass.py
// and generalized from the charging-station lookup pattern in
// car-simulator/internal/simulator/charging.go (a flat slice searched
// linearly for the nearest/first match — the same shape as pick-first-match
// here).
package parking

// Spot is a parking location with a roster of currently-parked vehicle IDs
// and a neighbor set reachable within walking radius. Vehicles are
// identified by ID rather than held as direct struct references so that
// Vehicle <-> Spot <-> Vehicle reference cycles never have to be
// constructed; the Engine's vehicle table is the single place that resolves
// an ID to a *vehicle.Vehicle.
type Spot struct {
	ID  int
	Lon float64
	Lat float64

	roster    []int // vehicle IDs, in arrival order
	neighbors []int // neighbor spot IDs, insertion order

	Capacity int // 0 means unbounded
}

// New creates a Spot with an unbounded roster capacity.
func New(id int, lon, lat float64) *Spot {
	return &Spot{ID: id, Lon: lon, Lat: lat, Capacity: 0}
}

// AddNeighbor records a symmetric within-walk-radius relationship. Callers
// are responsible for calling this on both spots; Engine's neighbor-finding
// pass does so.
func (s *Spot) AddNeighbor(spotID int) {
	if spotID == s.ID {
		return
	}
	for _, n := range s.neighbors {
		if n == spotID {
			return
		}
	}
	s.neighbors = append(s.neighbors, spotID)
}

// Neighbors returns neighbor spot IDs in insertion order.
func (s *Spot) Neighbors() []int {
	out := make([]int, len(s.neighbors))
	copy(out, s.neighbors)
	return out
}

// AddVehicle appends a vehicle to the roster. It is the caller's
// responsibility (DataInterface.VehicleRide, Engine's initial placement) to
// keep Vehicle.SpotID in sync with roster membership.
func (s *Spot) AddVehicle(vehicleID int) {
	s.roster = append(s.roster, vehicleID)
}

// RemoveVehicle removes the first occurrence of vehicleID from the roster.
func (s *Spot) RemoveVehicle(vehicleID int) {
	for i, id := range s.roster {
		if id == vehicleID {
			s.roster = append(s.roster[:i], s.roster[i+1:]...)
			return
		}
	}
}

// Roster returns the vehicle IDs currently parked here, in arrival order.
func (s *Spot) Roster() []int {
	out := make([]int, len(s.roster))
	copy(out, s.roster)
	return out
}

// Count returns the number of vehicles currently parked here.
func (s *Spot) Count() int { return len(s.roster) }

// HasRoom reports whether the spot can accept another vehicle.
func (s *Spot) HasRoom() bool {
	return s.Capacity == 0 || len(s.roster) < s.Capacity
}

// PickAvailableVehicle returns the first vehicle ID in roster order for
// which isAvailable reports true, or (0, false) if none qualify. Vehicle
// availability is a property owned by the vehicle package, not the spot, so
// the predicate is supplied by the caller (Rider's pickup step) rather than
// Spot reaching into vehicle state directly.
func (s *Spot) PickAvailableVehicle(isAvailable func(vehicleID int) bool) (int, bool) {
	for _, id := range s.roster {
		if isAvailable(id) {
			return id, true
		}
	}
	return 0, false
}
