// Package mapiface declares the Map external-collaborator contract (real
// routing graphs, KD-tree nearest-neighbor indexing, and polygon tests are
// out of scope per spec.md §1) and ships a lightweight reference
// implementation suitable for tests and standalone runs. The reference
// implementation is grounded on car-simulator/internal/simulator/routing.go,
// which falls back to a straight-line Haversine estimate whenever its real
// routing call (OSRM) is unavailable — here that fallback *is* the whole
// implementation, scaled by the same 1.2x/1.4x fudge factors spec.md §6
// names for the bike/drive graphs respectively.
package mapiface

import (
	"fleet-simulator/internal/geo"
)

// Map is the interface the simulation core depends on for anything that
// needs a real road/bike graph, a spatial index over parking spots, or a
// polygon containment test. Production deployments back this with OSRM-style
// routing, a KD-tree over parking-spot coordinates, and GeoJSON polygons;
// this package never does any of that itself.
type Map interface {
	// DriveDistanceMeters returns the driving distance between a and b.
	DriveDistanceMeters(a, b geo.Location) float64

	// BikeDistanceMeters returns the cycling distance between a and b.
	BikeDistanceMeters(a, b geo.Location) float64

	// NearestParkingSpotIndex returns the index, within a caller-supplied
	// ordered list of candidate locations, nearest to loc.
	NearestParkingSpotIndex(loc geo.Location, candidates []geo.Location) int

	// NeighborIndices returns indices, within candidates, of every location
	// within radiusM meters of loc (excluding loc's own index when it
	// appears in candidates).
	NeighborIndices(loc geo.Location, candidates []geo.Location, radiusM float64) []int

	// Contains reports whether loc falls within the named focus-area
	// polygon. Implementations with no polygon loaded should always
	// return true (no filtering).
	Contains(area string, loc geo.Location) bool
}

// StraightLine is a Map implementation with no real routing graph: every
// distance query is a Haversine estimate inflated by a fixed fudge factor,
// exactly mirroring
// car-simulator/internal/simulator/routing.go's createStraightLineRoute
// fallback. It is the Map used by unit tests and by standalone runs that
// have no OSRM/KD-tree backend wired in.
type StraightLine struct {
	// BikeFudge and DriveFudge inflate the Haversine estimate to
	// approximate a real road network's detour factor. spec.md §6 names
	// 1.2x for bike routes with no route on the bike graph and 1.4x for
	// drive routes with no route on the drive graph.
	BikeFudge  float64
	DriveFudge float64

	// Areas maps a focus-area name to a polygon test. A nil map or a
	// missing key means "no restriction" (Contains returns true).
	Areas map[string]func(geo.Location) bool
}

// NewStraightLine returns a StraightLine map with spec.md §6's default fudge
// factors.
func NewStraightLine() *StraightLine {
	return &StraightLine{BikeFudge: 1.2, DriveFudge: 1.4}
}

func (m *StraightLine) DriveDistanceMeters(a, b geo.Location) float64 {
	return geo.HaversineMeters(a, b) * m.fudge(m.DriveFudge, 1.4)
}

func (m *StraightLine) BikeDistanceMeters(a, b geo.Location) float64 {
	return geo.HaversineMeters(a, b) * m.fudge(m.BikeFudge, 1.2)
}

func (m *StraightLine) fudge(v, def float64) float64 {
	if v == 0 {
		return def
	}
	return v
}

func (m *StraightLine) NearestParkingSpotIndex(loc geo.Location, candidates []geo.Location) int {
	best := -1
	bestDist := 0.0
	for i, c := range candidates {
		d := geo.HaversineMeters(loc, c)
		if best == -1 || d < bestDist {
			best = i
			bestDist = d
		}
	}
	return best
}

func (m *StraightLine) NeighborIndices(loc geo.Location, candidates []geo.Location, radiusM float64) []int {
	var out []int
	for i, c := range candidates {
		if geo.Equal(loc, c) {
			continue
		}
		if geo.HaversineMeters(loc, c) <= radiusM {
			out = append(out, i)
		}
	}
	return out
}

func (m *StraightLine) Contains(area string, loc geo.Location) bool {
	if m.Areas == nil {
		return true
	}
	fn, ok := m.Areas[area]
	if !ok {
		return true
	}
	return fn(loc)
}
