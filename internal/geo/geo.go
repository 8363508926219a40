// Package geo holds the immutable Location type and the straight-line
// distance helpers used by core components that are not allowed to depend
// on a real routing graph (that lives behind the Map interface instead).
package geo

import "math"

// Location is an immutable longitude/latitude pair. Real deployments cache
// nearest-node handles for the drive and bike routing graphs alongside it;
// this module leaves those as opaque strings so it never has to know what a
// routing graph node looks like.
type Location struct {
	Lon float64
	Lat float64

	DriveNode string
	BikeNode  string
}

// New returns a Location with no cached routing-graph nodes.
func New(lon, lat float64) Location {
	return Location{Lon: lon, Lat: lat}
}

const earthRadiusMeters = 6371000.0

// HaversineMeters returns the great-circle distance between a and b in
// meters. This is the straight-line distance used anywhere the spec calls
// for "geographic Euclidean distance" (FleetSpecialist nearest-task
// planning, the Map reference implementation's routing fallback) — it is
// never a substitute for a routed drive/bike distance.
func HaversineMeters(a, b Location) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	sinDLat := math.Sin(dLat / 2)
	sinDLon := math.Sin(dLon / 2)

	h := sinDLat*sinDLat + math.Cos(lat1)*math.Cos(lat2)*sinDLon*sinDLon
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return earthRadiusMeters * c
}

// Equal reports whether two locations are the same point. FleetSpecialist's
// arrival check compares its current location against a task's derived
// location this way.
func Equal(a, b Location) bool {
	return a.Lon == b.Lon && a.Lat == b.Lat
}
