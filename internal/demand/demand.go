// Package demand generates rider trip requests, grounded on
// original_source's Simulationclass.generate_uniform_demand and restyled
// after job-service/internal/service/demo.go's DemoJobGenerator (interval
// ticker with a cap, Start/stop lifecycle).
package demand

import (
	"math"
	"math/rand"

	"fleet-simulator/internal/rider"
)

// Generator produces Requests at a uniform rate across a fixed time window,
// drawing origin/destination spot pairs from a caller-supplied pool — the
// Go-native equivalent of Simulationclass.py's generate_uniform_demand,
// which draws one request per rider from a Poisson-spaced arrival process
// over the run's duration.
type Generator struct {
	rnd         *rand.Rand
	spotIDs     []int
	ratePerHour float64
	duration    float64
}

// New builds a Generator seeded for reproducible runs. spotIDs is the full
// set of parking spot IDs eligible as an origin or destination.
func New(seed int64, spotIDs []int, ratePerHour, durationSeconds float64) *Generator {
	return &Generator{
		rnd:         rand.New(rand.NewSource(seed)),
		spotIDs:     spotIDs,
		ratePerHour: ratePerHour,
		duration:    durationSeconds,
	}
}

// Generate returns every rider Request for the run, with strictly increasing
// departure times produced by a Poisson arrival process at ratePerHour,
// matching generate_uniform_demand's inter-arrival distribution.
func (g *Generator) Generate() []rider.Request {
	if g.ratePerHour <= 0 || len(g.spotIDs) < 2 {
		return nil
	}
	meanGapSeconds := 3600.0 / g.ratePerHour

	var reqs []rider.Request
	t := 0.0
	id := 0
	for {
		gap := -meanGapSeconds * safeLog(g.rnd.Float64())
		t += gap
		if t >= g.duration {
			break
		}
		id++
		origin := g.spotIDs[g.rnd.Intn(len(g.spotIDs))]
		dest := origin
		for dest == origin {
			dest = g.spotIDs[g.rnd.Intn(len(g.spotIDs))]
		}
		reqs = append(reqs, rider.Request{
			RiderID:       id,
			DepartureTime: t,
			OriginSpotID:  origin,
			DestSpotID:    dest,
		})
	}
	return reqs
}

// safeLog guards against log(0) from a degenerate rand.Float64() draw.
func safeLog(x float64) float64 {
	if x <= 0 {
		x = 1e-12
	}
	return math.Log(x)
}
