package engine

import (
	"context"
	"testing"

	"fleet-simulator/internal/config"
	"fleet-simulator/internal/geo"
	"fleet-simulator/internal/mapiface"
	"fleet-simulator/internal/results"
)

func smallWorld() []geo.Location {
	return []geo.Location{
		geo.New(0, 0),
		geo.New(0.01, 0.01),
		geo.New(0.02, 0.0),
		geo.New(0.0, 0.02),
	}
}

func TestEngineRunProducesRideAndTaskRows(t *testing.T) {
	cfg := config.Default()
	cfg.VehicleCount = 6
	cfg.SpecialistCount = 1
	cfg.RidersPerHour = 200
	cfg.SimDurationSeconds = 3600 * 6
	cfg.SwapThreshold = 0.5 // drain fast enough to generate tasks within the run
	cfg.BountyThreshold = 0.2
	cfg.DischargeIdleHour = 0.02
	cfg.DischargeRideKm = 0.05
	cfg.WalkRadiusM = 5000
	cfg.SnapshotIntervalSec = 1800
	cfg.StorageType = "memory"

	sink := results.NewMemory()
	eng := New(cfg, mapiface.NewStraightLine(), smallWorld(), sink, nil, nil)

	if err := eng.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(sink.Rides()) == 0 {
		t.Fatalf("expected at least one ride row to have been recorded")
	}
	if len(sink.Tasks()) == 0 {
		t.Fatalf("expected at least one task row to have been recorded")
	}
}

func TestGiniZeroWhenEvenlyDistributed(t *testing.T) {
	g := gini([]float64{5, 5, 5, 5})
	if g != 0 {
		t.Fatalf("gini = %v, want 0 for an even distribution", g)
	}
}

func TestGiniPositiveWhenSkewed(t *testing.T) {
	g := gini([]float64{0, 0, 0, 10})
	if g <= 0 {
		t.Fatalf("gini = %v, want > 0 for a skewed distribution", g)
	}
}

func TestGiniHandlesAllZero(t *testing.T) {
	if g := gini([]float64{0, 0, 0}); g != 0 {
		t.Fatalf("gini = %v, want 0 when every spot is empty", g)
	}
}
