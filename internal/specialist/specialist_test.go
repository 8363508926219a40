package specialist

import (
	"context"
	"testing"

	"fleet-simulator/internal/battery"
	"fleet-simulator/internal/clock"
	"fleet-simulator/internal/mapiface"
	"fleet-simulator/internal/parking"
	"fleet-simulator/internal/task"
	"fleet-simulator/internal/vehicle"
)

type fakeResolver struct {
	resolved []int
}

func (f *fakeResolver) ResolveTask(t *task.Task, resolvedBy int, resolvedTime float64, distanceDriven float64) {
	f.resolved = append(f.resolved, t.ID)
}

func TestSpecialistResolvesDueTask(t *testing.T) {
	sched := clock.New()

	spots := map[int]*parking.Spot{
		0: parking.New(0, 0, 0),
		1: parking.New(1, 0.01, 0.01),
	}
	spotOf := func(id int) *parking.Spot { return spots[id] }

	th := vehicle.Thresholds{SwapThreshold: 0.2, BountyThreshold: 0.05}
	reg := task.NewRegistry(func(vehicleID int) (float64, float64) {
		s := spots[1]
		return s.Lon, s.Lat
	})

	bat := battery.New(0.02, 0.002, 0.2) // starts right at the swap threshold
	v := vehicle.New(7, sched, reg, 1, bat, 4.0, th)
	spots[1].AddVehicle(7)
	vehicles := map[int]*vehicle.Vehicle{7: v}
	vehicleOf := func(id int) *vehicle.Vehicle { return vehicles[id] }

	resolver := &fakeResolver{}
	cfg := Config{
		StartTime:              0,
		SwapSpeedMS:            1000, // the ~2.2 km drive to spot 1 takes about 2 s
		TimePerSwapSingle:      5,
		TimePerSwapMulti:       3,
		PollInterval:           50,
		VanBatteryCapacity:     5,
		RefillVanBatteriesTime: 1000,
		Thresholds:             th,
	}
	New(1, sched, reg, 0, cfg, spotOf, vehicleOf, mapiface.NewStraightLine(), resolver)

	if err := sched.Run(context.Background(), 100); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(resolver.resolved) != 1 || resolver.resolved[0] != v.Task.ID {
		t.Fatalf("resolved = %v, want [%d]", resolver.resolved, v.Task.ID)
	}
	if v.Battery.Level != battery.Capacity {
		t.Fatalf("Battery.Level = %v, want full after swap", v.Battery.Level)
	}
}

func TestSpecialistWaitsWhenNoTasksAvailable(t *testing.T) {
	sched := clock.New()
	spots := map[int]*parking.Spot{0: parking.New(0, 0, 0)}
	spotOf := func(id int) *parking.Spot { return spots[id] }
	vehicleOf := func(id int) *vehicle.Vehicle { return nil }

	reg := task.NewRegistry(func(int) (float64, float64) { return 0, 0 })
	resolver := &fakeResolver{}
	cfg := Config{
		SwapSpeedMS:            10,
		TimePerSwapSingle:      1,
		TimePerSwapMulti:       1,
		PollInterval:           30,
		VanBatteryCapacity:     5,
		RefillVanBatteriesTime: 1000,
	}
	New(1, sched, reg, 0, cfg, spotOf, vehicleOf, mapiface.NewStraightLine(), resolver)

	if err := sched.Run(context.Background(), 20); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(resolver.resolved) != 0 {
		t.Fatalf("resolved = %v, want none", resolver.resolved)
	}
}
