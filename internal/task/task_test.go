package task

import "testing"

func newTestRegistry() *Registry {
	return NewRegistry(func(vehicleID int) (float64, float64) { return 1.23456, 7.89012 })
}

func TestNewAssignsSequentialIDs(t *testing.T) {
	r := newTestRegistry()
	a := r.New(1, 0, 0.2)
	b := r.New(2, 10, 0.15)
	if a.ID != 1 || b.ID != 2 {
		t.Fatalf("got IDs %d, %d; want 1, 2", a.ID, b.ID)
	}
	if a.Status != StatusActive {
		t.Fatalf("Status = %v, want %v", a.Status, StatusActive)
	}
}

func TestAvailableTasksExcludesRidingVehiclesAndPending(t *testing.T) {
	r := newTestRegistry()
	a := r.New(1, 0, 0.2)
	b := r.New(2, 0, 0.2)
	c := r.New(3, 0, 0.2)
	c.Status = StatusPending

	riding := func(vehicleID int) bool { return vehicleID == 2 }
	available := r.AvailableTasks(riding)

	if len(available) != 1 || available[0].ID != a.ID {
		t.Fatalf("available = %+v, want only task %d", available, a.ID)
	}
	_ = b
}

func TestRemoveDeletesFromRegistry(t *testing.T) {
	r := newTestRegistry()
	a := r.New(1, 0, 0.2)
	if r.Count() != 1 {
		t.Fatalf("Count() = %d, want 1", r.Count())
	}
	r.Remove(a)
	if r.Count() != 0 {
		t.Fatalf("Count() = %d, want 0", r.Count())
	}
}

func TestToRowRoundsCoordsAndBattery(t *testing.T) {
	tsk := &Task{
		ID: 1, Type: TypeBatterySwap, VehicleID: 9, Status: StatusResolved,
		CreatedTime: 100.4, BatteryIn: 0.19999,
	}
	row := tsk.ToRow(12.345678, 45.678912, 7, true, 250.6, true, 100.4, 123.5)

	if row.Lon != 12.34568 {
		t.Fatalf("Lon = %v, want 12.34568", row.Lon)
	}
	if row.Lat != 45.67891 {
		t.Fatalf("Lat = %v, want 45.67891", row.Lat)
	}
	if row.BatteryIn != 0.2 {
		t.Fatalf("BatteryIn = %v, want 0.2", row.BatteryIn)
	}
	if row.ResolvedBy == nil || *row.ResolvedBy != 7 {
		t.Fatalf("ResolvedBy = %v, want 7", row.ResolvedBy)
	}
	if row.TimeSpent == nil || *row.TimeSpent != 150 {
		t.Fatalf("TimeSpent = %v, want 150", row.TimeSpent)
	}
}

func TestToRowLeavesUnresolvedFieldsNil(t *testing.T) {
	tsk := &Task{ID: 1, Type: TypeBatterySwap, VehicleID: 2, Status: StatusActive, CreatedTime: 0, BatteryIn: 0.2}
	row := tsk.ToRow(1, 1, 0, false, 0, false, 0, 0)
	if row.ResolvedBy != nil || row.ResolvedTime != nil || row.TimeSpent != nil || row.TimeOpen != nil {
		t.Fatalf("expected all resolution fields nil, got %+v", row)
	}
}
