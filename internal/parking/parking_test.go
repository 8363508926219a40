package parking

import "testing"

func TestAddNeighborDedupsAndExcludesSelf(t *testing.T) {
	s := New(1, 0, 0)
	s.AddNeighbor(2)
	s.AddNeighbor(2)
	s.AddNeighbor(1)
	neighbors := s.Neighbors()
	if len(neighbors) != 1 || neighbors[0] != 2 {
		t.Fatalf("Neighbors() = %v, want [2]", neighbors)
	}
}

func TestAddRemoveVehicleRoster(t *testing.T) {
	s := New(1, 0, 0)
	s.AddVehicle(10)
	s.AddVehicle(20)
	if s.Count() != 2 {
		t.Fatalf("Count() = %d, want 2", s.Count())
	}
	s.RemoveVehicle(10)
	roster := s.Roster()
	if len(roster) != 1 || roster[0] != 20 {
		t.Fatalf("Roster() = %v, want [20]", roster)
	}
}

func TestHasRoomUnboundedByDefault(t *testing.T) {
	s := New(1, 0, 0)
	for i := 0; i < 100; i++ {
		s.AddVehicle(i)
	}
	if !s.HasRoom() {
		t.Fatalf("HasRoom() = false, want true for unbounded capacity")
	}
}

func TestHasRoomRespectsCapacity(t *testing.T) {
	s := New(1, 0, 0)
	s.Capacity = 1
	s.AddVehicle(1)
	if s.HasRoom() {
		t.Fatalf("HasRoom() = true, want false once at capacity")
	}
}

func TestPickAvailableVehiclePicksFirstMatch(t *testing.T) {
	s := New(1, 0, 0)
	s.AddVehicle(1)
	s.AddVehicle(2)
	s.AddVehicle(3)
	id, ok := s.PickAvailableVehicle(func(vehicleID int) bool { return vehicleID >= 2 })
	if !ok || id != 2 {
		t.Fatalf("PickAvailableVehicle = (%d, %v), want (2, true)", id, ok)
	}
}

func TestPickAvailableVehicleNoneQualify(t *testing.T) {
	s := New(1, 0, 0)
	s.AddVehicle(1)
	_, ok := s.PickAvailableVehicle(func(int) bool { return false })
	if ok {
		t.Fatalf("expected ok = false when no vehicle qualifies")
	}
}
