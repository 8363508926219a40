package results

import (
	"testing"

	"fleet-simulator/internal/rider"
	"fleet-simulator/internal/task"
)

func TestMemoryRidesSortedByDepartTime(t *testing.T) {
	m := NewMemory()
	m.WriteRide(rider.Row{RiderID: 1, DepartTime: 30})
	m.WriteRide(rider.Row{RiderID: 2, DepartTime: 10})
	m.WriteRide(rider.Row{RiderID: 3, DepartTime: 20})

	got := m.Rides()
	want := []int{2, 3, 1}
	if len(got) != len(want) {
		t.Fatalf("len(got) = %d, want %d", len(got), len(want))
	}
	for i, r := range got {
		if r.RiderID != want[i] {
			t.Fatalf("got[%d].RiderID = %d, want %d", i, r.RiderID, want[i])
		}
	}
}

func TestMemoryTasksSortedByID(t *testing.T) {
	m := NewMemory()
	m.WriteTask(task.Row{TaskID: 3})
	m.WriteTask(task.Row{TaskID: 1})
	m.WriteTask(task.Row{TaskID: 2})

	got := m.Tasks()
	for i, want := range []int{1, 2, 3} {
		if got[i].TaskID != want {
			t.Fatalf("got[%d].TaskID = %d, want %d", i, got[i].TaskID, want)
		}
	}
}

type countingSink struct {
	rides, tasks, states int
}

func (c *countingSink) WriteRide(rider.Row) { c.rides++ }
func (c *countingSink) WriteTask(task.Row)  { c.tasks++ }
func (c *countingSink) WriteState(StateRow) { c.states++ }

func TestMultiFansOutToEverySink(t *testing.T) {
	a, b := &countingSink{}, &countingSink{}
	m := Multi{Sinks: []Sink{a, b}}
	m.WriteRide(rider.Row{})
	m.WriteTask(task.Row{})
	m.WriteState(StateRow{})

	if a.rides != 1 || b.rides != 1 {
		t.Fatalf("expected both sinks to see the ride, got a=%d b=%d", a.rides, b.rides)
	}
	if a.tasks != 1 || b.tasks != 1 {
		t.Fatalf("expected both sinks to see the task, got a=%d b=%d", a.tasks, b.tasks)
	}
	if a.states != 1 || b.states != 1 {
		t.Fatalf("expected both sinks to see the state row, got a=%d b=%d", a.states, b.states)
	}
}
