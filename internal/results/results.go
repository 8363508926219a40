// Package results declares the Sink the simulation core writes finished ride
// and task rows to, plus an in-memory reference implementation, grounded on
// original_source's Results.py and restyled after
// fleet-service/internal/storage's interface+memory+DynamoDB trio (typed
// struct fields instead of Results.py's pandas DataFrame columns).
package results

import (
	"sort"
	"sync"

	"fleet-simulator/internal/rider"
	"fleet-simulator/internal/task"
)

// Sink accepts finished rows from the simulation core. Implementations may
// buffer, stream, or persist; they must never block the simulation clock
// (spec.md §5), so any implementation that talks to a remote system is
// expected to do so best-effort, logging failures rather than returning them
// up into the caller's coroutine.
type Sink interface {
	WriteRide(rider.Row)
	WriteTask(task.Row)
	WriteState(StateRow)
}

// StateRow is the periodic fleet-health snapshot spec.md §6 mandates every
// SnapshotIntervalSec: average battery level across the fleet, outstanding
// bounty and task counts, and the Gini coefficient of vehicle distribution
// across parking spots.
type StateRow struct {
	Time                    float64
	AvgBatteryLevel         float64
	NumBounties             int
	NumTasks                int
	VehicleDistributionGini float64
}

// Memory is a Sink that simply accumulates rows, the default for tests and
// for runs with no external storage configured.
type Memory struct {
	mu     sync.Mutex
	rides  []rider.Row
	tasks  []task.Row
	states []StateRow
}

// NewMemory returns an empty Memory sink.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) WriteRide(r rider.Row) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rides = append(m.rides, r)
}

func (m *Memory) WriteTask(t task.Row) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks = append(m.tasks, t)
}

func (m *Memory) WriteState(s StateRow) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states = append(m.states, s)
}

// States returns every recorded state row, ordered by time.
func (m *Memory) States() []StateRow {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]StateRow, len(m.states))
	copy(out, m.states)
	sort.Slice(out, func(i, j int) bool { return out[i].Time < out[j].Time })
	return out
}

// Rides returns every recorded ride row, ordered by departure time.
func (m *Memory) Rides() []rider.Row {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]rider.Row, len(m.rides))
	copy(out, m.rides)
	sort.Slice(out, func(i, j int) bool { return out[i].DepartTime < out[j].DepartTime })
	return out
}

// Tasks returns every recorded task row, ordered by task ID.
func (m *Memory) Tasks() []task.Row {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]task.Row, len(m.tasks))
	copy(out, m.tasks)
	sort.Slice(out, func(i, j int) bool { return out[i].TaskID < out[j].TaskID })
	return out
}

// Multi fans a single Sink call out to several underlying sinks, letting a
// run write to memory (for immediate programmatic inspection) and a durable
// backend at the same time.
type Multi struct {
	Sinks []Sink
}

func (m Multi) WriteRide(r rider.Row) {
	for _, s := range m.Sinks {
		s.WriteRide(r)
	}
}

func (m Multi) WriteTask(t task.Row) {
	for _, s := range m.Sinks {
		s.WriteTask(t)
	}
}

func (m Multi) WriteState(st StateRow) {
	for _, s := range m.Sinks {
		s.WriteState(st)
	}
}
