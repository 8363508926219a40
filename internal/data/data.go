// Package data implements the DataInterface side effects that close the
// loop between the simulation core and storage, grounded on
// original_source's Datainterface.py and styled after job-service's
// service-wraps-storage-and-streamer layering (internal/service/job.go
// wraps a JobStorage plus a Streamer exactly this way).
package data

import (
	"strconv"

	"fleet-simulator/internal/clock"
	"fleet-simulator/internal/parking"
	"fleet-simulator/internal/results"
	"fleet-simulator/internal/rider"
	"fleet-simulator/internal/task"
	"fleet-simulator/internal/vehicle"
)

// EventStreamer is the subset of streaming.Streamer this package depends on,
// declared narrowly so tests can substitute a no-op.
type EventStreamer interface {
	StreamEvent(name string, partitionKey string, payload any)
}

// Interface implements rider.Recorder and specialist.Resolver, recording
// every finished ride and resolved task to a Sink and, if configured,
// mirroring each event to a Kinesis stream.
type Interface struct {
	sink     results.Sink
	registry *task.Registry
	stream   EventStreamer // nil disables streaming
}

// New builds a DataInterface. stream may be nil.
func New(sink results.Sink, registry *task.Registry, stream EventStreamer) *Interface {
	return &Interface{sink: sink, registry: registry, stream: stream}
}

// RecordRide implements rider.Recorder.
func (d *Interface) RecordRide(row rider.Row) {
	d.sink.WriteRide(row)
	if d.stream != nil {
		d.stream.StreamEvent("ride", strconv.Itoa(row.RiderID), row)
	}
}

// VehicleRide implements rider.Recorder's other half: the DataInterface
// side-effect coordinator from spec.md §4.7 that centralizes everything a
// completed ride does to the vehicle, rather than leaving Rider to inline
// status transitions itself. Order matches the spec exactly: mark the
// vehicle unavailable and riding, run the ride, only then move it between
// rosters, then restore readiness and re-check maintenance need.
func (d *Interface) VehicleRide(p *clock.Process, v *vehicle.Vehicle, origin, dest *parking.Spot, distanceM float64, th vehicle.Thresholds) {
	v.Available = false
	v.Status = vehicle.StatusRiding

	v.Ride(p, distanceM)

	origin.RemoveVehicle(v.ID)
	dest.AddVehicle(v.ID)
	v.SpotID = dest.ID

	v.Status = vehicle.StatusReady
	v.CheckMaintenanceNeed(th)
	v.UpdateAvailability()
}

// ResolveTask implements specialist.Resolver: it stamps the task resolved
// and writes its final Row, mirroring Datainterface.py's resolve_task. The
// specialist's swap step has already removed the task from the registry,
// refilled the battery and detached the task from its vehicle before this
// is called.
func (d *Interface) ResolveTask(t *task.Task, resolvedBy int, resolvedTime float64, distanceDriven float64) {
	lon, lat := d.registry.Location(t)

	t.Status = task.StatusResolved
	t.ResolvedAt = resolvedTime
	t.HasResolved = true
	t.ResolvedBy = resolvedBy
	t.HasResolver = true

	row := t.ToRow(lon, lat, resolvedBy, true, resolvedTime, true, t.CreatedTime, distanceDriven)
	d.sink.WriteTask(row)
	if d.stream != nil {
		d.stream.StreamEvent("task_resolved", strconv.Itoa(t.ID), row)
	}
}
