package results

import (
	"encoding/csv"
	"log/slog"
	"os"
	"strconv"

	"fleet-simulator/internal/rider"
	"fleet-simulator/internal/task"
)

// CSV is a Sink that appends each row to one of three CSV files, mirroring
// original_source's Results.py, which persists its DataFrames via
// pandas.to_csv. Rows are flushed immediately so a run that's killed
// mid-simulation still leaves a readable partial file.
type CSV struct {
	rideFile  *os.File
	taskFile  *os.File
	stateFile *os.File
	rideW     *csv.Writer
	taskW     *csv.Writer
	stateW    *csv.Writer
}

// OpenCSV creates (or truncates) ridePath, taskPath, and statePath and
// writes their headers.
func OpenCSV(ridePath, taskPath, statePath string) (*CSV, error) {
	rideFile, err := os.Create(ridePath)
	if err != nil {
		return nil, err
	}
	taskFile, err := os.Create(taskPath)
	if err != nil {
		rideFile.Close()
		return nil, err
	}
	stateFile, err := os.Create(statePath)
	if err != nil {
		rideFile.Close()
		taskFile.Close()
		return nil, err
	}

	c := &CSV{
		rideFile:  rideFile,
		taskFile:  taskFile,
		stateFile: stateFile,
		rideW:     csv.NewWriter(rideFile),
		taskW:     csv.NewWriter(taskFile),
		stateW:    csv.NewWriter(stateFile),
	}
	c.rideW.Write([]string{
		"rider_id", "vehicle_id", "origin_spot_id", "dest_spot_id", "pickup_spot_id",
		"request_time", "depart_time", "pickup_time", "dropoff_time", "time_ride",
		"distance_m", "origin_lon", "origin_lat", "dest_lon", "dest_lat",
		"battery_in", "battery_out", "fallback", "fulfilled", "status",
	})
	c.taskW.Write([]string{
		"task_id", "task_type", "bounty", "vehicle_id", "priority", "lon", "lat",
		"created_time", "status", "bounty_time", "resolved_by", "resolved_time",
		"time_spent", "distance_driven", "time_open", "battery_in", "battery_out",
	})
	c.stateW.Write([]string{
		"time", "avg_battery_level", "num_bounties", "num_task", "vehicle_distribution_gini",
	})
	c.rideW.Flush()
	c.taskW.Flush()
	c.stateW.Flush()
	return c, nil
}

// Close flushes and closes all three underlying files.
func (c *CSV) Close() error {
	c.rideW.Flush()
	c.taskW.Flush()
	c.stateW.Flush()
	if err := c.rideFile.Close(); err != nil {
		return err
	}
	if err := c.taskFile.Close(); err != nil {
		return err
	}
	return c.stateFile.Close()
}

func (c *CSV) WriteRide(r rider.Row) {
	err := c.rideW.Write([]string{
		strconv.Itoa(r.RiderID), strconv.Itoa(r.VehicleID), strconv.Itoa(r.OriginSpotID), strconv.Itoa(r.DestSpotID),
		strconv.Itoa(r.PickupSpotID), formatFloat(r.RequestTime), formatFloat(r.DepartTime),
		formatFloat(r.PickupTime), formatFloat(r.DropoffTime), formatFloat(r.TimeRide),
		formatFloat(r.DistanceM), formatFloat(r.OriginLon), formatFloat(r.OriginLat),
		formatFloat(r.DestLon), formatFloat(r.DestLat), formatFloat(r.BatteryIn), formatFloat(r.BatteryOut),
		strconv.FormatBool(r.Fallback), strconv.FormatBool(r.Fulfilled), r.Status,
	})
	if err != nil {
		slog.Error("csv ride write failed", "rider_id", r.RiderID, "error", err)
		return
	}
	c.rideW.Flush()
}

func (c *CSV) WriteState(s StateRow) {
	err := c.stateW.Write([]string{
		formatFloat(s.Time), formatFloat(s.AvgBatteryLevel), strconv.Itoa(s.NumBounties),
		strconv.Itoa(s.NumTasks), formatFloat(s.VehicleDistributionGini),
	})
	if err != nil {
		slog.Error("csv state write failed", "time", s.Time, "error", err)
		return
	}
	c.stateW.Flush()
}

func (c *CSV) WriteTask(t task.Row) {
	err := c.taskW.Write([]string{
		strconv.Itoa(t.TaskID), t.TaskType, strconv.FormatBool(t.Bounty), strconv.Itoa(t.VehicleID),
		strconv.Itoa(t.Priority), formatFloat(t.Lon), formatFloat(t.Lat), formatFloat(t.CreatedTime),
		t.Status, formatOptFloat(t.BountyTime), formatOptInt(t.ResolvedBy), formatOptFloat(t.ResolvedTime),
		formatOptFloat(t.TimeSpent), formatFloat(t.DistanceDriven), formatOptFloat(t.TimeOpen),
		formatFloat(t.BatteryIn), formatFloat(t.BatteryOut),
	})
	if err != nil {
		slog.Error("csv task write failed", "task_id", t.TaskID, "error", err)
		return
	}
	c.taskW.Flush()
}

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

func formatOptFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}

func formatOptInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}
