package results

import (
	"database/sql"
	"log/slog"

	_ "modernc.org/sqlite"

	"fleet-simulator/internal/rider"
	"fleet-simulator/internal/task"
)

// SQLite is a Sink backed by a local modernc.org/sqlite database (pure Go,
// no cgo), a Results backend alongside Memory, CSV and DynamoDB — a
// single-file durable option for runs with no AWS credentials available.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (creating if necessary) a sqlite database at path and
// ensures the ride/task tables exist.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	schema := []string{
		`CREATE TABLE IF NOT EXISTS rides (
			rider_id INTEGER, vehicle_id INTEGER, origin_spot_id INTEGER, dest_spot_id INTEGER,
			pickup_spot_id INTEGER, request_time REAL, depart_time REAL,
			pickup_time REAL, dropoff_time REAL, time_ride REAL, distance_m REAL,
			origin_lon REAL, origin_lat REAL, dest_lon REAL, dest_lat REAL,
			battery_in REAL, battery_out REAL,
			fallback INTEGER, fulfilled INTEGER, status TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS tasks (
			task_id INTEGER PRIMARY KEY, task_type TEXT, bounty INTEGER,
			vehicle_id INTEGER, priority INTEGER, lon REAL, lat REAL,
			created_time REAL, status TEXT, bounty_time REAL, resolved_by INTEGER,
			resolved_time REAL, time_spent REAL, distance_driven REAL,
			time_open REAL, battery_in REAL, battery_out REAL
		)`,
		`CREATE TABLE IF NOT EXISTS states (
			time REAL, avg_battery_level REAL, num_bounties INTEGER,
			num_task INTEGER, vehicle_distribution_gini REAL
		)`,
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, err
		}
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() error { return s.db.Close() }

func (s *SQLite) WriteRide(r rider.Row) {
	_, err := s.db.Exec(
		`INSERT INTO rides (rider_id, vehicle_id, origin_spot_id, dest_spot_id, pickup_spot_id,
			request_time, depart_time, pickup_time, dropoff_time, time_ride, distance_m,
			origin_lon, origin_lat, dest_lon, dest_lat, battery_in, battery_out, fallback, fulfilled, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RiderID, r.VehicleID, r.OriginSpotID, r.DestSpotID, r.PickupSpotID,
		r.RequestTime, r.DepartTime, r.PickupTime, r.DropoffTime, r.TimeRide, r.DistanceM,
		r.OriginLon, r.OriginLat, r.DestLon, r.DestLat, r.BatteryIn, r.BatteryOut, r.Fallback, r.Fulfilled, r.Status,
	)
	if err != nil {
		slog.Error("sqlite ride insert failed", "rider_id", r.RiderID, "error", err)
	}
}

func (s *SQLite) WriteState(st StateRow) {
	_, err := s.db.Exec(
		`INSERT INTO states (time, avg_battery_level, num_bounties, num_task, vehicle_distribution_gini)
		 VALUES (?, ?, ?, ?, ?)`,
		st.Time, st.AvgBatteryLevel, st.NumBounties, st.NumTasks, st.VehicleDistributionGini,
	)
	if err != nil {
		slog.Error("sqlite state insert failed", "time", st.Time, "error", err)
	}
}

func (s *SQLite) WriteTask(t task.Row) {
	_, err := s.db.Exec(
		`INSERT INTO tasks (task_id, task_type, bounty, vehicle_id, priority, lon, lat,
			created_time, status, bounty_time, resolved_by, resolved_time, time_spent,
			distance_driven, time_open, battery_in, battery_out)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(task_id) DO UPDATE SET
			status=excluded.status, bounty_time=excluded.bounty_time,
			resolved_by=excluded.resolved_by, resolved_time=excluded.resolved_time,
			time_spent=excluded.time_spent, distance_driven=excluded.distance_driven,
			time_open=excluded.time_open, battery_out=excluded.battery_out`,
		t.TaskID, t.TaskType, t.Bounty, t.VehicleID, t.Priority, t.Lon, t.Lat,
		t.CreatedTime, t.Status, t.BountyTime, t.ResolvedBy, t.ResolvedTime, t.TimeSpent,
		t.DistanceDriven, t.TimeOpen, t.BatteryIn, t.BatteryOut,
	)
	if err != nil {
		slog.Error("sqlite task upsert failed", "task_id", t.TaskID, "error", err)
	}
}
