package results

import (
	"context"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"fleet-simulator/internal/rider"
	"fleet-simulator/internal/task"
)

// rideItem and taskItem carry dynamodbav tags the way
// fleet-service/internal/storage.Vehicle does, rather than writing rider.Row
// and task.Row directly — those stay free of storage-layer tags so the core
// simulation types never know which backend, if any, is attached.
type rideItem struct {
	RiderID      int     `dynamodbav:"rider_id"`
	VehicleID    int     `dynamodbav:"vehicle_id"`
	OriginSpotID int     `dynamodbav:"origin_spot_id"`
	DestSpotID   int     `dynamodbav:"dest_spot_id"`
	PickupSpotID int     `dynamodbav:"pickup_spot_id"`
	RequestTime  float64 `dynamodbav:"request_time"`
	DepartTime   float64 `dynamodbav:"depart_time"`
	PickupTime   float64 `dynamodbav:"pickup_time"`
	DropoffTime  float64 `dynamodbav:"dropoff_time"`
	TimeRide     float64 `dynamodbav:"time_ride"`
	DistanceM    float64 `dynamodbav:"distance_m"`
	OriginLon    float64 `dynamodbav:"origin_lon"`
	OriginLat    float64 `dynamodbav:"origin_lat"`
	DestLon      float64 `dynamodbav:"dest_lon"`
	DestLat      float64 `dynamodbav:"dest_lat"`
	BatteryIn    float64 `dynamodbav:"battery_in"`
	BatteryOut   float64 `dynamodbav:"battery_out"`
	Fallback     bool    `dynamodbav:"fallback"`
	Fulfilled    bool    `dynamodbav:"fulfilled"`
	Status       string  `dynamodbav:"status"`
}

type stateItem struct {
	Time                    float64 `dynamodbav:"time"`
	AvgBatteryLevel         float64 `dynamodbav:"avg_battery_level"`
	NumBounties             int     `dynamodbav:"num_bounties"`
	NumTasks                int     `dynamodbav:"num_task"`
	VehicleDistributionGini float64 `dynamodbav:"vehicle_distribution_gini"`
}

type taskItem struct {
	TaskID         int      `dynamodbav:"task_id"`
	TaskType       string   `dynamodbav:"task_type"`
	Bounty         bool     `dynamodbav:"bounty"`
	VehicleID      int      `dynamodbav:"vehicle_id"`
	Priority       int      `dynamodbav:"priority"`
	Lon            float64  `dynamodbav:"lon"`
	Lat            float64  `dynamodbav:"lat"`
	CreatedTime    float64  `dynamodbav:"created_time"`
	Status         string   `dynamodbav:"status"`
	BountyTime     *float64 `dynamodbav:"bounty_time,omitempty"`
	ResolvedBy     *int     `dynamodbav:"resolved_by,omitempty"`
	ResolvedTime   *float64 `dynamodbav:"resolved_time,omitempty"`
	TimeSpent      *float64 `dynamodbav:"time_spent,omitempty"`
	DistanceDriven float64  `dynamodbav:"distance_driven"`
	TimeOpen       *float64 `dynamodbav:"time_open,omitempty"`
	BatteryIn      float64  `dynamodbav:"battery_in"`
	BatteryOut     float64  `dynamodbav:"battery_out"`
}

// DynamoDB is a Sink that writes every row to a DynamoDB table, mirroring
// fleet-service/internal/storage/dynamodb.go's client-wraps-table shape.
// Writes are best-effort: a PutItem failure is retried with exponential
// backoff (grounded on car-simulator's registerWithFleetRetry) up to a small
// attempt cap and then logged and dropped, since spec.md §5 forbids the
// simulation clock ever blocking on an external call.
type DynamoDB struct {
	client     *dynamodb.Client
	rideTable  string
	taskTable  string
	stateTable string
}

// NewDynamoDB wraps an already-configured dynamodb.Client. stateTable may be
// empty, in which case state rows are dropped (logged at debug level)
// instead of attempted against an unconfigured table.
func NewDynamoDB(client *dynamodb.Client, rideTable, taskTable, stateTable string) *DynamoDB {
	return &DynamoDB{client: client, rideTable: rideTable, taskTable: taskTable, stateTable: stateTable}
}

func (d *DynamoDB) WriteRide(r rider.Row) {
	item := rideItem{
		RiderID: r.RiderID, VehicleID: r.VehicleID, OriginSpotID: r.OriginSpotID, DestSpotID: r.DestSpotID,
		PickupSpotID: r.PickupSpotID, RequestTime: r.RequestTime, DepartTime: r.DepartTime,
		PickupTime: r.PickupTime, DropoffTime: r.DropoffTime, TimeRide: r.TimeRide, DistanceM: r.DistanceM,
		OriginLon: r.OriginLon, OriginLat: r.OriginLat, DestLon: r.DestLon, DestLat: r.DestLat,
		BatteryIn: r.BatteryIn, BatteryOut: r.BatteryOut,
		Fallback: r.Fallback, Fulfilled: r.Fulfilled, Status: r.Status,
	}
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		slog.Error("marshal ride row failed", "rider_id", r.RiderID, "error", err)
		return
	}
	// Dispatched off the caller's goroutine: the caller is the simulation's
	// single logical thread, and retry backoff sleeps in wall-clock time,
	// which must never hold up virtual-time progress (spec.md §5).
	go d.putWithRetry(d.rideTable, av, "rider_id", r.RiderID)
}

func (d *DynamoDB) WriteState(s StateRow) {
	if d.stateTable == "" {
		slog.Debug("state row dropped: no dynamo state table configured", "time", s.Time)
		return
	}
	item := stateItem{
		Time: s.Time, AvgBatteryLevel: s.AvgBatteryLevel, NumBounties: s.NumBounties,
		NumTasks: s.NumTasks, VehicleDistributionGini: s.VehicleDistributionGini,
	}
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		slog.Error("marshal state row failed", "time", s.Time, "error", err)
		return
	}
	go d.putWithRetry(d.stateTable, av, "time", int(s.Time))
}

func (d *DynamoDB) WriteTask(t task.Row) {
	item := taskItem{
		TaskID: t.TaskID, TaskType: t.TaskType, Bounty: t.Bounty, VehicleID: t.VehicleID,
		Priority: t.Priority, Lon: t.Lon, Lat: t.Lat, CreatedTime: t.CreatedTime, Status: t.Status,
		BountyTime: t.BountyTime, ResolvedBy: t.ResolvedBy, ResolvedTime: t.ResolvedTime,
		TimeSpent: t.TimeSpent, DistanceDriven: t.DistanceDriven, TimeOpen: t.TimeOpen,
		BatteryIn: t.BatteryIn, BatteryOut: t.BatteryOut,
	}
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		slog.Error("marshal task row failed", "task_id", t.TaskID, "error", err)
		return
	}
	go d.putWithRetry(d.taskTable, av, "task_id", t.TaskID)
}

func (d *DynamoDB) putWithRetry(table string, item map[string]types.AttributeValue, idKey string, idVal int) {
	const maxAttempts = 4
	delay := 100 * time.Millisecond
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_, err := d.client.PutItem(ctx, &dynamodb.PutItemInput{TableName: &table, Item: item})
		cancel()
		if err == nil {
			return
		}
		lastErr = err
		time.Sleep(delay)
		delay *= 2
	}
	slog.Error("dynamodb put failed after retries", idKey, idVal, "table", table, "error", lastErr)
}
