// Command simulate runs one fleet simulation from a config file (or
// defaults plus environment overrides) and writes results to the
// configured sink, grounded on car-simulator/cmd/main.go's flag/env
// parsing and signal-based graceful shutdown.
package main

import (
	"context"
	"flag"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"syscall"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/kinesis"

	"fleet-simulator/internal/config"
	"fleet-simulator/internal/data"
	"fleet-simulator/internal/engine"
	"fleet-simulator/internal/geo"
	"fleet-simulator/internal/httpapi"
	"fleet-simulator/internal/mapiface"
	"fleet-simulator/internal/results"
	"fleet-simulator/internal/streaming"
)

func main() {
	configPath := flag.String("config", "", "path to a JSON or YAML config file")
	spotCount := flag.Int("spots", 120, "number of parking spots to generate when no spot file is wired in")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("load config failed", "error", err)
		os.Exit(1)
	}

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		slog.Error("create output dir failed", "error", err)
		os.Exit(1)
	}

	sink, closeSink, err := buildSink(cfg)
	if err != nil {
		slog.Error("build results sink failed", "error", err)
		os.Exit(1)
	}
	defer closeSink()

	var stream data.EventStreamer
	if cfg.KinesisStream != "" {
		if s := buildStreamer(cfg); s != nil {
			stream = s
		}
	}

	var debugSrv *httpapi.Server
	if cfg.DebugHTTPAddr != "" {
		debugSrv = httpapi.New(cfg.DebugHTTPAddr)
	}

	m := mapiface.NewStraightLine()
	spots := randomSpots(cfg.RandomSeed, *spotCount)

	eng := engine.New(cfg, m, spots, sink, stream, debugSrv)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := eng.Run(ctx); err != nil {
		slog.Error("simulation run failed", "error", err)
		os.Exit(1)
	}
	slog.Info("simulation complete")
}

// randomSpots seeds a synthetic parking-spot layout. Real deployments wire
// in the actual spot coordinates through the data-loading layer spec.md §1
// places out of scope for this engine.
func randomSpots(seed int64, n int) []geo.Location {
	rnd := rand.New(rand.NewSource(seed))
	out := make([]geo.Location, n)
	for i := range out {
		lon := -122.45 + rnd.Float64()*0.2
		lat := 37.70 + rnd.Float64()*0.15
		out[i] = geo.New(lon, lat)
	}
	return out
}

func buildSink(cfg config.Config) (results.Sink, func(), error) {
	switch cfg.StorageType {
	case "dynamodb":
		awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(cfg.DynamoRegion))
		if err != nil {
			return nil, func() {}, err
		}
		client := dynamodb.NewFromConfig(awsCfg)
		sink := results.NewDynamoDB(client, cfg.RideTable, cfg.TaskTable, cfg.StateTable)
		return results.Multi{Sinks: []results.Sink{results.NewMemory(), sink}}, func() {}, nil

	case "sqlite":
		sqlitePath := cfg.SQLitePath
		if sqlitePath == "" {
			sqlitePath = cfg.OutputDir + "/results.db"
		}
		sink, err := results.OpenSQLite(sqlitePath)
		if err != nil {
			return nil, func() {}, err
		}
		return results.Multi{Sinks: []results.Sink{results.NewMemory(), sink}}, func() { sink.Close() }, nil

	case "csv":
		sink, err := results.OpenCSV(cfg.OutputDir+"/rides.csv", cfg.OutputDir+"/tasks.csv", cfg.OutputDir+"/states.csv")
		if err != nil {
			return nil, func() {}, err
		}
		return results.Multi{Sinks: []results.Sink{results.NewMemory(), sink}}, func() { sink.Close() }, nil

	default:
		return results.NewMemory(), func() {}, nil
	}
}

func buildStreamer(cfg config.Config) *streaming.Streamer {
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background())
	if err != nil {
		slog.Error("load aws config for kinesis failed", "error", err)
		return nil
	}
	client := kinesis.NewFromConfig(awsCfg)
	return streaming.New(client, cfg.KinesisStream)
}
