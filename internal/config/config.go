// Package config loads simulation configuration, grounded on
// car-simulator/cmd/main.go's getEnv/getEnvInt/getEnvFloat helpers for
// environment overrides, layered on top of a JSON or YAML file (sniffed by
// extension, the way battery-backtest's config loader picks a decoder).
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the full set of tunables the simulation core needs, spanning
// vehicle battery kinematics, fleet specialist timing, demand generation,
// and output sinks.
type Config struct {
	RandomSeed int64 `json:"random_seed" yaml:"random_seed"`

	VehicleCount      int     `json:"vehicle_count" yaml:"vehicle_count"`
	InitialBattery    float64 `json:"initial_battery" yaml:"initial_battery"`
	DischargeRideKm   float64 `json:"discharge_ride_km" yaml:"discharge_ride_km"`
	DischargeIdleHour float64 `json:"discharge_idle_hour" yaml:"discharge_idle_hour"`
	SwapThreshold     float64 `json:"swap_threshold" yaml:"swap_threshold"`
	BountyThreshold   float64 `json:"bounty_threshold" yaml:"bounty_threshold"`
	RidingSpeedMS     float64 `json:"riding_speed_ms" yaml:"riding_speed_ms"`

	SpecialistCount        int     `json:"specialist_count" yaml:"specialist_count"`
	SpecialistStartTime    float64 `json:"specialist_start_time" yaml:"specialist_start_time"`
	SpecialistSpeedMS      float64 `json:"specialist_speed_ms" yaml:"specialist_speed_ms"`
	TimePerSwapSingle      float64 `json:"time_per_swap_single" yaml:"time_per_swap_single"`
	TimePerSwapMultiple    float64 `json:"time_per_swap_multiple" yaml:"time_per_swap_multiple"`
	SpecialistPollInterval float64 `json:"specialist_poll_interval" yaml:"specialist_poll_interval"`
	FocusArea              string  `json:"focus_area" yaml:"focus_area"`
	VanBatteryCapacity     int     `json:"van_battery_capacity" yaml:"van_battery_capacity"`
	RefillVanBatteriesTime float64 `json:"refill_van_batteries_time" yaml:"refill_van_batteries_time"`

	RidersPerHour float64 `json:"riders_per_hour" yaml:"riders_per_hour"`
	WalkRadiusM   float64 `json:"walk_radius_m" yaml:"walk_radius_m"`

	SimDurationSeconds  float64 `json:"sim_duration_seconds" yaml:"sim_duration_seconds"`
	SnapshotIntervalSec float64 `json:"snapshot_interval_seconds" yaml:"snapshot_interval_seconds"`

	OutputDir     string `json:"output_dir" yaml:"output_dir"`
	StorageType   string `json:"storage_type" yaml:"storage_type"` // memory, dynamodb, sqlite, csv
	DynamoRegion  string `json:"dynamo_region" yaml:"dynamo_region"`
	RideTable     string `json:"ride_table" yaml:"ride_table"`
	TaskTable     string `json:"task_table" yaml:"task_table"`
	SQLitePath    string `json:"sqlite_path" yaml:"sqlite_path"`
	StateTable    string `json:"state_table" yaml:"state_table"`
	KinesisStream string `json:"kinesis_stream" yaml:"kinesis_stream"`

	DebugHTTPAddr string `json:"debug_http_addr" yaml:"debug_http_addr"`
}

// Default returns the Config used for any key that neither the config file
// nor an environment override sets.
func Default() Config {
	return Config{
		RandomSeed:             1,
		VehicleCount:           50,
		InitialBattery:         1.0,
		DischargeRideKm:        0.02,
		DischargeIdleHour:      0.002,
		SwapThreshold:          0.2,
		BountyThreshold:        0.05,
		RidingSpeedMS:          4.0,
		SpecialistCount:        2,
		SpecialistStartTime:    0,
		SpecialistSpeedMS:      8.0,
		TimePerSwapSingle:      300,
		TimePerSwapMultiple:    180,
		SpecialistPollInterval: 600,
		VanBatteryCapacity:     10,
		RefillVanBatteriesTime: 1800,
		RidersPerHour:          20,
		WalkRadiusM:            400,
		SimDurationSeconds:     86400,
		SnapshotIntervalSec:    900,
		OutputDir:              "./output",
		StorageType:            "memory",
	}
}

// Load builds a Config by starting from Default, applying path (a JSON or
// YAML file, picked by extension) if non-empty, then applying any FLEETSIM_
// prefixed environment variable overrides, matching car-simulator's
// precedence of env vars over everything else.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("config: read %s: %w", path, err)
		}
		switch ext := strings.ToLower(filepath.Ext(path)); ext {
		case ".yaml", ".yml":
			if err := yaml.Unmarshal(raw, &cfg); err != nil {
				return cfg, fmt.Errorf("config: parse yaml %s: %w", path, err)
			}
		case ".json":
			if err := json.Unmarshal(raw, &cfg); err != nil {
				return cfg, fmt.Errorf("config: parse json %s: %w", path, err)
			}
		default:
			return cfg, fmt.Errorf("config: unrecognized extension %q", ext)
		}
	}

	applyEnvOverrides(&cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	cfg.VehicleCount = getEnvInt("FLEETSIM_VEHICLE_COUNT", cfg.VehicleCount)
	cfg.InitialBattery = getEnvFloat("FLEETSIM_INITIAL_BATTERY", cfg.InitialBattery)
	cfg.DischargeRideKm = getEnvFloat("FLEETSIM_DISCHARGE_RIDE_KM", cfg.DischargeRideKm)
	cfg.DischargeIdleHour = getEnvFloat("FLEETSIM_DISCHARGE_IDLE_HOUR", cfg.DischargeIdleHour)
	cfg.SwapThreshold = getEnvFloat("FLEETSIM_SWAP_THRESHOLD", cfg.SwapThreshold)
	cfg.BountyThreshold = getEnvFloat("FLEETSIM_BOUNTY_THRESHOLD", cfg.BountyThreshold)
	cfg.SpecialistCount = getEnvInt("FLEETSIM_SPECIALIST_COUNT", cfg.SpecialistCount)
	cfg.FocusArea = getEnv("FLEETSIM_FOCUS_AREA", cfg.FocusArea)
	cfg.VanBatteryCapacity = getEnvInt("FLEETSIM_VAN_BATTERY_CAPACITY", cfg.VanBatteryCapacity)
	cfg.RefillVanBatteriesTime = getEnvFloat("FLEETSIM_REFILL_VAN_BATTERIES_TIME", cfg.RefillVanBatteriesTime)
	cfg.RidersPerHour = getEnvFloat("FLEETSIM_RIDERS_PER_HOUR", cfg.RidersPerHour)
	cfg.SimDurationSeconds = getEnvFloat("FLEETSIM_SIM_DURATION_SECONDS", cfg.SimDurationSeconds)
	cfg.OutputDir = getEnv("FLEETSIM_OUTPUT_DIR", cfg.OutputDir)
	cfg.StorageType = getEnv("FLEETSIM_STORAGE_TYPE", cfg.StorageType)
	cfg.DynamoRegion = getEnv("FLEETSIM_DYNAMO_REGION", cfg.DynamoRegion)
	cfg.RideTable = getEnv("FLEETSIM_RIDE_TABLE", cfg.RideTable)
	cfg.TaskTable = getEnv("FLEETSIM_TASK_TABLE", cfg.TaskTable)
	cfg.SQLitePath = getEnv("FLEETSIM_SQLITE_PATH", cfg.SQLitePath)
	cfg.StateTable = getEnv("FLEETSIM_STATE_TABLE", cfg.StateTable)
	cfg.KinesisStream = getEnv("FLEETSIM_KINESIS_STREAM", cfg.KinesisStream)
	cfg.DebugHTTPAddr = getEnv("FLEETSIM_DEBUG_HTTP_ADDR", cfg.DebugHTTPAddr)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
