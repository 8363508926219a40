package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadWithNoPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := Default()
	if cfg.VehicleCount != want.VehicleCount || cfg.StorageType != want.StorageType {
		t.Fatalf("cfg = %+v, want defaults %+v", cfg, want)
	}
}

func TestLoadJSONOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.json")
	if err := os.WriteFile(path, []byte(`{"vehicle_count": 7, "storage_type": "sqlite"}`), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.VehicleCount != 7 {
		t.Fatalf("VehicleCount = %d, want 7", cfg.VehicleCount)
	}
	if cfg.StorageType != "sqlite" {
		t.Fatalf("StorageType = %q, want sqlite", cfg.StorageType)
	}
}

func TestLoadYAMLOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.yaml")
	if err := os.WriteFile(path, []byte("vehicle_count: 3\nfocus_area: downtown\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.VehicleCount != 3 || cfg.FocusArea != "downtown" {
		t.Fatalf("cfg = %+v, want VehicleCount 3 and FocusArea downtown", cfg)
	}
}

func TestEnvOverridesFileValue(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.json")
	if err := os.WriteFile(path, []byte(`{"vehicle_count": 7}`), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	t.Setenv("FLEETSIM_VEHICLE_COUNT", "42")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.VehicleCount != 42 {
		t.Fatalf("VehicleCount = %d, want 42 (env override)", cfg.VehicleCount)
	}
}

func TestLoadRejectsUnrecognizedExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.toml")
	if err := os.WriteFile(path, []byte("vehicle_count = 7"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected an error for an unrecognized config extension")
	}
}
