package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestGetConfigDir(t *testing.T) {
	configDir, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error = %v", err)
	}

	if configDir == "" {
		t.Error("GetConfigDir() returned empty string")
	}

	if !strings.Contains(configDir, "ibuslink") {
		t.Errorf("GetConfigDir() = %v, should contain 'ibuslink'", configDir)
	}

	switch runtime.GOOS {
	case "windows":
		if !strings.Contains(configDir, "AppData") && !strings.Contains(configDir, "Local") {
			t.Errorf("Windows config dir should contain 'AppData' or 'Local', got: %v", configDir)
		}
	case "darwin", "linux":
		if !strings.Contains(configDir, ".config") {
			t.Errorf("Unix config dir should contain '.config', got: %v", configDir)
		}
	}
}

func TestGetConfigPath(t *testing.T) {
	configPath, err := GetConfigPath()
	if err != nil {
		t.Fatalf("GetConfigPath() error = %v", err)
	}

	if filepath.Base(configPath) != "config.yaml" {
		t.Errorf("GetConfigPath() should end with 'config.yaml', got: %v", configPath)
	}
}

func TestNewConfigDefaults(t *testing.T) {
	cfg := NewConfig()

	if cfg.Version != 1 {
		t.Errorf("Version = %v, want 1", cfg.Version)
	}
	if cfg.Link.Baud != 115200 {
		t.Errorf("Link.Baud = %v, want 115200", cfg.Link.Baud)
	}
	if cfg.Link.Telemetry {
		t.Error("Link.Telemetry should default to false")
	}
	if cfg.Server.Listen == "" {
		t.Error("Server.Listen should have a default")
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Link.Baud != 115200 {
		t.Errorf("Link.Baud = %v, want default 115200", cfg.Link.Baud)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := NewConfig()
	cfg.Link.Port = "/dev/ttyACM3"
	cfg.Link.Telemetry = true
	cfg.Sensors = []SensorDef{
		{Name: "temperature", Type: 0x01, Value: 250},
		{Name: "rpm", Type: 0x02},
	}

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if loaded.Link.Port != "/dev/ttyACM3" {
		t.Errorf("Link.Port = %v, want /dev/ttyACM3", loaded.Link.Port)
	}
	if !loaded.Link.Telemetry {
		t.Error("Link.Telemetry not preserved")
	}
	if len(loaded.Sensors) != 2 {
		t.Fatalf("Sensors length = %d, want 2", len(loaded.Sensors))
	}
	if loaded.Sensors[0].Name != "temperature" || loaded.Sensors[0].Value != 250 {
		t.Errorf("Sensors[0] = %+v", loaded.Sensors[0])
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{
			name: "unsupported version",
			yaml: "version: 9\n",
		},
		{
			name: "sensor type too large",
			yaml: "version: 1\nsensors:\n  - name: bad\n    type: 0x1FF\n",
		},
		{
			name: "sensor value too large",
			yaml: "version: 1\nsensors:\n  - name: bad\n    type: 0x01\n    value: 70000\n",
		},
		{
			name: "zero baud",
			yaml: "version: 1\nlink:\n  baud: 0\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.yaml), 0600); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); err == nil {
				t.Error("Load() should have failed")
			}
		})
	}
}
