package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

func TestLoad_ValidConfig(t *testing.T) {
	content := `
bridge:
  topic_prefix: "nle-test"
mqtt:
  broker:
    host: "broker.local"
    port: 1884
  qos: 1
homekit:
  pin: "12344321"
devices:
  - name: "Hallway"
    serial: "02AA01AC0000001"
  - serial: "02AA01AC0000002"
    temperature_display_units: fahrenheit
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Bridge.TopicPrefix != "nle-test" {
		t.Errorf("Bridge.TopicPrefix = %q, want %q", cfg.Bridge.TopicPrefix, "nle-test")
	}
	if cfg.MQTT.Broker.Host != "broker.local" || cfg.MQTT.Broker.Port != 1884 {
		t.Errorf("MQTT.Broker = %+v, want broker.local:1884", cfg.MQTT.Broker)
	}
	if len(cfg.Devices) != 2 {
		t.Fatalf("len(Devices) = %d, want 2", len(cfg.Devices))
	}
	if cfg.Devices[0].TemperatureDisplayUnits != UnitsCelsius {
		t.Errorf("Devices[0] units = %q, want CELSIUS default", cfg.Devices[0].TemperatureDisplayUnits)
	}
	if cfg.Devices[1].TemperatureDisplayUnits != UnitsFahrenheit {
		t.Errorf("Devices[1] units = %q, want FAHRENHEIT", cfg.Devices[1].TemperatureDisplayUnits)
	}
	if cfg.Devices[1].Name != "Nest 02AA01AC0000002" {
		t.Errorf("Devices[1].Name = %q, want generated name", cfg.Devices[1].Name)
	}
	if cfg.HomeKit.Manufacturer != "Google Nest" {
		t.Errorf("HomeKit.Manufacturer = %q, want default", cfg.HomeKit.Manufacturer)
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "devices:\n  - serial: ABC\n"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Bridge.TopicPrefix != "nolongerevil" {
		t.Errorf("TopicPrefix = %q, want nolongerevil", cfg.Bridge.TopicPrefix)
	}
	if cfg.MQTT.QoS != 1 {
		t.Errorf("QoS = %d, want 1", cfg.MQTT.QoS)
	}
	if cfg.MQTT.Broker.ClientID != "" {
		t.Errorf("ClientID = %q, want empty (generated at connect)", cfg.MQTT.Broker.ClientID)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("NLEBRIDGE_MQTT_HOST", "env-broker")
	t.Setenv("NLEBRIDGE_MQTT_PORT", "8883")
	t.Setenv("NLEBRIDGE_MQTT_PASSWORD", "s3cret")
	t.Setenv("NLEBRIDGE_TOPIC_PREFIX", "envprefix")

	cfg, err := Load(writeConfig(t, "devices:\n  - serial: ABC\n"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.MQTT.Broker.Host != "env-broker" {
		t.Errorf("Host = %q, want env-broker", cfg.MQTT.Broker.Host)
	}
	if cfg.MQTT.Broker.Port != 8883 {
		t.Errorf("Port = %d, want 8883", cfg.MQTT.Broker.Port)
	}
	if cfg.MQTT.Auth.Password != "s3cret" {
		t.Error("Password not overridden from environment")
	}
	if cfg.Bridge.TopicPrefix != "envprefix" {
		t.Errorf("TopicPrefix = %q, want envprefix", cfg.Bridge.TopicPrefix)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "invalid: [yaml: content"))
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_NoDevices(t *testing.T) {
	_, err := Load(writeConfig(t, "bridge:\n  topic_prefix: x\n"))
	if err == nil {
		t.Error("Load() expected validation error for empty device list, got nil")
	}
}

func validConfig() *Config {
	cfg := defaultConfig()
	cfg.Devices = []DeviceConfig{{Name: "Hall", Serial: "ABC", TemperatureDisplayUnits: UnitsCelsius}}
	return cfg
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid config", mutate: func(*Config) {}},
		{
			name:    "empty prefix",
			mutate:  func(c *Config) { c.Bridge.TopicPrefix = "" },
			wantErr: "bridge.topic_prefix is required",
		},
		{
			name:    "prefix with separator",
			mutate:  func(c *Config) { c.Bridge.TopicPrefix = "a/b" },
			wantErr: "single topic level",
		},
		{
			name:    "prefix with wildcard",
			mutate:  func(c *Config) { c.Bridge.TopicPrefix = "nle#" },
			wantErr: "single topic level",
		},
		{
			name:    "invalid QoS",
			mutate:  func(c *Config) { c.MQTT.QoS = 3 },
			wantErr: "mqtt.qos",
		},
		{
			name:    "short pin",
			mutate:  func(c *Config) { c.HomeKit.Pin = "1234" },
			wantErr: "homekit.pin",
		},
		{
			name:    "non-numeric pin",
			mutate:  func(c *Config) { c.HomeKit.Pin = "1234abcd" },
			wantErr: "homekit.pin",
		},
		{
			name: "pin ignored when homekit disabled",
			mutate: func(c *Config) {
				c.HomeKit.Enabled = false
				c.HomeKit.Pin = ""
			},
		},
		{
			name:    "invalid api port",
			mutate:  func(c *Config) { c.API.Port = 70000 },
			wantErr: "api.port",
		},
		{
			name:    "duplicate serial",
			mutate:  func(c *Config) { c.Devices = append(c.Devices, DeviceConfig{Serial: "ABC"}) },
			wantErr: "duplicated",
		},
		{
			name:    "empty serial",
			mutate:  func(c *Config) { c.Devices[0].Serial = "" },
			wantErr: "serial is required",
		},
		{
			name:    "bad units",
			mutate:  func(c *Config) { c.Devices[0].TemperatureDisplayUnits = "KELVIN" },
			wantErr: "temperature_display_units",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() error = nil, want %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestMQTTAuthConfig_LogValue(t *testing.T) {
	v := MQTTAuthConfig{Username: "bridge", Password: "hunter2"}.LogValue()
	if strings.Contains(v.String(), "hunter2") {
		t.Errorf("LogValue() leaked password: %s", v.String())
	}
	if v.Kind() != slog.KindGroup {
		t.Errorf("LogValue().Kind() = %v, want group", v.Kind())
	}
}

func TestGetTimeouts(t *testing.T) {
	cfg := validConfig()
	if got := cfg.API.GetReadTimeout().Seconds(); got != 10 {
		t.Errorf("GetReadTimeout() = %vs, want 10s", got)
	}
	if got := cfg.API.GetWriteTimeout().Seconds(); got != 10 {
		t.Errorf("GetWriteTimeout() = %vs, want 10s", got)
	}
	if got := cfg.API.GetIdleTimeout().Seconds(); got != 60 {
		t.Errorf("GetIdleTimeout() = %vs, want 60s", got)
	}
}
