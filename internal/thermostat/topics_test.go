package thermostat

import (
	"errors"
	"testing"
)

func TestParseTopic(t *testing.T) {
	addr, err := ParseTopic("nle/SER1/shared/target_temperature/extra")
	if err != nil {
		t.Fatalf("ParseTopic() error = %v", err)
	}
	want := Address{Prefix: "nle", Serial: "SER1", Scope: "shared", Field: "target_temperature"}
	if addr != want {
		t.Errorf("ParseTopic() = %+v, want %+v", addr, want)
	}

	if _, err := ParseTopic("nle/SER1/shared"); !errors.Is(err, ErrMalformedTopic) {
		t.Errorf("ParseTopic(3 levels) error = %v, want ErrMalformedTopic", err)
	}
}

func TestCommandTopic(t *testing.T) {
	got := CommandTopic("nle", "SER1", ScopeDevice, FieldFanTimerActive)
	if got != "nle/SER1/device/fan_timer_active/set" {
		t.Errorf("CommandTopic() = %q", got)
	}
}

func TestDeviceTopics(t *testing.T) {
	topics := DeviceTopics("nle", "SER1")
	seen := make(map[string]bool)
	for _, topic := range topics {
		if seen[topic] {
			t.Errorf("duplicate topic %q", topic)
		}
		seen[topic] = true
	}
	for _, want := range []string{
		"nle/SER1/shared/current_temperature",
		"nle/SER1/device/current_temperature",
		"nle/SER1/shared/target_temperature_type",
		"nle/SER1/device/away",
		"nle/SER1/+/availability",
	} {
		if !seen[want] {
			t.Errorf("DeviceTopics() missing %q", want)
		}
	}
}
