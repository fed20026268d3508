package thermostat

import (
	"reflect"
	"testing"
)

const testSerial = "02AA01AC0000001"

func newTestMachine(t *testing.T) (*Machine, *mockAccessory, *mockPublisher, *mockObserver) {
	t.Helper()
	acc := &mockAccessory{}
	pub := &mockPublisher{}
	obs := &mockObserver{}
	m := NewMachine(Identity{Serial: testSerial, Name: "Hallway"}, MachineOptions{
		Publisher: pub,
		Observer:  obs,
	})
	m.AttachAccessory(acc)
	acc.reset()
	return m, acc, pub, obs
}

func TestMachine_Defaults(t *testing.T) {
	m := NewMachine(Identity{Serial: testSerial}, MachineOptions{})

	if got := m.CurrentTemperature(); got != DefaultCurrentTemperature {
		t.Errorf("CurrentTemperature() = %v, want %v", got, DefaultCurrentTemperature)
	}
	if got := m.TargetTemperature(); got != 20 {
		t.Errorf("TargetTemperature() = %v, want 20", got)
	}
	if got := m.TargetTemperatureLow(); got != 18 {
		t.Errorf("TargetTemperatureLow() = %v, want 18", got)
	}
	if got := m.TargetTemperatureHigh(); got != 24 {
		t.Errorf("TargetTemperatureHigh() = %v, want 24", got)
	}
	if m.TargetMode() != AccessoryOff || m.CurrentActivity() != ActivityOff {
		t.Errorf("mode/activity = %v/%v, want OFF/off", m.TargetMode(), m.CurrentActivity())
	}
	if !m.Occupied() || m.FanActive() {
		t.Errorf("occupied/fan = %v/%v, want true/false", m.Occupied(), m.FanActive())
	}

	// Nil collaborators must not panic.
	m.UpdateCurrentTemperature(21)
	m.RequestFanActive(true)
}

func TestMachine_AttachAccessoryPushesState(t *testing.T) {
	m := NewMachine(Identity{Serial: testSerial}, MachineOptions{})
	m.UpdateMode("heat")
	m.UpdateTargetTemperature(22)

	acc := &mockAccessory{}
	m.AttachAccessory(acc)

	if acc.target != 22 || acc.current != DefaultCurrentTemperature || acc.mode != AccessoryHeat {
		t.Errorf("accessory = %+v, want target 22, default current, HEAT", acc)
	}
	if !acc.occupied {
		t.Error("accessory should start occupied")
	}
}

func TestMachine_UpdateCurrentTemperature(t *testing.T) {
	m, acc, pub, obs := newTestMachine(t)
	m.UpdateMode("heat")
	m.UpdateTargetTemperature(20)
	acc.reset()

	m.UpdateCurrentTemperature(18)

	want := []string{"current=18", "activity=heating"}
	if got := acc.history(); !reflect.DeepEqual(got, want) {
		t.Errorf("pushes = %v, want %v", got, want)
	}
	if m.CurrentActivity() != ActivityHeating {
		t.Errorf("CurrentActivity() = %v, want heating", m.CurrentActivity())
	}
	if len(pub.published()) != 0 {
		t.Errorf("inbound update published %v", pub.published())
	}
	changes := obs.all()
	last := changes[len(changes)-1]
	if last.Field != FieldCurrentTemperature || last.Origin != OriginDevice {
		t.Errorf("last change = %+v", last)
	}
}

func TestMachine_TargetUpdateDoesNotRecompute(t *testing.T) {
	m, acc, _, _ := newTestMachine(t)
	m.UpdateMode("heat")
	m.UpdateTargetTemperature(20)
	m.UpdateCurrentTemperature(20)
	acc.reset()

	m.UpdateTargetTemperature(25)

	if m.CurrentActivity() != ActivityOff {
		t.Errorf("CurrentActivity() = %v, want off until the next current/mode update", m.CurrentActivity())
	}
	if got := acc.history(); !reflect.DeepEqual(got, []string{"target=25"}) {
		t.Errorf("pushes = %v, want [target=25]", got)
	}

	m.UpdateCurrentTemperature(20)
	if m.CurrentActivity() != ActivityHeating {
		t.Errorf("CurrentActivity() = %v, want heating", m.CurrentActivity())
	}
}

func TestMachine_UpdateModeOffAlwaysOff(t *testing.T) {
	m, acc, _, _ := newTestMachine(t)
	m.UpdateMode("heat")
	m.UpdateTargetTemperature(30)
	m.UpdateCurrentTemperature(10)
	if m.CurrentActivity() != ActivityHeating {
		t.Fatalf("precondition: activity = %v, want heating", m.CurrentActivity())
	}

	m.UpdateMode("off")

	if m.CurrentActivity() != ActivityOff {
		t.Errorf("CurrentActivity() = %v, want off", m.CurrentActivity())
	}
	if acc.mode != AccessoryOff || acc.activity != ActivityOff {
		t.Errorf("accessory mode/activity = %v/%v, want OFF/off", acc.mode, acc.activity)
	}
}

func TestMachine_UpdateModeUnsetCurrentKeepsActivity(t *testing.T) {
	m, _, _, _ := newTestMachine(t)
	m.UpdateTargetTemperature(20)
	m.state.Activity = ActivityCooling

	m.UpdateMode("heat")

	if m.CurrentActivity() != ActivityCooling {
		t.Errorf("CurrentActivity() = %v, want previous value cooling", m.CurrentActivity())
	}
}

func TestMachine_UpdateModeUnknownIsOff(t *testing.T) {
	m, acc, _, _ := newTestMachine(t)
	m.UpdateMode("eco")
	if m.Mode() != ModeOff || acc.mode != AccessoryOff {
		t.Errorf("mode = %v, accessory = %v; want off/OFF", m.Mode(), acc.mode)
	}
}

func TestMachine_UpdateFanStateIdempotent(t *testing.T) {
	once, _, _, _ := newTestMachine(t)
	once.UpdateFanState(true)

	twice, acc, _, _ := newTestMachine(t)
	twice.UpdateFanState(true)
	twice.UpdateFanState(true)

	if !reflect.DeepEqual(once.Snapshot(), twice.Snapshot()) {
		t.Errorf("repeated update changed state: %+v vs %+v", once.Snapshot(), twice.Snapshot())
	}
	if got := acc.history(); len(got) != 2 {
		t.Errorf("pushes = %v, want two identical re-pushes", got)
	}
}

func TestMachine_UpdateOccupancy(t *testing.T) {
	m, acc, _, _ := newTestMachine(t)
	m.UpdateOccupancy(false)
	if m.Occupied() || acc.occupied {
		t.Error("occupancy not applied")
	}
}

func TestMachine_RequestsPublishCommands(t *testing.T) {
	tests := []struct {
		name  string
		apply func(*Machine)
		want  Command
	}{
		{
			name:  "target temperature",
			apply: func(m *Machine) { m.RequestTargetTemperature(21.5) },
			want:  Command{Serial: testSerial, Scope: ScopeShared, Field: FieldTargetTemperature, Payload: "21.5"},
		},
		{
			name:  "low bound",
			apply: func(m *Machine) { m.RequestTargetTemperatureLow(17) },
			want:  Command{Serial: testSerial, Scope: ScopeShared, Field: FieldTargetTemperatureLow, Payload: "17"},
		},
		{
			name:  "high bound",
			apply: func(m *Machine) { m.RequestTargetTemperatureHigh(25.25) },
			want:  Command{Serial: testSerial, Scope: ScopeShared, Field: FieldTargetTemperatureHigh, Payload: "25.25"},
		},
		{
			name:  "mode auto",
			apply: func(m *Machine) { m.RequestModeChange(AccessoryAuto) },
			want:  Command{Serial: testSerial, Scope: ScopeShared, Field: FieldTargetTemperatureType, Payload: "range"},
		},
		{
			name:  "fan",
			apply: func(m *Machine) { m.RequestFanActive(true) },
			want:  Command{Serial: testSerial, Scope: ScopeDevice, Field: FieldFanTimerActive, Payload: "true"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _, pub, obs := newTestMachine(t)
			tt.apply(m)

			got := pub.published()
			if len(got) != 1 || got[0] != tt.want {
				t.Errorf("published = %+v, want [%+v]", got, tt.want)
			}
			changes := obs.all()
			if len(changes) != 1 || changes[0].Origin != OriginAccessory {
				t.Errorf("changes = %+v, want one accessory change", changes)
			}
		})
	}
}

func TestMachine_RequestIsOptimistic(t *testing.T) {
	m, acc, _, _ := newTestMachine(t)
	m.RequestTargetTemperature(23)

	if m.TargetTemperature() != 23 {
		t.Errorf("TargetTemperature() = %v, want 23", m.TargetTemperature())
	}
	if len(acc.history()) != 0 {
		t.Errorf("request echoed to accessory: %v", acc.history())
	}
}

func TestMachine_RequestModeChangeRecomputes(t *testing.T) {
	m, acc, _, _ := newTestMachine(t)
	m.UpdateTargetTemperature(18)
	m.UpdateCurrentTemperature(20)
	acc.reset()

	m.RequestModeChange(AccessoryCool)

	if m.Mode() != ModeCool || m.CurrentActivity() != ActivityCooling {
		t.Errorf("mode/activity = %v/%v, want cool/cooling", m.Mode(), m.CurrentActivity())
	}
	if acc.activity != ActivityCooling {
		t.Errorf("accessory activity = %v, want cooling", acc.activity)
	}
}

func TestMachine_RequestModeChangeUnknownFallsBackToOff(t *testing.T) {
	m, acc, pub, _ := newTestMachine(t)
	m.RequestModeChange(AccessoryMode(9))

	if m.Mode() != ModeOff {
		t.Errorf("Mode() = %v, want off", m.Mode())
	}
	if acc.mode != AccessoryOff {
		t.Errorf("accessory mode = %v, want OFF pushed back", acc.mode)
	}
	if got := pub.published(); got[0].Payload != "off" {
		t.Errorf("payload = %q, want off", got[0].Payload)
	}
}

func TestMachine_SnapshotIsCopy(t *testing.T) {
	m, _, _, _ := newTestMachine(t)
	m.UpdateCurrentTemperature(19)

	snap := m.Snapshot()
	*snap.CurrentTemperature = 99

	if m.CurrentTemperature() != 19 {
		t.Errorf("Snapshot shares memory with machine state")
	}
}
