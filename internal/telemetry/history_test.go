package telemetry

import (
	"sync"
	"testing"

	"github.com/nerrad567/nolongerevil-bridge/internal/thermostat"
)

type point struct {
	measurement string
	tags        map[string]string
	fields      map[string]interface{}
}

type mockWriter struct {
	mu     sync.Mutex
	points []point
}

func (w *mockWriter) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.points = append(w.points, point{measurement, tags, fields})
}

func TestHistory_StateChanged(t *testing.T) {
	w := &mockWriter{}
	h := NewHistory(w)

	h.StateChanged(hallwayChange())

	if len(w.points) != 1 {
		t.Fatalf("wrote %d points, want 1", len(w.points))
	}
	p := w.points[0]
	if p.measurement != Measurement {
		t.Errorf("measurement = %q, want %q", p.measurement, Measurement)
	}
	if p.tags["serial"] != "SER1" || p.tags["origin"] != "device" || p.tags["field"] != "current_temperature" {
		t.Errorf("tags = %v", p.tags)
	}
	if p.fields["current_temperature"] != 18.5 {
		t.Errorf("current_temperature = %v, want 18.5", p.fields["current_temperature"])
	}
	if p.fields["mode"] != "range" || p.fields["activity"] != int64(1) {
		t.Errorf("mode/activity = %v/%v", p.fields["mode"], p.fields["activity"])
	}
	if _, ok := p.fields["target_temperature_low"]; ok {
		t.Error("unset low bound should not be written")
	}
}

func TestHistory_ObserversFanOut(t *testing.T) {
	w := &mockWriter{}
	m := NewMetrics()
	obs := thermostat.Observers{m, NewHistory(w)}

	obs.StateChanged(hallwayChange())

	if len(w.points) != 1 {
		t.Errorf("history got %d points, want 1", len(w.points))
	}
}
