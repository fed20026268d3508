package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/nolongerevil-bridge/internal/thermostat"
)

// ThermostatView is one thermostat as reported by the API.
type ThermostatView struct {
	Serial       string           `json:"serial"`
	Name         string           `json:"name"`
	DisplayUnits string           `json:"temperature_display_units"`
	TargetMode   string           `json:"target_mode"`
	Activity     string           `json:"activity"`
	State        thermostat.State `json:"state"`
}

func viewOf(m *thermostat.Machine) ThermostatView {
	id := m.Identity()
	return ThermostatView{
		Serial:       id.Serial,
		Name:         id.Name,
		DisplayUnits: id.DisplayUnits.String(),
		TargetMode:   m.TargetMode().String(),
		Activity:     m.CurrentActivity().String(),
		State:        m.Snapshot(),
	}
}

// handleListThermostats returns every routed thermostat, ordered by serial.
func (s *Server) handleListThermostats(w http.ResponseWriter, r *http.Request) {
	var views []ThermostatView
	err := s.loop.Call(r.Context(), func() {
		serials := s.router.Serials()
		views = make([]ThermostatView, 0, len(serials))
		for _, serial := range serials {
			if m, ok := s.router.Machine(serial); ok {
				views = append(views, viewOf(m))
			}
		}
	})
	if err != nil {
		writeUnavailable(w, "thermostat loop unavailable")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"thermostats": views,
		"count":       len(views),
	})
}

// handleGetThermostat returns a single thermostat by serial.
func (s *Server) handleGetThermostat(w http.ResponseWriter, r *http.Request) {
	serial := chi.URLParam(r, "serial")

	var (
		view  ThermostatView
		found bool
	)
	err := s.loop.Call(r.Context(), func() {
		m, ok := s.router.Machine(serial)
		if !ok {
			return
		}
		view, found = viewOf(m), true
	})
	if err != nil {
		writeUnavailable(w, "thermostat loop unavailable")
		return
	}
	if !found {
		writeNotFound(w, "thermostat not found")
		return
	}

	writeJSON(w, http.StatusOK, view)
}
