// v2
// handlers.go

package api

import (
	"encoding/json"
	"net/http"

	"github.com/pratikpanchal22/multi-source-energy-meter/internal/control"
	"github.com/pratikpanchal22/multi-source-energy-meter/internal/sim"
	"github.com/pratikpanchal22/multi-source-energy-meter/internal/telemetry"
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	states := make(map[string]sim.SourceState, len(s.sources))
	for _, src := range s.sources {
		states[src.Name()] = src.State()
	}
	ev := telemetry.NewMeterReading(s.readings.Snapshot())
	resp := map[string]any{
		"sources":  states,
		"latest":   ev,
		"netPower": ev.NetPower,
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleControl(w http.ResponseWriter, r *http.Request) {
	var action control.Action
	if err := json.NewDecoder(r.Body).Decode(&action); err != nil {
		writeJSON(w, http.StatusBadRequest, control.Result{Accepted: false, Reason: "malformed request body"})
		return
	}
	res := s.processor.Apply(r.Context(), action)
	status := http.StatusOK
	if !res.Accepted {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, res)
}

func (s *Server) handleGetConfiguration(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"broker": s.brokers.Current().Redacted()})
}

// handlePostConfiguration is sugar for {action:"reconfigure_broker"}; it runs
// through the same serialized processor.
func (s *Server) handlePostConfiguration(w http.ResponseWriter, r *http.Request) {
	var update control.BrokerUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeJSON(w, http.StatusBadRequest, control.Result{Accepted: false, Reason: "malformed request body"})
		return
	}
	res := s.processor.Apply(r.Context(), control.Action{Kind: control.KindReconfigureBroker, Broker: &update})
	status := http.StatusOK
	if !res.Accepted {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, res)
}

func (s *Server) handleBrokerStatus(w http.ResponseWriter, _ *http.Request) {
	connected := s.publisher != nil && s.publisher.Connected()
	writeJSON(w, http.StatusOK, map[string]bool{"connected": connected})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
