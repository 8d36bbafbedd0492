package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/example/taxi-dispatch/internal/models"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":                "healthy",
		"service":               "taxi-dispatch",
		"websocket_connections": s.reg.Stats().Total,
	})
}

func (s *Server) handleWSStats(w http.ResponseWriter, r *http.Request) {
	stats := s.reg.Stats()
	pending, accepted, _ := s.ledger.Counts()
	writeJSON(w, http.StatusOK, map[string]any{
		"total_connections":  stats.Total,
		"driver_connections": stats.Drivers,
		"client_connections": stats.Clients,
		"pending_rides":      pending,
		"active_rides":       accepted,
	})
}

func (s *Server) handleListRides(w http.ResponseWriter, r *http.Request) {
	status := models.RideStatus(r.URL.Query().Get("status"))
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}
	switch status {
	case "", models.StatusPending, models.StatusAccepted, models.StatusCancelled:
	default:
		http.Error(w, "invalid status", http.StatusBadRequest)
		return
	}

	rides := s.ledger.ListByStatus(status, limit)
	writeJSON(w, http.StatusOK, map[string]any{
		"rides":      rides,
		"totalCount": len(rides),
	})
}

func (s *Server) handleGetRide(w http.ResponseWriter, r *http.Request) {
	rideID := mux.Vars(r)["ride_id"]
	ride, ok := s.ledger.Get(rideID)
	if !ok {
		http.Error(w, "ride not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, ride)
}

func (s *Server) handleRideStats(w http.ResponseWriter, r *http.Request) {
	pending, accepted, cancelled := s.ledger.Counts()
	writeJSON(w, http.StatusOK, map[string]any{
		"pending_rides":   pending,
		"active_rides":    accepted,
		"cancelled_rides": cancelled,
		"total_rides":     pending + accepted + cancelled,
	})
}

func (s *Server) handleListDrivers(w http.ResponseWriter, r *http.Request) {
	all := s.pool.All()
	writeJSON(w, http.StatusOK, map[string]any{"drivers": all, "total": len(all)})
}

func (s *Server) handleOnlineDrivers(w http.ResponseWriter, r *http.Request) {
	online := s.pool.Online()
	writeJSON(w, http.StatusOK, map[string]any{"drivers": online, "total": len(online)})
}

func (s *Server) handleDriverStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.pool.Stats())
}

func (s *Server) handleGenerateDriver(w http.ResponseWriter, r *http.Request) {
	d := s.pool.AddOne()
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "driver": d})
}

func (s *Server) handleGetDriver(w http.ResponseWriter, r *http.Request) {
	driverID := mux.Vars(r)["driver_id"]
	d, ok := s.pool.Describe(driverID)
	if !ok {
		http.Error(w, "driver not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
