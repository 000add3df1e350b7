// internal/api/handlers.go
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	commonerrors "solar-pumping-workers/internal/common/errors"
	"solar-pumping-workers/internal/common/validation"
	"solar-pumping-workers/internal/history"
	"solar-pumping-workers/internal/sizing"
	"solar-pumping-workers/pkg/registry"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type calculateResponse struct {
	SimulationID string `json:"simulation_id"`
	sizing.SizingResult
}

type hourlyRequest struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
	Kwc float64 `json:"kwc"`
}

type historyItem struct {
	ID        string              `json:"id"`
	Name      string              `json:"name"`
	CreatedAt time.Time           `json:"created_at"`
	Latitude  float64             `json:"latitude"`
	Longitude float64             `json:"longitude"`
	Results   sizing.SizingResult `json:"results"`
}

func (s *Server) handleCalculate(w http.ResponseWriter, r *http.Request) {
	var req sizing.SizingRequest
	if !s.decode(w, r, registry.TaskComputeSizing, &req) {
		return
	}

	sim, err := s.service.Calculate(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, calculateResponse{SimulationID: sim.ID, SizingResult: sim.Result})
}

func (s *Server) handleHourlyProduction(w http.ResponseWriter, r *http.Request) {
	var req hourlyRequest
	if !s.decode(w, r, registry.TaskHourlyProduction, &req) {
		return
	}

	profile, err := s.service.HourlyProduction(r.Context(), req.Lat, req.Lon, req.Kwc)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeJSON(w, http.StatusBadRequest, errorResponse{
				Error:   string(commonerrors.ErrCodeInvalidInput),
				Message: "limit must be a positive integer",
			})
			return
		}
		limit = n
	}

	sims, err := s.service.History(r.Context(), limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toHistoryItems(sims))
}

func toHistoryItems(sims []history.Simulation) []historyItem {
	items := make([]historyItem, len(sims))
	for i, sim := range sims {
		items[i] = historyItem{
			ID:        sim.ID,
			Name:      sim.Name,
			CreatedAt: sim.CreatedAt,
			Latitude:  sim.Request.Latitude,
			Longitude: sim.Request.Longitude,
			Results:   sim.Result,
		}
	}
	return items
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	status := http.StatusOK
	results := make(map[string]string, len(s.checks))
	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			results[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}
	writeJSON(w, status, results)
}

// decode reads the JSON body, validates it against the activity schema of
// taskType and fills out. It writes the 400 response itself and reports
// whether the handler should continue.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, taskType string, out interface{}) bool {
	var body map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:   string(commonerrors.ErrCodeInvalidInput),
			Message: fmt.Sprintf("malformed JSON body: %v", err),
		})
		return false
	}

	result, err := validation.ValidateAndDecode(body, s.registry.InputSchemaFor(taskType), out)
	if err != nil {
		s.writeError(w, err)
		return false
	}
	if !result.Valid {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:   string(commonerrors.ErrCodeInvalidInput),
			Message: result.Summary(),
		})
		return false
	}
	return true
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	stdErr := commonerrors.Normalize(err)
	status := statusFor(stdErr.Code)
	if status >= http.StatusInternalServerError {
		s.logger.Error("Request failed", map[string]interface{}{
			"errorCode": string(stdErr.Code),
			"error":     err,
		})
	}

	message := stdErr.Details
	if message == "" || status >= http.StatusInternalServerError {
		message = stdErr.Message
	}
	writeJSON(w, status, errorResponse{Error: string(stdErr.Code), Message: message})
}

func statusFor(code commonerrors.ErrorCode) int {
	switch code {
	case commonerrors.ErrCodeInvalidInput, commonerrors.ErrCodeInputValidationFailed:
		return http.StatusBadRequest
	case commonerrors.ErrCodeNoBatteryAvailable,
		commonerrors.ErrCodeNoPanelAvailable,
		commonerrors.ErrCodeNoPumpAvailable,
		commonerrors.ErrCodeMissingAssumptions:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
