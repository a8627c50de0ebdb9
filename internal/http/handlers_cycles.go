package http

import (
	"encoding/json"
	"net/http"

	"tontine/internal/core"
)

type createCycleRequest struct {
	Contribution   string   `json:"contribution"`
	DurationMonths int      `json:"duration_months"`
	StartDate      string   `json:"start_date"`
	Participants   []string `json:"participants"`
}

type createCycleResponse struct {
	Cycle    core.Cycle `json:"cycle"`
	Warnings []string   `json:"warnings,omitempty"`
}

func (s *Server) handleCycles(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, s.cycleEngine.List())
	case http.MethodPost:
		var req createCycleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			badRequest(w, "invalid JSON body")
			return
		}
		cents, err := core.ParseDecimalToCents(req.Contribution)
		if err != nil {
			s.writeDomainError(w, r, err)
			return
		}
		startDate, err := core.ParseDate(req.StartDate)
		if err != nil {
			s.writeDomainError(w, r, err)
			return
		}
		cycle, warnings, err := s.cycleEngine.Create(r.Context(),
			core.Money{Cents: cents}, req.DurationMonths, startDate, req.Participants)
		if err != nil {
			s.writeDomainError(w, r, err)
			return
		}
		s.reports.invalidate()
		writeJSON(w, http.StatusCreated, createCycleResponse{Cycle: cycle, Warnings: warnings})
	default:
		methodNotAllowed(w, "GET, POST")
	}
}

func (s *Server) handleActiveCycle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}
	cycle, ok, err := s.cycleEngine.Active()
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	if !ok {
		s.writeDomainError(w, r, core.ErrNoActiveCycle)
		return
	}
	writeJSON(w, http.StatusOK, cycle)
}

func (s *Server) handleCycleSchedule(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}
	cycle, ok, err := s.cycleEngine.Active()
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	if !ok {
		s.writeDomainError(w, r, core.ErrNoActiveCycle)
		return
	}
	schedule, err := s.cycleEngine.Schedule(cycle.ID)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, schedule)
}

func (s *Server) handleAdvanceCycle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}
	cycle, ok, err := s.cycleEngine.Active()
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	if !ok {
		s.writeDomainError(w, r, core.ErrNoActiveCycle)
		return
	}
	advanced, err := s.cycleEngine.Advance(r.Context(), cycle.ID)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.reports.invalidate()
	writeJSON(w, http.StatusOK, advanced)
}

func (s *Server) handleTerminateCycle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}
	cycle, ok, err := s.cycleEngine.Active()
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	if !ok {
		s.writeDomainError(w, r, core.ErrNoActiveCycle)
		return
	}
	terminated, err := s.cycleEngine.Terminate(r.Context(), cycle.ID)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.reports.invalidate()
	writeJSON(w, http.StatusOK, terminated)
}
