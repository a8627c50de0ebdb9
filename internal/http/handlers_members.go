package http

import (
	"encoding/json"
	"net/http"
	"strings"
)

type registerMemberRequest struct {
	LastName  string `json:"last_name"`
	FirstName string `json:"first_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

type updateContactRequest struct {
	Email string `json:"email"`
	Phone string `json:"phone"`
}

func (s *Server) handleMembers(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, s.registry.List())
	case http.MethodPost:
		var req registerMemberRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			badRequest(w, "invalid JSON body")
			return
		}
		m, err := s.registry.Register(r.Context(), req.LastName, req.FirstName, req.Email, req.Phone)
		if err != nil {
			s.writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, m)
	default:
		methodNotAllowed(w, "GET, POST")
	}
}

// handleMemberByID routes /members/{id}, /members/{id}/contact,
// /members/{id}/deactivate and /members/{id}/reactivate.
func (s *Server) handleMemberByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/members/")
	id, action, _ := strings.Cut(rest, "/")
	if id == "" {
		badRequest(w, "missing member id")
		return
	}

	switch action {
	case "":
		switch r.Method {
		case http.MethodGet:
			m, err := s.registry.Get(id)
			if err != nil {
				s.writeDomainError(w, r, err)
				return
			}
			writeJSON(w, http.StatusOK, m)
		case http.MethodPatch:
			var req updateContactRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				badRequest(w, "invalid JSON body")
				return
			}
			m, err := s.registry.UpdateContact(r.Context(), id, req.Email, req.Phone)
			if err != nil {
				s.writeDomainError(w, r, err)
				return
			}
			writeJSON(w, http.StatusOK, m)
		default:
			methodNotAllowed(w, "GET, PATCH")
		}

	case "deactivate":
		if r.Method != http.MethodPost {
			methodNotAllowed(w, "POST")
			return
		}
		if err := s.registry.Deactivate(r.Context(), id); err != nil {
			s.writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"id": id, "status": "inactive"})

	case "reactivate":
		if r.Method != http.MethodPost {
			methodNotAllowed(w, "POST")
			return
		}
		if err := s.registry.Reactivate(r.Context(), id); err != nil {
			s.writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"id": id, "status": "active"})

	default:
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
	}
}
