package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"tontine/internal/core"
	"tontine/internal/export"
)

type recordContributionRequest struct {
	MemberID string `json:"member_id"`
	Amount   string `json:"amount"`
}

func (s *Server) handleContributions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}
	var req recordContributionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.MemberID) == "" {
		badRequest(w, "missing member_id")
		return
	}
	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	tx, err := s.finEngine.RecordContribution(r.Context(), req.MemberID, core.Money{Cents: cents})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.reports.invalidate()
	s.httpLog.LogContributionRecorded(r.Context(), tx.ID, tx.MemberID, tx.CycleID, tx.Month,
		tx.Amount.Cents, tx.Penalty.Cents)
	writeJSON(w, http.StatusCreated, tx)
}

func (s *Server) handleOutstanding(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}
	if dues, ok := s.reports.outstanding.Get(cacheKeyActive); ok {
		writeJSON(w, http.StatusOK, dues)
		return
	}
	dues, err := s.finEngine.Outstanding(r.Context())
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.reports.outstanding.Set(cacheKeyActive, dues)
	writeJSON(w, http.StatusOK, dues)
}

func (s *Server) handleMonthlyReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}
	if report, ok := s.reports.monthly.Get(cacheKeyActive); ok {
		writeJSON(w, http.StatusOK, report)
		return
	}
	report, err := s.finEngine.MonthlyReport(r.Context())
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.reports.monthly.Set(cacheKeyActive, report)
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}
	memberID := strings.TrimSpace(r.URL.Query().Get("member_id"))
	txs := s.finEngine.History(memberID)
	if txs == nil {
		txs = []core.Transaction{}
	}
	writeJSON(w, http.StatusOK, txs)
}

func (s *Server) handleBalances(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}
	balances := s.finEngine.Balances()
	if balances == nil {
		balances = []core.MemberBalance{}
	}
	writeJSON(w, http.StatusOK, balances)
}

func (s *Server) handleBalanceByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/balances/")
	if id == "" || strings.Contains(id, "/") {
		badRequest(w, "missing member id")
		return
	}
	m, err := s.registry.Get(id)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, core.MemberBalance{
		MemberID:    m.ID,
		DisplayName: m.DisplayName(),
		Balance:     s.finEngine.BalanceOf(m.ID),
	})
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	switch r.URL.Query().Get("kind") {
	case "", "transactions":
		w.Header().Set("Content-Disposition", `attachment; filename="transactions.csv"`)
		if err := export.WriteTransactions(w, s.finEngine.History("")); err != nil {
			s.writeDomainError(w, r, err)
		}
	case "balances":
		w.Header().Set("Content-Disposition", `attachment; filename="balances.csv"`)
		if err := export.WriteBalances(w, s.finEngine.Balances()); err != nil {
			s.writeDomainError(w, r, err)
		}
	default:
		badRequest(w, "unknown export kind")
	}
}
