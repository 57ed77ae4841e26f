package http

import (
	"net/http"
	"strings"

	"retromoney/internal/budget"
	"retromoney/internal/core"
	"retromoney/internal/fx"
	"retromoney/internal/log"
)

type salaryPayload struct {
	MonthlySalary float64 `json:"monthly_salary"`
}

func (s *Server) handleSalary(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		salary, err := s.store.GetSalary(r.Context())
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, salaryPayload{MonthlySalary: salary})
	case http.MethodPost:
		var p salaryPayload
		if err := decodeBody(r, &p); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if p.MonthlySalary < 0 {
			writeError(w, http.StatusUnprocessableEntity, "salary must not be negative")
			return
		}
		if err := s.store.SaveSalary(r.Context(), p.MonthlySalary); err != nil {
			writeDomainError(w, r, err)
			return
		}
		s.invalidateAllocations()
		writeJSON(w, http.StatusOK, map[string]string{"status": "saved"})
	default:
		methodNotAllowed(w, "GET, POST")
	}
}

// handleLegacyRate serves the historical unqualified endpoint, which always
// meant the blue quote.
func (s *Server) handleLegacyRate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}
	s.serveRate(w, r, fx.RateBlue)
}

func (s *Server) handleRate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}
	t := fx.RateType(strings.TrimPrefix(r.URL.Path, "/api/exchange-rate/"))
	if !t.Valid() {
		writeError(w, http.StatusNotFound, "unknown rate type")
		return
	}
	s.serveRate(w, r, t)
}

func (s *Server) serveRate(w http.ResponseWriter, r *http.Request, t fx.RateType) {
	rate, err := s.rateSource.Get(r.Context(), t)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rate)
}

func (s *Server) handleAllocations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}

	if set, ok := s.allocCache.Get(allocationsCacheKey); ok {
		writeJSON(w, http.StatusOK, set)
		return
	}

	ctx := r.Context()
	salary, err := s.store.GetSalary(ctx)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	allocations, err := s.store.Allocations(ctx, salary)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	expenses, err := s.expenses.List(ctx)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	totals := budget.ComputeTotals(expenses, s.fetchRates(r), s.defaultRate)
	set := budget.Reconcile(core.AllocationSet{Allocations: allocations}, totals)

	s.allocCache.Set(allocationsCacheKey, set)
	writeJSON(w, http.StatusOK, set)
}

// fetchRates gathers both quotes for reconciliation. A failed fetch degrades
// to a zero rate so the budget view stays available during outages.
func (s *Server) fetchRates(r *http.Request) fx.Rates {
	ctx := r.Context()
	logger := log.FromContext(ctx)

	var rates fx.Rates
	if q, err := s.rateSource.Get(ctx, fx.RateBlue); err == nil {
		rates.Blue = q.USDToARS
	} else {
		logger.WarnContext(ctx, "Blue rate unavailable", log.FieldError, err.Error())
	}
	if q, err := s.rateSource.Get(ctx, fx.RateTarjeta); err == nil {
		rates.Tarjeta = q.USDToARS
	} else {
		logger.WarnContext(ctx, "Tarjeta rate unavailable", log.FieldError, err.Error())
	}
	return rates
}

func (s *Server) handleRedistribute(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}

	var adjustments []core.Adjustment
	if err := decodeBody(r, &adjustments); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := budget.ValidateRedistribution(adjustments); err != nil {
		writeDomainError(w, r, err)
		return
	}
	if err := s.store.Redistribute(r.Context(), adjustments); err != nil {
		writeDomainError(w, r, err)
		return
	}

	s.invalidateAllocations()

	logger := log.FromContext(r.Context())
	logger.InfoContext(r.Context(), "Budget redistributed",
		"categories", len(adjustments), log.FieldOperation, log.OpUpdate)

	writeJSON(w, http.StatusOK, map[string]string{"status": "redistributed"})
}
