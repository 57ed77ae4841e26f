package http

import (
	"net/http"
	"strconv"
	"strings"

	"retromoney/internal/core"
	"retromoney/internal/log"
)

func (s *Server) handleExpenses(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listExpenses(w, r)
	case http.MethodPost:
		s.createExpense(w, r)
	default:
		methodNotAllowed(w, "GET, POST")
	}
}

func (s *Server) listExpenses(w http.ResponseWriter, r *http.Request) {
	expenses, err := s.expenses.List(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if expenses == nil {
		expenses = []core.Expense{}
	}
	writeJSON(w, http.StatusOK, expenses)
}

func (s *Server) createExpense(w http.ResponseWriter, r *http.Request) {
	var e core.Expense
	if err := decodeBody(r, &e); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	e.ID = 0
	e.Description = sanitizeInput(e.Description)
	e.Category = sanitizeInput(e.Category)
	if e.Date.IsZero() {
		e.Date = core.Today()
	}
	if e.Currency == "" {
		e.Currency = core.CurrencyUSD
	}

	created, err := s.expenses.Create(r.Context(), e)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	s.invalidateAllocations()

	logger := log.FromContext(r.Context())
	logger.InfoContext(r.Context(), "Expense created",
		log.FieldExpenseID, created.ID,
		log.FieldExpenseDesc, created.Description,
		log.FieldAmount, created.Amount,
		log.FieldCurrency, string(created.Currency),
		log.FieldCategory, created.Category,
		log.FieldOperation, log.OpCreate)

	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleExpenseByID(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "/api/expenses/")
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodPut:
		s.updateExpense(w, r, id)
	case http.MethodDelete:
		s.deleteExpense(w, r, id)
	default:
		methodNotAllowed(w, "PUT, DELETE")
	}
}

func (s *Server) updateExpense(w http.ResponseWriter, r *http.Request, id int64) {
	var u core.ExpenseUpdate
	if err := decodeBody(r, &u); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	u.Description = sanitizeInput(u.Description)
	if err := u.Validate(); err != nil {
		writeDomainError(w, r, err)
		return
	}

	if err := s.expenses.Update(r.Context(), id, u); err != nil {
		writeDomainError(w, r, err)
		return
	}

	s.invalidateAllocations()
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (s *Server) deleteExpense(w http.ResponseWriter, r *http.Request, id int64) {
	if err := s.expenses.Delete(r.Context(), id); err != nil {
		writeDomainError(w, r, err)
		return
	}

	s.invalidateAllocations()
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// pathID extracts the numeric trailing segment of an item URL. Writes a 400
// and returns false when the segment is missing or not a number.
func pathID(w http.ResponseWriter, r *http.Request, prefix string) (int64, bool) {
	raw := strings.TrimPrefix(r.URL.Path, prefix)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}
