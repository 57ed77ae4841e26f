package http

import (
	"net/http"

	"retromoney/internal/core"
	"retromoney/internal/log"
	"retromoney/internal/transfers"
)

type balancePayload struct {
	ID      int64   `json:"id"`
	Balance float64 `json:"balance"`
}

func (s *Server) handleAccounts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		accounts, err := s.transfers.Accounts(r.Context())
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		if accounts == nil {
			accounts = []core.Account{}
		}
		writeJSON(w, http.StatusOK, accounts)
	case http.MethodPut:
		var p balancePayload
		if err := decodeBody(r, &p); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if p.ID <= 0 {
			writeError(w, http.StatusBadRequest, "invalid id")
			return
		}
		if err := s.transfers.SetBalance(r.Context(), p.ID, p.Balance); err != nil {
			writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
	default:
		methodNotAllowed(w, "GET, PUT")
	}
}

func (s *Server) handleTransfers(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		list, err := s.transfers.List(r.Context())
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		if list == nil {
			list = []core.Transfer{}
		}
		writeJSON(w, http.StatusOK, list)
	case http.MethodPost:
		s.createTransfer(w, r)
	default:
		methodNotAllowed(w, "GET, POST")
	}
}

func (s *Server) createTransfer(w http.ResponseWriter, r *http.Request) {
	var req transfers.Request
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Description = sanitizeInput(req.Description)

	created, err := s.transfers.Register(r.Context(), req)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	// Registering a transfer books its commission as an expense.
	s.invalidateAllocations()

	logger := log.FromContext(r.Context())
	logger.InfoContext(r.Context(), "Transfer registered",
		log.FieldTransferID, created.ID,
		log.FieldAccount, created.FromAccount,
		"to_account", created.ToAccount,
		log.FieldAmount, created.Amount,
		"total_fees", created.TotalFees)

	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleTransferByID(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "/api/transfers/")
	if !ok {
		return
	}
	if r.Method != http.MethodDelete {
		methodNotAllowed(w, "DELETE")
		return
	}
	if err := s.transfers.Delete(r.Context(), id); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
