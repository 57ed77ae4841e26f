// Package transfers moves money between accounts, applying per-account fees
// and recording the commission in the expense ledger.
package transfers

import (
	"context"
	"errors"
	"fmt"

	"retromoney/internal/core"
	"retromoney/internal/fx"
	"retromoney/internal/log"
	"retromoney/internal/rates"
)

var ErrInsufficientFunds = errors.New("insufficient funds")

// Store is the persistence surface the service needs.
type Store interface {
	ListAccounts(ctx context.Context) ([]core.Account, error)
	GetAccountByName(ctx context.Context, name string) (core.Account, error)
	UpdateAccountBalance(ctx context.Context, id int64, balance float64) error
	CreateTransfer(ctx context.Context, t core.Transfer) (core.Transfer, error)
	ListTransfers(ctx context.Context) ([]core.Transfer, error)
	DeleteTransfer(ctx context.Context, id int64) error
}

// ExpenseRecorder books the transfer commission as a ledger entry.
type ExpenseRecorder interface {
	Create(ctx context.Context, e core.Expense) (core.Expense, error)
}

type Service struct {
	store    Store
	expenses ExpenseRecorder
	rates    rates.Source
	logger   *log.Logger
}

func NewService(store Store, expenses ExpenseRecorder, rateSource rates.Source, logger *log.Logger) *Service {
	return &Service{
		store:    store,
		expenses: expenses,
		rates:    rateSource,
		logger:   logger.WithComponent(log.ComponentTransfers),
	}
}

// Request is a transfer order: gross USD amount leaving the source account.
type Request struct {
	Date        core.Date `json:"date"`
	FromAccount string    `json:"from_account"`
	ToAccount   string    `json:"to_account"`
	GrossAmount float64   `json:"gross_amount"`
	Description string    `json:"description"`
}

// Register executes a transfer. The source fee applies to the gross amount,
// the destination fee to what remains after it; the net is credited to the
// destination, converted at the blue rate when that account holds ARS. Fees
// are booked as a fixed expense so the grid reflects them.
func (s *Service) Register(ctx context.Context, req Request) (core.Transfer, error) {
	if req.GrossAmount <= 0 {
		return core.Transfer{}, core.ErrInvalidAmount
	}
	if req.Date.IsZero() {
		req.Date = core.Today()
	}
	if req.Description == "" {
		req.Description = "Transfer"
	}

	from, err := s.store.GetAccountByName(ctx, req.FromAccount)
	if err != nil {
		return core.Transfer{}, err
	}
	to, err := s.store.GetAccountByName(ctx, req.ToAccount)
	if err != nil {
		return core.Transfer{}, err
	}

	if from.Balance < req.GrossAmount {
		return core.Transfer{}, fmt.Errorf("%w: %s holds %.2f, transfer needs %.2f",
			ErrInsufficientFunds, from.Name, from.Balance, req.GrossAmount)
	}

	fromFee := core.Round2(req.GrossAmount * from.FeePercent)
	toFee := core.Round2((req.GrossAmount - fromFee) * to.FeePercent)
	totalFees := core.Round2(fromFee + toFee)
	net := core.Round2(req.GrossAmount - totalFees)

	credit := net
	if to.Currency == "ARS" {
		rate, err := s.rates.Get(ctx, fx.RateBlue)
		if err != nil {
			return core.Transfer{}, fmt.Errorf("fetch conversion rate: %w", err)
		}
		credit = core.Round2(net * rate.USDToARS)
	}

	transfer, err := s.store.CreateTransfer(ctx, core.Transfer{
		Date:        req.Date,
		FromAccount: from.Name,
		ToAccount:   to.Name,
		GrossAmount: req.GrossAmount,
		Amount:      net,
		TotalFees:   totalFees,
		Description: req.Description,
	})
	if err != nil {
		return core.Transfer{}, err
	}

	if err := s.store.UpdateAccountBalance(ctx, from.ID, core.Round2(from.Balance-req.GrossAmount)); err != nil {
		return core.Transfer{}, fmt.Errorf("debit %s: %w", from.Name, err)
	}
	if err := s.store.UpdateAccountBalance(ctx, to.ID, core.Round2(to.Balance+credit)); err != nil {
		return core.Transfer{}, fmt.Errorf("credit %s: %w", to.Name, err)
	}

	s.recordCommission(ctx, transfer)

	s.logger.InfoContext(ctx, "transfer registered",
		log.FieldTransferID, transfer.ID,
		log.FieldAccount, from.Name,
		"to_account", to.Name,
		log.FieldAmount, net,
		"total_fees", totalFees,
	)

	return transfer, nil
}

// recordCommission books the fees as a USD fixed expense. Failure to book is
// logged, not fatal: the transfer itself already committed.
func (s *Service) recordCommission(ctx context.Context, t core.Transfer) {
	if t.TotalFees <= 0 {
		return
	}
	_, err := s.expenses.Create(ctx, core.Expense{
		Date:        t.Date,
		Description: fmt.Sprintf("Fee for transfer %s -> %s", t.FromAccount, t.ToAccount),
		Amount:      t.TotalFees,
		Currency:    core.CurrencyUSD,
		Category:    core.DefaultCategory,
	})
	if err != nil {
		fields := log.NewFields().
			WithOperation(log.OpCreate).
			WithError(err)
		fields[log.FieldTransferID] = t.ID
		s.logger.WarnContext(ctx, "could not record transfer commission", fields.ToSlice()...)
	}
}

func (s *Service) Accounts(ctx context.Context) ([]core.Account, error) {
	return s.store.ListAccounts(ctx)
}

// SetBalance overrides an account balance after a manual reconciliation.
func (s *Service) SetBalance(ctx context.Context, id int64, balance float64) error {
	if balance < 0 {
		return core.ErrInvalidAmount
	}
	return s.store.UpdateAccountBalance(ctx, id, core.Round2(balance))
}

func (s *Service) List(ctx context.Context) ([]core.Transfer, error) {
	return s.store.ListTransfers(ctx)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.store.DeleteTransfer(ctx, id)
}
