package transfers

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"retromoney/internal/core"
	"retromoney/internal/fx"
	"retromoney/internal/log"
)

type fakeStore struct {
	accounts  map[string]*core.Account
	transfers []core.Transfer
	nextID    int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		accounts: map[string]*core.Account{
			"Payoneer":     {ID: 1, Name: "Payoneer", Currency: "USD", Balance: 1000, FeePercent: 0.03},
			"Belo":         {ID: 2, Name: "Belo", Currency: "USD", Balance: 0, FeePercent: 0.01},
			"Mercado Pago": {ID: 3, Name: "Mercado Pago", Currency: "ARS", Balance: 0, FeePercent: 0},
		},
		nextID: 1,
	}
}

func (f *fakeStore) ListAccounts(ctx context.Context) ([]core.Account, error) {
	var out []core.Account
	for _, a := range f.accounts {
		out = append(out, *a)
	}
	return out, nil
}

func (f *fakeStore) GetAccountByName(ctx context.Context, name string) (core.Account, error) {
	a, ok := f.accounts[name]
	if !ok {
		return core.Account{}, fmt.Errorf("account %q: %w", name, core.ErrNotFound)
	}
	return *a, nil
}

func (f *fakeStore) UpdateAccountBalance(ctx context.Context, id int64, balance float64) error {
	for _, a := range f.accounts {
		if a.ID == id {
			a.Balance = balance
			return nil
		}
	}
	return core.ErrNotFound
}

func (f *fakeStore) CreateTransfer(ctx context.Context, t core.Transfer) (core.Transfer, error) {
	t.ID = f.nextID
	f.nextID++
	f.transfers = append(f.transfers, t)
	return t, nil
}

func (f *fakeStore) ListTransfers(ctx context.Context) ([]core.Transfer, error) {
	return f.transfers, nil
}

func (f *fakeStore) DeleteTransfer(ctx context.Context, id int64) error {
	for i, t := range f.transfers {
		if t.ID == id {
			f.transfers = append(f.transfers[:i], f.transfers[i+1:]...)
			return nil
		}
	}
	return core.ErrNotFound
}

type fakeExpenses struct {
	created []core.Expense
	err     error
}

func (f *fakeExpenses) Create(ctx context.Context, e core.Expense) (core.Expense, error) {
	if f.err != nil {
		return core.Expense{}, f.err
	}
	f.created = append(f.created, e)
	return e, nil
}

type fixedRates struct{ blue float64 }

func (f fixedRates) Get(ctx context.Context, t fx.RateType) (core.ExchangeRate, error) {
	return core.ExchangeRate{USDToARS: f.blue}, nil
}

func newTestService(store *fakeStore, expenses *fakeExpenses) *Service {
	return NewService(store, expenses, fixedRates{blue: 1000}, log.New(log.DefaultConfig()))
}

func TestRegisterAppliesFees(t *testing.T) {
	store := newFakeStore()
	expenses := &fakeExpenses{}
	svc := newTestService(store, expenses)

	transfer, err := svc.Register(context.Background(), Request{
		Date:        core.NewDate(2024, 3, 1),
		FromAccount: "Payoneer",
		ToAccount:   "Belo",
		GrossAmount: 100,
	})
	require.NoError(t, err)

	// 3% of 100 leaving Payoneer, then 1% of the remaining 97 entering Belo.
	require.Equal(t, 3.97, transfer.TotalFees)
	require.Equal(t, 96.03, transfer.Amount)
	require.Equal(t, 100.0, transfer.GrossAmount)

	require.Equal(t, 900.0, store.accounts["Payoneer"].Balance)
	require.Equal(t, 96.03, store.accounts["Belo"].Balance)

	// Commission booked as a USD fixed expense.
	require.Len(t, expenses.created, 1)
	fee := expenses.created[0]
	require.Equal(t, 3.97, fee.Amount)
	require.Equal(t, core.CurrencyUSD, fee.Currency)
	require.Equal(t, core.DefaultCategory, fee.Category)
}

func TestRegisterConvertsARSDestination(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeExpenses{})

	transfer, err := svc.Register(context.Background(), Request{
		Date:        core.NewDate(2024, 3, 1),
		FromAccount: "Payoneer",
		ToAccount:   "Mercado Pago",
		GrossAmount: 100,
	})
	require.NoError(t, err)

	// 3% Payoneer fee, then the 97 USD net credited as ARS at the blue rate.
	require.Equal(t, 3.0, transfer.TotalFees)
	require.Equal(t, 97.0, transfer.Amount)
	require.Equal(t, 97000.0, store.accounts["Mercado Pago"].Balance)
}

func TestRegisterInsufficientFunds(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeExpenses{})

	_, err := svc.Register(context.Background(), Request{
		FromAccount: "Belo",
		ToAccount:   "Payoneer",
		GrossAmount: 50,
	})
	require.ErrorIs(t, err, ErrInsufficientFunds)
	require.Empty(t, store.transfers)
}

func TestRegisterRejectsBadAmount(t *testing.T) {
	svc := newTestService(newFakeStore(), &fakeExpenses{})
	_, err := svc.Register(context.Background(), Request{
		FromAccount: "Payoneer",
		ToAccount:   "Belo",
		GrossAmount: 0,
	})
	require.ErrorIs(t, err, core.ErrInvalidAmount)
}

func TestRegisterUnknownAccount(t *testing.T) {
	svc := newTestService(newFakeStore(), &fakeExpenses{})
	_, err := svc.Register(context.Background(), Request{
		FromAccount: "Nope",
		ToAccount:   "Belo",
		GrossAmount: 50,
	})
	require.ErrorIs(t, err, core.ErrNotFound)
}

func TestRegisterSurvivesCommissionFailure(t *testing.T) {
	store := newFakeStore()
	expenses := &fakeExpenses{err: errors.New("ledger down")}
	svc := newTestService(store, expenses)

	transfer, err := svc.Register(context.Background(), Request{
		FromAccount: "Payoneer",
		ToAccount:   "Belo",
		GrossAmount: 100,
	})
	require.NoError(t, err)
	require.NotZero(t, transfer.ID)
}
