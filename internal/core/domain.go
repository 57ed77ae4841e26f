package core

import (
	"errors"
	"strings"
	"time"
)

const (
	CurrencyUSD        Currency = "USD" // legacy, follows the selected rate type
	CurrencyUSDBlue    Currency = "USD-Blue"
	CurrencyUSDTarjeta Currency = "USD-Tarjeta"
	CurrencyARS        Currency = "ARS"
)

// DefaultCategory is assigned to expenses created without a category.
const DefaultCategory = "Fixed Expenses"

type (
	Currency string

	Date struct {
		time.Time
	}

	// Expense is the canonical ledger entry. Amount is expressed in the
	// expense's own Currency; conversion happens at display/aggregation time.
	Expense struct {
		ID          int64    `json:"id"`
		Date        Date     `json:"date"`
		Description string   `json:"description"`
		Amount      float64  `json:"amount"`
		Currency    Currency `json:"currency"`
		Category    string   `json:"category"`
	}

	// ExpenseUpdate carries the mutable fields for a PUT on an expense.
	ExpenseUpdate struct {
		Date        Date     `json:"date"`
		Description string   `json:"description"`
		Amount      float64  `json:"amount"`
		Currency    Currency `json:"currency"`
		Category    string   `json:"category"`
	}

	// ExchangeRate is a single USD→ARS quote with its source timestamp.
	ExchangeRate struct {
		USDToARS float64 `json:"usd_to_ars"`
		Updated  string  `json:"updated"`
	}

	// Allocation is one budget category: planned percentage of salary versus
	// actual spend. Actual, Remaining and IsOverBudget are derived locally
	// from the expense list, never trusted from stored state.
	Allocation struct {
		ID           int64   `json:"id"`
		Name         string  `json:"name"`
		Percentage   float64 `json:"percentage"`
		Allocated    float64 `json:"allocated"`
		Actual       float64 `json:"actual"`
		Remaining    float64 `json:"remaining"`
		IsOverBudget bool    `json:"is_over_budget"`
	}

	// AllocationSet is the full budget breakdown plus its totals row.
	AllocationSet struct {
		Allocations    []Allocation `json:"allocations"`
		TotalAllocated float64      `json:"total_allocated"`
		TotalActual    float64      `json:"total_actual"`
		TotalRemaining float64      `json:"total_remaining"`
	}

	// Adjustment is one entry of a budget redistribution request.
	Adjustment struct {
		ID         int64   `json:"id"`
		Percentage float64 `json:"percentage"`
	}

	// Account is a money holding (bank, wallet, exchange) used by transfers.
	Account struct {
		ID         int64   `json:"id"`
		Name       string  `json:"name"`
		Currency   string  `json:"currency"`
		Balance    float64 `json:"balance"`
		FeePercent float64 `json:"fee_percent"`
	}

	// Transfer records money moved between two accounts. Amount is the net
	// credited to the destination after fees.
	Transfer struct {
		ID          int64   `json:"id"`
		Date        Date    `json:"date"`
		FromAccount string  `json:"from_account"`
		ToAccount   string  `json:"to_account"`
		GrossAmount float64 `json:"gross_amount"`
		Amount      float64 `json:"amount"`
		TotalFees   float64 `json:"total_fees"`
		Description string  `json:"description"`
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidCurrency  = errors.New("invalid currency")
	ErrInvalidDate      = errors.New("invalid date")
	ErrEmptyDescription = errors.New("empty description")
	ErrNotFound         = errors.New("not found")
)

// DateLayout is the wire and storage format for dates.
const DateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD date string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// Today returns the current date truncated to day precision.
func Today() Date {
	now := time.Now()
	return NewDate(now.Year(), int(now.Month()), now.Day())
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

// MarshalJSON encodes the date as a plain "YYYY-MM-DD" string.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON accepts a plain "YYYY-MM-DD" string.
func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Valid reports whether the currency is one of the supported labels.
func (c Currency) Valid() bool {
	switch c {
	case CurrencyUSD, CurrencyUSDBlue, CurrencyUSDTarjeta, CurrencyARS:
		return true
	}
	return false
}

// IsARS reports whether amounts in this currency are denominated in pesos.
func (c Currency) IsARS() bool {
	return c == CurrencyARS
}

func (e Expense) Validate() error {
	if e.Date.IsZero() {
		return ErrInvalidDate
	}
	if e.Amount <= 0 {
		return ErrInvalidAmount
	}
	if !e.Currency.Valid() {
		return ErrInvalidCurrency
	}
	if len(strings.TrimSpace(e.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(e.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	return nil
}

func (u ExpenseUpdate) Validate() error {
	if u.Date.IsZero() {
		return ErrInvalidDate
	}
	if u.Amount <= 0 {
		return ErrInvalidAmount
	}
	if !u.Currency.Valid() {
		return ErrInvalidCurrency
	}
	return nil
}

func (t Transfer) Validate() error {
	if t.Date.IsZero() {
		return ErrInvalidDate
	}
	if t.GrossAmount <= 0 {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(t.FromAccount) == "" || strings.TrimSpace(t.ToAccount) == "" {
		return errors.New("both accounts are required")
	}
	if t.FromAccount == t.ToAccount {
		return errors.New("source and destination accounts must differ")
	}
	return nil
}
