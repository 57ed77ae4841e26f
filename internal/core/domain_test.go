package core

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestExpenseValidate(t *testing.T) {
	valid := Expense{
		Date:        NewDate(2024, 5, 10),
		Description: "Groceries",
		Amount:      42.50,
		Currency:    CurrencyARS,
		Category:    "Food",
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid expense rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Expense)
		want   error
	}{
		{"zero date", func(e *Expense) { e.Date = Date{} }, ErrInvalidDate},
		{"zero amount", func(e *Expense) { e.Amount = 0 }, ErrInvalidAmount},
		{"negative amount", func(e *Expense) { e.Amount = -3 }, ErrInvalidAmount},
		{"unknown currency", func(e *Expense) { e.Currency = "EUR" }, ErrInvalidCurrency},
		{"blank description", func(e *Expense) { e.Description = "  " }, ErrEmptyDescription},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := valid
			tc.mutate(&e)
			if err := e.Validate(); !errors.Is(err, tc.want) {
				t.Fatalf("got %v, want %v", err, tc.want)
			}
		})
	}
}

func TestDateJSONRoundTrip(t *testing.T) {
	d := NewDate(2024, 1, 5)
	b, err := json.Marshal(d)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `"2024-01-05"` {
		t.Fatalf("marshal = %s", b)
	}

	var back Date
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatal(err)
	}
	if !back.Equal(d.Time) {
		t.Fatalf("round trip mismatch: %v != %v", back, d)
	}
}

func TestCurrencyValid(t *testing.T) {
	for _, c := range []Currency{CurrencyUSD, CurrencyUSDBlue, CurrencyUSDTarjeta, CurrencyARS} {
		if !c.Valid() {
			t.Fatalf("%q should be valid", c)
		}
	}
	if Currency("BTC").Valid() {
		t.Fatal("BTC should not be valid")
	}
}

func TestTransferValidate(t *testing.T) {
	tr := Transfer{
		Date:        NewDate(2024, 2, 1),
		FromAccount: "Payoneer",
		ToAccount:   "Belo",
		GrossAmount: 100,
	}
	if err := tr.Validate(); err != nil {
		t.Fatalf("valid transfer rejected: %v", err)
	}

	same := tr
	same.ToAccount = same.FromAccount
	if err := same.Validate(); err == nil {
		t.Fatal("same-account transfer should be rejected")
	}

	zero := tr
	zero.GrossAmount = 0
	if err := zero.Validate(); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("got %v, want ErrInvalidAmount", err)
	}
}
