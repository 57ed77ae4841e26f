// Package storage persists the ledger, budget, salary and accounts in
// SQLite.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"retromoney/internal/core"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// List returns every expense, newest first. Ties on date keep insertion
// order reversed so the latest entry of a day sorts on top.
func (r *SQLiteRepository) List(ctx context.Context) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, date, description, amount, currency, category
		 FROM expenses ORDER BY date DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []core.Expense
	for rows.Next() {
		var e core.Expense
		var date string
		if err := rows.Scan(&e.ID, &date, &e.Description, &e.Amount, &e.Currency, &e.Category); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		if e.Date, err = core.ParseDate(date); err != nil {
			return nil, fmt.Errorf("parse expense date %q: %w", date, err)
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

func (r *SQLiteRepository) Create(ctx context.Context, e core.Expense) (core.Expense, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO expenses (date, description, amount, currency, category)
		 VALUES (?, ?, ?, ?, ?)`,
		e.Date.String(), e.Description, e.Amount, string(e.Currency), e.Category)
	if err != nil {
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return core.Expense{}, fmt.Errorf("expense insert id: %w", err)
	}
	e.ID = id

	slog.InfoContext(ctx, "Expense saved",
		"id", e.ID,
		"description", e.Description,
		"amount", e.Amount,
		"currency", e.Currency)

	return e, nil
}

func (r *SQLiteRepository) Update(ctx context.Context, id int64, u core.ExpenseUpdate) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE expenses SET date = ?, description = ?, amount = ?, currency = ?, category = ?
		 WHERE id = ?`,
		u.Date.String(), u.Description, u.Amount, string(u.Currency), u.Category, id)
	if err != nil {
		return fmt.Errorf("update expense %d: %w", id, err)
	}
	return checkAffected(res, id)
}

func (r *SQLiteRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete expense %d: %w", id, err)
	}
	return checkAffected(res, id)
}

// GetSalary reads the singleton monthly salary row.
func (r *SQLiteRepository) GetSalary(ctx context.Context) (float64, error) {
	var salary float64
	err := r.db.QueryRowContext(ctx,
		`SELECT monthly_salary FROM user_info WHERE id = 1`).Scan(&salary)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get salary: %w", err)
	}
	return salary, nil
}

func (r *SQLiteRepository) SaveSalary(ctx context.Context, salary float64) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO user_info (id, monthly_salary) VALUES (1, ?)
		 ON CONFLICT(id) DO UPDATE SET monthly_salary = excluded.monthly_salary`,
		salary)
	if err != nil {
		return fmt.Errorf("save salary: %w", err)
	}
	return nil
}

// Allocations returns the stored budget breakdown with allocated amounts
// derived from the given salary. Actuals are left zero; they are always
// recomputed from the ledger.
func (r *SQLiteRepository) Allocations(ctx context.Context, salary float64) ([]core.Allocation, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, percentage FROM budget_allocations ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list allocations: %w", err)
	}
	defer rows.Close()

	var allocations []core.Allocation
	for rows.Next() {
		var a core.Allocation
		if err := rows.Scan(&a.ID, &a.Name, &a.Percentage); err != nil {
			return nil, fmt.Errorf("scan allocation: %w", err)
		}
		a.Allocated = core.Round2(a.Percentage / 100 * salary)
		allocations = append(allocations, a)
	}
	return allocations, rows.Err()
}

// Redistribute updates allocation percentages atomically.
func (r *SQLiteRepository) Redistribute(ctx context.Context, adjustments []core.Adjustment) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin redistribute: %w", err)
	}
	defer tx.Rollback()

	for _, adj := range adjustments {
		res, err := tx.ExecContext(ctx,
			`UPDATE budget_allocations SET percentage = ? WHERE id = ?`,
			adj.Percentage, adj.ID)
		if err != nil {
			return fmt.Errorf("update allocation %d: %w", adj.ID, err)
		}
		if err := checkAffected(res, adj.ID); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit redistribute: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ListAccounts(ctx context.Context) ([]core.Account, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, currency, balance, fee_percent FROM accounts ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []core.Account
	for rows.Next() {
		var a core.Account
		if err := rows.Scan(&a.ID, &a.Name, &a.Currency, &a.Balance, &a.FeePercent); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (r *SQLiteRepository) GetAccountByName(ctx context.Context, name string) (core.Account, error) {
	var a core.Account
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, currency, balance, fee_percent FROM accounts WHERE name = ?`,
		name).Scan(&a.ID, &a.Name, &a.Currency, &a.Balance, &a.FeePercent)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Account{}, fmt.Errorf("account %q: %w", name, core.ErrNotFound)
	}
	if err != nil {
		return core.Account{}, fmt.Errorf("get account %q: %w", name, err)
	}
	return a, nil
}

func (r *SQLiteRepository) UpdateAccountBalance(ctx context.Context, id int64, balance float64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET balance = ? WHERE id = ?`, balance, id)
	if err != nil {
		return fmt.Errorf("update account %d balance: %w", id, err)
	}
	return checkAffected(res, id)
}

func (r *SQLiteRepository) CreateTransfer(ctx context.Context, t core.Transfer) (core.Transfer, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO transfers (date, from_account, to_account, gross_amount, amount, total_fees, description)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.Date.String(), t.FromAccount, t.ToAccount, t.GrossAmount, t.Amount, t.TotalFees, t.Description)
	if err != nil {
		return core.Transfer{}, fmt.Errorf("create transfer: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return core.Transfer{}, fmt.Errorf("transfer insert id: %w", err)
	}
	t.ID = id
	return t, nil
}

func (r *SQLiteRepository) ListTransfers(ctx context.Context) ([]core.Transfer, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, date, from_account, to_account, gross_amount, amount, total_fees, description
		 FROM transfers ORDER BY date DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list transfers: %w", err)
	}
	defer rows.Close()

	var transfers []core.Transfer
	for rows.Next() {
		var t core.Transfer
		var date string
		if err := rows.Scan(&t.ID, &date, &t.FromAccount, &t.ToAccount, &t.GrossAmount, &t.Amount, &t.TotalFees, &t.Description); err != nil {
			return nil, fmt.Errorf("scan transfer: %w", err)
		}
		if t.Date, err = core.ParseDate(date); err != nil {
			return nil, fmt.Errorf("parse transfer date %q: %w", date, err)
		}
		transfers = append(transfers, t)
	}
	return transfers, rows.Err()
}

func (r *SQLiteRepository) DeleteTransfer(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transfers WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete transfer %d: %w", id, err)
	}
	return checkAffected(res, id)
}

func checkAffected(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("id %d: %w", id, core.ErrNotFound)
	}
	return nil
}
