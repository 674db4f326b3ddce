package model

import "github.com/shopspring/decimal"

// Expense is a payment made by one member on behalf of a group.
// Only the schema exists; no operation records expenses yet.
type Expense struct {
	ID          string          `json:"id"`
	GroupID     string          `json:"group_id"`
	PaidBy      string          `json:"paid_by"`
	Amount      decimal.Decimal `json:"amount"`
	Description *string         `json:"description"`
}

// Split is one member's share of an expense.
type Split struct {
	ID         string          `json:"id"`
	ExpenseID  string          `json:"expense_id"`
	UserID     string          `json:"user_id"`
	AmountOwed decimal.Decimal `json:"amount_owed"`
	IsSettled  bool            `json:"is_settled"`
}
