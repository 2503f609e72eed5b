package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account is customer account owned by accounts service
type Account struct {
	ID            string          `json:"id"`
	CustomerID    string          `json:"customerId"`
	AccountNumber string          `json:"accountNumber"`
	Type          string          `json:"type"`
	Currency      string          `json:"currency"`
	Balance       decimal.Decimal `json:"balance"`
	Status        string          `json:"status"`
	CreatedAt     *time.Time      `json:"createdAt,omitempty"`
}

// CustomerAccounts is customer summary along with its accounts
type CustomerAccounts struct {
	Customer CustomerSummary `json:"customer"`
	Accounts []Account       `json:"accounts"`
}
