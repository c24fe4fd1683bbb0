package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountType enumerates the supported kinds of accounts
type AccountType string

// Account types
const (
	AccountChecking   AccountType = "checking"    // Checking account
	AccountSavings    AccountType = "savings"     // Savings account
	AccountCreditCard AccountType = "credit_card" // Credit card
	AccountInvestment AccountType = "investment"  // Investment account
	AccountCash       AccountType = "cash"        // Cash on hand
	AccountOther      AccountType = "other"       // Anything else
)

// Valid reports whether t is one of the known account types
func (t AccountType) Valid() bool {
	switch t {
	case AccountChecking, AccountSavings, AccountCreditCard, AccountInvestment, AccountCash, AccountOther:
		return true
	}
	return false
}

// Account Model
type Account struct {
	ID           uint            `gorm:"primaryKey" json:"id"`                                            // Primary key
	UserID       uint            `gorm:"index;not null" json:"user_id"`                                   // Foreign key to User
	Name         string          `gorm:"not null" json:"name"`                                            // Account name
	AccountType  AccountType     `gorm:"size:20;not null;index" json:"account_type"`                      // Account type: checking, savings, credit_card, investment, cash, other
	Balance      decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"balance"`            // Cached balance, kept consistent with transactions by the ledger
	Currency     string          `gorm:"size:3;not null;default:USD" json:"currency"`                     // ISO currency code
	Number       string          `json:"number,omitempty"`                                                // Optional account number
	BankName     string          `json:"bank_name,omitempty"`                                             // Optional bank name
	Transactions []Transaction   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`          // Transactions recorded against the account
	CreatedAt    time.Time       `json:"created_at"`                                                      // Timestamp of creation
	UpdatedAt    time.Time       `json:"updated_at"`                                                      // Timestamp of last update
}
