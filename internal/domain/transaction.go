package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType enumerates the supported kinds of transactions
type TransactionType string

// Transaction types
const (
	TransactionIncome   TransactionType = "income"   // Money in
	TransactionExpense  TransactionType = "expense"  // Money out
	TransactionTransfer TransactionType = "transfer" // Movement whose offsetting leg is outside this model
)

// Valid reports whether t is one of the known transaction types
func (t TransactionType) Valid() bool {
	switch t {
	case TransactionIncome, TransactionExpense, TransactionTransfer:
		return true
	}
	return false
}

// Transaction Model
type Transaction struct {
	ID              uint            `gorm:"primaryKey" json:"id"`                                       // Primary key
	AccountID       uint            `gorm:"not null;index:idx_transactions_account_date" json:"account_id"` // Foreign key to Account
	CategoryID      *uint           `gorm:"index" json:"category_id"`                                   // Optional foreign key to Category
	Amount          decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"amount"`                  // Always positive; sign is derived from the type
	TransactionType TransactionType `gorm:"size:20;not null;index" json:"transaction_type"`             // Transaction type: income, expense, transfer
	Date            time.Time       `gorm:"not null;index:idx_transactions_account_date;index" json:"date"` // Date the transaction occurred
	Description     string          `gorm:"not null" json:"description"`                                // Description of the transaction
	Notes           string          `json:"notes,omitempty"`                                            // Optional free-form notes
	Tags            []string        `gorm:"serializer:json" json:"tags"`                                // Free-form tags, JSON-serialized
	Category        *Category       `json:"category,omitempty"`                                         // Preloaded category, if any
	Account         *Account        `json:"account,omitempty"`                                          // Preloaded owning account
	CreatedAt       time.Time       `json:"created_at"`                                                 // Timestamp of creation
	UpdatedAt       time.Time       `json:"updated_at"`                                                 // Timestamp of last update
}
