// Package ledger keeps Account.Balance consistent with the account's
// transaction history. Every transaction mutation calls one of the Apply
// functions inside the same gorm transaction as the row write, so a ledger
// failure rolls back the whole mutation.
package ledger

import (
	"github.com/hoangchung16-00/personal-finance-backend/internal/domain"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SignedImpact returns the directional contribution of a transaction to its
// account's balance: income adds the amount, expense subtracts it, and a
// transfer contributes nothing since its offsetting leg is outside this model.
func SignedImpact(t domain.TransactionType, amount decimal.Decimal) decimal.Decimal {
	switch t {
	case domain.TransactionIncome:
		return amount
	case domain.TransactionExpense:
		return amount.Neg()
	default:
		return decimal.Zero
	}
}

// ApplyCreate adjusts the owning account's balance for a newly created transaction
func ApplyCreate(tx *gorm.DB, txn *domain.Transaction) error {
	return adjust(tx, txn.AccountID, SignedImpact(txn.TransactionType, txn.Amount))
}

// ApplyUpdate adjusts the balance by the difference between the new and old
// signed impacts. old must hold the pre-update amount and type.
func ApplyUpdate(tx *gorm.DB, old, updated *domain.Transaction) error {
	delta := SignedImpact(updated.TransactionType, updated.Amount).
		Sub(SignedImpact(old.TransactionType, old.Amount))
	return adjust(tx, updated.AccountID, delta)
}

// ApplyDelete reverses the balance effect of a transaction being removed.
// old must be captured before the row is deleted.
func ApplyDelete(tx *gorm.DB, old *domain.Transaction) error {
	return adjust(tx, old.AccountID, SignedImpact(old.TransactionType, old.Amount).Neg())
}

// adjust applies the delta as a single atomic UPDATE so concurrent mutations
// against the same account serialize on the row lock instead of racing a
// read-modify-write in the application.
func adjust(tx *gorm.DB, accountID uint, delta decimal.Decimal) error {
	if delta.IsZero() {
		return nil
	}
	res := tx.Model(&domain.Account{}).
		Where("id = ?", accountID).
		Update("balance", gorm.Expr("balance + ?", delta))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// Owning account is gone; fail the mutation so the caller rolls back
		return gorm.ErrRecordNotFound
	}
	return nil
}
