package api

import (
	"context"  // Context for Redis operations
	"errors"   // Sentinel error checks
	"net/http" // HTTP status codes
	"strconv"  // String conversion
	"time"     // Cache TTLs

	"github.com/hoangchung16-00/personal-finance-backend/internal/domain" // Importing domain models
	"github.com/hoangchung16-00/personal-finance-backend/internal/ledger" // Balance ledger
	"github.com/hoangchung16-00/personal-finance-backend/internal/utils"  // Cache helpers

	"github.com/gin-gonic/gin"      // Gin web framework
	"github.com/redis/go-redis/v9"  // Redis client
	"github.com/shopspring/decimal" // Decimal money type
	"github.com/sirupsen/logrus"    // Logging library
	"gorm.io/gorm"                  // GORM ORM library
	"gorm.io/gorm/clause"           // Row locking clause
)

// Pagination defaults
const (
	defaultPageSize = 20  // Default page size
	maxPageSize     = 100 // Upper bound on page size
)

// TransactionRequest represents a transaction creation request
type TransactionRequest struct {
	Amount          decimal.Decimal `json:"amount"`                                                                   // Always positive; sign comes from the type
	TransactionType string          `json:"transaction_type" binding:"required,oneof=income expense transfer"`        // Transaction type must be a known value
	Date            string          `json:"date" binding:"required"`                                                  // Date as YYYY-MM-DD
	Description     string          `json:"description" binding:"required"`                                           // Description must be provided
	Notes           string          `json:"notes"`                                                                    // Optional notes
	CategoryID      *uint           `json:"category_id"`                                                              // Optional category
	Tags            []string        `json:"tags"`                                                                     // Optional tags
}

// TransactionUpdateRequest represents a partial transaction update
type TransactionUpdateRequest struct {
	Amount          *decimal.Decimal `json:"amount"`                                                                  // New amount
	TransactionType *string          `json:"transaction_type" binding:"omitempty,oneof=income expense transfer"`      // New type
	Date            *string          `json:"date"`                                                                    // New date as YYYY-MM-DD
	Description     *string          `json:"description"`                                                             // New description
	Notes           *string          `json:"notes"`                                                                   // New notes
	CategoryID      OptionalUint     `json:"category_id"`                                                             // New category; explicit null clears it
	Tags            []string         `json:"tags"`                                                                    // New tags, nil leaves them untouched
}

// userTransactions scopes a transaction query to the accounts owned by userID
func userTransactions(db *gorm.DB, userID uint) *gorm.DB {
	return db.Model(&domain.Transaction{}).
		Joins("JOIN accounts ON accounts.id = transactions.account_id").
		Where("accounts.user_id = ?", userID)
}

// findUserTransaction fetches one transaction scoped through the account's
// owner. A transaction belonging to another user's account is indistinguishable
// from a missing one.
func findUserTransaction(db *gorm.DB, userID uint, id string) (*domain.Transaction, error) {
	var txn domain.Transaction
	if err := userTransactions(db, userID).
		Where("transactions.id = ?", id).
		First(&txn).Error; err != nil {
		return nil, err
	}
	return &txn, nil
}

// lockUserTransaction is findUserTransaction with a FOR UPDATE row lock, for
// fetches whose old values feed a balance adjustment. Without the lock two
// concurrent mutations can snapshot-read the same pre-image under REPEATABLE
// READ and both reverse it.
func lockUserTransaction(tx *gorm.DB, userID uint, id string) (*domain.Transaction, error) {
	return findUserTransaction(tx.Clauses(clause.Locking{Strength: "UPDATE"}), userID, id)
}

// checkUserCategory validates that a referenced category belongs to the user
func checkUserCategory(db *gorm.DB, userID, categoryID uint) (bool, error) {
	var count int64
	if err := db.Model(&domain.Category{}).Where("id = ? AND user_id = ?", categoryID, userID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListTransactionsHandler returns transactions across the user's accounts, or
// for one owned account when mounted under /accounts/:id/transactions.
// Supports inclusive date-range, type and category filters plus pagination.
func ListTransactionsHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := currentUserID(c) // Get userID from context
		if !exists {
			// If not, return unauthorized
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		accountID := uint(0) // 0 means all of the user's accounts
		if c.Param("id") != "" {
			// Nested route: the account must exist and belong to the caller
			account, err := findUserAccount(db, userID, c.Param("id"))
			if err != nil {
				c.JSON(http.StatusNotFound, gin.H{"error": "Account not found"})
				return
			}
			accountID = account.ID
		}
		page := 1                  // Default page
		pageSize := defaultPageSize // Default page size
		// If page exists in query
		if p := c.Query("page"); p != "" {
			// Convert page to integer
			if v, err := strconv.Atoi(p); err == nil && v > 0 {
				page = v // Set page if valid
			}
		}
		// If page_size exists in query
		if ps := c.Query("page_size"); ps != "" {
			// Convert page_size to integer
			if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= maxPageSize {
				pageSize = v // Set page size if valid
			}
		}
		offset := (page - 1) * pageSize // Calculate offset

		q := userTransactions(db, userID) // Ownership-scoped base query
		if accountID != 0 {
			q = q.Where("transactions.account_id = ?", accountID)
		}
		filtered := false // Only the unfiltered listing is cached
		// Inclusive date-range filter
		if sd := c.Query("start_date"); sd != "" {
			t, err := parseDate(sd)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid start_date"})
				return
			}
			q = q.Where("transactions.date >= ?", t)
			filtered = true
		}
		if ed := c.Query("end_date"); ed != "" {
			t, err := parseDate(ed)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid end_date"})
				return
			}
			q = q.Where("transactions.date <= ?", t)
			filtered = true
		}
		// Type filter
		if tt := c.Query("transaction_type"); tt != "" {
			if !domain.TransactionType(tt).Valid() {
				c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Invalid transaction_type"})
				return
			}
			q = q.Where("transactions.transaction_type = ?", tt)
			filtered = true
		}
		// Category filter
		if cid := c.Query("category_id"); cid != "" {
			v, err := strconv.ParseUint(cid, 10, 32)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid category_id"})
				return
			}
			q = q.Where("transactions.category_id = ?", uint(v))
			filtered = true
		}

		ctx := context.Background() // Context for Redis operations
		var cacheKey string
		if !filtered {
			cacheKey = txListCacheKey(userID, accountID, page, pageSize)
			var cached struct {
				Transactions []domain.Transaction `json:"transactions"` // List of transactions
				Page         int                  `json:"page"`         // Current page
				PageSize     int                  `json:"page_size"`    // Page size
				Total        int64                `json:"total"`        // Total transactions
				TotalPages   int                  `json:"total_pages"`  // Total pages
			}
			// Try to get from cache
			found, err := utils.GetCache(ctx, rdb, cacheKey, &cached)
			// If found in cache, return it
			if err == nil && found {
				c.JSON(http.StatusOK, gin.H{
					"transactions": cached.Transactions, // Cached transactions
					"page":         cached.Page,         // Current page
					"page_size":    cached.PageSize,     // Page size
					"total":        cached.Total,        // Total transactions
					"total_pages":  cached.TotalPages,   // Total pages
					"cached":       true,
				})
				return
			}
		}

		var total int64 // Total count of transactions
		// Count total transactions for pagination; a fresh session keeps the
		// count finisher from polluting the page query below
		if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
			// If counting fails, return error
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count transactions"})
			return
		}
		var transactions []domain.Transaction // Slice to hold transactions
		// Fetch the page, newest dates first
		if err := q.Preload("Category").
			Order("transactions.date desc, transactions.id desc").
			Offset(offset).
			Limit(pageSize).
			Find(&transactions).Error; err != nil {
			// If fetching fails, return error
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch transactions"})
			return
		}
		// Calculate total pages
		totalPages := (int(total) + pageSize - 1) / pageSize
		resp := gin.H{
			"transactions": transactions, // List of transactions
			"page":         page,         // Current page
			"page_size":    pageSize,     // Page size
			"total":        total,        // Total transactions
			"total_pages":  totalPages,   // Total pages
			"cached":       false,        // Not from cache
		}
		if cacheKey != "" {
			// Cache the result for 60 seconds
			_ = utils.SetCache(ctx, rdb, cacheKey, resp, 60*time.Second)
		}
		c.JSON(http.StatusOK, resp) // Return the transactions
	}
}

// GetTransactionHandler returns one transaction scoped through account ownership
func GetTransactionHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := currentUserID(c) // Get userID from context
		if !exists {
			// If not, return unauthorized
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var txn domain.Transaction
		// Fetch with associations, scoped through the owning account
		if err := userTransactions(db, userID).
			Preload("Category").
			Preload("Account").
			Where("transactions.id = ?", c.Param("id")).
			First(&txn).Error; err != nil {
			// Absent or owned by someone else, either way not found
			c.JSON(http.StatusNotFound, gin.H{"error": "Transaction not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"transaction": txn}) // Return transaction info
	}
}

// CreateTransactionHandler records a transaction against an owned account.
// The row write and the balance adjustment are one atomic unit: if the
// ledger fails, the transaction is not recorded.
func CreateTransactionHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := currentUserID(c) // Get userID from context
		if !exists {
			// If not, return unauthorized
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		// The target account must exist and belong to the caller
		account, err := findUserAccount(db, userID, c.Param("id"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Account not found"})
			return
		}
		var req TransactionRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		// Amounts are stored unsigned; zero and negative are rejected
		if !req.Amount.IsPositive() {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Amount must be greater than 0"})
			return
		}
		date, err := parseDate(req.Date) // Parse the transaction date
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Invalid date, expected YYYY-MM-DD"})
			return
		}
		// A referenced category must belong to the same user
		if req.CategoryID != nil {
			ok, err := checkUserCategory(db, userID, *req.CategoryID)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to validate category"})
				return
			}
			if !ok {
				c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Category not found for this user"})
				return
			}
		}
		txn := domain.Transaction{
			AccountID:       account.ID,                               // Owning account
			CategoryID:      req.CategoryID,                           // Optional category
			Amount:          req.Amount,                               // Unsigned amount
			TransactionType: domain.TransactionType(req.TransactionType), // Transaction type
			Date:            date,                                     // Transaction date
			Description:     req.Description,                          // Description
			Notes:           req.Notes,                                // Notes
			Tags:            req.Tags,                                 // Tags
		}
		// Write the row and adjust the balance in one atomic unit
		err = db.Transaction(func(tx *gorm.DB) error {
			// Create the transaction record
			if err := tx.Create(&txn).Error; err != nil {
				return err // Return error to rollback
			}
			// Apply the signed impact to the account balance
			if err := ledger.ApplyCreate(tx, &txn); err != nil {
				return err // Return error to rollback
			}
			return nil // Commit transaction
		})
		// Handle transaction result
		if err != nil {
			// Log the error with context
			logrus.WithFields(logrus.Fields{
				"user_id":    userID,              // User ID
				"account_id": account.ID,          // Account ID
				"amount":     req.Amount,          // Transaction amount
				"type":       req.TransactionType, // Transaction type
				"error":      err.Error(),         // Error message
			}).Error("Transaction create failed") // Log create failure
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create transaction"})
			return
		}
		// Log the recorded transaction
		logrus.WithFields(logrus.Fields{
			"user_id":        userID,              // User ID
			"account_id":     account.ID,          // Account ID
			"transaction_id": txn.ID,              // Transaction ID
			"amount":         req.Amount,          // Transaction amount
			"type":           req.TransactionType, // Transaction type
		}).Info("Transaction created")
		// Invalidate the account and listing caches
		invalidateAccountCaches(context.Background(), rdb, userID, account.ID)
		c.JSON(http.StatusCreated, gin.H{"transaction": txn}) // Return the new transaction
	}
}

// UpdateTransactionHandler applies a partial update to an owned transaction.
// Amount or type changes re-run the ledger against the pre-update values
// inside the same atomic unit as the row write.
func UpdateTransactionHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := currentUserID(c) // Get userID from context
		if !exists {
			// If not, return unauthorized
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var req TransactionUpdateRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		// Validate the changed fields up front
		if req.Amount != nil && !req.Amount.IsPositive() {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Amount must be greater than 0"})
			return
		}
		var date time.Time
		if req.Date != nil {
			var err error
			if date, err = parseDate(*req.Date); err != nil {
				c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Invalid date, expected YYYY-MM-DD"})
				return
			}
		}
		if req.CategoryID.Set && req.CategoryID.Value != nil {
			ok, err := checkUserCategory(db, userID, *req.CategoryID.Value)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to validate category"})
				return
			}
			if !ok {
				c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Category not found for this user"})
				return
			}
		}
		var updated domain.Transaction
		// Mutate the row and re-run the ledger in one atomic unit
		err := db.Transaction(func(tx *gorm.DB) error {
			// Lock the row so the old values are the ones actually replaced
			txn, err := lockUserTransaction(tx, userID, c.Param("id"))
			if err != nil {
				return err // Not found, rollback
			}
			old := *txn // Capture pre-update amount and type
			if req.Amount != nil {
				txn.Amount = *req.Amount
			}
			if req.TransactionType != nil {
				txn.TransactionType = domain.TransactionType(*req.TransactionType)
			}
			if req.Date != nil {
				txn.Date = date
			}
			if req.Description != nil {
				txn.Description = *req.Description
			}
			if req.Notes != nil {
				txn.Notes = *req.Notes
			}
			if req.CategoryID.Set {
				// An explicit null clears the category
				txn.CategoryID = req.CategoryID.Value
			}
			if req.Tags != nil {
				txn.Tags = req.Tags
			}
			// Persist the changed row
			if err := tx.Save(txn).Error; err != nil {
				return err // Return error to rollback
			}
			// Only amount or type changes move the balance
			if !old.Amount.Equal(txn.Amount) || old.TransactionType != txn.TransactionType {
				if err := ledger.ApplyUpdate(tx, &old, txn); err != nil {
					return err // Return error to rollback
				}
			}
			updated = *txn
			return nil // Commit transaction
		})
		// Handle transaction result
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// Absent or owned by someone else, either way not found
				c.JSON(http.StatusNotFound, gin.H{"error": "Transaction not found"})
				return
			}
			logrus.WithFields(logrus.Fields{
				"user_id":        userID,         // User ID
				"transaction_id": c.Param("id"),  // Transaction ID
				"error":          err.Error(),    // Error message
			}).Error("Transaction update failed") // Log update failure
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update transaction"})
			return
		}
		// Log the update
		logrus.WithFields(logrus.Fields{
			"user_id":        userID,     // User ID
			"account_id":     updated.AccountID, // Account ID
			"transaction_id": updated.ID, // Transaction ID
		}).Info("Transaction updated")
		// Invalidate the account and listing caches
		invalidateAccountCaches(context.Background(), rdb, userID, updated.AccountID)
		c.JSON(http.StatusOK, gin.H{"transaction": updated}) // Return the updated transaction
	}
}

// DeleteTransactionHandler removes an owned transaction and reverses its
// balance effect using the values captured before the row is gone.
func DeleteTransactionHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := currentUserID(c) // Get userID from context
		if !exists {
			// If not, return unauthorized
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var removed domain.Transaction
		// Delete the row and reverse its balance effect in one atomic unit
		err := db.Transaction(func(tx *gorm.DB) error {
			// Lock and capture the row before removal; deletion destroys the old values
			txn, err := lockUserTransaction(tx, userID, c.Param("id"))
			if err != nil {
				return err // Not found, rollback
			}
			removed = *txn
			// Remove the transaction record
			if err := tx.Delete(&domain.Transaction{}, txn.ID).Error; err != nil {
				return err // Return error to rollback
			}
			// Reverse the signed impact on the account balance
			if err := ledger.ApplyDelete(tx, &removed); err != nil {
				return err // Return error to rollback
			}
			return nil // Commit transaction
		})
		// Handle transaction result
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// Absent or owned by someone else, either way not found
				c.JSON(http.StatusNotFound, gin.H{"error": "Transaction not found"})
				return
			}
			logrus.WithFields(logrus.Fields{
				"user_id":        userID,        // User ID
				"transaction_id": c.Param("id"), // Transaction ID
				"error":          err.Error(),   // Error message
			}).Error("Transaction delete failed") // Log delete failure
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete transaction"})
			return
		}
		// Log the deletion
		logrus.WithFields(logrus.Fields{
			"user_id":        userID,            // User ID
			"account_id":     removed.AccountID, // Account ID
			"transaction_id": removed.ID,        // Transaction ID
		}).Info("Transaction deleted")
		// Invalidate the account and listing caches
		invalidateAccountCaches(context.Background(), rdb, userID, removed.AccountID)
		c.Status(http.StatusNoContent) // Nothing to return
	}
}
