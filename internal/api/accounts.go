package api

import (
	"context"  // Context for Redis operations
	"net/http" // HTTP status codes
	"time"     // Cache TTLs

	"github.com/hoangchung16-00/personal-finance-backend/internal/domain" // Importing domain models
	"github.com/hoangchung16-00/personal-finance-backend/internal/utils"  // Cache helpers

	"github.com/gin-gonic/gin"      // Gin web framework
	"github.com/redis/go-redis/v9"  // Redis client
	"github.com/shopspring/decimal" // Decimal money type
	"github.com/sirupsen/logrus"    // Logging library
	"gorm.io/gorm"                  // GORM ORM library
)

// AccountRequest represents an account creation request
type AccountRequest struct {
	Name        string           `json:"name" binding:"required"`                                                                // Account name must be provided
	AccountType string           `json:"account_type" binding:"required,oneof=checking savings credit_card investment cash other"` // Account type must be a known value
	Balance     *decimal.Decimal `json:"balance"`                                                                                // Optional opening balance, defaults to 0
	Currency    string           `json:"currency"`                                                                               // Optional currency, defaults to USD
	Number      string           `json:"number"`                                                                                 // Optional account number
	BankName    string           `json:"bank_name"`                                                                              // Optional bank name
}

// AccountUpdateRequest represents a partial account update. Balance is
// deliberately absent: it belongs to the ledger, not to callers.
type AccountUpdateRequest struct {
	Name        *string `json:"name"`                                                                                            // New name
	AccountType *string `json:"account_type" binding:"omitempty,oneof=checking savings credit_card investment cash other"`       // New type
	Currency    *string `json:"currency"`                                                                                        // New currency
	Number      *string `json:"number"`                                                                                          // New account number
	BankName    *string `json:"bank_name"`                                                                                       // New bank name
}

// findUserAccount fetches an account scoped to the owning user. A miss, owned
// or not, is the same not-found to the caller.
func findUserAccount(db *gorm.DB, userID uint, id string) (*domain.Account, error) {
	var account domain.Account
	if err := db.Where("id = ? AND user_id = ?", id, userID).First(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

// ListAccountsHandler returns all accounts owned by the authenticated user
func ListAccountsHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := currentUserID(c) // Get userID from context
		if !exists {
			// If not, return unauthorized
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var accounts []domain.Account // Slice to hold accounts
		if err := db.Where("user_id = ?", userID).Order("id").Find(&accounts).Error; err != nil {
			// If fetching fails, return error
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch accounts"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"accounts": accounts}) // Return the accounts
	}
}

// GetAccountHandler returns one account owned by the authenticated user
func GetAccountHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := currentUserID(c) // Get userID from context
		if !exists {
			// If not, return unauthorized
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		ctx := context.Background() // Context for Redis operations
		var account domain.Account  // Account struct to hold data
		var cacheKey string
		if id, ok := pathID(c); ok {
			cacheKey = accountCacheKey(userID, id)
			found, err := utils.GetCache(ctx, rdb, cacheKey, &account) // Try to get from cache
			// If found in cache, return it
			if err == nil && found {
				c.JSON(http.StatusOK, gin.H{"account": account, "cached": true})
				return
			}
		}
		// If not in cache, fetch from DB scoped to the owner
		found, err := findUserAccount(db, userID, c.Param("id"))
		if err != nil {
			// Absent or owned by someone else, either way not found
			c.JSON(http.StatusNotFound, gin.H{"error": "Account not found"})
			return
		}
		account = *found
		if cacheKey != "" {
			_ = utils.SetCache(ctx, rdb, cacheKey, account, 60*time.Second) // Cache the account for 60 seconds
		}
		c.JSON(http.StatusOK, gin.H{"account": account, "cached": false}) // Return account info
	}
}

// CreateAccountHandler creates an account for the authenticated user
func CreateAccountHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := currentUserID(c) // Get userID from context
		if !exists {
			// If not, return unauthorized
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var req AccountRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		// Apply defaults: balance 0, currency USD
		balance := decimal.Zero
		if req.Balance != nil {
			balance = *req.Balance
		}
		currency := req.Currency
		if currency == "" {
			currency = "USD"
		}
		account := domain.Account{
			UserID:      userID,                          // Owning user
			Name:        req.Name,                        // Account name
			AccountType: domain.AccountType(req.AccountType), // Account type
			Balance:     balance,                         // Opening balance
			Currency:    currency,                        // Currency code
			Number:      req.Number,                      // Account number
			BankName:    req.BankName,                    // Bank name
		}
		// Save the new account
		if err := db.Create(&account).Error; err != nil {
			logrus.WithFields(logrus.Fields{
				"user_id": userID,      // User ID
				"error":   err.Error(), // Error message
			}).Error("Failed to create account") // Log failure
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create account"})
			return
		}
		// Log successful account creation
		logrus.WithFields(logrus.Fields{
			"user_id":    userID,              // User ID
			"account_id": account.ID,          // Account ID
			"type":       account.AccountType, // Account type
		}).Info("Account created")
		c.JSON(http.StatusCreated, gin.H{"account": account}) // Return the new account
	}
}

// UpdateAccountHandler applies a partial update to an owned account
func UpdateAccountHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := currentUserID(c) // Get userID from context
		if !exists {
			// If not, return unauthorized
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		account, err := findUserAccount(db, userID, c.Param("id")) // Fetch scoped to the owner
		if err != nil {
			// Absent or owned by someone else, either way not found
			c.JSON(http.StatusNotFound, gin.H{"error": "Account not found"})
			return
		}
		var req AccountUpdateRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		// Build the set of changed columns
		updates := map[string]any{}
		if req.Name != nil {
			updates["name"] = *req.Name
		}
		if req.AccountType != nil {
			updates["account_type"] = *req.AccountType
		}
		if req.Currency != nil {
			updates["currency"] = *req.Currency
		}
		if req.Number != nil {
			updates["number"] = *req.Number
		}
		if req.BankName != nil {
			updates["bank_name"] = *req.BankName
		}
		if len(updates) > 0 {
			if err := db.Model(account).Updates(updates).Error; err != nil {
				logrus.WithFields(logrus.Fields{
					"user_id":    userID,      // User ID
					"account_id": account.ID,  // Account ID
					"error":      err.Error(), // Error message
				}).Error("Failed to update account") // Log failure
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update account"})
				return
			}
		}
		// Invalidate the cached account read
		_ = utils.DeleteCache(context.Background(), rdb, accountCacheKey(userID, account.ID))
		c.JSON(http.StatusOK, gin.H{"account": account}) // Return the updated account
	}
}

// DeleteAccountHandler deletes an owned account and all of its transactions
func DeleteAccountHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := currentUserID(c) // Get userID from context
		if !exists {
			// If not, return unauthorized
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		account, err := findUserAccount(db, userID, c.Param("id")) // Fetch scoped to the owner
		if err != nil {
			// Absent or owned by someone else, either way not found
			c.JSON(http.StatusNotFound, gin.H{"error": "Account not found"})
			return
		}
		// Delete the account and its transactions atomically
		err = db.Transaction(func(tx *gorm.DB) error {
			// Remove the account's transactions first
			if err := tx.Where("account_id = ?", account.ID).Delete(&domain.Transaction{}).Error; err != nil {
				return err // Return error to rollback
			}
			// Remove the account itself
			if err := tx.Delete(account).Error; err != nil {
				return err // Return error to rollback
			}
			return nil // Commit transaction
		})
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"user_id":    userID,      // User ID
				"account_id": account.ID,  // Account ID
				"error":      err.Error(), // Error message
			}).Error("Failed to delete account") // Log failure
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete account"})
			return
		}
		// Invalidate caches touched by the deletion
		invalidateAccountCaches(context.Background(), rdb, userID, account.ID)
		// Log the deletion
		logrus.WithFields(logrus.Fields{
			"user_id":    userID,     // User ID
			"account_id": account.ID, // Account ID
		}).Info("Account deleted")
		c.Status(http.StatusNoContent) // Nothing to return
	}
}
