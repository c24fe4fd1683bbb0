package api

import (
	"github.com/hoangchung16-00/personal-finance-backend/internal/middleware" // API key authentication

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"gorm.io/gorm"                 // GORM ORM library
)

// SetupRoutes registers all API routes on the router. rdb may be nil, in
// which case caching is disabled.
func SetupRoutes(r *gin.Engine, db *gorm.DB, rdb *redis.Client) {
	v1 := r.Group("/api/v1")

	// Registration is the only unauthenticated endpoint
	v1.POST("/users", RegisterUserHandler(db))

	// Everything else requires a valid API key
	authed := v1.Group("")
	authed.Use(middleware.APIKeyAuth(db))

	// API key management for the authenticated user
	authed.POST("/users/api_key", RotateAPIKeyHandler(db))   // Issue a new key, invalidating the old one
	authed.DELETE("/users/api_key", RevokeAPIKeyHandler(db)) // Revoke the live key

	// Accounts
	authed.GET("/accounts", ListAccountsHandler(db))
	authed.POST("/accounts", CreateAccountHandler(db))
	authed.GET("/accounts/:id", GetAccountHandler(db, rdb))
	authed.PUT("/accounts/:id", UpdateAccountHandler(db, rdb))
	authed.PATCH("/accounts/:id", UpdateAccountHandler(db, rdb))
	authed.DELETE("/accounts/:id", DeleteAccountHandler(db, rdb))

	// Transactions nested under an account
	authed.GET("/accounts/:id/transactions", ListTransactionsHandler(db, rdb))
	authed.POST("/accounts/:id/transactions", CreateTransactionHandler(db, rdb))

	// Transactions across all of the user's accounts
	authed.GET("/transactions", ListTransactionsHandler(db, rdb))
	authed.GET("/transactions/:id", GetTransactionHandler(db))
	authed.PUT("/transactions/:id", UpdateTransactionHandler(db, rdb))
	authed.PATCH("/transactions/:id", UpdateTransactionHandler(db, rdb))
	authed.DELETE("/transactions/:id", DeleteTransactionHandler(db, rdb))

	// Categories
	authed.GET("/categories", ListCategoriesHandler(db))
	authed.POST("/categories", CreateCategoryHandler(db))
	authed.GET("/categories/:id", GetCategoryHandler(db))
	authed.PUT("/categories/:id", UpdateCategoryHandler(db))
	authed.PATCH("/categories/:id", UpdateCategoryHandler(db))
	authed.DELETE("/categories/:id", DeleteCategoryHandler(db))
}
