package api

import (
	"net/http" // HTTP status codes
	"time"     // Issuance timestamps

	"github.com/hoangchung16-00/personal-finance-backend/internal/domain" // Importing domain models
	"github.com/hoangchung16-00/personal-finance-backend/internal/utils"  // API key helpers

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
	"gorm.io/gorm"               // GORM ORM library
)

// RegisterRequest represents a registration request
type RegisterRequest struct {
	Email     string `json:"email" binding:"required,email"` // Email must be provided and well-formed
	FirstName string `json:"first_name" binding:"required"`  // First name must be provided
	LastName  string `json:"last_name" binding:"required"`   // Last name must be provided
}

// RegisterUserHandler creates a user and issues their first API key.
// The plaintext key appears in this response once and is never stored.
func RegisterUserHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		// Generate the user's first API key
		key, err := utils.GenerateAPIKey()
		if err != nil {
			// If key generation fails, return internal server error
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate API key"})
			return
		}
		digest := utils.DigestAPIKey(key) // Only the digest is persisted
		now := time.Now()
		user := domain.User{
			Email:           req.Email,     // Email address
			FirstName:       req.FirstName, // First name
			LastName:        req.LastName,  // Last name
			APIKeyDigest:    &digest,       // Digest of the issued key
			APIKeyCreatedAt: &now,          // Issuance timestamp
		}
		// Attempt to create the user in the database
		if err := db.Create(&user).Error; err != nil {
			if isUniqueConstraintError(err) {
				// Duplicate email, return unprocessable entity
				c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Email already exists"})
				return
			}
			logrus.WithFields(logrus.Fields{
				"email": req.Email,   // Email address
				"error": err.Error(), // Error message
			}).Error("Failed to create user") // Log failure
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
			return
		}
		// Log successful registration
		logrus.WithFields(logrus.Fields{
			"user_id": user.ID,    // User ID
			"email":   user.Email, // Email address
		}).Info("User registered")
		// Return the user and the plaintext key, shown once
		c.JSON(http.StatusCreated, gin.H{"user": user, "api_key": key})
	}
}

// RotateAPIKeyHandler issues a new API key for the authenticated user.
// The previous key stops authenticating the moment the digest is replaced.
func RotateAPIKeyHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := currentUserID(c) // Get userID from context
		if !exists {
			// If not, return unauthorized
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		// Generate a replacement key
		key, err := utils.GenerateAPIKey()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate API key"})
			return
		}
		digest := utils.DigestAPIKey(key) // Only the digest is persisted
		now := time.Now()
		// Replace the stored digest; the column holds at most one live value
		if err := db.Model(&domain.User{}).Where("id = ?", userID).Updates(map[string]any{
			"api_key_digest":     digest, // New digest
			"api_key_created_at": now,    // New issuance timestamp
		}).Error; err != nil {
			logrus.WithFields(logrus.Fields{
				"user_id": userID,      // User ID
				"error":   err.Error(), // Error message
			}).Error("Failed to rotate API key") // Log failure
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to rotate API key"})
			return
		}
		// Log the rotation
		logrus.WithFields(logrus.Fields{"user_id": userID}).Info("API key rotated")
		// Return the new plaintext key, shown once
		c.JSON(http.StatusOK, gin.H{"api_key": key})
	}
}

// RevokeAPIKeyHandler clears the authenticated user's API key digest and
// issuance timestamp; the old key fails authentication immediately.
func RevokeAPIKeyHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := currentUserID(c) // Get userID from context
		if !exists {
			// If not, return unauthorized
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		// Clear the digest and issuance timestamp
		if err := db.Model(&domain.User{}).Where("id = ?", userID).Updates(map[string]any{
			"api_key_digest":     nil, // No live key
			"api_key_created_at": nil, // No issuance timestamp
		}).Error; err != nil {
			logrus.WithFields(logrus.Fields{
				"user_id": userID,      // User ID
				"error":   err.Error(), // Error message
			}).Error("Failed to revoke API key") // Log failure
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to revoke API key"})
			return
		}
		// Log the revocation
		logrus.WithFields(logrus.Fields{"user_id": userID}).Info("API key revoked")
		c.JSON(http.StatusOK, gin.H{"message": "API key revoked"})
	}
}
