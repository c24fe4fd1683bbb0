package middleware

import (
	"net/http" // HTTP status codes
	"strings"  // String manipulation

	"github.com/hoangchung16-00/personal-finance-backend/internal/domain" // Importing domain models
	"github.com/hoangchung16-00/personal-finance-backend/internal/utils"  // API key digest

	"github.com/gin-gonic/gin" // Gin web framework
	"gorm.io/gorm"             // GORM ORM library
)

// authFailedMsg is the single uniform rejection for every authentication
// failure; the response never reveals which part of the credential was wrong.
const authFailedMsg = "invalid or missing API key"

// APIKeyAuth validates the bearer API key and resolves it to a user.
// The users table is keyed by the key's digest, so resolution is one lookup.
func APIKeyAuth(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization") // Get Authorization header
		// Check if the Authorization header is present and properly formatted
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			// If not, abort with unauthorized status
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": authFailedMsg})
			return
		}
		key := strings.TrimPrefix(authHeader, "Bearer ") // Extract the API key
		if key == "" {
			// Empty token after the prefix, abort with unauthorized status
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": authFailedMsg})
			return
		}
		var user domain.User // Resolve the digest to a user
		if err := db.Where("api_key_digest = ?", utils.DigestAPIKey(key)).First(&user).Error; err != nil {
			// Unknown or revoked key, abort with the same uniform rejection
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": authFailedMsg})
			return
		}
		c.Set("userID", user.ID) // Store userID in context
		c.Next()                 // Proceed to the next handler
	}
}
