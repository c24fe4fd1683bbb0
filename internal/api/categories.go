package api

import (
	"net/http" // HTTP status codes

	"github.com/hoangchung16-00/personal-finance-backend/internal/domain" // Importing domain models

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
	"gorm.io/gorm"               // GORM ORM library
)

// CategoryRequest represents a category create or rename request
type CategoryRequest struct {
	Name string `json:"name" binding:"required"` // Category name must be provided
}

// findUserCategory fetches a category scoped to the owning user
func findUserCategory(db *gorm.DB, userID uint, id string) (*domain.Category, error) {
	var category domain.Category
	if err := db.Where("id = ? AND user_id = ?", id, userID).First(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

// ListCategoriesHandler returns all categories owned by the authenticated user
func ListCategoriesHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := currentUserID(c) // Get userID from context
		if !exists {
			// If not, return unauthorized
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var categories []domain.Category // Slice to hold categories
		if err := db.Where("user_id = ?", userID).Order("name").Find(&categories).Error; err != nil {
			// If fetching fails, return error
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch categories"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"categories": categories}) // Return the categories
	}
}

// GetCategoryHandler returns one category owned by the authenticated user
func GetCategoryHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := currentUserID(c) // Get userID from context
		if !exists {
			// If not, return unauthorized
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		category, err := findUserCategory(db, userID, c.Param("id")) // Fetch scoped to the owner
		if err != nil {
			// Absent or owned by someone else, either way not found
			c.JSON(http.StatusNotFound, gin.H{"error": "Category not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"category": category}) // Return category info
	}
}

// CreateCategoryHandler creates a category for the authenticated user.
// Names are unique per user, not globally.
func CreateCategoryHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := currentUserID(c) // Get userID from context
		if !exists {
			// If not, return unauthorized
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var req CategoryRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		category := domain.Category{UserID: userID, Name: req.Name}
		// The composite unique index enforces per-user uniqueness under races
		if err := db.Create(&category).Error; err != nil {
			if isUniqueConstraintError(err) {
				// Duplicate name for this user, return unprocessable entity
				c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Category name already exists for this user"})
				return
			}
			logrus.WithFields(logrus.Fields{
				"user_id": userID,      // User ID
				"error":   err.Error(), // Error message
			}).Error("Failed to create category") // Log failure
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create category"})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"category": category}) // Return the new category
	}
}

// UpdateCategoryHandler renames an owned category
func UpdateCategoryHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := currentUserID(c) // Get userID from context
		if !exists {
			// If not, return unauthorized
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		category, err := findUserCategory(db, userID, c.Param("id")) // Fetch scoped to the owner
		if err != nil {
			// Absent or owned by someone else, either way not found
			c.JSON(http.StatusNotFound, gin.H{"error": "Category not found"})
			return
		}
		var req CategoryRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		// Apply the rename, still subject to the per-user unique index
		if err := db.Model(category).Update("name", req.Name).Error; err != nil {
			if isUniqueConstraintError(err) {
				// Duplicate name for this user, return unprocessable entity
				c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Category name already exists for this user"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update category"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"category": category}) // Return the updated category
	}
}

// DeleteCategoryHandler deletes an owned category. Transactions referencing
// it keep existing with the reference cleared, never cascaded.
func DeleteCategoryHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := currentUserID(c) // Get userID from context
		if !exists {
			// If not, return unauthorized
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		category, err := findUserCategory(db, userID, c.Param("id")) // Fetch scoped to the owner
		if err != nil {
			// Absent or owned by someone else, either way not found
			c.JSON(http.StatusNotFound, gin.H{"error": "Category not found"})
			return
		}
		// Clear references and delete atomically
		err = db.Transaction(func(tx *gorm.DB) error {
			// Null out the reference on any transaction pointing at this category
			if err := tx.Model(&domain.Transaction{}).
				Where("category_id = ?", category.ID).
				Update("category_id", nil).Error; err != nil {
				return err // Return error to rollback
			}
			// Remove the category itself
			if err := tx.Delete(category).Error; err != nil {
				return err // Return error to rollback
			}
			return nil // Commit transaction
		})
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"user_id":     userID,      // User ID
				"category_id": category.ID, // Category ID
				"error":       err.Error(), // Error message
			}).Error("Failed to delete category") // Log failure
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete category"})
			return
		}
		c.Status(http.StatusNoContent) // Nothing to return
	}
}
