package domain

import "time"

// Category Model
type Category struct {
	ID           uint          `gorm:"primaryKey" json:"id"`                                     // Primary key
	UserID       uint          `gorm:"not null;uniqueIndex:idx_categories_user_name" json:"user_id"` // Foreign key to User
	Name         string        `gorm:"not null;uniqueIndex:idx_categories_user_name" json:"name"`    // Unique per owning user, not globally
	Transactions []Transaction `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"-"`      // Deleting a category clears the reference, never the transactions
	CreatedAt    time.Time     `json:"created_at"`                                               // Timestamp of creation
	UpdatedAt    time.Time     `json:"updated_at"`                                               // Timestamp of last update
}
