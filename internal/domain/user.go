package domain

import "time"

// User Model
type User struct {
	ID              uint       `gorm:"primaryKey" json:"id"`                 // Primary key
	Email           string     `gorm:"uniqueIndex;not null" json:"email"`    // Unique email address
	FirstName       string     `gorm:"not null" json:"first_name"`           // First name
	LastName        string     `gorm:"not null" json:"last_name"`            // Last name
	APIKeyDigest    *string    `gorm:"uniqueIndex;size:64" json:"-"`         // SHA-256 hex digest of the live API key, never the key itself
	APIKeyCreatedAt *time.Time `json:"-"`                                    // When the live API key was issued
	Accounts        []Account  `gorm:"constraint:OnDelete:CASCADE" json:"-"` // Accounts owned by the user
	Categories      []Category `gorm:"constraint:OnDelete:CASCADE" json:"-"` // Categories owned by the user
	CreatedAt       time.Time  `json:"created_at"`                           // Timestamp of creation
	UpdatedAt       time.Time  `json:"updated_at"`                           // Timestamp of last update
}

// HasAPIKey reports whether the user has a live API key
func (u *User) HasAPIKey() bool {
	return u.APIKeyDigest != nil && *u.APIKeyDigest != ""
}
