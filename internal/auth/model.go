// Package auth covers accounts, workspaces, session cookies and the
// workspace access gate applied to every private operation.
package auth

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is an account that can own workspaces and forms.
type User struct {
	ID           string    `json:"id" gorm:"type:uuid;primaryKey"`
	Name         string    `json:"name" gorm:"not null"`
	Email        string    `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash string    `json:"-" gorm:"not null"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Workspace scopes form ownership. Every user gets a default workspace at
// signup.
type Workspace struct {
	ID        string    `json:"id" gorm:"type:uuid;primaryKey"`
	Name      string    `json:"name" gorm:"not null"`
	OwnerID   string    `json:"ownerId" gorm:"type:uuid;not null;index"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Session binds an auth token to a user and their active workspace.
type Session struct {
	Token       string    `json:"-" gorm:"primaryKey"`
	UserID      string    `json:"userId" gorm:"type:uuid;not null;index"`
	WorkspaceID string    `json:"workspaceId" gorm:"type:uuid;not null"`
	ExpiresAt   time.Time `json:"expiresAt" gorm:"index"`
	CreatedAt   time.Time `json:"createdAt"`
}

// BeforeCreate assigns a UUID when missing.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// BeforeCreate assigns a UUID when missing.
func (w *Workspace) BeforeCreate(tx *gorm.DB) error {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	return nil
}

// BeforeCreate assigns a token when missing.
func (s *Session) BeforeCreate(tx *gorm.DB) error {
	if s.Token == "" {
		s.Token = uuid.NewString()
	}
	return nil
}

// ToDTO renders the account payload returned by signup and login.
func (u User) ToDTO() map[string]any {
	return map[string]any{
		"id":        u.ID,
		"name":      u.Name,
		"email":     u.Email,
		"createdAt": u.CreatedAt,
	}
}
