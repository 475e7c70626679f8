package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRole string

const (
	RoleAdmin UserRole = "ADMIN"
	RoleStaff UserRole = "STAFF"
)

// User is an internal reviewer/admin account. Policy actors never get a
// User row; they authenticate with per-actor access tokens instead.
type User struct {
	ID           string   `gorm:"primaryKey" json:"id"`
	Email        string   `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string   `gorm:"not null" json:"-"`
	Role         UserRole `gorm:"not null;default:'STAFF'" json:"role"`
	FirstName    string   `json:"first_name"`
	LastName     string   `json:"last_name"`
	ActiveStatus bool     `gorm:"not null;default:true" json:"active_status"`
	LastLogin    *time.Time `json:"last_login"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return nil
}
