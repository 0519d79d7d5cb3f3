package models

import (
	"time"

	"gorm.io/gorm"
)

type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleSchool  Role = "SCHOOL"
	RoleTeacher Role = "TEACHER"
	RoleStudent Role = "STUDENT"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleSchool, RoleTeacher, RoleStudent:
		return true
	}
	return false
}

// Account is one login identity. PasswordHash is nil for accounts that
// only sign in through Google.
type Account struct {
	ID           uint    `gorm:"primaryKey"`
	Email        string  `gorm:"size:255;uniqueIndex;not null"`
	Handle       string  `gorm:"size:100;uniqueIndex;not null"`
	PasswordHash *string `gorm:"size:255"`
	Role         Role    `gorm:"size:20;not null"`
	Name         string  `gorm:"size:150"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeletedAt    gorm.DeletedAt `gorm:"index"`

	Institution *Institution
}

// Identity is the public shape of an authenticated account.
type Identity struct {
	ID     uint   `json:"id"`
	Email  string `json:"email"`
	Handle string `json:"handle,omitempty"`
	Name   string `json:"name,omitempty"`
	Role   Role   `json:"role"`
}

func (a *Account) Identity() *Identity {
	return &Identity{
		ID:     a.ID,
		Email:  a.Email,
		Handle: a.Handle,
		Name:   a.Name,
		Role:   a.Role,
	}
}
