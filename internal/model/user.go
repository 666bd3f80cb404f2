package model

import (
	"time"
)

type UserRole string

const (
	Student UserRole = "student"
	Admin   UserRole = "admin"
)

// swagger:model User
type User struct {
	BaseModel
	Name     string   `gorm:"size:100;not null" json:"name"`
	Email    string   `gorm:"size:255;unique;not null" json:"email"`
	Password string   `gorm:"size:100;not null" json:"-"`
	Role     UserRole `gorm:"type:varchar(20);default:'student'" json:"role"`
	// PreferredDifficulty drives the difficulty-match term of the
	// recommendation scorer. Empty means no preference recorded yet.
	PreferredDifficulty Difficulty `gorm:"type:varchar(20)" json:"preferredDifficulty"`
	LastLogin           time.Time  `gorm:"default:CURRENT_TIMESTAMP(3)" json:"lastLogin"`
}

func (User) TableName() string {
	return "usuarios"
}
