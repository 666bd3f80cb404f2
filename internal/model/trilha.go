package model

import (
	"time"
)

type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

func ValidDifficulty(d Difficulty) bool {
	switch d {
	case DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced:
		return true
	}
	return false
}

// Trilha is a learning path: an ordered collection of conteudos a user
// can enroll in. CreatorID is nil for system-authored trilhas.
// swagger:model Trilha
type Trilha struct {
	BaseModel
	Title       string     `gorm:"size:200;not null" json:"title"`
	Description string     `gorm:"type:text" json:"description"`
	Difficulty  Difficulty `gorm:"type:varchar(20);not null;index" json:"difficulty"`
	Category    string     `gorm:"size:100;index" json:"category"`
	CreatorID   *uint      `gorm:"index" json:"creatorId,omitempty"`
}

func (Trilha) TableName() string {
	return "trilhas"
}

type EnrollmentStatus string

const (
	EnrollmentActive    EnrollmentStatus = "active"
	EnrollmentCompleted EnrollmentStatus = "completed"
)

// UserTrilha is the enrollment row for a (user, trilha) pair. The
// progress fields are derived by the progress recompute and never
// accumulated incrementally.
// swagger:model UserTrilha
type UserTrilha struct {
	BaseModel
	UserID                uint             `gorm:"not null;uniqueIndex:idx_user_trilha" json:"userId"`
	TrilhaID              uint             `gorm:"not null;uniqueIndex:idx_user_trilha" json:"trilhaId"`
	EnrolledAt            time.Time        `json:"enrolledAt"`
	ProgressPercent       int              `gorm:"default:0" json:"progressPercent"`
	AverageScore          int              `gorm:"default:0" json:"averageScore"`
	CompletedModulesCount int              `gorm:"default:0" json:"completedModulesCount"`
	Status                EnrollmentStatus `gorm:"type:varchar(20);default:'active'" json:"status"`
	CompletedAt           *time.Time       `json:"completedAt,omitempty"`
}

func (UserTrilha) TableName() string {
	return "user_trilhas"
}
