package model

import (
	"time"
)

// Desempenho is the latest scored outcome for a user on a conteudo. One
// row per (user, conteudo); a retake overwrites it in place, no attempt
// history is kept.
// swagger:model Desempenho
type Desempenho struct {
	BaseModel
	UserID          uint `gorm:"not null;uniqueIndex:idx_user_conteudo_perf" json:"userId"`
	ConteudoID      uint `gorm:"not null;uniqueIndex:idx_user_conteudo_perf" json:"conteudoId"`
	ProgressPercent int  `gorm:"not null;default:0" json:"progressPercent"`
	// Score is nil until an assessment for the conteudo completes.
	Score        *int       `json:"score,omitempty"`
	StudyMinutes int        `gorm:"not null;default:0" json:"studyMinutes"`
	CompletedAt  *time.Time `json:"completedAt,omitempty"`
}

func (Desempenho) TableName() string {
	return "desempenhos"
}
