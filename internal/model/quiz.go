package model

import (
	"time"
)

type QuizSessionStatus string

const (
	QuizStarted    QuizSessionStatus = "started"
	QuizInProgress QuizSessionStatus = "in_progress"
	QuizCompleted  QuizSessionStatus = "completed"
	QuizAbandoned  QuizSessionStatus = "abandoned"
)

// Terminal reports whether a session can no longer serve questions or
// accept answers.
func (s QuizSessionStatus) Terminal() bool {
	return s == QuizCompleted || s == QuizAbandoned
}

// QuizSession is one timed attempt by a user at a conteudo's question
// set. At most one non-terminal session exists per (user, conteudo).
// Invariant: CorrectCount + WrongCount == CurrentQuestionIndex - 1.
// swagger:model QuizSession
type QuizSession struct {
	BaseModel
	UserID     uint              `gorm:"not null;index:idx_user_conteudo" json:"userId"`
	ConteudoID uint              `gorm:"not null;index:idx_user_conteudo" json:"conteudoId"`
	TrilhaID   uint              `gorm:"not null;index" json:"trilhaId"`
	Status     QuizSessionStatus `gorm:"type:varchar(20);not null;default:'started'" json:"status"`
	StartedAt  time.Time         `gorm:"not null" json:"startedAt"`
	CompletedAt *time.Time       `json:"completedAt,omitempty"`
	TimeLimitSeconds     int     `gorm:"not null;default:1800" json:"timeLimitSeconds"`
	CurrentQuestionIndex int     `gorm:"not null;default:1" json:"currentQuestionIndex"`
	TotalQuestions       int     `gorm:"not null" json:"totalQuestions"`
	CorrectCount         int     `gorm:"not null;default:0" json:"correctCount"`
	WrongCount           int     `gorm:"not null;default:0" json:"wrongCount"`
	// Version guards concurrent mutation: every write goes through a
	// compare-and-swap on this column.
	Version int `gorm:"not null;default:0" json:"-"`
}

func (QuizSession) TableName() string {
	return "quiz_sessions"
}

// Remaining returns how many seconds are left before the deadline,
// clamped at zero.
func (s *QuizSession) Remaining(now time.Time) int {
	remaining := s.TimeLimitSeconds - int(now.Sub(s.StartedAt).Seconds())
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Expired reports whether the session's time window has elapsed.
func (s *QuizSession) Expired(now time.Time) bool {
	return now.Sub(s.StartedAt) > time.Duration(s.TimeLimitSeconds)*time.Second
}

// QuizAnswer is the append-only record of one scored answer.
// CorrectChoice is denormalized at answer time so results survive later
// question edits.
// swagger:model QuizAnswer
type QuizAnswer struct {
	BaseModel
	SessionID      uint      `gorm:"not null;index" json:"sessionId"`
	QuestionID     uint      `gorm:"not null;index" json:"questionId"`
	UserID         uint      `gorm:"not null;index" json:"userId"`
	SelectedChoice string    `gorm:"size:1;not null" json:"selectedChoice"`
	CorrectChoice  string    `gorm:"size:1;not null" json:"correctChoice"`
	IsCorrect      bool      `gorm:"not null" json:"isCorrect"`
	AnsweredAt     time.Time `gorm:"not null" json:"answeredAt"`
}

func (QuizAnswer) TableName() string {
	return "quiz_answers"
}
