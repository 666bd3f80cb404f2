package repository

import (
	"time"

	"trilha_edu_backend/internal/model"
	"trilha_edu_backend/internal/util"

	"gorm.io/gorm"
)

// QuizRepository is the session store for quiz sessions and answers.
// Session writes go through a compare-and-swap on the version column so
// two concurrent writers can never both advance the same session.
type QuizRepository struct {
	DB *gorm.DB
}

func NewQuizRepository(db *gorm.DB) *QuizRepository {
	return &QuizRepository{DB: db}
}

func (r *QuizRepository) CreateSession(session *model.QuizSession) error {
	return r.DB.Create(session).Error
}

func (r *QuizRepository) FindSessionByID(id uint) (*model.QuizSession, error) {
	var s model.QuizSession
	if err := r.DB.First(&s, id).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *QuizRepository) FindActiveSession(userID, conteudoID uint) (*model.QuizSession, error) {
	var s model.QuizSession
	err := r.DB.Where("user_id = ? AND conteudo_id = ? AND status IN ?",
		userID, conteudoID,
		[]model.QuizSessionStatus{model.QuizStarted, model.QuizInProgress}).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// UpdateSessionGuarded persists the session's mutable fields if and only
// if nobody else has written it since it was loaded. On a lost race it
// returns ErrSessionConflict and leaves the stored row untouched; the
// in-memory Version is bumped only on success.
func (r *QuizRepository) UpdateSessionGuarded(tx *gorm.DB, session *model.QuizSession) error {
	if tx == nil {
		tx = r.DB
	}
	res := tx.Model(&model.QuizSession{}).
		Where("id = ? AND version = ?", session.ID, session.Version).
		Updates(map[string]interface{}{
			"status":                 session.Status,
			"completed_at":           session.CompletedAt,
			"current_question_index": session.CurrentQuestionIndex,
			"correct_count":          session.CorrectCount,
			"wrong_count":            session.WrongCount,
			"version":                session.Version + 1,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return util.ErrSessionConflict
	}
	session.Version++
	return nil
}

func (r *QuizRepository) CreateAnswer(tx *gorm.DB, answer *model.QuizAnswer) error {
	if tx == nil {
		tx = r.DB
	}
	return tx.Create(answer).Error
}

func (r *QuizRepository) ListAnswersBySession(sessionID uint) ([]model.QuizAnswer, error) {
	var answers []model.QuizAnswer
	err := r.DB.Where("session_id = ?", sessionID).Order("id ASC").Find(&answers).Error
	return answers, err
}

func (r *QuizRepository) CountAnswersBySession(sessionID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.QuizAnswer{}).Where("session_id = ?", sessionID).Count(&count).Error
	return count, err
}

// ListSessionsByUser returns the user's most recent sessions, newest
// first. Used by the quiz history endpoint.
func (r *QuizRepository) ListSessionsByUser(userID uint, limit int) ([]model.QuizSession, error) {
	var sessions []model.QuizSession
	err := r.DB.Where("user_id = ?", userID).
		Order("started_at DESC").Limit(limit).Find(&sessions).Error
	return sessions, err
}

// FindExpiredActive returns non-terminal sessions whose deadline passed
// before now. Only the reaper calls this; the read paths do their own
// lazy deadline checks.
func (r *QuizRepository) FindExpiredActive(now time.Time) ([]model.QuizSession, error) {
	var sessions []model.QuizSession
	err := r.DB.Where("status IN ?",
		[]model.QuizSessionStatus{model.QuizStarted, model.QuizInProgress}).
		Find(&sessions).Error
	if err != nil {
		return nil, err
	}

	expired := sessions[:0]
	for _, s := range sessions {
		if s.Expired(now) {
			expired = append(expired, s)
		}
	}
	return expired, nil
}
