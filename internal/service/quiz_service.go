package service

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"trilha_edu_backend/internal/model"
	"trilha_edu_backend/internal/repository"
	"trilha_edu_backend/internal/util"
	"trilha_edu_backend/pkg/logger"
	"trilha_edu_backend/pkg/monitoring"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DefaultTimeLimitSeconds is the session window applied when the config
// does not override it.
const DefaultTimeLimitSeconds = 1800

// QuizService runs timed quiz sessions: lifecycle, question delivery,
// answer scoring and final results. All state lives in the database
// between calls; concurrent writers are serialized per session by the
// version guard in QuizRepository.
type QuizService struct {
	QuizRepo         *repository.QuizRepository
	ConteudoRepo     *repository.ConteudoRepository
	Progress         *ProgressService
	DB               *gorm.DB
	TimeLimitSeconds int
}

func NewQuizService(quizRepo *repository.QuizRepository, conteudoRepo *repository.ConteudoRepository, progress *ProgressService, db *gorm.DB, timeLimitSeconds int) *QuizService {
	if timeLimitSeconds <= 0 {
		timeLimitSeconds = DefaultTimeLimitSeconds
	}
	return &QuizService{
		QuizRepo:         quizRepo,
		ConteudoRepo:     conteudoRepo,
		Progress:         progress,
		DB:               db,
		TimeLimitSeconds: timeLimitSeconds,
	}
}

type StartSessionResult struct {
	Session *model.QuizSession `json:"session"`
	Resumed bool               `json:"resumed"`
}

// QuestionView is a question with its answer key withheld.
type QuestionView struct {
	ID      uint              `json:"id"`
	Text    string            `json:"text"`
	Choices map[string]string `json:"choices"`
}

type CurrentQuestion struct {
	Question             QuestionView `json:"question"`
	QuestionNumber       int          `json:"questionNumber"`
	TotalQuestions       int          `json:"totalQuestions"`
	CorrectCount         int          `json:"correctCount"`
	WrongCount           int          `json:"wrongCount"`
	TimeRemainingSeconds int          `json:"timeRemainingSeconds"`
}

type QuizResults struct {
	SessionID      uint      `json:"sessionId"`
	TotalQuestions int       `json:"totalQuestions"`
	CorrectCount   int       `json:"correctCount"`
	WrongCount     int       `json:"wrongCount"`
	ScorePercent   int       `json:"scorePercent"`
	Tier           string    `json:"tier"`
	ElapsedSeconds int       `json:"elapsedSeconds"`
	ElapsedMinutes int       `json:"elapsedMinutes"`
	ElapsedExtra   int       `json:"elapsedExtraSeconds"`
	CompletedAt    time.Time `json:"completedAt"`
}

type AnswerFeedback struct {
	IsCorrect        bool                    `json:"isCorrect"`
	CorrectChoice    string                  `json:"correctChoice"`
	Explanation      string                  `json:"explanation"`
	QuestionNumber   int                     `json:"questionNumber"`
	TotalQuestions   int                     `json:"totalQuestions"`
	CorrectCount     int                     `json:"correctCount"`
	WrongCount       int                     `json:"wrongCount"`
	Status           model.QuizSessionStatus `json:"status"`
	Completed        bool                    `json:"completed"`
	Results          *QuizResults            `json:"results,omitempty"`
	ProgressRecorded bool                    `json:"progressRecorded"`
}

func validChoice(c string) bool {
	switch c {
	case "a", "b", "c", "d", "e":
		return true
	}
	return false
}

// PerformanceTier maps a score percent onto the reporting tier.
// Thresholds are inclusive lower bounds.
func PerformanceTier(scorePercent int) string {
	switch {
	case scorePercent >= 90:
		return "excellent"
	case scorePercent >= 80:
		return "very good"
	case scorePercent >= 70:
		return "good"
	case scorePercent >= 60:
		return "fair"
	default:
		return "needs improvement"
	}
}

// StartSession begins a quiz attempt, or resumes the existing active
// session for the same (user, conteudo) unchanged.
func (s *QuizService) StartSession(userID, conteudoID uint) (*StartSessionResult, error) {
	var violations []string
	if userID == 0 {
		violations = append(violations, "userId is required")
	}
	if conteudoID == 0 {
		violations = append(violations, "conteudoId is required")
	}
	if err := util.NewValidationError(violations); err != nil {
		return nil, err
	}

	conteudo, err := s.ConteudoRepo.FindByID(conteudoID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrConteudoNotFound
	} else if err != nil {
		return nil, err
	}

	if existing, err := s.QuizRepo.FindActiveSession(userID, conteudoID); err == nil {
		monitoring.QuizSessionsStarted.WithLabelValues("resumed").Inc()
		return &StartSessionResult{Session: existing, Resumed: true}, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	count, err := s.ConteudoRepo.CountQuestions(conteudoID)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, util.ErrNoQuestions
	}

	session := &model.QuizSession{
		UserID:               userID,
		ConteudoID:           conteudoID,
		TrilhaID:             conteudo.TrilhaID,
		Status:               model.QuizStarted,
		StartedAt:            time.Now(),
		TimeLimitSeconds:     s.TimeLimitSeconds,
		CurrentQuestionIndex: 1,
		TotalQuestions:       int(count),
	}
	if err := s.QuizRepo.CreateSession(session); err != nil {
		return nil, err
	}

	monitoring.QuizSessionsStarted.WithLabelValues("created").Inc()
	return &StartSessionResult{Session: session, Resumed: false}, nil
}

// loadOwnedActive fetches the session, checks ownership, rejects
// terminal states and lazily expires overdue sessions. Every read path
// goes through this, so a session past its deadline can never serve
// another question.
func (s *QuizService) loadOwnedActive(sessionID, userID uint) (*model.QuizSession, error) {
	session, err := s.QuizRepo.FindSessionByID(sessionID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrSessionNotFound
	} else if err != nil {
		return nil, err
	}

	if session.UserID != userID {
		return nil, util.ErrNotSessionOwner
	}

	switch session.Status {
	case model.QuizCompleted:
		return nil, util.ErrSessionCompleted
	case model.QuizAbandoned:
		return nil, util.ErrSessionAbandoned
	}

	if session.Expired(time.Now()) {
		if err := s.Expire(session); err != nil && !errors.Is(err, util.ErrSessionConflict) {
			return nil, err
		}
		return nil, util.ErrSessionTimeout
	}

	return session, nil
}

// Expire transitions an overdue session to abandoned. A conflict means
// another caller already finished or expired it, which is fine.
func (s *QuizService) Expire(session *model.QuizSession) error {
	session.Status = model.QuizAbandoned
	if err := s.QuizRepo.UpdateSessionGuarded(nil, session); err != nil {
		return err
	}
	monitoring.QuizSessionsFinished.WithLabelValues("expired").Inc()
	logger.Log.Info("quiz session expired",
		zap.Uint("sessionId", session.ID),
		zap.Uint("userId", session.UserID))
	return nil
}

// GetCurrentQuestion returns the question at the session's cursor with
// the answer key withheld, plus progress metadata.
func (s *QuizService) GetCurrentQuestion(sessionID, userID uint) (*CurrentQuestion, error) {
	var violations []string
	if sessionID == 0 {
		violations = append(violations, "sessionId is required")
	}
	if userID == 0 {
		violations = append(violations, "userId is required")
	}
	if err := util.NewValidationError(violations); err != nil {
		return nil, err
	}

	session, err := s.loadOwnedActive(sessionID, userID)
	if err != nil {
		return nil, err
	}

	question, err := s.ConteudoRepo.QuestionAt(session.ConteudoID, session.CurrentQuestionIndex)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrQuestionNotFound
	} else if err != nil {
		return nil, err
	}

	return &CurrentQuestion{
		Question: QuestionView{
			ID:      question.ID,
			Text:    question.Text,
			Choices: question.Choices,
		},
		QuestionNumber:       session.CurrentQuestionIndex,
		TotalQuestions:       session.TotalQuestions,
		CorrectCount:         session.CorrectCount,
		WrongCount:           session.WrongCount,
		TimeRemainingSeconds: session.Remaining(time.Now()),
	}, nil
}

// SubmitAnswer scores one answer against the question at the session's
// cursor, persists the answer record and advances the session. On the
// final question it computes results and propagates progress.
func (s *QuizService) SubmitAnswer(sessionID, userID uint, selectedChoice string) (*AnswerFeedback, error) {
	choice := strings.ToLower(strings.TrimSpace(selectedChoice))

	var violations []string
	if sessionID == 0 {
		violations = append(violations, "sessionId is required")
	}
	if userID == 0 {
		violations = append(violations, "userId is required")
	}
	if !validChoice(choice) {
		violations = append(violations, "selectedChoice must be one of: a, b, c, d, e")
	}
	if err := util.NewValidationError(violations); err != nil {
		return nil, err
	}

	session, err := s.loadOwnedActive(sessionID, userID)
	if err != nil {
		return nil, err
	}

	question, err := s.ConteudoRepo.QuestionAt(session.ConteudoID, session.CurrentQuestionIndex)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrQuestionNotFound
	} else if err != nil {
		return nil, err
	}

	now := time.Now()
	isCorrect := choice == question.CorrectChoice
	answeredNumber := session.CurrentQuestionIndex

	if isCorrect {
		session.CorrectCount++
	} else {
		session.WrongCount++
	}
	session.CurrentQuestionIndex++

	completed := session.CurrentQuestionIndex > session.TotalQuestions
	if completed {
		session.Status = model.QuizCompleted
		session.CompletedAt = &now
	} else {
		session.Status = model.QuizInProgress
	}

	// The answer row is written first and the guarded session update is
	// the commit gate: a lost version race rolls both back, so a replay
	// against an already-advanced session is rejected instead of
	// double-scored.
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		answer := &model.QuizAnswer{
			SessionID:      session.ID,
			QuestionID:     question.ID,
			UserID:         userID,
			SelectedChoice: choice,
			CorrectChoice:  question.CorrectChoice,
			IsCorrect:      isCorrect,
			AnsweredAt:     now,
		}
		if err := s.QuizRepo.CreateAnswer(tx, answer); err != nil {
			return err
		}
		return s.QuizRepo.UpdateSessionGuarded(tx, session)
	})
	if err != nil {
		return nil, err
	}

	monitoring.QuizAnswersTotal.WithLabelValues(strconv.FormatBool(isCorrect)).Inc()

	feedback := &AnswerFeedback{
		IsCorrect:      isCorrect,
		CorrectChoice:  question.CorrectChoice,
		Explanation:    question.Explanation,
		QuestionNumber: answeredNumber,
		TotalQuestions: session.TotalQuestions,
		CorrectCount:   session.CorrectCount,
		WrongCount:     session.WrongCount,
		Status:         session.Status,
		Completed:      completed,
	}

	if completed {
		monitoring.QuizSessionsFinished.WithLabelValues("completed").Inc()

		results, err := s.ComputeResults(session)
		if err != nil {
			return nil, err
		}
		monitoring.QuizScore.Observe(float64(results.ScorePercent))

		// RecordModuleCompletion is idempotent, so a retry after a
		// transient storage failure here is safe.
		if err := s.Progress.RecordModuleCompletion(userID, session.ConteudoID, session.TrilhaID, results); err != nil {
			return nil, err
		}
		feedback.Results = results
		feedback.ProgressRecorded = true
	}

	return feedback, nil
}

// ComputeResults derives the final score, tier and elapsed time from a
// completed session's counters. Calling it on a session in any other
// state is programmer misuse.
func (s *QuizService) ComputeResults(session *model.QuizSession) (*QuizResults, error) {
	if session.Status != model.QuizCompleted || session.CompletedAt == nil {
		return nil, util.ErrInvalidState
	}

	scorePercent := session.CorrectCount * 100 / session.TotalQuestions
	elapsed := int(session.CompletedAt.Sub(session.StartedAt).Seconds())

	return &QuizResults{
		SessionID:      session.ID,
		TotalQuestions: session.TotalQuestions,
		CorrectCount:   session.CorrectCount,
		WrongCount:     session.WrongCount,
		ScorePercent:   scorePercent,
		Tier:           PerformanceTier(scorePercent),
		ElapsedSeconds: elapsed,
		ElapsedMinutes: elapsed / 60,
		ElapsedExtra:   elapsed % 60,
		CompletedAt:    *session.CompletedAt,
	}, nil
}

// AbandonSession is the explicit form of the timeout transition.
func (s *QuizService) AbandonSession(sessionID, userID uint) error {
	session, err := s.loadOwnedActive(sessionID, userID)
	if err != nil {
		return err
	}

	session.Status = model.QuizAbandoned
	if err := s.QuizRepo.UpdateSessionGuarded(nil, session); err != nil {
		return err
	}
	monitoring.QuizSessionsFinished.WithLabelValues("abandoned").Inc()
	return nil
}

// GetResults returns the results of a completed session.
func (s *QuizService) GetResults(sessionID, userID uint) (*QuizResults, error) {
	session, err := s.QuizRepo.FindSessionByID(sessionID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrSessionNotFound
	} else if err != nil {
		return nil, err
	}
	if session.UserID != userID {
		return nil, util.ErrNotSessionOwner
	}
	return s.ComputeResults(session)
}

type QuizHistoryEntry struct {
	SessionID    uint                    `json:"sessionId"`
	ConteudoID   uint                    `json:"conteudoId"`
	TrilhaID     uint                    `json:"trilhaId"`
	Status       model.QuizSessionStatus `json:"status"`
	StartedAt    time.Time               `json:"startedAt"`
	CompletedAt  *time.Time              `json:"completedAt,omitempty"`
	CorrectCount int                     `json:"correctCount"`
	WrongCount   int                     `json:"wrongCount"`
	Total        int                     `json:"totalQuestions"`
	ScorePercent *int                    `json:"scorePercent,omitempty"`
}

// GetUserHistory lists the user's most recent sessions, newest first.
func (s *QuizService) GetUserHistory(userID uint, limit int) ([]QuizHistoryEntry, error) {
	if limit <= 0 {
		limit = 10
	}
	sessions, err := s.QuizRepo.ListSessionsByUser(userID, limit)
	if err != nil {
		return nil, err
	}

	history := make([]QuizHistoryEntry, 0, len(sessions))
	for _, sess := range sessions {
		entry := QuizHistoryEntry{
			SessionID:    sess.ID,
			ConteudoID:   sess.ConteudoID,
			TrilhaID:     sess.TrilhaID,
			Status:       sess.Status,
			StartedAt:    sess.StartedAt,
			CompletedAt:  sess.CompletedAt,
			CorrectCount: sess.CorrectCount,
			WrongCount:   sess.WrongCount,
			Total:        sess.TotalQuestions,
		}
		if sess.Status == model.QuizCompleted && sess.TotalQuestions > 0 {
			score := sess.CorrectCount * 100 / sess.TotalQuestions
			entry.ScorePercent = &score
		}
		history = append(history, entry)
	}
	return history, nil
}
