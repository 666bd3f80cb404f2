package scheduler

import (
	"errors"
	"time"

	"trilha_edu_backend/internal/repository"
	"trilha_edu_backend/internal/service"
	"trilha_edu_backend/internal/util"
	"trilha_edu_backend/pkg/logger"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"
)

// SessionReaper abandons quiz sessions that ran out the clock without
// another request touching them. Expiry is also enforced lazily on
// every read, so the reaper only keeps the table tidy; missing a pass
// never changes observable behavior.
type SessionReaper struct {
	scheduler *gocron.Scheduler
	quizRepo  *repository.QuizRepository
	quiz      *service.QuizService
	interval  time.Duration
}

func NewSessionReaper(quizRepo *repository.QuizRepository, quiz *service.QuizService, interval time.Duration) *SessionReaper {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &SessionReaper{
		scheduler: gocron.NewScheduler(time.UTC),
		quizRepo:  quizRepo,
		quiz:      quiz,
		interval:  interval,
	}
}

func (r *SessionReaper) Start() {
	r.scheduler.Every(r.interval).Do(r.reap)
	r.scheduler.StartAsync()
}

func (r *SessionReaper) Stop() {
	r.scheduler.Stop()
}

func (r *SessionReaper) reap() {
	sessions, err := r.quizRepo.FindExpiredActive(time.Now())
	if err != nil {
		logger.Log.Error("reaper: listing expired sessions failed", zap.Error(err))
		return
	}

	reaped := 0
	for i := range sessions {
		if err := r.quiz.Expire(&sessions[i]); err != nil {
			// a concurrent request already resolved this session
			if errors.Is(err, util.ErrSessionConflict) {
				continue
			}
			logger.Log.Warn("reaper: abandoning session failed",
				zap.Uint("session_id", sessions[i].ID),
				zap.Error(err))
			continue
		}
		reaped++
	}

	if reaped > 0 {
		logger.Log.Info("reaper: abandoned timed-out sessions", zap.Int("count", reaped))
	}
}
