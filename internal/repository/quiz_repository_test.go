package repository

import (
	"testing"
	"time"

	"trilha_edu_backend/internal/model"
	"trilha_edu_backend/internal/util"
	"trilha_edu_backend/pkg/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))
	return db
}

func newSession(t *testing.T, repo *QuizRepository, userID uint, startedAt time.Time, limit int) *model.QuizSession {
	t.Helper()
	s := &model.QuizSession{
		UserID:           userID,
		ConteudoID:       1,
		TrilhaID:         1,
		Status:           model.QuizStarted,
		StartedAt:        startedAt,
		TimeLimitSeconds: limit,
		TotalQuestions:   5,
	}
	s.CurrentQuestionIndex = 1
	require.NoError(t, repo.CreateSession(s))
	return s
}

func TestGuardedUpdateSerializesWriters(t *testing.T) {
	db := newTestDB(t)
	repo := NewQuizRepository(db)

	session := newSession(t, repo, 1, time.Now(), 1800)

	winner, err := repo.FindSessionByID(session.ID)
	require.NoError(t, err)
	loser, err := repo.FindSessionByID(session.ID)
	require.NoError(t, err)

	winner.CurrentQuestionIndex = 2
	winner.CorrectCount = 1
	winner.Status = model.QuizInProgress
	require.NoError(t, repo.UpdateSessionGuarded(nil, winner))

	loser.CurrentQuestionIndex = 2
	loser.WrongCount = 1
	loser.Status = model.QuizInProgress
	assert.ErrorIs(t, repo.UpdateSessionGuarded(nil, loser), util.ErrSessionConflict)

	stored, err := repo.FindSessionByID(session.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.CorrectCount)
	assert.Equal(t, 0, stored.WrongCount)
	assert.Equal(t, 1, stored.Version)
}

func TestGuardedUpdateBumpsVersionEachWrite(t *testing.T) {
	db := newTestDB(t)
	repo := NewQuizRepository(db)

	session := newSession(t, repo, 1, time.Now(), 1800)

	for i := 1; i <= 3; i++ {
		session.CurrentQuestionIndex = i + 1
		require.NoError(t, repo.UpdateSessionGuarded(nil, session))
		assert.Equal(t, i, session.Version)
	}
}

func TestFindExpiredActive(t *testing.T) {
	db := newTestDB(t)
	repo := NewQuizRepository(db)

	now := time.Now()
	overdue := newSession(t, repo, 1, now.Add(-40*time.Minute), 1800)
	newSession(t, repo, 2, now, 1800) // fresh, must not be reaped

	finished := newSession(t, repo, 3, now.Add(-40*time.Minute), 1800)
	finished.Status = model.QuizCompleted
	completedAt := now.Add(-35 * time.Minute)
	finished.CompletedAt = &completedAt
	require.NoError(t, repo.UpdateSessionGuarded(nil, finished))

	expired, err := repo.FindExpiredActive(now)
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, overdue.ID, expired[0].ID)
}

func TestFindActiveSessionIgnoresTerminal(t *testing.T) {
	db := newTestDB(t)
	repo := NewQuizRepository(db)

	s := newSession(t, repo, 1, time.Now(), 1800)
	s.Status = model.QuizAbandoned
	require.NoError(t, repo.UpdateSessionGuarded(nil, s))

	_, err := repo.FindActiveSession(1, 1)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
