package service

import (
	"fmt"
	"testing"
	"time"

	"trilha_edu_backend/internal/model"
	"trilha_edu_backend/internal/repository"
	"trilha_edu_backend/internal/util"
	"trilha_edu_backend/pkg/database"
	"trilha_edu_backend/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type testEnv struct {
	db             *gorm.DB
	userRepo       *repository.UserRepository
	trilhaRepo     *repository.TrilhaRepository
	conteudoRepo   *repository.ConteudoRepository
	quizRepo       *repository.QuizRepository
	desempenhoRepo *repository.DesempenhoRepository
	progress       *ProgressService
	quiz           *QuizService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger.Log = zap.NewNop()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// a single connection keeps every query on the same in-memory db
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))

	env := &testEnv{
		db:             db,
		userRepo:       repository.NewUserRepository(db),
		trilhaRepo:     repository.NewTrilhaRepository(db),
		conteudoRepo:   repository.NewConteudoRepository(db),
		quizRepo:       repository.NewQuizRepository(db),
		desempenhoRepo: repository.NewDesempenhoRepository(db),
	}
	env.progress = NewProgressService(env.desempenhoRepo, env.trilhaRepo, env.conteudoRepo)
	env.quiz = NewQuizService(env.quizRepo, env.conteudoRepo, env.progress, db, 1800)
	return env
}

func (e *testEnv) seedUser(t *testing.T, name string, difficulty model.Difficulty) *model.User {
	t.Helper()
	user := &model.User{
		Name:                name,
		Email:               name + "@example.com",
		Password:            "hashed",
		Role:                model.Student,
		PreferredDifficulty: difficulty,
	}
	require.NoError(t, e.userRepo.Create(user))
	return user
}

func (e *testEnv) seedTrilha(t *testing.T, title string, difficulty model.Difficulty, category string) *model.Trilha {
	t.Helper()
	trilha := &model.Trilha{
		Title:      title,
		Difficulty: difficulty,
		Category:   category,
	}
	require.NoError(t, e.trilhaRepo.Create(trilha))
	return trilha
}

// seedQuizConteudo creates a quiz conteudo with n questions whose
// correct choice is always "a".
func (e *testEnv) seedQuizConteudo(t *testing.T, trilhaID uint, order, n int) *model.Conteudo {
	t.Helper()
	conteudo := &model.Conteudo{
		TrilhaID: trilhaID,
		Title:    fmt.Sprintf("Quiz %d", order),
		Tipo:     model.ConteudoQuiz,
		Order:    order,
	}
	require.NoError(t, e.conteudoRepo.Create(conteudo))

	questions := make([]model.Question, 0, n)
	for i := 1; i <= n; i++ {
		questions = append(questions, model.Question{
			ConteudoID: conteudo.ID,
			Text:       fmt.Sprintf("Question %d", i),
			Choices: map[string]string{
				"a": "right", "b": "wrong", "c": "wrong", "d": "wrong", "e": "wrong",
			},
			CorrectChoice: "a",
			Explanation:   "a is right",
		})
	}
	require.NoError(t, e.conteudoRepo.CreateQuestions(questions))
	return conteudo
}

func TestStartSessionCreatesAndResumes(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "ana", model.DifficultyBeginner)
	trilha := env.seedTrilha(t, "Go basics", model.DifficultyBeginner, "programming")
	conteudo := env.seedQuizConteudo(t, trilha.ID, 1, 3)

	first, err := env.quiz.StartSession(user.ID, conteudo.ID)
	require.NoError(t, err)
	assert.False(t, first.Resumed)
	assert.Equal(t, model.QuizStarted, first.Session.Status)
	assert.Equal(t, 3, first.Session.TotalQuestions)
	assert.Equal(t, 1, first.Session.CurrentQuestionIndex)
	assert.Equal(t, trilha.ID, first.Session.TrilhaID)

	second, err := env.quiz.StartSession(user.ID, conteudo.ID)
	require.NoError(t, err)
	assert.True(t, second.Resumed)
	assert.Equal(t, first.Session.ID, second.Session.ID)
}

func TestStartSessionRejectsEmptyQuiz(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "bruno", model.DifficultyBeginner)
	trilha := env.seedTrilha(t, "Empty", model.DifficultyBeginner, "misc")

	conteudo := &model.Conteudo{TrilhaID: trilha.ID, Title: "No questions", Tipo: model.ConteudoQuiz, Order: 1}
	require.NoError(t, env.conteudoRepo.Create(conteudo))

	_, err := env.quiz.StartSession(user.ID, conteudo.ID)
	assert.ErrorIs(t, err, util.ErrNoQuestions)
}

func TestStartSessionAccumulatesViolations(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.quiz.StartSession(0, 0)
	var ve *util.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Len(t, ve.Violations, 2)
}

func TestSubmitAnswerFullRun(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "carla", model.DifficultyBeginner)
	trilha := env.seedTrilha(t, "Go basics", model.DifficultyBeginner, "programming")
	conteudo := env.seedQuizConteudo(t, trilha.ID, 1, 10)

	started, err := env.quiz.StartSession(user.ID, conteudo.ID)
	require.NoError(t, err)
	sessionID := started.Session.ID

	// 7 correct, 3 wrong
	choices := []string{"a", "a", "b", "a", "c", "a", "a", "b", "a", "a"}
	var last *AnswerFeedback
	for i, choice := range choices {
		last, err = env.quiz.SubmitAnswer(sessionID, user.ID, choice)
		require.NoError(t, err)
		assert.Equal(t, i+1, last.QuestionNumber)
		// answered questions always equal correct + wrong
		assert.Equal(t, i+1, last.CorrectCount+last.WrongCount)
	}

	require.NotNil(t, last)
	assert.True(t, last.Completed)
	assert.Equal(t, model.QuizCompleted, last.Status)
	assert.True(t, last.ProgressRecorded)

	require.NotNil(t, last.Results)
	assert.Equal(t, 7, last.Results.CorrectCount)
	assert.Equal(t, 3, last.Results.WrongCount)
	assert.Equal(t, 70, last.Results.ScorePercent)
	assert.Equal(t, "good", last.Results.Tier)

	answers, err := env.quizRepo.ListAnswersBySession(sessionID)
	require.NoError(t, err)
	assert.Len(t, answers, 10)

	// completion propagated into the desempenho row and the enrollment
	d, err := env.desempenhoRepo.FindByUserAndConteudo(user.ID, conteudo.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, d.ProgressPercent)
	require.NotNil(t, d.Score)
	assert.Equal(t, 70, *d.Score)

	enrollment, err := env.trilhaRepo.FindEnrollment(user.ID, trilha.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, enrollment.ProgressPercent)
	assert.Equal(t, 70, enrollment.AverageScore)
	assert.Equal(t, model.EnrollmentCompleted, enrollment.Status)
}

func TestSubmitAnswerNormalizesChoice(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "davi", model.DifficultyBeginner)
	trilha := env.seedTrilha(t, "Go basics", model.DifficultyBeginner, "programming")
	conteudo := env.seedQuizConteudo(t, trilha.ID, 1, 2)

	started, err := env.quiz.StartSession(user.ID, conteudo.ID)
	require.NoError(t, err)

	feedback, err := env.quiz.SubmitAnswer(started.Session.ID, user.ID, "  A ")
	require.NoError(t, err)
	assert.True(t, feedback.IsCorrect)
}

func TestSubmitAnswerRejectsInvalidChoice(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "elisa", model.DifficultyBeginner)
	trilha := env.seedTrilha(t, "Go basics", model.DifficultyBeginner, "programming")
	conteudo := env.seedQuizConteudo(t, trilha.ID, 1, 2)

	started, err := env.quiz.StartSession(user.ID, conteudo.ID)
	require.NoError(t, err)

	_, err = env.quiz.SubmitAnswer(started.Session.ID, user.ID, "f")
	var ve *util.ValidationError
	require.ErrorAs(t, err, &ve)

	// the rejected submission must not advance the session
	current, err := env.quiz.GetCurrentQuestion(started.Session.ID, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, current.QuestionNumber)
}

func TestSubmitAfterCompletionIsRejected(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "fabio", model.DifficultyBeginner)
	trilha := env.seedTrilha(t, "Go basics", model.DifficultyBeginner, "programming")
	conteudo := env.seedQuizConteudo(t, trilha.ID, 1, 1)

	started, err := env.quiz.StartSession(user.ID, conteudo.ID)
	require.NoError(t, err)

	_, err = env.quiz.SubmitAnswer(started.Session.ID, user.ID, "a")
	require.NoError(t, err)

	_, err = env.quiz.SubmitAnswer(started.Session.ID, user.ID, "a")
	assert.ErrorIs(t, err, util.ErrSessionCompleted)

	answers, err := env.quizRepo.ListAnswersBySession(started.Session.ID)
	require.NoError(t, err)
	assert.Len(t, answers, 1)
}

func TestSessionOwnershipEnforced(t *testing.T) {
	env := newTestEnv(t)
	owner := env.seedUser(t, "gabi", model.DifficultyBeginner)
	other := env.seedUser(t, "hugo", model.DifficultyBeginner)
	trilha := env.seedTrilha(t, "Go basics", model.DifficultyBeginner, "programming")
	conteudo := env.seedQuizConteudo(t, trilha.ID, 1, 2)

	started, err := env.quiz.StartSession(owner.ID, conteudo.ID)
	require.NoError(t, err)

	_, err = env.quiz.GetCurrentQuestion(started.Session.ID, other.ID)
	assert.ErrorIs(t, err, util.ErrNotSessionOwner)

	_, err = env.quiz.SubmitAnswer(started.Session.ID, other.ID, "a")
	assert.ErrorIs(t, err, util.ErrNotSessionOwner)
}

func TestSessionTimeoutTransitionsToAbandoned(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "iris", model.DifficultyBeginner)
	trilha := env.seedTrilha(t, "Go basics", model.DifficultyBeginner, "programming")
	conteudo := env.seedQuizConteudo(t, trilha.ID, 1, 3)

	started, err := env.quiz.StartSession(user.ID, conteudo.ID)
	require.NoError(t, err)

	// push the start past the deadline
	past := time.Now().Add(-time.Duration(started.Session.TimeLimitSeconds+60) * time.Second)
	require.NoError(t, env.db.Model(&model.QuizSession{}).
		Where("id = ?", started.Session.ID).
		Update("started_at", past).Error)

	_, err = env.quiz.GetCurrentQuestion(started.Session.ID, user.ID)
	assert.ErrorIs(t, err, util.ErrSessionTimeout)

	// the first expired access flipped the status for good
	_, err = env.quiz.SubmitAnswer(started.Session.ID, user.ID, "a")
	assert.ErrorIs(t, err, util.ErrSessionAbandoned)

	session, err := env.quizRepo.FindSessionByID(started.Session.ID)
	require.NoError(t, err)
	assert.Equal(t, model.QuizAbandoned, session.Status)
}

func TestVersionGuardRejectsStaleWrite(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "joana", model.DifficultyBeginner)
	trilha := env.seedTrilha(t, "Go basics", model.DifficultyBeginner, "programming")
	conteudo := env.seedQuizConteudo(t, trilha.ID, 1, 3)

	started, err := env.quiz.StartSession(user.ID, conteudo.ID)
	require.NoError(t, err)

	stale, err := env.quizRepo.FindSessionByID(started.Session.ID)
	require.NoError(t, err)

	_, err = env.quiz.SubmitAnswer(started.Session.ID, user.ID, "a")
	require.NoError(t, err)

	stale.Status = model.QuizAbandoned
	err = env.quizRepo.UpdateSessionGuarded(nil, stale)
	assert.ErrorIs(t, err, util.ErrSessionConflict)

	// the lost writer changed nothing
	session, err := env.quizRepo.FindSessionByID(started.Session.ID)
	require.NoError(t, err)
	assert.Equal(t, model.QuizInProgress, session.Status)
	assert.Equal(t, 2, session.CurrentQuestionIndex)
}

func TestAbandonSession(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "karen", model.DifficultyBeginner)
	trilha := env.seedTrilha(t, "Go basics", model.DifficultyBeginner, "programming")
	conteudo := env.seedQuizConteudo(t, trilha.ID, 1, 3)

	started, err := env.quiz.StartSession(user.ID, conteudo.ID)
	require.NoError(t, err)

	require.NoError(t, env.quiz.AbandonSession(started.Session.ID, user.ID))

	_, err = env.quiz.GetCurrentQuestion(started.Session.ID, user.ID)
	assert.ErrorIs(t, err, util.ErrSessionAbandoned)

	// abandoning leaves no trace in progress
	_, err = env.desempenhoRepo.FindByUserAndConteudo(user.ID, conteudo.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestGetResultsRequiresCompletion(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "lia", model.DifficultyBeginner)
	trilha := env.seedTrilha(t, "Go basics", model.DifficultyBeginner, "programming")
	conteudo := env.seedQuizConteudo(t, trilha.ID, 1, 2)

	started, err := env.quiz.StartSession(user.ID, conteudo.ID)
	require.NoError(t, err)

	_, err = env.quiz.GetResults(started.Session.ID, user.ID)
	assert.ErrorIs(t, err, util.ErrInvalidState)

	_, err = env.quiz.SubmitAnswer(started.Session.ID, user.ID, "a")
	require.NoError(t, err)
	_, err = env.quiz.SubmitAnswer(started.Session.ID, user.ID, "b")
	require.NoError(t, err)

	results, err := env.quiz.GetResults(started.Session.ID, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 50, results.ScorePercent)
	assert.Equal(t, "needs improvement", results.Tier)
}

func TestGetUserHistory(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "marco", model.DifficultyBeginner)
	trilha := env.seedTrilha(t, "Go basics", model.DifficultyBeginner, "programming")
	first := env.seedQuizConteudo(t, trilha.ID, 1, 2)
	second := env.seedQuizConteudo(t, trilha.ID, 2, 2)

	s1, err := env.quiz.StartSession(user.ID, first.ID)
	require.NoError(t, err)
	_, err = env.quiz.SubmitAnswer(s1.Session.ID, user.ID, "a")
	require.NoError(t, err)
	_, err = env.quiz.SubmitAnswer(s1.Session.ID, user.ID, "a")
	require.NoError(t, err)

	_, err = env.quiz.StartSession(user.ID, second.ID)
	require.NoError(t, err)

	history, err := env.quiz.GetUserHistory(user.ID, 10)
	require.NoError(t, err)
	require.Len(t, history, 2)

	var completed *QuizHistoryEntry
	for i := range history {
		if history[i].Status == model.QuizCompleted {
			completed = &history[i]
		}
	}
	require.NotNil(t, completed)
	require.NotNil(t, completed.ScorePercent)
	assert.Equal(t, 100, *completed.ScorePercent)
}

func TestPerformanceTierBoundaries(t *testing.T) {
	cases := []struct {
		score int
		tier  string
	}{
		{100, "excellent"},
		{90, "excellent"},
		{89, "very good"},
		{80, "very good"},
		{79, "good"},
		{70, "good"},
		{69, "fair"},
		{60, "fair"},
		{59, "needs improvement"},
		{0, "needs improvement"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.tier, PerformanceTier(tc.score), "score %d", tc.score)
	}
}
