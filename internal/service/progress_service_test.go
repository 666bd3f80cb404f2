package service

import (
	"testing"
	"time"

	"trilha_edu_backend/internal/model"
	"trilha_edu_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func results(score int) *QuizResults {
	return &QuizResults{
		TotalQuestions: 10,
		CorrectCount:   score / 10,
		WrongCount:     10 - score/10,
		ScorePercent:   score,
		Tier:           PerformanceTier(score),
		ElapsedSeconds: 300,
		ElapsedMinutes: 5,
		CompletedAt:    time.Now(),
	}
}

func TestPartialTrilhaProgress(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "nina", model.DifficultyBeginner)
	trilha := env.seedTrilha(t, "Go basics", model.DifficultyBeginner, "programming")
	c1 := env.seedQuizConteudo(t, trilha.ID, 1, 2)
	c2 := env.seedQuizConteudo(t, trilha.ID, 2, 2)
	env.seedQuizConteudo(t, trilha.ID, 3, 2)

	require.NoError(t, env.progress.RecordModuleCompletion(user.ID, c1.ID, trilha.ID, results(80)))
	require.NoError(t, env.progress.RecordModuleCompletion(user.ID, c2.ID, trilha.ID, results(60)))

	enrollment, err := env.trilhaRepo.FindEnrollment(user.ID, trilha.ID)
	require.NoError(t, err)
	assert.Equal(t, 66, enrollment.ProgressPercent) // 2 of 3, integer floor
	assert.Equal(t, 70, enrollment.AverageScore)
	assert.Equal(t, 2, enrollment.CompletedModulesCount)
	assert.Equal(t, model.EnrollmentActive, enrollment.Status)
	assert.Nil(t, enrollment.CompletedAt)
}

func TestTrilhaCompletionFlipsExactlyOnce(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "otto", model.DifficultyBeginner)
	trilha := env.seedTrilha(t, "Go basics", model.DifficultyBeginner, "programming")
	c1 := env.seedQuizConteudo(t, trilha.ID, 1, 2)

	require.NoError(t, env.progress.RecordModuleCompletion(user.ID, c1.ID, trilha.ID, results(90)))

	enrollment, err := env.trilhaRepo.FindEnrollment(user.ID, trilha.ID)
	require.NoError(t, err)
	assert.Equal(t, model.EnrollmentCompleted, enrollment.Status)
	require.NotNil(t, enrollment.CompletedAt)
	completedAt := *enrollment.CompletedAt

	// retake: values may change, the completion timestamp may not
	require.NoError(t, env.progress.RecordModuleCompletion(user.ID, c1.ID, trilha.ID, results(70)))

	enrollment, err = env.trilhaRepo.FindEnrollment(user.ID, trilha.ID)
	require.NoError(t, err)
	assert.Equal(t, model.EnrollmentCompleted, enrollment.Status)
	assert.Equal(t, 70, enrollment.AverageScore)
	require.NotNil(t, enrollment.CompletedAt)
	assert.WithinDuration(t, completedAt, *enrollment.CompletedAt, time.Millisecond)
}

func TestRecordModuleCompletionIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "paula", model.DifficultyBeginner)
	trilha := env.seedTrilha(t, "Go basics", model.DifficultyBeginner, "programming")
	c1 := env.seedQuizConteudo(t, trilha.ID, 1, 2)
	env.seedQuizConteudo(t, trilha.ID, 2, 2)

	r := results(80)
	require.NoError(t, env.progress.RecordModuleCompletion(user.ID, c1.ID, trilha.ID, r))
	require.NoError(t, env.progress.RecordModuleCompletion(user.ID, c1.ID, trilha.ID, r))

	// still a single desempenho row, still 1-of-2 progress
	records, err := env.desempenhoRepo.ListByUserAndConteudos(user.ID, []uint{c1.ID})
	require.NoError(t, err)
	require.Len(t, records, 1)

	enrollment, err := env.trilhaRepo.FindEnrollment(user.ID, trilha.ID)
	require.NoError(t, err)
	assert.Equal(t, 50, enrollment.ProgressPercent)
	assert.Equal(t, 1, enrollment.CompletedModulesCount)
}

func TestRetakeOverwritesModuleScore(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "rui", model.DifficultyBeginner)
	trilha := env.seedTrilha(t, "Go basics", model.DifficultyBeginner, "programming")
	c1 := env.seedQuizConteudo(t, trilha.ID, 1, 2)

	require.NoError(t, env.progress.RecordModuleCompletion(user.ID, c1.ID, trilha.ID, results(40)))
	require.NoError(t, env.progress.RecordModuleCompletion(user.ID, c1.ID, trilha.ID, results(90)))

	d, err := env.desempenhoRepo.FindByUserAndConteudo(user.ID, c1.ID)
	require.NoError(t, err)
	require.NotNil(t, d.Score)
	assert.Equal(t, 90, *d.Score)

	enrollment, err := env.trilhaRepo.FindEnrollment(user.ID, trilha.ID)
	require.NoError(t, err)
	assert.Equal(t, 90, enrollment.AverageScore)
}

func TestGetTrilhaProgressRequiresEnrollment(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "sofia", model.DifficultyBeginner)
	trilha := env.seedTrilha(t, "Go basics", model.DifficultyBeginner, "programming")

	_, err := env.progress.GetTrilhaProgress(user.ID, trilha.ID)
	assert.ErrorIs(t, err, util.ErrNotEnrolled)
}

func TestGetTrilhaProgressSummary(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "tiago", model.DifficultyBeginner)
	trilha := env.seedTrilha(t, "Go basics", model.DifficultyBeginner, "programming")
	c1 := env.seedQuizConteudo(t, trilha.ID, 1, 2)
	env.seedQuizConteudo(t, trilha.ID, 2, 2)

	require.NoError(t, env.progress.RecordModuleCompletion(user.ID, c1.ID, trilha.ID, results(80)))

	summary, err := env.progress.GetTrilhaProgress(user.ID, trilha.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.TotalConteudos)
	assert.Equal(t, 1, summary.CompletedConteudos)
	assert.Equal(t, 50, summary.CompletionPercent)
	assert.Equal(t, 80, summary.AverageScore)
	assert.Equal(t, 5, summary.StudyMinutes)
	assert.Equal(t, model.EnrollmentActive, summary.Status)
}
