package service

import (
	"testing"

	"trilha_edu_backend/internal/model"
	"trilha_edu_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTrilhaService(env *testEnv) *TrilhaService {
	return NewTrilhaService(env.trilhaRepo, env.conteudoRepo, env.desempenhoRepo)
}

func TestCreateTrilhaValidation(t *testing.T) {
	env := newTestEnv(t)
	svc := newTrilhaService(env)

	_, err := svc.CreateTrilha(nil, TrilhaRequest{Title: "", Difficulty: "expert"})
	var ve *util.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Len(t, ve.Violations, 2)
}

func TestEnrollTwiceFails(t *testing.T) {
	env := newTestEnv(t)
	svc := newTrilhaService(env)
	user := env.seedUser(t, "ana", model.DifficultyBeginner)
	trilha := env.seedTrilha(t, "Go basics", model.DifficultyBeginner, "programming")

	_, err := svc.Enroll(user.ID, trilha.ID)
	require.NoError(t, err)

	_, err = svc.Enroll(user.ID, trilha.ID)
	assert.ErrorIs(t, err, util.ErrAlreadyEnrolled)
}

func TestEnrollUnknownTrilha(t *testing.T) {
	env := newTestEnv(t)
	svc := newTrilhaService(env)
	user := env.seedUser(t, "bia", model.DifficultyBeginner)

	_, err := svc.Enroll(user.ID, 999)
	assert.ErrorIs(t, err, util.ErrTrilhaNotFound)
}

func TestAddConteudoAssignsNextOrder(t *testing.T) {
	env := newTestEnv(t)
	svc := newTrilhaService(env)
	trilha := env.seedTrilha(t, "Go basics", model.DifficultyBeginner, "programming")

	first, err := svc.AddConteudo(trilha.ID, ConteudoRequest{Title: "Intro", Tipo: model.ConteudoText})
	require.NoError(t, err)
	assert.Equal(t, 1, first.Order)

	second, err := svc.AddConteudo(trilha.ID, ConteudoRequest{Title: "Quiz", Tipo: model.ConteudoQuiz})
	require.NoError(t, err)
	assert.Equal(t, 2, second.Order)
}

func TestAddQuestionsReportsEveryViolation(t *testing.T) {
	env := newTestEnv(t)
	svc := newTrilhaService(env)
	trilha := env.seedTrilha(t, "Go basics", model.DifficultyBeginner, "programming")
	conteudo, err := svc.AddConteudo(trilha.ID, ConteudoRequest{Title: "Quiz", Tipo: model.ConteudoQuiz})
	require.NoError(t, err)

	_, err = svc.AddQuestions(conteudo.ID, []QuestionRequest{
		{
			// missing text, too few choices, correct not among keys
			Choices:       map[string]string{"a": "x", "b": "y"},
			CorrectChoice: "e",
		},
		{
			Text:          "valid",
			Choices:       map[string]string{"a": "1", "b": "2", "c": "3", "d": "4", "e": "5"},
			CorrectChoice: "a",
		},
	})

	var ve *util.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Len(t, ve.Violations, 3)

	// the whole batch is rejected
	count, err := env.conteudoRepo.CountQuestions(conteudo.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestAddQuestionsPersistsValidBatch(t *testing.T) {
	env := newTestEnv(t)
	svc := newTrilhaService(env)
	trilha := env.seedTrilha(t, "Go basics", model.DifficultyBeginner, "programming")
	conteudo, err := svc.AddConteudo(trilha.ID, ConteudoRequest{Title: "Quiz", Tipo: model.ConteudoQuiz})
	require.NoError(t, err)

	questions, err := svc.AddQuestions(conteudo.ID, []QuestionRequest{
		{
			Text:          "Pick a",
			Choices:       map[string]string{"a": "1", "b": "2", "c": "3", "d": "4", "e": "5"},
			CorrectChoice: "a",
			Explanation:   "because",
		},
	})
	require.NoError(t, err)
	require.Len(t, questions, 1)

	stored, err := env.conteudoRepo.ListQuestions(conteudo.ID)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "a", stored[0].CorrectChoice)
	assert.Equal(t, "2", stored[0].Choices["b"])
}

func TestSearchRequiresMinimumTerm(t *testing.T) {
	env := newTestEnv(t)
	svc := newTrilhaService(env)

	_, err := svc.SearchTrilhas("x", 10)
	var ve *util.ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestDeleteTrilhaCascades(t *testing.T) {
	env := newTestEnv(t)
	svc := newTrilhaService(env)
	trilha := env.seedTrilha(t, "Go basics", model.DifficultyBeginner, "programming")
	conteudo := env.seedQuizConteudo(t, trilha.ID, 1, 2)

	require.NoError(t, svc.DeleteTrilha(trilha.ID))

	_, _, err := svc.GetTrilha(trilha.ID)
	assert.ErrorIs(t, err, util.ErrTrilhaNotFound)

	count, err := env.conteudoRepo.CountQuestions(conteudo.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestGetStatisticsAggregates(t *testing.T) {
	env := newTestEnv(t)
	svc := newTrilhaService(env)
	u1 := env.seedUser(t, "carlos", model.DifficultyBeginner)
	u2 := env.seedUser(t, "dora", model.DifficultyBeginner)
	trilha := env.seedTrilha(t, "Go basics", model.DifficultyBeginner, "programming")
	c1 := env.seedQuizConteudo(t, trilha.ID, 1, 2)

	require.NoError(t, env.progress.RecordModuleCompletion(u1.ID, c1.ID, trilha.ID, results(80)))
	require.NoError(t, env.progress.RecordModuleCompletion(u2.ID, c1.ID, trilha.ID, results(60)))

	stats, err := svc.GetStatistics(trilha.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalEnrollments)
	assert.Equal(t, 1, stats.TotalConteudos)
	assert.InDelta(t, 100.0, stats.AverageProgress, 0.01)
	assert.InDelta(t, 70.0, stats.AverageScore, 0.01)
	assert.InDelta(t, 100.0, stats.CompletionRate, 0.01)
	assert.Equal(t, 10, stats.StudyMinutes)
}
