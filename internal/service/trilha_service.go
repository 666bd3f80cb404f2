package service

import (
	"errors"
	"fmt"
	"time"

	"trilha_edu_backend/internal/model"
	"trilha_edu_backend/internal/repository"
	"trilha_edu_backend/internal/util"

	"gorm.io/gorm"
)

type TrilhaService struct {
	TrilhaRepo     *repository.TrilhaRepository
	ConteudoRepo   *repository.ConteudoRepository
	DesempenhoRepo *repository.DesempenhoRepository
}

func NewTrilhaService(trilhaRepo *repository.TrilhaRepository, conteudoRepo *repository.ConteudoRepository, desempenhoRepo *repository.DesempenhoRepository) *TrilhaService {
	return &TrilhaService{
		TrilhaRepo:     trilhaRepo,
		ConteudoRepo:   conteudoRepo,
		DesempenhoRepo: desempenhoRepo,
	}
}

type TrilhaRequest struct {
	Title       string           `json:"title" binding:"required"`
	Description string           `json:"description"`
	Difficulty  model.Difficulty `json:"difficulty" binding:"required"`
	Category    string           `json:"category"`
}

func (s *TrilhaService) CreateTrilha(creatorID *uint, req TrilhaRequest) (*model.Trilha, error) {
	var violations []string
	if req.Title == "" {
		violations = append(violations, "title is required")
	}
	if !model.ValidDifficulty(req.Difficulty) {
		violations = append(violations, "difficulty must be one of: beginner, intermediate, advanced")
	}
	if err := util.NewValidationError(violations); err != nil {
		return nil, err
	}

	trilha := &model.Trilha{
		Title:       req.Title,
		Description: req.Description,
		Difficulty:  req.Difficulty,
		Category:    req.Category,
		CreatorID:   creatorID,
	}
	if err := s.TrilhaRepo.Create(trilha); err != nil {
		return nil, err
	}
	return trilha, nil
}

func (s *TrilhaService) GetTrilha(id uint) (*model.Trilha, []model.Conteudo, error) {
	trilha, err := s.TrilhaRepo.FindByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, util.ErrTrilhaNotFound
	} else if err != nil {
		return nil, nil, err
	}

	conteudos, err := s.ConteudoRepo.ListByTrilha(id)
	if err != nil {
		return nil, nil, err
	}
	return trilha, conteudos, nil
}

func (s *TrilhaService) UpdateTrilha(id uint, req TrilhaRequest) (*model.Trilha, error) {
	trilha, err := s.TrilhaRepo.FindByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrTrilhaNotFound
	} else if err != nil {
		return nil, err
	}

	if req.Title != "" {
		trilha.Title = req.Title
	}
	if req.Description != "" {
		trilha.Description = req.Description
	}
	if req.Difficulty != "" {
		if !model.ValidDifficulty(req.Difficulty) {
			return nil, util.NewValidationError([]string{"difficulty must be one of: beginner, intermediate, advanced"})
		}
		trilha.Difficulty = req.Difficulty
	}
	if req.Category != "" {
		trilha.Category = req.Category
	}

	if err := s.TrilhaRepo.Update(trilha); err != nil {
		return nil, err
	}
	return trilha, nil
}

func (s *TrilhaService) DeleteTrilha(id uint) error {
	if _, err := s.TrilhaRepo.FindByID(id); errors.Is(err, gorm.ErrRecordNotFound) {
		return util.ErrTrilhaNotFound
	} else if err != nil {
		return err
	}
	return s.TrilhaRepo.Delete(id)
}

func (s *TrilhaService) ListTrilhas(difficulty model.Difficulty, category string, page, limit int) ([]model.Trilha, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	if difficulty != "" && !model.ValidDifficulty(difficulty) {
		return nil, 0, util.NewValidationError([]string{"difficulty must be one of: beginner, intermediate, advanced"})
	}
	return s.TrilhaRepo.List(difficulty, category, page, limit)
}

func (s *TrilhaService) SearchTrilhas(term string, limit int) ([]model.Trilha, error) {
	if len(term) < 2 {
		return nil, util.NewValidationError([]string{"search term must be at least 2 characters"})
	}
	if limit < 1 || limit > 50 {
		limit = 20
	}
	return s.TrilhaRepo.Search(term, limit)
}

func (s *TrilhaService) GetPopular(limit int) ([]repository.PopularTrilha, error) {
	if limit < 1 || limit > 50 {
		limit = 10
	}
	return s.TrilhaRepo.GetPopular(limit)
}

// Enroll creates the user_trilha row. Enrolling twice is an error; the
// derived progress fields start zeroed and are owned by the progress
// recompute afterwards.
func (s *TrilhaService) Enroll(userID, trilhaID uint) (*model.UserTrilha, error) {
	if _, err := s.TrilhaRepo.FindByID(trilhaID); errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrTrilhaNotFound
	} else if err != nil {
		return nil, err
	}

	if _, err := s.TrilhaRepo.FindEnrollment(userID, trilhaID); err == nil {
		return nil, util.ErrAlreadyEnrolled
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	enrollment := &model.UserTrilha{
		UserID:     userID,
		TrilhaID:   trilhaID,
		EnrolledAt: time.Now(),
		Status:     model.EnrollmentActive,
	}
	if err := s.TrilhaRepo.CreateEnrollment(enrollment); err != nil {
		return nil, err
	}
	return enrollment, nil
}

type ConteudoRequest struct {
	Title    string             `json:"title" binding:"required"`
	Tipo     model.ConteudoType `json:"tipo" binding:"required"`
	Material string             `json:"material"`
	Order    int                `json:"order"`
}

func (s *TrilhaService) AddConteudo(trilhaID uint, req ConteudoRequest) (*model.Conteudo, error) {
	var violations []string
	if req.Title == "" {
		violations = append(violations, "title is required")
	}
	switch req.Tipo {
	case model.ConteudoVideo, model.ConteudoText, model.ConteudoQuiz, model.ConteudoExercise:
	default:
		violations = append(violations, "tipo must be one of: video, text, quiz, exercise")
	}
	if err := util.NewValidationError(violations); err != nil {
		return nil, err
	}

	if _, err := s.TrilhaRepo.FindByID(trilhaID); errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrTrilhaNotFound
	} else if err != nil {
		return nil, err
	}

	order := req.Order
	if order <= 0 {
		next, err := s.ConteudoRepo.NextOrder(trilhaID)
		if err != nil {
			return nil, err
		}
		order = next
	}

	conteudo := &model.Conteudo{
		TrilhaID: trilhaID,
		Title:    req.Title,
		Tipo:     req.Tipo,
		Material: req.Material,
		Order:    order,
	}
	if err := s.ConteudoRepo.Create(conteudo); err != nil {
		return nil, err
	}
	return conteudo, nil
}

type QuestionRequest struct {
	Text          string            `json:"text" binding:"required"`
	Choices       map[string]string `json:"choices" binding:"required"`
	CorrectChoice string            `json:"correctChoice" binding:"required"`
	Explanation   string            `json:"explanation"`
}

// AddQuestions attaches questions to a conteudo. Every constraint
// violation across the whole batch is reported, not just the first.
func (s *TrilhaService) AddQuestions(conteudoID uint, reqs []QuestionRequest) ([]model.Question, error) {
	if _, err := s.ConteudoRepo.FindByID(conteudoID); errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrConteudoNotFound
	} else if err != nil {
		return nil, err
	}

	var violations []string
	for i, req := range reqs {
		if req.Text == "" {
			violations = append(violations, fmt.Sprintf("question %d: text is required", i+1))
		}
		if len(req.Choices) != 5 {
			violations = append(violations, fmt.Sprintf("question %d: exactly 5 choices (a..e) are required", i+1))
		}
		for letter := range req.Choices {
			if !validChoice(letter) {
				violations = append(violations, fmt.Sprintf("question %d: invalid choice key %q", i+1, letter))
			}
		}
		if _, ok := req.Choices[req.CorrectChoice]; !ok {
			violations = append(violations, fmt.Sprintf("question %d: correctChoice must be one of the choice keys", i+1))
		}
	}
	if err := util.NewValidationError(violations); err != nil {
		return nil, err
	}

	questions := make([]model.Question, 0, len(reqs))
	for _, req := range reqs {
		questions = append(questions, model.Question{
			ConteudoID:    conteudoID,
			Text:          req.Text,
			Choices:       req.Choices,
			CorrectChoice: req.CorrectChoice,
			Explanation:   req.Explanation,
		})
	}
	if err := s.ConteudoRepo.CreateQuestions(questions); err != nil {
		return nil, err
	}
	return questions, nil
}

type TrilhaStatistics struct {
	TrilhaID         uint    `json:"trilhaId"`
	Title            string  `json:"title"`
	Difficulty       model.Difficulty `json:"difficulty"`
	TotalEnrollments int64   `json:"totalEnrollments"`
	TotalConteudos   int     `json:"totalConteudos"`
	AverageProgress  float64 `json:"averageProgress"`
	AverageScore     float64 `json:"averageScore"`
	CompletionRate   float64 `json:"completionRate"`
	StudyMinutes     int     `json:"totalStudyMinutes"`
}

// GetStatistics aggregates every learner's desempenho rows for the
// trilha's conteudos.
func (s *TrilhaService) GetStatistics(trilhaID uint) (*TrilhaStatistics, error) {
	trilha, err := s.TrilhaRepo.FindByID(trilhaID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrTrilhaNotFound
	} else if err != nil {
		return nil, err
	}

	enrollments, err := s.TrilhaRepo.CountEnrollments(trilhaID)
	if err != nil {
		return nil, err
	}

	conteudos, err := s.ConteudoRepo.ListByTrilha(trilhaID)
	if err != nil {
		return nil, err
	}
	ids := make([]uint, len(conteudos))
	for i, c := range conteudos {
		ids[i] = c.ID
	}

	records, err := s.DesempenhoRepo.ListByConteudos(ids)
	if err != nil {
		return nil, err
	}

	stats := &TrilhaStatistics{
		TrilhaID:         trilhaID,
		Title:            trilha.Title,
		Difficulty:       trilha.Difficulty,
		TotalEnrollments: enrollments,
		TotalConteudos:   len(conteudos),
	}

	if len(records) > 0 {
		progressSum, scoreSum, scored, completed := 0, 0, 0, 0
		for _, d := range records {
			progressSum += d.ProgressPercent
			stats.StudyMinutes += d.StudyMinutes
			if d.Score != nil {
				scoreSum += *d.Score
				scored++
			}
			if d.ProgressPercent >= 100 {
				completed++
			}
		}
		stats.AverageProgress = float64(progressSum) / float64(len(records))
		if scored > 0 {
			stats.AverageScore = float64(scoreSum) / float64(scored)
		}
		stats.CompletionRate = float64(completed) / float64(len(records)) * 100
	}

	return stats, nil
}
