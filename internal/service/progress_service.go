package service

import (
	"errors"
	"time"

	"trilha_edu_backend/internal/model"
	"trilha_edu_backend/internal/repository"
	"trilha_edu_backend/internal/util"

	"gorm.io/gorm"
)

// ProgressService folds per-conteudo performance into trilha-level
// enrollment progress. The recompute always derives from the current
// desempenho rows, never from deltas, so it is idempotent and safe to
// retry.
type ProgressService struct {
	DesempenhoRepo *repository.DesempenhoRepository
	TrilhaRepo     *repository.TrilhaRepository
	ConteudoRepo   *repository.ConteudoRepository
}

func NewProgressService(desempenhoRepo *repository.DesempenhoRepository, trilhaRepo *repository.TrilhaRepository, conteudoRepo *repository.ConteudoRepository) *ProgressService {
	return &ProgressService{
		DesempenhoRepo: desempenhoRepo,
		TrilhaRepo:     trilhaRepo,
		ConteudoRepo:   conteudoRepo,
	}
}

// RecordModuleCompletion upserts the (user, conteudo) desempenho row
// with the quiz outcome. The latest attempt wins; no attempt history is
// kept. Afterwards the trilha-level progress is recomputed.
func (s *ProgressService) RecordModuleCompletion(userID, conteudoID, trilhaID uint, results *QuizResults) error {
	d, err := s.DesempenhoRepo.FindByUserAndConteudo(userID, conteudoID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		d = &model.Desempenho{UserID: userID, ConteudoID: conteudoID}
	} else if err != nil {
		return err
	}

	score := results.ScorePercent
	completedAt := results.CompletedAt
	d.ProgressPercent = 100
	d.Score = &score
	d.StudyMinutes = results.ElapsedSeconds / 60
	d.CompletedAt = &completedAt

	if err := s.DesempenhoRepo.Save(d); err != nil {
		return err
	}

	return s.RecomputeTrilhaProgress(userID, trilhaID)
}

// RecomputeTrilhaProgress rederives the enrollment row for
// (user, trilha) from the raw desempenho records. A conteudo counts as
// done only at progress >= 100. Average score guards against a zero
// done-count. The enrollment flips to completed exactly once, at 100%.
func (s *ProgressService) RecomputeTrilhaProgress(userID, trilhaID uint) error {
	conteudos, err := s.ConteudoRepo.ListByTrilha(trilhaID)
	if err != nil {
		return err
	}
	if len(conteudos) == 0 {
		return nil
	}

	ids := make([]uint, len(conteudos))
	for i, c := range conteudos {
		ids[i] = c.ID
	}

	records, err := s.DesempenhoRepo.ListByUserAndConteudos(userID, ids)
	if err != nil {
		return err
	}

	done, scoreSum := 0, 0
	for _, d := range records {
		if d.ProgressPercent >= 100 {
			done++
			if d.Score != nil {
				scoreSum += *d.Score
			}
		}
	}

	completionPercent := done * 100 / len(conteudos)
	averageScore := 0
	if done > 0 {
		averageScore = scoreSum / done
	}

	enrollment, err := s.TrilhaRepo.FindEnrollment(userID, trilhaID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// Quizzing without an explicit enrollment still counts; the
		// row is created on the fly.
		enrollment = &model.UserTrilha{
			UserID:     userID,
			TrilhaID:   trilhaID,
			EnrolledAt: time.Now(),
			Status:     model.EnrollmentActive,
		}
	} else if err != nil {
		return err
	}

	enrollment.ProgressPercent = completionPercent
	enrollment.AverageScore = averageScore
	enrollment.CompletedModulesCount = done
	if completionPercent >= 100 && enrollment.Status != model.EnrollmentCompleted {
		now := time.Now()
		enrollment.Status = model.EnrollmentCompleted
		enrollment.CompletedAt = &now
	}

	return s.TrilhaRepo.UpdateEnrollment(enrollment)
}

type TrilhaProgressSummary struct {
	UserID            uint                   `json:"userId"`
	TrilhaID          uint                   `json:"trilhaId"`
	TotalConteudos    int                    `json:"totalConteudos"`
	CompletedConteudos int                   `json:"completedConteudos"`
	CompletionPercent int                    `json:"completionPercent"`
	AverageScore      int                    `json:"averageScore"`
	StudyMinutes      int                    `json:"studyMinutes"`
	Status            model.EnrollmentStatus `json:"status"`
	CompletedAt       *time.Time             `json:"completedAt,omitempty"`
}

// GetTrilhaProgress returns the user's progress summary for a trilha.
func (s *ProgressService) GetTrilhaProgress(userID, trilhaID uint) (*TrilhaProgressSummary, error) {
	enrollment, err := s.TrilhaRepo.FindEnrollment(userID, trilhaID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrNotEnrolled
	} else if err != nil {
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
	records, err := s.DesempenhoRepo.ListByUserAndConteudos(userID, ids)
	if err != nil {
		return nil, err
	}

	studyMinutes := 0
	for _, d := range records {
		studyMinutes += d.StudyMinutes
	}

	return &TrilhaProgressSummary{
		UserID:             userID,
		TrilhaID:           trilhaID,
		TotalConteudos:     len(conteudos),
		CompletedConteudos: enrollment.CompletedModulesCount,
		CompletionPercent:  enrollment.ProgressPercent,
		AverageScore:       enrollment.AverageScore,
		StudyMinutes:       studyMinutes,
		Status:             enrollment.Status,
		CompletedAt:        enrollment.CompletedAt,
	}, nil
}
