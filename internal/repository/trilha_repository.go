package repository

import (
	"trilha_edu_backend/internal/model"

	"gorm.io/gorm"
)

type TrilhaRepository struct {
	DB *gorm.DB
}

func NewTrilhaRepository(db *gorm.DB) *TrilhaRepository {
	return &TrilhaRepository{DB: db}
}

func (r *TrilhaRepository) Create(trilha *model.Trilha) error {
	return r.DB.Create(trilha).Error
}

func (r *TrilhaRepository) FindByID(id uint) (*model.Trilha, error) {
	var t model.Trilha
	if err := r.DB.First(&t, id).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TrilhaRepository) Update(trilha *model.Trilha) error {
	return r.DB.Save(trilha).Error
}

// Delete removes a trilha and cascades to its conteudos and questions.
func (r *TrilhaRepository) Delete(id uint) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		var conteudoIDs []uint
		if err := tx.Model(&model.Conteudo{}).Where("trilha_id = ?", id).
			Pluck("id", &conteudoIDs).Error; err != nil {
			return err
		}
		if len(conteudoIDs) > 0 {
			if err := tx.Where("conteudo_id IN ?", conteudoIDs).
				Delete(&model.Question{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("trilha_id = ?", id).Delete(&model.Conteudo{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Trilha{}, id).Error
	})
}

func (r *TrilhaRepository) List(difficulty model.Difficulty, category string, page, limit int) ([]model.Trilha, int64, error) {
	query := r.DB.Model(&model.Trilha{})
	if difficulty != "" {
		query = query.Where("difficulty = ?", difficulty)
	}
	if category != "" {
		query = query.Where("category = ?", category)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var trilhas []model.Trilha
	err := query.Offset((page - 1) * limit).Limit(limit).
		Order("id DESC").Find(&trilhas).Error
	return trilhas, total, err
}

func (r *TrilhaRepository) Search(term string, limit int) ([]model.Trilha, error) {
	var trilhas []model.Trilha
	pattern := "%" + term + "%"
	err := r.DB.Where("title LIKE ? OR description LIKE ?", pattern, pattern).
		Limit(limit).Find(&trilhas).Error
	return trilhas, err
}

func (r *TrilhaRepository) FindByCreator(creatorID uint) ([]model.Trilha, error) {
	var trilhas []model.Trilha
	err := r.DB.Where("creator_id = ?", creatorID).Order("id DESC").Find(&trilhas).Error
	return trilhas, err
}

// FindNotEnrolled returns trilhas the user has no enrollment row for;
// these are the recommendation candidates.
func (r *TrilhaRepository) FindNotEnrolled(userID uint, limit int) ([]model.Trilha, error) {
	var trilhas []model.Trilha
	sub := r.DB.Model(&model.UserTrilha{}).Select("trilha_id").Where("user_id = ?", userID)
	err := r.DB.Where("id NOT IN (?)", sub).Limit(limit).Find(&trilhas).Error
	return trilhas, err
}

func (r *TrilhaRepository) CountEnrollments(trilhaID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.UserTrilha{}).Where("trilha_id = ?", trilhaID).Count(&count).Error
	return count, err
}

type PopularTrilha struct {
	Trilha          model.Trilha `json:"trilha"`
	EnrollmentCount int64        `json:"enrollmentCount"`
}

func (r *TrilhaRepository) GetPopular(limit int) ([]PopularTrilha, error) {
	type row struct {
		model.Trilha
		EnrollmentCount int64
	}
	var rows []row
	err := r.DB.Model(&model.Trilha{}).
		Select("trilhas.*, COUNT(user_trilhas.id) AS enrollment_count").
		Joins("LEFT JOIN user_trilhas ON user_trilhas.trilha_id = trilhas.id AND user_trilhas.deleted_at IS NULL").
		Group("trilhas.id").
		Order("enrollment_count DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	popular := make([]PopularTrilha, 0, len(rows))
	for _, row := range rows {
		popular = append(popular, PopularTrilha{Trilha: row.Trilha, EnrollmentCount: row.EnrollmentCount})
	}
	return popular, nil
}

func (r *TrilhaRepository) CreateEnrollment(enrollment *model.UserTrilha) error {
	return r.DB.Create(enrollment).Error
}

func (r *TrilhaRepository) FindEnrollment(userID, trilhaID uint) (*model.UserTrilha, error) {
	var e model.UserTrilha
	err := r.DB.Where("user_id = ? AND trilha_id = ?", userID, trilhaID).First(&e).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *TrilhaRepository) FindEnrollmentsByUser(userID uint) ([]model.UserTrilha, error) {
	var enrollments []model.UserTrilha
	err := r.DB.Where("user_id = ?", userID).Find(&enrollments).Error
	return enrollments, err
}

func (r *TrilhaRepository) UpdateEnrollment(enrollment *model.UserTrilha) error {
	return r.DB.Save(enrollment).Error
}

// CompletedCategories returns the distinct categories of trilhas the
// user has a completed enrollment in. Scanned fresh per call; only the
// final ranking is contractual.
func (r *TrilhaRepository) CompletedCategories(userID uint) (map[string]bool, error) {
	var categories []string
	err := r.DB.Model(&model.UserTrilha{}).
		Distinct("trilhas.category").
		Joins("JOIN trilhas ON trilhas.id = user_trilhas.trilha_id").
		Where("user_trilhas.user_id = ? AND user_trilhas.status = ?", userID, model.EnrollmentCompleted).
		Pluck("trilhas.category", &categories).Error
	if err != nil {
		return nil, err
	}

	set := make(map[string]bool, len(categories))
	for _, c := range categories {
		set[c] = true
	}
	return set, nil
}
