package repository

import (
	"trilha_edu_backend/internal/model"

	"gorm.io/gorm"
)

type DesempenhoRepository struct {
	DB *gorm.DB
}

func NewDesempenhoRepository(db *gorm.DB) *DesempenhoRepository {
	return &DesempenhoRepository{DB: db}
}

func (r *DesempenhoRepository) FindByUserAndConteudo(userID, conteudoID uint) (*model.Desempenho, error) {
	var d model.Desempenho
	err := r.DB.Where("user_id = ? AND conteudo_id = ?", userID, conteudoID).First(&d).Error
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// Save upserts the single (user, conteudo) row: create on first
// completion, overwrite in place on retakes.
func (r *DesempenhoRepository) Save(d *model.Desempenho) error {
	return r.DB.Save(d).Error
}

func (r *DesempenhoRepository) ListByUser(userID uint, limit int) ([]model.Desempenho, error) {
	var records []model.Desempenho
	err := r.DB.Where("user_id = ?", userID).
		Order("updated_at DESC").Limit(limit).Find(&records).Error
	return records, err
}

func (r *DesempenhoRepository) ListByUserAndConteudos(userID uint, conteudoIDs []uint) ([]model.Desempenho, error) {
	if len(conteudoIDs) == 0 {
		return nil, nil
	}
	var records []model.Desempenho
	err := r.DB.Where("user_id = ? AND conteudo_id IN ?", userID, conteudoIDs).
		Find(&records).Error
	return records, err
}

func (r *DesempenhoRepository) ListByConteudos(conteudoIDs []uint) ([]model.Desempenho, error) {
	if len(conteudoIDs) == 0 {
		return nil, nil
	}
	var records []model.Desempenho
	err := r.DB.Where("conteudo_id IN ?", conteudoIDs).Find(&records).Error
	return records, err
}
