package repository

import (
	"trilha_edu_backend/internal/model"

	"gorm.io/gorm"
)

// ConteudoRepository is the content store: read access to trilha
// modules and their questions, plus the management writes the admin
// surface needs.
type ConteudoRepository struct {
	DB *gorm.DB
}

func NewConteudoRepository(db *gorm.DB) *ConteudoRepository {
	return &ConteudoRepository{DB: db}
}

func (r *ConteudoRepository) Create(conteudo *model.Conteudo) error {
	return r.DB.Create(conteudo).Error
}

func (r *ConteudoRepository) FindByID(id uint) (*model.Conteudo, error) {
	var c model.Conteudo
	if err := r.DB.First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *ConteudoRepository) Update(conteudo *model.Conteudo) error {
	return r.DB.Save(conteudo).Error
}

func (r *ConteudoRepository) ListByTrilha(trilhaID uint) ([]model.Conteudo, error) {
	var conteudos []model.Conteudo
	err := r.DB.Where("trilha_id = ?", trilhaID).Order("`order` ASC").Find(&conteudos).Error
	return conteudos, err
}

func (r *ConteudoRepository) NextOrder(trilhaID uint) (int, error) {
	var max *int
	err := r.DB.Model(&model.Conteudo{}).Where("trilha_id = ?", trilhaID).
		Select("MAX(`order`)").Scan(&max).Error
	if err != nil {
		return 0, err
	}
	if max == nil {
		return 1, nil
	}
	return *max + 1, nil
}

func (r *ConteudoRepository) CreateQuestions(questions []model.Question) error {
	if len(questions) == 0 {
		return nil
	}
	return r.DB.Create(&questions).Error
}

func (r *ConteudoRepository) CountQuestions(conteudoID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.Question{}).Where("conteudo_id = ?", conteudoID).Count(&count).Error
	return count, err
}

func (r *ConteudoRepository) ListQuestions(conteudoID uint) ([]model.Question, error) {
	var questions []model.Question
	err := r.DB.Where("conteudo_id = ?", conteudoID).Order("id ASC").Find(&questions).Error
	return questions, err
}

// QuestionAt returns the question at a 1-based position within the
// conteudo's ordered question list.
func (r *ConteudoRepository) QuestionAt(conteudoID uint, position int) (*model.Question, error) {
	if position < 1 {
		return nil, gorm.ErrRecordNotFound
	}
	var q model.Question
	err := r.DB.Where("conteudo_id = ?", conteudoID).Order("id ASC").
		Offset(position - 1).Limit(1).Take(&q).Error
	if err != nil {
		return nil, err
	}
	return &q, nil
}
