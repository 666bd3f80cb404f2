package model

type ConteudoType string

const (
	ConteudoVideo    ConteudoType = "video"
	ConteudoText     ConteudoType = "text"
	ConteudoQuiz     ConteudoType = "quiz"
	ConteudoExercise ConteudoType = "exercise"
)

// Conteudo is a quiz-bearing module inside a trilha, positioned by a
// 1-based Order unique within the trilha.
// swagger:model Conteudo
type Conteudo struct {
	BaseModel
	TrilhaID uint         `gorm:"not null;index;uniqueIndex:idx_trilha_order" json:"trilhaId"`
	Title    string       `gorm:"size:200;not null" json:"title"`
	Tipo     ConteudoType `gorm:"type:varchar(20);not null" json:"tipo"`
	// Material holds inline text content or the stored-object URL for
	// uploaded files.
	Material        string `gorm:"type:longtext" json:"material"`
	Order           int    `gorm:"not null;uniqueIndex:idx_trilha_order" json:"order"`
	DurationSeconds int    `gorm:"default:0" json:"durationSeconds"`
}

func (Conteudo) TableName() string {
	return "conteudos"
}

// Question is an immutable five-choice question belonging to a conteudo.
// Choices maps the letters a..e to option text.
// swagger:model Question
type Question struct {
	BaseModel
	ConteudoID    uint              `gorm:"not null;index" json:"conteudoId"`
	Text          string            `gorm:"type:text;not null" json:"text"`
	Choices       map[string]string `gorm:"serializer:json;type:json" json:"choices"`
	CorrectChoice string            `gorm:"size:1;not null" json:"-"`
	Explanation   string            `gorm:"type:text" json:"-"`
}

func (Question) TableName() string {
	return "questions"
}
