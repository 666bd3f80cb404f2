package service

import (
	"errors"

	"trilha_edu_backend/internal/config"
	"trilha_edu_backend/internal/model"
	"trilha_edu_backend/internal/repository"
	"trilha_edu_backend/internal/util"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AuthService struct {
	UserRepo *repository.UserRepository
	Cfg      *config.Config
}

func NewAuthService(userRepo *repository.UserRepository, cfg *config.Config) *AuthService {
	return &AuthService{
		UserRepo: userRepo,
		Cfg:      cfg,
	}
}

type RegisterRequest struct {
	Name                string           `json:"name" binding:"required"`
	Email               string           `json:"email" binding:"required,email"`
	Password            string           `json:"password" binding:"required,min=6"`
	PreferredDifficulty model.Difficulty `json:"preferredDifficulty"`
}

func (s *AuthService) Register(req RegisterRequest) (*model.User, error) {
	var violations []string
	if req.PreferredDifficulty != "" && !model.ValidDifficulty(req.PreferredDifficulty) {
		violations = append(violations, "preferredDifficulty must be one of: beginner, intermediate, advanced")
	}
	if err := util.NewValidationError(violations); err != nil {
		return nil, err
	}

	if _, err := s.UserRepo.FindByEmail(req.Email); err == nil {
		return nil, util.ErrEmailRegistered
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Name:                req.Name,
		Email:               req.Email,
		Password:            string(hashed),
		Role:                model.Student,
		PreferredDifficulty: req.PreferredDifficulty,
	}
	if err := s.UserRepo.Create(user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login returns a signed token. Unknown email and wrong password are
// indistinguishable to the caller.
func (s *AuthService) Login(email, password string) (string, *model.User, error) {
	user, err := s.UserRepo.FindByEmail(email)
	if err != nil {
		return "", nil, util.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", nil, util.ErrInvalidCredentials
	}

	if err := s.UserRepo.UpdateLastLogin(user.ID); err != nil {
		return "", nil, err
	}

	token, err := util.GenerateJWT(user, s.Cfg.JWT.Secret, s.Cfg.JWT.ExpireTime)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

type ProfileUpdateRequest struct {
	Name                string           `json:"name"`
	PreferredDifficulty model.Difficulty `json:"preferredDifficulty"`
}

func (s *AuthService) UpdateProfile(userID uint, req ProfileUpdateRequest) (*model.User, error) {
	user, err := s.UserRepo.FindByID(userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrUserNotFound
	} else if err != nil {
		return nil, err
	}

	if req.Name != "" {
		user.Name = req.Name
	}
	if req.PreferredDifficulty != "" {
		if !model.ValidDifficulty(req.PreferredDifficulty) {
			return nil, util.NewValidationError([]string{"preferredDifficulty must be one of: beginner, intermediate, advanced"})
		}
		user.PreferredDifficulty = req.PreferredDifficulty
	}

	if err := s.UserRepo.Update(user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *AuthService) GetCurrentUser(c *gin.Context) *model.User {
	claims := util.GetUserFromContext(c)
	if claims == nil {
		return nil
	}
	user, _ := s.UserRepo.FindByID(claims.UserID)
	return user
}
