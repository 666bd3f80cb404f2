package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"trilha_edu_backend/internal/model"
	"trilha_edu_backend/internal/repository"
	"trilha_edu_backend/internal/util"
	"trilha_edu_backend/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	difficultyMatchBonus = 10
	newCategoryBonus     = 5
	popularityDivisor    = 10
	popularityCap        = 5
	popularityCacheTTL   = 5 * time.Minute

	candidatePoolSize = 200
)

// RecommendationService ranks candidate trilhas with an additive
// heuristic: difficulty match, category novelty and a capped popularity
// term. It is a numeric ranking signal only; the narrative text comes
// from a separate AI call and never feeds back into the score.
type RecommendationService struct {
	TrilhaRepo *repository.TrilhaRepository
	UserRepo   *repository.UserRepository
	AI         *AIService
	Redis      *redis.Client
}

func NewRecommendationService(trilhaRepo *repository.TrilhaRepository, userRepo *repository.UserRepository, ai *AIService, rdb *redis.Client) *RecommendationService {
	return &RecommendationService{
		TrilhaRepo: trilhaRepo,
		UserRepo:   userRepo,
		AI:         ai,
		Redis:      rdb,
	}
}

type UserProfile struct {
	UserID              uint
	PreferredDifficulty model.Difficulty
	EnrolledTrilhas     map[uint]bool
	CompletedCategories map[string]bool
}

type ScoredTrilha struct {
	Trilha          model.Trilha `json:"trilha"`
	Score           int          `json:"score"`
	EnrollmentCount int64        `json:"enrollmentCount"`
}

// ScoreTrilhas scores every candidate the user is not enrolled in and
// returns them ranked descending. The sort is stable: equal scores keep
// candidate order.
func (s *RecommendationService) ScoreTrilhas(candidates []model.Trilha, profile UserProfile, enrollmentCounts map[uint]int64) []ScoredTrilha {
	scored := make([]ScoredTrilha, 0, len(candidates))
	for _, t := range candidates {
		if profile.EnrolledTrilhas[t.ID] {
			continue
		}

		score := 0
		if t.Difficulty == profile.PreferredDifficulty {
			score += difficultyMatchBonus
		}
		if !profile.CompletedCategories[t.Category] {
			score += newCategoryBonus
		}
		popularity := int(enrollmentCounts[t.ID] / popularityDivisor)
		if popularity > popularityCap {
			popularity = popularityCap
		}
		score += popularity

		scored = append(scored, ScoredTrilha{
			Trilha:          t,
			Score:           score,
			EnrollmentCount: enrollmentCounts[t.ID],
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	return scored
}

// Recommend builds the user's profile, scores unenrolled trilhas and
// returns the top results.
func (s *RecommendationService) Recommend(ctx context.Context, userID uint, limit int) ([]ScoredTrilha, error) {
	if limit <= 0 {
		limit = 5
	}

	user, err := s.UserRepo.FindByID(userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrUserNotFound
	} else if err != nil {
		return nil, err
	}

	enrollments, err := s.TrilhaRepo.FindEnrollmentsByUser(userID)
	if err != nil {
		return nil, err
	}
	enrolled := make(map[uint]bool, len(enrollments))
	for _, e := range enrollments {
		enrolled[e.TrilhaID] = true
	}

	completedCategories, err := s.TrilhaRepo.CompletedCategories(userID)
	if err != nil {
		return nil, err
	}

	candidates, err := s.TrilhaRepo.FindNotEnrolled(userID, candidatePoolSize)
	if err != nil {
		return nil, err
	}

	counts := make(map[uint]int64, len(candidates))
	for _, t := range candidates {
		count, err := s.enrollmentCount(ctx, t.ID)
		if err != nil {
			return nil, err
		}
		counts[t.ID] = count
	}

	profile := UserProfile{
		UserID:              userID,
		PreferredDifficulty: user.PreferredDifficulty,
		EnrolledTrilhas:     enrolled,
		CompletedCategories: completedCategories,
	}

	scored := s.ScoreTrilhas(candidates, profile, counts)
	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored, nil
}

// enrollmentCount serves the popularity term, caching per-trilha counts
// in redis because they are cross-user and hot. The cache is bypassed
// entirely when redis is not configured.
func (s *RecommendationService) enrollmentCount(ctx context.Context, trilhaID uint) (int64, error) {
	key := fmt.Sprintf("trilha:enrollments:%d", trilhaID)

	if s.Redis != nil {
		if v, err := s.Redis.Get(ctx, key).Int64(); err == nil {
			return v, nil
		} else if err != redis.Nil {
			logger.Log.Warn("enrollment count cache read failed", zap.Error(err))
		}
	}

	count, err := s.TrilhaRepo.CountEnrollments(trilhaID)
	if err != nil {
		return 0, err
	}

	if s.Redis != nil {
		if err := s.Redis.Set(ctx, key, count, popularityCacheTTL).Err(); err != nil {
			logger.Log.Warn("enrollment count cache write failed", zap.Error(err))
		}
	}
	return count, nil
}

// Justify asks the AI provider for human-readable justification text
// for an already-ranked recommendation list. Strictly downstream of the
// ranking; a failure here never affects the scores.
func (s *RecommendationService) Justify(ctx context.Context, user *model.User, ranked []ScoredTrilha) (string, error) {
	if s.AI == nil || len(ranked) == 0 {
		return "", nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "The learner %s prefers %s-level content. Write one short, encouraging paragraph explaining why these learning paths were recommended:\n", user.Name, user.PreferredDifficulty)
	for i, r := range ranked {
		fmt.Fprintf(&b, "%d. %s (%s, category %s, %d learners enrolled)\n",
			i+1, r.Trilha.Title, r.Trilha.Difficulty, r.Trilha.Category, r.EnrollmentCount)
	}

	return s.AI.Chat(ctx, b.String())
}
