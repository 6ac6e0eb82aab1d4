package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/attendance-portal/internal/apperror"
	"github.com/noah-isme/attendance-portal/internal/models"
	"github.com/noah-isme/attendance-portal/internal/observability"
	"github.com/noah-isme/attendance-portal/internal/repository"
	"github.com/noah-isme/attendance-portal/pkg/appwrite"
)

// StudentService resolves student profile documents.
type StudentService interface {
	GetByUserID(ctx context.Context, userID string) (*models.StudentProfile, error)
	Get(ctx context.Context, documentID string) (models.StudentProfile, error)
	Invalidate(ctx context.Context, userID string)
}

type studentService struct {
	repo     repository.StudentRepository
	cache    *redis.Client
	cacheTTL time.Duration
	logger   zerolog.Logger
}

// NewStudentService builds the student lookup service. A nil cache disables caching.
func NewStudentService(repo repository.StudentRepository, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) StudentService {
	return &studentService{
		repo:     repo,
		cache:    cache,
		cacheTTL: ttl,
		logger:   logger.With().Str("component", "student_service").Logger(),
	}
}

// GetByUserID returns nil, nil when no profile is linked to userID.
func (s *studentService) GetByUserID(ctx context.Context, userID string) (*models.StudentProfile, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, nil
	}

	cacheKey := studentCacheKey(userID)
	if s.cache != nil && s.cacheTTL > 0 {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var profile models.StudentProfile
			if unmarshalErr := json.Unmarshal([]byte(cached), &profile); unmarshalErr == nil {
				s.logger.Debug().Str("user_id", userID).Msg("student profile cache hit")
				return &profile, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read student profile cache")
		}
	}

	started := time.Now()
	profiles, err := s.repo.FindByUserID(ctx, userID)
	observability.ObserveBackendCall("documents.list", started, &err)
	if err != nil {
		return nil, apperror.Backend("failed to fetch student profile", err)
	}
	if len(profiles) == 0 {
		return nil, nil
	}
	if len(profiles) > 1 {
		s.logger.Warn().Str("user_id", userID).Int("count", len(profiles)).Msg("multiple student profiles linked to one user")
	}

	profile := profiles[0]
	if s.cache != nil && s.cacheTTL > 0 {
		if payload, err := json.Marshal(profile); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store student profile cache")
			}
		}
	}

	return &profile, nil
}

func (s *studentService) Get(ctx context.Context, documentID string) (models.StudentProfile, error) {
	documentID = strings.TrimSpace(documentID)
	if documentID == "" {
		return models.StudentProfile{}, apperror.Validation("student id is required")
	}

	started := time.Now()
	profile, err := s.repo.GetByID(ctx, documentID)
	observability.ObserveBackendCall("documents.get", started, &err)
	if err != nil {
		if appwrite.IsNotFound(err) {
			return models.StudentProfile{}, apperror.Wrap(apperror.KindNotFound, fmt.Sprintf("student %s not found", documentID), err)
		}
		return models.StudentProfile{}, apperror.Backend("failed to fetch student", err)
	}

	return profile, nil
}

// Invalidate drops the cached profile for userID.
func (s *studentService) Invalidate(ctx context.Context, userID string) {
	if s.cache == nil || userID == "" {
		return
	}
	if err := s.cache.Del(ctx, studentCacheKey(userID)).Err(); err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID).Msg("failed to invalidate student profile cache")
	}
}

func studentCacheKey(userID string) string {
	return fmt.Sprintf("student:profile:user:%s", userID)
}
