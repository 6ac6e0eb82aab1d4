package repository

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/noah-isme/attendance-portal/internal/models"
)

// ErrSessionNotFound is returned when a portal session id is unknown or expired.
var ErrSessionNotFound = errors.New("portal session not found")

// SessionStore keeps backend session secrets server-side, keyed by an opaque portal session id.
type SessionStore interface {
	Save(ctx context.Context, id, secret string, expires time.Time) error
	Secret(ctx context.Context, id string) (string, error)
	Delete(ctx context.Context, id string) error
}

const redisSessionPrefix = "portal:session:"

type redisSessionStore struct {
	client *redis.Client
	now    func() time.Time
}

// NewRedisSessionStore stores sessions as expiring Redis keys.
func NewRedisSessionStore(client *redis.Client) SessionStore {
	return &redisSessionStore{client: client, now: time.Now}
}

func (s *redisSessionStore) Save(ctx context.Context, id, secret string, expires time.Time) error {
	ttl := expires.Sub(s.now())
	if ttl <= 0 {
		return errors.New("portal session already expired")
	}
	return s.client.Set(ctx, redisSessionPrefix+id, secret, ttl).Err()
}

func (s *redisSessionStore) Secret(ctx context.Context, id string) (string, error) {
	secret, err := s.client.Get(ctx, redisSessionPrefix+id).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrSessionNotFound
	}
	return secret, err
}

func (s *redisSessionStore) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, redisSessionPrefix+id).Err()
}

type gormSessionStore struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGormSessionStore stores sessions in the audit database. Used when Redis is not configured.
func NewGormSessionStore(db *gorm.DB) SessionStore {
	return &gormSessionStore{db: db, now: time.Now}
}

func (s *gormSessionStore) Save(ctx context.Context, id, secret string, expires time.Time) error {
	now := s.now().UTC()
	expires = expires.UTC()
	if !expires.After(now) {
		return errors.New("portal session already expired")
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("expires_at <= ?", now).Delete(&models.PortalSession{}).Error; err != nil {
			return err
		}
		return tx.Create(&models.PortalSession{ID: id, Secret: secret, ExpiresAt: expires}).Error
	})
}

func (s *gormSessionStore) Secret(ctx context.Context, id string) (string, error) {
	var session models.PortalSession
	err := s.db.WithContext(ctx).
		Where("id = ? AND expires_at > ?", id, s.now().UTC()).
		First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrSessionNotFound
	}
	if err != nil {
		return "", err
	}
	return session.Secret, nil
}

func (s *gormSessionStore) Delete(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Delete(&models.PortalSession{}, "id = ?", id).Error
}
