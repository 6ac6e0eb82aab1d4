package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/attendance-portal/internal/models"
)

func TestGormSessionStoreLifecycle(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.PortalSession{}))
	store := NewGormSessionStore(db).(*gormSessionStore)
	ctx := context.Background()

	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	require.NoError(t, store.Save(ctx, "sid_1", "secret_1", now.Add(time.Hour)))
	require.NoError(t, store.Save(ctx, "sid_2", "secret_2", now.Add(time.Minute)))
	require.Error(t, store.Save(ctx, "sid_3", "secret_3", now))

	secret, err := store.Secret(ctx, "sid_1")
	require.NoError(t, err)
	require.Equal(t, "secret_1", secret)

	now = now.Add(2 * time.Minute)
	_, err = store.Secret(ctx, "sid_2")
	require.ErrorIs(t, err, ErrSessionNotFound)

	require.NoError(t, store.Save(ctx, "sid_4", "secret_4", now.Add(time.Hour)))
	var remaining int64
	require.NoError(t, db.Model(&models.PortalSession{}).Count(&remaining).Error)
	require.Equal(t, int64(2), remaining, "expired rows are pruned on save")

	require.NoError(t, store.Delete(ctx, "sid_1"))
	_, err = store.Secret(ctx, "sid_1")
	require.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRedisSessionStoreExpiresWithSession(t *testing.T) {
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	store := NewRedisSessionStore(client)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "sid_1", "secret_1", time.Now().Add(time.Minute)))
	secret, err := store.Secret(ctx, "sid_1")
	require.NoError(t, err)
	require.Equal(t, "secret_1", secret)

	server.FastForward(2 * time.Minute)
	_, err = store.Secret(ctx, "sid_1")
	require.ErrorIs(t, err, ErrSessionNotFound)

	require.Error(t, store.Save(ctx, "sid_2", "secret_2", time.Now().Add(-time.Second)))

	require.NoError(t, store.Save(ctx, "sid_3", "secret_3", time.Now().Add(time.Minute)))
	require.NoError(t, store.Delete(ctx, "sid_3"))
	_, err = store.Secret(ctx, "sid_3")
	require.ErrorIs(t, err, ErrSessionNotFound)
}
