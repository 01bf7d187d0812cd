package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"socialpush/config"
	"socialpush/logger"
	"socialpush/models"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

var RedisClient *redis.Client

func InitRedis(redisConfig config.RedisConfig) error {
	if RedisClient != nil {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", redisConfig.Host, redisConfig.Port),
		Password: redisConfig.Password,
		DB:       redisConfig.DB,
	})

	if _, err := client.Ping(context.Background()).Result(); err != nil {
		_ = client.Close()
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	RedisClient = client
	return nil
}

func CloseRedis() error {
	if RedisClient != nil {
		return RedisClient.Close()
	}
	return nil
}

const (
	pushTokenKeyPrefix = "push_token:"
	// noTokenMarker кэширует отсутствие токена, чтобы не ходить в БД за каждым событием
	noTokenMarker = "-"
)

// CachedTokenStore - read-through кэш push-токенов в Redis поверх другого TokenStore
type CachedTokenStore struct {
	client *redis.Client
	next   TokenStore
	ttl    time.Duration
}

func NewCachedTokenStore(client *redis.Client, next TokenStore, ttl time.Duration) *CachedTokenStore {
	return &CachedTokenStore{client: client, next: next, ttl: ttl}
}

func (s *CachedTokenStore) PushToken(ctx context.Context, userID string) (models.PushTarget, error) {
	key := pushTokenKeyPrefix + userID

	cached, err := s.client.Get(ctx, key).Result()
	switch {
	case err == nil:
		if cached == noTokenMarker {
			return "", nil
		}
		return models.PushTarget(cached), nil
	case !errors.Is(err, redis.Nil):
		// кэш недоступен - идём напрямую в хранилище
		logger.Warn("push token cache read failed", zap.String("user_id", userID), zap.Error(err))
	}

	target, err := s.next.PushToken(ctx, userID)
	if err != nil {
		return "", err
	}

	value := string(target)
	if value == "" {
		value = noTokenMarker
	}
	if err := s.client.Set(ctx, key, value, s.ttl).Err(); err != nil {
		logger.Warn("push token cache write failed", zap.String("user_id", userID), zap.Error(err))
	}
	return target, nil
}

// Invalidate удаляет токен из кэша, например после обновления профиля
func (s *CachedTokenStore) Invalidate(ctx context.Context, userID string) error {
	return s.client.Del(ctx, pushTokenKeyPrefix+userID).Err()
}
