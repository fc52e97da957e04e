package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/phambaophuc/art-critique/internal/config"
	"github.com/phambaophuc/art-critique/internal/models"
	"github.com/phambaophuc/art-critique/pkg/utils"
	"github.com/redis/go-redis/v9"
)

const RedisKeyPrefix = "critique_staging:"

// RedisStager keeps staged bytes in Redis with an expiry, so an upload that
// is never removed disappears on its own.
type RedisStager struct {
	redisClient *redis.Client
	ttl         time.Duration
}

func NewRedisStager(cfg config.RedisConfig, ttl time.Duration) *RedisStager {
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	return &RedisStager{
		redisClient: redisClient,
		ttl:         ttl,
	}
}

func (s *RedisStager) Name() string { return config.BackendRedis }

func (s *RedisStager) Stage(ctx context.Context, data []byte, filename, contentType string) (*models.StagedImage, error) {
	key := utils.GenerateStagingKey(filename)

	ok, err := s.redisClient.SetNX(ctx, RedisKeyPrefix+key, data, s.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to stage in redis: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("staging key %q already exists", key)
	}

	return &models.StagedImage{
		Key:         key,
		Backend:     s.Name(),
		ContentType: contentType,
		Size:        int64(len(data)),
		StagedAt:    time.Now(),
	}, nil
}

func (s *RedisStager) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	data, err := s.redisClient.Get(ctx, RedisKeyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("staged image %q not found or expired", key)
		}
		return nil, fmt.Errorf("redis get error: %w", err)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *RedisStager) Remove(ctx context.Context, key string) error {
	return s.redisClient.Del(ctx, RedisKeyPrefix+key).Err()
}

// Close releases the connection pool
func (s *RedisStager) Close() error {
	return s.redisClient.Close()
}
