package storage

import (
	"context"
	"fmt"
	"os"

	"github.com/phambaophuc/art-critique/internal/models"
	storage_go "github.com/supabase-community/storage-go"
)

func (s *DiskStager) HealthCheck(ctx context.Context) string {
	if _, err := os.Stat(s.dir); err != nil {
		return models.StatusUnhealthy + ": " + err.Error()
	}
	return models.StatusHealthy
}

func (s *RedisStager) HealthCheck(ctx context.Context) string {
	if err := s.redisClient.Ping(ctx).Err(); err != nil {
		return models.StatusUnhealthy + ": " + err.Error()
	}
	return models.StatusHealthy
}

func (s *SupabaseStager) HealthCheck(ctx context.Context) string {
	_, err := s.sbClient.ListFiles(s.bucket, "", storage_go.FileSearchOptions{})
	if err != nil {
		return models.StatusUnhealthy + ": " + fmt.Sprintf("%v", err)
	}
	return models.StatusHealthy
}

func (s *MinioStager) HealthCheck(ctx context.Context) string {
	exists, err := s.minioClient.BucketExists(ctx, s.bucket)
	if err != nil {
		return models.StatusUnhealthy + ": " + err.Error()
	}
	if !exists {
		return models.StatusUnhealthy + ": bucket " + s.bucket + " does not exist"
	}
	return models.StatusHealthy
}
