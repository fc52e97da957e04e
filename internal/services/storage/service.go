package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/phambaophuc/art-critique/internal/config"
	"github.com/phambaophuc/art-critique/internal/models"
)

// Stager holds uploaded images between ingress and inference. Keys are
// unique per upload; callers must Remove what they Stage.
type Stager interface {
	Name() string
	Stage(ctx context.Context, data []byte, filename, contentType string) (*models.StagedImage, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Remove(ctx context.Context, key string) error
	HealthCheck(ctx context.Context) string
}

// NewStager builds the staging backend selected in the configuration.
func NewStager(cfg *config.Config) (Stager, error) {
	switch cfg.Storage.Backend {
	case config.BackendDisk:
		return NewDiskStager(cfg.Storage.UploadPath)
	case config.BackendRedis:
		return NewRedisStager(cfg.Redis, cfg.Storage.StagingTTL), nil
	case config.BackendSupabase:
		return NewSupabaseStager(cfg.Supabase), nil
	case config.BackendMinio:
		return NewMinioStager(cfg.Minio)
	default:
		return nil, fmt.Errorf("unknown staging backend %q", cfg.Storage.Backend)
	}
}

var (
	_ Stager = (*DiskStager)(nil)
	_ Stager = (*RedisStager)(nil)
	_ Stager = (*SupabaseStager)(nil)
	_ Stager = (*MinioStager)(nil)
)
