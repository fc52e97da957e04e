package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/phambaophuc/art-critique/internal/config"
	"github.com/phambaophuc/art-critique/internal/models"
	"github.com/phambaophuc/art-critique/pkg/utils"
)

type MinioStager struct {
	minioClient *minio.Client
	bucket      string
}

func NewMinioStager(cfg config.MinioConfig) (*MinioStager, error) {
	minioClient, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize minio client: %w", err)
	}

	return &MinioStager{
		minioClient: minioClient,
		bucket:      cfg.Bucket,
	}, nil
}

func (s *MinioStager) Name() string { return config.BackendMinio }

func (s *MinioStager) Stage(ctx context.Context, data []byte, filename, contentType string) (*models.StagedImage, error) {
	key := utils.GenerateStagingKey(filename)

	_, err := s.minioClient.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return nil, fmt.Errorf("failed to upload to minio: %w", err)
	}

	return &models.StagedImage{
		Key:         key,
		Backend:     s.Name(),
		ContentType: contentType,
		Size:        int64(len(data)),
		StagedAt:    time.Now(),
	}, nil
}

func (s *MinioStager) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, err := s.minioClient.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object from minio: %w", err)
	}
	return obj, nil
}

func (s *MinioStager) Remove(ctx context.Context, key string) error {
	return s.minioClient.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
}
