package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/phambaophuc/art-critique/internal/config"
	"github.com/phambaophuc/art-critique/internal/models"
	"github.com/phambaophuc/art-critique/pkg/utils"
	storage_go "github.com/supabase-community/storage-go"
)

const supabaseStagingPrefix = "staging/"

type SupabaseStager struct {
	sbClient *storage_go.Client
	bucket   string
}

func NewSupabaseStager(cfg config.SupabaseConfig) *SupabaseStager {
	sbClient := storage_go.NewClient(cfg.URL+"/storage/v1", cfg.KEY, nil)

	return &SupabaseStager{
		sbClient: sbClient,
		bucket:   cfg.BUCKET,
	}
}

func (s *SupabaseStager) Name() string { return config.BackendSupabase }

// Stage uploads the image to the Supabase Storage bucket
func (s *SupabaseStager) Stage(ctx context.Context, data []byte, filename, contentType string) (*models.StagedImage, error) {
	key := utils.GenerateStagingKey(filename)

	_, err := s.sbClient.UploadFile(s.bucket, supabaseStagingPrefix+key, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to upload to supabase: %w", err)
	}

	return &models.StagedImage{
		Key:         key,
		Backend:     s.Name(),
		ContentType: contentType,
		Size:        int64(len(data)),
		StagedAt:    time.Now(),
	}, nil
}

func (s *SupabaseStager) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	data, err := s.sbClient.DownloadFile(s.bucket, supabaseStagingPrefix+key)
	if err != nil {
		return nil, fmt.Errorf("failed to download from supabase: %w", err)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// Remove deletes the staged object from the bucket
func (s *SupabaseStager) Remove(ctx context.Context, key string) error {
	_, err := s.sbClient.RemoveFile(s.bucket, []string{supabaseStagingPrefix + key})
	return err
}
