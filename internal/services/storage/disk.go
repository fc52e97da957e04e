package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/phambaophuc/art-critique/internal/config"
	"github.com/phambaophuc/art-critique/internal/models"
	"github.com/phambaophuc/art-critique/pkg/utils"
)

type DiskStager struct {
	dir string
}

func NewDiskStager(dir string) (*DiskStager, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &DiskStager{dir: dir}, nil
}

func (s *DiskStager) Name() string { return config.BackendDisk }

func (s *DiskStager) Stage(ctx context.Context, data []byte, filename, contentType string) (*models.StagedImage, error) {
	key := utils.GenerateStagingKey(filename)

	// O_EXCL: a colliding key fails instead of overwriting another upload
	f, err := os.OpenFile(filepath.Join(s.dir, key), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return nil, fmt.Errorf("failed to create staged file: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, fmt.Errorf("failed to write staged file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return nil, fmt.Errorf("failed to close staged file: %w", err)
	}

	return &models.StagedImage{
		Key:         key,
		Backend:     s.Name(),
		ContentType: contentType,
		Size:        int64(len(data)),
		StagedAt:    time.Now(),
	}, nil
}

func (s *DiskStager) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	path, err := s.path(key)
	if err != nil {
		return nil, err
	}
	return os.Open(path)
}

func (s *DiskStager) Remove(ctx context.Context, key string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (s *DiskStager) path(key string) (string, error) {
	if key == "" || filepath.Base(key) != key {
		return "", fmt.Errorf("invalid staging key %q", key)
	}
	return filepath.Join(s.dir, key), nil
}
