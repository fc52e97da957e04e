// Package ingress turns an uploaded file into a staged image submission.
package ingress

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"time"

	"github.com/phambaophuc/art-critique/internal/config"
	"github.com/phambaophuc/art-critique/internal/models"
	"github.com/phambaophuc/art-critique/internal/services"
	"github.com/phambaophuc/art-critique/internal/services/processor"
	"github.com/phambaophuc/art-critique/internal/services/storage"
	"github.com/phambaophuc/art-critique/pkg/utils"
	"go.uber.org/zap"
)

const removeTimeout = 10 * time.Second

type Adapter struct {
	processor    *processor.ImageProcessor
	stager       storage.Stager
	maxFileSize  int64
	allowedTypes []string
	logger       *zap.Logger
}

func New(proc *processor.ImageProcessor, stager storage.Stager, cfg config.StorageConfig, logger *zap.Logger) *Adapter {
	return &Adapter{
		processor:    proc,
		stager:       stager,
		maxFileSize:  cfg.MaxFileSize,
		allowedTypes: cfg.AllowedTypes,
		logger:       logger.With(zap.String("component", "ingress")),
	}
}

// Accept reads a multipart upload and stages it. The returned release func
// removes the staged artifact and must be called once the submission has
// been analyzed.
func (a *Adapter) Accept(ctx context.Context, header *multipart.FileHeader) (*models.ImageSubmission, func(), error) {
	if header == nil || header.Size == 0 {
		return nil, nil, services.ErrMissingInput
	}
	if header.Size > a.maxFileSize {
		return nil, nil, fmt.Errorf("%w: %d bytes, limit %d", services.ErrImageTooLarge, header.Size, a.maxFileSize)
	}

	file, err := header.Open()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", services.ErrMissingInput, err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, a.maxFileSize+1))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: read upload: %w", services.ErrInvalidImage, err)
	}

	return a.AcceptBytes(ctx, data, header.Filename, header.Header.Get("Content-Type"))
}

// AcceptBytes validates, normalizes and stages an in-memory payload.
func (a *Adapter) AcceptBytes(ctx context.Context, data []byte, filename, declaredType string) (*models.ImageSubmission, func(), error) {
	if len(data) == 0 {
		return nil, nil, services.ErrMissingInput
	}
	if int64(len(data)) > a.maxFileSize {
		return nil, nil, fmt.Errorf("%w: limit %d", services.ErrImageTooLarge, a.maxFileSize)
	}

	mediaType := utils.ResolveContentType(declaredType, data)
	if !utils.IsValidImageType(mediaType, a.allowedTypes) {
		return nil, nil, fmt.Errorf("%w: %q", services.ErrUnsupportedMedia, mediaType)
	}

	if _, err := a.processor.ValidateImage(data, a.maxFileSize); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", services.ErrInvalidImage, err)
	}

	payload, mediaType, err := a.processor.Normalize(data, mediaType)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", services.ErrInvalidImage, err)
	}

	staged, err := a.stager.Stage(ctx, payload, filename, mediaType)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", services.ErrStaging, err)
	}

	a.logger.Debug("Image staged",
		zap.String("filename", filename),
		zap.String("key", staged.Key),
		zap.String("backend", staged.Backend),
		zap.String("media_type", mediaType),
		zap.Int("original_size", len(data)),
		zap.Int64("staged_size", staged.Size))

	sub := &models.ImageSubmission{
		Filename:  utils.SanitizeFilename(filename),
		MediaType: mediaType,
		Size:      staged.Size,
		Staged:    staged,
	}
	return sub, a.releaseFunc(ctx, staged.Key), nil
}

func (a *Adapter) releaseFunc(ctx context.Context, key string) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), removeTimeout)
		defer cancel()

		if err := a.stager.Remove(ctx, key); err != nil {
			a.logger.Warn("Failed to remove staged image", zap.String("key", key), zap.Error(err))
		}
	}
}
