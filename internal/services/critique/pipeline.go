// Package critique runs an uploaded image through the inference model and
// turns the reply into a critique result.
package critique

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/phambaophuc/art-critique/internal/models"
	"github.com/phambaophuc/art-critique/internal/services"
	"github.com/phambaophuc/art-critique/internal/services/inference"
	"github.com/phambaophuc/art-critique/internal/services/storage"
	"go.uber.org/zap"
)

const releaseTimeout = 15 * time.Second

type Pipeline struct {
	client  inference.Client
	stager  storage.Stager
	timeout time.Duration
	logger  *zap.Logger

	releases sync.WaitGroup
}

func NewPipeline(client inference.Client, stager storage.Stager, timeout time.Duration, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		client:  client,
		stager:  stager,
		timeout: timeout,
		logger:  logger.With(zap.String("component", "critique")),
	}
}

// Analyze registers the staged image with the inference service, asks for a
// critique and extracts the result. Unparseable model output is not an
// error: it comes back as the raw fallback.
func (p *Pipeline) Analyze(ctx context.Context, sub *models.ImageSubmission) (*models.CritiqueResult, error) {
	if sub.Empty() {
		return nil, services.ErrMissingInput
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()

	reader, err := p.stager.Open(ctx, sub.Staged.Key)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", services.ErrStaging, err)
	}

	asset, err := p.client.RegisterAsset(ctx, reader, sub.MediaType, sub.Filename)
	reader.Close()
	if err != nil {
		return nil, p.inferenceError(ctx, "register asset", err)
	}
	defer p.releaseAsync(ctx, asset)

	text, err := p.client.Generate(ctx, asset, Instruction)
	if err != nil {
		return nil, p.inferenceError(ctx, "generate critique", err)
	}

	p.logger.Info("Model response received",
		zap.String("provider", p.client.Name()),
		zap.String("model", p.client.Model()),
		zap.String("filename", sub.Filename),
		zap.Duration("duration", time.Since(start)),
		zap.String("raw", text))

	result := ExtractCritique(text)
	if result.IsFallback() {
		p.logger.Warn("Model output is not a JSON object, returning raw text",
			zap.String("filename", sub.Filename))
	}

	return result, nil
}

func (p *Pipeline) inferenceError(ctx context.Context, op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s: %w", services.ErrInferenceTimeout, op, err)
	}
	return fmt.Errorf("%w: %s: %w", services.ErrInferenceUnavailable, op, err)
}

// Wait blocks until background asset releases have finished.
func (p *Pipeline) Wait() {
	p.releases.Wait()
}

// releaseAsync frees the remote asset without holding up the response.
func (p *Pipeline) releaseAsync(ctx context.Context, asset *inference.Asset) {
	p.releases.Add(1)
	go func() {
		defer p.releases.Done()
		p.release(ctx, asset)
	}()
}

// release frees the remote asset even if the request was cancelled.
func (p *Pipeline) release(ctx context.Context, asset *inference.Asset) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
	defer cancel()

	if err := p.client.ReleaseAsset(ctx, asset); err != nil {
		p.logger.Warn("Failed to release remote asset",
			zap.String("asset", asset.Name),
			zap.Error(err))
	}
}
