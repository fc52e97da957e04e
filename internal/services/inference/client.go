// Package inference talks to the multimodal model that critiques images.
//
// Every provider exposes the same two-step protocol: an image is first
// registered as an asset, and the returned handle is then referenced in a
// generation request. Generation never receives raw bytes.
package inference

import (
	"context"
	"fmt"
	"io"

	"github.com/phambaophuc/art-critique/internal/config"
	"go.uber.org/zap"
)

// Asset is an opaque handle to registered image content.
type Asset struct {
	URI      string `json:"uri"`
	MIMEType string `json:"mimeType"`
	Name     string `json:"name,omitempty"`
}

type Client interface {
	Name() string
	Model() string
	RegisterAsset(ctx context.Context, r io.Reader, mimeType, displayName string) (*Asset, error)
	Generate(ctx context.Context, asset *Asset, instruction string) (string, error)
	// ReleaseAsset frees provider-side storage held by the asset.
	ReleaseAsset(ctx context.Context, asset *Asset) error
	HealthCheck(ctx context.Context) string
}

// New builds the client for the configured provider. The result is meant
// to be created once and shared by all requests.
func New(cfg config.InferenceConfig, logger *zap.Logger) (Client, error) {
	switch cfg.Provider {
	case config.ProviderGemini:
		return NewGeminiClient(cfg.GeminiAPIKey, cfg.GeminiBaseURL, cfg.GeminiModel, logger), nil
	case config.ProviderOpenAI:
		return NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel), nil
	default:
		return nil, fmt.Errorf("unknown inference provider %q", cfg.Provider)
	}
}
