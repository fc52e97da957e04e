package inference

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/phambaophuc/art-critique/internal/config"
	"github.com/phambaophuc/art-critique/internal/models"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

const (
	defaultFilePollInterval = time.Second
	fileDeleteTimeout       = 10 * time.Second
)

// geminiService is the part of the Gemini API the client relies on.
type geminiService interface {
	UploadFile(ctx context.Context, r io.Reader, cfg *genai.UploadFileConfig) (*genai.File, error)
	GetFile(ctx context.Context, name string) (*genai.File, error)
	DeleteFile(ctx context.Context, name string) error
	GenerateContent(ctx context.Context, model string, contents []*genai.Content) (*genai.GenerateContentResponse, error)
}

// sdkService backs geminiService with the genai SDK.
type sdkService struct {
	client *genai.Client
}

func (s sdkService) UploadFile(ctx context.Context, r io.Reader, cfg *genai.UploadFileConfig) (*genai.File, error) {
	return s.client.Files.Upload(ctx, r, cfg)
}

func (s sdkService) GetFile(ctx context.Context, name string) (*genai.File, error) {
	return s.client.Files.Get(ctx, name, nil)
}

func (s sdkService) DeleteFile(ctx context.Context, name string) error {
	_, err := s.client.Files.Delete(ctx, name, nil)
	return err
}

func (s sdkService) GenerateContent(ctx context.Context, model string, contents []*genai.Content) (*genai.GenerateContentResponse, error) {
	return s.client.Models.GenerateContent(ctx, model, contents, nil)
}

type GeminiClient struct {
	apiKey       string
	baseURL      string
	model        string
	logger       *zap.Logger
	pollInterval time.Duration

	once    sync.Once
	service geminiService
	initErr error
}

// NewGeminiClient builds a client for the Gemini API. An empty baseURL uses
// the SDK default endpoint.
func NewGeminiClient(apiKey, baseURL, model string, logger *zap.Logger) *GeminiClient {
	return &GeminiClient{
		apiKey:       strings.TrimSpace(apiKey),
		baseURL:      strings.TrimSpace(baseURL),
		model:        strings.TrimSpace(model),
		logger:       logger.With(zap.String("component", "gemini")),
		pollInterval: defaultFilePollInterval,
	}
}

func (g *GeminiClient) Name() string  { return config.ProviderGemini }
func (g *GeminiClient) Model() string { return g.model }

// api lazily creates the SDK client on first use and shares it afterwards.
// The client holds no per-request state.
func (g *GeminiClient) api() (geminiService, error) {
	g.once.Do(func() {
		if g.apiKey == "" {
			g.initErr = errors.New("GEMINI_API_KEY is empty")
			return
		}

		clientConfig := &genai.ClientConfig{
			APIKey:  g.apiKey,
			Backend: genai.BackendGeminiAPI,
		}
		if g.baseURL != "" {
			clientConfig.HTTPOptions.BaseURL = g.baseURL
		}

		client, err := genai.NewClient(context.Background(), clientConfig)
		if err != nil {
			g.initErr = err
			return
		}
		g.service = sdkService{client: client}
	})
	return g.service, g.initErr
}

// RegisterAsset uploads the image through the Files API and waits until the
// file can be referenced in a generation request.
func (g *GeminiClient) RegisterAsset(ctx context.Context, r io.Reader, mimeType, displayName string) (*Asset, error) {
	api, err := g.api()
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	file, err := api.UploadFile(ctx, r, &genai.UploadFileConfig{
		MIMEType:    mimeType,
		DisplayName: displayName,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload file: %w", err)
	}

	file, err = g.waitUntilActive(ctx, api, file)
	if err != nil {
		g.deleteFile(ctx, api, file.Name)
		return nil, err
	}

	g.logger.Debug("File uploaded",
		zap.String("name", file.Name),
		zap.String("uri", file.URI),
		zap.String("mime_type", file.MIMEType))

	return &Asset{URI: file.URI, MIMEType: file.MIMEType, Name: file.Name}, nil
}

func (g *GeminiClient) waitUntilActive(ctx context.Context, api geminiService, file *genai.File) (*genai.File, error) {
	for file.State == genai.FileStateProcessing {
		select {
		case <-ctx.Done():
			return file, fmt.Errorf("waiting for file processing: %w", ctx.Err())
		case <-time.After(g.pollInterval):
		}

		latest, err := api.GetFile(ctx, file.Name)
		if err != nil {
			return file, fmt.Errorf("failed to get file status: %w", err)
		}
		file = latest
	}

	if file.State == genai.FileStateFailed {
		return file, fmt.Errorf("file processing failed for %s", file.Name)
	}
	return file, nil
}

func (g *GeminiClient) Generate(ctx context.Context, asset *Asset, instruction string) (string, error) {
	api, err := g.api()
	if err != nil {
		return "", fmt.Errorf("failed to create gemini client: %w", err)
	}

	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{FileData: &genai.FileData{
					FileURI:  asset.URI,
					MIMEType: asset.MIMEType,
				}},
				{Text: instruction},
			},
		},
	}

	resp, err := api.GenerateContent(ctx, g.model, contents)
	if err != nil {
		return "", fmt.Errorf("content generation failed: %w", err)
	}

	text := extractResponseText(resp)
	if text == "" {
		return "", errors.New("gemini returned an empty response")
	}
	return text, nil
}

func (g *GeminiClient) ReleaseAsset(ctx context.Context, asset *Asset) error {
	if asset == nil || asset.Name == "" {
		return nil
	}

	api, err := g.api()
	if err != nil {
		return err
	}
	if err := api.DeleteFile(ctx, asset.Name); err != nil {
		return fmt.Errorf("failed to delete remote file %s: %w", asset.Name, err)
	}
	return nil
}

// HealthCheck only verifies that the SDK client can be built; it does not
// spend quota on a request.
func (g *GeminiClient) HealthCheck(ctx context.Context) string {
	if _, err := g.api(); err != nil {
		return models.StatusUnhealthy + ": " + err.Error()
	}
	return models.StatusHealthy
}

// deleteFile removes a file that never became usable. It outlives the
// request context, which may be what cut the upload short.
func (g *GeminiClient) deleteFile(ctx context.Context, api geminiService, name string) {
	if name == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), fileDeleteTimeout)
	defer cancel()
	if err := api.DeleteFile(ctx, name); err != nil {
		g.logger.Warn("Failed to delete remote file", zap.String("name", name), zap.Error(err))
	}
}

func extractResponseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}

	var result strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && part.Text != "" {
			result.WriteString(part.Text)
		}
	}
	return result.String()
}
