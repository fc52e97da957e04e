package inference

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"github.com/phambaophuc/art-critique/internal/config"
	"github.com/phambaophuc/art-critique/internal/models"
	"github.com/sashabaranov/go-openai"
)

// OpenAIClient targets OpenAI-compatible chat completion servers. These have
// no asset store, so registration encodes the image into a data URI handle
// locally and generation references that handle.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

func NewOpenAIClient(apiKey, baseURL, model string) *OpenAIClient {
	clientConfig := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		clientConfig.BaseURL = baseURL
	}

	return &OpenAIClient{
		client: openai.NewClientWithConfig(clientConfig),
		model:  model,
	}
}

func (o *OpenAIClient) Name() string  { return config.ProviderOpenAI }
func (o *OpenAIClient) Model() string { return o.model }

func (o *OpenAIClient) RegisterAsset(ctx context.Context, r io.Reader, mimeType, displayName string) (*Asset, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	if len(data) == 0 {
		return nil, errors.New("image is empty")
	}

	return &Asset{
		URI:      fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data)),
		MIMEType: mimeType,
		Name:     displayName,
	}, nil
}

func (o *OpenAIClient) Generate(ctx context.Context, asset *Asset, instruction string) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL: asset.URI,
						},
					},
					{
						Type: openai.ChatMessagePartTypeText,
						Text: instruction,
					},
				},
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", errors.New("openai returned an empty response")
	}
	return resp.Choices[0].Message.Content, nil
}

func (o *OpenAIClient) ReleaseAsset(ctx context.Context, asset *Asset) error {
	return nil
}

func (o *OpenAIClient) HealthCheck(ctx context.Context) string {
	if _, err := o.client.ListModels(ctx); err != nil {
		return models.StatusUnhealthy + ": " + err.Error()
	}
	return models.StatusHealthy
}
