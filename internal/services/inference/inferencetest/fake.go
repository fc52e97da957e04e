// Package inferencetest provides an in-memory inference client for tests.
package inferencetest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/phambaophuc/art-critique/internal/services/inference"
)

// Client records every call and answers Generate with Respond. By default it
// replies with a fenced JSON object whose only strength is the Fingerprint
// of the registered bytes, so each response can be traced to its image.
type Client struct {
	Respond     func(ctx context.Context, asset *inference.Asset, instruction string) (string, error)
	RegisterErr error
	// OnRelease, when set, runs inside ReleaseAsset.
	OnRelease func(ctx context.Context)

	registered atomic.Int64
	generated  atomic.Int64
	released   atomic.Int64

	mu           sync.Mutex
	instructions []string
}

func (c *Client) Name() string  { return "fake" }
func (c *Client) Model() string { return "fake-model" }

func (c *Client) RegisterAsset(ctx context.Context, r io.Reader, mimeType, displayName string) (*inference.Asset, error) {
	c.registered.Add(1)
	if c.RegisterErr != nil {
		return nil, c.RegisterErr
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, errors.New("empty asset")
	}
	return &inference.Asset{URI: "fake://" + Fingerprint(data), MIMEType: mimeType, Name: displayName}, nil
}

func (c *Client) Generate(ctx context.Context, asset *inference.Asset, instruction string) (string, error) {
	c.generated.Add(1)
	c.mu.Lock()
	c.instructions = append(c.instructions, instruction)
	c.mu.Unlock()

	if c.Respond != nil {
		return c.Respond(ctx, asset, instruction)
	}
	return fmt.Sprintf("```json\n{\"rating\":7,\"Strengths\":[%q],\"Weaknesses\":[],\"Tips\":[]}\n```", strings.TrimPrefix(asset.URI, "fake://")), nil
}

func (c *Client) HealthCheck(ctx context.Context) string { return "healthy" }

func (c *Client) ReleaseAsset(ctx context.Context, asset *inference.Asset) error {
	if c.OnRelease != nil {
		c.OnRelease(ctx)
	}
	c.released.Add(1)
	return nil
}

// Calls returns the number of RegisterAsset, Generate and ReleaseAsset calls.
func (c *Client) Calls() (registered, generated, released int64) {
	return c.registered.Load(), c.generated.Load(), c.released.Load()
}

func (c *Client) Instructions() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.instructions...)
}

// Fingerprint identifies image bytes in default responses.
func Fingerprint(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:8])
}

// Static returns a Respond func that always answers with text.
func Static(text string) func(context.Context, *inference.Asset, string) (string, error) {
	return func(context.Context, *inference.Asset, string) (string, error) {
		return text, nil
	}
}

// Blocking returns a Respond func that waits for the context to end.
func Blocking() func(context.Context, *inference.Asset, string) (string, error) {
	return func(ctx context.Context, _ *inference.Asset, _ string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}
}

var _ inference.Client = (*Client)(nil)
