package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestOpenAIRegisterAssetBuildsDataURI(t *testing.T) {
	client := NewOpenAIClient("test-key", "", "gpt-4o-mini")

	asset, err := client.RegisterAsset(context.Background(), bytes.NewReader([]byte("png-bytes")), "image/png", "sketch.png")
	if err != nil {
		t.Fatalf("RegisterAsset() error = %v", err)
	}

	want := "data:image/png;base64,cG5nLWJ5dGVz"
	if asset.URI != want {
		t.Errorf("URI = %q, want %q", asset.URI, want)
	}
	if asset.MIMEType != "image/png" || asset.Name != "sketch.png" {
		t.Errorf("unexpected asset %+v", asset)
	}
}

func TestOpenAIRegisterAssetRejectsEmpty(t *testing.T) {
	client := NewOpenAIClient("test-key", "", "gpt-4o-mini")

	if _, err := client.RegisterAsset(context.Background(), strings.NewReader(""), "image/png", "empty.png"); err == nil {
		t.Error("expected error for empty image")
	}
}

func TestOpenAIGenerateSendsImageAndInstruction(t *testing.T) {
	var received struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content []struct {
				Type     string `json:"type"`
				Text     string `json:"text"`
				ImageURL struct {
					URL string `json:"url"`
				} `json:"image_url"`
			} `json:"content"`
		} `json:"messages"`
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &received); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"{\"rating\":6}"},"finish_reason":"stop"}]}`))
	}))
	defer server.Close()

	client := NewOpenAIClient("test-key", server.URL+"/v1", "gpt-4o-mini")
	asset := &Asset{URI: "data:image/png;base64,AAAA", MIMEType: "image/png"}

	text, err := client.Generate(context.Background(), asset, "critique this")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if text != `{"rating":6}` {
		t.Errorf("Generate() = %q", text)
	}

	if received.Model != "gpt-4o-mini" {
		t.Errorf("model = %q", received.Model)
	}
	if len(received.Messages) != 1 || len(received.Messages[0].Content) != 2 {
		t.Fatalf("unexpected messages %+v", received.Messages)
	}
	parts := received.Messages[0].Content
	if parts[0].Type != "image_url" || parts[0].ImageURL.URL != asset.URI {
		t.Errorf("image part = %+v", parts[0])
	}
	if parts[1].Type != "text" || parts[1].Text != "critique this" {
		t.Errorf("text part = %+v", parts[1])
	}
}

func TestOpenAIGenerateEmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"1","object":"chat.completion","choices":[]}`))
	}))
	defer server.Close()

	client := NewOpenAIClient("test-key", server.URL, "gpt-4o-mini")
	if _, err := client.Generate(context.Background(), &Asset{URI: "data:image/png;base64,AAAA"}, "x"); err == nil {
		t.Error("expected error for empty choices")
	}
}

func TestOpenAIReleaseIsNoop(t *testing.T) {
	client := NewOpenAIClient("test-key", "", "gpt-4o-mini")
	if err := client.ReleaseAsset(context.Background(), &Asset{}); err != nil {
		t.Errorf("ReleaseAsset() error = %v", err)
	}
}

func TestOpenAIHealthCheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/models") {
			http.Error(w, `{"error":{"message":"down"}}`, http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","data":[{"id":"gpt-4o-mini","object":"model"}]}`))
	}))
	defer server.Close()

	client := NewOpenAIClient("test-key", server.URL+"/v1", "gpt-4o-mini")
	if status := client.HealthCheck(context.Background()); status != "healthy" {
		t.Errorf("HealthCheck() = %q, want healthy", status)
	}
}
