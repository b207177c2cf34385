package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// DefaultOllamaURL is used when ollama.base_url is empty
const DefaultOllamaURL = "http://localhost:11434"

// OllamaClient talks to a local Ollama server for captions and paraphrases
type OllamaClient struct {
	baseURL          string
	visionModel      string
	textModel        string
	captionPrompt    string
	paraphrasePrompt string
	maxLength        int
	client           *http.Client
}

// NewOllamaClient creates a client from settings
func NewOllamaClient(config *Config) *OllamaClient {
	s := config.Settings
	baseURL := strings.TrimRight(s.Ollama.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultOllamaURL
	}
	return &OllamaClient{
		baseURL:          baseURL,
		visionModel:      s.Ollama.VisionModel,
		textModel:        s.Ollama.TextModel,
		captionPrompt:    config.GetCaptionPrompt(),
		paraphrasePrompt: config.GetParaphrasePrompt(),
		maxLength:        s.Paraphraser.Limits.MaxLength,
		client: &http.Client{
			Timeout: config.OllamaTimeout(),
		},
	}
}

type ollamaGenerateRequest struct {
	Model   string         `json:"model"`
	System  string         `json:"system,omitempty"`
	Prompt  string         `json:"prompt"`
	Images  []string       `json:"images,omitempty"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options,omitempty"`
}

type ollamaGenerateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error,omitempty"`
}

// Caption sends the image to the vision model
func (c *OllamaClient) Caption(ctx context.Context, imagePath string) (string, error) {
	data, err := os.ReadFile(imagePath)
	if err != nil {
		return "", fmt.Errorf("reading image: %w", err)
	}

	text, err := c.generate(ctx, ollamaGenerateRequest{
		Model:   c.visionModel,
		System:  c.captionPrompt,
		Prompt:  captionUserPrompt,
		Images:  []string{base64.StdEncoding.EncodeToString(data)},
		Options: map[string]any{"temperature": 0},
	})
	if err != nil {
		return "", fmt.Errorf("ollama caption: %w", err)
	}
	return text, nil
}

// Paraphrase rewrites a title with the text model
func (c *OllamaClient) Paraphrase(ctx context.Context, title string) (string, error) {
	text, err := c.generate(ctx, ollamaGenerateRequest{
		Model:   c.textModel,
		System:  c.paraphrasePrompt,
		Prompt:  title,
		Options: map[string]any{"temperature": 0},
	})
	if err != nil {
		return "", fmt.Errorf("ollama paraphrase: %w", err)
	}
	return limitLength(text, c.maxLength), nil
}

// Close releases idle connections held by the client
func (c *OllamaClient) Close() error {
	c.client.CloseIdleConnections()
	return nil
}

func (c *OllamaClient) generate(ctx context.Context, payload ollamaGenerateRequest) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	endpoint := c.baseURL + "/api/generate"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	debugLog("ollama response: model=%s status=%d elapsed=%s", payload.Model, resp.StatusCode, time.Since(start))

	if resp.StatusCode != http.StatusOK {
		return "", &HTTPError{StatusCode: resp.StatusCode, URL: endpoint}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	var decoded ollamaGenerateResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if decoded.Error != "" {
		return "", fmt.Errorf("ollama error: %s", decoded.Error)
	}

	text := strings.TrimSpace(decoded.Response)
	if text == "" {
		return "", ErrDegenerateOutput
	}
	return text, nil
}
