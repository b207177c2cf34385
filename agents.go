package main

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/aktagon/llmkit/anthropic"
	"github.com/aktagon/llmkit/anthropic/types"
)

const captionUserPrompt = "Write the caption for the attached photo."

// AgentManager calls Anthropic models for captions and paraphrases
type AgentManager struct {
	config *Config
	apiKey string
}

// NewAgentManager creates a new AgentManager
func NewAgentManager(apiKey string, config *Config) (*AgentManager, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("creating agent manager: API key required")
	}
	if config == nil || config.Settings == nil {
		return nil, fmt.Errorf("creating agent manager: settings required")
	}
	return &AgentManager{
		config: config,
		apiKey: apiKey,
	}, nil
}

// Caption uploads the image and asks the caption model to describe it
func (am *AgentManager) Caption(ctx context.Context, imagePath string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	log.Printf("  → Captioning %s", imagePath)

	file, err := anthropic.UploadFile(imagePath, am.apiKey)
	if err != nil {
		return "", fmt.Errorf("uploading image: %w", err)
	}

	agent := am.config.Settings.Agents.Caption
	settings := types.RequestSettings{
		Model:       agent.Model,
		MaxTokens:   agent.MaxTokens,
		Temperature: agent.Temperature,
	}
	response, err := anthropic.PromptWithSettings(am.config.GetCaptionPrompt(), captionUserPrompt, "", am.apiKey, settings, types.File{ID: file.ID})
	if err != nil {
		return "", fmt.Errorf("caption agent failed: %w", err)
	}
	if len(response.Content) == 0 {
		return "", fmt.Errorf("no content in caption response: %w", ErrDegenerateOutput)
	}

	return strings.TrimSpace(response.Content[0].Text), nil
}

// Paraphrase rewrites a sanitized title within the configured length limits
func (am *AgentManager) Paraphrase(ctx context.Context, title string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	debugLog("paraphrasing %q", title)

	agent := am.config.Settings.Agents.Paraphrase
	settings := types.RequestSettings{
		Model:       agent.Model,
		MaxTokens:   agent.MaxTokens,
		Temperature: agent.Temperature,
	}
	response, err := anthropic.PromptWithSettings(am.config.GetParaphrasePrompt(), title, "", am.apiKey, settings)
	if err != nil {
		return "", fmt.Errorf("paraphrase agent failed: %w", err)
	}
	if len(response.Content) == 0 {
		return "", fmt.Errorf("no content in paraphrase response: %w", ErrDegenerateOutput)
	}

	return limitLength(strings.TrimSpace(response.Content[0].Text), am.config.Settings.Paraphraser.Limits.MaxLength), nil
}

// GetModelInfo returns the models used for captioning and paraphrasing
func (am *AgentManager) GetModelInfo() (captionModel, paraphraseModel string) {
	return am.config.Settings.Agents.Caption.Model, am.config.Settings.Agents.Paraphrase.Model
}

// limitLength keeps generated text within max runes, cutting at a word boundary
func limitLength(s string, max int) string {
	if max <= 0 {
		return s
	}
	return truncateAtWord(s, max)
}
