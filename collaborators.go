package main

import (
	"fmt"
	"io"
	"log"
)

// Collaborators are the model-backed dependencies of a pipeline. They are
// built once at startup, shared by every run, and released with Close.
type Collaborators struct {
	Captioner   Captioner
	Paraphraser Paraphraser
	closers     []io.Closer
}

// NewCollaborators wires the configured caption and paraphrase backends
func NewCollaborators(config *Config, apiKey string) (*Collaborators, error) {
	s := config.Settings
	c := &Collaborators{}

	var agents *AgentManager
	needsAnthropic := s.Captioner.Backend == "anthropic" || s.Paraphraser.Backend == "anthropic"
	if needsAnthropic {
		am, err := NewAgentManager(apiKey, config)
		if err != nil {
			return nil, fmt.Errorf("anthropic backend: %w", err)
		}
		agents = am
	}

	var ollama *OllamaClient
	if s.Captioner.Backend == "ollama" || s.Paraphraser.Backend == "ollama" {
		ollama = NewOllamaClient(config)
		c.closers = append(c.closers, ollama)
	}

	chain := NewCaptionChain()
	if s.Captioner.UseSidecar {
		chain.AddHandler(NewSidecarCaptionHandler())
	}
	if s.Captioner.UseEmbedded || s.Captioner.Backend == "metadata" {
		chain.AddHandler(EmbeddedCaptionHandler{})
	}
	switch s.Captioner.Backend {
	case "anthropic":
		chain.AddHandler(&ModelCaptionHandler{name: "anthropic", captioner: agents})
	case "ollama":
		chain.AddHandler(&ModelCaptionHandler{name: "ollama", captioner: ollama})
	case "metadata":
	default:
		return nil, fmt.Errorf("unknown captioner backend %q", s.Captioner.Backend)
	}
	c.Captioner = chain

	switch s.Paraphraser.Backend {
	case "anthropic":
		c.Paraphraser = agents
	case "ollama":
		c.Paraphraser = ollama
	case "none":
		c.Paraphraser = passthroughParaphraser{}
	default:
		return nil, fmt.Errorf("unknown paraphraser backend %q", s.Paraphraser.Backend)
	}

	log.Printf("✓ Collaborators ready: captioner=%s paraphraser=%s", s.Captioner.Backend, s.Paraphraser.Backend)
	return c, nil
}

// Close releases backend resources
func (c *Collaborators) Close() error {
	var firstErr error
	for _, cl := range c.closers {
		if err := cl.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	c.closers = nil
	return firstErr
}
