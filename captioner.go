package main

import (
	"context"
	"fmt"
)

// Captioner produces a raw caption for one image file
type Captioner interface {
	Caption(ctx context.Context, imagePath string) (string, error)
}

// CaptionHandler is one source of captions in a CaptionChain. A handler that
// finds nothing returns an empty caption and a nil error so the chain moves on.
type CaptionHandler interface {
	Name() string
	CanHandle(imagePath string) bool
	Caption(ctx context.Context, imagePath string) (string, error)
}

// CaptionChain asks each handler in order until one returns a caption
type CaptionChain struct {
	handlers []CaptionHandler
}

// NewCaptionChain creates a chain; register the most specific handlers first
func NewCaptionChain(handlers ...CaptionHandler) *CaptionChain {
	return &CaptionChain{handlers: handlers}
}

// AddHandler adds a caption handler to the chain
func (c *CaptionChain) AddHandler(handler CaptionHandler) {
	c.handlers = append(c.handlers, handler)
}

// Caption implements Captioner
func (c *CaptionChain) Caption(ctx context.Context, imagePath string) (string, error) {
	for _, h := range c.handlers {
		if !h.CanHandle(imagePath) {
			continue
		}
		caption, err := h.Caption(ctx, imagePath)
		if err != nil {
			return "", fmt.Errorf("%s captioner: %w", h.Name(), err)
		}
		if caption != "" {
			debugLog("caption for %s from %s: %q", imagePath, h.Name(), caption)
			return caption, nil
		}
	}
	return "", fmt.Errorf("no caption source for %s: %w", imagePath, ErrDegenerateOutput)
}
