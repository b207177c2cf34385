package main

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownSite      = errors.New("unknown stock site")
	ErrNoInput          = errors.New("input directory not readable")
	ErrUnreadableImage  = errors.New("unreadable image")
	ErrDegenerateOutput = errors.New("collaborator returned empty output")
)

// HTTPError represents an HTTP error with status code
type HTTPError struct {
	StatusCode int
	URL        string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d for %s", e.StatusCode, e.URL)
}
