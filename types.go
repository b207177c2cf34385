package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// StockSite selects the marketplace schema a run targets
type StockSite string

const (
	SiteAdobeStock   StockSite = "Adobe Stock"
	SiteShutterstock StockSite = "Shutterstock"
)

// ParseStockSite accepts the display name or a short alias ("adobe", "shutterstock")
func ParseStockSite(s string) (StockSite, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "adobe stock", "adobestock", "adobe":
		return SiteAdobeStock, nil
	case "shutterstock":
		return SiteShutterstock, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSite, s)
}

// FilePrefix is the lowercase prefix used for renamed images
func (s StockSite) FilePrefix() string {
	if s == SiteAdobeStock {
		return "adobe"
	}
	return "shutterstock"
}

// ManifestName is the site token used in the manifest filename
func (s StockSite) ManifestName() string {
	if s == SiteAdobeStock {
		return "AdobeStock"
	}
	return "Shutterstock"
}

// RunState is the pipeline lifecycle state
type RunState string

const (
	StateIdle      RunState = "idle"
	StateRunning   RunState = "running"
	StateCompleted RunState = "completed"
	StateStopped   RunState = "stopped"
	StateFailed    RunState = "failed"
)

// ProcessingStatus represents the outcome status of processing an image
type ProcessingStatus string

const (
	StatusSuccess ProcessingStatus = "success"
	StatusSkipped ProcessingStatus = "skipped"
	StatusError   ProcessingStatus = "error"
)

// ProcessingResult tracks the outcome of processing each image
type ProcessingResult struct {
	Source   string           `json:"source"`
	Status   ProcessingStatus `json:"status"`
	Filename string           `json:"filename,omitempty"`
	Title    string           `json:"title,omitempty"`
	Warning  string           `json:"warning,omitempty"`
	Error    error            `json:"-"`
}

// MarshalJSON renders Error as its message
func (r ProcessingResult) MarshalJSON() ([]byte, error) {
	type plain ProcessingResult
	return json.Marshal(struct {
		plain
		Error string `json:"error,omitempty"`
	}{plain(r), errorString(r.Error)})
}

// EventType names the kind of message emitted on a run's event channel
type EventType string

const (
	EventProgress  EventType = "progress"
	EventItem      EventType = "item"
	EventCompleted EventType = "completed"
	EventStopped   EventType = "stopped"
	EventFailed    EventType = "failed"
)

// Event is a progress or terminal report from a running pipeline
type Event struct {
	Type      EventType         `json:"type"`
	RunID     string            `json:"run_id"`
	Percent   int               `json:"percent"`
	Processed int               `json:"processed,omitempty"`
	Total     int               `json:"total"`
	Item      *ProcessingResult `json:"-"`
	Filename  string            `json:"filename,omitempty"`
	Manifest  string            `json:"manifest,omitempty"`
	Error     string            `json:"error,omitempty"`
	At        time.Time         `json:"at"`
}

// RunResult is what a pipeline run hands back on every exit path
type RunResult struct {
	RunID        string
	Site         StockSite
	State        RunState
	Total        int
	Records      []ManifestRecord
	Items        []ProcessingResult
	ManifestPath string
	PublishedKey string
	StartedAt    time.Time
	FinishedAt   time.Time
}

// Processed counts the images that were renamed and recorded
func (r *RunResult) Processed() int {
	return len(r.Records)
}
