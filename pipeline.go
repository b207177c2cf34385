package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// RunRequest describes one batch
type RunRequest struct {
	RunID     string
	InputDir  string
	OutputDir string
	Site      StockSite
}

// ManifestPublisher copies a finished manifest somewhere else
type ManifestPublisher interface {
	Publish(ctx context.Context, manifestPath string) (string, error)
}

// RunRecorder keeps a history of finished runs
type RunRecorder interface {
	RecordRun(ctx context.Context, result *RunResult) error
}

// Pipeline turns a directory of images into renamed files and a manifest.
// A pipeline may be reused, but each Run processes one image at a time.
type Pipeline struct {
	config      *Config
	captioner   Captioner
	paraphraser Paraphraser
	sanitizer   *Sanitizer
	publisher   ManifestPublisher
	recorder    RunRecorder
	metrics     *Metrics
	now         func() time.Time
}

// NewPipeline creates a pipeline around the given collaborators
func NewPipeline(config *Config, captioner Captioner, paraphraser Paraphraser) *Pipeline {
	return &Pipeline{
		config:      config,
		captioner:   captioner,
		paraphraser: paraphraser,
		sanitizer:   NewSanitizer(config.Settings.Institutions),
		now:         time.Now,
	}
}

// SetPublisher enables manifest publishing after completed runs
func (p *Pipeline) SetPublisher(publisher ManifestPublisher) {
	p.publisher = publisher
}

// SetRecorder enables the run ledger
func (p *Pipeline) SetRecorder(recorder RunRecorder) {
	p.recorder = recorder
}

// SetMetrics enables Prometheus instrumentation
func (p *Pipeline) SetMetrics(metrics *Metrics) {
	p.metrics = metrics
}

// run holds the per-run state threaded through every image
type run struct {
	req       RunRequest
	result    *RunResult
	events    chan<- Event
	extractor *KeywordExtractor
	inspector *ImageInspector
	allocator *FilenameAllocator
}

// Run processes every qualifying image in req.InputDir. It returns a result
// on every exit path; err is non-nil only when the run Failed. Cancelling ctx
// stops the run before the next image and is reported as StateStopped.
// events may be nil; otherwise the caller must keep receiving until Run returns.
func (p *Pipeline) Run(ctx context.Context, req RunRequest, events chan<- Event) (*RunResult, error) {
	if req.RunID == "" {
		req.RunID = uuid.NewString()
	}
	if req.Site == "" {
		site, err := p.config.Site()
		if err != nil {
			return nil, err
		}
		req.Site = site
	}

	start := p.now()
	result := &RunResult{
		RunID:     req.RunID,
		Site:      req.Site,
		State:     StateRunning,
		StartedAt: start,
	}
	r := &run{req: req, result: result, events: events}

	images, err := listImages(req.InputDir)
	if err != nil {
		return p.fail(ctx, r, err)
	}
	result.Total = len(images)

	if err := os.MkdirAll(req.OutputDir, 0755); err != nil {
		return p.fail(ctx, r, fmt.Errorf("creating output directory: %w", err))
	}
	taken, err := existingBaseNames(req.OutputDir)
	if err != nil {
		return p.fail(ctx, r, fmt.Errorf("listing output directory: %w", err))
	}

	s := p.config.Settings
	r.extractor = NewKeywordExtractor(s.MaxKeywords, s.Institutions, s.KeywordSeed)
	r.inspector = NewImageInspector(s.SkipDuplicates)
	r.allocator = NewFilenameAllocator(req.Site, start, taken)

	log.Printf("Processing %d images for %s (run %s)...", len(images), req.Site, req.RunID)

	if len(images) == 0 {
		p.emit(r, Event{Type: EventProgress, Percent: 100})
		return p.complete(ctx, r)
	}

	for i, path := range images {
		if ctx.Err() != nil {
			return p.stop(ctx, r)
		}

		log.Printf("[%d/%d] Processing: %s", i+1, len(images), filepath.Base(path))
		item, record, err := p.processImage(ctx, r, path)
		if err != nil {
			return p.fail(ctx, r, err)
		}
		if item.Status == StatusError && ctx.Err() != nil && IsCancellation(item.Error) {
			return p.stop(ctx, r)
		}
		result.Items = append(result.Items, item)
		p.metrics.ObserveItem(req.Site, item.Status)

		switch item.Status {
		case StatusSuccess:
			result.Records = append(result.Records, record)
			log.Printf("✓ Renamed: %s", item.Filename)
		case StatusSkipped:
			log.Printf("  ⚠ Skipped %s: %s", filepath.Base(path), item.Warning)
		case StatusError:
			log.Printf("✗ Failed %s: %v", filepath.Base(path), item.Error)
			if s.OnItemError != OnItemErrorSkip {
				return p.fail(ctx, r, item.Error)
			}
		}

		itemCopy := item
		p.emit(r, Event{Type: EventItem, Item: &itemCopy, Filename: item.Filename, Error: errorString(item.Error)})
		p.emit(r, Event{Type: EventProgress, Percent: progressPercent(i, len(images)), Processed: len(result.Records)})
	}

	return p.complete(ctx, r)
}

// processImage runs one image through caption, title, keywords, category and
// rename. Collaborator failures come back as a StatusError item; the returned
// error is reserved for failures that end the run regardless of policy.
func (p *Pipeline) processImage(ctx context.Context, r *run, path string) (ProcessingResult, ManifestRecord, error) {
	item := ProcessingResult{Source: filepath.Base(path)}

	duplicate, err := r.inspector.Inspect(path)
	if err != nil {
		item.Status = StatusSkipped
		item.Warning = err.Error()
		return item, nil, nil
	}
	if duplicate != "" {
		item.Status = StatusSkipped
		item.Warning = duplicate
		return item, nil, nil
	}

	log.Printf("  → Captioning...")
	caption, err := p.captioner.Caption(ctx, path)
	if err != nil {
		item.Status = StatusError
		item.Error = fmt.Errorf("captioning: %w", err)
		return item, nil, nil
	}

	title := p.sanitizer.Sanitize(caption)
	if title == "" {
		item.Warning = "caption was empty after sanitization"
	} else {
		log.Printf("  → Paraphrasing: %s", title)
		paraphrased, err := p.paraphraser.Paraphrase(ctx, title)
		if err == nil && strings.TrimSpace(paraphrased) == "" {
			err = ErrDegenerateOutput
		}
		if err != nil {
			item.Status = StatusError
			item.Error = fmt.Errorf("paraphrasing: %w", err)
			return item, nil, nil
		}
		title = FinalizeTitle(paraphrased)
	}

	keywords := r.extractor.Extract(title)
	category := Classify(r.req.Site, keywords)
	debugLog("%s: %d keywords, category %s (matched=%t)", item.Source, len(keywords), category.Column(), category.Matched)

	newName := r.allocator.Next() + filepath.Ext(path)
	if err := os.Rename(path, filepath.Join(r.req.OutputDir, newName)); err != nil {
		return item, nil, fmt.Errorf("renaming %s: %w", item.Source, err)
	}

	item.Status = StatusSuccess
	item.Filename = newName
	item.Title = title
	return item, NewManifestRecord(r.req.Site, newName, title, keywords, category), nil
}

func (p *Pipeline) complete(ctx context.Context, r *run) (*RunResult, error) {
	result := r.result
	path, err := WriteManifest(r.req.OutputDir, r.req.Site, result.Total, result.Records, p.now())
	if err != nil {
		return p.fail(ctx, r, err)
	}
	result.ManifestPath = path
	log.Printf("✓ Manifest: %s (%d rows)", path, len(result.Records))

	if p.publisher != nil {
		key, err := p.publisher.Publish(ctx, path)
		if err != nil {
			log.Printf("  ⚠ Publishing manifest failed: %v", err)
		} else {
			result.PublishedKey = key
			log.Printf("✓ Published: %s", key)
		}
	}

	p.finish(ctx, r, StateCompleted)
	p.emit(r, Event{Type: EventCompleted, Percent: 100, Processed: len(result.Records), Manifest: path})
	return result, nil
}

func (p *Pipeline) stop(ctx context.Context, r *run) (*RunResult, error) {
	log.Printf("Run %s stopped after %d of %d images", r.req.RunID, len(r.result.Items), r.result.Total)
	p.finish(ctx, r, StateStopped)
	p.emit(r, Event{Type: EventStopped, Processed: len(r.result.Records)})
	return r.result, nil
}

func (p *Pipeline) fail(ctx context.Context, r *run, err error) (*RunResult, error) {
	log.Printf("✗ Run %s failed: %v", r.req.RunID, err)
	p.finish(ctx, r, StateFailed)
	p.emit(r, Event{Type: EventFailed, Processed: len(r.result.Records), Error: err.Error()})
	return r.result, err
}

// finish stamps the terminal state and records the run. The ledger write
// ignores cancellation so stopped runs are recorded too.
func (p *Pipeline) finish(ctx context.Context, r *run, state RunState) {
	r.result.State = state
	r.result.FinishedAt = p.now()
	p.metrics.ObserveRun(r.result)

	if p.recorder != nil {
		if err := p.recorder.RecordRun(context.WithoutCancel(ctx), r.result); err != nil {
			log.Printf("  ⚠ Recording run failed: %v", err)
		}
	}
}

func (p *Pipeline) emit(r *run, ev Event) {
	if r.events == nil {
		return
	}
	ev.RunID = r.req.RunID
	ev.Total = r.result.Total
	ev.At = p.now()
	r.events <- ev
}

// listImages returns the qualifying images of dir in name order
func listImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNoInput, dir, err)
	}
	var images []string
	for _, e := range entries {
		if e.IsDir() || !IsImageFile(e.Name()) {
			continue
		}
		images = append(images, filepath.Join(dir, e.Name()))
	}
	return images, nil
}

// progressPercent is round((i+1)/total*100)
func progressPercent(i, total int) int {
	if total <= 0 {
		return 100
	}
	return int(math.Round(float64(i+1) / float64(total) * 100))
}

func errorString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// IsCancellation reports whether err came from a cancelled or expired context
func IsCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
