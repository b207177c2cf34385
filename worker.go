package main

import (
	"context"
	"sync"
)

const workerEventBuffer = 64

// Worker runs one pipeline on its own goroutine so a front end can observe
// progress and ask it to stop. Events is closed once the run has finished.
type Worker struct {
	events chan Event
	cancel context.CancelFunc
	done   chan struct{}

	mu     sync.Mutex
	result *RunResult
	err    error
}

// StartWorker begins a run in the background
func StartWorker(ctx context.Context, pipeline *Pipeline, req RunRequest) *Worker {
	ctx, cancel := context.WithCancel(ctx)
	w := &Worker{
		events: make(chan Event, workerEventBuffer),
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go func() {
		defer close(w.done)
		defer close(w.events)
		defer cancel()

		result, err := pipeline.Run(ctx, req, w.events)

		w.mu.Lock()
		w.result, w.err = result, err
		w.mu.Unlock()
	}()

	return w
}

// Events streams progress and exactly one terminal event. It must be drained
// for the run to make progress once the buffer is full.
func (w *Worker) Events() <-chan Event {
	return w.events
}

// Stop requests cancellation. Images already renamed stay renamed.
func (w *Worker) Stop() {
	w.cancel()
}

// Done is closed when the run has finished
func (w *Worker) Done() <-chan struct{} {
	return w.done
}

// Wait blocks until the run finishes and returns its result
func (w *Worker) Wait() (*RunResult, error) {
	<-w.done
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.result, w.err
}
