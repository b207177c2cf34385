package main

import (
	"context"
	"testing"
	"time"
)

func TestWorkerCompletes(t *testing.T) {
	in, out := runDirs(t)
	writeImages(t, in, 4)

	p := newTestPipeline(t, "", &fakeCaptioner{fallback: "Harbor at dawn"}, passthroughParaphraser{})
	w := StartWorker(context.Background(), p, RunRequest{InputDir: in, OutputDir: out})

	var last Event
	var percents []int
	for ev := range w.Events() {
		if ev.Type == EventProgress {
			percents = append(percents, ev.Percent)
		}
		last = ev
	}

	result, err := w.Wait()
	if err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if result.State != StateCompleted || result.Processed() != 4 {
		t.Errorf("State = %s Processed = %d", result.State, result.Processed())
	}
	if last.Type != EventCompleted {
		t.Errorf("last event = %s, want completed", last.Type)
	}
	for i := 1; i < len(percents); i++ {
		if percents[i] < percents[i-1] {
			t.Errorf("progress went backwards: %v", percents)
		}
	}
}

func TestWorkerStop(t *testing.T) {
	in, out := runDirs(t)
	writeImages(t, in, 6)

	started := make(chan struct{})
	release := make(chan struct{})
	captioner := &fakeCaptioner{fallback: "Red fox", onCall: func(call int) {
		if call == 2 {
			close(started)
			<-release
		}
	}}
	p := newTestPipeline(t, "", captioner, passthroughParaphraser{})
	w := StartWorker(context.Background(), p, RunRequest{InputDir: in, OutputDir: out})

	go func() {
		for range w.Events() {
		}
	}()

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not reach the second image")
	}
	w.Stop()
	close(release)

	result, err := w.Wait()
	if err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if result.State != StateStopped {
		t.Fatalf("State = %s, want stopped", result.State)
	}
	if len(result.Records) != 2 {
		t.Errorf("Records = %d, want 2", len(result.Records))
	}
	if got := listDir(t, out); len(got) != 2 {
		t.Errorf("output dir = %v, want 2 renamed images", got)
	}

	select {
	case <-w.Done():
	default:
		t.Error("Done() not closed after Wait()")
	}
}
