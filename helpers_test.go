package main

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

// writePNG writes a 32x32 horizontal gradient; reversed flips its direction
func writePNG(t *testing.T, path string, reversed bool) {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			v := uint8(x * 8)
			if reversed {
				v = uint8(255 - x*8)
			}
			img.SetGray(x, y, color.Gray{Y: v})
		}
	}

	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

// writeImages creates n PNGs named img_00.png, img_01.png, ... in dir
func writeImages(t *testing.T, dir string, n int) []string {
	t.Helper()
	var names []string
	for i := 0; i < n; i++ {
		name := filepath.Join(dir, "img_"+string(rune('0'+i/10))+string(rune('0'+i%10))+".png")
		writePNG(t, name, false)
		names = append(names, name)
	}
	return names
}

type fakeCaptioner struct {
	mu       sync.Mutex
	captions map[string]string
	fallback string
	err      error
	failFor  map[string]error
	calls    int
	onCall   func(call int)
}

func (f *fakeCaptioner) Caption(ctx context.Context, imagePath string) (string, error) {
	f.mu.Lock()
	f.calls++
	call := f.calls
	f.mu.Unlock()

	if f.onCall != nil {
		f.onCall(call)
	}
	if f.err != nil {
		return "", f.err
	}
	if err := f.failFor[filepath.Base(imagePath)]; err != nil {
		return "", err
	}
	if c, ok := f.captions[filepath.Base(imagePath)]; ok {
		return c, nil
	}
	return f.fallback, nil
}

type fakeParaphraser struct {
	output string
	err    error
}

func (f fakeParaphraser) Paraphrase(ctx context.Context, title string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if f.output != "" {
		return f.output, nil
	}
	return title, nil
}

type fakeHandler struct {
	name    string
	handles bool
	caption string
	err     error
	called  bool
}

func (h *fakeHandler) Name() string          { return h.name }
func (h *fakeHandler) CanHandle(string) bool { return h.handles }
func (h *fakeHandler) Caption(context.Context, string) (string, error) {
	h.called = true
	return h.caption, h.err
}

var errModelDown = errors.New("model unavailable")
