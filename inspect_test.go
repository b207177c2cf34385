package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestIsImageFile(t *testing.T) {
	tests := []struct {
		name     string
		expected bool
	}{
		{"photo.png", true},
		{"photo.JPG", true},
		{"photo.jpeg", true},
		{"photo.bmp", true},
		{"photo.gif", true},
		{"photo.webp", false},
		{"photo.txt", false},
		{"png", false},
		{"AdobeStock_2Photos_20240309_143005.csv", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsImageFile(tt.name); got != tt.expected {
				t.Errorf("IsImageFile(%q) = %v, want %v", tt.name, got, tt.expected)
			}
		})
	}
}

func TestInspectUnreadable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.jpg")
	if err := os.WriteFile(path, []byte("not really a jpeg"), 0644); err != nil {
		t.Fatal(err)
	}

	for _, dedup := range []bool{false, true} {
		_, err := NewImageInspector(dedup).Inspect(path)
		if !errors.Is(err, ErrUnreadableImage) {
			t.Errorf("Inspect() with dedup=%v error = %v, want ErrUnreadableImage", dedup, err)
		}
	}
}

func TestInspectDuplicates(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "a.png")
	copyOf := filepath.Join(dir, "b.png")
	other := filepath.Join(dir, "c.png")
	writePNG(t, first, false)
	writePNG(t, copyOf, false)
	writePNG(t, other, true)

	in := NewImageInspector(true)
	if dup, err := in.Inspect(first); err != nil || dup != "" {
		t.Fatalf("first image: dup=%q err=%v", dup, err)
	}
	if dup, err := in.Inspect(copyOf); err != nil || dup == "" {
		t.Errorf("identical image: dup=%q err=%v, want duplicate", dup, err)
	}
	if dup, err := in.Inspect(other); err != nil || dup != "" {
		t.Errorf("different image: dup=%q err=%v, want unique", dup, err)
	}
}

func TestInspectWithoutDedup(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.png")
	b := filepath.Join(dir, "b.png")
	writePNG(t, a, false)
	writePNG(t, b, false)

	in := NewImageInspector(false)
	for _, path := range []string{a, b} {
		if dup, err := in.Inspect(path); err != nil || dup != "" {
			t.Errorf("Inspect(%s): dup=%q err=%v", filepath.Base(path), dup, err)
		}
	}
}
