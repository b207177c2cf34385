package main

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/corona10/goimagehash"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// ImageExtensions is the allow-list of files a run picks up (compared lowercased)
var ImageExtensions = []string{".png", ".jpg", ".jpeg", ".bmp", ".gif"}

// IsImageFile reports whether name has an allowed image extension
func IsImageFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range ImageExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// dedupThreshold is the maximum Hamming distance between two dHash values
// below which images are considered perceptually identical.
const dedupThreshold = 10

// ImageInspector rejects files that are not decodable images and, when
// enabled, near-duplicates of images already seen in the run.
type ImageInspector struct {
	skipDuplicates bool

	mu     sync.Mutex
	hashes []*goimagehash.ImageHash
}

// NewImageInspector creates a per-run inspector
func NewImageInspector(skipDuplicates bool) *ImageInspector {
	return &ImageInspector{skipDuplicates: skipDuplicates}
}

// Inspect returns ErrUnreadableImage for files that do not decode, and a
// non-empty duplicate reason when the image matches an earlier one.
func (in *ImageInspector) Inspect(path string) (duplicate string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnreadableImage, err)
	}
	defer f.Close()

	if !in.skipDuplicates {
		if _, _, err := image.DecodeConfig(f); err != nil {
			return "", fmt.Errorf("%w: %s: %v", ErrUnreadableImage, filepath.Base(path), err)
		}
		return "", nil
	}

	img, _, err := image.Decode(f)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrUnreadableImage, filepath.Base(path), err)
	}
	if in.isDuplicate(img) {
		return "perceptual duplicate of an earlier image in this run", nil
	}
	return "", nil
}

// isDuplicate stores the hash of unique images for later comparisons.
// Images that cannot be hashed are treated as unique.
func (in *ImageInspector) isDuplicate(img image.Image) bool {
	hash, err := goimagehash.DifferenceHash(img)
	if err != nil {
		return false
	}

	in.mu.Lock()
	defer in.mu.Unlock()

	for _, h := range in.hashes {
		dist, err := hash.Distance(h)
		if err == nil && dist < dedupThreshold {
			return true
		}
	}

	in.hashes = append(in.hashes, hash)
	return false
}
