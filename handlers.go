package main

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/bep/imagemeta"
)

var debugEnabled bool

// SetDebugMode enables or disables debug logging
func SetDebugMode(enabled bool) {
	debugEnabled = enabled
}

func debugLog(format string, args ...interface{}) {
	if debugEnabled {
		log.Printf("[DEBUG] "+format, args...)
	}
}

// SidecarCaptionHandler reads a caption written next to the image:
// photo.jpg -> photo.txt, photo.md or photo.html
type SidecarCaptionHandler struct {
	converter *md.Converter
}

// NewSidecarCaptionHandler creates a handler that converts HTML sidecars to text
func NewSidecarCaptionHandler() *SidecarCaptionHandler {
	return &SidecarCaptionHandler{converter: md.NewConverter("", true, nil)}
}

var sidecarExtensions = []string{".txt", ".md", ".html", ".htm"}

func (h *SidecarCaptionHandler) Name() string { return "sidecar" }

func (h *SidecarCaptionHandler) CanHandle(imagePath string) bool {
	return h.sidecarPath(imagePath) != ""
}

func (h *SidecarCaptionHandler) Caption(_ context.Context, imagePath string) (string, error) {
	path := h.sidecarPath(imagePath)
	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading sidecar %s: %w", path, err)
	}

	text := string(data)
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".html" || ext == ".htm" {
		text, err = h.converter.ConvertString(text)
		if err != nil {
			return "", fmt.Errorf("converting sidecar HTML: %w", err)
		}
	}
	return strings.TrimSpace(text), nil
}

func (h *SidecarCaptionHandler) sidecarPath(imagePath string) string {
	base := strings.TrimSuffix(imagePath, filepath.Ext(imagePath))
	for _, ext := range sidecarExtensions {
		candidate := base + ext
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
	}
	return ""
}

// EmbeddedCaptionHandler uses a description already stored in the image's
// XMP, IPTC or EXIF metadata
type EmbeddedCaptionHandler struct{}

// descriptionTags in preference order; lookups are case-insensitive
var descriptionTags = []string{"description", "caption-abstract", "imagedescription", "headline", "title"}

var metadataFormats = map[string]imagemeta.ImageFormat{
	".jpg":  imagemeta.JPEG,
	".jpeg": imagemeta.JPEG,
	".png":  imagemeta.PNG,
	".webp": imagemeta.WebP,
	".tif":  imagemeta.TIFF,
	".tiff": imagemeta.TIFF,
}

func (EmbeddedCaptionHandler) Name() string { return "embedded" }

func (EmbeddedCaptionHandler) CanHandle(imagePath string) bool {
	_, ok := metadataFormats[strings.ToLower(filepath.Ext(imagePath))]
	return ok
}

func (EmbeddedCaptionHandler) Caption(_ context.Context, imagePath string) (string, error) {
	data, err := os.ReadFile(imagePath)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", imagePath, err)
	}
	return ExtractEmbeddedCaption(data, metadataFormats[strings.ToLower(filepath.Ext(imagePath))]), nil
}

// ExtractEmbeddedCaption returns the best description found in the image
// metadata, or "" when there is none or it cannot be parsed.
func ExtractEmbeddedCaption(data []byte, format imagemeta.ImageFormat) string {
	if len(data) == 0 {
		return ""
	}

	found := make(map[string]string)
	_, err := imagemeta.Decode(imagemeta.Options{
		R:           bytes.NewReader(data),
		ImageFormat: format,
		Sources:     imagemeta.EXIF | imagemeta.IPTC | imagemeta.XMP,
		ShouldHandleTag: func(ti imagemeta.TagInfo) bool {
			return isDescriptionTag(ti.Tag)
		},
		HandleTag: func(ti imagemeta.TagInfo) error {
			key := strings.ToLower(ti.Tag)
			if s := strings.TrimSpace(tagValueString(ti.Value)); s != "" && found[key] == "" {
				found[key] = s
			}
			return nil
		},
	})
	if err != nil {
		debugLog("embedded metadata unreadable: %v", err)
		return ""
	}

	for _, tag := range descriptionTags {
		if s := found[tag]; s != "" {
			return s
		}
	}
	return ""
}

func isDescriptionTag(tag string) bool {
	tag = strings.ToLower(tag)
	for _, t := range descriptionTags {
		if t == tag {
			return true
		}
	}
	return false
}

// tagValueString extracts a string from a tag value.
// XMP values may be string or []string (from altList/seqList).
func tagValueString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case []string:
		if len(val) > 0 {
			return val[0]
		}
	case []any:
		if len(val) > 0 {
			if s, ok := val[0].(string); ok {
				return s
			}
		}
	}
	return ""
}

// ModelCaptionHandler puts a vision model behind the chain as the fallback
type ModelCaptionHandler struct {
	name      string
	captioner Captioner
}

func (h *ModelCaptionHandler) Name() string { return h.name }

func (h *ModelCaptionHandler) CanHandle(string) bool { return true }

func (h *ModelCaptionHandler) Caption(ctx context.Context, imagePath string) (string, error) {
	return h.captioner.Caption(ctx, imagePath)
}
