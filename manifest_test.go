package main

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

var manifestTime = time.Date(2024, 3, 9, 14, 30, 5, 0, time.UTC)

func TestManifestFilename(t *testing.T) {
	tests := []struct {
		site     StockSite
		total    int
		expected string
	}{
		{SiteAdobeStock, 3, "AdobeStock_3Photos_20240309_143005.csv"},
		{SiteShutterstock, 0, "Shutterstock_0Photos_20240309_143005.csv"},
	}

	for _, tt := range tests {
		t.Run(string(tt.site), func(t *testing.T) {
			if got := ManifestFilename(tt.site, tt.total, manifestTime); got != tt.expected {
				t.Errorf("ManifestFilename() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestWriteManifestAdobe(t *testing.T) {
	dir := t.TempDir()
	records := []ManifestRecord{
		NewAdobeRecord("adobe_20240309_1.jpg", "A dog runs.", []string{"dog", "runs"}, "1"),
		{ColFilename: "adobe_20240309_2.png", ColTitle: "Partial row.", "Unknown": "dropped"},
	}

	path, err := WriteManifest(dir, SiteAdobeStock, len(records), records, manifestTime)
	if err != nil {
		t.Fatalf("WriteManifest() error = %v", err)
	}
	if filepath.Base(path) != "AdobeStock_2Photos_20240309_143005.csv" {
		t.Errorf("path = %s", path)
	}

	header, rows, err := ReadManifest(path)
	if err != nil {
		t.Fatalf("ReadManifest() error = %v", err)
	}
	if !reflect.DeepEqual(header, []string{"Filename", "Title", "Keywords", "Category", "Releases"}) {
		t.Errorf("header = %v", header)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if rows[0][ColKeywords] != "dog, runs" || rows[0][ColCategory] != "1" {
		t.Errorf("row 1 = %v", rows[0])
	}
	if rows[1][ColKeywords] != "" || rows[1][ColCategory] != "" {
		t.Errorf("missing fields should be empty, got %v", rows[1])
	}
	if _, ok := rows[1]["Unknown"]; ok {
		t.Error("unknown column written to manifest")
	}

	assertNoTempFiles(t, dir)
}

func TestWriteManifestShutterstock(t *testing.T) {
	dir := t.TempDir()
	records := []ManifestRecord{
		NewShutterstockRecord("shutterstock_20240309_1.jpg", "Crowd at a festival.", []string{"crowd", "festival"}, []string{"People", "Holidays/Celebrations"}),
	}

	path, err := WriteManifest(dir, SiteShutterstock, 1, records, manifestTime)
	if err != nil {
		t.Fatalf("WriteManifest() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if lines[0] != "Filename,Description,Keywords,Categories,Editorial,Mature Content,Illustration" {
		t.Errorf("header = %q", lines[0])
	}
	want := `shutterstock_20240309_1.jpg,Crowd at a festival.,"crowd, festival","People, Holidays/Celebrations",no,no,no`
	if lines[1] != want {
		t.Errorf("row = %q, want %q", lines[1], want)
	}
}

func TestWriteManifestHeaderOnly(t *testing.T) {
	dir := t.TempDir()
	path, err := WriteManifest(dir, SiteAdobeStock, 0, nil, manifestTime)
	if err != nil {
		t.Fatalf("WriteManifest() error = %v", err)
	}
	_, rows, err := ReadManifest(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 0 {
		t.Errorf("rows = %d, want 0", len(rows))
	}
}

func TestWriteManifestMissingDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "missing")
	if _, err := WriteManifest(dir, SiteAdobeStock, 0, nil, manifestTime); err == nil {
		t.Error("WriteManifest() into a missing directory should fail")
	}
}

func assertNoTempFiles(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Errorf("temporary file %s left behind", e.Name())
		}
	}
}
