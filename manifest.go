package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Manifest column names
const (
	ColFilename      = "Filename"
	ColTitle         = "Title"
	ColDescription   = "Description"
	ColKeywords      = "Keywords"
	ColCategory      = "Category"
	ColCategories    = "Categories"
	ColReleases      = "Releases"
	ColEditorial     = "Editorial"
	ColMatureContent = "Mature Content"
	ColIllustration  = "Illustration"
)

var (
	adobeColumns        = []string{ColFilename, ColTitle, ColKeywords, ColCategory, ColReleases}
	shutterstockColumns = []string{ColFilename, ColDescription, ColKeywords, ColCategories, ColEditorial, ColMatureContent, ColIllustration}
)

// ManifestColumns returns the fixed column order for a site
func ManifestColumns(site StockSite) []string {
	if site == SiteAdobeStock {
		return adobeColumns
	}
	return shutterstockColumns
}

// ManifestRecord is one manifest row keyed by column name. Keys outside the
// site's schema are ignored at write time and missing keys render empty.
type ManifestRecord map[string]string

// NewAdobeRecord builds an Adobe Stock row
func NewAdobeRecord(filename, title string, keywords []string, category string) ManifestRecord {
	return ManifestRecord{
		ColFilename: filename,
		ColTitle:    title,
		ColKeywords: strings.Join(keywords, ", "),
		ColCategory: category,
		ColReleases: "",
	}
}

// NewShutterstockRecord builds a Shutterstock row
func NewShutterstockRecord(filename, description string, keywords, categories []string) ManifestRecord {
	return ManifestRecord{
		ColFilename:      filename,
		ColDescription:   description,
		ColKeywords:      strings.Join(keywords, ", "),
		ColCategories:    strings.Join(categories, ", "),
		ColEditorial:     "no",
		ColMatureContent: "no",
		ColIllustration:  "no",
	}
}

// NewManifestRecord builds the row for site
func NewManifestRecord(site StockSite, filename, title string, keywords []string, cat CategoryAssignment) ManifestRecord {
	if site == SiteAdobeStock {
		return NewAdobeRecord(filename, title, keywords, cat.AdobeID)
	}
	return NewShutterstockRecord(filename, title, keywords, cat.Shutterstock)
}

// ManifestFilename is {AdobeStock|Shutterstock}_{total}Photos_{YYYYMMDD_HHMMSS}.csv
func ManifestFilename(site StockSite, total int, now time.Time) string {
	return fmt.Sprintf("%s_%dPhotos_%s.csv", site.ManifestName(), total, now.Format("20060102_150405"))
}

// WriteManifest writes records to a new CSV in dir and returns its path.
// The file only appears under its final name once fully written.
func WriteManifest(dir string, site StockSite, total int, records []ManifestRecord, now time.Time) (string, error) {
	columns := ManifestColumns(site)
	path := filepath.Join(dir, ManifestFilename(site, total, now))

	tmp, err := os.CreateTemp(dir, ".manifest-*.csv.tmp")
	if err != nil {
		return "", fmt.Errorf("creating temporary manifest: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	w := csv.NewWriter(tmp)
	if err := w.Write(columns); err != nil {
		return "", fmt.Errorf("writing manifest header: %w", err)
	}
	row := make([]string, len(columns))
	for _, rec := range records {
		for i, col := range columns {
			row[i] = rec[col]
		}
		if err := w.Write(row); err != nil {
			return "", fmt.Errorf("writing manifest row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flushing manifest: %w", err)
	}

	if err := tmp.Sync(); err != nil {
		return "", fmt.Errorf("syncing manifest: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("closing manifest: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		committed = true
		return "", fmt.Errorf("publishing manifest: %w", err)
	}
	committed = true

	return path, nil
}

// ReadManifest parses a manifest written by WriteManifest
func ReadManifest(path string) ([]string, []ManifestRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("parsing manifest: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("manifest %s is empty", path)
	}

	header := rows[0]
	records := make([]ManifestRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		rec := make(ManifestRecord, len(header))
		for i, col := range header {
			if i < len(row) {
				rec[col] = row[i]
			}
		}
		records = append(records, rec)
	}
	return header, records, nil
}
