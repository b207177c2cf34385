package main

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

const maxKeywords = 50

var schemas = map[string][]string{
	"adobe":        {"Filename", "Title", "Keywords", "Category", "Releases"},
	"shutterstock": {"Filename", "Description", "Keywords", "Categories", "Editorial", "Mature Content", "Illustration"},
}

var (
	renamedPattern  = regexp.MustCompile(`^(adobe|shutterstock)_(\d{8})_(\d+)\.[A-Za-z0-9]+$`)
	manifestPattern = regexp.MustCompile(`^(AdobeStock|Shutterstock)_\d+Photos_\d{8}_\d{6}\.csv$`)
)

func main() {
	if len(os.Args) < 3 {
		log.Fatal("Usage: verify-manifest <check|orphans> <manifest.csv|output-directory>")
	}

	command := os.Args[1]
	target := os.Args[2]

	switch command {
	case "check":
		problems, err := checkManifest(target)
		if err != nil {
			log.Fatal(err)
		}
		report(problems)
	case "orphans":
		orphans, err := findOrphans(target)
		if err != nil {
			log.Fatal(err)
		}
		for _, name := range orphans {
			fmt.Printf("  ORPHAN: %s\n", name)
		}
		fmt.Printf("\nFound %d renamed images without a manifest row\n", len(orphans))
	default:
		log.Fatalf("Unknown command %q", command)
	}
}

func report(problems []string) {
	if len(problems) == 0 {
		fmt.Println("✓ Manifest OK")
		return
	}
	for _, p := range problems {
		fmt.Printf("  ✗ %s\n", p)
	}
	fmt.Printf("\n%d problems\n", len(problems))
	os.Exit(1)
}

// checkManifest verifies the header matches a site schema and every row
// names a renamed image present next to the manifest
func checkManifest(path string) ([]string, error) {
	rows, err := readCSV(path)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return []string{"manifest has no header"}, nil
	}

	site := siteFor(rows[0])
	if site == "" {
		return []string{fmt.Sprintf("header %q matches no known schema", strings.Join(rows[0], ","))}, nil
	}

	var problems []string
	if !manifestPattern.MatchString(filepath.Base(path)) {
		problems = append(problems, fmt.Sprintf("unexpected manifest name %s", filepath.Base(path)))
	}

	dir := filepath.Dir(path)
	seen := make(map[string]bool)
	for i, row := range rows[1:] {
		line := i + 2
		if len(row) != len(schemas[site]) {
			problems = append(problems, fmt.Sprintf("line %d: %d columns, want %d", line, len(row), len(schemas[site])))
			continue
		}

		name := row[0]
		m := renamedPattern.FindStringSubmatch(name)
		switch {
		case m == nil:
			problems = append(problems, fmt.Sprintf("line %d: %q is not a renamed image", line, name))
		case m[1] != site:
			problems = append(problems, fmt.Sprintf("line %d: %s has a %s prefix in a %s manifest", line, name, m[1], site))
		}
		if seen[name] {
			problems = append(problems, fmt.Sprintf("line %d: %s listed twice", line, name))
		}
		seen[name] = true

		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			problems = append(problems, fmt.Sprintf("line %d: %s missing from %s", line, name, dir))
		}

		if n := countKeywords(row[2]); n > maxKeywords {
			problems = append(problems, fmt.Sprintf("line %d: %d keywords, limit is %d", line, n, maxKeywords))
		}
		if row[3] == "" {
			problems = append(problems, fmt.Sprintf("line %d: empty category", line))
		}
	}

	return problems, nil
}

// findOrphans lists renamed images in dir that no manifest in dir mentions
func findOrphans(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading directory: %w", err)
	}

	listed := make(map[string]bool)
	var renamed []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		switch {
		case manifestPattern.MatchString(name):
			rows, err := readCSV(filepath.Join(dir, name))
			if err != nil {
				log.Printf("Error reading %s: %v", name, err)
				continue
			}
			if len(rows) == 0 {
				continue
			}
			for _, row := range rows[1:] {
				if len(row) > 0 {
					listed[row[0]] = true
				}
			}
		case renamedPattern.MatchString(name):
			renamed = append(renamed, name)
		}
	}

	var orphans []string
	for _, name := range renamed {
		if !listed[name] {
			orphans = append(orphans, name)
		}
	}
	return orphans, nil
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return rows, nil
}

func siteFor(header []string) string {
	for site, columns := range schemas {
		if strings.Join(columns, "\x00") == strings.Join(header, "\x00") {
			return site
		}
	}
	return ""
}

func countKeywords(field string) int {
	if strings.TrimSpace(field) == "" {
		return 0
	}
	return len(strings.Split(field, ","))
}
