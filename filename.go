package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// FilenameAllocator hands out {prefix}_{YYYYMMDD}_{n} names for one run.
// The date is fixed when the allocator is created; n starts at 1 and is
// consumed on every call, including numbers skipped because they are taken.
type FilenameAllocator struct {
	mu     sync.Mutex
	prefix string
	date   string
	next   int
	taken  map[string]bool
}

// NewFilenameAllocator creates a run-scoped allocator. taken holds base names
// (no extension) that already exist in the output directory.
func NewFilenameAllocator(site StockSite, runStart time.Time, taken map[string]bool) *FilenameAllocator {
	if taken == nil {
		taken = map[string]bool{}
	}
	return &FilenameAllocator{
		prefix: site.FilePrefix(),
		date:   runStart.Format("20060102"),
		next:   1,
		taken:  taken,
	}
}

// Next returns the next free name. Safe for concurrent use.
func (a *FilenameAllocator) Next() string {
	a.mu.Lock()
	defer a.mu.Unlock()

	for {
		name := fmt.Sprintf("%s_%s_%d", a.prefix, a.date, a.next)
		a.next++
		if !a.taken[name] {
			a.taken[name] = true
			return name
		}
	}
}

// Date is the stamp shared by every name from this allocator
func (a *FilenameAllocator) Date() string {
	return a.date
}

// existingBaseNames lists file names in dir without their extensions
func existingBaseNames(dir string) (map[string]bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make(map[string]bool, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		names[strings.TrimSuffix(name, filepath.Ext(name))] = true
	}
	return names, nil
}
