// SPDX-License-Identifier: MIT

// Package genre implements Stage C: per-page infobox field extraction,
// description capture and simplification, and patch application.
package genre

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/wikitools/genregraph/internal/page"
	"github.com/wikitools/genregraph/internal/wikitext"
)

// Record is one genre article's extracted structure: its display name,
// last-revision timestamp, the four ordered relationship sequences, and
// an optional simplified description tree.
type Record struct {
	Title            page.Title               `json:"title"`
	Name             page.Name                `json:"name"`
	Timestamp        time.Time                `json:"timestamp"`
	StylisticOrigins []page.Title             `json:"stylistic_origins,omitempty"`
	Derivatives      []page.Title             `json:"derivatives,omitempty"`
	Subgenres        []page.Title             `json:"subgenres,omitempty"`
	FusionGenres     []page.Title             `json:"fusion_genres,omitempty"`
	Description      []*wikitext.SimplifiedNode `json:"description,omitempty"`
}

// path returns the processed-record path for title under dir.
func path(dir string, title page.Title) string {
	return filepath.Join(dir, page.Sanitize(title)+".json")
}

// Save persists r under dir, atomically.
func (r *Record) Save(dir string) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("genre: encoding record for %q: %w", r.Title, err)
	}
	p := path(dir, r.Title)
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("genre: writing %s: %w", tmp, err)
	}
	return os.Rename(tmp, p)
}

// Load reads back a single record file.
func Load(p string) (*Record, error) {
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("genre: reading %s: %w", p, err)
	}
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("genre: parsing %s: %w", p, err)
	}
	return &r, nil
}

// LoadAll reads every processed record under dir, keyed by title.
func LoadAll(dir string) (map[page.Title]*Record, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("genre: reading %s: %w", dir, err)
	}
	records := make(map[page.Title]*Record, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		r, err := Load(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		records[r.Title] = r
	}
	return records, nil
}
