// SPDX-License-Identifier: MIT

// Package dumpscan implements Stage A of the pipeline: streaming
// decompression and XML parsing of a Wikipedia multistream dump,
// splitting it into per-page genre wikitext files and a flat redirect
// map.
package dumpscan

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/wikitools/genregraph/internal/page"
)

// RedirectMap maps every redirect source title in the dump to its
// declared target title. It is not filtered to genre pages: later
// stages need the complete set to chase arbitrary-length chains.
type RedirectMap map[page.Title]page.Title

// Handle is a lazily-loaded redirect map: a freshly completed scan already
// holds the map in memory, while a resumed run defers parsing the
// (potentially large) TOML file until Stage B actually needs it.
type Handle struct {
	inMemory RedirectMap
	path     string
}

// InMemory wraps an already-built RedirectMap.
func InMemory(m RedirectMap) *Handle {
	return &Handle{inMemory: m}
}

// Deferred returns a Handle that loads from path on first Resolve call.
func Deferred(path string) *Handle {
	return &Handle{path: path}
}

// Resolve materializes the redirect map, loading it from disk at most
// once.
func (h *Handle) Resolve() (RedirectMap, error) {
	if h.inMemory != nil {
		return h.inMemory, nil
	}
	m, err := loadRedirectMap(h.path)
	if err != nil {
		return nil, err
	}
	h.inMemory = m
	return m, nil
}

func loadRedirectMap(path string) (RedirectMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("dumpscan: reading redirect map %s: %w", path, err)
	}
	var raw map[string]string
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("dumpscan: parsing redirect map %s: %w", path, err)
	}
	m := make(RedirectMap, len(raw))
	for src, dst := range raw {
		m[page.Title(src)] = page.Title(dst)
	}
	return m, nil
}

// Save persists the redirect map as pretty-printed TOML, atomically
// (write to a temp file, then rename).
func (m RedirectMap) Save(path string) error {
	raw := make(map[string]string, len(m))
	for src, dst := range m {
		raw[string(src)] = string(dst)
	}
	data, err := toml.Marshal(raw)
	if err != nil {
		return fmt.Errorf("dumpscan: encoding redirect map: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("dumpscan: writing %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("dumpscan: renaming %s to %s: %w", tmp, path, err)
	}
	return nil
}
