// SPDX-License-Identifier: MIT

// Package redirects implements Stage B: the redirect transitive closure
// that produces the LinkMap Stage C uses to resolve free-form wikitext
// link targets to extracted genre titles.
package redirects

import (
	"fmt"
	"log"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/wikitools/genregraph/internal/dumpscan"
	"github.com/wikitools/genregraph/internal/metrics"
	"github.com/wikitools/genregraph/internal/page"
)

// LinkMap maps a folded (case-insensitive) title string to the title of
// the extracted genre article it resolves to.
type LinkMap map[string]page.Title

// Resolve computes the LinkMap for the given genre titles, or loads it
// from path if it was already persisted by a previous run. m.RedirectsFound
// is only set on the fresh-computation path: a resumed run loads the
// already-closed LinkMap directly and never materializes the full
// redirect map, so there is nothing to count without undoing the point
// of resuming.
func Resolve(path string, genreTitles []page.Title, redirectHandle *dumpscan.Handle, logger *log.Logger, m *metrics.Metrics) (LinkMap, error) {
	if _, err := os.Stat(path); err == nil {
		logger.Printf("redirects: resuming from %s", path)
		return load(path)
	}

	redirectMap, err := redirectHandle.Resolve()
	if err != nil {
		return nil, fmt.Errorf("redirects: loading redirect map: %w", err)
	}
	m.RedirectsFound.Add(float64(len(redirectMap)))

	links := make(LinkMap, len(genreTitles))
	for _, title := range genreTitles {
		links[page.FoldTitle(string(title))] = title
	}

	for round := 1; ; round++ {
		inserted := 0
		for src, dst := range redirectMap {
			target, ok := links[page.FoldTitle(string(dst))]
			if !ok {
				continue
			}
			key := page.FoldTitle(string(src))
			if _, exists := links[key]; exists {
				continue
			}
			links[key] = target
			inserted++
		}
		logger.Printf("redirects: fixed-point round %d inserted %d entries", round, inserted)
		if inserted == 0 {
			break
		}
	}

	for _, cycle := range detectCycles(redirectMap) {
		logger.Printf("redirects: warning: cyclic redirect chain detected: %v", cycle)
	}

	if err := links.save(path); err != nil {
		return nil, err
	}
	return links, nil
}

func load(path string) (LinkMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("redirects: reading %s: %w", path, err)
	}
	var raw map[string]string
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("redirects: parsing %s: %w", path, err)
	}
	links := make(LinkMap, len(raw))
	for k, v := range raw {
		links[k] = page.Title(v)
	}
	return links, nil
}

func (links LinkMap) save(path string) error {
	raw := make(map[string]string, len(links))
	for k, v := range links {
		raw[k] = string(v)
	}
	data, err := toml.Marshal(raw)
	if err != nil {
		return fmt.Errorf("redirects: encoding %s: %w", path, err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("redirects: writing %s: %w", tmp, err)
	}
	return os.Rename(tmp, path)
}

// detectCycles finds cycles within the redirect graph itself (ignoring
// whether any member resolves to a genre). The fixed-point resolution
// in Resolve naturally terminates on cycles without needing this; it exists
// purely for operator visibility into malformed redirect chains.
func detectCycles(redirectMap dumpscan.RedirectMap) [][]page.Title {
	const (
		unvisited = iota
		inProgress
		done
	)
	state := make(map[page.Title]int, len(redirectMap))
	var path []page.Title
	var cycles [][]page.Title

	var visit func(t page.Title)
	visit = func(t page.Title) {
		switch state[t] {
		case inProgress:
			for i, p := range path {
				if p == t {
					cyc := append([]page.Title{}, path[i:]...)
					cycles = append(cycles, cyc)
					break
				}
			}
			return
		case done:
			return
		}
		state[t] = inProgress
		path = append(path, t)
		if next, ok := redirectMap[t]; ok {
			visit(next)
		}
		path = path[:len(path)-1]
		state[t] = done
	}

	for src := range redirectMap {
		if state[src] == unvisited {
			visit(src)
		}
	}
	return cycles
}
