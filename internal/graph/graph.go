// SPDX-License-Identifier: MIT

// Package graph implements Stage D: deterministic assembly of the final
// genre graph document from the genre records Stage C produced.
package graph

import (
	"fmt"
	"sort"
	"time"

	"github.com/wikitools/genregraph/internal/genre"
	"github.com/wikitools/genregraph/internal/page"
	"github.com/wikitools/genregraph/internal/wikitext"
)

// LinkType names the kind of relationship a link in the output graph
// carries. Stylistic origins and derivatives both map to Derivative, so
// the four infobox fields yield three link types. The string values are
// exactly the literals the final JSON document uses.
type LinkType string

const (
	Derivative  LinkType = "Derivative"
	Subgenre    LinkType = "Subgenre"
	FusionGenre LinkType = "FusionGenre"
)

// LinkData is one edge of the final graph document.
type LinkData struct {
	Source int      `json:"source"`
	Target int      `json:"target"`
	Type   LinkType `json:"ty"`
}

// NodeData is one genre article in the final graph document. ID is
// serialized as a numeric string, even though it is a dense integer
// internally.
type NodeData struct {
	ID                  string                      `json:"id"`
	PageTitle           page.Title                  `json:"page_title"`
	WikitextDescription []*wikitext.SimplifiedNode  `json:"wikitext_description,omitempty"`
	Label               page.Name                   `json:"label"`
	LastRevisionDate    string                      `json:"last_revision_date"`
	Links               []int                       `json:"links"`
}

// Graph is the final serialized document an external presentation layer
// consumes.
type Graph struct {
	DumpDate  string     `json:"dump_date"`
	Nodes     []NodeData `json:"nodes"`
	Links     []LinkData `json:"links"`
	MaxDegree int        `json:"max_degree"`
}

type edgeKey struct {
	source, target page.ID
	kind            LinkType
}

// DetectDuplicateNames re-checks for two genre records sharing the same
// display name before assembly. It scans titles in sorted order so the
// error is deterministic; Stage C already performs this same check during
// a fresh run, but a resumed run loads records straight off disk without
// ever running that check in this process, so Build must re-verify it
// independently.
func DetectDuplicateNames(records map[page.Title]*genre.Record) error {
	titles := sortedTitles(records)
	seen := make(map[page.Name]page.Title, len(titles))
	for _, title := range titles {
		name := records[title].Name
		if other, exists := seen[name]; exists {
			return fmt.Errorf("graph: duplicate genre name %q on pages %q and %q", name, other, title)
		}
		seen[name] = title
	}
	return nil
}

// Build assembles the final Graph from records, deterministically.
func Build(dumpDate string, records map[page.Title]*genre.Record) (*Graph, error) {
	if err := DetectDuplicateNames(records); err != nil {
		return nil, err
	}

	titles := sortedTitles(records)
	idByTitle := make(map[page.Title]page.ID, len(titles))
	for i, title := range titles {
		idByTitle[title] = page.ID(i)
	}

	edges := make(map[edgeKey]bool)
	for _, title := range titles {
		rec := records[title]
		self, ok := idByTitle[title]
		if !ok {
			continue
		}
		for _, origin := range rec.StylisticOrigins {
			if id, ok := idByTitle[origin]; ok {
				edges[edgeKey{id, self, Derivative}] = true
			}
		}
		for _, derivative := range rec.Derivatives {
			if id, ok := idByTitle[derivative]; ok {
				edges[edgeKey{self, id, Derivative}] = true
			}
		}
		for _, subgenre := range rec.Subgenres {
			if id, ok := idByTitle[subgenre]; ok {
				edges[edgeKey{self, id, Subgenre}] = true
			}
		}
		for _, fusion := range rec.FusionGenres {
			if id, ok := idByTitle[fusion]; ok {
				edges[edgeKey{id, self, FusionGenre}] = true
			}
		}
	}

	keys := make([]edgeKey, 0, len(edges))
	for k := range edges {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].source != keys[j].source {
			return keys[i].source < keys[j].source
		}
		if keys[i].target != keys[j].target {
			return keys[i].target < keys[j].target
		}
		return keys[i].kind < keys[j].kind
	})

	links := make([]LinkData, 0, len(keys))
	incident := make(map[page.ID][]int, len(titles))
	for i, k := range keys {
		links = append(links, LinkData{Source: int(k.source), Target: int(k.target), Type: k.kind})
		incident[k.source] = append(incident[k.source], i)
		incident[k.target] = append(incident[k.target], i)
	}

	maxDegree := 0
	nodes := make([]NodeData, 0, len(titles))
	for i, title := range titles {
		rec := records[title]
		degree := len(incident[page.ID(i)])
		if degree > maxDegree {
			maxDegree = degree
		}
		nodes = append(nodes, NodeData{
			ID:                  page.ID(i).String(),
			PageTitle:           title,
			WikitextDescription: rec.Description,
			Label:               rec.Name,
			LastRevisionDate:    rec.Timestamp.UTC().Format(time.RFC3339),
			Links:               incident[page.ID(i)],
		})
	}

	return &Graph{
		DumpDate:  dumpDate,
		Nodes:     nodes,
		Links:     links,
		MaxDegree: maxDegree,
	}, nil
}

func sortedTitles(records map[page.Title]*genre.Record) []page.Title {
	titles := make([]page.Title, 0, len(records))
	for title := range records {
		titles = append(titles, title)
	}
	sort.Slice(titles, func(i, j int) bool { return titles[i] < titles[j] })
	return titles
}
