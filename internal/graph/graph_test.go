package graph

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wikitools/genregraph/internal/genre"
	"github.com/wikitools/genregraph/internal/page"
)

func mustTimestamp(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t.Fatalf("parsing timestamp %q: %v", s, err)
	}
	return ts
}

func TestBuildMinimalGenre(t *testing.T) {
	ts := mustTimestamp(t, "2024-01-01T00:00:00Z")
	records := map[page.Title]*genre.Record{
		page.Title("Blues"): {Title: page.Title("Blues"), Name: page.Name("Blues"), Timestamp: ts},
		page.Title("Rock"): {
			Title: page.Title("Rock"), Name: page.Name("Rock music"), Timestamp: ts,
			StylisticOrigins: []page.Title{page.Title("Blues")},
		},
	}

	g, err := Build("2024-07-01", records)
	require.NoError(t, err)
	require.Len(t, g.Nodes, 2)
	assert.Equal(t, page.Title("Blues"), g.Nodes[0].PageTitle)
	assert.Equal(t, "0", g.Nodes[0].ID)
	assert.Equal(t, page.Title("Rock"), g.Nodes[1].PageTitle)
	assert.Equal(t, "1", g.Nodes[1].ID)
	assert.Equal(t, []LinkData{{Source: 0, Target: 1, Type: Derivative}}, g.Links)
	assert.Equal(t, 1, g.MaxDegree)
}

func TestBuildFusionVsSubgenreEdgeOrientation(t *testing.T) {
	ts := mustTimestamp(t, "2024-01-01T00:00:00Z")
	records := map[page.Title]*genre.Record{
		page.Title("Jazz"):  {Title: page.Title("Jazz"), Name: page.Name("Jazz"), Timestamp: ts},
		page.Title("Rock"):  {Title: page.Title("Rock"), Name: page.Name("Rock"), Timestamp: ts},
		page.Title("Bebop"): {Title: page.Title("Bebop"), Name: page.Name("Bebop"), Timestamp: ts},
		page.Title("Jazz Fusion"): {
			Title: page.Title("Jazz Fusion"), Name: page.Name("Jazz Fusion"), Timestamp: ts,
			FusionGenres: []page.Title{page.Title("Jazz"), page.Title("Rock")},
			Subgenres:    []page.Title{page.Title("Bebop")},
		},
	}

	g, err := Build("2024-07-01", records)
	require.NoError(t, err)

	idOf := make(map[page.Title]int, len(g.Nodes))
	for i, n := range g.Nodes {
		idOf[n.PageTitle] = i
	}

	want := []LinkData{
		{Source: idOf[page.Title("Jazz")], Target: idOf[page.Title("Jazz Fusion")], Type: FusionGenre},
		{Source: idOf[page.Title("Rock")], Target: idOf[page.Title("Jazz Fusion")], Type: FusionGenre},
		{Source: idOf[page.Title("Jazz Fusion")], Target: idOf[page.Title("Bebop")], Type: Subgenre},
	}
	assert.ElementsMatch(t, want, g.Links)
}

func TestBuildDetectsDuplicateNames(t *testing.T) {
	ts := mustTimestamp(t, "2024-01-01T00:00:00Z")
	records := map[page.Title]*genre.Record{
		page.Title("Techno A"): {Title: page.Title("Techno A"), Name: page.Name("Techno"), Timestamp: ts},
		page.Title("Techno B"): {Title: page.Title("Techno B"), Name: page.Name("Techno"), Timestamp: ts},
	}
	if _, err := Build("2024-07-01", records); err == nil {
		t.Fatal("expected a duplicate-name error")
	}
}

func TestBuildDeduplicatesEdges(t *testing.T) {
	ts := mustTimestamp(t, "2024-01-01T00:00:00Z")
	records := map[page.Title]*genre.Record{
		page.Title("Blues"): {Title: page.Title("Blues"), Name: page.Name("Blues"), Timestamp: ts},
		page.Title("Rock"): {
			Title: page.Title("Rock"), Name: page.Name("Rock"), Timestamp: ts,
			// duplicate entries in the same field still collapse to one edge
			StylisticOrigins: []page.Title{page.Title("Blues"), page.Title("Blues")},
		},
	}
	g, err := Build("2024-07-01", records)
	require.NoError(t, err)
	assert.Len(t, g.Links, 1)
}
