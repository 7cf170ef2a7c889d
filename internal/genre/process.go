// SPDX-License-Identifier: MIT

package genre

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/wikitools/genregraph/internal/dumpscan"
	"github.com/wikitools/genregraph/internal/metrics"
	"github.com/wikitools/genregraph/internal/page"
	"github.com/wikitools/genregraph/internal/redirects"
	"github.com/wikitools/genregraph/internal/wikitext"
)

// infoboxName is the normalized template name Stage C looks for among a
// page's top-level nodes. Stage A's genreInfoboxMarker substring check is
// a superset of this: a page can mention the phrase in prose and still
// have no matching infobox Template node, in which case Process returns
// a nil record and the page silently drops out of the graph.
const infoboxName = "infobox music genre"

// descriptionTemplateWhitelist names the templates allowed to open a
// description even when the capture buffer is still empty — everything
// else is presumed to be decorative markup, not prose.
var descriptionTemplateWhitelist = map[string]bool{
	"nihongo":         true,
	"transliteration": true,
	"tlit":            true,
	"transl":          true,
	"lang":            true,
}

// parseTimeout bounds a single page's wikitext parse.
const parseTimeout = time.Second

// ProcessAll runs Stage C over every genre page Stage A found, resuming
// from outDir's processed directory if it already exists. m.GenresIgnored
// is only incremented on a fresh run: a resumed run loads already-saved
// records straight off disk, and an ignored page's record was never
// saved in the first place, so there is nothing left to count.
func ProcessAll(outDir string, genrePages map[page.Title]string, links redirects.LinkMap, logger *log.Logger, m *metrics.Metrics) (map[page.Title]*Record, error) {
	processedDir := filepath.Join(outDir, "processed")
	if _, err := os.Stat(processedDir); err == nil {
		logger.Printf("genre: resuming from %s", processedDir)
		return LoadAll(processedDir)
	}
	if err := os.MkdirAll(processedDir, 0755); err != nil {
		return nil, fmt.Errorf("genre: creating %s: %w", processedDir, err)
	}

	debugTitle := os.Getenv("GENREGRAPH_DUMP_PAGE")

	titles := make([]page.Title, 0, len(genrePages))
	for title := range genrePages {
		titles = append(titles, title)
	}
	sort.Slice(titles, func(i, j int) bool { return titles[i] < titles[j] })

	records := make(map[page.Title]*Record, len(titles))
	seenNames := make(map[page.Name]page.Title, len(titles))
	for _, title := range titles {
		header, body, err := dumpscan.ReadWikitextFile(genrePages[title])
		if err != nil {
			return nil, err
		}

		if debugTitle != "" && string(title) == debugTitle {
			fmt.Fprintf(os.Stderr, "=== GENREGRAPH_DUMP_PAGE %s ===\n%s\n=== end ===\n", title, body)
		}

		record, err := processWithTimeout(title, body, header, links)
		if err != nil {
			return nil, err
		}
		if record == nil {
			continue
		}
		if ignored(record.Title) {
			m.GenresIgnored.Inc()
			continue
		}
		if other, exists := seenNames[record.Name]; exists {
			return nil, fmt.Errorf("genre: duplicate genre name %q on pages %q and %q", record.Name, other, record.Title)
		}
		seenNames[record.Name] = record.Title

		if err := record.Save(processedDir); err != nil {
			return nil, err
		}
		records[record.Title] = record
	}
	logger.Printf("genre: processed %d genre records", len(records))
	return records, nil
}

// processWithTimeout enforces the per-page wall-clock parse budget.
// Parse itself has no cancellation hook, so a runaway parse leaks its
// goroutine; a 1-second hang on a handful of pages is an acceptable cost
// for treating the bound as fatal rather than silently truncating output.
// A panic inside Process is re-raised on the calling goroutine.
func processWithTimeout(title page.Title, body string, header dumpscan.Header, links redirects.LinkMap) (*Record, error) {
	type result struct {
		record   *Record
		err      error
		panicked any
	}
	done := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{panicked: r}
			}
		}()
		r, err := Process(title, body, header, links)
		done <- result{record: r, err: err}
	}()
	select {
	case res := <-done:
		if res.panicked != nil {
			panic(res.panicked)
		}
		return res.record, res.err
	case <-time.After(parseTimeout):
		return nil, fmt.Errorf("genre: page %q: wikitext parse exceeded %s budget", title, parseTimeout)
	}
}

// Process extracts a single genre article's Record, or (nil, nil) if no
// top-level Template node matching infoboxName is found.
func Process(title page.Title, body string, header dumpscan.Header, links redirects.LinkMap) (*Record, error) {
	cleaned := wikitext.Preprocess(body)
	root := wikitext.Parse(cleaned)
	nodes := root.Children

	infoboxIdx := -1
	for i, n := range nodes {
		if n.Kind == wikitext.KindTemplate && n.Name == infoboxName {
			infoboxIdx = i
			break
		}
	}
	if infoboxIdx < 0 {
		return nil, nil
	}
	infobox := nodes[infoboxIdx]

	name, err := extractName(title, infobox, cleaned)
	if err != nil {
		return nil, err
	}
	name = applyPatch(title, name, header.Timestamp)

	params := wikitext.ParametersToMap(infobox.Params)
	rec := &Record{
		Title:            title,
		Name:             name,
		Timestamp:        header.Timestamp,
		StylisticOrigins: resolveLinks(params["stylistic_origins"], links),
		Derivatives:      resolveLinks(params["derivatives"], links),
		Subgenres:        resolveLinks(params["subgenres"], links),
		FusionGenres:     resolveLinks(params["fusiongenres"], links),
		Description:      extractDescription(nodes, infoboxIdx, cleaned),
	}
	return rec, nil
}

// extractName derives the genre's display name from the infobox's "name"
// parameter, falling back to the page title when the parameter is absent
// or blank.
func extractName(title page.Title, infobox *wikitext.Node, src string) (page.Name, error) {
	var rawValue string
	var valueNodes []*wikitext.Node
	found := false
	for _, p := range infobox.Params {
		if p.Name == "name" {
			rawValue = src[p.RawStart:p.RawEnd]
			valueNodes = p.Value
			found = true
		}
	}
	if !found || strings.TrimSpace(rawValue) == "" {
		return page.Name(title), nil
	}
	text := strings.TrimSpace(wikitext.NodesInnerText(valueNodes, wikitext.InnerTextConfig{StopAfterBr: true}))
	if text == "" {
		return "", fmt.Errorf("genre: page %q: name parameter present but resolves to an empty name", title)
	}
	return page.Name(text), nil
}

// resolveLinks collects every Link target under nodes, case-folds each,
// and looks it up in links, silently dropping anything unresolved.
// Discovery order is preserved; it is not deduplicated here, since
// Stage D's edge set already collapses duplicate edges.
func resolveLinks(nodes []*wikitext.Node, links redirects.LinkMap) []page.Title {
	var out []page.Title
	for _, target := range wikitext.CollectLinkTargets(nodes) {
		if resolved, ok := links[page.FoldTitle(target)]; ok {
			out = append(out, resolved)
		}
	}
	return out
}

// extractDescription walks the top-level nodes after the infobox, capturing
// the prose description up to the first heading, then reparses and
// simplifies the captured slice.
func extractDescription(nodes []*wikitext.Node, infoboxIdx int, src string) []*wikitext.SimplifiedNode {
	var buf strings.Builder
	lastEnd := -1
	pauseDepth := 0

	flush := func() []*wikitext.SimplifiedNode {
		raw := buf.String()
		if strings.TrimSpace(raw) == "" {
			return nil
		}
		root := wikitext.Parse(raw)
		return wikitext.Simplify(root.Children, raw)
	}

	for idx, node := range nodes {
		if idx <= infoboxIdx {
			if idx == infoboxIdx {
				lastEnd = node.End
			}
			continue
		}

		switch {
		case node.Kind == wikitext.KindHeading:
			return flush()
		case node.Kind == wikitext.KindComment, node.Kind == wikitext.KindImage:
			lastEnd = node.End
		case node.Kind == wikitext.KindStartTag && node.Name == "ref":
			pauseDepth++
			lastEnd = node.End
		case node.Kind == wikitext.KindEndTag && node.Name == "ref":
			if pauseDepth > 0 {
				pauseDepth--
			}
			lastEnd = node.End
		case node.Kind == wikitext.KindSelfClosingTag && node.Name == "ref":
			lastEnd = node.End
		case pauseDepth > 0:
			lastEnd = node.End
		case node.Kind == wikitext.KindTemplate &&
			strings.TrimSpace(buf.String()) == "" &&
			!descriptionTemplateWhitelist[node.Name]:
			lastEnd = node.End
		default:
			adjustedStart := node.Start
			if lastEnd >= 0 && lastEnd < node.Start {
				adjustedStart = lastEnd
			}
			buf.WriteString(src[adjustedStart:node.End])
			lastEnd = node.End
		}
	}
	return flush()
}
