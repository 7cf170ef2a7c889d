package dumpscan

import (
	"bytes"
	"encoding/xml"
	"log"
	"strings"
	"testing"

	"github.com/wikitools/genregraph/internal/page"
)

func newTestScanner(t *testing.T, genresDir string) *scanner {
	t.Helper()
	var buf bytes.Buffer
	return &scanner{
		decoder:    xml.NewDecoder(strings.NewReader("")),
		genresDir:  genresDir,
		genrePages: make(map[page.Title]string),
		redirects:  make(RedirectMap),
		logger:     log.New(&buf, "", 0),
	}
}

func runScan(t *testing.T, s *scanner, xmlDoc string) error {
	t.Helper()
	s.decoder = xml.NewDecoder(strings.NewReader(xmlDoc))
	return s.run()
}

func TestScanRedirectChain(t *testing.T) {
	dir := t.TempDir()
	s := newTestScanner(t, dir)
	doc := `<mediawiki>
<page><title>A</title><ns>0</ns><redirect title="B" /></page>
<page><title>B</title><ns>0</ns><redirect title="C" /></page>
<page><title>C</title><ns>0</ns>
  <revision><timestamp>2024-01-01T00:00:00Z</timestamp>
  <text>{{Infobox music genre|name=C music}}</text></revision>
</page>
</mediawiki>`
	if err := runScan(t, s, doc); err != nil {
		t.Fatalf("run: %v", err)
	}
	if s.redirects[page.Title("A")] != page.Title("B") {
		t.Errorf("redirects[A] = %q, want B", s.redirects[page.Title("A")])
	}
	if s.redirects[page.Title("B")] != page.Title("C") {
		t.Errorf("redirects[B] = %q, want C", s.redirects[page.Title("B")])
	}
	if _, ok := s.genrePages[page.Title("C")]; !ok {
		t.Errorf("expected C to be detected as a genre page")
	}
}

func TestScanExcludesTitleWithColon(t *testing.T) {
	dir := t.TempDir()
	s := newTestScanner(t, dir)
	doc := `<mediawiki>
<page><title>Talk:Rock music</title><ns>1</ns>
  <revision><timestamp>2024-01-01T00:00:00Z</timestamp>
  <text>{{Infobox music genre|name=Rock}}</text></revision>
</page>
</mediawiki>`
	if err := runScan(t, s, doc); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(s.genrePages) != 0 {
		t.Errorf("expected no genre pages, got %v", s.genrePages)
	}
}

func TestScanMalformedTimestampIsFatal(t *testing.T) {
	dir := t.TempDir()
	s := newTestScanner(t, dir)
	doc := `<mediawiki>
<page><title>Rock</title><ns>0</ns>
  <revision><timestamp>not-a-date</timestamp>
  <text>{{Infobox music genre|name=Rock}}</text></revision>
</page>
</mediawiki>`
	if err := runScan(t, s, doc); err == nil {
		t.Fatalf("expected an error for a malformed timestamp on a genre page")
	}
}

func TestScanMissingTitleIsIgnored(t *testing.T) {
	dir := t.TempDir()
	s := newTestScanner(t, dir)
	doc := `<mediawiki>
<page><ns>0</ns>
  <revision><timestamp>2024-01-01T00:00:00Z</timestamp>
  <text>{{Infobox music genre|name=Rock}}</text></revision>
</page>
</mediawiki>`
	if err := runScan(t, s, doc); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(s.genrePages) != 0 {
		t.Errorf("expected no genre pages for a page with no title, got %v", s.genrePages)
	}
}

func TestIsGenrePage(t *testing.T) {
	tests := []struct {
		title, text string
		want        bool
	}{
		{"Rock music", "{{Infobox music genre}}", true},
		{"Rock music", "{{infobox music genre}}", true},
		{"Talk:Rock music", "{{Infobox music genre}}", false},
		{"Rock music", "no infobox here", false},
	}
	for _, tc := range tests {
		if got := isGenrePage(tc.title, tc.text); got != tc.want {
			t.Errorf("isGenrePage(%q, %q) = %v, want %v", tc.title, tc.text, got, tc.want)
		}
	}
}
