package dumpscan

import (
	"encoding/xml"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/dsnet/compress/bzip2"

	"github.com/wikitools/genregraph/internal/metrics"
	"github.com/wikitools/genregraph/internal/page"
)

// genreInfoboxMarker is the literal substring the scanner looks for in a
// page body to classify it as a genre article. It deliberately omits
// the leading "I" so it matches both "Infobox" and "infobox" — a
// case-permissive pre-filter; Stage C does the real, name-normalized
// infobox lookup and silently produces no record for anything that
// merely mentions the phrase in prose.
const genreInfoboxMarker = "nfobox music genre"

// Result is what a completed or resumed Stage A run hands to Stage B/C.
type Result struct {
	// GenrePages maps every extracted genre's title to the path of its
	// cached wikitext file.
	GenrePages map[page.Title]string
	Redirects  *Handle
}

// Scan runs Stage A against dumpPath, writing artifacts under outDir. If
// outDir's genres directory and redirect file both already exist, it
// skips the scan and rehydrates Result from disk instead. m.PagesScanned
// is only incremented on a fresh scan: a resumed run never opens the dump
// file at all, so zero pages were scanned in this invocation.
func Scan(dumpPath, outDir string, logger *log.Logger, m *metrics.Metrics) (*Result, error) {
	genresDir := filepath.Join(outDir, "genres")
	redirectsPath := filepath.Join(outDir, "all_redirects.toml")

	if resumable(genresDir, redirectsPath) {
		logger.Printf("dumpscan: resuming from %s", outDir)
		return resume(genresDir, redirectsPath)
	}

	return scanFresh(dumpPath, genresDir, redirectsPath, logger, m)
}

func resumable(genresDir, redirectsPath string) bool {
	if _, err := os.Stat(genresDir); err != nil {
		return false
	}
	if _, err := os.Stat(redirectsPath); err != nil {
		return false
	}
	return true
}

func resume(genresDir, redirectsPath string) (*Result, error) {
	entries, err := os.ReadDir(genresDir)
	if err != nil {
		return nil, fmt.Errorf("dumpscan: reading %s: %w", genresDir, err)
	}
	genrePages := make(map[page.Title]string, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".wikitext") {
			continue
		}
		base := strings.TrimSuffix(e.Name(), ".wikitext")
		title := page.Unsanitize(base)
		genrePages[title] = filepath.Join(genresDir, e.Name())
	}
	return &Result{GenrePages: genrePages, Redirects: Deferred(redirectsPath)}, nil
}

func scanFresh(dumpPath, genresDir, redirectsPath string, logger *log.Logger, m *metrics.Metrics) (*Result, error) {
	if err := os.MkdirAll(genresDir, 0755); err != nil {
		return nil, fmt.Errorf("dumpscan: creating %s: %w", genresDir, err)
	}

	f, err := os.Open(dumpPath)
	if err != nil {
		return nil, fmt.Errorf("dumpscan: opening dump %s: %w", dumpPath, err)
	}
	defer f.Close()

	var bar *pb.ProgressBar
	var compressed io.Reader = f
	if fi, statErr := f.Stat(); statErr == nil {
		bar = pb.Start64(fi.Size())
		bar.Set(pb.Bytes, true)
		compressed = bar.NewProxyReader(f)
	}

	// The dump is a sequence of concatenated bzip2 streams; this treats
	// the whole thing as one sequential stream rather than splitting for
	// parallel decode. The progress bar wraps the compressed byte stream,
	// not the decompressed one, so it reports real I/O progress against
	// the dump's on-disk size.
	bzr, err := bzip2.NewReader(compressed, &bzip2.ReaderConfig{})
	if err != nil {
		if bar != nil {
			bar.Finish()
		}
		return nil, fmt.Errorf("dumpscan: opening bzip2 stream: %w", err)
	}

	genrePages := make(map[page.Title]string)
	redirects := make(RedirectMap)

	s := &scanner{
		decoder:    xml.NewDecoder(bzr),
		genresDir:  genresDir,
		genrePages: genrePages,
		redirects:  redirects,
		logger:     logger,
	}
	if err := s.run(); err != nil {
		if bar != nil {
			bar.Finish()
		}
		return nil, err
	}
	if bar != nil {
		bar.Finish()
	}
	m.PagesScanned.Add(float64(s.pagesSeen))

	logger.Printf("dumpscan: found %d genre pages, %d redirects", len(genrePages), len(redirects))

	if err := redirects.Save(redirectsPath); err != nil {
		return nil, err
	}

	return &Result{GenrePages: genrePages, Redirects: InMemory(redirects)}, nil
}

type scanner struct {
	decoder    *xml.Decoder
	genresDir  string
	genrePages map[page.Title]string
	redirects  RedirectMap
	logger     *log.Logger

	inPage        bool
	inTitle       bool
	inText        bool
	inTimestamp   bool
	sawRevision   bool
	title         strings.Builder
	text          strings.Builder
	timestamp     strings.Builder
	redirectTitle *string
	pagesSeen     int
}

func (s *scanner) run() error {
	for {
		tok, err := s.decoder.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("dumpscan: reading dump XML: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if err := s.startElement(t); err != nil {
				return err
			}
		case xml.EndElement:
			if err := s.endElement(t); err != nil {
				return err
			}
		case xml.CharData:
			s.charData(t)
		}
	}
}

func (s *scanner) startElement(se xml.StartElement) error {
	switch se.Name.Local {
	case "page":
		s.inPage = true
		s.title.Reset()
		s.text.Reset()
		s.timestamp.Reset()
		s.redirectTitle = nil
		s.sawRevision = false
	case "title":
		if s.inPage {
			s.inTitle = true
			s.title.Reset()
		}
	case "revision":
		s.sawRevision = true
	case "text":
		if s.inPage {
			s.inText = true
			s.text.Reset()
		}
	case "timestamp":
		if s.inPage && s.sawRevision {
			s.inTimestamp = true
			s.timestamp.Reset()
		}
	case "redirect":
		if s.inPage {
			for _, attr := range se.Attr {
				if attr.Name.Local == "title" {
					v := attr.Value
					s.redirectTitle = &v
				}
			}
		}
	}
	return nil
}

func (s *scanner) endElement(ee xml.EndElement) error {
	switch ee.Name.Local {
	case "title":
		s.inTitle = false
	case "text":
		s.inText = false
	case "timestamp":
		s.inTimestamp = false
	case "page":
		err := s.finishPage()
		s.inPage = false
		return err
	}
	return nil
}

func (s *scanner) charData(cd xml.CharData) {
	switch {
	case s.inTitle:
		s.title.Write(cd)
	case s.inText:
		s.text.Write(cd)
	case s.inTimestamp:
		s.timestamp.Write(cd)
	}
}

func (s *scanner) finishPage() error {
	s.pagesSeen++
	if s.pagesSeen%100000 == 0 {
		s.logger.Printf("dumpscan: scanned %d pages, %d genres, %d redirects",
			s.pagesSeen, len(s.genrePages), len(s.redirects))
	}

	title := s.title.String()
	if title == "" {
		return nil
	}

	if s.redirectTitle != nil {
		s.redirects[page.Title(title)] = page.Title(*s.redirectTitle)
		return nil
	}

	text := s.text.String()
	if !isGenrePage(title, text) {
		return nil
	}

	ts, err := parseRevisionTimestamp(s.timestamp.String())
	if err != nil {
		return fmt.Errorf("dumpscan: page %q: malformed revision timestamp: %w", title, err)
	}

	sanitized := page.Sanitize(page.Title(title))
	path := filepath.Join(s.genresDir, sanitized+".wikitext")
	if err := WriteWikitextFile(path, Header{Timestamp: ts}, text); err != nil {
		return err
	}
	s.genrePages[page.Title(title)] = path
	return nil
}

// isGenrePage reports whether a page's title and body look like a genre
// article: no colon in the title, and the body contains the infobox
// marker substring. Redirects are filtered out before this is ever
// consulted.
func isGenrePage(title, text string) bool {
	return !strings.Contains(title, ":") && strings.Contains(text, genreInfoboxMarker)
}

func parseRevisionTimestamp(raw string) (time.Time, error) {
	return time.Parse(time.RFC3339, strings.TrimSpace(raw))
}
