// SPDX-License-Identifier: MIT

package genre

import (
	"time"

	"github.com/wikitools/genregraph/internal/page"
)

// patch is one entry of the manual correction table: an optional cutoff
// after which the patch no longer applies, and the replacement name to
// use when it does.
type patch struct {
	cutoff      *time.Time // nil means "always applies"
	replacement page.Name
}

func mustParseCutoff(s string) *time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic("genre: malformed patch cutoff date " + s + ": " + err.Error())
	}
	return &t
}

// patchTable is the small, hand-maintained corpus of known-bad infobox
// names this processor corrects without touching the extraction logic
// itself. Entries are added here as specific articles are found to need
// one; there is no mechanism to load this from an external file because
// the corpus is small enough to review in a code change.
var patchTable = map[page.Title]patch{}

// ignoreSet lists pages whose records are discarded after processing,
// even though their infobox was well-formed — e.g. a genre article that
// was later merged or deleted but still lingers in older dumps.
var ignoreSet = map[page.Title]bool{}

// applyPatch returns name, possibly overridden by patchTable. timestamp
// is the page's last-revision time; one minute of clock-skew slack is
// added to it before comparing against a patch's cutoff, so the patch
// applies only when timestamp+1m is not after the cutoff. A revision less
// than a minute before the cutoff therefore already skips the patch.
func applyPatch(title page.Title, name page.Name, timestamp time.Time) page.Name {
	p, ok := patchTable[title]
	if !ok {
		return name
	}
	if p.cutoff == nil {
		return p.replacement
	}
	if !timestamp.Add(time.Minute).After(*p.cutoff) {
		return p.replacement
	}
	return name
}

// ignored reports whether title's record should be dropped entirely.
func ignored(title page.Title) bool {
	return ignoreSet[title]
}
