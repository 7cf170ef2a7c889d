// SPDX-License-Identifier: MIT

// Package page holds the small value types shared across every pipeline
// stage: page titles, genre names, and the on-disk naming conventions that
// keep a title filesystem-safe and a dump date parseable.
package page

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Title is a Wikipedia page title. Comparisons are case-sensitive except
// where a stage explicitly lowercases it for link resolution.
type Title string

// String implements fmt.Stringer.
func (t Title) String() string {
	return string(t)
}

// Lower returns the title lowercased with strings.ToLower. LinkMap keys
// are built with FoldTitle, not with Lower.
func (t Title) Lower() string {
	return strings.ToLower(string(t))
}

// foldCaser folds case so non-ASCII titles fold consistently rather than
// only handling the ASCII range like strings.ToLower.
var foldCaser = cases.Fold()

// FoldTitle normalizes title for case-insensitive comparison, as used by
// both the redirect LinkMap and the infobox link resolution that consults
// it. It is the one folding function every stage must share, since two
// different fold implementations would silently disagree on edge cases.
func FoldTitle(title string) string {
	return norm.NFC.String(foldCaser.String(title))
}

// sanitizer and its inverse unsanitizer translate the one character that isn't
// safe in a filename on every platform we care about. We use BIG SOLIDUS
// (U+29F8), which renders visually close to an ASCII slash but never
// collides with a path separator.
const bigSolidus = "⧸"

var (
	sanitizer   = strings.NewReplacer("/", bigSolidus)
	unsanitizer = strings.NewReplacer(bigSolidus, "/")
)

// Sanitize makes a title safe to use as a filename.
func Sanitize(t Title) string {
	return sanitizer.Replace(string(t))
}

// Unsanitize reverses Sanitize.
func Unsanitize(name string) Title {
	return Title(unsanitizer.Replace(name))
}

// Name is the display name of a genre, as extracted from its infobox (or
// the page title when the infobox has none).
type Name string

// String implements fmt.Stringer.
func (n Name) String() string {
	return string(n)
}

// ID is a dense, non-negative index assigned to a genre during graph
// assembly. It is stable only within a single run.
type ID int

// String renders the id the way the final graph document expects it:
// as a decimal string, not a JSON number.
func (id ID) String() string {
	return strconv.Itoa(int(id))
}

// DumpDateLayout is the format used for the dump-date component of the
// on-disk output directory and the final graph document's dump_date field.
const DumpDateLayout = "2006-01-02"

// ParseDumpFilename extracts the dump date from a Wikipedia dump filename
// of the form "enwiki-YYYYMMDD-pages-articles-multistream[.ext]". It fails
// on any filename that doesn't conform to that convention.
func ParseDumpFilename(filename string) (year, month, day int, err error) {
	const prefix = "enwiki-"
	if !strings.HasPrefix(filename, prefix) {
		return 0, 0, 0, fmt.Errorf("dump filename %q does not start with %q", filename, prefix)
	}
	rest := filename[len(prefix):]
	dash := strings.IndexByte(rest, '-')
	if dash < 0 {
		return 0, 0, 0, fmt.Errorf("dump filename %q has no date segment", filename)
	}
	dateStr := rest[:dash]
	if len(dateStr) != 8 {
		return 0, 0, 0, fmt.Errorf("dump filename %q has a malformed date segment %q", filename, dateStr)
	}
	year, err = strconv.Atoi(dateStr[0:4])
	if err != nil {
		return 0, 0, 0, fmt.Errorf("dump filename %q: bad year: %w", filename, err)
	}
	month, err = strconv.Atoi(dateStr[4:6])
	if err != nil {
		return 0, 0, 0, fmt.Errorf("dump filename %q: bad month: %w", filename, err)
	}
	day, err = strconv.Atoi(dateStr[6:8])
	if err != nil {
		return 0, 0, 0, fmt.Errorf("dump filename %q: bad day: %w", filename, err)
	}
	return year, month, day, nil
}

// FormatDumpDate renders a dump date the way it appears in the output
// directory layout and the final graph document.
func FormatDumpDate(year, month, day int) string {
	return fmt.Sprintf("%04d-%02d-%02d", year, month, day)
}
