package wikitext

import "strings"

// span is a half-open byte range [Start, End).
type span struct {
	Start, End int
}

// FindCommentSpans scans raw wikitext for every "<!-- ... -->" comment,
// independent of the surrounding structure. It is deliberately a
// standalone lexical scan rather than a walk over a parsed tree: the
// parser's heading detector is strict about what immediately follows the
// closing "=" run (see tryParseHeading), so a comment sitting right after
// a heading's close causes the heading to be misparsed as plain text.
// Comments themselves are still unambiguous at the byte level regardless
// of that defect, which is what makes the preprocessing workaround in
// Preprocess possible.
func FindCommentSpans(src string) []span {
	var spans []span
	pos := 0
	for {
		start := strings.Index(src[pos:], "<!--")
		if start < 0 {
			break
		}
		start += pos
		rel := strings.Index(src[start+4:], "-->")
		var end int
		if rel < 0 {
			end = len(src)
		} else {
			end = start + 4 + rel + 3
		}
		spans = append(spans, span{Start: start, End: end})
		pos = end
	}
	return spans
}

// Preprocess implements the mandatory comment-before-heading workaround
// (spec §4.3.1): it removes every comment span from src, in reverse
// order so earlier offsets stay valid, and returns the cleaned string.
// Callers must re-parse the result; all downstream analysis uses the
// cleaned parse, never the original.
func Preprocess(src string) string {
	spans := FindCommentSpans(src)
	if len(spans) == 0 {
		return src
	}
	out := src
	for i := len(spans) - 1; i >= 0; i-- {
		s := spans[i]
		out = out[:s.Start] + out[s.End:]
	}
	return out
}
