package wikitext

import (
	"strconv"
	"strings"
)

// recognized inline/void tag names the simplifier cares about; a tag with
// any other name is not recognized as a tag at all and stays part of the
// surrounding Text node.
var knownTags = map[string]bool{
	"ref": true, "blockquote": true, "sup": true, "sub": true,
	"small": true, "nowiki": true, "references": true, "gallery": true,
	"br": true,
}

var urlSchemes = []string{"http://", "https://", "ftp://", "//"}

type parser struct {
	src string
	pos int
}

// Parse parses wikitext into a tree rooted at a Fragment node holding the
// flat top-level event list. Inline-markup pairing (bold/italic, the
// tag-based containers) is intentionally left undone here; see simplify.go.
func Parse(src string) *Node {
	p := &parser{src: src}
	children := p.parseRun(func(*parser) bool { return false })
	return &Node{Kind: KindFragment, Start: 0, End: len(src), Children: children}
}

func (p *parser) eof() bool { return p.pos >= len(p.src) }

func (p *parser) peekStr(s string) bool {
	return strings.HasPrefix(p.src[p.pos:], s)
}

func (p *parser) atLineStart() bool {
	return p.pos == 0 || p.src[p.pos-1] == '\n'
}

// parseRun collects nodes until stop reports true (without consuming) or EOF.
func (p *parser) parseRun(stop func(*parser) bool) []*Node {
	var nodes []*Node
	for !p.eof() && !stop(p) {
		n := p.parseOne(stop)
		if n == nil {
			break
		}
		nodes = append(nodes, n)
	}
	return nodes
}

func (p *parser) parseOne(stop func(*parser) bool) *Node {
	start := p.pos
	switch {
	case p.peekStr("<!--"):
		return p.parseComment()
	case p.peekStr("{{"):
		return p.parseTemplate()
	case p.peekStr("[["):
		return p.parseLinkOrCategory()
	case p.peekStr("[") && p.matchesURLScheme(p.pos + 1):
		return p.parseExternalLink()
	case p.peekStr("'''''"):
		p.pos += 5
		return &Node{Kind: KindBoldItalic, Start: start, End: p.pos}
	case p.peekStr("'''"):
		p.pos += 3
		return &Node{Kind: KindBold, Start: start, End: p.pos}
	case p.peekStr("''"):
		p.pos += 2
		return &Node{Kind: KindItalic, Start: start, End: p.pos}
	case p.peekStr("<"):
		if n := p.tryParseTag(); n != nil {
			return n
		}
	case p.peekStr("&"):
		if n := p.tryParseEntity(); n != nil {
			return n
		}
	case p.peekStr("__"):
		if n := p.tryParseMagicWord(); n != nil {
			return n
		}
	case p.atLineStart() && p.peekStr("="):
		if n := p.tryParseHeading(); n != nil {
			return n
		}
	case p.atLineStart() && p.peekStr("{|"):
		return p.parseTable()
	case p.atLineStart() && (p.peekStr(";") || p.peekStr(":")):
		return p.parseDefinitionList()
	case p.atLineStart() && p.peekStr("#"):
		return p.parseList(KindOrderedList, '#')
	case p.atLineStart() && p.peekStr("*"):
		return p.parseList(KindUnorderedList, '*')
	case p.atLineStart() && p.peekStr(" "):
		return p.parsePreformatted()
	case p.peekStr("\n") && p.newlineRunLength() >= 2:
		return p.parseParagraphBreak()
	}
	return p.parseText(stop)
}

// newlineRunLength returns the number of consecutive '\n' characters
// starting at the current position.
func (p *parser) newlineRunLength() int {
	n := 0
	for p.pos+n < len(p.src) && p.src[p.pos+n] == '\n' {
		n++
	}
	return n
}

func (p *parser) matchesURLScheme(at int) bool {
	if at > len(p.src) {
		return false
	}
	rest := p.src[at:]
	for _, scheme := range urlSchemes {
		if strings.HasPrefix(rest, scheme) {
			return true
		}
	}
	return false
}

func (p *parser) parseComment() *Node {
	start := p.pos
	p.pos += len("<!--")
	end := strings.Index(p.src[p.pos:], "-->")
	var body string
	if end < 0 {
		body = p.src[p.pos:]
		p.pos = len(p.src)
	} else {
		body = p.src[p.pos : p.pos+end]
		p.pos += end + len("-->")
	}
	return &Node{Kind: KindComment, Start: start, End: p.pos, Text: body}
}

func (p *parser) parseTemplate() *Node {
	start := p.pos
	p.pos += 2 // "{{"

	stop := func(pp *parser) bool { return pp.peekStr("}}") || pp.peekStr("|") }

	nameStart := p.pos
	p.parseRun(stop)
	name := normalizeTemplateName(p.src[nameStart:p.pos])

	var params []Param
	positional := 0
	for p.peekStr("|") {
		p.pos++ // consume "|"
		paramStart := p.pos
		valueNodes := p.parseRun(stop)
		raw := p.src[paramStart:p.pos]
		eq := findTopLevelEquals(raw)
		var pname string
		var value []*Node
		if eq >= 0 {
			pname = strings.TrimSpace(raw[:eq])
			// re-derive value nodes limited to the part after '='; since
			// nodes were parsed over the whole raw param, split by byte
			// offset instead of re-parsing.
			valOffset := paramStart + eq + 1
			value = sliceNodesFrom(valueNodes, valOffset)
			params = append(params, Param{Name: pname, Value: value, RawStart: valOffset, RawEnd: p.pos})
		} else {
			positional++
			pname = strconv.Itoa(positional)
			params = append(params, Param{Name: pname, Value: valueNodes, RawStart: paramStart, RawEnd: p.pos})
		}
	}
	if p.peekStr("}}") {
		p.pos += 2
	}
	return &Node{Kind: KindTemplate, Start: start, End: p.pos, Name: name, Params: params}
}

// findTopLevelEquals finds the first "=" in raw that isn't nested inside
// "{{...}}" or "[[...]]", distinguishing "name=value" params from
// positional values that merely happen to contain an "=" deeper inside
// (e.g. an external link query string).
func findTopLevelEquals(raw string) int {
	depthCurly, depthBracket := 0, 0
	for i := 0; i < len(raw); i++ {
		switch {
		case strings.HasPrefix(raw[i:], "{{"):
			depthCurly++
			i++
		case strings.HasPrefix(raw[i:], "}}"):
			if depthCurly > 0 {
				depthCurly--
			}
			i++
		case strings.HasPrefix(raw[i:], "[["):
			depthBracket++
			i++
		case strings.HasPrefix(raw[i:], "]]"):
			if depthBracket > 0 {
				depthBracket--
			}
			i++
		case raw[i] == '=' && depthCurly == 0 && depthBracket == 0:
			return i
		}
	}
	return -1
}

// sliceNodesFrom returns the subsequence of nodes whose Start is >= from.
// A Text node that begins before from and ends after it (e.g. the single
// "name=Rock music" run) is cut down to its part starting at from.
func sliceNodesFrom(nodes []*Node, from int) []*Node {
	var out []*Node
	for _, n := range nodes {
		switch {
		case n.Start >= from:
			out = append(out, n)
		case n.Kind == KindText && n.End > from:
			out = append(out, &Node{Kind: KindText, Start: from, End: n.End, Text: n.Text[from-n.Start:]})
		}
	}
	return out
}

func normalizeTemplateName(raw string) string {
	return strings.ToLower(collapseWhitespace(strings.TrimSpace(raw)))
}

func collapseWhitespace(s string) string {
	fields := strings.Fields(s)
	return strings.Join(fields, " ")
}

func (p *parser) parseLinkOrCategory() *Node {
	start := p.pos
	p.pos += 2 // "[["

	stop := func(pp *parser) bool { return pp.peekStr("]]") || pp.peekStr("|") }
	targetStart := p.pos
	p.parseRun(stop)
	target := strings.TrimSpace(p.src[targetStart:p.pos])

	var textNodes []*Node
	if p.peekStr("|") {
		p.pos++
		textNodes = p.parseRun(func(pp *parser) bool { return pp.peekStr("]]") })
	}
	if p.peekStr("]]") {
		p.pos += 2
	}

	if isCategoryTarget(target) {
		return &Node{Kind: KindCategory, Start: start, End: p.pos, Target: target}
	}
	if isImageTarget(target) {
		return &Node{Kind: KindImage, Start: start, End: p.pos, Target: target}
	}
	if len(textNodes) == 0 {
		textNodes = []*Node{{Kind: KindText, Start: start, End: p.pos, Text: target}}
	}
	return &Node{Kind: KindLink, Start: start, End: p.pos, Target: target, Children: textNodes}
}

func isCategoryTarget(target string) bool {
	return strings.HasPrefix(strings.ToLower(target), "category:")
}

func isImageTarget(target string) bool {
	lower := strings.ToLower(target)
	return strings.HasPrefix(lower, "file:") || strings.HasPrefix(lower, "image:")
}

func (p *parser) parseExternalLink() *Node {
	start := p.pos
	p.pos++ // "["
	contentStart := p.pos
	for !p.eof() && p.src[p.pos] != ']' && p.src[p.pos] != '\n' {
		p.pos++
	}
	inner := p.src[contentStart:p.pos]
	if p.peekStr("]") {
		p.pos++
	}
	return &Node{Kind: KindExternalLink, Start: start, End: p.pos, Target: inner}
}

func (p *parser) tryParseTag() *Node {
	start := p.pos
	if p.peekStr("</") {
		rest := p.src[p.pos+2:]
		gt := strings.IndexByte(rest, '>')
		if gt < 0 {
			return nil
		}
		name := strings.ToLower(strings.TrimSpace(rest[:gt]))
		if !knownTags[name] {
			return nil
		}
		p.pos += 2 + gt + 1
		return &Node{Kind: KindEndTag, Start: start, End: p.pos, Name: name}
	}

	rest := p.src[p.pos+1:]
	gt := strings.IndexByte(rest, '>')
	if gt < 0 {
		return nil
	}
	rawTag := rest[:gt]
	selfClosing := strings.HasSuffix(strings.TrimSpace(rawTag), "/")
	nameEnd := 0
	for nameEnd < len(rawTag) && !isTagNameBoundary(rawTag[nameEnd]) {
		nameEnd++
	}
	name := strings.ToLower(rawTag[:nameEnd])
	if !knownTags[name] {
		return nil
	}
	p.pos += 1 + gt + 1
	if selfClosing || name == "br" {
		return &Node{Kind: KindSelfClosingTag, Start: start, End: p.pos, Name: name}
	}
	return &Node{Kind: KindStartTag, Start: start, End: p.pos, Name: name}
}

func isTagNameBoundary(b byte) bool {
	return b == ' ' || b == '\t' || b == '/' || b == '>'
}

func (p *parser) tryParseEntity() *Node {
	start := p.pos
	semi := strings.IndexByte(p.src[p.pos:], ';')
	if semi < 0 || semi > 12 {
		return nil
	}
	raw := p.src[p.pos : p.pos+semi+1]
	decoded, ok := decodeEntity(raw)
	if !ok {
		return nil
	}
	p.pos += semi + 1
	return &Node{Kind: KindCharacterEntity, Start: start, End: p.pos, Text: decoded}
}

func (p *parser) tryParseMagicWord() *Node {
	start := p.pos
	rest := p.src[p.pos+2:]
	end := strings.Index(rest, "__")
	if end < 0 || end == 0 {
		return nil
	}
	word := rest[:end]
	for i := 0; i < len(word); i++ {
		c := word[i]
		if !(c >= 'A' && c <= 'Z' || c == '-') {
			return nil
		}
	}
	p.pos += 2 + end + 2
	return &Node{Kind: KindMagicWord, Start: start, End: p.pos, Text: "__" + word + "__"}
}

func (p *parser) tryParseHeading() *Node {
	start := p.pos
	lineEnd := strings.IndexByte(p.src[p.pos:], '\n')
	var line string
	if lineEnd < 0 {
		line = p.src[p.pos:]
	} else {
		line = p.src[p.pos : p.pos+lineEnd]
	}

	leading := 0
	for leading < len(line) && line[leading] == '=' {
		leading++
	}
	if leading < 1 {
		return nil
	}
	trimmed := strings.TrimRight(line, " \t")
	trailing := 0
	for trailing < len(trimmed) && trimmed[len(trimmed)-1-trailing] == '=' {
		trailing++
	}
	// A line of only "=" signs, or with nothing between the markers, is
	// not a heading.
	if trailing < 1 || len(trimmed) < leading+trailing {
		return nil
	}
	level := leading
	if trailing < level {
		level = trailing
	}
	if level > 6 {
		level = 6
	}
	innerStart := p.pos + level
	innerEnd := p.pos + len(trimmed) - level
	if innerEnd < innerStart {
		return nil
	}

	headingParser := &parser{src: p.src, pos: innerStart}
	children := headingParser.parseRun(func(pp *parser) bool { return pp.pos >= innerEnd })

	end := p.pos + len(line)
	if lineEnd >= 0 {
		end++ // consume the newline too
	}
	p.pos = end
	return &Node{Kind: KindHeading, Start: start, End: p.pos, Level: level, Children: children}
}

func (p *parser) parseTable() *Node {
	start := p.pos
	depth := 0
	for !p.eof() {
		switch {
		case p.peekStr("{|"):
			depth++
			p.pos += 2
		case p.peekStr("|}"):
			depth--
			p.pos += 2
			if depth <= 0 {
				return &Node{Kind: KindTable, Start: start, End: p.pos}
			}
		default:
			p.pos++
		}
	}
	return &Node{Kind: KindTable, Start: start, End: p.pos}
}

func (p *parser) parseDefinitionList() *Node {
	start := p.pos
	var items []*Node
	for p.atLineStart() && (p.peekStr(";") || p.peekStr(":")) {
		itemStart := p.pos
		p.pos++
		lineEnd := strings.IndexByte(p.src[p.pos:], '\n')
		var end int
		if lineEnd < 0 {
			end = len(p.src)
		} else {
			end = p.pos + lineEnd
		}
		itemParser := &parser{src: p.src, pos: p.pos}
		children := itemParser.parseRun(func(pp *parser) bool { return pp.pos >= end })
		p.pos = end
		if lineEnd >= 0 {
			p.pos++
		}
		items = append(items, &Node{Kind: KindListItem, Start: itemStart, End: p.pos, Children: children})
	}
	return &Node{Kind: KindDefinitionList, Start: start, End: p.pos, Children: items}
}

func (p *parser) parseList(kind Kind, marker byte) *Node {
	start := p.pos
	var items []*Node
	for p.atLineStart() && !p.eof() && p.src[p.pos] == marker {
		itemStart := p.pos
		p.pos++
		lineEnd := strings.IndexByte(p.src[p.pos:], '\n')
		var end int
		if lineEnd < 0 {
			end = len(p.src)
		} else {
			end = p.pos + lineEnd
		}
		itemParser := &parser{src: p.src, pos: p.pos}
		children := itemParser.parseRun(func(pp *parser) bool { return pp.pos >= end })
		p.pos = end
		if lineEnd >= 0 {
			p.pos++
		}
		items = append(items, &Node{Kind: KindListItem, Start: itemStart, End: p.pos, Children: children})
	}
	return &Node{Kind: kind, Start: start, End: p.pos, Children: items}
}

// parsePreformatted consumes every consecutive line starting with a
// leading space, per MediaWiki's preformatted-block convention. It does
// not special-case a blank line immediately ahead: an empty line starts
// with "\n", not " ", so the p.peekStr(" ") loop condition below already
// stops the block there without any extra lookahead.
func (p *parser) parsePreformatted() *Node {
	start := p.pos
	var children []*Node
	for p.atLineStart() && p.peekStr(" ") {
		p.pos++ // consume the leading space
		lineEnd := strings.IndexByte(p.src[p.pos:], '\n')
		var end int
		if lineEnd < 0 {
			end = len(p.src)
		} else {
			end = p.pos + lineEnd
		}
		lineParser := &parser{src: p.src, pos: p.pos}
		lineNodes := lineParser.parseRun(func(pp *parser) bool { return pp.pos >= end })
		children = append(children, lineNodes...)
		p.pos = end
		if lineEnd >= 0 {
			p.pos++
			children = append(children, &Node{Kind: KindNewline, Start: p.pos - 1, End: p.pos})
		}
	}
	return &Node{Kind: KindPreformatted, Start: start, End: p.pos, Children: children}
}

// parseParagraphBreak consumes a run of two or more consecutive '\n'
// characters. A lone '\n' is never passed to this function — it is left
// for parseText to fold into the surrounding prose, matching
// parse_wiki_text_2's lack of any single-newline node variant.
func (p *parser) parseParagraphBreak() *Node {
	start := p.pos
	for !p.eof() && p.src[p.pos] == '\n' {
		p.pos++
	}
	return &Node{Kind: KindParagraphBreak, Start: start, End: p.pos}
}

// parseText accumulates plain text up to the next recognized trigger or
// the stop condition.
func (p *parser) parseText(stop func(*parser) bool) *Node {
	start := p.pos
	if p.eof() {
		return nil
	}
	p.pos++
	for !p.eof() && !stop(p) && !isTriggerAt(p) {
		p.pos++
	}
	if p.pos == start {
		return nil
	}
	return &Node{Kind: KindText, Start: start, End: p.pos, Text: p.src[start:p.pos]}
}

func isTriggerAt(p *parser) bool {
	switch {
	case p.peekStr("<!--"), p.peekStr("{{"), p.peekStr("[["), p.peekStr("'"),
		p.peekStr("&"), p.peekStr("__"):
		return true
	case p.peekStr("\n"):
		// A lone newline is ordinary prose and stays inside the Text node;
		// only a run of two or more (a paragraph break) is its own node.
		return p.newlineRunLength() >= 2
	case p.peekStr("<"):
		return true
	case p.peekStr("["):
		return p.matchesURLScheme(p.pos + 1)
	case p.atLineStart() && (p.peekStr("=") || p.peekStr("{|") || p.peekStr(";") ||
		p.peekStr(":") || p.peekStr("#") || p.peekStr("*") || p.peekStr(" ")):
		return true
	}
	return false
}
