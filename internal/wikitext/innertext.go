package wikitext

import "strings"

// InnerTextConfig controls how nodesInnerText flattens a subtree to plain
// text. StopAfterBr truncates the result at the first line-break tag,
// matching the "only the first alternate name" convention genre infoboxes
// use when listing several names separated by <br>.
type InnerTextConfig struct {
	StopAfterBr bool
}

// InnerText flattens a node's subtree into plain text, applying the two
// special-cased templates the original description-extraction logic
// relies on: {{lang|...}} contributes its "text" parameter (or second
// positional argument), and {{transliteration|...}}/{{tlit|...}}/{{transl|...}}
// contribute their third positional argument (or second, if there is no
// third) — because those templates' first arguments are language codes,
// not the text itself.
func InnerText(n *Node, cfg InnerTextConfig) string {
	var b strings.Builder
	nodesInnerText(&b, []*Node{n}, cfg)
	return b.String()
}

// NodesInnerText is the same as InnerText but over a flat list of
// sibling nodes, e.g. a template parameter's value.
func NodesInnerText(nodes []*Node, cfg InnerTextConfig) string {
	var b strings.Builder
	nodesInnerText(&b, nodes, cfg)
	return b.String()
}

func nodesInnerText(b *strings.Builder, nodes []*Node, cfg InnerTextConfig) {
	for _, n := range nodes {
		if nodeInnerText(b, n, cfg) {
			return
		}
	}
}

// nodeInnerText appends n's contribution to b. It returns true if a
// StopAfterBr truncation occurred and the caller should stop walking
// further siblings.
func nodeInnerText(b *strings.Builder, n *Node, cfg InnerTextConfig) bool {
	if n == nil {
		return false
	}
	switch n.Kind {
	case KindText, KindCharacterEntity, KindMagicWord:
		b.WriteString(n.Text)
	case KindLink:
		nodesInnerText(b, n.Children, cfg)
	case KindExternalLink:
		b.WriteString(n.Target)
	case KindTemplate:
		writeTemplateInnerText(b, n, cfg)
	case KindBold, KindItalic, KindBoldItalic, KindComment, KindCategory:
		// zero-width or non-contributing markers
	case KindHeading, KindPreformatted:
		nodesInnerText(b, n.Children, cfg)
	case KindSelfClosingTag:
		if n.Name == "br" {
			if cfg.StopAfterBr {
				return true
			}
			b.WriteString("\n")
		}
	case KindStartTag, KindEndTag:
		// inline container markers carry no text of their own
	case KindNewline:
		b.WriteString("\n")
	case KindParagraphBreak:
		b.WriteString("\n\n")
	case KindDefinitionList, KindOrderedList, KindUnorderedList, KindListItem:
		nodesInnerText(b, n.Children, cfg)
	case KindTable:
		// opaque; contributes nothing
	}
	return false
}

// writeTemplateInnerText special-cases {{lang}} and
// {{transliteration}}/{{tlit}}/{{transl}}, since they wrap the actual text
// content a genre field extraction needs; every other template
// (including {{nihongo}}) contributes nothing.
func writeTemplateInnerText(b *strings.Builder, n *Node, cfg InnerTextConfig) {
	switch n.Name {
	case "lang":
		if v := paramByName(n.Params, "text"); v != nil {
			nodesInnerText(b, v, cfg)
			return
		}
		if v := positionalParam(n.Params, 2); v != nil {
			nodesInnerText(b, v, cfg)
			return
		}
	case "transliteration", "tlit", "transl":
		if v := positionalParam(n.Params, 3); v != nil {
			nodesInnerText(b, v, cfg)
			return
		}
		if v := positionalParam(n.Params, 2); v != nil {
			nodesInnerText(b, v, cfg)
			return
		}
	}
	// Unrecognized templates contribute nothing to inner text; their
	// wikitext markup isn't meaningful prose.
}

func paramByName(params []Param, name string) []*Node {
	for _, p := range params {
		if p.Name == name {
			return p.Value
		}
	}
	return nil
}

// positionalParam returns the value of the nth positional parameter
// (1-indexed), counting only parameters whose synthetic name is numeric
// in source order.
func positionalParam(params []Param, n int) []*Node {
	count := 0
	for _, p := range params {
		if isPositionalName(p.Name) {
			count++
			if count == n {
				return p.Value
			}
		}
	}
	return nil
}

func isPositionalName(name string) bool {
	if name == "" {
		return false
	}
	for _, c := range name {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
