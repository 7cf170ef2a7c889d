package wikitext

import (
	"fmt"
	"strings"
)

// SimpleKind identifies the variant of a SimplifiedNode.
type SimpleKind int

const (
	SimpleFragment SimpleKind = iota
	SimpleTemplate
	SimpleLink
	SimpleExtLink
	SimpleBold
	SimpleItalic
	SimpleBlockquote
	SimpleSuperscript
	SimpleSubscript
	SimpleSmall
	SimplePreformatted
	SimpleText
	SimpleParagraphBreak
	SimpleNewline
)

// TemplateParameter is one (name, raw wikitext value) pair of a
// simplified Template node. Unnamed parameters carry synthetic names
// "1", "2", … in source order, same as the parser's Param.
type TemplateParameter struct {
	Name     string
	RawValue string
}

// SimplifiedNode is the typed, lossy projection of a parsed description
// that downstream rendering consumes. See Simplify.
type SimplifiedNode struct {
	Kind     SimpleKind
	Children []*SimplifiedNode // Fragment, Bold, Italic, Blockquote, Superscript, Subscript, Small, Preformatted
	Name     string            // Template
	Params   []TemplateParameter
	Text     string // Link/ExtLink display text, or Text literal
	Title    string // Link target
	Link     string // ExtLink URL
}

var tagContainerKind = map[string]SimpleKind{
	"blockquote": SimpleBlockquote,
	"sup":        SimpleSuperscript,
	"sub":        SimpleSubscript,
	"small":      SimpleSmall,
}

// Simplify converts a flat top-level node list (as produced by Parse, or
// by re-parsing a captured description slice) into a tree of
// SimplifiedNode. src is the original wikitext the nodes were parsed
// from, needed to recover raw parameter-value slices.
//
// This implements the push-down-stack discipline spec'd for inline
// markup: Bold/Italic/BoldItalic toggle a container on and off the top of
// the stack, the four tag-based containers push/pop on their start/end
// tags, and anything still open at the end of input is implicitly
// closed — wikitext is lenient about unbalanced markup and this must
// not reject it.
func Simplify(nodes []*Node, src string) []*SimplifiedNode {
	root := &SimplifiedNode{Kind: SimpleFragment}
	stack := []*SimplifiedNode{root}

	top := func() *SimplifiedNode { return stack[len(stack)-1] }
	appendToTop := func(n *SimplifiedNode) {
		if n == nil {
			return
		}
		t := top()
		t.Children = append(t.Children, n)
	}
	closeTop := func() {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		appendToTop(n)
	}

	for _, node := range nodes {
		switch node.Kind {
		case KindBold:
			if top().Kind == SimpleBold {
				closeTop()
			} else {
				stack = append(stack, &SimplifiedNode{Kind: SimpleBold})
			}
		case KindItalic:
			if top().Kind == SimpleItalic {
				closeTop()
			} else {
				stack = append(stack, &SimplifiedNode{Kind: SimpleItalic})
			}
		case KindBoldItalic:
			if top().Kind == SimpleItalic && len(stack) >= 2 && stack[len(stack)-2].Kind == SimpleBold {
				closeTop() // Italic
				closeTop() // Bold
			} else {
				stack = append(stack, &SimplifiedNode{Kind: SimpleBold})
				stack = append(stack, &SimplifiedNode{Kind: SimpleItalic})
			}
		case KindStartTag:
			if k, ok := tagContainerKind[node.Name]; ok {
				stack = append(stack, &SimplifiedNode{Kind: k})
			}
			// nowiki/references/gallery/ref starts: nothing to push, dropped.
		case KindEndTag:
			if k, ok := tagContainerKind[node.Name]; ok {
				stack = closeMatching(stack, k)
			}
		default:
			appendToTop(simplifyOne(node, src))
		}
	}

	for len(stack) > 1 {
		closeTop()
	}
	return root.Children
}

// closeMatching closes the innermost open container of kind k, including
// any intervening unclosed containers above it (wikitext tolerates
// crossed/unbalanced tags; we unwind rather than reject). If no such
// container is open, the end tag is ignored.
func closeMatching(stack []*SimplifiedNode, k SimpleKind) []*SimplifiedNode {
	idx := -1
	for i := len(stack) - 1; i >= 1; i-- {
		if stack[i].Kind == k {
			idx = i
			break
		}
	}
	if idx < 0 {
		return stack
	}
	for len(stack) > idx {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		newTop := stack[len(stack)-1]
		newTop.Children = append(newTop.Children, n)
	}
	return stack
}

// simplifyOne maps a single non-stack-managed node to its SimplifiedNode
// form. Node kinds with no case below are fatal: an unhandled kind
// reaching here means the mapping needs an explicit rule, not a silent
// default.
func simplifyOne(n *Node, src string) *SimplifiedNode {
	switch n.Kind {
	case KindTemplate:
		params := make([]TemplateParameter, 0, len(n.Params))
		for _, p := range n.Params {
			params = append(params, TemplateParameter{Name: p.Name, RawValue: src[p.RawStart:p.RawEnd]})
		}
		return &SimplifiedNode{Kind: SimpleTemplate, Name: n.Name, Params: params}
	case KindLink:
		return &SimplifiedNode{Kind: SimpleLink, Text: InnerText(n, InnerTextConfig{}), Title: n.Target}
	case KindExternalLink:
		text, link := splitExternalLink(n.Target)
		return &SimplifiedNode{Kind: SimpleExtLink, Text: text, Link: link}
	case KindText:
		return &SimplifiedNode{Kind: SimpleText, Text: n.Text}
	case KindCharacterEntity:
		return &SimplifiedNode{Kind: SimpleText, Text: n.Text}
	case KindParagraphBreak:
		return &SimplifiedNode{Kind: SimpleParagraphBreak}
	case KindNewline:
		// Only reachable via parsePreformatted's explicit per-line
		// separators; a lone newline in ordinary prose never becomes its
		// own node (see newlineRunLength in parser.go).
		return &SimplifiedNode{Kind: SimpleNewline}
	case KindSelfClosingTag:
		if n.Name == "br" {
			return &SimplifiedNode{Kind: SimpleNewline}
		}
		return nil
	case KindPreformatted:
		return &SimplifiedNode{Kind: SimplePreformatted, Children: Simplify(n.Children, src)}
	case KindMagicWord, KindCategory, KindComment, KindImage,
		KindDefinitionList, KindOrderedList, KindUnorderedList:
		return nil
	case KindStartTag, KindEndTag:
		// nowiki/references/gallery: no container, dropped.
		return nil
	case KindTable:
		// Tables essentially never occur inside a genre lead description;
		// treated as an opaque, droppable span rather than fatal.
		return nil
	default:
		panic(fmt.Sprintf("wikitext: unknown node type %s in simplified-tree conversion", n.Kind))
	}
}

// splitExternalLink implements the ExtLink text/link split: the inner
// bracket content is split on its first space, left side is display
// text and right side the URL; with no space, the text is the literal
// string "link" and the whole content is the URL.
func splitExternalLink(inner string) (text, link string) {
	idx := strings.IndexByte(inner, ' ')
	if idx < 0 {
		return "link", inner
	}
	return inner[:idx], inner[idx+1:]
}
