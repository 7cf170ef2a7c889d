// SPDX-License-Identifier: MIT

// Package wikitext implements a hand-rolled wikitext parser and the
// downstream utilities that project a parsed page into a simplified,
// typed description tree. No suitable third-party wikitext parser
// exists, so the parser is hand-written directly on the standard
// library, not wrapped around a generic library.
//
// The parser produces a flat event list at every nesting level: Bold/Italic
// markers and StartTag/EndTag markers for inline containers are NOT paired
// into nested trees by the parser. Pairing them is the job of Simplify (see
// simplify.go), which applies an explicit push-down-stack discipline. Only
// genuine block containers — templates, links, headings, preformatted
// blocks, lists — hold real child subtrees.
package wikitext

// Kind identifies the variant of a parsed wikitext node.
type Kind int

const (
	KindFragment Kind = iota
	KindTemplate
	KindLink
	KindExternalLink
	KindBold
	KindItalic
	KindBoldItalic
	KindHeading
	KindComment
	KindCategory
	KindImage
	KindCharacterEntity
	KindMagicWord
	KindParagraphBreak
	KindNewline
	KindPreformatted
	KindText
	KindStartTag
	KindEndTag
	KindSelfClosingTag
	KindDefinitionList
	KindOrderedList
	KindUnorderedList
	KindListItem
	KindTable
)

func (k Kind) String() string {
	switch k {
	case KindFragment:
		return "Fragment"
	case KindTemplate:
		return "Template"
	case KindLink:
		return "Link"
	case KindExternalLink:
		return "ExternalLink"
	case KindBold:
		return "Bold"
	case KindItalic:
		return "Italic"
	case KindBoldItalic:
		return "BoldItalic"
	case KindHeading:
		return "Heading"
	case KindComment:
		return "Comment"
	case KindCategory:
		return "Category"
	case KindImage:
		return "Image"
	case KindCharacterEntity:
		return "CharacterEntity"
	case KindMagicWord:
		return "MagicWord"
	case KindParagraphBreak:
		return "ParagraphBreak"
	case KindNewline:
		return "Newline"
	case KindPreformatted:
		return "Preformatted"
	case KindText:
		return "Text"
	case KindStartTag:
		return "StartTag"
	case KindEndTag:
		return "EndTag"
	case KindSelfClosingTag:
		return "SelfClosingTag"
	case KindDefinitionList:
		return "DefinitionList"
	case KindOrderedList:
		return "OrderedList"
	case KindUnorderedList:
		return "UnorderedList"
	case KindListItem:
		return "ListItem"
	case KindTable:
		return "Table"
	default:
		return "Unknown"
	}
}

// Param is one parameter of a Template node. Unnamed (positional)
// parameters get a synthetic Name of "1", "2", … in source order.
type Param struct {
	Name     string
	Value    []*Node
	RawStart int
	RawEnd   int
}

// Node is a single parsed wikitext node, with byte offsets into the
// source string it was parsed from. Fields are populated according to
// Kind; see the per-kind comments below.
type Node struct {
	Kind     Kind
	Start    int
	End      int
	Text     string  // Text, CharacterEntity, MagicWord, Comment literal
	Name     string  // Template name; tag name for StartTag/EndTag/SelfClosingTag
	Level    int     // Heading level (number of '=' on each side)
	Target   string  // Link/Category target title; ExternalLink raw inner text
	Children []*Node // display text / body subtree, per Kind
	Params   []Param // Template only
}

// RawSlice returns the portion of src this node was parsed from.
func (n *Node) RawSlice(src string) string {
	if n == nil || n.Start < 0 || n.End > len(src) || n.Start > n.End {
		return ""
	}
	return src[n.Start:n.End]
}
