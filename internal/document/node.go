// Package document implements the editable node-tree representation of a
// journal entry and its bidirectional conversion to canonical Markdown.
package document

import "fmt"

// Kind identifies a node variant. The set is closed: the codec and every
// renderer dispatch on it exhaustively.
type Kind uint8

const (
	KindRoot Kind = iota
	KindParagraph
	KindHeading
	KindList
	KindListItem
	KindQuote
	KindCode
	KindLink
	KindText
	KindImage
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindRoot:
		return "root"
	case KindParagraph:
		return "paragraph"
	case KindHeading:
		return "heading"
	case KindList:
		return "list"
	case KindListItem:
		return "listitem"
	case KindQuote:
		return "quote"
	case KindCode:
		return "code"
	case KindLink:
		return "link"
	case KindText:
		return "text"
	case KindImage:
		return "image"
	}
	return "unknown"
}

// Format is a set of independent text-run style flags.
type Format uint8

const (
	FormatBold Format = 1 << iota
	FormatItalic
	FormatUnderline
	FormatStrikethrough
	FormatCode
)

// Has reports whether all flags in f are set.
func (f Format) Has(flag Format) bool { return f&flag == flag }

// MaxHeadingLevel is the deepest heading the editor produces.
const MaxHeadingLevel = 5

// Node is one element of the document tree. Which fields are meaningful
// depends on Kind; the rest stay zero.
type Node struct {
	Kind     Kind
	Children []*Node // container kinds only

	Text   string // KindText
	Format Format // KindText

	Level    int    // KindHeading, 1..MaxHeadingLevel
	Ordered  bool   // KindList
	Language string // KindCode
	Code     string // KindCode raw content, no trailing fence

	URL string // KindLink

	Src string // KindImage locator (ephemeral or durable)
	Alt string // KindImage, stored unsanitized
}

// Constructors keep call sites terse; none of them validate, use Validate
// on the finished tree.

func NewRoot(blocks ...*Node) *Node      { return &Node{Kind: KindRoot, Children: blocks} }
func NewParagraph(inline ...*Node) *Node { return &Node{Kind: KindParagraph, Children: inline} }
func NewQuote(inline ...*Node) *Node     { return &Node{Kind: KindQuote, Children: inline} }
func NewListItem(inline ...*Node) *Node  { return &Node{Kind: KindListItem, Children: inline} }

func NewHeading(level int, inline ...*Node) *Node {
	return &Node{Kind: KindHeading, Level: level, Children: inline}
}

func NewList(ordered bool, items ...*Node) *Node {
	return &Node{Kind: KindList, Ordered: ordered, Children: items}
}

func NewCode(language, code string) *Node {
	return &Node{Kind: KindCode, Language: language, Code: code}
}

func NewLink(url string, inline ...*Node) *Node {
	return &Node{Kind: KindLink, URL: url, Children: inline}
}

func NewText(text string, format Format) *Node {
	return &Node{Kind: KindText, Text: text, Format: format}
}

func NewImage(src, alt string) *Node {
	return &Node{Kind: KindImage, Src: src, Alt: alt}
}

// legalChildren maps each container kind to the child kinds it accepts.
var legalChildren = map[Kind]map[Kind]bool{
	KindRoot: {
		KindParagraph: true, KindHeading: true, KindList: true,
		KindQuote: true, KindCode: true,
	},
	KindList:      {KindListItem: true},
	KindParagraph: {KindText: true, KindLink: true, KindImage: true},
	KindHeading:   {KindText: true, KindLink: true, KindImage: true},
	KindQuote:     {KindText: true, KindLink: true, KindImage: true},
	KindListItem:  {KindText: true, KindLink: true, KindImage: true},
	KindLink:      {KindText: true},
}

// IsContainer reports whether the kind may hold children.
func (k Kind) IsContainer() bool {
	_, ok := legalChildren[k]
	return ok
}

// Validate checks structural legality: the receiver must be a root container,
// every container holds only kinds legal under it, leaves hold no children,
// and heading levels are in range.
func (n *Node) Validate() error {
	if n.Kind != KindRoot {
		return fmt.Errorf("document: tree root must be a root container, got %s", n.Kind)
	}
	return n.validate()
}

func (n *Node) validate() error {
	if !n.Kind.IsContainer() {
		if len(n.Children) != 0 {
			return fmt.Errorf("document: %s node must be a leaf", n.Kind)
		}
		return nil
	}
	if n.Kind == KindHeading && (n.Level < 1 || n.Level > MaxHeadingLevel) {
		return fmt.Errorf("document: heading level %d out of range", n.Level)
	}
	allowed := legalChildren[n.Kind]
	for _, c := range n.Children {
		if !allowed[c.Kind] {
			return fmt.Errorf("document: %s node cannot contain %s", n.Kind, c.Kind)
		}
		if err := c.validate(); err != nil {
			return err
		}
	}
	return nil
}

// Walk calls fn for n and every descendant, depth-first.
func (n *Node) Walk(fn func(*Node)) {
	fn(n)
	for _, c := range n.Children {
		c.Walk(fn)
	}
}
