package document

import (
	"fmt"
	"regexp"
	"strings"
)

// The codec is driven by two explicit ordered registries. Order is
// load-bearing on the parse side: at each position the first transformer
// whose pattern matches wins. The image transformer MUST stay ahead of the
// link transformer because `[text](url)` is a textual suffix of
// `![alt](url)` and would shadow it.

// inlineTransformer owns one inline construct. match is anchored at the
// start of the remaining input; parse builds nodes from the submatches;
// render claims a node and returns its markdown span.
type inlineTransformer struct {
	name   string
	match  *regexp.Regexp
	parse  func(m []string) []*Node
	render func(n *Node) (string, bool)
}

// blockTransformer owns one block construct. open attempts to consume a
// block starting at lines[i] and reports how many lines it took.
type blockTransformer struct {
	name   string
	open   func(lines []string, i int) (*Node, int)
	render func(n *Node) (string, bool)
}

// altUnsafe matches characters that would corrupt the surrounding
// `![alt](src)` syntax on a later parse. They are stripped from the
// rendered alt only; the node keeps its stored value.
var altUnsafe = regexp.MustCompile(`[\[\]()\n]`)

// ImageMarkdown renders the canonical embed form with a sanitized alt.
// It is the single source of the `![alt](src)` encoding, shared by the
// codec and by the attachment upload response.
func ImageMarkdown(alt, src string) string {
	return fmt.Sprintf("![%s](%s)", altUnsafe.ReplaceAllString(alt, ""), src)
}

var imageTransformer = &inlineTransformer{
	name:  "image",
	match: regexp.MustCompile(`^!\[([^\[\]]*)\]\(([^()\n]+)\)`),
	parse: func(m []string) []*Node {
		return []*Node{NewImage(m[2], m[1])}
	},
	render: func(n *Node) (string, bool) {
		if n.Kind != KindImage {
			return "", false
		}
		return ImageMarkdown(n.Alt, n.Src), true
	},
}

var linkTransformer = &inlineTransformer{
	name:  "link",
	match: regexp.MustCompile(`^\[([^\[\]]*)\]\(([^()\n]+)\)`),
	parse: func(m []string) []*Node {
		// Bracket classes above already exclude nested links and images,
		// so the inner parse yields text runs only.
		return []*Node{NewLink(m[2], parseInline(m[1])...)}
	},
	render: func(n *Node) (string, bool) {
		if n.Kind != KindLink {
			return "", false
		}
		var sb strings.Builder
		for _, c := range n.Children {
			sb.WriteString(renderInline(c))
		}
		return fmt.Sprintf("[%s](%s)", sb.String(), n.URL), true
	},
}

var codeSpanTransformer = &inlineTransformer{
	name:  "code-span",
	match: regexp.MustCompile("^`([^`\n]+)`"),
	parse: func(m []string) []*Node {
		return []*Node{NewText(m[1], FormatCode)}
	},
}

// formatSpan builds a transformer for a wrapping style delimiter. The inner
// span is re-parsed and the flag is folded into every text run it contains,
// so stacked delimiters accumulate into one flag set.
func formatSpan(name, pattern string, flag Format) *inlineTransformer {
	re := regexp.MustCompile(pattern)
	return &inlineTransformer{
		name:  name,
		match: re,
		parse: func(m []string) []*Node {
			inner := parseInline(m[1])
			applyFormat(inner, flag)
			return inner
		},
	}
}

func applyFormat(nodes []*Node, flag Format) {
	for _, n := range nodes {
		switch n.Kind {
		case KindText:
			n.Format |= flag
		case KindLink:
			applyFormat(n.Children, flag)
		}
	}
}

// renderTextRun serializes a text run by wrapping its delimiters in a fixed
// order (code innermost, underline outermost) so that output is
// deterministic for any flag combination.
func renderTextRun(n *Node) (string, bool) {
	if n.Kind != KindText {
		return "", false
	}
	s := n.Text
	if n.Format.Has(FormatCode) {
		s = "`" + s + "`"
	}
	if n.Format.Has(FormatBold) {
		s = "**" + s + "**"
	}
	if n.Format.Has(FormatItalic) {
		s = "_" + s + "_"
	}
	if n.Format.Has(FormatStrikethrough) {
		s = "~~" + s + "~~"
	}
	if n.Format.Has(FormatUnderline) {
		s = "<u>" + s + "</u>"
	}
	return s, true
}

// inlineTransformers is evaluated in priority order during parse and in
// declaration order during render dispatch. Canonical delimiters are all
// distinct (bold `**`, italic `_`, strikethrough `~~`, underline `<u>`,
// code backtick), which keeps the leftmost-first scan unambiguous.
//
// Populated in init rather than at declaration: the transformer closures
// call parseInline/renderInline, which walk this very slice, so a literal
// initializer would form an initialization cycle.
var inlineTransformers []*inlineTransformer

func init() {
	inlineTransformers = []*inlineTransformer{
		imageTransformer, // before link: same closing shape, longer prefix
		linkTransformer,
		codeSpanTransformer,
		formatSpan("bold", `^\*\*(.+?)\*\*`, FormatBold),
		formatSpan("strikethrough", `^~~(.+?)~~`, FormatStrikethrough),
		formatSpan("underline", `^<u>(.+?)</u>`, FormatUnderline),
		formatSpan("italic", "^_([^_\n]+)_", FormatItalic),
		{name: "text", render: renderTextRun},
	}
}

var (
	codeFenceOpenRe  = regexp.MustCompile("^```(\\S*)$")
	codeFenceCloseRe = regexp.MustCompile("^```$")
	headingRe        = regexp.MustCompile(`^(#{1,5}) (.*)$`)
	quoteRe          = regexp.MustCompile(`^> ?(.*)$`)
	unorderedItemRe  = regexp.MustCompile(`^- (.*)$`)
	orderedItemRe    = regexp.MustCompile(`^\d+\. (.*)$`)
)

var codeBlockTransformer = &blockTransformer{
	name: "code",
	open: func(lines []string, i int) (*Node, int) {
		m := codeFenceOpenRe.FindStringSubmatch(lines[i])
		if m == nil {
			return nil, 0
		}
		var body []string
		j := i + 1
		for ; j < len(lines); j++ {
			if codeFenceCloseRe.MatchString(lines[j]) {
				return NewCode(m[1], strings.Join(body, "\n")), j - i + 1
			}
			body = append(body, lines[j])
		}
		// Unclosed fence: the rest of the input is code.
		return NewCode(m[1], strings.Join(body, "\n")), j - i
	},
	render: func(n *Node) (string, bool) {
		if n.Kind != KindCode {
			return "", false
		}
		if n.Code == "" {
			return "```" + n.Language + "\n```", true
		}
		return "```" + n.Language + "\n" + n.Code + "\n```", true
	},
}

var headingTransformer = &blockTransformer{
	name: "heading",
	open: func(lines []string, i int) (*Node, int) {
		m := headingRe.FindStringSubmatch(lines[i])
		if m == nil {
			return nil, 0
		}
		return NewHeading(len(m[1]), parseInline(m[2])...), 1
	},
	render: func(n *Node) (string, bool) {
		if n.Kind != KindHeading {
			return "", false
		}
		return strings.Repeat("#", n.Level) + " " + renderInlineChildren(n), true
	},
}

var quoteTransformer = &blockTransformer{
	name: "quote",
	open: func(lines []string, i int) (*Node, int) {
		m := quoteRe.FindStringSubmatch(lines[i])
		if m == nil {
			return nil, 0
		}
		return NewQuote(parseInline(m[1])...), 1
	},
	render: func(n *Node) (string, bool) {
		if n.Kind != KindQuote {
			return "", false
		}
		return "> " + renderInlineChildren(n), true
	},
}

var listTransformer = &blockTransformer{
	name: "list",
	open: func(lines []string, i int) (*Node, int) {
		ordered, text, ok := listItem(lines[i])
		if !ok {
			return nil, 0
		}
		items := []*Node{NewListItem(parseInline(text)...)}
		j := i + 1
		for ; j < len(lines); j++ {
			o, t, more := listItem(lines[j])
			if !more || o != ordered {
				break
			}
			items = append(items, NewListItem(parseInline(t)...))
		}
		return NewList(ordered, items...), j - i
	},
	render: func(n *Node) (string, bool) {
		if n.Kind != KindList {
			return "", false
		}
		out := make([]string, len(n.Children))
		for i, item := range n.Children {
			if n.Ordered {
				out[i] = fmt.Sprintf("%d. %s", i+1, renderInlineChildren(item))
			} else {
				out[i] = "- " + renderInlineChildren(item)
			}
		}
		return strings.Join(out, "\n"), true
	},
}

var paragraphTransformer = &blockTransformer{
	name: "paragraph",
	open: func(lines []string, i int) (*Node, int) {
		return NewParagraph(parseInline(lines[i])...), 1
	},
	render: func(n *Node) (string, bool) {
		if n.Kind != KindParagraph {
			return "", false
		}
		return renderInlineChildren(n), true
	},
}

// blockTransformers in parse priority order; paragraph is the total
// fallback and must stay last.
var blockTransformers = []*blockTransformer{
	codeBlockTransformer,
	headingTransformer,
	quoteTransformer,
	listTransformer,
	paragraphTransformer,
}

func listItem(line string) (ordered bool, text string, ok bool) {
	if m := unorderedItemRe.FindStringSubmatch(line); m != nil {
		return false, m[1], true
	}
	if m := orderedItemRe.FindStringSubmatch(line); m != nil {
		return true, m[1], true
	}
	return false, "", false
}
