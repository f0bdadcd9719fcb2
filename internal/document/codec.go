package document

import "strings"

// Parse converts canonical markdown into a node tree. Parsing is total: no
// input fails, unrecognized syntax degrades to plain text runs.
func Parse(text string) *Node {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(text, "\n")

	root := NewRoot()
	for i := 0; i < len(lines); {
		if strings.TrimSpace(lines[i]) == "" {
			i++
			continue
		}
		for _, t := range blockTransformers {
			node, consumed := t.open(lines, i)
			if consumed > 0 {
				root.Children = append(root.Children, node)
				i += consumed
				break
			}
		}
	}
	return root
}

// Serialize converts a node tree back into canonical markdown. It is pure
// and deterministic: the same tree always yields byte-identical text.
func Serialize(root *Node) string {
	blocks := make([]string, 0, len(root.Children))
	for _, b := range root.Children {
		for _, t := range blockTransformers {
			if s, ok := t.render(b); ok {
				blocks = append(blocks, s)
				break
			}
		}
	}
	return strings.Join(blocks, "\n\n")
}

// parseInline scans a single line of text. At each position the inline
// transformers are attempted in registry order; the first match wins and
// consumes its span. Runs of unmatched characters become plain text nodes.
func parseInline(s string) []*Node {
	var out []*Node
	var literal strings.Builder

	flush := func() {
		if literal.Len() > 0 {
			out = append(out, NewText(literal.String(), 0))
			literal.Reset()
		}
	}

	for i := 0; i < len(s); {
		matched := false
		for _, t := range inlineTransformers {
			if t.match == nil {
				continue
			}
			m := t.match.FindStringSubmatch(s[i:])
			if m == nil {
				continue
			}
			flush()
			out = append(out, t.parse(m)...)
			i += len(m[0])
			matched = true
			break
		}
		if !matched {
			literal.WriteByte(s[i])
			i++
		}
	}
	flush()
	return out
}

// renderInline serializes one inline node via the first transformer that
// claims it. Inline renderings concatenate with no separator.
func renderInline(n *Node) string {
	for _, t := range inlineTransformers {
		if t.render == nil {
			continue
		}
		if s, ok := t.render(n); ok {
			return s
		}
	}
	return ""
}

func renderInlineChildren(n *Node) string {
	var sb strings.Builder
	for _, c := range n.Children {
		sb.WriteString(renderInline(c))
	}
	return sb.String()
}
