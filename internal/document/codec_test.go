package document

import (
	"math/rand"
	"reflect"
	"strings"
	"testing"
)

func TestRoundTrip_Constructs(t *testing.T) {
	cases := []struct {
		name string
		tree *Node
	}{
		{
			name: "paragraph",
			tree: NewRoot(NewParagraph(NewText("hello world", 0))),
		},
		{
			name: "heading levels",
			tree: NewRoot(
				NewHeading(1, NewText("one", 0)),
				NewHeading(3, NewText("three", 0)),
				NewHeading(5, NewText("five", 0)),
			),
		},
		{
			name: "quote",
			tree: NewRoot(NewQuote(NewText("said so", 0))),
		},
		{
			name: "unordered list",
			tree: NewRoot(NewList(false,
				NewListItem(NewText("first", 0)),
				NewListItem(NewText("second", 0)),
			)),
		},
		{
			name: "ordered list",
			tree: NewRoot(NewList(true,
				NewListItem(NewText("first", 0)),
				NewListItem(NewText("second", 0)),
			)),
		},
		{
			name: "code block",
			tree: NewRoot(NewCode("go", "func main() {}\nvar x = 1")),
		},
		{
			name: "code block no language",
			tree: NewRoot(NewCode("", "plain")),
		},
		{
			name: "empty code block",
			tree: NewRoot(NewCode("sh", "")),
		},
		{
			name: "link",
			tree: NewRoot(NewParagraph(
				NewText("see ", 0),
				NewLink("https://example.com/a", NewText("here", 0)),
			)),
		},
		{
			name: "image",
			tree: NewRoot(NewParagraph(NewImage("/api/entries/e1/attachments/a1", "sunset"))),
		},
		{
			name: "format flags",
			tree: NewRoot(NewParagraph(
				NewText("b", FormatBold),
				NewText(" mid ", 0),
				NewText("i", FormatItalic),
				NewText(" and ", 0),
				NewText("u", FormatUnderline),
				NewText(" then ", 0),
				NewText("s", FormatStrikethrough),
				NewText(" code ", 0),
				NewText("c", FormatCode),
			)),
		},
		{
			name: "combined format flags",
			tree: NewRoot(NewParagraph(
				NewText("all", FormatBold|FormatItalic|FormatStrikethrough|FormatUnderline),
			)),
		},
		{
			name: "formatted link text",
			tree: NewRoot(NewParagraph(
				NewLink("https://x.test/y", NewText("strong", FormatBold)),
			)),
		},
		{
			name: "mixed blocks",
			tree: NewRoot(
				NewHeading(2, NewText("day", 0)),
				NewParagraph(NewText("woke up early", 0)),
				NewQuote(NewText("carpe diem", 0)),
				NewList(false, NewListItem(NewText("coffee", 0))),
			),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.tree.Validate(); err != nil {
				t.Fatalf("test tree invalid: %v", err)
			}
			text := Serialize(tc.tree)
			got := Parse(text)
			if !reflect.DeepEqual(got, tc.tree) {
				t.Errorf("round trip mismatch\ntext:\n%s\ngot:  %#v\nwant: %#v", text, got, tc.tree)
			}
			// Serialization must be deterministic.
			if again := Serialize(got); again != text {
				t.Errorf("serialize not stable: %q vs %q", again, text)
			}
		})
	}
}

func TestParse_PlainTextPreserved(t *testing.T) {
	inputs := []string{
		"just some words",
		"unclosed **marker without end",
		"stray ] bracket and ( paren",
		"a_b_c stays visible",
	}
	for _, in := range inputs {
		out := Serialize(Parse(in))
		if visible(out) != visible(in) {
			t.Errorf("visible text changed: %q -> %q", in, out)
		}
	}
}

// visible strips the canonical delimiters so the comparison sees only what
// a reader sees.
func visible(s string) string {
	r := strings.NewReplacer("**", "", "_", "", "~~", "", "<u>", "", "</u>", "", "`", "")
	return r.Replace(s)
}

func TestParse_TotalOnGarbage(t *testing.T) {
	inputs := []string{
		"",
		"\n\n\n",
		"![broken(",
		"```",
		"```go\nnever closed",
		"[]()",
		"> ",
	}
	for _, in := range inputs {
		root := Parse(in)
		if root == nil || root.Kind != KindRoot {
			t.Fatalf("Parse(%q) did not return a root", in)
		}
		if err := root.Validate(); err != nil {
			t.Errorf("Parse(%q) produced invalid tree: %v", in, err)
		}
	}
}

func TestParse_MultilineParagraphsSplit(t *testing.T) {
	root := Parse("first line\nsecond line")
	if len(root.Children) != 2 {
		t.Fatalf("expected 2 paragraphs, got %d", len(root.Children))
	}
	for _, c := range root.Children {
		if c.Kind != KindParagraph {
			t.Errorf("kind = %s, want paragraph", c.Kind)
		}
	}
}

func TestRoundTrip_RandomTrees(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 200; i++ {
		tree := randomTree(rng)
		if err := tree.Validate(); err != nil {
			t.Fatalf("generator produced invalid tree: %v", err)
		}
		text := Serialize(tree)
		got := Parse(text)
		if !reflect.DeepEqual(got, tree) {
			t.Fatalf("random round trip %d failed\ntext:\n%s\ngot:  %#v\nwant: %#v", i, text, got, tree)
		}
	}
}

// randomTree builds trees reachable through the supported editing
// operations: normalized inline runs (no two adjacent plain runs), safe
// word charset, non-empty blocks.
func randomTree(rng *rand.Rand) *Node {
	n := 1 + rng.Intn(5)
	blocks := make([]*Node, n)
	for i := range blocks {
		blocks[i] = randomBlock(rng)
	}
	return NewRoot(blocks...)
}

func randomBlock(rng *rand.Rand) *Node {
	switch rng.Intn(5) {
	case 0:
		return NewHeading(1+rng.Intn(MaxHeadingLevel), randomInline(rng)...)
	case 1:
		return NewQuote(randomInline(rng)...)
	case 2:
		items := make([]*Node, 1+rng.Intn(3))
		for i := range items {
			items[i] = NewListItem(randomInline(rng)...)
		}
		return NewList(rng.Intn(2) == 0, items...)
	case 3:
		lines := make([]string, 1+rng.Intn(3))
		for i := range lines {
			lines[i] = randomWord(rng)
		}
		lang := ""
		if rng.Intn(2) == 0 {
			lang = "go"
		}
		return NewCode(lang, strings.Join(lines, "\n"))
	default:
		return NewParagraph(randomInline(rng)...)
	}
}

func randomInline(rng *rand.Rand) []*Node {
	n := 1 + rng.Intn(3)
	out := make([]*Node, 0, n)
	lastPlain := false
	for i := 0; i < n; i++ {
		switch rng.Intn(4) {
		case 0:
			out = append(out, NewLink("https://x.test/"+randomWord(rng), NewText(randomWord(rng), randomFormat(rng))))
			lastPlain = false
		case 1:
			out = append(out, NewImage("staged:"+randomWord(rng), randomWord(rng)))
			lastPlain = false
		default:
			f := randomFormat(rng)
			if f == 0 && lastPlain {
				f = FormatBold
			}
			out = append(out, NewText(randomWord(rng), f))
			lastPlain = f == 0
		}
	}
	return out
}

func randomFormat(rng *rand.Rand) Format {
	return Format(rng.Intn(1 << 5))
}

const wordRunes = "abcdefghijklmnopqrstuvwxyz0123456789"

func randomWord(rng *rand.Rand) string {
	b := make([]byte, 3+rng.Intn(8))
	for i := range b {
		b[i] = wordRunes[rng.Intn(len(wordRunes))]
	}
	return string(b)
}
