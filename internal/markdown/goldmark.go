package markdown

import (
	"bytes"
	"context"
	"log/slog"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/adrg/frontmatter"
	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"git.home.luguber.info/inful/mdlinkcheck/internal/doctree"
)

// fullReference matches "[text][label]" and "[text][]" in literal text runs.
// Goldmark leaves such uses as plain text when the label is undefined.
var fullReference = regexp.MustCompile(`\[([^\[\]]+)\]\[([^\[\]]*)\]`)

// GoldmarkParser parses documents in-process and maps the goldmark AST onto pandoc node kinds.
type GoldmarkParser struct {
	md goldmark.Markdown
}

// NewGoldmarkParser returns a parser with tables, strikethrough and heading ids enabled.
func NewGoldmarkParser() *GoldmarkParser {
	return &GoldmarkParser{md: goldmark.New(
		goldmark.WithExtensions(extension.Table, extension.Strikethrough),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	)}
}

// Parse implements Parser.
func (p *GoldmarkParser) Parse(ctx context.Context, raw []byte) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	body := stripFrontMatter(Normalize(raw))
	pctx := parser.NewContext()
	root := p.md.Parser().Parse(text.NewReader(body), parser.WithContext(pctx))

	refs := make(map[string]Reference)
	for _, ref := range pctx.References() {
		label := string(ref.Label())
		refs[label] = Reference{Label: label, Href: string(ref.Destination()), Title: string(ref.Title())}
	}

	c := &converter{source: body, pctx: pctx}
	return &Document{
		Blocks:     appendRefDefs(c.children(root), refs),
		References: refs,
		Backend:    BackendGoldmark,
	}, nil
}

func stripFrontMatter(raw []byte) []byte {
	var meta map[string]any
	body, err := frontmatter.Parse(bytes.NewReader(raw), &meta)
	if err != nil {
		slog.Debug("Ignoring unparsable front matter", "error", err)
		return raw
	}
	return body
}

type converter struct {
	source []byte
	pctx   parser.Context
}

// children converts the child nodes of n. Consecutive text siblings are also scanned for
// reference uses goldmark could not resolve.
func (c *converter) children(n gmast.Node) doctree.Value {
	out := doctree.ListValue()
	var run []*gmast.Text
	flush := func() {
		if len(run) > 0 {
			out = out.Append(c.unresolvedReferences(run)...)
			run = nil
		}
	}
	for ch := n.FirstChild(); ch != nil; ch = ch.NextSibling() {
		if t, ok := ch.(*gmast.Text); ok {
			run = append(run, t)
		} else {
			flush()
		}
		out = out.Append(c.convert(ch)...)
	}
	flush()
	return out
}

func (c *converter) convert(n gmast.Node) []doctree.Value {
	node := func(kind string, content doctree.Value) []doctree.Value {
		return []doctree.Value{doctree.NodeValue(doctree.New(kind, content))}
	}

	switch v := n.(type) {
	case *gmast.Text:
		out := []doctree.Value{doctree.NodeValue(doctree.Str(string(v.Segment.Value(c.source))))}
		switch {
		case v.HardLineBreak():
			out = append(out, doctree.NodeValue(doctree.New(doctree.KindLineBreak, doctree.Value{})))
		case v.SoftLineBreak():
			out = append(out, doctree.NodeValue(doctree.New(doctree.KindSoftBreak, doctree.Value{})))
		}
		return out
	case *gmast.String:
		return []doctree.Value{doctree.NodeValue(doctree.Str(string(v.Value)))}
	case *gmast.Paragraph:
		return node(doctree.KindPara, c.children(v))
	case *gmast.TextBlock:
		return node(doctree.KindPlain, c.children(v))
	case *gmast.Heading:
		id := ""
		if attr, ok := v.AttributeString("id"); ok {
			if b, ok := attr.([]byte); ok {
				id = string(b)
			}
		}
		return node(doctree.KindHeader, doctree.ListValue(
			doctree.ScalarValue(v.Level),
			attrValue(id),
			c.children(v),
		))
	case *gmast.Blockquote:
		return node("BlockQuote", c.children(v))
	case *gmast.List:
		items := doctree.ListValue()
		for item := v.FirstChild(); item != nil; item = item.NextSibling() {
			items = items.Append(c.children(item))
		}
		if v.IsOrdered() {
			return node("OrderedList", doctree.ListValue(doctree.ListValue(doctree.ScalarValue(v.Start)), items))
		}
		return node("BulletList", items)
	case *gmast.FencedCodeBlock:
		return node("CodeBlock", doctree.ListValue(attrValue(""), doctree.StringValue(c.lines(v))))
	case *gmast.CodeBlock:
		return node("CodeBlock", doctree.ListValue(attrValue(""), doctree.StringValue(c.lines(v))))
	case *gmast.HTMLBlock:
		raw := c.lines(v)
		if v.HasClosure() {
			raw += string(v.ClosureLine.Value(c.source))
		}
		return node(doctree.KindRawBlock, doctree.ListValue(doctree.StringValue("html"), doctree.StringValue(raw)))
	case *gmast.RawHTML:
		var b strings.Builder
		for i := 0; i < v.Segments.Len(); i++ {
			seg := v.Segments.At(i)
			b.Write(seg.Value(c.source))
		}
		return node(doctree.KindRawInline, doctree.ListValue(doctree.StringValue("html"), doctree.StringValue(b.String())))
	case *gmast.ThematicBreak:
		return node("HorizontalRule", doctree.Value{})
	case *gmast.CodeSpan:
		var b strings.Builder
		for ch := v.FirstChild(); ch != nil; ch = ch.NextSibling() {
			if t, ok := ch.(*gmast.Text); ok {
				b.Write(t.Segment.Value(c.source))
			}
		}
		return node(doctree.KindCode, doctree.ListValue(attrValue(""), doctree.StringValue(b.String())))
	case *gmast.Emphasis:
		kind := "Emph"
		if v.Level >= 2 {
			kind = "Strong"
		}
		return node(kind, c.children(v))
	case *gmast.Link:
		inlines := c.children(v)
		if label, ok := c.referenceLabel(v); ok {
			return node(doctree.KindRefLink, doctree.ListValue(doctree.StringValue(label), inlines))
		}
		return node(doctree.KindLink, doctree.ListValue(
			attrValue(""),
			inlines,
			doctree.ListValue(doctree.StringValue(string(v.Destination)), doctree.StringValue(string(v.Title))),
		))
	case *gmast.AutoLink:
		label := string(v.Label(c.source))
		url := string(v.URL(c.source))
		if v.AutoLinkType == gmast.AutoLinkEmail && !strings.HasPrefix(strings.ToLower(url), "mailto:") {
			url = "mailto:" + url
		}
		return node(doctree.KindLink, doctree.ListValue(
			attrValue(""),
			doctree.ListValue(doctree.NodeValue(doctree.Str(label))),
			doctree.ListValue(doctree.StringValue(url), doctree.StringValue("")),
		))
	case *gmast.Image:
		return node("Image", doctree.ListValue(
			attrValue(""),
			c.children(v),
			doctree.ListValue(doctree.StringValue(string(v.Destination)), doctree.StringValue(string(v.Title))),
		))
	default:
		return node(n.Kind().String(), c.children(n))
	}
}

func attrValue(id string) doctree.Value {
	return doctree.ListValue(doctree.StringValue(id), doctree.ListValue(), doctree.ListValue())
}

func (c *converter) lines(n gmast.Node) string {
	var b strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		b.Write(seg.Value(c.source))
	}
	return b.String()
}

// referenceLabel reports whether a resolved link was written in reference style and
// returns the label it used. Goldmark drops that distinction, so it is recovered from
// the source around the link text.
func (c *converter) referenceLabel(n *gmast.Link) (string, bool) {
	start, stop, ok := textBounds(n)
	if !ok {
		return "", false
	}
	src := c.source

	open := start - 1
	for open >= 0 && isInlineMarker(src[open]) {
		open--
	}
	closing := stop
	for closing < len(src) && isInlineMarker(src[closing]) {
		closing++
	}
	if open < 0 || src[open] != '[' || closing >= len(src) || src[closing] != ']' {
		return "", false
	}

	next := closing + 1
	if next < len(src) && src[next] == '(' {
		return "", false
	}
	if next < len(src) && src[next] == '[' {
		if end := bytes.IndexByte(src[next+1:], ']'); end > 0 {
			return string(src[next+1 : next+1+end]), true
		}
	}
	return string(src[open+1 : closing]), true
}

func isInlineMarker(b byte) bool {
	return b == '*' || b == '_' || b == '`' || b == '~'
}

// textBounds returns the source span covered by the text descendants of n.
func textBounds(n gmast.Node) (int, int, bool) {
	start, stop, found := 0, 0, false
	_ = gmast.Walk(n, func(child gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		if t, ok := child.(*gmast.Text); ok {
			if !found || t.Segment.Start < start {
				start = t.Segment.Start
			}
			if !found || t.Segment.Stop > stop {
				stop = t.Segment.Stop
			}
			found = true
		}
		return gmast.WalkContinue, nil
	})
	return start, stop, found
}

// unresolvedReferences emits RefLink nodes for "[text][label]" uses inside a run of
// text siblings whose label has no definition.
func (c *converter) unresolvedReferences(run []*gmast.Text) []doctree.Value {
	first, last := run[0].Segment, run[len(run)-1].Segment
	if first.Start >= last.Stop || last.Stop > len(c.source) {
		return nil
	}
	chunk := c.source[first.Start:last.Stop]

	var out []doctree.Value
	for _, m := range fullReference.FindAllSubmatchIndex(chunk, -1) {
		if !c.standaloneReference(first.Start, m) {
			continue
		}
		linkText := string(chunk[m[2]:m[3]])
		label := string(chunk[m[4]:m[5]])
		if label == "" {
			label = linkText
		}
		if _, ok := c.pctx.Reference(util.ToLinkReference([]byte(label))); ok {
			continue
		}
		out = append(out, doctree.NodeValue(doctree.New(doctree.KindRefLink, doctree.ListValue(
			doctree.StringValue(label),
			doctree.ListValue(doctree.NodeValue(doctree.Str(linkText))),
		))))
	}
	return out
}

// standaloneReference reports whether a fullReference match at offset base reads as a
// reference use rather than bracketed prose such as "m[i][j]" or "\[x\]\[y\]".
// None of its four brackets may be escaped, and the opening bracket must not follow a
// word character, "]" or "!".
func (c *converter) standaloneReference(base int, m []int) bool {
	open := base + m[0]
	for _, i := range []int{open, base + m[3], base + m[4] - 1, base + m[5]} {
		if escaped(c.source, i) {
			return false
		}
	}
	if open == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRune(c.source[:open])
	return r != '!' && r != ']' && r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

// escaped reports whether src[i] is preceded by an odd number of backslashes.
func escaped(src []byte, i int) bool {
	n := 0
	for j := i - 1; j >= 0 && src[j] == '\\'; j-- {
		n++
	}
	return n%2 == 1
}
