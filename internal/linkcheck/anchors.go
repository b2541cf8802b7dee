package linkcheck

import (
	"strings"

	"golang.org/x/net/html"

	"git.home.luguber.info/inful/mdlinkcheck/internal/doctree"
)

// CollectAnchors records every anchor declared in blocks. Named anchors come from raw
// HTML <a name> and <a id> tags; heading identifiers count when headingAnchors is set.
func CollectAnchors(dc *DocumentContext, blocks doctree.Value, headingAnchors bool) {
	doctree.Walk(blocks, func(n *doctree.Node) {
		switch n.Kind {
		case doctree.KindRawInline, doctree.KindRawBlock:
			format, _ := n.Content.At(0).String()
			if !strings.HasPrefix(strings.ToLower(format), "html") {
				return
			}
			raw, _ := n.Content.At(1).String()
			for _, name := range htmlAnchorNames(raw) {
				dc.AddAnchor("#" + name)
			}
		case doctree.KindHeader:
			if !headingAnchors {
				return
			}
			// Header is [level, [id, classes, attributes], inlines]
			if id, ok := n.Content.At(1).At(0).String(); ok && id != "" {
				dc.AddAnchor("#" + id)
			}
		}
	})
}

// htmlAnchorNames returns the name or id of every <a> start tag in raw.
func htmlAnchorNames(raw string) []string {
	if !strings.Contains(raw, "<") {
		return nil
	}
	var names []string
	z := html.NewTokenizer(strings.NewReader(raw))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return names
		case html.StartTagToken, html.SelfClosingTagToken:
			tag, hasAttr := z.TagName()
			if string(tag) != "a" || !hasAttr {
				continue
			}
			for {
				key, val, more := z.TagAttr()
				if k := string(key); (k == "name" || k == "id") && len(val) > 0 {
					names = append(names, string(val))
				}
				if !more {
					break
				}
			}
		}
	}
}
