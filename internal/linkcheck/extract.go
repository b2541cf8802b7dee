package linkcheck

import (
	"git.home.luguber.info/inful/mdlinkcheck/internal/doctree"
)

// ExtractLinks returns every link, reference use and reference definition in blocks,
// in document order.
func ExtractLinks(blocks doctree.Value) []Link {
	var links []Link
	doctree.Walk(blocks, func(n *doctree.Node) {
		switch n.Kind {
		case doctree.KindLink:
			if link, ok := directLink(n.Content); ok {
				links = append(links, link)
			}
		case doctree.KindRefLink:
			// RefLink is [label, inlines]
			label, _ := n.Content.At(0).String()
			links = append(links, Link{
				Kind:  ReferenceUse,
				Label: label,
				Text:  doctree.Text(n.Content.At(1)),
			})
		case doctree.KindRefDef:
			// RefDef is [label, [href, title]]
			label, _ := n.Content.At(0).String()
			links = append(links, Link{
				Kind:  ReferenceDefinition,
				Label: label,
				Text:  label,
				Href:  firstString(n.Content.At(1)),
			})
		}
	})
	return links
}

// directLink reads a Link node without assuming its arity: the last element is the
// [target, title] pair and the one before it holds the display inlines.
func directLink(content doctree.Value) (Link, bool) {
	n := content.Len()
	if n < 2 {
		return Link{}, false
	}
	return Link{
		Kind: DirectLink,
		Text: doctree.Text(content.At(n - 2)),
		Href: firstString(content.At(n - 1)),
	}, true
}

func firstString(v doctree.Value) string {
	if s, ok := v.String(); ok {
		return s
	}
	for _, item := range v.List {
		if s, ok := item.String(); ok {
			return s
		}
	}
	return ""
}
