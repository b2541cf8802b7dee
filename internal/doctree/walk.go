package doctree

import "strings"

// VisitFunc is called once for every node reached by Walk.
type VisitFunc func(n *Node)

// Walk traverses v depth-first in document order. Lists are walked element by element;
// a node is visited before its content, and its content is only descended into when it
// is a list. Scalars end the recursion.
func Walk(v Value, fn VisitFunc) {
	switch {
	case v.IsNode():
		WalkNode(v.Node, fn)
	case v.IsList():
		for _, item := range v.List {
			Walk(item, fn)
		}
	}
}

// WalkNode visits n and everything structurally contained in it.
func WalkNode(n *Node, fn VisitFunc) {
	if n == nil {
		return
	}
	fn(n)
	if n.Content.IsList() {
		for _, item := range n.Content.List {
			Walk(item, fn)
		}
	}
}

// Text concatenates the text-bearing descendants of v.
// Space and line breaks render as a single space; inline code contributes its literal text.
func Text(v Value) string {
	var b strings.Builder
	Walk(v, func(n *Node) {
		switch n.Kind {
		case KindStr:
			if s, ok := n.Content.String(); ok {
				b.WriteString(s)
			}
		case KindSpace, KindSoftBreak, KindLineBreak:
			b.WriteByte(' ')
		case KindCode:
			// Code is [attr, text]
			if s, ok := n.Content.At(n.Content.Len() - 1).String(); ok {
				b.WriteString(s)
			}
		}
	})
	return b.String()
}

// KindStats counts nodes by kind.
func KindStats(v Value) map[string]int {
	stats := make(map[string]int)
	Walk(v, func(n *Node) {
		stats[n.Kind]++
	})
	return stats
}
