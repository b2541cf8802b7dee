// Package doctree models a parsed Markdown document as a generic, recursively nested node tree.
//
// The shape follows the pandoc JSON AST: every node carries a kind tag and a content
// field that is a scalar payload, an ordered list of children, or a list that mixes
// scalar metadata with child lists (for example a Link is [attributes, inlines, [target, title]]).
// Different parser backends produce different arities; nothing in this package assumes one.
package doctree

// Node kinds shared by all parser backends.
const (
	KindLink      = "Link"
	KindRefLink   = "RefLink"
	KindRefDef    = "RefDef"
	KindRawInline = "RawInline"
	KindRawBlock  = "RawBlock"
	KindHeader    = "Header"
	KindStr       = "Str"
	KindSpace     = "Space"
	KindSoftBreak = "SoftBreak"
	KindLineBreak = "LineBreak"
	KindCode      = "Code"
	KindPara      = "Para"
	KindPlain     = "Plain"
)

// Node is one structural unit of a document. A node owns its content exclusively.
type Node struct {
	Kind    string
	Content Value
}

// Value is the content of a node: exactly one of Node, List or Scalar is meaningful.
// The zero Value is empty (a node without content, such as Space).
type Value struct {
	Node   *Node
	List   []Value
	Scalar any

	isList bool
}

// NodeValue wraps a node.
func NodeValue(n *Node) Value { return Value{Node: n} }

// ListValue wraps an ordered sequence of values. A nil slice still yields a list.
func ListValue(items ...Value) Value { return Value{List: items, isList: true} }

// ScalarValue wraps a scalar payload (string, number, bool, or an opaque object).
func ScalarValue(s any) Value { return Value{Scalar: s} }

// StringValue wraps a string payload.
func StringValue(s string) Value { return Value{Scalar: s} }

// IsNode reports whether v holds a node.
func (v Value) IsNode() bool { return v.Node != nil }

// IsList reports whether v holds a list.
func (v Value) IsList() bool { return v.isList || v.List != nil }

// IsEmpty reports whether v holds nothing at all.
func (v Value) IsEmpty() bool { return !v.IsNode() && !v.IsList() && v.Scalar == nil }

// String returns the scalar payload when it is a string.
func (v Value) String() (string, bool) {
	s, ok := v.Scalar.(string)
	return s, ok
}

// At returns the i-th element of a list value, or the empty Value when out of range.
func (v Value) At(i int) Value {
	if i < 0 || i >= len(v.List) {
		return Value{}
	}
	return v.List[i]
}

// Len returns the number of list elements.
func (v Value) Len() int { return len(v.List) }

// Append adds items to a list value and returns it.
func (v Value) Append(items ...Value) Value {
	return Value{List: append(v.List, items...), isList: true}
}

// New creates a node of the given kind with the given content.
func New(kind string, content Value) *Node {
	return &Node{Kind: kind, Content: content}
}

// Str creates a text node.
func Str(s string) *Node { return New(KindStr, StringValue(s)) }

// Space creates a space node.
func Space() *Node { return New(KindSpace, Value{}) }
