package doctree

// DecodeValue converts a value produced by encoding/json into a Value.
//
// Objects carrying a string "t" field are nodes and their "c" field is their content.
// Arrays are lists. Everything else, including objects without a kind tag, is kept as an
// opaque scalar so that unknown shapes never break traversal.
func DecodeValue(raw any) Value {
	switch x := raw.(type) {
	case []any:
		items := make([]Value, 0, len(x))
		for _, item := range x {
			items = append(items, DecodeValue(item))
		}
		return ListValue(items...)
	case map[string]any:
		kind, ok := x["t"].(string)
		if !ok {
			return ScalarValue(x)
		}
		n := &Node{Kind: kind}
		if c, has := x["c"]; has {
			n.Content = DecodeValue(c)
		}
		return NodeValue(n)
	case nil:
		return Value{}
	default:
		return ScalarValue(x)
	}
}
