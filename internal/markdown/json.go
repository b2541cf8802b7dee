package markdown

import (
	"encoding/json"
	"io"

	"git.home.luguber.info/inful/mdlinkcheck/internal/doctree"
	"git.home.luguber.info/inful/mdlinkcheck/internal/foundation/errors"
)

// DecodeJSON reads one pandoc JSON document from r.
//
// Two layouts are accepted: a two element array [metadata, blocks], whose metadata may
// carry a "references" table, and an object with a "blocks" field, which has none.
func DecodeJSON(r io.Reader) (*Document, error) {
	var raw any
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, errors.WrapError(err, errors.CategoryParse, "malformed parser output").Build()
	}

	switch top := raw.(type) {
	case []any:
		if len(top) != 2 {
			return nil, errors.ParseError("unexpected document layout").
				WithContext("items", len(top)).
				Build()
		}
		return &Document{
			Blocks:     doctree.DecodeValue(top[1]),
			References: decodeReferences(top[0]),
			Backend:    BackendPandoc,
		}, nil
	case map[string]any:
		blocks, ok := top["blocks"]
		if !ok {
			return nil, errors.ParseError("document object has no blocks").Build()
		}
		return &Document{Blocks: doctree.DecodeValue(blocks), Backend: BackendPandoc}, nil
	default:
		return nil, errors.ParseError("unexpected document layout").Build()
	}
}

func decodeReferences(meta any) map[string]Reference {
	m, ok := meta.(map[string]any)
	if !ok {
		return nil
	}
	if inner, ok := m["unMeta"].(map[string]any); ok {
		m = inner
	}
	table, ok := m["references"].(map[string]any)
	if !ok {
		return nil
	}

	refs := make(map[string]Reference, len(table))
	for label, v := range table {
		ref := Reference{Label: label}
		switch def := v.(type) {
		case string:
			ref.Href = def
		case map[string]any:
			ref.Href, _ = def["href"].(string)
			ref.Title, _ = def["title"].(string)
		case []any:
			if len(def) > 0 {
				ref.Href, _ = def[0].(string)
			}
			if len(def) > 1 {
				ref.Title, _ = def[1].(string)
			}
		}
		refs[label] = ref
	}
	return refs
}
