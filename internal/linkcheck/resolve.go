package linkcheck

import "git.home.luguber.info/inful/mdlinkcheck/internal/markdown"

// ResolveReferences returns the reference map links are checked against: the parser's
// table as-is, or nil when the backend produced none.
func ResolveReferences(doc *markdown.Document) map[string]markdown.Reference {
	if doc == nil {
		return nil
	}
	return doc.References
}

// LookupReference matches label against refs by exact string equality.
func LookupReference(refs map[string]markdown.Reference, label string) (markdown.Reference, bool) {
	if refs == nil {
		return markdown.Reference{}, false
	}
	ref, ok := refs[label]
	return ref, ok
}
