// Package linkcheck extracts links and anchors from a parsed document and verifies them.
package linkcheck

import (
	"fmt"
	"path/filepath"

	"git.home.luguber.info/inful/mdlinkcheck/internal/markdown"
)

// LinkKind distinguishes the ways a document can point somewhere.
type LinkKind int

const (
	// DirectLink is an inline link carrying its own href.
	DirectLink LinkKind = iota
	// ReferenceUse names a reference label instead of an href.
	ReferenceUse
	// ReferenceDefinition binds a label to an href.
	ReferenceDefinition
)

// String returns the kind name used in reports.
func (k LinkKind) String() string {
	switch k {
	case DirectLink:
		return "link"
	case ReferenceUse:
		return "reference"
	case ReferenceDefinition:
		return "definition"
	default:
		return "unknown"
	}
}

// MarshalText encodes the kind by name.
func (k LinkKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// ParseLinkKind is the inverse of LinkKind.String.
func ParseLinkKind(s string) LinkKind {
	switch s {
	case "reference":
		return ReferenceUse
	case "definition":
		return ReferenceDefinition
	default:
		return DirectLink
	}
}

// Link is one extracted link fact.
type Link struct {
	Kind  LinkKind
	Text  string
	Href  string // DirectLink and ReferenceDefinition
	Label string // ReferenceUse and ReferenceDefinition
}

// Target returns the href, or the label for reference uses.
func (l Link) Target() string {
	if l.Kind == ReferenceUse {
		return l.Label
	}
	return l.Href
}

// Reason categorises a broken link.
type Reason string

const (
	ReasonAnchor     Reason = "broken relative (anchor) link"
	ReasonFilesystem Reason = "broken relative (filesystem) link"
	ReasonReference  Reason = "broken reference link"
)

// Diagnostic is a single broken-link finding.
type Diagnostic struct {
	File   string   `json:"file"`
	Reason Reason   `json:"reason"`
	Kind   LinkKind `json:"kind"`
	Text   string   `json:"text"`
	Href   string   `json:"href"`
}

// String renders the diagnostic as "<file>: Found <reason>: <text> - <href>".
func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: Found %s: %s - %s", d.File, d.Reason, d.Text, d.Href)
}

// Less orders diagnostics by file, then href, reason and text.
func (d Diagnostic) Less(o Diagnostic) bool {
	if d.File != o.File {
		return d.File < o.File
	}
	if d.Href != o.Href {
		return d.Href < o.Href
	}
	if d.Reason != o.Reason {
		return d.Reason < o.Reason
	}
	return d.Text < o.Text
}

// DocumentContext is the per-file state shared by the extraction and verification passes.
type DocumentContext struct {
	Path       string
	Dir        string
	References map[string]markdown.Reference

	anchors   []string
	anchorSet map[string]struct{}
}

// NewDocumentContext creates the context for the document at path.
func NewDocumentContext(path string) *DocumentContext {
	return &DocumentContext{
		Path:      path,
		Dir:       filepath.Dir(path),
		anchorSet: make(map[string]struct{}),
	}
}

// AddAnchor records a declared anchor. Duplicates are kept in declaration order.
func (dc *DocumentContext) AddAnchor(anchor string) {
	dc.anchors = append(dc.anchors, anchor)
	dc.anchorSet[anchor] = struct{}{}
}

// HasAnchor reports whether anchor was declared anywhere in the document.
func (dc *DocumentContext) HasAnchor(anchor string) bool {
	_, ok := dc.anchorSet[anchor]
	return ok
}

// Anchors returns the declared anchors in declaration order.
func (dc *DocumentContext) Anchors() []string {
	return dc.anchors
}
