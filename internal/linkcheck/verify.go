package linkcheck

import (
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"

	"git.home.luguber.info/inful/mdlinkcheck/internal/markdown"
)

// DefaultExternalPrefixes are the href prefixes treated as valid without checking.
var DefaultExternalPrefixes = []string{"http", "mailto"}

// Phase names a step of Check.
type Phase string

const (
	PhaseAnchorsCollected Phase = "anchors_collected"
	PhaseLinksCollected   Phase = "links_collected"
	PhaseVerified         Phase = "verified"
)

// Options tunes verification.
type Options struct {
	ExternalPrefixes []string
	HeadingAnchors   bool
	// OnPhase, when set, is called as Check completes each phase.
	OnPhase func(Phase)
}

func (o Options) enter(p Phase) {
	if o.OnPhase != nil {
		o.OnPhase(p)
	}
}

func (o Options) prefixes() []string {
	if len(o.ExternalPrefixes) == 0 {
		return DefaultExternalPrefixes
	}
	return o.ExternalPrefixes
}

// Result is the outcome of checking one document.
type Result struct {
	Path        string
	Anchors     []string
	Links       []Link
	Diagnostics []Diagnostic
}

// HasFindings returns true if any link is broken.
func (r *Result) HasFindings() bool {
	return len(r.Diagnostics) > 0
}

// Check collects anchors over the whole document before verifying any link, so links may
// point at anchors declared later in the file.
func Check(path string, doc *markdown.Document, opts Options) *Result {
	dc := NewDocumentContext(path)
	CollectAnchors(dc, doc.Blocks, opts.HeadingAnchors)
	opts.enter(PhaseAnchorsCollected)

	links := ExtractLinks(doc.Blocks)
	dc.References = ResolveReferences(doc)
	opts.enter(PhaseLinksCollected)

	result := &Result{Path: path, Anchors: dc.Anchors(), Links: links}
	for _, link := range links {
		if d := Verify(dc, link, opts); d != nil {
			result.Diagnostics = append(result.Diagnostics, *d)
		}
	}
	opts.enter(PhaseVerified)
	return result
}

// Verify checks a single link and returns a diagnostic when it is broken.
func Verify(dc *DocumentContext, link Link, opts Options) *Diagnostic {
	if link.Kind == ReferenceUse {
		if _, ok := LookupReference(dc.References, link.Label); ok {
			return nil
		}
		return diagnostic(dc, link, ReasonReference)
	}

	href := link.Href
	switch {
	case strings.HasPrefix(href, "#"):
		if dc.HasAnchor(href) {
			return nil
		}
		return diagnostic(dc, link, ReasonAnchor)
	case IsExternal(href, opts.prefixes()):
		return nil
	case pathExists(dc.Dir, href):
		return nil
	default:
		return diagnostic(dc, link, ReasonFilesystem)
	}
}

// IsExternal reports whether href starts with one of prefixes.
func IsExternal(href string, prefixes []string) bool {
	for _, p := range prefixes {
		if p != "" && strings.HasPrefix(href, p) {
			return true
		}
	}
	return false
}

// pathExists resolves href against dir, ignoring any fragment. The percent-decoded
// form is tried as well.
func pathExists(dir, href string) bool {
	target := href
	if i := strings.IndexByte(target, '#'); i >= 0 {
		target = target[:i]
	}

	candidates := []string{target}
	if decoded, err := url.PathUnescape(target); err == nil && decoded != target {
		candidates = append(candidates, decoded)
	}
	// Editors and filesystems disagree on composed vs decomposed accents.
	for _, c := range candidates {
		for _, form := range []norm.Form{norm.NFC, norm.NFD} {
			if v := form.String(c); !slices.Contains(candidates, v) {
				candidates = append(candidates, v)
			}
		}
	}
	for _, c := range candidates {
		p := filepath.FromSlash(c)
		if !filepath.IsAbs(p) {
			p = filepath.Join(dir, p)
		}
		if _, err := os.Stat(p); err == nil {
			return true
		}
	}
	return false
}

func diagnostic(dc *DocumentContext, link Link, reason Reason) *Diagnostic {
	return &Diagnostic{
		File:   dc.Path,
		Reason: reason,
		Kind:   link.Kind,
		Text:   link.Text,
		Href:   link.Target(),
	}
}

// SortDiagnostics orders diagnostics for stable output.
func SortDiagnostics(ds []Diagnostic) {
	sort.SliceStable(ds, func(i, j int) bool { return ds[i].Less(ds[j]) })
}
