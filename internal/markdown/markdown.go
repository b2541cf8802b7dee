// Package markdown turns Markdown source into a doctree using either the pandoc
// executable or the in-process goldmark parser.
package markdown

import (
	"context"
	"log/slog"
	"os/exec"
	"sort"
	"time"

	"git.home.luguber.info/inful/mdlinkcheck/internal/doctree"
)

// Backend names reported on parsed documents.
const (
	BackendAuto     = "auto"
	BackendPandoc   = "pandoc"
	BackendGoldmark = "goldmark"
)

// Parser converts raw document bytes into a node tree.
type Parser interface {
	Parse(ctx context.Context, raw []byte) (*Document, error)
}

// Reference is a link reference definition as reported by the parser.
type Reference struct {
	Label string
	Href  string
	Title string
}

// Document is the parsed form of one Markdown file.
type Document struct {
	Blocks doctree.Value
	// References is nil when the backend exposes no reference table.
	References map[string]Reference
	Backend    string
}

// Options selects and configures a backend.
type Options struct {
	Backend    string
	PandocPath string
	Format     string
	Timeout    time.Duration
}

// New returns the parser for opts.Backend. "auto" picks pandoc when it is on PATH.
func New(opts Options) Parser {
	pandoc := &PandocParser{Path: opts.PandocPath, Format: opts.Format, Timeout: opts.Timeout}
	switch opts.Backend {
	case BackendPandoc:
		return pandoc
	case BackendGoldmark:
		return NewGoldmarkParser()
	}
	if _, err := exec.LookPath(pandoc.path()); err == nil {
		slog.Debug("Using pandoc parser backend", "path", pandoc.path())
		return pandoc
	}
	slog.Debug("pandoc not found, using goldmark parser backend")
	return NewGoldmarkParser()
}

// appendRefDefs adds one RefDef node per reference, ordered by label, to the end of blocks.
func appendRefDefs(blocks doctree.Value, refs map[string]Reference) doctree.Value {
	if len(refs) == 0 {
		return blocks
	}
	labels := make([]string, 0, len(refs))
	for label := range refs {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	if !blocks.IsList() {
		blocks = doctree.ListValue(blocks)
	}
	for _, label := range labels {
		ref := refs[label]
		def := doctree.New(doctree.KindRefDef, doctree.ListValue(
			doctree.StringValue(label),
			doctree.ListValue(doctree.StringValue(ref.Href), doctree.StringValue(ref.Title)),
		))
		blocks = blocks.Append(doctree.NodeValue(def))
	}
	return blocks
}
