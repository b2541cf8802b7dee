package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"git.home.luguber.info/inful/mdlinkcheck/internal/doctree"
	"git.home.luguber.info/inful/mdlinkcheck/internal/foundation/errors"
	"git.home.luguber.info/inful/mdlinkcheck/internal/linkcheck"
	"git.home.luguber.info/inful/mdlinkcheck/internal/markdown"
)

// LinksCmd implements the 'links' debugging command.
type LinksCmd struct {
	File   string `arg:"" help:"Markdown file to inspect"`
	Parser string `help:"Parser backend: auto, pandoc or goldmark (overrides config)"`
}

// Run prints "text : href" for every link in the file, then node kind statistics.
func (c *LinksCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	if c.Parser != "" {
		cfg.Parser.Backend = c.Parser
	}

	raw, err := os.ReadFile(c.File) // #nosec G304 -- file is supplied by the operator
	if err != nil {
		return errors.WrapError(err, errors.CategoryUsage, "cannot read file").
			WithContext("path", c.File).
			Build()
	}

	parser := markdown.New(markdown.Options{
		Backend:    cfg.Parser.Backend,
		PandocPath: cfg.Parser.PandocPath,
		Format:     cfg.Parser.Format,
		Timeout:    cfg.ParserTimeout(),
	})
	doc, err := parser.Parse(context.Background(), raw)
	if err != nil {
		return err
	}
	return printLinks(g, doc)
}

func printLinks(g *Global, doc *markdown.Document) error {
	for _, l := range linkcheck.ExtractLinks(doc.Blocks) {
		if l.Kind == linkcheck.ReferenceDefinition {
			continue
		}
		if _, err := fmt.Fprintf(g.Stdout, "%s : %s\n", l.Text, l.Target()); err != nil {
			return err
		}
	}

	stats, err := json.MarshalIndent(doctree.KindStats(doc.Blocks), "", "  ")
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "failed to encode statistics").Build()
	}
	_, err = fmt.Fprintf(g.Stdout, "Type Stats:\n%s\n", stats)
	return err
}
