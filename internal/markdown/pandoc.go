package markdown

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"

	ferrors "git.home.luguber.info/inful/mdlinkcheck/internal/foundation/errors"
)

const (
	defaultPandocPath    = "pandoc"
	defaultPandocFormat  = "markdown"
	defaultPandocTimeout = 30 * time.Second
)

// PandocParser runs the pandoc executable once per document.
type PandocParser struct {
	Path    string
	Format  string
	Timeout time.Duration
}

func (p *PandocParser) path() string {
	if p.Path == "" {
		return defaultPandocPath
	}
	return p.Path
}

func (p *PandocParser) format() string {
	if p.Format == "" {
		return defaultPandocFormat
	}
	return p.Format
}

func (p *PandocParser) timeout() time.Duration {
	if p.Timeout <= 0 {
		return defaultPandocTimeout
	}
	return p.Timeout
}

// Parse feeds the normalised document to pandoc on stdin and decodes its JSON output.
func (p *PandocParser) Parse(ctx context.Context, raw []byte) (*Document, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout())
	defer cancel()

	// #nosec G204 -- executable comes from configuration, arguments are fixed
	cmd := exec.CommandContext(ctx, p.path(), "-f", p.format(), "-t", "json")
	cmd.Stdin = bytes.NewReader(Normalize(raw))
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryParse, "failed to open parser output").Build()
	}
	if err := cmd.Start(); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryParse, "failed to start pandoc").
			WithContext("path", p.path()).
			Build()
	}

	doc, decodeErr := DecodeJSON(stdout)
	// Drain so pandoc never blocks on a full pipe before exiting.
	_, _ = io.Copy(io.Discard, stdout)
	waitErr := cmd.Wait()

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return nil, ferrors.WrapError(ctx.Err(), ferrors.CategoryParse, "pandoc timed out").
			WithContext("timeout", p.timeout().String()).
			Build()
	}
	if waitErr != nil {
		cause := waitErr
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			cause = fmt.Errorf("%w: %s", waitErr, msg)
		}
		return nil, ferrors.WrapError(cause, ferrors.CategoryParse, "pandoc failed").
			WithContext("path", p.path()).
			Build()
	}
	if decodeErr != nil {
		return nil, decodeErr
	}

	doc.Blocks = appendRefDefs(doc.Blocks, doc.References)
	return doc, nil
}
