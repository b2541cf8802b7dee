package metrics

import (
	"os"
	"path/filepath"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/mdlinkcheck/internal/foundation/errors"
)

// WriteTextfile writes every metric gathered from g to path in the text exposition
// format. The file is replaced atomically.
func WriteTextfile(path string, g prom.Gatherer) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return errors.WrapError(err, errors.CategoryStore, "failed to create metrics directory").
				WithContext("path", path).
				Build()
		}
	}
	if err := prom.WriteToTextfile(path, g); err != nil {
		return errors.WrapError(err, errors.CategoryStore, "failed to write metrics textfile").
			WithContext("path", path).
			Build()
	}
	return nil
}
