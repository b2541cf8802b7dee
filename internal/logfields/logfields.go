package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyFile       = "file"
	KeyRoot       = "root"
	KeyHref       = "href"
	KeyReason     = "reason"
	KeyBackend    = "backend"
	KeyStage      = "stage"
	KeyRunID      = "run_id"
	KeyCount      = "count"
	KeyDurationMS = "duration_ms"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func File(path string) slog.Attr      { return slog.String(KeyFile, path) }
func Root(path string) slog.Attr      { return slog.String(KeyRoot, path) }
func Href(h string) slog.Attr         { return slog.String(KeyHref, h) }
func Reason(r string) slog.Attr       { return slog.String(KeyReason, r) }
func Backend(name string) slog.Attr   { return slog.String(KeyBackend, name) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func RunID(id string) slog.Attr       { return slog.String(KeyRunID, id) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
