package config

import "time"

// Default values applied when configuration leaves a field empty.
const (
	DefaultWorkers       = 4
	DefaultPandocPath    = "pandoc"
	DefaultPandocFormat  = "markdown"
	DefaultParserTimeout = 30 * time.Second
	DefaultWatchDebounce = 500 * time.Millisecond
	DefaultNATSSubject   = "mdlinkcheck.broken_links"
)

// DefaultExcludeFolders lists folder names that are never scanned.
func DefaultExcludeFolders() []string {
	return []string{"build", "build_nodejs", "node_modules", ".git"}
}

// DefaultExtensions lists the extensions treated as Markdown documents.
func DefaultExtensions() []string {
	return []string{".md"}
}

// DefaultExternalPrefixes lists href prefixes assumed valid without checking.
// Matching is by plain prefix, so "http" also covers "https".
func DefaultExternalPrefixes() []string {
	return []string{"http", "mailto"}
}

func applyDefaults(cfg *Config) {
	if cfg.ExcludeFolders == nil {
		cfg.ExcludeFolders = DefaultExcludeFolders()
	}
	if len(cfg.Extensions) == 0 {
		cfg.Extensions = DefaultExtensions()
	}
	if len(cfg.ExternalPrefixes) == 0 {
		cfg.ExternalPrefixes = DefaultExternalPrefixes()
	}
	if cfg.Workers == 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.Parser.Backend == "" {
		cfg.Parser.Backend = BackendAuto
	}
	if cfg.Parser.PandocPath == "" {
		cfg.Parser.PandocPath = DefaultPandocPath
	}
	if cfg.Parser.Format == "" {
		cfg.Parser.Format = DefaultPandocFormat
	}
	if cfg.Parser.Timeout == "" {
		cfg.Parser.Timeout = DefaultParserTimeout.String()
	}
	if cfg.Output.Format == "" {
		cfg.Output.Format = FormatText
	}
	if cfg.NATS.Subject == "" {
		cfg.NATS.Subject = DefaultNATSSubject
	}
	if cfg.Watch.Debounce == "" {
		cfg.Watch.Debounce = DefaultWatchDebounce.String()
	}
}
