package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"git.home.luguber.info/inful/mdlinkcheck/internal/foundation/errors"
)

// Environment variables overriding configuration file values.
const (
	EnvParser     = "MDLINKCHECK_PARSER"
	EnvPandocPath = "MDLINKCHECK_PANDOC_PATH"
	EnvWorkers    = "MDLINKCHECK_WORKERS"
	EnvExclude    = "MDLINKCHECK_EXCLUDE"
	EnvNATSURL    = "MDLINKCHECK_NATS_URL"
	EnvHistoryDB  = "MDLINKCHECK_HISTORY_DB"
)

// loadEnvFile loads the first of .env/.env.local that exists.
// Existing process environment variables are not overwritten.
func loadEnvFile() {
	for _, envPath := range []string{".env", ".env.local"} {
		if _, err := os.Stat(envPath); err != nil {
			continue
		}
		if err := godotenv.Load(envPath); err != nil {
			slog.Warn("Failed to load environment file", "path", envPath, "error", err)
			continue
		}
		slog.Debug("Loaded environment variables", "path", envPath)
		return
	}
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv(EnvParser); v != "" {
		cfg.Parser.Backend = v
	}
	if v := os.Getenv(EnvPandocPath); v != "" {
		cfg.Parser.PandocPath = v
	}
	if v := os.Getenv(EnvWorkers); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.WrapError(err, errors.CategoryConfig, "invalid worker count in environment").
				Fatal().
				WithContext("variable", EnvWorkers).
				Build()
		}
		cfg.Workers = n
	}
	if v := os.Getenv(EnvExclude); v != "" {
		cfg.ExcludeFolders = SplitList(v)
	}
	if v := os.Getenv(EnvNATSURL); v != "" {
		cfg.NATS.URL = v
	}
	if v := os.Getenv(EnvHistoryDB); v != "" {
		cfg.HistoryDB = v
	}
	return nil
}

// SplitList splits a comma separated list, dropping blank items.
func SplitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
