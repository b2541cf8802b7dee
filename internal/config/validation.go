package config

import (
	"errors"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Validate checks the configuration for values the scanner cannot work with.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Workers, validation.Min(1), validation.Max(256)),
		validation.Field(&c.Extensions, validation.Required, validation.Each(validation.By(isExtension))),
		validation.Field(&c.ExcludeFolders, validation.Each(validation.By(isFolderName))),
		validation.Field(&c.Parser),
		validation.Field(&c.Output),
		validation.Field(&c.Watch),
	)
}

// Validate implements validation.Validatable.
func (p ParserConfig) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Backend, validation.Required, validation.In(BackendAuto, BackendPandoc, BackendGoldmark)),
		validation.Field(&p.Timeout, validation.By(isDuration)),
	)
}

// Validate implements validation.Validatable.
func (o OutputConfig) Validate() error {
	return validation.ValidateStruct(&o,
		validation.Field(&o.Format, validation.In(FormatText, FormatJSON)),
	)
}

// Validate implements validation.Validatable.
func (w WatchConfig) Validate() error {
	return validation.ValidateStruct(&w,
		validation.Field(&w.Debounce, validation.By(isDuration)),
		validation.Field(&w.Interval, validation.By(isDuration)),
	)
}

func isExtension(value any) error {
	s, _ := value.(string)
	if len(s) < 2 || !strings.HasPrefix(s, ".") {
		return errors.New("must start with a dot")
	}
	return nil
}

func isFolderName(value any) error {
	s, _ := value.(string)
	if s == "" || strings.ContainsAny(s, `/\`) {
		return errors.New("must be a single folder name")
	}
	return nil
}

func isDuration(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if _, err := time.ParseDuration(s); err != nil {
		return errors.New("must be a duration such as 30s")
	}
	return nil
}
