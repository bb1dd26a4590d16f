package config

import (
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

var sqlIdentRegex = regexp.MustCompile(`^[a-z_][a-z0-9_]{0,62}$`)

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterValidation("sqlident", func(fl validator.FieldLevel) bool {
		return sqlIdentRegex.MatchString(fl.Field().String())
	})
	return v
}

// Validate checks the source descriptors before any pass is scheduled.
func (c *AppConfig) Validate() error {
	if err := newValidator().Struct(c); err != nil {
		return errors.Wrap(err, "invalid source configuration")
	}

	tables := make(map[string]struct{}, len(c.Sources))
	for _, s := range c.Sources {
		if _, ok := tables[s.Table]; ok {
			return fmt.Errorf("table %s is used by more than one source", s.Table)
		}
		tables[s.Table] = struct{}{}

		if c.RequestInterval(s.Kind) <= 0 {
			return fmt.Errorf("source %s needs a positive min request interval", s.Kind)
		}
	}

	if c.Ingestion.BackfillFlushPages <= 0 {
		return fmt.Errorf("backfill flush pages must be positive, got %d", c.Ingestion.BackfillFlushPages)
	}
	if c.Ingestion.MaxPagesPerPass <= 0 {
		return fmt.Errorf("max pages per pass must be positive, got %d", c.Ingestion.MaxPagesPerPass)
	}

	return nil
}
