package format

import (
	"fmt"

	"github.com/seedtray/logtail"
)

// Names of the built-in variants.
const (
	NameUWSGI    = "uwsgi"
	NameTemplate = "template"
)

// Config selects and parameterizes a variant.
type Config struct {
	Name     string            `mapstructure:"name"`
	Pattern  string            `mapstructure:"pattern"`
	DotAll   bool              `mapstructure:"dot_all"`
	Template string            `mapstructure:"template"`
	Match    map[string]string `mapstructure:"match"`
	Codes    []string          `mapstructure:"codes"`
}

// New builds the variant named by cfg.
func New(cfg Config) (logtail.Format, error) {
	switch cfg.Name {
	case "", NameUWSGI:
		return NewUWSGI(cfg.Codes)
	case NameTemplate:
		if cfg.Pattern == "" {
			return nil, fmt.Errorf("format %q needs a pattern", cfg.Name)
		}
		return NewTemplate(cfg.Pattern, cfg.DotAll, cfg.Template, cfg.Match)
	default:
		return nil, fmt.Errorf("unknown format %q", cfg.Name)
	}
}
