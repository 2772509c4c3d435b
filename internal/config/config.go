// Package config loads logtail settings from a file, the environment and
// command line flags, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/seedtray/logtail"
	"github.com/seedtray/logtail/format"
	"github.com/seedtray/logtail/internal/diag"
	"github.com/seedtray/logtail/sink"
)

// EnvPrefix prefixes environment overrides, e.g. LOGTAIL_TAIL_PATH.
const EnvPrefix = "LOGTAIL"

// Config is the whole program configuration.
type Config struct {
	Tail   logtail.Config `mapstructure:"tail"`
	Format format.Config  `mapstructure:"format"`
	Sink   sink.Config    `mapstructure:"sink"`
	Log    diag.Config    `mapstructure:"log"`
}

// flagKeys maps command line flags to configuration keys.
var flagKeys = map[string]string{
	"path":            "tail.path",
	"backend":         "tail.backend",
	"from-start":      "tail.from_start",
	"wait-timeout":    "tail.wait_timeout",
	"missing-backoff": "tail.missing_backoff",
	"format":          "format.name",
	"pattern":         "format.pattern",
	"template":        "format.template",
	"sink":            "sink.kind",
	"ident":           "sink.ident",
	"facility":        "sink.facility",
	"log-file":        "log.file",
}

// RegisterFlags adds the flags Load understands.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("path", "", "log file to follow")
	fs.String("backend", "", "change notifier: inotify or fsnotify")
	fs.Bool("from-start", false, "read the content already in the file on first open")
	fs.Duration("wait-timeout", 0, "longest single wait for a change event")
	fs.Duration("missing-backoff", 0, "pause between checks for a missing file")
	fs.String("format", "", "format variant: uwsgi or template")
	fs.String("pattern", "", "regular expression for the template format")
	fs.String("template", "", "text/template rendering a record")
	fs.String("sink", "", "output: syslog or stdout")
	fs.String("ident", "", "syslog ident")
	fs.String("facility", "", "syslog facility")
	fs.String("log-file", "", "write diagnostics to this file instead of stderr")
}

func setDefaults(v *viper.Viper) {
	// Every key needs a default so AutomaticEnv can see it on Unmarshal.
	v.SetDefault("tail.path", "")
	v.SetDefault("tail.from_start", false)
	v.SetDefault("tail.block_size", logtail.DefaultBlockSize)
	v.SetDefault("tail.wait_timeout", logtail.DefaultWaitTimeout)
	v.SetDefault("tail.missing_backoff", logtail.DefaultMissingBackoff)
	v.SetDefault("tail.max_pending", logtail.DefaultMaxPending)
	v.SetDefault("tail.backend", logtail.DefaultBackend)
	v.SetDefault("format.name", format.NameUWSGI)
	v.SetDefault("format.pattern", "")
	v.SetDefault("format.dot_all", false)
	v.SetDefault("format.template", "")
	// LOGTAIL_FORMAT_CODES takes a comma separated list. format.match is a
	// map and can only come from the file.
	v.SetDefault("format.codes", []string{})
	v.SetDefault("sink.kind", sink.KindSyslog)
	v.SetDefault("sink.ident", "uWSGI")
	v.SetDefault("sink.facility", "local0")
	v.SetDefault("sink.severity", "info")
	v.SetDefault("sink.console", true)
	v.SetDefault("sink.network", "")
	v.SetDefault("sink.address", "")
	v.SetDefault("log.file", "")
	v.SetDefault("log.quiet", false)
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)
}

// Load reads file (if not empty), LOGTAIL_* variables and the flags in fs
// that were set explicitly.
func Load(file string, fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", file, err)
		}
	}

	if fs != nil {
		for name, key := range flagKeys {
			f := fs.Lookup(name)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings that cannot be defaulted.
func (c *Config) Validate() error {
	if c.Tail.Path == "" {
		return errors.New("tail.path is required")
	}
	if c.Format.Name == format.NameTemplate && c.Format.Pattern == "" {
		return errors.New("format.pattern is required for the template format")
	}
	return nil
}
