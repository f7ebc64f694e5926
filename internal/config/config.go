// Package config loads the restroutes.toml configuration of the CLI,
// applies defaults and RESTROUTES_* environment overrides, and validates
// the result.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"

	"github.com/broady/restroutes/routegen"
	"github.com/broady/restroutes/routegen/descriptor"
	"github.com/broady/restroutes/routegen/provider"
)

const (
	// FileName is the configuration file looked up in the working
	// directory when no explicit path is given.
	FileName = "restroutes.toml"

	EnvModule      = "RESTROUTES_MODULE"
	EnvProvider    = "RESTROUTES_PROVIDER"
	EnvProviderDir = "RESTROUTES_PROVIDER_DIR"
	EnvBuildTags   = "RESTROUTES_BUILD_TAGS"
	EnvLogLevel    = "RESTROUTES_LOG_LEVEL"
	EnvLogFormat   = "RESTROUTES_LOG_FORMAT"
)

var validate = validator.New()

// Config is the root configuration.
type Config struct {
	// Module is the import path of the destination root. When empty it
	// is resolved from the go.mod enclosing the destination.
	Module string `toml:"module"`

	Provider ProviderConfig  `toml:"provider"`
	Shared   SurfaceConfig   `toml:"shared"`
	Variants []SurfaceConfig `toml:"variants" validate:"dive"`
	Logging  LoggingConfig   `toml:"logging"`
}

// ProviderConfig selects where resource descriptors come from.
type ProviderConfig struct {
	Kind provider.Kind `toml:"kind" validate:"oneof=source file"`

	// Dir is the directory namespaces are resolved against.
	Dir string `toml:"dir" validate:"required"`

	// Tags are build tags used when loading Go packages.
	Tags []string `toml:"tags"`
}

// SurfaceConfig configures one generated package.
type SurfaceConfig struct {
	Name      string `toml:"name" validate:"required"`
	Namespace string `toml:"namespace" validate:"required"`
	Package   string `toml:"package" validate:"required"`
	Router    string `toml:"router" validate:"required"`
}

// LoggingConfig configures the CLI logger.
type LoggingConfig struct {
	Level  string `toml:"level" validate:"oneof=debug info warn error"`
	Format string `toml:"format" validate:"oneof=text json"`
}

// Load reads the configuration at path. An empty path reads FileName
// from the working directory and tolerates its absence.
func Load(path string) (*Config, error) {
	optional := path == ""
	if optional {
		path = FileName
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if optional && errors.Is(err, fs.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	dec := toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return nil, fmt.Errorf("parse config %s: %s", path, strict.String())
		}
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &cfg, nil
}

// Finalize applies defaults, loads environment overrides, and validates
// the configuration.
func (c *Config) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.Validate()
}

// Validate checks a finalized configuration. It is called again after
// command-line overrides are applied.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", descriptor.FormatValidationError(err))
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.Provider.Kind == "" {
		c.Provider.Kind = provider.KindSource
	}
	if c.Provider.Dir == "" {
		c.Provider.Dir = "."
	}
	if c.Shared == (SurfaceConfig{}) && len(c.Variants) == 0 {
		c.Shared = surfaceConfig(routegen.DefaultShared)
		for _, v := range routegen.DefaultVariants {
			c.Variants = append(c.Variants, surfaceConfig(v))
		}
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvModule); v != "" {
		c.Module = v
	}
	if v := os.Getenv(EnvProvider); v != "" {
		c.Provider.Kind = provider.Kind(v)
	}
	if v := os.Getenv(EnvProviderDir); v != "" {
		c.Provider.Dir = v
	}
	if v := os.Getenv(EnvBuildTags); v != "" {
		c.Provider.Tags = strings.Split(v, ",")
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		c.Logging.Format = strings.ToLower(v)
	}
}

// Surfaces returns the shared surface and the variants in order.
func (c *Config) Surfaces() (routegen.Surface, []routegen.Surface) {
	variants := make([]routegen.Surface, len(c.Variants))
	for i, v := range c.Variants {
		variants[i] = v.surface()
	}
	return c.Shared.surface(), variants
}

// Source builds the configured descriptor source.
func (c *Config) Source(logger *slog.Logger) (descriptor.Source, error) {
	return provider.New(c.Provider.Kind, c.Provider.Dir, logger, c.Provider.Tags...)
}

func (s SurfaceConfig) surface() routegen.Surface {
	return routegen.Surface{Name: s.Name, Namespace: s.Namespace, Package: s.Package, Router: s.Router}
}

func surfaceConfig(s routegen.Surface) SurfaceConfig {
	return SurfaceConfig{Name: s.Name, Namespace: s.Namespace, Package: s.Package, Router: s.Router}
}

// NewLogger returns a text or JSON logger writing to w at the configured
// level.
func (l LoggingConfig) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: l.slogLevel()}
	if l.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func (l LoggingConfig) slogLevel() slog.Level {
	switch l.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
