package routegen

import (
	"fmt"
	"log/slog"
	"path"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/broady/restroutes/routegen/descriptor"
	"github.com/broady/restroutes/routegen/sink"
)

var validate = validator.New()

// Surface is one generated output package: the resources found under
// Namespace become route groups in Package, reachable through a router
// type named Router.
type Surface struct {
	// Name labels the surface in logs and results, e.g. "shared".
	Name string `validate:"required"`

	// Namespace is passed to the descriptor source. For the source
	// provider it is a package pattern such as "./rest/resources/...".
	Namespace string `validate:"required"`

	// Package is the slash-separated output directory relative to the
	// destination root, e.g. "generated/server".
	Package string `validate:"required"`

	// Router is the router type name, e.g. "ServerAPI".
	Router string `validate:"required"`
}

// Config holds the configuration for one generation run.
type Config struct {
	// Module is the import path of the destination root. Generated
	// packages are imported as Module + "/" + Surface.Package.
	Module string `validate:"required"`

	// Shared is generated first. Its router has no base.
	Shared Surface

	// Variants are generated after Shared and embed its router.
	Variants []Surface `validate:"dive"`

	// Provider supplies resource descriptors.
	Provider descriptor.Source `validate:"required"`

	// Sink receives the generated files. When nil, files are only
	// returned in the Result.
	Sink sink.Sink

	// Logger reports progress. If not set, slog.Default() is used.
	Logger *slog.Logger
}

// DefaultShared is the shared surface of a Graylog-style layout.
var DefaultShared = Surface{
	Name:      "shared",
	Namespace: "./shared/rest/resources/...",
	Package:   "generated/shared",
	Router:    "NodeAPI",
}

// DefaultVariants are the server and radio surfaces of a Graylog-style
// layout.
var DefaultVariants = []Surface{
	{
		Name:      "server",
		Namespace: "./rest/resources/...",
		Package:   "generated/server",
		Router:    "ServerAPI",
	},
	{
		Name:      "radio",
		Namespace: "./radio/rest/resources/...",
		Package:   "generated/radio",
		Router:    "RadioAPI",
	},
}

// applyConfigDefaults returns a copy of cfg with defaults filled in.
// The default surfaces are used only when no surface is configured.
func applyConfigDefaults(cfg *Config) *Config {
	out := *cfg
	if out.Shared == (Surface{}) && len(out.Variants) == 0 {
		out.Shared = DefaultShared
		out.Variants = append([]Surface(nil), DefaultVariants...)
	}
	if out.Logger == nil {
		out.Logger = slog.Default()
	}
	return &out
}

func (c *Config) validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", descriptor.FormatValidationError(err))
	}
	seen := make(map[string]bool)
	for _, s := range c.surfaces() {
		if seen[s.Name] {
			return fmt.Errorf("invalid config: surface %q configured twice", s.Name)
		}
		seen[s.Name] = true
		if !validDir(s.Package) {
			return fmt.Errorf("invalid config: surface %q: package %q must be a clean relative directory", s.Name, s.Package)
		}
	}
	return nil
}

func (c *Config) surfaces() []Surface {
	return append([]Surface{c.Shared}, c.Variants...)
}

func validDir(dir string) bool {
	return dir != "." && path.Clean(dir) == dir && !path.IsAbs(dir) &&
		!slices.Contains(strings.Split(dir, "/"), "..")
}
