// Package provider implements front ends that produce resource descriptors
// for the route parser.
//
// Two providers are available:
//
//   - SourceProvider reads annotated Go packages (//route: directives).
//   - FileProvider reads declarative YAML, JSON or TOML documents.
//
// Both implement descriptor.Source.
package provider

import (
	"fmt"
	"log/slog"

	"github.com/broady/restroutes/routegen/descriptor"
)

// Kind names a provider implementation.
type Kind string

const (
	KindSource Kind = "source"
	KindFile   Kind = "file"
)

var (
	_ descriptor.Source = (*SourceProvider)(nil)
	_ descriptor.Source = (*FileProvider)(nil)
)

// New returns the provider of the given kind rooted at dir. Build tags
// only apply to the source provider.
func New(kind Kind, dir string, logger *slog.Logger, tags ...string) (descriptor.Source, error) {
	switch kind {
	case KindSource, "":
		return NewSourceProvider(WithDir(dir), WithBuildTags(tags...), WithSourceLogger(logger)), nil
	case KindFile:
		return NewFileProvider(dir), nil
	default:
		return nil, fmt.Errorf("unknown provider %q (expected %s or %s)", kind, KindSource, KindFile)
	}
}
