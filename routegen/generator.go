// Package routegen generates typed Go route groups and routers from
// annotated REST resources.
//
// A run scans one shared surface and any number of variant surfaces. Each
// surface becomes one Go package holding a route group type per resource
// and a router exposing them; variant routers embed the shared router.
//
// Example:
//
//	routegen.New(provider.NewSourceProvider()).
//	    Module("example.com/graylog").
//	    Shared(routegen.DefaultShared).
//	    Variant(routegen.DefaultVariants[0]).
//	    ToDir(ctx, "./")
package routegen

import (
	"context"
	"fmt"
	"log/slog"
	"path"

	"github.com/broady/restroutes/routegen/descriptor"
	"github.com/broady/restroutes/routegen/golang"
	"github.com/broady/restroutes/routegen/route"
	"github.com/broady/restroutes/routegen/sink"
)

// Result describes a finished generation run.
type Result struct {
	// Files are all generated files, sorted by path.
	Files []golang.File

	// Surfaces are in generation order: shared first.
	Surfaces []SurfaceResult
}

// SurfaceResult describes the output of one surface.
type SurfaceResult struct {
	Name string

	// Router is the generated router type name.
	Router string

	// Package is the import path of the generated package.
	Package string

	// Resources are the resource names that produced route groups.
	Resources []string

	// Routes are sorted by resource, then operation.
	Routes []route.Route
}

// Generate runs every configured surface and writes the result to
// cfg.Sink. Files are written only after every surface has been
// generated, so a failing run leaves the destination untouched.
func Generate(ctx context.Context, cfg *Config) (*Result, error) {
	cfg = applyConfigDefaults(cfg)
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	model := golang.NewModel()
	r := &run{
		cfg:      cfg,
		parser:   route.NewParser(cfg.Provider, route.WithLogger(cfg.Logger)),
		model:    model,
		classes:  golang.NewClassGenerator(model),
		composer: golang.NewComposer(model),
	}

	result := &Result{}
	shared, sr, err := r.surface(ctx, cfg.Shared, nil)
	if err != nil {
		return nil, err
	}
	result.Surfaces = append(result.Surfaces, sr)

	for _, v := range cfg.Variants {
		_, sr, err := r.surface(ctx, v, shared)
		if err != nil {
			return nil, err
		}
		result.Surfaces = append(result.Surfaces, sr)
	}

	result.Files = model.Files()
	if cfg.Sink == nil {
		return result, nil
	}
	for _, f := range result.Files {
		if err := cfg.Sink.WriteFile(ctx, f.Path, f.Content); err != nil {
			return nil, fmt.Errorf("write %s: %w", f.Path, err)
		}
	}
	cfg.Logger.InfoContext(ctx, "wrote generated files", slog.Int("files", len(result.Files)))
	return result, nil
}

type run struct {
	cfg      *Config
	parser   *route.Parser
	model    *golang.Model
	classes  *golang.ClassGenerator
	composer *golang.Composer
}

// surface parses, generates and composes one surface. base is the shared
// router for variants and nil for the shared surface itself.
func (r *run) surface(ctx context.Context, s Surface, base *golang.Router) (*golang.Router, SurfaceResult, error) {
	fail := func(err error) (*golang.Router, SurfaceResult, error) {
		return nil, SurfaceResult{}, fmt.Errorf("surface %s: %w", s.Name, err)
	}

	rcs, err := r.parser.Scan(ctx, s.Namespace)
	if err != nil {
		return fail(err)
	}
	route.Sort(rcs)

	pkg, err := r.model.Package(path.Join(r.cfg.Module, s.Package), s.Package)
	if err != nil {
		return fail(err)
	}

	sr := SurfaceResult{Name: s.Name, Package: pkg.Path}
	types := make([]*golang.ClassType, 0, len(rcs))
	for _, rc := range rcs {
		ct, err := r.classes.Generate(rc, pkg)
		if err != nil {
			return fail(fmt.Errorf("resource %s: %w", rc.Resource, err))
		}
		types = append(types, ct)
		sr.Resources = append(sr.Resources, rc.Resource)
		sr.Routes = append(sr.Routes, rc.Routes...)
	}

	router, err := r.composer.Compose(s.Router, types, pkg, base)
	if err != nil {
		return fail(err)
	}
	sr.Router = router.Name

	r.cfg.Logger.InfoContext(ctx, "generated surface",
		slog.String("surface", s.Name),
		slog.String("router", router.Name),
		slog.String("package", pkg.Path),
		slog.Int("resources", len(sr.Resources)),
		slog.Int("routes", len(sr.Routes)))
	return router, sr, nil
}

// Generator provides a fluent API over Generate.
// Create with New and configure with method chaining.
type Generator struct {
	cfg Config
}

// New creates a Generator reading resources from source.
func New(source descriptor.Source) *Generator {
	return &Generator{cfg: Config{Provider: source}}
}

// Module sets the import path of the destination root.
func (g *Generator) Module(importPath string) *Generator {
	g.cfg.Module = importPath
	return g
}

// Shared sets the shared surface.
func (g *Generator) Shared(s Surface) *Generator {
	g.cfg.Shared = s
	return g
}

// Variant adds a variant surface. Variants are generated in the order
// they are added.
func (g *Generator) Variant(s Surface) *Generator {
	g.cfg.Variants = append(g.cfg.Variants, s)
	return g
}

// Logger sets the logger used to report progress.
func (g *Generator) Logger(logger *slog.Logger) *Generator {
	g.cfg.Logger = logger
	return g
}

// ToDir generates and writes the files below dir. Existing files are
// only replaced if they were generated.
func (g *Generator) ToDir(ctx context.Context, dir string) (*Result, error) {
	return g.ToSink(ctx, sink.NewFilesystemSink(dir, []byte(golang.Header)))
}

// ToSink generates and writes the files to s.
func (g *Generator) ToSink(ctx context.Context, s sink.Sink) (*Result, error) {
	cfg := g.cfg
	cfg.Sink = s
	return Generate(ctx, &cfg)
}

// Generate returns the generated files without writing them.
func (g *Generator) Generate(ctx context.Context) (*Result, error) {
	cfg := g.cfg
	cfg.Sink = nil
	return Generate(ctx, &cfg)
}
