// Package golang generates Go client code from route classes.
//
// A ClassGenerator turns each route.RouteClass into a route group type with
// one method per route. A Composer aggregates route groups into a router
// type with one accessor per group; variant routers embed a base router so
// every base accessor stays callable without being redeclared.
//
// All output is collected in a Model. The model rejects name collisions,
// so a run either produces a complete, consistent file set or an error.
package golang

import (
	"cmp"
	"errors"
	"fmt"
	"path"
	"slices"
)

var (
	// ErrTypeExists is returned when a package already declares a name.
	ErrTypeExists = errors.New("type already exists")

	// ErrDuplicateMethod is returned when two routes of one class map to
	// the same method name.
	ErrDuplicateMethod = errors.New("duplicate method")

	// ErrDuplicateAccessor is returned when two route groups map to the
	// same router accessor, or an accessor would hide a base accessor.
	ErrDuplicateAccessor = errors.New("duplicate accessor")
)

// File is one generated source file.
type File struct {
	// Path is slash-separated and relative to the destination root.
	Path    string
	Content []byte
}

// Package is one Go package of generated output.
type Package struct {
	Path string // import path
	Name string // package name
	Dir  string // slash-separated directory relative to the destination root

	decls map[string]string // identifier -> owner, for diagnostics
	files map[string]*File
}

// Declare records a package-level identifier. It fails with ErrTypeExists
// if the identifier is already declared.
func (p *Package) Declare(name, owner string) error {
	if prev, ok := p.decls[name]; ok {
		return fmt.Errorf("%w: %s.%s declared for %s, again for %s", ErrTypeExists, p.Path, name, prev, owner)
	}
	p.decls[name] = owner
	return nil
}

// Declared reports whether name is declared in the package.
func (p *Package) Declared(name string) bool {
	_, ok := p.decls[name]
	return ok
}

func (p *Package) addFile(name string, content []byte) (*File, error) {
	if _, ok := p.files[name]; ok {
		return nil, fmt.Errorf("%w: file %s in %s", ErrTypeExists, name, p.Path)
	}
	f := &File{Path: path.Join(p.Dir, name), Content: content}
	p.files[name] = f
	return f, nil
}

// Model holds the generated packages of one run.
type Model struct {
	packages map[string]*Package
}

// NewModel returns an empty model.
func NewModel() *Model {
	return &Model{packages: make(map[string]*Package)}
}

// Package returns the package with the given import path, creating it in
// dir on first use. The package name is derived from dir.
func (m *Model) Package(importPath, dir string) (*Package, error) {
	dir = path.Clean(dir)
	if p, ok := m.packages[importPath]; ok {
		if p.Dir != dir {
			return nil, fmt.Errorf("package %s used for both %s and %s", importPath, p.Dir, dir)
		}
		return p, nil
	}
	p := &Package{
		Path:  importPath,
		Name:  packageName(dir),
		Dir:   dir,
		decls: make(map[string]string),
		files: make(map[string]*File),
	}
	m.packages[importPath] = p
	return p, nil
}

// Files returns every generated file, sorted by path.
func (m *Model) Files() []File {
	var files []File
	for _, p := range m.packages {
		for _, f := range p.files {
			files = append(files, *f)
		}
	}
	slices.SortFunc(files, func(a, b File) int {
		return cmp.Compare(a.Path, b.Path)
	})
	return files
}
