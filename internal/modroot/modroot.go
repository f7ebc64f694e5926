// Package modroot resolves the Go import path of a directory from the
// go.mod file enclosing it.
package modroot

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/mod/modfile"
	"golang.org/x/mod/module"
)

// ErrNoModule is returned when no go.mod encloses the directory.
var ErrNoModule = errors.New("no go.mod found")

// Module is the module enclosing a directory.
type Module struct {
	// Dir is the absolute directory holding go.mod.
	Dir string

	// Path is the module path declared in go.mod.
	Path string
}

// Find returns the module enclosing dir. dir need not exist yet; the
// search starts at its nearest ancestor.
func Find(dir string) (*Module, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	for d := abs; ; {
		gomod := filepath.Join(d, "go.mod")
		data, err := os.ReadFile(gomod)
		switch {
		case err == nil:
			return parse(gomod, data)
		case errors.Is(err, fs.ErrPermission):
			return nil, fmt.Errorf("read %s: %w", gomod, err)
		}
		parent := filepath.Dir(d)
		if parent == d {
			return nil, fmt.Errorf("%w above %s", ErrNoModule, abs)
		}
		d = parent
	}
}

func parse(gomod string, data []byte) (*Module, error) {
	f, err := modfile.ParseLax(gomod, data, nil)
	if err != nil {
		return nil, err
	}
	if f.Module == nil || f.Module.Mod.Path == "" {
		return nil, fmt.Errorf("%s: no module directive", gomod)
	}
	return &Module{Dir: filepath.Dir(gomod), Path: f.Module.Mod.Path}, nil
}

// ImportPath returns the import path that dir has within m.
func (m *Module) ImportPath(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(m.Dir, abs)
	if err != nil {
		return "", err
	}
	rel = filepath.ToSlash(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", fmt.Errorf("%s is outside module %s", dir, m.Path)
	}
	p := path.Join(m.Path, rel)
	if err := module.CheckImportPath(p); err != nil {
		return "", err
	}
	return p, nil
}

// ImportPath resolves the import path of dir from its enclosing module.
func ImportPath(dir string) (string, error) {
	m, err := Find(dir)
	if err != nil {
		return "", err
	}
	return m.ImportPath(dir)
}
