package golang

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/broady/restroutes/routegen/descriptor"
)

// RuntimePackage is the import path of the package generated code uses
// to send requests.
const RuntimePackage = "github.com/broady/restroutes"

var versionSuffix = regexp.MustCompile(`^v[0-9]+$`)

// localPath marks local names that generated code declares itself, so no
// import is given them.
const localPath = "."

// importSpec is one line of an import block.
type importSpec struct {
	Name string // explicit local name; empty when it equals the package name
	Path string
}

// importSet assigns unique local names to the packages a generated file
// refers to.
type importSet struct {
	self   string            // import path of the file's own package
	local  map[string]string // import path -> local name
	paths  map[string]string // local name -> import path
	named  map[string]bool   // import paths whose declared name equals the local name
	used   map[string]bool
	direct []string // import paths in first-use order
}

func newImportSet(self string) *importSet {
	s := &importSet{
		self:  self,
		local: make(map[string]string),
		paths: make(map[string]string),
		named: make(map[string]bool),
		used:  make(map[string]bool),
	}
	s.reserve("context", "context")
	s.reserve(RuntimePackage, "restroutes")
	for _, name := range locals {
		s.paths[name] = localPath
	}
	return s
}

func (s *importSet) reserve(path, name string) {
	s.local[path] = name
	s.paths[name] = path
	s.named[path] = true
}

// use returns the qualifier for path, registering it on first use.
// Types of the file's own package need no qualifier.
func (s *importSet) use(path, declared string) string {
	if path == s.self {
		return ""
	}
	name, ok := s.local[path]
	if !ok {
		base := declared
		if base == "" {
			base = guessName(path)
		}
		name = base
		for i := 2; s.paths[name] != ""; i++ {
			name = fmt.Sprintf("%s%d", base, i)
		}
		s.local[path] = name
		s.paths[name] = path
		s.named[path] = declared != "" && declared == name
	}
	if !s.used[path] {
		s.used[path] = true
		s.direct = append(s.direct, path)
	}
	return name
}

// names returns every local name in use, so parameters can avoid them.
func (s *importSet) names() []string {
	var out []string
	for _, path := range s.direct {
		out = append(out, s.local[path])
	}
	return out
}

// specs returns the import block, sorted by path.
func (s *importSet) specs() []importSpec {
	paths := slices.Clone(s.direct)
	slices.Sort(paths)
	specs := make([]importSpec, 0, len(paths))
	for _, path := range paths {
		spec := importSpec{Path: path}
		if !s.named[path] {
			spec.Name = s.local[path]
		}
		specs = append(specs, spec)
	}
	return specs
}

// qualify renders name as seen from the file's package.
func (s *importSet) qualify(path, declared, name string) string {
	if q := s.use(path, declared); q != "" {
		return q + "." + name
	}
	return name
}

// typeExpr renders t as a Go type expression, registering the imports it
// needs.
func (s *importSet) typeExpr(t descriptor.TypeRef) (string, error) {
	switch t.Kind {
	case descriptor.KindBuiltin:
		return t.Name, nil
	case descriptor.KindNamed:
		if t.Package == "" {
			return "", fmt.Errorf("type %s has no package", t.Name)
		}
		return s.qualify(t.Package, t.PackageName, t.Name), nil
	case descriptor.KindPointer, descriptor.KindSlice:
		if t.Elem == nil {
			return "", fmt.Errorf("%s type without element", t.Kind)
		}
		elem, err := s.typeExpr(*t.Elem)
		if err != nil {
			return "", err
		}
		if t.Kind == descriptor.KindPointer {
			return "*" + elem, nil
		}
		return "[]" + elem, nil
	case descriptor.KindMap:
		if t.Key == nil || t.Elem == nil {
			return "", fmt.Errorf("map type without key or element")
		}
		key, err := s.typeExpr(*t.Key)
		if err != nil {
			return "", err
		}
		elem, err := s.typeExpr(*t.Elem)
		if err != nil {
			return "", err
		}
		return "map[" + key + "]" + elem, nil
	default:
		return "", fmt.Errorf("%s cannot be used as a Go type", t)
	}
}

// guessName derives a package name from an import path:
// "gopkg.in/yaml.v3" -> "yaml", "example.com/api/v2" -> "api",
// "github.com/x/go-models" -> "models".
func guessName(path string) string {
	elems := strings.Split(path, "/")
	name := elems[len(elems)-1]
	if versionSuffix.MatchString(name) && len(elems) > 1 {
		name = elems[len(elems)-2]
	}
	if i := strings.Index(name, ".v"); i > 0 {
		name = name[:i]
	}
	name = strings.TrimPrefix(name, "go-")
	return packageName(name)
}
