package descriptor

import (
	"fmt"
	"go/token"
	"strings"
)

// TypeKind identifies the shape of a TypeRef.
type TypeKind int

const (
	KindVoid    TypeKind = iota // "no value" marker; the zero TypeRef
	KindOpaque                  // generic opaque response marker
	KindBuiltin                 // predeclared Go type (string, int64, any, ...)
	KindNamed                   // package-qualified named type
	KindPointer                 // *Elem
	KindSlice                   // []Elem
	KindMap                     // map[Key]Elem
)

func (k TypeKind) String() string {
	switch k {
	case KindVoid:
		return "Void"
	case KindOpaque:
		return "Opaque"
	case KindBuiltin:
		return "Builtin"
	case KindNamed:
		return "Named"
	case KindPointer:
		return "Pointer"
	case KindSlice:
		return "Slice"
	case KindMap:
		return "Map"
	default:
		return "Unknown"
	}
}

// TypeRef is a semantic type reference. It carries enough information to
// render a Go type expression in a different package than the one it was
// discovered in.
type TypeRef struct {
	Kind TypeKind

	// Name is the builtin name or the named type's name.
	Name string

	// Package is the import path of a named type.
	Package string

	// PackageName is the declared package name, when known. It may differ
	// from the last element of Package (e.g. "yaml" for gopkg.in/yaml.v3).
	PackageName string

	Elem *TypeRef
	Key  *TypeRef
}

// Void returns the "no value" marker.
func Void() TypeRef { return TypeRef{Kind: KindVoid} }

// Opaque returns the generic opaque response marker.
func Opaque() TypeRef { return TypeRef{Kind: KindOpaque} }

// Builtin returns a reference to a predeclared type.
func Builtin(name string) TypeRef { return TypeRef{Kind: KindBuiltin, Name: name} }

// Named returns a reference to a named type in the package at pkgPath.
func Named(pkgPath, name string) TypeRef {
	return TypeRef{Kind: KindNamed, Package: pkgPath, Name: name}
}

// Ptr returns *t.
func Ptr(t TypeRef) TypeRef { return TypeRef{Kind: KindPointer, Elem: &t} }

// SliceOf returns []t.
func SliceOf(t TypeRef) TypeRef { return TypeRef{Kind: KindSlice, Elem: &t} }

// MapOf returns map[k]v.
func MapOf(k, v TypeRef) TypeRef { return TypeRef{Kind: KindMap, Key: &k, Elem: &v} }

// IsVoid reports whether t is the "no value" marker.
func (t TypeRef) IsVoid() bool { return t.Kind == KindVoid }

// IsOpaque reports whether t is the opaque response marker.
func (t TypeRef) IsOpaque() bool { return t.Kind == KindOpaque }

// String renders t in the syntax accepted by ParseType.
func (t TypeRef) String() string {
	switch t.Kind {
	case KindVoid:
		return "void"
	case KindOpaque:
		return "response"
	case KindBuiltin:
		return t.Name
	case KindNamed:
		if t.Package == "" {
			return t.Name
		}
		return t.Package + "." + t.Name
	case KindPointer:
		return "*" + t.elem().String()
	case KindSlice:
		return "[]" + t.elem().String()
	case KindMap:
		return "map[" + t.key().String() + "]" + t.elem().String()
	default:
		return "<invalid>"
	}
}

// Equal reports whether t and u describe the same type.
func (t TypeRef) Equal(u TypeRef) bool {
	return t.String() == u.String()
}

func (t TypeRef) elem() TypeRef {
	if t.Elem == nil {
		return TypeRef{}
	}
	return *t.Elem
}

func (t TypeRef) key() TypeRef {
	if t.Key == nil {
		return TypeRef{}
	}
	return *t.Key
}

var builtins = map[string]bool{
	"any": true, "bool": true, "byte": true, "error": true, "rune": true, "string": true,
	"int": true, "int8": true, "int16": true, "int32": true, "int64": true,
	"uint": true, "uint8": true, "uint16": true, "uint32": true, "uint64": true, "uintptr": true,
	"float32": true, "float64": true, "complex64": true, "complex128": true,
}

// IsBuiltin reports whether name is a predeclared Go type name.
func IsBuiltin(name string) bool {
	return builtins[name]
}

// ParseType parses a type expression.
//
// Accepted forms:
//
//	void                          the "no value" marker
//	response                      the opaque response marker
//	string, int64, any, ...       predeclared types
//	example.com/models.Input      named type, qualified by import path
//	*T, []T, map[K]V              composites of the above
func ParseType(s string) (TypeRef, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return TypeRef{}, fmt.Errorf("empty type expression")
	case s == "void":
		return Void(), nil
	case s == "response":
		return Opaque(), nil
	case s == "interface{}":
		return Builtin("any"), nil
	case strings.HasPrefix(s, "*"):
		elem, err := parseElem(s[1:], s)
		if err != nil {
			return TypeRef{}, err
		}
		return Ptr(elem), nil
	case strings.HasPrefix(s, "[]"):
		elem, err := parseElem(s[2:], s)
		if err != nil {
			return TypeRef{}, err
		}
		return SliceOf(elem), nil
	case strings.HasPrefix(s, "map["):
		return parseMap(s)
	case IsBuiltin(s):
		return Builtin(s), nil
	}

	slash := strings.LastIndex(s, "/")
	dot := strings.LastIndex(s[slash+1:], ".")
	if dot < 0 {
		return TypeRef{}, fmt.Errorf("type %q must be a builtin or qualified with its import path", s)
	}
	dot += slash + 1
	pkg, name := s[:dot], s[dot+1:]
	if pkg == "" || !token.IsIdentifier(name) {
		return TypeRef{}, fmt.Errorf("invalid type %q", s)
	}
	return Named(pkg, name), nil
}

func parseElem(s, whole string) (TypeRef, error) {
	t, err := ParseType(s)
	if err != nil {
		return TypeRef{}, fmt.Errorf("in %q: %w", whole, err)
	}
	if t.IsVoid() || t.IsOpaque() {
		return TypeRef{}, fmt.Errorf("in %q: %s cannot be used as an element type", whole, t)
	}
	return t, nil
}

func parseMap(s string) (TypeRef, error) {
	depth := 0
	for i := len("map"); i < len(s); i++ {
		switch s[i] {
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				key, err := parseElem(s[len("map["):i], s)
				if err != nil {
					return TypeRef{}, err
				}
				val, err := parseElem(s[i+1:], s)
				if err != nil {
					return TypeRef{}, err
				}
				return MapOf(key, val), nil
			}
		}
	}
	return TypeRef{}, fmt.Errorf("unbalanced brackets in %q", s)
}

// MustParseType is like ParseType but panics on error.
// It is intended for tests and static tables.
func MustParseType(s string) TypeRef {
	t, err := ParseType(s)
	if err != nil {
		panic(err)
	}
	return t
}
