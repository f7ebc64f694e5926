package golang

import (
	"go/token"
	"strconv"
	"strings"
	"unicode"
)

// resourceSuffix is dropped from resource names to form accessor names.
const resourceSuffix = "Resource"

// locals are identifiers generated code declares itself: method and
// constructor parameters, receivers and method-body variables.
var locals = []string{"c", "r", "client", "ctx", "opts", "req", "out", "err"}

// words splits s at every rune that cannot appear in an identifier.
func words(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func upperFirst(s string) string {
	r := []rune(s)
	if len(r) == 0 {
		return s
	}
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

// lowerFirst lowers a leading run of capitals, keeping the last one when it
// starts a new word: "ID" -> "id", "URLPath" -> "urlPath".
func lowerFirst(s string) string {
	r := []rune(s)
	n := 0
	for n < len(r) && unicode.IsUpper(r[n]) {
		n++
	}
	switch {
	case n == 0:
		return s
	case n == len(r):
	case n > 1:
		n--
	}
	for i := 0; i < n; i++ {
		r[i] = unicode.ToLower(r[i])
	}
	return string(r)
}

// ExportedName converts s into an exported Go identifier.
func ExportedName(s string) string {
	var b strings.Builder
	for _, w := range words(s) {
		b.WriteString(upperFirst(w))
	}
	name := b.String()
	if name == "" || !unicode.IsLetter([]rune(name)[0]) {
		name = "X" + name
	}
	return name
}

// AccessorName is the router accessor for a resource: the resource name
// with a trailing "Resource" removed.
func AccessorName(resource string) string {
	name := ExportedName(resource)
	if trimmed := strings.TrimSuffix(name, resourceSuffix); trimmed != "" {
		return trimmed
	}
	return name
}

// paramName converts a path placeholder into a local identifier.
func paramName(placeholder string) string {
	var b strings.Builder
	for i, w := range words(placeholder) {
		if i == 0 {
			b.WriteString(lowerFirst(w))
		} else {
			b.WriteString(upperFirst(w))
		}
	}
	name := b.String()
	if name == "" || !unicode.IsLetter([]rune(name)[0]) {
		name = "p" + name
	}
	return name
}

// snakeCase converts a Go identifier into a file-name stem:
// "SystemResource" -> "system_resource", "NodeAPI" -> "node_api".
func snakeCase(s string) string {
	r := []rune(s)
	var b strings.Builder
	for i, c := range r {
		if !unicode.IsLetter(c) && !unicode.IsDigit(c) {
			c = '_'
		}
		if unicode.IsUpper(c) && i > 0 {
			prev := r[i-1]
			nextLower := i+1 < len(r) && unicode.IsLower(r[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				b.WriteByte('_')
			}
		}
		b.WriteRune(unicode.ToLower(c))
	}
	return b.String()
}

func fileName(typeName string) string {
	return snakeCase(typeName) + ".go"
}

// packageName derives a package name from the last element of dir.
func packageName(dir string) string {
	if i := strings.LastIndex(dir, "/"); i >= 0 {
		dir = dir[i+1:]
	}
	var b strings.Builder
	for _, c := range strings.ToLower(dir) {
		if unicode.IsLetter(c) || unicode.IsDigit(c) {
			b.WriteRune(c)
		}
	}
	name := b.String()
	switch {
	case name == "" || !unicode.IsLetter([]rune(name)[0]):
		name = "pkg" + name
	case token.IsKeyword(name):
		name += "pkg"
	}
	return name
}

// scope hands out unique local identifiers.
type scope map[string]bool

func newScope(taken ...string) scope {
	s := make(scope)
	for _, name := range taken {
		s[name] = true
	}
	return s
}

// claim reserves base, or base with a "Param" suffix when base is a Go
// keyword or already taken, adding a counter as a last resort.
func (s scope) claim(base string) string {
	name := base
	if token.IsKeyword(name) || s[name] {
		name = base + "Param"
	}
	for i := 2; s[name]; i++ {
		name = base + "Param" + strconv.Itoa(i)
	}
	s[name] = true
	return name
}
