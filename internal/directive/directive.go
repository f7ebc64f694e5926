// Package directive parses restroutes directives from Go doc comments.
//
// Directives are line comments in the form:
//
//	//route:path /system
//	//route:GET
//	//route:param inputID path inputId
//	//route:param r context
//	//route:response InputSummary
//
// A path directive on a type declaration marks a resource. On a method it
// gives the path suffix of the operation. Verb directives (GET, POST, PUT,
// DELETE and the unrecognized HEAD, PATCH, OPTIONS) mark HTTP operations.
package directive

import (
	"fmt"
	"go/ast"
	"go/token"
	"strings"

	"github.com/broady/restroutes/routegen/descriptor"
)

// Prefix starts every directive comment.
const Prefix = "//route:"

// Kind represents the type of directive.
type Kind string

const (
	KindPath     Kind = "path"
	KindParam    Kind = "param"
	KindResponse Kind = "response"
	KindVerb     Kind = "verb"
)

// verbs are the verb markers a directive may carry. Only some of them are
// recognized by the route parser; the rest are recorded and ignored there.
var verbs = map[string]bool{
	"GET": true, "POST": true, "PUT": true, "DELETE": true,
	"HEAD": true, "PATCH": true, "OPTIONS": true,
}

// Directive represents a parsed directive.
type Directive struct {
	Kind Kind
	Args []string       // arguments; for KindVerb, Args[0] is the verb
	Pos  token.Position // source location
}

// Param is a decoded //route:param directive.
type Param struct {
	Name        string // Go parameter name
	Role        descriptor.Role
	Placeholder string // path placeholder; defaults to Name
}

// Param decodes a KindParam directive.
func (d Directive) Param() (Param, error) {
	if d.Kind != KindParam {
		return Param{}, fmt.Errorf("%s: not a param directive", d.Pos)
	}
	role, err := descriptor.ParseRole(d.Args[1])
	if err != nil {
		return Param{}, fmt.Errorf("%s: %w", d.Pos, err)
	}
	p := Param{Name: d.Args[0], Role: role, Placeholder: d.Args[0]}
	if len(d.Args) == 3 {
		if role != descriptor.RolePath {
			return Param{}, fmt.Errorf("%s: only path parameters take a placeholder", d.Pos)
		}
		p.Placeholder = d.Args[2]
	}
	return p, nil
}

// Parse extracts directives from a doc comment group.
// A nil group has no directives.
//
// Returns an error if:
//   - A directive name is unknown
//   - A directive has the wrong number of arguments
func Parse(fset *token.FileSet, doc *ast.CommentGroup) ([]Directive, error) {
	if doc == nil {
		return nil, nil
	}

	var directives []Directive
	for _, c := range doc.List {
		if !strings.HasPrefix(c.Text, Prefix) {
			continue
		}

		pos := fset.Position(c.Pos())
		text := strings.TrimPrefix(c.Text, Prefix)
		parts := strings.Fields(text)
		if len(parts) == 0 {
			return nil, fmt.Errorf("%s: empty directive %s", pos, Prefix)
		}

		d := Directive{Kind: Kind(parts[0]), Args: parts[1:], Pos: pos}
		switch {
		case verbs[strings.ToUpper(parts[0])]:
			if len(d.Args) != 0 {
				return nil, fmt.Errorf("%s: %s%s takes no arguments", pos, Prefix, parts[0])
			}
			d = Directive{Kind: KindVerb, Args: []string{strings.ToUpper(parts[0])}, Pos: pos}
		case d.Kind == KindPath:
			if len(d.Args) > 1 {
				return nil, fmt.Errorf("%s: %spath takes at most one argument", pos, Prefix)
			}
		case d.Kind == KindParam:
			if len(d.Args) < 2 || len(d.Args) > 3 {
				return nil, fmt.Errorf("%s: usage: %sparam <name> path|context|body [placeholder]", pos, Prefix)
			}
		case d.Kind == KindResponse:
			if len(d.Args) == 0 {
				return nil, fmt.Errorf("%s: usage: %sresponse <type>", pos, Prefix)
			}
			// Type expressions may contain spaces, e.g. "map[string] T".
			d.Args = []string{strings.Join(d.Args, "")}
		default:
			return nil, fmt.Errorf("%s: unknown directive %s%s", pos, Prefix, parts[0])
		}
		directives = append(directives, d)
	}
	return directives, nil
}

// Filter returns the directives of the given kind, in source order.
func Filter(directives []Directive, kind Kind) []Directive {
	var out []Directive
	for _, d := range directives {
		if d.Kind == kind {
			out = append(out, d)
		}
	}
	return out
}

// Doc returns the text of doc with directive lines removed.
func Doc(doc *ast.CommentGroup) string {
	if doc == nil {
		return ""
	}
	stripped := &ast.CommentGroup{}
	for _, c := range doc.List {
		if !strings.HasPrefix(c.Text, Prefix) {
			stripped.List = append(stripped.List, c)
		}
	}
	if len(stripped.List) == 0 {
		return ""
	}
	return strings.TrimSpace(stripped.Text())
}
