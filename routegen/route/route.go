// Package route holds the in-memory route model and the parser that derives
// it from resource descriptors.
//
// Route and RouteClass values are created fresh for every generation run
// and are not mutated once Parser.Scan returns.
package route

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/broady/restroutes/routegen/descriptor"
)

// Verb is the HTTP verb of a route. The set is closed.
type Verb int

const (
	VerbGet Verb = iota + 1
	VerbPost
	VerbPut
	VerbDelete
)

// Verbs returns every recognized verb in a fixed order.
func Verbs() []Verb {
	return []Verb{VerbGet, VerbPost, VerbPut, VerbDelete}
}

func (v Verb) String() string {
	switch v {
	case VerbGet:
		return "GET"
	case VerbPost:
		return "POST"
	case VerbPut:
		return "PUT"
	case VerbDelete:
		return "DELETE"
	default:
		return "UNKNOWN"
	}
}

// ParseVerb recognizes a verb marker. Matching ignores case.
// Markers outside the closed set (HEAD, PATCH, ...) are not recognized.
func ParseVerb(marker string) (Verb, bool) {
	switch strings.ToUpper(strings.TrimSpace(marker)) {
	case "GET":
		return VerbGet, true
	case "POST":
		return VerbPost, true
	case "PUT":
		return VerbPut, true
	case "DELETE":
		return VerbDelete, true
	default:
		return 0, false
	}
}

// PathParam is one path template parameter of a route.
type PathParam struct {
	Name string
	Type descriptor.TypeRef
}

// Route is one HTTP operation derived from one resource operation.
type Route struct {
	Verb Verb

	// Path is the absolute path template: resource prefix plus operation suffix.
	Path string

	// Resource is the declaring resource name.
	Resource string

	// Operation is the originating operation name. It is unique within
	// the owning RouteClass.
	Operation string

	// PathParams are in parameter declaration order.
	PathParams []PathParam

	// Body is the request payload type, if the operation has one.
	Body *descriptor.TypeRef

	// Returns is the declared result type.
	Returns descriptor.TypeRef

	// DocumentedResponse is the documented response type, if any.
	DocumentedResponse *descriptor.TypeRef

	Doc string
}

func (r Route) String() string {
	return fmt.Sprintf("%s %s (%s.%s)", r.Verb, r.Path, r.Resource, r.Operation)
}

// RouteClass groups the routes of one resource.
type RouteClass struct {
	// Resource is the resource name; generated type names derive from it.
	Resource string

	// Package is the namespace the resource was found in.
	Package string

	// PathPrefix is the resource-level path template. Every route's Path
	// starts with it.
	PathPrefix string

	Doc string

	// Routes are in discovery order.
	Routes []Route
}

// AddRoute appends r to the class.
func (c *RouteClass) AddRoute(r Route) {
	c.Routes = append(c.Routes, r)
}

// Sort orders classes by resource name and each class's routes by
// operation name, so generated output does not depend on discovery order.
// Path parameter order is left untouched.
func Sort(classes []RouteClass) {
	slices.SortStableFunc(classes, func(a, b RouteClass) int {
		return cmp.Compare(a.Resource, b.Resource)
	})
	for i := range classes {
		slices.SortStableFunc(classes[i].Routes, func(a, b Route) int {
			return cmp.Compare(a.Operation, b.Operation)
		})
	}
}
