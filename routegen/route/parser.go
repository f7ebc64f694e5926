package route

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/broady/restroutes/routegen/descriptor"
)

// ErrAmbiguousVerb is returned for an operation carrying more than one
// recognized verb marker.
var ErrAmbiguousVerb = errors.New("operation has more than one HTTP verb")

// PathSeparator separates path template segments.
const PathSeparator = "/"

// Parser turns resource descriptors into route classes.
type Parser struct {
	source descriptor.Source
	logger *slog.Logger
}

// ParserOption configures a Parser.
type ParserOption func(*Parser)

// WithLogger sets the logger used to report skipped descriptors.
// If not set, slog.Default() is used.
func WithLogger(logger *slog.Logger) ParserOption {
	return func(p *Parser) {
		p.logger = logger
	}
}

// NewParser creates a parser reading descriptors from source.
func NewParser(source descriptor.Source, opts ...ParserOption) *Parser {
	p := &Parser{source: source}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// Scan enumerates the resources under namespace and builds one RouteClass
// per resource that carries a class-level path. Resources without a path
// and operations without a recognized verb are skipped.
//
// The result follows the source's discovery order; callers that need
// stable output should Sort it.
func (p *Parser) Scan(ctx context.Context, namespace string) ([]RouteClass, error) {
	resources, err := p.source.Resources(ctx, namespace)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", namespace, err)
	}

	classes := make([]RouteClass, 0, len(resources))
	for i := range resources {
		res := &resources[i]
		if !res.HasPath() {
			p.logger.DebugContext(ctx, "skipping resource without path",
				slog.String("resource", res.Name),
				slog.String("namespace", namespace))
			continue
		}
		if err := descriptor.Validate(res); err != nil {
			return nil, err
		}

		class, err := p.buildRouteClass(ctx, res)
		if err != nil {
			return nil, err
		}
		classes = append(classes, class)
	}
	return classes, nil
}

func (p *Parser) buildRouteClass(ctx context.Context, res *descriptor.Resource) (RouteClass, error) {
	class := RouteClass{
		Resource:   res.Name,
		Package:    res.Package,
		PathPrefix: res.Path,
		Doc:        res.Doc,
	}
	for _, op := range res.Operations {
		r, ok, err := BuildRoute(res.Name, res.Path, op)
		if err != nil {
			return RouteClass{}, fmt.Errorf("%s: %w", position(res, op), err)
		}
		if !ok {
			p.logger.DebugContext(ctx, "skipping operation without HTTP verb",
				slog.String("resource", res.Name),
				slog.String("operation", op.Name))
			continue
		}
		class.AddRoute(r)
	}
	return class, nil
}

func position(res *descriptor.Resource, op descriptor.Operation) string {
	name := res.Name + "." + op.Name
	if op.Pos != "" {
		return op.Pos + ": " + name
	}
	return name
}

// BuildRoute derives the route for one operation of the resource named
// resource whose class-level path is prefix. It reports false if the
// operation carries no recognized verb.
func BuildRoute(resource, prefix string, op descriptor.Operation) (Route, bool, error) {
	verb, ok, err := verbOf(op)
	if err != nil || !ok {
		return Route{}, false, err
	}

	return Route{
		Verb:               verb,
		Path:               AbsolutePath(prefix, op.Path),
		Resource:           resource,
		Operation:          op.Name,
		PathParams:         pathParams(op.Params),
		Body:               bodyParam(op.Params),
		Returns:            op.Returns,
		DocumentedResponse: op.DocumentedResponse,
		Doc:                op.Doc,
	}, true, nil
}

func verbOf(op descriptor.Operation) (Verb, bool, error) {
	var found []Verb
	for _, marker := range op.Verbs {
		v, ok := ParseVerb(marker)
		if !ok {
			continue
		}
		if !slices.Contains(found, v) {
			found = append(found, v)
		}
	}
	switch len(found) {
	case 0:
		return 0, false, nil
	case 1:
		return found[0], true, nil
	default:
		names := make([]string, len(found))
		for i, v := range found {
			names[i] = v.String()
		}
		return 0, false, fmt.Errorf("%w: %s", ErrAmbiguousVerb, strings.Join(names, ", "))
	}
}

// pathParams collects path parameters in declaration order. A repeated
// placeholder keeps its first position and takes the later type.
func pathParams(params []descriptor.Param) []PathParam {
	var out []PathParam
	index := make(map[string]int)
	for _, param := range params {
		if param.Role != descriptor.RolePath {
			continue
		}
		if i, ok := index[param.Name]; ok {
			out[i].Type = param.Type
			continue
		}
		index[param.Name] = len(out)
		out = append(out, PathParam{Name: param.Name, Type: param.Type})
	}
	return out
}

// bodyParam returns the type of the first parameter that is neither a path
// nor a context parameter. Later candidates are ignored.
func bodyParam(params []descriptor.Param) *descriptor.TypeRef {
	for _, param := range params {
		if param.Role == descriptor.RoleBody {
			t := param.Type
			return &t
		}
	}
	return nil
}

// AbsolutePath joins a resource prefix and an optional operation suffix.
// One separator is inserted only when neither side provides one; existing
// separators are never collapsed. A nil suffix yields the prefix.
func AbsolutePath(prefix string, suffix *string) string {
	if suffix == nil {
		return prefix
	}
	if !strings.HasSuffix(prefix, PathSeparator) && !strings.HasPrefix(*suffix, PathSeparator) {
		return prefix + PathSeparator + *suffix
	}
	return prefix + *suffix
}
