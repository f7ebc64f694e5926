package golang

import (
	"fmt"
	"go/types"
	"strconv"
	"text/template"

	"github.com/broady/restroutes/routegen/descriptor"
	"github.com/broady/restroutes/routegen/route"
)

// ClassType is a generated route group type.
type ClassType struct {
	Name        string // type name
	Constructor string // New<Name>
	Accessor    string // router accessor name
	Resource    string // originating resource
	PathPrefix  string
	Package     *Package
	File        *File
	Methods     []Method
}

// Method is one generated route method.
type Method struct {
	Name   string
	Verb   route.Verb
	Path   string
	Params []string // path parameter identifiers, in order
	Body   bool
}

// ClassGenerator generates route group types.
type ClassGenerator struct {
	model *Model
}

// NewClassGenerator returns a generator emitting into model.
func NewClassGenerator(model *Model) *ClassGenerator {
	return &ClassGenerator{model: model}
}

// Generate emits the route group type for rc into pkg. It fails with
// ErrTypeExists if pkg already declares the type or its constructor, and
// with ErrDuplicateMethod if two routes map to one method name.
func (g *ClassGenerator) Generate(rc route.RouteClass, pkg *Package) (*ClassType, error) {
	ct := &ClassType{
		Name:       ExportedName(rc.Resource),
		Accessor:   AccessorName(rc.Resource),
		Resource:   rc.Resource,
		PathPrefix: rc.PathPrefix,
		Package:    pkg,
	}
	ct.Constructor = "New" + ct.Name

	if err := pkg.Declare(ct.Name, rc.Resource); err != nil {
		return nil, err
	}
	if err := pkg.Declare(ct.Constructor, rc.Resource); err != nil {
		return nil, err
	}

	imps := newImportSet(pkg.Path)
	imps.use(RuntimePackage, "restroutes")

	methods := make([]*methodData, 0, len(rc.Routes))
	seen := make(map[string]string)
	for _, r := range rc.Routes {
		name := ExportedName(r.Operation)
		if prev, ok := seen[name]; ok {
			return nil, fmt.Errorf("%w: %s.%s from operations %s and %s", ErrDuplicateMethod, ct.Name, name, prev, r.Operation)
		}
		seen[name] = r.Operation

		m, err := newMethodData(name, r, imps)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", rc.Resource, r.Operation, err)
		}
		methods = append(methods, m)
	}
	if len(methods) > 0 {
		imps.use("context", "context")
	}

	// Parameter names are chosen once every import is known.
	for _, m := range methods {
		m.nameParams(imps.names())
		ct.Methods = append(ct.Methods, m.Method)
	}

	src, err := render(classTemplate, fileName(ct.Name), classData{
		Header:  Header,
		Package: pkg.Name,
		Imports: imps.specs(),
		Class:   ct,
		Doc:     rc.Doc,
		Methods: methods,
	})
	if err != nil {
		return nil, err
	}
	ct.File, err = pkg.addFile(fileName(ct.Name), src)
	if err != nil {
		return nil, err
	}
	return ct, nil
}

// VerbConstant maps a route verb to the name of the runtime method
// constant. The mapping is closed: unknown verbs are an error.
func VerbConstant(v route.Verb) (string, error) {
	switch v {
	case route.VerbGet:
		return "MethodGet", nil
	case route.VerbPost:
		return "MethodPost", nil
	case route.VerbPut:
		return "MethodPut", nil
	case route.VerbDelete:
		return "MethodDelete", nil
	default:
		return "", fmt.Errorf("unsupported HTTP verb %d", int(v))
	}
}

// ResultType resolves the result of the generated method for r. It
// reports false when the method returns the response envelope.
//
// Void and opaque results fall back to the documented response type when
// one is present and describes a concrete type.
func ResultType(r route.Route) (descriptor.TypeRef, bool) {
	if !r.Returns.IsVoid() && !r.Returns.IsOpaque() {
		return r.Returns, true
	}
	if d := r.DocumentedResponse; d != nil && !d.IsVoid() && !d.IsOpaque() {
		return *d, true
	}
	return descriptor.TypeRef{}, false
}

type paramData struct {
	Name        string
	Key         string // path placeholder
	Placeholder string // quoted Key
	Type        string
}

type methodData struct {
	Method
	Doc        string
	Constant   string
	QuotedPath string
	PathParams []*paramData
	BodyParam  *paramData
	Result     string // empty for the response envelope
}

func newMethodData(name string, r route.Route, imps *importSet) (*methodData, error) {
	constant, err := VerbConstant(r.Verb)
	if err != nil {
		return nil, err
	}
	m := &methodData{
		Method:     Method{Name: name, Verb: r.Verb, Path: r.Path, Body: r.Body != nil},
		Doc:        r.Doc,
		Constant:   constant,
		QuotedPath: strconv.Quote(r.Path),
	}

	for _, p := range r.PathParams {
		t := p.Type
		if t.IsVoid() {
			t = descriptor.Builtin("string")
		}
		expr, err := imps.typeExpr(t)
		if err != nil {
			return nil, fmt.Errorf("path parameter %s: %w", p.Name, err)
		}
		m.PathParams = append(m.PathParams, &paramData{Key: p.Name, Placeholder: strconv.Quote(p.Name), Type: expr})
	}
	if r.Body != nil {
		expr, err := imps.typeExpr(*r.Body)
		if err != nil {
			return nil, fmt.Errorf("body: %w", err)
		}
		m.BodyParam = &paramData{Type: expr}
	}

	if t, ok := ResultType(r); ok {
		m.Result, err = imps.typeExpr(t)
		if err != nil {
			return nil, fmt.Errorf("result: %w", err)
		}
	}
	return m, nil
}

// nameParams assigns identifiers to the parameters, avoiding the method's
// own locals and the file's import names.
func (m *methodData) nameParams(importNames []string) {
	sc := newScope(locals...)
	for _, name := range types.Universe.Names() {
		sc[name] = true
	}
	for _, name := range importNames {
		sc[name] = true
	}
	if m.BodyParam != nil {
		m.BodyParam.Name = sc.claim("body")
	}
	m.Params = nil
	for _, p := range m.PathParams {
		p.Name = sc.claim(paramName(p.Key))
		m.Params = append(m.Params, p.Name)
	}
}

type classData struct {
	Header  string
	Package string
	Imports []importSpec
	Class   *ClassType
	Doc     string
	Methods []*methodData
}

var classTemplate = template.Must(template.New("class").Funcs(funcs).Parse(importsTemplate + `{{.Header}}

package {{.Package}}

{{template "imports" .Imports}}
// {{.Class.Name}} groups the routes of {{.Class.Resource}} under {{.Class.PathPrefix}}.
{{with .Doc}}//
{{comment .}}{{end -}}
type {{.Class.Name}} struct {
	client *restroutes.Client
}

// {{.Class.Constructor}} returns a {{.Class.Name}} sending requests through client.
func {{.Class.Constructor}}(client *restroutes.Client) *{{.Class.Name}} {
	return &{{.Class.Name}}{client: client}
}
{{range .Methods}}
// {{.Name}} calls {{.Verb}} {{.Path}}.
{{with .Doc}}//
{{comment .}}{{end -}}
func (c *{{$.Class.Name}}) {{.Name}}(ctx context.Context{{range .PathParams}}, {{.Name}} {{.Type}}{{end}}{{with .BodyParam}}, {{.Name}} {{.Type}}{{end}}, opts ...restroutes.RequestOption) ({{with .Result}}{{.}}{{else}}*restroutes.Response{{end}}, error) {
	req := restroutes.NewRequest(restroutes.{{.Constant}}, {{.QuotedPath}}){{range .PathParams}}.
		PathParam({{.Placeholder}}, {{.Name}}){{end}}{{with .BodyParam}}.
		Body({{.Name}}){{end}}
{{- if .Result}}
	var out {{.Result}}
	err := c.client.Decode(ctx, req, &out, opts...)
	return out, err
{{- else}}
	return c.client.Send(ctx, req, opts...)
{{- end}}
}
{{end}}`))
