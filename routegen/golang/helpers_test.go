package golang

import (
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"strings"
	"testing"

	"github.com/broady/restroutes/routegen/descriptor"
	"github.com/broady/restroutes/routegen/route"
)

const (
	modelsPath = "example.com/graylog/models"
	sharedPath = "example.com/out/generated/shared"
	serverPath = "example.com/out/generated/server"
)

const modelsSrc = `package models

type InputSummary struct{ ID string }

type InputLaunchRequest struct{ Node string }

type SystemOverview struct{ Version string }
`

func model(name string) descriptor.TypeRef {
	t := descriptor.Named(modelsPath, name)
	t.PackageName = "models"
	return t
}

func typePtr(t descriptor.TypeRef) *descriptor.TypeRef { return &t }

func inputsClass() route.RouteClass {
	str := descriptor.Builtin("string")
	return route.RouteClass{
		Resource:   "InputsResource",
		PathPrefix: "/system/inputs",
		Doc:        "Manages message inputs.",
		Routes: []route.Route{
			{
				Verb:               route.VerbPost,
				Path:               "/system/inputs/{inputId}/launch",
				Resource:           "InputsResource",
				Operation:          "Launch",
				PathParams:         []route.PathParam{{Name: "inputId", Type: str}},
				Body:               typePtr(descriptor.Ptr(model("InputLaunchRequest"))),
				Returns:            descriptor.Opaque(),
				DocumentedResponse: typePtr(descriptor.Ptr(model("InputSummary"))),
				Doc:                "Launch starts an input.",
			},
			{
				Verb:       route.VerbDelete,
				Path:       "/system/inputs/{inputId}",
				Resource:   "InputsResource",
				Operation:  "Terminate",
				PathParams: []route.PathParam{{Name: "inputId", Type: str}},
				Returns:    descriptor.Void(),
			},
			{
				Verb:      route.VerbGet,
				Path:      "/system/inputs",
				Resource:  "InputsResource",
				Operation: "List",
				Returns:   descriptor.SliceOf(model("InputSummary")),
			},
			{
				Verb:       route.VerbPut,
				Path:       "/system/inputs/{id}/{type}",
				Resource:   "InputsResource",
				Operation:  "Update",
				PathParams: []route.PathParam{{Name: "id", Type: str}, {Name: "type", Type: descriptor.Builtin("int")}},
				Body:       typePtr(descriptor.MapOf(str, descriptor.Builtin("any"))),
				Returns:    descriptor.Builtin("bool"),
			},
		},
	}
}

func systemClass() route.RouteClass {
	return route.RouteClass{
		Resource:   "SystemResource",
		PathPrefix: "/system",
		Routes: []route.Route{
			{Verb: route.VerbGet, Path: "/system", Resource: "SystemResource", Operation: "System", Returns: descriptor.Ptr(model("SystemOverview"))},
			{Verb: route.VerbGet, Path: "/system/jvm", Resource: "SystemResource", Operation: "Jvm", Returns: descriptor.Opaque()},
		},
	}
}

func parseGo(t *testing.T, src []byte) *ast.File {
	t.Helper()
	f, err := parser.ParseFile(token.NewFileSet(), "gen.go", src, parser.ParseComments)
	if err != nil {
		t.Fatalf("generated code does not parse: %v\n%s", err, src)
	}
	return f
}

// signature renders the parameter and result lists of recv.name in f.
func signature(t *testing.T, f *ast.File, recv, name string) string {
	t.Helper()
	for _, decl := range f.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok || fn.Name.Name != name || fn.Recv == nil {
			continue
		}
		if types.ExprString(fn.Recv.List[0].Type) != "*"+recv {
			continue
		}
		return "(" + fieldList(fn.Type.Params) + ") (" + fieldList(fn.Type.Results) + ")"
	}
	t.Fatalf("method %s.%s not found", recv, name)
	return ""
}

func fieldList(fl *ast.FieldList) string {
	if fl == nil {
		return ""
	}
	var parts []string
	for _, field := range fl.List {
		typ := types.ExprString(field.Type)
		if len(field.Names) == 0 {
			parts = append(parts, typ)
			continue
		}
		for _, n := range field.Names {
			parts = append(parts, n.Name+" "+typ)
		}
	}
	return strings.Join(parts, ", ")
}

// methods lists the method names declared on recv in f.
func methods(f *ast.File, recv string) []string {
	var names []string
	for _, decl := range f.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if ok && fn.Recv != nil && types.ExprString(fn.Recv.List[0].Type) == "*"+recv {
			names = append(names, fn.Name.Name)
		}
	}
	return names
}

func importsOf(f *ast.File) map[string]string {
	out := make(map[string]string)
	for _, imp := range f.Imports {
		name := ""
		if imp.Name != nil {
			name = imp.Name.Name
		}
		out[strings.Trim(imp.Path.Value, `"`)] = name
	}
	return out
}

func fileContents(p *Package) []string {
	var out []string
	for _, f := range p.files {
		out = append(out, string(f.Content))
	}
	return out
}

// lookupMethod reports whether the named type obj has a method name,
// including promoted methods.
func lookupMethod(obj types.Object, name string) (bool, []int, bool) {
	if obj == nil {
		return false, nil, false
	}
	found, index, indirect := types.LookupFieldOrMethod(types.NewPointer(obj.Type()), true, obj.Pkg(), name)
	_, isFunc := found.(*types.Func)
	return isFunc, index, indirect
}
