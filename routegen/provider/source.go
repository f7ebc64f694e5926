package provider

import (
	"context"
	"fmt"
	"go/ast"
	"go/parser"
	"go/types"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"golang.org/x/tools/go/packages"

	"github.com/broady/restroutes/internal/directive"
	"github.com/broady/restroutes/routegen/descriptor"
)

// SourceProvider reads resource descriptors from annotated Go source.
//
// The namespace passed to Resources is a package pattern with go command
// semantics ("./rest/...", "example.com/rest/resources"). A type is a
// resource when its declaration carries a //route:path directive; its
// operations are the exported methods of *T.
type SourceProvider struct {
	dir    string
	tags   []string
	logger *slog.Logger
}

// SourceOption configures a SourceProvider.
type SourceOption func(*SourceProvider)

// WithDir sets the directory package patterns are resolved in.
// If not set, the current directory is used.
func WithDir(dir string) SourceOption {
	return func(p *SourceProvider) {
		p.dir = dir
	}
}

// WithBuildTags sets build tags used when loading packages.
func WithBuildTags(tags ...string) SourceOption {
	return func(p *SourceProvider) {
		p.tags = append(p.tags, tags...)
	}
}

// WithSourceLogger sets the logger for load diagnostics.
func WithSourceLogger(logger *slog.Logger) SourceOption {
	return func(p *SourceProvider) {
		p.logger = logger
	}
}

// NewSourceProvider creates a provider over annotated Go packages.
func NewSourceProvider(opts ...SourceOption) *SourceProvider {
	p := &SourceProvider{}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// Resources loads the packages matching pattern and returns their
// descriptors in file and declaration order.
func (p *SourceProvider) Resources(ctx context.Context, pattern string) ([]descriptor.Resource, error) {
	cfg := &packages.Config{
		Context: ctx,
		Mode: packages.NeedName | packages.NeedFiles | packages.NeedSyntax |
			packages.NeedTypes | packages.NeedTypesInfo,
		Dir: p.dir,
	}
	if len(p.tags) > 0 {
		cfg.BuildFlags = []string{"-tags=" + strings.Join(p.tags, ",")}
	}

	pkgs, err := packages.Load(cfg, pattern)
	if err != nil {
		return nil, fmt.Errorf("load packages: %w", err)
	}
	if len(pkgs) == 0 {
		return nil, fmt.Errorf("no packages found matching %q", pattern)
	}
	for _, pkg := range pkgs {
		if len(pkg.Errors) > 0 {
			return nil, fmt.Errorf("package %s: %v", pkg.PkgPath, pkg.Errors[0])
		}
	}

	methods := indexMethods(pkgs)

	var resources []descriptor.Resource
	for _, pkg := range pkgs {
		p.logger.DebugContext(ctx, "scanning package", slog.String("package", pkg.PkgPath))
		for _, f := range pkg.Syntax {
			found, err := p.fileResources(pkg, f, methods)
			if err != nil {
				return nil, err
			}
			resources = append(resources, found...)
		}
	}
	return resources, nil
}

// methodDecl locates the declaration of a method.
type methodDecl struct {
	pkg  *packages.Package
	file *ast.File
	decl *ast.FuncDecl
}

// indexMethods maps method objects to their declarations so promoted
// methods of embedded types keep their directives.
func indexMethods(pkgs []*packages.Package) map[*types.Func]methodDecl {
	index := make(map[*types.Func]methodDecl)
	packages.Visit(pkgs, nil, func(pkg *packages.Package) {
		if pkg.TypesInfo == nil {
			return
		}
		for _, f := range pkg.Syntax {
			for _, decl := range f.Decls {
				fn, ok := decl.(*ast.FuncDecl)
				if !ok || fn.Recv == nil {
					continue
				}
				if obj, ok := pkg.TypesInfo.Defs[fn.Name].(*types.Func); ok {
					index[obj] = methodDecl{pkg: pkg, file: f, decl: fn}
				}
			}
		}
	})
	return index
}

func (p *SourceProvider) fileResources(pkg *packages.Package, f *ast.File, methods map[*types.Func]methodDecl) ([]descriptor.Resource, error) {
	var resources []descriptor.Resource
	for _, decl := range f.Decls {
		gen, ok := decl.(*ast.GenDecl)
		if !ok {
			continue
		}
		for _, spec := range gen.Specs {
			ts, ok := spec.(*ast.TypeSpec)
			if !ok {
				continue
			}
			doc := ts.Doc
			if doc == nil && len(gen.Specs) == 1 {
				doc = gen.Doc
			}

			directives, err := directive.Parse(pkg.Fset, doc)
			if err != nil {
				return nil, err
			}
			paths := directive.Filter(directives, directive.KindPath)
			if len(paths) == 0 {
				continue
			}
			for _, d := range directives {
				if d.Kind != directive.KindPath {
					return nil, fmt.Errorf("%s: %s%s is not allowed on a type", d.Pos, directive.Prefix, d.Kind)
				}
			}
			if len(paths) > 1 {
				return nil, fmt.Errorf("%s: multiple %spath directives on %s", paths[1].Pos, directive.Prefix, ts.Name.Name)
			}
			if len(paths[0].Args) == 0 {
				return nil, fmt.Errorf("%s: %spath on a type requires a path", paths[0].Pos, directive.Prefix)
			}

			obj, ok := pkg.TypesInfo.Defs[ts.Name].(*types.TypeName)
			if !ok {
				continue
			}
			named, ok := obj.Type().(*types.Named)
			if !ok {
				return nil, fmt.Errorf("%s: resource %s must be a defined type", pkg.Fset.Position(ts.Pos()), ts.Name.Name)
			}

			res := descriptor.Resource{
				Name:    ts.Name.Name,
				Package: pkg.PkgPath,
				Path:    paths[0].Args[0],
				Doc:     directive.Doc(doc),
				Pos:     pkg.Fset.Position(ts.Name.Pos()).String(),
			}
			res.Operations, err = operations(named, methods)
			if err != nil {
				return nil, err
			}
			resources = append(resources, res)
		}
	}
	return resources, nil
}

// operations describes the exported methods of *T.
func operations(named *types.Named, methods map[*types.Func]methodDecl) ([]descriptor.Operation, error) {
	mset := types.NewMethodSet(types.NewPointer(named))
	var ops []descriptor.Operation
	for i := 0; i < mset.Len(); i++ {
		fn, ok := mset.At(i).Obj().(*types.Func)
		if !ok || !fn.Exported() {
			continue
		}
		md, ok := methods[fn]
		if !ok {
			// Declared outside the loaded packages; no directives to read.
			ops = append(ops, descriptor.Operation{Name: fn.Name()})
			continue
		}
		op, err := operation(fn, md)
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	return ops, nil
}

func operation(fn *types.Func, md methodDecl) (descriptor.Operation, error) {
	pos := md.pkg.Fset.Position(md.decl.Name.Pos())
	directives, err := directive.Parse(md.pkg.Fset, md.decl.Doc)
	if err != nil {
		return descriptor.Operation{}, err
	}

	op := descriptor.Operation{
		Name: fn.Name(),
		Doc:  directive.Doc(md.decl.Doc),
		Pos:  pos.String(),
	}

	bindings := make(map[string]directive.Param)
	for _, d := range directives {
		switch d.Kind {
		case directive.KindVerb:
			op.Verbs = append(op.Verbs, d.Args[0])
		case directive.KindPath:
			if op.Path != nil {
				return op, fmt.Errorf("%s: multiple %spath directives on %s", d.Pos, directive.Prefix, fn.Name())
			}
			suffix := ""
			if len(d.Args) > 0 {
				suffix = d.Args[0]
			}
			op.Path = &suffix
		case directive.KindParam:
			b, err := d.Param()
			if err != nil {
				return op, err
			}
			bindings[b.Name] = b
		case directive.KindResponse:
			t, err := resolveType(md, d.Args[0])
			if err != nil {
				return op, fmt.Errorf("%s: %sresponse: %w", d.Pos, directive.Prefix, err)
			}
			op.DocumentedResponse = &t
		}
	}

	sig := fn.Type().(*types.Signature)
	params := sig.Params()
	body := false
	for i := 0; i < params.Len(); i++ {
		v := params.At(i)
		name := v.Name()
		if name == "" || name == "_" {
			name = fmt.Sprintf("arg%d", i)
		}

		param := descriptor.Param{Name: name, Role: descriptor.RoleBody}
		if b, ok := bindings[name]; ok {
			param.Role = b.Role
			if b.Role == descriptor.RolePath {
				param.Name = b.Placeholder
			}
			delete(bindings, name)
		} else if isContextType(v.Type()) {
			param.Role = descriptor.RoleContext
		}

		// Only the first body candidate becomes the payload; later ones
		// keep the void type and are never resolved.
		resolve := param.Role == descriptor.RolePath || (param.Role == descriptor.RoleBody && !body)
		if param.Role == descriptor.RoleBody {
			body = true
		}
		if resolve {
			t, err := typeRef(v.Type())
			if err != nil {
				return op, fmt.Errorf("%s: parameter %s: %w", pos, name, err)
			}
			param.Type = t
		}
		op.Params = append(op.Params, param)
	}
	if len(bindings) > 0 {
		unknown := slices.Sorted(maps.Keys(bindings))
		return op, fmt.Errorf("%s: %sparam names unknown parameter %q of %s", pos, directive.Prefix, unknown[0], fn.Name())
	}

	op.Returns, err = returnType(sig.Results())
	if err != nil {
		return op, fmt.Errorf("%s: result of %s: %w", pos, fn.Name(), err)
	}
	return op, nil
}

// returnType picks the first non-error result. No such result is void.
func returnType(results *types.Tuple) (descriptor.TypeRef, error) {
	for i := 0; i < results.Len(); i++ {
		t := results.At(i).Type()
		if isError(t) {
			continue
		}
		if isOpaqueType(t) {
			return descriptor.Opaque(), nil
		}
		return typeRef(t)
	}
	return descriptor.Void(), nil
}

// typeRef converts a Go type into a descriptor type reference.
func typeRef(t types.Type) (descriptor.TypeRef, error) {
	switch t := types.Unalias(t).(type) {
	case *types.Basic:
		if t.Info()&types.IsUntyped != 0 {
			return descriptor.TypeRef{}, fmt.Errorf("untyped %s", t)
		}
		return descriptor.Builtin(t.Name()), nil
	case *types.Pointer:
		elem, err := typeRef(t.Elem())
		if err != nil {
			return descriptor.TypeRef{}, err
		}
		return descriptor.Ptr(elem), nil
	case *types.Slice:
		elem, err := typeRef(t.Elem())
		if err != nil {
			return descriptor.TypeRef{}, err
		}
		return descriptor.SliceOf(elem), nil
	case *types.Map:
		key, err := typeRef(t.Key())
		if err != nil {
			return descriptor.TypeRef{}, err
		}
		elem, err := typeRef(t.Elem())
		if err != nil {
			return descriptor.TypeRef{}, err
		}
		return descriptor.MapOf(key, elem), nil
	case *types.Interface:
		if t.Empty() {
			return descriptor.Builtin("any"), nil
		}
	case *types.Named:
		if t.TypeArgs().Len() > 0 {
			return descriptor.TypeRef{}, fmt.Errorf("generic type %s is not supported", t)
		}
		obj := t.Obj()
		if obj.Pkg() == nil {
			return descriptor.Builtin(obj.Name()), nil
		}
		ref := descriptor.Named(obj.Pkg().Path(), obj.Name())
		ref.PackageName = obj.Pkg().Name()
		return ref, nil
	}
	return descriptor.TypeRef{}, fmt.Errorf("unsupported type %s", t)
}

// resolveType resolves a //route:response type expression in the scope of
// the file declaring the method. Import-path qualified names are parsed
// directly.
func resolveType(md methodDecl, expr string) (descriptor.TypeRef, error) {
	if expr == "void" || expr == "response" || strings.Contains(expr, "/") {
		return descriptor.ParseType(expr)
	}
	x, err := parser.ParseExpr(expr)
	if err != nil {
		return descriptor.TypeRef{}, fmt.Errorf("invalid type %q: %w", expr, err)
	}
	scope := md.pkg.TypesInfo.Scopes[md.file]
	if scope == nil {
		scope = md.pkg.Types.Scope()
	}
	return resolveExpr(scope, x)
}

func resolveExpr(scope *types.Scope, x ast.Expr) (descriptor.TypeRef, error) {
	switch x := x.(type) {
	case *ast.Ident:
		_, obj := scope.LookupParent(x.Name, 0)
		tn, ok := obj.(*types.TypeName)
		if !ok {
			return descriptor.TypeRef{}, fmt.Errorf("%s is not a type", x.Name)
		}
		return typeRef(tn.Type())
	case *ast.SelectorExpr:
		id, ok := x.X.(*ast.Ident)
		if !ok {
			return descriptor.TypeRef{}, fmt.Errorf("invalid qualified type")
		}
		_, obj := scope.LookupParent(id.Name, 0)
		pn, ok := obj.(*types.PkgName)
		if !ok {
			return descriptor.TypeRef{}, fmt.Errorf("%s is not an imported package", id.Name)
		}
		tn, ok := pn.Imported().Scope().Lookup(x.Sel.Name).(*types.TypeName)
		if !ok {
			return descriptor.TypeRef{}, fmt.Errorf("%s.%s is not a type", id.Name, x.Sel.Name)
		}
		return typeRef(tn.Type())
	case *ast.StarExpr:
		elem, err := resolveExpr(scope, x.X)
		if err != nil {
			return descriptor.TypeRef{}, err
		}
		return descriptor.Ptr(elem), nil
	case *ast.ArrayType:
		if x.Len != nil {
			return descriptor.TypeRef{}, fmt.Errorf("arrays are not supported")
		}
		elem, err := resolveExpr(scope, x.Elt)
		if err != nil {
			return descriptor.TypeRef{}, err
		}
		return descriptor.SliceOf(elem), nil
	case *ast.MapType:
		key, err := resolveExpr(scope, x.Key)
		if err != nil {
			return descriptor.TypeRef{}, err
		}
		elem, err := resolveExpr(scope, x.Value)
		if err != nil {
			return descriptor.TypeRef{}, err
		}
		return descriptor.MapOf(key, elem), nil
	case *ast.InterfaceType:
		if x.Methods == nil || len(x.Methods.List) == 0 {
			return descriptor.Builtin("any"), nil
		}
	}
	return descriptor.TypeRef{}, fmt.Errorf("unsupported type expression")
}

func isError(t types.Type) bool {
	return types.Identical(t, types.Universe.Lookup("error").Type())
}

// isNamed reports whether t is the named type pkgPath.name.
func isNamed(t types.Type, pkgPath, name string) bool {
	n, ok := types.Unalias(t).(*types.Named)
	if !ok || n.Obj().Pkg() == nil {
		return false
	}
	return n.Obj().Pkg().Path() == pkgPath && n.Obj().Name() == name
}

func deref(t types.Type) types.Type {
	if p, ok := types.Unalias(t).(*types.Pointer); ok {
		return p.Elem()
	}
	return t
}

// isContextType reports whether t is injected by the server environment
// rather than supplied by a client.
func isContextType(t types.Type) bool {
	return isNamed(t, "context", "Context") ||
		isNamed(deref(t), "net/http", "Request") ||
		isNamed(t, "net/http", "ResponseWriter")
}

// isOpaqueType reports whether t is a generic response the generator
// cannot describe more precisely.
func isOpaqueType(t types.Type) bool {
	if i, ok := types.Unalias(t).(*types.Interface); ok && i.Empty() {
		return true
	}
	e := deref(t)
	return isNamed(e, "net/http", "Response") ||
		isNamed(e, "github.com/broady/restroutes", "Response")
}
