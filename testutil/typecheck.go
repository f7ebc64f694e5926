package testutil

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"slices"
	"strings"
	"testing"
)

// RuntimeStub declares the part of the restroutes runtime API that
// generated code uses. TypeCheck resolves the runtime import to it.
const RuntimeStub = `package restroutes

import "context"

type Method string

const (
	MethodGet    Method = "GET"
	MethodPost   Method = "POST"
	MethodPut    Method = "PUT"
	MethodDelete Method = "DELETE"
)

type Client struct{}

type Request struct{}

type Response struct{ StatusCode int }

type RequestOption func(*Request) error

func NewRequest(method Method, path string) *Request { return &Request{} }

func (r *Request) PathParam(name string, value any) *Request { return r }

func (r *Request) Body(v any) *Request { return r }

func (c *Client) Send(ctx context.Context, req *Request, opts ...RequestOption) (*Response, error) {
	return nil, nil
}

func (c *Client) Decode(ctx context.Context, req *Request, out any, opts ...RequestOption) error {
	return nil
}
`

// ContextStub stands in for the standard context package.
const ContextStub = `package context

type Context interface{}
`

// TypeCheck type-checks Go packages given as import path to file
// contents, without touching the file system. The restroutes runtime and
// context packages are provided unless sources overrides them.
// It fails the test on the first error and returns the checked packages.
func TypeCheck(t *testing.T, sources map[string][]string) map[string]*types.Package {
	t.Helper()

	all := map[string][]string{
		"github.com/broady/restroutes": {RuntimeStub},
		"context":                      {ContextStub},
	}
	for path, files := range sources {
		all[path] = files
	}

	im := &sourceImporter{
		fset:    token.NewFileSet(),
		sources: all,
		pkgs:    make(map[string]*types.Package),
	}
	paths := make([]string, 0, len(sources))
	for path := range sources {
		paths = append(paths, path)
	}
	slices.Sort(paths)
	for _, path := range paths {
		if _, err := im.Import(path); err != nil {
			t.Fatalf("type-check %s: %v\n%s", path, err, strings.Join(sources[path], "\n----\n"))
		}
	}
	return im.pkgs
}

type sourceImporter struct {
	fset    *token.FileSet
	sources map[string][]string
	pkgs    map[string]*types.Package
}

func (im *sourceImporter) Import(path string) (*types.Package, error) {
	if p, ok := im.pkgs[path]; ok {
		return p, nil
	}
	srcs, ok := im.sources[path]
	if !ok {
		return nil, fmt.Errorf("package %q not provided", path)
	}

	files := make([]*ast.File, 0, len(srcs))
	for i, src := range srcs {
		f, err := parser.ParseFile(im.fset, fmt.Sprintf("%s/file%d.go", path, i), src, parser.ParseComments)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}

	conf := types.Config{Importer: im}
	p, err := conf.Check(path, im.fset, files, nil)
	if err != nil {
		return nil, err
	}
	im.pkgs[path] = p
	return p, nil
}
