package route

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/broady/restroutes/routegen/descriptor"
)

var (
	str   = descriptor.Builtin("string")
	input = descriptor.Named("example.com/models", "InputLaunchRequest")
)

func staticSource(resources ...descriptor.Resource) descriptor.Source {
	return descriptor.SourceFunc(func(ctx context.Context, namespace string) ([]descriptor.Resource, error) {
		return resources, nil
	})
}

func newTestParser(resources ...descriptor.Resource) *Parser {
	return NewParser(staticSource(resources...),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
}

func TestAbsolutePath(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
		suffix *string
		want   string
	}{
		{"inserts separator", "/a", descriptor.StringPtr("b"), "/a/b"},
		{"prefix has separator", "/a/", descriptor.StringPtr("b"), "/a/b"},
		{"suffix has separator", "/a", descriptor.StringPtr("/b"), "/a/b"},
		{"both have separator", "/a/", descriptor.StringPtr("/b"), "/a//b"},
		{"no suffix", "/a", nil, "/a"},
		{"empty suffix", "/a", descriptor.StringPtr(""), "/a/"},
		{"template placeholders", "/system/inputs", descriptor.StringPtr("{inputId}/launch"), "/system/inputs/{inputId}/launch"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AbsolutePath(tt.prefix, tt.suffix); got != tt.want {
				t.Errorf("AbsolutePath(%q, %v) = %q, want %q", tt.prefix, tt.suffix, got, tt.want)
			}
		})
	}
}

func TestParseVerb(t *testing.T) {
	for _, v := range Verbs() {
		got, ok := ParseVerb(v.String())
		if !ok || got != v {
			t.Errorf("ParseVerb(%q) = %v, %v", v.String(), got, ok)
		}
	}
	if v, ok := ParseVerb("get"); !ok || v != VerbGet {
		t.Errorf("ParseVerb(get) = %v, %v", v, ok)
	}
	for _, marker := range []string{"HEAD", "PATCH", "OPTIONS", ""} {
		if _, ok := ParseVerb(marker); ok {
			t.Errorf("ParseVerb(%q) recognized, want unrecognized", marker)
		}
	}
}

func TestBuildRoute_PathParamOrder(t *testing.T) {
	op := descriptor.Operation{
		Name:  "Get",
		Verbs: []string{"GET"},
		Path:  descriptor.StringPtr("{id}/{type}"),
		Params: []descriptor.Param{
			{Name: "id", Role: descriptor.RolePath, Type: str},
			{Name: "type", Role: descriptor.RolePath, Type: descriptor.Builtin("int")},
		},
		Returns: descriptor.Void(),
	}

	r, ok, err := BuildRoute("ThingsResource", "/things", op)
	if err != nil || !ok {
		t.Fatalf("BuildRoute: ok=%v err=%v", ok, err)
	}
	if len(r.PathParams) != 2 {
		t.Fatalf("got %d path params, want 2", len(r.PathParams))
	}
	if r.PathParams[0].Name != "id" || r.PathParams[1].Name != "type" {
		t.Errorf("path params = %v, want [id type]", r.PathParams)
	}
	if !r.PathParams[1].Type.Equal(descriptor.Builtin("int")) {
		t.Errorf("type param type = %s, want int", r.PathParams[1].Type)
	}
	if r.Body != nil {
		t.Errorf("unexpected body %s", r.Body)
	}
}

func TestBuildRoute_BodyParam(t *testing.T) {
	tests := []struct {
		name     string
		params   []descriptor.Param
		wantBody *descriptor.TypeRef
	}{
		{
			name: "path then body",
			params: []descriptor.Param{
				{Name: "id", Role: descriptor.RolePath, Type: str},
				{Name: "type", Type: input},
			},
			wantBody: &input,
		},
		{
			name: "two candidates keeps first",
			params: []descriptor.Param{
				{Name: "first", Type: input},
				{Name: "second", Type: str},
			},
			wantBody: &input,
		},
		{
			name: "context parameters are not candidates",
			params: []descriptor.Param{
				{Name: "ctx", Role: descriptor.RoleContext, Type: descriptor.Named("context", "Context")},
				{Name: "id", Role: descriptor.RolePath, Type: str},
			},
			wantBody: nil,
		},
		{
			name:     "no params",
			wantBody: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op := descriptor.Operation{Name: "Op", Verbs: []string{"POST"}, Params: tt.params}
			r, ok, err := BuildRoute("R", "/r", op)
			if err != nil || !ok {
				t.Fatalf("BuildRoute: ok=%v err=%v", ok, err)
			}
			switch {
			case tt.wantBody == nil && r.Body != nil:
				t.Errorf("body = %s, want none", r.Body)
			case tt.wantBody != nil && r.Body == nil:
				t.Errorf("body missing, want %s", tt.wantBody)
			case tt.wantBody != nil && !r.Body.Equal(*tt.wantBody):
				t.Errorf("body = %s, want %s", r.Body, tt.wantBody)
			}
		})
	}
}

func TestBuildRoute_Verbs(t *testing.T) {
	tests := []struct {
		name    string
		verbs   []string
		want    Verb
		wantOK  bool
		wantErr error
	}{
		{"single", []string{"DELETE"}, VerbDelete, true, nil},
		{"none", nil, 0, false, nil},
		{"unrecognized only", []string{"HEAD"}, 0, false, nil},
		{"unrecognized ignored", []string{"HEAD", "PUT"}, VerbPut, true, nil},
		{"repeated marker", []string{"GET", "get"}, VerbGet, true, nil},
		{"ambiguous", []string{"GET", "POST"}, 0, false, ErrAmbiguousVerb},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, ok, err := BuildRoute("R", "/r", descriptor.Operation{Name: "Op", Verbs: tt.verbs})
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && r.Verb != tt.want {
				t.Errorf("verb = %v, want %v", r.Verb, tt.want)
			}
		})
	}
}

func TestParser_Scan(t *testing.T) {
	p := newTestParser(
		descriptor.Resource{
			Name: "SystemResource",
			Path: "/system",
			Operations: []descriptor.Operation{
				{Name: "System", Verbs: []string{"GET"}},
				{Name: "Jvm", Verbs: []string{"GET"}, Path: descriptor.StringPtr("jvm")},
				{Name: "helper"},
			},
		},
		descriptor.Resource{Name: "NotAResource"},
		descriptor.Resource{
			Name: "BuffersResource",
			Path: "/system/buffers",
			Operations: []descriptor.Operation{
				{Name: "Utilization", Verbs: []string{"GET"}},
			},
		},
	)

	classes, err := p.Scan(context.Background(), "shared")
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(classes) != 2 {
		t.Fatalf("got %d classes, want 2", len(classes))
	}

	system := classes[0]
	if system.Resource != "SystemResource" || system.PathPrefix != "/system" {
		t.Errorf("unexpected class %+v", system)
	}
	if len(system.Routes) != 2 {
		t.Fatalf("got %d routes, want 2 (helper has no verb)", len(system.Routes))
	}
	for _, class := range classes {
		for _, r := range class.Routes {
			if len(r.Path) < len(class.PathPrefix) || r.Path[:len(class.PathPrefix)] != class.PathPrefix {
				t.Errorf("route %s does not start with prefix %q", r, class.PathPrefix)
			}
		}
	}
	if got := system.Routes[1].Path; got != "/system/jvm" {
		t.Errorf("jvm path = %q", got)
	}
}

func TestParser_Scan_Errors(t *testing.T) {
	t.Run("ambiguous verb is fatal", func(t *testing.T) {
		p := newTestParser(descriptor.Resource{
			Name:       "InputsResource",
			Path:       "/system/inputs",
			Operations: []descriptor.Operation{{Name: "Create", Verbs: []string{"POST", "PUT"}}},
		})
		_, err := p.Scan(context.Background(), "server")
		if !errors.Is(err, ErrAmbiguousVerb) {
			t.Fatalf("err = %v, want ErrAmbiguousVerb", err)
		}
	})

	t.Run("invalid descriptor", func(t *testing.T) {
		p := newTestParser(descriptor.Resource{
			Name:       "InputsResource",
			Path:       "/system/inputs",
			Operations: []descriptor.Operation{{Verbs: []string{"GET"}}},
		})
		if _, err := p.Scan(context.Background(), "server"); err == nil {
			t.Fatal("expected validation error")
		}
	})

	t.Run("source error", func(t *testing.T) {
		boom := errors.New("boom")
		p := NewParser(descriptor.SourceFunc(func(context.Context, string) ([]descriptor.Resource, error) {
			return nil, boom
		}))
		if _, err := p.Scan(context.Background(), "x"); !errors.Is(err, boom) {
			t.Fatalf("err = %v, want boom", err)
		}
	})
}

func TestSort(t *testing.T) {
	classes := []RouteClass{
		{Resource: "B", Routes: []Route{{Operation: "z"}, {Operation: "a"}}},
		{Resource: "A", Routes: []Route{{Operation: "m", PathParams: []PathParam{{Name: "y"}, {Name: "x"}}}}},
	}
	Sort(classes)

	if classes[0].Resource != "A" || classes[1].Resource != "B" {
		t.Errorf("classes not sorted: %s, %s", classes[0].Resource, classes[1].Resource)
	}
	if classes[1].Routes[0].Operation != "a" {
		t.Errorf("routes not sorted: %v", classes[1].Routes)
	}
	if pp := classes[0].Routes[0].PathParams; pp[0].Name != "y" || pp[1].Name != "x" {
		t.Errorf("path params reordered: %v", pp)
	}
}
