package golang

import (
	"cmp"
	"fmt"
	"slices"
	"text/template"
)

// Router is a generated router type.
type Router struct {
	Name        string
	Constructor string
	Package     *Package
	File        *File

	// Base is the router this one embeds, if any.
	Base *Router

	// Accessors are the router's own accessors, sorted by name.
	Accessors []Accessor
}

// Accessor is one router method returning a route group.
type Accessor struct {
	Name  string
	Class *ClassType
}

// AllAccessors returns the names of every accessor callable on r,
// including those promoted from its base routers, sorted.
func (r *Router) AllAccessors() []string {
	var names []string
	for cur := r; cur != nil; cur = cur.Base {
		for _, a := range cur.Accessors {
			names = append(names, a.Name)
		}
	}
	slices.Sort(names)
	return names
}

// accessor finds an accessor by name on r or its bases.
func (r *Router) accessor(name string) (*Router, bool) {
	for cur := r; cur != nil; cur = cur.Base {
		for _, a := range cur.Accessors {
			if a.Name == name {
				return cur, true
			}
		}
	}
	return nil, false
}

// Composer generates router types.
type Composer struct {
	model *Model
}

// NewComposer returns a composer emitting into model.
func NewComposer(model *Model) *Composer {
	return &Composer{model: model}
}

// Compose emits a router named name into pkg with one accessor per class.
// When base is non-nil the router embeds it, and its constructor builds
// the base from the same client before setting its own field.
func (c *Composer) Compose(name string, classes []*ClassType, pkg *Package, base *Router) (*Router, error) {
	r := &Router{
		Name:    ExportedName(name),
		Package: pkg,
		Base:    base,
	}
	r.Constructor = "New" + r.Name

	if err := pkg.Declare(r.Name, "router "+name); err != nil {
		return nil, err
	}
	if err := pkg.Declare(r.Constructor, "router "+name); err != nil {
		return nil, err
	}

	owner := make(map[string]*ClassType)
	for _, ct := range classes {
		if prev, ok := owner[ct.Accessor]; ok {
			return nil, fmt.Errorf("%w: %s.%s for both %s and %s", ErrDuplicateAccessor, r.Name, ct.Accessor, prev.Name, ct.Name)
		}
		if base != nil {
			if ct.Accessor == base.Name {
				return nil, fmt.Errorf("%w: %s.%s collides with the embedded %s", ErrDuplicateAccessor, r.Name, ct.Accessor, base.Name)
			}
			if from, ok := base.accessor(ct.Accessor); ok {
				return nil, fmt.Errorf("%w: %s.%s hides %s.%s", ErrDuplicateAccessor, r.Name, ct.Accessor, from.Name, ct.Accessor)
			}
		}
		owner[ct.Accessor] = ct
		r.Accessors = append(r.Accessors, Accessor{Name: ct.Accessor, Class: ct})
	}
	slices.SortFunc(r.Accessors, func(a, b Accessor) int {
		return cmp.Compare(a.Name, b.Name)
	})

	imps := newImportSet(pkg.Path)
	imps.use(RuntimePackage, "restroutes")

	data := routerData{
		Header: Header,
		Router: r,
	}
	if base != nil {
		data.BaseType = imps.qualify(base.Package.Path, base.Package.Name, base.Name)
		data.BaseConstructor = imps.qualify(base.Package.Path, base.Package.Name, base.Constructor)
	}
	for _, a := range r.Accessors {
		data.Accessors = append(data.Accessors, accessorData{
			Name:        a.Name,
			Resource:    a.Class.Resource,
			Type:        imps.qualify(a.Class.Package.Path, a.Class.Package.Name, a.Class.Name),
			Constructor: imps.qualify(a.Class.Package.Path, a.Class.Package.Name, a.Class.Constructor),
		})
	}
	data.Package = pkg.Name
	data.Imports = imps.specs()

	src, err := render(routerTemplate, fileName(r.Name), data)
	if err != nil {
		return nil, err
	}
	r.File, err = pkg.addFile(fileName(r.Name), src)
	if err != nil {
		return nil, err
	}
	return r, nil
}

type accessorData struct {
	Name        string
	Resource    string
	Type        string
	Constructor string
}

type routerData struct {
	Header          string
	Package         string
	Imports         []importSpec
	Router          *Router
	BaseType        string
	BaseConstructor string
	Accessors       []accessorData
}

var routerTemplate = template.Must(template.New("router").Parse(importsTemplate + `{{.Header}}

package {{.Package}}

{{template "imports" .Imports}}
// {{.Router.Name}} exposes one accessor per route group
{{- if .BaseType}}, in addition to
// every accessor of {{.BaseType}}{{end}}.
type {{.Router.Name}} struct {
{{- with .BaseType}}
	*{{.}}
{{end}}
	client *restroutes.Client
}

// {{.Router.Constructor}} returns a {{.Router.Name}} sending requests through client.
func {{.Router.Constructor}}(client *restroutes.Client) *{{.Router.Name}} {
	return &{{.Router.Name}}{
{{- with .BaseConstructor}}
		{{$.Router.Base.Name}}: {{.}}(client),
{{- end}}
		client: client,
	}
}
{{range .Accessors}}
// {{.Name}} returns the routes of {{.Resource}}.
func (r *{{$.Router.Name}}) {{.Name}}() *{{.Type}} {
	return {{.Constructor}}(r.client)
}
{{end}}`))
