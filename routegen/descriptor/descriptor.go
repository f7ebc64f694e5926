// Package descriptor defines the metadata-only view of annotated server
// resources that route generation works from.
//
// A front end (see package provider) turns some authoring format into
// descriptors: annotated Go source, a declarative document, or anything else
// that can enumerate resources under a namespace. The route parser depends
// only on these types, never on the mechanism that produced them.
package descriptor

import (
	"context"
	"fmt"
	"strings"
)

// Source enumerates resource descriptors under a namespace.
// The meaning of namespace is defined by the implementation
// (a package pattern, a file glob, ...).
type Source interface {
	Resources(ctx context.Context, namespace string) ([]Resource, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context, namespace string) ([]Resource, error)

// Resources calls f(ctx, namespace).
func (f SourceFunc) Resources(ctx context.Context, namespace string) ([]Resource, error) {
	return f(ctx, namespace)
}

// Resource describes one server-side resource type.
type Resource struct {
	// Name identifies the resource, e.g. "SystemResource".
	Name string `validate:"required"`

	// Package is the namespace the resource was found in.
	Package string

	// Path is the class-level path template. An empty Path means the
	// descriptor carries no path marker and is not a resource.
	Path string

	// Doc is the resource documentation, if any.
	Doc string

	// Operations lists the public operations in discovery order.
	Operations []Operation `validate:"dive"`

	// Pos is a human readable source position for diagnostics.
	Pos string
}

// HasPath reports whether the resource carries a class-level path.
func (r *Resource) HasPath() bool {
	return r.Path != ""
}

// Operation describes one public operation of a resource.
type Operation struct {
	// Name is the operation name; it becomes the generated method name.
	Name string `validate:"required"`

	// Verbs holds every HTTP verb marker found on the operation, recognized
	// or not. Interpreting them is up to the route parser.
	Verbs []string

	// Path is the method-level path suffix. Nil means no suffix marker;
	// a pointer to "" is an explicit empty suffix.
	Path *string

	// Params lists parameters in declaration order.
	Params []Param `validate:"dive"`

	// Returns is the declared result type. The zero TypeRef is the
	// "no value" marker.
	Returns TypeRef

	// DocumentedResponse is the optional documented response type.
	DocumentedResponse *TypeRef

	Doc string
	Pos string
}

// Param describes one operation parameter.
type Param struct {
	// Name is the parameter name. For path parameters this is the
	// path template placeholder the parameter is bound to.
	Name string `validate:"required"`
	Role Role
	Type TypeRef
}

// Role is the binding role of a parameter.
type Role int

const (
	RoleBody    Role = iota // unmarked; candidate for the request payload
	RolePath                // bound to a path template placeholder
	RoleContext             // injected by the server environment
)

func (r Role) String() string {
	switch r {
	case RoleBody:
		return "body"
	case RolePath:
		return "path"
	case RoleContext:
		return "context"
	default:
		return "unknown"
	}
}

// ParseRole parses a role name. The empty string is RoleBody.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "body":
		return RoleBody, nil
	case "path":
		return RolePath, nil
	case "context":
		return RoleContext, nil
	default:
		return 0, fmt.Errorf("unknown parameter role %q (expected path, context or body)", s)
	}
}

// StringPtr returns a pointer to s. It is a convenience for Operation.Path.
func StringPtr(s string) *string {
	return &s
}
