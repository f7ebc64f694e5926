package provider

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/broady/restroutes/routegen/descriptor"
)

var validate = validator.New()

// Document is the declarative descriptor format read by FileProvider.
//
//	package: example.com/rest/resources
//	resources:
//	  - name: InputsResource
//	    path: /system/inputs
//	    operations:
//	      - name: Launch
//	        verbs: [POST]
//	        path: "{inputId}/launch"
//	        params:
//	          - {name: inputId, role: path, type: string}
//	        returns: "*example.com/models.InputSummary"
type Document struct {
	Package   string             `yaml:"package" toml:"package"`
	Resources []ResourceDocument `yaml:"resources" toml:"resources" validate:"dive"`
}

// ResourceDocument declares one resource.
type ResourceDocument struct {
	Name       string              `yaml:"name" toml:"name" validate:"required"`
	Package    string              `yaml:"package" toml:"package"`
	Path       string              `yaml:"path" toml:"path" validate:"omitempty,startswith=/"`
	Doc        string              `yaml:"doc" toml:"doc"`
	Operations []OperationDocument `yaml:"operations" toml:"operations" validate:"dive"`
}

// OperationDocument declares one operation.
type OperationDocument struct {
	Name     string          `yaml:"name" toml:"name" validate:"required"`
	Verbs    []string        `yaml:"verbs" toml:"verbs"`
	Path     *string         `yaml:"path" toml:"path"`
	Params   []ParamDocument `yaml:"params" toml:"params" validate:"dive"`
	Returns  string          `yaml:"returns" toml:"returns"`
	Response string          `yaml:"response" toml:"response"`
	Doc      string          `yaml:"doc" toml:"doc"`
}

// ParamDocument declares one operation parameter.
type ParamDocument struct {
	Name string `yaml:"name" toml:"name" validate:"required"`
	Role string `yaml:"role" toml:"role" validate:"omitempty,oneof=body path context"`
	Type string `yaml:"type" toml:"type"`
}

// FileProvider reads descriptors from declarative documents.
//
// The namespace passed to Resources is a file path or glob pattern,
// resolved against the provider's directory when relative. Files ending in
// .toml are decoded as TOML; .yaml, .yml and .json as YAML.
type FileProvider struct {
	dir string
}

// NewFileProvider creates a provider resolving relative patterns in dir.
func NewFileProvider(dir string) *FileProvider {
	return &FileProvider{dir: dir}
}

// Resources reads every file matching pattern, in lexical order.
func (p *FileProvider) Resources(ctx context.Context, pattern string) ([]descriptor.Resource, error) {
	if !filepath.IsAbs(pattern) && p.dir != "" {
		pattern = filepath.Join(p.dir, pattern)
	}
	files, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no descriptor files match %q", pattern)
	}

	var resources []descriptor.Resource
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		doc, err := ReadDocument(file)
		if err != nil {
			return nil, err
		}
		found, err := doc.Descriptors(file)
		if err != nil {
			return nil, err
		}
		resources = append(resources, found...)
	}
	return resources, nil
}

// ReadDocument decodes and validates the document in file.
func ReadDocument(file string) (*Document, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read descriptors: %w", err)
	}

	var doc Document
	switch strings.ToLower(filepath.Ext(file)) {
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("%s: %w", file, err)
		}
	case ".yaml", ".yml", ".json":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%s: %w", file, err)
		}
	default:
		return nil, fmt.Errorf("%s: unsupported descriptor format %q", file, filepath.Ext(file))
	}

	if err := validate.Struct(&doc); err != nil {
		return nil, fmt.Errorf("%s: %w", file, descriptor.FormatValidationError(err))
	}
	return &doc, nil
}

// Descriptors converts the document into resource descriptors.
// file is used for positions in diagnostics.
func (d *Document) Descriptors(file string) ([]descriptor.Resource, error) {
	resources := make([]descriptor.Resource, 0, len(d.Resources))
	for i, rd := range d.Resources {
		res := descriptor.Resource{
			Name:    rd.Name,
			Package: rd.Package,
			Path:    rd.Path,
			Doc:     rd.Doc,
			Pos:     fmt.Sprintf("%s: resources[%d]", file, i),
		}
		if res.Package == "" {
			res.Package = d.Package
		}

		for j, od := range rd.Operations {
			pos := fmt.Sprintf("%s: resources[%d].operations[%d]", file, i, j)
			op, err := od.operation(pos)
			if err != nil {
				return nil, fmt.Errorf("%s (%s.%s): %w", pos, rd.Name, od.Name, err)
			}
			res.Operations = append(res.Operations, op)
		}
		resources = append(resources, res)
	}
	return resources, nil
}

func (od OperationDocument) operation(pos string) (descriptor.Operation, error) {
	op := descriptor.Operation{
		Name:  od.Name,
		Verbs: od.Verbs,
		Path:  od.Path,
		Doc:   od.Doc,
		Pos:   pos,
	}

	if od.Returns != "" {
		t, err := descriptor.ParseType(od.Returns)
		if err != nil {
			return op, fmt.Errorf("returns: %w", err)
		}
		op.Returns = t
	}
	if od.Response != "" {
		t, err := descriptor.ParseType(od.Response)
		if err != nil {
			return op, fmt.Errorf("response: %w", err)
		}
		op.DocumentedResponse = &t
	}

	for _, pd := range od.Params {
		role, err := descriptor.ParseRole(pd.Role)
		if err != nil {
			return op, err
		}
		param := descriptor.Param{Name: pd.Name, Role: role}
		if role != descriptor.RoleContext {
			if pd.Type == "" {
				return op, fmt.Errorf("parameter %s: type is required", pd.Name)
			}
			param.Type, err = descriptor.ParseType(pd.Type)
			if err != nil {
				return op, fmt.Errorf("parameter %s: %w", pd.Name, err)
			}
		}
		op.Params = append(op.Params, param)
	}
	return op, nil
}
