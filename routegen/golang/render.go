package golang

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"golang.org/x/tools/imports"
)

// Header starts every generated file.
const Header = "// Code generated by restroutes. DO NOT EDIT."

var funcs = template.FuncMap{
	"comment": comment,
}

// comment renders text as // comment lines, one per line of text.
func comment(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	var b strings.Builder
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, " \t")
		if line == "" {
			b.WriteString("//\n")
			continue
		}
		b.WriteString("// " + line + "\n")
	}
	return b.String()
}

// render executes tmpl and formats the result as Go source.
func render(tmpl *template.Template, filename string, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render %s: %w", filename, err)
	}
	out, err := imports.Process(filename, buf.Bytes(), &imports.Options{
		Comments:   true,
		TabIndent:  true,
		TabWidth:   8,
		FormatOnly: true,
	})
	if err != nil {
		return nil, fmt.Errorf("format %s: %w\n%s", filename, err, buf.Bytes())
	}
	return out, nil
}

const importsTemplate = `{{define "imports"}}import (
{{range .}}	{{with .Name}}{{.}} {{end}}"{{.Path}}"
{{end}})
{{end}}`
