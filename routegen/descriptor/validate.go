package descriptor

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validate checks the structural requirements of a resource descriptor:
// names are present on the resource, its operations and their parameters.
// It does not interpret verbs or paths; that is the route parser's job.
func Validate(r *Resource) error {
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("resource %s: %w", describe(r), FormatValidationError(err))
	}
	return nil
}

func describe(r *Resource) string {
	switch {
	case r.Name != "" && r.Pos != "":
		return r.Name + " (" + r.Pos + ")"
	case r.Name != "":
		return r.Name
	case r.Pos != "":
		return r.Pos
	default:
		return "<unnamed>"
	}
}

// FormatValidationError flattens validator errors into a single readable
// error. Other errors are returned unchanged.
func FormatValidationError(err error) error {
	var valErrs validator.ValidationErrors
	if !errors.As(err, &valErrs) {
		return err
	}
	messages := make([]string, 0, len(valErrs))
	for _, ve := range valErrs {
		messages = append(messages, fieldPath(ve)+": "+formatFieldError(ve))
	}
	return errors.New(strings.Join(messages, "; "))
}

// fieldPath strips the top-level struct name from the namespace,
// e.g. "Resource.Operations[0].Name" becomes "Operations[0].Name".
func fieldPath(ve validator.FieldError) string {
	ns := ve.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func formatFieldError(ve validator.FieldError) string {
	switch ve.Tag() {
	case "required":
		return "required"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", ve.Param())
	case "min":
		return fmt.Sprintf("must have at least %s elements", ve.Param())
	case "startswith":
		return fmt.Sprintf("must start with %q", ve.Param())
	default:
		if ve.Param() != "" {
			return fmt.Sprintf("failed %s=%s validation", ve.Tag(), ve.Param())
		}
		return fmt.Sprintf("failed %s validation", ve.Tag())
	}
}
