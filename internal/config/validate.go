package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationIssue describes a problem with a config value.
type ValidationIssue struct {
	Path    string
	Message string
}

func (v ValidationIssue) String() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their YAML key so issues point at the config file.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// Validate checks a Config for issues. Returns nil if valid.
func Validate(cfg *Config) []ValidationIssue {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []ValidationIssue{{Path: "", Message: err.Error()}}
	}

	issues := make([]ValidationIssue, 0, len(verrs))
	for _, fe := range verrs {
		issues = append(issues, ValidationIssue{
			Path:    issuePath(fe.Namespace()),
			Message: issueMessage(fe),
		})
	}
	return issues
}

// issuePath drops the root struct name: "Config.mistral.apiKey" → "mistral.apiKey".
func issuePath(ns string) string {
	_, rest, found := strings.Cut(ns, ".")
	if !found {
		return ns
	}
	return rest
}

func issueMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "required_if":
		return "is required when " + strings.ReplaceAll(fe.Param(), " ", " is ")
	case "url":
		return fmt.Sprintf("must be a valid URL, got %q", fe.Value())
	case "oneof":
		return fmt.Sprintf("must be one of [%s], got %q", fe.Param(), fe.Value())
	case "min":
		return fmt.Sprintf("must be >= %s, got %v", fe.Param(), fe.Value())
	case "max":
		return fmt.Sprintf("must be <= %s, got %v", fe.Param(), fe.Value())
	default:
		return fmt.Sprintf("failed %q validation", fe.Tag())
	}
}
