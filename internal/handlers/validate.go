package handlers

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"refto/internal/models"
	"refto/internal/storage"
)

// validate is shared by every handler; validator caches struct metadata.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their JSON names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})

	v.RegisterValidation("tagtype", func(fl validator.FieldLevel) bool {
		return models.TagType(fl.Field().String()).Valid()
	})
	v.RegisterValidation("mediakind", func(fl validator.FieldLevel) bool {
		_, err := storage.ParseMediaKind(fl.Field().String())
		return err == nil
	})
	return v
}

// fieldErrors maps JSON field names to a readable message.
type fieldErrors map[string]string

func (fe fieldErrors) Error() string {
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + fe[k]
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// validateStruct runs the struct tags on dst and converts failures into
// fieldErrors.
func validateStruct(dst any) error {
	err := validate.Struct(dst)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fe := make(fieldErrors, len(verrs))
	for _, e := range verrs {
		fe[fieldPath(e)] = message(e)
	}
	return fe
}

// fieldPath drops the root struct name from the namespace.
func fieldPath(e validator.FieldError) string {
	ns := e.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func message(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "url", "http_url":
		return "must be a valid URL"
	case "email":
		return "must be a valid email address"
	case "max":
		if e.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", e.Param())
		}
		return "must be at most " + e.Param()
	case "min":
		if e.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", e.Param())
		}
		return "must be at least " + e.Param()
	case "tagtype":
		return "must be one of category, section, style"
	case "mediakind":
		return "unknown media kind"
	case "oneof":
		return "must be one of " + e.Param()
	default:
		return "failed " + e.Tag() + " check"
	}
}
