package handlers

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// ValidationError carries per-field messages for a request that failed shape validation.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, field+": "+msg)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// newValidator returns a validator that reports JSON field names and treats
// decimal.Decimal as a number for tags such as gt.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	return v
}

// toValidationError converts validator output into a ValidationError. Field
// keys drop the top-level struct name, e.g. "products[0].quantity".
func toValidationError(err error, field string) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}
	fields := make(map[string]string, len(validationErrors))
	for _, e := range validationErrors {
		key := e.Namespace()
		if i := strings.Index(key, "."); i >= 0 {
			key = key[i+1:]
		}
		if key == "" {
			key = field
		}
		fields[key] = fmt.Sprintf("Field '%s' failed on the '%s' tag", key, e.Tag())
	}
	return &ValidationError{Fields: fields}
}

func validateStruct(v *validator.Validate, s interface{}) error {
	if err := v.Struct(s); err != nil {
		return toValidationError(err, "")
	}
	return nil
}

func validateID(v *validator.Validate, id string) error {
	if err := v.Var(id, "required,uuid"); err != nil {
		return toValidationError(err, "id")
	}
	return nil
}
