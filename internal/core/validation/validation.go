// Package validation checks service inputs against their struct tags and
// reports the first violated constraint as a *domain.ValidationError.
package validation

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/stockroom/storefront/internal/core/domain"
)

// maxSafeInteger is the largest integer a JSON number carries without loss.
const maxSafeInteger = 1<<53 - 1

var std = New()

// Validator wraps go-playground/validator with the storefront's custom tags
// and message rendering. It satisfies echo.Validator.
type Validator struct {
	v *validator.Validate
}

// New returns a Validator with the "integer" tag registered and field names
// taken from json tags.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "query"} {
			name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
			if name != "" && name != "-" {
				return name
			}
		}
		return f.Name
	})
	_ = v.RegisterValidation("integer", isInteger)
	return &Validator{v: v}
}

// Struct validates s with the package-level validator.
func Struct(s any) error {
	return std.Validate(s)
}

// Validate returns nil or the first violation, in field declaration order.
func (val *Validator) Validate(s any) error {
	err := val.v.Struct(s)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		fe := ve[0]
		return &domain.ValidationError{Field: fe.Field(), Message: message(fe)}
	}
	return err
}

func isInteger(fl validator.FieldLevel) bool {
	f := fl.Field()
	switch f.Kind() {
	case reflect.Float32, reflect.Float64:
		n := f.Float()
		return n == math.Trunc(n) && math.Abs(n) <= maxSafeInteger
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	default:
		return false
	}
}

func message(fe validator.FieldError) string {
	label := label(fe.Field())
	switch fe.Tag() {
	case "required":
		return label + " is required"
	case "email":
		return "Invalid email address"
	case "integer":
		return label + " must be an integer"
	case "numeric":
		return label + " must be a number"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", label, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "gt":
		if fe.Param() == "0" {
			return label + " must be positive"
		}
		return fmt.Sprintf("%s must be greater than %s", label, fe.Param())
	case "min":
		if fe.Kind() == reflect.String {
			if fe.Param() == "1" {
				return label + " is required"
			}
			return fmt.Sprintf("%s must be at least %s characters", label, fe.Param())
		}
		if fe.Param() == "0" {
			return label + " must be non-negative"
		}
		return fmt.Sprintf("%s must be at least %s", label, fe.Param())
	default:
		return fmt.Sprintf("%s failed validation (%s)", label, fe.Tag())
	}
}

// label turns a json field name such as "minPrice" into "MinPrice".
func label(field string) string {
	if field == "" {
		return field
	}
	r := []rune(field)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
