package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Decrypted request bodies never pass through gin binding, so the package
// keeps its own validator instance in addition to configuring gin's.

var v = newValidator()

func newValidator() *validator.Validate {
	val := validator.New(validator.WithRequiredStructEnabled())
	configure(val)
	return val
}

// Init configures the global validator used by Gin's binding.
// - Uses JSON tag names in errors.
// - Registers alias tags for common validations.
func Init() {
	if gv, ok := binding.Validator.Engine().(*validator.Validate); ok {
		configure(gv)
	}
}

func configure(val *validator.Validate) {
	val.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	val.RegisterAlias("pwd", "min=8,max=20,containsany=0123456789,containsany=abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ")
	val.RegisterAlias("mobile", "len=10,number")
	val.RegisterAlias("personname", "min=2,max=50")
}

// Struct validates a decrypted DTO with the same rules gin binding applies.
func Struct(s any) error {
	return v.Struct(s)
}

// ToDetails converts validation/binding errors into a map[field]message
// suitable for API error details.
func ToDetails(err error) map[string]string {
	if err == nil {
		return nil
	}

	// Invalid JSON payloads
	var se *json.SyntaxError
	var ute *json.UnmarshalTypeError
	if errors.As(err, &se) || errors.As(err, &ute) {
		return map[string]string{"payload": "invalid json"}
	}

	// Validation errors from validator.v10
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		out := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			out[fe.Field()] = formatFieldError(fe)
		}
		return out
	}

	// Fallback
	return map[string]string{"payload": "invalid payload"}
}

func formatFieldError(fe validator.FieldError) string {
	tag := fe.Tag()
	param := fe.Param()

	switch tag {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "uuid", "uuid4":
		return "must be a valid UUID"
	case "number":
		return "must contain digits only"
	case "len":
		return "must be exactly " + param + " characters"
	case "min":
		return "must be at least " + param + " characters"
	case "max":
		return "must be at most " + param + " characters"
	case "containsany":
		return "must contain at least one of '" + param + "'"
	case "pwd":
		return "must be 8-20 characters with at least one letter and one digit"
	case "mobile":
		return "must be a valid 10-digit mobile number"
	case "personname":
		return "must be between 2 and 50 characters"
	default:
		return fmt.Sprintf("failed %s validation", tag)
	}
}

// ValidationsError represents a structured validation error
type ValidationsError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Value   string `json:"value"`
	Message string `json:"message"`
}
